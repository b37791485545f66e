package cas

import (
	"github.com/fumola-dev/fumola/interp"
)

// Test helpers exposing decomposition to the integration tests.

func DecomposeSystemForTest(c *MemoryCAS, s *interp.System) (Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return decomposeSystem(c, s)
}

func RecomposeSystemForTest(c *MemoryCAS, hash Hash) (*interp.System, error) {
	return recomposeSystem(c, hash)
}
