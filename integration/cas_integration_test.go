package integration

import (
	"testing"

	"github.com/fumola-dev/fumola/cas"
	"github.com/fumola-dev/fumola/interp"
	"github.com/fumola-dev/fumola/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileSystem(t *testing.T, code string) *interp.System {
	t.Helper()
	prog, err := vm.Compile("test.star", code, "")
	require.NoError(t, err)
	sys, err := interp.NewSystem(vm.NewFreshNames(), prog.Main)
	require.NoError(t, err)
	return sys
}

// TestCAS_SimpleProgram stores a finished program and reads it back
func TestCAS_SimpleProgram(t *testing.T) {
	sys := compileSystem(t, `main = let("p", put(sym("x"), 8), get("p"))`)
	sys.RunFully()
	require.Equal(t, vm.Num(8), sys.Root().RetVal)

	c := cas.NewMemoryCAS()
	hash, err := cas.DecomposeSystemForTest(c, sys)
	require.NoError(t, err)
	assert.NotEqual(t, cas.Hash(0), hash)

	result, err := cas.RecomposeSystemForTest(c, hash)
	require.NoError(t, err)
	assert.Equal(t, sys.String(), result.String())
	v, ok := result.Store.Get(vm.IdSym("x"))
	require.True(t, ok)
	assert.Equal(t, vm.Num(8), v)
}

// TestCAS_MidRunResume recomposes a system between rounds and keeps running it
func TestCAS_MidRunResume(t *testing.T) {
	code := `
main = let(
    "w",
    spawn(sym("w"), nest(sym("w"), put(sym("out"), 3))),
    let("r", link("w"), get("r")),
)
`
	sys := compileSystem(t, code)
	c := cas.NewMemoryCAS()
	for i := 0; i < 3; i++ {
		require.Equal(t, interp.Progress, sys.Step())
	}
	hash, err := c.Put(sys)
	require.NoError(t, err)

	resumed, err := cas.Retrieve[*interp.System](c, hash)
	require.NoError(t, err)
	require.Equal(t, sys.String(), resumed.String())

	sys.RunFully()
	resumed.RunFully()
	assert.Equal(t, sys.String(), resumed.String())
	require.Equal(t, interp.Halted, resumed.Root().Status, resumed.String())
	assert.Equal(t, vm.Num(3), resumed.Root().RetVal)
}

// TestCAS_StructuralSharing stores only the parts that changed between rounds
func TestCAS_StructuralSharing(t *testing.T) {
	code := `
main = seq(
    spawn(sym("idle"), link(sym("never"))),
    put(sym("a"), 1),
    put(sym("b"), 2),
)
`
	sys := compileSystem(t, code)
	c := cas.NewMemoryCAS()
	var sizes []int
	var hashes []cas.Hash
	for {
		h, err := c.Put(sys)
		require.NoError(t, err)
		hashes = append(hashes, h)
		sizes = append(sizes, c.Len())
		if sys.Step() != interp.Progress {
			break
		}
	}
	require.Greater(t, len(hashes), 3)
	for i := 1; i < len(sizes); i++ {
		// each round adds at most the new system, a changed process or two
		// and a new store entry
		assert.LessOrEqual(t, sizes[i]-sizes[i-1], 4, "round %d", i)
	}

	last := hashes[len(hashes)-1]
	h, err := c.Put(sys)
	require.NoError(t, err)
	assert.Equal(t, last, h, "storing the same system twice gives the same hash")
}

// TestCAS_LRUTransparent gives the same answers with and without the cache
func TestCAS_LRUTransparent(t *testing.T) {
	sys := compileSystem(t, `main = nest(sym("n"), seq(put(sym("a"), 1), put(sym("b"), record((sym("k"), 2)))))`)
	sys.RunFully()

	mem := cas.NewMemoryCAS()
	lru := cas.NewLRUCache(cas.NewMemoryCAS(), 2)

	h1, err := mem.Put(sys)
	require.NoError(t, err)
	h2, err := lru.Put(sys)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	for i := 0; i < 3; i++ {
		got, err := cas.Retrieve[*interp.System](lru, h2)
		require.NoError(t, err)
		assert.Equal(t, sys.String(), got.String())
	}
	stats := lru.Stats()
	assert.LessOrEqual(t, stats.Size, 2)
	assert.Positive(t, stats.Hits+stats.Misses)
}
