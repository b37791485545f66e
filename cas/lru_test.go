package cas

import (
	"testing"

	"github.com/fumola-dev/fumola/interp"
	"github.com/fumola-dev/fumola/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putSystem(t *testing.T, n int64) *interp.System {
	t.Helper()
	s, err := interp.NewSystem(vm.NewFreshNames(), vm.Put{Sym: vm.SymValue{Sym: vm.IdSym("x")}, Value: vm.Num(n)})
	require.NoError(t, err)
	s.RunFully()
	return s
}

func TestLRUCache_BasicOperation(t *testing.T) {
	underlying := NewMemoryCAS()
	cache := NewLRUCache(underlying, 3)

	var hashes []Hash
	for i := int64(1); i <= 3; i++ {
		h, err := cache.Put(putSystem(t, i))
		require.NoError(t, err)
		hashes = append(hashes, h)
	}

	retrieved, err := Retrieve[*interp.System](cache, hashes[0])
	require.NoError(t, err)
	v, ok := retrieved.Store.Get(vm.IdSym("x"))
	require.True(t, ok)
	assert.Equal(t, vm.Num(1), v)

	stats := cache.Stats()
	assert.NotZero(t, stats.Size)

	for _, h := range hashes[1:] {
		_, err := Retrieve[*interp.System](cache, h)
		require.NoError(t, err)
	}
	stats = cache.Stats()
	assert.LessOrEqual(t, stats.Size, stats.MaxSize)

	h4, err := cache.Put(putSystem(t, 4))
	require.NoError(t, err)
	_, err = Retrieve[*interp.System](cache, h4)
	require.NoError(t, err)
	stats = cache.Stats()
	assert.LessOrEqual(t, stats.Size, stats.MaxSize)
}

func TestLRUCache_Hits(t *testing.T) {
	cache := NewLRUCache(NewMemoryCAS(), 100)
	h, err := cache.Put(putSystem(t, 42))
	require.NoError(t, err)

	_, err = Retrieve[*interp.System](cache, h)
	require.NoError(t, err)
	first := cache.Stats()
	assert.NotZero(t, first.Misses)

	_, err = Retrieve[*interp.System](cache, h)
	require.NoError(t, err)
	second := cache.Stats()
	assert.Equal(t, first.Misses, second.Misses)
	assert.Greater(t, second.Hits, first.Hits)
}

func TestLRUCache_Has(t *testing.T) {
	cache := NewLRUCache(NewMemoryCAS(), 10)

	hash, err := cache.Put(putSystem(t, 42))
	require.NoError(t, err)
	assert.True(t, cache.Has(hash))
	assert.False(t, cache.Has(Hash(99999)))
}

func TestLRUCache_Visits(t *testing.T) {
	underlying := NewMemoryCAS()
	cache := NewLRUCache(underlying, 10)
	cache.RecordVisit(Hash(7), 3)
	cache.RecordVisit(Hash(7), 1)
	assert.Equal(t, []int{1, 3}, underlying.Visits(Hash(7)))
	assert.Empty(t, cache.Visits(Hash(8)))
}
