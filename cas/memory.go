package cas

import (
	"bytes"
	"io"
	"slices"
	"sync"

	"github.com/fumola-dev/fumola/interp"
)

type MemoryCAS struct {
	mu     sync.RWMutex
	data   map[Hash][]byte
	visits map[Hash][]int // rounds at which each system hash was recorded
}

func NewMemoryCAS() *MemoryCAS {
	return &MemoryCAS{
		data:   make(map[Hash][]byte),
		visits: make(map[Hash][]int),
	}
}

func (m *MemoryCAS) getValue(h Hash) (bool, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[h]
	if !ok {
		return false, nil, nil
	}
	return true, v, nil
}

func (m *MemoryCAS) getReader(h Hash) (bool, io.Reader, error) {
	has, data, err := m.getValue(h)
	if !has || err != nil {
		return has, nil, err
	}
	return true, bytes.NewReader(data), nil
}

func (m *MemoryCAS) Has(hash Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[hash]
	return ok
}

// Len is the number of stored items, decomposed parts included.
func (m *MemoryCAS) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

func (m *MemoryCAS) Put(item Hashable) (Hash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sys, ok := item.(*interp.System); ok {
		return decomposeSystem(m, sys)
	}

	return putDirect(m, item)
}

// RecordVisit records that the system with the given hash was seen after
// the given round.
func (m *MemoryCAS) RecordVisit(hash Hash, round int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits[hash] = append(m.visits[hash], round)
	slices.Sort(m.visits[hash])
}

// Visits returns the rounds at which hash was recorded.
func (m *MemoryCAS) Visits(hash Hash) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.visits[hash])
}
