package cas

import (
	"bytes"
	"fmt"

	"github.com/dgryski/go-farm"
	"github.com/fumola-dev/fumola/interp"
	"github.com/fumola-dev/fumola/vm"
)

// decomposeSystem stores every store entry and every process of s as its
// own CAS item and returns the hash of the SystemRef listing them.
// Callers hold the write lock.
func decomposeSystem(c *MemoryCAS, s *interp.System) (Hash, error) {
	if s == nil {
		return 0, fmt.Errorf("cannot decompose nil System")
	}

	ref := &SystemRef{}
	for _, k := range s.Store.Keys() {
		v, _ := s.Store.Get(k)
		h, err := putDirect(c, &EntryRef{Sym: vm.EncodeSym(k), Value: vm.EncodeVal(v)})
		if err != nil {
			return 0, fmt.Errorf("decomposing store entry %s: %w", k, err)
		}
		ref.EntryHashes = append(ref.EntryHashes, h)
	}

	for _, name := range s.Names() {
		h, err := decomposeProc(c, name, s.Procs[name])
		if err != nil {
			return 0, fmt.Errorf("decomposing process %s: %w", name, err)
		}
		ref.ProcHashes = append(ref.ProcHashes, h)
	}

	return putDirect(c, ref)
}

func decomposeProc(c *MemoryCAS, name vm.Sym, p *interp.Proc) (Hash, error) {
	if p == nil {
		return 0, fmt.Errorf("cannot decompose nil Proc")
	}
	return putDirect(c, &ProcRef{Name: vm.EncodeSym(name), Proc: interp.EncodeProc(p)})
}

// putDirect stores an item in the CAS without further decomposition.
// The hash is that of the item's own bytes, so equal items share storage.
func putDirect(c *MemoryCAS, item Hashable) (Hash, error) {
	var buf bytes.Buffer
	if err := item.Serialize(&buf); err != nil {
		return 0, fmt.Errorf("serializing item: %w", err)
	}
	data := buf.Bytes()
	h := Hash(farm.Hash64(data))
	if _, ok := c.data[h]; ok {
		return h, nil
	}

	entry := &TypedEntry{
		TypeTag: getTypeTag(item),
		Data:    data,
	}
	var entryBuf bytes.Buffer
	if err := entry.Serialize(&entryBuf); err != nil {
		return 0, fmt.Errorf("serializing typed entry: %w", err)
	}
	c.data[h] = entryBuf.Bytes()
	return h, nil
}
