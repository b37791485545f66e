package cas

import (
	"fmt"

	"github.com/fumola-dev/fumola/interp"
	"github.com/fumola-dev/fumola/vm"
)

// recomposeSystem reconstructs a System from a SystemRef stored in the CAS
func recomposeSystem(c directStore, hash Hash) (*interp.System, error) {
	ref, err := getDirect[*SystemRef](c, hash)
	if err != nil {
		return nil, fmt.Errorf("retrieving SystemRef: %w", err)
	}

	s := &interp.System{Store: interp.NewStore(), Procs: make(map[vm.Sym]*interp.Proc, len(ref.ProcHashes))}
	for i, h := range ref.EntryHashes {
		entry, err := getDirect[*EntryRef](c, h)
		if err != nil {
			return nil, fmt.Errorf("retrieving store entry %d: %w", i, err)
		}
		k, err := vm.DecodeSym(entry.Sym)
		if err != nil {
			return nil, fmt.Errorf("decoding store entry %d: %w", i, err)
		}
		v, err := vm.DecodeVal(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("decoding store entry %s: %w", k, err)
		}
		s.Store.Put(k, v)
	}

	for i, h := range ref.ProcHashes {
		name, p, err := recomposeProc(c, h)
		if err != nil {
			return nil, fmt.Errorf("recomposing process %d: %w", i, err)
		}
		s.Procs[name] = p
	}
	return s, nil
}

func recomposeProc(c directStore, hash Hash) (vm.Sym, *interp.Proc, error) {
	ref, err := getDirect[*ProcRef](c, hash)
	if err != nil {
		return nil, nil, fmt.Errorf("retrieving ProcRef: %w", err)
	}
	name, err := vm.DecodeSym(ref.Name)
	if err != nil {
		return nil, nil, err
	}
	p, err := interp.DecodeProc(ref.Proc)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding process %s: %w", name, err)
	}
	return name, p, nil
}

func getDirect[T Hashable](c directStore, hash Hash) (T, error) {
	var zero T
	has, data, err := c.getValue(hash)
	if err != nil {
		return zero, err
	}
	if !has {
		return zero, fmt.Errorf("hash not found in CAS: %d", hash)
	}
	instance, err := decodeEntry(data)
	if err != nil {
		return zero, err
	}
	result, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("type mismatch: expected %T, got %T", zero, instance)
	}
	return result, nil
}
