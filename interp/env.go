package interp

import (
	"github.com/fumola-dev/fumola/vm"
)

// resolve closes v over env. Variables are replaced by their bindings and a
// box literal captures the box environment in scope, its own bindings
// taking precedence.
func resolve(env Env, v vm.Val) (vm.Val, *Error) {
	switch x := v.(type) {
	case vm.Num, vm.SymValue, vm.Ptr, vm.ProcHandle:
		return v, nil
	case vm.Var:
		b, ok := env.Vals[string(x)]
		if !ok {
			return nil, &Error{Kind: ErrValue, Sub: SubUndefined, Name: string(x)}
		}
		return b, nil
	case vm.Variant:
		l, err := resolve(env, x.Label)
		if err != nil {
			return nil, err
		}
		p, err := resolve(env, x.Payload)
		if err != nil {
			return nil, err
		}
		return vm.Variant{Label: l, Payload: p}, nil
	case vm.Record:
		out := make(vm.Record, len(x))
		for i, f := range x {
			rf, err := resolveField(env, f)
			if err != nil {
				return nil, err
			}
			out[i] = rf
		}
		return out, nil
	case vm.RecordExt:
		base, err := resolve(env, x.Base)
		if err != nil {
			return nil, err
		}
		f, err := resolveField(env, x.Field)
		if err != nil {
			return nil, err
		}
		return vm.RecordExt{Base: base, Field: f}, nil
	case *vm.Box:
		if len(env.Bxes) == 0 {
			return x, nil
		}
		bxes := env.Bxes.Clone()
		for k, b := range x.Bxes {
			bxes[k] = b
		}
		return &vm.Box{Bxes: bxes, Name: x.Name, Code: x.Code}, nil
	case vm.CallByValue:
		return nil, &Error{Kind: ErrValue, Sub: SubCallByValue}
	}
	return nil, ErrImpossible
}

func resolveField(env Env, f vm.Field) (vm.Field, *Error) {
	l, err := resolve(env, f.Label)
	if err != nil {
		return vm.Field{}, err
	}
	v, err := resolve(env, f.Value)
	if err != nil {
		return vm.Field{}, err
	}
	return vm.Field{Label: l, Value: v}, nil
}

// lookupField finds label in a record value. Extension fields shadow the
// fields of their base.
func lookupField(v vm.Val, label vm.Val) (vm.Val, bool) {
	switch r := v.(type) {
	case vm.Record:
		return r.Lookup(label)
	case vm.RecordExt:
		if vm.EqualVal(r.Field.Label, label) {
			return r.Field.Value, true
		}
		return lookupField(r.Base, label)
	}
	return nil, false
}

// bind matches the closed value v against p, adding bindings to env.
// Bindings made before a failure are kept.
func bind(p vm.Pat, v vm.Val, env Env) *Error {
	switch x := p.(type) {
	case vm.IgnorePat:
		return nil
	case vm.VarPat:
		env.Bind(string(x), v)
		return nil
	case vm.FieldsPat:
		switch v.(type) {
		case vm.Record, vm.RecordExt:
		default:
			return &Error{Kind: ErrPattern, Sub: SubNotRecord}
		}
		for _, f := range x {
			fv, found := lookupField(v, f.Label)
			if !found {
				return &Error{Kind: ErrPattern, Sub: SubFieldNotFound, Value: f.Label}
			}
			if err := bind(f.Pat, fv, env); err != nil {
				return err
			}
		}
		return nil
	case vm.CasePat:
		variant, ok := v.(vm.Variant)
		if !ok {
			return &Error{Kind: ErrPattern, Sub: SubNotVariant}
		}
		if !vm.EqualVal(variant.Label, x.Label) {
			return &Error{Kind: ErrPattern, Sub: SubFieldNotFound, Value: x.Label}
		}
		return bind(x.Pat, variant.Payload, env)
	}
	return ErrImpossible
}
