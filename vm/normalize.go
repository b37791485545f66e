package vm

import (
	"errors"
	"strconv"
)

var ErrNamesExhausted = errors.New("fresh name supply exhausted")

// NameSupply hands out binder names that never occur in the program.
type NameSupply interface {
	Next() (string, bool)
}

// FreshNames is a counter-backed NameSupply producing Base0, Base1, ...
// A positive Limit caps how many names it will produce.
type FreshNames struct {
	Base  string
	Index int
	Limit int
}

func NewFreshNames() *FreshNames {
	return &FreshNames{Base: "_t_"}
}

func (f *FreshNames) Next() (string, bool) {
	if f.Limit > 0 && f.Index >= f.Limit {
		return "", false
	}
	name := f.Base + strconv.Itoa(f.Index)
	f.Index++
	return name, true
}

type binding struct {
	name string
	def  Exp
}

type normalizer struct {
	names    NameSupply
	bindings []binding
}

// Normalize removes every CallByValue from e. Each wrapped computation is
// bound by a fresh let immediately around the construct that uses it and the
// use site becomes a variable. Operands are visited right to left and the
// last binding collected is wrapped outermost, so wrapped computations run
// in left to right source order.
func Normalize(names NameSupply, e Exp) (Exp, error) {
	n := &normalizer{names: names}
	out, err := n.exp(e)
	if err != nil {
		return nil, err
	}
	return wrap(n.bindings, out), nil
}

func wrap(bs []binding, e Exp) Exp {
	for _, b := range bs {
		e = Let{Pat: VarPat(b.name), Def: b.def, Body: e}
	}
	return e
}

// scope normalizes a computation that sits under a binder or nest as its own
// unit, so hoisted bindings stay inside it.
func (n *normalizer) scope(e Exp) (Exp, error) {
	return Normalize(n.names, e)
}

func (n *normalizer) value(v Val) (Val, error) {
	switch x := v.(type) {
	case CallByValue:
		def, err := n.scope(x.Exp)
		if err != nil {
			return nil, err
		}
		name, ok := n.names.Next()
		if !ok {
			return nil, ErrNamesExhausted
		}
		n.bindings = append(n.bindings, binding{name: name, def: def})
		return Var(name), nil
	case *Box:
		code, err := n.scope(x.Code)
		if err != nil {
			return nil, err
		}
		return &Box{Bxes: x.Bxes, Name: x.Name, Code: code}, nil
	case Record:
		out := make(Record, len(x))
		for i := len(x) - 1; i >= 0; i-- {
			f, err := n.field(x[i])
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	case RecordExt:
		f, err := n.field(x.Field)
		if err != nil {
			return nil, err
		}
		base, err := n.value(x.Base)
		if err != nil {
			return nil, err
		}
		return RecordExt{Base: base, Field: f}, nil
	case Variant:
		payload, err := n.value(x.Payload)
		if err != nil {
			return nil, err
		}
		label, err := n.value(x.Label)
		if err != nil {
			return nil, err
		}
		return Variant{Label: label, Payload: payload}, nil
	default:
		// Num, SymValue, Ptr, ProcHandle and Var are already strict.
		return v, nil
	}
}

func (n *normalizer) field(f Field) (Field, error) {
	value, err := n.value(f.Value)
	if err != nil {
		return Field{}, err
	}
	label, err := n.value(f.Label)
	if err != nil {
		return Field{}, err
	}
	return Field{Label: label, Value: value}, nil
}

func (n *normalizer) exp(e Exp) (Exp, error) {
	switch x := e.(type) {
	case Ret:
		v, err := n.value(x.Value)
		if err != nil {
			return nil, err
		}
		return Ret{Value: v}, nil
	case Returned:
		v, err := n.value(x.Value)
		if err != nil {
			return nil, err
		}
		return Returned{Value: v}, nil
	case Get:
		v, err := n.value(x.Ptr)
		if err != nil {
			return nil, err
		}
		return Get{Ptr: v}, nil
	case Link:
		v, err := n.value(x.Target)
		if err != nil {
			return nil, err
		}
		return Link{Target: v}, nil
	case Extract:
		v, err := n.value(x.Box)
		if err != nil {
			return nil, err
		}
		return Extract{Box: v}, nil
	case Put:
		// the value's binding is collected last, so it runs first
		sym, err := n.value(x.Sym)
		if err != nil {
			return nil, err
		}
		value, err := n.value(x.Value)
		if err != nil {
			return nil, err
		}
		return Put{Sym: sym, Value: value}, nil
	case AssertEq:
		left, err := n.value(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := n.value(x.Right)
		if err != nil {
			return nil, err
		}
		return AssertEq{Left: left, Equal: x.Equal, Right: right}, nil
	case Nest:
		sym, err := n.value(x.Sym)
		if err != nil {
			return nil, err
		}
		body, err := n.scope(x.Body)
		if err != nil {
			return nil, err
		}
		return Nest{Sym: sym, Body: body}, nil
	case Spawn:
		sym, err := n.value(x.Sym)
		if err != nil {
			return nil, err
		}
		body, err := n.scope(x.Body)
		if err != nil {
			return nil, err
		}
		return Spawn{Sym: sym, Body: body}, nil
	case App:
		arg, err := n.value(x.Arg)
		if err != nil {
			return nil, err
		}
		fn, err := n.exp(x.Fn)
		if err != nil {
			return nil, err
		}
		return App{Fn: fn, Arg: arg}, nil
	case Project:
		label, err := n.value(x.Label)
		if err != nil {
			return nil, err
		}
		body, err := n.exp(x.Body)
		if err != nil {
			return nil, err
		}
		return Project{Body: body, Label: label}, nil
	case Lambda:
		body, err := n.scope(x.Body)
		if err != nil {
			return nil, err
		}
		return Lambda{Pat: x.Pat, Body: body}, nil
	case Let:
		def, err := n.scope(x.Def)
		if err != nil {
			return nil, err
		}
		body, err := n.scope(x.Body)
		if err != nil {
			return nil, err
		}
		return Let{Pat: x.Pat, Def: def, Body: body}, nil
	case LetBox:
		def, err := n.scope(x.Def)
		if err != nil {
			return nil, err
		}
		body, err := n.scope(x.Body)
		if err != nil {
			return nil, err
		}
		return LetBox{Pat: x.Pat, Def: def, Body: body}, nil
	case Switch:
		cases := make([]Case, len(x.Cases))
		for i := len(x.Cases) - 1; i >= 0; i-- {
			c := x.Cases[i]
			label, err := n.value(c.Label)
			if err != nil {
				return nil, err
			}
			body, err := n.scope(c.Body)
			if err != nil {
				return nil, err
			}
			cases[i] = Case{Label: label, Pat: c.Pat, Body: body}
		}
		v, err := n.value(x.Scrutinee)
		if err != nil {
			return nil, err
		}
		return Switch{Scrutinee: v, Cases: cases}, nil
	case Branches:
		bs := make([]Branch, len(x.Branches))
		for i := len(x.Branches) - 1; i >= 0; i-- {
			b := x.Branches[i]
			label, err := n.value(b.Label)
			if err != nil {
				return nil, err
			}
			body, err := n.scope(b.Body)
			if err != nil {
				return nil, err
			}
			bs[i] = Branch{Label: label, Body: body}
		}
		return Branches{Branches: bs}, nil
	case Hole:
		return x, nil
	}
	return nil, errors.New("normalize: unknown computation")
}
