package vm

import (
	"fmt"

	"go.starlark.net/starlark"
)

type builtinFn func(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error)

// BuiltinRegistry maps the predeclared term builders to their implementations
var BuiltinRegistry = map[string]builtinFn{
	// values
	"sym":     builtinSym,
	"variant": builtinVariant,
	"record":  builtinRecord,
	"ext":     builtinExt,
	"box":     builtinBox,
	"cbv":     builtinCBV,
	"handle":  builtinHandle,

	// computations
	"ret":       valueComputation(func(v Val) Exp { return Ret{Value: v} }),
	"get":       valueComputation(func(v Val) Exp { return Get{Ptr: v} }),
	"link":      valueComputation(func(v Val) Exp { return Link{Target: v} }),
	"extract":   valueComputation(func(v Val) Exp { return Extract{Box: v} }),
	"put":       builtinPut,
	"nest":      scoped(func(s Val, e Exp) Exp { return Nest{Sym: s, Body: e} }),
	"spawn":     scoped(func(s Val, e Exp) Exp { return Spawn{Sym: s, Body: e} }),
	"assert_eq": assertion(true),
	"assert_ne": assertion(false),
	"lam":       builtinLam,
	"app":       builtinApp,
	"let":       binder(func(p Pat, d, b Exp) Exp { return Let{Pat: p, Def: d, Body: b} }),
	"let_box":   binder(func(p Pat, d, b Exp) Exp { return LetBox{Pat: p, Def: d, Body: b} }),
	"seq":       builtinSeq,
	"switch":    builtinSwitch,
	"case":      builtinCase,
	"branches":  builtinBranches,
	"branch":    builtinBranch,
	"project":   builtinProject,
	"hole":      builtinHole,

	// patterns
	"fields": builtinFields,
	"tagged": builtinTagged,
}

// Builtins returns the predeclared environment for program scripts.
func Builtins() starlark.StringDict {
	out := make(starlark.StringDict, len(BuiltinRegistry))
	for name, fn := range BuiltinRegistry {
		fn := fn
		out[name] = starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			v, err := fn(args, kwargs)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", b.Name(), err)
			}
			return v, nil
		})
	}
	return out
}

func noKwargs(kwargs []starlark.Tuple) error {
	if len(kwargs) != 0 {
		return fmt.Errorf("unexpected keyword argument %s", kwargs[0][0])
	}
	return nil
}

func exactly(args starlark.Tuple, kwargs []starlark.Tuple, n int) error {
	if err := noKwargs(kwargs); err != nil {
		return err
	}
	if len(args) != n {
		return fmt.Errorf("got %d arguments, want %d", len(args), n)
	}
	return nil
}

// symPart turns one argument of sym() into a symbol. Ints are numerals,
// separator spellings are separator atoms, other strings are identifiers and
// existing symbol literals are used as they are.
func symPart(v starlark.Value) (Sym, error) {
	switch x := v.(type) {
	case starlark.Int:
		n, ok := x.Int64()
		if !ok {
			return nil, fmt.Errorf("integer %s out of range", x)
		}
		return NumSym(n), nil
	case starlark.String:
		if sep, ok := ParseSep(string(x)); ok {
			return sep, nil
		}
		return Symbol(string(x)), nil
	case *term:
		if s, ok := x.val.(SymValue); ok && x.kind == valTerm {
			return s.Sym, nil
		}
	}
	return nil, fmt.Errorf("got %s where a symbol part is expected", v.Type())
}

func builtinSym(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return valueTerm(SymValue{Sym: NoSym{}}), nil
	}
	parts := make([]Sym, len(args))
	for i, a := range args {
		s, err := symPart(a)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	switch len(parts) {
	case 1:
		return valueTerm(SymValue{Sym: parts[0]}), nil
	case 3:
		if sep, ok := parts[1].(Sep); ok {
			return valueTerm(SymValue{Sym: TriSym{Left: parts[0], Sep: sep, Right: parts[2]}}), nil
		}
	}
	s := parts[0]
	for _, p := range parts[1:] {
		s = BinSym{Left: s, Right: p}
	}
	return valueTerm(SymValue{Sym: s}), nil
}

func builtinHandle(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := exactly(args, kwargs, 1); err != nil {
		return nil, err
	}
	s, err := symPart(args[0])
	if err != nil {
		return nil, err
	}
	return valueTerm(ProcHandle{Sym: s}), nil
}

func builtinVariant(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := exactly(args, kwargs, 2); err != nil {
		return nil, err
	}
	l, err := toVal(args[0])
	if err != nil {
		return nil, err
	}
	p, err := toVal(args[1])
	if err != nil {
		return nil, err
	}
	return valueTerm(Variant{Label: l, Payload: p}), nil
}

func pair(v starlark.Value) (starlark.Value, starlark.Value, error) {
	t, ok := v.(starlark.Tuple)
	if !ok || len(t) != 2 {
		return nil, nil, fmt.Errorf("got %s where a (label, x) pair is expected", v.Type())
	}
	return t[0], t[1], nil
}

func builtinRecord(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	r := make(Record, len(args))
	for i, a := range args {
		l, v, err := pair(a)
		if err != nil {
			return nil, err
		}
		label, err := toVal(l)
		if err != nil {
			return nil, err
		}
		value, err := toVal(v)
		if err != nil {
			return nil, err
		}
		r[i] = Field{Label: label, Value: value}
	}
	return valueTerm(r), nil
}

func builtinExt(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := exactly(args, kwargs, 3); err != nil {
		return nil, err
	}
	vals := make([]Val, 3)
	for i, a := range args {
		v, err := toVal(a)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return valueTerm(RecordExt{Base: vals[0], Field: Field{Label: vals[1], Value: vals[2]}}), nil
}

func builtinBox(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var code starlark.Value
	var name string
	if err := starlark.UnpackArgs("box", args, kwargs, "code", &code, "name?", &name); err != nil {
		return nil, err
	}
	e, err := toExp(code)
	if err != nil {
		return nil, err
	}
	return valueTerm(&Box{Bxes: BoxEnv{}, Name: name, Code: e}), nil
}

func builtinCBV(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := exactly(args, kwargs, 1); err != nil {
		return nil, err
	}
	e, err := toExp(args[0])
	if err != nil {
		return nil, err
	}
	return valueTerm(CallByValue{Exp: e}), nil
}

func valueComputation(build func(Val) Exp) builtinFn {
	return func(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := exactly(args, kwargs, 1); err != nil {
			return nil, err
		}
		v, err := toVal(args[0])
		if err != nil {
			return nil, err
		}
		return expTermOf(build(v)), nil
	}
}

func builtinPut(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := exactly(args, kwargs, 2); err != nil {
		return nil, err
	}
	s, err := toVal(args[0])
	if err != nil {
		return nil, err
	}
	v, err := toVal(args[1])
	if err != nil {
		return nil, err
	}
	return expTermOf(Put{Sym: s, Value: v}), nil
}

func scoped(build func(Val, Exp) Exp) builtinFn {
	return func(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := exactly(args, kwargs, 2); err != nil {
			return nil, err
		}
		s, err := toVal(args[0])
		if err != nil {
			return nil, err
		}
		body, err := toExp(args[1])
		if err != nil {
			return nil, err
		}
		return expTermOf(build(s, body)), nil
	}
}

func assertion(equal bool) builtinFn {
	return func(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := exactly(args, kwargs, 2); err != nil {
			return nil, err
		}
		l, err := toVal(args[0])
		if err != nil {
			return nil, err
		}
		r, err := toVal(args[1])
		if err != nil {
			return nil, err
		}
		return expTermOf(AssertEq{Left: l, Equal: equal, Right: r}), nil
	}
}

func builtinLam(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := exactly(args, kwargs, 2); err != nil {
		return nil, err
	}
	p, err := toPat(args[0])
	if err != nil {
		return nil, err
	}
	body, err := toExp(args[1])
	if err != nil {
		return nil, err
	}
	return expTermOf(Lambda{Pat: p, Body: body}), nil
}

// builtinApp applies fn to each argument in turn: app(f, a, b) is (f a) b.
func builtinApp(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if len(args) < 2 {
		return nil, fmt.Errorf("got %d arguments, want a function and at least one argument", len(args))
	}
	fn, err := toExp(args[0])
	if err != nil {
		return nil, err
	}
	for _, a := range args[1:] {
		v, err := toVal(a)
		if err != nil {
			return nil, err
		}
		fn = App{Fn: fn, Arg: v}
	}
	return expTermOf(fn), nil
}

func binder(build func(Pat, Exp, Exp) Exp) builtinFn {
	return func(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := exactly(args, kwargs, 3); err != nil {
			return nil, err
		}
		p, err := toPat(args[0])
		if err != nil {
			return nil, err
		}
		def, err := toExp(args[1])
		if err != nil {
			return nil, err
		}
		body, err := toExp(args[2])
		if err != nil {
			return nil, err
		}
		return expTermOf(build(p, def, body)), nil
	}
}

// builtinSeq chains computations, discarding every result but the last.
func builtinSeq(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("needs at least one computation")
	}
	out, err := toExp(args[len(args)-1])
	if err != nil {
		return nil, err
	}
	for i := len(args) - 2; i >= 0; i-- {
		e, err := toExp(args[i])
		if err != nil {
			return nil, err
		}
		out = Let{Pat: IgnorePat{}, Def: e, Body: out}
	}
	return expTermOf(out), nil
}

func builtinCase(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := exactly(args, kwargs, 3); err != nil {
		return nil, err
	}
	l, err := toVal(args[0])
	if err != nil {
		return nil, err
	}
	p, err := toPat(args[1])
	if err != nil {
		return nil, err
	}
	body, err := toExp(args[2])
	if err != nil {
		return nil, err
	}
	return &term{kind: caseTerm, cas: Case{Label: l, Pat: p, Body: body}}, nil
}

func builtinSwitch(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("needs a scrutinee")
	}
	v, err := toVal(args[0])
	if err != nil {
		return nil, err
	}
	sw := Switch{Scrutinee: v}
	for _, a := range args[1:] {
		t, ok := a.(*term)
		if !ok || t.kind != caseTerm {
			return nil, fmt.Errorf("got %s where a case is expected", a.Type())
		}
		sw.Cases = append(sw.Cases, t.cas)
	}
	return expTermOf(sw), nil
}

func builtinBranch(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := exactly(args, kwargs, 2); err != nil {
		return nil, err
	}
	l, err := toVal(args[0])
	if err != nil {
		return nil, err
	}
	body, err := toExp(args[1])
	if err != nil {
		return nil, err
	}
	return &term{kind: branchTerm, branch: Branch{Label: l, Body: body}}, nil
}

func builtinBranches(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	var bs Branches
	for _, a := range args {
		t, ok := a.(*term)
		if !ok || t.kind != branchTerm {
			return nil, fmt.Errorf("got %s where a branch is expected", a.Type())
		}
		bs.Branches = append(bs.Branches, t.branch)
	}
	return expTermOf(bs), nil
}

func builtinProject(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := exactly(args, kwargs, 2); err != nil {
		return nil, err
	}
	body, err := toExp(args[0])
	if err != nil {
		return nil, err
	}
	l, err := toVal(args[1])
	if err != nil {
		return nil, err
	}
	return expTermOf(Project{Body: body, Label: l}), nil
}

func builtinHole(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := exactly(args, kwargs, 0); err != nil {
		return nil, err
	}
	return expTermOf(Hole{}), nil
}

func builtinFields(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := noKwargs(kwargs); err != nil {
		return nil, err
	}
	fp := make(FieldsPat, len(args))
	for i, a := range args {
		l, p, err := pair(a)
		if err != nil {
			return nil, err
		}
		label, err := toVal(l)
		if err != nil {
			return nil, err
		}
		pat, err := toPat(p)
		if err != nil {
			return nil, err
		}
		fp[i] = FieldPat{Label: label, Pat: pat}
	}
	return patTermOf(fp), nil
}

func builtinTagged(args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := exactly(args, kwargs, 2); err != nil {
		return nil, err
	}
	l, err := toVal(args[0])
	if err != nil {
		return nil, err
	}
	p, err := toPat(args[1])
	if err != nil {
		return nil, err
	}
	return patTermOf(CasePat{Label: l, Pat: p}), nil
}
