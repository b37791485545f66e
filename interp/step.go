package interp

import (
	"github.com/fumola-dev/fumola/vm"
	"github.com/rs/zerolog/log"
)

// StepMachine performs at most one reduction of m against store. A nil
// signal and nil error means m took an ordinary step; a signal asks the
// caller to change the process status; an error leaves m at the point it
// got stuck, with the continuation replaced by its head.
func StepMachine(store *Store, m *Machine) (*Signal, error) {
	cont := m.Cont
	m.Cont = vm.Head(cont)
	log.Trace().
		Str("cont", m.Cont.String()).
		Int("stack_depth", len(m.Stack)).
		Msg("Step: running")
	sig, err := step(store, m, cont)
	if err != nil {
		log.Trace().Str("cont", m.Cont.String()).Str("err", err.Error()).Msg("Step: stuck")
		return nil, err
	}
	if sig != nil {
		log.Trace().Str("signal", sig.String()).Msg("Step: signal")
	}
	return sig, nil
}

func step(store *Store, m *Machine, cont vm.Exp) (*Signal, *Error) {
	switch e := cont.(type) {
	case vm.Hole:
		return nil, ErrHole
	case vm.Ret:
		v, err := resolve(m.Env, e.Value)
		if err != nil {
			return nil, err
		}
		if traceRet(m) {
			m.Trace = append(m.Trace, TraceRet{Value: v})
		}
		m.Cont = vm.Returned{Value: v}
		return step(store, m, m.Cont)
	case vm.Returned:
		return returned(m, e.Value)
	case vm.Spawn:
		s, err := symbolOf(m.Env, e.Sym)
		if err != nil {
			return nil, err
		}
		s = putSymbol(m, s)
		if store.Has(s) {
			return nil, duplicate(s)
		}
		m.Cont = vm.Returned{Value: vm.ProcHandle{Sym: s}}
		return &Signal{Kind: SignalSpawn, Sym: s, Env: m.Env.Clone(), Body: e.Body}, nil
	case vm.Nest:
		s, err := symbolOf(m.Env, e.Sym)
		if err != nil {
			return nil, err
		}
		m.push(NestFrame{Sym: s})
		m.Cont = e.Body
		return nil, nil
	case vm.Let:
		m.push(LetFrame{Env: m.Env.Clone(), Pat: e.Pat, Body: e.Body})
		m.Cont = e.Def
		return nil, nil
	case vm.LetBox:
		switch e.Pat.(type) {
		case vm.VarPat, vm.IgnorePat:
		default:
			return nil, noStep()
		}
		m.push(LetBoxFrame{Env: m.Env.Clone(), Pat: e.Pat, Body: e.Body})
		m.Cont = e.Def
		return nil, nil
	case vm.Extract:
		x, ok := e.Box.(vm.Var)
		if !ok {
			return nil, &Error{Kind: ErrExtract, Sub: SubNotVariable, Value: e.Box}
		}
		box, ok := m.Env.Bxes[string(x)]
		if !ok {
			return nil, &Error{Kind: ErrExtract, Sub: SubUndefined, Name: string(x)}
		}
		env := Env{Vals: make(map[string]vm.Val), Bxes: box.Bxes.Clone()}
		if box.Name != "" {
			env.Vals[box.Name] = box
		}
		m.Env = env
		m.Cont = box.Code
		return nil, nil
	case vm.Lambda:
		fr, ok := m.pop()
		if !ok {
			return nil, noStep()
		}
		app, ok := fr.Cont.(AppFrame)
		if !ok {
			return nil, noStep()
		}
		if err := bind(e.Pat, app.Arg, m.Env); err != nil {
			return nil, err
		}
		m.splice(fr)
		m.Cont = e.Body
		return nil, nil
	case vm.Branches:
		fr, ok := m.pop()
		if !ok {
			return nil, noStep()
		}
		proj, ok := fr.Cont.(ProjectFrame)
		if !ok {
			return nil, noStep()
		}
		s, err := intoSymbol(proj.Label)
		if err != nil {
			return nil, err
		}
		body, err := selectBranch(m.Env, s, e.Branches)
		if err != nil {
			return nil, err
		}
		m.splice(fr)
		m.Cont = body
		return nil, nil
	case vm.App:
		v, err := resolve(m.Env, e.Arg)
		if err != nil {
			return nil, err
		}
		m.push(AppFrame{Arg: v})
		m.Cont = e.Fn
		return nil, nil
	case vm.Project:
		v, err := resolve(m.Env, e.Label)
		if err != nil {
			return nil, err
		}
		m.push(ProjectFrame{Label: v})
		m.Cont = e.Body
		return nil, nil
	case vm.Put:
		s, err := symbolOf(m.Env, e.Sym)
		if err != nil {
			return nil, err
		}
		v, err := resolve(m.Env, e.Value)
		if err != nil {
			return nil, err
		}
		s = putSymbol(m, s)
		m.Trace = append(m.Trace, TracePut{Sym: s, Value: v})
		store.Put(s, v)
		m.Cont = vm.Returned{Value: vm.Ptr{Sym: s}}
		return nil, nil
	case vm.Get:
		v, err := resolve(m.Env, e.Ptr)
		if err != nil {
			return nil, err
		}
		var s vm.Sym
		switch p := v.(type) {
		case vm.Ptr:
			s = p.Sym
		case vm.SymValue:
			if !store.Has(p.Sym) {
				return nil, undefined(p.Sym)
			}
			return nil, notAPointer(v)
		default:
			return nil, notAPointer(v)
		}
		got, ok := store.Get(s)
		if !ok {
			return nil, undefined(s)
		}
		m.Trace = append(m.Trace, TraceGet{Sym: s, Value: got})
		m.Cont = vm.Returned{Value: got}
		return nil, nil
	case vm.Switch:
		v, err := resolve(m.Env, e.Scrutinee)
		if err != nil {
			return nil, err
		}
		variant, ok := v.(vm.Variant)
		if !ok {
			return nil, &Error{Kind: ErrSwitch, Sub: SubNotVariant, Value: v}
		}
		s, err := intoSymbol(variant.Label)
		if err != nil {
			return nil, err
		}
		c, err := selectCase(m.Env, s, e.Cases)
		if err != nil {
			return nil, err
		}
		if err := bind(c.Pat, variant.Payload, m.Env); err != nil {
			return nil, err
		}
		m.Cont = c.Body
		return nil, nil
	case vm.Link:
		v, err := resolve(m.Env, e.Target)
		if err != nil {
			return nil, err
		}
		switch t := v.(type) {
		case vm.SymValue:
			if !store.Has(t.Sym) {
				m.Cont = vm.Link{Target: t}
				return &Signal{Kind: SignalWaitPtr, Sym: t.Sym}, nil
			}
			m.Trace = append(m.Trace, TraceLink{Target: t, Result: vm.Ptr{Sym: t.Sym}})
			m.Cont = vm.Returned{Value: vm.Ptr{Sym: t.Sym}}
			return nil, nil
		case vm.ProcHandle:
			return &Signal{Kind: SignalWaitHalt, Sym: t.Sym}, nil
		}
		return nil, &Error{Kind: ErrNotLinkTarget, Value: v}
	case vm.AssertEq:
		l, err := resolve(m.Env, e.Left)
		if err != nil {
			return nil, err
		}
		r, err := resolve(m.Env, e.Right)
		if err != nil {
			return nil, err
		}
		if vm.EqualVal(l, r) != e.Equal {
			return nil, assertionFailure(l, e.Equal, r)
		}
		unit := vm.Unit()
		if traceRet(m) {
			m.Trace = append(m.Trace, TraceRet{Value: unit})
		}
		m.Cont = vm.Returned{Value: unit}
		return nil, nil
	}
	return nil, ErrImpossible
}

// returned hands v to the frame on top of the stack. With an empty stack the
// process halts with v.
func returned(m *Machine, v vm.Val) (*Signal, *Error) {
	fr, ok := m.pop()
	if !ok {
		return &Signal{Kind: SignalHalt, Value: v}, nil
	}
	switch c := fr.Cont.(type) {
	case NestFrame:
		inner := m.Trace
		m.Trace = append(cloneTraces(fr.Trace), TraceNest{Sym: c.Sym, Traces: inner})
		return nil, nil
	case LetFrame:
		env := c.Env
		if err := bind(c.Pat, v, env); err != nil {
			return nil, err
		}
		m.Env = env
		m.Cont = c.Body
		m.splice(fr)
		return nil, nil
	case LetBoxFrame:
		box, ok := v.(*vm.Box)
		if !ok {
			return nil, noStep()
		}
		env := c.Env
		if x, ok := c.Pat.(vm.VarPat); ok {
			env.Bxes[string(x)] = box
		}
		m.Env = env
		m.Cont = c.Body
		m.splice(fr)
		return nil, nil
	}
	// app and project frames expect a lambda or branches, not a value
	return nil, noStep()
}

// traceRet reports whether a return is observable: it halts the process or
// leaves a nest.
func traceRet(m *Machine) bool {
	fr, ok := m.top()
	if !ok {
		return true
	}
	_, nest := fr.Cont.(NestFrame)
	return nest
}

// putSymbol qualifies s by every enclosing nest, outermost first.
func putSymbol(m *Machine, s vm.Sym) vm.Sym {
	r := s
	for i := len(m.Stack) - 1; i >= 0; i-- {
		if n, ok := m.Stack[i].Cont.(NestFrame); ok {
			r = vm.NestSym{Outer: n.Sym, Inner: r}
		}
	}
	return r
}

func intoSymbol(v vm.Val) (vm.Sym, *Error) {
	s, ok := v.(vm.SymValue)
	if !ok {
		return nil, notASymbol(v)
	}
	return s.Sym, nil
}

func symbolOf(env Env, v vm.Val) (vm.Sym, *Error) {
	r, err := resolve(env, v)
	if err != nil {
		return nil, err
	}
	return intoSymbol(r)
}

func selectCase(env Env, s vm.Sym, cases []vm.Case) (vm.Case, *Error) {
	for _, c := range cases {
		l, err := symbolOf(env, c.Label)
		if err != nil {
			return vm.Case{}, err
		}
		if l == s {
			return c, nil
		}
	}
	return vm.Case{}, &Error{Kind: ErrSwitch, Sub: SubMissingCase, Sym: s}
}

func selectBranch(env Env, s vm.Sym, branches []vm.Branch) (vm.Exp, *Error) {
	for _, b := range branches {
		l, err := symbolOf(env, b.Label)
		if err != nil {
			return nil, err
		}
		if l == s {
			return b.Body, nil
		}
	}
	return nil, &Error{Kind: ErrProject, Sub: SubMissingBranch, Sym: s}
}

func cloneTraces(ts []Trace) []Trace {
	out := make([]Trace, len(ts), len(ts)+1)
	copy(out, ts)
	return out
}
