package interp

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/fumola-dev/fumola/vm"
	"github.com/shamaton/msgpack/v2"
)

var none = vm.Node{Tag: "none"}

func encodeOptVal(v vm.Val) vm.Node {
	if v == nil {
		return none
	}
	return vm.EncodeVal(v)
}

func decodeOptVal(n vm.Node) (vm.Val, error) {
	if n.Tag == "none" {
		return nil, nil
	}
	return vm.DecodeVal(n)
}

func encodeOptSym(s vm.Sym) vm.Node {
	if s == nil {
		return none
	}
	return vm.EncodeSym(s)
}

func decodeOptSym(n vm.Node) (vm.Sym, error) {
	if n.Tag == "none" {
		return nil, nil
	}
	return vm.DecodeSym(n)
}

func encodeOptExp(e vm.Exp) vm.Node {
	if e == nil {
		return none
	}
	return vm.EncodeExp(e)
}

func decodeOptExp(n vm.Node) (vm.Exp, error) {
	if n.Tag == "none" {
		return nil, nil
	}
	return vm.DecodeExp(n)
}

func kids(n vm.Node, want int) error {
	if len(n.Kids) < want {
		return fmt.Errorf("decode %s: want %d children, have %d", n.Tag, want, len(n.Kids))
	}
	return nil
}

func EncodeTrace(t Trace) vm.Node {
	switch x := t.(type) {
	case TraceSeq:
		return vm.Node{Tag: "tseq", Kids: encodeTraces(x)}
	case TraceNest:
		return vm.Node{Tag: "tnest", Kids: append([]vm.Node{vm.EncodeSym(x.Sym)}, encodeTraces(x.Traces)...)}
	case TraceRet:
		return vm.Node{Tag: "tret", Kids: []vm.Node{vm.EncodeVal(x.Value)}}
	case TracePut:
		return vm.Node{Tag: "tput", Kids: []vm.Node{vm.EncodeSym(x.Sym), vm.EncodeVal(x.Value)}}
	case TraceGet:
		return vm.Node{Tag: "tget", Kids: []vm.Node{vm.EncodeSym(x.Sym), vm.EncodeVal(x.Value)}}
	case TraceLink:
		return vm.Node{Tag: "tlink", Kids: []vm.Node{vm.EncodeVal(x.Target), vm.EncodeVal(x.Result)}}
	}
	return none
}

func encodeTraces(ts []Trace) []vm.Node {
	out := make([]vm.Node, len(ts))
	for i, t := range ts {
		out[i] = EncodeTrace(t)
	}
	return out
}

func decodeTraces(ns []vm.Node) ([]Trace, error) {
	if len(ns) == 0 {
		return nil, nil
	}
	out := make([]Trace, len(ns))
	for i, n := range ns {
		t, err := DecodeTrace(n)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func DecodeTrace(n vm.Node) (Trace, error) {
	switch n.Tag {
	case "tseq":
		ts, err := decodeTraces(n.Kids)
		if err != nil {
			return nil, err
		}
		return TraceSeq(ts), nil
	case "tnest":
		if err := kids(n, 1); err != nil {
			return nil, err
		}
		s, err := vm.DecodeSym(n.Kids[0])
		if err != nil {
			return nil, err
		}
		ts, err := decodeTraces(n.Kids[1:])
		if err != nil {
			return nil, err
		}
		return TraceNest{Sym: s, Traces: ts}, nil
	case "tret":
		if err := kids(n, 1); err != nil {
			return nil, err
		}
		v, err := vm.DecodeVal(n.Kids[0])
		if err != nil {
			return nil, err
		}
		return TraceRet{Value: v}, nil
	case "tput", "tget":
		if err := kids(n, 2); err != nil {
			return nil, err
		}
		s, err := vm.DecodeSym(n.Kids[0])
		if err != nil {
			return nil, err
		}
		v, err := vm.DecodeVal(n.Kids[1])
		if err != nil {
			return nil, err
		}
		if n.Tag == "tput" {
			return TracePut{Sym: s, Value: v}, nil
		}
		return TraceGet{Sym: s, Value: v}, nil
	case "tlink":
		if err := kids(n, 2); err != nil {
			return nil, err
		}
		t, err := vm.DecodeVal(n.Kids[0])
		if err != nil {
			return nil, err
		}
		r, err := vm.DecodeVal(n.Kids[1])
		if err != nil {
			return nil, err
		}
		return TraceLink{Target: t, Result: r}, nil
	}
	return nil, fmt.Errorf("decode trace: unknown tag %q", n.Tag)
}

func encodeVals(vals map[string]vm.Val) vm.Node {
	out := vm.Node{Tag: "vals"}
	for _, k := range sortedKeys(vals) {
		out.Kids = append(out.Kids, vm.Node{Tag: "val", Str: k, Kids: []vm.Node{vm.EncodeVal(vals[k])}})
	}
	return out
}

func sortedKeys(vals map[string]vm.Val) []string {
	return slices.Sorted(maps.Keys(vals))
}

func EncodeEnv(e Env) vm.Node {
	return vm.Node{Tag: "env", Kids: []vm.Node{encodeVals(e.Vals), vm.EncodeBoxEnv(e.Bxes)}}
}

func DecodeEnv(n vm.Node) (Env, error) {
	if err := kids(n, 2); err != nil {
		return Env{}, err
	}
	env := NewEnv()
	for _, k := range n.Kids[0].Kids {
		if err := kids(k, 1); err != nil {
			return Env{}, err
		}
		v, err := vm.DecodeVal(k.Kids[0])
		if err != nil {
			return Env{}, err
		}
		env.Vals[k.Str] = v
	}
	bxes, err := vm.DecodeBoxEnv(n.Kids[1])
	if err != nil {
		return Env{}, err
	}
	env.Bxes = bxes
	return env, nil
}

func encodeFrameCont(c FrameCont) vm.Node {
	switch x := c.(type) {
	case LetFrame:
		return vm.Node{Tag: "flet", Kids: []vm.Node{EncodeEnv(x.Env), vm.EncodePat(x.Pat), vm.EncodeExp(x.Body)}}
	case LetBoxFrame:
		return vm.Node{Tag: "fletbox", Kids: []vm.Node{EncodeEnv(x.Env), vm.EncodePat(x.Pat), vm.EncodeExp(x.Body)}}
	case AppFrame:
		return vm.Node{Tag: "fapp", Kids: []vm.Node{vm.EncodeVal(x.Arg)}}
	case ProjectFrame:
		return vm.Node{Tag: "fproject", Kids: []vm.Node{vm.EncodeVal(x.Label)}}
	case NestFrame:
		return vm.Node{Tag: "fnest", Kids: []vm.Node{vm.EncodeSym(x.Sym)}}
	}
	return none
}

func decodeFrameCont(n vm.Node) (FrameCont, error) {
	switch n.Tag {
	case "flet", "fletbox":
		if err := kids(n, 3); err != nil {
			return nil, err
		}
		env, err := DecodeEnv(n.Kids[0])
		if err != nil {
			return nil, err
		}
		p, err := vm.DecodePat(n.Kids[1])
		if err != nil {
			return nil, err
		}
		body, err := vm.DecodeExp(n.Kids[2])
		if err != nil {
			return nil, err
		}
		if n.Tag == "flet" {
			return LetFrame{Env: env, Pat: p, Body: body}, nil
		}
		return LetBoxFrame{Env: env, Pat: p, Body: body}, nil
	case "fapp", "fproject":
		if err := kids(n, 1); err != nil {
			return nil, err
		}
		v, err := vm.DecodeVal(n.Kids[0])
		if err != nil {
			return nil, err
		}
		if n.Tag == "fapp" {
			return AppFrame{Arg: v}, nil
		}
		return ProjectFrame{Label: v}, nil
	case "fnest":
		if err := kids(n, 1); err != nil {
			return nil, err
		}
		s, err := vm.DecodeSym(n.Kids[0])
		if err != nil {
			return nil, err
		}
		return NestFrame{Sym: s}, nil
	}
	return nil, fmt.Errorf("decode frame: unknown tag %q", n.Tag)
}

func EncodeMachine(m *Machine) vm.Node {
	if m == nil {
		return none
	}
	stack := vm.Node{Tag: "stack"}
	for _, f := range m.Stack {
		stack.Kids = append(stack.Kids, vm.Node{
			Tag:  "frame",
			Kids: append([]vm.Node{encodeFrameCont(f.Cont)}, encodeTraces(f.Trace)...),
		})
	}
	return vm.Node{Tag: "machine", Kids: []vm.Node{
		{Tag: "traces", Kids: encodeTraces(m.Trace)},
		EncodeEnv(m.Env),
		stack,
		vm.EncodeExp(m.Cont),
	}}
}

func DecodeMachine(n vm.Node) (*Machine, error) {
	if n.Tag == "none" {
		return nil, nil
	}
	if err := kids(n, 4); err != nil {
		return nil, err
	}
	trace, err := decodeTraces(n.Kids[0].Kids)
	if err != nil {
		return nil, err
	}
	env, err := DecodeEnv(n.Kids[1])
	if err != nil {
		return nil, err
	}
	m := &Machine{Trace: trace, Env: env}
	for _, fn := range n.Kids[2].Kids {
		if err := kids(fn, 1); err != nil {
			return nil, err
		}
		c, err := decodeFrameCont(fn.Kids[0])
		if err != nil {
			return nil, err
		}
		ft, err := decodeTraces(fn.Kids[1:])
		if err != nil {
			return nil, err
		}
		m.Stack = append(m.Stack, Frame{Cont: c, Trace: ft})
	}
	m.Cont, err = vm.DecodeExp(n.Kids[3])
	if err != nil {
		return nil, err
	}
	return m, nil
}

func EncodeError(e *Error) vm.Node {
	if e == nil {
		return none
	}
	return vm.Node{
		Tag:  "error",
		Num:  int64(e.Kind),
		Str:  e.Name,
		Flag: e.Equal,
		Kids: []vm.Node{
			{Tag: "sub", Num: int64(e.Sub)},
			encodeOptVal(e.Value),
			encodeOptSym(e.Sym),
			encodeOptVal(e.Left),
			encodeOptVal(e.Right),
		},
	}
}

func DecodeError(n vm.Node) (*Error, error) {
	if n.Tag == "none" {
		return nil, nil
	}
	if err := kids(n, 5); err != nil {
		return nil, err
	}
	e := &Error{Kind: ErrorKind(n.Num), Sub: ErrorSub(n.Kids[0].Num), Name: n.Str, Equal: n.Flag}
	var err error
	if e.Value, err = decodeOptVal(n.Kids[1]); err != nil {
		return nil, err
	}
	if e.Sym, err = decodeOptSym(n.Kids[2]); err != nil {
		return nil, err
	}
	if e.Left, err = decodeOptVal(n.Kids[3]); err != nil {
		return nil, err
	}
	if e.Right, err = decodeOptVal(n.Kids[4]); err != nil {
		return nil, err
	}
	return e, nil
}

func EncodeProc(p *Proc) vm.Node {
	return vm.Node{
		Tag: "proc",
		Num: int64(p.Status),
		Kids: []vm.Node{
			encodeOptExp(p.Body),
			EncodeMachine(p.Machine),
			encodeOptSym(p.WaitOn),
			EncodeError(p.Err),
			{Tag: "traces", Kids: encodeTraces(p.Trace)},
			encodeOptVal(p.RetVal),
		},
	}
}

func DecodeProc(n vm.Node) (*Proc, error) {
	if n.Tag != "proc" {
		return nil, fmt.Errorf("decode process: unexpected tag %q", n.Tag)
	}
	if err := kids(n, 6); err != nil {
		return nil, err
	}
	p := &Proc{Status: Status(n.Num)}
	var err error
	if p.Body, err = decodeOptExp(n.Kids[0]); err != nil {
		return nil, err
	}
	if p.Machine, err = DecodeMachine(n.Kids[1]); err != nil {
		return nil, err
	}
	if p.WaitOn, err = decodeOptSym(n.Kids[2]); err != nil {
		return nil, err
	}
	if p.Err, err = DecodeError(n.Kids[3]); err != nil {
		return nil, err
	}
	if p.Trace, err = decodeTraces(n.Kids[4].Kids); err != nil {
		return nil, err
	}
	if p.RetVal, err = decodeOptVal(n.Kids[5]); err != nil {
		return nil, err
	}
	return p, nil
}

// EncodeSystem lists store entries and processes in symbol order, so equal
// systems encode identically.
func EncodeSystem(s *System) vm.Node {
	store := vm.Node{Tag: "store"}
	for _, k := range s.Store.Keys() {
		v, _ := s.Store.Get(k)
		store.Kids = append(store.Kids, vm.Node{Tag: "entry", Kids: []vm.Node{vm.EncodeSym(k), vm.EncodeVal(v)}})
	}
	procs := vm.Node{Tag: "procs"}
	for _, name := range s.Names() {
		procs.Kids = append(procs.Kids, vm.Node{Tag: "named", Kids: []vm.Node{vm.EncodeSym(name), EncodeProc(s.Procs[name])}})
	}
	return vm.Node{Tag: "system", Kids: []vm.Node{store, procs}}
}

func DecodeSystem(n vm.Node) (*System, error) {
	if n.Tag != "system" {
		return nil, fmt.Errorf("decode system: unexpected tag %q", n.Tag)
	}
	if err := kids(n, 2); err != nil {
		return nil, err
	}
	s := &System{Store: NewStore(), Procs: make(map[vm.Sym]*Proc)}
	for _, e := range n.Kids[0].Kids {
		if err := kids(e, 2); err != nil {
			return nil, err
		}
		k, err := vm.DecodeSym(e.Kids[0])
		if err != nil {
			return nil, err
		}
		v, err := vm.DecodeVal(e.Kids[1])
		if err != nil {
			return nil, err
		}
		s.Store.Put(k, v)
	}
	for _, e := range n.Kids[1].Kids {
		if err := kids(e, 2); err != nil {
			return nil, err
		}
		k, err := vm.DecodeSym(e.Kids[0])
		if err != nil {
			return nil, err
		}
		p, err := DecodeProc(e.Kids[1])
		if err != nil {
			return nil, err
		}
		s.Procs[k] = p
	}
	return s, nil
}

func (s *System) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, EncodeSystem(s))
}

func (s *System) Deserialize(r io.Reader) error {
	var n vm.Node
	if err := msgpack.UnmarshalRead(r, &n); err != nil {
		return err
	}
	out, err := DecodeSystem(n)
	if err != nil {
		return err
	}
	*s = *out
	return nil
}

func (p *Proc) Serialize(w io.Writer) error {
	return msgpack.MarshalWrite(w, EncodeProc(p))
}

func (p *Proc) Deserialize(r io.Reader) error {
	var n vm.Node
	if err := msgpack.UnmarshalRead(r, &n); err != nil {
		return err
	}
	out, err := DecodeProc(n)
	if err != nil {
		return err
	}
	*p = *out
	return nil
}
