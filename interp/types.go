package interp

import (
	"fmt"
	"maps"
	"slices"

	"github.com/fumola-dev/fumola/vm"
)

// Env is the lexical environment of a running machine.
type Env struct {
	Vals map[string]vm.Val
	Bxes vm.BoxEnv
}

func NewEnv() Env {
	return Env{
		Vals: make(map[string]vm.Val),
		Bxes: make(vm.BoxEnv),
	}
}

func (e Env) Clone() Env {
	out := Env{Vals: maps.Clone(e.Vals), Bxes: e.Bxes.Clone()}
	if out.Vals == nil {
		out.Vals = make(map[string]vm.Val)
	}
	return out
}

func (e Env) Bind(name string, v vm.Val) {
	e.Vals[name] = v
}

// FrameCont is what a stack frame does with the value returned to it.
type FrameCont interface {
	isFrameCont()
	String() string
}

// LetFrame binds the returned value in Env and continues with Body.
type LetFrame struct {
	Env  Env
	Pat  vm.Pat
	Body vm.Exp
}

// LetBoxFrame installs the returned box in Env and continues with Body.
type LetBoxFrame struct {
	Env  Env
	Pat  vm.Pat
	Body vm.Exp
}

// AppFrame holds an argument waiting for a lambda.
type AppFrame struct {
	Arg vm.Val
}

// ProjectFrame holds a label waiting for a set of branches.
type ProjectFrame struct {
	Label vm.Val
}

type NestFrame struct {
	Sym vm.Sym
}

func (LetFrame) isFrameCont()     {}
func (LetBoxFrame) isFrameCont()  {}
func (AppFrame) isFrameCont()     {}
func (ProjectFrame) isFrameCont() {}
func (NestFrame) isFrameCont()    {}

type Frame struct {
	Cont  FrameCont
	Trace []Trace
}

func (f Frame) Clone() Frame {
	out := Frame{Cont: f.Cont, Trace: slices.Clone(f.Trace)}
	switch c := f.Cont.(type) {
	case LetFrame:
		c.Env = c.Env.Clone()
		out.Cont = c
	case LetBoxFrame:
		c.Env = c.Env.Clone()
		out.Cont = c
	}
	return out
}

// Trace records an observable effect of a machine step. Traces are only
// ever appended to.
type Trace interface {
	isTrace()
	String() string
}

type TraceSeq []Trace

type TraceNest struct {
	Sym    vm.Sym
	Traces []Trace
}

type TraceRet struct {
	Value vm.Val
}

type TracePut struct {
	Sym   vm.Sym
	Value vm.Val
}

type TraceGet struct {
	Sym   vm.Sym
	Value vm.Val
}

type TraceLink struct {
	Target vm.Val
	Result vm.Val
}

func (TraceSeq) isTrace()  {}
func (TraceNest) isTrace() {}
func (TraceRet) isTrace()  {}
func (TracePut) isTrace()  {}
func (TraceGet) isTrace()  {}
func (TraceLink) isTrace() {}

// Machine is the state of a running process.
type Machine struct {
	Trace []Trace
	Env   Env
	Stack []Frame
	Cont  vm.Exp
}

func NewMachine(env Env, cont vm.Exp) *Machine {
	return &Machine{Env: env, Cont: cont}
}

func (m *Machine) Clone() *Machine {
	if m == nil {
		return nil
	}
	out := &Machine{
		Trace: slices.Clone(m.Trace),
		Env:   m.Env.Clone(),
		Cont:  m.Cont,
	}
	for _, f := range m.Stack {
		out.Stack = append(out.Stack, f.Clone())
	}
	return out
}

func (m *Machine) push(cont FrameCont) {
	m.Stack = append(m.Stack, Frame{Cont: cont, Trace: m.Trace})
	m.Trace = nil
}

func (m *Machine) pop() (Frame, bool) {
	if len(m.Stack) == 0 {
		return Frame{}, false
	}
	f := m.Stack[len(m.Stack)-1]
	m.Stack = m.Stack[:len(m.Stack)-1]
	return f, true
}

// splice restores the trace saved in a frame, followed by everything traced
// since it was pushed.
func (m *Machine) splice(f Frame) {
	m.Trace = append(slices.Clone(f.Trace), m.Trace...)
}

func (m *Machine) top() (Frame, bool) {
	if len(m.Stack) == 0 {
		return Frame{}, false
	}
	return m.Stack[len(m.Stack)-1], true
}

type Status int

const (
	Pending Status = iota
	Runnable
	WaitingPtr
	WaitingHalt
	Errored
	Halted
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "spawn"
	case Runnable:
		return "running"
	case WaitingPtr:
		return "waitingForPtr"
	case WaitingHalt:
		return "waitingForHalt"
	case Errored:
		return "error"
	case Halted:
		return "halted"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, bool) {
	for st := Pending; st <= Halted; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return 0, false
}

// Proc is a named logical process. Which fields are meaningful depends on
// Status: Body while Pending; Machine while running, waiting or errored;
// WaitOn while waiting; Err when errored; Trace and RetVal once halted.
type Proc struct {
	Status  Status
	Body    vm.Exp
	Machine *Machine
	WaitOn  vm.Sym
	Err     *Error
	Trace   []Trace
	RetVal  vm.Val
}

func NewProc(body vm.Exp) *Proc {
	return &Proc{Status: Pending, Body: body}
}

func (p *Proc) Clone() *Proc {
	out := *p
	out.Machine = p.Machine.Clone()
	out.Trace = slices.Clone(p.Trace)
	return &out
}

// Done reports whether the process can never step again.
func (p *Proc) Done() bool {
	return p.Status == Errored || p.Status == Halted
}
