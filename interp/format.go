package interp

import (
	"fmt"
	"strings"

	"github.com/fumola-dev/fumola/vm"
)

func formatVals(vals map[string]vm.Val) string {
	keys := sortedKeys(vals)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " => " + vals[k].String()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

func joinTraces(ts []Trace) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, "; ")
}

// FormatTraces renders a trace list as "[t1; t2]".
func FormatTraces(ts []Trace) string {
	return "[" + joinTraces(ts) + "]"
}

func (t TraceSeq) String() string  { return joinTraces(t) }
func (t TraceNest) String() string { return "#" + t.Sym.String() + " {" + joinTraces(t.Traces) + "}" }
func (t TraceRet) String() string  { return "ret " + t.Value.String() }
func (t TracePut) String() string  { return "put " + t.Sym.String() + " <= " + t.Value.String() }
func (t TraceGet) String() string  { return "get " + t.Sym.String() + " => " + t.Value.String() }
func (t TraceLink) String() string { return "link " + t.Target.String() + " => " + t.Result.String() }

func (f LetFrame) String() string {
	return fmt.Sprintf("%s ;; %s |- let %s = __; %s", f.Env.Bxes, formatVals(f.Env.Vals), f.Pat, f.Body)
}

func (f LetBoxFrame) String() string {
	return fmt.Sprintf("%s ;; %s |- let box %s = __; %s", f.Env.Bxes, formatVals(f.Env.Vals), f.Pat, f.Body)
}

func (f AppFrame) String() string     { return "__ " + f.Arg.String() }
func (f ProjectFrame) String() string { return "__ <= " + f.Label.String() }
func (f NestFrame) String() string    { return "#" + f.Sym.String() + " { __ }" }

func formatStack(stack []Frame) string {
	parts := make([]string, len(stack))
	for i, f := range stack {
		parts[i] = "[trace = " + FormatTraces(f.Trace) + ", cont = " + f.Cont.String() + "]"
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

func (m *Machine) String() string {
	return fmt.Sprintf("[trace = %s; stack = %s; bxes = %s; vals = %s; cont = %s]",
		FormatTraces(m.Trace), formatStack(m.Stack), m.Env.Bxes, formatVals(m.Env.Vals), m.Cont)
}

func (p *Proc) String() string {
	switch p.Status {
	case Pending:
		return "spawn(" + p.Body.String() + ")"
	case Runnable:
		return "running(" + p.Machine.String() + ")"
	case WaitingPtr:
		return "waitingForPtr(" + p.Machine.String() + ", " + p.WaitOn.String() + ")"
	case WaitingHalt:
		return "waitingForHalt(" + p.Machine.String() + ", " + p.WaitOn.String() + ")"
	case Errored:
		return "error(" + p.Err.Error() + ", " + p.Machine.String() + ")"
	case Halted:
		return "halted(" + FormatTraces(p.Trace) + ")"
	}
	return p.Status.String()
}

func (s *Store) String() string {
	keys := s.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String() + " => " + s.entries[k].String()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

// Entry renders a single store entry as "sym => value".
func (s *Store) Entry(sym vm.Sym) string {
	v, ok := s.entries[sym]
	if !ok {
		return ""
	}
	return sym.String() + " => " + v.String()
}

func (s *System) String() string {
	names := s.Names()
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n.String() + " => " + s.Procs[n].String()
	}
	return "fumola [\n  store = " + s.Store.String() + ";\n  procs = [" + strings.Join(parts, "; ") + "]\n]\n"
}

// PrettyPrint returns a multi-line report of the system: store entries, then
// one block per process.
func (s *System) PrettyPrint() string {
	var b strings.Builder
	b.WriteString("Store:\n")
	if s.Store.Len() == 0 {
		b.WriteString("  (empty)\n")
	}
	for _, k := range s.Store.Keys() {
		fmt.Fprintf(&b, "  %s\n", s.Store.Entry(k))
	}
	b.WriteString("\nProcesses:\n")
	for _, n := range s.Names() {
		p := s.Procs[n]
		fmt.Fprintf(&b, "  %s [%s]:\n", n, p.Status)
		switch p.Status {
		case Pending:
			fmt.Fprintf(&b, "    Body: %s\n", p.Body)
		case Runnable:
			fmt.Fprintf(&b, "    Cont: %s\n", p.Machine.Cont)
		case WaitingPtr:
			fmt.Fprintf(&b, "    Waiting for pointer: %s\n", p.WaitOn)
		case WaitingHalt:
			fmt.Fprintf(&b, "    Waiting for process: %s\n", p.WaitOn)
		case Errored:
			fmt.Fprintf(&b, "    Error: %s\n", p.Err)
			fmt.Fprintf(&b, "    Stuck at: %s\n", p.Machine.Cont)
		case Halted:
			fmt.Fprintf(&b, "    Returned: %s\n", p.RetVal)
		}
		if p.Machine != nil && len(p.Machine.Stack) > 0 {
			fmt.Fprintf(&b, "    Stack depth: %d\n", len(p.Machine.Stack))
		}
		trace := p.Trace
		if p.Machine != nil {
			trace = p.Machine.Trace
		}
		if len(trace) > 0 {
			fmt.Fprintf(&b, "    Trace: %s\n", FormatTraces(trace))
		}
	}
	return b.String()
}
