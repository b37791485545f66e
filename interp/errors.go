package interp

import (
	"fmt"

	"github.com/fumola-dev/fumola/vm"
)

type SignalKind int

const (
	SignalHalt SignalKind = iota
	SignalWaitPtr
	SignalWaitHalt
	SignalSpawn
)

// Signal is a non-error outcome of a machine step that the lifecycle wrapper
// turns into a status change. A spawn signal carries the new process name,
// the environment snapshot it starts with and its body.
type Signal struct {
	Kind  SignalKind
	Value vm.Val
	Sym   vm.Sym
	Env   Env
	Body  vm.Exp
}

func (s *Signal) String() string {
	switch s.Kind {
	case SignalHalt:
		return "halt(" + s.Value.String() + ")"
	case SignalWaitPtr:
		return "linkWaitPtr(" + s.Sym.String() + ")"
	case SignalWaitHalt:
		return "linkWaitHalt(" + s.Sym.String() + ")"
	case SignalSpawn:
		return fmt.Sprintf("spawn([name = %s; bxes = %s; vals = %s; code = %s])",
			s.Sym, s.Env.Bxes, formatVals(s.Env.Vals), s.Body)
	}
	return "signal"
}

type ErrorKind int

const (
	ErrInternal ErrorKind = iota
	ErrPattern
	ErrValue
	ErrExtract
	ErrSwitch
	ErrProject
	ErrNoStep
	ErrNotASymbol
	ErrNotAPointer
	ErrInvalidProc
	ErrNotLinkTarget
	ErrUndefined
	ErrDuplicate
	ErrAssertion
)

// ErrorSub refines the structured kinds (internal, pattern, value, extract,
// switch, project).
type ErrorSub int

const (
	SubNone ErrorSub = iota
	SubHole
	SubImpossible
	SubNotRecord
	SubNotVariant
	SubFieldNotFound
	SubUndefined
	SubCallByValue
	SubNotVariable
	SubMissingCase
	SubMissingBranch
)

// Error is a program error. A process that hits one stays parked in the
// errored state with its machine snapshot.
type Error struct {
	Kind  ErrorKind
	Sub   ErrorSub
	Value vm.Val
	Sym   vm.Sym
	Name  string
	Left  vm.Val
	Right vm.Val
	Equal bool
}

var (
	ErrHole            = &Error{Kind: ErrInternal, Sub: SubHole}
	ErrImpossible      = &Error{Kind: ErrInternal, Sub: SubImpossible}
	ErrNoApplicable    = &Error{Kind: ErrNoStep}
	ErrUndefinedSymbol = &Error{Kind: ErrUndefined}
	ErrDuplicateName   = &Error{Kind: ErrDuplicate}
	ErrAssertFailed    = &Error{Kind: ErrAssertion}
	ErrNotSymbol       = &Error{Kind: ErrNotASymbol}
	ErrNotPointer      = &Error{Kind: ErrNotAPointer}
	ErrBadProc         = &Error{Kind: ErrInvalidProc}
	ErrBadLinkTarget   = &Error{Kind: ErrNotLinkTarget}
	ErrUnboundVar      = &Error{Kind: ErrValue, Sub: SubUndefined}
	ErrCallByValue     = &Error{Kind: ErrValue, Sub: SubCallByValue}
	ErrMissingCase     = &Error{Kind: ErrSwitch, Sub: SubMissingCase}
	ErrMissingBranch   = &Error{Kind: ErrProject, Sub: SubMissingBranch}
	ErrPatternNoMatch  = &Error{Kind: ErrPattern}
)

// Is matches on kind, and on sub-kind when the target names one, so the
// package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Sub == SubNone || t.Sub == e.Sub
}

// IsInternal reports an internal-consistency failure of the machine rather
// than a fault of the program.
func (e *Error) IsInternal() bool {
	return e.Kind == ErrInternal
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrInternal:
		return "internal(" + e.subString() + ")"
	case ErrPattern:
		return "pattern(" + e.subString() + ")"
	case ErrValue:
		return "value(" + e.subString() + ")"
	case ErrExtract:
		return "extract(" + e.subString() + ")"
	case ErrSwitch:
		return "switch(" + e.subString() + ")"
	case ErrProject:
		return "project(" + e.subString() + ")"
	case ErrNoStep:
		return "noStep"
	case ErrNotASymbol:
		return "notASymbol(" + e.Value.String() + ")"
	case ErrNotAPointer:
		return "notAPointer(" + e.Value.String() + ")"
	case ErrInvalidProc:
		return "invalidProc(" + e.Sym.String() + ")"
	case ErrNotLinkTarget:
		return "notLinkTarget(" + e.Value.String() + ")"
	case ErrUndefined:
		return "undefined(" + e.Sym.String() + ")"
	case ErrDuplicate:
		return "duplicate(" + e.Sym.String() + ")"
	case ErrAssertion:
		op := "!="
		if e.Equal {
			op = "=="
		}
		return "assertionFailure(" + e.Left.String() + " " + op + " " + e.Right.String() + ")"
	}
	return fmt.Sprintf("error(%d)", int(e.Kind))
}

func (e *Error) subString() string {
	switch e.Sub {
	case SubHole:
		return "hole"
	case SubImpossible:
		return "impossible"
	case SubNotRecord:
		return "notRecord"
	case SubNotVariant:
		if e.Value != nil {
			return "notVariant(" + e.Value.String() + ")"
		}
		return "notVariant"
	case SubFieldNotFound:
		return "fieldNotFound(" + e.Value.String() + ")"
	case SubUndefined:
		return "undefined(" + e.Name + ")"
	case SubCallByValue:
		return "callByValue"
	case SubNotVariable:
		return "notVariable(" + e.Value.String() + ")"
	case SubMissingCase:
		return "missingCase(" + e.Sym.String() + ")"
	case SubMissingBranch:
		return "missingBranch(" + e.Sym.String() + ")"
	}
	return "unknown"
}

func noStep() *Error { return &Error{Kind: ErrNoStep} }

func notASymbol(v vm.Val) *Error  { return &Error{Kind: ErrNotASymbol, Value: v} }
func notAPointer(v vm.Val) *Error { return &Error{Kind: ErrNotAPointer, Value: v} }
func undefined(s vm.Sym) *Error   { return &Error{Kind: ErrUndefined, Sym: s} }
func duplicate(s vm.Sym) *Error   { return &Error{Kind: ErrDuplicate, Sym: s} }

func assertionFailure(l vm.Val, equal bool, r vm.Val) *Error {
	return &Error{Kind: ErrAssertion, Left: l, Equal: equal, Right: r}
}
