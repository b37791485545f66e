package vm

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const DefaultEntrypoint = "main"

var ErrNoEntrypoint = errors.New("entrypoint not defined")

type termKind int

const (
	valTerm termKind = iota
	expTerm
	patTerm
	caseTerm
	branchTerm
)

func (k termKind) String() string {
	switch k {
	case valTerm:
		return "value"
	case expTerm:
		return "computation"
	case patTerm:
		return "pattern"
	case caseTerm:
		return "case"
	case branchTerm:
		return "branch"
	}
	return "unknown"
}

// term is the Starlark-side handle for a piece of a program under
// construction. Exactly one payload field is set, chosen by kind.
type term struct {
	kind   termKind
	val    Val
	exp    Exp
	pat    Pat
	cas    Case
	branch Branch
}

var _ starlark.Value = (*term)(nil)

func (t *term) String() string {
	switch t.kind {
	case valTerm:
		return t.val.String()
	case expTerm:
		return t.exp.String()
	case patTerm:
		return t.pat.String()
	case caseTerm:
		return t.cas.String()
	case branchTerm:
		return t.branch.String()
	}
	return "<term>"
}

func (t *term) Type() string          { return "fumola." + t.kind.String() }
func (t *term) Freeze()               {}
func (t *term) Truth() starlark.Bool  { return starlark.True }
func (t *term) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: %s", t.Type()) }

func valueTerm(v Val) *term  { return &term{kind: valTerm, val: v} }
func expTermOf(e Exp) *term  { return &term{kind: expTerm, exp: e} }
func patTermOf(p Pat) *term  { return &term{kind: patTerm, pat: p} }

// toVal converts a Starlark value in value position. Ints are numerals and
// strings are variable references.
func toVal(v starlark.Value) (Val, error) {
	switch x := v.(type) {
	case starlark.Int:
		n, ok := x.Int64()
		if !ok {
			return nil, fmt.Errorf("integer %s out of range", x)
		}
		return Num(n), nil
	case starlark.String:
		return Var(string(x)), nil
	case *term:
		if x.kind == valTerm {
			return x.val, nil
		}
		if x.kind == expTerm {
			return nil, fmt.Errorf("got computation %s where a value is expected, wrap it with cbv()", x)
		}
	}
	return nil, fmt.Errorf("got %s where a value is expected", v.Type())
}

func toExp(v starlark.Value) (Exp, error) {
	if t, ok := v.(*term); ok && t.kind == expTerm {
		return t.exp, nil
	}
	return nil, fmt.Errorf("got %s where a computation is expected", v.Type())
}

// toPat converts a Starlark value in pattern position: "_" ignores and any
// other string binds a variable.
func toPat(v starlark.Value) (Pat, error) {
	switch x := v.(type) {
	case starlark.String:
		if x == "_" {
			return IgnorePat{}, nil
		}
		return VarPat(string(x)), nil
	case *term:
		if x.kind == patTerm {
			return x.pat, nil
		}
	}
	return nil, fmt.Errorf("got %s where a pattern is expected", v.Type())
}

// Program is a compiled program: the closed computation bound to the
// entrypoint of a source file.
type Program struct {
	Name       string
	Entrypoint string
	Main       Exp
}

func (p *Program) String() string {
	return p.Name + ":" + p.Entrypoint + " = " + p.Main.String()
}

func newThread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			log.Debug().Str("file", name).Msg(msg)
		},
	}
}

func fileOptions() *syntax.FileOptions {
	return &syntax.FileOptions{
		TopLevelControl: true,
		GlobalReassign:  true,
		Recursion:       true,
	}
}

// Compile executes src as a Starlark script with the term builtins
// predeclared and returns the computation bound to entrypoint. The
// entrypoint may also be a function of no arguments returning one.
func Compile(name string, src any, entrypoint string) (*Program, error) {
	if entrypoint == "" {
		entrypoint = DefaultEntrypoint
	}
	thread := newThread(name)
	globals, err := starlark.ExecFileOptions(fileOptions(), thread, name, src, Builtins())
	if err != nil {
		return nil, err
	}
	v, ok := globals[entrypoint]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %s", name, ErrNoEntrypoint, entrypoint)
	}
	if fn, ok := v.(starlark.Callable); ok {
		v, err = starlark.Call(thread, fn, nil, nil)
		if err != nil {
			return nil, err
		}
	}
	e, err := toExp(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", name, entrypoint, err)
	}
	log.Trace().Str("file", name).Str("entrypoint", entrypoint).Msg("compiled program")
	return &Program{Name: name, Entrypoint: entrypoint, Main: e}, nil
}

func CompilePath(path string) (*Program, error) {
	return CompilePathEntry(path, DefaultEntrypoint)
}

func CompilePathEntry(path, entrypoint string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(path, data, entrypoint)
}

// CompileLiteral evaluates a single Starlark expression built from the term
// builtins, such as `put(sym("a"), 1)`.
func CompileLiteral(src string) (Exp, error) {
	v, err := starlark.EvalOptions(fileOptions(), newThread("<literal>"), "<literal>", src, Builtins())
	if err != nil {
		return nil, err
	}
	return toExp(v)
}
