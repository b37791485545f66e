package vm

import "strings"

// Exp is a computation of the calculus.
type Exp interface {
	isExp()
	String() string
}

// Nest scopes the store addressing of Body under Sym.
type Nest struct {
	Sym  Val
	Body Exp
}

// Spawn requests a new process named Sym running Body.
type Spawn struct {
	Sym  Val
	Body Exp
}

type Put struct {
	Sym   Val
	Value Val
}

type Get struct {
	Ptr Val
}

// Link awaits a store entry or the termination of a process.
type Link struct {
	Target Val
}

// AssertEq succeeds when the structural equality of Left and Right is Equal.
type AssertEq struct {
	Left  Val
	Equal bool
	Right Val
}

type Lambda struct {
	Pat  Pat
	Body Exp
}

type App struct {
	Fn  Exp
	Arg Val
}

type Let struct {
	Pat  Pat
	Def  Exp
	Body Exp
}

// LetBox binds the box returned by Def in the box environment.
type LetBox struct {
	Pat  Pat
	Def  Exp
	Body Exp
}

type Ret struct {
	Value Val
}

// Returned is the machine-internal marker for a value that has been
// resolved and traced and is now being returned to the stack.
type Returned struct {
	Value Val
}

type Case struct {
	Label Val
	Pat   Pat
	Body  Exp
}

func (c Case) String() string {
	return "#" + c.Label.String() + "(" + c.Pat.String() + ") => " + c.Body.String()
}

type Switch struct {
	Scrutinee Val
	Cases     []Case
}

type Branch struct {
	Label Val
	Body  Exp
}

func (b Branch) String() string {
	return b.Label.String() + " => " + b.Body.String()
}

// Branches is a co-data set, eliminated by Project.
type Branches struct {
	Branches []Branch
}

type Project struct {
	Body  Exp
	Label Val
}

// Extract runs the code of a box bound in the box environment.
type Extract struct {
	Box Val
}

// Hole is an internal placeholder and never valid input.
type Hole struct{}

func (Nest) isExp()     {}
func (Spawn) isExp()    {}
func (Put) isExp()      {}
func (Get) isExp()      {}
func (Link) isExp()     {}
func (AssertEq) isExp() {}
func (Lambda) isExp()   {}
func (App) isExp()      {}
func (Let) isExp()      {}
func (LetBox) isExp()   {}
func (Ret) isExp()      {}
func (Returned) isExp() {}
func (Switch) isExp()   {}
func (Branches) isExp() {}
func (Project) isExp()  {}
func (Extract) isExp()  {}
func (Hole) isExp()     {}

func (e Nest) String() string  { return "#" + e.Sym.String() + " { " + e.Body.String() + " }" }
func (e Spawn) String() string { return "~" + e.Sym.String() + " { " + e.Body.String() + " }" }
func (e Put) String() string   { return e.Sym.String() + " := " + e.Value.String() }
func (e Get) String() string   { return "@" + e.Ptr.String() }
func (e Link) String() string  { return "&" + e.Target.String() }

func (e AssertEq) String() string {
	if e.Equal {
		return e.Left.String() + " == " + e.Right.String()
	}
	return e.Left.String() + " != " + e.Right.String()
}

func (e Lambda) String() string { return "\\" + e.Pat.String() + " => " + e.Body.String() }
func (e App) String() string    { return e.Fn.String() + " " + e.Arg.String() }

func (e Let) String() string {
	return "let " + e.Pat.String() + " = " + e.Def.String() + "; " + e.Body.String()
}

func (e LetBox) String() string {
	return "let box " + e.Pat.String() + " = " + e.Def.String() + "; " + e.Body.String()
}

func (e Ret) String() string      { return "ret " + e.Value.String() }
func (e Returned) String() string { return "ret_ " + e.Value.String() }

func (e Switch) String() string {
	parts := make([]string, len(e.Cases))
	for i, c := range e.Cases {
		parts[i] = c.String()
	}
	return "switch " + e.Scrutinee.String() + " { " + strings.Join(parts, "; ") + " }"
}

func (e Branches) String() string {
	parts := make([]string, len(e.Branches))
	for i, b := range e.Branches {
		parts[i] = b.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

func (e Project) String() string { return e.Body.String() + " <= " + e.Label.String() }
func (e Extract) String() string { return e.Box.String() }
func (Hole) String() string      { return "__" }

// Head is a shallow copy of e with every subcomputation replaced by a hole.
// Case and branch labels and patterns are kept.
func Head(e Exp) Exp {
	switch x := e.(type) {
	case Nest:
		return Nest{Sym: x.Sym, Body: Hole{}}
	case Spawn:
		return Spawn{Sym: x.Sym, Body: Hole{}}
	case Lambda:
		return Lambda{Pat: x.Pat, Body: Hole{}}
	case Let:
		return Let{Pat: x.Pat, Def: Hole{}, Body: Hole{}}
	case LetBox:
		return LetBox{Pat: x.Pat, Def: Hole{}, Body: Hole{}}
	case App:
		return App{Fn: Hole{}, Arg: x.Arg}
	case Project:
		return Project{Body: Hole{}, Label: x.Label}
	case Switch:
		cases := make([]Case, len(x.Cases))
		for i, c := range x.Cases {
			cases[i] = Case{Label: c.Label, Pat: c.Pat, Body: Hole{}}
		}
		return Switch{Scrutinee: x.Scrutinee, Cases: cases}
	case Branches:
		bs := make([]Branch, len(x.Branches))
		for i, b := range x.Branches {
			bs[i] = Branch{Label: b.Label, Body: Hole{}}
		}
		return Branches{Branches: bs}
	default:
		// Put, Get, Link, AssertEq, Ret, Returned, Extract and Hole have
		// no subcomputations.
		return e
	}
}
