package vm

import "strings"

// Pat is a binding pattern.
type Pat interface {
	isPat()
	String() string
}

type IgnorePat struct{}

type VarPat string

type FieldPat struct {
	Label Val
	Pat   Pat
}

// FieldsPat destructures a record field by field.
type FieldsPat []FieldPat

// CasePat destructures a variant with a single expected label.
type CasePat struct {
	Label Val
	Pat   Pat
}

func (IgnorePat) isPat() {}
func (VarPat) isPat()    {}
func (FieldsPat) isPat() {}
func (CasePat) isPat()   {}

func (IgnorePat) String() string { return "_" }
func (p VarPat) String() string  { return string(p) }

func (p FieldsPat) String() string {
	parts := make([]string, len(p))
	for i, f := range p {
		parts[i] = f.Label.String() + " => " + f.Pat.String()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

func (p CasePat) String() string {
	return p.Label.String() + "(" + p.Pat.String() + ")"
}
