package vm

import (
	"sort"
	"strconv"
	"strings"
)

// Val is a value of the calculus. Values in a running machine are closed;
// Var and CallByValue only appear in unevaluated terms.
type Val interface {
	isVal()
	String() string
}

type Num int64

func (Num) isVal()           {}
func (n Num) String() string { return strconv.FormatInt(int64(n), 10) }

// SymValue is a symbol literal.
type SymValue struct {
	Sym Sym
}

func (SymValue) isVal()           {}
func (s SymValue) String() string { return "$" + s.Sym.String() }

// Ptr is a symbol known to resolve in the store. Only put and link make them.
type Ptr struct {
	Sym Sym
}

func (Ptr) isVal()           {}
func (p Ptr) String() string { return "!" + p.Sym.String() }

// ProcHandle is a symbol known to name a process.
type ProcHandle struct {
	Sym Sym
}

func (ProcHandle) isVal()           {}
func (p ProcHandle) String() string { return "~" + p.Sym.String() }

type Var string

func (Var) isVal()           {}
func (v Var) String() string { return string(v) }

type Variant struct {
	Label   Val
	Payload Val
}

func (Variant) isVal() {}
func (v Variant) String() string {
	return "#" + v.Label.String() + "(" + v.Payload.String() + ")"
}

type Field struct {
	Label Val
	Value Val
}

func (f Field) String() string {
	return f.Label.String() + " => " + f.Value.String()
}

// Record fields are looked up by label, not by position.
type Record []Field

func (Record) isVal() {}
func (r Record) String() string {
	parts := make([]string, len(r))
	for i, f := range r {
		parts[i] = f.String()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

// Lookup returns the first field whose label is structurally equal to label.
func (r Record) Lookup(label Val) (Val, bool) {
	for _, f := range r {
		if EqualVal(f.Label, label) {
			return f.Value, true
		}
	}
	return nil, false
}

// RecordExt is a record value plus one more field, kept unflattened.
type RecordExt struct {
	Base  Val
	Field Field
}

func (RecordExt) isVal() {}
func (r RecordExt) String() string {
	return r.Base.String() + ", " + r.Field.String()
}

// BoxEnv maps box names to boxes.
type BoxEnv map[string]*Box

func (b BoxEnv) Clone() BoxEnv {
	out := make(BoxEnv, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Names returns the bound names in sorted order.
func (b BoxEnv) Names() []string {
	names := make([]string, 0, len(b))
	for k := range b {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (b BoxEnv) String() string {
	var parts []string
	for _, k := range b.Names() {
		parts = append(parts, k+" => "+b[k].String())
	}
	return "[" + strings.Join(parts, "; ") + "]"
}

// Box is a code box: closed over its own box bindings and, when Name is set,
// able to refer to itself by that name once extracted.
// Boxes are never mutated after construction.
type Box struct {
	Bxes BoxEnv
	Name string
	Code Exp
}

func (*Box) isVal() {}
func (b *Box) String() string {
	body := "{" + b.Bxes.String() + " |- " + b.Code.String() + "}"
	if b.Name != "" {
		return "rec " + b.Name + " " + body
	}
	return body
}

// CallByValue embeds a computation in value position. Normalize removes
// every occurrence; the machine rejects any that survive.
type CallByValue struct {
	Exp Exp
}

func (CallByValue) isVal()           {}
func (c CallByValue) String() string { return "`(" + c.Exp.String() + ")" }

// Unit is the empty record, the result of a successful assertion.
func Unit() Val {
	return Record{}
}
