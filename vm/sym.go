package vm

import (
	"fmt"
	"strconv"
)

// Sym is a hierarchical symbol. Symbols name store entries and processes.
// Every implementation is comparable, so symbols can be used as map keys and
// compared with ==.
type Sym interface {
	isSym()
	String() string
}

type NoSym struct{}

func (NoSym) isSym()         {}
func (NoSym) String() string { return "%" }

type NumSym int64

func (NumSym) isSym()           {}
func (n NumSym) String() string { return strconv.FormatInt(int64(n), 10) }

type IdSym string

func (IdSym) isSym()           {}
func (i IdSym) String() string { return string(i) }

// BinSym juxtaposes two symbols.
type BinSym struct {
	Left  Sym
	Right Sym
}

func (BinSym) isSym()           {}
func (b BinSym) String() string { return b.Left.String() + b.Right.String() }

// NestSym qualifies Inner by the enclosing nest symbol Outer. Only the
// machine produces these.
type NestSym struct {
	Outer Sym
	Inner Sym
}

func (NestSym) isSym()           {}
func (n NestSym) String() string { return n.Outer.String() + "/" + n.Inner.String() }

// TriSym joins two symbols with an explicit separator.
type TriSym struct {
	Left  Sym
	Sep   Sep
	Right Sym
}

func (TriSym) isSym() {}
func (t TriSym) String() string {
	return t.Left.String() + t.Sep.String() + t.Right.String()
}

type Sep int

const (
	Dash Sep = iota
	Under
	Dot
	Tick
)

func (Sep) isSym() {}

func (s Sep) String() string {
	switch s {
	case Dash:
		return "-"
	case Under:
		return "_"
	case Dot:
		return "."
	case Tick:
		return "'"
	default:
		return fmt.Sprintf("Sep(%d)", int(s))
	}
}

// ParseSep maps a separator spelling to its atom.
func ParseSep(s string) (Sep, bool) {
	switch s {
	case "-":
		return Dash, true
	case "_":
		return Under, true
	case ".":
		return Dot, true
	case "'":
		return Tick, true
	}
	return 0, false
}

// Symbol builds the identifier (or numeral) symbol for a name.
func Symbol(name string) Sym {
	if n, err := strconv.ParseInt(name, 10, 64); err == nil {
		return NumSym(n)
	}
	return IdSym(name)
}

// Nested folds the given nest symbols, outermost first, around s.
func Nested(s Sym, nests ...Sym) Sym {
	r := s
	for i := len(nests) - 1; i >= 0; i-- {
		r = NestSym{Outer: nests[i], Inner: r}
	}
	return r
}

func symRank(s Sym) int {
	switch s.(type) {
	case NoSym:
		return 0
	case NumSym:
		return 1
	case IdSym:
		return 2
	case BinSym:
		return 3
	case NestSym:
		return 4
	case TriSym:
		return 5
	case Sep:
		return 6
	}
	return 7
}

// CompareSym totally orders symbols: first by variant, then field by field.
func CompareSym(a, b Sym) int {
	ra, rb := symRank(a), symRank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch x := a.(type) {
	case NoSym:
		return 0
	case NumSym:
		return cmpInt64(int64(x), int64(b.(NumSym)))
	case IdSym:
		y := b.(IdSym)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case BinSym:
		y := b.(BinSym)
		if c := CompareSym(x.Left, y.Left); c != 0 {
			return c
		}
		return CompareSym(x.Right, y.Right)
	case NestSym:
		y := b.(NestSym)
		if c := CompareSym(x.Outer, y.Outer); c != 0 {
			return c
		}
		return CompareSym(x.Inner, y.Inner)
	case TriSym:
		y := b.(TriSym)
		if c := CompareSym(x.Left, y.Left); c != 0 {
			return c
		}
		if c := cmpInt(int(x.Sep), int(y.Sep)); c != 0 {
			return c
		}
		return CompareSym(x.Right, y.Right)
	case Sep:
		return cmpInt(int(x), int(b.(Sep)))
	}
	return 0
}

func cmpInt(a, b int) int {
	return cmpInt64(int64(a), int64(b))
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
