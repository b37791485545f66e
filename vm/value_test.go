package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRendering(t *testing.T) {
	tests := []struct {
		name string
		in   interface{ String() string }
		out  string
	}{
		{"root", NoSym{}, "%"},
		{"nested", Nested(IdSym("a"), IdSym("n"), IdSym("m")), "n/m/a"},
		{"bin", BinSym{Left: IdSym("a"), Right: NumSym(1)}, "a1"},
		{"tri", TriSym{Left: IdSym("a"), Sep: Dash, Right: IdSym("b")}, "a-b"},
		{"symbol", symv("a"), "$a"},
		{"pointer", Ptr{Sym: IdSym("a")}, "!a"},
		{"handle", ProcHandle{Sym: IdSym("p")}, "~p"},
		{"variant", Variant{Label: symv("l"), Payload: Num(1)}, "#$l(1)"},
		{"record", Record{{Label: symv("a"), Value: Num(1)}, {Label: symv("b"), Value: Num(2)}}, "[$a => 1; $b => 2]"},
		{"unit", Unit(), "[]"},
		{"box", &Box{Bxes: BoxEnv{}, Name: "z", Code: Ret{Value: Var("z")}}, "rec z {[] |- ret z}"},
		{"put", Put{Sym: symv("s"), Value: Num(42)}, "$s := 42"},
		{"let", Let{Pat: IgnorePat{}, Def: Get{Ptr: symv("s")}, Body: Link{Target: symv("s")}}, "let _ = @$s; &$s"},
		{"assert", AssertEq{Left: Num(1), Equal: true, Right: Num(2)}, "1 == 2"},
		{"refute", AssertEq{Left: Num(1), Right: Num(2)}, "1 != 2"},
		{"nest", Nest{Sym: symv("n"), Body: Hole{}}, "#$n { __ }"},
		{"pattern", FieldsPat{{Label: symv("a"), Pat: VarPat("x")}}, "[$a => x]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.out, tc.in.String())
		})
	}
}

func TestSymbolsAreMapKeys(t *testing.T) {
	m := map[Sym]int{}
	m[Nested(IdSym("a"), IdSym("n"))] = 1
	m[NestSym{Outer: IdSym("n"), Inner: IdSym("a")}]++
	assert.Len(t, m, 1)
	assert.Equal(t, 2, m[Nested(IdSym("a"), IdSym("n"))])
}

func TestCompareSym(t *testing.T) {
	assert.Equal(t, 0, CompareSym(NoSym{}, NoSym{}))
	assert.Equal(t, -1, CompareSym(NoSym{}, IdSym("a")))
	assert.Equal(t, -1, CompareSym(NumSym(9), IdSym("a")))
	assert.Equal(t, 1, CompareSym(IdSym("b"), IdSym("a")))
	assert.Equal(t, -1, CompareSym(Nested(IdSym("a"), IdSym("n")), Nested(IdSym("b"), IdSym("n"))))
	assert.Equal(t, IdSym("x"), Symbol("x"))
	assert.Equal(t, NumSym(3), Symbol("3"))
}

func TestRecordLookup(t *testing.T) {
	r := Record{{Label: symv("a"), Value: Num(1)}, {Label: symv("a"), Value: Num(2)}}
	v, ok := r.Lookup(symv("a"))
	assert.True(t, ok)
	assert.Equal(t, Num(1), v)
	_, ok = r.Lookup(symv("b"))
	assert.False(t, ok)
}

func TestEqualVal(t *testing.T) {
	a := &Box{Bxes: BoxEnv{}, Code: Ret{Value: Num(1)}}
	b := &Box{Bxes: BoxEnv{}, Code: Ret{Value: Num(1)}}
	assert.True(t, EqualVal(a, b))
	assert.False(t, EqualVal(a, &Box{Bxes: BoxEnv{}, Name: "n", Code: Ret{Value: Num(1)}}))
	assert.False(t, EqualVal(SymValue{Sym: IdSym("a")}, Ptr{Sym: IdSym("a")}))
	assert.True(t, EqualVal(Record{}, Unit()))
}

func TestHead(t *testing.T) {
	sw := Switch{
		Scrutinee: Var("v"),
		Cases:     []Case{{Label: symv("a"), Pat: VarPat("x"), Body: Ret{Value: Var("x")}}},
	}
	assert.Equal(t, "switch v { #$a(x) => __ }", Head(sw).String())
	assert.Equal(t, "let x = __; __", Head(Let{Pat: VarPat("x"), Def: Ret{Value: Num(1)}, Body: Ret{Value: Num(2)}}).String())
	assert.Equal(t, "@$a", Head(Get{Ptr: symv("a")}).String())
}
