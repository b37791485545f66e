package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func symv(name string) Val { return SymValue{Sym: IdSym(name)} }

func TestNormalizeWithoutCallByValue(t *testing.T) {
	terms := []Exp{
		Put{Sym: symv("a"), Value: Num(1)},
		Let{Pat: VarPat("x"), Def: Put{Sym: symv("a"), Value: Num(1)}, Body: Get{Ptr: Var("x")}},
		Nest{Sym: symv("n"), Body: Ret{Value: Record{{Label: symv("l"), Value: Num(2)}}}},
		Switch{
			Scrutinee: Variant{Label: symv("a"), Payload: Num(1)},
			Cases:     []Case{{Label: symv("a"), Pat: VarPat("y"), Body: Ret{Value: Var("y")}}},
		},
		LetBox{Pat: VarPat("b"), Def: Ret{Value: &Box{Bxes: BoxEnv{}, Code: Ret{Value: Num(3)}}}, Body: Extract{Box: Var("b")}},
	}
	for _, e := range terms {
		t.Run(e.String(), func(t *testing.T) {
			names := NewFreshNames()
			out, err := Normalize(names, e)
			require.NoError(t, err)
			assert.True(t, EqualExp(e, out), "got %s", out)
			assert.Equal(t, 0, names.Index, "no fresh names should be drawn")
		})
	}
}

func TestNormalizeHoistsOperand(t *testing.T) {
	e := Put{Sym: symv("a"), Value: CallByValue{Exp: Ret{Value: Num(1)}}}
	out, err := Normalize(NewFreshNames(), e)
	require.NoError(t, err)
	expected := Let{
		Pat:  VarPat("_t_0"),
		Def:  Ret{Value: Num(1)},
		Body: Put{Sym: symv("a"), Value: Var("_t_0")},
	}
	assert.True(t, EqualExp(expected, out), "got %s", out)
}

func TestNormalizeArgumentOrder(t *testing.T) {
	a := Ret{Value: Num(1)}
	b := Ret{Value: Num(2)}
	f := Lambda{Pat: VarPat("x"), Body: Lambda{Pat: VarPat("y"), Body: Ret{Value: Var("x")}}}
	e := App{Fn: App{Fn: f, Arg: CallByValue{Exp: a}}, Arg: CallByValue{Exp: b}}

	out, err := Normalize(NewFreshNames(), e)
	require.NoError(t, err)

	outer, ok := out.(Let)
	require.True(t, ok, "got %s", out)
	assert.True(t, EqualExp(a, outer.Def), "first argument must be evaluated first")
	inner, ok := outer.Body.(Let)
	require.True(t, ok)
	assert.True(t, EqualExp(b, inner.Def))
	app, ok := inner.Body.(App)
	require.True(t, ok)
	assert.True(t, EqualVal(Var(string(inner.Pat.(VarPat))), app.Arg))
}

func TestNormalizeOperandOrder(t *testing.T) {
	first := Ret{Value: Num(1)}
	second := Ret{Value: Num(2)}
	tests := []struct {
		name string
		exp  Exp
	}{
		{"put", Put{Sym: CallByValue{Exp: second}, Value: CallByValue{Exp: first}}},
		{"assert", AssertEq{Left: CallByValue{Exp: second}, Equal: true, Right: CallByValue{Exp: first}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Normalize(NewFreshNames(), tt.exp)
			require.NoError(t, err)
			outer, ok := out.(Let)
			require.True(t, ok, "got %s", out)
			assert.True(t, EqualExp(first, outer.Def), "right operand must be evaluated first, got %s", out)
			inner, ok := outer.Body.(Let)
			require.True(t, ok, "got %s", out)
			assert.True(t, EqualExp(second, inner.Def))
		})
	}
}

func TestNormalizeKeepsBindingsUnderBinders(t *testing.T) {
	body := Ret{Value: CallByValue{Exp: Get{Ptr: Var("p")}}}
	e := Lambda{Pat: VarPat("p"), Body: body}
	out, err := Normalize(NewFreshNames(), e)
	require.NoError(t, err)
	lam, ok := out.(Lambda)
	require.True(t, ok, "hoisting must not cross the lambda, got %s", out)
	_, ok = lam.Body.(Let)
	assert.True(t, ok)
}

func TestNormalizeNested(t *testing.T) {
	inner := CallByValue{Exp: Put{Sym: symv("a"), Value: Num(1)}}
	e := Ret{Value: CallByValue{Exp: Get{Ptr: inner}}}
	out, err := Normalize(NewFreshNames(), e)
	require.NoError(t, err)

	outer, ok := out.(Let)
	require.True(t, ok)
	def, ok := outer.Def.(Let)
	require.True(t, ok, "the inner binding lives inside the outer definition, got %s", outer.Def)
	assert.True(t, EqualExp(Put{Sym: symv("a"), Value: Num(1)}, def.Def))
}

func TestNormalizeBoxCode(t *testing.T) {
	box := &Box{Bxes: BoxEnv{}, Name: "z", Code: Ret{Value: CallByValue{Exp: Ret{Value: Num(1)}}}}
	out, err := Normalize(NewFreshNames(), Ret{Value: box})
	require.NoError(t, err)
	r := out.(Ret)
	b, ok := r.Value.(*Box)
	require.True(t, ok)
	assert.Equal(t, "z", b.Name)
	_, ok = b.Code.(Let)
	assert.True(t, ok)
}

func TestNormalizeIdempotent(t *testing.T) {
	e := Let{
		Pat: VarPat("x"),
		Def: Put{Sym: symv("a"), Value: CallByValue{Exp: Ret{Value: Num(1)}}},
		Body: AssertEq{
			Left:  CallByValue{Exp: Get{Ptr: Var("x")}},
			Equal: true,
			Right: Variant{Label: symv("v"), Payload: CallByValue{Exp: Ret{Value: Num(1)}}},
		},
	}
	names := NewFreshNames()
	once, err := Normalize(names, e)
	require.NoError(t, err)
	twice, err := Normalize(names, once)
	require.NoError(t, err)
	assert.True(t, EqualExp(once, twice))
	assert.Equal(t, 3, names.Index)
}

func TestNormalizeExhausted(t *testing.T) {
	e := AssertEq{
		Left:  CallByValue{Exp: Ret{Value: Num(1)}},
		Equal: true,
		Right: CallByValue{Exp: Ret{Value: Num(1)}},
	}
	_, err := Normalize(&FreshNames{Base: "t", Limit: 1}, e)
	require.ErrorIs(t, err, ErrNamesExhausted)
}

func TestFreshNames(t *testing.T) {
	f := &FreshNames{Base: "v", Limit: 2}
	n, ok := f.Next()
	assert.True(t, ok)
	assert.Equal(t, "v0", n)
	n, ok = f.Next()
	assert.True(t, ok)
	assert.Equal(t, "v1", n)
	_, ok = f.Next()
	assert.False(t, ok)
}
