package vm

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shamaton/msgpack/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileLiteral(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`put(sym("a"), 1)`, "$a := 1"},
		{`let("x", put(sym("a"), 1), get("x"))`, "let x = $a := 1; @x"},
		{`nest(sym("n"), put(sym("a"), 1))`, "#$n { $a := 1 }"},
		{`assert_eq(1, 2)`, "1 == 2"},
		{`link(sym("s"))`, "&$s"},
		{`app(lam("x", lam("y", ret("x"))), 1, 2)`, "\\x => \\y => ret x 1 2"},
		{`seq(put(sym("a"), 1), ret(0))`, "let _ = $a := 1; ret 0"},
		{`ret(cbv(ret(1)))`, "ret `(ret 1)"},
		{`ret(sym("a", "-", "b"))`, "ret $a-b"},
		{`ret(sym("a", 1))`, "ret $a1"},
		{`let_box("z", ret(box(ret("z"), name="z")), extract("z"))`, "let box z = ret rec z {[] |- ret z}; z"},
		{`project(branches(branch(sym("l"), ret(1))), sym("l"))`, "{ $l => ret 1 } <= $l"},
		{`switch(variant(sym("a"), 1), case(sym("a"), "x", ret("x")))`, "switch #$a(1) { #$a(x) => ret x }"},
		{`let(fields((sym("a"), "x")), ret(record((sym("a"), 1))), ret("x"))`, "let [$a => x] = ret [$a => 1]; ret x"},
		{`link(handle("p"))`, "&~p"},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			e, err := CompileLiteral(tc.src)
			require.NoError(t, err)
			assert.Equal(t, tc.want, e.String())
		})
	}
}

func TestCompileErrors(t *testing.T) {
	_, err := CompileLiteral(`ret(put(sym("a"), 1))`)
	assert.ErrorContains(t, err, "cbv")

	_, err = CompileLiteral(`sym("a")`)
	assert.ErrorContains(t, err, "computation is expected")

	_, err = Compile("nomain.star", `x = ret(1)`, "")
	assert.ErrorIs(t, err, ErrNoEntrypoint)

	_, err = Compile("syntax.star", `main = (`, "")
	assert.Error(t, err)
}

func TestCompileEntrypoint(t *testing.T) {
	src := `
def build():
    return put(sym("a"), 1)

main = ret(0)
other = build
`
	p, err := Compile("entry.star", src, "other")
	require.NoError(t, err)
	assert.Equal(t, "$a := 1", p.Main.String())

	p, err = Compile("entry.star", src, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultEntrypoint, p.Entrypoint)
	assert.Equal(t, "ret 0", p.Main.String())
}

// TestPrograms compiles every program under testdata and checks the node
// encoding survives msgpack.
func TestPrograms(t *testing.T) {
	err := filepath.WalkDir("../testdata", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".star") {
			return nil
		}
		t.Run(filepath.Base(path), func(t *testing.T) {
			p, err := CompilePath(path)
			require.NoError(t, err)

			data, err := msgpack.Marshal(EncodeExp(p.Main))
			require.NoError(t, err)
			var n Node
			require.NoError(t, msgpack.Unmarshal(data, &n))
			back, err := DecodeExp(n)
			require.NoError(t, err)
			assert.True(t, EqualExp(p.Main, back), "got %s", back)
		})
		return nil
	})
	require.NoError(t, err)
}

func TestDecodeUnknownTag(t *testing.T) {
	_, err := DecodeExp(Node{Tag: "bogus"})
	assert.Error(t, err)
	_, err = DecodeVal(Node{Tag: "ret"})
	assert.Error(t, err)
}
