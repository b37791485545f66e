package test

import (
	"errors"
	"testing"

	"github.com/fumola-dev/fumola/interp"
	"github.com/fumola-dev/fumola/vm"
)

func runProgram(t *testing.T, code string) *interp.System {
	t.Helper()
	prog, err := vm.Compile("test.star", code, "")
	if err != nil {
		t.Fatalf("Compilation failed: %v", err)
	}
	sys, err := interp.NewSystem(vm.NewFreshNames(), prog.Main)
	if err != nil {
		t.Fatalf("Normalization failed: %v", err)
	}
	sys.RunFully()
	return sys
}

func haltedWith(t *testing.T, sys *interp.System, want string) {
	t.Helper()
	root := sys.Root()
	if root.Status != interp.Halted {
		t.Fatalf("Expected root to halt, got %s", root)
	}
	if got := root.RetVal.String(); got != want {
		t.Errorf("Expected root to return %s, got %s", want, got)
	}
}

// TestPutThenGet stores a value and reads it back through the returned pointer
func TestPutThenGet(t *testing.T) {
	sys := runProgram(t, `main = let("p", put(sym("x"), 3), get("p"))`)
	haltedWith(t, sys, "3")
	if got := sys.Store.String(); got != "[x => 3]" {
		t.Errorf("Unexpected store %s", got)
	}
}

// TestNestedPut qualifies a stored name by every enclosing nest
func TestNestedPut(t *testing.T) {
	sys := runProgram(t, `main = nest(sym("a"), nest(sym("b"), put(sym("c"), 1)))`)
	haltedWith(t, sys, "!a/b/c")
	if got := sys.Store.String(); got != "[a/b/c => 1]" {
		t.Errorf("Unexpected store %s", got)
	}
}

// TestCallByValueRunsFirst lifts the inner computation ahead of its consumer
func TestCallByValueRunsFirst(t *testing.T) {
	sys := runProgram(t, `main = ret(cbv(seq(put(sym("a"), 1), ret(2))))`)
	haltedWith(t, sys, "2")
	if sys.Store.Len() != 1 {
		t.Errorf("Expected one store entry, got %s", sys.Store)
	}
}

// TestCurriedApplication applies a two-argument lambda one argument at a time
func TestCurriedApplication(t *testing.T) {
	sys := runProgram(t, `main = app(lam("x", lam("y", ret("x"))), 1, 2)`)
	haltedWith(t, sys, "1")
}

// TestAssertionsThenReturn continues past assertions that hold
func TestAssertionsThenReturn(t *testing.T) {
	sys := runProgram(t, `
main = seq(
    assert_eq(1, 1),
    assert_ne(sym("a"), sym("b")),
    assert_eq(sym("a", "-", "b"), sym("a", "-", "b")),
    ret(3),
)
`)
	haltedWith(t, sys, "3")
}

// TestWorkersShareStore runs two spawned writers and links to both
func TestWorkersShareStore(t *testing.T) {
	sys := runProgram(t, `
main = let(
    "a",
    spawn(sym("a"), put(sym("x"), 1)),
    let(
        "b",
        spawn(sym("b"), put(sym("y"), 2)),
        seq(link("a"), link("b")),
    ),
)
`)
	haltedWith(t, sys, "!y")
	if got := sys.Store.String(); got != "[a => ~a; b => ~b; x => 1; y => 2]" {
		t.Errorf("Unexpected store %s", got)
	}
	if len(sys.Procs) != 3 {
		t.Errorf("Expected 3 processes, got %d", len(sys.Procs))
	}
	for _, n := range sys.Names() {
		if sys.Procs[n].Status != interp.Halted {
			t.Errorf("Process %s did not halt: %s", n, sys.Procs[n])
		}
	}
}

// TestLinkWaitsForever parks on a pointer nobody writes
func TestLinkWaitsForever(t *testing.T) {
	sys := runProgram(t, `main = link(sym("never"))`)
	root := sys.Root()
	if root.Status != interp.WaitingPtr {
		t.Fatalf("Expected root to wait, got %s", root)
	}
	if root.WaitOn != vm.IdSym("never") {
		t.Errorf("Expected to wait on never, got %s", root.WaitOn)
	}
}

// TestLoopBuiltTerms builds a program with a Starlark loop
func TestLoopBuiltTerms(t *testing.T) {
	sys := runProgram(t, `
steps = []
for i in range(3):
    steps.append(put(sym("k", i), i))

main = seq(*steps)
`)
	haltedWith(t, sys, "!k2")
	if got := sys.Store.String(); got != "[k0 => 0; k1 => 1; k2 => 2]" {
		t.Errorf("Unexpected store %s", got)
	}
}

// TestEntrypointFunction calls a named zero-argument function for the program
func TestEntrypointFunction(t *testing.T) {
	code := `
def build():
    return nest(sym("n"), ret(5))
`
	prog, err := vm.Compile("test.star", code, "build")
	if err != nil {
		t.Fatalf("Compilation failed: %v", err)
	}
	if prog.Entrypoint != "build" {
		t.Errorf("Expected entrypoint build, got %s", prog.Entrypoint)
	}
	sys, err := interp.NewSystem(vm.NewFreshNames(), prog.Main)
	if err != nil {
		t.Fatalf("Normalization failed: %v", err)
	}
	sys.RunFully()
	haltedWith(t, sys, "5")
}

// TestMissingEntrypoint reports a program without main
func TestMissingEntrypoint(t *testing.T) {
	_, err := vm.Compile("test.star", `other = ret(1)`, "")
	if !errors.Is(err, vm.ErrNoEntrypoint) {
		t.Fatalf("Expected ErrNoEntrypoint, got %v", err)
	}
}

// TestComputationInValuePosition rejects put(sym, computation)
func TestComputationInValuePosition(t *testing.T) {
	_, err := vm.Compile("test.star", `main = put(sym("a"), ret(1))`, "")
	if err == nil {
		t.Fatalf("Expected a compile error")
	}
}
