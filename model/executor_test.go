package model

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fumola-dev/fumola/cas"
	"github.com/fumola-dev/fumola/interp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufferReporter struct {
	lines []string
}

func (r *bufferReporter) Printf(format string, args ...interface{}) {
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

func runSpec(t *testing.T, path string) (*Executor, *RunResult) {
	t.Helper()
	spec, err := LoadSpecFromFile(path)
	require.NoError(t, err)
	exec, err := spec.BuildExecutor(cas.NewMemoryCAS())
	require.NoError(t, err)
	require.NoError(t, exec.Initialize())
	res, err := exec.Run()
	require.NoError(t, err)
	return exec, res
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadSpecDefaults(t *testing.T) {
	spec, err := LoadSpecFromFile("../testdata/put.toml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("../testdata/put.star"), spec.Spec.File)
	assert.Equal(t, "halted", spec.Expect.Status)
	assert.Equal(t, []string{"a => 1"}, spec.Expect.Store)

	spec, err = LoadSpecFromFile("../testdata/producer.toml")
	require.NoError(t, err)
	assert.Equal(t, "_tmp", spec.Spec.FreshPrefix)
}

func TestLoadBareProgram(t *testing.T) {
	spec, err := LoadSpecFromFile("../testdata/put.star")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("../testdata/put.star"), spec.Spec.File)
	assert.Empty(t, spec.Expect.Status)
}

func TestLoadSpecErrors(t *testing.T) {
	_, err := LoadSpecFromFile("../testdata/missing.toml")
	assert.Error(t, err)

	dir := t.TempDir()
	p := writeFile(t, dir, "bad.toml", "[spec\nfile = ")
	_, err = LoadSpecFromFile(p)
	assert.Error(t, err)
}

func TestRunPut(t *testing.T) {
	exec, res := runSpec(t, "../testdata/put.toml")
	assert.True(t, res.Success, "%v", res.Failures)
	assert.Equal(t, 3, res.Rounds)
	assert.Equal(t, interp.Halted, res.Root)
	assert.Equal(t, interp.NoProgress, res.Last)
	assert.Len(t, res.History, 3)
	assert.Equal(t, res.History[2].Hash, res.Final)
	assert.NotEqual(t, res.Initial, res.Final)
	assert.Equal(t, exec.RunID, res.RunID)
	assert.False(t, res.Cycle)
}

func TestRunIsDeterministic(t *testing.T) {
	_, a := runSpec(t, "../testdata/workers.toml")
	_, b := runSpec(t, "../testdata/workers.toml")
	require.True(t, a.Success, "%v", a.Failures)
	assert.Equal(t, a.Final, b.Final)
	require.Equal(t, len(a.History), len(b.History))
	for i := range a.History {
		assert.Equal(t, a.History[i].Hash, b.History[i].Hash)
	}
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestRunDetectsCycle(t *testing.T) {
	_, res := runSpec(t, "../testdata/loop.toml")
	assert.True(t, res.Success, "%v", res.Failures)
	assert.True(t, res.Cycle)
	assert.Less(t, res.CycleOf, res.Rounds)
	assert.Equal(t, interp.Runnable, res.Root)
}

func TestRunRoundBudget(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p.star", `main = seq(put(sym("a"), 1), put(sym("b"), 2))`)
	p := writeFile(t, dir, "p.toml", "[spec]\nmax_rounds = 2\n")
	_, res := runSpec(t, p)
	assert.Equal(t, 2, res.Rounds)
	assert.Equal(t, interp.Progress, res.Last)
	assert.Equal(t, interp.Runnable, res.Root)
	assert.True(t, res.Success, "%v", res.Failures)
}

func TestExpectationFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p.star", `main = put(sym("a"), 1)`)
	p := writeFile(t, dir, "p.toml", `
[expect]
status = "error"
value = "2"
store = ["a => 2"]
`)
	_, res := runSpec(t, p)
	assert.False(t, res.Success)
	require.Len(t, res.Failures, 3)
	assert.Contains(t, res.Failures[0], "root status")
	assert.Contains(t, res.Failures[1], "root value")
	assert.Contains(t, res.Failures[2], "store")
}

func TestUnexpectedErrorFails(t *testing.T) {
	_, res := runSpec(t, "../testdata/assert_fail.star")
	assert.False(t, res.Success)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "root errored: assertionFailure(1 == 2)", res.Failures[0])
}

func TestUnknownExpectedStatus(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "p.star", `main = ret(1)`)
	p := writeFile(t, dir, "p.toml", "[expect]\nstatus = \"finished\"\n")
	_, res := runSpec(t, p)
	assert.False(t, res.Success)
	assert.Contains(t, res.Failures[0], "unknown expected status")
}

func TestRunBeforeInitialize(t *testing.T) {
	spec, err := LoadSpecFromFile("../testdata/put.star")
	require.NoError(t, err)
	exec, err := spec.BuildExecutor(cas.NewMemoryCAS())
	require.NoError(t, err)
	_, err = exec.Run()
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestReporterAndDebugWriter(t *testing.T) {
	spec, err := LoadSpecFromFile("../testdata/put.star")
	require.NoError(t, err)
	exec, err := spec.BuildExecutor(cas.NewMemoryCAS())
	require.NoError(t, err)
	var debug bytes.Buffer
	rep := &bufferReporter{}
	exec.DebugWriter = &debug
	exec.Reporter = rep
	require.NoError(t, exec.Initialize())
	res, err := exec.Run()
	require.NoError(t, err)
	assert.Len(t, rep.lines, res.Rounds)
	assert.Contains(t, debug.String(), "Initial system:")
	assert.Contains(t, debug.String(), "Round 3:")
}

func TestFormatResult(t *testing.T) {
	_, res := runSpec(t, "../testdata/let_get.toml")
	out := FormatResult(res)
	assert.Contains(t, out, "RUN OK")
	assert.Contains(t, out, "let_get")
	assert.Contains(t, out, "a => 1")
	assert.Contains(t, out, "no progress")
}

func TestFormatHistory(t *testing.T) {
	c := cas.NewMemoryCAS()
	spec, err := LoadSpecFromFile("../testdata/nest.toml")
	require.NoError(t, err)
	exec, err := spec.BuildExecutor(c)
	require.NoError(t, err)
	require.NoError(t, exec.Initialize())
	res, err := exec.Run()
	require.NoError(t, err)

	var plain bytes.Buffer
	FormatHistory(&plain, res, c, false)
	assert.Equal(t, len(res.History), strings.Count(plain.String(), "→ State"))

	var detailed bytes.Buffer
	FormatHistory(&detailed, res, c, true)
	assert.Contains(t, detailed.String(), "n/a => 1")
	assert.Contains(t, detailed.String(), "     Store:")
}

func TestCheckAll(t *testing.T) {
	paths := []string{
		"../testdata/put.toml",
		"../testdata/missing.toml",
		"../testdata/spawn_link.toml",
		"../testdata/assert_fail.star",
	}
	outcomes := CheckAll(context.Background(), paths, CheckOptions{Workers: 2})
	require.Len(t, outcomes, len(paths))
	for i, o := range outcomes {
		assert.Equal(t, paths[i], o.Path)
	}
	assert.True(t, outcomes[0].Result.Success)
	assert.Error(t, outcomes[1].Err)
	assert.True(t, outcomes[2].Result.Success)
	assert.False(t, outcomes[3].Result.Success)

	summary := FormatSummary(outcomes)
	assert.Contains(t, summary, "2/4")
}

func TestCheckAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcomes := CheckAll(ctx, []string{"../testdata/put.toml"}, CheckOptions{})
	require.Len(t, outcomes, 1)
	assert.NotNil(t, outcomes[0])
	assert.Equal(t, "../testdata/put.toml", outcomes[0].Path)
}
