package main

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergev/sag/lang"
	"github.com/sergev/sag/runtime"
)

func newTestEvaluatorWithOutput(t *testing.T, out *strings.Builder) *lang.Evaluator {
	t.Helper()
	ev, err := newEvaluator(runtime.DefaultConfig(), &strings.Builder{})
	require.NoError(t, err)
	ev.Out = out
	return ev
}

func TestReplEvalKeepsState(t *testing.T) {
	var out, stdout, stderr strings.Builder
	ev := newTestEvaluatorWithOutput(t, &out)

	assert.True(t, replEval(ev, "val x = 40\n", false, &stdout, &stderr))
	assert.False(t, replEval(ev, "fun add(a, b) {\n", false, &stdout, &stderr))
	assert.True(t, replEval(ev, "fun add(a, b) {\n  a + b\n}\n", false, &stdout, &stderr))
	assert.True(t, replEval(ev, "add(x, 2)\n", false, &stdout, &stderr))
	assert.True(t, replEval(ev, `print("hi")`+"\n", false, &stdout, &stderr))
	assert.Equal(t, "42\n", stdout.String())
	assert.Equal(t, "hi\n", out.String())
	assert.Empty(t, stderr.String())

	assert.True(t, replEval(ev, "x = 1\n", false, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "error: <input>:1:3: ImmutableAssignment")

	stderr.Reset()
	assert.True(t, replEval(ev, "fun broken() {\n", true, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "parse error:")
}

func TestBufferedREPL(t *testing.T) {
	var out, stdout, stderr strings.Builder
	ev := newTestEvaluatorWithOutput(t, &out)
	input := "val xs = [1, 2]\nfun total(list) {\n  val mut sum = 0\n  for x in list { sum = sum + x }\n  sum\n}\ntotal(xs)\n1 / 0\n\"after\""
	runBufferedREPL(ev, bufio.NewReader(strings.NewReader(input)), &stdout, &stderr)
	assert.Equal(t, "3\n\"after\"\n", stdout.String())
	assert.Contains(t, stderr.String(), "DivisionByZero")
}

func TestRunSource(t *testing.T) {
	var out, stdout, stderr strings.Builder
	ev := newTestEvaluatorWithOutput(t, &out)

	assert.Equal(t, 0, runSource(ev, "<expr>", "[1, 2] + [3]", false, true, &stdout, &stderr))
	assert.Equal(t, "[1, 2, 3]\n", stdout.String())

	stdout.Reset()
	assert.Equal(t, 0, runSource(ev, "<expr>", "val a = 1", true, true, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "parser.Program")
	assert.Contains(t, stdout.String(), "ValStmt")

	assert.Equal(t, 1, runSource(ev, "<expr>", "val a =", false, true, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "sag: <expr>:1:")
	assert.Contains(t, stderr.String(), "expected expression")
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "main.sag")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "util.sag"), []byte(`fun twice(x) { x * 2 }`), 0o600))
	require.NoError(t, os.WriteFile(script, []byte("import {twice} from \"util\"\nprint(twice(21))\n"), 0o600))

	var out, stdout, stderr strings.Builder
	ev := newTestEvaluatorWithOutput(t, &out)
	assert.Equal(t, 0, runFile(ev, runtime.DefaultConfig(), script, false, &stdout, &stderr))
	assert.Equal(t, "42\n", out.String())

	require.NoError(t, os.WriteFile(script, []byte("print(1)\nmissing()\n"), 0o600))
	ev = newTestEvaluatorWithOutput(t, &out)
	assert.Equal(t, 1, runFile(ev, runtime.DefaultConfig(), script, false, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "2:1: UnboundIdentifier: missing is not defined\n    missing()\n    ^")
}

func TestReplHistoryPath(t *testing.T) {
	assert.Equal(t, "", replHistoryPath("-"))
	assert.Equal(t, "/tmp/h", replHistoryPath("/tmp/h"))
}
