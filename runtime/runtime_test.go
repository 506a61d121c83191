package runtime

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergev/sag/lang"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestReadFileSkippingShebang(t *testing.T) {
	dir := t.TempDir()

	withShebang := filepath.Join(dir, "script.sag")
	writeFile(t, withShebang, "#!/usr/bin/env sag\nprint(1)\n")
	data, err := readFileSkippingShebang(withShebang)
	require.NoError(t, err)
	assert.Equal(t, "\nprint(1)\n", string(data))

	onlyShebang := filepath.Join(dir, "only_shebang.sag")
	writeFile(t, onlyShebang, "#!/bin/true")
	data, err = readFileSkippingShebang(onlyShebang)
	require.NoError(t, err)
	assert.Empty(t, data)

	plain := filepath.Join(dir, "plain.sag")
	writeFile(t, plain, `print("hi")`)
	data, err = readFileSkippingShebang(plain)
	require.NoError(t, err)
	assert.Equal(t, `print("hi")`, string(data))
}

func TestEvaluateFileWithImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.sag"), `#!/usr/bin/env sag
import {square} from "lib/math"
import math from "lib/math"
print(square(4), math.cube(2))
square(5)
`)
	writeFile(t, filepath.Join(dir, "lib", "math.sag"), `
print("math loaded")
fun square(x) { x * x }
fun cube(x) { x * square(x) }
`)

	var out strings.Builder
	ev := newTestEvaluator(&out)
	val, err := EvaluateFile(ev, filepath.Join(dir, "main.sag"))
	require.NoError(t, err)
	assert.Equal(t, "25", val.Repr())
	assert.Equal(t, "math loaded\n16 8\n", out.String())
}

func TestEvaluateFileInRoot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "shared", "greet.sag"), `fun greet(name) { "hello " + name }`)
	writeFile(t, filepath.Join(dir, "app", "main.sag"), `import {greet} from "../shared/greet"`+"\n"+`greet("sag")`)

	var out strings.Builder
	ev := newTestEvaluator(&out)
	val, err := EvaluateFileInRoot(ev, dir, filepath.Join(dir, "app", "main.sag"))
	require.NoError(t, err)
	assert.Equal(t, `"hello sag"`, val.Repr())

	// the same import escapes the script directory when that is the root
	ev = newTestEvaluator(&out)
	_, err = EvaluateFile(ev, filepath.Join(dir, "app", "main.sag"))
	assert.True(t, lang.IsModuleKind(err, lang.ModuleNotFound), "got %v", err)

	_, err = EvaluateFileInRoot(ev, filepath.Join(dir, "app"), filepath.Join(dir, "shared", "greet.sag"))
	assert.ErrorContains(t, err, "outside module root")
}

func TestEvaluateFileMissing(t *testing.T) {
	ev := NewEvaluator()
	_, err := EvaluateFile(ev, filepath.Join(t.TempDir(), "nope.sag"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)
}

func TestEvaluateReader(t *testing.T) {
	var out strings.Builder
	ev := newTestEvaluator(&out)
	val, err := EvaluateReader(ev, bytes.NewBufferString("val x = 20\nx * 2 + 2\n"))
	require.NoError(t, err)
	assert.Equal(t, "42", val.Repr())

	_, err = EvaluateReader(ev, bytes.NewBufferString("val = 1"))
	assert.ErrorContains(t, err, "1:5:")
}

func TestFSProvider(t *testing.T) {
	fsys := fstest.MapFS{
		"util.sag":        {Data: []byte("val one = 1")},
		"pkg/helpers.sag": {Data: []byte("#!/usr/bin/env sag\nval two = 2")},
	}
	p := NewFSProvider(fsys)

	src, err := p.Resolve("util.sag")
	require.NoError(t, err)
	assert.Equal(t, "val one = 1", src)

	src, err = p.Resolve("pkg/helpers.sag")
	require.NoError(t, err)
	assert.Equal(t, "\nval two = 2", src)

	_, err = p.Resolve("missing.sag")
	assert.True(t, errors.Is(err, lang.ErrNotFound), "got %v", err)
	_, err = p.Resolve("../escape.sag")
	assert.True(t, errors.Is(err, lang.ErrNotFound), "got %v", err)

	var out strings.Builder
	ev := newTestEvaluator(&out)
	ev.Sources = p
	val, err := ev.EvalSource("pkg/main.sag", "import {two} from \"helpers\"\nimport {one} from \"../util\"\n[one, two]")
	require.NoError(t, err)
	assert.Equal(t, "[1, 2]", val.Repr())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(dir, "sag.yaml")
	writeFile(t, path, "max_depth: 200\nmodule_root: /srv/sag\nhistory: \"-\"\nlog_level: debug\n")
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{MaxDepth: 200, ModuleRoot: "/srv/sag", History: "-", LogLevel: "debug"}, cfg)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", level.String())

	ev := NewEvaluator()
	cfg.Apply(ev)
	assert.Equal(t, 200, ev.MaxDepth)

	writeFile(t, path, "log_level: loud\n")
	_, err = LoadConfig(path)
	assert.Error(t, err)

	writeFile(t, path, "max_depth: [1\n")
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "sag.yaml")
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "runtime",
			src:  "val x = 1\nprint(x / 0)",
			want: "main.sag:2:9: DivisionByZero: division by zero\n    print(x / 0)\n            ^",
		},
		{
			name: "parse",
			src:  "val = 1",
			want: "main.sag:1:5: expected identifier, found =\n    val = 1\n        ^",
		},
		{
			name: "wide runes",
			src:  `"日本" + missing`,
			want: "main.sag:1:8: UnboundIdentifier: missing is not defined\n    \"日本\" + missing\n             ^",
		},
		{
			name: "tabs",
			src:  "\t1 / 0",
			want: "main.sag:1:4: DivisionByZero: division by zero\n    \t1 / 0\n    \t  ^",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := NewEvaluator()
			_, err := ev.EvalSource("main.sag", tt.src)
			require.Error(t, err)
			assert.Equal(t, tt.want, FormatError(err, "main.sag", tt.src))
		})
	}

	ev := NewEvaluator()
	ev.Sources = lang.MapSource{}
	_, err := ev.EvalSource("main.sag", `import x from "gone"`)
	require.Error(t, err)
	assert.Equal(t, "main.sag: NotFound: cannot load gone.sag: gone.sag: module not found", FormatError(err, "main.sag", ""))
}
