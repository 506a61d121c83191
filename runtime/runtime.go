package runtime

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergev/sag/lang"
	"github.com/sergev/sag/parser"
)

// NewEvaluator constructs an evaluator with the standard globals installed.
func NewEvaluator() *lang.Evaluator {
	ev := lang.NewEvaluator()
	installPrimitives(ev)
	return ev
}

// SetArgv stores the command-line arguments as a list named argv in the given environment.
func SetArgv(env *lang.Env, args []string) {
	values := make([]lang.Value, len(args))
	for i, arg := range args {
		values[i] = lang.StringValue(arg)
	}
	env.Define("argv", lang.ListValue(values...), false)
}

func skipShebang(data []byte) []byte {
	if bytes.HasPrefix(data, []byte("#!")) {
		if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
			// keep the newline so line numbers stay intact
			return data[idx:]
		}
		return []byte{}
	}
	return data
}

func readFileSkippingShebang(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return skipShebang(data), nil
}

// EvaluateReader parses all source from the reader and evaluates it.
func EvaluateReader(ev *lang.Evaluator, r io.Reader) (lang.Value, error) {
	prog, err := parser.ParseReader(r)
	if err != nil {
		return lang.Void, err
	}
	return ev.RunProgram("", prog)
}

// EvaluateString parses and evaluates source from a string.
func EvaluateString(ev *lang.Evaluator, src string) (lang.Value, error) {
	return ev.EvalSource("", src)
}

// EvaluateFile loads and executes a script, allowing a #! line. Imports
// resolve against the directory holding the script.
func EvaluateFile(ev *lang.Evaluator, path string) (lang.Value, error) {
	return EvaluateFileInRoot(ev, filepath.Dir(path), path)
}

// EvaluateFileInRoot executes a script whose imports resolve against root.
// The script itself must live under root.
func EvaluateFileInRoot(ev *lang.Evaluator, root, path string) (lang.Value, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return lang.Void, err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return lang.Void, fmt.Errorf("%s is outside module root %s", path, root)
	}
	data, err := readFileSkippingShebang(path)
	if err != nil {
		return lang.Void, err
	}
	ev.Sources = NewFSProvider(os.DirFS(root))
	return ev.EvalSource(rel, string(data))
}
