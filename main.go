package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kr/pretty"
	"github.com/peterh/liner"

	"github.com/sergev/sag/lang"
	"github.com/sergev/sag/parser"
	"github.com/sergev/sag/runtime"
)

func main() {
	flags := flag.NewFlagSet("sag", flag.ExitOnError)
	expr := flags.String("e", "", "evaluate `source` and print its value")
	dumpAST := flags.Bool("dump-ast", false, "print the syntax tree instead of running")
	verbose := flags.Bool("v", false, "log debug diagnostics to stderr")
	configPath := flags.String("config", runtime.DefaultConfigPath(), "YAML configuration `file`")
	maxDepth := flags.Int("max-depth", 0, "maximum call depth (default from config)")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: sag [flags] [script.sag | -] [args...]\n")
		flags.PrintDefaults()
	}
	flags.Parse(os.Args[1:])

	cfg, err := runtime.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sag: %v\n", err)
		os.Exit(2)
	}
	if *maxDepth > 0 {
		cfg.MaxDepth = *maxDepth
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}
	ev, err := newEvaluator(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sag: %v\n", err)
		os.Exit(2)
	}

	args := flags.Args()
	runtime.SetArgv(ev.Global, args)
	switch {
	case *expr != "":
		os.Exit(runSource(ev, "<expr>", *expr, *dumpAST, true, os.Stdout, os.Stderr))
	case len(args) > 0 && args[0] == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sag: %v\n", err)
			os.Exit(1)
		}
		os.Exit(runSource(ev, "<stdin>", string(data), *dumpAST, false, os.Stdout, os.Stderr))
	case len(args) > 0:
		os.Exit(runFile(ev, cfg, args[0], *dumpAST, os.Stdout, os.Stderr))
	}
	runREPL(ev, cfg)
}

func newEvaluator(cfg runtime.Config, logOut io.Writer) (*lang.Evaluator, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	ev := runtime.NewEvaluator()
	cfg.Apply(ev)
	ev.Logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))
	root := cfg.ModuleRoot
	if root == "" {
		root = "."
	}
	ev.Sources = runtime.NewFSProvider(os.DirFS(root))
	return ev, nil
}

// runSource evaluates src and returns the process exit code.
func runSource(ev *lang.Evaluator, name, src string, dumpAST, printResult bool, stdout, stderr io.Writer) int {
	prog, err := parser.Parse(src)
	if err != nil {
		fmt.Fprintf(stderr, "sag: %s\n", runtime.FormatError(err, name, src))
		return 1
	}
	if dumpAST {
		fmt.Fprintf(stdout, "%# v\n", pretty.Formatter(prog))
		return 0
	}
	val, err := ev.RunProgram("", prog)
	if err != nil {
		fmt.Fprintf(stderr, "sag: %s\n", runtime.FormatError(err, name, src))
		return 1
	}
	if printResult && val.Type != lang.TypeVoid {
		fmt.Fprintln(stdout, val.Repr())
	}
	return 0
}

func runFile(ev *lang.Evaluator, cfg runtime.Config, script string, dumpAST bool, stdout, stderr io.Writer) int {
	if dumpAST {
		data, err := os.ReadFile(script)
		if err != nil {
			fmt.Fprintf(stderr, "sag: %v\n", err)
			return 1
		}
		return runSource(ev, script, string(data), true, false, stdout, stderr)
	}
	var err error
	if cfg.ModuleRoot != "" {
		_, err = runtime.EvaluateFileInRoot(ev, cfg.ModuleRoot, script)
	} else {
		_, err = runtime.EvaluateFile(ev, script)
	}
	if err != nil {
		src, _ := os.ReadFile(script)
		fmt.Fprintf(stderr, "sag: %s\n", runtime.FormatError(err, script, string(src)))
		return 1
	}
	return 0
}

// replEval runs one REPL entry. It returns false when src is incomplete
// and more lines should be read, unless final is set.
func replEval(ev *lang.Evaluator, src string, final bool, stdout, stderr io.Writer) bool {
	prog, err := parser.Parse(src)
	if err != nil {
		if parser.IsIncomplete(err) && !final {
			return false
		}
		fmt.Fprintf(stderr, "parse error: %s\n", runtime.FormatError(err, "", src))
		return true
	}
	val, err := ev.RunProgram("", prog)
	if err != nil {
		fmt.Fprintf(stderr, "error: %s\n", runtime.FormatError(err, "", src))
		return true
	}
	if val.Type != lang.TypeVoid {
		fmt.Fprintln(stdout, val.Repr())
	}
	return true
}

func runREPL(ev *lang.Evaluator, cfg runtime.Config) {
	if !isInteractive() {
		runBufferedREPL(ev, bufio.NewReader(os.Stdin), os.Stdout, os.Stderr)
		return
	}
	runInteractiveREPL(ev, cfg)
}

func runBufferedREPL(ev *lang.Evaluator, reader *bufio.Reader, stdout, stderr io.Writer) {
	var buffer strings.Builder

	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(stderr, "read error: %v\n", err)
			return
		}
		atEOF := errors.Is(err, io.EOF)
		buffer.WriteString(line)
		if strings.TrimSpace(buffer.String()) != "" {
			if replEval(ev, buffer.String(), atEOF, stdout, stderr) {
				buffer.Reset()
			}
		}
		if atEOF {
			return
		}
	}
}

func runInteractiveREPL(ev *lang.Evaluator, cfg runtime.Config) {
	state := liner.NewLiner()
	defer state.Close()
	state.SetCtrlCAborts(true)
	state.SetMultiLineMode(true)

	historyPath := replHistoryPath(cfg.History)
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
		defer func() {
			if f, err := os.Create(historyPath); err == nil {
				state.WriteHistory(f)
				f.Close()
			}
		}()
	}

	var buffer strings.Builder

	for {
		prompt := "sag> "
		if buffer.Len() > 0 {
			prompt = ".... "
		}
		input, err := state.Prompt(prompt)
		if err != nil {
			switch {
			case errors.Is(err, liner.ErrPromptAborted):
				fmt.Println()
				buffer.Reset()
				continue
			case errors.Is(err, io.EOF):
				fmt.Println()
				return
			default:
				fmt.Fprintf(os.Stderr, "read error: %v\n", err)
				return
			}
		}
		buffer.WriteString(input)
		buffer.WriteString("\n")

		src := buffer.String()
		if strings.TrimSpace(src) == "" {
			buffer.Reset()
			continue
		}
		if !replEval(ev, src, false, os.Stdout, os.Stderr) {
			continue
		}
		buffer.Reset()
		state.AppendHistory(strings.TrimSpace(src))
	}
}

func replHistoryPath(configured string) string {
	switch configured {
	case "-":
		return ""
	case "":
	default:
		return configured
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".sag_history")
}

func isInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
