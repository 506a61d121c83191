package lang

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sergev/sag/parser"
)

// ErrorKind classifies host-level evaluation failures.
type ErrorKind int

const (
	ImmutableAssignment ErrorKind = iota + 1
	ImmutableReceiver
	UnknownMethod
	UnknownField
	TypeError
	DivisionByZero
	NonExhaustiveMatch
	UnboundIdentifier
	InvalidArgument
	StackOverflow
)

func (k ErrorKind) String() string {
	switch k {
	case ImmutableAssignment:
		return "ImmutableAssignment"
	case ImmutableReceiver:
		return "ImmutableReceiver"
	case UnknownMethod:
		return "UnknownMethod"
	case UnknownField:
		return "UnknownField"
	case TypeError:
		return "TypeError"
	case DivisionByZero:
		return "DivisionByZero"
	case NonExhaustiveMatch:
		return "NonExhaustiveMatch"
	case UnboundIdentifier:
		return "UnboundIdentifier"
	case InvalidArgument:
		return "InvalidArgument"
	case StackOverflow:
		return "StackOverflow"
	default:
		return "RuntimeError"
	}
}

// RuntimeError is raised by the engine itself. In-language code cannot catch
// it; it aborts the current program.
type RuntimeError struct {
	Kind ErrorKind
	Msg  string
	Pos  parser.Position // zero when unknown
}

func (e *RuntimeError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%d:%d: %s: %s", e.Pos.Line, e.Pos.Column, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newRuntimeError(kind ErrorKind, pos parser.Position, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// Errorf builds a positionless RuntimeError. Built-in functions use it; the
// evaluator fills in the call site.
func Errorf(kind ErrorKind, format string, args ...interface{}) error {
	return &RuntimeError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is a RuntimeError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var rerr *RuntimeError
	return errors.As(err, &rerr) && rerr.Kind == kind
}

// withPos attaches pos to a RuntimeError that has none yet.
func withPos(err error, pos parser.Position) error {
	var rerr *RuntimeError
	if errors.As(err, &rerr) && rerr.Pos.Line == 0 {
		rerr.Pos = pos
	}
	return err
}

// ModuleErrorKind classifies module loading failures.
type ModuleErrorKind int

const (
	ModuleNotFound ModuleErrorKind = iota + 1
	CyclicImport
)

func (k ModuleErrorKind) String() string {
	switch k {
	case ModuleNotFound:
		return "NotFound"
	case CyclicImport:
		return "CyclicImport"
	default:
		return "ModuleError"
	}
}

// ModuleError reports a module that could not be found, or an import cycle.
type ModuleError struct {
	Kind ModuleErrorKind
	Path string
	Msg  string
	Err  error // underlying provider error, if any
}

func (e *ModuleError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ModuleError) Unwrap() error {
	return e.Err
}

// IsModuleKind reports whether err is a ModuleError of the given kind.
func IsModuleKind(err error, kind ModuleErrorKind) bool {
	var merr *ModuleError
	return errors.As(err, &merr) && merr.Kind == kind
}

// ErrNotFound is returned by a SourceProvider that has no text for a path.
var ErrNotFound = errors.New("module not found")
