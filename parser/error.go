package parser

import (
	"errors"
	"fmt"
)

// LexError reports malformed source text: an unterminated string or comment,
// or a character the lexer does not recognise.
type LexError struct {
	Pos        Position
	Msg        string
	Incomplete bool // input ended before the token was closed
}

func (e *LexError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// ParseError reports a token that does not fit the grammar.
type ParseError struct {
	Expected   string
	Found      string
	Pos        Position
	Incomplete bool // the unexpected token was end of input
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%d:%d: expected %s, found %s", e.Pos.Line, e.Pos.Column, e.Expected, e.Found)
}

func newLexError(pos Position, format string, args ...interface{}) error {
	return &LexError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func newIncompleteError(pos Position, format string, args ...interface{}) error {
	return &LexError{Pos: pos, Msg: fmt.Sprintf(format, args...), Incomplete: true}
}

// IsIncomplete reports whether the supplied error represents incomplete input,
// so that an interactive reader can ask for another line.
func IsIncomplete(err error) bool {
	var lerr *LexError
	if errors.As(err, &lerr) {
		return lerr.Incomplete
	}
	var perr *ParseError
	if errors.As(err, &perr) {
		return perr.Incomplete
	}
	return false
}

// ErrorPos extracts the source position of a lexer or parser error.
func ErrorPos(err error) (Position, bool) {
	var lerr *LexError
	if errors.As(err, &lerr) {
		return lerr.Pos, true
	}
	var perr *ParseError
	if errors.As(err, &perr) {
		return perr.Pos, true
	}
	return Position{}, false
}
