package parser

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sergev/sag/rational"
)

type lexer struct {
	src    string
	pos    int
	line   int
	column int

	hasLastToken bool
	lastToken    TokenType
	lastPos      Position
	bufferedTok  *Token
	brackets     []TokenType // open (, [, { and {: in nesting order
}

func newLexer(src string) *lexer {
	return &lexer{
		src:    src,
		line:   1,
		column: 1,
	}
}

type runeState struct {
	pos    int
	line   int
	column int
}

func (lx *lexer) mark() runeState {
	return runeState{
		pos:    lx.pos,
		line:   lx.line,
		column: lx.column,
	}
}

func (lx *lexer) restore(state runeState) {
	lx.pos = state.pos
	lx.line = state.line
	lx.column = state.column
}

func (lx *lexer) readRune() (rune, runeState, error) {
	if lx.pos >= len(lx.src) {
		return 0, lx.mark(), io.EOF
	}
	state := lx.mark()
	r, w := utf8.DecodeRuneInString(lx.src[lx.pos:])
	if r == utf8.RuneError && w == 1 {
		return 0, state, newLexError(positionFromState(state), "invalid UTF-8 encoding at byte %d", lx.pos)
	}
	lx.pos += w
	if r == '\n' {
		lx.line++
		lx.column = 1
	} else {
		lx.column++
	}
	return r, state, nil
}

func (lx *lexer) unread(state runeState) {
	lx.restore(state)
}

func (lx *lexer) hasPrefix(prefix string) bool {
	return strings.HasPrefix(lx.src[lx.pos:], prefix)
}

func (lx *lexer) skipWhitespace() (bool, error) {
	sawNewline := false
	for {
		r, state, err := lx.readRune()
		if err == io.EOF {
			return sawNewline, nil
		}
		if err != nil {
			return false, err
		}
		switch {
		case unicode.IsSpace(r):
			if r == '\n' {
				sawNewline = true
			}
		case r == '/' && lx.hasPrefix("/"):
			if lx.skipLine() {
				sawNewline = true
			}
		case r == '`' && lx.hasPrefix("``"):
			lx.pos += 2
			lx.column += 2
			if err := lx.skipBlockComment(state); err != nil {
				return false, err
			}
		default:
			lx.unread(state)
			return sawNewline, nil
		}
	}
}

// skipLine consumes the rest of a line comment and reports whether it ended
// with a newline.
func (lx *lexer) skipLine() bool {
	for {
		r, _, err := lx.readRune()
		if err != nil {
			return false
		}
		if r == '\n' {
			return true
		}
	}
}

// skipBlockComment consumes everything up to and including the next ``` fence.
// Fences do not nest. Newlines inside the comment do not end a statement.
func (lx *lexer) skipBlockComment(start runeState) error {
	for {
		if lx.hasPrefix("```") {
			lx.pos += 3
			lx.column += 3
			return nil
		}
		_, _, err := lx.readRune()
		if err == io.EOF {
			return newIncompleteError(positionFromState(start), "unterminated block comment")
		}
		if err != nil {
			return err
		}
	}
}

func (lx *lexer) nextToken() (Token, error) {
	if lx.bufferedTok != nil {
		tok := *lx.bufferedTok
		lx.bufferedTok = nil
		return lx.emit(tok), nil
	}

	sawNewline, err := lx.skipWhitespace()
	if err != nil {
		return Token{}, err
	}
	if sawNewline && lx.shouldInsertSemicolon() && lx.canInsertSemicolon() {
		return lx.emit(Token{
			Type:   TokenSemicolon,
			Lexeme: "\n",
			Pos:    lx.lastPos,
		}), nil
	}

	start := lx.mark()
	r, _, err := lx.readRune()
	if err == io.EOF {
		if lx.shouldInsertSemicolon() && lx.innermostIsBlock() {
			return lx.emit(Token{
				Type:   TokenSemicolon,
				Lexeme: "\n",
				Pos:    lx.lastPos,
			}), nil
		}
		return lx.emit(simpleToken(TokenEOF, start)), nil
	}
	if err != nil {
		return Token{}, err
	}

	switch {
	case isIdentifierStart(r):
		lexeme, err := lx.scanIdentifier(r)
		if err != nil {
			return Token{}, err
		}
		return lx.maybeEmitWithBuffer(makeIdentifierToken(lexeme, start))
	case unicode.IsDigit(r):
		lexeme, err := lx.scanNumber(r)
		if err != nil {
			return Token{}, err
		}
		value, err := rational.Parse(lexeme)
		if err != nil {
			return Token{}, newLexError(positionFromState(start), "malformed number %q", lexeme)
		}
		return lx.maybeEmitWithBuffer(Token{
			Type:   TokenNumber,
			Lexeme: lexeme,
			Value:  value,
			Pos:    positionFromState(start),
		})
	case r == '"':
		value, err := lx.scanString(start)
		if err != nil {
			return Token{}, err
		}
		return lx.maybeEmitWithBuffer(Token{
			Type:  TokenString,
			Value: value,
			Pos:   positionFromState(start),
		})
	}

	var tok Token
	switch r {
	case '+':
		tok = simpleToken(TokenPlus, start)
	case '-':
		if lx.match('>') {
			tok = simpleToken(TokenArrow, start)
		} else {
			tok = simpleToken(TokenMinus, start)
		}
	case '*':
		if lx.match('*') {
			tok = simpleToken(TokenStarStar, start)
		} else {
			tok = simpleToken(TokenStar, start)
		}
	case '/':
		tok = simpleToken(TokenSlash, start)
	case '%':
		tok = simpleToken(TokenPercent, start)
	case '(':
		tok = simpleToken(TokenLParen, start)
	case ')':
		tok = simpleToken(TokenRParen, start)
	case '{':
		if lx.match(':') {
			tok = simpleToken(TokenDictStart, start)
		} else {
			tok = simpleToken(TokenLBrace, start)
		}
	case '}':
		tok = simpleToken(TokenRBrace, start)
	case '[':
		tok = simpleToken(TokenLBracket, start)
	case ']':
		tok = simpleToken(TokenRBracket, start)
	case ',':
		tok = simpleToken(TokenComma, start)
	case ';':
		tok = simpleToken(TokenSemicolon, start)
	case ':':
		if lx.match('}') {
			tok = simpleToken(TokenDictEnd, start)
		} else {
			tok = simpleToken(TokenColon, start)
		}
	case '.':
		tok = simpleToken(TokenDot, start)
	case '\\':
		tok = simpleToken(TokenBackslash, start)
	case '=':
		if lx.match('=') {
			tok = simpleToken(TokenEqualEqual, start)
		} else if lx.match('>') {
			tok = simpleToken(TokenFatArrow, start)
		} else {
			tok = simpleToken(TokenAssign, start)
		}
	case '!':
		if lx.match('=') {
			tok = simpleToken(TokenBangEqual, start)
		} else {
			tok = simpleToken(TokenBang, start)
		}
	case '<':
		if lx.match('=') {
			tok = simpleToken(TokenLessEqual, start)
		} else {
			tok = simpleToken(TokenLess, start)
		}
	case '>':
		if lx.match('=') {
			tok = simpleToken(TokenGreaterEqual, start)
		} else {
			tok = simpleToken(TokenGreater, start)
		}
	case '&':
		if !lx.match('&') {
			return lx.emit(simpleToken(TokenIllegal, start)), newLexError(positionFromState(start), "unexpected character '&', did you mean '&&'")
		}
		tok = simpleToken(TokenAndAnd, start)
	case '|':
		if lx.match('|') {
			tok = simpleToken(TokenOrOr, start)
		} else {
			tok = simpleToken(TokenPipe, start)
		}
	default:
		return lx.emit(simpleToken(TokenIllegal, start)), newLexError(positionFromState(start), "unexpected character %q", r)
	}

	return lx.maybeEmitWithBuffer(tok)
}

// maybeEmitWithBuffer inserts a semicolon ahead of a closing brace so that the
// last statement of a one-line block is terminated.
func (lx *lexer) maybeEmitWithBuffer(tok Token) (Token, error) {
	if tok.Type == TokenRBrace && lx.shouldInsertSemicolon() && lx.innermostIsBlock() {
		copied := tok
		lx.bufferedTok = &copied
		return lx.emit(Token{
			Type: TokenSemicolon,
			Pos:  lx.lastPos,
		}), nil
	}
	return lx.emit(tok), nil
}

func (lx *lexer) emit(tok Token) Token {
	lx.adjustBrackets(tok.Type)
	lx.hasLastToken = tok.Type != TokenIllegal
	lx.lastToken = tok.Type
	lx.lastPos = tok.Pos
	return tok
}

func (lx *lexer) adjustBrackets(tt TokenType) {
	switch tt {
	case TokenLParen, TokenLBracket, TokenLBrace, TokenDictStart:
		lx.brackets = append(lx.brackets, tt)
	case TokenRParen, TokenRBracket, TokenRBrace, TokenDictEnd:
		if n := len(lx.brackets); n > 0 {
			lx.brackets = lx.brackets[:n-1]
		}
	}
}

func (lx *lexer) innermostIsBlock() bool {
	n := len(lx.brackets)
	return n == 0 || lx.brackets[n-1] == TokenLBrace
}

func (lx *lexer) shouldInsertSemicolon() bool {
	if !lx.hasLastToken {
		return false
	}
	switch lx.lastToken {
	case TokenIdentifier,
		TokenNumber,
		TokenString,
		TokenTrue,
		TokenFalse,
		TokenReturn,
		TokenBreak,
		TokenContinue,
		TokenRParen,
		TokenRBracket,
		TokenRBrace,
		TokenDictEnd:
		return true
	}
	return false
}

// canInsertSemicolon reports whether a newline may end the statement: not
// inside parentheses, brackets or a dict literal, and not when the next line
// continues a pipeline or a method chain.
func (lx *lexer) canInsertSemicolon() bool {
	if !lx.innermostIsBlock() {
		return false
	}
	return !lx.hasPrefix("->") && !lx.hasPrefix(".")
}

func (lx *lexer) match(expected rune) bool {
	state := lx.mark()
	r, _, err := lx.readRune()
	if err != nil {
		return false
	}
	if r != expected {
		lx.unread(state)
		return false
	}
	return true
}

func (lx *lexer) peekRune(offset int) rune {
	i := lx.pos + offset
	if i >= len(lx.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.src[i:])
	return r
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentifierPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func (lx *lexer) scanIdentifier(initial rune) (string, error) {
	var builder strings.Builder
	builder.WriteRune(initial)
	for {
		r, state, err := lx.readRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if !isIdentifierPart(r) {
			lx.unread(state)
			break
		}
		builder.WriteRune(r)
	}
	return builder.String(), nil
}

// scanNumber reads digits with an optional fraction and exponent. A dot is
// part of the number only when a digit follows, so 5.to_string() is a method call.
func (lx *lexer) scanNumber(initial rune) (string, error) {
	var builder strings.Builder
	builder.WriteRune(initial)
	lx.scanDigits(&builder)

	if lx.peekRune(0) == '.' && unicode.IsDigit(lx.peekRune(1)) {
		lx.readRune()
		builder.WriteRune('.')
		lx.scanDigits(&builder)
	}

	if e := lx.peekRune(0); e == 'e' || e == 'E' {
		next := lx.peekRune(1)
		width := 1
		if next == '+' || next == '-' {
			next = lx.peekRune(2)
			width = 2
		}
		if unicode.IsDigit(next) {
			for i := 0; i < width; i++ {
				r, _, _ := lx.readRune()
				builder.WriteRune(r)
			}
			lx.scanDigits(&builder)
		}
	}
	return builder.String(), nil
}

func (lx *lexer) scanDigits(builder *strings.Builder) {
	for unicode.IsDigit(lx.peekRune(0)) {
		r, _, _ := lx.readRune()
		builder.WriteRune(r)
	}
}

func (lx *lexer) scanString(start runeState) (string, error) {
	var builder strings.Builder
	for {
		r, state, err := lx.readRune()
		if err == io.EOF {
			return "", newIncompleteError(positionFromState(start), "unterminated string literal")
		}
		if err != nil {
			return "", err
		}
		if r == '"' {
			break
		}
		if r == '\\' {
			esc, _, err := lx.readRune()
			if err == io.EOF {
				return "", newIncompleteError(positionFromState(start), "unterminated escape sequence")
			}
			if err != nil {
				return "", err
			}
			switch esc {
			case 'n':
				builder.WriteRune('\n')
			case 't':
				builder.WriteRune('\t')
			case 'r':
				builder.WriteRune('\r')
			case '\\':
				builder.WriteRune('\\')
			case '"':
				builder.WriteRune('"')
			default:
				return "", newLexError(positionFromState(state), "unknown escape sequence \\%c", esc)
			}
			continue
		}
		if r == '\n' {
			return "", newLexError(positionFromState(state), "newline in string literal")
		}
		builder.WriteRune(r)
	}
	return builder.String(), nil
}

func makeIdentifierToken(lexeme string, start runeState) Token {
	tt := TokenIdentifier
	if keywordType, ok := keywords[lexeme]; ok {
		tt = keywordType
	}
	return Token{
		Type:   tt,
		Lexeme: lexeme,
		Pos:    positionFromState(start),
	}
}

func simpleToken(tt TokenType, start runeState) Token {
	return Token{
		Type: tt,
		Pos:  positionFromState(start),
	}
}

func positionFromState(state runeState) Position {
	return Position{
		Offset: state.pos,
		Line:   state.line,
		Column: state.column,
	}
}
