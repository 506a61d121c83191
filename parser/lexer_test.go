package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lexAllTokens(t *testing.T, src string) []Token {
	t.Helper()
	tokens, err := Tokenize(src)
	require.NoError(t, err, "lexing %q", src)
	return tokens
}

func tokenTypes(tokens []Token) []TokenType {
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestLexerIdentifiersAndKeywords(t *testing.T) {
	src := "val mut fun return if else match for in struct impl import from true false break continue pub foo _bar baz123"
	tokens := lexAllTokens(t, src)

	want := []struct {
		typ    TokenType
		lexeme string
	}{
		{TokenVal, "val"},
		{TokenMut, "mut"},
		{TokenFun, "fun"},
		{TokenReturn, "return"},
		{TokenIf, "if"},
		{TokenElse, "else"},
		{TokenMatch, "match"},
		{TokenFor, "for"},
		{TokenIn, "in"},
		{TokenStruct, "struct"},
		{TokenImpl, "impl"},
		{TokenImport, "import"},
		{TokenFrom, "from"},
		{TokenTrue, "true"},
		{TokenFalse, "false"},
		{TokenBreak, "break"},
		{TokenContinue, "continue"},
		{TokenPub, "pub"},
		{TokenIdentifier, "foo"},
		{TokenIdentifier, "_bar"},
		{TokenIdentifier, "baz123"},
	}
	// trailing inserted semicolon and EOF
	require.Len(t, tokens, len(want)+2)
	for i, tt := range want {
		assert.Equal(t, tt.typ, tokens[i].Type, "token %d", i)
		assert.Equal(t, tt.lexeme, tokens[i].Lexeme, "token %d", i)
	}
}

func TestLexerOperators(t *testing.T) {
	src := `+ - * ** / % == != < <= > >= && || ! = -> => | \ . , : ( ) [ ] {: :}`
	tokens := lexAllTokens(t, src)
	want := []TokenType{
		TokenPlus, TokenMinus, TokenStar, TokenStarStar, TokenSlash, TokenPercent,
		TokenEqualEqual, TokenBangEqual, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual,
		TokenAndAnd, TokenOrOr, TokenBang, TokenAssign, TokenArrow, TokenFatArrow,
		TokenPipe, TokenBackslash, TokenDot, TokenComma, TokenColon,
		TokenLParen, TokenRParen, TokenLBracket, TokenRBracket, TokenDictStart, TokenDictEnd,
		TokenSemicolon, TokenEOF,
	}
	assert.Equal(t, want, tokenTypes(tokens))
}

func TestLexerNumberLiterals(t *testing.T) {
	tests := []struct {
		src    string
		lexeme string
		value  string
	}{
		{"0", "0", "0"},
		{"123", "123", "123"},
		{"3.14", "3.14", "157/50"},
		{"1e3", "1e3", "1000"},
		{"25e-2", "25e-2", "1/4"},
		{"0.125", "0.125", "1/8"},
	}
	for _, tt := range tests {
		tokens := lexAllTokens(t, tt.src)
		require.Equal(t, TokenNumber, tokens[0].Type, tt.src)
		assert.Equal(t, tt.lexeme, tokens[0].Lexeme)
		assert.Equal(t, tt.value, tokens[0].Value.(interface{ String() string }).String())
	}
}

func TestLexerNumberFollowedByMethod(t *testing.T) {
	tokens := lexAllTokens(t, "5.to_string()")
	assert.Equal(t, []TokenType{
		TokenNumber, TokenDot, TokenIdentifier, TokenLParen, TokenRParen, TokenSemicolon, TokenEOF,
	}, tokenTypes(tokens))
	assert.Equal(t, "5", tokens[0].Lexeme)
}

func TestLexerStringLiterals(t *testing.T) {
	src := "\"hello\\nworld\" \"tab\\tquote\\\" backslash\\\\\""
	tokens := lexAllTokens(t, src)
	require.Equal(t, TokenString, tokens[0].Type)
	require.Equal(t, TokenString, tokens[1].Type)
	assert.Equal(t, "hello\nworld", tokens[0].Value)
	assert.Equal(t, "tab\tquote\" backslash\\", tokens[1].Value)
}

func TestLexerErrors(t *testing.T) {
	cases := []struct {
		name       string
		src        string
		wantErr    string
		incomplete bool
	}{
		{"newline in string", "\"line1\nline2\"", "newline in string literal", false},
		{"unterminated string", "\"unterminated", "unterminated string literal", true},
		{"unterminated escape", "\"abc\\", "unterminated escape sequence", true},
		{"unknown escape", `"\q"`, "unknown escape sequence", false},
		{"unterminated comment", "val x = 1 ``` never closed", "unterminated block comment", true},
		{"stray character", "val x = 1 @ 2", "unexpected character '@'", false},
		{"single ampersand", "a & b", "unexpected character '&'", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Tokenize(tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			var lexErr *LexError
			require.ErrorAs(t, err, &lexErr)
			assert.Equal(t, tc.incomplete, IsIncomplete(err))
		})
	}
}

func TestLexerErrorPosition(t *testing.T) {
	_, err := Tokenize("val x = 1\nval y = $")
	require.Error(t, err)
	pos, ok := ErrorPos(err)
	require.True(t, ok)
	assert.Equal(t, 2, pos.Line)
	assert.Equal(t, 9, pos.Column)
}

func TestLexerComments(t *testing.T) {
	src := "val a = 1 // trailing\n```\nblock ``` val b = 2"
	tokens := lexAllTokens(t, src)
	assert.Equal(t, []TokenType{
		TokenVal, TokenIdentifier, TokenAssign, TokenNumber, TokenSemicolon,
		TokenVal, TokenIdentifier, TokenAssign, TokenNumber, TokenSemicolon, TokenEOF,
	}, tokenTypes(tokens))
}

func TestLexerBlockCommentSpansLines(t *testing.T) {
	// newlines inside the comment do not end the statement
	tokens := lexAllTokens(t, "val x = 1 ```\ncomment\n``` + 2")
	assert.Equal(t, []TokenType{
		TokenVal, TokenIdentifier, TokenAssign, TokenNumber, TokenPlus, TokenNumber,
		TokenSemicolon, TokenEOF,
	}, tokenTypes(tokens))

	_, err := Parse("val x = 1 ```\ncomment``` + 2")
	require.NoError(t, err)
}

func TestLexerBlockCommentsDoNotNest(t *testing.T) {
	// the second fence closes the comment, so "inner" is code
	src := "``` outer ``` inner ```"
	_, err := Tokenize(src)
	require.Error(t, err)
	assert.True(t, IsIncomplete(err))

	tokens := lexAllTokens(t, "``` a ``` b")
	assert.Equal(t, TokenIdentifier, tokens[0].Type)
	assert.Equal(t, "b", tokens[0].Lexeme)
}

func TestLexerSemicolonInsertion(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []TokenType
	}{
		{
			name: "newline ends statement",
			src:  "x\ny",
			want: []TokenType{TokenIdentifier, TokenSemicolon, TokenIdentifier, TokenSemicolon, TokenEOF},
		},
		{
			name: "no insertion after operator",
			src:  "x +\ny",
			want: []TokenType{TokenIdentifier, TokenPlus, TokenIdentifier, TokenSemicolon, TokenEOF},
		},
		{
			name: "no insertion inside parentheses",
			src:  "f(a,\nb)",
			want: []TokenType{TokenIdentifier, TokenLParen, TokenIdentifier, TokenComma, TokenIdentifier, TokenRParen, TokenSemicolon, TokenEOF},
		},
		{
			name: "no insertion inside list",
			src:  "[1\n]",
			want: []TokenType{TokenLBracket, TokenNumber, TokenRBracket, TokenSemicolon, TokenEOF},
		},
		{
			name: "no insertion inside dict",
			src:  "{: \"a\" => 1\n:}",
			want: []TokenType{TokenDictStart, TokenString, TokenFatArrow, TokenNumber, TokenDictEnd, TokenSemicolon, TokenEOF},
		},
		{
			name: "pipeline continues on next line",
			src:  "5\n-> double",
			want: []TokenType{TokenNumber, TokenArrow, TokenIdentifier, TokenSemicolon, TokenEOF},
		},
		{
			name: "method chain continues on next line",
			src:  "xs\n.len()",
			want: []TokenType{TokenIdentifier, TokenDot, TokenIdentifier, TokenLParen, TokenRParen, TokenSemicolon, TokenEOF},
		},
		{
			name: "semicolon before closing brace",
			src:  "{ x }",
			want: []TokenType{TokenLBrace, TokenIdentifier, TokenSemicolon, TokenRBrace, TokenSemicolon, TokenEOF},
		},
		{
			name: "block inside parentheses",
			src:  "f(\\x => {\nx\n})",
			want: []TokenType{
				TokenIdentifier, TokenLParen, TokenBackslash, TokenIdentifier, TokenFatArrow,
				TokenLBrace, TokenIdentifier, TokenSemicolon, TokenRBrace, TokenRParen, TokenSemicolon, TokenEOF,
			},
		},
		{
			name: "return break continue",
			src:  "return\nbreak\ncontinue",
			want: []TokenType{TokenReturn, TokenSemicolon, TokenBreak, TokenSemicolon, TokenContinue, TokenSemicolon, TokenEOF},
		},
		{
			name: "no insertion at end inside parentheses",
			src:  "f(1,",
			want: []TokenType{TokenIdentifier, TokenLParen, TokenNumber, TokenComma, TokenEOF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenTypes(lexAllTokens(t, tt.src)))
		})
	}
}

func TestLexerPositions(t *testing.T) {
	tokens := lexAllTokens(t, "val x = 1\n  x -> f")
	assert.Equal(t, Position{Offset: 0, Line: 1, Column: 1}, tokens[0].Pos)
	assert.Equal(t, Position{Offset: 4, Line: 1, Column: 5}, tokens[1].Pos)
	// tokens[4] is the inserted semicolon
	assert.Equal(t, Position{Offset: 12, Line: 2, Column: 3}, tokens[5].Pos)
	assert.Equal(t, TokenArrow, tokens[6].Type)
	assert.Equal(t, 5, tokens[6].Pos.Column)
}
