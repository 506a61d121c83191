package parser

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReader(t *testing.T) {
	prog, err := ParseReader(strings.NewReader("val a = 1\na"))
	require.NoError(t, err)
	assert.Len(t, prog.Stmts, 2)

	boom := errors.New("boom")
	_, err = ParseReader(iotest.ErrReader(boom))
	assert.ErrorIs(t, err, boom)

	_, err = ParseReader(strings.NewReader("val = 1"))
	assert.EqualError(t, err, "1:5: expected identifier, found =")
}

func TestTokenizeEndsWithEOF(t *testing.T) {
	tokens, err := Tokenize("")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, TokenEOF, tokens[0].Type)

	tokens, err = Tokenize("x")
	require.NoError(t, err)
	types := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	assert.Equal(t, []TokenType{TokenIdentifier, TokenSemicolon, TokenEOF}, types)
}

func TestErrorHelpers(t *testing.T) {
	_, err := Parse("fun f() {")
	require.Error(t, err)
	assert.True(t, IsIncomplete(err))
	pos, ok := ErrorPos(err)
	assert.True(t, ok)
	assert.Equal(t, 1, pos.Line)

	_, err = Parse(`"open`)
	assert.True(t, IsIncomplete(err))

	_, err = Parse("val x = )")
	assert.False(t, IsIncomplete(err))

	_, ok = ErrorPos(errors.New("plain"))
	assert.False(t, ok)
}
