package parser

// TokenType enumerates lexical categories recognised by the sag lexer.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal

	TokenIdentifier
	TokenNumber
	TokenString

	// Keywords
	TokenVal
	TokenMut
	TokenFun
	TokenReturn
	TokenIf
	TokenElse
	TokenMatch
	TokenFor
	TokenIn
	TokenStruct
	TokenImpl
	TokenImport
	TokenFrom
	TokenTrue
	TokenFalse
	TokenBreak
	TokenContinue
	TokenPub

	// Operators and punctuation
	TokenAssign       // =
	TokenEqualEqual   // ==
	TokenBangEqual    // !=
	TokenPlus         // +
	TokenMinus        // -
	TokenStar         // *
	TokenStarStar     // **
	TokenSlash        // /
	TokenPercent      // %
	TokenLess         // <
	TokenLessEqual    // <=
	TokenGreater      // >
	TokenGreaterEqual // >=
	TokenBang         // !
	TokenAndAnd       // &&
	TokenOrOr         // ||
	TokenArrow        // ->
	TokenFatArrow     // =>
	TokenPipe         // |
	TokenBackslash    // \
	TokenDot          // .

	TokenComma     // ,
	TokenSemicolon // ;
	TokenColon     // :
	TokenLParen    // (
	TokenRParen    // )
	TokenLBrace    // {
	TokenRBrace    // }
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenDictStart // {:
	TokenDictEnd   // :}
)

var tokenNames = map[TokenType]string{
	TokenEOF:          "EOF",
	TokenIllegal:      "illegal",
	TokenIdentifier:   "identifier",
	TokenNumber:       "number",
	TokenString:       "string",
	TokenVal:          "val",
	TokenMut:          "mut",
	TokenFun:          "fun",
	TokenReturn:       "return",
	TokenIf:           "if",
	TokenElse:         "else",
	TokenMatch:        "match",
	TokenFor:          "for",
	TokenIn:           "in",
	TokenStruct:       "struct",
	TokenImpl:         "impl",
	TokenImport:       "import",
	TokenFrom:         "from",
	TokenTrue:         "true",
	TokenFalse:        "false",
	TokenBreak:        "break",
	TokenContinue:     "continue",
	TokenPub:          "pub",
	TokenAssign:       "=",
	TokenEqualEqual:   "==",
	TokenBangEqual:    "!=",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenStar:         "*",
	TokenStarStar:     "**",
	TokenSlash:        "/",
	TokenPercent:      "%",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenBang:         "!",
	TokenAndAnd:       "&&",
	TokenOrOr:         "||",
	TokenArrow:        "->",
	TokenFatArrow:     "=>",
	TokenPipe:         "|",
	TokenBackslash:    `\`,
	TokenDot:          ".",
	TokenComma:        ",",
	TokenSemicolon:    ";",
	TokenColon:        ":",
	TokenLParen:       "(",
	TokenRParen:       ")",
	TokenLBrace:       "{",
	TokenRBrace:       "}",
	TokenLBracket:     "[",
	TokenRBracket:     "]",
	TokenDictStart:    "{:",
	TokenDictEnd:      ":}",
}

var keywords = map[string]TokenType{
	"val":      TokenVal,
	"mut":      TokenMut,
	"fun":      TokenFun,
	"return":   TokenReturn,
	"if":       TokenIf,
	"else":     TokenElse,
	"match":    TokenMatch,
	"for":      TokenFor,
	"in":       TokenIn,
	"struct":   TokenStruct,
	"impl":     TokenImpl,
	"import":   TokenImport,
	"from":     TokenFrom,
	"true":     TokenTrue,
	"false":    TokenFalse,
	"break":    TokenBreak,
	"continue": TokenContinue,
	"pub":      TokenPub,
}

func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	return "unknown"
}

// Token is a single lexical unit produced by the lexer.
type Token struct {
	Type   TokenType
	Lexeme string      // raw lexeme for identifiers and numbers
	Value  interface{} // decoded literal: rational.Number for numbers, string for strings
	Pos    Position
}

// describe renders a token for error messages.
func (t Token) describe() string {
	switch t.Type {
	case TokenIdentifier:
		return "identifier " + t.Lexeme
	case TokenNumber:
		return "number " + t.Lexeme
	case TokenString:
		return "string literal"
	case TokenSemicolon:
		if t.Lexeme == "\n" {
			return "newline"
		}
	}
	return t.Type.String()
}
