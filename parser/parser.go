package parser

import "github.com/sergev/sag/rational"

// Parse translates source text into a Program AST. Parsing stops at the
// first error; no partial tree is returned.
func Parse(src string) (*Program, error) {
	p := &parser{
		lx: newLexer(src),
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseProgram()
}

// ParseExpr parses a single expression, optionally followed by a newline.
func ParseExpr(src string) (Expr, error) {
	p := &parser{
		lx: newLexer(src),
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.skipSemicolons()
	if p.curr.Type != TokenEOF {
		return nil, p.unexpected("end of input")
	}
	return expr, nil
}

type parser struct {
	lx      *lexer
	curr    Token
	peekTok Token
	hasPeek bool

	// noStructLit disables Name{...} literals in if, for and match headers,
	// where the brace opens the body instead.
	noStructLit bool
}

func (p *parser) advance() error {
	if p.hasPeek {
		p.curr = p.peekTok
		p.hasPeek = false
		return nil
	}
	tok, err := p.lx.nextToken()
	if err != nil {
		return err
	}
	p.curr = tok
	return nil
}

func (p *parser) peek() (Token, error) {
	if !p.hasPeek {
		tok, err := p.lx.nextToken()
		if err != nil {
			return Token{}, err
		}
		p.peekTok = tok
		p.hasPeek = true
	}
	return p.peekTok, nil
}

func (p *parser) expect(tt TokenType) (Token, error) {
	if p.curr.Type != tt {
		return Token{}, p.unexpected(tt.String())
	}
	tok := p.curr
	if err := p.advance(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// accept consumes the current token when it has type tt.
func (p *parser) accept(tt TokenType) (bool, error) {
	if p.curr.Type != tt {
		return false, nil
	}
	return true, p.advance()
}

func (p *parser) unexpected(expected string) error {
	return &ParseError{
		Expected:   expected,
		Found:      p.curr.describe(),
		Pos:        p.curr.Pos,
		Incomplete: p.curr.Type == TokenEOF,
	}
}

// skipSemicolons drops statement separators. Lexer errors are left for the
// next advance to report.
func (p *parser) skipSemicolons() {
	for p.curr.Type == TokenSemicolon {
		if err := p.advance(); err != nil {
			return
		}
	}
}

func (p *parser) skipSeparators() error {
	for p.curr.Type == TokenSemicolon || p.curr.Type == TokenComma {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseProgram() (*Program, error) {
	var stmts []Stmt
	for {
		if err := p.skipSeparatorsOnly(TokenSemicolon); err != nil {
			return nil, err
		}
		if p.curr.Type == TokenEOF {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if err := p.endStatement(); err != nil {
			return nil, err
		}
	}
	return &Program{Stmts: stmts}, nil
}

func (p *parser) skipSeparatorsOnly(tt TokenType) error {
	for p.curr.Type == tt {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

// endStatement requires a separator unless the enclosing block or the input ends.
func (p *parser) endStatement() error {
	switch p.curr.Type {
	case TokenSemicolon:
		return p.advance()
	case TokenRBrace, TokenEOF:
		return nil
	}
	return p.unexpected("newline or ;")
}

func (p *parser) parseStatement() (Stmt, error) {
	switch p.curr.Type {
	case TokenPub:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseStatement()
	case TokenVal:
		return p.parseValStmt()
	case TokenFun:
		return p.parseFunDecl()
	case TokenStruct:
		return p.parseStructDecl()
	case TokenImpl:
		return p.parseImplDecl()
	case TokenImport:
		return p.parseImportStmt()
	case TokenFor:
		return p.parseForStmt()
	case TokenReturn:
		return p.parseReturnStmt()
	case TokenBreak:
		tok := p.curr
		return &BreakStmt{Posn: tok.Pos}, p.advance()
	case TokenContinue:
		tok := p.curr
		return &ContinueStmt{Posn: tok.Pos}, p.advance()
	default:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ExprStmt{
			Expr: expr,
			Posn: expr.Pos(),
		}, nil
	}
}

func (p *parser) parseValStmt() (Stmt, error) {
	valTok, err := p.expect(TokenVal)
	if err != nil {
		return nil, err
	}
	mutable, err := p.accept(TokenMut)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	typ, err := p.parseOptionalType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenAssign); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ValStmt{
		Name:    nameTok.Lexeme,
		Mutable: mutable,
		Type:    typ,
		Value:   value,
		Posn:    valTok.Pos,
	}, nil
}

func (p *parser) parseOptionalType() (*TypeRef, error) {
	if ok, err := p.accept(TokenColon); err != nil || !ok {
		return nil, err
	}
	return p.parseType()
}

func (p *parser) parseType() (*TypeRef, error) {
	nameTok, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	ref := &TypeRef{Name: nameTok.Lexeme, Posn: nameTok.Pos}
	if ok, err := p.accept(TokenLess); err != nil || !ok {
		return ref, err
	}
	for {
		arg, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ref.Args = append(ref.Args, arg)
		if ok, err := p.accept(TokenComma); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	if _, err := p.expect(TokenGreater); err != nil {
		return nil, err
	}
	return ref, nil
}

func (p *parser) parseFunDecl() (*FunDecl, error) {
	funTok, err := p.expect(TokenFun)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	params, err := p.parseParams(TokenRParen)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	result, err := p.parseOptionalType()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FunDecl{
		Name:   nameTok.Lexeme,
		Params: params,
		Result: result,
		Body:   body,
		Posn:   funTok.Pos,
	}, nil
}

func (p *parser) parseParams(closing TokenType) ([]Param, error) {
	var params []Param
	for p.curr.Type != closing {
		startPos := p.curr.Pos
		mutable, err := p.accept(TokenMut)
		if err != nil {
			return nil, err
		}
		nameTok, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		typ, err := p.parseOptionalType()
		if err != nil {
			return nil, err
		}
		params = append(params, Param{
			Name:    nameTok.Lexeme,
			Mutable: mutable,
			Type:    typ,
			Posn:    startPos,
		})
		if ok, err := p.accept(TokenComma); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	return params, nil
}

func (p *parser) parseStructDecl() (Stmt, error) {
	structTok, err := p.expect(TokenStruct)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	decl := &StructDecl{Name: nameTok.Lexeme, Posn: structTok.Pos}
	for {
		if err := p.skipSeparators(); err != nil {
			return nil, err
		}
		if p.curr.Type == TokenRBrace {
			break
		}
		fieldTok, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		typ, err := p.parseOptionalType()
		if err != nil {
			return nil, err
		}
		decl.Fields = append(decl.Fields, FieldDecl{
			Name: fieldTok.Lexeme,
			Type: typ,
			Posn: fieldTok.Pos,
		})
		if p.curr.Type != TokenComma && p.curr.Type != TokenSemicolon && p.curr.Type != TokenRBrace {
			return nil, p.unexpected(", or }")
		}
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *parser) parseImplDecl() (Stmt, error) {
	implTok, err := p.expect(TokenImpl)
	if err != nil {
		return nil, err
	}
	nameTok, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	decl := &ImplDecl{Struct: nameTok.Lexeme, Posn: implTok.Pos}
	for {
		if err := p.skipSeparatorsOnly(TokenSemicolon); err != nil {
			return nil, err
		}
		if p.curr.Type == TokenRBrace {
			break
		}
		if _, err := p.accept(TokenPub); err != nil {
			return nil, err
		}
		if p.curr.Type != TokenFun {
			return nil, p.unexpected("fun")
		}
		fn, err := p.parseFunDecl()
		if err != nil {
			return nil, err
		}
		decl.Methods = append(decl.Methods, fn)
		if err := p.endStatement(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *parser) parseImportStmt() (Stmt, error) {
	importTok, err := p.expect(TokenImport)
	if err != nil {
		return nil, err
	}
	stmt := &ImportStmt{Posn: importTok.Pos}
	braced, err := p.accept(TokenLBrace)
	if err != nil {
		return nil, err
	}
	stmt.Braced = braced
	for {
		nameTok, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		stmt.Names = append(stmt.Names, nameTok.Lexeme)
		if ok, err := p.accept(TokenComma); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	if braced {
		p.skipSemicolons()
		if _, err := p.expect(TokenRBrace); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokenFrom); err != nil {
		return nil, err
	}
	switch p.curr.Type {
	case TokenString:
		stmt.Path, _ = p.curr.Value.(string)
	case TokenIdentifier:
		stmt.Path = p.curr.Lexeme
	default:
		return nil, p.unexpected("module path")
	}
	return stmt, p.advance()
}

func (p *parser) parseForStmt() (Stmt, error) {
	forTok, err := p.expect(TokenFor)
	if err != nil {
		return nil, err
	}
	varTok, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenIn); err != nil {
		return nil, err
	}
	iter, err := p.parseHeaderExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ForStmt{
		Var:  varTok.Lexeme,
		Iter: iter,
		Body: body,
		Posn: forTok.Pos,
	}, nil
}

func (p *parser) parseReturnStmt() (Stmt, error) {
	retTok, err := p.expect(TokenReturn)
	if err != nil {
		return nil, err
	}
	var result Expr
	switch p.curr.Type {
	case TokenSemicolon, TokenRBrace, TokenEOF:
	default:
		result, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	return &ReturnStmt{
		Result: result,
		Posn:   retTok.Pos,
	}, nil
}

func (p *parser) parseBlock() (*BlockExpr, error) {
	braceTok, err := p.expect(TokenLBrace)
	if err != nil {
		return nil, err
	}
	saved := p.noStructLit
	p.noStructLit = false
	defer func() { p.noStructLit = saved }()

	var stmts []Stmt
	for {
		if err := p.skipSeparatorsOnly(TokenSemicolon); err != nil {
			return nil, err
		}
		if p.curr.Type == TokenRBrace || p.curr.Type == TokenEOF {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if err := p.endStatement(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	return &BlockExpr{
		Stmts: stmts,
		Posn:  braceTok.Pos,
	}, nil
}

// parseHeaderExpr parses the expression between a keyword and its body block.
func (p *parser) parseHeaderExpr() (Expr, error) {
	saved := p.noStructLit
	p.noStructLit = true
	defer func() { p.noStructLit = saved }()
	return p.parseExpression()
}

func (p *parser) parseExpression() (Expr, error) {
	return p.parseAssign()
}

func (p *parser) parseAssign() (Expr, error) {
	target, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	if p.curr.Type != TokenAssign {
		return target, nil
	}
	switch target.(type) {
	case *IdentifierExpr, *FieldExpr, *IndexExpr:
	default:
		return nil, &ParseError{
			Expected: "assignable expression",
			Found:    "=",
			Pos:      p.curr.Pos,
		}
	}
	assignTok := p.curr
	if err := p.advance(); err != nil {
		return nil, err
	}
	value, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return &AssignExpr{
		Target: target,
		Value:  value,
		Posn:   assignTok.Pos,
	}, nil
}

func (p *parser) parsePipeline() (Expr, error) {
	left, err := p.parseLogicalOr()
	if err != nil {
		return nil, err
	}
	if _, ok := left.(*TupleExpr); ok && p.curr.Type != TokenArrow {
		return nil, p.unexpected("-> after argument tuple")
	}
	for p.curr.Type == TokenArrow {
		opTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseLogicalOr()
		if err != nil {
			return nil, err
		}
		left = &PipelineExpr{
			Left:  left,
			Right: right,
			Posn:  opTok.Pos,
		}
	}
	return left, nil
}

// parseBinary parses a left-associative chain of the given operators.
func (p *parser) parseBinary(next func() (Expr, error), ops ...TokenType) (Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for isOneOf(p.curr.Type, ops) {
		opTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{
			Op:    opTok.Type,
			Left:  left,
			Right: right,
			Posn:  opTok.Pos,
		}
	}
	return left, nil
}

func isOneOf(tt TokenType, set []TokenType) bool {
	for _, candidate := range set {
		if tt == candidate {
			return true
		}
	}
	return false
}

func (p *parser) parseLogicalOr() (Expr, error) {
	return p.parseBinary(p.parseLogicalAnd, TokenOrOr)
}

func (p *parser) parseLogicalAnd() (Expr, error) {
	return p.parseBinary(p.parseEquality, TokenAndAnd)
}

func (p *parser) parseEquality() (Expr, error) {
	return p.parseBinary(p.parseComparison, TokenEqualEqual, TokenBangEqual)
}

func (p *parser) parseComparison() (Expr, error) {
	return p.parseBinary(p.parseTerm, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual)
}

func (p *parser) parseTerm() (Expr, error) {
	return p.parseBinary(p.parseFactor, TokenPlus, TokenMinus)
}

func (p *parser) parseFactor() (Expr, error) {
	return p.parseBinary(p.parseRemainder, TokenStar, TokenSlash)
}

func (p *parser) parseRemainder() (Expr, error) {
	return p.parseBinary(p.parseUnary, TokenPercent)
}

func (p *parser) parseUnary() (Expr, error) {
	if p.curr.Type == TokenBang || p.curr.Type == TokenMinus {
		opTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{
			Op:   opTok.Type,
			Expr: expr,
			Posn: opTok.Pos,
		}, nil
	}
	return p.parsePower()
}

// parsePower is right-associative: 2 ** 3 ** 2 is 2 ** 9.
func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.curr.Type != TokenStarStar {
		return base, nil
	}
	opTok := p.curr
	if err := p.advance(); err != nil {
		return nil, err
	}
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &BinaryExpr{
		Op:    TokenStarStar,
		Left:  base,
		Right: exp,
		Posn:  opTok.Pos,
	}, nil
}

func (p *parser) parsePostfix() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.curr.Type {
		case TokenLParen:
			callTok := p.curr
			if err := p.advance(); err != nil {
				return nil, err
			}
			args, err := p.parseExprList(TokenRParen)
			if err != nil {
				return nil, err
			}
			expr = &CallExpr{
				Callee: expr,
				Args:   args,
				Posn:   callTok.Pos,
			}
		case TokenDot:
			dotTok := p.curr
			if err := p.advance(); err != nil {
				return nil, err
			}
			nameTok, err := p.expect(TokenIdentifier)
			if err != nil {
				return nil, err
			}
			expr = &FieldExpr{
				Target: expr,
				Name:   nameTok.Lexeme,
				Posn:   dotTok.Pos,
			}
		case TokenLBracket:
			bracketTok := p.curr
			if err := p.advance(); err != nil {
				return nil, err
			}
			index, err := p.parseNested(p.parseExpression)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRBracket); err != nil {
				return nil, err
			}
			expr = &IndexExpr{
				Target: expr,
				Index:  index,
				Posn:   bracketTok.Pos,
			}
		default:
			return expr, nil
		}
	}
}

// parseNested runs fn with struct literals re-enabled, as inside brackets.
func (p *parser) parseNested(fn func() (Expr, error)) (Expr, error) {
	saved := p.noStructLit
	p.noStructLit = false
	defer func() { p.noStructLit = saved }()
	return fn()
}

// parseExprList parses comma-separated expressions up to and including closing.
// A trailing comma is allowed.
func (p *parser) parseExprList(closing TokenType) ([]Expr, error) {
	var items []Expr
	for p.curr.Type != closing {
		expr, err := p.parseNested(p.parseExpression)
		if err != nil {
			return nil, err
		}
		items = append(items, expr)
		if ok, err := p.accept(TokenComma); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	if _, err := p.expect(closing); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.curr.Type {
	case TokenIdentifier:
		tok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.curr.Type == TokenLBrace && !p.noStructLit {
			return p.parseStructLit(tok)
		}
		return &IdentifierExpr{
			Name: tok.Lexeme,
			Posn: tok.Pos,
		}, nil
	case TokenNumber:
		tok := p.curr
		value, _ := tok.Value.(rational.Number)
		return &NumberExpr{
			Value:   value,
			Literal: tok.Lexeme,
			Posn:    tok.Pos,
		}, p.advance()
	case TokenString:
		tok := p.curr
		strVal, _ := tok.Value.(string)
		return &StringExpr{
			Value: strVal,
			Posn:  tok.Pos,
		}, p.advance()
	case TokenTrue, TokenFalse:
		tok := p.curr
		return &BoolExpr{
			Value: tok.Type == TokenTrue,
			Posn:  tok.Pos,
		}, p.advance()
	case TokenLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseNested(p.parseExpression)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil
	case TokenLBracket:
		startTok := p.curr
		if err := p.advance(); err != nil {
			return nil, err
		}
		elems, err := p.parseExprList(TokenRBracket)
		if err != nil {
			return nil, err
		}
		return &ListExpr{
			Elements: elems,
			Posn:     startTok.Pos,
		}, nil
	case TokenDictStart:
		return p.parseDictLit()
	case TokenLBrace:
		return p.parseBlock()
	case TokenBackslash:
		return p.parseLambda()
	case TokenPipe, TokenOrOr:
		return p.parseTuple()
	case TokenIf:
		return p.parseIf()
	case TokenMatch:
		return p.parseMatch()
	default:
		return nil, p.unexpected("expression")
	}
}

func (p *parser) parseStructLit(nameTok Token) (Expr, error) {
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	lit := &StructLit{Name: nameTok.Lexeme, Posn: nameTok.Pos}
	for {
		if err := p.skipSeparators(); err != nil {
			return nil, err
		}
		if p.curr.Type == TokenRBrace {
			break
		}
		fieldTok, err := p.expect(TokenIdentifier)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		value, err := p.parseNested(p.parseExpression)
		if err != nil {
			return nil, err
		}
		lit.Fields = append(lit.Fields, FieldInit{
			Name:  fieldTok.Lexeme,
			Value: value,
			Posn:  fieldTok.Pos,
		})
		if p.curr.Type != TokenComma && p.curr.Type != TokenSemicolon && p.curr.Type != TokenRBrace {
			return nil, p.unexpected(", or }")
		}
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *parser) parseDictLit() (Expr, error) {
	startTok, err := p.expect(TokenDictStart)
	if err != nil {
		return nil, err
	}
	dict := &DictExpr{Posn: startTok.Pos}
	for p.curr.Type != TokenDictEnd {
		key, err := p.parseNested(p.parseExpression)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenFatArrow); err != nil {
			return nil, err
		}
		value, err := p.parseNested(p.parseExpression)
		if err != nil {
			return nil, err
		}
		dict.Entries = append(dict.Entries, DictEntry{Key: key, Value: value})
		if ok, err := p.accept(TokenComma); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	if _, err := p.expect(TokenDictEnd); err != nil {
		return nil, err
	}
	return dict, nil
}

// parseLambda handles \|a, b| => body, \|| => body and \x => body.
func (p *parser) parseLambda() (Expr, error) {
	startTok, err := p.expect(TokenBackslash)
	if err != nil {
		return nil, err
	}
	var params []Param
	switch p.curr.Type {
	case TokenOrOr:
		if err := p.advance(); err != nil {
			return nil, err
		}
	case TokenPipe:
		if err := p.advance(); err != nil {
			return nil, err
		}
		params, err = p.parseParams(TokenPipe)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenPipe); err != nil {
			return nil, err
		}
	case TokenIdentifier:
		tok := p.curr
		params = []Param{{Name: tok.Lexeme, Posn: tok.Pos}}
		if err := p.advance(); err != nil {
			return nil, err
		}
	default:
		return nil, p.unexpected("lambda parameters")
	}
	if _, err := p.expect(TokenFatArrow); err != nil {
		return nil, err
	}
	var body Expr
	if p.curr.Type == TokenLBrace {
		body, err = p.parseBlock()
	} else {
		body, err = p.parseNested(p.parseExpression)
	}
	if err != nil {
		return nil, err
	}
	return &LambdaExpr{
		Params: params,
		Body:   body,
		Posn:   startTok.Pos,
	}, nil
}

func (p *parser) parseTuple() (Expr, error) {
	startTok := p.curr
	if err := p.advance(); err != nil {
		return nil, err
	}
	tuple := &TupleExpr{Posn: startTok.Pos}
	if startTok.Type == TokenOrOr {
		return tuple, nil
	}
	for p.curr.Type != TokenPipe {
		elem, err := p.parseNested(p.parseLogicalOr)
		if err != nil {
			return nil, err
		}
		tuple.Elements = append(tuple.Elements, elem)
		if ok, err := p.accept(TokenComma); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	if _, err := p.expect(TokenPipe); err != nil {
		return nil, err
	}
	return tuple, nil
}

func (p *parser) parseIf() (Expr, error) {
	ifTok, err := p.expect(TokenIf)
	if err != nil {
		return nil, err
	}
	cond, err := p.parseHeaderExpr()
	if err != nil {
		return nil, err
	}
	thenBlock, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	expr := &IfExpr{
		Cond: cond,
		Then: thenBlock,
		Posn: ifTok.Pos,
	}
	// An else on the next line follows an inserted semicolon.
	if p.curr.Type == TokenSemicolon {
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if next.Type == TokenElse {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if ok, err := p.accept(TokenElse); err != nil || !ok {
		return expr, err
	}
	if p.curr.Type == TokenIf {
		expr.Else, err = p.parseIf()
	} else {
		expr.Else, err = p.parseBlock()
	}
	if err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *parser) parseMatch() (Expr, error) {
	matchTok, err := p.expect(TokenMatch)
	if err != nil {
		return nil, err
	}
	subject, err := p.parseHeaderExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenLBrace); err != nil {
		return nil, err
	}
	saved := p.noStructLit
	p.noStructLit = false
	defer func() { p.noStructLit = saved }()

	expr := &MatchExpr{Subject: subject, Posn: matchTok.Pos}
	for {
		if err := p.skipSeparators(); err != nil {
			return nil, err
		}
		if p.curr.Type == TokenRBrace {
			break
		}
		armPos := p.curr.Pos
		pattern, err := p.parsePattern()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenFatArrow); err != nil {
			return nil, err
		}
		var body Expr
		if p.curr.Type == TokenLBrace {
			body, err = p.parseBlock()
		} else {
			body, err = p.parseExpression()
		}
		if err != nil {
			return nil, err
		}
		expr.Arms = append(expr.Arms, MatchArm{
			Pattern: pattern,
			Body:    body,
			Posn:    armPos,
		})
		switch p.curr.Type {
		case TokenSemicolon, TokenComma, TokenRBrace:
		default:
			return nil, p.unexpected("newline or , after match arm")
		}
	}
	if _, err := p.expect(TokenRBrace); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *parser) parsePattern() (Pattern, error) {
	tok := p.curr
	switch tok.Type {
	case TokenIdentifier:
		if err := p.advance(); err != nil {
			return nil, err
		}
		switch tok.Lexeme {
		case "_":
			return &WildcardPattern{Posn: tok.Pos}, nil
		case "None":
			return &ConstructorPattern{Name: tok.Lexeme, Posn: tok.Pos}, nil
		case "Some", "Suc", "Fail":
			if _, err := p.expect(TokenLParen); err != nil {
				return nil, err
			}
			inner, err := p.parsePattern()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(TokenRParen); err != nil {
				return nil, err
			}
			return &ConstructorPattern{Name: tok.Lexeme, Inner: inner, Posn: tok.Pos}, nil
		}
		return &BindingPattern{Name: tok.Lexeme, Posn: tok.Pos}, nil
	case TokenNumber, TokenString, TokenTrue, TokenFalse:
		lit, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &LiteralPattern{Literal: lit, Posn: tok.Pos}, nil
	case TokenMinus:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.curr.Type != TokenNumber {
			return nil, p.unexpected("number")
		}
		numTok := p.curr
		value, _ := numTok.Value.(rational.Number)
		lit := &NumberExpr{Value: value.Neg(), Literal: "-" + numTok.Lexeme, Posn: tok.Pos}
		return &LiteralPattern{Literal: lit, Posn: tok.Pos}, p.advance()
	default:
		return nil, p.unexpected("pattern")
	}
}
