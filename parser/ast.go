package parser

import "github.com/sergev/sag/rational"

// Position tracks a source location within a sag source file.
type Position struct {
	Offset int // zero-based byte offset
	Line   int // one-based line number
	Column int // one-based column number (rune count)
}

// Node represents any AST node with a source position.
type Node interface {
	Pos() Position
}

// Program is the root of a parsed sag file.
type Program struct {
	Stmts []Stmt
}

// Stmt represents a statement at top level or inside a block.
type Stmt interface {
	Node
	stmtNode()
}

// Expr represents an expression.
type Expr interface {
	Node
	exprNode()
}

// Pattern is the left-hand side of a match arm.
type Pattern interface {
	Node
	patternNode()
}

// TypeRef is a type annotation. Annotations are recorded but never checked.
type TypeRef struct {
	Name string
	Args []*TypeRef
	Posn Position
}

// Param is a function or lambda parameter.
type Param struct {
	Name    string
	Mutable bool // only meaningful for self
	Type    *TypeRef
	Posn    Position
}

// ---- expressions ----

// IdentifierExpr refers to a variable, function or struct name.
type IdentifierExpr struct {
	Name string
	Posn Position
}

func (e *IdentifierExpr) Pos() Position { return e.Posn }
func (*IdentifierExpr) exprNode()       {}

// NumberExpr is a numeric literal, already converted to an exact rational.
type NumberExpr struct {
	Value   rational.Number
	Literal string
	Posn    Position
}

func (e *NumberExpr) Pos() Position { return e.Posn }
func (*NumberExpr) exprNode()       {}

// StringExpr is a double-quoted string literal.
type StringExpr struct {
	Value string
	Posn  Position
}

func (e *StringExpr) Pos() Position { return e.Posn }
func (*StringExpr) exprNode()       {}

// BoolExpr is a boolean literal.
type BoolExpr struct {
	Value bool
	Posn  Position
}

func (e *BoolExpr) Pos() Position { return e.Posn }
func (*BoolExpr) exprNode()       {}

// ListExpr is a literal list [a, b, ...].
type ListExpr struct {
	Elements []Expr
	Posn     Position
}

func (e *ListExpr) Pos() Position { return e.Posn }
func (*ListExpr) exprNode()       {}

// DictEntry is one key => value pair of a dict literal.
type DictEntry struct {
	Key   Expr
	Value Expr
}

// DictExpr is a literal dict {: k => v, ... :}.
type DictExpr struct {
	Entries []DictEntry
	Posn    Position
}

func (e *DictExpr) Pos() Position { return e.Posn }
func (*DictExpr) exprNode()       {}

// FieldInit is one name: value pair of a struct literal.
type FieldInit struct {
	Name  string
	Value Expr
	Posn  Position
}

// StructLit builds a struct instance: Point{x: 1, y: 2}.
type StructLit struct {
	Name   string
	Fields []FieldInit
	Posn   Position
}

func (e *StructLit) Pos() Position { return e.Posn }
func (*StructLit) exprNode()       {}

// TupleExpr is the |a, b| argument pack on the left of a pipeline.
type TupleExpr struct {
	Elements []Expr
	Posn     Position
}

func (e *TupleExpr) Pos() Position { return e.Posn }
func (*TupleExpr) exprNode()       {}

// LambdaExpr is an anonymous function. Body is a *BlockExpr or a single expression.
type LambdaExpr struct {
	Params []Param
	Body   Expr
	Posn   Position
}

func (e *LambdaExpr) Pos() Position { return e.Posn }
func (*LambdaExpr) exprNode()       {}

// CallExpr invokes an expression with arguments.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	Posn   Position
}

func (e *CallExpr) Pos() Position { return e.Posn }
func (*CallExpr) exprNode()       {}

// FieldExpr selects a field or method: target.name.
type FieldExpr struct {
	Target Expr
	Name   string
	Posn   Position
}

func (e *FieldExpr) Pos() Position { return e.Posn }
func (*FieldExpr) exprNode()       {}

// IndexExpr is target[index].
type IndexExpr struct {
	Target Expr
	Index  Expr
	Posn   Position
}

func (e *IndexExpr) Pos() Position { return e.Posn }
func (*IndexExpr) exprNode()       {}

// UnaryExpr represents prefix operator application.
type UnaryExpr struct {
	Op   TokenType
	Expr Expr
	Posn Position
}

func (e *UnaryExpr) Pos() Position { return e.Posn }
func (*UnaryExpr) exprNode()       {}

// BinaryExpr represents infix operator application.
type BinaryExpr struct {
	Op          TokenType
	Left, Right Expr
	Posn        Position
}

func (e *BinaryExpr) Pos() Position { return e.Posn }
func (*BinaryExpr) exprNode()       {}

// PipelineExpr is left -> right.
type PipelineExpr struct {
	Left  Expr
	Right Expr
	Posn  Position
}

func (e *PipelineExpr) Pos() Position { return e.Posn }
func (*PipelineExpr) exprNode()       {}

// AssignExpr stores into an identifier, field or index target.
type AssignExpr struct {
	Target Expr
	Value  Expr
	Posn   Position
}

func (e *AssignExpr) Pos() Position { return e.Posn }
func (*AssignExpr) exprNode()       {}

// BlockExpr is a braced sequence of statements. Its value is the value of a
// trailing expression statement.
type BlockExpr struct {
	Stmts []Stmt
	Posn  Position
}

func (e *BlockExpr) Pos() Position { return e.Posn }
func (*BlockExpr) exprNode()       {}

// IfExpr conditionally evaluates branches. Else is nil, a *BlockExpr or an *IfExpr.
type IfExpr struct {
	Cond Expr
	Then *BlockExpr
	Else Expr
	Posn Position
}

func (e *IfExpr) Pos() Position { return e.Posn }
func (*IfExpr) exprNode()       {}

// MatchArm is one pattern => body clause.
type MatchArm struct {
	Pattern Pattern
	Body    Expr
	Posn    Position
}

// MatchExpr tries each arm in order against the subject.
type MatchExpr struct {
	Subject Expr
	Arms    []MatchArm
	Posn    Position
}

func (e *MatchExpr) Pos() Position { return e.Posn }
func (*MatchExpr) exprNode()       {}

// ---- patterns ----

// WildcardPattern is _.
type WildcardPattern struct {
	Posn Position
}

func (p *WildcardPattern) Pos() Position { return p.Posn }
func (*WildcardPattern) patternNode()    {}

// BindingPattern matches anything and binds it to Name.
type BindingPattern struct {
	Name string
	Posn Position
}

func (p *BindingPattern) Pos() Position { return p.Posn }
func (*BindingPattern) patternNode()    {}

// LiteralPattern matches a number, string or bool literal by equality.
type LiteralPattern struct {
	Literal Expr // *NumberExpr, *StringExpr or *BoolExpr
	Posn    Position
}

func (p *LiteralPattern) Pos() Position { return p.Posn }
func (*LiteralPattern) patternNode()    {}

// ConstructorPattern matches None, Some(p), Suc(p) or Fail(p).
type ConstructorPattern struct {
	Name  string
	Inner Pattern // nil for None
	Posn  Position
}

func (p *ConstructorPattern) Pos() Position { return p.Posn }
func (*ConstructorPattern) patternNode()    {}

// ---- statements ----

// ValStmt declares a binding; Mutable is set by val mut.
type ValStmt struct {
	Name    string
	Mutable bool
	Type    *TypeRef
	Value   Expr
	Posn    Position
}

func (s *ValStmt) Pos() Position { return s.Posn }
func (*ValStmt) stmtNode()       {}

// FunDecl introduces a named function, or a method inside an impl block.
type FunDecl struct {
	Name   string
	Params []Param
	Result *TypeRef
	Body   *BlockExpr
	Posn   Position
}

func (s *FunDecl) Pos() Position { return s.Posn }
func (*FunDecl) stmtNode()       {}

// FieldDecl is one field of a struct declaration.
type FieldDecl struct {
	Name string
	Type *TypeRef
	Posn Position
}

// StructDecl declares a struct with ordered fields.
type StructDecl struct {
	Name   string
	Fields []FieldDecl
	Posn   Position
}

func (s *StructDecl) Pos() Position { return s.Posn }
func (*StructDecl) stmtNode()       {}

// ImplDecl attaches methods to a struct name.
type ImplDecl struct {
	Struct  string
	Methods []*FunDecl
	Posn    Position
}

func (s *ImplDecl) Pos() Position { return s.Posn }
func (*ImplDecl) stmtNode()       {}

// ImportStmt loads a module. Braced is set for import {a, b} from ...
type ImportStmt struct {
	Names  []string
	Braced bool
	Path   string
	Posn   Position
}

func (s *ImportStmt) Pos() Position { return s.Posn }
func (*ImportStmt) stmtNode()       {}

// ForStmt iterates a list, dict or string.
type ForStmt struct {
	Var  string
	Iter Expr
	Body *BlockExpr
	Posn Position
}

func (s *ForStmt) Pos() Position { return s.Posn }
func (*ForStmt) stmtNode()       {}

// ReturnStmt exits the current function, optionally with a value.
type ReturnStmt struct {
	Result Expr // may be nil
	Posn   Position
}

func (s *ReturnStmt) Pos() Position { return s.Posn }
func (*ReturnStmt) stmtNode()       {}

// BreakStmt leaves the innermost for loop.
type BreakStmt struct {
	Posn Position
}

func (s *BreakStmt) Pos() Position { return s.Posn }
func (*BreakStmt) stmtNode()       {}

// ContinueStmt starts the next iteration of the innermost for loop.
type ContinueStmt struct {
	Posn Position
}

func (s *ContinueStmt) Pos() Position { return s.Posn }
func (*ContinueStmt) stmtNode()       {}

// ExprStmt evaluates an expression.
type ExprStmt struct {
	Expr Expr
	Posn Position
}

func (s *ExprStmt) Pos() Position { return s.Posn }
func (*ExprStmt) stmtNode()       {}
