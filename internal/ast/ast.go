// Package ast defines the statement and expression nodes produced by
// the parser and consumed by the bytecode compiler.
package ast

import (
	"kiln/internal/source"
)

// Node is anything with a source location.
type Node interface {
	Span() source.Span
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// ---- statements ----

// ExprStmt is an expression evaluated for its value, `expr ;`.
type ExprStmt struct {
	X   Expr
	Loc source.Span
}

// PrintStmt is `print expr ;`.
type PrintStmt struct {
	X   Expr
	Loc source.Span
}

// BlockStmt is `{ stmts... }`.
type BlockStmt struct {
	Stmts []Stmt
	Loc   source.Span
}

// IfStmt is `if (cond) then` with an optional else branch.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil when absent
	Loc  source.Span
}

// WhileStmt is `while (cond) body`.
type WhileStmt struct {
	Cond Expr
	Body Stmt
	Loc  source.Span
}

// ForStmt is `for (init; cond; incr) body`; all three headers optional.
type ForStmt struct {
	Init Stmt // nil or ExprStmt
	Cond Expr // nil when absent
	Incr Expr // nil when absent
	Body Stmt
	Loc  source.Span
}

// ReturnStmt is `return expr? ;`.
type ReturnStmt struct {
	X   Expr // nil for bare return
	Loc source.Span
}

// ClassDecl is `class Name { methods... }`.
type ClassDecl struct {
	Name    string
	Methods []*FnExpr
	Loc     source.Span
}

func (*ExprStmt) stmtNode()   {}
func (*PrintStmt) stmtNode()  {}
func (*BlockStmt) stmtNode()  {}
func (*IfStmt) stmtNode()     {}
func (*WhileStmt) stmtNode()  {}
func (*ForStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode() {}
func (*ClassDecl) stmtNode()  {}

func (s *ExprStmt) Span() source.Span   { return s.Loc }
func (s *PrintStmt) Span() source.Span  { return s.Loc }
func (s *BlockStmt) Span() source.Span  { return s.Loc }
func (s *IfStmt) Span() source.Span     { return s.Loc }
func (s *WhileStmt) Span() source.Span  { return s.Loc }
func (s *ForStmt) Span() source.Span    { return s.Loc }
func (s *ReturnStmt) Span() source.Span { return s.Loc }
func (s *ClassDecl) Span() source.Span  { return s.Loc }

// ---- expressions ----

// LitKind discriminates literal expressions.
type LitKind uint8

const (
	LitNumber LitKind = iota
	LitString
	LitBool
	LitNone
)

// Lit is a literal: number (decimal text), string (quotes already
// stripped by the lexer), boolean, or none.
type Lit struct {
	Kind LitKind
	Text string // LitNumber: decimal text, LitString: contents
	Bool bool   // LitBool
	Loc  source.Span
}

// Ident is a bare name.
type Ident struct {
	Name string
	Loc  source.Span
}

// Binary is `left op right` with op as the operator token text.
type Binary struct {
	Op    string
	Left  Expr
	Right Expr
	Loc   source.Span
}

// Unary is `op operand`.
type Unary struct {
	Op  string
	X   Expr
	Loc source.Span
}

// Assign is `target = value`. The target may be any expression; the
// compiler rejects everything but a bare identifier.
type Assign struct {
	Target Expr
	Value  Expr
	Loc    source.Span
}

// Call is `callee(args...)`.
type Call struct {
	Callee Expr
	Args   []Expr
	Loc    source.Span
}

// Property is `target.name`.
type Property struct {
	Target Expr
	Name   string
	Loc    source.Span
}

// FnExpr is a function expression: `fn (params) { body }`. Also used
// for class methods, with Name set.
type FnExpr struct {
	Name   string // "" for anonymous
	Params []string
	Body   *BlockStmt
	Loc    source.Span
}

// Grouping is a parenthesized expression; compilation is transparent.
type Grouping struct {
	X   Expr
	Loc source.Span
}

func (*Lit) exprNode()      {}
func (*Ident) exprNode()    {}
func (*Binary) exprNode()   {}
func (*Unary) exprNode()    {}
func (*Assign) exprNode()   {}
func (*Call) exprNode()     {}
func (*Property) exprNode() {}
func (*FnExpr) exprNode()   {}
func (*Grouping) exprNode() {}

func (e *Lit) Span() source.Span      { return e.Loc }
func (e *Ident) Span() source.Span    { return e.Loc }
func (e *Binary) Span() source.Span   { return e.Loc }
func (e *Unary) Span() source.Span    { return e.Loc }
func (e *Assign) Span() source.Span   { return e.Loc }
func (e *Call) Span() source.Span     { return e.Loc }
func (e *Property) Span() source.Span { return e.Loc }
func (e *FnExpr) Span() source.Span   { return e.Loc }
func (e *Grouping) Span() source.Span { return e.Loc }
