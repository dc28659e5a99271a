package syntax

import "github.com/audiobench/nodespeak/source"

// File is the tree parsed from one source file.
type File struct {
	Statements []Stmt
	Span       source.Span
}

// Node is the base interface for all AST nodes.
type Node interface {
	Pos() source.Span
}

// Stmt is the interface for statements.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is the interface for expressions.
type Expr interface {
	Node
	exprNode()
}

// Ident is a bare name.
type Ident struct {
	Name string
	Span source.Span
}

func (i *Ident) Pos() source.Span { return i.Span }
func (i *Ident) exprNode()        {}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// IODecl declares program inputs or outputs: `input FLOAT a, b;`.
type IODecl struct {
	Output bool
	Type   Expr
	Names  []*Ident
	Span   source.Span
}

func (s *IODecl) Pos() source.Span { return s.Span }
func (s *IODecl) stmtNode()        {}

// DeclStmt declares a variable without assigning it: `INT x;`.
type DeclStmt struct {
	Decl *VarDecl
	Span source.Span
}

func (s *DeclStmt) Pos() source.Span { return s.Span }
func (s *DeclStmt) stmtNode()        {}

// AssignStmt assigns Value to Target, which is an Ident, an IndexExpr or a
// VarDecl.
type AssignStmt struct {
	Target Expr
	Value  Expr
	Span   source.Span
}

func (s *AssignStmt) Pos() source.Span { return s.Span }
func (s *AssignStmt) stmtNode()        {}

// MacroDef defines a macro: `macro Name(a, b): out { ... }`.
type MacroDef struct {
	Name    *Ident
	Inputs  []*Ident
	Outputs []*Ident
	Body    *Block
	// Header covers the name and signature, for diagnostics at call sites.
	Header source.Span
	Span   source.Span
}

func (s *MacroDef) Pos() source.Span { return s.Span }
func (s *MacroDef) stmtNode()        {}

// MacroCallStmt is a macro call used as a statement.
type MacroCallStmt struct {
	Call *MacroCallExpr
	Span source.Span
}

func (s *MacroCallStmt) Pos() source.Span { return s.Span }
func (s *MacroCallStmt) stmtNode()        {}

// ExprStmt is any other expression used as a statement.
type ExprStmt struct {
	Expr Expr
	Span source.Span
}

func (s *ExprStmt) Pos() source.Span { return s.Span }
func (s *ExprStmt) stmtNode()        {}

// IfClause is one `if` or `else if` arm.
type IfClause struct {
	Condition Expr
	Body      *Block
}

// IfStmt is an if / else if / else chain.
type IfStmt struct {
	Clauses []IfClause
	Else    *Block // nil when absent
	Span    source.Span
}

func (s *IfStmt) Pos() source.Span { return s.Span }
func (s *IfStmt) stmtNode()        {}

// ForStmt is `for i = start to end [no_unroll] { ... }`. End is exclusive.
type ForStmt struct {
	Counter  *Ident
	Start    Expr
	End      Expr
	NoUnroll bool
	Body     *Block
	Span     source.Span
}

func (s *ForStmt) Pos() source.Span { return s.Span }
func (s *ForStmt) stmtNode()        {}

// StaticStmt is `static a, b { ... }`.
type StaticStmt struct {
	Exports []*Ident
	Body    *Block
	Span    source.Span
}

func (s *StaticStmt) Pos() source.Span { return s.Span }
func (s *StaticStmt) stmtNode()        {}

// AssertStmt is `assert cond;`.
type AssertStmt struct {
	Condition Expr
	Span      source.Span
}

func (s *AssertStmt) Pos() source.Span { return s.Span }
func (s *AssertStmt) stmtNode()        {}

// ReturnStmt is `return;`.
type ReturnStmt struct {
	Span source.Span
}

func (s *ReturnStmt) Pos() source.Span { return s.Span }
func (s *ReturnStmt) stmtNode()        {}

// IncludeStmt is `include "file.ns";`.
type IncludeStmt struct {
	Path string
	Span source.Span
}

func (s *IncludeStmt) Pos() source.Span { return s.Span }
func (s *IncludeStmt) stmtNode()        {}

// Block is a braced statement list. It is also a statement on its own.
type Block struct {
	Statements []Stmt
	Span       source.Span
}

func (s *Block) Pos() source.Span { return s.Span }
func (s *Block) stmtNode()        {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// IntLiteral is an integer literal in any base.
type IntLiteral struct {
	Value int64
	Span  source.Span
}

func (e *IntLiteral) Pos() source.Span { return e.Span }
func (e *IntLiteral) exprNode()        {}

// FloatLiteral is a floating point literal.
type FloatLiteral struct {
	Value float64
	Span  source.Span
}

func (e *FloatLiteral) Pos() source.Span { return e.Span }
func (e *FloatLiteral) exprNode()        {}

// ArrayLiteral is `[a, b, c]`.
type ArrayLiteral struct {
	Items []Expr
	Span  source.Span
}

func (e *ArrayLiteral) Pos() source.Span { return e.Span }
func (e *ArrayLiteral) exprNode()        {}

// ArrayType is `[4][3]BASE`.
type ArrayType struct {
	Dims []Expr
	Base Expr
	Span source.Span
}

func (e *ArrayType) Pos() source.Span { return e.Span }
func (e *ArrayType) exprNode()        {}

// TypeBound is `<>`, `<upper>` or `<lower, upper>`.
type TypeBound struct {
	Lower Expr // nil when unbounded
	Upper Expr // nil when unbounded
	Span  source.Span
}

func (e *TypeBound) Pos() source.Span { return e.Span }
func (e *TypeBound) exprNode()        {}

// IndexExpr is `base[index]` or `base[index?]`.
type IndexExpr struct {
	Base     Expr
	Index    Expr
	Optional bool
	Span     source.Span
}

func (e *IndexExpr) Pos() source.Span { return e.Span }
func (e *IndexExpr) exprNode()        {}

// PropertyExpr is `base.NAME`.
type PropertyExpr struct {
	Base     Expr
	Name     string
	NameSpan source.Span
	Span     source.Span
}

func (e *PropertyExpr) Pos() source.Span { return e.Span }
func (e *PropertyExpr) exprNode()        {}

// UnaryExpr is `-x` or `not x`.
type UnaryExpr struct {
	Op      TokenKind
	Operand Expr
	Span    source.Span
}

func (e *UnaryExpr) Pos() source.Span { return e.Span }
func (e *UnaryExpr) exprNode()        {}

// BinaryExpr is `left op right`.
type BinaryExpr struct {
	Op    TokenKind
	Left  Expr
	Right Expr
	Span  source.Span
}

func (e *BinaryExpr) Pos() source.Span { return e.Span }
func (e *BinaryExpr) exprNode()        {}

// CallOutput is one entry of a call's output list: either the keyword
// `inline` or an assignment target.
type CallOutput struct {
	Inline bool
	Target Expr
	Span   source.Span
}

// MacroCallExpr is `Name(args)` with an optional `:(outputs)` list.
type MacroCallExpr struct {
	Macro   *Ident
	Inputs  []Expr
	Outputs []CallOutput
	// HasOutputs is set when an explicit output list was written.
	HasOutputs bool
	Span       source.Span
}

func (e *MacroCallExpr) Pos() source.Span { return e.Span }
func (e *MacroCallExpr) exprNode()        {}

// VarDecl is `TYPE name`, usable as an assignment target.
type VarDecl struct {
	Type Expr
	Name *Ident
	Span source.Span
}

func (e *VarDecl) Pos() source.Span { return e.Span }
func (e *VarDecl) exprNode()        {}
