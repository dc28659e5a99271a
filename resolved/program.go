// Package resolved holds the fully typed, partially evaluated program
// produced by the scope resolver, along with the resolver itself.
//
// Every variable of a resolved program has a concrete runtime type. Values
// the resolver proved at compile time have been folded into literals, known
// branches pruned, bounded loops unrolled and macros inlined. What remains
// is the work that has to happen at run time.
package resolved

import (
	"github.com/audiobench/nodespeak/source"
	"github.com/audiobench/nodespeak/types"
	"github.com/audiobench/nodespeak/vague"
)

type (
	// VariableHandle addresses a variable in Program.Variables.
	VariableHandle uint32
	// ScopeHandle addresses a scope in Program.Scopes.
	ScopeHandle uint32
)

// NoScope marks an absent else clause.
const NoScope = ScopeHandle(^uint32(0))

// Variable is a runtime variable.
type Variable struct {
	Type       types.Type
	Definition source.Span
}

// Scope is an ordered statement list.
type Scope struct {
	Body []Statement
}

// Program is the output of Resolve.
type Program struct {
	Scopes    []Scope
	Variables []Variable

	// Entry runs on every invocation. StaticInit runs once per instance.
	Entry      ScopeHandle
	StaticInit ScopeHandle

	// Statics are the variables exported from static blocks. They are
	// written by StaticInit and read by Entry.
	Statics []VariableHandle
	Inputs  []VariableHandle
	Outputs []VariableHandle
}

// NewProgram creates a program with empty static-init and entry scopes.
func NewProgram() *Program {
	p := &Program{}
	p.StaticInit = p.AddScope()
	p.Entry = p.AddScope()
	return p
}

// AddScope appends an empty scope.
func (p *Program) AddScope() ScopeHandle {
	p.Scopes = append(p.Scopes, Scope{})
	return ScopeHandle(len(p.Scopes) - 1)
}

// AddVariable appends a variable.
func (p *Program) AddVariable(v Variable) VariableHandle {
	p.Variables = append(p.Variables, v)
	return VariableHandle(len(p.Variables) - 1)
}

// AddStatement appends stmt to scope.
func (p *Program) AddStatement(scope ScopeHandle, stmt Statement) {
	p.Scopes[scope].Body = append(p.Scopes[scope].Body, stmt)
}

// Scope returns the scope addressed by h.
func (p *Program) Scope(h ScopeHandle) *Scope {
	return &p.Scopes[h]
}

// Variable returns the variable addressed by h.
func (p *Program) Variable(h VariableHandle) *Variable {
	return &p.Variables[h]
}

// IsStatic reports whether v was exported from a static block.
func (p *Program) IsStatic(v VariableHandle) bool {
	for _, s := range p.Statics {
		if s == v {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// Expression is a closed union of the expression kinds below. Every
// expression knows its concrete type.
type Expression interface {
	Pos() source.Span
	Type() types.Type
	expression()
}

// Literal is a runtime-compatible constant: BOOL, INT, FLOAT or an array
// of them.
type Literal struct {
	Value vague.KnownData
	Typ   types.Type
	Span  source.Span
}

// VariableRef reads a variable.
type VariableRef struct {
	Var  VariableHandle
	Typ  types.Type
	Span source.Span
}

// Index reads an element of Base. Nested indexing is flattened into one
// Index.
type Index struct {
	Base    Expression
	Indexes []Expression
	Typ     types.Type
	Span    source.Span
}

// Collect builds an array from items of equal type.
type Collect struct {
	Items []Expression
	Typ   types.Type
	Span  source.Span
}

// Unary applies an operator elementwise.
type Unary struct {
	Op      vague.UnaryOperator
	Operand Expression
	Typ     types.Type
	Span    source.Span
}

// Binary applies an operator elementwise, broadcasting both operands to
// Typ. Comparisons have a BOOL leaf type.
type Binary struct {
	Op    vague.BinaryOperator
	Left  Expression
	Right Expression
	Typ   types.Type
	Span  source.Span
}

func (e *Literal) Pos() source.Span     { return e.Span }
func (e *VariableRef) Pos() source.Span { return e.Span }
func (e *Index) Pos() source.Span       { return e.Span }
func (e *Collect) Pos() source.Span     { return e.Span }
func (e *Unary) Pos() source.Span       { return e.Span }
func (e *Binary) Pos() source.Span      { return e.Span }

func (e *Literal) Type() types.Type     { return e.Typ }
func (e *VariableRef) Type() types.Type { return e.Typ }
func (e *Index) Type() types.Type       { return e.Typ }
func (e *Collect) Type() types.Type     { return e.Typ }
func (e *Unary) Type() types.Type       { return e.Typ }
func (e *Binary) Type() types.Type      { return e.Typ }

func (*Literal) expression()     {}
func (*VariableRef) expression() {}
func (*Index) expression()       {}
func (*Collect) expression()     {}
func (*Unary) expression()       {}
func (*Binary) expression()      {}

// Target is the left side of an assignment.
type Target struct {
	Var     VariableHandle
	Indexes []Expression
	// Typ is the type of the element written.
	Typ  types.Type
	Span source.Span
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// Statement is a closed union of the statement kinds below.
type Statement interface {
	Pos() source.Span
	statement()
}

// Assign stores Value into Target, broadcasting it when Target is bigger.
type Assign struct {
	Target *Target
	Value  Expression
	Span   source.Span
}

// Assert aborts the invocation when Condition is false.
type Assert struct {
	Condition Expression
	Span      source.Span
}

// Clause is one conditional arm of a Branch.
type Clause struct {
	Condition Expression
	Body      ScopeHandle
}

// Branch runs the body of the first clause whose condition holds, or Else.
type Branch struct {
	Clauses []Clause
	Else    ScopeHandle // NoScope when absent
	Span    source.Span
}

// ForLoop runs Body with Counter from Start up to, but not including, End.
type ForLoop struct {
	Counter VariableHandle
	Start   Expression
	End     Expression
	Body    ScopeHandle
	Span    source.Span
}

// MacroCall runs the inlined body of one macro call in place.
type MacroCall struct {
	Body ScopeHandle
	Span source.Span
}

func (s *Assign) Pos() source.Span    { return s.Span }
func (s *Assert) Pos() source.Span    { return s.Span }
func (s *Branch) Pos() source.Span    { return s.Span }
func (s *ForLoop) Pos() source.Span   { return s.Span }
func (s *MacroCall) Pos() source.Span { return s.Span }

func (*Assign) statement()    {}
func (*Assert) statement()    {}
func (*Branch) statement()    {}
func (*ForLoop) statement()   {}
func (*MacroCall) statement() {}
