package vague

import "github.com/audiobench/nodespeak/source"

// Statement is a closed union of the statement kinds below.
type Statement interface {
	Pos() source.Span
	statement()
}

// CreationPoint marks where a variable comes into existence and gives the
// expression for its type.
type CreationPoint struct {
	Var  VariableHandle
	Type VPExpression
	Span source.Span
}

// Assign stores Value into Target.
type Assign struct {
	Target *VCExpression
	Value  VPExpression
	Span   source.Span
}

// Assert aborts the program when Condition is false.
type Assert struct {
	Condition VPExpression
	Span      source.Span
}

// Clause is one conditional arm of a Branch.
type Clause struct {
	Condition VPExpression
	Body      ScopeHandle
}

// Branch is an if / else if / else chain.
type Branch struct {
	Clauses []Clause
	Else    ScopeHandle // NoScope when absent
	Span    source.Span
}

// ForLoop runs Body with Counter taking each value from Start up to, but
// not including, End.
type ForLoop struct {
	Counter     VariableHandle
	Start       VPExpression
	End         VPExpression
	Body        ScopeHandle
	AllowUnroll bool
	Span        source.Span
}

// StaticInit runs Body once per instance. Exports stay readable from the
// main body afterwards.
type StaticInit struct {
	Body    ScopeHandle
	Exports []VariableHandle
	Span    source.Span
}

// Block is a nested scope that runs in place.
type Block struct {
	Body ScopeHandle
	Span source.Span
}

// Return ends the enclosing macro body.
type Return struct {
	Span source.Span
}

// RawExpression evaluates an expression for its side effects, which is how
// a macro call written as a statement is represented.
type RawExpression struct {
	Value VPExpression
	Span  source.Span
}

func (s *CreationPoint) Pos() source.Span { return s.Span }
func (s *Assign) Pos() source.Span        { return s.Span }
func (s *Assert) Pos() source.Span        { return s.Span }
func (s *Branch) Pos() source.Span        { return s.Span }
func (s *ForLoop) Pos() source.Span       { return s.Span }
func (s *StaticInit) Pos() source.Span    { return s.Span }
func (s *Block) Pos() source.Span         { return s.Span }
func (s *Return) Pos() source.Span        { return s.Span }
func (s *RawExpression) Pos() source.Span { return s.Span }

func (*CreationPoint) statement() {}
func (*Assign) statement()        {}
func (*Assert) statement()        {}
func (*Branch) statement()        {}
func (*ForLoop) statement()       {}
func (*StaticInit) statement()    {}
func (*Block) statement()         {}
func (*Return) statement()        {}
func (*RawExpression) statement() {}
