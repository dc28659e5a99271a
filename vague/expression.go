package vague

import "github.com/audiobench/nodespeak/source"

// UnaryOperator is an operator taking one operand.
type UnaryOperator uint8

const (
	Negate UnaryOperator = iota
	Not
	BNot
	Sin
	Cos
	Sqrt
	Exp
	Exp2
	Log
	Log10
	Log2
	Abs
	Floor
	Ceil
	Trunc
	Ftoi
	Itof
)

var unaryNames = [...]string{
	Negate: "-",
	Not:    "not",
	BNot:   "bnot",
	Sin:    "sin",
	Cos:    "cos",
	Sqrt:   "sqrt",
	Exp:    "exp",
	Exp2:   "exp2",
	Log:    "log",
	Log10:  "log10",
	Log2:   "log2",
	Abs:    "abs",
	Floor:  "floor",
	Ceil:   "ceil",
	Trunc:  "trunc",
	Ftoi:   "ftoi",
	Itof:   "itof",
}

func (op UnaryOperator) String() string { return unaryNames[op] }

// BinaryOperator is an operator taking two operands.
type BinaryOperator uint8

const (
	Add BinaryOperator = iota
	Subtract
	Multiply
	Divide
	Modulo
	Power
	LeftShift
	RightShift
	BAnd
	BOr
	BXor
	And
	Or
	Xor
	Equal
	NotEqual
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	// In tests whether the left value's type fits the right type bound.
	In
	// As reinterprets the left value as the type on the right.
	As
)

var binaryNames = [...]string{
	Add:                "+",
	Subtract:           "-",
	Multiply:           "*",
	Divide:             "/",
	Modulo:             "%",
	Power:              "**",
	LeftShift:          "<<",
	RightShift:         ">>",
	BAnd:               "band",
	BOr:                "bor",
	BXor:               "bxor",
	And:                "and",
	Or:                 "or",
	Xor:                "xor",
	Equal:              "==",
	NotEqual:           "!=",
	LessThan:           "<",
	GreaterThan:        ">",
	LessThanOrEqual:    "<=",
	GreaterThanOrEqual: ">=",
	In:                 "in",
	As:                 "as",
}

func (op BinaryOperator) String() string { return binaryNames[op] }

// IsComparison reports whether op yields BOOL regardless of operand types.
func (op BinaryOperator) IsComparison() bool {
	switch op {
	case Equal, NotEqual, LessThan, GreaterThan, LessThanOrEqual, GreaterThanOrEqual:
		return true
	}
	return false
}

// Property is a compile-time attribute read with `value.NAME`.
type Property uint8

const (
	PropertyType Property = iota
	PropertyDims
)

func (p Property) String() string {
	if p == PropertyType {
		return "TYPE"
	}
	return "DIMS"
}

// VPExpression produces a value.
type VPExpression interface {
	Pos() source.Span
	vpExpression()
}

// Literal is a known value written in the source.
type Literal struct {
	Value KnownData
	Span  source.Span
}

// VariableRef reads a variable.
type VariableRef struct {
	Var  VariableHandle
	Span source.Span
}

// Collect builds an array from its items.
type Collect struct {
	Items []VPExpression
	Span  source.Span
}

// TypeBound builds a bounded type value. Nil sides are unbounded.
type TypeBound struct {
	Lower VPExpression
	Upper VPExpression
	Span  source.Span
}

// BuildArrayType builds an array type value from dimensions and a base.
type BuildArrayType struct {
	Dims []VPExpression
	Base VPExpression
	Span source.Span
}

// IndexArg is one index of an Index expression.
type IndexArg struct {
	Expr     VPExpression
	Optional bool
}

// Index reads an element of an array.
type Index struct {
	Base    VPExpression
	Indexes []IndexArg
	Span    source.Span
}

// PropertyAccess reads a compile-time attribute of a value.
type PropertyAccess struct {
	Base     VPExpression
	Property Property
	Span     source.Span
}

// UnaryOperation applies a unary operator.
type UnaryOperation struct {
	Op      UnaryOperator
	Operand VPExpression
	Span    source.Span
}

// BinaryOperation applies a binary operator.
type BinaryOperation struct {
	Op    BinaryOperator
	Left  VPExpression
	Right VPExpression
	Span  source.Span
}

// MacroOutput is one output slot of a macro call: either the inline
// return, whose value becomes the value of the call, or a target.
type MacroOutput struct {
	Inline bool
	Target *VCExpression
	Span   source.Span
}

// MacroCall inlines a macro.
type MacroCall struct {
	Macro   VPExpression
	Inputs  []VPExpression
	Outputs []MacroOutput
	Span    source.Span
}

func (e *Literal) Pos() source.Span         { return e.Span }
func (e *VariableRef) Pos() source.Span     { return e.Span }
func (e *Collect) Pos() source.Span         { return e.Span }
func (e *TypeBound) Pos() source.Span       { return e.Span }
func (e *BuildArrayType) Pos() source.Span  { return e.Span }
func (e *Index) Pos() source.Span           { return e.Span }
func (e *PropertyAccess) Pos() source.Span  { return e.Span }
func (e *UnaryOperation) Pos() source.Span  { return e.Span }
func (e *BinaryOperation) Pos() source.Span { return e.Span }
func (e *MacroCall) Pos() source.Span       { return e.Span }

func (*Literal) vpExpression()         {}
func (*VariableRef) vpExpression()     {}
func (*Collect) vpExpression()         {}
func (*TypeBound) vpExpression()       {}
func (*BuildArrayType) vpExpression()  {}
func (*Index) vpExpression()           {}
func (*PropertyAccess) vpExpression()  {}
func (*UnaryOperation) vpExpression()  {}
func (*BinaryOperation) vpExpression() {}
func (*MacroCall) vpExpression()       {}

// VCExpression consumes a value: a variable, or an element of one when
// Indexes is not empty.
type VCExpression struct {
	Base    VariableHandle
	Indexes []VPExpression
	Span    source.Span
}

// Pos returns the span of the target.
func (e *VCExpression) Pos() source.Span { return e.Span }
