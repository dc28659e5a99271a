package trivial

import (
	"fmt"
	"strings"
)

// Condition is the predicate of a comparison.
type Condition uint8

const (
	LessThan Condition = iota
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
	Equal
	NotEqual
)

var conditionNames = [...]string{
	LessThan:           "lt",
	GreaterThan:        "gt",
	LessThanOrEqual:    "le",
	GreaterThanOrEqual: "ge",
	Equal:              "eq",
	NotEqual:           "ne",
}

func (c Condition) String() string { return conditionNames[c] }

// Negate returns the condition that holds exactly when c does not.
func (c Condition) Negate() Condition {
	switch c {
	case LessThan:
		return GreaterThanOrEqual
	case GreaterThan:
		return LessThanOrEqual
	case LessThanOrEqual:
		return GreaterThan
	case GreaterThanOrEqual:
		return LessThan
	case Equal:
		return NotEqual
	}
	return Equal
}

// UnaryOp is a typed single-operand operation.
type UnaryOp uint8

const (
	NegI UnaryOp = iota
	NegF
	Not
	BNot
	FSin
	FCos
	FSqrt
	FExp
	FExp2
	FLog
	FLog10
	FLog2
	FAbs
	IAbs
	FFloor
	FCeil
	FTrunc
	Ftoi
	Itof
)

var unaryOpNames = [...]string{
	NegI:   "negi",
	NegF:   "negf",
	Not:    "not",
	BNot:   "bnot",
	FSin:   "fsin",
	FCos:   "fcos",
	FSqrt:  "fsqrt",
	FExp:   "fexp",
	FExp2:  "fexp2",
	FLog:   "flog",
	FLog10: "flog10",
	FLog2:  "flog2",
	FAbs:   "fabs",
	IAbs:   "iabs",
	FFloor: "ffloor",
	FCeil:  "fceil",
	FTrunc: "ftrunc",
	Ftoi:   "ftoi",
	Itof:   "itof",
}

func (op UnaryOp) String() string { return unaryOpNames[op] }

// BinaryOp is a typed two-operand operation.
type BinaryOp uint8

const (
	AddI BinaryOp = iota
	SubI
	MulI
	DivI
	ModI
	PowI

	AddF
	SubF
	MulF
	DivF
	ModF
	PowF

	BAnd
	BOr
	BXor
	LeftShift
	RightShift

	And
	Or
	Xor

	// CompI compares INT or BOOL operands, CompF FLOAT operands. Both use
	// Binary.Cond.
	CompI
	CompF
)

var binaryOpNames = [...]string{
	AddI:       "addi",
	SubI:       "subi",
	MulI:       "muli",
	DivI:       "divi",
	ModI:       "modi",
	PowI:       "powi",
	AddF:       "addf",
	SubF:       "subf",
	MulF:       "mulf",
	DivF:       "divf",
	ModF:       "modf",
	PowF:       "powf",
	BAnd:       "band",
	BOr:        "bor",
	BXor:       "bxor",
	LeftShift:  "shl",
	RightShift: "shr",
	And:        "and",
	Or:         "or",
	Xor:        "xor",
	CompI:      "compi",
	CompF:      "compf",
}

func (op BinaryOp) String() string { return binaryOpNames[op] }

// Instruction is a closed union of the instruction kinds below. Every
// Value operand is scalar.
type Instruction interface {
	instruction()
}

// Move copies one element.
type Move struct {
	From Value
	To   Value
}

// Load reads one element of From at runtime indexes. Indexes starts with a
// literal 0 that steps through the base pointer.
type Load struct {
	From    Value
	Indexes []Value
	To      Value
}

// Store writes one element of To at runtime indexes. Indexes starts with a
// literal 0 like Load's.
type Store struct {
	From    Value
	To      Value
	Indexes []Value
}

// Unary computes X = Op A.
type Unary struct {
	Op UnaryOp
	A  Value
	X  Value
}

// Binary computes X = A Op B.
type Binary struct {
	Op   BinaryOp
	Cond Condition
	A    Value
	B    Value
	X    Value
}

// Label marks a jump target.
type Label struct {
	Label LabelHandle
}

// Jump continues at Label.
type Jump struct {
	Label LabelHandle
}

// Branch continues at True when Condition holds and at False otherwise.
type Branch struct {
	Condition Value
	True      LabelHandle
	False     LabelHandle
}

// Abort stops the stream with an error code indexing Program.Errors.
type Abort struct {
	Code int
}

func (*Move) instruction()   {}
func (*Load) instruction()   {}
func (*Store) instruction()  {}
func (*Unary) instruction()  {}
func (*Binary) instruction() {}
func (*Label) instruction()  {}
func (*Jump) instruction()   {}
func (*Branch) instruction() {}
func (*Abort) instruction()  {}

func formatIndexes(indexes []Value) string {
	var sb strings.Builder
	for _, idx := range indexes {
		sb.WriteString("[" + idx.String() + "]")
	}
	return sb.String()
}

// FormatInstruction renders one instruction.
func FormatInstruction(inst Instruction) string {
	switch i := inst.(type) {
	case *Move:
		return fmt.Sprintf("move %s -> %s", i.From, i.To)
	case *Load:
		return fmt.Sprintf("load (%s)%s -> %s", i.From, formatIndexes(i.Indexes), i.To)
	case *Store:
		return fmt.Sprintf("store %s -> (%s)%s", i.From, i.To, formatIndexes(i.Indexes))
	case *Unary:
		return fmt.Sprintf("%s %s -> %s", i.Op, i.A, i.X)
	case *Binary:
		op := i.Op.String()
		if i.Op == CompI || i.Op == CompF {
			op += " " + i.Cond.String()
		}
		return fmt.Sprintf("%s %s, %s -> %s", op, i.A, i.B, i.X)
	case *Label:
		return fmt.Sprintf("l%d:", i.Label)
	case *Jump:
		return fmt.Sprintf("jump l%d", i.Label)
	case *Branch:
		return fmt.Sprintf("if %s jump l%d else l%d", i.Condition, i.True, i.False)
	case *Abort:
		return fmt.Sprintf("abort %d", i.Code)
	}
	return fmt.Sprintf("%T", inst)
}
