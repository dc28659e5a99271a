package trivial

import (
	"fmt"

	"github.com/audiobench/nodespeak/types"
)

// ValidationError describes one inconsistency in a trivial program.
type ValidationError struct {
	Message string
	// Stream is "static_init" or "main" when the problem is in an
	// instruction.
	Stream      string
	Instruction int
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Stream != "" {
		return fmt.Sprintf("in %s, instruction %d: %s", e.Stream, e.Instruction, e.Message)
	}
	return e.Message
}

// Validator checks trivial programs.
type Validator struct {
	program *Program
	errors  []ValidationError

	stream  string
	static  bool
	index   int
	labels  int
	defined map[LabelHandle]int
}

// Validate checks prog for internal consistency: labels are defined once
// and every referenced label exists, operands live in storage their
// stream may use, and abort codes index the error table.
// Returns validation errors if any, or nil if the program is valid.
func Validate(prog *Program) ([]ValidationError, error) {
	if prog == nil {
		return nil, fmt.Errorf("program is nil")
	}

	v := &Validator{program: prog}
	v.ValidateProgram()

	if len(v.errors) > 0 {
		return v.errors, nil
	}
	return nil, nil
}

// ValidateProgram validates the declarations and both streams.
func (v *Validator) ValidateProgram() {
	v.validateDeclarations()
	v.validateStream("static_init", true, v.program.StaticInit, v.program.StaticLabels)
	v.validateStream("main", false, v.program.Main, v.program.MainLabels)
}

func (v *Validator) validateDeclarations() {
	for i, variable := range v.program.Variables {
		if variable.Type == nil || !types.IsRuntime(variable.Type) {
			v.addError(fmt.Sprintf("variable tv%d has non-runtime type %v", i, variable.Type))
		}
	}
	check := func(kind string, list []VariableHandle, loc StorageLocation) {
		for _, h := range list {
			if !v.isValidVariable(h) {
				v.addError(fmt.Sprintf("%s tv%d does not exist", kind, h))
				continue
			}
			if got := v.program.Variables[h].Location; got != loc {
				v.addError(fmt.Sprintf("%s tv%d is stored as %s", kind, h, got))
			}
		}
	}
	check("input", v.program.Inputs, Input)
	check("output", v.program.Outputs, Output)
	check("static", v.program.Statics, Static)
}

func (v *Validator) validateStream(name string, static bool, stream []Instruction, labels int) {
	v.stream, v.static, v.labels = name, static, labels
	v.defined = map[LabelHandle]int{}

	for i, inst := range stream {
		if l, ok := inst.(*Label); ok {
			v.index = i
			if !v.isValidLabel(l.Label) {
				v.addErrorInInstruction(fmt.Sprintf("label l%d is outside the %d labels of this stream", l.Label, labels))
				continue
			}
			if prev, dup := v.defined[l.Label]; dup {
				v.addErrorInInstruction(fmt.Sprintf("label l%d is already defined at instruction %d", l.Label, prev))
				continue
			}
			v.defined[l.Label] = i
		}
	}
	for i, inst := range stream {
		v.index = i
		v.validateInstruction(inst)
	}
}

//nolint:gocyclo // one case per instruction kind
func (v *Validator) validateInstruction(inst Instruction) {
	switch i := inst.(type) {
	case *Move:
		v.validateOperand(i.From, "source")
		v.validateDestination(i.To)
	case *Load:
		v.validateIndexed(i.From, i.Indexes)
		v.validateDestination(i.To)
	case *Store:
		v.validateOperand(i.From, "source")
		v.validateIndexed(i.To, i.Indexes)
		v.validateWritable(i.To)
	case *Unary:
		v.validateOperand(i.A, "operand")
		v.validateDestination(i.X)
	case *Binary:
		v.validateOperand(i.A, "left operand")
		v.validateOperand(i.B, "right operand")
		v.validateDestination(i.X)
	case *Label:
	case *Jump:
		v.validateTarget(i.Label)
	case *Branch:
		v.validateOperand(i.Condition, "condition")
		v.validateTarget(i.True)
		v.validateTarget(i.False)
	case *Abort:
		if i.Code < 0 || i.Code >= len(v.program.Errors) {
			v.addErrorInInstruction(fmt.Sprintf("abort code %d is not in the error table of %d entries", i.Code, len(v.program.Errors)))
		}
	default:
		v.addErrorInInstruction(fmt.Sprintf("unknown instruction %T", inst))
	}
}

func (v *Validator) validateTarget(l LabelHandle) {
	if !v.isValidLabel(l) {
		v.addErrorInInstruction(fmt.Sprintf("jump to l%d, outside the %d labels of this stream", l, v.labels))
		return
	}
	if _, ok := v.defined[l]; !ok {
		v.addErrorInInstruction(fmt.Sprintf("jump to l%d, which is never placed", l))
	}
}

// validateOperand checks a scalar read.
func (v *Validator) validateOperand(val Value, what string) {
	if !val.IsScalar() {
		v.addErrorInInstruction(fmt.Sprintf("%s %s is not a single element", what, val))
	}
	if val.IsLiteral() {
		return
	}
	if !v.validateStorage(val.Var) {
		return
	}
	dims := types.Dims(v.program.Variables[val.Var].Type)
	if len(val.Coord) != len(dims) {
		v.addErrorInInstruction(fmt.Sprintf("%s %s selects %d of %d dimensions", what, val, len(val.Coord), len(dims)))
		return
	}
	for k, c := range val.Coord {
		if c < 0 || c >= dims[k] {
			v.addErrorInInstruction(fmt.Sprintf("%s %s is out of bounds", what, val))
			return
		}
	}
}

func (v *Validator) validateDestination(val Value) {
	if val.IsLiteral() {
		v.addErrorInInstruction(fmt.Sprintf("destination %s is a literal", val))
		return
	}
	v.validateOperand(val, "destination")
	v.validateWritable(val)
}

func (v *Validator) validateWritable(val Value) {
	if !val.IsLiteral() && v.isValidVariable(val.Var) && v.program.Variables[val.Var].Location == Input {
		v.addErrorInInstruction(fmt.Sprintf("%s is an input and cannot be written", val))
	}
}

// validateIndexed checks the base and index list of a Load or Store.
func (v *Validator) validateIndexed(base Value, indexes []Value) {
	if base.IsLiteral() {
		v.addErrorInInstruction(fmt.Sprintf("indexed base %s is a literal", base))
		return
	}
	if len(base.Coord) > 0 {
		v.addErrorInInstruction(fmt.Sprintf("indexed base %s is not a whole variable", base))
	}
	if !v.validateStorage(base.Var) {
		return
	}
	dims := types.Dims(v.program.Variables[base.Var].Type)
	if len(indexes) != len(dims)+1 {
		v.addErrorInInstruction(fmt.Sprintf("%d indexes into %s, want %d", len(indexes), base, len(dims)+1))
		return
	}
	if first := indexes[0]; !first.IsLiteral() || first.Literal.String() != "0" {
		v.addErrorInInstruction(fmt.Sprintf("first index into %s is %s, want a literal 0", base, first))
	}
	for _, idx := range indexes[1:] {
		v.validateOperand(idx, "index")
	}
}

// validateStorage checks that the stream may touch the variable.
func (v *Validator) validateStorage(h VariableHandle) bool {
	if !v.isValidVariable(h) {
		v.addErrorInInstruction(fmt.Sprintf("variable tv%d does not exist", h))
		return false
	}
	loc := v.program.Variables[h].Location
	var ok bool
	if v.static {
		ok = loc == Static || loc == StaticBody
	} else {
		ok = loc != StaticBody
	}
	if !ok {
		v.addErrorInInstruction(fmt.Sprintf("tv%d is stored as %s and cannot be used in %s", h, loc, v.stream))
	}
	return ok
}

// Helper methods for validation

func (v *Validator) isValidVariable(h VariableHandle) bool {
	return int(h) < len(v.program.Variables)
}

func (v *Validator) isValidLabel(l LabelHandle) bool {
	return int(l) < v.labels
}

func (v *Validator) addError(msg string) {
	v.errors = append(v.errors, ValidationError{Message: msg})
}

func (v *Validator) addErrorInInstruction(msg string) {
	v.errors = append(v.errors, ValidationError{
		Message:     msg,
		Stream:      v.stream,
		Instruction: v.index,
	})
}
