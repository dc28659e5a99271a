// Package trivial holds the flat three-address form handed to native
// backends, and the trivializer that lowers a resolved program into it.
//
// A trivial program has two instruction streams. StaticInit runs once per
// instance and Main runs once per invocation. Every instruction operates on
// single elements; array operations have already been expanded one
// instruction per coordinate. Each stream has its own label namespace.
package trivial

import (
	"github.com/audiobench/nodespeak/types"
)

type (
	// VariableHandle addresses a variable in Program.Variables.
	VariableHandle uint32
	// LabelHandle addresses a label within one stream.
	LabelHandle uint32
)

// StorageLocation says where a variable lives, which also decides the
// streams allowed to touch it.
type StorageLocation uint8

const (
	// Input is a field of the input struct passed to Main.
	Input StorageLocation = iota
	// Output is a field of the output struct passed to Main.
	Output
	// Static is a field of the static struct. StaticInit writes it and Main
	// reads and writes it across invocations.
	Static
	// StaticBody is local to StaticInit.
	StaticBody
	// MainBody is local to Main.
	MainBody
)

func (l StorageLocation) String() string {
	switch l {
	case Input:
		return "input"
	case Output:
		return "output"
	case Static:
		return "static"
	case StaticBody:
		return "static_body"
	case MainBody:
		return "main_body"
	}
	return "unknown"
}

// Variable is a storage slot with a concrete runtime type.
type Variable struct {
	Type     types.Type
	Location StorageLocation
}

// Program is the output of Trivialize.
type Program struct {
	Variables []Variable

	StaticInit []Instruction
	Main       []Instruction

	// StaticLabels and MainLabels count the labels of each stream.
	StaticLabels int
	MainLabels   int

	// Errors describes every runtime failure. Abort codes index it.
	Errors []string

	Inputs  []VariableHandle
	Outputs []VariableHandle
	Statics []VariableHandle
}

// AddVariable appends a variable.
func (p *Program) AddVariable(v Variable) VariableHandle {
	p.Variables = append(p.Variables, v)
	return VariableHandle(len(p.Variables) - 1)
}

// Variable returns the variable addressed by h.
func (p *Program) Variable(h VariableHandle) *Variable {
	return &p.Variables[h]
}

// NewLabel creates a label in the static-init or main namespace.
func (p *Program) NewLabel(static bool) LabelHandle {
	if static {
		p.StaticLabels++
		return LabelHandle(p.StaticLabels - 1)
	}
	p.MainLabels++
	return LabelHandle(p.MainLabels - 1)
}

// AddError records a runtime failure message and returns its code.
func (p *Program) AddError(description string) int {
	p.Errors = append(p.Errors, description)
	return len(p.Errors) - 1
}

// VariablesAt lists the variables stored at loc, in handle order.
func (p *Program) VariablesAt(loc StorageLocation) []VariableHandle {
	var out []VariableHandle
	for i, v := range p.Variables {
		if v.Location == loc {
			out = append(out, VariableHandle(i))
		}
	}
	return out
}
