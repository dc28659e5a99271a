// Package vague holds the first representation built from the syntax tree.
//
// A vague program is a tree of scopes over symbolic variables. Types are
// still expressions at this point and may only be bounded, not concrete;
// the resolver decides them. Variables and scopes live in append-only
// arenas owned by the Program and are addressed by handles that mean
// nothing outside it.
package vague

import (
	"fmt"
	"sort"

	"github.com/audiobench/nodespeak/source"
)

type (
	// VariableHandle addresses a variable in Program.Variables.
	VariableHandle uint32
	// ScopeHandle addresses a scope in Program.Scopes.
	ScopeHandle uint32
)

// NoScope marks the parent of a root scope.
const NoScope = ScopeHandle(^uint32(0))

// Variable is a symbolic variable.
type Variable struct {
	Name       string
	Definition source.Span
	// InitialValue is set for builtins and macros, whose value is known
	// before the program runs.
	InitialValue KnownData
	ReadOnly     bool
}

// Scope is a lexical scope with an ordered statement list.
type Scope struct {
	Parent  ScopeHandle
	Symbols map[string]VariableHandle
	Body    []Statement
	// Inputs and Outputs are set on macro bodies.
	Inputs  []VariableHandle
	Outputs []VariableHandle
}

// Program owns every scope and variable of a vague representation.
type Program struct {
	Scopes    []Scope
	Variables []Variable
	// Builtins is the outermost scope, holding AUTO, INT, PI, Sin and the
	// other predefined names. Entry is its only direct child.
	Builtins ScopeHandle
	Entry    ScopeHandle
	Inputs   []VariableHandle
	Outputs  []VariableHandle
}

// NewProgram creates a program holding the builtin scope and an empty
// entry scope.
func NewProgram() *Program {
	p := &Program{}
	p.Builtins = p.AddScope(NoScope)
	addBuiltins(p, p.Builtins)
	p.Entry = p.AddScope(p.Builtins)
	return p
}

// AddScope appends a new scope under parent.
func (p *Program) AddScope(parent ScopeHandle) ScopeHandle {
	p.Scopes = append(p.Scopes, Scope{Parent: parent, Symbols: map[string]VariableHandle{}})
	return ScopeHandle(len(p.Scopes) - 1)
}

// AddVariable appends a variable without binding a name to it.
func (p *Program) AddVariable(v Variable) VariableHandle {
	p.Variables = append(p.Variables, v)
	return VariableHandle(len(p.Variables) - 1)
}

// Define appends a variable and binds its name in scope. A later definition
// of the same name in the same scope shadows the earlier one.
func (p *Program) Define(scope ScopeHandle, v Variable) VariableHandle {
	h := p.AddVariable(v)
	p.Scopes[scope].Symbols[v.Name] = h
	return h
}

// Scope returns the scope addressed by h.
func (p *Program) Scope(h ScopeHandle) *Scope {
	return &p.Scopes[h]
}

// Variable returns the variable addressed by h.
func (p *Program) Variable(h VariableHandle) *Variable {
	return &p.Variables[h]
}

// AddStatement appends stmt to the body of scope.
func (p *Program) AddStatement(scope ScopeHandle, stmt Statement) {
	p.Scopes[scope].Body = append(p.Scopes[scope].Body, stmt)
}

// Lookup resolves name from scope outward.
func (p *Program) Lookup(scope ScopeHandle, name string) (VariableHandle, bool) {
	for s := scope; s != NoScope; s = p.Scopes[s].Parent {
		if h, ok := p.Scopes[s].Symbols[name]; ok {
			return h, true
		}
	}
	return 0, false
}

// VisibleNames lists every name reachable from scope, sorted.
func (p *Program) VisibleNames(scope ScopeHandle) []string {
	seen := map[string]bool{}
	var names []string
	for s := scope; s != NoScope; s = p.Scopes[s].Parent {
		for name := range p.Scopes[s].Symbols {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// VariableName returns a readable, unique name for h.
func (p *Program) VariableName(h VariableHandle) string {
	name := p.Variables[h].Name
	if name == "" {
		name = "tmp"
	}
	return fmt.Sprintf("%s#%d", name, h)
}
