// Package types implements the type algebra shared by every stage: the
// concrete types, bounded types for values whose type is not yet known, and
// the biggest-compatible-type rules that drive promotion and broadcasting.
package types

import (
	"fmt"
	"strings"
)

// Type is a concrete type. It is a closed union of Primitive and Array.
// Types are comparable with ==.
type Type interface {
	String() string
	isType()
}

// Primitive is a non-array type.
type Primitive uint8

const (
	Void Primitive = iota
	Bool
	Int
	Float
	// DataType is the type of type values, such as INT itself.
	DataType
	// Macro is the type of macro references.
	Macro
)

func (Primitive) isType() {}

func (p Primitive) String() string {
	switch p {
	case Void:
		return "VOID"
	case Bool:
		return "BOOL"
	case Int:
		return "INT"
	case Float:
		return "FLOAT"
	case DataType:
		return "DATA_TYPE"
	case Macro:
		return "MACRO"
	}
	return fmt.Sprintf("Primitive(%d)", uint8(p))
}

// Array is a fixed-length array of Elem.
type Array struct {
	Len  int
	Elem Type
}

func (Array) isType() {}

func (a Array) String() string {
	return fmt.Sprintf("[%d]%s", a.Len, a.Elem)
}

// ArrayOf wraps base in arrays of the given dimensions, outermost first.
func ArrayOf(dims []int, base Type) Type {
	t := base
	for i := len(dims) - 1; i >= 0; i-- {
		t = Array{Len: dims[i], Elem: t}
	}
	return t
}

// Dims lists the array dimensions of t, outermost first. A scalar has none.
func Dims(t Type) []int {
	var dims []int
	for {
		a, ok := t.(Array)
		if !ok {
			return dims
		}
		dims = append(dims, a.Len)
		t = a.Elem
	}
}

// Base returns the innermost non-array type of t.
func Base(t Type) Type {
	for {
		a, ok := t.(Array)
		if !ok {
			return t
		}
		t = a.Elem
	}
}

// WithBase replaces the innermost type of t, keeping its dimensions.
func WithBase(t, base Type) Type {
	return ArrayOf(Dims(t), base)
}

// Indexed returns the type of t[i]. An optional index applied to a
// non-array yields the value itself.
func Indexed(t Type, optional bool) (Type, bool) {
	if a, ok := t.(Array); ok {
		return a.Elem, true
	}
	if optional {
		return t, true
	}
	return nil, false
}

// IsRuntime reports whether values of t can live in a runtime slot: BOOL,
// INT, FLOAT and arrays of them.
func IsRuntime(t Type) bool {
	switch Base(t) {
	case Bool, Int, Float:
		return true
	}
	return false
}

// Size returns the number of scalar elements in t.
func Size(t Type) int {
	n := 1
	for _, d := range Dims(t) {
		n *= d
	}
	return n
}

// Bound describes what is known about the type of a value. Actual is set
// once the type is concrete. Lower and Upper limit what Actual may become;
// a nil side is unbounded. The zero Bound is AUTO.
type Bound struct {
	Actual Type
	Lower  Type
	Upper  Type
}

// Exactly returns the bound of a value whose type is t.
func Exactly(t Type) Bound {
	return Bound{Actual: t}
}

// IsAutomatic reports whether the concrete type is still unknown.
func (b Bound) IsAutomatic() bool {
	return b.Actual == nil
}

// WithBase replaces the innermost type of every side of b.
func (b Bound) WithBase(base Type) Bound {
	out := Bound{}
	if b.Actual != nil {
		out.Actual = WithBase(b.Actual, base)
	}
	if b.Lower != nil {
		out.Lower = WithBase(b.Lower, base)
	}
	if b.Upper != nil {
		out.Upper = WithBase(b.Upper, base)
	}
	return out
}

// Wrap places every side of b inside arrays of the given dimensions.
func (b Bound) Wrap(dims []int) Bound {
	out := Bound{}
	if b.Actual != nil {
		out.Actual = ArrayOf(dims, b.Actual)
	}
	if b.Lower != nil {
		out.Lower = ArrayOf(dims, b.Lower)
	}
	if b.Upper != nil {
		out.Upper = ArrayOf(dims, b.Upper)
	}
	return out
}

func (b Bound) String() string {
	if b.Lower == nil && b.Upper == nil {
		if b.Actual == nil {
			return "AUTO"
		}
		return b.Actual.String()
	}
	var sb strings.Builder
	sb.WriteString("<")
	if b.Lower != nil {
		sb.WriteString(b.Lower.String())
		sb.WriteString(", ")
	}
	if b.Upper != nil {
		sb.WriteString(b.Upper.String())
	} else {
		sb.WriteString("AUTO")
	}
	sb.WriteString(">")
	if b.Actual != nil {
		sb.WriteString(" = ")
		sb.WriteString(b.Actual.String())
	}
	return sb.String()
}
