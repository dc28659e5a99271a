package trivial

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/audiobench/nodespeak/types"
	"github.com/audiobench/nodespeak/vague"
)

// ProxyMode says how one dimension of a broadcast value maps onto its
// base.
type ProxyMode uint8

const (
	// Keep passes the coordinate through.
	Keep ProxyMode = iota
	// Discard ignores the coordinate. The base has no such dimension.
	Discard
	// Collapse pins the coordinate to 0 in a length-1 base dimension.
	Collapse
)

// Dim is one dimension of a Value.
type Dim struct {
	Len  int
	Mode ProxyMode
}

// Value is an operand: a literal or a variable, viewed through a fixed
// element coordinate and a proxy over the remaining dimensions.
// Broadcasting never copies data; it only changes Dims.
type Value struct {
	// Literal is set for constants. Var is meaningless then.
	Literal vague.KnownData
	Var     VariableHandle
	// Coord selects an element of the variable before Dims apply.
	Coord []int
	Dims  []Dim
}

func keepAll(t types.Type) []Dim {
	dims := types.Dims(t)
	out := make([]Dim, len(dims))
	for i, d := range dims {
		out[i] = Dim{Len: d}
	}
	return out
}

// VariableValue views all of v.
func VariableValue(p *Program, v VariableHandle) Value {
	return Value{Var: v, Dims: keepAll(p.Variables[v].Type)}
}

// LiteralValue wraps a constant.
func LiteralValue(k vague.KnownData) Value {
	return Value{Literal: k, Dims: keepAll(vague.TypeOfKnown(k))}
}

// IntValue is an INT constant.
func IntValue(n int) Value {
	return Value{Literal: vague.IntData(n)}
}

// IsLiteral reports whether v is a constant.
func (v Value) IsLiteral() bool {
	return v.Literal != nil
}

// IsScalar reports whether v names a single element.
func (v Value) IsScalar() bool {
	return len(v.Dims) == 0
}

// proxied reports whether any dimension of v is broadcast.
func (v Value) proxied() bool {
	for _, d := range v.Dims {
		if d.Mode != Keep {
			return true
		}
	}
	return false
}

func lens(dims []Dim) []int {
	out := make([]int, len(dims))
	for i, d := range dims {
		out[i] = d.Len
	}
	return out
}

// Type returns the type v presents, after proxying.
func (v Value) Type(p *Program) types.Type {
	var base types.Type
	if v.IsLiteral() {
		base = types.Base(vague.TypeOfKnown(v.Literal))
	} else {
		base = types.Base(p.Variables[v.Var].Type)
	}
	return types.ArrayOf(lens(v.Dims), base)
}

// Index views element i of the outermost dimension.
func (v Value) Index(i int) Value {
	d := v.Dims[0]
	out := Value{Literal: v.Literal, Var: v.Var, Coord: v.Coord, Dims: v.Dims[1:]}
	switch d.Mode {
	case Discard:
		return out
	case Collapse:
		i = 0
	}
	if out.IsLiteral() {
		out.Literal = out.Literal.(vague.ArrayData)[i]
		return out
	}
	out.Coord = append(append([]int(nil), v.Coord...), i)
	return out
}

// At views the element at coord.
func (v Value) At(coord []int) Value {
	for _, c := range coord {
		v = v.Index(c)
	}
	return v
}

// Inflate broadcasts v to dims. Dimensions are aligned outermost first.
// Missing trailing dimensions are discarded and length-1 dimensions
// collapse.
func (v Value) Inflate(dims []int) (Value, error) {
	if len(v.Dims) > len(dims) {
		return Value{}, errors.Errorf("cannot inflate %s to %v: too many dimensions", v, dims)
	}
	out := v
	out.Dims = make([]Dim, len(dims))
	for i, target := range dims {
		switch {
		case i >= len(v.Dims):
			out.Dims[i] = Dim{Len: target, Mode: Discard}
		case v.Dims[i].Len == target:
			out.Dims[i] = v.Dims[i]
		case v.Dims[i].Len == 1:
			out.Dims[i] = Dim{Len: target, Mode: Collapse}
		default:
			return Value{}, errors.Errorf("cannot inflate %s to %v: dimension %d has length %d", v, dims, i, v.Dims[i].Len)
		}
	}
	return out, nil
}

func (v Value) String() string {
	var sb strings.Builder
	if len(v.Dims) > 0 {
		parts := make([]string, len(v.Dims))
		for i, d := range v.Dims {
			switch d.Mode {
			case Keep:
				parts[i] = fmt.Sprint(d.Len)
			case Discard:
				parts[i] = fmt.Sprintf("%d>X", d.Len)
			case Collapse:
				parts[i] = fmt.Sprintf("%d>1", d.Len)
			}
		}
		sb.WriteString("{" + strings.Join(parts, ", ") + "}")
	}
	if v.IsLiteral() {
		sb.WriteString(formatLiteral(v.Literal))
		return sb.String()
	}
	fmt.Fprintf(&sb, "tv%d", v.Var)
	for _, c := range v.Coord {
		fmt.Fprintf(&sb, "[%d]", c)
	}
	return sb.String()
}

func formatLiteral(k vague.KnownData) string {
	switch k := k.(type) {
	case vague.IntData:
		return fmt.Sprintf("%di32", int64(k))
	case vague.FloatData:
		return vague.FormatFloat(float64(k)) + "f32"
	case vague.BoolData:
		return fmt.Sprintf("%tb1", bool(k))
	case vague.ArrayData:
		parts := make([]string, len(k))
		for i, item := range k {
			parts[i] = formatLiteral(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return k.String()
}
