package vague

import (
	"strconv"
	"strings"

	"github.com/audiobench/nodespeak/source"
	"github.com/audiobench/nodespeak/types"
)

// KnownData is a value known before the program runs. It is a closed
// union; every use site switches over the concrete types below.
type KnownData interface {
	knownData()
	String() string
}

type (
	VoidData  struct{}
	BoolData  bool
	IntData   int64
	FloatData float64
	// TypeData is a type value such as INT or <FLOAT, [8]FLOAT>.
	TypeData types.Bound
	// ArrayData is a homogeneous array; nested arrays have equal shapes.
	ArrayData []KnownData
)

// MacroData refers to a macro definition.
type MacroData struct {
	Body   ScopeHandle
	Header source.Span
}

func (VoidData) knownData()   {}
func (BoolData) knownData()   {}
func (IntData) knownData()    {}
func (FloatData) knownData()  {}
func (TypeData) knownData()   {}
func (*MacroData) knownData() {}
func (ArrayData) knownData()  {}

func (VoidData) String() string { return "VOID" }

func (b BoolData) String() string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (i IntData) String() string { return strconv.FormatInt(int64(i), 10) }

func (f FloatData) String() string { return FormatFloat(float64(f)) }

func (t TypeData) String() string { return types.Bound(t).String() }

func (m *MacroData) String() string { return "macro#" + strconv.Itoa(int(m.Body)) }

func (a ArrayData) String() string {
	parts := make([]string, len(a))
	for i, item := range a {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatFloat renders f so that it always reads back as a float.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// TypeOfKnown returns the concrete type of a known value.
func TypeOfKnown(d KnownData) types.Type {
	switch d := d.(type) {
	case VoidData:
		return types.Void
	case BoolData:
		return types.Bool
	case IntData:
		return types.Int
	case FloatData:
		return types.Float
	case TypeData:
		return types.DataType
	case *MacroData:
		return types.Macro
	case ArrayData:
		if len(d) == 0 {
			return types.Array{Len: 0, Elem: types.Void}
		}
		return types.Array{Len: len(d), Elem: TypeOfKnown(d[0])}
	}
	panic("unreachable")
}
