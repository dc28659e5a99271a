package resolved

import (
	"math"

	"github.com/audiobench/nodespeak/diag"
	"github.com/audiobench/nodespeak/source"
	"github.com/audiobench/nodespeak/types"
	"github.com/audiobench/nodespeak/vague"
)

// datum is what the resolver knows about a value. It is a closed union.
// An arrayDatum may mix known and unknown elements; a datum is known only
// when no unknownDatum appears anywhere inside it.
type datum interface {
	isDatum()
}

type (
	unknownDatum struct{}
	voidDatum    struct{}
	boolDatum    bool
	intDatum     int64
	floatDatum   float64
	typeDatum    types.Bound
	arrayDatum   []datum
)

// macroDatum is a macro together with the variable table visible where it
// was defined.
type macroDatum struct {
	data *vague.MacroData
	ctx  table
}

func (unknownDatum) isDatum() {}
func (voidDatum) isDatum()    {}
func (boolDatum) isDatum()    {}
func (intDatum) isDatum()     {}
func (floatDatum) isDatum()   {}
func (typeDatum) isDatum()    {}
func (arrayDatum) isDatum()   {}
func (*macroDatum) isDatum()  {}

// unknownOfShape returns a datum of nested arrays of the given dimensions
// whose leaves are all unknown.
func unknownOfShape(dims []int) datum {
	if len(dims) == 0 {
		return unknownDatum{}
	}
	items := make(arrayDatum, dims[0])
	for i := range items {
		items[i] = unknownOfShape(dims[1:])
	}
	return items
}

func isKnown(d datum) bool {
	switch d := d.(type) {
	case unknownDatum:
		return false
	case arrayDatum:
		for _, item := range d {
			if !isKnown(item) {
				return false
			}
		}
	}
	return true
}

func copyDatum(d datum) datum {
	if a, ok := d.(arrayDatum); ok {
		out := make(arrayDatum, len(a))
		for i, item := range a {
			out[i] = copyDatum(item)
		}
		return out
	}
	return d
}

// fromKnown converts a vague constant. Macros capture ctx.
func fromKnown(k vague.KnownData, ctx table) datum {
	switch k := k.(type) {
	case vague.VoidData:
		return voidDatum{}
	case vague.BoolData:
		return boolDatum(k)
	case vague.IntData:
		return intDatum(k)
	case vague.FloatData:
		return floatDatum(k)
	case vague.TypeData:
		return typeDatum(k)
	case *vague.MacroData:
		return &macroDatum{data: k, ctx: ctx}
	case vague.ArrayData:
		out := make(arrayDatum, len(k))
		for i, item := range k {
			out[i] = fromKnown(item, ctx)
		}
		return out
	}
	panic("unreachable")
}

// toRuntime converts a known datum to a constant that can live in a
// runtime slot.
func toRuntime(d datum) (vague.KnownData, bool) {
	switch d := d.(type) {
	case boolDatum:
		return vague.BoolData(d), true
	case intDatum:
		return vague.IntData(d), true
	case floatDatum:
		return vague.FloatData(d), true
	case arrayDatum:
		out := make(vague.ArrayData, len(d))
		for i, item := range d {
			k, ok := toRuntime(item)
			if !ok {
				return nil, false
			}
			out[i] = k
		}
		return out, true
	}
	return nil, false
}

// item walks into d along coord.
func item(d datum, coord []int) datum {
	for _, c := range coord {
		d = d.(arrayDatum)[c]
	}
	return d
}

// broadcastTo expands d to the result shape dims.
func broadcastTo(d datum, from []int, dims []int) datum {
	if len(dims) == 0 {
		return d
	}
	out := make(arrayDatum, dims[0])
	for i := range out {
		switch {
		case len(from) == 0:
			out[i] = broadcastTo(d, nil, dims[1:])
		case from[0] == 1:
			out[i] = broadcastTo(d.(arrayDatum)[0], from[1:], dims[1:])
		default:
			out[i] = broadcastTo(d.(arrayDatum)[i], from[1:], dims[1:])
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Constant folding. Results are rounded to the 32-bit runtime types so that
// folding agrees with the generated code.
// ---------------------------------------------------------------------------

func wrapInt(v int64) intDatum { return intDatum(int32(v)) }

func roundFloat(v float64) floatDatum { return floatDatum(float32(v)) }

func computeUnary(op vague.UnaryOperator, d datum) datum {
	if a, ok := d.(arrayDatum); ok {
		out := make(arrayDatum, len(a))
		for i, item := range a {
			out[i] = computeUnary(op, item)
		}
		return out
	}
	switch op {
	case vague.Not:
		return !d.(boolDatum)
	case vague.BNot:
		return wrapInt(^int64(d.(intDatum)))
	case vague.Negate:
		if i, ok := d.(intDatum); ok {
			return wrapInt(-int64(i))
		}
		return -d.(floatDatum)
	case vague.Abs:
		if i, ok := d.(intDatum); ok {
			if i < 0 {
				return wrapInt(-int64(i))
			}
			return i
		}
		return floatDatum(math.Abs(float64(d.(floatDatum))))
	case vague.Ftoi:
		return wrapInt(int64(float64(d.(floatDatum))))
	case vague.Itof:
		return roundFloat(float64(d.(intDatum)))
	}
	f := float64(d.(floatDatum))
	switch op {
	case vague.Sin:
		f = math.Sin(f)
	case vague.Cos:
		f = math.Cos(f)
	case vague.Sqrt:
		f = math.Sqrt(f)
	case vague.Exp:
		f = math.Exp(f)
	case vague.Exp2:
		f = math.Exp2(f)
	case vague.Log:
		f = math.Log(f)
	case vague.Log10:
		f = math.Log10(f)
	case vague.Log2:
		f = math.Log2(f)
	case vague.Floor:
		f = math.Floor(f)
	case vague.Ceil:
		f = math.Ceil(f)
	case vague.Trunc:
		f = math.Trunc(f)
	}
	return roundFloat(f)
}

// computeBinary folds op over two known operands of types lt and rt,
// broadcasting both to result.
func computeBinary(op vague.BinaryOperator, l, r datum, lt, rt, result types.Type, span source.Span) (datum, error) {
	dims := types.Dims(result)
	if len(dims) == 0 {
		return computeScalar(op, l, r, span)
	}
	l = broadcastTo(l, types.Dims(lt), dims)
	r = broadcastTo(r, types.Dims(rt), dims)
	out := copyDatum(unknownOfShape(dims))
	for _, coord := range types.Coordinates(dims) {
		v, err := computeScalar(op, item(l, coord), item(r, coord), span)
		if err != nil {
			return nil, err
		}
		setItem(&out, coord, v)
	}
	return out, nil
}

func setItem(d *datum, coord []int, v datum) {
	if len(coord) == 0 {
		*d = v
		return
	}
	a := (*d).(arrayDatum)
	setItem(&a[coord[0]], coord[1:], v)
}

func computeScalar(op vague.BinaryOperator, l, r datum, span source.Span) (datum, error) {
	switch l := l.(type) {
	case intDatum:
		return computeInt(op, int64(l), int64(r.(intDatum)), span)
	case floatDatum:
		return computeFloat(op, float64(l), float64(r.(floatDatum))), nil
	case boolDatum:
		b := bool(r.(boolDatum))
		switch op {
		case vague.And:
			return boolDatum(bool(l) && b), nil
		case vague.Or:
			return boolDatum(bool(l) || b), nil
		case vague.Xor, vague.NotEqual:
			return boolDatum(bool(l) != b), nil
		case vague.Equal:
			return boolDatum(bool(l) == b), nil
		}
	case typeDatum:
		eq := types.Bound(l) == types.Bound(r.(typeDatum))
		if op == vague.NotEqual {
			eq = !eq
		}
		return boolDatum(eq), nil
	}
	panic("unreachable")
}

func computeInt(op vague.BinaryOperator, a, b int64, span source.Span) (datum, error) {
	switch op {
	case vague.Add:
		return wrapInt(a + b), nil
	case vague.Subtract:
		return wrapInt(a - b), nil
	case vague.Multiply:
		return wrapInt(a * b), nil
	case vague.Divide, vague.Modulo:
		if b == 0 {
			return nil, diag.Errorf(diag.DivisionByZero, span, "integer division by zero")
		}
		if op == vague.Divide {
			return wrapInt(a / b), nil
		}
		return wrapInt(a % b), nil
	case vague.Power:
		if b < 0 {
			return nil, diag.Errorf(diag.NegativeExponent, span, "integer power with negative exponent %d", b)
		}
		result := int64(1)
		for base := a; b > 0; b >>= 1 {
			if b&1 == 1 {
				result = int64(int32(result * base))
			}
			base = int64(int32(base * base))
		}
		return wrapInt(result), nil
	case vague.BAnd:
		return wrapInt(a & b), nil
	case vague.BOr:
		return wrapInt(a | b), nil
	case vague.BXor:
		return wrapInt(a ^ b), nil
	case vague.LeftShift:
		return wrapInt(int64(int32(a) << (uint32(b) & 31))), nil
	case vague.RightShift:
		return wrapInt(int64(int32(a) >> (uint32(b) & 31))), nil
	case vague.Equal:
		return boolDatum(a == b), nil
	case vague.NotEqual:
		return boolDatum(a != b), nil
	case vague.LessThan:
		return boolDatum(a < b), nil
	case vague.GreaterThan:
		return boolDatum(a > b), nil
	case vague.LessThanOrEqual:
		return boolDatum(a <= b), nil
	case vague.GreaterThanOrEqual:
		return boolDatum(a >= b), nil
	}
	panic("unreachable")
}

func computeFloat(op vague.BinaryOperator, a, b float64) datum {
	switch op {
	case vague.Add:
		return roundFloat(a + b)
	case vague.Subtract:
		return roundFloat(a - b)
	case vague.Multiply:
		return roundFloat(a * b)
	case vague.Divide:
		return roundFloat(a / b)
	case vague.Modulo:
		return roundFloat(math.Mod(a, b))
	case vague.Power:
		return roundFloat(math.Pow(a, b))
	case vague.Equal:
		return boolDatum(a == b)
	case vague.NotEqual:
		return boolDatum(a != b)
	case vague.LessThan:
		return boolDatum(a < b)
	case vague.GreaterThan:
		return boolDatum(a > b)
	case vague.LessThanOrEqual:
		return boolDatum(a <= b)
	case vague.GreaterThanOrEqual:
		return boolDatum(a >= b)
	}
	panic("unreachable")
}
