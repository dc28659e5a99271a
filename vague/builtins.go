package vague

import (
	"math"

	"github.com/audiobench/nodespeak/source"
	"github.com/audiobench/nodespeak/types"
)

// builtinMacros are the unary math macros. Each has the body
// `AUTO out; out = op(in);`.
var builtinMacros = []struct {
	name, in, out string
	op            UnaryOperator
}{
	{"Ftoi", "float", "int", Ftoi},
	{"Itof", "int", "float", Itof},
	{"Sin", "radians", "ratio", Sin},
	{"Cos", "radians", "ratio", Cos},
	{"Sqrt", "value", "result", Sqrt},
	{"Exp", "power", "result", Exp},
	{"Exp2", "power", "result", Exp2},
	{"Log", "value", "power", Log},
	{"Log10", "value", "power", Log10},
	{"Log2", "value", "power", Log2},
	{"Abs", "value", "result", Abs},
	{"Floor", "value", "result", Floor},
	{"Ceil", "value", "result", Ceil},
	{"Trunc", "value", "result", Trunc},
}

func typeLiteral(b types.Bound) *Literal {
	return &Literal{Value: TypeData(b), Span: source.Builtin}
}

func addBuiltins(p *Program, scope ScopeHandle) {
	constant := func(name string, typ types.Type, value KnownData) {
		v := p.Define(scope, Variable{
			Name:         name,
			Definition:   source.Builtin,
			InitialValue: value,
			ReadOnly:     true,
		})
		p.AddStatement(scope, &CreationPoint{Var: v, Type: typeLiteral(types.Exactly(typ)), Span: source.Builtin})
	}

	for _, t := range []struct {
		name  string
		bound types.Bound
	}{
		{"AUTO", types.Bound{}},
		{"BOOL", types.Exactly(types.Bool)},
		{"INT", types.Exactly(types.Int)},
		{"FLOAT", types.Exactly(types.Float)},
		{"DATA_TYPE", types.Exactly(types.DataType)},
		{"MACRO", types.Exactly(types.Macro)},
	} {
		constant(t.name, types.DataType, TypeData(t.bound))
	}

	constant("PI", types.Float, FloatData(math.Pi))
	constant("TAU", types.Float, FloatData(2*math.Pi))
	constant("E", types.Float, FloatData(math.E))
	constant("TRUE", types.Bool, BoolData(true))
	constant("FALSE", types.Bool, BoolData(false))

	for _, m := range builtinMacros {
		body := p.AddScope(scope)
		in := p.Define(body, Variable{Name: m.in, Definition: source.Builtin})
		out := p.Define(body, Variable{Name: m.out, Definition: source.Builtin})
		p.AddStatement(body, &CreationPoint{Var: out, Type: typeLiteral(types.Bound{}), Span: source.Builtin})
		p.AddStatement(body, &Assign{
			Target: &VCExpression{Base: out, Span: source.Builtin},
			Value: &UnaryOperation{
				Op:      m.op,
				Operand: &VariableRef{Var: in, Span: source.Builtin},
				Span:    source.Builtin,
			},
			Span: source.Builtin,
		})
		sc := p.Scope(body)
		sc.Inputs = []VariableHandle{in}
		sc.Outputs = []VariableHandle{out}

		constant(m.name, types.Macro, &MacroData{Body: body, Header: source.Builtin})
	}
}
