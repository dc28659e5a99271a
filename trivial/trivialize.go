package trivial

import (
	"github.com/pkg/errors"

	"github.com/audiobench/nodespeak/resolved"
	"github.com/audiobench/nodespeak/source"
	"github.com/audiobench/nodespeak/types"
	"github.com/audiobench/nodespeak/vague"
)

type trivializer struct {
	src *resolved.Program
	set *source.Set
	out *Program

	// vars maps resolved variables to trivial ones for the stream being
	// lowered. Statics are shared by both streams.
	vars map[resolved.VariableHandle]VariableHandle
	// illegal holds the variables that only exist in Main.
	illegal map[resolved.VariableHandle]struct{}
	static  bool
}

// Trivialize lowers a resolved program. It only fails when prog breaks an
// assumption the resolver guarantees, and such errors carry a stack trace.
// set formats the positions recorded for runtime assertion failures and
// may be nil.
func Trivialize(prog *resolved.Program, set *source.Set) (*Program, error) {
	t := &trivializer{
		src:  prog,
		set:  set,
		out:  &Program{},
		vars: map[resolved.VariableHandle]VariableHandle{},
	}
	if err := t.entry(); err != nil {
		return nil, err
	}
	return t.out, nil
}

func (t *trivializer) entry() error {
	for _, v := range t.src.Statics {
		t.out.Statics = append(t.out.Statics, t.variableAt(v, Static))
	}
	shared := make(map[resolved.VariableHandle]VariableHandle, len(t.vars))
	for k, v := range t.vars {
		shared[k] = v
	}
	for _, v := range t.src.Inputs {
		t.out.Inputs = append(t.out.Inputs, t.variableAt(v, Input))
	}
	for _, v := range t.src.Outputs {
		t.out.Outputs = append(t.out.Outputs, t.variableAt(v, Output))
	}

	if err := t.scope(t.src.Entry); err != nil {
		return errors.Wrap(err, "main")
	}

	t.illegal = map[resolved.VariableHandle]struct{}{}
	for v := range t.vars {
		if _, ok := shared[v]; !ok {
			t.illegal[v] = struct{}{}
		}
	}
	t.vars = shared
	t.static = true
	return errors.Wrap(t.scope(t.src.StaticInit), "static init")
}

func (t *trivializer) emit(inst Instruction) {
	if t.static {
		t.out.StaticInit = append(t.out.StaticInit, inst)
	} else {
		t.out.Main = append(t.out.Main, inst)
	}
}

func (t *trivializer) label() LabelHandle {
	return t.out.NewLabel(t.static)
}

func (t *trivializer) location() StorageLocation {
	if t.static {
		return StaticBody
	}
	return MainBody
}

func (t *trivializer) temp(typ types.Type) Value {
	v := t.out.AddVariable(Variable{Type: typ, Location: t.location()})
	return VariableValue(t.out, v)
}

func (t *trivializer) variableAt(v resolved.VariableHandle, loc StorageLocation) VariableHandle {
	if h, ok := t.vars[v]; ok {
		return h
	}
	h := t.out.AddVariable(Variable{Type: t.src.Variable(v).Type, Location: loc})
	t.vars[v] = h
	return h
}

func (t *trivializer) variable(v resolved.VariableHandle) (Value, error) {
	if _, ok := t.illegal[v]; ok && t.static {
		return Value{}, errors.Errorf("variable %d of the main body is used while initializing statics", v)
	}
	return VariableValue(t.out, t.variableAt(v, t.location())), nil
}

func (t *trivializer) describe(span source.Span) string {
	if t.set == nil {
		return span.String()
	}
	return t.set.Describe(span)
}

func coordValues(coord []int) []Value {
	out := make([]Value, len(coord))
	for i, c := range coord {
		out[i] = IntValue(c)
	}
	return out
}

// constIndexes returns the indexes as numbers when all of them are
// literals.
func constIndexes(indexes []resolved.Expression) ([]int, bool) {
	out := make([]int, 0, len(indexes))
	for _, idx := range indexes {
		lit, ok := idx.(*resolved.Literal)
		if !ok {
			return nil, false
		}
		out = append(out, int(lit.Value.(vague.IntData)))
	}
	return out, true
}

// copyInto moves every element of from into to, broadcasting from.
func (t *trivializer) copyInto(from, to Value) error {
	dims := lens(to.Dims)
	from, err := from.Inflate(dims)
	if err != nil {
		return err
	}
	for _, c := range types.Coordinates(dims) {
		t.emit(&Move{From: from.At(c), To: to.At(c)})
	}
	return nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (t *trivializer) scope(h resolved.ScopeHandle) error {
	for _, stmt := range t.src.Scope(h).Body {
		if err := t.statement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (t *trivializer) statement(stmt resolved.Statement) error {
	switch s := stmt.(type) {
	case *resolved.Assign:
		return t.assign(s)
	case *resolved.Assert:
		return t.assert(s)
	case *resolved.Branch:
		return t.branch(s)
	case *resolved.ForLoop:
		return t.forLoop(s)
	case *resolved.MacroCall:
		return t.scope(s.Body)
	}
	return errors.Errorf("unexpected statement %T", stmt)
}

func (t *trivializer) indexValues(indexes []resolved.Expression) ([]Value, error) {
	out := []Value{IntValue(0)}
	for _, idx := range indexes {
		v, err := t.expression(idx)
		if err != nil {
			return nil, err
		}
		if !v.IsScalar() {
			return nil, errors.Errorf("index %s is not a scalar", v)
		}
		out = append(out, v)
	}
	return out, nil
}

func (t *trivializer) assign(s *resolved.Assign) error {
	dest, err := t.variable(s.Target.Var)
	if err != nil {
		return err
	}
	consts, known := constIndexes(s.Target.Indexes)
	var indexes []Value
	if !known {
		if indexes, err = t.indexValues(s.Target.Indexes); err != nil {
			return err
		}
	}
	value, err := t.expression(s.Value)
	if err != nil {
		return err
	}
	if known {
		return t.copyInto(value, dest.At(consts))
	}

	dims := types.Dims(s.Target.Typ)
	value, err = value.Inflate(dims)
	if err != nil {
		return err
	}
	for _, c := range types.Coordinates(dims) {
		t.emit(&Store{
			From:    value.At(c),
			To:      dest,
			Indexes: append(append([]Value(nil), indexes...), coordValues(c)...),
		})
	}
	return nil
}

func (t *trivializer) assert(s *resolved.Assert) error {
	cond, err := t.expression(s.Condition)
	if err != nil {
		return err
	}
	abort, skip := t.label(), t.label()
	t.emit(&Branch{Condition: cond, True: skip, False: abort})
	t.emit(&Label{Label: abort})
	code := t.out.AddError("assertion failed at " + t.describe(s.Span))
	t.emit(&Abort{Code: code})
	t.emit(&Label{Label: skip})
	return nil
}

// branch lowers each clause to a test, a body and a jump to the end.
func (t *trivializer) branch(s *resolved.Branch) error {
	end := t.label()
	for _, c := range s.Clauses {
		cond, err := t.expression(c.Condition)
		if err != nil {
			return err
		}
		body, next := t.label(), t.label()
		t.emit(&Branch{Condition: cond, True: body, False: next})
		t.emit(&Label{Label: body})
		if err := t.scope(c.Body); err != nil {
			return err
		}
		t.emit(&Jump{Label: end})
		t.emit(&Label{Label: next})
	}
	if s.Else != resolved.NoScope {
		if err := t.scope(s.Else); err != nil {
			return err
		}
	}
	t.emit(&Label{Label: end})
	return nil
}

// forLoop lowers a pre-tested loop. The counter is incremented and tested
// again before jumping back.
func (t *trivializer) forLoop(s *resolved.ForLoop) error {
	start, end := t.label(), t.label()
	counter, err := t.variable(s.Counter)
	if err != nil {
		return err
	}
	from, err := t.expression(s.Start)
	if err != nil {
		return err
	}
	to, err := t.expression(s.End)
	if err != nil {
		return err
	}
	t.emit(&Move{From: from, To: counter})
	cond := t.temp(types.Bool)
	t.emit(&Binary{Op: CompI, Cond: LessThan, A: counter, B: to, X: cond})
	t.emit(&Branch{Condition: cond, True: start, False: end})

	t.emit(&Label{Label: start})
	if err := t.scope(s.Body); err != nil {
		return err
	}
	t.emit(&Binary{Op: AddI, A: counter, B: IntValue(1), X: counter})
	t.emit(&Binary{Op: CompI, Cond: LessThan, A: counter, B: to, X: cond})
	t.emit(&Branch{Condition: cond, True: start, False: end})
	t.emit(&Label{Label: end})
	return nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (t *trivializer) expression(e resolved.Expression) (Value, error) {
	switch e := e.(type) {
	case *resolved.Literal:
		return LiteralValue(e.Value), nil
	case *resolved.VariableRef:
		return t.variable(e.Var)
	case *resolved.Index:
		return t.index(e)
	case *resolved.Collect:
		return t.collect(e)
	case *resolved.Unary:
		return t.unary(e)
	case *resolved.Binary:
		return t.binary(e)
	}
	return Value{}, errors.Errorf("unexpected expression %T", e)
}

func (t *trivializer) index(e *resolved.Index) (Value, error) {
	base, err := t.expression(e.Base)
	if err != nil {
		return Value{}, err
	}
	if consts, ok := constIndexes(e.Indexes); ok {
		return base.At(consts), nil
	}

	// Runtime indexes need memory to point into.
	if base.IsLiteral() || base.proxied() {
		tmp := t.temp(base.Type(t.out))
		if err := t.copyInto(base, tmp); err != nil {
			return Value{}, err
		}
		base = tmp
	}
	indexes, err := t.indexValues(e.Indexes)
	if err != nil {
		return Value{}, err
	}
	prefix := append([]Value{indexes[0]}, coordValues(base.Coord)...)
	indexes = append(prefix, indexes[1:]...)

	whole := VariableValue(t.out, base.Var)
	result := t.temp(e.Typ)
	for _, c := range types.Coordinates(types.Dims(e.Typ)) {
		t.emit(&Load{
			From:    whole,
			Indexes: append(append([]Value(nil), indexes...), coordValues(c)...),
			To:      result.At(c),
		})
	}
	return result, nil
}

func (t *trivializer) collect(e *resolved.Collect) (Value, error) {
	result := t.temp(e.Typ)
	for i, item := range e.Items {
		v, err := t.expression(item)
		if err != nil {
			return Value{}, err
		}
		if err := t.copyInto(v, result.Index(i)); err != nil {
			return Value{}, err
		}
	}
	return result, nil
}

func unaryOp(op vague.UnaryOperator, base types.Type) (UnaryOp, error) {
	float := base == types.Float
	switch op {
	case vague.Negate:
		if float {
			return NegF, nil
		}
		return NegI, nil
	case vague.Abs:
		if float {
			return FAbs, nil
		}
		return IAbs, nil
	case vague.Not:
		return Not, nil
	case vague.BNot:
		return BNot, nil
	case vague.Sin:
		return FSin, nil
	case vague.Cos:
		return FCos, nil
	case vague.Sqrt:
		return FSqrt, nil
	case vague.Exp:
		return FExp, nil
	case vague.Exp2:
		return FExp2, nil
	case vague.Log:
		return FLog, nil
	case vague.Log10:
		return FLog10, nil
	case vague.Log2:
		return FLog2, nil
	case vague.Floor:
		return FFloor, nil
	case vague.Ceil:
		return FCeil, nil
	case vague.Trunc:
		return FTrunc, nil
	case vague.Ftoi:
		return Ftoi, nil
	case vague.Itof:
		return Itof, nil
	}
	return 0, errors.Errorf("no instruction for %s on %s", op, base)
}

func (t *trivializer) unary(e *resolved.Unary) (Value, error) {
	a, err := t.expression(e.Operand)
	if err != nil {
		return Value{}, err
	}
	op, err := unaryOp(e.Op, types.Base(e.Operand.Type()))
	if err != nil {
		return Value{}, err
	}
	x := t.temp(e.Typ)
	for _, c := range types.Coordinates(types.Dims(e.Typ)) {
		t.emit(&Unary{Op: op, A: a.At(c), X: x.At(c)})
	}
	return x, nil
}

var comparisons = map[vague.BinaryOperator]Condition{
	vague.LessThan:           LessThan,
	vague.GreaterThan:        GreaterThan,
	vague.LessThanOrEqual:    LessThanOrEqual,
	vague.GreaterThanOrEqual: GreaterThanOrEqual,
	vague.Equal:              Equal,
	vague.NotEqual:           NotEqual,
}

func binaryOp(op vague.BinaryOperator, base types.Type) (BinaryOp, Condition, error) {
	float := base == types.Float
	pick := func(i, f BinaryOp) (BinaryOp, Condition, error) {
		if float {
			return f, 0, nil
		}
		return i, 0, nil
	}
	if cond, ok := comparisons[op]; ok {
		if float {
			return CompF, cond, nil
		}
		return CompI, cond, nil
	}
	switch op {
	case vague.Add:
		return pick(AddI, AddF)
	case vague.Subtract:
		return pick(SubI, SubF)
	case vague.Multiply:
		return pick(MulI, MulF)
	case vague.Divide:
		return pick(DivI, DivF)
	case vague.Modulo:
		return pick(ModI, ModF)
	case vague.Power:
		return pick(PowI, PowF)
	case vague.BAnd:
		return BAnd, 0, nil
	case vague.BOr:
		return BOr, 0, nil
	case vague.BXor:
		return BXor, 0, nil
	case vague.LeftShift:
		return LeftShift, 0, nil
	case vague.RightShift:
		return RightShift, 0, nil
	case vague.And:
		return And, 0, nil
	case vague.Or:
		return Or, 0, nil
	case vague.Xor:
		return Xor, 0, nil
	}
	return 0, 0, errors.Errorf("no instruction for %s on %s", op, base)
}

// binary expands an elementwise operation into one instruction per
// coordinate of the result, broadcasting both operands.
func (t *trivializer) binary(e *resolved.Binary) (Value, error) {
	a, err := t.expression(e.Left)
	if err != nil {
		return Value{}, err
	}
	b, err := t.expression(e.Right)
	if err != nil {
		return Value{}, err
	}
	op, cond, err := binaryOp(e.Op, types.Base(e.Left.Type()))
	if err != nil {
		return Value{}, err
	}
	dims := types.Dims(e.Typ)
	if a, err = a.Inflate(dims); err != nil {
		return Value{}, err
	}
	if b, err = b.Inflate(dims); err != nil {
		return Value{}, err
	}
	x := t.temp(e.Typ)
	for _, c := range types.Coordinates(dims) {
		t.emit(&Binary{Op: op, Cond: cond, A: a.At(c), B: b.At(c), X: x.At(c)})
	}
	return x, nil
}
