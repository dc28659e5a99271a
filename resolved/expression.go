package resolved

import (
	"github.com/audiobench/nodespeak/diag"
	"github.com/audiobench/nodespeak/source"
	"github.com/audiobench/nodespeak/types"
	"github.com/audiobench/nodespeak/vague"
)

// rvalue is a resolved value-producing expression. Exactly one of known
// and expr is set; a known datum is always fully known.
type rvalue struct {
	known datum
	expr  Expression
	typ   types.Type
	span  source.Span
	// partial is what is known about the elements of a runtime array read
	// straight from a variable.
	partial datum
}

func knownValue(d datum, t types.Type, span source.Span) rvalue {
	return rvalue{known: d, typ: t, span: span}
}

func runtimeValue(e Expression) rvalue {
	return rvalue{expr: e, typ: e.Type(), span: e.Pos()}
}

// asExpr turns v into a runtime expression, embedding a known value as a
// literal.
func (r *resolver) asExpr(v rvalue) (Expression, error) {
	if v.expr != nil {
		return v.expr, nil
	}
	k, ok := toRuntime(v.known)
	if !ok {
		return nil, diag.Errorf(diag.ValueNotRunTimeCompatible, v.span,
			"a value of type %s only exists at compile time and cannot be used at run time", v.typ)
	}
	return &Literal{Value: k, Typ: v.typ, Span: v.span}, nil
}

func intLiteral(n int, span source.Span) *Literal {
	return &Literal{Value: vague.IntData(n), Typ: types.Int, Span: span}
}

// fromKnown converts a constant. Macros capture the current table.
func (r *resolver) fromKnown(k vague.KnownData) datum {
	if _, ok := k.(*vague.MacroData); ok {
		return fromKnown(k, r.table.clone())
	}
	return fromKnown(k, nil)
}

func (r *resolver) crossStream(v vague.VariableHandle, span source.Span) error {
	def := r.src.Variable(v)
	return diag.Errorf(diag.MainVariableInStaticInit, span,
		"%s belongs to the main body and cannot be used while initializing statics", def.Name).
		Hintf(def.Definition, "declared here")
}

func (r *resolver) expression(e vague.VPExpression) (rvalue, error) {
	switch e := e.(type) {
	case *vague.Literal:
		return knownValue(r.fromKnown(e.Value), vague.TypeOfKnown(e.Value), e.Span), nil
	case *vague.VariableRef:
		return r.readVar(e.Var, e.Span)
	case *vague.Collect:
		return r.collect(e)
	case *vague.TypeBound:
		return r.typeBound(e)
	case *vague.BuildArrayType:
		return r.buildArrayType(e)
	case *vague.Index:
		return r.index(e)
	case *vague.PropertyAccess:
		return r.property(e)
	case *vague.UnaryOperation:
		return r.unary(e)
	case *vague.BinaryOperation:
		return r.binary(e)
	case *vague.MacroCall:
		return r.macroCall(e)
	}
	panic("unreachable")
}

func (r *resolver) readVar(v vague.VariableHandle, span source.Span) (rvalue, error) {
	info := r.info(v)
	if info.bound.Actual == nil {
		def := r.src.Variable(v)
		return rvalue{}, diag.Errorf(diag.UnresolvedBoundVar, span,
			"%s is read before anything was assigned to it, so its type is still %s", def.Name, info.bound).
			Hintf(def.Definition, "declared here")
	}
	// Static init runs before main, so a main variable with storage has no
	// value yet, even when its value here is known.
	if r.inStatic && !info.static && info.hasSlot {
		return rvalue{}, r.crossStream(v, span)
	}
	d := r.value(v, info)
	if isKnown(d) {
		return knownValue(copyDatum(d), info.bound.Actual, span), nil
	}
	if r.inStatic && !info.static {
		return rvalue{}, r.crossStream(v, span)
	}
	if !info.hasSlot {
		return rvalue{}, diag.Errorf(diag.ValueNotRunTimeCompatible, span,
			"the value of %s is not known at compile time, but its type %s cannot exist at run time",
			r.src.Variable(v).Name, info.bound.Actual)
	}
	rv := runtimeValue(&VariableRef{Var: info.slot, Typ: info.bound.Actual, Span: span})
	rv.partial = d
	return rv, nil
}

func (r *resolver) collect(e *vague.Collect) (rvalue, error) {
	if len(e.Items) == 0 {
		return rvalue{}, diag.Errorf(diag.EmptyArrayLiteral, e.Span, "array literals must have at least one item")
	}
	items := make([]rvalue, len(e.Items))
	allKnown := true
	for i, item := range e.Items {
		v, err := r.expression(item)
		if err != nil {
			return rvalue{}, err
		}
		if i > 0 && v.typ != items[0].typ {
			return rvalue{}, diag.Errorf(diag.BadArrayLiteral, v.span,
				"this item has type %s but the first item has type %s", v.typ, items[0].typ).
				Hintf(items[0].span, "first item")
		}
		items[i] = v
		allKnown = allKnown && v.expr == nil
	}
	typ := types.Array{Len: len(items), Elem: items[0].typ}
	if allKnown {
		data := make(arrayDatum, len(items))
		for i, item := range items {
			data[i] = item.known
		}
		return knownValue(data, typ, e.Span), nil
	}
	exprs := make([]Expression, len(items))
	for i, item := range items {
		ex, err := r.asExpr(item)
		if err != nil {
			return rvalue{}, err
		}
		exprs[i] = ex
	}
	return runtimeValue(&Collect{Items: exprs, Typ: typ, Span: e.Span}), nil
}

// typeValue resolves e as a type. kind is reported when e is not one.
func (r *resolver) typeValue(e vague.VPExpression, kind diag.Kind) (types.Bound, error) {
	v, err := r.expression(e)
	if err != nil {
		return types.Bound{}, err
	}
	if v.typ != types.DataType {
		return types.Bound{}, diag.Errorf(kind, v.span, "expected a data type, found a value of type %s", v.typ)
	}
	if v.expr != nil {
		return types.Bound{}, diag.Errorf(diag.TypeNotCompileTime, v.span, "types must be known at compile time")
	}
	return types.Bound(v.known.(typeDatum)), nil
}

func (r *resolver) concreteType(e vague.VPExpression) (types.Type, error) {
	b, err := r.typeValue(e, diag.NotADataType)
	if err != nil {
		return nil, err
	}
	if b.Actual == nil || b.Lower != nil || b.Upper != nil {
		return nil, diag.Errorf(diag.NotADataType, e.Pos(), "expected a concrete type, found %s", b)
	}
	return b.Actual, nil
}

func (r *resolver) typeBound(e *vague.TypeBound) (rvalue, error) {
	var b types.Bound
	var err error
	if e.Lower != nil {
		if b.Lower, err = r.concreteType(e.Lower); err != nil {
			return rvalue{}, err
		}
	}
	if e.Upper != nil {
		if b.Upper, err = r.concreteType(e.Upper); err != nil {
			return rvalue{}, err
		}
	}
	if !b.Consistent() {
		return rvalue{}, diag.Errorf(diag.ContradictoryBound, e.Span,
			"%s does not promote to %s", b.Lower, b.Upper)
	}
	return knownValue(typeDatum(b), types.DataType, e.Span), nil
}

func (r *resolver) buildArrayType(e *vague.BuildArrayType) (rvalue, error) {
	dims := make([]int, len(e.Dims))
	for i, d := range e.Dims {
		v, err := r.expression(d)
		if err != nil {
			return rvalue{}, err
		}
		if v.expr != nil {
			return rvalue{}, diag.Errorf(diag.ArraySizeNotResolved, v.span, "array sizes must be known at compile time")
		}
		n, ok := v.known.(intDatum)
		if !ok {
			return rvalue{}, diag.Errorf(diag.ArraySizeNotInt, v.span, "array sizes must be INT, found %s", v.typ)
		}
		if n < 1 {
			return rvalue{}, diag.Errorf(diag.ArraySizeLessThanOne, v.span, "array size %d is less than one", n)
		}
		dims[i] = int(n)
	}
	base, err := r.typeValue(e.Base, diag.ArrayBaseNotType)
	if err != nil {
		return rvalue{}, err
	}
	return knownValue(typeDatum(base.Wrap(dims)), types.DataType, e.Span), nil
}

func (r *resolver) checkIndex(idx rvalue, length int, whole source.Span) error {
	if idx.typ != types.Int {
		return diag.Errorf(diag.ArrayIndexNotInt, idx.span, "array indexes must be INT, found %s", idx.typ).
			Hintf(whole, "while indexing here")
	}
	if idx.expr != nil {
		return nil
	}
	n := int(idx.known.(intDatum))
	if n < 0 {
		return diag.Errorf(diag.ArrayIndexLessThanZero, idx.span, "index %d is negative", n).
			Hintf(whole, "while indexing here")
	}
	if n >= length {
		return diag.Errorf(diag.ArrayIndexTooBig, idx.span, "index %d is out of range for an array of length %d", n, length).
			Hintf(whole, "while indexing here")
	}
	return nil
}

func (r *resolver) index(e *vague.Index) (rvalue, error) {
	v, err := r.expression(e.Base)
	if err != nil {
		return rvalue{}, err
	}
	for _, arg := range e.Indexes {
		idx, err := r.expression(arg.Expr)
		if err != nil {
			return rvalue{}, err
		}
		arr, ok := v.typ.(types.Array)
		if !ok {
			if arg.Optional {
				continue
			}
			return rvalue{}, diag.Errorf(diag.CannotIndex, e.Span, "cannot index a value of type %s", v.typ).
				Hintf(idx.span, "index")
		}
		if err := r.checkIndex(idx, arr.Len, e.Span); err != nil {
			return rvalue{}, err
		}
		span := v.span.Union(idx.span)
		if v.expr == nil && idx.expr == nil {
			v = knownValue(v.known.(arrayDatum)[int(idx.known.(intDatum))], arr.Elem, span)
			continue
		}
		var partial datum
		if elems, ok := v.partial.(arrayDatum); ok && idx.expr == nil {
			partial = elems[int(idx.known.(intDatum))]
			if isKnown(partial) {
				v = knownValue(copyDatum(partial), arr.Elem, span)
				continue
			}
		}

		ie, err := r.asExpr(idx)
		if err != nil {
			return rvalue{}, err
		}
		base := v.expr
		if base == nil {
			k, ok := toRuntime(v.known)
			if !ok {
				return rvalue{}, diag.Errorf(diag.RTIndexesOnCTVariable, e.Span,
					"a value of type %s cannot be indexed by a run time index", v.typ)
			}
			base = &Literal{Value: k, Typ: v.typ, Span: v.span}
		}
		if prev, ok := base.(*Index); ok {
			indexes := append(append([]Expression(nil), prev.Indexes...), ie)
			v = runtimeValue(&Index{Base: prev.Base, Indexes: indexes, Typ: arr.Elem, Span: span})
		} else {
			v = runtimeValue(&Index{Base: base, Indexes: []Expression{ie}, Typ: arr.Elem, Span: span})
		}
		v.partial = partial
	}
	return v, nil
}

func (r *resolver) property(e *vague.PropertyAccess) (rvalue, error) {
	v, err := r.expression(e.Base)
	if err != nil {
		return rvalue{}, err
	}
	if e.Property == vague.PropertyType {
		return knownValue(typeDatum(types.Exactly(v.typ)), types.DataType, e.Span), nil
	}

	t := v.typ
	if td, ok := v.known.(typeDatum); ok {
		if td.Actual == nil {
			return rvalue{}, diag.Errorf(diag.UnresolvedBoundVar, e.Span, "%s has no dimensions until it is concrete", types.Bound(td))
		}
		t = td.Actual
	}
	dims := types.Dims(t)
	if len(dims) == 0 {
		return knownValue(intDatum(1), types.Int, e.Span), nil
	}
	data := make(arrayDatum, len(dims))
	for i, d := range dims {
		data[i] = intDatum(d)
	}
	return knownValue(data, types.Array{Len: len(dims), Elem: types.Int}, e.Span), nil
}

func unaryAccepts(op vague.UnaryOperator, base types.Type) bool {
	switch op {
	case vague.Not:
		return base == types.Bool
	case vague.BNot, vague.Itof:
		return base == types.Int
	case vague.Negate, vague.Abs:
		return base == types.Int || base == types.Float
	}
	return base == types.Float
}

func (r *resolver) unary(e *vague.UnaryOperation) (rvalue, error) {
	v, err := r.expression(e.Operand)
	if err != nil {
		return rvalue{}, err
	}
	if !unaryAccepts(e.Op, types.Base(v.typ)) {
		return rvalue{}, diag.Errorf(diag.BadOperandType, e.Span, "%s cannot be applied to a value of type %s", e.Op, v.typ)
	}
	typ := v.typ
	switch e.Op {
	case vague.Ftoi:
		typ = types.WithBase(typ, types.Int)
	case vague.Itof:
		typ = types.WithBase(typ, types.Float)
	}
	if v.expr == nil {
		return knownValue(computeUnary(e.Op, v.known), typ, e.Span), nil
	}
	return runtimeValue(&Unary{Op: e.Op, Operand: v.expr, Typ: typ, Span: e.Span}), nil
}

func binaryAccepts(op vague.BinaryOperator, base types.Type) bool {
	switch op {
	case vague.Add, vague.Subtract, vague.Multiply, vague.Divide, vague.Modulo, vague.Power,
		vague.LessThan, vague.GreaterThan, vague.LessThanOrEqual, vague.GreaterThanOrEqual:
		return base == types.Int || base == types.Float
	case vague.LeftShift, vague.RightShift, vague.BAnd, vague.BOr, vague.BXor:
		return base == types.Int
	case vague.And, vague.Or, vague.Xor:
		return base == types.Bool
	case vague.Equal, vague.NotEqual:
		switch base {
		case types.Bool, types.Int, types.Float, types.DataType:
			return true
		}
	}
	return false
}

func (r *resolver) binary(e *vague.BinaryOperation) (rvalue, error) {
	l, err := r.expression(e.Left)
	if err != nil {
		return rvalue{}, err
	}
	rv, err := r.expression(e.Right)
	if err != nil {
		return rvalue{}, err
	}
	switch e.Op {
	case vague.As:
		return r.as(e, l, rv)
	case vague.In:
		if rv.typ != types.DataType || rv.expr != nil {
			return rvalue{}, diag.Errorf(diag.BadOperandType, rv.span, "the right side of in must be a data type, found %s", rv.typ)
		}
		b := types.Bound(rv.known.(typeDatum))
		fits := types.Check(l.typ, b) == types.Fits && (b.Actual == nil || types.PromotesTo(l.typ, b.Actual))
		return knownValue(boolDatum(fits), types.Bool, e.Span), nil
	}

	bct, ok := types.Biggest(l.typ, rv.typ)
	if !ok {
		return rvalue{}, diag.Errorf(diag.NoBCTBinop, e.Span, "%s cannot combine %s and %s", e.Op, l.typ, rv.typ).
			Hintf(l.span, "left side has type %s", l.typ).
			Hintf(rv.span, "right side has type %s", rv.typ)
	}
	if !binaryAccepts(e.Op, types.Base(bct)) {
		return rvalue{}, diag.Errorf(diag.BadOperandType, e.Span, "%s cannot be applied to values of type %s", e.Op, bct)
	}
	typ := bct
	if e.Op.IsComparison() {
		typ = types.WithBase(bct, types.Bool)
	}
	if l.expr == nil && rv.expr == nil {
		d, err := computeBinary(e.Op, l.known, rv.known, l.typ, rv.typ, bct, e.Span)
		if err != nil {
			return rvalue{}, err
		}
		return knownValue(d, typ, e.Span), nil
	}
	le, err := r.asExpr(l)
	if err != nil {
		return rvalue{}, err
	}
	re, err := r.asExpr(rv)
	if err != nil {
		return rvalue{}, err
	}
	return runtimeValue(&Binary{Op: e.Op, Left: le, Right: re, Typ: typ, Span: e.Span}), nil
}

// as reinterprets l as a bigger type. Known values are inflated right away.
// Runtime values are broadcast into a fresh temporary.
func (r *resolver) as(e *vague.BinaryOperation, l, rv rvalue) (rvalue, error) {
	if rv.typ != types.DataType || rv.expr != nil {
		return rvalue{}, diag.Errorf(diag.BadOperandType, rv.span, "the right side of as must be a data type, found %s", rv.typ)
	}
	b := types.Bound(rv.known.(typeDatum))
	if b.Actual == nil || b.Lower != nil || b.Upper != nil {
		return rvalue{}, diag.Errorf(diag.AsTypeBound, rv.span, "as needs a concrete type, found %s", b)
	}
	target := b.Actual
	if !types.PromotesTo(l.typ, target) {
		return rvalue{}, diag.Errorf(diag.CannotInflate, e.Span, "a value of type %s cannot be inflated to %s", l.typ, target)
	}
	if l.expr == nil {
		return knownValue(broadcastTo(l.known, types.Dims(l.typ), types.Dims(target)), target, e.Span), nil
	}
	if l.typ == target {
		return l, nil
	}
	tmp := r.out.AddVariable(Variable{Type: target, Definition: e.Span})
	r.emit(&Assign{
		Target: &Target{Var: tmp, Typ: target, Span: e.Span},
		Value:  l.expr,
		Span:   e.Span,
	})
	return runtimeValue(&VariableRef{Var: tmp, Typ: target, Span: e.Span}), nil
}

// lvalue is a resolved assignment target. known holds the leading indexes
// that were known at compile time. dynamic is set once any index is only
// known at run time, and then holds every index.
type lvalue struct {
	base    vague.VariableHandle
	info    *varInfo
	known   []int
	dynamic []Expression
	// typ is the type of the element written, or nil while the variable is
	// automatic.
	typ  types.Type
	span source.Span
}

func (r *resolver) target(e *vague.VCExpression) (lvalue, error) {
	info := r.info(e.Base)
	if r.inStatic && !info.static {
		return lvalue{}, r.crossStream(e.Base, e.Span)
	}
	lv := lvalue{base: e.Base, info: info, typ: info.bound.Actual, span: e.Span}
	for _, index := range e.Indexes {
		arr, ok := lv.typ.(types.Array)
		if !ok {
			what := "a value of type " + info.bound.String()
			if lv.typ != nil {
				what = "a value of type " + lv.typ.String()
			}
			return lvalue{}, diag.Errorf(diag.CannotIndex, e.Span, "cannot index %s", what).
				Hintf(index.Pos(), "index")
		}
		idx, err := r.expression(index)
		if err != nil {
			return lvalue{}, err
		}
		if err := r.checkIndex(idx, arr.Len, e.Span); err != nil {
			return lvalue{}, err
		}
		lv.typ = arr.Elem
		if idx.expr == nil && lv.dynamic == nil {
			lv.known = append(lv.known, int(idx.known.(intDatum)))
			continue
		}
		if lv.dynamic == nil {
			if !info.hasSlot {
				return lvalue{}, diag.Errorf(diag.RTIndexesOnCTVariable, e.Span,
					"%s only exists at compile time and cannot be indexed by a run time index", r.src.Variable(e.Base).Name)
			}
			lv.dynamic = make([]Expression, 0, len(e.Indexes))
			for _, k := range lv.known {
				lv.dynamic = append(lv.dynamic, intLiteral(k, e.Span))
			}
		}
		ie, err := r.asExpr(idx)
		if err != nil {
			return lvalue{}, err
		}
		lv.dynamic = append(lv.dynamic, ie)
	}
	return lv, nil
}
