package resolved

import (
	"github.com/audiobench/nodespeak/diag"
	"github.com/audiobench/nodespeak/source"
	"github.com/audiobench/nodespeak/types"
	"github.com/audiobench/nodespeak/vague"
)

func (r *resolver) statement(stmt vague.Statement) error {
	switch s := stmt.(type) {
	case *vague.CreationPoint:
		return r.creationPoint(s)
	case *vague.Assign:
		return r.assignStatement(s)
	case *vague.Assert:
		return r.assert(s)
	case *vague.Branch:
		return r.branch(s)
	case *vague.ForLoop:
		return r.forLoop(s)
	case *vague.StaticInit:
		return r.staticInit(s)
	case *vague.Block:
		return r.block(s.Body)
	case *vague.Return:
		if r.conditional > 0 {
			return diag.Errorf(diag.ConditionalReturn, s.Span,
				"return inside a branch or a run time loop cannot be decided at compile time")
		}
		r.returned = true
		return nil
	case *vague.RawExpression:
		return r.rawExpression(s)
	}
	panic("unreachable")
}

func (r *resolver) creationPoint(s *vague.CreationPoint) error {
	bound, err := r.typeValue(s.Type, diag.NotADataType)
	if err != nil {
		return err
	}
	v := r.src.Variable(s.Var)
	info := &varInfo{bound: bound, static: r.inStatic}
	if v.InitialValue != nil {
		r.setVarInfo(s.Var, info)
		r.setTemp(s.Var, r.fromKnown(v.InitialValue))
		return nil
	}
	if bound.Actual != nil && types.IsRuntime(bound.Actual) {
		r.addSlot(info, bound.Actual, v.Definition)
	}
	r.setVarInfo(s.Var, info)
	return nil
}

func (r *resolver) assignStatement(s *vague.Assign) error {
	value, err := r.expression(s.Value)
	if err != nil {
		return err
	}
	lv, err := r.target(s.Target)
	if err != nil {
		return err
	}
	return r.assign(lv, value, s.Span)
}

// assign stores v into lv. An automatic target takes the type of v. The
// tracked value is updated, and a store is emitted whenever the target has
// a runtime slot.
func (r *resolver) assign(lv lvalue, v rvalue, span source.Span) error {
	info := lv.info
	if lv.typ == nil {
		def := r.src.Variable(lv.base)
		switch types.Check(v.typ, info.bound) {
		case types.TooSmall:
			return diag.Errorf(diag.ValueTooSmall, v.span, "a value of type %s is smaller than %s allows", v.typ, info.bound).
				Hintf(def.Definition, "bound declared here")
		case types.TooBig:
			return diag.Errorf(diag.ValueTooBig, v.span, "a value of type %s is bigger than %s allows", v.typ, info.bound).
				Hintf(def.Definition, "bound declared here")
		}
		info.bound.Actual = v.typ
		lv.typ = v.typ
		if types.IsRuntime(v.typ) {
			r.addSlot(info, v.typ, def.Definition)
		}
	} else if !types.PromotesTo(v.typ, lv.typ) {
		return diag.Errorf(diag.MismatchedAssign, span, "cannot assign a value of type %s to a target of type %s", v.typ, lv.typ).
			Hintf(lv.span, "target has type %s", lv.typ).
			Hintf(v.span, "value has type %s", v.typ)
	}

	switch {
	case v.expr == nil && lv.dynamic == nil:
		r.storeKnown(lv, v)
	case !info.hasSlot:
		return diag.Errorf(diag.ValueNotRunTimeCompatible, v.span,
			"%s only exists at compile time, so it cannot hold a value computed at run time", r.src.Variable(lv.base).Name)
	default:
		dims := types.Dims(info.bound.Actual)
		r.setItem(lv.base, info, lv.known, unknownOfShape(dims[len(lv.known):]))
	}
	if !info.hasSlot {
		return nil
	}

	value, err := r.asExpr(v)
	if err != nil {
		return err
	}
	indexes := lv.dynamic
	if indexes == nil {
		for _, k := range lv.known {
			indexes = append(indexes, intLiteral(k, lv.span))
		}
	}
	r.emit(&Assign{
		Target: &Target{Var: info.slot, Indexes: indexes, Typ: lv.typ, Span: lv.span},
		Value:  value,
		Span:   span,
	})
	return nil
}

// storeKnown records a known value, broadcasting it over the target
// element when the target is bigger.
func (r *resolver) storeKnown(lv lvalue, v rvalue) {
	if lv.typ == v.typ {
		r.setItem(lv.base, lv.info, lv.known, copyDatum(v.known))
		return
	}
	valueDims := types.Dims(v.typ)
	for _, coord := range types.Coordinates(types.Dims(lv.typ)) {
		elem := item(v.known, types.Broadcast(coord, valueDims))
		at := append(append([]int(nil), lv.known...), coord...)
		r.setItem(lv.base, lv.info, at, copyDatum(elem))
	}
}

func (r *resolver) assert(s *vague.Assert) error {
	cond, err := r.expression(s.Condition)
	if err != nil {
		return err
	}
	if cond.typ != types.Bool {
		return diag.Errorf(diag.WrongType, cond.span, "assert needs a BOOL condition, found %s", cond.typ)
	}
	if cond.expr == nil {
		if cond.known.(boolDatum) {
			return nil
		}
		return diag.Errorf(diag.GuaranteedAssert, s.Span, "this assertion always fails")
	}
	r.emit(&Assert{Condition: cond.expr, Span: s.Span})
	return nil
}

// clauseBody resolves a body that may or may not run into a fresh scope.
func (r *resolver) clauseBody(body vague.ScopeHandle) (ScopeHandle, error) {
	scope := r.out.AddScope()
	old := r.current
	r.current = scope
	defer func() { r.current = old }()
	defer r.enterBranchBody()()
	r.conditional++
	defer func() { r.conditional-- }()
	return scope, r.block(body)
}

func (r *resolver) branch(s *vague.Branch) error {
	var clauses []Clause
	for _, c := range s.Clauses {
		cond, err := r.expression(c.Condition)
		if err != nil {
			return err
		}
		if cond.typ != types.Bool {
			return diag.Errorf(diag.WrongType, cond.span, "if needs a BOOL condition, found %s", cond.typ)
		}
		if cond.expr == nil {
			taken := bool(cond.known.(boolDatum))
			if taken && len(clauses) == 0 {
				return r.block(c.Body)
			}
			if !taken {
				continue
			}
		}
		condition, err := r.asExpr(cond)
		if err != nil {
			return err
		}
		body, err := r.clauseBody(c.Body)
		if err != nil {
			return err
		}
		clauses = append(clauses, Clause{Condition: condition, Body: body})
	}

	elseBody := NoScope
	if s.Else != vague.NoScope {
		if len(clauses) == 0 {
			return r.block(s.Else)
		}
		body, err := r.clauseBody(s.Else)
		if err != nil {
			return err
		}
		elseBody = body
	}
	if len(clauses) > 0 {
		r.emit(&Branch{Clauses: clauses, Else: elseBody, Span: s.Span})
	}
	return nil
}

func (r *resolver) loopBounds(s *vague.ForLoop) (start, end rvalue, err error) {
	if start, err = r.expression(s.Start); err != nil {
		return
	}
	if end, err = r.expression(s.End); err != nil {
		return
	}
	for _, b := range []rvalue{start, end} {
		if b.typ != types.Int {
			err = diag.Errorf(diag.LoopBoundsNotInt, b.span, "loop bounds must be INT, found %s", b.typ)
			return
		}
	}
	return start, end, nil
}

func (r *resolver) forLoop(s *vague.ForLoop) error {
	start, end, err := r.loopBounds(s)
	if err != nil {
		return err
	}
	if start.expr == nil && end.expr == nil && s.AllowUnroll && r.opts.Unroll {
		from, to := int(start.known.(intDatum)), int(end.known.(intDatum))
		if r.opts.MaxUnroll <= 0 || to-from <= r.opts.MaxUnroll {
			return r.unroll(s, from, to)
		}
	}

	info := &varInfo{bound: types.Exactly(types.Int), static: r.inStatic}
	r.addSlot(info, types.Int, r.src.Variable(s.Counter).Definition)
	r.setVarInfo(s.Counter, info)

	// The first pass only finds out which variables the body writes. Its
	// statements are dropped.
	if err := r.loopPass(s.Body, discard); err != nil {
		return err
	}
	body := r.out.AddScope()
	if err := r.loopPass(s.Body, body); err != nil {
		return err
	}

	startExpr, err := r.asExpr(start)
	if err != nil {
		return err
	}
	endExpr, err := r.asExpr(end)
	if err != nil {
		return err
	}
	r.emit(&ForLoop{Counter: info.slot, Start: startExpr, End: endExpr, Body: body, Span: s.Span})
	return nil
}

func (r *resolver) loopPass(body vague.ScopeHandle, into ScopeHandle) error {
	old, wasDiscarding := r.current, r.discarding
	r.current = into
	r.discarding = wasDiscarding || into == discard
	defer func() { r.current, r.discarding = old, wasDiscarding }()
	defer r.pushTable(r.table.clone())()
	defer r.enterBranchBody()()
	r.conditional++
	defer func() { r.conditional-- }()
	return r.block(body)
}

func (r *resolver) unroll(s *vague.ForLoop, from, to int) error {
	for i := from; i < to && !r.returned; i++ {
		if err := r.iteration(s, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) iteration(s *vague.ForLoop, i int) error {
	defer r.pushTable(r.table.clone())()
	r.setVarInfo(s.Counter, &varInfo{bound: types.Exactly(types.Int), static: r.inStatic})
	r.setTemp(s.Counter, intDatum(i))
	return r.block(s.Body)
}

func (r *resolver) staticInit(s *vague.StaticInit) error {
	exported, err := r.staticBody(s)
	if err != nil {
		return err
	}
	for i, v := range s.Exports {
		info := &varInfo{slot: exported[i].slot, hasSlot: true, bound: exported[i].bound, static: true}
		r.setVarInfo(v, info)
		if !r.discarding {
			r.out.Statics = append(r.out.Statics, info.slot)
		}
	}
	return nil
}

func (r *resolver) staticBody(s *vague.StaticInit) ([]varInfo, error) {
	old, wasStatic := r.current, r.inStatic
	into := r.out.StaticInit
	if r.discarding {
		into = discard
	}
	r.current, r.inStatic = into, true
	defer func() { r.current, r.inStatic = old, wasStatic }()
	defer r.pushTable(r.table.clone())()

	if err := r.block(s.Body); err != nil {
		return nil, err
	}
	exported := make([]varInfo, len(s.Exports))
	for i, v := range s.Exports {
		info := r.info(v)
		if !info.hasSlot {
			def := r.src.Variable(v)
			return nil, diag.Errorf(diag.CompileTimeExport, s.Span,
				"%s has type %s, which cannot be kept from static initialization to run time", def.Name, info.bound).
				Hintf(def.Definition, "declared here")
		}
		exported[i] = *info
	}
	return exported, nil
}

func (r *resolver) rawExpression(s *vague.RawExpression) error {
	v, err := r.expression(s.Value)
	if err != nil {
		return err
	}
	if v.expr == nil {
		if _, ok := v.known.(voidDatum); ok {
			return nil
		}
	}
	return diag.Errorf(diag.DanglingValue, s.Span, "a value of type %s is computed and then thrown away", v.typ)
}

// macroCall inlines a macro into a fresh scope. Inputs are bound in the
// caller's context, the body is resolved in the macro's captured context,
// and outputs are copied to their targets through ordinary assignment.
func (r *resolver) macroCall(e *vague.MacroCall) (rvalue, error) {
	m, err := r.expression(e.Macro)
	if err != nil {
		return rvalue{}, err
	}
	if m.typ != types.Macro {
		return rvalue{}, diag.Errorf(diag.NotAMacro, m.span, "a value of type %s cannot be called", m.typ)
	}
	if m.expr != nil {
		return rvalue{}, diag.Errorf(diag.MacroNotCompileTime, m.span, "the macro to call must be known at compile time")
	}
	md := m.known.(*macroDatum)
	body := r.src.Scope(md.data.Body)

	inputs := make([]rvalue, len(e.Inputs))
	for i, in := range e.Inputs {
		if inputs[i], err = r.expression(in); err != nil {
			return rvalue{}, err
		}
	}
	if len(inputs) != len(body.Inputs) {
		return rvalue{}, diag.Errorf(diag.WrongNumberOfInputs, e.Span,
			"the macro takes %d inputs but %d were given", len(body.Inputs), len(inputs)).
			Hintf(md.data.Header, "macro defined here")
	}
	if len(e.Outputs) != len(body.Outputs) {
		return rvalue{}, diag.Errorf(diag.WrongNumberOfOutputs, e.Span,
			"the macro has %d outputs but %d were given", len(body.Outputs), len(e.Outputs)).
			Hintf(md.data.Header, "macro defined here")
	}

	scope := r.out.AddScope()
	result, err := r.inline(e, md, scope, inputs)
	if err != nil {
		return rvalue{}, err
	}
	if len(r.out.Scope(scope).Body) > 0 {
		r.emit(&MacroCall{Body: scope, Span: e.Span})
	}
	return result, nil
}

func (r *resolver) inline(e *vague.MacroCall, md *macroDatum, scope ScopeHandle, inputs []rvalue) (rvalue, error) {
	body := r.src.Scope(md.data.Body)
	old, conditional, returned := r.current, r.conditional, r.returned
	r.current, r.conditional, r.returned = scope, 0, false
	defer func() { r.current, r.conditional, r.returned = old, conditional, returned }()
	caller := r.table
	defer r.pushTable(md.ctx.clone())()

	for i, in := range inputs {
		v := body.Inputs[i]
		info := &varInfo{bound: types.Exactly(in.typ), static: r.inStatic}
		if in.expr == nil {
			r.setVarInfo(v, info)
			r.setTemp(v, in.known)
			continue
		}
		r.addSlot(info, in.typ, in.span)
		r.setVarInfo(v, info)
		r.emit(&Assign{
			Target: &Target{Var: info.slot, Typ: in.typ, Span: in.span},
			Value:  in.expr,
			Span:   in.span,
		})
	}

	if err := r.block(md.data.Body); err != nil {
		return rvalue{}, err
	}
	r.returned = false

	// Output targets are written in the caller's context, which may refer
	// to variables the macro cannot see.
	for k, v := range caller {
		r.table[k] = v
	}
	result := knownValue(voidDatum{}, types.Void, e.Span)
	for i, out := range e.Outputs {
		if out.Inline {
			v, err := r.readVar(body.Outputs[i], e.Span)
			if err != nil {
				return rvalue{}, err
			}
			result = v
			continue
		}
		lv, err := r.target(out.Target)
		if err != nil {
			return rvalue{}, err
		}
		v, err := r.readVar(body.Outputs[i], out.Span)
		if err != nil {
			return rvalue{}, err
		}
		if err := r.assign(lv, v, out.Span); err != nil {
			return rvalue{}, err
		}
	}
	return result, nil
}
