package vague

import (
	"errors"
	"math"
	"os"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/audiobench/nodespeak/diag"
	"github.com/audiobench/nodespeak/source"
	"github.com/audiobench/nodespeak/syntax"
	"github.com/audiobench/nodespeak/types"
)

// Ingest parses file from set and builds its vague program. Included files
// are loaded through the set.
func Ingest(set *source.Set, file int) (*Program, error) {
	tree, err := syntax.ParseFile(set, file)
	if err != nil {
		return nil, err
	}
	return IngestTree(set, file, tree)
}

// IngestTree builds a vague program from an already parsed file.
func IngestTree(set *source.Set, file int, tree *syntax.File) (*Program, error) {
	prog := NewProgram()
	in := &ingester{
		set:      set,
		prog:     prog,
		current:  prog.Entry,
		included: []map[int]bool{{file: true}},
	}
	for _, stmt := range tree.Statements {
		if err := in.statement(stmt); err != nil {
			return nil, err
		}
	}
	return prog, nil
}

type ingester struct {
	set     *source.Set
	prog    *Program
	current ScopeHandle
	// included holds, per nested block, the files already pulled in by
	// include statements. A file is included at most once per chain.
	included   []map[int]bool
	macroDepth int
}

func (in *ingester) add(stmt Statement) {
	in.prog.AddStatement(in.current, stmt)
}

// enterScope makes a child of the current scope current and returns a func
// restoring the previous one.
func (in *ingester) enterScope() (ScopeHandle, func()) {
	old := in.current
	in.current = in.prog.AddScope(old)
	in.included = append(in.included, map[int]bool{})
	return in.current, func() {
		in.current = old
		in.included = in.included[:len(in.included)-1]
	}
}

func (in *ingester) block(b *syntax.Block) error {
	for _, stmt := range b.Statements {
		if err := in.statement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (in *ingester) blockInNewScope(b *syntax.Block) (ScopeHandle, error) {
	scope, exit := in.enterScope()
	defer exit()
	return scope, in.block(b)
}

// lookup resolves a name, suggesting similar names when it is missing.
func (in *ingester) lookup(id *syntax.Ident) (VariableHandle, error) {
	if h, ok := in.prog.Lookup(in.current, id.Name); ok {
		return h, nil
	}
	p := diag.Errorf(diag.NoEntityWithName, id.Span, "cannot find anything named %q in this scope", id.Name)
	if guess := closestName(id.Name, in.prog.VisibleNames(in.current)); guess != "" {
		p.Hintf(id.Span, "did you mean %q?", guess)
	}
	return 0, p
}

// closestName picks the candidate the name most plausibly misspells.
func closestName(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	best, bestDistance := "", 3
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(name, c); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best
}

func (in *ingester) define(id *syntax.Ident) VariableHandle {
	return in.prog.Define(in.current, Variable{Name: id.Name, Definition: id.Span})
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (in *ingester) statement(stmt syntax.Stmt) error {
	switch s := stmt.(type) {
	case *syntax.IODecl:
		return in.ioDecl(s)
	case *syntax.DeclStmt:
		_, err := in.declare(s.Decl)
		return err
	case *syntax.AssignStmt:
		value, err := in.vpe(s.Value)
		if err != nil {
			return err
		}
		target, err := in.vce(s.Target)
		if err != nil {
			return err
		}
		in.add(&Assign{Target: target, Value: value, Span: s.Span})
		return nil
	case *syntax.MacroDef:
		return in.macroDef(s)
	case *syntax.MacroCallStmt:
		call, err := in.macroCall(s.Call, false)
		if err != nil {
			return err
		}
		in.add(&RawExpression{Value: call, Span: s.Span})
		return nil
	case *syntax.ExprStmt:
		value, err := in.vpe(s.Expr)
		if err != nil {
			return err
		}
		in.add(&RawExpression{Value: value, Span: s.Span})
		return nil
	case *syntax.IfStmt:
		return in.ifStmt(s)
	case *syntax.ForStmt:
		return in.forStmt(s)
	case *syntax.StaticStmt:
		return in.staticStmt(s)
	case *syntax.AssertStmt:
		cond, err := in.vpe(s.Condition)
		if err != nil {
			return err
		}
		in.add(&Assert{Condition: cond, Span: s.Span})
		return nil
	case *syntax.ReturnStmt:
		if in.macroDepth == 0 {
			return diag.Errorf(diag.ReturnFromRoot, s.Span, "return is only allowed inside a macro body")
		}
		in.add(&Return{Span: s.Span})
		return nil
	case *syntax.IncludeStmt:
		return in.include(s)
	case *syntax.Block:
		body, err := in.blockInNewScope(s)
		if err != nil {
			return err
		}
		in.add(&Block{Body: body, Span: s.Span})
		return nil
	}
	return diag.Errorf(diag.StatementNotAllowedHere, stmt.Pos(), "unsupported statement")
}

func (in *ingester) ioDecl(s *syntax.IODecl) error {
	kind := "input"
	if s.Output {
		kind = "output"
	}
	if in.current != in.prog.Entry {
		return diag.Errorf(diag.IOInsideMacro, s.Span, "%s variables can only be declared at the top level of the program", kind)
	}
	typ, err := in.vpe(s.Type)
	if err != nil {
		return err
	}
	for _, name := range s.Names {
		v := in.define(name)
		in.add(&CreationPoint{Var: v, Type: typ, Span: s.Span})
		if s.Output {
			in.prog.Outputs = append(in.prog.Outputs, v)
		} else {
			in.prog.Inputs = append(in.prog.Inputs, v)
		}
	}
	return nil
}

// declare converts `TYPE name` into a creation point. The type is
// converted before the name is bound, so `INT x` cannot refer to itself.
func (in *ingester) declare(d *syntax.VarDecl) (VariableHandle, error) {
	typ, err := in.vpe(d.Type)
	if err != nil {
		return 0, err
	}
	v := in.define(d.Name)
	in.add(&CreationPoint{Var: v, Type: typ, Span: d.Span})
	return v, nil
}

func (in *ingester) macroDef(s *syntax.MacroDef) error {
	body, exit := in.enterScope()
	in.macroDepth++
	err := func() error {
		seen := map[string]source.Span{}
		for _, id := range append(append([]*syntax.Ident(nil), s.Inputs...), s.Outputs...) {
			if prev, ok := seen[id.Name]; ok {
				return diag.Errorf(diag.DuplicateDefinition, id.Span,
					"%q appears twice in the signature of macro %s", id.Name, s.Name.Name).
					Hintf(prev, "first used here")
			}
			seen[id.Name] = id.Span
		}
		sc := in.prog.Scope(body)
		for _, id := range s.Inputs {
			sc.Inputs = append(sc.Inputs, in.define(id))
		}
		if err := in.block(s.Body); err != nil {
			return err
		}
		for _, id := range s.Outputs {
			h, ok := in.prog.Lookup(body, id.Name)
			if !ok {
				return diag.Errorf(diag.MissingOutputDefinition, id.Span,
					"macro %s declares output %q but its body never defines it", s.Name.Name, id.Name).
					Hintf(s.Header, "macro signature")
			}
			sc := in.prog.Scope(body)
			sc.Outputs = append(sc.Outputs, h)
		}
		return nil
	}()
	in.macroDepth--
	exit()
	if err != nil {
		return err
	}

	v := in.prog.Define(in.current, Variable{
		Name:         s.Name.Name,
		Definition:   s.Header,
		InitialValue: &MacroData{Body: body, Header: s.Header},
		ReadOnly:     true,
	})
	in.add(&CreationPoint{Var: v, Type: typeLiteral(types.Exactly(types.Macro)), Span: s.Span})
	return nil
}

func (in *ingester) ifStmt(s *syntax.IfStmt) error {
	branch := &Branch{Else: NoScope, Span: s.Span}
	for _, c := range s.Clauses {
		cond, err := in.vpe(c.Condition)
		if err != nil {
			return err
		}
		body, err := in.blockInNewScope(c.Body)
		if err != nil {
			return err
		}
		branch.Clauses = append(branch.Clauses, Clause{Condition: cond, Body: body})
	}
	if s.Else != nil {
		body, err := in.blockInNewScope(s.Else)
		if err != nil {
			return err
		}
		branch.Else = body
	}
	in.add(branch)
	return nil
}

func (in *ingester) forStmt(s *syntax.ForStmt) error {
	start, err := in.vpe(s.Start)
	if err != nil {
		return err
	}
	end, err := in.vpe(s.End)
	if err != nil {
		return err
	}
	body, exit := in.enterScope()
	defer exit()
	counter := in.define(s.Counter)
	if err := in.block(s.Body); err != nil {
		return err
	}
	in.prog.AddStatement(in.prog.Scope(body).Parent, &ForLoop{
		Counter:     counter,
		Start:       start,
		End:         end,
		Body:        body,
		AllowUnroll: !s.NoUnroll,
		Span:        s.Span,
	})
	return nil
}

func (in *ingester) staticStmt(s *syntax.StaticStmt) error {
	body, err := in.blockInNewScope(s.Body)
	if err != nil {
		return err
	}
	init := &StaticInit{Body: body, Span: s.Span}
	for _, id := range s.Exports {
		h, ok := in.prog.Scope(body).Symbols[id.Name]
		if !ok {
			return diag.Errorf(diag.MissingExportDefinition, id.Span,
				"static block exports %q but never defines it", id.Name)
		}
		init.Exports = append(init.Exports, h)
		in.prog.Scope(in.current).Symbols[id.Name] = h
	}
	in.add(init)
	return nil
}

func (in *ingester) include(s *syntax.IncludeStmt) error {
	file, err := in.set.Load(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return diag.Errorf(diag.NonexistentInclude, s.Span, "cannot find included file %q", s.Path)
		}
		return err
	}
	for _, frame := range in.included {
		if frame[file] {
			return nil
		}
	}
	in.included[len(in.included)-1][file] = true

	tree, err := syntax.ParseFile(in.set, file)
	if err != nil {
		return err
	}
	for _, stmt := range tree.Statements {
		if err := in.statement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var unaryOps = map[syntax.TokenKind]UnaryOperator{
	syntax.TokenMinus: Negate,
	syntax.TokenNot:   Not,
	syntax.TokenBNot:  BNot,
}

var binaryOps = map[syntax.TokenKind]BinaryOperator{
	syntax.TokenPlus:           Add,
	syntax.TokenMinus:          Subtract,
	syntax.TokenStar:           Multiply,
	syntax.TokenSlash:          Divide,
	syntax.TokenPercent:        Modulo,
	syntax.TokenStarStar:       Power,
	syntax.TokenLessLess:       LeftShift,
	syntax.TokenGreaterGreater: RightShift,
	syntax.TokenBAnd:           BAnd,
	syntax.TokenBOr:            BOr,
	syntax.TokenBXor:           BXor,
	syntax.TokenAnd:            And,
	syntax.TokenOr:             Or,
	syntax.TokenXor:            Xor,
	syntax.TokenEqualEqual:     Equal,
	syntax.TokenBangEqual:      NotEqual,
	syntax.TokenLess:           LessThan,
	syntax.TokenGreater:        GreaterThan,
	syntax.TokenLessEqual:      LessThanOrEqual,
	syntax.TokenGreaterEqual:   GreaterThanOrEqual,
	syntax.TokenIn:             In,
	syntax.TokenAs:             As,
}

func (in *ingester) vpe(e syntax.Expr) (VPExpression, error) {
	switch e := e.(type) {
	case *syntax.Ident:
		h, err := in.lookup(e)
		if err != nil {
			return nil, err
		}
		return &VariableRef{Var: h, Span: e.Span}, nil
	case *syntax.IntLiteral:
		if e.Value > math.MaxInt32 || e.Value < math.MinInt32 {
			return nil, diag.Errorf(diag.InvalidLiteral, e.Span, "%d does not fit in a 32-bit INT", e.Value)
		}
		return &Literal{Value: IntData(e.Value), Span: e.Span}, nil
	case *syntax.FloatLiteral:
		return &Literal{Value: FloatData(e.Value), Span: e.Span}, nil
	case *syntax.ArrayLiteral:
		items, err := in.vpeList(e.Items)
		if err != nil {
			return nil, err
		}
		return &Collect{Items: items, Span: e.Span}, nil
	case *syntax.ArrayType:
		dims, err := in.vpeList(e.Dims)
		if err != nil {
			return nil, err
		}
		base, err := in.vpe(e.Base)
		if err != nil {
			return nil, err
		}
		return &BuildArrayType{Dims: dims, Base: base, Span: e.Span}, nil
	case *syntax.TypeBound:
		out := &TypeBound{Span: e.Span}
		var err error
		if e.Lower != nil {
			if out.Lower, err = in.vpe(e.Lower); err != nil {
				return nil, err
			}
		}
		if e.Upper != nil {
			if out.Upper, err = in.vpe(e.Upper); err != nil {
				return nil, err
			}
		}
		return out, nil
	case *syntax.IndexExpr:
		return in.index(e)
	case *syntax.PropertyExpr:
		base, err := in.vpe(e.Base)
		if err != nil {
			return nil, err
		}
		var prop Property
		switch e.Name {
		case "TYPE":
			prop = PropertyType
		case "DIMS":
			prop = PropertyDims
		default:
			return nil, diag.Errorf(diag.BadPropertyName, e.NameSpan,
				"%q is not a property; expected TYPE or DIMS", e.Name)
		}
		return &PropertyAccess{Base: base, Property: prop, Span: e.Span}, nil
	case *syntax.UnaryExpr:
		operand, err := in.vpe(e.Operand)
		if err != nil {
			return nil, err
		}
		return &UnaryOperation{Op: unaryOps[e.Op], Operand: operand, Span: e.Span}, nil
	case *syntax.BinaryExpr:
		left, err := in.vpe(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := in.vpe(e.Right)
		if err != nil {
			return nil, err
		}
		return &BinaryOperation{Op: binaryOps[e.Op], Left: left, Right: right, Span: e.Span}, nil
	case *syntax.MacroCallExpr:
		return in.macroCall(e, true)
	case *syntax.VarDecl:
		return nil, diag.Errorf(diag.StatementNotAllowedHere, e.Span, "a declaration cannot be used as a value")
	}
	return nil, diag.Errorf(diag.StatementNotAllowedHere, e.Pos(), "unsupported expression")
}

func (in *ingester) vpeList(exprs []syntax.Expr) ([]VPExpression, error) {
	out := make([]VPExpression, 0, len(exprs))
	for _, e := range exprs {
		v, err := in.vpe(e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// index flattens a chain such as a[i][j?] into one Index expression.
func (in *ingester) index(e *syntax.IndexExpr) (VPExpression, error) {
	var chain []*syntax.IndexExpr
	var base syntax.Expr = e
	for {
		ie, ok := base.(*syntax.IndexExpr)
		if !ok {
			break
		}
		chain = append(chain, ie)
		base = ie.Base
	}
	baseExpr, err := in.vpe(base)
	if err != nil {
		return nil, err
	}
	out := &Index{Base: baseExpr, Span: e.Span}
	for i := len(chain) - 1; i >= 0; i-- {
		idx, err := in.vpe(chain[i].Index)
		if err != nil {
			return nil, err
		}
		out.Indexes = append(out.Indexes, IndexArg{Expr: idx, Optional: chain[i].Optional})
	}
	return out, nil
}

func (in *ingester) macroCall(e *syntax.MacroCallExpr, needInline bool) (VPExpression, error) {
	macro, err := in.lookup(e.Macro)
	if err != nil {
		return nil, err
	}
	inputs, err := in.vpeList(e.Inputs)
	if err != nil {
		return nil, err
	}
	call := &MacroCall{
		Macro:  &VariableRef{Var: macro, Span: e.Macro.Span},
		Inputs: inputs,
		Span:   e.Span,
	}

	if !e.HasOutputs {
		if needInline {
			call.Outputs = []MacroOutput{{Inline: true, Span: e.Span}}
		}
		return call, nil
	}

	inlines := 0
	for _, out := range e.Outputs {
		if out.Inline {
			inlines++
			if inlines > 1 {
				return nil, diag.Errorf(diag.TooManyInlineReturns, out.Span, "a macro call can have at most one inline output")
			}
			call.Outputs = append(call.Outputs, MacroOutput{Inline: true, Span: out.Span})
			continue
		}
		target, err := in.vce(out.Target)
		if err != nil {
			return nil, err
		}
		call.Outputs = append(call.Outputs, MacroOutput{Target: target, Span: out.Span})
	}
	if needInline && inlines == 0 {
		return nil, diag.Errorf(diag.MissingInlineReturn, e.Span,
			"this macro call is used as a value, so one of its outputs must be inline")
	}
	return call, nil
}

// vce converts an assignment target.
func (in *ingester) vce(e syntax.Expr) (*VCExpression, error) {
	switch e := e.(type) {
	case *syntax.VarDecl:
		v, err := in.declare(e)
		if err != nil {
			return nil, err
		}
		return &VCExpression{Base: v, Span: e.Span}, nil
	case *syntax.Ident:
		h, err := in.writable(e)
		if err != nil {
			return nil, err
		}
		return &VCExpression{Base: h, Span: e.Span}, nil
	case *syntax.IndexExpr:
		var indexes []syntax.Expr
		var base syntax.Expr = e
		for {
			ie, ok := base.(*syntax.IndexExpr)
			if !ok {
				break
			}
			if ie.Optional {
				return nil, diag.Errorf(diag.ExpressionNotAssignable, ie.Span, "optional indexes cannot be assigned to")
			}
			indexes = append([]syntax.Expr{ie.Index}, indexes...)
			base = ie.Base
		}
		id, ok := base.(*syntax.Ident)
		if !ok {
			return nil, diag.Errorf(diag.ExpressionNotAssignable, base.Pos(), "only variables can be indexed and assigned to")
		}
		h, err := in.writable(id)
		if err != nil {
			return nil, err
		}
		idx, err := in.vpeList(indexes)
		if err != nil {
			return nil, err
		}
		return &VCExpression{Base: h, Indexes: idx, Span: e.Span}, nil
	}
	return nil, diag.Errorf(diag.ExpressionNotAssignable, e.Pos(), "this expression cannot be assigned to")
}

func (in *ingester) writable(id *syntax.Ident) (VariableHandle, error) {
	h, err := in.lookup(id)
	if err != nil {
		return 0, err
	}
	if v := in.prog.Variable(h); v.ReadOnly {
		p := diag.Errorf(diag.WriteToReadOnlyVariable, id.Span, "%q is read-only", id.Name)
		if !v.Definition.IsBuiltin() {
			p.Hintf(v.Definition, "%q is defined here", id.Name)
		}
		return 0, p
	}
	return h, nil
}
