package resolved

import (
	"github.com/audiobench/nodespeak/diag"
	"github.com/audiobench/nodespeak/source"
	"github.com/audiobench/nodespeak/types"
	"github.com/audiobench/nodespeak/vague"
)

// Options controls how aggressively Resolve evaluates at compile time.
type Options struct {
	// Unroll allows loops with known bounds to be unrolled. Loops written
	// with no_unroll are never unrolled.
	Unroll bool
	// MaxUnroll caps the iteration count of an unrolled loop. Longer loops
	// are kept as runtime loops. Zero means no cap.
	MaxUnroll int
}

// DefaultOptions returns the options used by the compiler driver.
func DefaultOptions() Options {
	return Options{Unroll: true, MaxUnroll: 4096}
}

// varInfo is what the resolver knows about one vague variable. The same
// pointer is shared by every table on the stack, so concretizing an
// automatic variable is seen everywhere at once.
type varInfo struct {
	slot    VariableHandle
	hasSlot bool
	bound   types.Bound
	// static is set when the variable came into existence while resolving
	// a static block.
	static bool
}

// table maps vague variables to what is known about them in the lexical
// context being resolved.
type table map[vague.VariableHandle]*varInfo

func (t table) clone() table {
	out := make(table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// discard is the current scope while resolving code whose statements are
// thrown away: builtins and the first pass over a runtime loop.
const discard = NoScope

type resolver struct {
	src  *vague.Program
	out  *Program
	opts Options

	current ScopeHandle
	table   table
	stack   []table

	temp       map[vague.VariableHandle]datum
	dirty      map[vague.VariableHandle]struct{}
	dirtyStack []map[vague.VariableHandle]struct{}

	inStatic bool
	// discarding is set during the throwaway first pass over a runtime
	// loop. Static blocks seen then produce no initializer code.
	discarding bool
	// conditional counts the branch and loop bodies entered since the
	// innermost macro call. returned is set by an unconditional return.
	conditional int
	returned    bool
}

// Resolve types and partially evaluates prog. It stops at the first
// problem and returns it as a *diag.Problem.
func Resolve(prog *vague.Program, opts Options) (*Program, error) {
	r := &resolver{
		src:   prog,
		out:   NewProgram(),
		opts:  opts,
		table: table{},
		temp:  map[vague.VariableHandle]datum{},
		dirty: map[vague.VariableHandle]struct{}{},
	}

	r.current = discard
	if err := r.block(prog.Builtins); err != nil {
		return nil, err
	}
	r.current = r.out.Entry
	if err := r.block(prog.Entry); err != nil {
		return nil, err
	}

	for _, v := range prog.Inputs {
		info := r.table[v]
		if info == nil || !info.hasSlot {
			return nil, diag.Errorf(diag.CompileTimeInput, prog.Variable(v).Definition,
				"input %s has type %s, which cannot be supplied at run time", prog.Variable(v).Name, boundOf(info))
		}
		r.out.Inputs = append(r.out.Inputs, info.slot)
	}
	for _, v := range prog.Outputs {
		info := r.table[v]
		if info == nil || !info.hasSlot {
			return nil, diag.Errorf(diag.CompileTimeOutput, prog.Variable(v).Definition,
				"output %s has type %s, which cannot be produced at run time", prog.Variable(v).Name, boundOf(info))
		}
		r.out.Outputs = append(r.out.Outputs, info.slot)
	}
	return r.out, nil
}

func boundOf(info *varInfo) types.Bound {
	if info == nil {
		return types.Bound{}
	}
	return info.bound
}

func (r *resolver) emit(stmt Statement) {
	if r.current != discard {
		r.out.AddStatement(r.current, stmt)
	}
}

// pushTable makes t the current table. The returned func restores the
// previous one.
func (r *resolver) pushTable(t table) func() {
	r.stack = append(r.stack, r.table)
	r.table = t
	return func() {
		r.table = r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]
	}
}

// enterBranchBody starts recording writes. The returned func marks every
// variable written since as unknown, because the body may not have run.
func (r *resolver) enterBranchBody() func() {
	r.dirtyStack = append(r.dirtyStack, r.dirty)
	r.dirty = map[vague.VariableHandle]struct{}{}
	return func() {
		written := r.dirty
		for v := range written {
			if info := r.table[v]; info != nil && info.bound.Actual != nil {
				r.temp[v] = unknownOfShape(types.Dims(info.bound.Actual))
			}
		}
		r.dirty = r.dirtyStack[len(r.dirtyStack)-1]
		r.dirtyStack = r.dirtyStack[:len(r.dirtyStack)-1]
		for v := range written {
			r.dirty[v] = struct{}{}
		}
	}
}

func (r *resolver) info(v vague.VariableHandle) *varInfo {
	info := r.table[v]
	if info == nil {
		panic("resolved: variable " + r.src.VariableName(v) + " used before its creation point")
	}
	return info
}

// setVarInfo records a variable at its creation point. Its value starts
// out unknown.
func (r *resolver) setVarInfo(v vague.VariableHandle, info *varInfo) {
	r.table[v] = info
	if info.bound.Actual != nil {
		r.setTemp(v, unknownOfShape(types.Dims(info.bound.Actual)))
	} else {
		r.setTemp(v, unknownDatum{})
	}
}

// addSlot gives v a runtime variable of type t.
func (r *resolver) addSlot(info *varInfo, t types.Type, def source.Span) {
	info.slot = r.out.AddVariable(Variable{Type: t, Definition: def})
	info.hasSlot = true
}

func (r *resolver) setTemp(v vague.VariableHandle, d datum) {
	r.temp[v] = d
	r.dirty[v] = struct{}{}
}

// value returns the tracked value of v, shaped after its type.
func (r *resolver) value(v vague.VariableHandle, info *varInfo) datum {
	d, ok := r.temp[v]
	if _, scalar := d.(unknownDatum); !ok || (scalar && info.bound.Actual != nil) {
		if info.bound.Actual == nil {
			return unknownDatum{}
		}
		d = unknownOfShape(types.Dims(info.bound.Actual))
		r.temp[v] = d
	}
	return d
}

// setItem stores d at coord within the tracked value of v.
func (r *resolver) setItem(v vague.VariableHandle, info *varInfo, coord []int, d datum) {
	whole := r.value(v, info)
	if len(coord) == 0 {
		r.setTemp(v, d)
		return
	}
	setItem(&whole, coord, d)
	r.setTemp(v, whole)
}

// block resolves the statements of a vague scope into the current scope.
func (r *resolver) block(scope vague.ScopeHandle) error {
	for _, stmt := range r.src.Scope(scope).Body {
		if err := r.statement(stmt); err != nil {
			return err
		}
		if r.returned {
			break
		}
	}
	return nil
}
