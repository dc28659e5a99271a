package trivial

import (
	"reflect"
	"strings"
	"testing"

	"github.com/audiobench/nodespeak/resolved"
	"github.com/audiobench/nodespeak/source"
	"github.com/audiobench/nodespeak/types"
	"github.com/audiobench/nodespeak/vague"
)

func compile(t *testing.T, src string) *Program {
	t.Helper()
	set := source.NewSet()
	vp, err := vague.Ingest(set, set.Add("test.ns", src))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	rp, err := resolved.Resolve(vp, resolved.DefaultOptions())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	prog, err := Trivialize(rp, set)
	if err != nil {
		t.Fatalf("Trivialize failed: %v", err)
	}
	errs, err := Validate(prog)
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	for _, e := range errs {
		t.Errorf("validation: %v", e)
	}
	return prog
}

func binaries(stream []Instruction) []*Binary {
	var out []*Binary
	for _, inst := range stream {
		if b, ok := inst.(*Binary); ok {
			out = append(out, b)
		}
	}
	return out
}

func kinds(stream []Instruction) []string {
	out := make([]string, len(stream))
	for i, inst := range stream {
		out[i] = strings.TrimPrefix(reflect.TypeOf(inst).String(), "*trivial.")
	}
	return out
}

func TestElementwiseExpansion(t *testing.T) {
	prog := compile(t, `
input [4]FLOAT a, b;
output [4]FLOAT c;
c = a + b;
`)
	ops := binaries(prog.Main)
	if len(ops) != 4 {
		t.Fatalf("got %d binary instructions, want 4:\n%s", len(ops), prog)
	}
	for i, op := range ops {
		if op.Op != AddF {
			t.Errorf("instruction %d: got %s, want addf", i, op.Op)
		}
		want := []int{i}
		if !reflect.DeepEqual(op.A.Coord, want) || !reflect.DeepEqual(op.B.Coord, want) {
			t.Errorf("instruction %d reads %s and %s, want element %d of both", i, op.A, op.B, i)
		}
	}
}

func TestBroadcastPinsLengthOne(t *testing.T) {
	prog := compile(t, `
input [1]FLOAT a;
input [4]FLOAT b;
output [4]FLOAT c;
c = a * b;
`)
	ops := binaries(prog.Main)
	if len(ops) != 4 {
		t.Fatalf("got %d binary instructions, want 4:\n%s", len(ops), prog)
	}
	for i, op := range ops {
		if !reflect.DeepEqual(op.A.Coord, []int{0}) {
			t.Errorf("instruction %d: length-1 operand reads %s, want element 0", i, op.A)
		}
		if !reflect.DeepEqual(op.B.Coord, []int{i}) {
			t.Errorf("instruction %d: right operand reads %s, want element %d", i, op.B, i)
		}
	}
}

func TestScalarBroadcast(t *testing.T) {
	prog := compile(t, `
input FLOAT s;
input [2][3]FLOAT m;
output [2][3]FLOAT o;
o = m * s;
`)
	ops := binaries(prog.Main)
	if len(ops) != 6 {
		t.Fatalf("got %d binary instructions, want 6", len(ops))
	}
	for _, op := range ops {
		if len(op.B.Coord) != 0 || op.B.IsLiteral() {
			t.Errorf("scalar operand reads %s, want the whole variable", op.B)
		}
	}
	if got := ops[5].A.Coord; !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("last element read is %v, want [1 2]", got)
	}
}

func TestBranchLowering(t *testing.T) {
	prog := compile(t, `
input BOOL c;
output INT y;
if c {
    y = 1;
} else {
    y = 2;
}
`)
	want := []string{"Branch", "Label", "Move", "Jump", "Label", "Move", "Label"}
	if got := kinds(prog.Main); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	br := prog.Main[0].(*Branch)
	if br.True != prog.Main[1].(*Label).Label || br.False != prog.Main[4].(*Label).Label {
		t.Error("branch targets do not match the body and next-condition labels")
	}
	if prog.Main[3].(*Jump).Label != prog.Main[6].(*Label).Label {
		t.Error("clause body does not jump to the end label")
	}
	if prog.MainLabels != 3 || prog.StaticLabels != 0 {
		t.Errorf("got %d main and %d static labels, want 3 and 0", prog.MainLabels, prog.StaticLabels)
	}
}

func TestPrunedBranchEmitsNothing(t *testing.T) {
	prog := compile(t, `
output INT y;
if TRUE {
    y = 1;
} else {
    y = 2;
}
`)
	for _, inst := range prog.Main {
		switch inst.(type) {
		case *Branch, *Label, *Jump:
			t.Fatalf("found %s in a program with a known condition", FormatInstruction(inst))
		}
	}
}

func TestLoopLowering(t *testing.T) {
	prog := compile(t, `
input INT n;
output INT s;
s = 0;
for i = 0 to n {
    s = s + i;
}
`)
	var compares, increments int
	for _, op := range binaries(prog.Main) {
		switch {
		case op.Op == CompI && op.Cond == LessThan:
			compares++
		case op.Op == AddI && op.B.IsLiteral():
			increments++
			if op.A.Var != op.X.Var {
				t.Errorf("increment writes %s, want the counter %s", op.X, op.A)
			}
		}
	}
	if compares != 2 || increments != 1 {
		t.Errorf("got %d compares and %d increments, want 2 and 1:\n%s", compares, increments, prog)
	}
	if prog.MainLabels != 2 {
		t.Errorf("got %d labels, want 2", prog.MainLabels)
	}
	last := prog.Main[len(prog.Main)-1]
	if _, ok := last.(*Label); !ok {
		t.Errorf("loop does not end with its exit label: %s", FormatInstruction(last))
	}
}

func TestAssertLowering(t *testing.T) {
	prog := compile(t, "input INT a;\nassert a > 0;\n")
	if len(prog.Errors) != 1 {
		t.Fatalf("got %d error table entries, want 1", len(prog.Errors))
	}
	if !strings.Contains(prog.Errors[0], "test.ns:2:1") {
		t.Errorf("error message %q does not name the assertion", prog.Errors[0])
	}
	want := []string{"Binary", "Branch", "Label", "Abort", "Label"}
	if got := kinds(prog.Main); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if prog.Main[3].(*Abort).Code != 0 {
		t.Errorf("abort code = %d, want 0", prog.Main[3].(*Abort).Code)
	}
}

func TestDynamicIndexing(t *testing.T) {
	prog := compile(t, `
input [2][3]FLOAT g;
input INT i;
output [3]FLOAT row;
output [4]INT o;
row = g[i];
o[i] = 7;
`)
	var loads []*Load
	var stores []*Store
	for _, inst := range prog.Main {
		switch inst := inst.(type) {
		case *Load:
			loads = append(loads, inst)
		case *Store:
			stores = append(stores, inst)
		}
	}
	if len(loads) != 3 {
		t.Fatalf("got %d loads, want 3", len(loads))
	}
	for c, l := range loads {
		if len(l.Indexes) != 3 {
			t.Fatalf("load %d has %d indexes, want 3", c, len(l.Indexes))
		}
		if l.Indexes[0].Literal != vague.IntData(0) {
			t.Errorf("load %d starts with %s, want a literal 0", c, l.Indexes[0])
		}
		if l.Indexes[2].Literal != vague.IntData(c) {
			t.Errorf("load %d ends with %s, want %d", c, l.Indexes[2], c)
		}
	}
	if len(stores) != 1 {
		t.Fatalf("got %d stores, want 1", len(stores))
	}
	if len(stores[0].Indexes) != 2 || stores[0].Indexes[0].Literal != vague.IntData(0) {
		t.Errorf("store indexes = %v, want a literal 0 and the runtime index", stores[0].Indexes)
	}
}

func TestStaticsAndStreams(t *testing.T) {
	prog := compile(t, `
input FLOAT a;
output FLOAT o;
static table {
    [3]FLOAT table = [1.0, 2.0, 3.0];
}
o = a * table[1];
`)
	if len(prog.Statics) != 1 {
		t.Fatalf("got %d statics, want 1", len(prog.Statics))
	}
	table := prog.Statics[0]
	if loc := prog.Variable(table).Location; loc != Static {
		t.Errorf("table is stored as %s, want static", loc)
	}
	if len(prog.StaticInit) != 3 {
		t.Errorf("static init has %d instructions, want 3 moves", len(prog.StaticInit))
	}
	ops := binaries(prog.Main)
	if len(ops) != 1 {
		t.Fatalf("got %d binary instructions, want 1", len(ops))
	}
	if ops[0].B.Var != table || !reflect.DeepEqual(ops[0].B.Coord, []int{1}) {
		t.Errorf("right operand = %s, want element 1 of the static", ops[0].B)
	}
	for _, inst := range prog.Main {
		if _, ok := inst.(*Load); ok {
			t.Error("a known index should not need a load")
		}
	}
}

func TestMainVariableInStaticInit(t *testing.T) {
	rp := resolved.NewProgram()
	v := rp.AddVariable(resolved.Variable{Type: types.Float})
	store := &resolved.Assign{
		Target: &resolved.Target{Var: v, Typ: types.Float},
		Value:  &resolved.Literal{Value: vague.FloatData(1), Typ: types.Float},
	}
	rp.AddStatement(rp.Entry, store)
	rp.AddStatement(rp.StaticInit, store)

	_, err := Trivialize(rp, nil)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "static init") {
		t.Errorf("got %v, want it to name the static init stream", err)
	}
}

func TestProgramString(t *testing.T) {
	prog := compile(t, `
input [2]FLOAT a;
output [2]FLOAT o;
o = -a;
`)
	out := prog.String()
	for _, want := range []string{"variables:", "inputs: tv", "negf tv", "main:"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
