package syntax

import (
	"errors"
	"strings"
	"testing"

	"github.com/audiobench/nodespeak/diag"
	"github.com/audiobench/nodespeak/source"
)

func parse(t *testing.T, src string) *File {
	t.Helper()
	tokens, err := NewLexer(src).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	f, err := NewParser(tokens, 0).Parse()
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return f
}

func TestParseDeclarations(t *testing.T) {
	f := parse(t, `
input FLOAT a, b;
output [4]FLOAT out;
INT x;
AUTO y = 5;
[2][3]FLOAT grid;
<FLOAT, [8]FLOAT> bounded;
`)
	if len(f.Statements) != 6 {
		t.Fatalf("expected 6 statements, got %d", len(f.Statements))
	}

	io, ok := f.Statements[0].(*IODecl)
	if !ok || io.Output || len(io.Names) != 2 || io.Names[1].Name != "b" {
		t.Errorf("statement 0 = %#v, want input with two names", f.Statements[0])
	}
	out := f.Statements[1].(*IODecl)
	if !out.Output {
		t.Errorf("statement 1 should be an output")
	}
	if _, ok := out.Type.(*ArrayType); !ok {
		t.Errorf("output type = %T, want *ArrayType", out.Type)
	}

	decl, ok := f.Statements[2].(*DeclStmt)
	if !ok || decl.Decl.Name.Name != "x" {
		t.Errorf("statement 2 = %#v, want declaration of x", f.Statements[2])
	}

	assign, ok := f.Statements[3].(*AssignStmt)
	if !ok {
		t.Fatalf("statement 3 = %T, want *AssignStmt", f.Statements[3])
	}
	if target, ok := assign.Target.(*VarDecl); !ok || target.Name.Name != "y" {
		t.Errorf("assign target = %#v", assign.Target)
	}

	grid := f.Statements[4].(*DeclStmt).Decl.Type.(*ArrayType)
	if len(grid.Dims) != 2 {
		t.Errorf("grid dims = %d, want 2", len(grid.Dims))
	}

	bound := f.Statements[5].(*DeclStmt).Decl.Type.(*TypeBound)
	if bound.Lower == nil || bound.Upper == nil {
		t.Errorf("bound = %#v, want both sides", bound)
	}
}

func TestParsePrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x = 1 + 2 * 3;", "x = 1 + (2 * 3);"},
		{"x = (1 + 2) * 3;", "x = (1 + 2) * 3;"},
		{"x = 2 ** 3 ** 2;", "x = 2 ** (3 ** 2);"},
		{"x = a < b and c or d;", "x = ((a < b) and c) or d;"},
		{"x = a band b bor c;", "x = (a band b) bor c;"},
		{"x = -a * b;", "x = (-a) * b;"},
		{"x = not a and b;", "x = (not a) and b;"},
		{"x = a + b as [4]FLOAT;", "x = a + (b as [4]FLOAT);"},
		{"x = a - b - c;", "x = (a - b) - c;"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := strings.TrimSpace(Format(parse(t, tt.src)))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseArrayLiteralVersusType(t *testing.T) {
	f := parse(t, "a = [1, 2][0];\nb = [3][0];\n[3]INT c;")

	idx, ok := f.Statements[0].(*AssignStmt).Value.(*IndexExpr)
	if !ok {
		t.Fatalf("a value = %T, want *IndexExpr", f.Statements[0].(*AssignStmt).Value)
	}
	if lit, ok := idx.Base.(*ArrayLiteral); !ok || len(lit.Items) != 2 {
		t.Errorf("index base = %#v", idx.Base)
	}

	if _, ok := f.Statements[1].(*AssignStmt).Value.(*IndexExpr); !ok {
		t.Errorf("b value = %T, want *IndexExpr", f.Statements[1].(*AssignStmt).Value)
	}

	decl := f.Statements[2].(*DeclStmt)
	if _, ok := decl.Decl.Type.(*ArrayType); !ok {
		t.Errorf("c type = %T, want *ArrayType", decl.Decl.Type)
	}
}

func TestParseMacros(t *testing.T) {
	f := parse(t, `
macro Mix(a, b): out {
    out = a + b;
}
macro Split(v): (lo, hi) {
    lo = v; hi = v;
    return;
}
AUTO m = Mix(1, 2);
Split(3):(INT l, inline);
Mix(1, 2):(x);
`)
	mix := f.Statements[0].(*MacroDef)
	if mix.Name.Name != "Mix" || len(mix.Inputs) != 2 || len(mix.Outputs) != 1 {
		t.Errorf("Mix = %#v", mix)
	}
	split := f.Statements[1].(*MacroDef)
	if len(split.Outputs) != 2 || split.Outputs[1].Name != "hi" {
		t.Errorf("Split outputs = %#v", split.Outputs)
	}
	if _, ok := split.Body.Statements[2].(*ReturnStmt); !ok {
		t.Errorf("Split body[2] = %T, want *ReturnStmt", split.Body.Statements[2])
	}

	call := f.Statements[2].(*AssignStmt).Value.(*MacroCallExpr)
	if call.HasOutputs || len(call.Inputs) != 2 {
		t.Errorf("Mix call = %#v", call)
	}

	stmt := f.Statements[3].(*MacroCallStmt)
	if !stmt.Call.HasOutputs || len(stmt.Call.Outputs) != 2 {
		t.Fatalf("Split call outputs = %#v", stmt.Call.Outputs)
	}
	if _, ok := stmt.Call.Outputs[0].Target.(*VarDecl); !ok {
		t.Errorf("output 0 = %#v, want declaration", stmt.Call.Outputs[0])
	}
	if !stmt.Call.Outputs[1].Inline {
		t.Errorf("output 1 should be inline")
	}
}

func TestParseControlFlow(t *testing.T) {
	f := parse(t, `
if a { x = 1; } else if b { x = 2; } else { x = 3; }
for i = 0 to 4 no_unroll { s = s + i; }
for j = 0 to 4 { }
static t, u { INT t = 1; INT u = 2; }
assert x == 1;
include "lib.ns";
{ INT scoped; }
`)
	branch := f.Statements[0].(*IfStmt)
	if len(branch.Clauses) != 2 || branch.Else == nil {
		t.Errorf("if = %d clauses, else %v", len(branch.Clauses), branch.Else != nil)
	}
	loop := f.Statements[1].(*ForStmt)
	if !loop.NoUnroll || loop.Counter.Name != "i" {
		t.Errorf("loop = %#v", loop)
	}
	if f.Statements[2].(*ForStmt).NoUnroll {
		t.Errorf("second loop should be unroll-eligible")
	}
	static := f.Statements[3].(*StaticStmt)
	if len(static.Exports) != 2 {
		t.Errorf("static exports = %d", len(static.Exports))
	}
	if _, ok := f.Statements[4].(*AssertStmt); !ok {
		t.Errorf("statement 4 = %T", f.Statements[4])
	}
	if inc := f.Statements[5].(*IncludeStmt); inc.Path != "lib.ns" {
		t.Errorf("include path = %q", inc.Path)
	}
	if _, ok := f.Statements[6].(*Block); !ok {
		t.Errorf("statement 6 = %T", f.Statements[6])
	}
}

func TestParsePostfix(t *testing.T) {
	f := parse(t, "x = a[i?][2].DIMS;\nt = <>;\nu = <INT>;")
	prop := f.Statements[0].(*AssignStmt).Value.(*PropertyExpr)
	if prop.Name != "DIMS" {
		t.Errorf("property = %q", prop.Name)
	}
	outer := prop.Base.(*IndexExpr)
	inner := outer.Base.(*IndexExpr)
	if outer.Optional || !inner.Optional {
		t.Errorf("optional flags = %v, %v", inner.Optional, outer.Optional)
	}

	if b := f.Statements[1].(*AssignStmt).Value.(*TypeBound); b.Lower != nil || b.Upper != nil {
		t.Errorf("<> should be unbounded")
	}
	if b := f.Statements[2].(*AssignStmt).Value.(*TypeBound); b.Lower != nil || b.Upper == nil {
		t.Errorf("<INT> should have only an upper bound")
	}
}

func TestParseIntegerBases(t *testing.T) {
	f := parse(t, "a = 0x1F; b = 0o17; c = 0b101; d = 017; e = 1_000;")
	want := []int64{31, 15, 5, 15, 1000}
	for i, w := range want {
		lit := f.Statements[i].(*AssignStmt).Value.(*IntLiteral)
		if lit.Value != w {
			t.Errorf("literal %d = %d, want %d", i, lit.Value, w)
		}
	}
}

func TestParseSpans(t *testing.T) {
	f := parse(t, "x = foo + bar;")
	bin := f.Statements[0].(*AssignStmt).Value.(*BinaryExpr)
	span := bin.Pos()
	if span.Start.Column != 5 || span.End.Column != 14 {
		t.Errorf("binary span = %d..%d, want 5..14", span.Start.Column, span.End.Column)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		"x = ;",
		"1 = 2;",
		"macro (a) { }",
		"for i 0 to 4 { }",
		"x = a[1;",
		"a = 0b102;",
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			set := source.NewSet()
			file := set.Add("t.ns", src)
			_, err := ParseFile(set, file)
			if err == nil {
				t.Fatalf("expected error")
			}
			var p *diag.Problem
			if !errors.As(err, &p) || p.Kind != diag.SyntaxError {
				t.Errorf("error %v is not a syntax problem", err)
			}
		})
	}
}

func TestFormatRoundTrip(t *testing.T) {
	src := `input FLOAT a;
output FLOAT b;
macro Twice(v): out {
    out = v * 2;
}
static k {
    FLOAT k = 1.5;
}
for i = 0 to 4 {
    b = Twice(a) + k;
}
`
	first := Format(parse(t, src))
	second := Format(parse(t, first))
	if first != second {
		t.Errorf("format is not stable:\n%s\n---\n%s", first, second)
	}
}
