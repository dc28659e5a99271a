package vague

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/audiobench/nodespeak/diag"
	"github.com/audiobench/nodespeak/source"
)

func ingestString(t *testing.T, src string) (*Program, error) {
	t.Helper()
	set := source.NewSet()
	return Ingest(set, set.Add("test.ns", src))
}

func mustIngest(t *testing.T, src string) *Program {
	t.Helper()
	prog, err := ingestString(t, src)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	return prog
}

func TestIngestDeclarations(t *testing.T) {
	prog := mustIngest(t, "input FLOAT a, b;\noutput FLOAT c;\nINT x = 3;\nc = a + b;")

	if len(prog.Inputs) != 2 || len(prog.Outputs) != 1 {
		t.Fatalf("got %d inputs and %d outputs, want 2 and 1", len(prog.Inputs), len(prog.Outputs))
	}
	body := prog.Scope(prog.Entry).Body
	// a, b, c creation points, x creation point, x assign, c assign
	if len(body) != 6 {
		t.Fatalf("entry has %d statements, want 6", len(body))
	}
	if _, ok := body[3].(*CreationPoint); !ok {
		t.Errorf("statement 3 = %T, want *CreationPoint", body[3])
	}
	assign, ok := body[5].(*Assign)
	if !ok {
		t.Fatalf("statement 5 = %T, want *Assign", body[5])
	}
	bin, ok := assign.Value.(*BinaryOperation)
	if !ok || bin.Op != Add {
		t.Errorf("value = %#v, want an Add", assign.Value)
	}
	if assign.Target.Base != prog.Outputs[0] {
		t.Errorf("target = %d, want output %d", assign.Target.Base, prog.Outputs[0])
	}
}

func TestIngestBuiltinsVisible(t *testing.T) {
	prog := mustIngest(t, "FLOAT x = Sin(PI);")
	h, ok := prog.Lookup(prog.Entry, "Sin")
	if !ok {
		t.Fatal("Sin is not visible from the entry scope")
	}
	m, ok := prog.Variable(h).InitialValue.(*MacroData)
	if !ok {
		t.Fatalf("Sin initial value = %T, want *MacroData", prog.Variable(h).InitialValue)
	}
	body := prog.Scope(m.Body)
	if len(body.Inputs) != 1 || len(body.Outputs) != 1 {
		t.Errorf("Sin has %d inputs and %d outputs, want 1 and 1", len(body.Inputs), len(body.Outputs))
	}
}

func TestIngestMacroDefinition(t *testing.T) {
	prog := mustIngest(t, `
macro Mix(a, b): out {
    FLOAT out = a + b;
}
FLOAT y = Mix(1.0, 2.0);
`)
	h, ok := prog.Lookup(prog.Entry, "Mix")
	if !ok {
		t.Fatal("Mix is not defined")
	}
	m := prog.Variable(h).InitialValue.(*MacroData)
	sc := prog.Scope(m.Body)
	if len(sc.Inputs) != 2 || len(sc.Outputs) != 1 {
		t.Fatalf("Mix has %d inputs and %d outputs, want 2 and 1", len(sc.Inputs), len(sc.Outputs))
	}
	if prog.Variable(sc.Outputs[0]).Name != "out" {
		t.Errorf("output name = %q, want out", prog.Variable(sc.Outputs[0]).Name)
	}

	var call *MacroCall
	for _, stmt := range prog.Scope(prog.Entry).Body {
		if a, ok := stmt.(*Assign); ok {
			call, _ = a.Value.(*MacroCall)
		}
	}
	if call == nil {
		t.Fatal("no macro call assigned to y")
	}
	if len(call.Outputs) != 1 || !call.Outputs[0].Inline {
		t.Errorf("outputs = %+v, want one inline output", call.Outputs)
	}
}

func TestIngestIndexFlattening(t *testing.T) {
	prog := mustIngest(t, "[2][3]INT g;\nINT v = g[1][2?];")
	body := prog.Scope(prog.Entry).Body
	a := body[len(body)-1].(*Assign)
	idx, ok := a.Value.(*Index)
	if !ok {
		t.Fatalf("value = %T, want *Index", a.Value)
	}
	if len(idx.Indexes) != 2 {
		t.Fatalf("got %d indexes, want 2", len(idx.Indexes))
	}
	if idx.Indexes[0].Optional || !idx.Indexes[1].Optional {
		t.Errorf("optional flags = %v, %v, want false, true", idx.Indexes[0].Optional, idx.Indexes[1].Optional)
	}
}

func TestIngestStaticExports(t *testing.T) {
	prog := mustIngest(t, "static table {\n    [4]FLOAT table = [1.0, 2.0, 3.0, 4.0];\n}\nFLOAT x = table[0];")
	h, ok := prog.Lookup(prog.Entry, "table")
	if !ok {
		t.Fatal("exported name is not visible after the static block")
	}
	var init *StaticInit
	for _, stmt := range prog.Scope(prog.Entry).Body {
		if s, ok := stmt.(*StaticInit); ok {
			init = s
		}
	}
	if init == nil || len(init.Exports) != 1 || init.Exports[0] != h {
		t.Errorf("static init = %+v, want export %d", init, h)
	}
}

func TestIngestLoopScope(t *testing.T) {
	prog := mustIngest(t, "INT sum = 0;\nfor i = 0 to 4 no_unroll {\n    sum = sum + i;\n}")
	body := prog.Scope(prog.Entry).Body
	loop, ok := body[len(body)-1].(*ForLoop)
	if !ok {
		t.Fatalf("last statement = %T, want *ForLoop", body[len(body)-1])
	}
	if loop.AllowUnroll {
		t.Error("AllowUnroll = true, want false")
	}
	if _, ok := prog.Scope(loop.Body).Symbols["i"]; !ok {
		t.Error("loop counter is not bound in the loop body")
	}
	if _, ok := prog.Scope(prog.Entry).Symbols["i"]; ok {
		t.Error("loop counter leaked into the enclosing scope")
	}
}

func TestIngestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind diag.Kind
	}{
		{"unknown name", "INT x = y;", diag.NoEntityWithName},
		{"io in macro", "macro M(): out { input FLOAT a; FLOAT out = a; }", diag.IOInsideMacro},
		{"return at root", "return;", diag.ReturnFromRoot},
		{"missing output", "macro M(a): out { FLOAT b = a; }", diag.MissingOutputDefinition},
		{"missing export", "static t { INT u = 1; }", diag.MissingExportDefinition},
		{"read only", "PI = 3.0;", diag.WriteToReadOnlyVariable},
		{"bad property", "INT x = 1;\nINT y = x.SIZE;", diag.BadPropertyName},
		{"two inlines", "macro M(): (a, b) { INT a = 1; INT b = 2; }\nINT x = M():(inline, inline);", diag.TooManyInlineReturns},
		{"no inline", "macro M(): a { INT a = 1; }\nINT y;\nINT x = M():(y);", diag.MissingInlineReturn},
		{"missing include", `include "nope.ns";`, diag.NonexistentInclude},
		{"syntax", "INT x = ;", diag.SyntaxError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ingestString(t, tt.src)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, diag.Of(tt.kind)) {
				t.Errorf("got %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestIngestSuggestion(t *testing.T) {
	_, err := ingestString(t, "INT count = 1;\nINT x = coutn;")
	var p *diag.Problem
	if !errors.As(err, &p) {
		t.Fatalf("got %v, want a *diag.Problem", err)
	}
	if len(p.Descriptors) < 2 || !strings.Contains(p.Descriptors[1].Caption, `"count"`) {
		t.Errorf("descriptors = %+v, want a hint naming count", p.Descriptors)
	}
}

func TestIngestInclude(t *testing.T) {
	dir := t.TempDir()
	lib := "macro Double(x): y {\n    AUTO y = x + x;\n}\n"
	if err := os.WriteFile(filepath.Join(dir, "lib.ns"), []byte(lib), 0o644); err != nil {
		t.Fatal(err)
	}
	set := source.NewSet()
	set.Paths = []string{dir}
	main := set.Add("main.ns", "include \"lib.ns\";\ninclude \"lib.ns\";\nINT z = Double(2);")

	prog, err := Ingest(set, main)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if _, ok := prog.Lookup(prog.Entry, "Double"); !ok {
		t.Error("included macro is not visible")
	}
	count := 0
	for _, stmt := range prog.Scope(prog.Entry).Body {
		if cp, ok := stmt.(*CreationPoint); ok && prog.Variable(cp.Var).Name == "Double" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Double defined %d times, want 1", count)
	}
}

func TestProgramString(t *testing.T) {
	prog := mustIngest(t, "input FLOAT a;\noutput FLOAT b;\nif a > 0.0 {\n    b = a;\n} else {\n    b = -a;\n}")
	out := prog.String()
	for _, want := range []string{"input a#", "output b#", "if (a#", "else {", "-(a#"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
