package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/audiobench/nodespeak"
)

const sumProgram = `input [4]FLOAT x;
output FLOAT s;
s = 0.0;
for i = 0 to 4 {
    s = s + x[i];
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "-version")
	if code != 0 || !strings.Contains(out, nodespeakVersion) {
		t.Errorf("got %d %q, want the version", code, out)
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no phase", nil, "no phase specified"},
		{"bad phase", []string{"spirv", "x.ns"}, "unknown phase"},
		{"no input", []string{"llvmir"}, "no input file specified"},
		{"missing file", []string{"llvmir", "does-not-exist.ns"}, "does-not-exist.ns"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tt.args...)
			if code == 0 {
				t.Error("expected a failing exit code")
			}
			if !strings.Contains(errOut, tt.want) {
				t.Errorf("stderr = %q, want it to mention %q", errOut, tt.want)
			}
		})
	}
}

func TestCompileToStdout(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sum.ns", sumProgram)
	code, out, errOut := runCLI(t, "llvmir", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "define i32 @main(") {
		t.Errorf("stdout is not LLVM IR:\n%s", out)
	}
	if strings.Contains(out, "br i1") {
		t.Error("loop should be unrolled by default")
	}
}

func TestPhases(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sum.ns", sumProgram)
	tests := []struct {
		phase string
		want  string
	}{
		{"ast", "for i = 0 to 4 {"},
		{"trivial", "variables:"},
		{"llvmir", "define i32 @static_init("},
	}
	for _, tt := range tests {
		t.Run(tt.phase, func(t *testing.T) {
			code, out, errOut := runCLI(t, tt.phase, path)
			if code != 0 {
				t.Fatalf("exit %d: %s", code, errOut)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sum.ns", sumProgram)
	dest := filepath.Join(dir, "sum.ll")
	code, out, errOut := runCLI(t, "-o", dest, "llvmir", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Successfully compiled") {
		t.Errorf("stdout = %q", out)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "define i32 @main(") {
		t.Errorf("output file is not LLVM IR:\n%s", data)
	}
}

func TestCompileError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.ns", "output INT o;\no = missing;\n")
	code, _, errOut := runCLI(t, "llvmir", path)
	if code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	for _, want := range []string{"error[no_entity_with_name]", "o = missing;", "compilation of"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}
}

func TestPerf(t *testing.T) {
	path := writeFile(t, t.TempDir(), "sum.ns", sumProgram)
	code, _, errOut := runCLI(t, "-perf", "llvmir", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	for _, want := range []string{"Performance", "resolved:", "(1 invocations)"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("perf output missing %q:\n%s", want, errOut)
		}
	}
}

func TestIncludePath(t *testing.T) {
	libDir := t.TempDir()
	writeFile(t, libDir, "lib.ns", "macro Double(x): y {\n    AUTO y = x + x;\n}\n")
	path := writeFile(t, t.TempDir(), "main.ns", "include \"lib.ns\";\ninput INT a;\noutput INT b;\nb = Double(a);\n")

	if code, _, _ := runCLI(t, "llvmir", path); code == 0 {
		t.Error("include should fail without a search path")
	}
	code, out, errOut := runCLI(t, "-I", libDir, "llvmir", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "add i32") {
		t.Errorf("macro body missing:\n%s", out)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sum.ns", sumProgram)
	cfg := writeFile(t, dir, "nodespeak.yaml", "phase: llvmir\nunroll: false\nmodule_name: synth\n")

	code, out, errOut := runCLI(t, "-config", cfg, "llvmir", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.Contains(out, "br i1") {
		t.Error("unroll: false in the config was ignored")
	}

	code, out, errOut = runCLI(t, "-config", cfg, "-unroll=true", "llvmir", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if strings.Contains(out, "br i1") {
		t.Error("-unroll on the command line should override the config")
	}
}

func TestConfigPhaseDefault(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "nodespeak.yaml", "phase: ast\n")
	code, _, errOut := runCLI(t, "-config", cfg)
	if code == 0 {
		t.Fatal("expected a failure without inputs")
	}
	if !strings.Contains(errOut, "no input file specified") {
		t.Errorf("stderr = %q, want the phase to come from the config", errOut)
	}
}

func TestConfigUnknownField(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "nodespeak.yaml", "unrol: false\n")
	code, _, errOut := runCLI(t, "-config", cfg, "llvmir", "x.ns")
	if code != 1 || !strings.Contains(errOut, "unrol") {
		t.Errorf("got %d %q, want a config error", code, errOut)
	}
}

func TestConfigApply(t *testing.T) {
	off := false
	n := 8
	opts := nodespeak.DefaultOptions()
	(&Config{Unroll: &off, MaxUnroll: &n, ModuleName: "m", IncludePaths: []string{"lib"}}).apply(&opts)
	if opts.Unroll || opts.MaxUnroll != 8 || opts.ModuleName != "m" || len(opts.IncludePaths) != 1 {
		t.Errorf("options = %+v", opts)
	}
	if !opts.Validate {
		t.Error("Validate should keep its default")
	}
}

func TestSession(t *testing.T) {
	s := &session{opts: nodespeak.DefaultOptions(), phase: nodespeak.StageAST}

	if out, _ := s.eval("input INT a;"); !strings.Contains(out, "input INT a;") {
		t.Errorf("eval = %q", out)
	}
	if out, _ := s.eval("INT x = ;"); !strings.Contains(out, "syntax_error") {
		t.Errorf("eval = %q, want a syntax error", out)
	}
	if len(s.lines) != 1 {
		t.Fatalf("failed entries should not be kept, have %v", s.lines)
	}
	s.eval("output INT b;")
	s.eval("b = a + 1;")

	if out, _ := s.eval(":phase bogus"); !strings.Contains(out, "unknown phase") {
		t.Errorf(":phase bogus = %q", out)
	}
	s.eval(":phase llvmir")
	if s.phase != nodespeak.StageLLVMIR {
		t.Errorf("phase = %s, want llvmir", s.phase)
	}
	out, _ := s.eval("b = b * 2;")
	if !strings.Contains(out, "mul i32") {
		t.Errorf("eval = %q, want LLVM IR", out)
	}
	if out, _ := s.eval(":show"); out != "input INT a;\noutput INT b;\nb = a + 1;\nb = b * 2;\n" {
		t.Errorf(":show = %q", out)
	}

	s.eval(":undo")
	if len(s.lines) != 3 {
		t.Errorf(":undo left %d lines, want 3", len(s.lines))
	}
	s.eval(":reset")
	if len(s.lines) != 0 {
		t.Error(":reset kept lines")
	}
	if out, _ := s.eval(":nope"); !strings.Contains(out, "unknown command") {
		t.Errorf(":nope = %q", out)
	}
	if _, quit := s.eval(":quit"); !quit {
		t.Error(":quit should end the session")
	}
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		entry string
		want  bool
	}{
		{"INT x = 1;", false},
		{"if a {", true},
		{"if a {\n b = 1;\n}", false},
		{"static t {\n [2]INT t = [1, 2];", true},
	}
	for _, tt := range tests {
		if got := incomplete(tt.entry); got != tt.want {
			t.Errorf("incomplete(%q) = %v, want %v", tt.entry, got, tt.want)
		}
	}
}
