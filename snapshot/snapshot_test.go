// Package snapshot_test provides golden snapshot tests for the compiler.
//
// Every program in testdata/in/ is compiled to the trivial and llvmir
// phases and compared to testdata/golden/{trivial,llvmir}/. A missing golden
// file skips the comparison rather than failing it.
//
// To regenerate golden files after intentional changes:
//
//	UPDATE_GOLDEN=1 go test ./snapshot/...
package snapshot_test

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/audiobench/nodespeak"
)

// programFile is an input program loaded from disk.
type programFile struct {
	name   string // base name without extension (e.g., "gain")
	source string
}

// goldenPhases maps each compared phase to its golden file extension.
var goldenPhases = []struct {
	stage nodespeak.Stage
	ext   string
}{
	{nodespeak.StageTrivial, ".trivial"},
	{nodespeak.StageLLVMIR, ".ll"},
}

// TestSnapshots compiles every input program and compares each phase with
// its golden file.
func TestSnapshots(t *testing.T) {
	programs := loadPrograms(t, "testdata/in")
	if len(programs) == 0 {
		t.Fatal("no input programs found in testdata/in/")
	}

	for i := range programs {
		prog := &programs[i]
		t.Run(prog.name, func(t *testing.T) {
			for _, phase := range goldenPhases {
				phase := phase
				t.Run(phase.stage.String(), func(t *testing.T) {
					out := dump(t, prog, phase.stage)
					compareGolden(t, filepath.Join("testdata", "golden", phase.stage.String(), prog.name+phase.ext), out)
				})
			}
		})
	}
}

// TestDeterministic checks that compiling the same program twice gives the
// same text at every phase. Golden files are only useful if this holds.
func TestDeterministic(t *testing.T) {
	for _, prog := range loadPrograms(t, "testdata/in") {
		prog := prog
		t.Run(prog.name, func(t *testing.T) {
			for s := nodespeak.StageAST; s <= nodespeak.StageLLVMIR; s++ {
				first := dump(t, &prog, s)
				second := dump(t, &prog, s)
				if first != second {
					t.Errorf("%s output differs between runs:\n%s", s, diffStrings(first, second))
				}
			}
		})
	}
}

// TestAstReparses checks that the ast dump is itself a valid program that
// dumps to the same text.
func TestAstReparses(t *testing.T) {
	for _, prog := range loadPrograms(t, "testdata/in") {
		prog := prog
		t.Run(prog.name, func(t *testing.T) {
			first := dump(t, &prog, nodespeak.StageAST)
			again := dump(t, &programFile{name: prog.name, source: first}, nodespeak.StageAST)
			if first != again {
				t.Errorf("ast dump is not stable:\n%s", diffStrings(first, again))
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// loadPrograms reads all .ns files from the given directory.
func loadPrograms(t *testing.T, dir string) []programFile {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read input directory %q: %v", dir, err)
	}

	var programs []programFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".ns") {
			continue
		}
		data, readErr := os.ReadFile(filepath.Join(dir, entry.Name()))
		if readErr != nil {
			t.Fatalf("read program %q: %v", entry.Name(), readErr)
		}
		name := strings.TrimSuffix(entry.Name(), ".ns")
		programs = append(programs, programFile{name: name, source: string(data)})
	}

	sort.Slice(programs, func(i, j int) bool {
		return programs[i].name < programs[j].name
	})
	return programs
}

func dump(t *testing.T, prog *programFile, stage nodespeak.Stage) string {
	t.Helper()
	c := nodespeak.NewCompiler(nodespeak.DefaultOptions())
	name := prog.name + ".ns"
	c.AddSource(name, prog.source)
	out, err := c.Dump(name, stage)
	if err != nil {
		t.Fatalf("%s: %s", stage, c.FormatError(err))
	}
	return out
}

// compareGolden compares actual against the golden file at path, or
// rewrites it when UPDATE_GOLDEN is set.
func compareGolden(t *testing.T, path, actual string) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDEN") != "" {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			t.Fatalf("create golden dir: %v", mkErr)
		}
		if wErr := os.WriteFile(path, []byte(actual), 0o644); wErr != nil {
			t.Fatalf("write golden file: %v", wErr)
		}
		t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		t.Skipf("golden file missing: %s\nRun with UPDATE_GOLDEN=1 to create.\n\nActual output:\n%s", path, truncate(actual, 500))
	}
	if err != nil {
		t.Fatalf("read golden file %s: %v", path, err)
	}

	// Git may convert \n to \r\n on Windows checkout.
	expectedStr := strings.ReplaceAll(string(expected), "\r\n", "\n")
	actualStr := strings.ReplaceAll(actual, "\r\n", "\n")

	if expectedStr != actualStr {
		t.Errorf("output differs from golden %s:\n%s", path, diffStrings(expectedStr, actualStr))
	}
}

// diffStrings shows the first differing line with some context.
func diffStrings(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	n := len(expectedLines)
	if len(actualLines) > n {
		n = len(actualLines)
	}
	line := func(lines []string, i int) string {
		if i < len(lines) {
			return lines[i]
		}
		return ""
	}

	first := -1
	for i := 0; i < n; i++ {
		if line(expectedLines, i) != line(actualLines, i) {
			first = i
			break
		}
	}
	if first < 0 {
		return "(no line differences; trailing content differs)"
	}

	const contextLines = 3
	var sb strings.Builder
	start := first - contextLines
	if start < 0 {
		start = 0
	}
	end := first + contextLines + 1
	if end > n {
		end = n
	}
	for i := start; i < end; i++ {
		e, a := line(expectedLines, i), line(actualLines, i)
		if e == a {
			sb.WriteString("  " + e + "\n")
			continue
		}
		sb.WriteString("- " + e + "\n")
		sb.WriteString("+ " + a + "\n")
	}
	return sb.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "\n... (truncated)"
}
