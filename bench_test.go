package nodespeak

import (
	"runtime"
	"testing"

	"github.com/audiobench/nodespeak/llvmir"
	"github.com/audiobench/nodespeak/resolved"
	"github.com/audiobench/nodespeak/source"
	"github.com/audiobench/nodespeak/syntax"
	"github.com/audiobench/nodespeak/trivial"
	"github.com/audiobench/nodespeak/vague"
)

// ---------------------------------------------------------------------------
// Benchmark programs at different complexity levels
// ---------------------------------------------------------------------------

// programGain scales a block of samples.
const programGain = `
input [64]FLOAT samples;
input FLOAT gain;
output [64]FLOAT out;
out = samples * gain;
`

// programOnePole is a one-pole lowpass filter with state carried in a static.
const programOnePole = `
input [16]FLOAT samples;
input FLOAT cutoff;
output [16]FLOAT out;
static state {
    FLOAT state = 0.0;
}
for i = 0 to 16 {
    state = state + (samples[i] - state) * cutoff;
    out[i] = state;
}
`

// programWavetable builds a sine table once and reads it at a runtime
// position through macros.
const programWavetable = `
input INT phase;
input FLOAT amp;
output FLOAT out;
macro Lookup(t, at): value {
    FLOAT value = t[at];
}
macro Shape(x, k): y {
    FLOAT y = Sin(x) * k;
}
static table {
    [32]FLOAT table;
    for i = 0 to 32 {
        table[i] = Sin(Itof(i) / 32.0 * TAU);
    }
}
assert phase >= 0;
out = Shape(Lookup(table, phase), amp);
`

type programCase struct {
	name   string
	source string
}

var programsByComplexity = []programCase{
	{"small_gain", programGain},
	{"medium_filter", programOnePole},
	{"large_wavetable", programWavetable},
}

// ---------------------------------------------------------------------------
// End-to-End compilation benchmarks
// ---------------------------------------------------------------------------

// BenchmarkCompile benchmarks full source-to-LLVM compilation grouped by
// program complexity.
func BenchmarkCompile(b *testing.B) {
	for _, pc := range programsByComplexity {
		b.Run(pc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(pc.source)))
			b.ResetTimer()

			var result *llvmir.Module
			for i := 0; i < b.N; i++ {
				var err error
				result, err = Compile(pc.source)
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// BenchmarkCompileNoUnroll measures the same programs with loops kept.
func BenchmarkCompileNoUnroll(b *testing.B) {
	opts := DefaultOptions()
	opts.Unroll = false
	for _, pc := range programsByComplexity {
		b.Run(pc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(pc.source)))
			b.ResetTimer()

			var result *llvmir.Module
			for i := 0; i < b.N; i++ {
				var err error
				result, err = CompileWithOptions(pc.source, opts)
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
			}
			runtime.KeepAlive(result)
		})
	}
}

// ---------------------------------------------------------------------------
// Individual stage benchmarks
// ---------------------------------------------------------------------------

func parseProgram(b *testing.B, src string) (*source.Set, int, *syntax.File) {
	b.Helper()
	set := source.NewSet()
	file := set.Add("bench.ns", src)
	tree, err := syntax.ParseFile(set, file)
	if err != nil {
		b.Fatalf("parse failed: %v", err)
	}
	return set, file, tree
}

// BenchmarkParse benchmarks tokenization and parsing.
func BenchmarkParse(b *testing.B) {
	for _, pc := range programsByComplexity {
		b.Run(pc.name, func(b *testing.B) {
			set := source.NewSet()
			file := set.Add("bench.ns", pc.source)

			b.ReportAllocs()
			b.SetBytes(int64(len(pc.source)))
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				tree, err := syntax.ParseFile(set, file)
				if err != nil {
					b.Fatalf("parse failed: %v", err)
				}
				runtime.KeepAlive(tree)
			}
		})
	}
}

// BenchmarkResolve benchmarks ingestion plus resolution, the stage that
// inlines macros and unrolls loops.
func BenchmarkResolve(b *testing.B) {
	for _, pc := range programsByComplexity {
		b.Run(pc.name, func(b *testing.B) {
			set, file, tree := parseProgram(b, pc.source)

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				vp, err := vague.IngestTree(set, file, tree)
				if err != nil {
					b.Fatalf("ingest failed: %v", err)
				}
				rp, err := resolved.Resolve(vp, resolved.DefaultOptions())
				if err != nil {
					b.Fatalf("resolve failed: %v", err)
				}
				runtime.KeepAlive(rp)
			}
		})
	}
}

// BenchmarkTrivialize benchmarks lowering and validation of a resolved
// program.
func BenchmarkTrivialize(b *testing.B) {
	for _, pc := range programsByComplexity {
		b.Run(pc.name, func(b *testing.B) {
			set, file, tree := parseProgram(b, pc.source)
			vp, err := vague.IngestTree(set, file, tree)
			if err != nil {
				b.Fatalf("ingest failed: %v", err)
			}
			rp, err := resolved.Resolve(vp, resolved.DefaultOptions())
			if err != nil {
				b.Fatalf("resolve failed: %v", err)
			}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				tp, err := trivial.Trivialize(rp, set)
				if err != nil {
					b.Fatalf("trivialize failed: %v", err)
				}
				errs, err := trivial.Validate(tp)
				if err != nil || len(errs) > 0 {
					b.Fatalf("validate failed: %v %v", err, errs)
				}
			}
		})
	}
}

// BenchmarkGenerateLLVM benchmarks only LLVM IR generation and printing.
func BenchmarkGenerateLLVM(b *testing.B) {
	for _, pc := range programsByComplexity {
		b.Run(pc.name, func(b *testing.B) {
			c := NewCompiler(DefaultOptions())
			c.AddSource("bench.ns", pc.source)
			tp, err := c.Trivial("bench.ns")
			if err != nil {
				b.Fatalf("trivial failed: %v", err)
			}

			b.ReportAllocs()
			b.ResetTimer()

			var text string
			for i := 0; i < b.N; i++ {
				mod, err := llvmir.Generate(tp, llvmir.DefaultOptions())
				if err != nil {
					b.Fatalf("generate failed: %v", err)
				}
				text = mod.String()
			}
			runtime.KeepAlive(text)
		})
	}
}
