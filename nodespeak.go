// Package nodespeak compiles nodespeak, a small language for real-time
// audio processing, to LLVM IR.
//
// A program declares inputs and outputs, may compute tables once in static
// blocks, and is otherwise a straight run of array-aware statements. The
// compiler resolves everything it can at compile time, including macro
// inlining, loop unrolling and constant folding, and hands the rest to a
// native backend:
//
//	source := `
//	input [64]FLOAT samples;
//	output [64]FLOAT out;
//	out = samples * 0.5;
//	`
//	mod, err := nodespeak.Compile(source)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(mod)
//
// The stages are also available on their own through Compiler, which keeps
// a source set for include statements and times every stage:
//
//	c := nodespeak.NewCompiler(nodespeak.DefaultOptions())
//	c.AddSource("main.ns", source)
//	prog, err := c.Trivial("main.ns")
package nodespeak

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/audiobench/nodespeak/diag"
	"github.com/audiobench/nodespeak/llvmir"
	"github.com/audiobench/nodespeak/resolved"
	"github.com/audiobench/nodespeak/source"
	"github.com/audiobench/nodespeak/syntax"
	"github.com/audiobench/nodespeak/trivial"
	"github.com/audiobench/nodespeak/vague"
)

// Options configures compilation.
type Options struct {
	// Unroll allows loops with known bounds to be unrolled.
	Unroll bool

	// MaxUnroll caps the iteration count of an unrolled loop. Zero means
	// no cap.
	MaxUnroll int

	// Validate runs trivial.Validate before code generation.
	Validate bool

	// ModuleName names the generated LLVM module.
	ModuleName string

	// IncludePaths are searched by include statements.
	IncludePaths []string
}

// DefaultOptions returns sensible default options.
func DefaultOptions() Options {
	ro := resolved.DefaultOptions()
	return Options{
		Unroll:     ro.Unroll,
		MaxUnroll:  ro.MaxUnroll,
		Validate:   true,
		ModuleName: llvmir.DefaultOptions().ModuleName,
	}
}

// Compile compiles nodespeak source code to an LLVM module using default
// options.
func Compile(source string) (*llvmir.Module, error) {
	return CompileWithOptions(source, DefaultOptions())
}

// CompileWithOptions compiles nodespeak source code with custom options.
//
// The compilation pipeline is:
//  1. Parse source to a syntax tree
//  2. Ingest the tree into the vague representation
//  3. Resolve types, values and macros
//  4. Trivialize into flat instruction streams
//  5. Validate the trivial program (if enabled)
//  6. Generate LLVM IR
func CompileWithOptions(source string, opts Options) (*llvmir.Module, error) {
	c := NewCompiler(opts)
	c.AddSource("main.ns", source)
	return c.LLVMIR("main.ns")
}

// Stage names one representation of the pipeline.
type Stage uint8

const (
	StageAST Stage = iota
	StageVague
	StageResolved
	StageTrivial
	StageLLVMIR
)

var stageNames = [...]string{
	StageAST:      "ast",
	StageVague:    "vague",
	StageResolved: "resolved",
	StageTrivial:  "trivial",
	StageLLVMIR:   "llvmir",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", s)
}

// ParseStage looks a stage up by the name String gives it.
func ParseStage(name string) (Stage, error) {
	for s, n := range stageNames {
		if n == name {
			return Stage(s), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q (want one of %s)", name, strings.Join(stageNames[:], ", "))
}

// PerfCounter accumulates the time spent in one stage.
type PerfCounter struct {
	Time        time.Duration
	Invocations int
}

func (c PerfCounter) String() string {
	return fmt.Sprintf("%dms (%d invocations)", c.Time.Milliseconds(), c.Invocations)
}

// PerfCounters has one counter per stage. A stage that calls into an
// earlier one is only charged for its own work.
type PerfCounters [len(stageNames)]PerfCounter

func (p PerfCounters) String() string {
	var sb strings.Builder
	sb.WriteString("          Performance\n")
	for s, c := range p {
		fmt.Fprintf(&sb, "%8s: %s\n", Stage(s), c)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// Compiler runs the pipeline over a set of named sources. It is not safe
// for concurrent use.
type Compiler struct {
	opts    Options
	sources *source.Set
	perf    PerfCounters
}

// NewCompiler creates a compiler with an empty source set.
func NewCompiler(opts Options) *Compiler {
	set := source.NewSet()
	set.Paths = opts.IncludePaths
	return &Compiler{opts: opts, sources: set}
}

// Sources returns the compiler's source set.
func (c *Compiler) Sources() *source.Set {
	return c.sources
}

// AddSource registers a source under name, replacing any earlier content.
func (c *Compiler) AddSource(name, content string) {
	c.sources.Put(name, content)
}

// AddSourceFile reads path and registers it under its path.
func (c *Compiler) AddSourceFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c.AddSource(path, string(data))
	return nil
}

// Perf returns the accumulated stage timings.
func (c *Compiler) Perf() PerfCounters {
	return c.perf
}

func (c *Compiler) track(s Stage) func() {
	start := time.Now()
	return func() {
		c.perf[s].Time += time.Since(start)
		c.perf[s].Invocations++
	}
}

func (c *Compiler) file(name string) (int, error) {
	idx := c.sources.Find(name)
	if idx < 0 {
		return -1, fmt.Errorf("failed to find a source named %s", name)
	}
	return idx, nil
}

// Parse parses the named source into a syntax tree.
func (c *Compiler) Parse(name string) (*syntax.File, error) {
	idx, err := c.file(name)
	if err != nil {
		return nil, err
	}
	defer c.track(StageAST)()
	tree, err := syntax.ParseFile(c.sources, idx)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return tree, nil
}

// Vague ingests the named source. Included files are parsed here too.
func (c *Compiler) Vague(name string) (*vague.Program, error) {
	tree, err := c.Parse(name)
	if err != nil {
		return nil, err
	}
	idx, _ := c.file(name)
	defer c.track(StageVague)()
	prog, err := vague.IngestTree(c.sources, idx, tree)
	if err != nil {
		return nil, fmt.Errorf("vague error: %w", err)
	}
	return prog, nil
}

// Resolved resolves the named source.
func (c *Compiler) Resolved(name string) (*resolved.Program, error) {
	vp, err := c.Vague(name)
	if err != nil {
		return nil, err
	}
	defer c.track(StageResolved)()
	prog, err := resolved.Resolve(vp, resolved.Options{Unroll: c.opts.Unroll, MaxUnroll: c.opts.MaxUnroll})
	if err != nil {
		return nil, fmt.Errorf("resolve error: %w", err)
	}
	return prog, nil
}

// Trivial lowers the named source to a trivial program, validating it when
// the options ask for it.
func (c *Compiler) Trivial(name string) (*trivial.Program, error) {
	rp, err := c.Resolved(name)
	if err != nil {
		return nil, err
	}
	defer c.track(StageTrivial)()
	prog, err := trivial.Trivialize(rp, c.sources)
	if err != nil {
		return nil, fmt.Errorf("trivialize error: %w", err)
	}
	if c.opts.Validate {
		validationErrors, err := trivial.Validate(prog)
		if err != nil {
			return nil, fmt.Errorf("validation error: %w", err)
		}
		if len(validationErrors) > 0 {
			return nil, fmt.Errorf("validation failed: %w", &validationErrors[0])
		}
	}
	return prog, nil
}

// LLVMIR compiles the named source all the way to an LLVM module.
func (c *Compiler) LLVMIR(name string) (*llvmir.Module, error) {
	tp, err := c.Trivial(name)
	if err != nil {
		return nil, err
	}
	defer c.track(StageLLVMIR)()
	return llvmir.Generate(tp, llvmir.Options{ModuleName: c.opts.ModuleName})
}

// Dump compiles the named source up to stage and returns its text form.
func (c *Compiler) Dump(name string, stage Stage) (string, error) {
	var out fmt.Stringer
	var err error
	switch stage {
	case StageAST:
		var tree *syntax.File
		if tree, err = c.Parse(name); err == nil {
			return syntax.Format(tree), nil
		}
	case StageVague:
		out, err = c.Vague(name)
	case StageResolved:
		out, err = c.Resolved(name)
	case StageTrivial:
		out, err = c.Trivial(name)
	case StageLLVMIR:
		out, err = c.LLVMIR(name)
	default:
		return "", fmt.Errorf("unknown stage %s", stage)
	}
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

// FormatError renders err with source context when it carries a
// diagnostic.
func (c *Compiler) FormatError(err error) string {
	var problem *diag.Problem
	if errors.As(err, &problem) {
		return problem.Format(c.sources)
	}
	return err.Error()
}
