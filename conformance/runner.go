package conformance

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/audiobench/nodespeak"
	"github.com/audiobench/nodespeak/diag"
)

// MainName is the name a case's source is registered under.
const MainName = "main.ns"

// Result is the outcome of running one case.
type Result struct {
	Case       LoadedCase
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Runner compiles cases and checks their expectations.
type Runner struct {
	Options nodespeak.Options
}

// NewRunner creates a runner using nodespeak.DefaultOptions.
func NewRunner() *Runner {
	return &Runner{Options: nodespeak.DefaultOptions()}
}

// Run executes a single case.
func (r *Runner) Run(lc LoadedCase) Result {
	if skipped, reason := lc.Case.IsSkipped(); skipped {
		return Result{Case: lc, Skipped: true, SkipReason: reason}
	}
	if err := r.check(lc); err != nil {
		return Result{Case: lc, Error: err}
	}
	return Result{Case: lc, Passed: true}
}

// RunAll executes cases in order.
func (r *Runner) RunAll(cases []LoadedCase) []Result {
	results := make([]Result, 0, len(cases))
	for _, lc := range cases {
		results = append(results, r.Run(lc))
	}
	return results
}

func (r *Runner) options(lc LoadedCase) nodespeak.Options {
	opts := r.Options
	for _, o := range []*Overrides{lc.Suite.Options, lc.Case.Options} {
		if o == nil {
			continue
		}
		if o.Unroll != nil {
			opts.Unroll = *o.Unroll
		}
		if o.MaxUnroll != nil {
			opts.MaxUnroll = *o.MaxUnroll
		}
		if o.Validate != nil {
			opts.Validate = *o.Validate
		}
	}
	return opts
}

func (r *Runner) compiler(lc LoadedCase) *nodespeak.Compiler {
	c := nodespeak.NewCompiler(r.options(lc))
	names := make([]string, 0, len(lc.Case.Includes))
	for name := range lc.Case.Includes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.AddSource(name, lc.Case.Includes[name])
	}
	c.AddSource(MainName, lc.Case.Source)
	return c
}

func (r *Runner) check(lc LoadedCase) error {
	exp := lc.Case.Expect
	phase := nodespeak.StageLLVMIR
	if exp.Phase != "" {
		var err error
		if phase, err = nodespeak.ParseStage(exp.Phase); err != nil {
			return err
		}
	}
	if exp.Error != "" {
		return r.checkError(lc, phase)
	}

	c := r.compiler(lc)
	out, err := c.Dump(MainName, phase)
	if err != nil {
		return fmt.Errorf("unexpected error: %s", c.FormatError(err))
	}
	for _, want := range exp.Contains {
		if !strings.Contains(out, want) {
			return fmt.Errorf("%s output does not contain %q:\n%s", phase, want, out)
		}
	}
	for _, bad := range exp.Excludes {
		if strings.Contains(out, bad) {
			return fmt.Errorf("%s output contains %q:\n%s", phase, bad, out)
		}
	}
	if exp.Count != nil {
		if got := strings.Count(out, exp.Count.Text); got != exp.Count.N {
			return fmt.Errorf("%s output contains %q %d times, want %d", phase, exp.Count.Text, got, exp.Count.N)
		}
	}
	if exp.Errors != nil {
		mod, err := c.LLVMIR(MainName)
		if err != nil {
			return err
		}
		if len(mod.Errors) != *exp.Errors {
			return fmt.Errorf("error table has %d entries, want %d", len(mod.Errors), *exp.Errors)
		}
	}
	return nil
}

// checkError requires the case to fail with the expected kind. When a phase
// is named, the stage before it must still succeed.
func (r *Runner) checkError(lc LoadedCase, phase nodespeak.Stage) error {
	want := diag.Kind(lc.Case.Expect.Error)
	c := r.compiler(lc)
	_, err := c.Dump(MainName, phase)
	if err == nil {
		return fmt.Errorf("expected %s, compilation succeeded", want)
	}
	var problem *diag.Problem
	if !errors.As(err, &problem) {
		return fmt.Errorf("expected %s, got %v", want, err)
	}
	if problem.Kind != want {
		return fmt.Errorf("expected %s, got %s", want, c.FormatError(err))
	}
	if lc.Case.Expect.Phase != "" && phase > nodespeak.StageAST {
		if _, err := r.compiler(lc).Dump(MainName, phase-1); err != nil {
			return fmt.Errorf("expected %s from %s, but %s already failed: %v", want, phase, phase-1, err)
		}
	}
	return nil
}

// Stats summarizes a run.
type Stats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats tallies results.
func ComputeStats(results []Result) Stats {
	s := Stats{Total: len(results)}
	for _, res := range results {
		switch {
		case res.Skipped:
			s.Skipped++
		case res.Passed:
			s.Passed++
		default:
			s.Failed++
		}
	}
	return s
}

// FormatStats renders stats as a one-line summary.
func FormatStats(s Stats) string {
	return fmt.Sprintf("Total: %d, Passed: %d, Failed: %d, Skipped: %d", s.Total, s.Passed, s.Failed, s.Skipped)
}
