// Command nodespeakc is the nodespeak compiler CLI.
//
// Usage:
//
//	nodespeakc [options] <phase> <input.ns>...
//
// The phase is one of ast, vague, resolved, trivial or llvmir, and selects
// which representation is printed.
//
// Examples:
//
//	nodespeakc llvmir synth.ns              # Compile to LLVM IR on stdout
//	nodespeakc -o synth.ll llvmir synth.ns  # Compile to a file
//	nodespeakc -perf trivial synth.ns       # Print stage timings too
//	nodespeakc -repl resolved               # Interactive session
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/audiobench/nodespeak"
)

const nodespeakVersion = "0.1.0-dev"

// includeFlags collects repeated -I flags.
type includeFlags []string

func (f *includeFlags) String() string { return strings.Join(*f, ",") }

func (f *includeFlags) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("nodespeakc: ")
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process exit, returning the exit status.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nodespeakc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "YAML config file")
		output     = fs.String("o", "", "output file (default: stdout)")
		unroll     = fs.Bool("unroll", true, "unroll loops with known bounds")
		maxUnroll  = fs.Int("max-unroll", nodespeak.DefaultOptions().MaxUnroll, "largest loop to unroll (0 for no limit)")
		validate   = fs.Bool("validate", true, "validate the trivial program")
		module     = fs.String("module", nodespeak.DefaultOptions().ModuleName, "LLVM module name")
		perf       = fs.Bool("perf", false, "print stage timings")
		repl       = fs.Bool("repl", false, "start an interactive session")
		version    = fs.Bool("version", false, "print version")
		includes   includeFlags
	)
	fs.Var(&includes, "I", "add an include search path (repeatable)")
	fs.Usage = func() { usage(fs, stderr) }
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	logger := log.New(stderr, log.Prefix(), log.Flags())

	if *version {
		fmt.Fprintf(stdout, "nodespeakc version %s\n", nodespeakVersion)
		return 0
	}

	opts := nodespeak.DefaultOptions()
	cfg := &Config{}
	if *configPath != "" {
		var err error
		if cfg, err = loadConfig(*configPath); err != nil {
			logger.Printf("%v", err)
			return 1
		}
		cfg.apply(&opts)
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["unroll"] {
		opts.Unroll = *unroll
	}
	if set["max-unroll"] {
		opts.MaxUnroll = *maxUnroll
	}
	if set["validate"] {
		opts.Validate = *validate
	}
	if set["module"] {
		opts.ModuleName = *module
	}
	opts.IncludePaths = append(opts.IncludePaths, includes...)
	if set["o"] || cfg.Output == "" {
		cfg.Output = *output
	}
	if set["perf"] {
		cfg.Perf = *perf
	}

	rest := fs.Args()
	phaseName := cfg.Phase
	if len(rest) > 0 {
		phaseName, rest = rest[0], rest[1:]
	}
	if phaseName == "" {
		fmt.Fprintln(stderr, "Error: no phase specified")
		usage(fs, stderr)
		return 1
	}
	phase, err := nodespeak.ParseStage(phaseName)
	if err != nil {
		logger.Printf("%v", err)
		return 1
	}

	if *repl {
		return runREPL(opts, phase, stdout, stderr)
	}
	if len(rest) == 0 {
		fmt.Fprintln(stderr, "Error: no input file specified")
		usage(fs, stderr)
		return 1
	}

	c := nodespeak.NewCompiler(opts)
	var out strings.Builder
	for _, path := range rest {
		if err := c.AddSourceFile(path); err != nil {
			logger.Printf("%v", err)
			return 1
		}
		text, err := c.Dump(path, phase)
		if err != nil {
			fmt.Fprintln(stderr, c.FormatError(err))
			logger.Printf("compilation of %s failed", path)
			return 1
		}
		if len(rest) > 1 {
			fmt.Fprintf(&out, "; %s\n", path)
		}
		out.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			out.WriteString("\n")
		}
	}

	if cfg.Output != "" {
		if err := os.WriteFile(cfg.Output, []byte(out.String()), 0o644); err != nil {
			logger.Printf("writing output: %v", err)
			return 1
		}
		fmt.Fprintf(stdout, "Successfully compiled %s to %s (%s)\n", strings.Join(rest, ", "), cfg.Output, phase)
	} else if _, err := io.WriteString(stdout, out.String()); err != nil {
		logger.Printf("writing output: %v", err)
		return 1
	}

	if cfg.Perf {
		fmt.Fprintln(stderr, c.Perf())
	}
	return 0
}

func usage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, "Usage: nodespeakc [options] <phase> <input.ns>...\n\n")
	fmt.Fprintf(w, "Phases: ast, vague, resolved, trivial, llvmir\n\n")
	fmt.Fprintf(w, "Options:\n")
	fs.PrintDefaults()
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  nodespeakc llvmir synth.ns              Compile to stdout\n")
	fmt.Fprintf(w, "  nodespeakc -o synth.ll llvmir synth.ns  Compile to file\n")
	fmt.Fprintf(w, "  nodespeakc -perf trivial synth.ns       Print stage timings\n")
	fmt.Fprintf(w, "  nodespeakc -repl resolved               Interactive session\n")
}
