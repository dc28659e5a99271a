// Package llvmir lowers a trivial program to an LLVM IR module.
//
// The module defines two functions:
//
//	i32 @static_init(%Static* %static)
//	i32 @main(%Input* %input, %Output* %output, %Static* %static)
//
// The host owns the three structs. They are packed, and their fields
// follow the order of Program.Inputs, Program.Outputs and Program.Statics.
// Both functions return 0 on success. Any other value is one more than an
// index into the error table, which the module also carries as global
// string constants named @error.N.
//
// # Basic Usage
//
//	mod, err := llvmir.Generate(prog, llvmir.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	fmt.Print(mod)
package llvmir

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/pkg/errors"

	"github.com/audiobench/nodespeak/trivial"
)

// Options configures LLVM IR generation.
type Options struct {
	// ModuleName becomes the module's source_filename.
	ModuleName string

	// TargetTriple is written into the module when set.
	TargetTriple string
}

// DefaultOptions returns the options used by the compiler driver.
func DefaultOptions() Options {
	return Options{ModuleName: "nsprog"}
}

// Module is a generated LLVM module plus what a host needs to drive it.
type Module struct {
	IR *ir.Module

	// InputSize, OutputSize and StaticSize are the byte sizes of the packed
	// structs.
	InputSize  int
	OutputSize int
	StaticSize int

	Errors []string
}

// String returns the textual IR.
func (m *Module) String() string {
	return m.IR.String()
}

// Describe translates a return code of main or static_init. It returns
// the empty string for success.
func (m *Module) Describe(code int) string {
	switch {
	case code == 0:
		return ""
	case code > 0 && code <= len(m.Errors):
		return m.Errors[code-1]
	}
	return fmt.Sprintf("invalid error code %d", code)
}

// Generate builds the LLVM module for prog. prog is expected to pass
// trivial.Validate; inconsistencies that would produce malformed IR are
// reported as errors.
func Generate(prog *trivial.Program, options Options) (*Module, error) {
	if prog == nil {
		return nil, errors.New("llvmir: program is nil")
	}

	g := newGenerator(prog, options)
	if err := g.declare(); err != nil {
		return nil, fmt.Errorf("llvmir: %w", err)
	}
	if err := g.function(g.main, prog.Main, false); err != nil {
		return nil, fmt.Errorf("llvmir: main: %w", err)
	}
	if err := g.function(g.staticInit, prog.StaticInit, true); err != nil {
		return nil, fmt.Errorf("llvmir: static_init: %w", err)
	}

	return &Module{
		IR:         g.module,
		InputSize:  sizeOfAll(prog, prog.Inputs),
		OutputSize: sizeOfAll(prog, prog.Outputs),
		StaticSize: sizeOfAll(prog, prog.Statics),
		Errors:     append([]string(nil), prog.Errors...),
	}, nil
}

type generator struct {
	prog    *trivial.Program
	options Options
	module  *ir.Module

	inputType, outputType, staticType lltypes.Type
	main, staticInit                  *ir.Func

	// fields maps an input, output or static variable to its struct field.
	fields     map[trivial.VariableHandle]int
	intrinsics map[string]*ir.Func
}

func newGenerator(prog *trivial.Program, options Options) *generator {
	m := ir.NewModule()
	m.SourceFilename = options.ModuleName
	m.TargetTriple = options.TargetTriple
	return &generator{
		prog:       prog,
		options:    options,
		module:     m,
		fields:     map[trivial.VariableHandle]int{},
		intrinsics: map[string]*ir.Func{},
	}
}

// declare creates the struct types, both function signatures and the
// error strings.
func (g *generator) declare() error {
	var err error
	if g.inputType, err = g.structType("Input", g.prog.Inputs); err != nil {
		return err
	}
	if g.outputType, err = g.structType("Output", g.prog.Outputs); err != nil {
		return err
	}
	if g.staticType, err = g.structType("Static", g.prog.Statics); err != nil {
		return err
	}

	g.staticInit = g.module.NewFunc("static_init", lltypes.I32,
		ir.NewParam("static", lltypes.NewPointer(g.staticType)))
	g.main = g.module.NewFunc("main", lltypes.I32,
		ir.NewParam("input", lltypes.NewPointer(g.inputType)),
		ir.NewParam("output", lltypes.NewPointer(g.outputType)),
		ir.NewParam("static", lltypes.NewPointer(g.staticType)))

	for code, msg := range g.prog.Errors {
		str := g.module.NewGlobalDef(fmt.Sprintf("error.%d", code), constant.NewCharArrayFromString(msg+"\x00"))
		str.Immutable = true
	}
	return nil
}

func (g *generator) structType(name string, vars []trivial.VariableHandle) (lltypes.Type, error) {
	fields := make([]lltypes.Type, len(vars))
	for i, h := range vars {
		if int(h) >= len(g.prog.Variables) {
			return nil, errors.Errorf("%s field %d refers to missing variable tv%d", name, i, h)
		}
		if _, dup := g.fields[h]; dup {
			return nil, errors.Errorf("tv%d is declared twice", h)
		}
		t, err := llvmType(g.prog.Variable(h).Type)
		if err != nil {
			return nil, err
		}
		fields[i] = t
		g.fields[h] = i
	}
	st := lltypes.NewStruct(fields...)
	st.Packed = true
	return g.module.NewTypeDef(name, st), nil
}

// intrinsic returns the declaration of an f32 LLVM intrinsic taking arity
// float arguments, declaring it on first use.
func (g *generator) intrinsic(name string, arity int) *ir.Func {
	if f, ok := g.intrinsics[name]; ok {
		return f
	}
	params := make([]*ir.Param, arity)
	for i := range params {
		params[i] = ir.NewParam("", lltypes.Float)
	}
	f := g.module.NewFunc(name, lltypes.Float, params...)
	g.intrinsics[name] = f
	return f
}
