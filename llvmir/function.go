package llvmir

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"

	"github.com/audiobench/nodespeak/trivial"
)

// functionBuilder converts one instruction stream into the body of fn.
type functionBuilder struct {
	*generator
	fn *ir.Func
	// block is nil after a terminator until the next label.
	block    *ir.Block
	pointers map[trivial.VariableHandle]value.Value
	labels   map[trivial.LabelHandle]*ir.Block
}

func (g *generator) function(fn *ir.Func, stream []trivial.Instruction, static bool) error {
	f := &functionBuilder{
		generator: g,
		fn:        fn,
		pointers:  map[trivial.VariableHandle]value.Value{},
		labels:    map[trivial.LabelHandle]*ir.Block{},
	}
	f.block = fn.NewBlock("entry")
	if err := f.createPointers(static); err != nil {
		return err
	}

	for i, inst := range stream {
		if err := f.instruction(inst); err != nil {
			return errors.Wrapf(err, "instruction %d (%s)", i, trivial.FormatInstruction(inst))
		}
	}
	for l, b := range f.labels {
		if b.Parent == nil {
			return errors.Errorf("label l%d is never placed", l)
		}
	}
	if f.block != nil {
		f.block.NewRet(i32(0))
	}
	return nil
}

// createPointers gives every variable the stream may touch a pointer:
// struct fields for inputs, outputs and statics, allocas for locals.
func (f *functionBuilder) createPointers(static bool) error {
	params := f.fn.Params
	for i, v := range f.prog.Variables {
		h := trivial.VariableHandle(i)
		t, err := llvmType(v.Type)
		if err != nil {
			return errors.Wrapf(err, "tv%d", h)
		}
		var param *ir.Param
		var structType lltypes.Type
		switch {
		case v.Location == trivial.Static && static:
			param, structType = params[0], f.staticType
		case static:
			if v.Location == trivial.StaticBody {
				f.pointers[h] = f.block.NewAlloca(t)
			}
			continue
		case v.Location == trivial.Input:
			param, structType = params[0], f.inputType
		case v.Location == trivial.Output:
			param, structType = params[1], f.outputType
		case v.Location == trivial.Static:
			param, structType = params[2], f.staticType
		case v.Location == trivial.MainBody:
			f.pointers[h] = f.block.NewAlloca(t)
			continue
		default:
			continue
		}
		field, ok := f.fields[h]
		if !ok {
			return errors.Errorf("tv%d is stored as %s but is not declared as one", h, v.Location)
		}
		f.pointers[h] = f.block.NewGetElementPtr(structType, param, i32(0), i32(field))
	}
	return nil
}

// label returns the block for l, creating it detached. It joins the
// function when the label is placed, so blocks appear in stream order.
func (f *functionBuilder) label(l trivial.LabelHandle) *ir.Block {
	if b, ok := f.labels[l]; ok {
		return b
	}
	b := ir.NewBlock(fmt.Sprintf("l%d", l))
	f.labels[l] = b
	return b
}

// current returns the block to append to. Code following a terminator is
// unreachable but still has to live in some block.
func (f *functionBuilder) current() *ir.Block {
	if f.block == nil {
		f.block = f.fn.NewBlock("")
	}
	return f.block
}

func (f *functionBuilder) pointer(v trivial.Value) (value.Value, error) {
	if v.IsLiteral() {
		return nil, errors.Errorf("%s is a literal and has no address", v)
	}
	base, ok := f.pointers[v.Var]
	if !ok {
		return nil, errors.Errorf("tv%d is not available in @%s", v.Var, f.fn.Name())
	}
	if len(v.Coord) == 0 {
		return base, nil
	}
	t, err := llvmType(f.prog.Variable(v.Var).Type)
	if err != nil {
		return nil, err
	}
	indexes := make([]value.Value, 0, len(v.Coord)+1)
	indexes = append(indexes, i32(0))
	for _, c := range v.Coord {
		indexes = append(indexes, i32(c))
	}
	return f.current().NewGetElementPtr(t, base, indexes...), nil
}

func (f *functionBuilder) load(v trivial.Value) (value.Value, error) {
	if !v.IsScalar() {
		return nil, errors.Errorf("%s is not a single element", v)
	}
	if v.IsLiteral() {
		return scalarConstant(v.Literal)
	}
	ptr, err := f.pointer(v)
	if err != nil {
		return nil, err
	}
	t, err := llvmType(v.Type(f.prog))
	if err != nil {
		return nil, err
	}
	return f.current().NewLoad(t, ptr), nil
}

func (f *functionBuilder) store(x value.Value, to trivial.Value) error {
	if !to.IsScalar() {
		return errors.Errorf("%s is not a single element", to)
	}
	ptr, err := f.pointer(to)
	if err != nil {
		return err
	}
	f.current().NewStore(x, ptr)
	return nil
}

// indexed addresses an element of a whole variable through runtime
// indexes. The index list already starts with the literal 0 LLVM wants.
func (f *functionBuilder) indexed(base trivial.Value, indexes []trivial.Value) (value.Value, error) {
	ptr, err := f.pointer(base)
	if err != nil {
		return nil, err
	}
	t, err := llvmType(f.prog.Variable(base.Var).Type)
	if err != nil {
		return nil, err
	}
	values := make([]value.Value, len(indexes))
	for i, idx := range indexes {
		if values[i], err = f.load(idx); err != nil {
			return nil, err
		}
	}
	return f.current().NewGetElementPtr(t, ptr, values...), nil
}

func (f *functionBuilder) instruction(inst trivial.Instruction) error {
	switch i := inst.(type) {
	case *trivial.Move:
		x, err := f.load(i.From)
		if err != nil {
			return err
		}
		return f.store(x, i.To)

	case *trivial.Load:
		ptr, err := f.indexed(i.From, i.Indexes)
		if err != nil {
			return err
		}
		t, err := llvmType(i.To.Type(f.prog))
		if err != nil {
			return err
		}
		return f.store(f.current().NewLoad(t, ptr), i.To)

	case *trivial.Store:
		x, err := f.load(i.From)
		if err != nil {
			return err
		}
		ptr, err := f.indexed(i.To, i.Indexes)
		if err != nil {
			return err
		}
		f.current().NewStore(x, ptr)
		return nil

	case *trivial.Unary:
		a, err := f.load(i.A)
		if err != nil {
			return err
		}
		x, err := f.unary(i.Op, a)
		if err != nil {
			return err
		}
		return f.store(x, i.X)

	case *trivial.Binary:
		a, err := f.load(i.A)
		if err != nil {
			return err
		}
		b, err := f.load(i.B)
		if err != nil {
			return err
		}
		x, err := f.binary(i.Op, i.Cond, a, b)
		if err != nil {
			return err
		}
		return f.store(x, i.X)

	case *trivial.Label:
		b := f.label(i.Label)
		if b.Parent != nil {
			return errors.Errorf("label l%d is placed twice", i.Label)
		}
		if f.block != nil {
			f.block.NewBr(b)
		}
		b.Parent = f.fn
		f.fn.Blocks = append(f.fn.Blocks, b)
		f.block = b
		return nil

	case *trivial.Jump:
		f.current().NewBr(f.label(i.Label))
		f.block = nil
		return nil

	case *trivial.Branch:
		cond, err := f.load(i.Condition)
		if err != nil {
			return err
		}
		f.current().NewCondBr(cond, f.label(i.True), f.label(i.False))
		f.block = nil
		return nil

	case *trivial.Abort:
		if i.Code < 0 || i.Code >= len(f.prog.Errors) {
			return errors.Errorf("abort code %d has no error description", i.Code)
		}
		f.current().NewRet(i32(i.Code + 1))
		f.block = nil
		return nil
	}
	return errors.Errorf("unsupported instruction %T", inst)
}

var unaryIntrinsics = map[trivial.UnaryOp]string{
	trivial.FSin:   "llvm.sin.f32",
	trivial.FCos:   "llvm.cos.f32",
	trivial.FSqrt:  "llvm.sqrt.f32",
	trivial.FExp:   "llvm.exp.f32",
	trivial.FExp2:  "llvm.exp2.f32",
	trivial.FLog:   "llvm.log.f32",
	trivial.FLog10: "llvm.log10.f32",
	trivial.FLog2:  "llvm.log2.f32",
	trivial.FAbs:   "llvm.fabs.f32",
	trivial.FFloor: "llvm.floor.f32",
	trivial.FCeil:  "llvm.ceil.f32",
	trivial.FTrunc: "llvm.trunc.f32",
}

func (f *functionBuilder) unary(op trivial.UnaryOp, a value.Value) (value.Value, error) {
	b := f.current()
	if name, ok := unaryIntrinsics[op]; ok {
		return b.NewCall(f.intrinsic(name, 1), a), nil
	}
	switch op {
	case trivial.NegI:
		return b.NewSub(i32(0), a), nil
	case trivial.NegF:
		return b.NewFNeg(a), nil
	case trivial.Not:
		return b.NewXor(a, constant.True), nil
	case trivial.BNot:
		return b.NewXor(a, i32(-1)), nil
	case trivial.IAbs:
		neg := b.NewICmp(enum.IPredSLT, a, i32(0))
		return b.NewSelect(neg, b.NewSub(i32(0), a), a), nil
	case trivial.Ftoi:
		return b.NewFPToSI(a, lltypes.I32), nil
	case trivial.Itof:
		return b.NewSIToFP(a, lltypes.Float), nil
	}
	return nil, errors.Errorf("unsupported unary operator %s", op)
}

var intPredicates = map[trivial.Condition]enum.IPred{
	trivial.Equal:              enum.IPredEQ,
	trivial.NotEqual:           enum.IPredNE,
	trivial.GreaterThan:        enum.IPredSGT,
	trivial.GreaterThanOrEqual: enum.IPredSGE,
	trivial.LessThan:           enum.IPredSLT,
	trivial.LessThanOrEqual:    enum.IPredSLE,
}

var floatPredicates = map[trivial.Condition]enum.FPred{
	trivial.Equal:              enum.FPredOEQ,
	trivial.NotEqual:           enum.FPredONE,
	trivial.GreaterThan:        enum.FPredOGT,
	trivial.GreaterThanOrEqual: enum.FPredOGE,
	trivial.LessThan:           enum.FPredOLT,
	trivial.LessThanOrEqual:    enum.FPredOLE,
}

//nolint:gocyclo // one case per operator
func (f *functionBuilder) binary(op trivial.BinaryOp, cond trivial.Condition, a, b value.Value) (value.Value, error) {
	blk := f.current()
	switch op {
	case trivial.AddI:
		return blk.NewAdd(a, b), nil
	case trivial.SubI:
		return blk.NewSub(a, b), nil
	case trivial.MulI:
		return blk.NewMul(a, b), nil
	case trivial.DivI:
		return blk.NewSDiv(a, b), nil
	case trivial.ModI:
		return blk.NewSRem(a, b), nil
	case trivial.PowI:
		// No integer pow intrinsic exists; go through float.
		af := blk.NewSIToFP(a, lltypes.Float)
		bf := blk.NewSIToFP(b, lltypes.Float)
		x := blk.NewCall(f.intrinsic("llvm.pow.f32", 2), af, bf)
		return blk.NewFPToSI(x, lltypes.I32), nil
	case trivial.AddF:
		return blk.NewFAdd(a, b), nil
	case trivial.SubF:
		return blk.NewFSub(a, b), nil
	case trivial.MulF:
		return blk.NewFMul(a, b), nil
	case trivial.DivF:
		return blk.NewFDiv(a, b), nil
	case trivial.ModF:
		return blk.NewFRem(a, b), nil
	case trivial.PowF:
		return blk.NewCall(f.intrinsic("llvm.pow.f32", 2), a, b), nil
	case trivial.BAnd, trivial.And:
		return blk.NewAnd(a, b), nil
	case trivial.BOr, trivial.Or:
		return blk.NewOr(a, b), nil
	case trivial.BXor, trivial.Xor:
		return blk.NewXor(a, b), nil
	case trivial.LeftShift:
		return blk.NewShl(a, b), nil
	case trivial.RightShift:
		return blk.NewAShr(a, b), nil
	case trivial.CompI:
		pred, ok := intPredicates[cond]
		if !ok {
			return nil, errors.Errorf("unknown condition %d", cond)
		}
		return blk.NewICmp(pred, a, b), nil
	case trivial.CompF:
		pred, ok := floatPredicates[cond]
		if !ok {
			return nil, errors.Errorf("unknown condition %d", cond)
		}
		return blk.NewFCmp(pred, a, b), nil
	}
	return nil, errors.Errorf("unsupported binary operator %s", op)
}
