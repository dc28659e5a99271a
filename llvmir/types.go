package llvmir

import (
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/pkg/errors"

	"github.com/audiobench/nodespeak/trivial"
	"github.com/audiobench/nodespeak/types"
	"github.com/audiobench/nodespeak/vague"
)

func llvmType(t types.Type) (lltypes.Type, error) {
	switch t := t.(type) {
	case types.Primitive:
		switch t {
		case types.Bool:
			return lltypes.I1, nil
		case types.Int:
			return lltypes.I32, nil
		case types.Float:
			return lltypes.Float, nil
		}
	case types.Array:
		elem, err := llvmType(t.Elem)
		if err != nil {
			return nil, err
		}
		return lltypes.NewArray(uint64(t.Len), elem), nil
	}
	return nil, errors.Errorf("type %v has no runtime representation", t)
}

// sizeOf is the packed byte size of t. Booleans take one byte.
func sizeOf(t types.Type) int {
	n := types.Size(t)
	if types.Base(t) == types.Bool {
		return n
	}
	return 4 * n
}

func sizeOfAll(prog *trivial.Program, vars []trivial.VariableHandle) int {
	total := 0
	for _, h := range vars {
		total += sizeOf(prog.Variable(h).Type)
	}
	return total
}

// scalarConstant converts a scalar literal. Integers wrap to 32 bits and
// floats round to single precision.
func scalarConstant(k vague.KnownData) (constant.Constant, error) {
	switch k := k.(type) {
	case vague.BoolData:
		return constant.NewBool(bool(k)), nil
	case vague.IntData:
		return constant.NewInt(lltypes.I32, int64(int32(k))), nil
	case vague.FloatData:
		return constant.NewFloat(lltypes.Float, float64(float32(k))), nil
	}
	return nil, errors.Errorf("literal %v is not a runtime scalar", k)
}

func i32(n int) constant.Constant {
	return constant.NewInt(lltypes.I32, int64(n))
}
