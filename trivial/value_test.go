package trivial

import (
	"reflect"
	"testing"

	"github.com/audiobench/nodespeak/types"
	"github.com/audiobench/nodespeak/vague"
)

func TestInflate(t *testing.T) {
	p := &Program{}
	scalar := p.AddVariable(Variable{Type: types.Float})
	one := p.AddVariable(Variable{Type: types.Array{Len: 1, Elem: types.Float}})
	row := p.AddVariable(Variable{Type: types.Array{Len: 2, Elem: types.Float}})

	tests := []struct {
		name string
		v    VariableHandle
		dims []int
		want []Dim
	}{
		{"scalar", scalar, []int{2, 3}, []Dim{{2, Discard}, {3, Discard}}},
		{"length one", one, []int{4}, []Dim{{4, Collapse}}},
		{"outer aligned", row, []int{2, 3}, []Dim{{2, Keep}, {3, Discard}}},
		{"same", row, []int{2}, []Dim{{2, Keep}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := VariableValue(p, tt.v).Inflate(tt.dims)
			if err != nil {
				t.Fatalf("Inflate failed: %v", err)
			}
			if !reflect.DeepEqual(got.Dims, tt.want) {
				t.Errorf("got %v, want %v", got.Dims, tt.want)
			}
		})
	}

	if _, err := VariableValue(p, row).Inflate([]int{3}); err == nil {
		t.Error("inflating [2] to [3] should fail")
	}
	if _, err := VariableValue(p, row).Inflate(nil); err == nil {
		t.Error("inflating [2] to a scalar should fail")
	}
}

func TestAt(t *testing.T) {
	p := &Program{}
	one := p.AddVariable(Variable{Type: types.Array{Len: 1, Elem: types.Array{Len: 3, Elem: types.Int}}})
	v, err := VariableValue(p, one).Inflate([]int{4, 3})
	if err != nil {
		t.Fatal(err)
	}
	got := v.At([]int{2, 1})
	if !reflect.DeepEqual(got.Coord, []int{0, 1}) || !got.IsScalar() {
		t.Errorf("got %s, want element [0][1]", got)
	}
	if got.Type(p) != types.Int {
		t.Errorf("element type = %s, want INT", got.Type(p))
	}

	lit, err := LiteralValue(vague.ArrayData{vague.IntData(5)}).Inflate([]int{3})
	if err != nil {
		t.Fatal(err)
	}
	if e := lit.At([]int{2}); e.Literal != vague.IntData(5) {
		t.Errorf("got %s, want the single literal element", e)
	}
}

func TestConditionNegate(t *testing.T) {
	for c := LessThan; c <= NotEqual; c++ {
		if c.Negate().Negate() != c {
			t.Errorf("%s negated twice is %s", c, c.Negate().Negate())
		}
		if c.Negate() == c {
			t.Errorf("%s is its own negation", c)
		}
	}
}
