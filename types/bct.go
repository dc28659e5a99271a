package types

// Biggest returns the smallest type both a and b promote to without loss.
//
// Identical types are compatible with themselves. Arrays of equal length
// combine their elements. A length-1 array broadcasts against any other
// array, and a scalar against any array. Everything else is incompatible.
func Biggest(a, b Type) (Type, bool) {
	if a == b {
		return a, true
	}
	aa, aIsArray := a.(Array)
	ba, bIsArray := b.(Array)
	switch {
	case aIsArray && bIsArray:
		length := aa.Len
		switch {
		case aa.Len == ba.Len:
		case aa.Len == 1:
			length = ba.Len
		case ba.Len == 1:
		default:
			return nil, false
		}
		elem, ok := Biggest(aa.Elem, ba.Elem)
		if !ok {
			return nil, false
		}
		return Array{Len: length, Elem: elem}, true
	case aIsArray:
		elem, ok := Biggest(aa.Elem, b)
		if !ok {
			return nil, false
		}
		return Array{Len: aa.Len, Elem: elem}, true
	case bIsArray:
		elem, ok := Biggest(a, ba.Elem)
		if !ok {
			return nil, false
		}
		return Array{Len: ba.Len, Elem: elem}, true
	}
	return nil, false
}

// PromotesTo reports whether a value of type from can be stored in to.
func PromotesTo(from, to Type) bool {
	big, ok := Biggest(from, to)
	return ok && big == to
}

// BiggestBound applies Biggest to each side of two bounds independently.
// A missing side on one operand takes the other operand's side. The result
// must be self-consistent.
func BiggestBound(a, b Bound) (Bound, bool) {
	var out Bound
	var ok bool
	if out.Actual, ok = biggestSide(a.Actual, b.Actual); !ok {
		return Bound{}, false
	}
	if out.Lower, ok = biggestSide(a.Lower, b.Lower); !ok {
		return Bound{}, false
	}
	if out.Upper, ok = biggestSide(a.Upper, b.Upper); !ok {
		return Bound{}, false
	}
	if !out.Consistent() {
		return Bound{}, false
	}
	return out, true
}

func biggestSide(a, b Type) (Type, bool) {
	switch {
	case a == nil:
		return b, true
	case b == nil:
		return a, true
	}
	return Biggest(a, b)
}

// Consistent reports whether the lower side promotes to the upper side and
// the concrete type, if any, lies between them.
func (b Bound) Consistent() bool {
	if b.Lower != nil && b.Upper != nil && !PromotesTo(b.Lower, b.Upper) {
		return false
	}
	return b.Actual == nil || Check(b.Actual, b) == Fits
}

// Fit is the outcome of checking a concrete type against a bound.
type Fit uint8

const (
	Fits Fit = iota
	TooSmall
	TooBig
)

// Check reports whether t lies within the lower and upper sides of b.
func Check(t Type, b Bound) Fit {
	if b.Lower != nil && !PromotesTo(b.Lower, t) {
		return TooSmall
	}
	if b.Upper != nil && !PromotesTo(t, b.Upper) {
		return TooBig
	}
	return Fits
}

// Coordinates enumerates every index of an array with the given
// dimensions in row-major order: the last dimension varies fastest. A
// scalar (no dimensions) has exactly one, empty, coordinate.
func Coordinates(dims []int) [][]int {
	var out [][]int
	it := NewIndexIter(dims)
	for coord, ok := it.Next(); ok; coord, ok = it.Next() {
		out = append(out, coord)
	}
	return out
}

// IndexIter walks the coordinates of an array one at a time.
type IndexIter struct {
	dims    []int
	current []int
	started bool
	done    bool
}

// NewIndexIter creates an iterator over dims.
func NewIndexIter(dims []int) *IndexIter {
	it := &IndexIter{dims: dims, current: make([]int, len(dims))}
	for _, d := range dims {
		if d <= 0 {
			it.done = true
		}
	}
	return it
}

// Next returns a fresh copy of the next coordinate.
func (it *IndexIter) Next() ([]int, bool) {
	if it.done {
		return nil, false
	}
	if !it.started {
		it.started = true
		return append([]int(nil), it.current...), true
	}
	for i := len(it.dims) - 1; i >= 0; i-- {
		it.current[i]++
		if it.current[i] < it.dims[i] {
			return append([]int(nil), it.current...), true
		}
		it.current[i] = 0
	}
	it.done = true
	return nil, false
}

// Broadcast maps a coordinate of a result onto an operand of shape dims.
// Dimensions are aligned outermost first. A length-1 dimension is pinned to
// 0, and result dimensions beyond the operand's rank are dropped.
func Broadcast(coord, dims []int) []int {
	out := make([]int, len(dims))
	for i, d := range dims {
		if d != 1 && i < len(coord) {
			out[i] = coord[i]
		}
	}
	return out
}
