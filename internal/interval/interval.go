package interval

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Half-open range [Lower, Upper) over an integer domain.
type Interval[T constraints.Integer] struct {
	Lower, Upper T
}

func New[T constraints.Integer](lower, upper T) Interval[T] {
	return Interval[T]{Lower: lower, Upper: upper}
}

func Empty[T constraints.Integer]() Interval[T] {
	return Interval[T]{}
}

func (i Interval[T]) IsEmpty() bool {
	return i.Lower >= i.Upper
}

// Number of values in the interval. Computed in 64-bit two's complement so
// it is exact for any T, including signed intervals wider than T's max.
func (i Interval[T]) Width() uint64 {
	if i.Upper <= i.Lower {
		return 0
	}
	return uint64(i.Upper) - uint64(i.Lower)
}

func (i Interval[T]) Contains(v T) bool {
	return v >= i.Lower && v < i.Upper
}

func (i Interval[T]) String() string {
	return fmt.Sprintf("[%d, %d)", i.Lower, i.Upper)
}

// Overlap reports whether a and b intersect or touch, ie. whether their
// union is a single interval.
func Overlap[T constraints.Integer](a, b Interval[T]) bool {
	return a.Lower <= b.Upper && b.Lower <= a.Upper
}

// Hull returns the smallest interval covering both a and b. It is the union
// of a and b only if Overlap(a, b).
func Hull[T constraints.Integer](a, b Interval[T]) Interval[T] {
	return Interval[T]{Lower: min(a.Lower, b.Lower), Upper: max(a.Upper, b.Upper)}
}

func CompareLower[T constraints.Integer](a, b Interval[T]) int {
	switch {
	case a.Lower < b.Lower:
		return -1
	case a.Lower > b.Lower:
		return 1
	}
	return 0
}
