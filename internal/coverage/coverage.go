// Package coverage records which values of a uint64 domain have been seen.
//
// Two implementations are provided. Bitmap is suited to dense values in a
// small domain. Extent stores coalesced runs in a radix tree and suits sparse
// values spread over the full domain.
package coverage

import (
	"github.com/akmistry/rangelist/internal/interval"
)

// Range is a half-open run of covered values.
type Range = interval.Interval[uint64]

type Set interface {
	Begin() (begin uint64, ok bool)
	End() (end uint64)

	Add(offset, length uint64)
	Has(offset uint64) bool
	// Number of covered values.
	Count() uint64

	NextKey(offset uint64) (next uint64, ok bool)
	NextEmpty(offset uint64) (next uint64)

	Iterator
}

type Iterator interface {
	// Iterate calls iter with each maximal run of covered values at or after
	// start, in ascending order, until iter returns false.
	Iterate(start uint64, iter func(Range) bool)
}

// New returns an empty set of the named kind, "bitmap" or "extent".
func New(kind string) (Set, bool) {
	switch kind {
	case "bitmap":
		return new(Bitmap), true
	case "extent":
		return new(Extent), true
	}
	return nil, false
}
