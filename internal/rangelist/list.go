package rangelist

import (
	"errors"
	"log"
	"sync"

	"golang.org/x/exp/constraints"

	"github.com/akmistry/rangelist/internal/interval"
)

var (
	ErrNotAggregated    = errors.New("rangelist: pending mutations, call Aggregate")
	ErrRankOutOfRange   = errors.New("rangelist: rank out of range")
	ErrInvalidEntrySize = errors.New("rangelist: cache entry size must be > 0")
	ErrNoIndexCache     = errors.New("rangelist: no index cache")
	ErrStaleIndexCache  = errors.New("rangelist: index cache is stale")
	ErrSamplerExhausted = errors.New("rangelist: sampler exhausted early")
)

// List is a set of integers stored as a list of half-open intervals.
//
// Intervals are accumulated with Add and Remove, and only become a
// canonical sorted, merged list once Aggregate is called. Queries (At,
// AtCached, Contains, RandomSets) require the canonical form.
//
// A List is not safe for concurrent mutation. Read-only queries may run
// concurrently as long as nothing mutates the list.
type List[T constraints.Integer] struct {
	included []interval.Interval[T]
	excluded []interval.Interval[T]

	// Bumped whenever |included| changes. The index cache records the
	// version it was built from.
	version uint64
	// Add/Remove called since the last Aggregate.
	pending bool

	cache *indexCache

	scratch sync.Pool
}

func New[T constraints.Integer]() *List[T] {
	return &List[T]{}
}

func (l *List[T]) mutated() {
	l.version++
}

// Add includes [a, b). Empty intervals (a >= b) are ignored.
func (l *List[T]) Add(a, b T) {
	l.AddInterval(interval.New(a, b))
}

func (l *List[T]) AddInterval(i interval.Interval[T]) {
	if i.IsEmpty() {
		return
	}
	l.included = append(l.included, i)
	l.pending = true
	l.mutated()
}

// Remove excludes [a, b), regardless of the order of Add and Remove calls.
// Empty intervals are ignored.
func (l *List[T]) Remove(a, b T) {
	l.RemoveInterval(interval.New(a, b))
}

func (l *List[T]) RemoveInterval(i interval.Interval[T]) {
	if i.IsEmpty() {
		return
	}
	l.excluded = append(l.excluded, i)
	l.pending = true
}

func (l *List[T]) Insert(i interval.Interval[T], exclude bool) {
	if exclude {
		l.RemoveInterval(i)
	} else {
		l.AddInterval(i)
	}
}

func (l *List[T]) Reserve(n int) {
	if n > cap(l.included) {
		grown := make([]interval.Interval[T], len(l.included), n)
		copy(grown, l.included)
		l.included = grown
	}
}

func (l *List[T]) Clear() {
	l.included = l.included[:0]
	l.excluded = l.excluded[:0]
	l.pending = false
	l.mutated()
}

// Intervals returns the included intervals. After Aggregate, these are
// sorted and disjoint. The returned slice MUST NOT be modified.
func (l *List[T]) Intervals() []interval.Interval[T] {
	return l.included
}

func (l *List[T]) Len() int {
	return len(l.included)
}

func (l *List[T]) Pending() bool {
	return l.pending
}

// Size returns the number of values in the set. Only meaningful after
// Aggregate.
func (l *List[T]) Size() uint64 {
	var size uint64
	for _, i := range l.included {
		size += i.Width()
	}
	return size
}

// Equal compares the included intervals of two lists, ignoring excluded
// intervals and caches.
func (l *List[T]) Equal(o *List[T]) bool {
	if len(l.included) != len(o.included) {
		return false
	}
	for i := range l.included {
		if l.included[i] != o.included[i] {
			return false
		}
	}
	return true
}

// Contains reports whether v is in the set. The list MUST be aggregated.
func (l *List[T]) Contains(v T) bool {
	if l.pending {
		log.Panicf("rangelist: Contains(%d) with pending mutations", v)
	}

	a := 0
	b := len(l.included)
	for (b - a) > 4 {
		mid := (a + b) / 2
		it := l.included[mid]
		if it.Contains(v) {
			return true
		}
		if v < it.Lower {
			b = mid
		} else {
			a = mid
		}
	}

	for _, it := range l.included[a:b] {
		if it.Contains(v) {
			return true
		}
	}
	return false
}
