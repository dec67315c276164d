package rangelist

import (
	"log"
)

type indexCache struct {
	// Number of intervals per cache entry.
	entrySize int
	// bounds[i] is the total width of the intervals in entries [0, i].
	bounds []uint64
	// List version this cache was built from.
	version uint64
}

func (c *indexCache) total() uint64 {
	if len(c.bounds) == 0 {
		return 0
	}
	return c.bounds[len(c.bounds)-1]
}

// CreateIndexCache builds a cumulative width index over the current
// intervals, with one entry for every |entrySize| intervals. The last entry
// covers whatever intervals remain. The cache must be rebuilt after the
// list changes; until then AtCached returns ErrStaleIndexCache.
func (l *List[T]) CreateIndexCache(entrySize int) error {
	if entrySize <= 0 {
		return ErrInvalidEntrySize
	} else if l.pending {
		return ErrNotAggregated
	}

	n := len(l.included)
	c := &indexCache{
		entrySize: entrySize,
		bounds:    make([]uint64, 0, (n+entrySize-1)/entrySize),
		version:   l.version,
	}
	var curSize uint64
	for i := 0; i < n; i += entrySize {
		end := min(i+entrySize, n)
		for _, it := range l.included[i:end] {
			curSize += it.Width()
		}
		c.bounds = append(c.bounds, curSize)
	}
	l.cache = c
	return nil
}

func (l *List[T]) HasIndexCache() bool {
	return l.cache != nil && l.cache.version == l.version
}

func (l *List[T]) checkCache() error {
	if l.cache == nil {
		return ErrNoIndexCache
	} else if l.cache.version != l.version {
		return ErrStaleIndexCache
	}
	return nil
}

// Value of rank |r|, scanning from interval |start|. The caller guarantees
// the rank lies within l.included[start:].
func (l *List[T]) rthValue(r uint64, start int) T {
	for _, it := range l.included[start:] {
		w := it.Width()
		if r < w {
			return it.Lower + T(r)
		}
		r -= w
	}
	log.Panicf("rangelist: rank %d past the end of intervals from %d", r, start)
	return 0
}

// At returns the r-th smallest value in the set, in O(n). See AtCached for
// the indexed version.
func (l *List[T]) At(r uint64) (T, error) {
	if l.pending {
		return 0, ErrNotAggregated
	}
	for _, it := range l.included {
		w := it.Width()
		if r < w {
			return it.Lower + T(r), nil
		}
		r -= w
	}
	return 0, ErrRankOutOfRange
}

// AtCached returns the r-th smallest value in the set, using the index
// cache to skip to the right block of intervals.
func (l *List[T]) AtCached(r uint64) (T, error) {
	if err := l.checkCache(); err != nil {
		return 0, err
	}
	if r >= l.cache.total() {
		return 0, ErrRankOutOfRange
	}
	return l.atCached(r), nil
}

// Unchecked AtCached. The cache MUST be current and r < Size().
func (l *List[T]) atCached(r uint64) T {
	idx, rem := l.cachedIntervalIndex(r)
	if rem == 0 {
		return l.included[idx].Lower
	}
	return l.rthValue(rem, idx)
}

// Locate the first interval of the cache entry holding rank |r|, and |r|
// relative to the start of that entry.
func (l *List[T]) cachedIntervalIndex(r uint64) (idx int, rem uint64) {
	bounds := l.cache.bounds
	entrySize := l.cache.entrySize

	a := 0
	b := len(bounds)
	// Bisect down to a few entries, then scan. The scan stays within a
	// cache line or two.
	for (b - a) > 4 {
		mid := (a + b) / 2
		vmid := bounds[mid]
		if vmid == r {
			// r is the first value of the next entry.
			return (mid + 1) * entrySize, 0
		}
		if vmid < r {
			a = mid
		} else {
			b = mid
		}
	}

	for bounds[a] < r {
		a++
	}
	if bounds[a] == r {
		return (a + 1) * entrySize, 0
	}

	if a > 0 {
		return a * entrySize, r - bounds[a-1]
	}
	return 0, r
}
