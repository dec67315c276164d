package rangelist

import (
	"log/slog"
	"time"

	"golang.org/x/exp/constraints"

	"github.com/akmistry/rangelist/internal/interval"
	"github.com/akmistry/rangelist/internal/psort"
)

func sortIntervals[T constraints.Integer](ints []interval.Interval[T]) {
	psort.SortFunc(ints, interval.CompareLower[T])
}

// Sort and merge overlapping or touching intervals. Reuses the storage of
// |ints|.
func aggregateIntervals[T constraints.Integer](ints []interval.Interval[T]) []interval.Interval[T] {
	if len(ints) <= 1 {
		return ints
	}
	sortIntervals(ints)

	// The write position never passes the read position, so merge in place.
	out := ints[:0]
	curMerge := ints[0]
	for _, cur := range ints[1:] {
		if interval.Overlap(curMerge, cur) {
			curMerge = interval.Hull(curMerge, cur)
		} else {
			out = append(out, curMerge)
			curMerge = cur
		}
	}
	return append(out, curMerge)
}

// Position in the canonical excluded list, shared across all merged runs of
// a single aggregation. Both lists are sorted, so it only moves forward.
type excludedCursor[T constraints.Integer] struct {
	excluded []interval.Interval[T]
	pos      int
}

// subtract appends the parts of |m| not covered by any excluded interval
// to |out|.
func (c *excludedCursor[T]) subtract(m interval.Interval[T], out []interval.Interval[T]) []interval.Interval[T] {
	for c.pos < len(c.excluded) && c.excluded[c.pos].Upper <= m.Lower {
		c.pos++
	}

	// An excluded interval may also cover the next run, so |pos| stays on
	// the last one consumed.
	for i := c.pos; i < len(c.excluded) && c.excluded[i].Lower < m.Upper; i++ {
		e := c.excluded[i]
		switch {
		case e.Lower <= m.Lower && m.Upper <= e.Upper:
			// Fully removed.
			return out
		case e.Lower <= m.Lower:
			m.Lower = e.Upper
		case m.Upper <= e.Upper:
			m.Upper = e.Lower
		default:
			// Hole in the middle. Everything before it is final.
			out = append(out, interval.New(m.Lower, e.Lower))
			m.Lower = e.Upper
		}
	}

	if !m.IsEmpty() {
		out = append(out, m)
	}
	return out
}

// Aggregate converts the added and removed intervals into the canonical
// form: sorted, merged, with every removed range subtracted. It may be
// called again after more Add/Remove calls.
//
// Any index cache becomes stale and must be rebuilt.
func (l *List[T]) Aggregate() {
	start := time.Now()
	inCount := len(l.included)
	defer func() {
		l.pending = false
		l.mutated()
		slog.Debug("rangelist: Aggregate done",
			"in", inCount,
			"excluded", len(l.excluded),
			"out", len(l.included),
			"time", time.Since(start))
	}()

	if len(l.excluded) == 0 {
		l.included = aggregateIntervals(l.included)
		return
	}
	if len(l.included) == 0 {
		return
	}

	l.excluded = aggregateIntervals(l.excluded)
	sortIntervals(l.included)

	ret := make([]interval.Interval[T], 0, len(l.included))
	cursor := excludedCursor[T]{excluded: l.excluded}
	curMerge := l.included[0]
	for _, cur := range l.included[1:] {
		if interval.Overlap(curMerge, cur) {
			curMerge = interval.Hull(curMerge, cur)
		} else {
			ret = cursor.subtract(curMerge, ret)
			curMerge = cur
		}
	}
	ret = cursor.subtract(curMerge, ret)

	l.included = ret
}
