package rangelist

import (
	"fmt"
	"math/rand/v2"

	"github.com/akmistry/rangelist/internal/sampler"
)

// Consumer receives one batch of sampled values. The slice is only valid
// for the duration of the call.
type Consumer[T any] func(batch []T) error

// RandomSets draws every value of the set exactly once, in a uniformly
// random order seeded from |src|, and passes them to |consume| in batches
// of |batchSize| values. The last batch may be shorter. A batchSize <= 0 is
// treated as 1.
//
// Requires a current index cache.
func (l *List[T]) RandomSets(batchSize int, consume Consumer[T], src rand.Source) error {
	return l.RandomSetsFrom(batchSize, consume, sampler.NewUniform(src))
}

// RandomSetsFrom is RandomSets with a caller supplied permutation
// generator. |perm| is initialised with the set size.
func (l *List[T]) RandomSetsFrom(batchSize int, consume Consumer[T], perm sampler.Permutation) error {
	if err := l.checkCache(); err != nil {
		return err
	}
	if batchSize <= 0 {
		batchSize = 1
	}

	sizeAll := l.cache.total()
	perm.Initialize(sizeAll)

	buf := l.getScratch(batchSize)
	defer l.putScratch(buf)

	for done := uint64(0); done < sizeAll; {
		n := batchSize
		if rem := sizeAll - done; rem < uint64(n) {
			n = int(rem)
		}
		batch := (*buf)[:n]
		for i := range batch {
			r, ok := perm.Next()
			if !ok {
				return fmt.Errorf("%w: after %d of %d values",
					ErrSamplerExhausted, done+uint64(i), sizeAll)
			} else if r >= sizeAll {
				return fmt.Errorf("%w: sampler returned %d, size %d",
					ErrRankOutOfRange, r, sizeAll)
			}
			batch[i] = l.atCached(r)
		}
		if err := consume(batch); err != nil {
			return err
		}
		done += uint64(n)
	}
	return nil
}

func (l *List[T]) getScratch(size int) *[]T {
	if v := l.scratch.Get(); v != nil {
		buf := v.(*[]T)
		if cap(*buf) >= size {
			*buf = (*buf)[:size]
			return buf
		}
	}
	buf := make([]T, size)
	return &buf
}

func (l *List[T]) putScratch(buf *[]T) {
	l.scratch.Put(buf)
}
