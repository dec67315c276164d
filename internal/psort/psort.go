package psort

import (
	"runtime"
	"slices"

	"github.com/akmistry/rangelist/internal/util"
)

const (
	// Below this many elements per worker, sorting in a single goroutine is
	// faster than paying for the merge passes.
	minChunkSize = 16 * 1024
)

// SortFunc sorts s in ascending order as determined by cmp, using up to
// GOMAXPROCS goroutines. It returns once s is fully sorted. The sort is not
// stable.
func SortFunc[S ~[]E, E any](s S, cmp func(a, b E) int) {
	sortFunc(s, cmp, runtime.GOMAXPROCS(0), minChunkSize)
}

func sortFunc[S ~[]E, E any](s S, cmp func(a, b E) int, workers, minChunk int) {
	n := len(s)
	if minChunk < 1 {
		minChunk = 1
	}
	if workers > n/minChunk {
		workers = n / minChunk
	}
	if workers <= 1 {
		slices.SortFunc(s, cmp)
		return
	}

	chunk := (n + workers - 1) / workers
	bounds := make([]int, 0, workers+1)
	for off := 0; off < n; off += chunk {
		bounds = append(bounds, off)
	}
	bounds = append(bounds, n)

	var wb util.WaitBarrier
	for i := 0; i+1 < len(bounds); i++ {
		part := s[bounds[i]:bounds[i+1]]
		wctx := wb.Start()
		go func() {
			defer wctx.Done()
			slices.SortFunc(part, cmp)
		}()
	}
	wb.Barrier()

	// Merge runs pairwise, ping-ponging between s and a scratch buffer.
	src, dst := s, make(S, n)
	inScratch := false
	for len(bounds) > 2 {
		runs := len(bounds) - 1
		next := make([]int, 0, runs/2+2)
		for i := 0; i < runs; i += 2 {
			lo := bounds[i]
			next = append(next, lo)
			wctx := wb.Start()
			if i+1 == runs {
				hi := bounds[i+1]
				go func() {
					defer wctx.Done()
					copy(dst[lo:hi], src[lo:hi])
				}()
				continue
			}
			mid, hi := bounds[i+1], bounds[i+2]
			go func() {
				defer wctx.Done()
				merge(dst[lo:hi], src[lo:mid], src[mid:hi], cmp)
			}()
		}
		next = append(next, n)
		wb.Barrier()

		bounds = next
		src, dst = dst, src
		inScratch = !inScratch
	}
	if inScratch {
		copy(s, src)
	}
}

func merge[E any](dst, a, b []E, cmp func(a, b E) int) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if cmp(b[j], a[i]) < 0 {
			dst[k] = b[j]
			j++
		} else {
			dst[k] = a[i]
			i++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}
