package coverage

import (
	"log"

	"github.com/akmistry/go-util/bitmap"
	"github.com/bits-and-blooms/bitset"
)

const (
	leafShift = 8
	leafSize  = 1 << leafShift
	leafMask  = leafSize - 1
)

var _ = (Set)((*Bitmap)(nil))

// Bitmap is a Set made of 256-value bitmap leaves. The zero value is an empty
// set. Memory use is proportional to the largest value added, so Bitmap is
// only suitable for small domains.
type Bitmap struct {
	leaves map[uint64]*bitmap.Bitmap256

	fullLeafIndex bitset.BitSet
	partLeafIndex bitset.BitSet

	count uint64
}

func (m *Bitmap) getLeaf(leafIndex uint64) *bitmap.Bitmap256 {
	return m.leaves[leafIndex]
}

func (m *Bitmap) getOrCreateLeaf(leafIndex uint64) *bitmap.Bitmap256 {
	if m.leaves == nil {
		m.leaves = make(map[uint64]*bitmap.Bitmap256)
	}
	l := m.leaves[leafIndex]
	if l == nil {
		l = new(bitmap.Bitmap256)
		m.leaves[leafIndex] = l
	}
	return l
}

func (m *Bitmap) Begin() (uint64, bool) {
	firstLeafIndex, ok := m.partLeafIndex.NextSet(0)
	if !ok {
		return 0, false
	}
	leaf := m.getLeaf(uint64(firstLeafIndex))
	ffs := leaf.FindFirstSet()
	if ffs < leafSize {
		return uint64(ffs) + (uint64(firstLeafIndex) << leafShift), true
	}

	log.Panicf("coverage: unexpected empty leaf: %d", firstLeafIndex)
	return 0, false
}

func (m *Bitmap) End() uint64 {
	endLeafIndex := int(m.partLeafIndex.Len()) - 1
	for ; endLeafIndex >= 0 && !m.partLeafIndex.Test(uint(endLeafIndex)); endLeafIndex-- {
	}
	if endLeafIndex < 0 {
		return 0
	}
	lastLeafIndex := uint64(endLeafIndex)
	leaf := m.getLeaf(lastLeafIndex)
	for i := leafSize - 1; i >= 0; i-- {
		if leaf.Get(uint8(i)) {
			return uint64(i) + (lastLeafIndex << leafShift) + 1
		}
	}

	log.Panicf("coverage: unexpected empty leaf: %d", lastLeafIndex)
	return 0
}

func (m *Bitmap) Add(offset, length uint64) {
	end := offset + length
	for offset < end {
		leafIndex := offset >> leafShift
		leaf := m.getOrCreateLeaf(leafIndex)

		leafCount := leafSize - (offset & leafMask)
		if leafCount > (end - offset) {
			leafCount = end - offset
		}
		if leaf.Empty() {
			m.partLeafIndex.Set(uint(leafIndex))
		}
		for i := offset & leafMask; i < (offset&leafMask)+leafCount; i++ {
			if !leaf.Get(uint8(i)) {
				leaf.Set(uint8(i))
				m.count++
			}
		}
		offset += leafCount

		if leaf.Full() {
			m.fullLeafIndex.Set(uint(leafIndex))
		}
	}
}

func (m *Bitmap) Has(offset uint64) bool {
	leaf := m.getLeaf(offset >> leafShift)
	return leaf != nil && leaf.Get(uint8(offset))
}

func (m *Bitmap) Count() uint64 {
	return m.count
}

func (m *Bitmap) NextKey(off uint64) (uint64, bool) {
	leaf := m.getLeaf(off >> leafShift)
	if leaf != nil {
		next := leaf.FindNextSet(uint8(off))
		if next < leafSize {
			return (off & ^uint64(leafMask)) + uint64(next), true
		}
	}

	nextPartial, ok := m.partLeafIndex.NextSet(uint(off>>leafShift) + 1)
	if !ok {
		return 0, false
	}

	leaf = m.leaves[uint64(nextPartial)]
	return uint64(nextPartial<<leafShift) + uint64(leaf.FindFirstSet()), true
}

func (m *Bitmap) NextEmpty(off uint64) uint64 {
	leaf := m.getLeaf(off >> leafShift)
	if leaf == nil {
		return off
	}
	next := leaf.FindNextClear(uint8(off))
	if next < leafSize {
		return (off & ^uint64(leafMask)) + uint64(next)
	}

	clearStart := uint(off>>leafShift) + 1
	nextNonFull, ok := m.fullLeafIndex.NextClear(clearStart)
	if !ok {
		if clearStart < m.fullLeafIndex.Len() {
			nextNonFull = m.fullLeafIndex.Len()
		} else {
			nextNonFull = clearStart
		}
	}

	nextOff := uint64(nextNonFull << leafShift)
	leaf = m.getLeaf(uint64(nextNonFull))
	if leaf == nil {
		return nextOff
	}
	if leaf.Full() {
		log.Panicf("coverage: unexpected full leaf: %d", nextNonFull)
	}
	return nextOff + uint64(leaf.FindFirstClear())
}

func (m *Bitmap) Iterate(start uint64, iter func(Range) bool) {
	off := start
	for {
		lower, ok := m.NextKey(off)
		if !ok {
			return
		}
		upper := m.NextEmpty(lower)
		if !iter(Range{Lower: lower, Upper: upper}) {
			return
		}
		off = upper
	}
}
