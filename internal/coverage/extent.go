package coverage

import (
	"log"

	"github.com/akmistry/go-util/radix-tree"

	"github.com/akmistry/rangelist/internal/interval"
)

var _ = (Set)((*Extent)(nil))

type extent struct {
	Range
}

func (e *extent) Key() uint64 {
	return e.Lower
}

// Extent is a Set of coalesced runs keyed by their lower bound. Extents in
// the tree never overlap or touch. The zero value is an empty set.
type Extent struct {
	tree  radix.Tree
	count uint64
}

func (m *Extent) Begin() (begin uint64, ok bool) {
	m.tree.Ascend(func(i radix.Item) bool {
		begin = i.(*extent).Lower
		ok = true
		return false
	})
	return
}

func (m *Extent) End() (end uint64) {
	m.tree.Descend(func(i radix.Item) bool {
		end = i.(*extent).Upper
		return false
	})
	return
}

func (m *Extent) get(offset uint64) (e *extent) {
	m.tree.DescendLessOrEqualI(offset, func(i radix.Item) bool {
		ie := i.(*extent)
		if ie.Contains(offset) {
			e = ie
		}
		return false
	})
	return
}

func (m *Extent) insert(r Range) {
	old := m.tree.ReplaceOrInsert(&extent{Range: r})
	if old != nil {
		log.Panicf("coverage: unexpected old extent: %v, adding: %v", old.(*extent).Range, r)
	}
	m.count += r.Width()
}

func (m *Extent) delete(e *extent) {
	if m.tree.Delete(e) != e {
		log.Panicf("coverage: extent not deleted: %v", e.Range)
	}
	m.count -= e.Width()
}

func (m *Extent) Add(offset, length uint64) {
	if length == 0 {
		return
	}

	r := Range{Lower: offset, Upper: offset + length}
	// Extents that overlap or touch r are absorbed into it.
	var absorbed []*extent
	m.tree.DescendLessOrEqualI(r.Upper, func(i radix.Item) bool {
		ie := i.(*extent)
		if ie.Upper < r.Lower {
			return false
		}
		absorbed = append(absorbed, ie)
		return true
	})
	for _, ie := range absorbed {
		r = interval.Hull(r, ie.Range)
		m.delete(ie)
	}
	m.insert(r)
}

// Remove uncovers [offset, offset+length).
func (m *Extent) Remove(offset, length uint64) {
	if length == 0 {
		return
	}

	end := offset + length
	var overlaps []*extent
	m.tree.DescendLessOrEqualI(end, func(i radix.Item) bool {
		ie := i.(*extent)
		if ie.Lower == end {
			return true
		} else if ie.Upper <= offset {
			return false
		}
		overlaps = append(overlaps, ie)
		return true
	})
	for _, ie := range overlaps {
		m.delete(ie)
		if ie.Lower < offset {
			m.insert(Range{Lower: ie.Lower, Upper: offset})
		}
		if ie.Upper > end {
			m.insert(Range{Lower: end, Upper: ie.Upper})
		}
	}
}

func (m *Extent) Has(offset uint64) bool {
	return m.get(offset) != nil
}

func (m *Extent) Count() uint64 {
	return m.count
}

func (m *Extent) NextKey(offset uint64) (next uint64, ok bool) {
	if m.Has(offset) {
		return offset, true
	}

	m.tree.AscendGreaterOrEqualI(offset, func(i radix.Item) bool {
		next = i.(*extent).Lower
		ok = true
		return false
	})
	return
}

func (m *Extent) NextEmpty(offset uint64) uint64 {
	if e := m.get(offset); e != nil {
		return e.Upper
	}
	return offset
}

func (m *Extent) Iterate(start uint64, iter func(Range) bool) {
	first := start
	if e := m.get(start); e != nil {
		first = e.Lower
	}

	m.tree.AscendGreaterOrEqualI(first, func(i radix.Item) bool {
		r := i.(*extent).Range
		if r.Lower < start {
			r.Lower = start
		}
		return iter(r)
	})
}
