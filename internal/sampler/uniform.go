package sampler

import (
	"errors"
	"math/rand/v2"
)

var (
	ErrOutOfRange = errors.New("sampler: not enough values in range")
)

// Permutation produces every index in [0, n) exactly once, in some order.
// It is finite and can not be restarted without calling Initialize again.
type Permutation interface {
	Initialize(n uint64)
	// Next returns the next index, or false once all n indices have been
	// returned.
	Next() (uint64, bool)
	Remaining() uint64
}

// Uniform draws indices uniformly at random without replacement.
//
// It runs a lazy Fisher-Yates shuffle over a virtual array [0, n). Only
// swapped positions are materialised, so memory is proportional to the
// number of draws, not to n.
type Uniform struct {
	rng *rand.Rand

	n         uint64
	drawn     uint64
	displaced map[uint64]uint64
}

var _ = (Permutation)((*Uniform)(nil))

func NewUniform(src rand.Source) *Uniform {
	return &Uniform{rng: rand.New(src)}
}

// NewSeededUniform returns a deterministic Uniform over [0, n).
func NewSeededUniform(n, seed uint64) *Uniform {
	u := NewUniform(rand.NewPCG(seed, n))
	u.Initialize(n)
	return u
}

func (u *Uniform) Initialize(n uint64) {
	u.n = n
	u.drawn = 0
	u.displaced = make(map[uint64]uint64)
}

func (u *Uniform) Remaining() uint64 {
	return u.n - u.drawn
}

func (u *Uniform) valueAt(i uint64) uint64 {
	if v, ok := u.displaced[i]; ok {
		return v
	}
	return i
}

func (u *Uniform) Next() (uint64, bool) {
	if u.drawn >= u.n {
		return 0, false
	}

	// Swap a random position from the undrawn tail into position |drawn|.
	pick := u.drawn + u.rng.Uint64N(u.n-u.drawn)
	ret := u.valueAt(pick)
	if pick != u.drawn {
		u.displaced[pick] = u.valueAt(u.drawn)
	}
	// Position |drawn| will never be looked at again.
	delete(u.displaced, u.drawn)
	u.drawn++
	return ret, true
}

// Sample returns length distinct indices.
func (u *Uniform) Sample(length int) ([]uint64, error) {
	if length < 0 || uint64(length) > u.Remaining() {
		return nil, ErrOutOfRange
	}
	s := make([]uint64, length)
	for i := range s {
		s[i], _ = u.Next()
	}
	return s, nil
}
