package tracker

import "math/bits"

// VisitSet marks pixels by index. Track allocates one per call and drops it
// afterwards; nothing is kept between frames.
type VisitSet struct {
	words []uint64
	n     int
}

func NewVisitSet(n int) *VisitSet {
	return &VisitSet{words: make([]uint64, (n+63)/64), n: n}
}

func (v *VisitSet) Has(p int) bool {
	return v.words[p>>6]&(1<<(uint(p)&63)) != 0
}

func (v *VisitSet) Mark(p int) {
	v.words[p>>6] |= 1 << (uint(p) & 63)
}

// Count returns the number of marked pixels.
func (v *VisitSet) Count() int {
	c := 0
	for _, w := range v.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// Size is the number of pixels the set covers.
func (v *VisitSet) Size() int {
	return v.n
}
