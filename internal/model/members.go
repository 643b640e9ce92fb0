package model

import (
	"math/bits"
	"sort"
)

// Members is a set of non-negative ensemble member numbers stored as a
// sparse bitset: only 64-member words that hold at least one member are
// allocated. The zero value is empty and ready to use.
type Members struct {
	words map[int]uint64
	// keys holds the allocated word indexes in ascending order.
	keys  []int
	count int
}

// Add inserts m. Negative values are ignored.
func (s *Members) Add(m int) {
	if m < 0 {
		return
	}
	w := m / 64
	word, ok := s.words[w]
	if !ok {
		if s.words == nil {
			s.words = make(map[int]uint64)
		}
		s.insertKey(w)
	}
	bit := uint64(1) << (uint(m) % 64)
	if word&bit == 0 {
		s.words[w] = word | bit
		s.count++
	}
}

func (s *Members) insertKey(w int) {
	n := len(s.keys)
	if n == 0 || s.keys[n-1] < w {
		s.keys = append(s.keys, w)
		return
	}
	i := sort.SearchInts(s.keys, w)
	s.keys = append(s.keys, 0)
	copy(s.keys[i+1:], s.keys[i:])
	s.keys[i] = w
}

// AddRange inserts min, min+stride, ... up to and including max. Nothing is
// added when stride is not positive or min > max.
func (s *Members) AddRange(min, max, stride int) {
	if stride <= 0 || min > max {
		return
	}
	for m := min; ; m += stride {
		s.Add(m)
		if m > max-stride {
			return
		}
	}
}

// Has reports whether m is a member.
func (s *Members) Has(m int) bool {
	if m < 0 {
		return false
	}
	return s.words[m/64]&(uint64(1)<<(uint(m)%64)) != 0
}

// Len returns the number of members.
func (s *Members) Len() int { return s.count }

// Each calls fn for every member in ascending order until fn returns false.
func (s *Members) Each(fn func(m int) bool) {
	for _, w := range s.keys {
		word := s.words[w]
		for word != 0 {
			tz := bits.TrailingZeros64(word)
			if !fn(w*64 + tz) {
				return
			}
			word &= word - 1
		}
	}
}

// Slice returns the members in ascending order.
func (s *Members) Slice() []int {
	out := make([]int, 0, s.count)
	s.Each(func(m int) bool {
		out = append(out, m)
		return true
	})
	return out
}

// Max returns the largest member, or -1 when the set is empty.
func (s *Members) Max() int {
	if len(s.keys) == 0 {
		return -1
	}
	w := s.keys[len(s.keys)-1]
	return w*64 + 63 - bits.LeadingZeros64(s.words[w])
}
