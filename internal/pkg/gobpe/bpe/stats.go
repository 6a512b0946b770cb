package bpe

import (
	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
)

type Pair struct {
	A, B int
}

// Stats counts adjacent id pairs. Iteration follows the order in which each
// pair was first observed, which is what breaks ties between equal counts.
type Stats struct {
	counts *linkedhashmap.Map[Pair, int]
}

func NewStats() *Stats {
	return &Stats{counts: linkedhashmap.New[Pair, int]()}
}

// CountPairs sums pair counts over every sequence. Pairs never span two
// sequences.
func CountPairs(seqs ...[]int) *Stats {
	s := NewStats()
	for _, ids := range seqs {
		s.Add(ids)
	}
	return s
}

func (s *Stats) Add(ids []int) {
	s.AddN(ids, 1)
}

// AddN counts the pairs of ids as if the sequence occurred n times.
func (s *Stats) AddN(ids []int, n int) {
	for i := 0; i+1 < len(ids); i++ {
		p := Pair{ids[i], ids[i+1]}
		c, _ := s.counts.Get(p)
		s.counts.Put(p, c+n)
	}
}

func (s *Stats) Count(p Pair) int {
	n, _ := s.counts.Get(p)
	return n
}

func (s *Stats) Len() int {
	return s.counts.Size()
}

func (s *Stats) Total() int {
	total := 0
	it := s.counts.Iterator()
	for it.Next() {
		total += it.Value()
	}
	return total
}

// pairs returns the distinct pairs in first-seen order.
func (s *Stats) pairs() []Pair {
	return s.counts.Keys()
}

// Max returns the most frequent pair. Among equal counts the pair observed
// first wins. ok is false when no pairs were counted.
func (s *Stats) Max() (p Pair, count int, ok bool) {
	it := s.counts.Iterator()
	for it.Next() {
		if !ok || it.Value() > count {
			p, count, ok = it.Key(), it.Value(), true
		}
	}
	return p, count, ok
}
