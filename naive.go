package interntab

import (
	"github.com/philpearl/interntab/arena"
	"github.com/philpearl/interntab/hashing"
)

// Naive implementation of the same function. Really just intended to compare against
type Naive struct {
	m     map[string]*String
	alloc arena.Heap
}

// NewNaive creates a new, basic implementation of the intern table
func NewNaive(cap int) *Naive {
	return &Naive{
		m: make(map[string]*String, cap),
	}
}

// Len returns the number of Strings held
func (n *Naive) Len() int {
	return len(n.m)
}

// GetOrCreate returns the String for b, creating it if necessary
func (n *Naive) GetOrCreate(b []byte) *String {
	if s, ok := n.m[string(b)]; ok {
		return s
	}
	var s *String
	if isShort(len(b)) {
		s = newShort(b)
	} else {
		s = newLong(b, &n.alloc, hashing.Default.Hash(b))
	}
	if n.m == nil {
		n.m = make(map[string]*String)
	}
	n.m[string(b)] = s
	return s
}

// Find returns the String for b, or nil
func (n *Naive) Find(b []byte) *String {
	return n.m[string(b)]
}

// GC reclaims Strings with no references
func (n *Naive) GC() int {
	var reclaimed int
	for k, s := range n.m {
		if s.RefCount() == 0 {
			s.release(&n.alloc)
			delete(n.m, k)
			reclaimed++
		}
	}
	return reclaimed
}
