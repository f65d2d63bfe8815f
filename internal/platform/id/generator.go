package id

import "sync/atomic"

// Generator reserves blocks of synthetic identifiers for records that arrive without one.
type Generator interface {
	// Reserve returns the first value of a block of n consecutive values owned by the caller.
	Reserve(n int) int64
}

// Sequence is a monotonic counter. Blocks never overlap, so positions inside one block
// never collide with each other or with any other block from the same Sequence.
type Sequence struct {
	next atomic.Int64
}

// NewSequence starts the counter at seed, typically the current unix milliseconds so
// values do not repeat across restarts.
func NewSequence(seed int64) *Sequence {
	s := &Sequence{}
	if seed < 1 {
		seed = 1
	}
	s.next.Store(seed)
	return s
}

func (s *Sequence) Reserve(n int) int64 {
	if n < 1 {
		n = 1
	}
	end := s.next.Add(int64(n))
	return end - int64(n)
}

// Synthetic maps a block position to an identifier below zero, outside the upstream id space.
func Synthetic(base int64, position int) int64 {
	return -(base + int64(position))
}
