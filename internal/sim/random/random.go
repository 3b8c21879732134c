// Package random provides the simulation's single deterministic number
// source.
package random

import "time"

// DefaultSeed is used for fixed-seed runs when no seed is configured.
const DefaultSeed uint32 = 0x84744901

// Source is a 32-bit linear congruential generator. It is not safe for
// concurrent use; the owning session is its only caller.
type Source struct {
	seed  uint32
	draws uint64
}

// New returns a Source seeded with seed.
func New(seed uint32) *Source {
	return &Source{seed: seed}
}

// NewFromTime seeds from the wall clock for live, non-replayed play.
func NewFromTime(t time.Time) *Source {
	n := t.UnixNano()
	return New(uint32(n) ^ uint32(n>>32))
}

// Next returns a value in [0, rng). A non-positive rng returns 0 without
// advancing the generator.
func (s *Source) Next(rng int32) int32 {
	if rng <= 0 {
		return 0
	}
	s.seed = 1664525*s.seed + 1013904223
	s.draws++
	l := int64(s.seed & 0x7fff)
	return int32((l * int64(rng)) >> 15)
}

// Seed reports the current generator state.
func (s *Source) Seed() uint32 { return s.seed }

// Draws reports how many values have been produced since seeding.
func (s *Source) Draws() uint64 { return s.draws }

// Reseed restarts the sequence from seed.
func (s *Source) Reseed(seed uint32) {
	s.seed = seed
	s.draws = 0
}
