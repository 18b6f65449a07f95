// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package prng provides a small deterministic pseudo-random source for
// scripted command streams. Replay correctness requires every input to
// be derivable from the initial seed; wall-clock entropy is forbidden,
// so this is an explicit-state xorshift* generator rather than the
// global math/rand source.
package prng

import "github.com/gazed/detphys2d/fx"

// Source is an explicit-state xorshift1024-free xorshift64* generator.
// The zero seed is remapped to a fixed non-zero constant since xorshift
// has an all-zeroes fixed point.
type Source struct {
	state uint64
}

// New creates a Source from seed.
func New(seed uint64) *Source {
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return &Source{state: seed}
}

// Uint64 advances the generator and returns the next 64-bit value.
func (s *Source) Uint64() uint64 {
	x := s.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	s.state = x
	return x * 2685821657736338717
}

// Intn returns a value in [0, n). n <= 0 returns 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.Uint64() % uint64(n))
}

// FX returns a fixed-point value uniform in [0, 1).
func (s *Source) FX() fx.FX {
	return fx.FX(s.Uint64() & uint64(fx.One-1))
}

// FXRange returns a fixed-point value uniform in [lo, hi).
func (s *Source) FXRange(lo, hi fx.FX) fx.FX {
	if hi <= lo {
		return lo
	}
	span := uint64(hi - lo)
	return lo + fx.FX(s.Uint64()%span)
}
