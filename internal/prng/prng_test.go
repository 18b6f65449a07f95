// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package prng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSameSeedSameStream(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestZeroSeedRemapped(t *testing.T) {
	s := New(0)
	assert.NotEqual(t, uint64(0), s.Uint64())
}

func TestIntnBounds(t *testing.T) {
	s := New(7)
	for i := 0; i < 1000; i++ {
		v := s.Intn(10)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 10)
	}
	assert.Equal(t, 0, s.Intn(0))
}

func TestFXRangeBounds(t *testing.T) {
	s := New(11)
	lo, hi := New(1).FX(), New(1).FX()+1000
	for i := 0; i < 1000; i++ {
		v := s.FXRange(lo, hi)
		assert.GreaterOrEqual(t, int32(v), int32(lo))
		assert.Less(t, int32(v), int32(hi))
	}
}
