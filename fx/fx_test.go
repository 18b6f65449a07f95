// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package fx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMulDiv(t *testing.T) {
	a := FromFloat64(2.5)
	b := FromFloat64(4.0)
	assert.InDelta(t, 10.0, Mul(a, b).Float64(), 0.001)
	assert.InDelta(t, 0.625, Div(a, b).Float64(), 0.001)
}

func TestDivByZero(t *testing.T) {
	assert.Equal(t, FX(0), Div(FromInt(5), 0))
}

func TestAddSubSaturate(t *testing.T) {
	assert.Equal(t, maxFX, Add(maxFX, FromInt(1)))
	assert.Equal(t, minFX, Sub(minFX, FromInt(1)))
}

func TestSqrt(t *testing.T) {
	cases := []float64{0.25, 1, 2, 4, 9, 16, 100, 0.0001}
	for _, c := range cases {
		got := Sqrt(FromFloat64(c)).Float64()
		assert.InDelta(t, mathSqrt(c), got, 0.01, "sqrt(%v)", c)
	}
}

func TestSqrtNegative(t *testing.T) {
	assert.Equal(t, FX(0), Sqrt(FromFloat64(-4)))
}

func TestSinCosTable(t *testing.T) {
	cases := []float64{0, 0.25, 0.5, 0.75, 1.0}
	for _, turns := range cases {
		angle := Mul(FromFloat64(turns), Turn)
		wantS, wantC := mathSinCos(turns)
		assert.InDelta(t, wantS, Sin(angle).Float64(), 0.01)
		assert.InDelta(t, wantC, Cos(angle).Float64(), 0.01)
	}
}

func TestVec2Normalize(t *testing.T) {
	v := V2(FromInt(3), FromInt(4))
	n := v.Normalize()
	assert.InDelta(t, 1.0, n.Len().Float64(), 0.01)
}

func TestVec2NormalizeZero(t *testing.T) {
	v := V2(0, 0)
	assert.Equal(t, Vec2{}, v.Normalize())
}

func TestVec2Cross(t *testing.T) {
	a := V2(FromInt(1), FromInt(0))
	b := V2(FromInt(0), FromInt(1))
	assert.Equal(t, One, a.Cross(b))
}
