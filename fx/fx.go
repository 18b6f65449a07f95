// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package fx implements the deterministic Q16.16 fixed-point arithmetic
// the physics core is built on. Every value is a 32-bit signed integer
// with an implicit scale of 65536 (1 unit = 65536). Addition/subtraction
// saturate instead of wrapping; multiplication and division widen to
// int64 so no platform-dependent overflow behaviour can creep into the
// frame hash.
package fx

import "math"

// FX is a Q16.16 fixed-point scalar.
type FX int32

// Shift is the number of fractional bits.
const Shift = 16

// One is the fixed-point representation of 1.0.
const One FX = 1 << Shift

// Half is the fixed-point representation of 0.5.
const Half FX = One / 2

// Zero is the additive identity.
const Zero FX = 0

// MaxVal and MinVal are the saturation bounds of FX arithmetic.
// Downstream stages compare against them to detect and discard values
// that clamped instead of wrapping.
const (
	MaxVal FX = FX(math.MaxInt32)
	MinVal FX = FX(math.MinInt32)
)

const (
	maxFX = MaxVal
	minFX = MinVal
)

// FromInt converts a whole number to FX.
func FromInt(i int) FX { return FX(i) << Shift }

// FromFloat64 converts a float64 to FX. Only used at data-entry boundaries
// (test fixtures, scenario loading) — never in the hot per-frame path.
func FromFloat64(v float64) FX {
	return FX(math.Round(v * float64(One)))
}

// Float64 converts FX back to float64, for diagnostics and test assertions.
func (a FX) Float64() float64 { return float64(a) / float64(One) }

// Add is a saturating 32-bit add.
func Add(a, b FX) FX {
	sum := int64(a) + int64(b)
	return clamp(sum)
}

// Sub is a saturating 32-bit subtract.
func Sub(a, b FX) FX {
	diff := int64(a) - int64(b)
	return clamp(diff)
}

// Neg negates a, saturating at the int32 boundary (avoids the
// MinInt32-negation overflow).
func Neg(a FX) FX {
	if a == minFX {
		return maxFX
	}
	return -a
}

// Mul multiplies two Q16.16 values via int64 widening, saturating on
// overflow of the int32 result.
func Mul(a, b FX) FX {
	prod := (int64(a) * int64(b)) >> Shift
	return clamp(prod)
}

// Div divides a by b. A zero divisor is guarded and returns zero;
// degenerate divisors are absorbed rather than surfaced so the hot
// loop stays exception-free.
func Div(a, b FX) FX {
	if b == 0 {
		return 0
	}
	q := (int64(a) << Shift) / int64(b)
	return clamp(q)
}

func clamp(v int64) FX {
	if v > int64(maxFX) {
		return maxFX
	}
	if v < int64(minFX) {
		return minFX
	}
	return FX(v)
}

// Abs returns the absolute value, saturating at MinInt32.
func Abs(a FX) FX {
	if a < 0 {
		return Neg(a)
	}
	return a
}

// Min returns the smaller of a, b.
func Min(a, b FX) FX {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of a, b.
func Max(a, b FX) FX {
	if a > b {
		return a
	}
	return b
}

// Clamp restricts a to [lo, hi].
func Clamp(a, lo, hi FX) FX {
	if a < lo {
		return lo
	}
	if a > hi {
		return hi
	}
	return a
}

// Lerp linearly interpolates between a and b by t (t expected in
// [0, One] but not clamped).
func Lerp(a, b, t FX) FX {
	return Add(a, Mul(Sub(b, a), t))
}

// Sqrt computes a deterministic integer square root using Newton
// iteration seeded from the bit-length of the operand, so the result is
// identical on every platform regardless of any native sqrt instruction.
// Negative inputs return 0 (degenerate condition, absorbed silently).
func Sqrt(a FX) FX {
	if a <= 0 {
		return 0
	}
	// Work in Q16.16 but square root halves the fractional scale, so
	// operate on the raw integer value scaled up by Shift once more
	// before taking the integer sqrt, then the result is already Q16.16.
	v := uint64(a) << Shift
	if v == 0 {
		return 0
	}
	// Seed the Newton iteration from the bit length of v for a
	// reproducible number of iterations, exactly like the classic
	// "isqrt via bit-length seed" trick used to avoid float64 sqrt.
	x := uint64(1) << ((bitLen(v) + 1) / 2)
	for i := 0; i < 32; i++ {
		nx := (x + v/x) / 2
		if nx >= x {
			break
		}
		x = nx
	}
	return clamp(int64(x))
}

func bitLen(v uint64) uint {
	var n uint
	for v > 0 {
		v >>= 1
		n++
	}
	return n
}
