// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package fx

import "math"

// sinTableSize is the number of samples spanning one full turn [0, 2π).
// Fixed at 1024 samples with linear interpolation so every platform
// computes the same value to the LSB.
const sinTableSize = 1024

// Turn is the FX representation of one full revolution (2π radians,
// 6.283185 × 65536 rounded to the nearest step). Angle values in this
// package are FX radians, and Turn is their wrap period.
const Turn FX = 411775

var sinTable [sinTableSize]FX

func init() {
	for i := 0; i < sinTableSize; i++ {
		rad := 2 * math.Pi * float64(i) / float64(sinTableSize)
		sinTable[i] = FromFloat64(math.Sin(rad))
	}
}

// wrapIndex reduces an angle to the [0, sinTableSize) sample domain,
// returning the integer sample index and the fractional part (as FX in
// [0, One)) used for linear interpolation between samples.
func wrapIndex(angle FX) (idx int, frac FX) {
	scaled := int64(angle) % int64(Turn)
	if scaled < 0 {
		scaled += int64(Turn)
	}
	// scaled is now in [0, Turn) expressed as an FX angle; convert to a
	// Q16.16 table-sample position: sample = scaled * sinTableSize / Turn.
	samplePos := (scaled * sinTableSize << Shift) / int64(Turn)
	idx = int(samplePos >> Shift)
	frac = FX(samplePos & (int64(One) - 1))
	return idx, frac
}

// Sin returns the deterministic table-driven sine of angle (FX radians).
func Sin(angle FX) FX {
	idx, frac := wrapIndex(angle)
	next := (idx + 1) % sinTableSize
	return Lerp(sinTable[idx], sinTable[next], frac)
}

// Cos returns the deterministic table-driven cosine of angle (FX radians),
// computed as a quarter-turn phase shift of Sin so both share one table.
func Cos(angle FX) FX {
	return Sin(Add(angle, Turn/4))
}

// Rot is a precomputed rotation (cos, sin) pair, used where a caller
// supplies an explicit rotation instead of deriving one from an angle.
type Rot struct {
	Cos, Sin FX
}

// RotFromAngle builds a Rot from an FX angle via the sin/cos table.
func RotFromAngle(angle FX) Rot {
	return Rot{Cos: Cos(angle), Sin: Sin(angle)}
}
