// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package fx

// Vec2 is a Q16.16 2D vector. Value typed rather than
// pointer-receiver since FX values are small and the physics core
// never shares vector storage across writers.
type Vec2 struct {
	X, Y FX
}

// V2 builds a Vec2 from two FX components.
func V2(x, y FX) Vec2 { return Vec2{X: x, Y: y} }

// Add returns a+b.
func (a Vec2) Add(b Vec2) Vec2 { return Vec2{Add(a.X, b.X), Add(a.Y, b.Y)} }

// Sub returns a-b.
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{Sub(a.X, b.X), Sub(a.Y, b.Y)} }

// Neg returns -a.
func (a Vec2) Neg() Vec2 { return Vec2{Neg(a.X), Neg(a.Y)} }

// Scale returns a*s.
func (a Vec2) Scale(s FX) Vec2 { return Vec2{Mul(a.X, s), Mul(a.Y, s)} }

// Dot returns the scalar dot product a·b.
func (a Vec2) Dot(b Vec2) FX { return Add(Mul(a.X, b.X), Mul(a.Y, b.Y)) }

// Cross returns the 2D scalar cross product a×b (= z-component of the
// 3D cross product of (a,0) and (b,0)).
func (a Vec2) Cross(b Vec2) FX { return Sub(Mul(a.X, b.Y), Mul(a.Y, b.X)) }

// CrossScalar returns the vector s×a, i.e. rotate a by 90° and scale,
// matching the classic 2D "scalar cross vector" used to turn an angular
// quantity into a linear velocity contribution (ω × r).
func CrossScalar(s FX, a Vec2) Vec2 {
	return Vec2{Neg(Mul(s, a.Y)), Mul(s, a.X)}
}

// Perp returns a vector rotated 90° counter-clockwise from a.
func (a Vec2) Perp() Vec2 { return Vec2{Neg(a.Y), a.X} }

// LenSq returns the squared length of a.
func (a Vec2) LenSq() FX { return a.Dot(a) }

// Len returns the length of a via the deterministic fixed-point sqrt.
func (a Vec2) Len() FX { return Sqrt(a.LenSq()) }

// Normalize returns a scaled to unit length, or the zero vector if a
// has zero length. Callers treat a zero normal as no separation axis.
func (a Vec2) Normalize() Vec2 {
	l := a.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{Div(a.X, l), Div(a.Y, l)}
}

// Rotate applies rotation r to a.
func (a Vec2) Rotate(r Rot) Vec2 {
	return Vec2{
		X: Sub(Mul(a.X, r.Cos), Mul(a.Y, r.Sin)),
		Y: Add(Mul(a.X, r.Sin), Mul(a.Y, r.Cos)),
	}
}

// Lerp linearly interpolates between a and b by t.
func (a Vec2) Lerp(b Vec2, t FX) Vec2 {
	return Vec2{Lerp(a.X, b.X, t), Lerp(a.Y, b.Y, t)}
}
