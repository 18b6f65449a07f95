// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import "github.com/gazed/detphys2d/fx"

// correctPositions runs the post-solve Baumgarte pseudo-velocity pass:
// a small fixed number of Gauss-Seidel sweeps over contacts,
// correcting positions only, each correction capped at the configured
// slop radius. TOI events queued by CCD are applied first, in
// (t, pairKey) order, so fast movers are resolved before the contact
// pass and before integration.
func (w *World) correctPositions() {
	w.applyToiEvents()

	for iter := 0; iter < w.cfg.PositionIters; iter++ {
		for i := range w.contacts {
			c := &w.contacts[i]
			ba := w.bs.bodies.MustGet(c.A)
			bb := w.bs.bodies.MustGet(c.B)
			if ba == nil || bb == nil {
				continue
			}
			rA := c.Point.Sub(ba.Pos)
			rB := c.Point.Sub(bb.Pos)

			pen := c.Penetration
			if pen <= 0 {
				continue
			}
			amount := fx.Clamp(fx.Mul(w.cfg.Baumgarte, pen), 0, w.cfg.Slop)

			rACrossN := rA.Cross(c.Normal)
			rBCrossN := rB.Cross(c.Normal)
			k := fx.Add(fx.Add(ba.InvMass, bb.InvMass),
				fx.Add(fx.Mul(fx.Mul(rACrossN, rACrossN), ba.InvInertia),
					fx.Mul(fx.Mul(rBCrossN, rBCrossN), bb.InvInertia)))
			if k == 0 {
				continue
			}
			impulse := fx.Div(amount, k)
			correctionVec := c.Normal.Scale(impulse)
			if !ba.IsStatic() {
				ba.Pos = ba.Pos.Sub(correctionVec.Scale(ba.InvMass))
			}
			if !bb.IsStatic() {
				bb.Pos = bb.Pos.Add(correctionVec.Scale(bb.InvMass))
			}
			c.Penetration = fx.Sub(pen, amount)
		}
	}
}

// applyToiEvents drains the TOI queue in (t, pairKey) order so
// penetrating contacts from fast movers are resolved before
// integration.
func (w *World) applyToiEvents() {
	for _, ev := range w.toi {
		b := w.bs.bodies.MustGet(ev.B)
		if b == nil || b.IsStatic() {
			continue
		}
		// The CCD stage already advanced position to the impact point;
		// here we only cancel any remaining inward velocity component
		// so the fixed-step integration that follows does not
		// re-penetrate.
		vn := ev.N.Dot(b.Vel)
		if vn < 0 {
			b.Vel = b.Vel.Sub(ev.N.Scale(vn))
		}
	}
}
