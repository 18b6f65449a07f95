// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import "github.com/gazed/detphys2d/fx"

// solverContact is the precomputed per-frame constraint row for one
// contact point: a scaled-down sequential-impulse row in the manner of
// Bullet's btSequentialImpulseConstraintSolver, on fixed-point scalars.
type solverContact struct {
	idx                      int // index into w.contacts, for writeback
	a, b                     Entity
	rA, rB                   fx.Vec2
	normal, tangent          fx.Vec2
	invMassA, invMassB       fx.FX
	invInertiaA, invInertiaB fx.FX
	effMassN, effMassT       fx.FX
	restitutionBias          fx.FX
	muS                      fx.FX
	jn, jt                   fx.FX
}

// solveVelocity runs the iterative projected Gauss-Seidel pass over
// contacts and joint rows: normal row first, then the Coulomb
// friction clamp, then joint rows with their own gamma/bias. Warm-start
// impulses are applied once before the first iteration. Order within a
// stage is fixed by pair-key (then contact index), matching the
// canonical order narrowphase/joint-build already produced.
func (w *World) solveVelocity() {
	rows := make([]solverContact, 0, len(w.contacts))
	for i := range w.contacts {
		c := &w.contacts[i]
		ba := w.bs.bodies.MustGet(c.A)
		bb := w.bs.bodies.MustGet(c.B)
		if ba == nil || bb == nil {
			continue
		}
		rA := c.Point.Sub(ba.Pos)
		rB := c.Point.Sub(bb.Pos)
		tangent := c.Normal.Perp()

		rACrossN := rA.Cross(c.Normal)
		rBCrossN := rB.Cross(c.Normal)
		kN := fx.Add(fx.Add(ba.InvMass, bb.InvMass),
			fx.Add(fx.Mul(fx.Mul(rACrossN, rACrossN), ba.InvInertia),
				fx.Mul(fx.Mul(rBCrossN, rBCrossN), bb.InvInertia)))

		rACrossT := rA.Cross(tangent)
		rBCrossT := rB.Cross(tangent)
		kT := fx.Add(fx.Add(ba.InvMass, bb.InvMass),
			fx.Add(fx.Mul(fx.Mul(rACrossT, rACrossT), ba.InvInertia),
				fx.Mul(fx.Mul(rBCrossT, rBCrossT), bb.InvInertia)))

		mixed := w.Materials.Mix(ba.MaterialID, bb.MaterialID)
		relVel := relativeVelocity(ba, bb, rA, rB)
		vn0 := c.Normal.Dot(relVel)
		var restBias fx.FX
		if fx.Neg(vn0) > mixed.BounceThreshold {
			restBias = fx.Mul(mixed.Restitution, vn0)
		}

		row := solverContact{
			idx: i, a: c.A, b: c.B, rA: rA, rB: rB,
			normal: c.Normal, tangent: tangent,
			invMassA: ba.InvMass, invMassB: bb.InvMass,
			invInertiaA: ba.InvInertia, invInertiaB: bb.InvInertia,
			muS: mixed.MuS, restitutionBias: restBias,
			jn: c.Jn, jt: c.Jt,
		}
		if kN > 0 {
			row.effMassN = fx.Div(fx.One, kN)
		}
		if kT > 0 {
			row.effMassT = fx.Div(fx.One, kT)
		}
		rows = append(rows, row)
	}

	// Warm start: apply cached impulses once before iterating.
	for i := range rows {
		applyImpulse(w, &rows[i], rows[i].normal.Scale(rows[i].jn).Add(rows[i].tangent.Scale(rows[i].jt)))
	}
	w.warmStartJoints()

	for iter := 0; iter < w.cfg.VelocityIters; iter++ {
		for i := range rows {
			row := &rows[i]
			ba := w.bs.bodies.MustGet(row.a)
			bb := w.bs.bodies.MustGet(row.b)
			if ba == nil || bb == nil || row.effMassN == 0 {
				continue
			}
			relVel := relativeVelocity(ba, bb, row.rA, row.rB)
			vn := row.normal.Dot(relVel)
			lambda := fx.Neg(fx.Mul(fx.Add(vn, row.restitutionBias), row.effMassN))
			newJn := fx.Max(0, fx.Add(row.jn, lambda))
			delta := fx.Sub(newJn, row.jn)
			row.jn = newJn
			applyImpulse(w, row, row.normal.Scale(delta))

			if row.effMassT > 0 {
				relVel = relativeVelocity(ba, bb, row.rA, row.rB)
				vt := row.tangent.Dot(relVel)
				lambdaT := fx.Neg(fx.Mul(vt, row.effMassT))
				maxJt := fx.Mul(row.muS, row.jn)
				newJt := fx.Clamp(fx.Add(row.jt, lambdaT), fx.Neg(maxJt), maxJt)
				deltaT := fx.Sub(newJt, row.jt)
				row.jt = newJt
				applyImpulse(w, row, row.tangent.Scale(deltaT))
			}
		}
		w.solveJointIteration()
	}

	for i := range rows {
		w.contacts[rows[i].idx].Jn = rows[i].jn
		w.contacts[rows[i].idx].Jt = rows[i].jt
	}
}

// relativeVelocity returns the velocity of b's contact point relative
// to a's contact point: (vB + ωB×rB) - (vA + ωA×rA).
func relativeVelocity(a, b *Body, rA, rB fx.Vec2) fx.Vec2 {
	vA := a.Vel.Add(fx.CrossScalar(a.Omega, rA))
	vB := b.Vel.Add(fx.CrossScalar(b.Omega, rB))
	return vB.Sub(vA)
}

// applyImpulse applies impulse j at the contact to both bodies,
// respecting static (zero inverse mass) bodies.
func applyImpulse(w *World, row *solverContact, j fx.Vec2) {
	ba := w.bs.bodies.MustGet(row.a)
	bb := w.bs.bodies.MustGet(row.b)
	if ba != nil && !ba.IsStatic() {
		ba.Vel = ba.Vel.Sub(j.Scale(ba.InvMass))
		ba.Omega = fx.Sub(ba.Omega, fx.Mul(row.rA.Cross(j), ba.InvInertia))
	}
	if bb != nil && !bb.IsStatic() {
		bb.Vel = bb.Vel.Add(j.Scale(bb.InvMass))
		bb.Omega = fx.Add(bb.Omega, fx.Mul(row.rB.Cross(j), bb.InvInertia))
	}
}

// warmStartJoints applies each compiled joint row's prior-frame
// impulse once before the first iteration, mirroring the contact warm
// start.
func (w *World) warmStartJoints() {
	for i := range w.distRows {
		row := &w.distRows[i]
		w.applyJointImpulse(row.a, row.b, row.rA, row.rB, row.n.Scale(row.jn))
	}
	for i := range w.revRows {
		row := &w.revRows[i]
		w.applyJointImpulse(row.a, row.b, row.rA, row.rB, row.jn)
	}
	for i := range w.priRows {
		row := &w.priRows[i]
		w.applyJointImpulse(row.a, row.b, row.rA, row.rB, row.perp.Scale(row.jn))
		ba := w.bs.bodies.MustGet(row.a)
		bb := w.bs.bodies.MustGet(row.b)
		if ba != nil && !ba.IsStatic() {
			ba.Omega = fx.Sub(ba.Omega, fx.Mul(row.jAngle, ba.InvInertia))
		}
		if bb != nil && !bb.IsStatic() {
			bb.Omega = fx.Add(bb.Omega, fx.Mul(row.jAngle, bb.InvInertia))
		}
	}
}

// applyJointImpulse applies linear impulse j at anchor offsets rA/rB.
func (w *World) applyJointImpulse(a, b Entity, rA, rB, j fx.Vec2) {
	ba := w.bs.bodies.MustGet(a)
	bb := w.bs.bodies.MustGet(b)
	if ba != nil && !ba.IsStatic() {
		ba.Vel = ba.Vel.Sub(j.Scale(ba.InvMass))
		ba.Omega = fx.Sub(ba.Omega, fx.Mul(rA.Cross(j), ba.InvInertia))
	}
	if bb != nil && !bb.IsStatic() {
		bb.Vel = bb.Vel.Add(j.Scale(bb.InvMass))
		bb.Omega = fx.Add(bb.Omega, fx.Mul(rB.Cross(j), bb.InvInertia))
	}
}

// solveJointIteration runs one Gauss-Seidel sweep over the compiled
// joint batch rows (distance, revolute, prismatic), in the order they
// were built.
func (w *World) solveJointIteration() {
	for i := range w.distRows {
		w.solveDistanceRow(&w.distRows[i])
	}
	for i := range w.revRows {
		w.solveRevoluteRow(&w.revRows[i])
	}
	for i := range w.priRows {
		w.solvePrismaticRow(&w.priRows[i])
	}
}

func (w *World) solveDistanceRow(row *distanceRow) {
	ba := w.bs.bodies.MustGet(row.a)
	bb := w.bs.bodies.MustGet(row.b)
	if ba == nil || bb == nil {
		return
	}
	relVel := relativeVelocity(ba, bb, row.rA, row.rB)
	cdot := row.n.Dot(relVel)
	lambda := fx.Neg(fx.Mul(fx.Add(cdot, row.bias), row.effMass))
	row.jn = fx.Add(row.jn, lambda)
	impulse := row.n.Scale(lambda)
	if !ba.IsStatic() {
		ba.Vel = ba.Vel.Sub(impulse.Scale(ba.InvMass))
		ba.Omega = fx.Sub(ba.Omega, fx.Mul(row.rA.Cross(impulse), ba.InvInertia))
	}
	if !bb.IsStatic() {
		bb.Vel = bb.Vel.Add(impulse.Scale(bb.InvMass))
		bb.Omega = fx.Add(bb.Omega, fx.Mul(row.rB.Cross(impulse), bb.InvInertia))
	}
	if j, ok := w.joints.distance.Get(row.je); ok {
		j.Jn = row.jn
		// A joint whose accumulated impulse exceeds its break limit is
		// marked broken; the next frame's build skips it (removed from
		// build, not erased).
		if j.BreakImpulse > 0 && fx.Abs(row.jn) > j.BreakImpulse {
			j.Broken = true
		}
		w.joints.distance.Set(row.je, j)
	}
}

func (w *World) solveRevoluteRow(row *revoluteRow) {
	ba := w.bs.bodies.MustGet(row.a)
	bb := w.bs.bodies.MustGet(row.b)
	if ba == nil || bb == nil {
		return
	}
	relVel := relativeVelocity(ba, bb, row.rA, row.rB)
	cdotX := fx.Add(relVel.X, row.biasX)
	cdotY := fx.Add(relVel.Y, row.biasY)
	lx := fx.Neg(fx.Add(fx.Mul(row.im00, cdotX), fx.Mul(row.im01, cdotY)))
	ly := fx.Neg(fx.Add(fx.Mul(row.im01, cdotX), fx.Mul(row.im11, cdotY)))
	row.jn = row.jn.Add(fx.V2(lx, ly))
	impulse := fx.V2(lx, ly)
	if !ba.IsStatic() {
		ba.Vel = ba.Vel.Sub(impulse.Scale(ba.InvMass))
		ba.Omega = fx.Sub(ba.Omega, fx.Mul(row.rA.Cross(impulse), ba.InvInertia))
	}
	if !bb.IsStatic() {
		bb.Vel = bb.Vel.Add(impulse.Scale(bb.InvMass))
		bb.Omega = fx.Add(bb.Omega, fx.Mul(row.rB.Cross(impulse), bb.InvInertia))
	}
	if j, ok := w.joints.revolute.Get(row.je); ok {
		j.Jn = row.jn
		w.joints.revolute.Set(row.je, j)
	}
}

func (w *World) solvePrismaticRow(row *prismaticRow) {
	ba := w.bs.bodies.MustGet(row.a)
	bb := w.bs.bodies.MustGet(row.b)
	if ba == nil || bb == nil {
		return
	}
	relVel := relativeVelocity(ba, bb, row.rA, row.rB)
	cdot := fx.Add(row.perp.Dot(relVel), row.bias)
	if row.effMass != 0 {
		lambda := fx.Neg(fx.Mul(cdot, row.effMass))
		row.jn = fx.Add(row.jn, lambda)
		impulse := row.perp.Scale(lambda)
		if !ba.IsStatic() {
			ba.Vel = ba.Vel.Sub(impulse.Scale(ba.InvMass))
			ba.Omega = fx.Sub(ba.Omega, fx.Mul(row.rA.Cross(impulse), ba.InvInertia))
		}
		if !bb.IsStatic() {
			bb.Vel = bb.Vel.Add(impulse.Scale(bb.InvMass))
			bb.Omega = fx.Add(bb.Omega, fx.Mul(row.rB.Cross(impulse), bb.InvInertia))
		}
	}
	if row.angleMass != 0 {
		angCdot := fx.Add(fx.Sub(bb.Omega, ba.Omega), row.angleBias)
		lambdaA := fx.Neg(fx.Div(angCdot, row.angleMass))
		row.jAngle = fx.Add(row.jAngle, lambdaA)
		if !ba.IsStatic() {
			ba.Omega = fx.Sub(ba.Omega, fx.Mul(lambdaA, ba.InvInertia))
		}
		if !bb.IsStatic() {
			bb.Omega = fx.Add(bb.Omega, fx.Mul(lambdaA, bb.InvInertia))
		}
	}
	if j, ok := w.joints.prismatic.Get(row.je); ok {
		j.Jn = row.jn
		j.JAngle = row.jAngle
		w.joints.prismatic.Set(row.je, j)
	}
}
