// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"sort"

	"github.com/gazed/detphys2d/fx"
)

// ccd runs a Cyrus-Beck raycast of each moving circle against the
// Minkowski-inflated planes of a convex hull, processed over
// broadphase pairs in pair-key order. It mutates positions/velocities
// in place for overlap resolution and enqueues TOI events for t>0;
// position correction drains them later.
// Raw Q16.16 constants for the overlap resolver: the push-out safety
// margin (~0.01) and the cosine threshold for matching the shallowest
// violating plane (~0.999). Written as raw values so no float
// conversion touches the per-frame path.
const (
	overlapMargin = fx.FX(655)
	planeMatchCos = fx.FX(65470)
)

func (w *World) ccd() {
	for _, pair := range w.pairs {
		ka, kb := w.bs.kindOf(pair.A), w.bs.kindOf(pair.B)
		var hullE, circE Entity
		switch {
		case ka == ShapeHull && kb == ShapeCircle:
			hullE, circE = pair.A, pair.B
		case ka == ShapeCircle && kb == ShapeHull:
			hullE, circE = pair.B, pair.A
		default:
			continue
		}
		w.ccdCircleVsHull(hullE, circE, pair.Key)
	}
	sort.SliceStable(w.toi, func(i, j int) bool {
		if w.toi[i].T != w.toi[j].T {
			return w.toi[i].T < w.toi[j].T
		}
		return w.toi[i].Key.Less(w.toi[j].Key)
	})
}

func (w *World) ccdCircleVsHull(hullE, circE Entity, key PairKey) {
	wh, ok1 := w.bs.worldHull.Get(hullE)
	circ, ok2 := w.bs.circles.Get(circE)
	cbody, ok3 := w.bs.bodies.Get(circE)
	hbody, ok4 := w.bs.bodies.Get(hullE)
	if !ok1 || !ok2 || !ok3 || !ok4 || wh.Count == 0 {
		return
	}
	r := fx.Add(circ.Radius, circ.Skin)
	// The swept point is the circle centre; its displacement relative
	// to the hull over one step is (v_circle - v_hull)*dt.
	d := cbody.Vel.Sub(hbody.Vel).Scale(w.cfg.DT)

	tEnter := fx.FX(0)
	tExit := fx.One
	miss := false
	var enterNormal fx.Vec2
	haveEnter := false

	// Overlap-case bookkeeping: smallest violation plane.
	smallestViolation := fx.FX(1<<31 - 1)
	var shallowestNormal fx.Vec2

	for i := 0; i < wh.Count; i++ {
		n := wh.Normals[i].Normalize()
		if n.LenSq() == 0 {
			continue
		}
		s := wh.Verts[i]
		offset := fx.Add(n.Dot(s), r)
		nDotP0 := n.Dot(cbody.Pos)
		nDotD := n.Dot(d)
		violation := fx.Sub(nDotP0, offset)
		if violation < smallestViolation {
			smallestViolation = violation
			shallowestNormal = n
		}
		if nDotD == 0 {
			if nDotP0 > offset {
				miss = true
				break
			}
			continue
		}
		t := fx.Div(fx.Sub(offset, nDotP0), nDotD)
		if nDotD < 0 {
			if t > tEnter {
				tEnter = t
				enterNormal = n
				haveEnter = true
			}
		} else {
			if t < tExit {
				tExit = t
			}
		}
		if tEnter > tExit {
			miss = true
			break
		}
	}
	if miss {
		return
	}
	// The circle starts inside the inflated hull iff every plane's
	// violation is <= 0 at t=0.
	anyOverlap := true
	for i := 0; i < wh.Count; i++ {
		n := wh.Normals[i].Normalize()
		if n.LenSq() == 0 {
			continue
		}
		offset := fx.Add(n.Dot(wh.Verts[i]), r)
		if fx.Sub(n.Dot(cbody.Pos), offset) > 0 {
			anyOverlap = false
			break
		}
	}

	if anyOverlap && tEnter == 0 {
		w.resolveOverlap(hullE, circE, shallowestNormal, r)
		return
	}
	if !haveEnter || tEnter <= 0 || tEnter > fx.One {
		return
	}
	w.resolveImpact(hullE, circE, key, tEnter, enterNormal, d)
}

// resolveOverlap handles the tEnter=0 already-overlapping case:
// project the circle outward along the shallowest violating normal,
// cancel inward normal velocity, and clamp tangential friction.
func (w *World) resolveOverlap(hullE, circE Entity, n fx.Vec2, r fx.FX) {
	circBody := w.bs.bodies.MustGet(circE)
	if circBody == nil || circBody.IsStatic() {
		return
	}
	wh, _ := w.bs.worldHull.Get(hullE)
	// Push the body outward along n until it clears the inflated
	// boundary by the margin; uses the same plane equation as the sweep.
	bestOffset := fx.FX(0)
	for i := 0; i < wh.Count; i++ {
		cand := wh.Normals[i].Normalize()
		if cand.Dot(n) > planeMatchCos {
			bestOffset = fx.Add(cand.Dot(wh.Verts[i]), r)
			break
		}
	}
	target := fx.Add(bestOffset, overlapMargin)
	depth := fx.Sub(target, n.Dot(circBody.Pos))
	if depth > 0 {
		circBody.Pos = circBody.Pos.Add(n.Scale(depth))
	}
	vn := n.Dot(circBody.Vel)
	if vn < 0 {
		circBody.Vel = circBody.Vel.Sub(n.Scale(vn))
	}
	mixed := w.Materials.Mix(circBody.MaterialID, w.materialOf(hullE))
	tangent := n.Perp()
	vt := tangent.Dot(circBody.Vel)
	maxFriction := fx.Mul(mixed.MuD, fx.Abs(vn))
	clamped := fx.Clamp(vt, fx.Neg(maxFriction), maxFriction)
	circBody.Vel = circBody.Vel.Sub(tangent.Scale(fx.Sub(vt, clamped)))
}

func (w *World) materialOf(e Entity) string {
	if b, ok := w.bs.bodies.Get(e); ok {
		return b.MaterialID
	}
	return ""
}

// resolveImpact handles the t>0 case: advance to the impact point minus
// a small epsilon, apply restitution if the approach speed exceeds the
// mixed bounce threshold, and enqueue a TOI event.
func (w *World) resolveImpact(hullE, circE Entity, key PairKey, t fx.FX, n fx.Vec2, d fx.Vec2) {
	circBody := w.bs.bodies.MustGet(circE)
	if circBody == nil || circBody.IsStatic() {
		return
	}
	eps := w.cfg.ToiEpsilon
	safeT := fx.Max(0, fx.Sub(t, eps))
	circBody.Pos = circBody.Pos.Add(d.Scale(safeT))

	hb, _ := w.bs.bodies.Get(hullE)
	vn := n.Dot(circBody.Vel.Sub(hb.Vel))
	mixed := w.Materials.Mix(circBody.MaterialID, w.materialOf(hullE))
	if fx.Neg(vn) > mixed.BounceThreshold {
		newVn := fx.Neg(fx.Mul(vn, fx.Add(fx.One, mixed.Restitution)))
		circBody.Vel = circBody.Vel.Add(n.Scale(fx.Sub(newVn, vn)))
	}

	w.toi = append(w.toi, ToiEvent{
		A: hullE, B: circE, Key: key, T: t, N: n, P: circBody.Pos,
	})
}
