// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"sort"

	"github.com/gazed/detphys2d/fx"
)

// narrowphase dispatches every broadphase pair to the matching shape
// combination. Any unsupported combination (missing shape on either
// entity) is skipped, not an error.
func (w *World) narrowphase() {
	for _, pair := range w.pairs {
		ka, kb := w.bs.kindOf(pair.A), w.bs.kindOf(pair.B)
		var c *Contact
		switch {
		case ka == ShapeCircle && kb == ShapeCircle:
			c = w.circleCircle(pair)
		case ka == ShapeHull && kb == ShapeCircle:
			c = w.hullCircle(pair.A, pair.B, pair.Key)
		case ka == ShapeCircle && kb == ShapeHull:
			c = w.hullCircle(pair.B, pair.A, pair.Key)
			if c != nil {
				c.Normal = c.Normal.Neg()
				c.A, c.B = pair.A, pair.B
			}
		case ka == ShapeHull && kb == ShapeHull:
			w.hullHull(pair)
			continue
		default:
			continue
		}
		if c == nil {
			continue
		}
		if c.Penetration < w.cfg.ContactMinDepth {
			continue
		}
		if saturatedContact(c) {
			w.noteDegenerate("saturated contact")
			continue
		}
		w.seedWarmStart(c)
		w.contacts = append(w.contacts, *c)
	}
	sort.SliceStable(w.contacts, func(i, j int) bool {
		if w.contacts[i].Key != w.contacts[j].Key {
			return w.contacts[i].Key.Less(w.contacts[j].Key)
		}
		return w.contacts[i].Feature < w.contacts[j].Feature
	})
}

// seedWarmStart fills (Jn,Jt) from the previous frame's impulse cache
// if present, else zero.
func (w *World) seedWarmStart(c *Contact) {
	if ws, ok := w.prev[c.Key]; ok {
		c.Jn, c.Jt = ws.Jn, ws.Jt
	}
}

// circleCircle emits a single contact at the midpoint of the overlap
// between two circles.
func (w *World) circleCircle(pair BroadphasePair) *Contact {
	ca, ok1 := w.bs.circles.Get(pair.A)
	cb, ok2 := w.bs.circles.Get(pair.B)
	ba, ok3 := w.bs.bodies.Get(pair.A)
	bb, ok4 := w.bs.bodies.Get(pair.B)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil
	}
	d := bb.Pos.Sub(ba.Pos)
	dist := d.Len()
	skin := fx.Add(ca.Skin, cb.Skin)
	pen := fx.Sub(fx.Add(fx.Add(ca.Radius, cb.Radius), skin), dist)
	if pen < 0 {
		return nil
	}
	var n fx.Vec2
	if dist == 0 {
		n = fx.V2(fx.One, 0) // degenerate: coincident centres, pick a fixed axis
	} else {
		n = d.Normalize()
	}
	mid := ba.Pos.Add(n.Scale(ca.Radius)).Add(bb.Pos.Sub(n.Scale(cb.Radius))).Scale(fx.Half)
	return &Contact{
		A: pair.A, B: pair.B, Key: pair.Key,
		Normal: n, Point: mid, Penetration: pen,
	}
}

// hullCircle finds the hull edge with the greatest signed distance
// from the circle centre to its plane, then classifies the contact by
// the Voronoi region of that edge (face vs vertex).
func (w *World) hullCircle(hullE, circE Entity, key PairKey) *Contact {
	hull, ok1 := w.bs.hulls.Get(hullE)
	wh, ok2 := w.bs.worldHull.Get(hullE)
	circ, ok3 := w.bs.circles.Get(circE)
	cbody, ok4 := w.bs.bodies.Get(circE)
	if !ok1 || !ok2 || !ok3 || !ok4 || wh.Count == 0 {
		return nil
	}
	n := wh.Count
	center := cbody.Pos
	radius := fx.Add(circ.Radius, fx.Add(circ.Skin, hull.Skin))

	bestDist := fx.FX(minFXVal)
	bestEdge := 0
	for i := 0; i < n; i++ {
		normal := wh.Normals[i].Normalize()
		d := normal.Dot(center.Sub(wh.Verts[i]))
		if d > bestDist {
			bestDist = d
			bestEdge = i
		}
	}
	if bestDist > radius {
		return nil // no contact
	}

	v1 := wh.Verts[bestEdge]
	v2 := wh.Verts[(bestEdge+1)%n]
	edge := v2.Sub(v1)
	t := fx.Div(center.Sub(v1).Dot(edge), edge.Dot(edge))

	var normal, contactPoint fx.Vec2
	var distToSurface fx.FX
	switch {
	case t < 0:
		normal = center.Sub(v1)
		distToSurface = normal.Len()
		normal = normal.Normalize()
		contactPoint = v1
	case t > fx.One:
		normal = center.Sub(v2)
		distToSurface = normal.Len()
		normal = normal.Normalize()
		contactPoint = v2
	default:
		normal = wh.Normals[bestEdge].Normalize()
		distToSurface = bestDist
		contactPoint = v1.Add(edge.Scale(t))
	}
	pen := fx.Sub(radius, distToSurface)
	if pen < 0 {
		return nil
	}
	return &Contact{
		A: hullE, B: circE, Key: key,
		Normal: normal, Point: contactPoint, Penetration: pen,
	}
}

const minFXVal = -1 << 30

// hullHull runs the SAT axis search on both hulls, picks the
// reference edge with a strict tie-break order, selects the incident
// edge, and clips, retaining at most 2 contacts.
func (w *World) hullHull(pair BroadphasePair) {
	wa, ok1 := w.bs.worldHull.Get(pair.A)
	wb, ok2 := w.bs.worldHull.Get(pair.B)
	ha, ok3 := w.bs.hulls.Get(pair.A)
	hb, ok4 := w.bs.hulls.Get(pair.B)
	ba, ok5 := w.bs.bodies.Get(pair.A)
	bb, ok6 := w.bs.bodies.Get(pair.B)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 || wa.Count == 0 || wb.Count == 0 {
		return
	}
	skin := fx.Add(ha.Skin, hb.Skin)

	sepA, edgeA := bestSeparatingAxis(wa, wb)
	sepB, edgeB := bestSeparatingAxis(wb, wa)
	if sepA > skin || sepB > skin {
		return // real gap beyond skin tolerance: no contact
	}

	refIsA, refEdge, refSep, refNormal := pickReference(wa, wb, sepA, edgeA, sepB, edgeB)
	var refHull, incHull WorldHull
	if refIsA {
		refHull, incHull = wa, wb
	} else {
		refHull, incHull = wb, wa
	}

	// refOut is the reference face's outward normal: incident edge
	// selection and clip depth are measured against it. The emitted
	// contact normal is flipped separately (Step 3) so it points from
	// A to B without perturbing the clip geometry.
	refOut := refNormal
	aToB := refOut
	centerDiff := bb.Pos.Sub(ba.Pos)
	if aToB.Dot(centerDiff) < 0 {
		aToB = aToB.Neg()
	}

	incEdge := mostAntiParallelEdge(incHull, refOut)
	v1 := refHull.Verts[refEdge]
	v2 := refHull.Verts[(refEdge+1)%refHull.Count]
	i1 := incHull.Verts[incEdge]
	i2 := incHull.Verts[(incEdge+1)%incHull.Count]

	pen := fx.Sub(skin, refSep)
	points := clipCascade(v1, v2, i1, i2, refOut, incHull, pen)
	if len(points) == 0 {
		return
	}
	if len(points) > 2 {
		sort.Slice(points, func(i, j int) bool { return lexLess(points[i].Point, points[j].Point) })
		points = points[:2]
	}

	for idx, cp := range points {
		if cp.Penetration < w.cfg.ContactMinDepth {
			continue
		}
		c := Contact{
			A: pair.A, B: pair.B, Key: pair.Key,
			Normal: aToB, Point: cp.Point, Penetration: cp.Penetration,
			Feature: idx,
		}
		if saturatedContact(&c) {
			w.noteDegenerate("saturated contact")
			continue
		}
		w.seedWarmStart(&c)
		w.contacts = append(w.contacts, c)
	}
}

// bestSeparatingAxis finds the largest separation over hull's own edge
// normals against other (the least negative depth, positive when an
// axis separates), returning the separation and the winning edge index.
func bestSeparatingAxis(hull, other WorldHull) (fx.FX, int) {
	best := fx.FX(minFXVal)
	bestEdge := 0
	for i := 0; i < hull.Count; i++ {
		n := hull.Normals[i].Normalize()
		if n.LenSq() == 0 {
			continue // degenerate axis: treated as no separation
		}
		v := hull.Verts[i]
		support := supportMin(other, n)
		d := n.Dot(support.Sub(v))
		if d > best {
			best = d
			bestEdge = i
		}
	}
	return best, bestEdge
}

// supportMin returns the vertex of hull with the minimum projection
// onto n (i.e. the deepest point against this axis).
func supportMin(hull WorldHull, n fx.Vec2) fx.Vec2 {
	best := fx.FX(1<<31 - 1)
	var bestV fx.Vec2
	for _, v := range hull.Verts {
		d := n.Dot(v)
		if d < best {
			best = d
			bestV = v
		}
	}
	return bestV
}

// pickReference chooses the reference hull: the one whose best axis
// yields the larger (less negative) separation. Ties break by
// lexicographic normal, then smaller edge index, then A, so every
// platform picks the same reference.
func pickReference(wa, wb WorldHull, sepA fx.FX, edgeA int, sepB fx.FX, edgeB int) (refIsA bool, refEdge int, refSep fx.FX, refNormal fx.Vec2) {
	if sepA > sepB {
		return true, edgeA, sepA, wa.Normals[edgeA].Normalize()
	}
	if sepB > sepA {
		return false, edgeB, sepB, wb.Normals[edgeB].Normalize()
	}
	// Equal depth: lexicographic (nx,ny), then smaller edge index, then A.
	na := wa.Normals[edgeA].Normalize()
	nb := wb.Normals[edgeB].Normalize()
	if lexLess(na, nb) {
		return true, edgeA, sepA, na
	}
	if lexLess(nb, na) {
		return false, edgeB, sepB, nb
	}
	if edgeA <= edgeB {
		return true, edgeA, sepA, na
	}
	return false, edgeB, sepB, nb
}

func lexLess(a, b fx.Vec2) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// mostAntiParallelEdge finds the incident edge on hull whose normal is
// most anti-parallel to refNormal.
func mostAntiParallelEdge(hull WorldHull, refNormal fx.Vec2) int {
	best := fx.FX(1<<31 - 1)
	bestEdge := 0
	for i := 0; i < hull.Count; i++ {
		n := hull.Normals[i].Normalize()
		d := n.Dot(refNormal)
		if d < best {
			best = d
			bestEdge = i
		}
	}
	return bestEdge
}

// saturatedContact reports whether any fixed-point field clamped at
// the numeric bounds. Such a contact carries no usable geometry and is
// dropped rather than fed to the solver.
func saturatedContact(c *Contact) bool {
	for _, v := range [...]fx.FX{c.Normal.X, c.Normal.Y, c.Point.X, c.Point.Y, c.Penetration} {
		if v == fx.MaxVal || v == fx.MinVal {
			return true
		}
	}
	return false
}

type clipPoint struct {
	Point       fx.Vec2
	Penetration fx.FX
}

// clipCascade generates contact points against the reference edge,
// stopping at the first sub-step that yields at least one point:
// incident endpoints behind the reference plane, then reference
// endpoints inside the incident hull, then the clamped incident-edge
// midpoint. A Sutherland-Hodgman plane clip reduced to one edge.
func clipCascade(v1, v2, i1, i2 fx.Vec2, refNormal fx.Vec2, incHull WorldHull, fallbackPen fx.FX) []clipPoint {
	signedDist := func(p fx.Vec2) fx.FX { return refNormal.Dot(p.Sub(v1)) }

	// (a) keep incident endpoints whose signed distance <= 0.
	var out []clipPoint
	if d := signedDist(i1); d <= 0 {
		out = append(out, clipPoint{Point: i1, Penetration: fx.Neg(d)})
	}
	if d := signedDist(i2); d <= 0 {
		out = append(out, clipPoint{Point: i2, Penetration: fx.Neg(d)})
	}
	if len(out) > 0 {
		return out
	}

	// (b) keep reference-edge endpoints that lie inside the incident hull.
	if pointInHull(v1, incHull) {
		out = append(out, clipPoint{Point: v1, Penetration: fallbackPen})
	}
	if pointInHull(v2, incHull) {
		out = append(out, clipPoint{Point: v2, Penetration: fallbackPen})
	}
	if len(out) > 0 {
		return out
	}

	// (c) clamp the incident-edge midpoint's projection onto the
	// reference edge and emit one contact.
	mid := i1.Add(i2).Scale(fx.Half)
	edge := v2.Sub(v1)
	denom := edge.Dot(edge)
	if denom == 0 {
		return nil
	}
	t := fx.Clamp(fx.Div(mid.Sub(v1).Dot(edge), denom), 0, fx.One)
	p := v1.Add(edge.Scale(t))
	return []clipPoint{{Point: p, Penetration: fallbackPen}}
}

// pointInHull reports whether p is inside hull: on or behind every
// edge's outward half-plane.
func pointInHull(p fx.Vec2, hull WorldHull) bool {
	for i := 0; i < hull.Count; i++ {
		n := hull.Normals[i].Normalize()
		if n.LenSq() == 0 {
			continue
		}
		if n.Dot(p.Sub(hull.Verts[i])) > 0 {
			return false
		}
	}
	return hull.Count > 0
}
