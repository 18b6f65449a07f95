// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"github.com/gazed/detphys2d/ecs"
	"github.com/gazed/detphys2d/fx"
)

// syncGeometry transforms local shapes to world space, computes edge
// normals, and updates AABBs including the swept CCD bounds. Hulls are
// synced before AABBs since a hulled body's AABB reads its freshly
// written world vertices.
func (w *World) syncGeometry() {
	w.syncHulls()
	w.syncAABBs()
}

// syncHulls writes the WorldHull cache for every entity carrying a
// local Hull + Body. A hull with zero vertices (shouldn't occur past
// construction validation, but tolerated) keeps count=0 and stays
// invisible to narrowphase.
func (w *World) syncHulls() {
	ecs.Query2(w.bs.hulls, w.bs.bodies, func(e Entity, h *Hull, body *Body) {
		n := h.N()
		wh := WorldHull{Epoch: w.frame}
		if n == 0 {
			w.bs.worldHull.Set(e, wh)
			return
		}
		rot := fx.RotFromAngle(body.Angle)
		wh.Verts = make([]fx.Vec2, n)
		wh.Normals = make([]fx.Vec2, n)
		for i := 0; i < n; i++ {
			wh.Verts[i] = h.Vertex(i).Rotate(rot).Add(body.Pos)
		}
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			edge := wh.Verts[j].Sub(wh.Verts[i])
			// outward normal of edge (i,i+1): (dy,-dx), not normalised.
			wh.Normals[i] = fx.V2(edge.Y, fx.Neg(edge.X))
		}
		wh.Count = n
		w.bs.worldHull.Set(e, wh)
	})
}

// syncAABBs builds the swept AABB (union of current and future
// position, inflated by the shape's outer radius) for every entity
// that carries a Body and either a Circle or a Hull.
func (w *World) syncAABBs() {
	ecs.Query2(w.bs.circles, w.bs.bodies, func(e Entity, c *Circle, body *Body) {
		w.writeSweptAABB(e, *body, fx.Add(c.Radius, c.Skin))
	})
	ecs.Query2(w.bs.hulls, w.bs.bodies, func(e Entity, h *Hull, body *Body) {
		wh, ok := w.bs.worldHull.Get(e)
		if !ok || wh.Count == 0 {
			return
		}
		outer := hullOuterRadius(body.Pos, wh)
		w.writeSweptAABB(e, *body, fx.Add(outer, h.Skin))
	})
}

// hullOuterRadius returns the maximum distance from the body centre to
// any world vertex, used to inflate the AABB the same way a circle's
// radius would.
func hullOuterRadius(center fx.Vec2, wh WorldHull) fx.FX {
	max := fx.FX(0)
	for _, v := range wh.Verts {
		d := v.Sub(center).Len()
		max = fx.Max(max, d)
	}
	return max
}

// writeSweptAABB computes the min/max of the current position and the
// position after one fixed step at current velocity, inflated by
// radius, and writes the AABB cache.
func (w *World) writeSweptAABB(e Entity, body Body, radius fx.FX) {
	future := body.Pos.Add(body.Vel.Scale(w.cfg.DT))
	minX := fx.Min(body.Pos.X, future.X)
	maxX := fx.Max(body.Pos.X, future.X)
	minY := fx.Min(body.Pos.Y, future.Y)
	maxY := fx.Max(body.Pos.Y, future.Y)
	w.bs.aabbs.Set(e, AABB{
		Min:   fx.V2(fx.Sub(minX, radius), fx.Sub(minY, radius)),
		Max:   fx.V2(fx.Add(maxX, radius), fx.Add(maxY, radius)),
		Epoch: w.frame,
	})
}
