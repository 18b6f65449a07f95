// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package physics implements the deterministic 2D rigid-body pipeline:
// geometry sync, sweep-and-prune broadphase, SAT narrowphase, CCD,
// joint constraint build, the Gauss-Seidel solver with warm-start,
// Baumgarte position correction, integration, and the frame hash. The
// package is built around the fx (Q16.16) and ecs (column-store)
// packages and never touches floating point in the per-frame hot path.
package physics

import (
	"fmt"

	"github.com/gazed/detphys2d/ecs"
	"github.com/gazed/detphys2d/fx"
)

// Body is a rigid body's dynamic state. Static iff InvMass == InvInertia == 0.
// A body is never mutated by two writers within one stage: CCD writes
// position only, the solver writes velocity only, position correction
// and integration write position only, and the pipeline orders these
// stages so no field is touched concurrently.
type Body struct {
	Pos   fx.Vec2
	Angle fx.FX

	Vel   fx.Vec2
	Omega fx.FX

	InvMass    fx.FX
	InvInertia fx.FX

	MaterialID string
}

// IsStatic reports whether the body never moves under the solver.
func (b *Body) IsStatic() bool { return b.InvMass == 0 && b.InvInertia == 0 }

// Circle is a circle collider local to a body's origin.
type Circle struct {
	Radius fx.FX
	Skin   fx.FX
}

// MaxHullVerts bounds convex hull vertex count.
const MaxHullVerts = 16

// Hull is a local-space convex polygon, counter-clockwise wound, stored
// as interleaved [x0,y0,x1,y1,...] to keep vertex reads cache local.
type Hull struct {
	Verts []fx.FX // interleaved local-space x,y pairs, len == 2*N
	Skin  fx.FX
}

// N returns the vertex count.
func (h *Hull) N() int { return len(h.Verts) / 2 }

// Vertex returns local vertex i as a Vec2.
func (h *Hull) Vertex(i int) fx.Vec2 {
	return fx.V2(h.Verts[2*i], h.Verts[2*i+1])
}

// NewHull validates and constructs a convex hull component: vertex
// count in [3,16], counter-clockwise winding (positive signed area).
// Validation happens here at construction, never inside Step.
func NewHull(verts []fx.Vec2, skin fx.FX) (*Hull, error) {
	n := len(verts)
	if n < 3 || n > MaxHullVerts {
		return nil, fmt.Errorf("physics: hull vertex count %d out of range [3,%d]", n, MaxHullVerts)
	}
	area := fx.FX(0)
	flat := make([]fx.FX, 0, 2*n)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area = fx.Add(area, fx.Sub(fx.Mul(verts[i].X, verts[j].Y), fx.Mul(verts[j].X, verts[i].Y)))
		flat = append(flat, verts[i].X, verts[i].Y)
	}
	if area <= 0 {
		return nil, fmt.Errorf("physics: hull vertices must be wound counter-clockwise (signed area %v)", area.Float64())
	}
	return &Hull{Verts: flat, Skin: skin}, nil
}

// NewCircle validates and constructs a circle shape component. Input
// preconditions: radius > 0, skin >= 0.
func NewCircle(radius, skin fx.FX) (*Circle, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("physics: circle radius must be > 0, got %v", radius.Float64())
	}
	if skin < 0 {
		return nil, fmt.Errorf("physics: circle skin must be >= 0, got %v", skin.Float64())
	}
	return &Circle{Radius: radius, Skin: skin}, nil
}

// WorldHull is the per-frame world-space cache for a hull. Edge i
// normal is the un-normalised (dy,-dx) of edge (i, i+1 mod n);
// narrowphase renormalises on demand.
type WorldHull struct {
	Verts   []fx.Vec2
	Normals []fx.Vec2
	Count   int
	Epoch   uint64
}

// AABB is an axis-aligned bounding box with the frame it was last
// written at. For dynamic bodies it is the swept box over one fixed
// timestep.
type AABB struct {
	Min, Max fx.Vec2
	Epoch    uint64
}

// Overlaps reports whether two AABBs intersect (inclusive bounds).
func (a AABB) Overlaps(o AABB) bool {
	if a.Max.X < o.Min.X || o.Max.X < a.Min.X {
		return false
	}
	if a.Max.Y < o.Min.Y || o.Max.Y < a.Min.Y {
		return false
	}
	return true
}

// ShapeKind discriminates which shape column an entity's collider
// lives in.
type ShapeKind int

const (
	ShapeNone ShapeKind = iota
	ShapeCircle
	ShapeHull
)

// bodySet groups the per-entity component columns the physics world
// owns, mirroring the "bodies" component manager's sparse/dense split
// in spirit (here: one ecs.Column per concern, keyed by ecs.Entity).
type bodySet struct {
	bodies    *ecs.Column[Body]
	circles   *ecs.Column[Circle]
	hulls     *ecs.Column[Hull]
	worldHull *ecs.Column[WorldHull]
	aabbs     *ecs.Column[AABB]
}

func newBodySet() *bodySet {
	return &bodySet{
		bodies:    ecs.NewColumn[Body](),
		circles:   ecs.NewColumn[Circle](),
		hulls:     ecs.NewColumn[Hull](),
		worldHull: ecs.NewColumn[WorldHull](),
		aabbs:     ecs.NewColumn[AABB](),
	}
}

// kindOf reports the shape kind attached to e, preferring hull over
// circle if (incorrectly) both are present.
func (bs *bodySet) kindOf(e ecs.Entity) ShapeKind {
	if bs.hulls.Has(e) {
		return ShapeHull
	}
	if bs.circles.Has(e) {
		return ShapeCircle
	}
	return ShapeNone
}
