// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"testing"

	"github.com/gazed/detphys2d/ecs"
	"github.com/gazed/detphys2d/fx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A box resting on a wider ground box yields a contact with an
// upward normal.
func TestRestingBoxOnGround(t *testing.T) {
	w := NewWorld(DefaultConfig())
	ground := w.CreateBody(ecs.GUID{Lo: 1}, Body{Pos: fx.V2(0, fx.FromFloat64(-0.5))})
	gHull, err := NewHull(boxVerts(2, 1), 0)
	require.NoError(t, err)
	w.SetHull(ground, *gHull)
	newDynamicBox(t, w, ecs.GUID{Lo: 2}, fx.V2(0, fx.FromFloat64(1)), 1, 1)

	w.syncGeometry()
	w.broadphase()
	w.narrowphase()

	require.NotEmpty(t, w.contacts)
	for _, c := range w.contacts {
		assert.Greater(t, c.Normal.Y.Float64(), 0.9)
		assert.Greater(t, c.Penetration.Float64(), 0.0)
	}
}

// A circle sliding down a right-triangle slope for 10 frames is
// bit-exactly reproducible: three back-to-back runs yield identical
// frame-hash sequences.
func TestSlopeDeterminism(t *testing.T) {
	run := func() []uint64 {
		w := NewWorld(DefaultConfig())
		slope := w.CreateBody(ecs.GUID{Lo: 1}, Body{})
		hull, err := NewHull([]fx.Vec2{
			fx.V2(fx.FromInt(-2), 0),
			fx.V2(fx.FromInt(2), 0),
			fx.V2(fx.FromInt(-2), fx.FromInt(2)),
		}, 0)
		require.NoError(t, err)
		w.SetHull(slope, *hull)

		ball := w.CreateBody(ecs.GUID{Lo: 2}, Body{
			Pos: fx.V2(0, fx.FromFloat64(2.0)), InvMass: fx.One, InvInertia: fx.One,
		})
		circ, err := NewCircle(fx.FromFloat64(0.5), 0)
		require.NoError(t, err)
		w.SetCircle(ball, *circ)

		var hashes []uint64
		for i := 0; i < 10; i++ {
			hashes = append(hashes, w.Step())
		}
		return hashes
	}
	h1, h2, h3 := run(), run(), run()
	assert.Equal(t, h1, h2)
	assert.Equal(t, h2, h3)
}

// A pendulum with an explicit rest length keeps the ball on the rest
// circle while the joint impulse warm-starts across frames.
func TestPendulumDistanceJoint(t *testing.T) {
	w := NewWorld(DefaultConfig())
	anchor := w.CreateBody(ecs.GUID{Lo: 1}, Body{})
	ball := w.CreateBody(ecs.GUID{Lo: 2}, Body{
		Pos: fx.V2(0, fx.FromInt(-2)), InvMass: fx.One, InvInertia: fx.One,
	})
	je := w.Entities.Create(ecs.GUID{Lo: 3})
	w.AddDistanceJoint(je, DistanceJoint{
		A: anchor, B: ball, Rest: fx.FromInt(2), Beta: fx.FromFloat64(0.2),
	})

	for i := 0; i < 100; i++ {
		w.Step()
	}
	ballState, _ := w.Body(ball)
	anchorState, _ := w.Body(anchor)
	dist := ballState.Pos.Sub(anchorState.Pos).Len().Float64()
	assert.InDelta(t, 2.0, dist, 0.02)

	j, ok := w.joints.distance.Get(je)
	require.True(t, ok)
	assert.NotEqual(t, fx.FX(0), j.Jn, "joint impulse should carry across frames")
}

// A distance joint whose accumulated impulse exceeds its break limit
// goes broken, drops out of the build, and stops holding the body.
func TestDistanceJointBreaks(t *testing.T) {
	w := NewWorld(DefaultConfig())
	anchor := w.CreateBody(ecs.GUID{Lo: 1}, Body{})
	ball := w.CreateBody(ecs.GUID{Lo: 2}, Body{
		Pos: fx.V2(0, fx.FromInt(-2)), InvMass: fx.One, InvInertia: fx.One,
	})
	je := w.Entities.Create(ecs.GUID{Lo: 3})
	w.AddDistanceJoint(je, DistanceJoint{
		A: anchor, B: ball, Rest: fx.FromInt(2), Beta: fx.FromFloat64(0.2),
		BreakImpulse: fx.FromFloat64(0.05),
	})

	for i := 0; i < 30; i++ {
		w.Step()
	}
	j, ok := w.joints.distance.Get(je)
	require.True(t, ok, "a broken joint is removed from the build, not erased")
	assert.True(t, j.Broken, "gravity load exceeds the break impulse within a frame")
	ballState, _ := w.Body(ball)
	assert.Less(t, ballState.Pos.Y.Float64(), -2.05, "the ball falls free once the joint breaks")
}

// A revolute joint pins the dynamic body's anchor to the static pivot.
func TestRevoluteJointHoldsAnchor(t *testing.T) {
	w := NewWorld(DefaultConfig())
	pivot := w.CreateBody(ecs.GUID{Lo: 1}, Body{})
	arm := w.CreateBody(ecs.GUID{Lo: 2}, Body{
		Pos: fx.V2(fx.FromInt(1), 0), InvMass: fx.One, InvInertia: fx.One,
	})
	je := w.Entities.Create(ecs.GUID{Lo: 3})
	w.AddRevoluteJoint(je, RevoluteJoint{
		A: pivot, B: arm,
		AnchorA: fx.V2(0, 0), AnchorB: fx.V2(fx.FromInt(-1), 0),
		Beta: fx.FromFloat64(0.2),
	})

	for i := 0; i < 60; i++ {
		w.Step()
	}
	armState, _ := w.Body(arm)
	rot := fx.RotFromAngle(armState.Angle)
	worldAnchor := armState.Pos.Add(fx.V2(fx.FromInt(-1), 0).Rotate(rot))
	assert.Less(t, worldAnchor.Len().Float64(), 0.05, "arm anchor should stay pinned to the pivot")
}

// A prismatic joint keeps the slider on its axis while it moves along it.
func TestPrismaticJointConstrainsToAxis(t *testing.T) {
	w := NewWorld(DefaultConfig())
	rail := w.CreateBody(ecs.GUID{Lo: 1}, Body{})
	slider := w.CreateBody(ecs.GUID{Lo: 2}, Body{
		Pos: fx.V2(fx.FromInt(1), 0), Vel: fx.V2(fx.One, 0),
		InvMass: fx.One, InvInertia: fx.One,
	})
	je := w.Entities.Create(ecs.GUID{Lo: 3})
	w.AddPrismaticJoint(je, PrismaticJoint{
		A: rail, B: slider, Axis: fx.V2(fx.One, 0), Beta: fx.FromFloat64(0.2),
	})

	for i := 0; i < 30; i++ {
		w.Step()
	}
	s, _ := w.Body(slider)
	assert.InDelta(t, 0.0, s.Pos.Y.Float64(), 0.05, "slider must stay on the rail axis despite gravity")
	assert.Greater(t, s.Pos.X.Float64(), 1.0, "slider keeps moving along the axis")
	assert.InDelta(t, 0.0, s.Angle.Float64(), 0.05)
}

// A fast circle one step away from a wall is stopped at the inflated
// surface instead of passing through, and a TOI event is queued.
func TestCCDStopsBulletAtWall(t *testing.T) {
	w := NewWorld(DefaultConfig())
	wall := w.CreateBody(ecs.GUID{Lo: 1}, Body{Pos: fx.V2(fx.FromInt(3), 0)})
	wallHull, err := NewHull(boxVerts(0.1, 5), 0)
	require.NoError(t, err)
	w.SetHull(wall, *wallHull)

	bullet := w.CreateBody(ecs.GUID{Lo: 2}, Body{
		Pos: fx.V2(fx.FromInt(2), 0), Vel: fx.V2(fx.FromInt(120), 0),
		InvMass: fx.One, InvInertia: fx.One,
	})
	circ, err := NewCircle(fx.FromFloat64(0.08), 0)
	require.NoError(t, err)
	w.SetCircle(bullet, *circ)

	w.Step()

	b, _ := w.Body(bullet)
	wallFace := 3 - 0.1 - 0.08
	assert.Less(t, b.Pos.X.Float64(), wallFace+0.01, "bullet must stop at the inflated surface")
	assert.Less(t, b.Vel.X.Float64(), 0.0, "approach above the bounce threshold reverses the normal velocity")
	require.NotEmpty(t, w.ToiEvents())
	assert.Greater(t, w.ToiEvents()[0].T.Float64(), 0.0)
}

// Hull-circle face region: circle off the right face of a box.
func TestHullCircleFaceRegion(t *testing.T) {
	w := NewWorld(DefaultConfig())
	box := w.CreateBody(ecs.GUID{Lo: 1}, Body{})
	hull, err := NewHull(boxVerts(1, 1), 0)
	require.NoError(t, err)
	w.SetHull(box, *hull)
	ball := w.CreateBody(ecs.GUID{Lo: 2}, Body{
		Pos: fx.V2(fx.FromFloat64(1.4), 0), InvMass: fx.One, InvInertia: fx.One,
	})
	circ, err := NewCircle(fx.FromFloat64(0.5), 0)
	require.NoError(t, err)
	w.SetCircle(ball, *circ)

	w.syncGeometry()
	w.broadphase()
	w.narrowphase()
	require.Len(t, w.contacts, 1)
	c := w.contacts[0]
	assert.InDelta(t, 1.0, c.Normal.X.Float64(), 0.02)
	assert.InDelta(t, 0.12, c.Penetration.Float64(), 0.02)
	assert.InDelta(t, 1.0, c.Point.X.Float64(), 0.02)
}

// Hull-circle vertex region: circle diagonally off a corner gets a
// normal along the centre-to-vertex direction.
func TestHullCircleVertexRegion(t *testing.T) {
	w := NewWorld(DefaultConfig())
	box := w.CreateBody(ecs.GUID{Lo: 1}, Body{})
	hull, err := NewHull(boxVerts(1, 1), 0)
	require.NoError(t, err)
	w.SetHull(box, *hull)
	ball := w.CreateBody(ecs.GUID{Lo: 2}, Body{
		Pos: fx.V2(fx.FromFloat64(1.2), fx.FromFloat64(1.2)), InvMass: fx.One, InvInertia: fx.One,
	})
	circ, err := NewCircle(fx.FromFloat64(0.35), 0)
	require.NoError(t, err)
	w.SetCircle(ball, *circ)

	w.syncGeometry()
	w.broadphase()
	w.narrowphase()
	require.Len(t, w.contacts, 1)
	c := w.contacts[0]
	assert.Greater(t, c.Normal.X.Float64(), 0.5)
	assert.Greater(t, c.Normal.Y.Float64(), 0.5)
	assert.InDelta(t, 1.0, c.Point.X.Float64(), 0.02)
	assert.InDelta(t, 1.0, c.Point.Y.Float64(), 0.02)
}

// Broadphase emits pairs in ascending pair-key order.
func TestBroadphasePairKeyOrder(t *testing.T) {
	w := NewWorld(DefaultConfig())
	for i := 0; i < 5; i++ {
		e := w.CreateBody(ecs.GUID{Lo: uint64(10 - i)}, Body{
			Pos: fx.V2(fx.Mul(fx.FromFloat64(0.4), fx.FromInt(i)), 0),
			InvMass: fx.One, InvInertia: fx.One,
		})
		circ, err := NewCircle(fx.One, 0)
		require.NoError(t, err)
		w.SetCircle(e, *circ)
	}
	w.syncGeometry()
	w.broadphase()
	require.NotEmpty(t, w.pairs)
	for i := 1; i < len(w.pairs); i++ {
		assert.True(t, w.pairs[i-1].Key.Less(w.pairs[i].Key), "pairs must be in ascending pair-key order")
	}
}

// The pair-key sequence does not depend on entity insertion order,
// only on GUIDs.
func TestBroadphaseInsertionOrderIndependent(t *testing.T) {
	build := func(reversed bool) *World {
		w := NewWorld(DefaultConfig())
		guids := []uint64{5, 9, 2, 7}
		xs := []float64{0, 0.5, 1.0, 1.5}
		idx := make([]int, len(guids))
		for i := range idx {
			idx[i] = i
		}
		if reversed {
			for i, j := 0, len(idx)-1; i < j; i, j = i+1, j-1 {
				idx[i], idx[j] = idx[j], idx[i]
			}
		}
		for _, i := range idx {
			e := w.CreateBody(ecs.GUID{Lo: guids[i]}, Body{
				Pos: fx.V2(fx.FromFloat64(xs[i]), 0), InvMass: fx.One, InvInertia: fx.One,
			})
			circ, err := NewCircle(fx.One, 0)
			require.NoError(t, err)
			w.SetCircle(e, *circ)
		}
		w.syncGeometry()
		w.broadphase()
		return w
	}

	w1 := build(false)
	w2 := build(true)
	require.Equal(t, len(w1.pairs), len(w2.pairs))
	for i := range w1.pairs {
		assert.Equal(t, w1.pairs[i].Key, w2.pairs[i].Key)
	}
}

// Integration moves a free body by exactly v*dt per frame, with no
// clamping.
func TestIntegrateAppliesVelocity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gravity = fx.Vec2{}
	w := NewWorld(cfg)
	e := w.CreateBody(ecs.GUID{Lo: 1}, Body{
		Vel: fx.V2(fx.FromInt(6), 0), Omega: fx.FromInt(60),
		InvMass: fx.One, InvInertia: fx.One,
	})
	w.Step()
	b, _ := w.Body(e)
	assert.InDelta(t, 0.1, b.Pos.X.Float64(), 0.001)
	assert.InDelta(t, 1.0, b.Angle.Float64(), 0.001)
}
