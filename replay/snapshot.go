// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package replay layers the deterministic replay protocol on top of the
// physics core: an initial-state snapshot plus a per-frame command
// script reproduces an identical frame-hash stream on any machine. The
// package is a collaborator of the core, not part of it — it owns the
// file format and the stepping harness, while the core owns only the
// simulation.
package replay

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/gazed/detphys2d/ecs"
	"github.com/gazed/detphys2d/fx"
	"github.com/gazed/detphys2d/material"
	"github.com/gazed/detphys2d/physics"
)

// Snapshot is the declarative initial state of a replayable run:
// bodies with their shapes, joints, materials, and the PRNG seed for
// any scripted command generators. Numeric fields are float64 for
// authoring convenience; they are converted to fixed point once at
// load time, which is a deterministic boundary (identical YAML input
// always produces identical FX state).
type Snapshot struct {
	Seed      uint64        `yaml:"seed"`
	Gravity   [2]float64    `yaml:"gravity"`
	Materials []MaterialRec `yaml:"materials"`
	Bodies    []BodyRec     `yaml:"bodies"`
	Joints    []JointRec    `yaml:"joints"`
}

// MaterialRec registers one named material in the world's table.
type MaterialRec struct {
	ID              string  `yaml:"id"`
	MuS             float64 `yaml:"mu_s"`
	MuD             float64 `yaml:"mu_d"`
	Restitution     float64 `yaml:"restitution"`
	BounceThreshold float64 `yaml:"bounce_threshold"`
}

// BodyRec declares one body and its collider. Name is the handle
// commands address the body by; GUID feeds the pair-key ordering and
// must be unique within a snapshot.
type BodyRec struct {
	Name       string  `yaml:"name"`
	GUIDHi     uint64  `yaml:"guid_hi"`
	GUIDLo     uint64  `yaml:"guid_lo"`
	X          float64 `yaml:"x,omitempty"`
	Y          float64 `yaml:"y,omitempty"`
	Angle      float64 `yaml:"angle,omitempty"`
	VX         float64 `yaml:"vx,omitempty"`
	VY         float64 `yaml:"vy,omitempty"`
	Omega      float64 `yaml:"omega,omitempty"`
	InvMass    float64 `yaml:"inv_mass"`
	InvInertia float64 `yaml:"inv_inertia"`
	Material   string  `yaml:"material,omitempty"`

	// Exactly one of Circle or Hull should be set; a body with
	// neither participates in joints but not in collision.
	Circle *CircleRec `yaml:"circle,omitempty"`
	Hull   *HullRec   `yaml:"hull,omitempty"`
}

// CircleRec is a circle collider declaration.
type CircleRec struct {
	Radius float64 `yaml:"radius"`
	Skin   float64 `yaml:"skin"`
}

// HullRec is a convex hull declaration, vertices counter-clockwise.
type HullRec struct {
	Verts [][2]float64 `yaml:"verts"`
	Skin  float64      `yaml:"skin"`
}

// JointRec declares one joint between two named bodies.
type JointRec struct {
	Kind    string     `yaml:"kind"` // distance | revolute | prismatic
	GUIDHi  uint64     `yaml:"guid_hi"`
	GUIDLo  uint64     `yaml:"guid_lo"`
	A, B    string     `yaml:"a,omitempty"`
	AnchorA [2]float64 `yaml:"anchor_a"`
	AnchorB [2]float64 `yaml:"anchor_b"`
	Axis    [2]float64 `yaml:"axis,omitempty"`
	Rest    float64    `yaml:"rest"`
	Beta    float64    `yaml:"beta"`
	Gamma   float64    `yaml:"gamma"`

	// BreakImpulse only applies to distance joints; zero means unbreakable.
	BreakImpulse float64 `yaml:"break_impulse,omitempty"`
}

// LoadSnapshot parses a YAML snapshot document.
func LoadSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("replay: bad snapshot: %w", err)
	}
	return s, nil
}

// Build constructs a physics world from the snapshot and returns it
// along with the name->entity map commands are resolved against.
func (s Snapshot) Build() (*physics.World, map[string]physics.Entity, error) {
	cfg := physics.DefaultConfig()
	if s.Gravity != [2]float64{} {
		cfg.Gravity = fx.V2(fx.FromFloat64(s.Gravity[0]), fx.FromFloat64(s.Gravity[1]))
	}
	w := physics.NewWorld(cfg)

	for _, m := range s.Materials {
		w.Materials.Add(material.Material{
			ID:              m.ID,
			MuS:             fx.FromFloat64(m.MuS),
			MuD:             fx.FromFloat64(m.MuD),
			Restitution:     fx.FromFloat64(m.Restitution),
			BounceThreshold: fx.FromFloat64(m.BounceThreshold),
		})
	}

	names := make(map[string]physics.Entity, len(s.Bodies))
	for _, rec := range s.Bodies {
		if _, dup := names[rec.Name]; dup || rec.Name == "" {
			return nil, nil, fmt.Errorf("replay: body name %q missing or duplicated", rec.Name)
		}
		e := w.CreateBody(ecs.GUID{Hi: rec.GUIDHi, Lo: rec.GUIDLo}, physics.Body{
			Pos:        fx.V2(fx.FromFloat64(rec.X), fx.FromFloat64(rec.Y)),
			Angle:      fx.FromFloat64(rec.Angle),
			Vel:        fx.V2(fx.FromFloat64(rec.VX), fx.FromFloat64(rec.VY)),
			Omega:      fx.FromFloat64(rec.Omega),
			InvMass:    fx.FromFloat64(rec.InvMass),
			InvInertia: fx.FromFloat64(rec.InvInertia),
			MaterialID: rec.Material,
		})
		names[rec.Name] = e
		if rec.Circle != nil {
			c, err := physics.NewCircle(fx.FromFloat64(rec.Circle.Radius), fx.FromFloat64(rec.Circle.Skin))
			if err != nil {
				return nil, nil, fmt.Errorf("replay: body %q: %w", rec.Name, err)
			}
			w.SetCircle(e, *c)
		}
		if rec.Hull != nil {
			verts := make([]fx.Vec2, 0, len(rec.Hull.Verts))
			for _, v := range rec.Hull.Verts {
				verts = append(verts, fx.V2(fx.FromFloat64(v[0]), fx.FromFloat64(v[1])))
			}
			h, err := physics.NewHull(verts, fx.FromFloat64(rec.Hull.Skin))
			if err != nil {
				return nil, nil, fmt.Errorf("replay: body %q: %w", rec.Name, err)
			}
			w.SetHull(e, *h)
		}
	}

	for _, j := range s.Joints {
		a, okA := names[j.A]
		b, okB := names[j.B]
		if !okA || !okB {
			return nil, nil, fmt.Errorf("replay: joint %s references unknown body %q/%q", j.Kind, j.A, j.B)
		}
		je := w.Entities.Create(ecs.GUID{Hi: j.GUIDHi, Lo: j.GUIDLo})
		anchorA := fx.V2(fx.FromFloat64(j.AnchorA[0]), fx.FromFloat64(j.AnchorA[1]))
		anchorB := fx.V2(fx.FromFloat64(j.AnchorB[0]), fx.FromFloat64(j.AnchorB[1]))
		switch j.Kind {
		case "distance":
			rest := fx.FromFloat64(j.Rest)
			if j.Rest == -1 {
				rest = -1 // auto-initialize sentinel, kept exact
			}
			dj, err := physics.NewDistanceJoint(a, b, anchorA, anchorB,
				rest, fx.FromFloat64(j.Beta), fx.FromFloat64(j.Gamma), fx.FromFloat64(j.BreakImpulse))
			if err != nil {
				return nil, nil, fmt.Errorf("replay: joint %s/%s: %w", j.A, j.B, err)
			}
			w.AddDistanceJoint(je, *dj)
		case "revolute":
			rj, err := physics.NewRevoluteJoint(a, b, anchorA, anchorB,
				fx.FromFloat64(j.Beta), fx.FromFloat64(j.Gamma))
			if err != nil {
				return nil, nil, fmt.Errorf("replay: joint %s/%s: %w", j.A, j.B, err)
			}
			w.AddRevoluteJoint(je, *rj)
		case "prismatic":
			pj, err := physics.NewPrismaticJoint(a, b, anchorA, anchorB,
				fx.V2(fx.FromFloat64(j.Axis[0]), fx.FromFloat64(j.Axis[1])),
				fx.FromFloat64(j.Beta), fx.FromFloat64(j.Gamma))
			if err != nil {
				return nil, nil, fmt.Errorf("replay: joint %s/%s: %w", j.A, j.B, err)
			}
			w.AddPrismaticJoint(je, *pj)
		default:
			return nil, nil, fmt.Errorf("replay: unknown joint kind %q", j.Kind)
		}
	}
	return w, names, nil
}
