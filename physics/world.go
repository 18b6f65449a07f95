// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"log/slog"
	"sort"

	"github.com/gazed/detphys2d/ecs"
	"github.com/gazed/detphys2d/fx"
	"github.com/gazed/detphys2d/material"
)

// Entity re-exports ecs.Entity so callers of this package rarely need
// to import ecs directly for the common case.
type Entity = ecs.Entity

// Config bundles the world's tunable constants in one place so a
// caller can construct a world without chasing scattered globals.
type Config struct {
	DT              fx.FX // fixed timestep
	Gravity         fx.Vec2
	VelocityIters   int
	PositionIters   int
	Baumgarte       fx.FX // β, position-correction bias factor
	Slop            fx.FX // max per-contact linear correction per iteration
	DefaultSkin     fx.FX // skin radius given to shapes that declare none
	ToiEpsilon      fx.FX
	ContactMinDepth fx.FX // contacts shallower than this are discarded
}

// DefaultConfig returns the standard tuning: 8 velocity iterations,
// 3 position iterations, β=0.2, slop 0.005, TOI ε=0.0005.
func DefaultConfig() Config {
	return Config{
		DT:              fx.FromFloat64(1.0 / 60.0),
		Gravity:         fx.V2(0, fx.FromFloat64(-9.8)),
		VelocityIters:   8,
		PositionIters:   3,
		Baumgarte:       fx.FromFloat64(0.2),
		Slop:            fx.FromFloat64(0.005),
		DefaultSkin:     fx.FromFloat64(0.01),
		ToiEpsilon:      fx.FromFloat64(0.0005),
		ContactMinDepth: fx.FX(64), // 1/1024 in Q16.16
	}
}

// World owns every per-frame resource and component column the
// physics core operates on. Bodies and shapes are created/destroyed by
// collaborators; the core owns only the per-frame tables, cleared at
// the start of each fixed step.
type World struct {
	cfg   Config
	ec    *ecs.World
	frame uint64
	noted bool // one degenerate-condition log line per frame

	Entities  *ecs.Entities
	Materials *material.Table

	bs *bodySet

	joints *jointSet

	sap      []endpoint
	pairs    []BroadphasePair
	contacts []Contact
	prev     map[PairKey]warmStart
	toi      []ToiEvent

	distRows []distanceRow
	revRows  []revoluteRow
	priRows  []prismaticRow

	schedule *ecs.Schedule
}

type warmStart struct {
	Jn, Jt fx.FX
}

// NewWorld constructs an empty physics world and pins the deterministic
// stage order the core refuses to parallelize.
func NewWorld(cfg Config) *World {
	ec := ecs.NewWorld()
	w := &World{
		cfg:       cfg,
		ec:        ec,
		Entities:  ec.Entities,
		Materials: material.NewTable(),
		bs:        newBodySet(),
		joints:    newJointSet(),
		prev:      map[PairKey]warmStart{},
		schedule:  ecs.NewSchedule(),
	}
	w.schedule.Sequential(
		"geometry-sync", "broadphase", "narrowphase", "ccd",
		"joint-build", "solve-velocity", "correct-position",
		"integrate", "frame-hash",
	)
	return w
}

// CreateBody registers a new entity carrying the given Body, returning
// its allocated Entity. The caller attaches a Circle or Hull separately.
func (w *World) CreateBody(guid ecs.GUID, b Body) Entity {
	e := w.Entities.Create(guid)
	w.bs.bodies.Set(e, b)
	return e
}

// SetCircle attaches a circle collider to e. A zero skin takes the
// world's default.
func (w *World) SetCircle(e Entity, c Circle) {
	if c.Skin == 0 {
		c.Skin = w.cfg.DefaultSkin
	}
	w.bs.circles.Set(e, c)
}

// SetHull attaches a convex hull collider to e. A zero skin takes the
// world's default.
func (w *World) SetHull(e Entity, h Hull) {
	if h.Skin == 0 {
		h.Skin = w.cfg.DefaultSkin
	}
	w.bs.hulls.Set(e, h)
}

// Body returns the current body state for e.
func (w *World) Body(e Entity) (Body, bool) { return w.bs.bodies.Get(e) }

// SetBody overwrites the body state for e. Collaborators use it to
// inject external commands between frames.
func (w *World) SetBody(e Entity, b Body) { w.bs.bodies.Set(e, b) }

// Frame returns the current frame counter.
func (w *World) Frame() uint64 { return w.frame }

// Contacts returns the current frame's contact manifold, in canonical
// pair-key then contact-index order.
func (w *World) Contacts() []Contact { return w.contacts }

// BroadphasePairs returns the current frame's candidate pairs.
func (w *World) BroadphasePairs() []BroadphasePair { return w.pairs }

// ToiEvents returns the current frame's drained TOI queue.
func (w *World) ToiEvents() []ToiEvent { return w.toi }

// Step runs one fixed timestep through the full pipeline: geometry
// sync, broadphase, narrowphase, CCD, joint build, velocity solve,
// position correction, integration, and the frame hash.
// It is the sole entry point a collaborator calls once per tick; dt is
// caller-provided and the wall clock is never consulted.
func (w *World) Step() uint64 {
	w.frame = w.ec.Tick()
	w.noted = false
	w.pairs = w.pairs[:0]
	w.contacts = w.contacts[:0]
	w.toi = w.toi[:0]

	w.syncGeometry()
	w.broadphase()
	w.narrowphase()
	w.ccd()
	w.buildJoints()
	w.applyGravity()
	w.solveVelocity()
	w.correctPositions()
	w.integrate()
	hash := w.frameHash()

	w.commitWarmStart()
	return hash
}

// applyGravity adds the configured gravity acceleration to every
// dynamic body's velocity. External forces are applied before the
// solver runs so constraint impulses see the post-force velocities.
func (w *World) applyGravity() {
	entities := append([]Entity(nil), w.bs.bodies.Owners()...)
	sort.Slice(entities, func(i, j int) bool { return entities[i] < entities[j] })
	for _, e := range entities {
		b := w.bs.bodies.MustGet(e)
		if b.IsStatic() {
			continue
		}
		b.Vel = b.Vel.Add(w.cfg.Gravity.Scale(w.cfg.DT))
	}
}

// noteDegenerate records that a degenerate runtime condition was
// absorbed this frame, logging at most one line per frame. The log is
// diagnostic only; it can never influence the frame hash.
func (w *World) noteDegenerate(reason string) {
	if w.noted {
		return
	}
	w.noted = true
	slog.Warn("physics: degenerate condition absorbed", "reason", reason, "frame", w.frame)
}

// commitWarmStart derives the previous-frame impulse cache from this
// frame's contact list, keyed by pair key for next frame's warm-start
// seeding.
func (w *World) commitWarmStart() {
	next := make(map[PairKey]warmStart, len(w.contacts))
	for _, c := range w.contacts {
		next[c.Key] = warmStart{Jn: c.Jn, Jt: c.Jt}
	}
	w.prev = next
}
