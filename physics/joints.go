// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"fmt"

	"github.com/gazed/detphys2d/ecs"
	"github.com/gazed/detphys2d/fx"
)

// DistanceJoint holds a two-body distance constraint. Rest = -1 is
// the "auto-initialise on first build from current separation"
// sentinel.
type DistanceJoint struct {
	A, B         Entity
	AnchorA      fx.Vec2 // local to A
	AnchorB      fx.Vec2 // local to B
	Rest         fx.FX
	Beta         fx.FX
	Gamma        fx.FX
	Jn           fx.FX
	BreakImpulse fx.FX
	Broken       bool
	Initialized  bool
}

// RevoluteJoint pins two bodies together at a shared world anchor.
type RevoluteJoint struct {
	A, B    Entity
	AnchorA fx.Vec2
	AnchorB fx.Vec2
	Beta    fx.FX
	Gamma   fx.FX
	Jn      fx.Vec2
	Broken  bool
}

// PrismaticJoint constrains relative motion to a single axis.
type PrismaticJoint struct {
	A, B    Entity
	AnchorA fx.Vec2
	AnchorB fx.Vec2
	Axis    fx.Vec2 // local to A, unit length
	Beta    fx.FX
	Gamma   fx.FX
	Jn      fx.FX // perpendicular row
	JAngle  fx.FX // angle-equality row
	Broken  bool
}

// NewDistanceJoint validates and constructs a distance joint between
// bodies a and b. Rest must be non-negative or the exact -1
// auto-initialise sentinel; Beta must lie in [0, 1]; Gamma and
// BreakImpulse must be non-negative. Validation happens here, never
// inside Step.
func NewDistanceJoint(a, b Entity, anchorA, anchorB fx.Vec2, rest, beta, gamma, breakImpulse fx.FX) (*DistanceJoint, error) {
	if rest < 0 && rest != -1 {
		return nil, fmt.Errorf("physics: distance joint rest %v must be >= 0 (or the -1 sentinel)", rest.Float64())
	}
	if err := checkJointGains(beta, gamma); err != nil {
		return nil, err
	}
	if breakImpulse < 0 {
		return nil, fmt.Errorf("physics: distance joint break impulse must be >= 0, got %v", breakImpulse.Float64())
	}
	return &DistanceJoint{
		A: a, B: b, AnchorA: anchorA, AnchorB: anchorB,
		Rest: rest, Beta: beta, Gamma: gamma, BreakImpulse: breakImpulse,
	}, nil
}

// NewRevoluteJoint validates and constructs a revolute joint pinning a
// and b at a shared world anchor.
func NewRevoluteJoint(a, b Entity, anchorA, anchorB fx.Vec2, beta, gamma fx.FX) (*RevoluteJoint, error) {
	if err := checkJointGains(beta, gamma); err != nil {
		return nil, err
	}
	return &RevoluteJoint{A: a, B: b, AnchorA: anchorA, AnchorB: anchorB, Beta: beta, Gamma: gamma}, nil
}

// NewPrismaticJoint validates and constructs a prismatic joint. Axis
// is local to body a and must have non-zero length.
func NewPrismaticJoint(a, b Entity, anchorA, anchorB, axis fx.Vec2, beta, gamma fx.FX) (*PrismaticJoint, error) {
	if axis.LenSq() == 0 {
		return nil, fmt.Errorf("physics: prismatic joint axis must have non-zero length")
	}
	if err := checkJointGains(beta, gamma); err != nil {
		return nil, err
	}
	return &PrismaticJoint{A: a, B: b, AnchorA: anchorA, AnchorB: anchorB, Axis: axis, Beta: beta, Gamma: gamma}, nil
}

func checkJointGains(beta, gamma fx.FX) error {
	if beta < 0 || beta > fx.One {
		return fmt.Errorf("physics: joint beta %v out of range [0,1]", beta.Float64())
	}
	if gamma < 0 {
		return fmt.Errorf("physics: joint gamma must be >= 0, got %v", gamma.Float64())
	}
	return nil
}

type jointSet struct {
	distance  *ecs.Column[DistanceJoint]
	revolute  *ecs.Column[RevoluteJoint]
	prismatic *ecs.Column[PrismaticJoint]
}

func newJointSet() *jointSet {
	return &jointSet{
		distance:  ecs.NewColumn[DistanceJoint](),
		revolute:  ecs.NewColumn[RevoluteJoint](),
		prismatic: ecs.NewColumn[PrismaticJoint](),
	}
}

// AddDistanceJoint installs a distance joint on entity key je (an
// entity that exists purely to host this joint's column slot).
func (w *World) AddDistanceJoint(je Entity, j DistanceJoint) { w.joints.distance.Set(je, j) }

// AddRevoluteJoint installs a revolute joint.
func (w *World) AddRevoluteJoint(je Entity, j RevoluteJoint) { w.joints.revolute.Set(je, j) }

// AddPrismaticJoint installs a prismatic joint.
func (w *World) AddPrismaticJoint(je Entity, j PrismaticJoint) { w.joints.prismatic.Set(je, j) }

// distanceRow is the compiled per-frame batch row for one distance
// joint.
type distanceRow struct {
	je      Entity
	a, b    Entity
	rA, rB  fx.Vec2 // world anchor offsets from each body's centre
	n       fx.Vec2 // unit direction A->B
	effMass fx.FX
	bias    fx.FX
	gamma   fx.FX
	jn      fx.FX
}

// revoluteRow is the compiled per-frame batch row for one revolute
// joint, carrying the precomputed 2x2 effective-mass inverse and bias.
type revoluteRow struct {
	je               Entity
	a, b             Entity
	rA, rB           fx.Vec2
	im00, im01, im11 fx.FX
	biasX, biasY     fx.FX
	gamma            fx.FX
	jn               fx.Vec2
}

type prismaticRow struct {
	je        Entity
	a, b      Entity
	rA, rB    fx.Vec2
	perp      fx.Vec2 // axis perpendicular, world space
	effMass   fx.FX
	bias      fx.FX
	gamma     fx.FX
	jn        fx.FX
	angleBias fx.FX
	angleMass fx.FX
	jAngle    fx.FX
}

// buildJoints compiles every non-broken joint into its typed batch
// row, in entity-id order of the joint's hosting entity so row
// iteration is deterministic.
func (w *World) buildJoints() {
	w.distRows = w.distRows[:0]
	w.revRows = w.revRows[:0]
	w.priRows = w.priRows[:0]

	owners := append([]Entity(nil), w.joints.distance.Owners()...)
	sortEntities(owners)
	for _, je := range owners {
		j, _ := w.joints.distance.Get(je)
		if j.Broken {
			continue
		}
		row, ok := w.buildDistanceRow(je, j)
		if ok {
			w.distRows = append(w.distRows, row)
		}
	}

	owners = append(owners[:0], w.joints.revolute.Owners()...)
	sortEntities(owners)
	for _, je := range owners {
		j, _ := w.joints.revolute.Get(je)
		if j.Broken {
			continue
		}
		row, ok := w.buildRevoluteRow(je, j)
		if ok {
			w.revRows = append(w.revRows, row)
		}
	}

	owners = append(owners[:0], w.joints.prismatic.Owners()...)
	sortEntities(owners)
	for _, je := range owners {
		j, _ := w.joints.prismatic.Get(je)
		if j.Broken {
			continue
		}
		row, ok := w.buildPrismaticRow(je, j)
		if ok {
			w.priRows = append(w.priRows, row)
		}
	}
}

func sortEntities(es []Entity) {
	for i := 1; i < len(es); i++ {
		for j := i; j > 0 && es[j-1] > es[j]; j-- {
			es[j-1], es[j] = es[j], es[j-1]
		}
	}
}

func (w *World) buildDistanceRow(je Entity, j DistanceJoint) (distanceRow, bool) {
	ba, ok1 := w.bs.bodies.Get(j.A)
	bb, ok2 := w.bs.bodies.Get(j.B)
	if !ok1 || !ok2 {
		return distanceRow{}, false
	}
	rotA := fx.RotFromAngle(ba.Angle)
	rotB := fx.RotFromAngle(bb.Angle)
	rA := j.AnchorA.Rotate(rotA)
	rB := j.AnchorB.Rotate(rotB)
	worldA := ba.Pos.Add(rA)
	worldB := bb.Pos.Add(rB)
	d := worldB.Sub(worldA)
	length := d.Len()

	rest := j.Rest
	if rest == -1 && !j.Initialized {
		rest = length
		stored := j
		stored.Rest = rest
		stored.Initialized = true
		w.joints.distance.Set(je, stored)
	}

	var n fx.Vec2
	if length == 0 {
		n = fx.V2(fx.One, 0)
	} else {
		n = d.Normalize()
	}
	rACrossN := rA.Cross(n)
	rBCrossN := rB.Cross(n)
	k := fx.Add(fx.Add(ba.InvMass, bb.InvMass),
		fx.Add(fx.Mul(fx.Mul(rACrossN, rACrossN), ba.InvInertia),
			fx.Mul(fx.Mul(rBCrossN, rBCrossN), bb.InvInertia)))
	k = fx.Add(k, j.Gamma)
	if k == 0 {
		return distanceRow{}, false
	}
	bias := fx.Div(fx.Mul(j.Beta, fx.Sub(length, rest)), w.cfg.DT)
	return distanceRow{
		je: je, a: j.A, b: j.B,
		rA: rA, rB: rB, n: n,
		effMass: fx.Div(fx.One, k),
		bias:    bias,
		gamma:   j.Gamma,
		jn:      j.Jn,
	}, true
}

func (w *World) buildRevoluteRow(je Entity, j RevoluteJoint) (revoluteRow, bool) {
	ba, ok1 := w.bs.bodies.Get(j.A)
	bb, ok2 := w.bs.bodies.Get(j.B)
	if !ok1 || !ok2 {
		return revoluteRow{}, false
	}
	rotA := fx.RotFromAngle(ba.Angle)
	rotB := fx.RotFromAngle(bb.Angle)
	rA := j.AnchorA.Rotate(rotA)
	rB := j.AnchorB.Rotate(rotB)

	mSum := fx.Add(ba.InvMass, bb.InvMass)
	k00 := fx.Add(fx.Add(mSum, fx.Mul(fx.Mul(rA.Y, rA.Y), ba.InvInertia)), fx.Mul(fx.Mul(rB.Y, rB.Y), bb.InvInertia))
	k01 := fx.Sub(fx.Neg(fx.Mul(fx.Mul(rA.X, rA.Y), ba.InvInertia)), fx.Mul(fx.Mul(rB.X, rB.Y), bb.InvInertia))
	k11 := fx.Add(fx.Add(mSum, fx.Mul(fx.Mul(rA.X, rA.X), ba.InvInertia)), fx.Mul(fx.Mul(rB.X, rB.X), bb.InvInertia))
	k00 = fx.Add(k00, j.Gamma)
	k11 = fx.Add(k11, j.Gamma)

	det := fx.Sub(fx.Mul(k00, k11), fx.Mul(k01, k01))
	if det == 0 {
		return revoluteRow{}, false
	}
	invDet := fx.Div(fx.One, det)
	im00 := fx.Mul(k11, invDet)
	im01 := fx.Neg(fx.Mul(k01, invDet))
	im11 := fx.Mul(k00, invDet)

	worldA := ba.Pos.Add(rA)
	worldB := bb.Pos.Add(rB)
	errVec := worldB.Sub(worldA)
	bias := errVec.Scale(fx.Div(j.Beta, w.cfg.DT))

	return revoluteRow{
		je: je, a: j.A, b: j.B, rA: rA, rB: rB,
		im00: im00, im01: im01, im11: im11,
		biasX: bias.X, biasY: bias.Y,
		gamma: j.Gamma, jn: j.Jn,
	}, true
}

func (w *World) buildPrismaticRow(je Entity, j PrismaticJoint) (prismaticRow, bool) {
	ba, ok1 := w.bs.bodies.Get(j.A)
	bb, ok2 := w.bs.bodies.Get(j.B)
	if !ok1 || !ok2 {
		return prismaticRow{}, false
	}
	rotA := fx.RotFromAngle(ba.Angle)
	rotB := fx.RotFromAngle(bb.Angle)
	axis := j.Axis.Rotate(rotA).Normalize()
	perp := axis.Perp()
	rA := j.AnchorA.Rotate(rotA)
	rB := j.AnchorB.Rotate(rotB)

	worldA := ba.Pos.Add(rA)
	worldB := bb.Pos.Add(rB)
	d := worldB.Sub(worldA)

	s1 := d.Add(rA).Cross(perp)
	s2 := rB.Cross(perp)
	k := fx.Add(fx.Add(ba.InvMass, bb.InvMass),
		fx.Add(fx.Mul(fx.Mul(s1, s1), ba.InvInertia), fx.Mul(fx.Mul(s2, s2), bb.InvInertia)))
	k = fx.Add(k, j.Gamma)
	if k == 0 {
		return prismaticRow{}, false
	}
	perpError := perp.Dot(d)
	bias := fx.Div(fx.Mul(j.Beta, perpError), w.cfg.DT)

	angleMass := fx.Add(ba.InvInertia, bb.InvInertia)
	angleMass = fx.Add(angleMass, j.Gamma)
	angleError := fx.Sub(bb.Angle, ba.Angle)
	angleBias := fx.Div(fx.Mul(j.Beta, angleError), w.cfg.DT)

	return prismaticRow{
		je: je, a: j.A, b: j.B, rA: rA, rB: rB, perp: perp,
		effMass: fx.Div(fx.One, k), bias: bias, gamma: j.Gamma, jn: j.Jn,
		angleBias: angleBias, angleMass: angleMass, jAngle: j.JAngle,
	}, true
}
