// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"sort"

	"github.com/gazed/detphys2d/fx"
)

// integrate applies solved velocities to positions for the fixed
// timestep: pos += v*dt; angle += ω*dt. Single pass over dynamic
// bodies in entity-id order, no further clamping and no damping.
func (w *World) integrate() {
	owners := append([]Entity(nil), w.bs.bodies.Owners()...)
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	dt := w.cfg.DT
	for _, e := range owners {
		b := w.bs.bodies.MustGet(e)
		if b.IsStatic() {
			continue
		}
		b.Pos = b.Pos.Add(b.Vel.Scale(dt))
		b.Angle = fx.Add(b.Angle, fx.Mul(b.Omega, dt))
	}
}
