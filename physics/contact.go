// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import "github.com/gazed/detphys2d/fx"

// Contact is one manifold point between two entities. Normal points from A to B; Point is the contact world point on B's
// surface. Jn/Jt are the accumulated normal/tangent impulses, seeded
// from the previous frame's cache for warm-start.
type Contact struct {
	A, B        Entity
	Key         PairKey
	Normal      fx.Vec2
	Point       fx.Vec2
	Penetration fx.FX
	Jn, Jt      fx.FX
	Feature     int // opaque feature id, used only for tie-break diagnostics
}

// ToiEvent is one time-of-impact queue entry.
type ToiEvent struct {
	A, B Entity
	Key  PairKey
	T    fx.FX
	N    fx.Vec2
	P    fx.Vec2
}
