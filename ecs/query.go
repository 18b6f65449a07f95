// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package ecs

// Query2 calls fn for every entity present in both columns, iterating
// the dense storage of the smaller column and probing the larger. The
// visit order is storage order, not a determinism guarantee — callers
// whose results depend on ordering must collect and sort entities
// themselves.
func Query2[A, B any](ca *Column[A], cb *Column[B], fn func(Entity, *A, *B)) {
	if ca.Len() <= cb.Len() {
		for i := range ca.values {
			e := ca.owners[i]
			if b := cb.MustGet(e); b != nil {
				fn(e, &ca.values[i], b)
			}
		}
		return
	}
	for i := range cb.values {
		e := cb.owners[i]
		if a := ca.MustGet(e); a != nil {
			fn(e, a, &cb.values[i])
		}
	}
}
