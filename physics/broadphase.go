// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import "sort"

// BroadphasePair is one candidate colliding pair, ordered so A's
// GUID sorts before B's GUID.
type BroadphasePair struct {
	A, B Entity
	Key  PairKey
}

type endpoint struct {
	entity Entity
	x      int64 // raw FX value, widened so comparisons never overflow
	isMin  bool
	key    PairKey // this entity's GUID folded with itself, used only for the tie-break sort
}

// epLess is the endpoint ordering: x ascending, ties broken by pair
// key, then begin-before-end. A total order, so the sorted sequence is
// independent of how endpoints entered the array.
func epLess(a, b endpoint) bool {
	if a.x != b.x {
		return a.x < b.x
	}
	if cmp := bytesCompare(a.key[:], b.key[:]); cmp != 0 {
		return cmp < 0
	}
	return a.isMin && !b.isMin
}

// broadphase runs single-axis sweep-and-prune over AABB x-endpoints.
// The endpoint array persists across frames: endpoints for
// departed entities are dropped, new entities are admitted in GUID
// order, positions are refreshed from this frame's swept boxes, and
// the nearly-sorted array is re-sorted with insertion sort — O(n)
// amortised under temporal coherence. Candidate x-overlaps are
// validated for y-overlap, deduplicated, and emitted in ascending
// pair-key order, the canonical iteration order for every downstream
// stage.
func (w *World) broadphase() {
	owners := w.bs.aabbs.Owners()
	if len(owners) == 0 && len(w.sap) == 0 {
		return
	}

	live := make(map[Entity]bool, len(owners))
	for _, e := range owners {
		live[e] = true
	}
	kept := w.sap[:0]
	present := make(map[Entity]bool, len(w.sap)/2)
	for _, ep := range w.sap {
		if live[ep.entity] {
			kept = append(kept, ep)
			present[ep.entity] = true
		}
	}
	w.sap = kept

	var added []Entity
	for _, e := range owners {
		if !present[e] {
			added = append(added, e)
		}
	}
	sort.Slice(added, func(i, j int) bool {
		return w.Entities.GUID(added[i]).Less(w.Entities.GUID(added[j]))
	})
	for _, e := range added {
		g := w.Entities.GUID(e)
		k := MakePairKey(g, g)
		w.sap = append(w.sap,
			endpoint{entity: e, isMin: true, key: k},
			endpoint{entity: e, isMin: false, key: k},
		)
	}

	for i := range w.sap {
		box, _ := w.bs.aabbs.Get(w.sap[i].entity)
		if w.sap[i].isMin {
			w.sap[i].x = int64(box.Min.X)
		} else {
			w.sap[i].x = int64(box.Max.X)
		}
	}

	// Insertion sort: stable, and near-linear on the nearly-sorted
	// array coherent motion leaves behind.
	for i := 1; i < len(w.sap); i++ {
		for j := i; j > 0 && epLess(w.sap[j], w.sap[j-1]); j-- {
			w.sap[j], w.sap[j-1] = w.sap[j-1], w.sap[j]
		}
	}

	seen := map[PairKey]bool{}
	active := []Entity{}
	boxOf := func(e Entity) AABB {
		box, _ := w.bs.aabbs.Get(e)
		return box
	}

	for _, ep := range w.sap {
		if ep.isMin {
			for _, other := range active {
				a, b, key := orderEntities(w.Entities, ep.entity, other)
				if seen[key] {
					continue
				}
				ba, bb := boxOf(a), boxOf(b)
				if ba.Min.Y > bb.Max.Y || bb.Min.Y > ba.Max.Y {
					continue // no y-overlap
				}
				seen[key] = true
				w.pairs = append(w.pairs, BroadphasePair{A: a, B: b, Key: key})
			}
			active = append(active, ep.entity)
		} else {
			for i, e := range active {
				if e == ep.entity {
					active = append(active[:i], active[i+1:]...)
					break
				}
			}
		}
	}

	sort.Slice(w.pairs, func(i, j int) bool { return w.pairs[i].Key.Less(w.pairs[j].Key) })
}

func bytesCompare(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
