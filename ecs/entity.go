// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package ecs is the column-major entity/component substrate the
// physics core is built against. It owns entity identity and generic
// typed component storage; it makes no ordering promises beyond "some
// order over a snapshot" — determinism is the physics layer's job.
package ecs

import "log/slog"

// Entity is an opaque dense identifier comprised of an array index
// used as a live reference to data, and a generation used to detect
// use of a disposed id. Entities are expected to be used as array
// indices for component data and so never change value over their
// lifetime.
type Entity uint32

// Divide the entity bits into an index and a generation. The
// generation bits track when an id has been disposed and reused.
const (
	idBits     = 20                  // entity array index : 1048575
	genBits    = 12                  // generation          :    4096
	maxEntID   = (1 << idBits) - 1   // mask and max active entities.
	maxGen     = (1 << genBits) - 1  // mask and max dispose/reuse cycles.
	maxFreeLen = (1 << (genBits - 1)) // recycle once free exceeds 2048.
)

// Index is the value to be used for array lookups.
func (e Entity) Index() uint32 { return uint32(e) & maxEntID }

// Generation returns the value that tracks whether the id is still live.
func (e Entity) Generation() uint16 { return uint16((uint32(e) >> idBits) & maxGen) }

// GUID is a 128-bit globally-unique identifier assigned to an entity at
// creation, used to derive the canonical pair-key ordering described in
// the data model (smaller GUID first).
type GUID struct {
	Hi, Lo uint64
}

// Less reports whether g sorts before o under GUID ordering.
func (g GUID) Less(o GUID) bool {
	if g.Hi != o.Hi {
		return g.Hi < o.Hi
	}
	return g.Lo < o.Lo
}

// Entities allocates and tracks entity identifiers. It ensures a
// bounded set of unique identifiers so they can be used directly as
// array indices. Grounded on the same id/generation recycling scheme
// the engine uses for its own scene-graph entities.
type Entities struct {
	generations []uint16 // current generation per allocated index.
	guids       []GUID   // GUID assigned at creation, parallel to generations.
	free        []uint32 // indices ready for reuse.
}

// NewEntities creates an empty entity allocator.
func NewEntities() *Entities {
	return &Entities{generations: []uint16{}, guids: []GUID{}, free: []uint32{}}
}

// Create allocates a new entity with the given GUID. Returns the zero
// Entity if the identifier space is exhausted (a design-time error to
// be caught during development, not a runtime panic).
func (es *Entities) Create(guid GUID) Entity {
	var idx uint32
	if len(es.free) > maxFreeLen {
		idx = es.free[0]
		es.free = append(es.free[:0], es.free[1:]...)
	} else {
		es.generations = append(es.generations, 0)
		es.guids = append(es.guids, guid)
		idx = uint32(len(es.generations))
		if idx >= maxEntID {
			if len(es.free) == 0 {
				slog.Error("entity identifiers exhausted", "max", maxEntID+1)
				return 0
			}
			idx = es.free[0]
			es.free = append(es.free[:0], es.free[1:]...)
		}
	}
	es.guids[idx-1] = guid
	return Entity(idx | uint32(es.generations[idx-1])<<idBits)
}

// Valid reports whether e has been created and not yet disposed.
func (es *Entities) Valid(e Entity) bool {
	idx := e.Index()
	if idx == 0 || idx > uint32(len(es.generations)) {
		return false
	}
	return es.generations[idx-1] == e.Generation()
}

// GUID returns the GUID assigned to e at creation. Returns the zero
// GUID if e is not currently valid.
func (es *Entities) GUID(e Entity) GUID {
	if !es.Valid(e) {
		return GUID{}
	}
	return es.guids[e.Index()-1]
}

// Dispose marks e as no longer valid and queues its index for reuse.
func (es *Entities) Dispose(e Entity) {
	idx := e.Index()
	if idx == 0 || idx > uint32(len(es.generations)) {
		return
	}
	es.generations[idx-1]++
	es.free = append(es.free, idx)
}
