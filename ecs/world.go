// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package ecs

// World bundles the substrate pieces a simulation needs to own once:
// the entity allocator and the frame counter resource. Component
// columns and other resources are declared by the layers built on top,
// each with its own single writer.
type World struct {
	Entities *Entities

	// Frame is bumped once per fixed step. Downstream caches stamp
	// their epoch from it to detect staleness.
	Frame *Resource[uint64]
}

// NewWorld creates an empty substrate world at frame 0.
func NewWorld() *World {
	return &World{
		Entities: NewEntities(),
		Frame:    NewResource(uint64(0)),
	}
}

// Tick advances the frame counter and returns the new frame number.
func (w *World) Tick() uint64 {
	f, _ := w.Frame.Get()
	f++
	w.Frame.Set(f)
	return f
}
