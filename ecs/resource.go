// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package ecs

// Resource wraps a single world-global value (BroadphasePairs,
// Contacts2D, the TOIQueue, the material table, ...) with a version
// counter bumped on every write, mirroring the world-cache "epoch"
// fields in the data model: downstream stages can assert they only
// read after the bump they expect.
type Resource[T any] struct {
	value   T
	version uint64
}

// NewResource wraps an initial value at version 0.
func NewResource[T any](v T) *Resource[T] {
	return &Resource[T]{value: v}
}

// Get returns the current value and its version.
func (r *Resource[T]) Get() (T, uint64) { return r.value, r.version }

// Set replaces the value and bumps the version.
func (r *Resource[T]) Set(v T) {
	r.value = v
	r.version++
}

// Version returns the current version without touching the value.
func (r *Resource[T]) Version() uint64 { return r.version }
