// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import "sort"

// fnvOffset and fnvPrime are the 64-bit FNV-1a constants used to fold
// the frame state 32 bits at a time.
const (
	fnvOffset = 1469598103934665603
	fnvPrime  = 1099511628211
)

func fnv1aFold(h uint64, word uint32) uint64 {
	h ^= uint64(word)
	h *= fnvPrime
	return h
}

// frameHash computes the 64-bit whole-world checksum by folding, in
// entity-id order, the FX bit-patterns of every dynamic body's
// (px,py,angle,vx,vy,omega), then the count and key/impulse entries of
// the contact cache, then the joint rows' accumulated impulses. That
// is the minimum state set whose equality guarantees two runs have not
// diverged; derived caches and resource versions stay out.
func (w *World) frameHash() uint64 {
	h := uint64(fnvOffset)

	owners := append([]Entity(nil), w.bs.bodies.Owners()...)
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	for _, e := range owners {
		b, _ := w.bs.bodies.Get(e)
		if b.IsStatic() {
			continue // dynamic body state only
		}
		for _, word := range []int32{
			int32(b.Pos.X), int32(b.Pos.Y), int32(b.Angle),
			int32(b.Vel.X), int32(b.Vel.Y), int32(b.Omega),
		} {
			h = fnv1aFold(h, uint32(word))
		}
	}

	contacts := append([]Contact(nil), w.contacts...)
	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].Key != contacts[j].Key {
			return contacts[i].Key.Less(contacts[j].Key)
		}
		return contacts[i].Feature < contacts[j].Feature
	})
	h = fnv1aFold(h, uint32(len(contacts)))
	for _, c := range contacts {
		for _, b := range c.Key {
			h = fnv1aFold(h, uint32(b))
		}
		h = fnv1aFold(h, uint32(int32(c.Jn)))
		h = fnv1aFold(h, uint32(int32(c.Jt)))
	}

	h = w.foldJointRows(h)
	return h
}

func (w *World) foldJointRows(h uint64) uint64 {
	distOwners := append([]Entity(nil), w.joints.distance.Owners()...)
	sortEntities(distOwners)
	for _, je := range distOwners {
		j, _ := w.joints.distance.Get(je)
		if j.Broken {
			continue
		}
		h = fnv1aFold(h, uint32(int32(j.Jn)))
	}
	revOwners := append([]Entity(nil), w.joints.revolute.Owners()...)
	sortEntities(revOwners)
	for _, je := range revOwners {
		j, _ := w.joints.revolute.Get(je)
		if j.Broken {
			continue
		}
		h = fnv1aFold(h, uint32(int32(j.Jn.X)))
		h = fnv1aFold(h, uint32(int32(j.Jn.Y)))
	}
	priOwners := append([]Entity(nil), w.joints.prismatic.Owners()...)
	sortEntities(priOwners)
	for _, je := range priOwners {
		j, _ := w.joints.prismatic.Get(je)
		if j.Broken {
			continue
		}
		h = fnv1aFold(h, uint32(int32(j.Jn)))
		h = fnv1aFold(h, uint32(int32(j.JAngle)))
	}
	return h
}
