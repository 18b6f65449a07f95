// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package physics

import (
	"encoding/binary"

	"github.com/gazed/detphys2d/ecs"
)

// PairKey is the canonical fixed-width byte ordering of two entities'
// GUIDs, used for the contact impulse cache and deterministic
// iteration.
type PairKey [32]byte

// MakePairKey orders (gA, gB) by GUID, smaller first, and concatenates
// both into a fixed-width key.
func MakePairKey(gA, gB ecs.GUID) PairKey {
	if gB.Less(gA) {
		gA, gB = gB, gA
	}
	var k PairKey
	binary.BigEndian.PutUint64(k[0:8], gA.Hi)
	binary.BigEndian.PutUint64(k[8:16], gA.Lo)
	binary.BigEndian.PutUint64(k[16:24], gB.Hi)
	binary.BigEndian.PutUint64(k[24:32], gB.Lo)
	return k
}

// Less gives PairKey a total order usable by sort.Slice, matching raw
// byte-lexicographic comparison.
func (k PairKey) Less(o PairKey) bool {
	for i := range k {
		if k[i] != o[i] {
			return k[i] < o[i]
		}
	}
	return false
}

// orderEntities returns (a, b) reordered so a's GUID sorts before b's,
// the order every emitted pair carries.
func orderEntities(es *ecs.Entities, a, b ecs.Entity) (ecs.Entity, ecs.Entity, PairKey) {
	ga, gb := es.GUID(a), es.GUID(b)
	key := MakePairKey(ga, gb)
	if gb.Less(ga) {
		return b, a, key
	}
	return a, b, key
}
