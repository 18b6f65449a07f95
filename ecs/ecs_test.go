// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntitiesCreateValidDispose(t *testing.T) {
	es := NewEntities()
	a := es.Create(GUID{Hi: 1, Lo: 1})
	b := es.Create(GUID{Hi: 1, Lo: 2})
	assert.True(t, es.Valid(a))
	assert.True(t, es.Valid(b))
	assert.NotEqual(t, a, b)

	es.Dispose(a)
	assert.False(t, es.Valid(a))
	assert.True(t, es.Valid(b))
}

func TestEntitiesGUID(t *testing.T) {
	es := NewEntities()
	g := GUID{Hi: 7, Lo: 9}
	a := es.Create(g)
	assert.Equal(t, g, es.GUID(a))
}

func TestColumnSetGetDelete(t *testing.T) {
	c := NewColumn[int]()
	var e1, e2, e3 Entity = 1, 2, 3
	c.Set(e1, 10)
	c.Set(e2, 20)
	c.Set(e3, 30)
	assert.Equal(t, 3, c.Len())

	v, ok := c.Get(e2)
	assert.True(t, ok)
	assert.Equal(t, 20, v)

	c.Delete(e2)
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get(e2)
	assert.False(t, ok)
	v, ok = c.Get(e3)
	assert.True(t, ok)
	assert.Equal(t, 30, v)
}

func TestResourceVersionBumps(t *testing.T) {
	r := NewResource(0)
	_, v0 := r.Get()
	r.Set(42)
	val, v1 := r.Get()
	assert.Equal(t, 42, val)
	assert.Greater(t, v1, v0)
}

func TestScheduleSequential(t *testing.T) {
	s := NewSchedule()
	s.Sequential("sync", "broadphase", "narrowphase")
	assert.True(t, s.IsSequential())
	names := []string{}
	for _, st := range s.Stages() {
		names = append(names, st.Name)
	}
	assert.Equal(t, []string{"sync", "broadphase", "narrowphase"}, names)
}

func TestQuery2VisitsIntersection(t *testing.T) {
	a := NewColumn[int]()
	b := NewColumn[string]()
	a.Set(1, 10)
	a.Set(2, 20)
	a.Set(3, 30)
	b.Set(2, "two")
	b.Set(3, "three")
	b.Set(4, "four")

	got := map[Entity]string{}
	Query2(a, b, func(e Entity, av *int, bv *string) {
		got[e] = *bv
	})
	assert.Equal(t, map[Entity]string{2: "two", 3: "three"}, got)
}

func TestQuery2MutatesInPlace(t *testing.T) {
	a := NewColumn[int]()
	b := NewColumn[int]()
	a.Set(7, 1)
	b.Set(7, 2)
	Query2(a, b, func(e Entity, av, bv *int) { *av += *bv })
	v, _ := a.Get(7)
	assert.Equal(t, 3, v)
}

func TestWorldTickBumpsFrame(t *testing.T) {
	w := NewWorld()
	assert.Equal(t, uint64(1), w.Tick())
	assert.Equal(t, uint64(2), w.Tick())
	_, version := w.Frame.Get()
	assert.Equal(t, uint64(2), version)
}
