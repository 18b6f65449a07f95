// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package material

import (
	"testing"

	"github.com/gazed/detphys2d/fx"
	"github.com/stretchr/testify/assert"
)

func TestMixSymmetric(t *testing.T) {
	tbl := NewTable()
	tbl.Add(Material{ID: "ice", MuS: fx.FromFloat64(0.1), MuD: fx.FromFloat64(0.05), Restitution: fx.FromFloat64(0.1), BounceThreshold: fx.FromFloat64(0.5)})
	tbl.Add(Material{ID: "rubber", MuS: fx.FromFloat64(0.9), MuD: fx.FromFloat64(0.8), Restitution: fx.FromFloat64(0.8), BounceThreshold: fx.FromFloat64(0.5)})

	for _, rule := range []Rule{RuleMin, RuleMax, RuleAvg, RuleMul, RuleGeo} {
		tbl.SetPairRule("ice", "rubber", PairRule{Friction: rule, Restitution: rule, Threshold: rule})
		ab := tbl.Mix("ice", "rubber")
		ba := tbl.Mix("rubber", "ice")
		assert.Equal(t, ab, ba, "rule %v should be symmetric", rule)
	}
}

func TestMixDefaultRule(t *testing.T) {
	tbl := NewTable()
	tbl.Add(Material{ID: "a", MuS: fx.FromFloat64(0.2), MuD: fx.FromFloat64(0.2), Restitution: fx.FromFloat64(0.1), BounceThreshold: fx.FromFloat64(0.5)})
	tbl.Add(Material{ID: "b", MuS: fx.FromFloat64(0.8), MuD: fx.FromFloat64(0.8), Restitution: fx.FromFloat64(0.9), BounceThreshold: fx.FromFloat64(0.3)})
	m := tbl.Mix("a", "b")
	assert.Equal(t, fx.FromFloat64(0.2), m.MuS)          // min
	assert.Equal(t, fx.FromFloat64(0.9), m.Restitution)  // max
	assert.Equal(t, fx.FromFloat64(0.5), m.BounceThreshold) // max
}

func TestMixUnknownFallsBackToDefault(t *testing.T) {
	tbl := NewTable()
	m := tbl.Mix("unknown-a", "unknown-b")
	assert.Equal(t, Default.MuS, m.MuS)
}

func TestOverrideTakesPrecedence(t *testing.T) {
	tbl := NewTable()
	tbl.Add(Material{ID: "a", MuS: fx.FromFloat64(0.2)})
	tbl.Add(Material{ID: "b", MuS: fx.FromFloat64(0.8)})
	tbl.SetOverride("a", "b", func(a, b Material) Mixed {
		return Mixed{MuS: fx.FromFloat64(0.42)}
	})
	m := tbl.Mix("a", "b")
	assert.Equal(t, fx.FromFloat64(0.42), m.MuS)
}
