// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

// Package material implements the per-pair material mixing table:
// friction/restitution/bounce-threshold blending rules looked up by a
// sorted pair of string material ids, generalizing the engine's old
// hardcoded body-pair friction/restitution multiply into a configurable
// rule table with per-pair override hooks.
package material

import "github.com/gazed/detphys2d/fx"

// Rule names a commutative-or-ordered mixing function.
type Rule int

const (
	RuleMin Rule = iota
	RuleMax
	RuleAvg
	RuleMul
	RuleGeo
	RuleA
	RuleB
)

// Material describes one named surface's solver-facing properties.
// Referenced by string id for deterministic cross-device table lookup.
type Material struct {
	ID              string
	MuS             fx.FX // static friction coefficient
	MuD             fx.FX // dynamic friction coefficient
	Restitution     fx.FX
	BounceThreshold fx.FX
}

// Default is used whenever an entity carries no material component.
var Default = Material{
	ID:              "",
	MuS:             fx.FromFloat64(0.6),
	MuD:             fx.FromFloat64(0.4),
	Restitution:     fx.FromFloat64(0.0),
	BounceThreshold: fx.FromFloat64(0.5),
}

// PairRule selects the mixing rule used for each solver-facing property.
type PairRule struct {
	Friction    Rule
	Restitution Rule
	Threshold   Rule
}

// DefaultPairRule is the table-wide default used when no per-pair
// override exists.
var DefaultPairRule = PairRule{Friction: RuleMin, Restitution: RuleMax, Threshold: RuleMax}

// Mixed is the resolved solver-facing pair of coefficients produced by
// a table lookup.
type Mixed struct {
	MuS, MuD        fx.FX
	Restitution     fx.FX
	BounceThreshold fx.FX
}

// Override is a custom per-pair mixing function, taking precedence over
// the rule table for that one pair.
type Override func(a, b Material) Mixed

// Table is the deterministic material registry: materials keyed by id,
// an optional per-pair rule override, and an optional per-pair custom
// mixing function.
type Table struct {
	materials map[string]Material
	rules     map[[2]string]PairRule
	overrides map[[2]string]Override
}

// NewTable creates an empty material table.
func NewTable() *Table {
	return &Table{
		materials: map[string]Material{},
		rules:     map[[2]string]PairRule{},
		overrides: map[[2]string]Override{},
	}
}

// Add registers or replaces a material by id.
func (t *Table) Add(m Material) { t.materials[m.ID] = m }

// Get looks up a material by id, falling back to Default.
func (t *Table) Get(id string) Material {
	if m, ok := t.materials[id]; ok {
		return m
	}
	return Default
}

// pairKey sorts two material ids so lookups are independent of the
// order the caller names them in.
func pairKey(a, b string) [2]string {
	if a <= b {
		return [2]string{a, b}
	}
	return [2]string{b, a}
}

// SetPairRule installs a per-pair rule override, keyed by the sorted
// pair of material ids.
func (t *Table) SetPairRule(a, b string, r PairRule) {
	t.rules[pairKey(a, b)] = r
}

// SetOverride installs a custom per-pair mixing function that takes
// precedence over any rule for that pair.
func (t *Table) SetOverride(a, b string, fn Override) {
	t.overrides[pairKey(a, b)] = fn
}

// Mix resolves the solver-facing coefficients for a pair of material
// ids, consulting per-pair overrides, then per-pair rules, then the
// table-wide default rule.
func (t *Table) Mix(idA, idB string) Mixed {
	a := t.Get(idA)
	b := t.Get(idB)
	key := pairKey(idA, idB)
	if ov, ok := t.overrides[key]; ok {
		return ov(a, b)
	}
	rule := DefaultPairRule
	if r, ok := t.rules[key]; ok {
		rule = r
	}
	return Mixed{
		MuS:             mix(a.MuS, b.MuS, rule.Friction),
		MuD:             mix(a.MuD, b.MuD, rule.Friction),
		Restitution:     mix(a.Restitution, b.Restitution, rule.Restitution),
		BounceThreshold: mix(a.BounceThreshold, b.BounceThreshold, rule.Threshold),
	}
}

// mix applies one named rule to a pair of FX values.
func mix(x, y fx.FX, rule Rule) fx.FX {
	switch rule {
	case RuleMin:
		return fx.Min(x, y)
	case RuleMax:
		return fx.Max(x, y)
	case RuleAvg:
		return fx.Div(fx.Add(x, y), fx.FromInt(2))
	case RuleMul:
		return fx.Mul(x, y)
	case RuleGeo:
		return fx.Sqrt(fx.Mul(x, y))
	case RuleA:
		return x
	case RuleB:
		return y
	default:
		return fx.Min(x, y)
	}
}
