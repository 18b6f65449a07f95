// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package replay

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Command is one scripted external input applied before a given frame
// steps. Commands mutate body velocity only — position writes would
// fight the core's CCD/correction stages, and every gameplay input the
// original engine scripts reduces to a velocity or impulse change.
type Command struct {
	Frame uint64 `yaml:"frame"`
	Body  string `yaml:"body"`

	// One of:
	SetVel   *[2]float64 `yaml:"set_vel,omitempty"`
	Impulse  *[2]float64 `yaml:"impulse,omitempty"` // scaled by the body's inverse mass
	SetOmega *float64    `yaml:"set_omega,omitempty"`

	// Jitter perturbs the body's velocity by a value drawn per axis
	// from the player's seeded generator, uniform in [-Jitter, Jitter).
	// Scripts use it for stress runs that need randomness without
	// wall-clock entropy; the draw order is the script order, so the
	// same seed always replays the same perturbations.
	Jitter *float64 `yaml:"jitter,omitempty"`
}

// Script is a frame-ordered command sequence. Commands sharing a frame
// keep their document order, so the YAML file is the single source of
// truth for input ordering.
type Script struct {
	Commands []Command `yaml:"commands"`
}

// LoadScript parses a YAML script document and stable-sorts it by
// frame so out-of-order authoring cannot perturb replay.
func LoadScript(data []byte) (Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Script{}, fmt.Errorf("replay: bad script: %w", err)
	}
	sort.SliceStable(s.Commands, func(i, j int) bool {
		return s.Commands[i].Frame < s.Commands[j].Frame
	})
	return s, nil
}

// forFrame returns the commands scheduled for frame f, assuming the
// script is sorted (as LoadScript guarantees).
func (s Script) forFrame(f uint64) []Command {
	lo := sort.Search(len(s.Commands), func(i int) bool { return s.Commands[i].Frame >= f })
	hi := lo
	for hi < len(s.Commands) && s.Commands[hi].Frame == f {
		hi++
	}
	return s.Commands[lo:hi]
}
