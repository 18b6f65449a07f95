// Copyright © 2016 Galvanized Logic Inc.
// Use is governed by a BSD-style license found in the LICENSE file.

package replay

import (
	"log/slog"

	"github.com/gazed/detphys2d/fx"
	"github.com/gazed/detphys2d/internal/prng"
	"github.com/gazed/detphys2d/physics"
)

// Player drives a snapshot-built world through a command script and
// records the frame-hash stream. Two Players built from the same
// snapshot and script produce identical streams on any machine; that
// equality is the replay protocol's whole contract.
type Player struct {
	World *physics.World
	Rand  *prng.Source

	names map[string]physics.Entity
}

// NewPlayer builds the world from snap and seeds the command PRNG.
func NewPlayer(snap Snapshot) (*Player, error) {
	w, names, err := snap.Build()
	if err != nil {
		return nil, err
	}
	return &Player{World: w, Rand: prng.New(snap.Seed), names: names}, nil
}

// Entity resolves a snapshot body name to its entity.
func (p *Player) Entity(name string) (physics.Entity, bool) {
	e, ok := p.names[name]
	return e, ok
}

// Run steps the world `frames` times, applying each frame's script
// commands first, and returns the per-frame hash sequence. Commands
// naming an unknown body are dropped with one log line; they cannot
// influence the hash.
func (p *Player) Run(frames int, script Script) []uint64 {
	hashes := make([]uint64, 0, frames)
	for i := 0; i < frames; i++ {
		frame := p.World.Frame() + 1
		for _, cmd := range script.forFrame(frame) {
			p.apply(cmd)
		}
		hashes = append(hashes, p.World.Step())
	}
	return hashes
}

func (p *Player) apply(cmd Command) {
	e, ok := p.names[cmd.Body]
	if !ok {
		slog.Warn("replay: command targets unknown body", "body", cmd.Body, "frame", cmd.Frame)
		return
	}
	b, ok := p.World.Body(e)
	if !ok {
		return
	}
	switch {
	case cmd.SetVel != nil:
		b.Vel = fx.V2(fx.FromFloat64(cmd.SetVel[0]), fx.FromFloat64(cmd.SetVel[1]))
	case cmd.Impulse != nil:
		j := fx.V2(fx.FromFloat64(cmd.Impulse[0]), fx.FromFloat64(cmd.Impulse[1]))
		b.Vel = b.Vel.Add(j.Scale(b.InvMass))
	case cmd.SetOmega != nil:
		b.Omega = fx.FromFloat64(*cmd.SetOmega)
	case cmd.Jitter != nil:
		m := fx.FromFloat64(*cmd.Jitter)
		b.Vel = b.Vel.Add(fx.V2(
			p.Rand.FXRange(fx.Neg(m), m),
			p.Rand.FXRange(fx.Neg(m), m),
		))
	}
	p.World.SetBody(e, b)
}
