package engine

import (
	"time"

	"github.com/bytspot/rewards/internal/achievement"
	"github.com/bytspot/rewards/internal/particle"
)

// Frame is an immutable view of the engine handed to renderers
type Frame struct {
	At        time.Time
	State     State
	Active    *achievement.Unlocked
	Particles []particle.Particle
	Recent    []achievement.Unlocked
	Total     int
	Width     float64
	Height    float64
}

// Snapshot copies the current engine state into a Frame
func (e *Engine) Snapshot() Frame {
	f := Frame{
		At:        e.sched.Now(),
		State:     e.State(),
		Particles: e.sim.Live(),
		Recent:    e.unlocked.Recent(),
		Total:     e.catalog.Len(),
		Width:     e.cfg.WorldWidth,
		Height:    e.cfg.WorldHeight,
	}
	if e.active != nil {
		active := e.active.Clone()
		f.Active = &active
	}
	return f
}

func (e *Engine) publish() {
	if e.frameSink != nil {
		e.frameSink(e.Snapshot())
	}
}
