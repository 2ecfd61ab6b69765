package engine

import (
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// armProbe schedules the next probe after a uniform delay in
// [ProbeMin, ProbeMax)
func (e *Engine) armProbe() {
	if e.disposed {
		return
	}
	span := e.cfg.ProbeMax - e.cfg.ProbeMin
	delay := e.cfg.ProbeMin
	if span > 0 {
		delay += time.Duration(e.rng.Float64() * float64(span))
	}
	e.probeTimer = e.sched.AfterFunc(delay, e.probe)
}

// probe unlocks a random locked achievement with probability ProbeChance,
// then re-arms itself whether or not anything was unlocked
func (e *Engine) probe() {
	if e.disposed {
		return
	}
	e.probeTimer = nil

	locked := lo.Filter(e.catalog.IDs(), func(id string, _ int) bool {
		return !e.unlocked.Has(id)
	})
	if len(locked) > 0 && e.rng.Float64() < e.cfg.ProbeChance {
		id := locked[e.rng.IntN(len(locked))]
		e.logger.Debug("probe hit", zap.String("id", id), zap.Int("locked", len(locked)))
		e.RequestUnlock(id, nil)
	}

	e.armProbe()
}

// armTick schedules the next tick against a fixed deadline. A loop that
// falls more than two intervals behind resyncs to now instead of firing a
// burst of late ticks.
func (e *Engine) armTick() {
	if e.disposed {
		return
	}
	interval := e.cfg.TickInterval
	now := e.sched.Now()

	e.nextTickAt = e.nextTickAt.Add(interval)
	if now.Sub(e.nextTickAt) > 2*interval {
		e.logger.Debug("tick loop resync", zap.Duration("behind", now.Sub(e.nextTickAt)))
		e.nextTickAt = now.Add(interval)
	}

	e.tickTimer = e.sched.AfterFunc(e.nextTickAt.Sub(now), e.onTick)
}

func (e *Engine) onTick() {
	if e.disposed {
		return
	}
	now := e.sched.Now()
	dt := now.Sub(e.lastTickAt)
	e.lastTickAt = now

	e.Tick(dt)
	e.armTick()
}

// Tick advances the particle simulation by dt of wall time. Whole tick
// intervals are stepped out of an accumulator; at most MaxCatchUpSteps run
// per call and any backlog beyond that is dropped. A Frame is published
// after every call.
func (e *Engine) Tick(dt time.Duration) {
	if e.disposed {
		return
	}
	interval := e.cfg.TickInterval
	if dt > 0 {
		e.tickAcc += dt
	}

	steps := 0
	for e.tickAcc >= interval && steps < e.cfg.MaxCatchUpSteps {
		e.sim.Tick()
		e.tickAcc -= interval
		steps++
	}
	if e.tickAcc >= interval {
		e.tickAcc %= interval
	}

	e.publish()
}
