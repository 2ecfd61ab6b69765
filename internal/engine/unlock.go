package engine

import (
	"go.uber.org/zap"

	"github.com/bytspot/rewards/internal/achievement"
)

// RequestUnlock unlocks the achievement with the given id. Unknown ids,
// already unlocked ids and calls after Dispose are silent no-ops: a caller
// cannot tell a bad id from a race with an earlier unlock, and neither is
// actionable.
func (e *Engine) RequestUnlock(id string, progress *achievement.Progress) {
	if e.disposed {
		e.logger.Debug("unlock ignored after dispose", zap.String("id", id))
		return
	}

	tmpl, ok := e.catalog.Lookup(id)
	if !ok {
		e.logger.Debug("unlock ignored: unknown achievement", zap.String("id", id))
		return
	}
	if e.unlocked.Has(id) {
		e.logger.Debug("unlock ignored: already unlocked", zap.String("id", id))
		return
	}

	u := achievement.NewUnlocked(tmpl, e.sched.Now(), progress)
	e.unlocked.Add(u)
	active := u.Clone()
	e.active = &active

	x, y := e.origin()
	e.sim.SpawnBurst(x, y, tmpl.Rarity.Particle())

	e.logger.Info("achievement unlocked",
		zap.String("id", u.ID),
		zap.String("rarity", string(u.Rarity)),
		zap.Int("burst", u.Rarity.BurstSize()),
		zap.Int("unlocked", e.unlocked.Len()))

	e.emit(u)
	e.armDismiss()
	e.publish()
}

// UnlockRandom unlocks one locked achievement chosen uniformly. No-op when
// everything is unlocked.
func (e *Engine) UnlockRandom() {
	if e.disposed {
		return
	}
	locked := e.Locked()
	if len(locked) == 0 {
		return
	}
	e.RequestUnlock(locked[e.rng.IntN(len(locked))], nil)
}

// emit hands each listener its own copy of u. A panicking listener is
// logged and skipped so the unlock still completes.
func (e *Engine) emit(u achievement.Unlocked) {
	// Listeners may unsubscribe while we iterate
	ls := make([]listener, len(e.listeners))
	copy(ls, e.listeners)
	for _, l := range ls {
		e.notify(l, u.Clone())
	}
}

func (e *Engine) notify(l listener, u achievement.Unlocked) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("unlock listener panicked",
				zap.String("id", u.ID),
				zap.Int("listener", l.id),
				zap.Any("panic", r))
		}
	}()
	l.fn(u)
}

// armDismiss replaces any pending dismiss timer. The generation check keeps
// a superseded timer from clearing a newer notification even if its fire
// was already dispatched.
func (e *Engine) armDismiss() {
	if e.disposed {
		return
	}
	if e.dismissTimer != nil {
		e.dismissTimer.Stop()
	}
	e.dismissGen++
	gen := e.dismissGen
	e.dismissTimer = e.sched.AfterFunc(e.cfg.DismissAfter, func() {
		e.dismiss(gen)
	})
}

func (e *Engine) dismiss(gen uint64) {
	if e.disposed || gen != e.dismissGen {
		return
	}
	e.dismissTimer = nil
	if e.active == nil {
		return
	}

	e.logger.Debug("notification dismissed", zap.String("id", e.active.ID))
	e.active = nil
	e.publish()
}
