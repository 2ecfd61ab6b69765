// Package engine implements the achievement unlock state machine and the
// timed loops around it: the random prober, the particle tick loop and the
// auto-dismiss timer. All engine methods must run on the engine's scheduler;
// use Submit to reach the engine from other goroutines.
package engine

import (
	"math/rand/v2"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/bytspot/rewards/internal/achievement"
	"github.com/bytspot/rewards/internal/particle"
	"github.com/bytspot/rewards/internal/scheduler"
)

// State is the notification state of the engine
type State int

const (
	// StateIdle means no notification is visible
	StateIdle State = iota
	// StateActive means one unlocked achievement is on display
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

// Config holds the engine timings and world geometry
type Config struct {
	DismissAfter    time.Duration
	ProbeMin        time.Duration
	ProbeMax        time.Duration
	ProbeChance     float64
	ProbeEnabled    bool
	TickInterval    time.Duration
	MaxCatchUpSteps int
	WorldWidth      float64
	WorldHeight     float64
}

// DefaultConfig returns the stock engine timings
func DefaultConfig() Config {
	return Config{
		DismissAfter:    5 * time.Second,
		ProbeMin:        20 * time.Second,
		ProbeMax:        60 * time.Second,
		ProbeChance:     0.3,
		ProbeEnabled:    true,
		TickInterval:    16 * time.Millisecond,
		MaxCatchUpSteps: 4,
		WorldWidth:      800,
		WorldHeight:     600,
	}
}

// WithDefaults returns c with every field the engine cannot run with
// replaced from DefaultConfig. A zero Config becomes DefaultConfig; in a
// partial one ProbeEnabled is kept as given, ProbeChance is clamped to
// [0, 1] and ProbeMax is raised to ProbeMin.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c == (Config{}) {
		return def
	}
	if c.DismissAfter <= 0 {
		c.DismissAfter = def.DismissAfter
	}
	if c.ProbeMin <= 0 {
		c.ProbeMin = def.ProbeMin
	}
	if c.ProbeMax <= 0 {
		c.ProbeMax = def.ProbeMax
	}
	if c.ProbeMax < c.ProbeMin {
		c.ProbeMax = c.ProbeMin
	}
	c.ProbeChance = lo.Clamp(c.ProbeChance, 0, 1)
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.MaxCatchUpSteps < 1 {
		c.MaxCatchUpSteps = def.MaxCatchUpSteps
	}
	if c.WorldWidth <= 0 {
		c.WorldWidth = def.WorldWidth
	}
	if c.WorldHeight <= 0 {
		c.WorldHeight = def.WorldHeight
	}
	return c
}

// Options configures a new Engine
type Options struct {
	Config Config
	// Rand feeds the prober and the particle simulator. Nil means a
	// time-seeded source.
	Rand particle.Rand
	// Logger defaults to a no-op logger
	Logger *zap.Logger
	// FrameSink, if set, receives a Frame after every tick, unlock and
	// dismissal. It runs on the scheduler.
	FrameSink func(Frame)
}

// NewOptions returns options with the default config
func NewOptions() Options {
	return Options{Config: DefaultConfig()}
}

type listener struct {
	id int
	fn func(achievement.Unlocked)
}

// Engine owns the unlocked set, the active notification and the live
// particles. It holds no locks: every method runs on the scheduler.
type Engine struct {
	catalog   *achievement.Catalog
	sched     scheduler.Scheduler
	rng       particle.Rand
	logger    *zap.Logger
	cfg       Config
	frameSink func(Frame)

	unlocked *achievement.UnlockedSet
	active   *achievement.Unlocked
	sim      *particle.Simulator

	listeners      []listener
	nextListenerID int

	dismissTimer scheduler.Timer
	dismissGen   uint64

	probeTimer scheduler.Timer

	tickTimer  scheduler.Timer
	nextTickAt time.Time
	lastTickAt time.Time
	tickAcc    time.Duration

	started  bool
	disposed bool
}

// New creates an engine over catalog, driven by sched
func New(catalog *achievement.Catalog, sched scheduler.Scheduler, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	opts.Config = opts.Config.WithDefaults()

	return &Engine{
		catalog:   catalog,
		sched:     sched,
		rng:       opts.Rand,
		logger:    opts.Logger,
		cfg:       opts.Config,
		frameSink: opts.FrameSink,
		unlocked:  achievement.NewUnlockedSet(),
		sim:       particle.NewSimulator(opts.Rand),
	}
}

// Catalog returns the catalog the engine unlocks from
func (e *Engine) Catalog() *achievement.Catalog {
	return e.catalog
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// OnUnlocked registers fn to be called synchronously, once per successful
// unlock, in registration order. The returned func unsubscribes.
func (e *Engine) OnUnlocked(fn func(achievement.Unlocked)) (unsubscribe func()) {
	e.nextListenerID++
	id := e.nextListenerID
	e.listeners = append(e.listeners, listener{id: id, fn: fn})

	return func() {
		for i, l := range e.listeners {
			if l.id == id {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// Start arms the prober and the tick loop. It is a no-op once started or
// after Dispose.
func (e *Engine) Start() {
	if e.started || e.disposed {
		return
	}
	e.started = true

	now := e.sched.Now()
	e.lastTickAt = now
	e.nextTickAt = now
	e.tickAcc = 0

	if e.cfg.ProbeEnabled {
		e.armProbe()
	}
	e.armTick()

	e.logger.Info("reward engine started",
		zap.Int("catalog", e.catalog.Len()),
		zap.Duration("tick_interval", e.cfg.TickInterval),
		zap.Bool("probe", e.cfg.ProbeEnabled))
}

// Dispose cancels every pending timer, drops live particles and the active
// notification, and turns every later call into a no-op
func (e *Engine) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true

	for _, t := range []scheduler.Timer{e.dismissTimer, e.probeTimer, e.tickTimer} {
		if t != nil {
			t.Stop()
		}
	}
	e.dismissTimer, e.probeTimer, e.tickTimer = nil, nil, nil

	e.sim.Clear()
	e.active = nil
	e.listeners = nil

	e.publish()
	e.frameSink = nil

	e.logger.Info("reward engine disposed", zap.Int("unlocked", e.unlocked.Len()))
}

// Disposed reports whether Dispose has run
func (e *Engine) Disposed() bool {
	return e.disposed
}

// Submit posts an unlock request onto the scheduler. Safe to call from any
// goroutine when the scheduler's Post is.
func (e *Engine) Submit(id string, progress *achievement.Progress) {
	e.sched.Post(func() {
		e.RequestUnlock(id, progress)
	})
}

// SubmitRandom posts a request that unlocks one random locked achievement
func (e *Engine) SubmitRandom() {
	e.sched.Post(e.UnlockRandom)
}

// State reports whether a notification is visible
func (e *Engine) State() State {
	if e.active != nil {
		return StateActive
	}
	return StateIdle
}

// ActiveNotification returns the achievement on display, if any
func (e *Engine) ActiveNotification() (achievement.Unlocked, bool) {
	if e.active == nil {
		return achievement.Unlocked{}, false
	}
	return e.active.Clone(), true
}

// LiveParticles returns a snapshot of the live particles
func (e *Engine) LiveParticles() []particle.Particle {
	return e.sim.Live()
}

// Unlocked returns every unlocked achievement, most recent first
func (e *Engine) Unlocked() []achievement.Unlocked {
	return e.unlocked.Recent()
}

// IsUnlocked reports whether id has been unlocked this session
func (e *Engine) IsUnlocked(id string) bool {
	return e.unlocked.Has(id)
}

// Locked returns the catalog ids not unlocked yet, in catalog order
func (e *Engine) Locked() []string {
	ids := e.catalog.IDs()
	locked := ids[:0]
	for _, id := range ids {
		if !e.unlocked.Has(id) {
			locked = append(locked, id)
		}
	}
	return locked
}

func (e *Engine) origin() (float64, float64) {
	return e.cfg.WorldWidth / 2, e.cfg.WorldHeight / 2
}
