package particle

import "math"

// Rand is the random source used for spawn variety. *math/rand/v2.Rand
// satisfies it; tests inject seeded or scripted sources.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Simulator owns the live particle set and advances it one step at a time.
// It is not safe for concurrent use; the engine drives it from a single
// scheduler context.
type Simulator struct {
	rng    Rand
	live   []Particle
	nextID uint64
}

// NewSimulator creates an empty simulator drawing randomness from rng
func NewSimulator(rng Rand) *Simulator {
	return &Simulator{
		rng:  rng,
		live: make([]Particle, 0, BurstSize(RarityLegendary)*2),
	}
}

// SpawnBurst adds a ring of particles around (x, y). Burst size, radius and
// palette come from the rarity.
func (s *Simulator) SpawnBurst(x, y float64, rarity Rarity) {
	n := BurstSize(rarity)
	palette := palettes[rarity]
	if len(palette) == 0 {
		palette = palettes[RarityCommon]
	}
	radius := Radius(rarity)

	for i := 0; i < n; i++ {
		// Draw order is fixed so a seeded source reproduces every field.
		angle := 2*math.Pi*float64(i)/float64(n) + s.uniform(-angleJitter, angleJitter)
		speed := s.uniform(minSpeed, maxSpeed)
		px := x + s.uniform(-originJitter, originJitter)
		py := y + s.uniform(-originJitter, originJitter)
		color := palette[s.rng.IntN(len(palette))]
		kind := Kinds[s.rng.IntN(len(Kinds))]

		s.nextID++
		s.live = append(s.live, Particle{
			ID:      s.nextID,
			X:       px,
			Y:       py,
			VX:      math.Cos(angle) * speed,
			VY:      math.Sin(angle) * speed,
			Color:   color,
			Radius:  radius,
			Life:    DefaultLife,
			MaxLife: DefaultLife,
			Kind:    kind,
		})
	}
}

// Tick advances every live particle by one step and drops the ones whose
// life ran out. Survivors are compacted in place.
func (s *Simulator) Tick() {
	alive := 0
	for i := range s.live {
		p := &s.live[i]

		p.VX *= drag
		p.VY = p.VY*drag + gravity
		p.X += p.VX
		p.Y += p.VY

		p.Life--
		if p.Life <= 0 {
			continue
		}

		s.live[alive] = *p
		alive++
	}
	// Zero the tail so dropped particles are not retained by the backing array
	clear(s.live[alive:])
	s.live = s.live[:alive]
}

// Live returns a snapshot of the live particles
func (s *Simulator) Live() []Particle {
	out := make([]Particle, len(s.live))
	copy(out, s.live)
	return out
}

// Len returns the number of live particles
func (s *Simulator) Len() int {
	return len(s.live)
}

// Clear drops every live particle. The id counter keeps running so ids stay
// unique for the simulator's lifetime.
func (s *Simulator) Clear() {
	clear(s.live)
	s.live = s.live[:0]
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
