package particle

// Kind is the visual shape of a reward particle
type Kind string

const (
	KindStar    Kind = "star"
	KindSparkle Kind = "sparkle"
	KindCoin    Kind = "coin"
	KindHeart   Kind = "heart"
)

// Kinds lists every particle kind in the order random selection indexes them
var Kinds = []Kind{KindStar, KindSparkle, KindCoin, KindHeart}

// Rarity is the tier that controls burst size, particle radius and palette.
// It mirrors achievement.Rarity without importing it so the simulator stays
// a leaf package.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

const (
	// DefaultLife is the number of steps a particle lives
	DefaultLife = 80

	angleJitter  = 0.25
	minSpeed     = 3.0
	maxSpeed     = 7.0
	originJitter = 25.0

	drag    = 0.99
	gravity = 0.15
)

// Particle is a single reward particle. Positions and velocities are in world
// units; Life and MaxLife count simulation steps.
type Particle struct {
	ID      uint64
	X, Y    float64
	VX, VY  float64
	Color   string
	Radius  float64
	Life    int
	MaxLife int
	Kind    Kind
}

// Alpha returns the remaining life fraction, used by renderers for fading
func (p Particle) Alpha() float64 {
	if p.MaxLife <= 0 {
		return 0
	}
	return float64(p.Life) / float64(p.MaxLife)
}

// palettes are the rarity colour sets of the reward animation
var palettes = map[Rarity][]string{
	RarityCommon:    {"#22d3ee", "#34d399", "#60a5fa"},
	RarityRare:      {"#8b5cf6", "#ec4899", "#f59e0b"},
	RarityEpic:      {"#f59e0b", "#ef4444", "#ec4899"},
	RarityLegendary: {"#fbbf24", "#f59e0b", "#ec4899", "#8b5cf6", "#22d3ee"},
}

// Palette returns a copy of the colour palette for a rarity. Unknown rarities
// fall back to the common palette.
func Palette(r Rarity) []string {
	p, ok := palettes[r]
	if !ok {
		p = palettes[RarityCommon]
	}
	out := make([]string, len(p))
	copy(out, p)
	return out
}

// BurstSize returns how many particles an unlock of the given rarity spawns
func BurstSize(r Rarity) int {
	switch r {
	case RarityLegendary:
		return 24
	case RarityEpic:
		return 16
	case RarityRare:
		return 12
	default:
		return 8
	}
}

// Radius returns the particle radius for a rarity
func Radius(r Rarity) float64 {
	switch r {
	case RarityLegendary:
		return 8
	case RarityEpic:
		return 6
	default:
		return 4
	}
}
