package achievement

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/bytspot/rewards/internal/particle"
)

// Rarity represents the tier of an achievement
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Valid reports whether r is one of the four known tiers
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// Particle returns the particle-simulator rarity for r
func (r Rarity) Particle() particle.Rarity {
	return particle.Rarity(r)
}

// BurstSize returns how many reward particles an unlock of this tier spawns
func (r Rarity) BurstSize() int {
	return particle.BurstSize(r.Particle())
}

// Category represents the category of an achievement
type Category string

const (
	CategoryMilestone Category = "milestone"
	CategoryDiscovery Category = "discovery"
	CategorySocial    Category = "social"
	CategoryStreak    Category = "streak"
	CategorySpecial   Category = "special"
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryMilestone, CategoryDiscovery, CategorySocial, CategoryStreak, CategorySpecial:
		return true
	}
	return false
}

// Template defines a single achievement
type Template struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Category    Category `yaml:"category"`
	Rarity      Rarity   `yaml:"rarity"`
	Icon        string   `yaml:"icon"`
}

// Catalog is an immutable, ordered registry of achievement templates
type Catalog struct {
	templates []Template
	byID      map[string]int
}

// NewCatalog builds a catalog, keeping the given declaration order. It
// rejects empty or duplicate ids and unknown rarities or categories.
func NewCatalog(templates ...Template) (*Catalog, error) {
	c := &Catalog{
		templates: make([]Template, 0, len(templates)),
		byID:      make(map[string]int, len(templates)),
	}

	for i, t := range templates {
		t.ID = strings.TrimSpace(t.ID)
		if t.ID == "" {
			return nil, fmt.Errorf("achievement #%d: empty id", i)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("achievement %q: duplicate id", t.ID)
		}
		if !t.Rarity.Valid() {
			return nil, fmt.Errorf("achievement %q: unknown rarity %q", t.ID, t.Rarity)
		}
		if !t.Category.Valid() {
			return nil, fmt.Errorf("achievement %q: unknown category %q", t.ID, t.Category)
		}
		c.byID[t.ID] = len(c.templates)
		c.templates = append(c.templates, t)
	}

	return c, nil
}

// Lookup returns the template with the given id
func (c *Catalog) Lookup(id string) (Template, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Template{}, false
	}
	return c.templates[i], true
}

// All returns every template in declaration order
func (c *Catalog) All() []Template {
	out := make([]Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// IDs returns every template id in declaration order
func (c *Catalog) IDs() []string {
	return lo.Map(c.templates, func(t Template, _ int) string {
		return t.ID
	})
}

// Len returns the number of templates
func (c *Catalog) Len() int {
	return len(c.templates)
}

type catalogDocument struct {
	Achievements []Template `yaml:"achievements"`
}

// ParseCatalog reads a YAML catalog document
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(doc.Achievements) == 0 {
		return nil, fmt.Errorf("catalog has no achievements")
	}
	return NewCatalog(doc.Achievements...)
}

// LoadCatalog reads a YAML catalog from disk
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the built-in Bytspot achievements
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := ParseCatalog(defaultCatalogYAML)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}
