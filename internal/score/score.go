// Package score turns a session's unlocks into experience points and a level
package score

import (
	"math"
	"sort"

	"github.com/bytspot/rewards/internal/achievement"
)

// MaxLevel caps the level curve
const MaxLevel = 10

// LevelTitles maps the first level of each range to its title
var LevelTitles = map[int]string{
	1: "Newcomer",
	3: "Regular",
	5: "Local Insider",
	7: "Trailblazer",
	9: "City Legend",
}

// XPFor returns the experience awarded for unlocking an achievement of rarity r
func XPFor(r achievement.Rarity) int {
	switch r {
	case achievement.RarityLegendary:
		return 100
	case achievement.RarityEpic:
		return 50
	case achievement.RarityRare:
		return 25
	default:
		return 10
	}
}

// TotalXP sums the experience of every unlock
func TotalXP(unlocks []achievement.Unlocked) int {
	total := 0
	for _, u := range unlocks {
		total += XPFor(u.Rarity)
	}
	return total
}

// TitleForLevel returns the title of the range level falls in
func TitleForLevel(level int) string {
	keys := make([]int, 0, len(LevelTitles))
	for lvl := range LevelTitles {
		keys = append(keys, lvl)
	}
	sort.Ints(keys)

	title := LevelTitles[1]
	for _, lvl := range keys {
		if level < lvl {
			break
		}
		title = LevelTitles[lvl]
	}
	return title
}

// XPForLevel is the total experience needed to reach level: 20 * level^1.5
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return int(20 * math.Pow(float64(level), 1.5))
}

// LevelFromTotalXP returns the level reached with totalXP
func LevelFromTotalXP(totalXP int) int {
	level := 1
	for level < MaxLevel && XPForLevel(level+1) <= totalXP {
		level++
	}
	return level
}

// ProgressInLevel returns the fraction of the way to the next level
func ProgressInLevel(totalXP int) float64 {
	level := LevelFromTotalXP(totalXP)
	if level >= MaxLevel {
		return 1
	}
	start, next := XPForLevel(level), XPForLevel(level+1)
	return float64(totalXP-start) / float64(next-start)
}

// LevelUp describes a level change caused by new experience
type LevelUp struct {
	OldLevel int
	NewLevel int
	NewTitle string
}

// CheckLevelUp returns the level change between two totals, or nil
func CheckLevelUp(oldTotalXP, newTotalXP int) *LevelUp {
	oldLevel := LevelFromTotalXP(oldTotalXP)
	newLevel := LevelFromTotalXP(newTotalXP)
	if newLevel <= oldLevel {
		return nil
	}
	return &LevelUp{
		OldLevel: oldLevel,
		NewLevel: newLevel,
		NewTitle: TitleForLevel(newLevel),
	}
}

// Tracker accumulates experience from unlock events. It is not safe for
// concurrent use; register Add as an engine listener.
type Tracker struct {
	total int
}

// Add credits u and reports a level change, if any
func (t *Tracker) Add(u achievement.Unlocked) *LevelUp {
	before := t.total
	t.total += XPFor(u.Rarity)
	return CheckLevelUp(before, t.total)
}

func (t *Tracker) TotalXP() int {
	return t.total
}

func (t *Tracker) Level() int {
	return LevelFromTotalXP(t.total)
}
