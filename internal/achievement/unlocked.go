package achievement

import "time"

// Progress is an optional (current, max) pair shown alongside an unlock
type Progress struct {
	Current float64
	Max     float64
}

// Percent builds a progress pair out of 100
func Percent(v float64) *Progress {
	return &Progress{Current: v, Max: 100}
}

// Fraction returns Current/Max clamped to [0, 1]
func (p Progress) Fraction() float64 {
	if p.Max <= 0 {
		return 0
	}
	f := p.Current / p.Max
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// Unlocked is an immutable snapshot of an achievement at the moment it unlocked
type Unlocked struct {
	Template
	UnlockedAt time.Time
	Progress   *Progress
}

// NewUnlocked materializes an unlocked achievement. The progress pair is
// copied so later changes by the caller do not leak into the snapshot.
func NewUnlocked(t Template, at time.Time, progress *Progress) Unlocked {
	return Unlocked{Template: t, UnlockedAt: at, Progress: progress}.Clone()
}

// Clone returns a copy of u that shares no memory with it
func (u Unlocked) Clone() Unlocked {
	if u.Progress != nil {
		p := *u.Progress
		u.Progress = &p
	}
	return u
}

// UnlockedSet holds at most one unlocked achievement per template id, in
// insertion order
type UnlockedSet struct {
	order []Unlocked
	index map[string]int
}

// NewUnlockedSet creates an empty set
func NewUnlockedSet() *UnlockedSet {
	return &UnlockedSet{index: make(map[string]int)}
}

// Add inserts u unless its id is already present. It reports whether the set changed.
func (s *UnlockedSet) Add(u Unlocked) bool {
	if _, ok := s.index[u.ID]; ok {
		return false
	}
	s.index[u.ID] = len(s.order)
	s.order = append(s.order, u.Clone())
	return true
}

// Has reports whether id has been unlocked
func (s *UnlockedSet) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Get returns the unlocked achievement for id
func (s *UnlockedSet) Get(id string) (Unlocked, bool) {
	i, ok := s.index[id]
	if !ok {
		return Unlocked{}, false
	}
	return s.order[i].Clone(), true
}

// Len returns the number of unlocked achievements
func (s *UnlockedSet) Len() int {
	return len(s.order)
}

// Recent returns the unlocked achievements, most recent first
func (s *UnlockedSet) Recent() []Unlocked {
	out := make([]Unlocked, len(s.order))
	for i, u := range s.order {
		out[len(s.order)-1-i] = u.Clone()
	}
	return out
}

// IDs returns the unlocked ids in unlock order
func (s *UnlockedSet) IDs() []string {
	ids := make([]string, len(s.order))
	for i, u := range s.order {
		ids[i] = u.ID
	}
	return ids
}
