// Package agents provides the evacuee data model and its lifecycle state machine.
package agents

import (
	"github.com/talgya/stampede/internal/grid"
)

// AgentID is a unique identifier for an agent. Zero is never issued; the grid
// uses it to mean "empty cell".
type AgentID uint64

// Agent is a simulated person with fixed personality traits and mutable
// survival state.
type Agent struct {
	ID AgentID `json:"id"`

	// Traits. Strong and Rational never change; Relaxed may only go true→false.
	IsStrong   bool `json:"is_strong"`
	IsRational bool `json:"is_rational"`
	IsRelaxed  bool `json:"is_relaxed"`
	Vulnerable bool `json:"vulnerable"` // !strong && !relaxed, fixed at creation

	// Lifecycle
	IsFallen        bool `json:"is_fallen"`
	IsDead          bool `json:"is_dead"`
	FallenCounter   int  `json:"fallen_counter"`
	BlockedCounter  int  `json:"blocked_counter"`
	TrampledCounter int  `json:"trampled_counter"`

	// Location
	Location  grid.Coord     `json:"location"`
	Heading   grid.Direction `json:"heading"`
	Evacuated bool           `json:"evacuated"`

	// Metadata
	SpawnTick     uint64 `json:"spawn_tick"`
	EvacuatedTick uint64 `json:"evacuated_tick,omitempty"`
}

// New creates an agent standing at loc. Vulnerability is derived here and
// never recomputed.
func New(id AgentID, strong, rational, relaxed bool, loc grid.Coord) *Agent {
	return &Agent{
		ID:         id,
		IsStrong:   strong,
		IsRational: rational,
		IsRelaxed:  relaxed,
		Vulnerable: !strong && !relaxed,
		Location:   loc,
		Heading:    grid.DirNone,
	}
}

// Active reports whether the agent can path and move this tick.
func (a *Agent) Active() bool {
	return !a.IsDead && !a.IsFallen && !a.Evacuated
}

// OnGrid reports whether the agent still occupies a cell.
func (a *Agent) OnGrid() bool {
	return !a.Evacuated
}

// Category is the display class combining traits and lifecycle state.
type Category uint8

const (
	CategoryDead Category = iota
	CategoryFallen
	CategoryRelaxed
	CategoryStrongIrrational
	CategoryStrongRational
	CategoryWeakIrrational
	CategoryWeakRational
)

// NumCategories is the number of display categories.
const NumCategories = 7

var categoryNames = [NumCategories]string{
	"Dead",
	"Fallen",
	"Relaxed",
	"Strong, Irrational",
	"Strong, Rational",
	"Weak, Irrational",
	"Weak, Rational",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Unknown"
}

var categoryKeys = [NumCategories]string{
	"dead",
	"fallen",
	"relaxed",
	"strong-irrational",
	"strong-rational",
	"weak-irrational",
	"weak-rational",
}

// Key returns a compact lowercase identifier for the category, used in query
// strings and JSON.
func (c Category) Key() string {
	if int(c) < len(categoryKeys) {
		return categoryKeys[c]
	}
	return "unknown"
}

// ParseCategory maps a compact key (e.g. "strong-rational") or a display label
// back to a category.
func ParseCategory(s string) (Category, bool) {
	for i := range categoryKeys {
		if categoryKeys[i] == s || categoryNames[i] == s {
			return Category(i), true
		}
	}
	return 0, false
}

// Category returns the agent's display class. Precedence: dead, fallen,
// relaxed, then strength and rationality.
func (a *Agent) Category() Category {
	switch {
	case a.IsDead:
		return CategoryDead
	case a.IsFallen:
		return CategoryFallen
	case a.IsRelaxed:
		return CategoryRelaxed
	case a.IsStrong && !a.IsRational:
		return CategoryStrongIrrational
	case a.IsStrong:
		return CategoryStrongRational
	case !a.IsRational:
		return CategoryWeakIrrational
	default:
		return CategoryWeakRational
	}
}
