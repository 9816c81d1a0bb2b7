// Population seeding: trait draws and placement picks from a seeded RNG.
package agents

import "math/rand"

// TraitOdds holds the probability of each trait being true for a new agent.
type TraitOdds struct {
	Strong   float64 `yaml:"strong" json:"strong"`
	Rational float64 `yaml:"rational" json:"rational"`
	Relaxed  float64 `yaml:"relaxed" json:"relaxed"`
}

// DefaultTraitOdds returns an even crowd with a nervous majority.
func DefaultTraitOdds() TraitOdds {
	return TraitOdds{
		Strong:   0.5,
		Rational: 0.5,
		Relaxed:  0.3,
	}
}

// Traits is a drawn trait triple.
type Traits struct {
	Strong   bool
	Rational bool
	Relaxed  bool
}

// Spawner creates agents for the simulation.
type Spawner struct {
	rng  *rand.Rand
	odds TraitOdds
}

// NewSpawner creates an agent spawner with the given seed.
func NewSpawner(seed int64, odds TraitOdds) *Spawner {
	if seed == 0 {
		seed = 1
	}
	return &Spawner{
		rng:  rand.New(rand.NewSource(seed + 300)),
		odds: odds,
	}
}

// NextTraits draws a trait triple.
func (s *Spawner) NextTraits() Traits {
	return Traits{
		Strong:   s.rng.Float64() < s.odds.Strong,
		Rational: s.rng.Float64() < s.odds.Rational,
		Relaxed:  s.rng.Float64() < s.odds.Relaxed,
	}
}

// Intn returns a uniform int in [0, n) from the spawner's stream.
func (s *Spawner) Intn(n int) int {
	return s.rng.Intn(n)
}
