package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/stampede/internal/agents"
	"github.com/talgya/stampede/internal/grid"
)

// Populate places up to count agents on random free walkable cells, drawing
// traits and positions from the spawner. It returns how many were placed;
// a grid with fewer free cells than requested is filled and reported, not
// treated as an error.
func Populate(sim *Simulation, spawner *agents.Spawner, count int) (int, error) {
	if count < 0 {
		return 0, fmt.Errorf("populate: negative count %d", count)
	}

	var free []grid.Coord
	sim.Grid.Cells(func(c *grid.Cell) {
		if c.Terrain == grid.TerrainWalkable && !c.Occupied() {
			free = append(free, c.Coord)
		}
	})

	placed := 0
	for placed < count && len(free) > 0 {
		i := spawner.Intn(len(free))
		at := free[i]
		free[i] = free[len(free)-1]
		free = free[:len(free)-1]

		t := spawner.NextTraits()
		if _, err := sim.SpawnAgent(at.X, at.Y, t.Strong, t.Rational, t.Relaxed); err != nil {
			if errors.Is(err, ErrCellUnavailable) {
				continue
			}
			return placed, fmt.Errorf("populate: %w", err)
		}
		placed++
	}

	if placed < count {
		slog.Warn("grid too small for requested population", "requested", count, "placed", placed)
	}
	return placed, nil
}

// CategoryCounts returns how many on-grid agents fall in each display category.
func (s *Simulation) CategoryCounts() map[agents.Category]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[agents.Category]int, agents.NumCategories)
	for _, a := range s.Agents {
		counts[a.Category()]++
	}
	return counts
}
