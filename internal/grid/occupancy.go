package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned for coordinates outside the grid.
	ErrOutOfBounds = errors.New("coordinate out of bounds")
	// ErrNotWalkable is returned when placing onto an obstacle or exit.
	ErrNotWalkable = errors.New("cell is not walkable")
	// ErrImpassable is returned when moving onto an obstacle.
	ErrImpassable = errors.New("cell is impassable")
	// ErrOccupied is returned when the target cell already has an occupant.
	ErrOccupied = errors.New("cell is occupied")
)

// Place puts an agent on an empty walkable cell.
func (g *Grid) Place(at Coord, agentID uint64) error {
	c := g.At(at)
	if c == nil {
		return fmt.Errorf("place %s: %w", at, ErrOutOfBounds)
	}
	if c.Terrain != TerrainWalkable {
		return fmt.Errorf("place %s: %w", at, ErrNotWalkable)
	}
	if c.Occupied() {
		return fmt.Errorf("place %s: %w", at, ErrOccupied)
	}
	c.Occupant = agentID
	return nil
}

// Move transfers the occupant of from onto to as one pair update: either both
// cells change or neither does. Exit cells are valid targets.
func (g *Grid) Move(from, to Coord) error {
	src := g.At(from)
	dst := g.At(to)
	if src == nil || dst == nil {
		return fmt.Errorf("move %s->%s: %w", from, to, ErrOutOfBounds)
	}
	if !dst.Passable() {
		return fmt.Errorf("move %s->%s: %w", from, to, ErrImpassable)
	}
	if dst.Occupied() {
		return fmt.Errorf("move %s->%s: %w", from, to, ErrOccupied)
	}
	dst.Occupant = src.Occupant
	src.Occupant = 0
	return nil
}

// Vacate empties a cell and returns whoever stood there.
func (g *Grid) Vacate(at Coord) uint64 {
	c := g.At(at)
	if c == nil {
		return 0
	}
	id := c.Occupant
	c.Occupant = 0
	return id
}

// ClearIfExit detaches the occupant of an occupied exit cell and returns its id.
// Calling it on an empty exit or a non-exit cell is a no-op.
func (g *Grid) ClearIfExit(c *Cell) (uint64, bool) {
	if c == nil || c.Terrain != TerrainExit || !c.Occupied() {
		return 0, false
	}
	id := c.Occupant
	c.Occupant = 0
	return id, true
}
