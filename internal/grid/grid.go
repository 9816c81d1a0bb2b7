// Package grid provides the rectangular cell lattice the crowd moves on.
// Cells have a terrain kind, at most one occupant, and fixed 4-directional links.
package grid

import "fmt"

// Coord is a grid position. X is the row index and Y the column index,
// so Coord{X: x, Y: y} addresses layout[x][y].
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Manhattan returns the 4-connected distance between two coordinates.
func Manhattan(a, b Coord) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Terrain types for cells.
type Terrain uint8

const (
	TerrainWalkable Terrain = iota
	TerrainObstacle         // Never passable, never occupied
	TerrainExit             // Anyone standing here is evacuated
)

// TerrainName returns a human-readable terrain label.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainWalkable:
		return "walkable"
	case TerrainObstacle:
		return "obstacle"
	case TerrainExit:
		return "exit"
	}
	return "unknown"
}

// Char returns the layout character for t.
func (t Terrain) Char() byte {
	switch t {
	case TerrainObstacle:
		return 'X'
	case TerrainExit:
		return 'E'
	}
	return '0'
}

// TerrainForChar maps a layout character to its terrain.
func TerrainForChar(ch byte) Terrain {
	switch ch {
	case 'X':
		return TerrainObstacle
	case 'E':
		return TerrainExit
	default:
		return TerrainWalkable
	}
}

// NoCell marks a missing neighbour link on the boundary.
const NoCell = -1

// Cell is a single grid node.
type Cell struct {
	Coord    Coord   `json:"coord"`
	Terrain  Terrain `json:"terrain"`
	Occupant uint64  `json:"occupant,omitempty"` // Agent ID, 0 when empty

	links [4]int // Neighbour cell ids indexed by Direction, NoCell at edges
}

// Occupied reports whether an agent stands on the cell.
func (c *Cell) Occupied() bool {
	return c.Occupant != 0
}

// Passable reports whether the terrain can ever be stood on.
func (c *Cell) Passable() bool {
	return c.Terrain != TerrainObstacle
}

// Grid holds the full lattice. Cells are stored row-major.
type Grid struct {
	Rows  int
	Cols  int
	cells []Cell
	exits []Coord
}

// Build constructs a rows×cols grid. Layout rows are read character by
// character ('X' obstacle, 'E' exit, anything else walkable); missing rows or
// characters are walkable. Neighbour links are wired once here and never change.
func Build(rows, cols int, layout []string) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	g := &Grid{
		Rows:  rows,
		Cols:  cols,
		cells: make([]Cell, rows*cols),
	}

	for x := 0; x < rows; x++ {
		for y := 0; y < cols; y++ {
			terrain := TerrainWalkable
			if x < len(layout) && y < len(layout[x]) {
				terrain = TerrainForChar(layout[x][y])
			}

			c := &g.cells[g.id(x, y)]
			c.Coord = Coord{X: x, Y: y}
			c.Terrain = terrain
			for dir := range c.links {
				c.links[dir] = NoCell
				nx, ny := x+dirDeltas[dir].X, y+dirDeltas[dir].Y
				if g.InBounds(nx, ny) {
					c.links[dir] = g.id(nx, ny)
				}
			}

			if terrain == TerrainExit {
				g.exits = append(g.exits, c.Coord)
			}
		}
	}

	return g
}

func (g *Grid) id(x, y int) int {
	return x*g.Cols + y
}

// InBounds returns true if (x, y) lies inside the grid.
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Rows && y < g.Cols
}

// Size returns the number of cells.
func (g *Grid) Size() int {
	return len(g.cells)
}

// CellAt returns the cell at (x, y), or nil if out of bounds.
func (g *Grid) CellAt(x, y int) *Cell {
	if !g.InBounds(x, y) {
		return nil
	}
	return &g.cells[g.id(x, y)]
}

// At returns the cell at a coordinate, or nil if out of bounds.
func (g *Grid) At(c Coord) *Cell {
	return g.CellAt(c.X, c.Y)
}

// CellID returns the dense index of a cell, usable as a key into per-search tables.
func (g *Grid) CellID(c *Cell) int {
	return g.id(c.Coord.X, c.Coord.Y)
}

// Neighbor returns the adjacent cell in a direction, or nil at the boundary.
func (g *Grid) Neighbor(c *Cell, dir Direction) *Cell {
	if dir < 0 || int(dir) >= len(c.links) {
		return nil
	}
	id := c.links[dir]
	if id == NoCell {
		return nil
	}
	return &g.cells[id]
}

// Neighbors returns the existing neighbours of a cell in N, S, E, W order.
func (g *Grid) Neighbors(c *Cell) []*Cell {
	result := make([]*Cell, 0, 4)
	for _, dir := range Directions {
		if n := g.Neighbor(c, dir); n != nil {
			result = append(result, n)
		}
	}
	return result
}

// Cells calls fn for every cell in row-major order.
func (g *Grid) Cells(fn func(c *Cell)) {
	for i := range g.cells {
		fn(&g.cells[i])
	}
}

// Exits returns the coordinates of all exit cells in row-major order.
func (g *Grid) Exits() []Coord {
	return g.exits
}

// NearestExitDistance returns the Manhattan distance from c to the closest exit.
// Returns false if the grid has no exits.
func (g *Grid) NearestExitDistance(c Coord) (int, bool) {
	if len(g.exits) == 0 {
		return 0, false
	}
	best := Manhattan(c, g.exits[0])
	for _, e := range g.exits[1:] {
		if d := Manhattan(c, e); d < best {
			best = d
		}
	}
	return best, true
}

// TerrainCounts returns the number of cells per terrain kind.
func TerrainCounts(g *Grid) map[Terrain]int {
	counts := make(map[Terrain]int)
	for i := range g.cells {
		counts[g.cells[i].Terrain]++
	}
	return counts
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, exits=%d)", g.Rows, g.Cols, len(g.exits))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
