// Package pathfind provides A* search from a cell to the nearest reachable exit.
//
// Each call allocates its own search context keyed by cell id, so cells carry
// no scratch state and independent searches never see each other's costs.
package pathfind

import (
	"container/heap"
	"math"

	"github.com/talgya/stampede/internal/grid"
)

const unvisited = math.MaxInt32

// node is the per-cell scratch record for one search.
type node struct {
	cell   *grid.Cell
	g      int
	h      int
	f      int
	parent int // Cell id, grid.NoCell for the start
	closed bool
	index  int // Position in the frontier heap, -1 when not queued
}

// frontier orders nodes by f, then h, then row, then column, so equal-cost
// candidates always expand in the same order.
type frontier []*node

func (pq frontier) Len() int { return len(pq) }

func (pq frontier) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.h != b.h {
		return a.h < b.h
	}
	if a.cell.Coord.X != b.cell.Coord.X {
		return a.cell.Coord.X < b.cell.Coord.X
	}
	return a.cell.Coord.Y < b.cell.Coord.Y
}

func (pq frontier) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *frontier) Push(x any) {
	n := x.(*node)
	n.index = len(*pq)
	*pq = append(*pq, n)
}

func (pq *frontier) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// search is the context of a single FindPath call.
type search struct {
	g           *grid.Grid
	avoidAgents bool
	nodes       []node
	open        frontier
}

func newSearch(g *grid.Grid, avoidAgents bool) *search {
	s := &search{
		g:           g,
		avoidAgents: avoidAgents,
		nodes:       make([]node, g.Size()),
	}
	for i := range s.nodes {
		s.nodes[i] = node{g: unvisited, f: unvisited, parent: grid.NoCell, index: -1}
	}
	return s
}

// heuristic is the Manhattan distance to the closest exit, recomputed per cell
// because the nearest exit depends on position.
func (s *search) heuristic(c *grid.Cell) int {
	d, _ := s.g.NearestExitDistance(c.Coord)
	return d
}

// passable reports whether the search may step onto c. When avoiding agents,
// occupied cells count as obstacles unless they are exits.
func (s *search) passable(c *grid.Cell) bool {
	if !c.Passable() {
		return false
	}
	if s.avoidAgents && c.Occupied() && c.Terrain != grid.TerrainExit {
		return false
	}
	return true
}

// FindPath returns the cells from start to the nearest reachable exit,
// inclusive of both ends. With avoidAgents, occupied non-exit cells are
// impassable for this search; otherwise occupancy is ignored. Returns
// (nil, false) when no exit is reachable.
func FindPath(g *grid.Grid, start grid.Coord, avoidAgents bool) ([]grid.Coord, bool) {
	startCell := g.At(start)
	if startCell == nil || !startCell.Passable() || len(g.Exits()) == 0 {
		return nil, false
	}

	s := newSearch(g, avoidAgents)
	startID := g.CellID(startCell)
	first := &s.nodes[startID]
	first.cell = startCell
	first.g = 0
	first.h = s.heuristic(startCell)
	first.f = first.h
	heap.Push(&s.open, first)

	for s.open.Len() > 0 {
		current := heap.Pop(&s.open).(*node)
		current.closed = true
		if current.cell.Terrain == grid.TerrainExit {
			return s.reconstruct(current), true
		}

		for _, dir := range grid.Directions {
			next := g.Neighbor(current.cell, dir)
			if next == nil || !s.passable(next) {
				continue
			}
			n := &s.nodes[g.CellID(next)]
			if n.closed {
				continue
			}
			tentative := current.g + 1
			if tentative >= n.g {
				continue
			}
			n.cell = next
			n.g = tentative
			n.h = s.heuristic(next)
			n.f = tentative + n.h
			n.parent = g.CellID(current.cell)
			if n.index >= 0 {
				heap.Fix(&s.open, n.index)
			} else {
				heap.Push(&s.open, n)
			}
		}
	}

	return nil, false
}

func (s *search) reconstruct(end *node) []grid.Coord {
	path := make([]grid.Coord, 0, end.g+1)
	for n := end; ; n = &s.nodes[n.parent] {
		path = append(path, n.cell.Coord)
		if n.parent == grid.NoCell {
			break
		}
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// NextStep returns the first move along a path, if it has one.
func NextStep(path []grid.Coord) (grid.Coord, bool) {
	if len(path) < 2 {
		return grid.Coord{}, false
	}
	return path[1], true
}
