package engine

import (
	"log/slog"

	"golang.org/x/exp/slices"

	"github.com/talgya/stampede/internal/agents"
	"github.com/talgya/stampede/internal/grid"
	"github.com/talgya/stampede/internal/pathfind"
)

// TickReport summarises what one tick changed.
type TickReport struct {
	Tick      uint64 `json:"tick"`
	Moved     int    `json:"moved"`
	Blocked   int    `json:"blocked"`
	Evacuated int    `json:"evacuated"`
	Fell      int    `json:"fell"`
	Trampled  int    `json:"trampled"`
	Died      int    `json:"died"`
	Recovered int    `json:"recovered"`
}

// plan is one agent's view of the tick, computed before anyone moves.
type plan struct {
	agent    *agents.Agent
	direct   []grid.Coord // Ignores other agents
	cautious []grid.Coord // Treats other agents as obstacles
	distance int          // Manhattan distance to the nearest exit
}

// AdvanceTick runs one simulation step:
//
//  1. agents already standing on an exit are evacuated;
//  2. every active agent computes an agent-blind and an agent-aware path
//     against the same occupancy snapshot;
//  3. agents are ordered by distance to their nearest exit, closest first;
//  4. moves are applied one at a time in that order, each seeing the moves
//     before it;
//  5. lifecycle counters advance and occupied exits are cleared.
//
// Fallen and dead agents stay on the grid but never move.
func (s *Simulation) AdvanceTick() TickReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	tick := s.LastTick + 1
	s.LastTick = tick
	report := TickReport{Tick: tick}

	// Exit eviction before planning; an exit is passable in both search
	// modes, so clearing it first does not change any path.
	for _, a := range s.Agents {
		if !a.Active() {
			continue
		}
		if id, ok := s.Grid.ClearIfExit(s.Grid.At(a.Location)); ok && agents.AgentID(id) == a.ID {
			s.evacuate(a, tick)
			report.Evacuated++
		}
	}

	plans := make([]plan, 0, len(s.Agents))
	for _, a := range s.Agents {
		if !a.Active() {
			continue
		}
		direct, _ := pathfind.FindPath(s.Grid, a.Location, false)
		cautious, _ := pathfind.FindPath(s.Grid, a.Location, true)
		dist, _ := s.Grid.NearestExitDistance(a.Location)
		plans = append(plans, plan{agent: a, direct: direct, cautious: cautious, distance: dist})
	}

	slices.SortStableFunc(plans, func(a, b plan) int {
		if a.distance != b.distance {
			return a.distance - b.distance
		}
		switch {
		case a.agent.ID < b.agent.ID:
			return -1
		case a.agent.ID > b.agent.ID:
			return 1
		}
		return 0
	})

	for i := range plans {
		p := &plans[i]
		a := p.agent
		if !a.Active() {
			// Knocked down earlier this tick by a higher-priority agent.
			continue
		}

		before := a.Location
		s.resolveMove(p, tick, &report)
		if a.Location == before {
			a.Blocked()
			report.Blocked++
		} else {
			a.ResetBlocked()
			report.Moved++
		}
	}

	for _, a := range s.Agents {
		if a.Evacuated {
			continue
		}
		change := a.UpdateStatus()
		if change.Has(agents.ChangeDied) {
			report.Died++
			s.emit(tick, a, EventDied, "agent %d was trampled to death at %s", a.ID, a.Location)
			slog.Info("agent died", "agent", a.ID, "tick", tick, "at", a.Location.String())
		}
		if change.Has(agents.ChangeRecovered) {
			report.Recovered++
			s.emit(tick, a, EventRecovered, "agent %d got back up at %s", a.ID, a.Location)
		}
		if change.Has(agents.ChangeUnnerved) {
			s.emit(tick, a, EventUnnerved, "agent %d lost composure after being blocked", a.ID)
		}
	}

	for _, exit := range s.Grid.Exits() {
		id, ok := s.Grid.ClearIfExit(s.Grid.At(exit))
		if !ok {
			continue
		}
		if a := s.AgentIndex[agents.AgentID(id)]; a != nil {
			s.evacuate(a, tick)
			report.Evacuated++
		}
	}

	s.pruneEvacuated()
	s.updateStats()

	slog.Debug("tick resolved",
		"tick", tick,
		"planned", len(plans),
		"moved", report.Moved,
		"blocked", report.Blocked,
		"evacuated", report.Evacuated,
		"died", report.Died,
	)
	return report
}

// usableStep returns the first step of path if that cell is free and not an
// obstacle right now.
func (s *Simulation) usableStep(path []grid.Coord) (grid.Coord, bool) {
	next, ok := pathfind.NextStep(path)
	if !ok {
		return grid.Coord{}, false
	}
	cell := s.Grid.At(next)
	if cell == nil || !cell.Passable() || cell.Occupied() {
		return grid.Coord{}, false
	}
	return next, true
}

// resolveMove applies one agent's move. The agent-blind route is preferred,
// the agent-aware route is the fallback; if neither first step is free the
// contact rules decide between trampling, shoving, or waiting.
func (s *Simulation) resolveMove(p *plan, tick uint64, report *TickReport) {
	if next, ok := s.usableStep(p.direct); ok {
		s.moveAgent(p.agent, next)
		return
	}
	if next, ok := s.usableStep(p.cautious); ok {
		s.moveAgent(p.agent, next)
		return
	}
	s.contact(p, tick, report)
}

// contact handles an agent whose way forward is physically blocked by someone.
//
// Irrational agents step over a fallen body onto the following cell of their
// direct route when the route runs straight through the body and that cell is
// free, trampling the fallen agent. Strong
// irrational agents knock a vulnerable agent in their way to the ground and
// stay put. Everyone else waits. No two agents ever swap cells.
func (s *Simulation) contact(p *plan, tick uint64, report *TickReport) {
	a := p.agent
	if a.IsRational {
		return
	}
	next, ok := pathfind.NextStep(p.direct)
	if !ok {
		return
	}
	other := s.AgentAt(next)
	if other == nil || other.IsDead {
		return
	}

	switch {
	case other.IsFallen:
		if len(p.direct) < 3 {
			return
		}
		beyond := p.direct[2]
		if !straight(p.direct[0], next, beyond) {
			return
		}
		cell := s.Grid.At(beyond)
		if cell == nil || !cell.Passable() || cell.Occupied() {
			return
		}
		other.Trampled()
		report.Trampled++
		s.emit(tick, other, EventTrampled, "agent %d trampled by agent %d", other.ID, a.ID)
		s.moveAgent(a, beyond)

	case a.IsStrong && other.Vulnerable && other.Active():
		if s.Grid.At(next).Terrain == grid.TerrainExit {
			return
		}
		other.Fall()
		report.Fell++
		s.emit(tick, other, EventFell, "agent %d knocked down by agent %d at %s", other.ID, a.ID, other.Location)
	}
}

// straight reports whether a, b and c are consecutive cells on one row or column.
func straight(a, b, c grid.Coord) bool {
	d1, ok1 := grid.DirectionBetween(a, b)
	d2, ok2 := grid.DirectionBetween(b, c)
	return ok1 && ok2 && d1 == d2
}

// moveAgent moves a to an empty cell, keeping cell and agent in step.
func (s *Simulation) moveAgent(a *agents.Agent, to grid.Coord) {
	from := a.Location
	if err := s.Grid.Move(from, to); err != nil {
		slog.Warn("move rejected", "agent", a.ID, "from", from.String(), "to", to.String(), "error", err)
		return
	}
	a.Location = to
	if dir, ok := grid.DirectionBetween(from, to); ok {
		a.Heading = dir
	}
}
