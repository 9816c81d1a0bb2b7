package engine

import (
	"github.com/talgya/stampede/internal/agents"
	"github.com/talgya/stampede/internal/grid"
)

// CellView is the render-facing state of one cell.
type CellView struct {
	X        int            `json:"x"`
	Y        int            `json:"y"`
	Terrain  grid.Terrain   `json:"terrain"`
	Occupant agents.AgentID `json:"occupant,omitempty"`
}

// AgentView is the render-facing state of one agent.
type AgentView struct {
	ID              agents.AgentID  `json:"id"`
	X               int             `json:"x"`
	Y               int             `json:"y"`
	IsStrong        bool            `json:"is_strong"`
	IsRational      bool            `json:"is_rational"`
	IsRelaxed       bool            `json:"is_relaxed"`
	Vulnerable      bool            `json:"vulnerable"`
	IsFallen        bool            `json:"is_fallen"`
	IsDead          bool            `json:"is_dead"`
	FallenCounter   int             `json:"fallen_counter"`
	BlockedCounter  int             `json:"blocked_counter"`
	TrampledCounter int             `json:"trampled_counter"`
	Heading         string          `json:"heading"`
	Category        agents.Category `json:"-"`
	CategoryKey     string          `json:"category"`
}

// Snapshot is a consistent copy of the simulation between ticks.
type Snapshot struct {
	Tick   uint64      `json:"tick"`
	Rows   int         `json:"rows"`
	Cols   int         `json:"cols"`
	Cells  []CellView  `json:"cells"` // Row-major
	Agents []AgentView `json:"agents"`
	Stats  SimStats    `json:"stats"`
}

// Cell returns the view of (x, y). The coordinate must be in bounds.
func (sn *Snapshot) Cell(x, y int) CellView {
	return sn.Cells[x*sn.Cols+y]
}

// Agent returns the view of an on-grid agent by id.
func (sn *Snapshot) Agent(id agents.AgentID) (AgentView, bool) {
	for _, a := range sn.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return AgentView{}, false
}

// Snapshot copies grid and agent state under the read lock, so it never
// observes a half-applied tick.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sn := Snapshot{
		Tick:   s.LastTick,
		Rows:   s.Grid.Rows,
		Cols:   s.Grid.Cols,
		Cells:  make([]CellView, 0, s.Grid.Size()),
		Agents: make([]AgentView, 0, len(s.Agents)),
		Stats:  s.Stats,
	}
	s.Grid.Cells(func(c *grid.Cell) {
		sn.Cells = append(sn.Cells, CellView{
			X:        c.Coord.X,
			Y:        c.Coord.Y,
			Terrain:  c.Terrain,
			Occupant: agents.AgentID(c.Occupant),
		})
	})
	for _, a := range s.Agents {
		sn.Agents = append(sn.Agents, viewOf(a))
	}
	return sn
}

// RecentEvents returns up to limit of the newest events, oldest first.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if limit > 0 && len(s.Events) > limit {
		start = len(s.Events) - limit
	}
	out := make([]Event, len(s.Events)-start)
	copy(out, s.Events[start:])
	return out
}

// EventsSince returns the buffered events from ticks after the given one.
func (s *Simulation) EventsSince(tick uint64) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := len(s.Events)
	for i > 0 && s.Events[i-1].Tick > tick {
		i--
	}
	out := make([]Event, len(s.Events)-i)
	copy(out, s.Events[i:])
	return out
}

func viewOf(a *agents.Agent) AgentView {
	cat := a.Category()
	return AgentView{
		ID:              a.ID,
		X:               a.Location.X,
		Y:               a.Location.Y,
		IsStrong:        a.IsStrong,
		IsRational:      a.IsRational,
		IsRelaxed:       a.IsRelaxed,
		Vulnerable:      a.Vulnerable,
		IsFallen:        a.IsFallen,
		IsDead:          a.IsDead,
		FallenCounter:   a.FallenCounter,
		BlockedCounter:  a.BlockedCounter,
		TrampledCounter: a.TrampledCounter,
		Heading:         a.Heading.String(),
		Category:        cat,
		CategoryKey:     cat.Key(),
	}
}
