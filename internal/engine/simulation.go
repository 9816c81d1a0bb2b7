// Simulation owns the grid and the crowd and resolves one tick at a time.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/talgya/stampede/internal/agents"
	"github.com/talgya/stampede/internal/grid"
)

// maxEvents bounds the in-memory event log.
const maxEvents = 2000

// ErrCellUnavailable is returned when a spawn targets an occupied or
// non-walkable cell. Callers retry elsewhere.
var ErrCellUnavailable = errors.New("spawn cell unavailable")

// Simulation holds the complete crowd state. Nothing about it is global, so
// several simulations can run side by side.
type Simulation struct {
	mu sync.RWMutex

	Grid       *grid.Grid
	Agents     []*agents.Agent // Everyone still on the grid (active, fallen, dead)
	AgentIndex map[agents.AgentID]*agents.Agent
	Evacuated  []*agents.Agent
	Events     []Event // Recent events, oldest first
	LastTick   uint64  // Most recent tick processed

	Stats SimStats

	nextID agents.AgentID
}

// Event is a notable occurrence during the evacuation.
type Event struct {
	Tick        uint64         `json:"tick" db:"tick"`
	AgentID     agents.AgentID `json:"agent_id" db:"agent_id"`
	Description string         `json:"description" db:"description"`
	Category    string         `json:"category" db:"category"` // "evacuated", "fell", "trampled", "died", ...
}

// Event categories.
const (
	EventEvacuated = "evacuated"
	EventFell      = "fell"
	EventTrampled  = "trampled"
	EventDied      = "died"
	EventRecovered = "recovered"
	EventUnnerved  = "unnerved"
)

// SimStats tracks aggregate crowd statistics.
type SimStats struct {
	Spawned   int `json:"spawned"`
	Active    int `json:"active"`
	Fallen    int `json:"fallen"`
	Dead      int `json:"dead"`
	Evacuated int `json:"evacuated"`
}

// OnGrid returns the number of agents still standing or lying on the grid.
func (s SimStats) OnGrid() int {
	return s.Active + s.Fallen + s.Dead
}

// NewSimulation creates an empty simulation on g.
func NewSimulation(g *grid.Grid) *Simulation {
	return &Simulation{
		Grid:       g,
		AgentIndex: make(map[agents.AgentID]*agents.Agent),
		nextID:     1,
	}
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// SpawnAgent places a new agent at (x, y). The cell must be walkable and empty.
func (s *Simulation) SpawnAgent(x, y int, strong, rational, relaxed bool) (*agents.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	a := agents.New(id, strong, rational, relaxed, grid.Coord{X: x, Y: y})
	if err := s.addAgent(a); err != nil {
		return nil, err
	}
	return a, nil
}

// addAgent claims the agent's cell and registers it. Caller holds the lock.
func (s *Simulation) addAgent(a *agents.Agent) error {
	if _, exists := s.AgentIndex[a.ID]; exists || a.ID == 0 {
		return fmt.Errorf("spawn agent %d: duplicate id", a.ID)
	}
	if err := s.Grid.Place(a.Location, uint64(a.ID)); err != nil {
		return fmt.Errorf("spawn agent %d: %w: %w", a.ID, ErrCellUnavailable, err)
	}
	a.SpawnTick = s.LastTick
	s.Agents = append(s.Agents, a)
	s.AgentIndex[a.ID] = a
	if a.ID >= s.nextID {
		s.nextID = a.ID + 1
	}
	s.Stats.Spawned++
	s.updateStats()
	return nil
}

// AgentAt returns the agent occupying c, if any.
func (s *Simulation) AgentAt(c grid.Coord) *agents.Agent {
	cell := s.Grid.At(c)
	if cell == nil || !cell.Occupied() {
		return nil
	}
	return s.AgentIndex[agents.AgentID(cell.Occupant)]
}

// Done reports whether nobody left on the grid can still move: everyone is
// either evacuated or dead.
func (s *Simulation) Done() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Stats.Active == 0 && s.Stats.Fallen == 0
}

// DrainEvents returns and clears the event log.
func (s *Simulation) DrainEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.Events
	s.Events = nil
	return events
}

func (s *Simulation) emit(tick uint64, a *agents.Agent, category, format string, args ...any) {
	s.Events = append(s.Events, Event{
		Tick:        tick,
		AgentID:     a.ID,
		Description: fmt.Sprintf(format, args...),
		Category:    category,
	})
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

// evacuate marks an agent as having left through an exit. The caller has
// already cleared its cell.
func (s *Simulation) evacuate(a *agents.Agent, tick uint64) {
	a.Evacuated = true
	a.EvacuatedTick = tick
	s.Evacuated = append(s.Evacuated, a)
	delete(s.AgentIndex, a.ID)
	s.emit(tick, a, EventEvacuated, "agent %d evacuated at %s", a.ID, a.Location)
	slog.Debug("agent evacuated", "agent", a.ID, "tick", tick, "exit", a.Location.String())
}

// pruneEvacuated drops evacuated agents from the on-grid collection.
func (s *Simulation) pruneEvacuated() {
	kept := s.Agents[:0]
	for _, a := range s.Agents {
		if !a.Evacuated {
			kept = append(kept, a)
		}
	}
	for i := len(kept); i < len(s.Agents); i++ {
		s.Agents[i] = nil
	}
	s.Agents = kept
}

func (s *Simulation) updateStats() {
	spawned := s.Stats.Spawned
	s.Stats = SimStats{Spawned: spawned, Evacuated: len(s.Evacuated)}
	for _, a := range s.Agents {
		switch {
		case a.IsDead:
			s.Stats.Dead++
		case a.IsFallen:
			s.Stats.Fallen++
		default:
			s.Stats.Active++
		}
	}
}
