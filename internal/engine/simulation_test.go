package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/talgya/stampede/internal/agents"
	"github.com/talgya/stampede/internal/grid"
)

func TestPopulatePlacesOnFreeWalkableCells(t *testing.T) {
	sim := newTestSim(t, "000X", "0X0E", "0000")
	placed, err := Populate(sim, agents.NewSpawner(5, agents.DefaultTraitOdds()), 6)
	if err != nil {
		t.Fatal(err)
	}
	if placed != 6 || len(sim.Agents) != 6 {
		t.Fatalf("placed=%d agents=%d", placed, len(sim.Agents))
	}
	checkOccupancy(t, sim)
	for _, a := range sim.Agents {
		if sim.Grid.At(a.Location).Terrain != grid.TerrainWalkable {
			t.Errorf("agent %d spawned on %s", a.ID, grid.TerrainName(sim.Grid.At(a.Location).Terrain))
		}
	}
}

func TestPopulateFillsSmallGrid(t *testing.T) {
	sim := newTestSim(t, "00E")
	placed, err := Populate(sim, agents.NewSpawner(1, agents.DefaultTraitOdds()), 10)
	if err != nil {
		t.Fatal(err)
	}
	if placed != 2 {
		t.Errorf("placed = %d, want 2 (walkable cells)", placed)
	}
	if _, err := Populate(sim, agents.NewSpawner(1, agents.DefaultTraitOdds()), -1); err == nil {
		t.Error("negative count should error")
	}
}

func TestPopulateIsReproducible(t *testing.T) {
	layout := []string{"00000", "0X0X0", "0000E"}
	run := func() []agents.Agent {
		sim := NewSimulation(grid.Build(3, 5, layout))
		if _, err := Populate(sim, agents.NewSpawner(77, agents.DefaultTraitOdds()), 5); err != nil {
			t.Fatal(err)
		}
		out := make([]agents.Agent, len(sim.Agents))
		for i, a := range sim.Agents {
			out[i] = *a
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("agent %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

// Random crowds on random layouts must keep every structural invariant.
func TestInvariantsOverRandomRuns(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	for trial := 0; trial < 25; trial++ {
		rows, cols := 4+rng.Intn(6), 4+rng.Intn(6)
		layout := make([]string, rows)
		for x := range layout {
			row := make([]byte, cols)
			for y := range row {
				switch r := rng.Float64(); {
				case r < 0.15:
					row[y] = 'X'
				case r < 0.2:
					row[y] = 'E'
				default:
					row[y] = '0'
				}
			}
			layout[x] = string(row)
		}
		sim := NewSimulation(grid.Build(rows, cols, layout))
		odds := agents.TraitOdds{Strong: 0.5, Rational: 0.3, Relaxed: 0.4}
		if _, err := Populate(sim, agents.NewSpawner(int64(trial+1), odds), rows*cols/2); err != nil {
			t.Fatal(err)
		}
		// A few start on the ground so trampling can happen.
		for i, a := range sim.Agents {
			if i%4 == 0 {
				a.Fall()
			}
		}

		everyone := append([]*agents.Agent(nil), sim.Agents...)
		wasRelaxed := make(map[agents.AgentID]bool)
		wasDead := make(map[agents.AgentID]bool)
		for tick := 0; tick < 40; tick++ {
			for _, a := range everyone {
				wasRelaxed[a.ID] = a.IsRelaxed
				wasDead[a.ID] = a.IsDead
			}
			deadAt := make(map[agents.AgentID]grid.Coord)
			for _, a := range everyone {
				if a.IsDead {
					deadAt[a.ID] = a.Location
				}
			}

			sim.AdvanceTick()
			checkOccupancy(t, sim)

			for _, a := range everyone {
				if a.IsRelaxed && !wasRelaxed[a.ID] {
					t.Fatalf("trial %d: agent %d became relaxed again", trial, a.ID)
				}
				if wasDead[a.ID] && (!a.IsDead || a.IsFallen) {
					t.Fatalf("trial %d: agent %d left the dead state", trial, a.ID)
				}
				if at, ok := deadAt[a.ID]; ok && a.Location != at {
					t.Fatalf("trial %d: dead agent %d moved", trial, a.ID)
				}
				if a.IsDead && a.Evacuated {
					t.Fatalf("trial %d: dead agent %d evacuated", trial, a.ID)
				}
			}

			stats := sim.Stats
			if stats.OnGrid()+stats.Evacuated != stats.Spawned {
				t.Fatalf("trial %d: stats do not add up: %+v", trial, stats)
			}
		}
	}
}

func TestSnapshotReflectsState(t *testing.T) {
	sim := newTestSim(t, "0X0E")
	a := spawn(t, sim, 0, 0, true, false, false)
	b := spawn(t, sim, 0, 2, false, true, false)
	b.Fall()

	sn := sim.Snapshot()
	if sn.Rows != 1 || sn.Cols != 4 || len(sn.Cells) != 4 {
		t.Fatalf("snapshot dims %dx%d cells=%d", sn.Rows, sn.Cols, len(sn.Cells))
	}
	if c := sn.Cell(0, 1); c.Terrain != grid.TerrainObstacle {
		t.Errorf("(0,1) terrain = %d", c.Terrain)
	}
	if c := sn.Cell(0, 0); c.Occupant != a.ID {
		t.Errorf("(0,0) occupant = %d", c.Occupant)
	}

	av, ok := sn.Agent(a.ID)
	if !ok || av.Category != agents.CategoryStrongIrrational || av.CategoryKey != "strong-irrational" {
		t.Errorf("agent a view = %+v", av)
	}
	bv, ok := sn.Agent(b.ID)
	if !ok || !bv.IsFallen || bv.Category != agents.CategoryFallen {
		t.Errorf("agent b view = %+v", bv)
	}

	// Snapshot is a copy.
	sim.AdvanceTick()
	if sn.Tick != 0 {
		t.Error("snapshot changed after a tick")
	}

	counts := sim.CategoryCounts()
	if counts[agents.CategoryFallen] != 1 {
		t.Errorf("category counts = %v", counts)
	}
}

func TestRecentEventsLimit(t *testing.T) {
	sim := newTestSim(t, "0")
	a := spawn(t, sim, 0, 0, true, true, true)
	for i := 0; i < 5; i++ {
		sim.emit(uint64(i), a, EventFell, "event %d", i)
	}
	got := sim.RecentEvents(2)
	if len(got) != 2 || got[0].Description != "event 3" || got[1].Description != "event 4" {
		t.Errorf("recent = %+v", got)
	}
	if drained := sim.DrainEvents(); len(drained) != 5 || len(sim.Events) != 0 {
		t.Errorf("drained %d, left %d", len(drained), len(sim.Events))
	}
}

func TestEventsSince(t *testing.T) {
	sim := newTestSim(t, "0")
	a := spawn(t, sim, 0, 0, true, true, true)
	sim.emit(1, a, EventFell, "one")
	sim.emit(2, a, EventRecovered, "two")
	sim.emit(2, a, EventUnnerved, "three")

	if got := sim.EventsSince(1); len(got) != 2 || got[0].Description != "two" {
		t.Errorf("since 1 = %+v", got)
	}
	if got := sim.EventsSince(0); len(got) != 3 {
		t.Errorf("since 0 = %d events", len(got))
	}
	if got := sim.EventsSince(2); len(got) != 0 {
		t.Errorf("since 2 = %+v", got)
	}
}

func TestEngineStepHonoursMaxTicks(t *testing.T) {
	e := NewEngine()
	e.MaxTicks = 3
	var seen []uint64
	e.OnTick = func(tick uint64) { seen = append(seen, tick) }

	for i := 0; i < 2; i++ {
		if e.Step() {
			t.Fatalf("finished early at step %d", i+1)
		}
	}
	if !e.Step() {
		t.Error("third step should finish the run")
	}
	if len(seen) != 3 || seen[2] != 3 || e.Tick() != 3 {
		t.Errorf("ticks seen %v, engine tick %d", seen, e.Tick())
	}
}

func TestEngineRunStopsWhenDone(t *testing.T) {
	sim := newTestSim(t, "00E")
	spawn(t, sim, 0, 0, true, true, false)

	e := NewEngine()
	e.Interval = time.Millisecond
	e.OnTick = func(uint64) { sim.AdvanceTick() }
	e.Done = sim.Done

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.Run(ctx)

	if !sim.Done() {
		t.Error("run returned before the crowd was out")
	}
	if e.Tick() != 2 || sim.CurrentTick() != 2 {
		t.Errorf("engine tick %d, sim tick %d, want 2", e.Tick(), sim.CurrentTick())
	}
	if e.Running() {
		t.Error("engine still marked running")
	}
}

func TestEngineStopAndPause(t *testing.T) {
	e := NewEngine()
	e.SetSpeed(-4)
	if e.Speed() != 0 {
		t.Errorf("speed = %v, want clamped to 0", e.Speed())
	}

	done := make(chan struct{})
	go func() {
		e.Run(context.Background())
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !e.Running() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	e.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not end a paused run")
	}
	if e.Tick() != 0 {
		t.Errorf("paused engine ran %d ticks", e.Tick())
	}
}
