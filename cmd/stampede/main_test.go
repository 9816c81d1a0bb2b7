package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/stampede/internal/engine"
	"github.com/talgya/stampede/internal/grid"
	"github.com/talgya/stampede/internal/persistence"
)

func TestRecorderWritesEachEventOnce(t *testing.T) {
	db, err := persistence.Open(filepath.Join(t.TempDir(), "rec.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	run, err := db.BeginRun("corridor", 1, 1, 3, 2)
	if err != nil {
		t.Fatal(err)
	}

	sim := engine.NewSimulation(grid.Build(1, 3, []string{"00E"}))
	sim.SpawnAgent(0, 0, true, true, false)
	sim.SpawnAgent(0, 1, true, true, false)
	rec := &recorder{db: db, runID: run.ID, sim: sim}

	for !sim.Done() {
		rec.record(sim.AdvanceTick())
		// A second save of the same tick must not duplicate events.
		rec.record(engine.TickReport{Tick: sim.CurrentTick()})
	}

	events, err := db.RunEvents(run.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Errorf("events = %+v, want two evacuations", events)
	}
	hist, _ := db.TickHistory(run.ID, 0)
	if len(hist) != int(sim.CurrentTick()) {
		t.Errorf("history rows = %d, ticks = %d", len(hist), sim.CurrentTick())
	}
}

func TestPrintSummary(t *testing.T) {
	sim := engine.NewSimulation(grid.Build(1, 2, []string{"0E"}))
	sim.SpawnAgent(0, 0, false, false, true)
	sim.AdvanceTick()

	var buf bytes.Buffer
	printSummary(&buf, sim, 0)
	if !strings.Contains(buf.String(), "1 of 1 evacuated") {
		t.Errorf("summary = %q", buf.String())
	}
}
