package persistence

import (
	"path/filepath"
	"testing"

	"github.com/talgya/stampede/internal/engine"
	"github.com/talgya/stampede/internal/grid"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordRun(t *testing.T) {
	db := openTestDB(t)

	g := grid.Build(1, 4, []string{"000E"})
	sim := engine.NewSimulation(g)
	if _, err := sim.SpawnAgent(0, 0, true, true, true); err != nil {
		t.Fatal(err)
	}

	run, err := db.BeginRun("corridor", 5, g.Rows, g.Cols, 1)
	if err != nil {
		t.Fatal(err)
	}
	if run.ID == "" {
		t.Fatal("run id not assigned")
	}

	for !sim.Done() {
		report := sim.AdvanceTick()
		if err := db.RecordTick(run.ID, report, sim.Stats); err != nil {
			t.Fatal(err)
		}
		if err := db.SaveEvents(run.ID, sim.DrainEvents()); err != nil {
			t.Fatal(err)
		}
		if report.Tick > 10 {
			t.Fatal("corridor run did not finish")
		}
	}

	history, err := db.TickHistory(run.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 {
		t.Fatalf("history has %d ticks, want 3", len(history))
	}
	for i, h := range history {
		if h.Tick != uint64(i+1) {
			t.Errorf("row %d tick = %d", i, h.Tick)
		}
	}
	last := history[len(history)-1]
	if last.Evacuated != 1 || last.Out != 1 || last.Active != 0 {
		t.Errorf("final row = %+v", last)
	}

	later, err := db.TickHistory(run.ID, 2)
	if err != nil || len(later) != 1 || later[0].Tick != 3 {
		t.Errorf("since filter: %+v %v", later, err)
	}

	events, err := db.RunEvents(run.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Category != engine.EventEvacuated || events[0].AgentID != 1 {
		t.Errorf("events = %+v", events)
	}
}

func TestRecentRuns(t *testing.T) {
	db := openTestDB(t)
	for _, name := range []string{"first", "second", "third"} {
		if _, err := db.BeginRun(name, 1, 3, 3, 2); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := db.RecentRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs", len(runs))
	}
	if runs[0].Name != "third" {
		t.Errorf("newest run = %q", runs[0].Name)
	}
	if runs[0].Rows != 3 || runs[0].Population != 2 || runs[0].StartedAt.IsZero() {
		t.Errorf("run = %+v", runs[0])
	}
}

func TestRunsAreIsolated(t *testing.T) {
	db := openTestDB(t)
	a, _ := db.BeginRun("a", 1, 1, 1, 0)
	b, _ := db.BeginRun("b", 2, 1, 1, 0)

	db.RecordTick(a.ID, engine.TickReport{Tick: 1, Moved: 3}, engine.SimStats{Active: 3})
	db.SaveEvents(a.ID, []engine.Event{{Tick: 1, AgentID: 2, Description: "agent 2 fell", Category: engine.EventFell}})

	hist, err := db.TickHistory(b.ID, 0)
	if err != nil || len(hist) != 0 {
		t.Errorf("run b history = %v %v", hist, err)
	}
	events, err := db.RunEvents(b.ID, 5)
	if err != nil || len(events) != 0 {
		t.Errorf("run b events = %v %v", events, err)
	}
}

func TestSaveNoEvents(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveEvents("none", nil); err != nil {
		t.Errorf("empty save: %v", err)
	}
}
