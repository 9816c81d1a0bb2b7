// Package persistence records evacuation runs in SQLite: one row per run,
// one per tick, and the event log.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/stampede/internal/engine"
)

// DB wraps a SQLite connection for run history.
type DB struct {
	conn *sqlx.DB
}

// Run describes one recorded simulation.
type Run struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Seed       int64     `db:"seed" json:"seed"`
	Rows       int       `db:"grid_rows" json:"rows"`
	Cols       int       `db:"grid_cols" json:"cols"`
	Population int       `db:"population" json:"population"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
}

// TickStat is the per-tick row of a run.
type TickStat struct {
	Tick      uint64 `db:"tick" json:"tick"`
	Moved     int    `db:"moved" json:"moved"`
	Blocked   int    `db:"blocked" json:"blocked"`
	Evacuated int    `db:"evacuated" json:"evacuated"`
	Fell      int    `db:"fell" json:"fell"`
	Trampled  int    `db:"trampled" json:"trampled"`
	Died      int    `db:"died" json:"died"`
	Recovered int    `db:"recovered" json:"recovered"`
	Active    int    `db:"active" json:"active"`
	Fallen    int    `db:"fallen" json:"fallen"`
	Dead      int    `db:"dead" json:"dead"`
	Out       int    `db:"evacuated_total" json:"evacuated_total"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		seed INTEGER NOT NULL,
		grid_rows INTEGER NOT NULL,
		grid_cols INTEGER NOT NULL,
		population INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tick_stats (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		moved INTEGER NOT NULL,
		blocked INTEGER NOT NULL,
		evacuated INTEGER NOT NULL,
		fell INTEGER NOT NULL,
		trampled INTEGER NOT NULL,
		died INTEGER NOT NULL,
		recovered INTEGER NOT NULL,
		active INTEGER NOT NULL,
		fallen INTEGER NOT NULL,
		dead INTEGER NOT NULL,
		evacuated_total INTEGER NOT NULL,
		PRIMARY KEY (run_id, tick)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		agent_id INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginRun inserts a new run row and returns it with a fresh id.
func (db *DB) BeginRun(name string, seed int64, rows, cols, population int) (Run, error) {
	run := Run{
		ID:         uuid.NewString(),
		Name:       name,
		Seed:       seed,
		Rows:       rows,
		Cols:       cols,
		Population: population,
		StartedAt:  time.Now().UTC(),
	}
	_, err := db.conn.NamedExec(`INSERT INTO runs
		(id, name, seed, grid_rows, grid_cols, population, started_at)
		VALUES (:id, :name, :seed, :grid_rows, :grid_cols, :population, :started_at)`, run)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	slog.Info("run recorded", "run", run.ID, "name", name, "seed", seed)
	return run, nil
}

// RecordTick stores one tick's report and the population afterwards.
func (db *DB) RecordTick(runID string, report engine.TickReport, stats engine.SimStats) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO tick_stats
		(run_id, tick, moved, blocked, evacuated, fell, trampled, died, recovered,
		 active, fallen, dead, evacuated_total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, report.Tick, report.Moved, report.Blocked, report.Evacuated,
		report.Fell, report.Trampled, report.Died, report.Recovered,
		stats.Active, stats.Fallen, stats.Dead, stats.Evacuated,
	)
	if err != nil {
		return fmt.Errorf("record tick %d: %w", report.Tick, err)
	}
	return nil
}

// SaveEvents appends events to a run's log.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events
		(run_id, tick, agent_id, description, category) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(runID, e.Tick, e.AgentID, e.Description, e.Category); err != nil {
			return fmt.Errorf("insert event at tick %d: %w", e.Tick, err)
		}
	}

	return tx.Commit()
}

// TickHistory returns a run's tick rows in order, optionally starting after
// a given tick.
func (db *DB) TickHistory(runID string, since uint64) ([]TickStat, error) {
	var rows []TickStat
	err := db.conn.Select(&rows, `SELECT tick, moved, blocked, evacuated, fell, trampled, died,
		recovered, active, fallen, dead, evacuated_total
		FROM tick_stats WHERE run_id = ? AND tick > ? ORDER BY tick`,
		runID, since,
	)
	return rows, err
}

// RunEvents returns the most recent events of a run, newest first.
func (db *DB) RunEvents(runID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		`SELECT tick, agent_id, description, category FROM events
		WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		runID, limit,
	)
	return events, err
}

// RecentRuns returns the latest runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs,
		`SELECT id, name, seed, grid_rows, grid_cols, population, started_at
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	return runs, err
}
