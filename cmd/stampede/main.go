// Command stampede runs a crowd evacuation on a grid and reports who got out.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/stampede/internal/agents"
	"github.com/talgya/stampede/internal/api"
	"github.com/talgya/stampede/internal/config"
	"github.com/talgya/stampede/internal/engine"
	"github.com/talgya/stampede/internal/persistence"
	"github.com/talgya/stampede/internal/render"
	"github.com/talgya/stampede/internal/scenario"
)

func main() {
	var cfgPath, scenarioPath string
	var listPresets bool
	flag.StringVar(&cfgPath, "config", "", "YAML config file")
	flag.StringVar(&scenarioPath, "scenario", "", "YAML scenario file (replaces the config's scenario)")
	flag.BoolVar(&listPresets, "presets", false, "list built-in layouts and exit")
	flag.Parse()

	if listPresets {
		for _, name := range scenario.Presets() {
			fmt.Println(name)
		}
		return
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logClose := setupLogging(cfg)
	defer logClose()

	spec := cfg.Scenario
	if scenarioPath != "" {
		spec, err = scenario.LoadFile(scenarioPath)
		if err != nil {
			slog.Error("failed to load scenario", "error", err)
			os.Exit(1)
		}
	}

	// ── Grid and crowd ────────────────────────────────────────────────
	g, err := spec.Build(cfg.Seed)
	if err != nil {
		slog.Error("failed to build scenario", "error", err)
		os.Exit(1)
	}
	sim := engine.NewSimulation(g)
	spawner := agents.NewSpawner(cfg.Seed, spec.Traits)
	placed, err := engine.Populate(sim, spawner, spec.Population)
	if err != nil {
		slog.Error("failed to populate", "error", err)
		os.Exit(1)
	}
	slog.Info("scenario ready",
		"scenario", spec.Name,
		"grid", g.String(),
		"agents", placed,
		"seed", cfg.Seed,
	)
	for c, n := range sim.CategoryCounts() {
		slog.Debug("initial category", "category", c.String(), "count", n)
	}

	// ── Run history ───────────────────────────────────────────────────
	var rec *recorder
	if cfg.DBPath != "" {
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			os.MkdirAll(dir, 0755)
		}
		db, err := persistence.Open(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		run, err := db.BeginRun(spec.Name, cfg.Seed, g.Rows, g.Cols, placed)
		if err != nil {
			slog.Error("failed to record run", "error", err)
			os.Exit(1)
		}
		rec = &recorder{db: db, runID: run.ID, sim: sim}
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Interval = cfg.Interval()
	eng.MaxTicks = cfg.MaxTicks
	eng.SetSpeed(cfg.Speed)
	eng.Done = sim.Done

	textMode := cfg.Render == config.RenderText
	if textMode {
		fmt.Print(render.Text(sim.Snapshot()))
		fmt.Println(render.Legend())
	}

	eng.OnTick = func(uint64) {
		report := sim.AdvanceTick()
		if rec != nil {
			rec.record(report)
		}
		if textMode {
			sn := sim.Snapshot()
			fmt.Println()
			fmt.Print(render.Text(sn))
			fmt.Println(render.StatusLine(sn))
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.APIPort > 0 {
		if cfg.AdminKey == "" {
			slog.Warn("STAMPEDE_ADMIN_KEY not set; admin POST endpoints will be disabled")
		}
		srv := &api.Server{
			Sim:      sim,
			Eng:      eng,
			Scenario: spec.Name,
			Port:     cfg.APIPort,
			AdminKey: cfg.AdminKey,
		}
		if rec != nil {
			srv.DB, srv.RunID = rec.db, rec.runID
		}
		httpSrv := srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			httpSrv.Shutdown(ctx)
		}()
		fmt.Fprintf(os.Stderr, "API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	}

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	if cfg.Render == config.RenderTUI {
		if err := runTUI(ctx, eng, sim, cfg.Speed); err != nil {
			slog.Error("terminal UI failed", "error", err)
			os.Exit(1)
		}
	} else {
		eng.Run(ctx)
	}

	printSummary(os.Stdout, sim, time.Since(started))
}

// setupLogging installs the default slog handler. The terminal UI owns the
// screen, so its logs go to a file next to the database.
func setupLogging(cfg config.Config) func() {
	level, _ := cfg.SlogLevel()
	var out io.Writer = os.Stderr
	closeFn := func() {}

	if cfg.Render == config.RenderTUI {
		path := "stampede.log"
		if cfg.DBPath != "" {
			path = filepath.Join(filepath.Dir(cfg.DBPath), "stampede.log")
			os.MkdirAll(filepath.Dir(path), 0755)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			out = f
			closeFn = func() { f.Close() }
		} else {
			out = io.Discard
		}
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return closeFn
}

// recorder persists each tick and the events it produced. Ticks can come
// from the engine loop and the API step endpoint, so saves are serialised.
type recorder struct {
	mu    sync.Mutex
	db    *persistence.DB
	runID string
	sim   *engine.Simulation
	saved uint64 // Last tick whose events were written
}

func (r *recorder) record(report engine.TickReport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.RecordTick(r.runID, report, r.sim.Snapshot().Stats); err != nil {
		slog.Error("tick save failed", "tick", report.Tick, "error", err)
	}
	events := r.sim.EventsSince(r.saved)
	if len(events) == 0 {
		return
	}
	if err := r.db.SaveEvents(r.runID, events); err != nil {
		slog.Error("event save failed", "tick", report.Tick, "error", err)
		return
	}
	r.saved = events[len(events)-1].Tick
}

func printSummary(w io.Writer, sim *engine.Simulation, elapsed time.Duration) {
	sn := sim.Snapshot()
	st := sn.Stats
	fmt.Fprintf(w, "\nAfter %s ticks (%s): %s of %s evacuated, %s dead, %s fallen, %s still inside.\n",
		humanize.Comma(int64(sn.Tick)),
		elapsed.Round(time.Millisecond),
		humanize.Comma(int64(st.Evacuated)),
		humanize.Comma(int64(st.Spawned)),
		humanize.Comma(int64(st.Dead)),
		humanize.Comma(int64(st.Fallen)),
		humanize.Comma(int64(st.Active)),
	)
}
