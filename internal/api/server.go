// Package api provides the HTTP API for watching an evacuation.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/talgya/stampede/internal/agents"
	"github.com/talgya/stampede/internal/engine"
	"github.com/talgya/stampede/internal/persistence"
)

// Server serves the simulation state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional; /history needs it
	RunID    string
	Scenario string
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// Manual steps per client per minute.
	StepLimit int
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	limit := s.StepLimit
	if limit <= 0 {
		limit = 120
	}
	stepLimiter := NewRateLimiter(limit, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/grid", s.handleGrid)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/agent/", s.handleAgentDetail)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/history", s.handleHistory)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/step", s.adminOnly(RateLimitMiddleware(stepLimiter, s.handleStep)))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine. The returned server can
// be shut down by the caller.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set STAMPEDE_CORS_ORIGINS to a comma-separated list of extra origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("STAMPEDE_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no STAMPEDE_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sn := s.Sim.Snapshot()
	status := map[string]any{
		"scenario": s.Scenario,
		"run_id":   s.RunID,
		"tick":     sn.Tick,
		"rows":     sn.Rows,
		"cols":     sn.Cols,
		"exits":    s.Sim.Grid.Exits(),
		"done":     s.Sim.Done(),
		"stats":    sn.Stats,
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	writeJSON(w, status)
}

// handleGrid returns the terrain as layout rows plus the occupied cells.
func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	sn := s.Sim.Snapshot()

	type occupant struct {
		X  int            `json:"x"`
		Y  int            `json:"y"`
		ID agents.AgentID `json:"id"`
	}

	layout := make([]string, sn.Rows)
	var occupied []occupant
	row := make([]byte, sn.Cols)
	for x := 0; x < sn.Rows; x++ {
		for y := 0; y < sn.Cols; y++ {
			c := sn.Cell(x, y)
			row[y] = c.Terrain.Char()
			if c.Occupant != 0 {
				occupied = append(occupied, occupant{X: x, Y: y, ID: c.Occupant})
			}
		}
		layout[x] = string(row)
	}

	writeJSON(w, map[string]any{
		"tick":     sn.Tick,
		"rows":     sn.Rows,
		"cols":     sn.Cols,
		"layout":   layout,
		"occupied": occupied,
	})
}

// handleAgents lists on-grid agents, optionally filtered by ?category=.
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	var (
		filter    agents.Category
		filtering bool
	)
	if q := r.URL.Query().Get("category"); q != "" {
		c, ok := agents.ParseCategory(q)
		if !ok {
			http.Error(w, "unknown category", http.StatusBadRequest)
			return
		}
		filter, filtering = c, true
	}

	sn := s.Sim.Snapshot()
	result := make([]engine.AgentView, 0, len(sn.Agents))
	for _, a := range sn.Agents {
		if filtering && a.Category != filter {
			continue
		}
		result = append(result, a)
	}
	writeJSON(w, result)
}

func (s *Server) handleAgentDetail(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 4 || parts[3] == "" {
		http.Error(w, "missing agent id", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return
	}

	sn := s.Sim.Snapshot()
	agent, ok := sn.Agent(agents.AgentID(id))
	if !ok {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}
	writeJSON(w, agent)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events := s.Sim.RecentEvents(0)

	if cat := r.URL.Query().Get("category"); cat != "" {
		filtered := events[:0]
		for _, e := range events {
			if e.Category == cat {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	writeJSON(w, events[start:])
}

// handleStats returns aggregate counts plus the per-category breakdown.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts := s.Sim.CategoryCounts()
	byCategory := make(map[string]int, agents.NumCategories)
	for c := agents.Category(0); c < agents.NumCategories; c++ {
		byCategory[c.Key()] = counts[c]
	}
	sn := s.Sim.Snapshot()
	writeJSON(w, map[string]any{
		"tick":       sn.Tick,
		"stats":      sn.Stats,
		"categories": byCategory,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil || s.RunID == "" {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	since := uint64(0)
	if v := r.URL.Query().Get("since"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 63); err == nil {
			since = n
		}
	}

	rows, err := s.DB.TickHistory(s.RunID, since)
	if err != nil {
		slog.Error("tick history query failed", "error", err)
		writeJSON(w, []persistence.TickStat{})
		return
	}
	if rows == nil {
		rows = []persistence.TickStat{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not attached", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 100 {
			http.Error(w, "speed must be 0-100", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

// handleStep advances the simulation by one tick. Mostly useful while paused.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.Eng == nil {
		http.Error(w, "engine not attached", http.StatusServiceUnavailable)
		return
	}
	if s.Sim.Done() {
		http.Error(w, "simulation finished", http.StatusConflict)
		return
	}

	finished := s.Eng.Step()
	sn := s.Sim.Snapshot()
	writeJSON(w, map[string]any{
		"tick":     sn.Tick,
		"finished": finished,
		"stats":    sn.Stats,
	})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
