// Package engine provides the crowd simulation state, the per-tick move
// resolver, and a paced loop that drives it.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Engine drives a simulation forward at a configurable pace.
type Engine struct {
	mu       sync.Mutex
	tick     uint64        // Ticks run by this engine
	speed    float64       // Multiplier: 1.0 = one tick per Interval, 0 = paused
	running  bool
	stop     context.CancelFunc
	Interval time.Duration // Base tick interval
	MaxTicks uint64        // 0 = unlimited

	// OnTick runs the simulation step; populated during setup.
	OnTick func(tick uint64)
	// Done, if set, ends the run once it returns true after a tick.
	Done func() bool
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		speed:    1.0,
		Interval: 500 * time.Millisecond,
	}
}

// Tick returns the number of ticks this engine has run.
func (e *Engine) Tick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the pace. Zero pauses the loop without stopping it.
func (e *Engine) SetSpeed(speed float64) {
	if speed < 0 {
		speed = 0
	}
	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Run starts the simulation loop. Blocks until ctx is cancelled, Stop is
// called, MaxTicks is reached, or Done reports true.
func (e *Engine) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	e.running = true
	e.stop = cancel
	e.mu.Unlock()
	slog.Info("simulation engine started", "tick", e.Tick(), "speed", e.Speed())

	defer func() {
		e.mu.Lock()
		e.running = false
		e.stop = nil
		e.mu.Unlock()
		slog.Info("simulation engine stopped", "tick", e.Tick())
	}()

	for {
		speed := e.Speed()
		if speed <= 0 {
			// Paused: sleep briefly and check again.
			if !sleepCtx(ctx, 100*time.Millisecond) {
				return
			}
			continue
		}

		start := time.Now()
		if e.Step() {
			return
		}

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			if !sleepCtx(ctx, target-elapsed) {
				return
			}
		} else if ctx.Err() != nil {
			return
		}
	}
}

// Step advances by exactly one tick and reports whether the run is finished.
func (e *Engine) Step() (finished bool) {
	e.mu.Lock()
	e.tick++
	tick := e.tick
	e.mu.Unlock()

	if e.OnTick != nil {
		e.OnTick(tick)
	}

	if e.MaxTicks > 0 && tick >= e.MaxTicks {
		return true
	}
	return e.Done != nil && e.Done()
}

// Stop halts a running loop.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		e.stop()
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
