// Package scenario builds grid layouts: fixed presets, custom layouts, and
// noise-generated obstacle fields. It also loads scenario files.
package scenario

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talgya/stampede/internal/agents"
	"github.com/talgya/stampede/internal/grid"
)

// Spec describes one evacuation scenario.
type Spec struct {
	Name       string           `yaml:"name"`
	Rows       int              `yaml:"rows"`
	Cols       int              `yaml:"cols"`
	Layout     []string         `yaml:"layout,omitempty"`  // Explicit rows; wins over Preset
	Preset     string           `yaml:"preset,omitempty"`  // One of Presets()
	Density    float64          `yaml:"density,omitempty"` // Random obstacle density when no layout or preset
	Population int              `yaml:"population"`
	Traits     agents.TraitOdds `yaml:"traits"`
}

// Default returns the hall preset with a modest crowd.
func Default() Spec {
	return Spec{
		Name:       "hall",
		Preset:     "hall",
		Population: 40,
		Traits:     agents.DefaultTraitOdds(),
	}
}

// Resolve produces the final rows, cols and layout for the spec. Resolution
// order: explicit layout, then preset, then random obstacles from seed.
func (s Spec) Resolve(seed int64) (int, int, []string, error) {
	switch {
	case len(s.Layout) > 0:
		rows, cols := s.Rows, s.Cols
		if rows <= 0 {
			rows = len(s.Layout)
		}
		if cols <= 0 {
			cols = len(s.Layout[0])
		}
		return rows, cols, Normalize(rows, cols, s.Layout), nil

	case s.Preset != "":
		layout, ok := Preset(s.Preset)
		if !ok {
			return 0, 0, nil, fmt.Errorf("unknown preset %q (have %s)", s.Preset, strings.Join(Presets(), ", "))
		}
		return len(layout), len(layout[0]), layout, nil

	default:
		if s.Rows <= 0 || s.Cols <= 0 {
			return 0, 0, nil, fmt.Errorf("random scenario needs rows and cols, got %dx%d", s.Rows, s.Cols)
		}
		return s.Rows, s.Cols, RandomObstacles(s.Rows, s.Cols, s.Density, seed), nil
	}
}

// Build resolves the spec and constructs its grid.
func (s Spec) Build(seed int64) (*grid.Grid, error) {
	rows, cols, layout, err := s.Resolve(seed)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	g := grid.Build(rows, cols, layout)
	if len(g.Exits()) == 0 {
		slog.Warn("scenario has no exits; nobody can evacuate", "scenario", s.Name)
	}
	return g, nil
}

// Normalize returns exactly rows layout rows of exactly cols characters.
// Rows of the wrong width are replaced by an all-walkable row and missing
// rows are padded the same way; extra rows are dropped.
func Normalize(rows, cols int, layout []string) []string {
	blank := strings.Repeat("0", cols)
	out := make([]string, rows)
	for x := 0; x < rows; x++ {
		switch {
		case x >= len(layout):
			out[x] = blank
		case len(layout[x]) != cols:
			slog.Warn("malformed layout row replaced", "row", x, "want", cols, "got", len(layout[x]))
			out[x] = blank
		default:
			out[x] = layout[x]
		}
	}
	if len(layout) > rows {
		slog.Warn("layout has extra rows; ignoring them", "rows", rows, "got", len(layout))
	}
	return out
}

// LoadFile reads a scenario spec from a YAML file.
func LoadFile(path string) (Spec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read scenario: %w", err)
	}
	spec := Default()
	spec.Preset = ""
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return Spec{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return spec, nil
}
