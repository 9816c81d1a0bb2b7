// Package render draws simulation snapshots as plain text or onto a tcell
// screen.
package render

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/talgya/stampede/internal/agents"
	"github.com/talgya/stampede/internal/engine"
	"github.com/talgya/stampede/internal/grid"
)

var categoryGlyphs = [agents.NumCategories]byte{
	agents.CategoryDead:             '+',
	agents.CategoryFallen:           '_',
	agents.CategoryRelaxed:          'o',
	agents.CategoryStrongIrrational: 'S',
	agents.CategoryStrongRational:   'R',
	agents.CategoryWeakIrrational:   'w',
	agents.CategoryWeakRational:     'r',
}

// Glyph returns the text character for an agent category.
func Glyph(c agents.Category) byte {
	if int(c) < len(categoryGlyphs) {
		return categoryGlyphs[c]
	}
	return '?'
}

func terrainGlyph(t grid.Terrain) byte {
	switch t {
	case grid.TerrainObstacle:
		return '#'
	case grid.TerrainExit:
		return 'E'
	}
	return '.'
}

// Text renders the grid one line per row, agents drawn over terrain.
func Text(sn engine.Snapshot) string {
	byID := make(map[agents.AgentID]agents.Category, len(sn.Agents))
	for _, a := range sn.Agents {
		byID[a.ID] = a.Category
	}

	var b strings.Builder
	b.Grow(sn.Rows * (sn.Cols + 1))
	for x := 0; x < sn.Rows; x++ {
		for y := 0; y < sn.Cols; y++ {
			c := sn.Cell(x, y)
			if cat, ok := byID[c.Occupant]; ok && c.Occupant != 0 {
				b.WriteByte(Glyph(cat))
				continue
			}
			b.WriteByte(terrainGlyph(c.Terrain))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Legend lists the glyph for every category.
func Legend() string {
	parts := make([]string, 0, agents.NumCategories+2)
	for c := agents.Category(0); c < agents.NumCategories; c++ {
		parts = append(parts, fmt.Sprintf("%c %s", Glyph(c), c))
	}
	parts = append(parts, "# obstacle", "E exit")
	return strings.Join(parts, "  ")
}

// StatusLine summarises the crowd in one line.
func StatusLine(sn engine.Snapshot) string {
	st := sn.Stats
	return fmt.Sprintf("tick %s | active %s | fallen %s | dead %s | evacuated %s/%s",
		humanize.Comma(int64(sn.Tick)),
		humanize.Comma(int64(st.Active)),
		humanize.Comma(int64(st.Fallen)),
		humanize.Comma(int64(st.Dead)),
		humanize.Comma(int64(st.Evacuated)),
		humanize.Comma(int64(st.Spawned)),
	)
}
