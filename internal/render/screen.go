package render

import (
	"github.com/gdamore/tcell/v2"

	"github.com/talgya/stampede/internal/agents"
	"github.com/talgya/stampede/internal/engine"
	"github.com/talgya/stampede/internal/grid"
)

// Canvas is the part of tcell.Screen the renderer writes to.
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
}

var categoryColors = [agents.NumCategories]tcell.Color{
	agents.CategoryDead:             tcell.ColorBlack,
	agents.CategoryFallen:           tcell.ColorLightGray,
	agents.CategoryRelaxed:          tcell.ColorGreen,
	agents.CategoryStrongIrrational: tcell.ColorRed,
	agents.CategoryStrongRational:   tcell.ColorOrange,
	agents.CategoryWeakIrrational:   tcell.ColorBlue,
	agents.CategoryWeakRational:     tcell.ColorPurple,
}

// CategoryColor returns the display colour of an agent category.
func CategoryColor(c agents.Category) tcell.Color {
	if int(c) < len(categoryColors) {
		return categoryColors[c]
	}
	return tcell.ColorWhite
}

// TerrainColor returns the background colour of a cell.
func TerrainColor(t grid.Terrain) tcell.Color {
	switch t {
	case grid.TerrainWalkable:
		return tcell.ColorSaddleBrown
	case grid.TerrainExit:
		return tcell.ColorWhite
	}
	return tcell.ColorGray
}

const agentRune = '●'

// Draw paints the grid at the top-left of the canvas, then the status line
// and the legend below it. Grid row x maps to screen line x.
func Draw(cv Canvas, sn engine.Snapshot) {
	byID := make(map[agents.AgentID]agents.Category, len(sn.Agents))
	for _, a := range sn.Agents {
		byID[a.ID] = a.Category
	}

	for x := 0; x < sn.Rows; x++ {
		for y := 0; y < sn.Cols; y++ {
			c := sn.Cell(x, y)
			style := tcell.StyleDefault.Background(TerrainColor(c.Terrain))
			r := ' '
			if cat, ok := byID[c.Occupant]; ok && c.Occupant != 0 {
				style = style.Foreground(CategoryColor(cat))
				r = agentRune
			}
			cv.SetContent(y, x, r, nil, style)
		}
	}

	line := sn.Rows + 1
	drawString(cv, 0, line, StatusLine(sn), tcell.StyleDefault)

	line += 2
	for c := agents.Category(0); c < agents.NumCategories; c++ {
		cv.SetContent(0, line, agentRune, nil, tcell.StyleDefault.Foreground(CategoryColor(c)))
		drawString(cv, 2, line, c.String(), tcell.StyleDefault)
		line++
	}
}

func drawString(cv Canvas, x, y int, s string, style tcell.Style) {
	for _, r := range s {
		cv.SetContent(x, y, r, nil, style)
		x++
	}
}
