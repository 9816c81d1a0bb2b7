// Random obstacle fields using simplex noise, so obstacles cluster into
// pillars and walls instead of salt-and-pepper.
package scenario

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// noiseScale controls obstacle clump size; smaller means larger clumps.
const noiseScale = 0.18

// RandomObstacles generates a rows×cols layout with roughly density of the
// interior covered by obstacles. Exits are placed at the midpoints of the
// left and right walls and their approach cells are kept clear. Seed 0 is
// treated as 1, as the crowd spawner does.
func RandomObstacles(rows, cols int, density float64, seed int64) []string {
	if seed == 0 {
		seed = 1
	}
	if density < 0 {
		density = 0
	}
	if density > 0.9 {
		density = 0.9
	}

	noise := opensimplex.NewNormalized(seed)
	// Normalized noise clusters around 0.5, so a cutoff sliding down from 0.75
	// covers roughly density of the cells.
	cutoff := 0.75 - density/2

	cells := make([][]byte, rows)
	for x := 0; x < rows; x++ {
		cells[x] = make([]byte, cols)
		for y := 0; y < cols; y++ {
			v := noise.Eval2(float64(x)*noiseScale, float64(y)*noiseScale)
			if density > 0 && v > cutoff {
				cells[x][y] = 'X'
			} else {
				cells[x][y] = '0'
			}
		}
	}

	mid := rows / 2
	for _, exitY := range []int{0, cols - 1} {
		if exitY < 0 {
			continue
		}
		cells[mid][exitY] = 'E'
		// Keep the doorway approach open.
		for dy := 1; dy <= 2; dy++ {
			y := exitY + dy
			if exitY > 0 {
				y = exitY - dy
			}
			if y >= 0 && y < cols && cells[mid][y] != 'E' {
				cells[mid][y] = '0'
			}
		}
	}

	layout := make([]string, rows)
	for x := range cells {
		layout[x] = string(cells[x])
	}
	return layout
}
