package grid

// Direction is one of the four cardinal moves.
type Direction int8

const (
	DirNone  Direction = -1
	DirNorth Direction = 0 // x-1
	DirSouth Direction = 1 // x+1
	DirEast  Direction = 2 // y+1
	DirWest  Direction = 3 // y-1
)

// Directions lists the cardinal directions in link order.
var Directions = [4]Direction{DirNorth, DirSouth, DirEast, DirWest}

var dirDeltas = [4]Coord{
	{X: -1, Y: 0},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: 0, Y: -1},
}

// Delta returns the unit coordinate offset of a direction.
func (d Direction) Delta() Coord {
	if d < 0 || int(d) >= len(dirDeltas) {
		return Coord{}
	}
	return dirDeltas[d]
}

func (d Direction) String() string {
	switch d {
	case DirNorth:
		return "north"
	case DirSouth:
		return "south"
	case DirEast:
		return "east"
	case DirWest:
		return "west"
	}
	return "none"
}

// DirectionBetween derives the direction of travel from a coordinate delta.
// Only straight-line deltas along one axis resolve; zero and diagonal deltas
// return (DirNone, false).
func DirectionBetween(from, to Coord) (Direction, bool) {
	dx, dy := to.X-from.X, to.Y-from.Y
	switch {
	case dx == 0 && dy == 0:
		return DirNone, false
	case dx != 0 && dy != 0:
		return DirNone, false
	case dx < 0:
		return DirNorth, true
	case dx > 0:
		return DirSouth, true
	case dy > 0:
		return DirEast, true
	default:
		return DirWest, true
	}
}
