package grid

import (
	"errors"
	"testing"
)

func TestBuildTerrainAndExits(t *testing.T) {
	g := Build(2, 3, []string{"0X0", "E0E"})

	if g.Size() != 6 {
		t.Fatalf("size = %d, want 6", g.Size())
	}
	if got := g.CellAt(0, 1).Terrain; got != TerrainObstacle {
		t.Errorf("(0,1) terrain = %s, want obstacle", TerrainName(got))
	}
	if got := g.CellAt(1, 0).Terrain; got != TerrainExit {
		t.Errorf("(1,0) terrain = %s, want exit", TerrainName(got))
	}
	if got := g.CellAt(0, 0).Terrain; got != TerrainWalkable {
		t.Errorf("(0,0) terrain = %s, want walkable", TerrainName(got))
	}

	exits := g.Exits()
	if len(exits) != 2 || exits[0] != (Coord{1, 0}) || exits[1] != (Coord{1, 2}) {
		t.Errorf("exits = %v", exits)
	}

	counts := TerrainCounts(g)
	if counts[TerrainWalkable] != 3 || counts[TerrainObstacle] != 1 || counts[TerrainExit] != 2 {
		t.Errorf("terrain counts = %v", counts)
	}
}

func TestTerrainCharRoundTrip(t *testing.T) {
	for _, ch := range []byte{'0', 'X', 'E'} {
		if got := TerrainForChar(ch).Char(); got != ch {
			t.Errorf("%c -> %c", ch, got)
		}
	}
}

func TestBuildWithoutLayoutIsWalkable(t *testing.T) {
	g := Build(3, 3, nil)
	g.Cells(func(c *Cell) {
		if c.Terrain != TerrainWalkable {
			t.Errorf("%s terrain = %s", c.Coord, TerrainName(c.Terrain))
		}
	})
	if len(g.Exits()) != 0 {
		t.Errorf("exits = %v, want none", g.Exits())
	}
}

func TestNeighborLinks(t *testing.T) {
	g := Build(3, 3, nil)

	corner := g.CellAt(0, 0)
	if g.Neighbor(corner, DirNorth) != nil || g.Neighbor(corner, DirWest) != nil {
		t.Error("corner should have no north/west links")
	}
	if n := g.Neighbor(corner, DirSouth); n == nil || n.Coord != (Coord{1, 0}) {
		t.Errorf("south of (0,0) = %v", n)
	}
	if n := g.Neighbor(corner, DirEast); n == nil || n.Coord != (Coord{0, 1}) {
		t.Errorf("east of (0,0) = %v", n)
	}

	center := g.CellAt(1, 1)
	got := g.Neighbors(center)
	want := []Coord{{0, 1}, {2, 1}, {1, 2}, {1, 0}}
	if len(got) != len(want) {
		t.Fatalf("center neighbours = %d, want %d", len(got), len(want))
	}
	for i, c := range got {
		if c.Coord != want[i] {
			t.Errorf("neighbour %d = %s, want %s", i, c.Coord, want[i])
		}
	}
}

func TestCellAtOutOfBounds(t *testing.T) {
	g := Build(2, 2, nil)
	for _, c := range []Coord{{-1, 0}, {0, -1}, {2, 0}, {0, 2}} {
		if g.At(c) != nil {
			t.Errorf("At(%s) should be nil", c)
		}
	}
}

func TestNearestExitDistance(t *testing.T) {
	g := Build(3, 5, []string{"E0000", "00000", "0000E"})
	tests := []struct {
		at   Coord
		want int
	}{
		{Coord{0, 0}, 0},
		{Coord{1, 1}, 2},
		{Coord{1, 3}, 2},
		{Coord{0, 4}, 2},
		{Coord{2, 2}, 2},
	}
	for _, tt := range tests {
		got, ok := g.NearestExitDistance(tt.at)
		if !ok || got != tt.want {
			t.Errorf("NearestExitDistance(%s) = %d,%v want %d", tt.at, got, ok, tt.want)
		}
	}

	if _, ok := Build(2, 2, nil).NearestExitDistance(Coord{}); ok {
		t.Error("grid without exits should report no distance")
	}
}

func TestPlaceRejectsInvalidTargets(t *testing.T) {
	g := Build(1, 3, []string{"0XE"})

	if err := g.Place(Coord{0, 0}, 1); err != nil {
		t.Fatalf("place on walkable: %v", err)
	}
	if err := g.Place(Coord{0, 0}, 2); !errors.Is(err, ErrOccupied) {
		t.Errorf("place on occupied: %v, want ErrOccupied", err)
	}
	if err := g.Place(Coord{0, 1}, 2); !errors.Is(err, ErrNotWalkable) {
		t.Errorf("place on obstacle: %v, want ErrNotWalkable", err)
	}
	if err := g.Place(Coord{0, 2}, 2); !errors.Is(err, ErrNotWalkable) {
		t.Errorf("place on exit: %v, want ErrNotWalkable", err)
	}
	if err := g.Place(Coord{5, 5}, 2); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("place out of bounds: %v, want ErrOutOfBounds", err)
	}
}

func TestMoveUpdatesBothCells(t *testing.T) {
	g := Build(1, 4, []string{"00XE"})
	if err := g.Place(Coord{0, 0}, 7); err != nil {
		t.Fatal(err)
	}

	if err := g.Move(Coord{0, 0}, Coord{0, 1}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if g.CellAt(0, 0).Occupied() {
		t.Error("source still occupied")
	}
	if g.CellAt(0, 1).Occupant != 7 {
		t.Errorf("destination occupant = %d, want 7", g.CellAt(0, 1).Occupant)
	}

	if err := g.Move(Coord{0, 1}, Coord{0, 2}); !errors.Is(err, ErrImpassable) {
		t.Errorf("move onto obstacle: %v, want ErrImpassable", err)
	}
	if g.CellAt(0, 1).Occupant != 7 {
		t.Error("failed move must leave the source untouched")
	}

	if err := g.Place(Coord{0, 0}, 8); err != nil {
		t.Fatal(err)
	}
	if err := g.Move(Coord{0, 0}, Coord{0, 1}); !errors.Is(err, ErrOccupied) {
		t.Errorf("move onto occupied: %v, want ErrOccupied", err)
	}
}

func TestClearIfExitIsIdempotent(t *testing.T) {
	g := Build(1, 2, []string{"0E"})
	if err := g.Place(Coord{0, 0}, 3); err != nil {
		t.Fatal(err)
	}
	if err := g.Move(Coord{0, 0}, Coord{0, 1}); err != nil {
		t.Fatal(err)
	}

	exit := g.CellAt(0, 1)
	id, ok := g.ClearIfExit(exit)
	if !ok || id != 3 {
		t.Fatalf("ClearIfExit = %d,%v want 3,true", id, ok)
	}
	if exit.Occupied() {
		t.Error("exit still occupied after clear")
	}
	if _, ok := g.ClearIfExit(exit); ok {
		t.Error("second clear on empty exit should be a no-op")
	}

	if err := g.Place(Coord{0, 0}, 4); err != nil {
		t.Fatal(err)
	}
	if _, ok := g.ClearIfExit(g.CellAt(0, 0)); ok {
		t.Error("clearing a walkable cell should be a no-op")
	}
	if g.CellAt(0, 0).Occupant != 4 {
		t.Error("walkable cell occupant must survive ClearIfExit")
	}
}

func TestDirectionBetween(t *testing.T) {
	tests := []struct {
		from, to Coord
		want     Direction
		ok       bool
	}{
		{Coord{1, 1}, Coord{0, 1}, DirNorth, true},
		{Coord{1, 1}, Coord{2, 1}, DirSouth, true},
		{Coord{1, 1}, Coord{1, 2}, DirEast, true},
		{Coord{1, 1}, Coord{1, 0}, DirWest, true},
		{Coord{1, 1}, Coord{1, 3}, DirEast, true},
		{Coord{1, 1}, Coord{2, 2}, DirNone, false},
		{Coord{1, 1}, Coord{1, 1}, DirNone, false},
	}
	for _, tt := range tests {
		got, ok := DirectionBetween(tt.from, tt.to)
		if got != tt.want || ok != tt.ok {
			t.Errorf("DirectionBetween(%s,%s) = %s,%v want %s,%v", tt.from, tt.to, got, ok, tt.want, tt.ok)
		}
	}
}
