package testutil

import (
	"testing"

	"github.com/udisondev/tilechase/internal/world"
)

// BuildLevel builds a unit-spaced level from ASCII rows and fails the test
// on malformed input. Row index is Z, column index is X.
func BuildLevel(tb testing.TB, rows ...string) *world.Layout {
	tb.Helper()
	return BuildLevelWithWalls(tb, nil, rows...)
}

// BuildLevelWithWalls is BuildLevel plus explicit wall boxes.
func BuildLevelWithWalls(tb testing.TB, walls []world.WallDef, rows ...string) *world.Layout {
	tb.Helper()

	lvl := &world.Level{
		Name:       tb.Name(),
		TileScalar: 1.0,
		Rows:       rows,
		Walls:      walls,
	}
	layout, err := lvl.Build()
	if err != nil {
		tb.Fatalf("building level: %v", err)
	}
	return layout
}

// OpenGrid returns w×h rows of walkable tiles.
func OpenGrid(w, h int) []string {
	row := make([]byte, w)
	for i := range row {
		row[i] = '.'
	}
	rows := make([]string, h)
	for i := range rows {
		rows[i] = string(row)
	}
	return rows
}
