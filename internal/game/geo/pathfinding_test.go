package geo_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tilechase/internal/config"
	"github.com/udisondev/tilechase/internal/game/geo"
	"github.com/udisondev/tilechase/internal/model"
	"github.com/udisondev/tilechase/internal/testutil"
	"github.com/udisondev/tilechase/internal/world"
)

var mazeRows = []string{
	"..........",
	".####.###.",
	".#......#.",
	".#.####.#.",
	"...#..#...",
	".#.#..#.#.",
	".#......#.",
	".######.#.",
	"..........",
}

func newFinder(layout *world.Layout) *geo.Pathfinder {
	return geo.NewPathfinder(layout.World, config.DefaultPathfinder())
}

func TestScanStraightRun(t *testing.T) {
	layout := testutil.BuildLevel(t, "....")
	p := newFinder(layout)

	path, err := p.Scan(model.NewVec3(0, 0, 0), model.NewVec3(3, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, []model.Vec3{{X: 3}}, path)
}

func TestScanSameTile(t *testing.T) {
	layout := testutil.BuildLevel(t, "...", "...")
	p := newFinder(layout)

	// off-center points snap onto the same tile
	path, err := p.Scan(model.NewVec3(1.2, 0, 0.9), model.NewVec3(0.8, 0.4, 1.1))
	require.NoError(t, err)
	assert.Equal(t, []model.Vec3{{}}, path)
	assert.Zero(t, p.LastStats().Expansions)
}

func TestScanDetoursAroundWallBlock(t *testing.T) {
	layout := testutil.BuildLevel(t,
		"....",
		".#..",
		"....",
	)
	p := newFinder(layout)

	path, err := p.Scan(model.NewVec3(0, 0, 1), model.NewVec3(3, 0, 1))
	require.NoError(t, err)

	// corners of the block only graze the diagonal probes
	assert.Equal(t, []model.Vec3{{X: 1, Z: 1}, {X: 1, Z: -1}, {X: 1}}, path)
}

func TestScanThinWallBlocksCrossing(t *testing.T) {
	walls := []world.WallDef{{Min: [3]float64{0.45, 0, -0.5}, Max: [3]float64{0.55, 2, 0.5}}}
	layout := testutil.BuildLevelWithWalls(t, walls, "...", "...")
	p := newFinder(layout)

	path, err := p.Scan(model.NewVec3(0, 0, 0), model.NewVec3(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, []model.Vec3{{Z: 1}, {X: 1}, {Z: -1}}, path)
}

func TestScanNoTileFound(t *testing.T) {
	layout := testutil.BuildLevel(t, ".. .")
	p := newFinder(layout)

	tests := []struct {
		name        string
		start, goal model.Vec3
	}{
		{"start over void", model.NewVec3(2, 0, 0), model.NewVec3(0, 0, 0)},
		{"goal off the level", model.NewVec3(0, 0, 0), model.NewVec3(0, 0, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := p.Scan(tt.start, tt.goal)
			require.Error(t, err)
			assert.True(t, errors.Is(err, geo.ErrNoTileFound))
			assert.Nil(t, path)
		})
	}
}

func TestScanStopsAtAttemptCap(t *testing.T) {
	rows := testutil.OpenGrid(30, 30)
	for z := 14; z <= 16; z++ {
		b := []byte(rows[z])
		for x := 14; x <= 16; x++ {
			if x != 15 || z != 15 {
				b[x] = '#'
			}
		}
		rows[z] = string(b)
	}
	layout := testutil.BuildLevel(t, rows...)
	p := newFinder(layout)

	path, err := p.Scan(model.NewVec3(0, 0, 0), model.NewVec3(15, 0, 15))
	require.Error(t, err)
	assert.True(t, errors.Is(err, geo.ErrNoPathFound))
	assert.Contains(t, err.Error(), "attempt cap")
	assert.Nil(t, path)
	assert.Equal(t, config.DefaultMaxAttempts, p.LastStats().Expansions)
}

func TestScanFrontierExhausted(t *testing.T) {
	layout := testutil.BuildLevel(t,
		"...#...",
		"...#...",
		"...#...",
	)
	p := newFinder(layout)

	_, err := p.Scan(model.NewVec3(0, 0, 1), model.NewVec3(6, 0, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, geo.ErrNoPathFound))
	assert.Contains(t, err.Error(), "frontier exhausted")
	// every reachable tile left of the wall was expanded once
	assert.Equal(t, 9, p.LastStats().Expansions)
}

func TestScanIsDeterministic(t *testing.T) {
	layout := testutil.BuildLevel(t, mazeRows...)
	p := newFinder(layout)

	first, err := p.Scan(model.NewVec3(0, 0, 0), model.NewVec3(4, 0, 4))
	require.NoError(t, err)
	for range 5 {
		again, err := p.Scan(model.NewVec3(0, 0, 0), model.NewVec3(4, 0, 4))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestScanRoundTripThroughMaze(t *testing.T) {
	layout := testutil.BuildLevel(t, mazeRows...)
	p := newFinder(layout)
	origin := model.NewVec3(0, 0, 0)

	goals := []model.Vec3{
		model.NewVec3(9, 0, 8),
		model.NewVec3(4, 0, 4),
		model.NewVec3(5, 0, 5),
		model.NewVec3(2, 0, 2),
		model.NewVec3(7, 0, 6),
	}

	for _, goal := range goals {
		out, err := p.Scan(origin, goal)
		require.NoError(t, err, "scan to %v", goal)
		end := walkLegs(t, p, origin, out)
		assert.True(t, end.ApproxEqual(goal, geo.PositionTolerance), "reached %v, want %v", end, goal)

		back, err := p.Scan(goal, origin)
		require.NoError(t, err, "scan back from %v", goal)
		end = walkLegs(t, p, goal, back)
		assert.True(t, end.ApproxEqual(origin, geo.PositionTolerance), "returned to %v", end)
	}
}

// walkLegs follows the legs one tile at a time and asserts every visited
// position stands on a tile.
func walkLegs(t *testing.T, p *geo.Pathfinder, from model.Vec3, legs []model.Vec3) model.Vec3 {
	t.Helper()

	pos := from
	for _, leg := range legs {
		n := int(math.Round(math.Max(math.Abs(leg.X), math.Abs(leg.Z))))
		require.Positive(t, n, "empty leg %v", leg)
		step := leg.Scale(1 / float64(n))
		for range n {
			pos = pos.Add(step)
			_, ok := p.TilePosition(pos)
			require.True(t, ok, "walked off the tiles at %v", pos)
		}
	}
	return pos
}

func TestScanLegsAreCompressed(t *testing.T) {
	layout := testutil.BuildLevel(t, mazeRows...)
	p := newFinder(layout)

	path, err := p.Scan(model.NewVec3(0, 0, 0), model.NewVec3(9, 0, 8))
	require.NoError(t, err)

	for i := 1; i < len(path); i++ {
		assert.False(t,
			path[i].Normalized().ApproxEqual(path[i-1].Normalized(), geo.DirectionTolerance),
			"legs %d and %d share a direction", i-1, i)
	}
	assert.Equal(t, path, geo.CompressPath(path))
}

func TestValidDirections(t *testing.T) {
	t.Run("open center has all eight", func(t *testing.T) {
		layout := testutil.BuildLevel(t, "...", "...", "...")
		dirs := newFinder(layout).ValidDirections(model.NewVec3(1, 0, 1))
		assert.Len(t, dirs, 8)
	})

	t.Run("corner keeps order", func(t *testing.T) {
		layout := testutil.BuildLevel(t, "...", "...", "...")
		dirs := newFinder(layout).ValidDirections(model.NewVec3(0, 0, 0))
		assert.Equal(t, []model.Vec3{{Z: 1}, {X: 1}, {X: 1, Z: 1}}, dirs)
	})

	t.Run("thin wall removes crossing directions", func(t *testing.T) {
		walls := []world.WallDef{{Min: [3]float64{0.45, 0, -0.5}, Max: [3]float64{0.55, 2, 0.5}}}
		layout := testutil.BuildLevelWithWalls(t, walls, "...", "...")
		dirs := newFinder(layout).ValidDirections(model.NewVec3(0, 0, 0))
		assert.Equal(t, []model.Vec3{{Z: 1}}, dirs)
	})

	t.Run("scaled by tile scalar", func(t *testing.T) {
		lvl := &world.Level{TileScalar: 2, Rows: []string{"..", ".."}}
		layout, err := lvl.Build()
		require.NoError(t, err)

		cfg := config.DefaultPathfinder()
		cfg.TileScalar = 2
		dirs := geo.NewPathfinder(layout.World, cfg).ValidDirections(model.NewVec3(0, 0, 0))
		assert.Equal(t, []model.Vec3{{Z: 2}, {X: 2}, {X: 2, Z: 2}}, dirs)
	})
}

func TestScanProbeShape(t *testing.T) {
	layout := testutil.BuildLevel(t, "...")
	rec := testutil.NewRecordingProber(layout.World)
	p := geo.NewPathfinder(rec, config.DefaultPathfinder())

	_, err := p.Scan(model.NewVec3(0, 0, 0), model.NewVec3(2, 0, 0))
	require.NoError(t, err)

	calls := rec.Calls()
	require.NotEmpty(t, calls)
	for _, c := range calls {
		switch c.Layers {
		case geo.LayerTile:
			assert.Equal(t, config.DefaultTileProbeHeight, c.Origin.Y)
			assert.Equal(t, model.Up, c.Direction)
			assert.Equal(t, config.DefaultTileProbeDistance, c.Distance)
		case geo.LayerWall:
			assert.Equal(t, config.DefaultWallProbeHeight, c.Origin.Y)
			assert.Zero(t, c.Direction.Y)
			assert.InDelta(t, 1, c.Direction.Len(), 1e-9)
			assert.InDelta(t, config.DefaultDiagonalCheck, c.Distance, 1e-9)
		default:
			t.Fatalf("unexpected probe layers %s", c.Layers)
		}
	}
	// wall probes are only issued once a tile was found
	assert.LessOrEqual(t, rec.CountLayer(geo.LayerWall), rec.CountLayer(geo.LayerTile))
	assert.Equal(t, len(calls), p.LastStats().Probes)
}

func TestDebugNodesLogsLatestRun(t *testing.T) {
	layout := testutil.BuildLevel(t, strings.Repeat(".", 5))
	p := newFinder(layout)

	_, err := p.Scan(model.NewVec3(0, 0, 0), model.NewVec3(4, 0, 0))
	require.NoError(t, err)
	assert.NotPanics(t, p.DebugNodes)
}

func BenchmarkScan(b *testing.B) {
	layout := testutil.BuildLevel(b, mazeRows...)
	p := newFinder(layout)
	start := model.NewVec3(0, 0, 0)
	goal := model.NewVec3(4, 0, 4)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := p.Scan(start, goal); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkScanOpenGrid(b *testing.B) {
	layout := testutil.BuildLevel(b, testutil.OpenGrid(24, 24)...)
	p := newFinder(layout)
	start := model.NewVec3(0, 0, 0)
	goal := model.NewVec3(23, 0, 17)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := p.Scan(start, goal); err != nil {
			b.Fatal(err)
		}
	}
}
