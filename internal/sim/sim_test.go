package sim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tilechase/internal/ai"
	"github.com/udisondev/tilechase/internal/config"
	"github.com/udisondev/tilechase/internal/model"
	"github.com/udisondev/tilechase/internal/testutil"
)

func TestNewUsesLevelMarkers(t *testing.T) {
	layout := testutil.BuildLevel(t,
		"A.....",
		"......",
		".....T",
	)
	cfg := config.DefaultSim()

	s, err := New(cfg, layout, nil)
	require.NoError(t, err)

	require.Len(t, s.Agents(), 1)
	assert.Equal(t, uint32(1), s.Agents()[0].ID())
	assert.Equal(t, model.NewVec3(0, cfg.TargetHeight, 0), s.Agents()[0].Position())
	assert.Equal(t, model.NewVec3(5, cfg.TargetHeight, 2), s.TargetPosition())
	assert.Equal(t, 1, s.Manager().Count())
}

func TestNewUsesConfiguredSpawnsAndRoute(t *testing.T) {
	layout := testutil.BuildLevel(t, testutil.OpenGrid(8, 8)...)
	cfg := config.DefaultSim()
	cfg.Spawns = []config.AgentSpawn{{ID: 10, X: 0, Z: 0}, {ID: 11, X: 7, Z: 7}}
	cfg.TargetRoute = [][2]float64{{3, 3}, {4, 3}}

	s, err := New(cfg, layout, nil)
	require.NoError(t, err)

	require.Len(t, s.Agents(), 2)
	assert.Equal(t, uint32(11), s.Agents()[1].ID())
	assert.Equal(t, model.NewVec3(3, cfg.TargetHeight, 3), s.TargetPosition())
}

func TestNewWithoutTarget(t *testing.T) {
	layout := testutil.BuildLevel(t, "A..")
	_, err := New(config.DefaultSim(), layout, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no target")
}

func TestStepChasesAndReportsScans(t *testing.T) {
	layout := testutil.BuildLevel(t,
		"A.......",
		"........",
		"........",
		".......T",
	)

	var (
		mu     sync.Mutex
		events []ai.ScanEvent
	)
	observer := func(e ai.ScanEvent) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	s, err := New(config.DefaultSim(), layout, observer)
	require.NoError(t, err)

	for range 10 {
		require.NoError(t, s.Step(context.Background(), 0.1))
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events)
	assert.Equal(t, uint32(1), events[0].AgentID)
	assert.NoError(t, events[0].Stats.Err)
	assert.Equal(t, model.IntentionChase, s.Agents()[0].CurrentIntention())
}

func TestRunStopsAfterDuration(t *testing.T) {
	layout := testutil.BuildLevel(t, "A...T")
	cfg := config.DefaultSim()
	cfg.TickRate = 100
	cfg.Duration = 150 * time.Millisecond

	s, err := New(cfg, layout, nil)
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, s.Run(context.Background()))
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Positive(t, s.Manager().Frames())
}
