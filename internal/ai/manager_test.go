package ai

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tilechase/internal/config"
	"github.com/udisondev/tilechase/internal/game/geo"
	"github.com/udisondev/tilechase/internal/model"
	"github.com/udisondev/tilechase/internal/testutil"
	"github.com/udisondev/tilechase/internal/world"
)

// countingController records lifecycle calls and ticks.
type countingController struct {
	started   atomic.Bool
	ticks     atomic.Int32
	lastDT    atomic.Uint64 // math.Float64bits
	intention atomic.Int32
}

func (c *countingController) Start() {
	c.started.Store(true)
	c.intention.Store(int32(model.IntentionWander))
}

func (c *countingController) Stop() {
	c.started.Store(false)
	c.intention.Store(int32(model.IntentionIdle))
}

func (c *countingController) SetIntention(i model.Intention) { c.intention.Store(int32(i)) }

func (c *countingController) CurrentIntention() model.Intention {
	return model.Intention(c.intention.Load())
}

func (c *countingController) Tick(dt float64) {
	c.ticks.Add(1)
	c.lastDT.Store(uint64(dt * 1e6))
}

func TestTickManager_RegisterUnregister(t *testing.T) {
	mgr := NewTickManager(time.Second, 2)
	c := &countingController{}

	mgr.Register(1, c)
	assert.Equal(t, 1, mgr.Count())
	assert.True(t, c.started.Load(), "Register must start the controller")

	got, err := mgr.GetController(1)
	require.NoError(t, err)
	assert.Equal(t, model.IntentionWander, got.CurrentIntention())

	// re-registering the same id does not inflate the count
	mgr.Register(1, c)
	assert.Equal(t, 1, mgr.Count())

	mgr.Unregister(1)
	assert.Equal(t, 0, mgr.Count())
	assert.False(t, c.started.Load())

	_, err = mgr.GetController(1)
	assert.Error(t, err)

	// unknown id is a no-op
	mgr.Unregister(42)
	assert.Equal(t, 0, mgr.Count())
}

func TestTickManager_StepTicksEveryController(t *testing.T) {
	mgr := NewTickManager(time.Second, 3)
	controllers := make([]*countingController, 10)
	for i := range controllers {
		controllers[i] = &countingController{}
		mgr.Register(uint32(i+1), controllers[i])
	}

	for range 5 {
		require.NoError(t, mgr.Step(context.Background(), 0.25))
	}

	for i, c := range controllers {
		assert.Equal(t, int32(5), c.ticks.Load(), "controller %d", i)
		assert.Equal(t, uint64(250000), c.lastDT.Load(), "controller %d", i)
	}
	assert.Equal(t, uint64(5), mgr.Frames())
}

func TestTickManager_StepCanceled(t *testing.T) {
	mgr := NewTickManager(time.Second, 1)
	c := &countingController{}
	mgr.Register(1, c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := mgr.Step(ctx, 0.1)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, c.ticks.Load())
}

func TestTickManager_Start(t *testing.T) {
	mgr := NewTickManager(5*time.Millisecond, 0)
	c := &countingController{}
	mgr.Register(1, c)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- mgr.Start(ctx)
	}()

	require.Eventually(t, func() bool { return c.ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}
	assert.Positive(t, c.lastDT.Load(), "dt is measured from the frame clock")
}

func TestTickManager_Stop(t *testing.T) {
	mgr := NewTickManager(5*time.Millisecond, 1)

	done := make(chan error, 1)
	go func() {
		done <- mgr.Start(context.Background())
	}()

	mgr.Stop()
	mgr.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestTickManager_ConcurrentChasers(t *testing.T) {
	layout := testutil.BuildLevel(t, testutil.OpenGrid(12, 12)...)
	targetID := layout.World.AddActor(world.TagTarget, model.NewVec3(6, 0.5, 6))
	locate := func() model.Vec3 {
		pos, _ := layout.World.ActorPosition(targetID)
		return pos
	}

	mgr := NewTickManager(time.Second, 4)
	agents := make([]*ChaserAI, 6)
	for i := range agents {
		finder := geo.NewPathfinder(layout.World, config.DefaultPathfinder())
		spawn := model.NewVec3(float64(i*2), 0.5, 0)
		agents[i] = NewChaserAI(uint32(i+1), config.DefaultAgent(), finder, layout.World, locate, spawn,
			WithRand(rand.New(rand.NewPCG(uint64(i), 9))))
		mgr.Register(uint32(i+1), agents[i])
	}

	for frame := range 60 {
		// host moves the target between frames
		pos := model.NewVec3(float64(3+frame%6), 0.5, 6)
		require.NoError(t, layout.World.MoveActor(targetID, pos))
		require.NoError(t, mgr.Step(context.Background(), 0.05))
	}

	chasing := 0
	for _, a := range agents {
		s := a.State()
		_, ok := layout.World.Probe(s.Position.WithY(-1), model.Up, 5, geo.LayerTile)
		assert.True(t, ok, "agent %d off the grid at %v", a.ID(), s.Position)
		if s.Chasing || s.CooldownRemaining > 0 {
			chasing++
		}
	}
	assert.Positive(t, chasing, "at least one agent should have spotted the target")
}
