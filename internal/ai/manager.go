package ai

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// TickManager drives every registered controller once per frame.
type TickManager struct {
	controllers     sync.Map // agentID -> Controller
	interval        time.Duration
	workers         int
	stopCh          chan struct{}
	stopOnce        sync.Once
	controllerCount atomic.Int32 // cached count of controllers (O(1) access)
	frames          atomic.Uint64
}

// NewTickManager creates a tick manager running one frame per interval.
// Up to workers controllers tick in parallel (GOMAXPROCS when workers <= 0).
func NewTickManager(interval time.Duration, workers int) *TickManager {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &TickManager{
		interval: interval,
		workers:  workers,
		stopCh:   make(chan struct{}),
	}
}

// Register registers a controller and starts it
func (m *TickManager) Register(agentID uint32, controller Controller) {
	if _, loaded := m.controllers.Swap(agentID, controller); !loaded {
		m.controllerCount.Add(1)
	}
	controller.Start()

	slog.Debug("AI controller registered",
		"agentID", agentID,
		"intention", controller.CurrentIntention())
}

// Unregister unregisters AI controller
func (m *TickManager) Unregister(agentID uint32) {
	value, ok := m.controllers.LoadAndDelete(agentID)
	if !ok {
		return
	}

	m.controllerCount.Add(-1)

	controller := value.(Controller)
	controller.Stop()

	slog.Debug("AI controller unregistered", "agentID", agentID)
}

// Start runs the frame loop until ctx is canceled or Stop is called.
// dt of each frame is the wall-clock time since the previous one.
func (m *TickManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("AI tick manager started", "interval", m.interval, "workers", m.workers)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			slog.Info("AI tick manager stopping", "frames", m.frames.Load())
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("AI tick manager stopped", "frames", m.frames.Load())
			return nil

		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if err := m.Step(ctx, dt); err != nil {
				return err
			}
		}
	}
}

// Stop stops the frame loop. Safe to call more than once.
func (m *TickManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// Step ticks every registered controller once with dt seconds.
// Controllers tick concurrently; Step returns after all of them finished.
func (m *TickManager) Step(ctx context.Context, dt float64) error {
	var g errgroup.Group
	g.SetLimit(m.workers)

	count := 0
	m.controllers.Range(func(_, value any) bool {
		if ctx.Err() != nil {
			return false
		}
		controller := value.(Controller)
		g.Go(func() error {
			controller.Tick(dt)
			return nil
		})
		count++
		return true
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("ticking controllers: %w", err)
	}
	m.frames.Add(1)

	if count > 0 && IsDebugEnabled() {
		slog.Debug("AI tick completed", "controllers", count, "dt", dt)
	}
	return ctx.Err()
}

// Frames returns number of completed Step calls.
func (m *TickManager) Frames() uint64 {
	return m.frames.Load()
}

// Count returns number of registered controllers (O(1) cached count)
func (m *TickManager) Count() int {
	return int(m.controllerCount.Load())
}

// GetController returns controller for agent
func (m *TickManager) GetController(agentID uint32) (Controller, error) {
	value, ok := m.controllers.Load(agentID)
	if !ok {
		return nil, fmt.Errorf("controller not found for agentID %d", agentID)
	}
	return value.(Controller), nil
}
