// Package sim assembles a level, its target and a crowd of chasers into a
// running simulation.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/tilechase/internal/ai"
	"github.com/udisondev/tilechase/internal/config"
	"github.com/udisondev/tilechase/internal/game/geo"
	"github.com/udisondev/tilechase/internal/model"
	"github.com/udisondev/tilechase/internal/world"
)

// Simulation owns the world, the target patrol and every agent.
type Simulation struct {
	cfg      config.Sim
	layout   *world.Layout
	targetID uint32
	patrol   *Patrol
	manager  *ai.TickManager
	agents   []*ai.ChaserAI
}

// New places the target and spawns agents on a built level. observer, when
// not nil, receives every scan of every agent.
func New(cfg config.Sim, layout *world.Layout, observer ai.ScanObserver) (*Simulation, error) {
	w := layout.World

	targetSpawn, err := targetStart(cfg, layout)
	if err != nil {
		return nil, err
	}
	targetID := w.AddActor(world.TagTarget, targetSpawn)

	route := make([]model.Vec3, 0, len(cfg.TargetRoute))
	for _, pt := range cfg.TargetRoute {
		route = append(route, model.NewVec3(pt[0], cfg.TargetHeight, pt[1]))
	}
	patrol, err := NewPatrol(w, targetID, route, cfg.TargetSpeed)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:      cfg,
		layout:   layout,
		targetID: targetID,
		patrol:   patrol,
		manager:  ai.NewTickManager(cfg.TickInterval(), cfg.Workers),
	}

	locate := func() model.Vec3 {
		pos, _ := w.ActorPosition(targetID)
		return pos
	}

	pfCfg := cfg.Pathfinder
	pfCfg.TileScalar = layout.TileScalar

	for _, sp := range agentSpawns(cfg, layout) {
		// one pathfinder per agent, Scan keeps run state
		finder := geo.NewPathfinder(w, pfCfg)
		spawn := model.NewVec3(sp.X, cfg.TargetHeight, sp.Z)
		if _, ok := finder.TilePosition(spawn); !ok {
			slog.Warn("agent spawns off the tiles", "agent", sp.ID, "x", sp.X, "z", sp.Z)
		}

		var opts []ai.ChaserOption
		if observer != nil {
			opts = append(opts, ai.WithScanObserver(observer))
		}
		agent := ai.NewChaserAI(sp.ID, cfg.Agent, finder, w, locate, spawn, opts...)
		s.agents = append(s.agents, agent)
		s.manager.Register(sp.ID, agent)
	}

	slog.Info("simulation ready",
		"tiles", layout.Tiles,
		"walls", layout.Walls,
		"agents", len(s.agents),
		"target", targetSpawn,
		"route", len(route))
	return s, nil
}

// targetStart picks the level's target spawn, else the first route point.
func targetStart(cfg config.Sim, layout *world.Layout) (model.Vec3, error) {
	switch {
	case layout.HasTarget:
		return layout.TargetSpawn.WithY(cfg.TargetHeight), nil
	case len(cfg.TargetRoute) > 0:
		pt := cfg.TargetRoute[0]
		return model.NewVec3(pt[0], cfg.TargetHeight, pt[1]), nil
	default:
		return model.Vec3{}, errors.New("level has no target spawn and target_route is empty")
	}
}

// agentSpawns returns the configured spawns, or the level's 'A' markers
// numbered from 1 when none are configured.
func agentSpawns(cfg config.Sim, layout *world.Layout) []config.AgentSpawn {
	if len(cfg.Spawns) > 0 {
		return cfg.Spawns
	}
	spawns := make([]config.AgentSpawn, 0, len(layout.AgentSpawns))
	for i, pos := range layout.AgentSpawns {
		spawns = append(spawns, config.AgentSpawn{ID: uint32(i + 1), X: pos.X, Z: pos.Z})
	}
	return spawns
}

// Agents returns the spawned agents.
func (s *Simulation) Agents() []*ai.ChaserAI {
	return s.agents
}

// Manager returns the tick manager driving the agents.
func (s *Simulation) Manager() *ai.TickManager {
	return s.manager
}

// Patrol returns the target mover.
func (s *Simulation) Patrol() *Patrol {
	return s.patrol
}

// TargetPosition returns the target's current position.
func (s *Simulation) TargetPosition() model.Vec3 {
	pos, _ := s.layout.World.ActorPosition(s.targetID)
	return pos
}

// Step advances the target and then every agent by dt seconds.
func (s *Simulation) Step(ctx context.Context, dt float64) error {
	if err := s.patrol.Step(dt); err != nil {
		return err
	}
	return s.manager.Step(ctx, dt)
}

// Run drives the patrol and the agents in real time until ctx is done or
// the configured duration elapses. Cancellation is a clean stop.
func (s *Simulation) Run(ctx context.Context) error {
	if s.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Duration)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.manager.Start(gctx); err != nil {
			return fmt.Errorf("AI tick manager: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.patrol.Run(gctx, s.cfg.TickInterval()); err != nil {
			return fmt.Errorf("target patrol: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.logSummary()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func (s *Simulation) logSummary() {
	for _, a := range s.agents {
		st := a.State()
		slog.Info("agent final state",
			"agent", a.ID(),
			"intention", a.CurrentIntention(),
			"position", st.Position,
			"chasing", st.Chasing)
	}
	slog.Info("simulation finished",
		"frames", s.manager.Frames(),
		"target", s.TargetPosition())
}
