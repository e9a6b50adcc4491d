package ai

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/udisondev/tilechase/internal/config"
	"github.com/udisondev/tilechase/internal/game/geo"
	"github.com/udisondev/tilechase/internal/model"
)

// TargetTag is the collider tag a visibility probe must hit to see the target.
const TargetTag = "target"

// TargetFunc returns the current world position of the pursued target.
type TargetFunc func() model.Vec3

// HearFunc reports whether the agent currently hears the target.
type HearFunc func() bool

// ScanEvent describes one path search issued by an agent.
type ScanEvent struct {
	AgentID uint32
	Stats   geo.ScanStats
}

// ScanObserver receives every ScanEvent. Called on the tick path: must not block.
type ScanObserver func(ScanEvent)

// AgentState is the mutable per-agent state, owned by one ChaserAI.
type AgentState struct {
	Position model.Vec3

	// chasing
	Path     []model.Vec3
	Cursor   int
	Chasing  bool
	LegStart model.Vec3 // tile center the current leg started from

	// alert
	CooldownRemaining float64 // seconds
	TargetVisible     bool
	LastTargetVisible bool
	HearsTarget       bool
	Speed             float64

	// wandering
	WanderDirection model.Vec3
	LastTile        model.Vec3
	LastCentered    bool
	LastCanTurn     bool
}

// ChaserOption configures a ChaserAI.
type ChaserOption func(*ChaserAI)

// WithRand sets the random source used for wander and search choices.
func WithRand(r *rand.Rand) ChaserOption {
	return func(ai *ChaserAI) {
		ai.rng = r
	}
}

// WithHearFunc sets the hearing signal. Without it the agent never hears the target.
func WithHearFunc(f HearFunc) ChaserOption {
	return func(ai *ChaserAI) {
		ai.hear = f
	}
}

// WithScanObserver sets a callback invoked after every path search.
func WithScanObserver(f ScanObserver) ChaserOption {
	return func(ai *ChaserAI) {
		ai.observe = f
	}
}

var _ Controller = (*ChaserAI)(nil)

// ChaserAI chases a target along scanned tile paths while it is in sight and
// wanders the grid otherwise.
type ChaserAI struct {
	id      uint32
	cfg     config.Agent
	finder  *geo.Pathfinder
	probe   geo.Prober
	locate  TargetFunc
	hear    HearFunc
	observe ScanObserver
	rng     *rand.Rand

	isRunning atomic.Bool
	paused    atomic.Bool
	intention atomic.Int32

	mu    sync.Mutex
	state AgentState
}

// NewChaserAI creates a chaser standing at spawn. finder must not be shared
// with other agents.
func NewChaserAI(id uint32, cfg config.Agent, finder *geo.Pathfinder, probe geo.Prober,
	locate TargetFunc, spawn model.Vec3, opts ...ChaserOption) *ChaserAI {
	ai := &ChaserAI{
		id:     id,
		cfg:    cfg,
		finder: finder,
		probe:  probe,
		locate: locate,
	}
	for _, opt := range opts {
		opt(ai)
	}
	if ai.rng == nil {
		ai.rng = rand.New(rand.NewPCG(rand.Uint64(), uint64(id)))
	}

	ai.state.Position = spawn
	ai.state.Speed = cfg.WalkSpeed
	ai.state.LastTile = ai.tileOrFlat(spawn)
	ai.state.LegStart = ai.state.LastTile
	ai.intention.Store(int32(model.IntentionIdle))
	return ai
}

// ID returns the agent id.
func (ai *ChaserAI) ID() uint32 {
	return ai.id
}

// Start starts AI controller
func (ai *ChaserAI) Start() {
	ai.isRunning.Store(true)
	ai.paused.Store(false)

	ai.mu.Lock()
	ai.updateIntention()
	ai.mu.Unlock()

	slog.Debug("chaser AI started",
		"agent", ai.id,
		"position", ai.Position())
}

// Stop stops AI controller
func (ai *ChaserAI) Stop() {
	ai.isRunning.Store(false)
	ai.storeIntention(model.IntentionIdle)
	slog.Debug("chaser AI stopped", "agent", ai.id)
}

// SetIntention overrides the agent behavior: IDLE freezes the agent, CHASE
// forces a path search toward the target, WANDER and SEARCH drop any chase.
func (ai *ChaserAI) SetIntention(intention model.Intention) {
	if intention == model.IntentionIdle {
		ai.paused.Store(true)
		ai.storeIntention(model.IntentionIdle)
		return
	}
	ai.paused.Store(false)

	ai.mu.Lock()
	defer ai.mu.Unlock()

	switch intention {
	case model.IntentionChase:
		if err := ai.pathTo(ai.locate()); err != nil {
			slog.Debug("forced chase failed", "agent", ai.id, "error", err)
		}
	case model.IntentionWander, model.IntentionSearch:
		if ai.state.Chasing {
			ai.leaveChase()
		}
	}
	ai.updateIntention()
}

// CurrentIntention returns current AI intention
func (ai *ChaserAI) CurrentIntention() model.Intention {
	return model.Intention(ai.intention.Load())
}

// PathTo scans a path from the agent to pos and starts chasing along it.
// On failure the agent keeps wandering and the scan error is returned.
func (ai *ChaserAI) PathTo(pos model.Vec3) error {
	ai.mu.Lock()
	defer ai.mu.Unlock()

	err := ai.pathTo(pos)
	ai.updateIntention()
	return err
}

// Position returns the agent's current world position.
func (ai *ChaserAI) Position() model.Vec3 {
	ai.mu.Lock()
	defer ai.mu.Unlock()
	return ai.state.Position
}

// State returns a snapshot of the agent state.
func (ai *ChaserAI) State() AgentState {
	ai.mu.Lock()
	defer ai.mu.Unlock()

	s := ai.state
	s.Path = slices.Clone(ai.state.Path)
	return s
}

// Tick advances the agent by dt seconds.
func (ai *ChaserAI) Tick(dt float64) {
	if !ai.isRunning.Load() || ai.paused.Load() {
		return
	}

	ai.mu.Lock()
	defer ai.mu.Unlock()

	ai.tick(dt)
	ai.updateIntention()
}

func (ai *ChaserAI) tick(dt float64) {
	s := &ai.state
	target := ai.locate()

	s.TargetVisible = ai.canSee(target)
	s.HearsTarget = ai.hear != nil && ai.hear()

	if s.TargetVisible && !s.LastTargetVisible && !s.Chasing {
		if err := ai.pathTo(target); err != nil && IsDebugEnabled() {
			slog.Debug("target spotted but no path", "agent", ai.id, "error", err)
		}
	}
	s.LastTargetVisible = s.TargetVisible

	ai.selectSpeed(dt)

	if s.Chasing {
		ai.followPath(target, dt)
		return
	}
	ai.wander(target, dt)
}

// canSee reports whether the first thing between the agent and the target,
// within visibility distance, is the target itself.
func (ai *ChaserAI) canSee(target model.Vec3) bool {
	dir := target.Sub(ai.state.Position)
	if dir.IsZero() {
		return false
	}
	hit, ok := ai.probe.Probe(ai.state.Position, dir, ai.cfg.VisibilityDistance, geo.LayerAny)
	return ok && hit.Tag == TargetTag
}

// selectSpeed arms the chase cooldown while the target is visible and
// decays it afterwards.
func (ai *ChaserAI) selectSpeed(dt float64) {
	s := &ai.state
	switch {
	case s.TargetVisible:
		s.CooldownRemaining = ai.cfg.ChaseCooldown.Seconds()
		s.Speed = ai.cfg.RunSpeed
	case s.CooldownRemaining > 0:
		s.Speed = ai.cfg.RunSpeed
		s.CooldownRemaining = max(0, s.CooldownRemaining-dt)
	case s.HearsTarget:
		s.Speed = ai.cfg.InvestigateSpeed
	default:
		s.Speed = ai.cfg.WalkSpeed
	}
}

// pathTo replaces the current path with a fresh scan toward pos.
// Caller must hold ai.mu.
func (ai *ChaserAI) pathTo(pos model.Vec3) error {
	s := &ai.state
	s.LegStart = ai.tileOrFlat(s.Position)

	path, err := ai.finder.Scan(s.Position, pos)
	stats := ai.finder.LastStats()
	if ai.observe != nil {
		ai.observe(ScanEvent{AgentID: ai.id, Stats: stats})
	}
	if IsDebugEnabled() {
		slog.Debug("scan finished",
			"agent", ai.id,
			"start", stats.Start,
			"goal", stats.Goal,
			"expansions", stats.Expansions,
			"nodes", stats.Nodes,
			"probes", stats.Probes,
			"legs", stats.Legs,
			"err", err)
	}
	if err != nil {
		// a failed first scan leaves the wander heading alone
		if s.Chasing {
			ai.leaveChase()
		}
		return fmt.Errorf("agent %d path to %v: %w", ai.id, pos, err)
	}

	s.Path = path
	s.Cursor = 0
	s.Chasing = true
	return nil
}

// followPath moves along the current leg at run speed and advances the
// cursor once the leg length is covered.
func (ai *ChaserAI) followPath(target model.Vec3, dt float64) {
	s := &ai.state
	if s.Cursor >= len(s.Path) {
		ai.leaveChase()
		return
	}

	leg := s.Path[s.Cursor]
	s.Position = s.Position.Add(leg.Normalized().Scale(ai.cfg.RunSpeed * dt))
	if s.Position.Flatten().Sub(s.LegStart).Len() < leg.Len() {
		return
	}

	s.LegStart = ai.tileOrFlat(s.Position)
	s.Cursor++
	if IsDebugEnabled() {
		slog.Debug("leg finished",
			"agent", ai.id,
			"cursor", s.Cursor,
			"legs", len(s.Path),
			"position", s.Position)
	}
	if s.Cursor >= len(s.Path) {
		ai.leaveChase()
	}
	if s.TargetVisible {
		if err := ai.pathTo(target); err != nil && IsDebugEnabled() {
			slog.Debug("re-scan failed, wandering", "agent", ai.id, "error", err)
		}
	}
}

// leaveChase drops the path. The zeroed wander direction makes the next
// wander tick re-center on a tile and pick a fresh direction.
func (ai *ChaserAI) leaveChase() {
	s := &ai.state
	s.Chasing = false
	s.Path = nil
	s.Cursor = 0
	s.WanderDirection = model.Vec3{}
	s.LastCentered = false
}

// wander moves along WanderDirection and picks a new direction whenever the
// agent arrives on a tile center.
func (ai *ChaserAI) wander(target model.Vec3, dt float64) {
	s := &ai.state

	centered := s.Position.Flatten().Sub(s.LastTile).Len() >= s.WanderDirection.Len()
	if centered {
		s.LastTile = ai.tileOrFlat(s.Position)
	}

	if centered && !s.LastCentered {
		ai.centerWithTile()
		viable := ai.finder.ValidDirections(s.Position)
		if ai.isAlert() {
			s.WanderDirection = ai.favoredDirection(target, viable)
		} else {
			ai.wanderAimlessly(viable)
		}
	}
	// a standing agent re-evaluates every tick
	s.LastCentered = centered && !s.WanderDirection.IsZero()

	s.Position = s.Position.Add(s.WanderDirection.Normalized().Scale(s.Speed * dt))
}

func (ai *ChaserAI) isAlert() bool {
	return ai.state.CooldownRemaining > 0 || ai.state.HearsTarget
}

// centerWithTile snaps X and Z onto the tile under the agent, keeping Y.
func (ai *ChaserAI) centerWithTile() {
	tile, ok := ai.finder.TilePosition(ai.state.Position)
	if !ok {
		return
	}
	ai.state.Position.X = tile.X
	ai.state.Position.Z = tile.Z
}

func (ai *ChaserAI) tileOrFlat(pos model.Vec3) model.Vec3 {
	if tile, ok := ai.finder.TilePosition(pos); ok {
		return tile
	}
	return pos.Flatten()
}

func (ai *ChaserAI) storeIntention(intention model.Intention) {
	old := model.Intention(ai.intention.Swap(int32(intention)))
	if old != intention && IsDebugEnabled() {
		slog.Debug("AI intention changed",
			"agent", ai.id,
			"from", old,
			"to", intention)
	}
}

// updateIntention derives the reported intention from the state.
// Caller must hold ai.mu.
func (ai *ChaserAI) updateIntention() {
	switch {
	case !ai.isRunning.Load() || ai.paused.Load():
		ai.storeIntention(model.IntentionIdle)
	case ai.state.Chasing:
		ai.storeIntention(model.IntentionChase)
	case ai.isAlert():
		ai.storeIntention(model.IntentionSearch)
	default:
		ai.storeIntention(model.IntentionWander)
	}
}
