package config

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Agent holds per-agent movement and perception tuning.
type Agent struct {
	WalkSpeed          float64       `yaml:"walk_speed"`          // units/s, calm wandering
	InvestigateSpeed   float64       `yaml:"investigate_speed"`   // units/s, target heard
	RunSpeed           float64       `yaml:"run_speed"`           // units/s, chasing / alert
	ChaseCooldown      time.Duration `yaml:"chase_cooldown"`      // alert time after losing sight
	VisibilityDistance float64       `yaml:"visibility_distance"` // max sight probe length
	WanderTurnChance   float64       `yaml:"wander_turn_chance"`  // [0,1]
}

// DefaultAgent returns Agent config with sensible defaults.
func DefaultAgent() Agent {
	return Agent{
		WalkSpeed:          1.5,
		InvestigateSpeed:   2.5,
		RunSpeed:           4.0,
		ChaseCooldown:      3 * time.Second,
		VisibilityDistance: 12.0,
		WanderTurnChance:   0.35,
	}
}

// Validate checks Agent bounds.
func (a Agent) Validate() error {
	var errs []error
	if a.WalkSpeed < 0 || a.InvestigateSpeed < 0 || a.RunSpeed < 0 {
		errs = append(errs, fmt.Errorf("speeds must not be negative (walk=%v investigate=%v run=%v)",
			a.WalkSpeed, a.InvestigateSpeed, a.RunSpeed))
	}
	if a.ChaseCooldown < 0 {
		errs = append(errs, fmt.Errorf("chase_cooldown must not be negative, got %s", a.ChaseCooldown))
	}
	if a.VisibilityDistance <= 0 {
		errs = append(errs, fmt.Errorf("visibility_distance must be positive, got %v", a.VisibilityDistance))
	}
	if a.WanderTurnChance < 0 || a.WanderTurnChance > 1 {
		errs = append(errs, fmt.Errorf("wander_turn_chance must be in [0,1], got %v", a.WanderTurnChance))
	}
	return errors.Join(errs...)
}

// Pathfinder holds grid search tuning.
type Pathfinder struct {
	TileScalar        float64 `yaml:"tile_scalar"`         // spacing between tile centers
	MaxAttempts       int     `yaml:"max_attempts"`        // expansion and backtrack cap
	TileProbeDistance float64 `yaml:"tile_probe_distance"` // vertical tile probe length
	TileProbeHeight   float64 `yaml:"tile_probe_height"`   // Y the vertical tile probe starts from
	WallProbeHeight   float64 `yaml:"wall_probe_height"`   // absolute Y of horizontal wall probes
	DiagonalCheck     float64 `yaml:"diagonal_check"`      // wall probe length, in tiles
}

// Search defaults.
const (
	DefaultMaxAttempts       = 200
	DefaultTileProbeDistance = 5.0
	DefaultTileProbeHeight   = -1.0
	DefaultWallProbeHeight   = 1.0

	// DefaultDiagonalCheck must exceed sqrt(2)/2 and stay a bit below 1.
	DefaultDiagonalCheck = 0.75
)

// DefaultPathfinder returns Pathfinder config with sensible defaults.
func DefaultPathfinder() Pathfinder {
	return Pathfinder{
		TileScalar:        1.0,
		MaxAttempts:       DefaultMaxAttempts,
		TileProbeDistance: DefaultTileProbeDistance,
		TileProbeHeight:   DefaultTileProbeHeight,
		WallProbeHeight:   DefaultWallProbeHeight,
		DiagonalCheck:     DefaultDiagonalCheck,
	}
}

// Validate checks Pathfinder bounds.
func (p Pathfinder) Validate() error {
	var errs []error
	if p.TileScalar <= 0 {
		errs = append(errs, fmt.Errorf("tile_scalar must be positive, got %v", p.TileScalar))
	}
	if p.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("max_attempts must be positive, got %d", p.MaxAttempts))
	}
	if p.TileProbeDistance <= 0 {
		errs = append(errs, fmt.Errorf("tile_probe_distance must be positive, got %v", p.TileProbeDistance))
	}
	if err := validateDiagonalCheck(p.DiagonalCheck); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validateDiagonalCheck(v float64) error {
	if v <= math.Sqrt2/2 || v >= 1 {
		return fmt.Errorf("diagonal_check must be in (%.4f, 1), got %v", math.Sqrt2/2, v)
	}
	return nil
}
