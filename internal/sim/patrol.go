package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/udisondev/tilechase/internal/model"
	"github.com/udisondev/tilechase/internal/world"
)

// Patrol walks the target actor along a looped route of waypoints.
type Patrol struct {
	world *world.World
	id    uint32
	route []model.Vec3
	speed float64

	pos  model.Vec3
	next int
}

// NewPatrol creates a patrol for actor id starting at its current position.
func NewPatrol(w *world.World, id uint32, route []model.Vec3, speed float64) (*Patrol, error) {
	pos, ok := w.ActorPosition(id)
	if !ok {
		return nil, fmt.Errorf("patrol actor %d not found", id)
	}
	return &Patrol{
		world: w,
		id:    id,
		route: route,
		speed: speed,
		pos:   pos,
	}, nil
}

// Position returns where the patrol put the target last.
func (p *Patrol) Position() model.Vec3 {
	return p.pos
}

// Step advances the target by speed*dt along the route.
func (p *Patrol) Step(dt float64) error {
	if len(p.route) == 0 || p.speed <= 0 {
		return nil
	}

	remaining := p.speed * dt
	// one full lap at most per step, a degenerate route never spins
	for range len(p.route) {
		if remaining <= 0 {
			break
		}
		to := p.route[p.next]
		d := to.Sub(p.pos).Len()
		if d > remaining {
			p.pos = p.pos.Add(to.Sub(p.pos).Scale(remaining / d))
			break
		}
		p.pos = to
		remaining -= d
		p.next = (p.next + 1) % len(p.route)
	}

	if err := p.world.MoveActor(p.id, p.pos); err != nil {
		return fmt.Errorf("moving target: %w", err)
	}
	return nil
}

// Run steps the patrol every interval until ctx is canceled.
func (p *Patrol) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if err := p.Step(dt); err != nil {
				return err
			}
		}
	}
}
