package ai

import (
	"math"

	"github.com/udisondev/tilechase/internal/game/geo"
	"github.com/udisondev/tilechase/internal/model"
)

// favoredDeadband is the minimum normalized offset on an axis before the
// favored direction steps along it.
const favoredDeadband = 0.01

// wanderAimlessly keeps the current direction while it stays viable. A lost
// direction is replaced at random; on entering a junction (more than two
// viable directions) the agent turns with WanderTurnChance. Neither choice
// reverses unless reversing is the only way out.
func (ai *ChaserAI) wanderAimlessly(viable []model.Vec3) {
	s := &ai.state
	if len(viable) == 0 {
		s.WanderDirection = model.Vec3{}
		return
	}

	if !containsDirection(viable, s.WanderDirection) {
		s.WanderDirection = ai.pickNonReverse(viable)
		return
	}

	canTurn := len(viable) > 2
	if canTurn && !s.LastCanTurn && ai.rng.Float64() < ai.cfg.WanderTurnChance {
		s.WanderDirection = ai.pickNonReverse(viable)
	}
	s.LastCanTurn = canTurn
}

// pickNonReverse picks a random viable direction other than the reverse of
// the current one, unless it is the only option.
func (ai *ChaserAI) pickNonReverse(viable []model.Vec3) model.Vec3 {
	candidates := viable
	if len(candidates) > 1 {
		candidates = withoutDirection(candidates, ai.state.WanderDirection.Neg())
	}
	return candidates[ai.rng.IntN(len(candidates))]
}

// favoredDirection picks the viable direction that best leads toward the
// target: the exact sign combination, then its X part, then its Z part,
// then a random non-diagonal. Returns the zero vector when nothing is viable.
func (ai *ChaserAI) favoredDirection(target model.Vec3, viable []model.Vec3) model.Vec3 {
	s := &ai.state
	scalar := ai.finder.TileScalar()

	dif := target.Sub(s.Position).Normalized()
	want := model.NewVec3(axisSign(dif.X), 0, axisSign(dif.Z)).Scale(scalar)

	candidates := viable
	if len(candidates) > 1 {
		candidates = withoutDirection(candidates, s.WanderDirection.Neg())
	}

	for _, try := range []model.Vec3{want, {X: want.X}, {Z: want.Z}} {
		if !try.IsZero() && containsDirection(candidates, try) {
			return try
		}
	}

	straight := make([]model.Vec3, 0, len(candidates))
	for _, d := range candidates {
		if !ai.isDiagonal(d) {
			straight = append(straight, d)
		}
	}
	if len(straight) == 0 {
		straight = candidates
	}
	if len(straight) == 0 {
		return model.Vec3{}
	}
	return straight[ai.rng.IntN(len(straight))]
}

func (ai *ChaserAI) isDiagonal(d model.Vec3) bool {
	return math.Abs(d.X)+math.Abs(d.Z) > ai.finder.TileScalar()*ai.finder.DiagonalCheck()*2
}

func axisSign(v float64) float64 {
	switch {
	case v >= favoredDeadband:
		return 1
	case v <= -favoredDeadband:
		return -1
	default:
		return 0
	}
}

func containsDirection(list []model.Vec3, dir model.Vec3) bool {
	for _, d := range list {
		if d.ApproxEqual(dir, geo.PositionTolerance) {
			return true
		}
	}
	return false
}

// withoutDirection returns a copy of list without entries equal to dir.
func withoutDirection(list []model.Vec3, dir model.Vec3) []model.Vec3 {
	out := make([]model.Vec3, 0, len(list))
	for _, d := range list {
		if !d.ApproxEqual(dir, geo.PositionTolerance) {
			out = append(out, d)
		}
	}
	return out
}
