package geo

import "github.com/udisondev/tilechase/internal/model"

// Comparison tolerances. Load-bearing for float stability, keep exact.
const (
	// PositionTolerance is the per-axis tolerance for "same tile" checks.
	PositionTolerance = 0.01
	// DirectionTolerance is the per-axis tolerance for equal normalized directions.
	DirectionTolerance = 0.001
	// CostTolerance is the fCost tie window and the goal hCost threshold.
	CostTolerance = 0.0001
)

// Neighbor directions, one tile apart on the X/Z plane.
// Cardinal first, then diagonal; expansion order follows this slice.
var neighborDirections = [8]model.Vec3{
	model.Forward,
	model.Forward.Neg(),
	model.Right,
	model.Right.Neg(),
	model.Forward.Add(model.Right),
	model.Forward.Sub(model.Right),
	model.Forward.Neg().Add(model.Right),
	model.Forward.Neg().Sub(model.Right),
}
