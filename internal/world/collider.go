package world

import (
	"math"

	"github.com/udisondev/tilechase/internal/game/geo"
	"github.com/udisondev/tilechase/internal/model"
)

// Collider is an axis-aligned box a probe can strike.
type Collider struct {
	ID     uint32
	Tag    string
	Layer  geo.Layer
	Center model.Vec3 // reported as the hit transform
	Min    model.Vec3
	Max    model.Vec3
}

// NewBoxCollider creates a collider around center with the given half extents.
func NewBoxCollider(id uint32, tag string, layer geo.Layer, center, half model.Vec3) *Collider {
	return &Collider{
		ID:     id,
		Tag:    tag,
		Layer:  layer,
		Center: center,
		Min:    center.Sub(half),
		Max:    center.Add(half),
	}
}

// intersect returns the entry distance of a ray (dir normalized) into the
// box. Rays starting inside the box and rays that only graze an edge or a
// corner do not count as hits. On axes the ray does not move along, the
// box spans [min, max).
func (c *Collider) intersect(origin, dir model.Vec3, maxDist float64) (float64, bool) {
	enter := math.Inf(-1)
	exit := math.Inf(1)

	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{c.Min.X, c.Min.Y, c.Min.Z}
	hi := [3]float64{c.Max.X, c.Max.Y, c.Max.Z}

	for axis := range 3 {
		if d[axis] == 0 {
			// half-open, a shared edge belongs to the upper box
			if o[axis] < lo[axis] || o[axis] >= hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - o[axis]) / d[axis]
		t2 := (hi[axis] - o[axis]) / d[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		enter = max(enter, t1)
		exit = min(exit, t2)
	}

	if enter >= exit || enter < 0 || enter > maxDist {
		return 0, false
	}
	return enter, true
}
