package geo

import "github.com/udisondev/tilechase/internal/model"

// Layer is a bitmask of collider classes a probe may hit.
type Layer uint8

const (
	LayerTile  Layer = 1 << 0 // walkable surface markers
	LayerWall  Layer = 1 << 1 // obstruction markers
	LayerActor Layer = 1 << 2 // targets and other tagged bodies
	LayerAny   Layer = LayerTile | LayerWall | LayerActor
)

// String returns human-readable layer name.
func (l Layer) String() string {
	switch l {
	case LayerTile:
		return "tile"
	case LayerWall:
		return "wall"
	case LayerActor:
		return "actor"
	case LayerAny:
		return "any"
	default:
		return "mixed"
	}
}

// Hit describes the first collider a probe struck.
type Hit struct {
	Point     model.Vec3 // world-space impact point
	Distance  float64    // distance from probe origin to Point
	Tag       string     // collider tag ("tile", "wall", "target", ...)
	Transform model.Vec3 // position of the struck object (tile center for tiles)
	ObjectID  uint32
}

// Prober casts a ray and reports the first collider of the given layers
// within maxDistance. Direction does not need to be normalized.
type Prober interface {
	Probe(origin, direction model.Vec3, maxDistance float64, layers Layer) (Hit, bool)
}

// ProberFunc adapts a plain function to Prober.
type ProberFunc func(origin, direction model.Vec3, maxDistance float64, layers Layer) (Hit, bool)

// Probe calls f.
func (f ProberFunc) Probe(origin, direction model.Vec3, maxDistance float64, layers Layer) (Hit, bool) {
	return f(origin, direction, maxDistance, layers)
}
