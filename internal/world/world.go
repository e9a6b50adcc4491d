package world

import (
	"fmt"
	"math"
	"sync"

	"github.com/udisondev/tilechase/internal/game/geo"
	"github.com/udisondev/tilechase/internal/model"
)

// World is a collider scene answering directional probes.
// Safe for concurrent probes; mutations (MoveActor, Add*) take the write lock.
type World struct {
	mu         sync.RWMutex
	regionSize float64
	regions    map[regionKey]*Region
	colliders  map[uint32]*Collider
	ids        *ObjectIDGenerator
}

var _ geo.Prober = (*World)(nil)

// NewWorld creates an empty world with the given broad-phase region size.
func NewWorld(regionSize float64) *World {
	if regionSize <= 0 {
		regionSize = DefaultRegionSize
	}
	return &World{
		regionSize: regionSize,
		regions:    make(map[regionKey]*Region),
		colliders:  make(map[uint32]*Collider),
		ids:        NewObjectIDGenerator(),
	}
}

// AddTile places a walkable tile marker centered at (x, 0, z).
func (w *World) AddTile(x, z, scalar float64) uint32 {
	half := model.NewVec3(scalar/2, TileThickness/2, scalar/2)
	c := NewBoxCollider(w.ids.NextTileID(), TagTile, geo.LayerTile,
		model.NewVec3(x, 0, z), half)
	// box hangs below the tile plane, transform stays on it
	c.Min.Y, c.Max.Y = -TileThickness, 0
	w.insert(c)
	return c.ID
}

// AddWallCell places a full-cell wall block centered at (x, z).
func (w *World) AddWallCell(x, z, scalar float64) uint32 {
	return w.AddWall(
		model.NewVec3(x-scalar/2, 0, z-scalar/2),
		model.NewVec3(x+scalar/2, WallHeight, z+scalar/2),
	)
}

// AddWall places an arbitrary wall box.
func (w *World) AddWall(minCorner, maxCorner model.Vec3) uint32 {
	c := &Collider{
		ID:     w.ids.NextWallID(),
		Tag:    TagWall,
		Layer:  geo.LayerWall,
		Center: minCorner.Add(maxCorner).Scale(0.5),
		Min:    minCorner,
		Max:    maxCorner,
	}
	w.insert(c)
	return c.ID
}

// AddActor places a tagged actor box centered at pos.
func (w *World) AddActor(tag string, pos model.Vec3) uint32 {
	half := model.NewVec3(ActorHalfExtent, ActorHalfExtent, ActorHalfExtent)
	c := NewBoxCollider(w.ids.NextActorID(), tag, geo.LayerActor, pos, half)
	w.insert(c)
	return c.ID
}

// MoveActor moves an actor to pos.
func (w *World) MoveActor(id uint32, pos model.Vec3) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	c, ok := w.colliders[id]
	if !ok {
		return fmt.Errorf("actor %d not found", id)
	}
	if c.Layer != geo.LayerActor {
		return fmt.Errorf("collider %d is a %s, not an actor", id, c.Layer)
	}

	w.unlink(c)
	delta := pos.Sub(c.Center)
	c.Center = pos
	c.Min = c.Min.Add(delta)
	c.Max = c.Max.Add(delta)
	w.link(c)
	return nil
}

// ActorPosition returns the current center of an actor.
func (w *World) ActorPosition(id uint32) (model.Vec3, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	c, ok := w.colliders[id]
	if !ok {
		return model.Vec3{}, false
	}
	return c.Center, true
}

// ColliderCount returns number of colliders in the world.
func (w *World) ColliderCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.colliders)
}

// RegionCount returns number of non-empty broad-phase regions.
func (w *World) RegionCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.regions)
}

// Probe casts a ray and returns the nearest collider on the requested layers.
// Equidistant hits resolve to the lower collider ID.
func (w *World) Probe(origin, direction model.Vec3, maxDistance float64, layers geo.Layer) (geo.Hit, bool) {
	dir := direction.Normalized()
	if dir.IsZero() || maxDistance <= 0 {
		return geo.Hit{}, false
	}
	end := origin.Add(dir.Scale(maxDistance))

	w.mu.RLock()
	defer w.mu.RUnlock()

	rx0, rx1 := regionSpan(math.Min(origin.X, end.X), math.Max(origin.X, end.X), w.regionSize)
	rz0, rz1 := regionSpan(math.Min(origin.Z, end.Z), math.Max(origin.Z, end.Z), w.regionSize)

	var best *Collider
	bestDist := math.Inf(1)
	for rx := rx0; rx <= rx1; rx++ {
		for rz := rz0; rz <= rz1; rz++ {
			region, ok := w.regions[regionKey{rx, rz}]
			if !ok {
				continue
			}
			for _, c := range region.colliders {
				if c.Layer&layers == 0 {
					continue
				}
				t, hit := c.intersect(origin, dir, maxDistance)
				if !hit {
					continue
				}
				if t < bestDist || (t == bestDist && c.ID < best.ID) {
					best, bestDist = c, t
				}
			}
		}
	}

	if best == nil {
		return geo.Hit{}, false
	}
	return geo.Hit{
		Point:     origin.Add(dir.Scale(bestDist)),
		Distance:  bestDist,
		Tag:       best.Tag,
		Transform: best.Center,
		ObjectID:  best.ID,
	}, true
}

func (w *World) insert(c *Collider) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.colliders[c.ID] = c
	w.link(c)
}

// link registers c in every region its X/Z footprint overlaps.
func (w *World) link(c *Collider) {
	rx0, rx1 := regionSpan(c.Min.X, c.Max.X, w.regionSize)
	rz0, rz1 := regionSpan(c.Min.Z, c.Max.Z, w.regionSize)
	for rx := rx0; rx <= rx1; rx++ {
		for rz := rz0; rz <= rz1; rz++ {
			key := regionKey{rx, rz}
			region, ok := w.regions[key]
			if !ok {
				region = NewRegion(rx, rz)
				w.regions[key] = region
			}
			region.add(c)
		}
	}
}

func (w *World) unlink(c *Collider) {
	rx0, rx1 := regionSpan(c.Min.X, c.Max.X, w.regionSize)
	rz0, rz1 := regionSpan(c.Min.Z, c.Max.Z, w.regionSize)
	for rx := rx0; rx <= rx1; rx++ {
		for rz := rz0; rz <= rz1; rz++ {
			key := regionKey{rx, rz}
			region, ok := w.regions[key]
			if !ok {
				continue
			}
			region.remove(c.ID)
			if region.Len() == 0 {
				delete(w.regions, key)
			}
		}
	}
}
