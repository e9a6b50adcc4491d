package world

import "math"

// regionKey addresses one broad-phase bucket on the X/Z plane.
type regionKey struct {
	rx, rz int32
}

// Region holds the colliders overlapping one bucket.
// Guarded by the owning World's lock.
type Region struct {
	key       regionKey
	colliders []*Collider
}

// NewRegion creates an empty region.
func NewRegion(rx, rz int32) *Region {
	return &Region{key: regionKey{rx, rz}}
}

// RX returns region X index
func (r *Region) RX() int32 {
	return r.key.rx
}

// RZ returns region Z index
func (r *Region) RZ() int32 {
	return r.key.rz
}

// Len returns number of colliders in this region.
func (r *Region) Len() int {
	return len(r.colliders)
}

func (r *Region) add(c *Collider) {
	r.colliders = append(r.colliders, c)
}

func (r *Region) remove(id uint32) {
	for i, c := range r.colliders {
		if c.ID == id {
			r.colliders = append(r.colliders[:i], r.colliders[i+1:]...)
			return
		}
	}
}

// regionSpan returns the inclusive region index range covering [lo, hi].
func regionSpan(lo, hi, size float64) (int32, int32) {
	return int32(math.Floor(lo / size)), int32(math.Floor(hi / size))
}
