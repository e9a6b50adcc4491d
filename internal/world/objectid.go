package world

import "sync/atomic"

// ObjectIDGenerator generates unique collider IDs for one World.
//
// ID ranges (convention):
//
//	0x00000000 - 0x0FFFFFFF: Reserved (0 = invalid)
//	0x10000000 - 0x1FFFFFFF: Tiles
//	0x20000000 - 0x2FFFFFFF: Walls
//	0x30000000 - 0x3FFFFFFF: Actors (targets)
type ObjectIDGenerator struct {
	nextTileID  atomic.Uint32
	nextWallID  atomic.Uint32
	nextActorID atomic.Uint32
}

// NewObjectIDGenerator creates a new ID generator.
func NewObjectIDGenerator() *ObjectIDGenerator {
	gen := &ObjectIDGenerator{}
	gen.nextTileID.Store(0x10000000)
	gen.nextWallID.Store(0x20000000)
	gen.nextActorID.Store(0x30000000)
	return gen
}

// NextTileID generates next unique tile ID.
func (g *ObjectIDGenerator) NextTileID() uint32 {
	return g.nextTileID.Add(1)
}

// NextWallID generates next unique wall ID.
func (g *ObjectIDGenerator) NextWallID() uint32 {
	return g.nextWallID.Add(1)
}

// NextActorID generates next unique actor ID.
func (g *ObjectIDGenerator) NextActorID() uint32 {
	return g.nextActorID.Add(1)
}
