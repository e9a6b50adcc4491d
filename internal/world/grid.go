package world

// Collider geometry, in world units.
const (
	// TileThickness is the depth of a tile marker below the tile plane (y=0).
	TileThickness = 0.1
	// WallHeight is the top of wall boxes; wall probes run below it.
	WallHeight = 2.0
	// ActorHalfExtent is the half size of an actor's box.
	ActorHalfExtent = 0.3

	// DefaultRegionSize is the broad-phase bucket edge, in world units.
	DefaultRegionSize = 8.0
)

// Collider tags.
const (
	TagTile   = "tile"
	TagWall   = "wall"
	TagTarget = "target"
)
