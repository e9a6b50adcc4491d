package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/tilechase/internal/model"
)

// Level is the YAML definition of a tile level.
//
// Rows are read top to bottom as increasing Z, columns as increasing X:
//
//	'.'  walkable tile
//	'#'  wall block (no tile)
//	'A'  tile + agent spawn
//	'T'  tile + target spawn
//	' '  void (no tile, no wall)
type Level struct {
	Name       string    `yaml:"name"`
	TileScalar float64   `yaml:"tile_scalar"`
	RegionSize float64   `yaml:"region_size"`
	Rows       []string  `yaml:"rows"`
	Walls      []WallDef `yaml:"walls"`
}

// WallDef is an explicit wall box, for thin walls between tiles.
type WallDef struct {
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`
}

// Layout is the result of building a Level.
type Layout struct {
	World        *World
	TileScalar   float64
	AgentSpawns  []model.Vec3 // tile centers, y=0
	TargetSpawn  model.Vec3
	HasTarget    bool
	Tiles, Walls int
}

// LoadLevel reads and parses a level file.
func LoadLevel(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level %s: %w", path, err)
	}
	lvl, err := ParseLevel(data)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	return lvl, nil
}

// ParseLevel parses a level from YAML bytes.
func ParseLevel(data []byte) (*Level, error) {
	var lvl Level
	if err := yaml.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	if lvl.TileScalar == 0 {
		lvl.TileScalar = 1.0
	}
	if lvl.TileScalar < 0 {
		return nil, fmt.Errorf("tile_scalar must be positive, got %v", lvl.TileScalar)
	}
	if len(lvl.Rows) == 0 {
		return nil, fmt.Errorf("level has no rows")
	}
	for i, w := range lvl.Walls {
		for axis := range 3 {
			if w.Min[axis] >= w.Max[axis] {
				return nil, fmt.Errorf("wall %d: min must be below max on every axis", i)
			}
		}
	}
	return &lvl, nil
}

// Build creates the collider world for the level.
func (l *Level) Build() (*Layout, error) {
	out := &Layout{
		World:      NewWorld(l.RegionSize),
		TileScalar: l.TileScalar,
	}
	s := l.TileScalar

	for row, line := range l.Rows {
		for col, ch := range line {
			x := float64(col) * s
			z := float64(row) * s
			switch ch {
			case '.':
				out.World.AddTile(x, z, s)
				out.Tiles++
			case 'A':
				out.World.AddTile(x, z, s)
				out.Tiles++
				out.AgentSpawns = append(out.AgentSpawns, model.NewVec3(x, 0, z))
			case 'T':
				if out.HasTarget {
					return nil, fmt.Errorf("second target spawn at row %d col %d", row, col)
				}
				out.World.AddTile(x, z, s)
				out.Tiles++
				out.TargetSpawn = model.NewVec3(x, 0, z)
				out.HasTarget = true
			case '#':
				out.World.AddWallCell(x, z, s)
				out.Walls++
			case ' ':
			default:
				return nil, fmt.Errorf("unknown level symbol %q at row %d col %d", ch, row, col)
			}
		}
	}

	for _, w := range l.Walls {
		out.World.AddWall(
			model.NewVec3(w.Min[0], w.Min[1], w.Min[2]),
			model.NewVec3(w.Max[0], w.Max[1], w.Max[2]),
		)
		out.Walls++
	}

	return out, nil
}
