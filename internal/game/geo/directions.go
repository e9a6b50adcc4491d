package geo

import "github.com/udisondev/tilechase/internal/model"

// TilePosition returns the center of the tile under pos.
// The tile probe starts below the tile plane and casts upward.
func (p *Pathfinder) TilePosition(pos model.Vec3) (model.Vec3, bool) {
	hit, ok := p.tileUnder(pos)
	if !ok {
		return model.Vec3{}, false
	}
	return hit.Transform, true
}

// ValidDirections returns the neighbor offsets (scaled by the tile scalar)
// that are walkable from pos: a tile exists at the offset and no wall
// blocks the way toward it.
func (p *Pathfinder) ValidDirections(pos model.Vec3) []model.Vec3 {
	result := make([]model.Vec3, 0, len(neighborDirections))
	for _, dir := range neighborDirections {
		if _, ok := p.probeDirection(pos, dir); ok {
			result = append(result, dir.Scale(p.cfg.TileScalar))
		}
	}
	return result
}

// probeDirection applies the dual-probe rule for one neighbor direction and
// returns the tile hit on success.
func (p *Pathfinder) probeDirection(from, dir model.Vec3) (Hit, bool) {
	tile, ok := p.tileUnder(from.Add(dir.Scale(p.cfg.TileScalar)))
	if !ok {
		return Hit{}, false
	}

	origin := from.WithY(p.cfg.WallProbeHeight)
	scanDistance := p.cfg.TileScalar * p.cfg.DiagonalCheck
	if _, blocked := p.cast(origin, dir.Normalized(), scanDistance, LayerWall); blocked {
		return Hit{}, false
	}
	return tile, true
}

func (p *Pathfinder) tileUnder(pos model.Vec3) (Hit, bool) {
	origin := pos.WithY(p.cfg.TileProbeHeight)
	return p.cast(origin, model.Up, p.cfg.TileProbeDistance, LayerTile)
}

// cast forwards to the probe and counts the call.
func (p *Pathfinder) cast(origin, dir model.Vec3, dist float64, layers Layer) (Hit, bool) {
	p.probes++
	return p.probe.Probe(origin, dir, dist, layers)
}
