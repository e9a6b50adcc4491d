package geo

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/udisondev/tilechase/internal/config"
	"github.com/udisondev/tilechase/internal/model"
)

// Scan failures. All are recoverable for the caller.
var (
	ErrNoTileFound       = errors.New("no tile underneath")
	ErrNoPathFound       = errors.New("no path found")
	ErrBacktrackOverflow = errors.New("backtrack exceeded attempt cap")
)

// gridNode is one discovered tile in a search run.
// parent is an index into Pathfinder.nodes (-1 for the start node).
type gridNode struct {
	pos     model.Vec3
	parent  int
	gCost   float64 // accumulated distance from start
	hCost   float64 // straight-line distance to goal
	fCost   float64 // gCost + hCost
	scanned bool
}

// tileKey is a tile position quantized on the PositionTolerance lattice.
type tileKey [3]int64

func keyOf(v model.Vec3) tileKey {
	return tileKey{
		int64(math.Round(v.X / PositionTolerance)),
		int64(math.Round(v.Y / PositionTolerance)),
		int64(math.Round(v.Z / PositionTolerance)),
	}
}

// ScanStats describes the latest Scan run.
type ScanStats struct {
	Start      model.Vec3 // snapped start tile
	Goal       model.Vec3 // snapped goal tile
	Expansions int        // nodes whose neighbors were probed
	Nodes      int        // nodes discovered, open and closed
	Probes     int        // probe calls issued
	Legs       int        // instructions returned
	Duration   time.Duration
	Err        error
}

// Pathfinder is a best-first tile search whose grid is discovered on demand
// through a Prober. One Pathfinder serves one agent: Scan resets all run
// state and is not safe for concurrent use.
type Pathfinder struct {
	probe Prober
	cfg   config.Pathfinder

	// run-local state, reset by every Scan
	nodes   []gridNode
	claimed map[tileKey]int
	start   model.Vec3
	goal    model.Vec3
	probes  int
	stats   ScanStats
}

// NewPathfinder creates a Pathfinder backed by the given probe.
func NewPathfinder(probe Prober, cfg config.Pathfinder) *Pathfinder {
	return &Pathfinder{
		probe:   probe,
		cfg:     cfg,
		nodes:   make([]gridNode, 0, 64),
		claimed: make(map[tileKey]int, 64),
	}
}

// TileScalar returns the spacing between adjacent tile centers.
func (p *Pathfinder) TileScalar() float64 {
	return p.cfg.TileScalar
}

// DiagonalCheck returns the wall probe length in tiles.
func (p *Pathfinder) DiagonalCheck() float64 {
	return p.cfg.DiagonalCheck
}

// LastStats returns statistics of the latest Scan.
func (p *Pathfinder) LastStats() ScanStats {
	return p.stats
}

// Scan searches from the tile under start to the tile under goal and returns
// the compressed movement legs. Scanning a tile to itself yields a single
// zero vector.
func (p *Pathfinder) Scan(start, goal model.Vec3) ([]model.Vec3, error) {
	began := time.Now()
	p.reset()

	path, err := p.scan(start, goal)

	p.stats.Nodes = len(p.nodes)
	p.stats.Probes = p.probes
	p.stats.Legs = len(path)
	p.stats.Duration = time.Since(began)
	p.stats.Err = err
	return path, err
}

func (p *Pathfinder) scan(start, goal model.Vec3) ([]model.Vec3, error) {
	startTile, ok := p.TilePosition(start)
	if !ok {
		return nil, fmt.Errorf("snapping start %v: %w", start, ErrNoTileFound)
	}
	goalTile, ok := p.TilePosition(goal)
	if !ok {
		return nil, fmt.Errorf("snapping goal %v: %w", goal, ErrNoTileFound)
	}
	p.start, p.goal = startTile, goalTile
	p.stats.Start, p.stats.Goal = startTile, goalTile

	// Same tile, already there
	if startTile.ApproxEqual(goalTile, PositionTolerance) {
		return []model.Vec3{{}}, nil
	}

	p.addNode(startTile, -1)

	end := -1
	for range p.cfg.MaxAttempts {
		best := p.findBestCandidate()
		if best < 0 {
			return nil, fmt.Errorf("frontier exhausted after %d expansions: %w", p.stats.Expansions, ErrNoPathFound)
		}

		if p.nodes[best].hCost < CostTolerance {
			end = best
			break
		}

		p.expand(best)
		p.nodes[best].scanned = true
		p.stats.Expansions++
	}

	if end < 0 {
		return nil, fmt.Errorf("attempt cap %d reached: %w", p.cfg.MaxAttempts, ErrNoPathFound)
	}

	steps, err := p.backtrack(end)
	if err != nil {
		return nil, err
	}
	return CompressPath(steps), nil
}

// reset discards the previous run's nodes and claims.
func (p *Pathfinder) reset() {
	p.nodes = p.nodes[:0]
	clear(p.claimed)
	p.start, p.goal = model.Vec3{}, model.Vec3{}
	p.probes = 0
	p.stats = ScanStats{}
}

// addNode materializes a node at pos and claims its tile.
func (p *Pathfinder) addNode(pos model.Vec3, parent int) int {
	var g float64
	if parent >= 0 {
		pn := p.nodes[parent]
		g = pn.gCost + pos.Distance(pn.pos)
	}
	h := pos.Distance(p.goal)

	idx := len(p.nodes)
	p.nodes = append(p.nodes, gridNode{
		pos:    pos,
		parent: parent,
		gCost:  g,
		hCost:  h,
		fCost:  g + h,
	})
	p.claimed[keyOf(pos)] = idx
	return idx
}

// findBestCandidate returns the index of the unscanned node with the lowest
// fCost; fCosts within CostTolerance are decided by lower hCost, and full
// ties keep the earliest discovered node. Returns -1 when nothing is open.
func (p *Pathfinder) findBestCandidate() int {
	best := -1
	for i := range p.nodes {
		n := &p.nodes[i]
		if n.scanned {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		b := &p.nodes[best]
		if math.Abs(n.fCost-b.fCost) <= CostTolerance {
			if n.hCost < b.hCost {
				best = i
			}
			continue
		}
		if n.fCost < b.fCost {
			best = i
		}
	}
	return best
}

// expand probes the 8 neighbors of node idx and adds every viable,
// unclaimed tile as a child.
func (p *Pathfinder) expand(idx int) {
	from := p.nodes[idx].pos
	for _, dir := range neighborDirections {
		tile, ok := p.probeDirection(from, dir)
		if !ok {
			continue
		}
		if _, held := p.claimed[keyOf(tile.Transform)]; held {
			continue
		}
		p.addNode(tile.Transform, idx)
	}
}

// backtrack walks parent links from end to the start node and returns the
// tile-to-tile steps in start-to-goal order.
func (p *Pathfinder) backtrack(end int) ([]model.Vec3, error) {
	steps := make([]model.Vec3, 0, 16)
	cur := end
	for i := 0; p.nodes[cur].parent >= 0; i++ {
		if i >= p.cfg.MaxAttempts {
			slog.Error("pathfinder backtrack overflow, node graph is malformed",
				"start", p.start,
				"goal", p.goal,
				"nodes", len(p.nodes),
				"cap", p.cfg.MaxAttempts)
			return nil, fmt.Errorf("walking parents from node %d: %w", end, ErrBacktrackOverflow)
		}
		parent := p.nodes[cur].parent
		steps = append(steps, p.nodes[cur].pos.Sub(p.nodes[parent].pos))
		cur = parent
	}
	slices.Reverse(steps)
	return steps, nil
}

// CompressPath merges consecutive steps that share a normalized direction
// (within DirectionTolerance) into a single leg. Compressing an already
// compressed path returns an equal path.
func CompressPath(steps []model.Vec3) []model.Vec3 {
	out := make([]model.Vec3, 0, len(steps))
	for _, s := range steps {
		if n := len(out); n > 0 && s.Normalized().ApproxEqual(out[n-1].Normalized(), DirectionTolerance) {
			out[n-1] = out[n-1].Add(s)
			continue
		}
		out = append(out, s)
	}
	return out
}

// DebugNodes logs every node of the latest run at debug level.
func (p *Pathfinder) DebugNodes() {
	for i, n := range p.nodes {
		slog.Debug("pathfinder node",
			"index", i+1,
			"position", n.pos,
			"parent", n.parent,
			"g", n.gCost,
			"h", n.hCost,
			"f", n.fCost,
			"scanned", n.scanned)
	}
}
