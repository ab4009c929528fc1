package quill

import (
	"math"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// FixturePair is a candidate collision reported by the broad phase.
type FixturePair struct {
	Body1    *actor.Body
	Fixture1 *actor.Fixture
	Body2    *actor.Body
	Fixture2 *actor.Fixture
}

type proxy struct {
	body    *actor.Body
	fixture *actor.Fixture
	aabb    geometry.AABB
}

type cellKey struct {
	x, y int
}

// SpatialGrid is a uniform hashed grid over fixture AABBs. Entries are
// long-lived: a fixture stays registered until explicitly removed. Each
// Detect rebuilds the cell table from the current AABBs, which keeps the
// structure simple while bodies move every step anyway.
type SpatialGrid struct {
	cellSize float64
	proxies  map[*actor.Fixture]*proxy
	cells    map[cellKey][]*proxy
}

// NewSpatialGrid creates a grid with the given cell size. Cells somewhat
// larger than the average fixture keep the per-cell lists short.
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 1.0
	}
	return &SpatialGrid{
		cellSize: cellSize,
		proxies:  make(map[*actor.Fixture]*proxy),
		cells:    make(map[cellKey][]*proxy),
	}
}

// Update registers or refreshes a fixture's AABB.
func (g *SpatialGrid) Update(body *actor.Body, fixture *actor.Fixture, aabb geometry.AABB) {
	p, ok := g.proxies[fixture]
	if !ok {
		p = &proxy{body: body, fixture: fixture}
		g.proxies[fixture] = p
	}
	p.body = body
	p.aabb = aabb
}

// Remove drops a fixture's entry.
func (g *SpatialGrid) Remove(fixture *actor.Fixture) {
	delete(g.proxies, fixture)
}

// Size returns the number of registered fixtures.
func (g *SpatialGrid) Size() int {
	return len(g.proxies)
}

func (g *SpatialGrid) cellRange(aabb geometry.AABB) (minX, minY, maxX, maxY int) {
	minX = int(math.Floor(aabb.Min.X() / g.cellSize))
	minY = int(math.Floor(aabb.Min.Y() / g.cellSize))
	maxX = int(math.Floor(aabb.Max.X() / g.cellSize))
	maxY = int(math.Floor(aabb.Max.Y() / g.cellSize))
	return
}

func (g *SpatialGrid) rebuild() {
	clear(g.cells)
	for _, p := range g.proxies {
		minX, minY, maxX, maxY := g.cellRange(p.aabb)
		for x := minX; x <= maxX; x++ {
			for y := minY; y <= maxY; y++ {
				k := cellKey{x, y}
				g.cells[k] = append(g.cells[k], p)
			}
		}
	}
}

// QueryAABB returns the fixtures whose AABB overlaps the query box.
func (g *SpatialGrid) QueryAABB(aabb geometry.AABB) []FixturePair {
	g.rebuild()
	seen := make(map[*actor.Fixture]bool)
	var out []FixturePair

	minX, minY, maxX, maxY := g.cellRange(aabb)
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for _, p := range g.cells[cellKey{x, y}] {
				if seen[p.fixture] || !p.aabb.Overlaps(aabb) {
					continue
				}
				seen[p.fixture] = true
				out = append(out, FixturePair{Body1: p.body, Fixture1: p.fixture})
			}
		}
	}
	return out
}

// QueryPoint returns the fixtures whose AABB contains the point.
func (g *SpatialGrid) QueryPoint(point mgl64.Vec2) []FixturePair {
	return g.QueryAABB(geometry.NewAABB(point, point))
}

// Detect returns every overlapping fixture pair, deduplicated, excluding
// pairs on the same body, pairs both of infinite mass, pairs both asleep,
// and pairs whose filters disallow collision.
func (g *SpatialGrid) Detect() []FixturePair {
	g.rebuild()

	type pairKey struct {
		a, b *actor.Fixture
	}
	seen := make(map[pairKey]bool)
	var out []FixturePair

	for _, list := range g.cells {
		for i := 0; i < len(list); i++ {
			for k := i + 1; k < len(list); k++ {
				p1, p2 := list[i], list[k]
				if p1.body == p2.body {
					continue
				}
				if p1.body.IsStatic() && p2.body.IsStatic() {
					continue
				}
				if !p1.body.IsActive() || !p2.body.IsActive() {
					continue
				}
				if p1.body.IsAsleep() && p2.body.IsAsleep() {
					continue
				}
				if !p1.fixture.Filter.Allows(p2.fixture.Filter) {
					continue
				}
				if !p1.aabb.Overlaps(p2.aabb) {
					continue
				}
				key := pairKey{p1.fixture, p2.fixture}
				if uintptrLess(p2.fixture, p1.fixture) {
					key = pairKey{p2.fixture, p1.fixture}
				}
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, FixturePair{
					Body1: p1.body, Fixture1: p1.fixture,
					Body2: p2.body, Fixture2: p2.fixture,
				})
			}
		}
	}
	return out
}
