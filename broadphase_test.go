package quill

import (
	"testing"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridBody(t *testing.T, x, y, size float64, massType geometry.MassType) (*actor.Body, *actor.Fixture) {
	t.Helper()
	shape, err := geometry.NewRectangle(size, size)
	require.NoError(t, err)
	b := actor.NewBody()
	f, err := b.AddShape(shape)
	require.NoError(t, err)
	b.UpdateMass(massType)
	b.SetTransform(geometry.NewTransformAt(mgl64.Vec2{x, y}, 0))
	return b, f
}

func register(g *SpatialGrid, b *actor.Body, f *actor.Fixture) {
	g.Update(b, f, f.Shape.CreateAABB(b.Transform()))
}

func TestSpatialGridDetect(t *testing.T) {
	g := NewSpatialGrid(2.0)

	// a row of boxes, neighbors overlapping, distant ones not
	positions := []float64{0, 0.8, 5, 5.9, 20}
	type entry struct {
		body    *actor.Body
		fixture *actor.Fixture
	}
	var entries []entry
	for _, x := range positions {
		b, f := gridBody(t, x, 0, 1, geometry.MassNormal)
		register(g, b, f)
		entries = append(entries, entry{b, f})
	}

	pairs := g.Detect()

	t.Run("every reported pair overlaps", func(t *testing.T) {
		for _, p := range pairs {
			a1 := p.Fixture1.Shape.CreateAABB(p.Body1.Transform())
			a2 := p.Fixture2.Shape.CreateAABB(p.Body2.Transform())
			assert.True(t, a1.Overlaps(a2), "pair %v/%v does not overlap",
				p.Body1.Transform().Position, p.Body2.Transform().Position)
		}
	})

	t.Run("no duplicates", func(t *testing.T) {
		seen := make(map[[2]*actor.Fixture]bool)
		for _, p := range pairs {
			k := [2]*actor.Fixture{p.Fixture1, p.Fixture2}
			r := [2]*actor.Fixture{p.Fixture2, p.Fixture1}
			assert.False(t, seen[k] || seen[r], "duplicate pair")
			seen[k] = true
		}
	})

	t.Run("all true overlaps reported", func(t *testing.T) {
		// boxes at 0 and 0.8 overlap; boxes at 5 and 5.9 overlap
		assert.Len(t, pairs, 2)
	})
}

func TestSpatialGridFilters(t *testing.T) {
	t.Run("static pairs excluded", func(t *testing.T) {
		g := NewSpatialGrid(2.0)
		b1, f1 := gridBody(t, 0, 0, 1, geometry.MassInfinite)
		b2, f2 := gridBody(t, 0.5, 0, 1, geometry.MassInfinite)
		register(g, b1, f1)
		register(g, b2, f2)
		assert.Empty(t, g.Detect())
	})

	t.Run("collision filter honored", func(t *testing.T) {
		g := NewSpatialGrid(2.0)
		b1, f1 := gridBody(t, 0, 0, 1, geometry.MassNormal)
		b2, f2 := gridBody(t, 0.5, 0, 1, geometry.MassNormal)
		f1.Filter = actor.Filter{Category: 1, Mask: 1}
		f2.Filter = actor.Filter{Category: 2, Mask: 2}
		register(g, b1, f1)
		register(g, b2, f2)
		assert.Empty(t, g.Detect())
	})

	t.Run("same-body fixtures excluded", func(t *testing.T) {
		g := NewSpatialGrid(2.0)
		shape, _ := geometry.NewRectangle(1, 1)
		b := actor.NewBody()
		fa, _ := b.AddShape(shape)
		fb, _ := b.AddShape(shape)
		b.UpdateMass(geometry.MassNormal)
		register(g, b, fa)
		register(g, b, fb)
		assert.Empty(t, g.Detect())
	})

	t.Run("removed fixture no longer reported", func(t *testing.T) {
		g := NewSpatialGrid(2.0)
		b1, f1 := gridBody(t, 0, 0, 1, geometry.MassNormal)
		b2, f2 := gridBody(t, 0.5, 0, 1, geometry.MassNormal)
		register(g, b1, f1)
		register(g, b2, f2)
		require.Len(t, g.Detect(), 1)

		g.Remove(f1)
		assert.Empty(t, g.Detect())
		assert.Equal(t, 1, g.Size())
	})
}

func TestSpatialGridQuery(t *testing.T) {
	g := NewSpatialGrid(2.0)
	b1, f1 := gridBody(t, 0, 0, 1, geometry.MassNormal)
	b2, f2 := gridBody(t, 10, 10, 1, geometry.MassNormal)
	register(g, b1, f1)
	register(g, b2, f2)

	hits := g.QueryAABB(geometry.NewAABB(mgl64.Vec2{-2, -2}, mgl64.Vec2{2, 2}))
	require.Len(t, hits, 1)
	assert.Same(t, f1, hits[0].Fixture1)

	t.Run("large fixture spanning many cells reported once", func(t *testing.T) {
		big, bf := gridBody(t, 0, 0, 30, geometry.MassInfinite)
		register(g, big, bf)
		hits := g.QueryAABB(geometry.NewAABB(mgl64.Vec2{-8, -8}, mgl64.Vec2{8, 8}))
		count := 0
		for _, h := range hits {
			if h.Fixture1 == bf {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})
}
