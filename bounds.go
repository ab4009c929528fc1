package quill

import (
	"fmt"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Bounds is the optional rectangular extent of the simulation. Bodies whose
// AABB leaves it entirely are deactivated and reported through the bounds
// listener.
type Bounds struct {
	aabb geometry.AABB
}

// NewBounds creates bounds of the given total width and height centered at
// a point.
func NewBounds(center mgl64.Vec2, width, height float64) (*Bounds, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bounds: dimensions must be positive, got %v x %v", width, height)
	}
	h := mgl64.Vec2{width * 0.5, height * 0.5}
	return &Bounds{aabb: geometry.NewAABB(center.Sub(h), center.Add(h))}, nil
}

// AABB returns the bounds extent.
func (b *Bounds) AABB() geometry.AABB {
	return b.aabb
}

// IsOutside reports whether the body's AABB has no overlap with the bounds.
func (b *Bounds) IsOutside(body *actor.Body) bool {
	return !b.aabb.Overlaps(body.CreateAABB())
}
