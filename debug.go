package quill

import (
	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geometry"
	"github.com/akmonengine/quill/manifold"
	"github.com/go-gl/mathgl/mgl64"
)

// DebugBody is the render-facing view of one body. External renderers draw
// from these snapshots; the core never renders.
type DebugBody struct {
	Body        *actor.Body
	Transform   geometry.Transform
	Shapes      []geometry.Convex
	WorldCenter mgl64.Vec2
	AABB        geometry.AABB
	Active      bool
	Asleep      bool
	Bullet      bool
}

// DebugContact is the render-facing view of one contact point.
type DebugContact struct {
	Point  mgl64.Vec2
	Normal mgl64.Vec2
	Depth  float64
	Id     manifold.PointId
}

// DebugBodies snapshots every body for debug drawing.
func (w *World) DebugBodies() []DebugBody {
	out := make([]DebugBody, 0, len(w.bodies))
	for _, b := range w.bodies {
		shapes := make([]geometry.Convex, 0, len(b.Fixtures()))
		for _, f := range b.Fixtures() {
			shapes = append(shapes, f.Shape)
		}
		out = append(out, DebugBody{
			Body:        b,
			Transform:   b.Transform(),
			Shapes:      shapes,
			WorldCenter: b.WorldCenter(),
			AABB:        b.CreateAABB(),
			Active:      b.IsActive(),
			Asleep:      b.IsAsleep(),
			Bullet:      b.IsBullet(),
		})
	}
	return out
}

// DebugContacts snapshots every manifold point for debug drawing.
func (w *World) DebugContacts() []DebugContact {
	var out []DebugContact
	for _, c := range w.contactManager.contacts {
		for _, p := range c.Points {
			out = append(out, DebugContact{
				Point:  c.BodyA.GetWorldPoint(p.LocalA),
				Normal: c.Normal,
				Depth:  p.Depth,
				Id:     p.Id,
			})
		}
	}
	return out
}
