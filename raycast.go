package quill

import (
	"fmt"
	"sort"

	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// RaycastHit is one fixture intersected by a world raycast.
type RaycastHit struct {
	Body    *actor.Body
	Fixture *actor.Fixture
	Result  geometry.RaycastResult
}

// RaycastFilter restricts which fixtures a raycast may hit; nil accepts
// everything.
type RaycastFilter func(body *actor.Body, fixture *actor.Fixture) bool

// Raycast intersects a ray with the world and returns the hits ordered
// nearest first. length <= 0 means unbounded. Inactive bodies are skipped.
func (w *World) Raycast(origin, direction mgl64.Vec2, length float64, filter RaycastFilter) ([]RaycastHit, error) {
	if direction.Len() < geometry.Epsilon {
		return nil, fmt.Errorf("raycast: zero-length direction")
	}
	ray := geometry.Ray{Origin: origin, Direction: geometry.Normalized(direction)}

	var hits []RaycastHit
	for _, b := range w.bodies {
		if !b.IsActive() {
			continue
		}
		for _, f := range b.Fixtures() {
			if filter != nil && !filter(b, f) {
				continue
			}
			if r, ok := f.Shape.Raycast(ray, length, b.Transform()); ok {
				hits = append(hits, RaycastHit{Body: b, Fixture: f, Result: r})
			}
		}
	}
	sort.Slice(hits, func(i, k int) bool {
		return hits[i].Result.Distance < hits[k].Result.Distance
	})
	return hits, nil
}

// RaycastClosest returns only the nearest hit.
func (w *World) RaycastClosest(origin, direction mgl64.Vec2, length float64, filter RaycastFilter) (RaycastHit, bool, error) {
	hits, err := w.Raycast(origin, direction, length, filter)
	if err != nil || len(hits) == 0 {
		return RaycastHit{}, false, err
	}
	return hits[0], true, nil
}

// DetectAABB returns the fixtures whose AABB overlaps the query box.
func (w *World) DetectAABB(aabb geometry.AABB) []RaycastHit {
	var out []RaycastHit
	for _, p := range w.broadphase.QueryAABB(aabb) {
		out = append(out, RaycastHit{Body: p.Body1, Fixture: p.Fixture1})
	}
	return out
}
