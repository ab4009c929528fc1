package geometry

import "github.com/go-gl/mathgl/mgl64"

// FeatureType discriminates vertex and edge features.
type FeatureType int

const (
	FeatureVertex FeatureType = iota
	FeatureEdge
)

// NotIndexed marks features that have no meaningful index into their parent
// shape (circle supports, segment endpoints used as vertices).
const NotIndexed = -1

// Feature is the vertex or edge of a shape farthest in some direction, in
// world coordinates. The manifold solver clips edge features against each
// other; the indices feed the stable contact point ids.
type Feature struct {
	Type FeatureType

	// Vertex feature, or the maximum vertex of an edge feature: the one
	// farthest along the query direction.
	Point mgl64.Vec2
	Index int

	// Edge feature only.
	Vertex1 mgl64.Vec2
	Vertex2 mgl64.Vec2
	Index1  int
	Index2  int
}

// NewVertexFeature creates a vertex feature.
func NewVertexFeature(point mgl64.Vec2, index int) Feature {
	return Feature{Type: FeatureVertex, Point: point, Index: index}
}

// NewEdgeFeature creates an edge feature. max identifies which endpoint is
// the farthest along the query direction.
func NewEdgeFeature(v1, v2 mgl64.Vec2, i1, i2 int, max mgl64.Vec2, maxIndex int) Feature {
	return Feature{
		Type:    FeatureEdge,
		Vertex1: v1,
		Vertex2: v2,
		Index1:  i1,
		Index2:  i2,
		Point:   max,
		Index:   maxIndex,
	}
}

// Edge returns the vector from Vertex1 to Vertex2.
func (f Feature) Edge() mgl64.Vec2 {
	return f.Vertex2.Sub(f.Vertex1)
}
