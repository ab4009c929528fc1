package geometry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNewPolygon(t *testing.T) {
	t.Run("normalizes clockwise input to CCW", func(t *testing.T) {
		// clockwise square
		p, err := NewPolygon(
			mgl64.Vec2{-1, -1},
			mgl64.Vec2{-1, 1},
			mgl64.Vec2{1, 1},
			mgl64.Vec2{1, -1},
		)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if area := signedArea(p.Vertices()); area <= 0 {
			t.Errorf("expected CCW winding (positive area), got %v", area)
		}
	})

	t.Run("rejects fewer than 3 vertices", func(t *testing.T) {
		if _, err := NewPolygon(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}); err == nil {
			t.Error("expected error for 2 vertices")
		}
	})

	t.Run("rejects collinear vertices", func(t *testing.T) {
		if _, err := NewPolygon(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}, mgl64.Vec2{2, 0}); err == nil {
			t.Error("expected error for zero-area polygon")
		}
	})

	t.Run("rejects duplicate vertices", func(t *testing.T) {
		if _, err := NewPolygon(mgl64.Vec2{0, 0}, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1}, mgl64.Vec2{0, 1}); err == nil {
			t.Error("expected error for duplicate vertices")
		}
	})

	t.Run("rejects non-convex point set", func(t *testing.T) {
		_, err := NewPolygon(
			mgl64.Vec2{0, 0},
			mgl64.Vec2{2, 0},
			mgl64.Vec2{1, 0.2}, // dent
			mgl64.Vec2{2, 2},
			mgl64.Vec2{0, 2},
		)
		if err == nil {
			t.Error("expected error for non-convex polygon")
		}
	})

	t.Run("edge normals are unit length and outward", func(t *testing.T) {
		p, err := NewRectangle(2, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, n := range p.Normals() {
			if math.Abs(n.Len()-1.0) > 1e-12 {
				t.Errorf("normal %d not unit length: %v", i, n.Len())
			}
			// outward: normal points away from the centroid
			edgeMid := p.Vertices()[i].Add(p.Vertices()[(i+1)%4]).Mul(0.5)
			if n.Dot(edgeMid.Sub(p.Center())) <= 0 {
				t.Errorf("normal %d points inward", i)
			}
		}
	})
}

func TestRectangleMatchesPolygon(t *testing.T) {
	rect, err := NewRectangle(3, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	poly, err := NewPolygon(
		mgl64.Vec2{-1.5, -1},
		mgl64.Vec2{1.5, -1},
		mgl64.Vec2{1.5, 1},
		mgl64.Vec2{-1.5, 1},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// same vertex set up to rotation of the list
	for _, rv := range rect.Vertices() {
		found := false
		for _, pv := range poly.Vertices() {
			if rv.Sub(pv).Len() < 1e-12 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("rectangle vertex %v missing from polygon", rv)
		}
	}
}

func TestPolygonFarthestFeature(t *testing.T) {
	square, err := NewRectangle(2, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	transform := NewTransform()

	t.Run("axis-aligned direction returns an edge", func(t *testing.T) {
		f := square.FarthestFeature(mgl64.Vec2{0, 1}, transform)
		if f.Type != FeatureEdge {
			t.Fatalf("expected edge feature, got %v", f.Type)
		}
		if f.Vertex1.Y() != 1 || f.Vertex2.Y() != 1 {
			t.Errorf("expected the top edge, got %v %v", f.Vertex1, f.Vertex2)
		}
	})

	t.Run("diagonal direction picks the edge at the max vertex", func(t *testing.T) {
		f := square.FarthestFeature(mgl64.Vec2{1, 1}, transform)
		if f.Type != FeatureEdge {
			t.Fatalf("expected edge feature, got %v", f.Type)
		}
		if f.Point.X() != 1 || f.Point.Y() != 1 {
			t.Errorf("expected max vertex (1,1), got %v", f.Point)
		}
	})
}

func TestPolygonProject(t *testing.T) {
	square, _ := NewRectangle(2, 2)

	iv := square.Project(mgl64.Vec2{1, 0}, NewTransform())
	if iv.Min != -1 || iv.Max != 1 {
		t.Errorf("expected [-1, 1], got [%v, %v]", iv.Min, iv.Max)
	}

	moved := NewTransformAt(mgl64.Vec2{5, 0}, 0)
	iv = square.Project(mgl64.Vec2{1, 0}, moved)
	if iv.Min != 4 || iv.Max != 6 {
		t.Errorf("expected [4, 6], got [%v, %v]", iv.Min, iv.Max)
	}
}

func TestPolygonCreateMass(t *testing.T) {
	square, _ := NewRectangle(2, 2)
	m := square.CreateMass(1.0)

	if math.Abs(m.Mass-4.0) > 1e-9 {
		t.Errorf("expected mass 4, got %v", m.Mass)
	}
	// box inertia: m(w² + h²)/12 = 4·8/12
	if math.Abs(m.Inertia-8.0/3.0) > 1e-9 {
		t.Errorf("expected inertia %v, got %v", 8.0/3.0, m.Inertia)
	}
	if m.Center.Len() > 1e-12 {
		t.Errorf("expected centroid at origin, got %v", m.Center)
	}
}

func TestPolygonRaycast(t *testing.T) {
	square, _ := NewRectangle(2, 2)
	transform := NewTransform()

	t.Run("hit from the left", func(t *testing.T) {
		r, ok := square.Raycast(rayFrom(mgl64.Vec2{-5, 0}, mgl64.Vec2{1, 0}), 0, transform)
		if !ok {
			t.Fatal("expected a hit")
		}
		if math.Abs(r.Distance-4.0) > 1e-9 {
			t.Errorf("expected distance 4, got %v", r.Distance)
		}
		if r.Normal.X() != -1 {
			t.Errorf("expected normal (-1,0), got %v", r.Normal)
		}
	})

	t.Run("miss", func(t *testing.T) {
		if _, ok := square.Raycast(rayFrom(mgl64.Vec2{-5, 3}, mgl64.Vec2{1, 0}), 0, transform); ok {
			t.Error("expected a miss")
		}
	})

	t.Run("beyond max length", func(t *testing.T) {
		if _, ok := square.Raycast(rayFrom(mgl64.Vec2{-5, 0}, mgl64.Vec2{1, 0}), 2, transform); ok {
			t.Error("expected a miss with short ray")
		}
	})
}

func rayFrom(origin, dir mgl64.Vec2) Ray {
	return Ray{Origin: origin, Direction: Normalized(dir)}
}
