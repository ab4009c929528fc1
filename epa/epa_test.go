package epa

import (
	"math"
	"testing"

	"github.com/akmonengine/quill/geometry"
	"github.com/akmonengine/quill/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

func expand(t *testing.T, a geometry.Convex, ta geometry.Transform, b geometry.Convex, tb geometry.Transform) Penetration {
	t.Helper()
	simplex := gjk.AcquireSimplex()
	defer gjk.ReleaseSimplex(simplex)

	hit, converged := gjk.Detect(a, ta, b, tb, simplex)
	if !converged || !hit {
		t.Fatalf("expected GJK overlap (hit=%v converged=%v)", hit, converged)
	}
	pen, err := Expand(a, ta, b, tb, simplex)
	if err != nil {
		t.Fatalf("unexpected EPA error: %v", err)
	}
	return pen
}

func TestExpandBoxCircle(t *testing.T) {
	a, _ := geometry.NewRectangle(2, 2)
	b, _ := geometry.NewCircle(1)
	ta := geometry.NewTransformAt(mgl64.Vec2{0, 0}, 0)
	tb := geometry.NewTransformAt(mgl64.Vec2{1.6, 0}, 0)

	pen := expand(t, a, ta, b, tb)

	// box face at x=1, circle reaches back to x=0.6: depth 0.4 along +x
	if math.Abs(pen.Depth-0.4) > 1e-3 {
		t.Errorf("expected depth 0.4, got %v", pen.Depth)
	}
	if pen.Normal.Sub(mgl64.Vec2{1, 0}).Len() > 1e-3 {
		t.Errorf("expected normal (1,0), got %v", pen.Normal)
	}
}

func TestCirclesAnalytic(t *testing.T) {
	a, _ := geometry.NewCircle(1)
	b, _ := geometry.NewCircle(1)
	ta := geometry.NewTransformAt(mgl64.Vec2{0, 0}, 0)

	t.Run("head-on overlap", func(t *testing.T) {
		tb := geometry.NewTransformAt(mgl64.Vec2{1.5, 0}, 0)
		pen, hit := Circles(a, ta, b, tb)
		if !hit {
			t.Fatal("expected a hit")
		}
		if math.Abs(pen.Depth-0.5) > 1e-12 {
			t.Errorf("expected depth 0.5, got %v", pen.Depth)
		}
		if pen.Normal.Sub(mgl64.Vec2{1, 0}).Len() > 1e-12 {
			t.Errorf("expected normal (1,0), got %v", pen.Normal)
		}
	})

	t.Run("disjoint", func(t *testing.T) {
		tb := geometry.NewTransformAt(mgl64.Vec2{3, 0}, 0)
		if _, hit := Circles(a, ta, b, tb); hit {
			t.Error("expected no hit")
		}
	})

	t.Run("concentric", func(t *testing.T) {
		pen, hit := Circles(a, ta, b, ta)
		if !hit {
			t.Fatal("expected a hit")
		}
		if pen.Depth != 2 {
			t.Errorf("expected full depth 2, got %v", pen.Depth)
		}
	})
}

func TestExpandBoxes(t *testing.T) {
	a, _ := geometry.NewRectangle(2, 2)
	b, _ := geometry.NewRectangle(2, 2)
	ta := geometry.NewTransformAt(mgl64.Vec2{0, 0}, 0)
	tb := geometry.NewTransformAt(mgl64.Vec2{0, 1.8}, 0)

	pen := expand(t, a, ta, b, tb)

	if math.Abs(pen.Depth-0.2) > 1e-6 {
		t.Errorf("expected depth 0.2, got %v", pen.Depth)
	}
	if pen.Normal.Sub(mgl64.Vec2{0, 1}).Len() > 1e-6 {
		t.Errorf("expected normal (0,1), got %v", pen.Normal)
	}
}

func TestExpandNormalOrientation(t *testing.T) {
	// shape B below shape A: the normal must point from A toward B
	a, _ := geometry.NewRectangle(2, 2)
	b, _ := geometry.NewRectangle(2, 2)
	ta := geometry.NewTransformAt(mgl64.Vec2{0, 0}, 0)
	tb := geometry.NewTransformAt(mgl64.Vec2{0, -1.9}, 0)

	pen := expand(t, a, ta, b, tb)
	if pen.Normal.Y() >= 0 {
		t.Errorf("expected downward normal, got %v", pen.Normal)
	}
	if pen.Depth < 0 {
		t.Errorf("depth must be non-negative, got %v", pen.Depth)
	}
}

func TestExpandDeepOverlap(t *testing.T) {
	// small box inside a large one: depth is the smallest escape
	a, _ := geometry.NewRectangle(10, 10)
	b, _ := geometry.NewRectangle(1, 1)
	ta := geometry.NewTransformAt(mgl64.Vec2{0, 0}, 0)
	tb := geometry.NewTransformAt(mgl64.Vec2{4, 0}, 0)

	pen := expand(t, a, ta, b, tb)

	// b's near side sits at x=3.5, a's face at x=5: escape through +x is 1.5
	if math.Abs(pen.Depth-1.5) > 1e-6 {
		t.Errorf("expected depth 1.5, got %v", pen.Depth)
	}
	if pen.Normal.Sub(mgl64.Vec2{1, 0}).Len() > 1e-6 {
		t.Errorf("expected normal (1,0), got %v", pen.Normal)
	}
}
