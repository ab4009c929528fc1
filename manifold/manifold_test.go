package manifold

import (
	"math"
	"testing"

	"github.com/akmonengine/quill/epa"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

func TestSolveBoxOnBox(t *testing.T) {
	// box 1 resting slightly into the top of box 2
	s1, _ := geometry.NewRectangle(1, 1)
	s2, _ := geometry.NewRectangle(4, 1)
	t1 := geometry.NewTransformAt(mgl64.Vec2{0, 0.98}, 0)
	t2 := geometry.NewTransformAt(mgl64.Vec2{0, 0}, 0)

	pen := epa.Penetration{Normal: mgl64.Vec2{0, -1}, Depth: 0.02}

	m, ok := Solve(pen, s1, t1, s2, t2)
	if !ok {
		t.Fatal("expected a manifold")
	}
	if len(m.Points) != 2 {
		t.Fatalf("expected 2 contact points for edge/edge, got %d", len(m.Points))
	}
	// manifold normal points from shape 2 toward shape 1 (up)
	if m.Normal.Sub(mgl64.Vec2{0, 1}).Len() > 1e-9 {
		t.Errorf("expected manifold normal (0,1), got %v", m.Normal)
	}
	for _, p := range m.Points {
		if math.Abs(p.Depth-0.02) > 1e-9 {
			t.Errorf("expected depth 0.02, got %v", p.Depth)
		}
		// the clipped points are the narrow box's bottom corners
		if math.Abs(math.Abs(p.Point.X())-0.5) > 1e-9 {
			t.Errorf("expected contact at x=+-0.5, got %v", p.Point)
		}
		if p.Id == PointIdDistance {
			t.Error("edge/edge points must carry clip ids")
		}
	}
	if m.Points[0].Id == m.Points[1].Id {
		t.Error("the two clipped points must have distinct ids")
	}
}

func TestSolveIdsStableAcrossSteps(t *testing.T) {
	s1, _ := geometry.NewRectangle(1, 1)
	s2, _ := geometry.NewRectangle(4, 1)
	t2 := geometry.NewTransformAt(mgl64.Vec2{0, 0}, 0)
	pen := epa.Penetration{Normal: mgl64.Vec2{0, -1}, Depth: 0.02}

	m1, ok := Solve(pen, s1, geometry.NewTransformAt(mgl64.Vec2{0, 0.98}, 0), s2, t2)
	if !ok {
		t.Fatal("expected a manifold")
	}
	// the box slid a little; features are unchanged
	m2, ok := Solve(pen, s1, geometry.NewTransformAt(mgl64.Vec2{0.1, 0.98}, 0), s2, t2)
	if !ok {
		t.Fatal("expected a manifold")
	}

	if len(m1.Points) != 2 || len(m2.Points) != 2 {
		t.Fatalf("expected 2 points on both steps")
	}
	for i := range m1.Points {
		if m1.Points[i].Id != m2.Points[i].Id {
			t.Errorf("point %d id changed across steps: %+v vs %+v", i, m1.Points[i].Id, m2.Points[i].Id)
		}
	}
}

func TestSolveCircleVertex(t *testing.T) {
	s1, _ := geometry.NewCircle(0.5)
	s2, _ := geometry.NewRectangle(4, 1)
	t1 := geometry.NewTransformAt(mgl64.Vec2{0, 0.95}, 0)
	t2 := geometry.NewTransformAt(mgl64.Vec2{0, 0}, 0)

	pen := epa.Penetration{Normal: mgl64.Vec2{0, -1}, Depth: 0.05}

	m, ok := Solve(pen, s1, t1, s2, t2)
	if !ok {
		t.Fatal("expected a manifold")
	}
	if len(m.Points) != 1 {
		t.Fatalf("expected a single point for a circle contact, got %d", len(m.Points))
	}
	p := m.Points[0]
	if p.Id != PointIdDistance {
		t.Errorf("expected the distance id, got %+v", p.Id)
	}
	if math.Abs(p.Depth-0.05) > 1e-9 {
		t.Errorf("expected depth 0.05, got %v", p.Depth)
	}
	// deepest point of the circle along -y
	if p.Point.Sub(mgl64.Vec2{0, 0.45}).Len() > 1e-9 {
		t.Errorf("expected contact at (0,0.45), got %v", p.Point)
	}
}

func TestClip(t *testing.T) {
	t.Run("keeps interior points", func(t *testing.T) {
		out, ok := clip(mgl64.Vec2{1, 0}, mgl64.Vec2{2, 0}, mgl64.Vec2{1, 0}, 0)
		if !ok {
			t.Fatal("expected both points to survive")
		}
		if out[0].X() != 1 || out[1].X() != 2 {
			t.Errorf("unexpected clip result %v", out)
		}
	})

	t.Run("interpolates the crossing", func(t *testing.T) {
		out, ok := clip(mgl64.Vec2{-1, 0}, mgl64.Vec2{3, 0}, mgl64.Vec2{1, 0}, 0)
		if !ok {
			t.Fatal("expected a surviving pair")
		}
		// second surviving point is the plane crossing at x=0
		if out[1].X() != 0 {
			t.Errorf("expected crossing at x=0, got %v", out[1])
		}
	})

	t.Run("fails when both points are outside", func(t *testing.T) {
		if _, ok := clip(mgl64.Vec2{-2, 0}, mgl64.Vec2{-1, 0}, mgl64.Vec2{1, 0}, 0); ok {
			t.Error("expected the clip to fail")
		}
	})
}
