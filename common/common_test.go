package common

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
)

func TestAngleNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"pi_stays", math.Pi, math.Pi},
		{"minus_pi_wraps", -math.Pi, math.Pi},
		{"three_halves_pi", 1.5 * math.Pi, -0.5 * math.Pi},
		{"minus_three_halves_pi", -1.5 * math.Pi, 0.5 * math.Pi},
		{"full_turn", 2 * math.Pi, 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := NewAngle(c.in).Radians()
			if math.Abs(got-c.want) > 1e-9 {
				t.Fatalf("expected %f, got %f", c.want, got)
			}
		})
	}
}

func TestAngleRangeBoundary(t *testing.T) {
	min := Degrees(-135)
	max := Degrees(-45)

	cases := []struct {
		name      string
		angle     Angle
		inclusive bool
		want      bool
	}{
		{"min_inclusive", min, true, true},
		{"min_exclusive", min, false, false},
		{"max_inclusive", max, true, true},
		{"max_exclusive", max, false, false},
		{"inside_exclusive", Degrees(-90), false, true},
		{"outside", Degrees(0), true, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := AngleRange{Min: min, Max: max, Inclusive: c.inclusive}
			if got := r.Contains(c.angle); got != c.want {
				t.Fatalf("expected %v, got %v", c.want, got)
			}
		})
	}
}

func TestAngleOfCardinals(t *testing.T) {
	for _, d := range Cardinals {
		v := d.Vector()
		got, ok := CardinalFromVector(v)
		if !ok || got != d {
			t.Fatalf("expected %s from %v, got %s (ok=%v)", d, v, got, ok)
		}
		if d.Opposite().Opposite() != d {
			t.Fatalf("opposite of opposite of %s should be itself", d)
		}
	}
	if _, ok := CardinalFromVector(cp.Vector{X: 1, Y: 1}); ok {
		t.Fatalf("diagonal vector should not map to a cardinal")
	}
}

func TestIntersection(t *testing.T) {
	cases := []struct {
		name    string
		a, b    Line
		want    cp.Vector
		wantNaN bool
	}{
		{"cross", NewLine(0, 0, 10, 10), NewLine(0, 10, 10, 0), cp.Vector{X: 5, Y: 5}, false},
		{"extended", NewLine(0, 0, 1, 0), NewLine(5, -1, 5, 1), cp.Vector{X: 5, Y: 0}, false},
		{"parallel", NewLine(0, 0, 10, 0), NewLine(0, 1, 10, 1), cp.Vector{}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Intersection(c.a, c.b)
			if c.wantNaN {
				if !IsNaNVec(got) {
					t.Fatalf("expected NaN, got %v", got)
				}
				return
			}
			if !VecNearlyEqual(got, c.want) {
				t.Fatalf("expected %v, got %v", c.want, got)
			}
		})
	}
}

func TestLineHelpers(t *testing.T) {
	floor := NewLine(0, 0, 16, 0)
	if n := floor.Normal(); !VecNearlyEqual(n, cp.Vector{X: 0, Y: -1}) {
		t.Fatalf("expected floor normal to point up, got %v", n)
	}

	slope := NewLine(16, 0, 32, -16)
	if y := slope.YForX(24); !NearlyEqual(y, -8) {
		t.Fatalf("expected y=-8, got %f", y)
	}
	if !slope.HasPoint(cp.Vector{X: 24, Y: -8}) {
		t.Fatalf("midpoint should be on the slope")
	}
	if slope.HasPoint(cp.Vector{X: 40, Y: -24}) {
		t.Fatalf("point past the end should not be on the segment")
	}
	if !Collinear(floor, NewLine(16, 0, 32, 0)) {
		t.Fatalf("floor segments should be collinear")
	}
}

func TestUnitZero(t *testing.T) {
	if u := Unit(cp.Vector{}); u.X != 0 || u.Y != 0 {
		t.Fatalf("expected zero vector, got %v", u)
	}
}

func TestProjectionAxisAligned(t *testing.T) {
	a := cp.Vector{X: 3, Y: 4}
	if p := Projection(a, cp.Vector{X: 0, Y: -1}, true); p.X != 0 || p.Y != 4 {
		t.Fatalf("expected (0,4), got %v", p)
	}
	if p := Projection(a, cp.Vector{X: 2, Y: 0}, false); p.X != 3 || p.Y != 0 {
		t.Fatalf("expected (3,0), got %v", p)
	}
}

func TestReduce(t *testing.T) {
	if got := Reduce(5, 2, 0); got != 3 {
		t.Fatalf("expected 3, got %f", got)
	}
	if got := Reduce(-1, 2, 0); got != 0 {
		t.Fatalf("expected 0, got %f", got)
	}
	if got := Reduce(4, 10, 3); got != 3 {
		t.Fatalf("expected 3, got %f", got)
	}
}

func TestRectTouchesVsIntersects(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 16, Height: 16}
	b := Rect{X: 16, Y: 0, Width: 16, Height: 16}
	if a.Intersects(b) {
		t.Fatalf("adjacent rects should not intersect")
	}
	if !a.Touches(b) {
		t.Fatalf("adjacent rects should touch")
	}
	u := Bound(a, b)
	if u.Width != 32 || u.Height != 16 {
		t.Fatalf("expected 32x16 bound, got %fx%f", u.Width, u.Height)
	}
	if e := a.Extend(North, 4); e.Y != -4 || e.Height != 20 {
		t.Fatalf("expected extended rect at y=-4 h=20, got y=%f h=%f", e.Y, e.Height)
	}
}
