package phys

import (
	"math"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/common"
)

func nearVec(t *testing.T, what string, got, want cp.Vector) {
	t.Helper()
	if math.Abs(got.X-want.X) > 1e-6 || math.Abs(got.Y-want.Y) > 1e-6 {
		t.Fatalf("expected %s %v, got %v", what, want, got)
	}
}

func TestFollowRampStopsAtJunction(t *testing.T) {
	floor := common.NewLine(0, 0, 16, 0)
	slope := common.NewLine(16, 0, 32, -16)

	f := NewSurfaceFollow(floor, cp.Vector{X: 8}, 1, 16, common.FloorAngles, common.Degrees(50), cp.Vector{X: 16, Y: 16})
	if !f.AddSurface(slope) {
		t.Fatalf("expected slope to be a valid candidate")
	}
	idx, ok := f.PickSurfaceToFollow()
	if !ok {
		t.Fatalf("expected a surface to follow")
	}

	r := f.TravelTo(idx)
	if !r.OnNewSurface {
		t.Fatalf("expected to reach the slope")
	}
	nearVec(t, "junction", r.Pos, cp.Vector{X: 16})
	if math.Abs(f.Remaining()-8) > 1e-6 {
		t.Fatalf("expected 8 units left, got %v", f.Remaining())
	}

	end := f.Finish()
	step := 8 / math.Sqrt2
	nearVec(t, "end", end.Pos, cp.Vector{X: 16 + step, Y: -step})
	if f.Remaining() != 0 {
		t.Fatalf("expected no distance left, got %v", f.Remaining())
	}
}

func TestFollowCollinearFloors(t *testing.T) {
	f := NewSurfaceFollow(common.NewLine(0, 0, 16, 0), cp.Vector{}, 1, 40, common.FloorAngles, common.Degrees(50), cp.Vector{X: 16, Y: 16})
	if !f.AddSurface(common.NewLine(16, 0, 32, 0)) {
		t.Fatalf("expected next floor to be a valid candidate")
	}
	idx, ok := f.PickSurfaceToFollow()
	if !ok {
		t.Fatalf("expected a surface to follow")
	}

	r := f.TravelTo(idx)
	nearVec(t, "junction", r.Pos, cp.Vector{X: 16})
	if f.Remaining() != 24 {
		t.Fatalf("expected 24 units left, got %v", f.Remaining())
	}
	nearVec(t, "end", f.Finish().Pos, cp.Vector{X: 40})
}

func TestFollowShortTravel(t *testing.T) {
	f := NewSurfaceFollow(common.NewLine(0, 0, 16, 0), cp.Vector{X: 8}, 1, 4, common.FloorAngles, common.Degrees(50), cp.Vector{X: 16, Y: 16})
	if !f.AddSurface(common.NewLine(16, 0, 32, -16)) {
		t.Fatalf("expected slope to be a valid candidate")
	}
	idx, ok := f.PickSurfaceToFollow()
	if !ok {
		t.Fatalf("expected a surface to follow")
	}

	r := f.TravelTo(idx)
	if r.OnNewSurface {
		t.Fatalf("4 units should not reach the slope")
	}
	nearVec(t, "position", r.Pos, cp.Vector{X: 12})
	if f.Remaining() != 0 {
		t.Fatalf("expected no distance left, got %v", f.Remaining())
	}
}

func TestFollowRejectsCandidates(t *testing.T) {
	cases := []struct {
		name string
		line common.Line
	}{
		{name: "wall", line: common.NewLine(16, 0, 16, -16)},
		{name: "behind", line: common.NewLine(-16, 0, 0, 0)},
		{name: "same", line: common.NewLine(0, 0, 16, 0)},
		{name: "too steep", line: common.NewLine(16, 0, 20, -16)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := NewSurfaceFollow(common.NewLine(0, 0, 16, 0), cp.Vector{X: 8}, 1, 16, common.FloorAngles, common.Degrees(50), cp.Vector{X: 16, Y: 16})
			if f.AddSurface(tc.line) {
				t.Fatalf("expected %v to be rejected", tc.line)
			}
			if _, ok := f.PickSurfaceToFollow(); ok {
				t.Fatalf("expected nothing to follow")
			}
		})
	}
}
