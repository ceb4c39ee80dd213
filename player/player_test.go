package player

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/common"
	"github.com/milk9111/tilecollide/phys"
)

const dt = 1.0 / 64

func newGroundedPlayer(t *testing.T) (*phys.World, *Player) {
	t.Helper()
	w := phys.NewWorld()
	w.AddRegion(collider.NewSimpleRegion(common.Rect{X: 0, Y: 0, Width: 256, Height: 16}))
	b := phys.NewBody(cp.Vector{X: 64}, cp.Vector{X: 8, Y: 16}, cp.Vector{Y: 512})
	floor := b.CreateTracker(common.FloorAngles, phys.DefaultTrackerSettings())
	w.AddBody(b)

	p := New(b, floor, 150, 220)
	if p.State() != "falling" {
		t.Fatalf("expected to start falling, got %s", p.State())
	}
	step(w, p, Input{})
	if p.State() != "idle" {
		t.Fatalf("expected idle after landing, got %s", p.State())
	}
	return w, p
}

func step(w *phys.World, p *Player, in Input) {
	p.Update(in)
	w.Step(dt)
	p.AfterStep()
}

func TestRunAlongFloor(t *testing.T) {
	_, p := newGroundedPlayer(t)

	p.Update(Input{MoveX: 1})
	if p.State() != "running" {
		t.Fatalf("expected running, got %s", p.State())
	}
	if v := p.Body.Velocity(); v.X != 150 || v.Y != 0 {
		t.Fatalf("expected velocity (150, 0), got %v", v)
	}

	p.Update(Input{MoveX: -1})
	if p.FacingRight() {
		t.Fatalf("expected to face left")
	}
	p.Update(Input{})
	if p.State() != "idle" {
		t.Fatalf("expected idle after letting go, got %s", p.State())
	}
}

func TestJumpAndDoubleJump(t *testing.T) {
	w, p := newGroundedPlayer(t)

	step(w, p, Input{Jump: true})
	if p.State() != "jumping" {
		t.Fatalf("expected jumping, got %s", p.State())
	}
	if p.Floor.HasContact() {
		t.Fatalf("expected the jump to leave the floor")
	}

	// holding jump does not trigger a second one
	step(w, p, Input{Jump: true})
	if p.State() != "jumping" {
		t.Fatalf("expected still jumping, got %s", p.State())
	}

	step(w, p, Input{})
	step(w, p, Input{Jump: true})
	if p.State() != "doublejump" {
		t.Fatalf("expected doublejump, got %s", p.State())
	}
	if v := p.Body.Velocity(); v.Y >= 0 {
		t.Fatalf("expected upward velocity, got %v", v)
	}
}

func TestJumpSetsVelocity(t *testing.T) {
	_, p := newGroundedPlayer(t)

	p.Update(Input{Jump: true})
	if v := p.Body.Velocity(); v.Y != -220 {
		t.Fatalf("expected vertical velocity -220, got %v", v.Y)
	}
}

func TestFallingBufferedJump(t *testing.T) {
	p := New(phys.NewBody(cp.Vector{}, cp.Vector{X: 8, Y: 16}, cp.Vector{}), nil, 150, 220)
	p.doubleJumped = true

	p.Update(Input{Jump: true})
	if p.jumpBuffer != jumpBufferTicks {
		t.Fatalf("expected buffered jump, got %d", p.jumpBuffer)
	}
	if p.State() != "falling" {
		t.Fatalf("expected still falling, got %s", p.State())
	}
}
