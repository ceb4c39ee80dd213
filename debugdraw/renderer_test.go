package debugdraw

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/common"
	"github.com/milk9111/tilecollide/phys"
)

func TestRendererRecordsAndResets(t *testing.T) {
	r := NewRenderer()

	r.DrawSurface(collider.Surface{Line: common.NewLine(0, 0, 16, 0), G0Virtual: true}, cp.FColor{R: 1, A: 1})
	r.DrawContact(phys.AppliedContact{Type: phys.Single})
	r.DrawQuadBounds(common.Rect{Width: 16, Height: 16}, true)
	r.DrawBody(0, common.Rect{Width: 8, Height: 16}, phys.FlagFloor|phys.FlagWallLeft)

	if len(r.lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(r.lines))
	}
	if len(r.rects) != 2 {
		t.Fatalf("expected 2 rects, got %d", len(r.rects))
	}
	if len(r.text) != 1 {
		t.Fatalf("expected 1 text line, got %d", len(r.text))
	}

	r.Begin()
	if len(r.lines)+len(r.rects)+len(r.text) != 0 {
		t.Fatalf("expected Begin to clear the recording")
	}
}

func TestToNRGBAClamps(t *testing.T) {
	c := toNRGBA(cp.FColor{R: 2, G: -1, B: 0.5, A: 1})
	if c.R != 255 || c.G != 0 || c.B != 127 || c.A != 255 {
		t.Fatalf("expected clamped colour, got %+v", c)
	}
}

func TestToScreenAppliesCamera(t *testing.T) {
	r := NewRenderer()
	r.CamX, r.CamY, r.Zoom = 10, 20, 2
	x, y := r.toScreen(cp.Vector{X: 15, Y: 25})
	if x != 10 || y != 10 {
		t.Fatalf("expected (10, 10), got (%v, %v)", x, y)
	}
}
