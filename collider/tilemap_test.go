package collider

import (
	"errors"
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/common"
)

func newMap(t *testing.T, w, h int, tiles map[GridPos]string) *TileMap {
	t.Helper()
	m := NewTileMap(w, h, false)
	for p, s := range tiles {
		if err := m.SetTile(p, s, ""); err != nil {
			t.Fatalf("SetTile(%v): %v", p, err)
		}
	}
	m.ApplyChanges()
	return m
}

func countSurfaces(m *TileMap) int {
	n := 0
	for i := range m.quads {
		if q := m.Quad(QuadID(i)); q != nil {
			n += q.SurfaceCount()
		}
	}
	return n
}

func TestAdjacentSolidsShareNoWall(t *testing.T) {
	m := newMap(t, 2, 1, map[GridPos]string{{0, 0}: "solid", {1, 0}: "solid"})

	if got := countSurfaces(m); got != 6 {
		t.Fatalf("expected 6 surfaces, got %d", got)
	}
	if m.Quad(0).Surface(common.East) != nil {
		t.Fatalf("left tile should have no east surface")
	}
	if m.Quad(1).Surface(common.West) != nil {
		t.Fatalf("right tile should have no west surface")
	}
	if m.ValidCount() != 2 {
		t.Fatalf("expected 2 valid quads, got %d", m.ValidCount())
	}
}

func TestRemoveTileRestoresNeighbour(t *testing.T) {
	m := newMap(t, 2, 1, map[GridPos]string{{0, 0}: "solid", {1, 0}: "solid"})

	if err := m.RemoveTile(GridPos{1, 0}); err != nil {
		t.Fatalf("RemoveTile: %v", err)
	}
	m.ApplyChanges()

	if m.Quad(1) != nil {
		t.Fatalf("removed tile should have no quad")
	}
	if got := m.Quad(0).SurfaceCount(); got != 4 {
		t.Fatalf("expected 4 surfaces after removal, got %d", got)
	}
	n := m.Quad(0).Surface(common.North)
	if n.Next != (SurfaceID{Quad: 0, Dir: common.East}) {
		t.Fatalf("north surface should connect to the restored east wall, got %+v", n.Next)
	}
}

func TestPartialOverlapIsTrimmed(t *testing.T) {
	m := newMap(t, 2, 1, map[GridPos]string{{0, 0}: "solid"})
	if err := m.SetTile(GridPos{1, 0}, "half", ""); err != nil {
		t.Fatalf("SetTile: %v", err)
	}
	m.ApplyChanges()

	east := m.Quad(0).Surface(common.East)
	if east == nil {
		t.Fatalf("solid should keep part of its east surface")
	}
	want := common.NewLine(16, 0, 16, 8)
	if !east.Line.Equal(want) {
		t.Fatalf("expected trimmed east surface %v, got %v", want, east.Line)
	}
	if m.Quad(1).Surface(common.West) != nil {
		t.Fatalf("half tile west surface should be culled")
	}
}

func TestGhostPrefersLeastDeviation(t *testing.T) {
	m := newMap(t, 2, 2, map[GridPos]string{{0, 1}: "solid", {1, 0}: "slope"})

	floor := m.Quad(QuadID(2)).Surface(common.North)
	if floor == nil {
		t.Fatalf("expected floor surface on solid tile")
	}
	if floor.G3Virtual {
		t.Fatalf("expected a real ghost to the east")
	}
	if !floor.G3.Equal(cp.Vector{X: 32, Y: 0}) {
		t.Fatalf("expected ghost at slope top (32,0), got %v", floor.G3)
	}
	if !floor.HasNext || floor.Next != (SurfaceID{Quad: 1, Dir: common.North}) {
		t.Fatalf("expected next surface to be the slope, got %+v", floor.Next)
	}
	if floor.G0Virtual || !floor.G0.Equal(cp.Vector{X: 0, Y: 32}) {
		t.Fatalf("expected west ghost at wall base (0,32), got %v virtual=%v", floor.G0, floor.G0Virtual)
	}
}

func TestSetTileOutOfBounds(t *testing.T) {
	m := NewTileMap(2, 2, false)
	err := m.SetTile(GridPos{5, 5}, "solid", "")
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	if m.PendingEdits() != 0 {
		t.Fatalf("rejected edit should not be queued")
	}
}

func TestEditsWaitForApply(t *testing.T) {
	m := NewTileMap(2, 2, false)
	if err := m.SetTile(GridPos{0, 0}, "solid", ""); err != nil {
		t.Fatalf("SetTile: %v", err)
	}
	if m.Quad(0) != nil {
		t.Fatalf("tile should not exist before ApplyChanges")
	}
	m.Update(1.0 / 60.0)
	if m.Quad(0) == nil {
		t.Fatalf("tile should exist after Update")
	}
}

func TestSetBorders(t *testing.T) {
	m := NewTileMap(2, 2, true)
	m.SetBorders(common.CardinalBits(common.North, common.East, common.South, common.West))

	if m.ValidCount() != 8 {
		t.Fatalf("expected 8 border quads, got %d", m.ValidCount())
	}

	i, _ := m.index(GridPos{0, -1})
	top := m.Quad(QuadID(i))
	if top == nil || !top.IsBoundary(common.South) {
		t.Fatalf("north border should face south")
	}
	s := top.Surface(common.South)
	if s == nil || s.Line.P1.Y != 0 {
		t.Fatalf("north border surface should lie on y=0, got %+v", s)
	}
}

func TestQuadsInRectWidensDegenerateArea(t *testing.T) {
	m := newMap(t, 2, 1, map[GridPos]string{{0, 0}: "solid", {1, 0}: "solid"})

	refs := m.QuadsInRect(common.Rect{X: 16, Y: 0, Width: 0, Height: 16})
	if len(refs) != 2 {
		t.Fatalf("expected 2 quads for zero-width area, got %d", len(refs))
	}

	refs = m.QuadsInRect(common.Rect{X: 2, Y: 2, Width: 4, Height: 4})
	if len(refs) != 1 || refs[0].ID != 0 {
		t.Fatalf("expected only quad 0, got %+v", refs)
	}
}

func TestQuadsAlongLineOrder(t *testing.T) {
	m := newMap(t, 3, 1, map[GridPos]string{{0, 0}: "solid", {1, 0}: "solid", {2, 0}: "solid"})

	refs := m.QuadsAlongLine(common.NewLine(40, 8, 0, 8))
	if len(refs) != 3 {
		t.Fatalf("expected 3 quads, got %d", len(refs))
	}
	for i, want := range []QuadID{2, 1, 0} {
		if refs[i].ID != want {
			t.Fatalf("expected quad %d at %d, got %d", want, i, refs[i].ID)
		}
	}
}

func TestRaycastHitsFloor(t *testing.T) {
	m := newMap(t, 3, 1, map[GridPos]string{{0, 0}: "solid", {1, 0}: "solid", {2, 0}: "solid"})

	hit, ok := Raycast(m, common.NewLine(24, -8, 24, 40))
	if !ok {
		t.Fatalf("expected a hit")
	}
	if hit.ID != (SurfaceID{Quad: 1, Dir: common.North}) {
		t.Fatalf("expected north surface of quad 1, got %+v", hit.ID)
	}
	if !common.NearlyEqual(hit.Distance, 8) {
		t.Fatalf("expected distance 8, got %f", hit.Distance)
	}
}

func TestTileMapMovesWithOffset(t *testing.T) {
	m := newMap(t, 1, 1, map[GridPos]string{{0, 0}: "solid"})
	m.Teleport(cp.Vector{X: 100, Y: 0})

	if refs := m.QuadsInRect(common.Rect{X: 2, Y: 2, Width: 4, Height: 4}); len(refs) != 0 {
		t.Fatalf("expected no quads at the old position, got %d", len(refs))
	}
	refs := m.QuadsInRect(common.Rect{X: 102, Y: 2, Width: 4, Height: 4})
	if len(refs) != 1 || refs[0].Bounds.X != 100 {
		t.Fatalf("expected one quad with world bounds at x=100, got %+v", refs)
	}
}

func TestSimpleRegionSweep(t *testing.T) {
	r := NewSimpleRegion(common.Rect{X: 0, Y: 0, Width: 32, Height: 16})
	r.SetVelocity(cp.Vector{X: 10, Y: 0})
	r.Update(1)

	if !r.Moved() {
		t.Fatalf("region should report movement")
	}
	if d := r.DeltaPosition(); d.X != 10 || d.Y != 0 {
		t.Fatalf("expected delta (10,0), got %v", d)
	}
	swept := r.SweptBoundingBox()
	if swept.X != 0 || swept.Width != 42 {
		t.Fatalf("expected swept box x=0 w=42, got x=%f w=%f", swept.X, swept.Width)
	}
	if refs := r.QuadsInRect(common.Rect{X: 40, Y: 0, Width: 4, Height: 4}); len(refs) != 1 {
		t.Fatalf("expected the platform quad, got %d", len(refs))
	}

	r.SetVelocity(cp.Vector{})
	r.Update(1)
	if r.Moved() {
		t.Fatalf("stationary region should not report movement")
	}
}
