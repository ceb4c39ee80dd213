package collider

import (
	"errors"
	"math"
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/common"
)

var ErrOutOfBounds = errors.New("collider: position out of bounds")

// GridPos is a tile coordinate.
type GridPos struct {
	X, Y int
}

// QuadRef is a quad found by a spatial query, with its bounds in world space.
type QuadRef struct {
	Bounds common.Rect
	ID     QuadID
}

// Region is a body of collision geometry that can move as a unit.
// Quads and surfaces are stored in region-local space; every query takes and
// returns world-space rectangles.
type Region interface {
	Update(dt float64)
	Quad(id QuadID) *Quad
	QuadsInRect(area common.Rect) []QuadRef
	QuadsAlongLine(line common.Line) []QuadRef
	SurfaceAt(id SurfaceID) *Surface

	Position() cp.Vector
	PrevPosition() cp.Vector
	DeltaPosition() cp.Vector
	Moved() bool
	Velocity() cp.Vector
	DeltaVelocity() cp.Vector
	SetVelocity(v cp.Vector)
	SetPosition(pos cp.Vector, updatePrev bool)
	Teleport(pos cp.Vector)
	BoundingBox() common.Rect
	SweptBoundingBox() common.Rect
}

// Base carries the movement state shared by every region type.
type Base struct {
	position     cp.Vector
	prevPosition cp.Vector

	velocity      cp.Vector
	deltaVelocity cp.Vector

	// bounds in local space
	bounds     common.Rect
	prevBounds common.Rect
}

func (b *Base) Position() cp.Vector      { return b.position }
func (b *Base) PrevPosition() cp.Vector  { return b.prevPosition }
func (b *Base) DeltaPosition() cp.Vector { return b.position.Sub(b.prevPosition) }
func (b *Base) Moved() bool              { return !b.position.Equal(b.prevPosition) }
func (b *Base) Velocity() cp.Vector      { return b.velocity }
func (b *Base) DeltaVelocity() cp.Vector { return b.deltaVelocity }

// SetVelocity changes how far the region travels on each Update.
func (b *Base) SetVelocity(v cp.Vector) {
	b.deltaVelocity = v.Sub(b.velocity)
	b.velocity = v
}

func (b *Base) SetPosition(pos cp.Vector, updatePrev bool) {
	if updatePrev {
		b.prevPosition = b.position
	}
	b.position = pos
}

// Teleport moves the region without sweeping through the space between.
func (b *Base) Teleport(pos cp.Vector) {
	b.prevPosition = pos
	b.position = pos
}

func (b *Base) BoundingBox() common.Rect {
	return b.bounds.Shift(b.position)
}

func (b *Base) SweptBoundingBox() common.Rect {
	return common.Bound(b.prevBounds.Shift(b.prevPosition), b.bounds.Shift(b.position))
}

// step advances the region by its velocity. A stationary region ends the
// step with no delta, so Moved reports false.
func (b *Base) step(dt float64) {
	b.prevBounds = b.bounds
	if dt <= 0 {
		return
	}
	b.SetPosition(b.position.Add(b.velocity.Mult(dt)), true)
}

// SurfaceHit is a surface crossed by a query line.
type SurfaceHit struct {
	ID        SurfaceID
	Line      common.Line
	Intersect cp.Vector
	Distance  float64
}

// IntersectingSurfaces returns every surface of the quads in bounds whose
// infinite extension crosses line at a point inside bounds.
func IntersectingSurfaces(r Region, bounds common.Rect, line common.Line) []SurfaceHit {
	var hits []SurfaceHit
	for _, ref := range r.QuadsInRect(bounds) {
		q := r.Quad(ref.ID)
		if q == nil {
			continue
		}
		for _, dir := range common.Cardinals {
			s := q.Surface(dir)
			if s == nil {
				continue
			}
			world := s.Line.Shift(r.Position())
			inter := common.Intersection(world, line)
			if common.IsNaNVec(inter) || !bounds.Contains(inter) {
				continue
			}
			hits = append(hits, SurfaceHit{ID: s.ID, Line: world, Intersect: inter})
		}
	}
	return hits
}

// Raycast finds the nearest surface hit by line. Surfaces facing away from
// the ray are ignored.
func Raycast(r Region, line common.Line) (SurfaceHit, bool) {
	dir := line.Vector()
	best := SurfaceHit{Distance: math.Inf(1)}
	found := false

	for _, ref := range r.QuadsAlongLine(line) {
		q := r.Quad(ref.ID)
		if q == nil {
			continue
		}
		for _, d := range common.Cardinals {
			s := q.Surface(d)
			if s == nil {
				continue
			}
			world := s.Line.Shift(r.Position())
			if world.Normal().Dot(dir) >= 0 {
				continue
			}
			inter := common.Intersection(world, line)
			if common.IsNaNVec(inter) || !world.HasPoint(inter) || !line.HasPoint(inter) {
				continue
			}
			dist := inter.Distance(line.P1)
			if dist < best.Distance {
				best = SurfaceHit{ID: s.ID, Line: world, Intersect: inter, Distance: dist}
				found = true
			}
		}
	}
	return best, found
}

func sortByEntry(refs []QuadRef, line common.Line) {
	t := make(map[QuadID]float64, len(refs))
	for _, ref := range refs {
		t[ref.ID] = ref.Bounds.BB().SegmentQuery(line.P1, line.P2)
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return t[refs[i].ID] < t[refs[j].ID]
	})
}

var (
	_ Region = (*TileMap)(nil)
	_ Region = (*SimpleRegion)(nil)
)
