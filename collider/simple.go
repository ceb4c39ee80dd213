package collider

import (
	"math"

	"github.com/milk9111/tilecollide/common"
)

// SimpleRegion is a single rectangular quad, typically a moving platform.
type SimpleRegion struct {
	Base
	quad Quad
}

// NewSimpleRegion creates a region whose quad is shape in local space.
func NewSimpleRegion(shape common.Rect) *SimpleRegion {
	r := &SimpleRegion{quad: NewRectQuad(shape)}
	r.bounds = shape
	r.prevBounds = shape
	return r
}

func (r *SimpleRegion) Update(dt float64) {
	r.step(dt)
}

// SetMaterial tags every side of the quad with material.
func (r *SimpleRegion) SetMaterial(material string) {
	r.quad.Material = material
}

func (r *SimpleRegion) Quad(id QuadID) *Quad {
	if r == nil || id != 0 || !r.quad.HasAnySurface() {
		return nil
	}
	return &r.quad
}

func (r *SimpleRegion) SurfaceAt(id SurfaceID) *Surface {
	return r.Quad(id.Quad).Surface(id.Dir)
}

// QuadsInRect extends the query by this region's own movement so a body the
// region moved into is still found.
func (r *SimpleRegion) QuadsInRect(area common.Rect) []QuadRef {
	if r == nil || !r.quad.HasAnySurface() {
		return nil
	}
	local := area.Shift(r.position.Neg())
	d := r.DeltaPosition()
	if d.X < 0 {
		local = local.Extend(common.West, math.Abs(d.X))
	} else {
		local = local.Extend(common.East, d.X)
	}
	if d.Y < 0 {
		local = local.Extend(common.North, math.Abs(d.Y))
	} else {
		local = local.Extend(common.South, d.Y)
	}

	if !r.bounds.Touches(local) {
		return nil
	}
	return []QuadRef{{Bounds: r.BoundingBox(), ID: 0}}
}

func (r *SimpleRegion) QuadsAlongLine(line common.Line) []QuadRef {
	if r == nil || !r.quad.HasAnySurface() {
		return nil
	}
	b := r.BoundingBox()
	if !b.BB().IntersectsSegment(line.P1, line.P2) {
		return nil
	}
	return []QuadRef{{Bounds: b, ID: 0}}
}
