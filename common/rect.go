package common

import (
	"math"

	"github.com/jakecoffman/cp"
)

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

func RectFromPoints(a, b cp.Vector) Rect {
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func (r Rect) Left() float64   { return r.X }
func (r Rect) Top() float64    { return r.Y }
func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

func (r Rect) TopLeft() cp.Vector  { return cp.Vector{X: r.X, Y: r.Y} }
func (r Rect) TopRight() cp.Vector { return cp.Vector{X: r.Right(), Y: r.Y} }
func (r Rect) BotRight() cp.Vector { return cp.Vector{X: r.Right(), Y: r.Bottom()} }
func (r Rect) BotLeft() cp.Vector  { return cp.Vector{X: r.X, Y: r.Bottom()} }

func (r Rect) Mid() cp.Vector {
	return cp.Vector{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

func (r Rect) Size() cp.Vector {
	return cp.Vector{X: r.Width, Y: r.Height}
}

// Intersects is true when the rectangles share interior area.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.Right() &&
		r.Right() > other.X &&
		r.Y < other.Bottom() &&
		r.Bottom() > other.Y
}

// Touches is like Intersects but also accepts shared edges.
func (r Rect) Touches(other Rect) bool {
	return r.X <= other.Right() &&
		r.Right() >= other.X &&
		r.Y <= other.Bottom() &&
		r.Bottom() >= other.Y
}

func (r Rect) Contains(p cp.Vector) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

func (r Rect) Shift(offset cp.Vector) Rect {
	r.X += offset.X
	r.Y += offset.Y
	return r
}

// Extend grows r by amount on the side facing dir.
func (r Rect) Extend(dir Cardinal, amount float64) Rect {
	switch dir {
	case North:
		r.Y -= amount
		r.Height += amount
	case East:
		r.Width += amount
	case South:
		r.Height += amount
	case West:
		r.X -= amount
		r.Width += amount
	}
	return r
}

// Bound returns the smallest rectangle containing both a and b.
func Bound(a, b Rect) Rect {
	left := math.Min(a.X, b.X)
	top := math.Min(a.Y, b.Y)
	return Rect{
		X:      left,
		Y:      top,
		Width:  math.Max(a.Right(), b.Right()) - left,
		Height: math.Max(a.Bottom(), b.Bottom()) - top,
	}
}

// BB converts to chipmunk's bounding box. The Y axis is not flipped; T is the
// larger y, which is the bottom edge on screen.
func (r Rect) BB() cp.BB {
	return cp.BB{L: r.X, B: r.Y, R: r.Right(), T: r.Bottom()}
}

func RectFromBB(bb cp.BB) Rect {
	return Rect{X: bb.L, Y: bb.B, Width: bb.R - bb.L, Height: bb.T - bb.B}
}
