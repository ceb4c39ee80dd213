package common

import (
	"math"

	"github.com/jakecoffman/cp"
)

// Line is a directed segment from P1 to P2.
type Line struct {
	P1, P2 cp.Vector
}

func NewLine(x1, y1, x2, y2 float64) Line {
	return Line{P1: cp.Vector{X: x1, Y: y1}, P2: cp.Vector{X: x2, Y: y2}}
}

func (l Line) Vector() cp.Vector {
	return l.P2.Sub(l.P1)
}

// Normal is the outward unit normal for clockwise winding.
func (l Line) Normal() cp.Vector {
	return Unit(LeftHand(l.Vector()))
}

func (l Line) Tangent() cp.Vector {
	return Unit(l.Vector())
}

func (l Line) Reverse() Line {
	return Line{P1: l.P2, P2: l.P1}
}

func (l Line) Shift(offset cp.Vector) Line {
	return Line{P1: l.P1.Add(offset), P2: l.P2.Add(offset)}
}

func (l Line) Length() float64 {
	return l.P1.Distance(l.P2)
}

func (l Line) IsVertical() bool {
	return l.P1.X == l.P2.X
}

func (l Line) IsHorizontal() bool {
	return l.P1.Y == l.P2.Y
}

func (l Line) IsPoint() bool {
	return l.P1.Equal(l.P2)
}

func (l Line) Midpoint() cp.Vector {
	return l.P1.Lerp(l.P2, 0.5)
}

func (l Line) Angle() Angle {
	return AngleOf(l.Vector())
}

func (l Line) Equal(o Line) bool {
	return l.P1.Equal(o.P1) && l.P2.Equal(o.P2)
}

// YForX solves the line's equation for y. Vertical lines return P1.Y.
func (l Line) YForX(x float64) float64 {
	v := l.Vector()
	if v.X == 0 {
		return l.P1.Y
	}
	return l.P1.Y + (x-l.P1.X)*(v.Y/v.X)
}

// Intersection returns where the infinite extensions of a and b cross, or
// NaN components when the lines are parallel.
func Intersection(a, b Line) cp.Vector {
	detA := a.P1.X*a.P2.Y - a.P1.Y*a.P2.X
	detB := b.P1.X*b.P2.Y - b.P1.Y*b.P2.X

	mxA := a.P1.X - a.P2.X
	mxB := b.P1.X - b.P2.X
	myA := a.P1.Y - a.P2.Y
	myB := b.P1.Y - b.P2.Y

	denom := mxA*myB - myA*mxB
	if denom == 0 {
		return cp.Vector{X: math.NaN(), Y: math.NaN()}
	}

	ix := (detA*mxB - detB*mxA) / denom
	iy := (detA*myB - detB*myA) / denom
	if math.IsInf(ix, 0) || math.IsInf(iy, 0) || math.IsNaN(ix) || math.IsNaN(iy) {
		return cp.Vector{X: math.NaN(), Y: math.NaN()}
	}
	return cp.Vector{X: ix, Y: iy}
}

// HasPoint reports whether p lies on the segment, within Epsilon.
func (l Line) HasPoint(p cp.Vector) bool {
	v := l.Vector()
	w := p.Sub(l.P1)
	if !NearlyZero(v.Cross(w) / math.Max(l.Length(), 1)) {
		return false
	}
	d := w.Dot(v)
	return d >= -Epsilon && d <= v.LengthSq()+Epsilon
}

// Collinear reports whether both segments lie on the same infinite line.
func Collinear(a, b Line) bool {
	v := a.Vector()
	return NearlyZero(v.Cross(b.P1.Sub(a.P1))) && NearlyZero(v.Cross(b.P2.Sub(a.P1)))
}
