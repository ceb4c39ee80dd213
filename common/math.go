package common

import (
	"math"

	"github.com/jakecoffman/cp"
)

// TileSize is the edge length of one grid tile in world units.
const TileSize = 16.0

// Epsilon is the tolerance used when comparing grid-derived coordinates.
const Epsilon = 1e-5

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// Clamp bounds v to the range spanned by a and b, whichever order they come in.
func Clamp(v, a, b float64) float64 {
	return cp.Clamp(v, math.Min(a, b), math.Max(a, b))
}

// Reduce moves val toward zero by amount without crossing it.
func Reduce(val, amount, zero float64) float64 {
	if val > zero {
		return math.Max(val-amount, zero)
	} else if val < zero {
		return math.Min(val+amount, zero)
	}
	return val
}

func NearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

func NearlyZero(a float64) bool {
	return math.Abs(a) <= Epsilon
}

func VecNearlyEqual(a, b cp.Vector) bool {
	return NearlyEqual(a.X, b.X) && NearlyEqual(a.Y, b.Y)
}

func IsNaNVec(v cp.Vector) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y)
}

// Unit returns v scaled to length one, or the zero vector when v has no length.
func Unit(v cp.Vector) cp.Vector {
	l := v.Length()
	if l == 0 {
		return cp.Vector{}
	}
	return cp.Vector{X: v.X / l, Y: v.Y / l}
}

// LeftHand is the outward normal of a clockwise surface in y-down space.
func LeftHand(v cp.Vector) cp.Vector {
	return cp.Vector{X: v.Y, Y: -v.X}
}

// RightHand points along a surface when v is its outward normal.
func RightHand(v cp.Vector) cp.Vector {
	return cp.Vector{X: -v.Y, Y: v.X}
}

// Projection projects a onto the direction of onto. Axis-aligned directions
// pass the matching component straight through so no rounding creeps in.
func Projection(a, onto cp.Vector, ontoIsUnit bool) cp.Vector {
	switch {
	case onto.X == 0 && onto.Y == 0:
		return cp.Vector{}
	case onto.X == 0:
		return cp.Vector{Y: a.Y}
	case onto.Y == 0:
		return cp.Vector{X: a.X}
	}

	dp := a.Dot(onto)
	if ontoIsUnit {
		return onto.Mult(dp)
	}
	return onto.Mult(dp / onto.LengthSq())
}

func IsVertical(v cp.Vector) bool   { return v.X == 0 }
func IsHorizontal(v cp.Vector) bool { return v.Y == 0 }

func Sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}
