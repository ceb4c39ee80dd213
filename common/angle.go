package common

import (
	"math"

	"github.com/jakecoffman/cp"
)

// Angle is an angle in radians normalised to the range (-Pi, Pi].
type Angle float64

func NewAngle(rad float64) Angle {
	return Angle(normalizeRad(rad))
}

func Degrees(deg float64) Angle {
	return NewAngle(deg * math.Pi / 180)
}

// AngleOf returns the direction of v. The zero vector has angle zero.
func AngleOf(v cp.Vector) Angle {
	return NewAngle(math.Atan2(v.Y, v.X))
}

func normalizeRad(rad float64) float64 {
	if math.IsNaN(rad) || math.IsInf(rad, 0) {
		return 0
	}
	if rad > math.Pi || rad <= -math.Pi {
		rad = math.Mod(rad+math.Pi, 2*math.Pi)
		if rad <= 0 {
			rad += 2 * math.Pi
		}
		rad -= math.Pi
	}
	return rad
}

func (a Angle) Radians() float64 { return float64(a) }

func (a Angle) Degrees() float64 { return float64(a) * 180 / math.Pi }

func (a Angle) Add(b Angle) Angle { return NewAngle(float64(a) + float64(b)) }

func (a Angle) Sub(b Angle) Angle { return NewAngle(float64(a) - float64(b)) }

// IsBetween reports whether a lies within [min, max] (or (min, max) when not inclusive).
func (a Angle) IsBetween(min, max Angle, inclusive bool) bool {
	if inclusive {
		return a >= min && a <= max
	}
	return a > min && a < max
}

// AngleRange is the set of normal angles a surface tracker accepts.
type AngleRange struct {
	Min       Angle
	Max       Angle
	Inclusive bool
}

// AnyAngle accepts every direction.
var AnyAngle = AngleRange{Min: NewAngle(-math.Pi + 1e-9), Max: Angle(math.Pi), Inclusive: true}

// FloorAngles is the usual ground range: normals within 50 degrees of straight up.
var FloorAngles = AngleRange{Min: Degrees(-140), Max: Degrees(-40), Inclusive: true}

func (r AngleRange) Contains(a Angle) bool {
	if r.Min == r.Max {
		return false
	}
	if r.Min > r.Max {
		// wraps across Pi
		if r.Inclusive {
			return a >= r.Min || a <= r.Max
		}
		return a > r.Min || a < r.Max
	}
	return a.IsBetween(r.Min, r.Max, r.Inclusive)
}

func (r AngleRange) ContainsVector(v cp.Vector) bool {
	return r.Contains(AngleOf(v))
}
