package common

import "github.com/jakecoffman/cp"

type Cardinal uint8

const (
	North Cardinal = iota
	East
	South
	West
)

// Cardinals lists the four directions in clockwise order starting at North.
var Cardinals = [4]Cardinal{North, East, South, West}

var cardinalNames = [4]string{"N", "E", "S", "W"}

func (c Cardinal) String() string {
	if c > West {
		return "?"
	}
	return cardinalNames[c]
}

func (c Cardinal) Opposite() Cardinal {
	return (c + 2) % 4
}

func (c Cardinal) Bit() uint8 {
	return 1 << c
}

func (c Cardinal) IsVertical() bool {
	return c == North || c == South
}

func (c Cardinal) IsHorizontal() bool {
	return c == East || c == West
}

// Vector is the unit vector pointing in direction c. North is -Y.
func (c Cardinal) Vector() cp.Vector {
	switch c {
	case North:
		return cp.Vector{X: 0, Y: -1}
	case East:
		return cp.Vector{X: 1, Y: 0}
	case South:
		return cp.Vector{X: 0, Y: 1}
	default:
		return cp.Vector{X: -1, Y: 0}
	}
}

// GridOffset is the tile coordinate delta toward c.
func (c Cardinal) GridOffset() (int, int) {
	v := c.Vector()
	return int(v.X), int(v.Y)
}

// CardinalFromVector maps an axis-aligned vector to its direction.
func CardinalFromVector(v cp.Vector) (Cardinal, bool) {
	switch {
	case v.Y == 0 && v.X > 0:
		return East, true
	case v.Y == 0 && v.X < 0:
		return West, true
	case v.X == 0 && v.Y > 0:
		return South, true
	case v.X == 0 && v.Y < 0:
		return North, true
	}
	return North, false
}

// CardinalBits combines directions into a bitmask.
func CardinalBits(dirs ...Cardinal) uint8 {
	var bits uint8
	for _, d := range dirs {
		bits |= d.Bit()
	}
	return bits
}

type Ordinal uint8

const (
	NorthWest Ordinal = iota
	NorthEast
	SouthEast
	SouthWest
)

// CombineCardinals returns the ordinal between a vertical and a horizontal direction.
func CombineCardinals(vert, hori Cardinal) (Ordinal, bool) {
	switch {
	case vert == North && hori == West:
		return NorthWest, true
	case vert == North && hori == East:
		return NorthEast, true
	case vert == South && hori == East:
		return SouthEast, true
	case vert == South && hori == West:
		return SouthWest, true
	}
	return NorthWest, false
}
