package tile

import (
	"log"
	"strings"
	"sync"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/common"
)

type Type uint8

const (
	Empty Type = iota
	Solid
	Half
	HalfVert
	Slope
	Shallow1
	Shallow2
	Steep1
	Steep2
	Oneway
	OnewayVert
	LevelBoundary
	LevelBoundaryWall

	typeCount
)

var typeLabels = [typeCount]string{
	"empty",
	"solid",
	"half",
	"halfvert",
	"slope",
	"shallow1",
	"shallow2",
	"steep1",
	"steep2",
	"oneway",
	"onewayvert",
	"levelboundary",
	"levelboundary_wall",
}

func (t Type) String() string {
	if t >= typeCount {
		return typeLabels[Empty]
	}
	return typeLabels[t]
}

// HasHoriSymmetry reports whether a horizontal flip leaves the shape unchanged.
func (t Type) HasHoriSymmetry() bool {
	switch t {
	case Empty, Solid, Half, Oneway:
		return true
	}
	return false
}

// HasVertSymmetry reports whether a vertical flip leaves the shape unchanged.
func (t Type) HasVertSymmetry() bool {
	switch t {
	case Empty, Solid, HalfVert, OnewayVert:
		return true
	}
	return false
}

// Shape is a tile type plus its flip flags.
type Shape struct {
	Type  Type
	FlipH bool
	FlipV bool
}

func NewShape(t Type, flipH, flipV bool) Shape {
	return Shape{
		Type:  t,
		FlipH: flipH && !t.HasHoriSymmetry(),
		FlipV: flipV && !t.HasVertSymmetry(),
	}
}

var (
	unknownMu     sync.Mutex
	unknownShapes = map[string]struct{}{}
)

// Parse reads a shape string of the form "type[-hv]". Unknown types produce
// an empty shape and are logged once per distinct string.
func Parse(s string) Shape {
	name, flips, _ := strings.Cut(strings.TrimSpace(s), "-")
	name = strings.ToLower(name)
	flips = strings.ToLower(flips)

	for i, label := range typeLabels {
		if label == name {
			return NewShape(Type(i), strings.Contains(flips, "h"), strings.Contains(flips, "v"))
		}
	}

	if name != "" {
		unknownMu.Lock()
		if _, seen := unknownShapes[s]; !seen {
			unknownShapes[s] = struct{}{}
			log.Printf("tile: unknown shape %q, treating as empty", s)
		}
		unknownMu.Unlock()
	}
	return Shape{}
}

func (s Shape) String() string {
	str := s.Type.String()
	if s.FlipH || s.FlipV {
		str += "-"
		if s.FlipH {
			str += "h"
		}
		if s.FlipV {
			str += "v"
		}
	}
	return str
}

func (s Shape) IsEmpty() bool {
	return s.Type == Empty
}

// OneWayDir is the facing of a one-way shape.
func (s Shape) OneWayDir() (common.Cardinal, bool) {
	switch s.Type {
	case Oneway:
		if s.FlipV {
			return common.South, true
		}
		return common.North, true
	case OnewayVert:
		if s.FlipH {
			return common.West, true
		}
		return common.East, true
	}
	return common.North, false
}

// BoundaryDir is the facing of a level boundary shape.
func (s Shape) BoundaryDir() (common.Cardinal, bool) {
	switch s.Type {
	case LevelBoundary:
		if s.FlipV {
			return common.South, true
		}
		return common.North, true
	case LevelBoundaryWall:
		if s.FlipH {
			return common.West, true
		}
		return common.East, true
	}
	return common.North, false
}

// Prototype is the unflipped outline of a shape in unit tile coordinates.
// Side i runs from Points[i] to Points[(i+1)%4], clockwise.
type Prototype struct {
	Points   [4]cp.Vector
	Surfaces uint8
}

var allSides = common.CardinalBits(common.North, common.East, common.South, common.West)

func square(bits uint8) Prototype {
	return Prototype{Points: [4]cp.Vector{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}, Surfaces: bits}
}

var prototypes = [typeCount]Prototype{
	Empty:             {},
	Solid:             square(allSides),
	Half:              {Points: [4]cp.Vector{{X: 0, Y: 0.5}, {X: 1, Y: 0.5}, {X: 1, Y: 1}, {X: 0, Y: 1}}, Surfaces: allSides},
	HalfVert:          {Points: [4]cp.Vector{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: 1}, {X: 0, Y: 1}}, Surfaces: allSides},
	Slope:             {Points: [4]cp.Vector{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}, Surfaces: common.CardinalBits(common.North, common.East, common.South)},
	Shallow1:          {Points: [4]cp.Vector{{X: 0, Y: 1}, {X: 1, Y: 0.5}, {X: 1, Y: 1}, {X: 0, Y: 1}}, Surfaces: common.CardinalBits(common.North, common.East, common.South)},
	Shallow2:          {Points: [4]cp.Vector{{X: 0, Y: 0.5}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}, Surfaces: allSides},
	Steep1:            {Points: [4]cp.Vector{{X: 0.5, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}, Surfaces: allSides},
	Steep2:            {Points: [4]cp.Vector{{X: 1, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0.5, Y: 1}}, Surfaces: common.CardinalBits(common.East, common.South, common.West)},
	Oneway:            square(common.North.Bit()),
	OnewayVert:        square(common.East.Bit()),
	LevelBoundary:     square(common.North.Bit()),
	LevelBoundaryWall: square(common.East.Bit()),
}

func (t Type) Prototype() Prototype {
	if t >= typeCount {
		return Prototype{}
	}
	return prototypes[t]
}

// Lines returns the shape's candidate sides, flipped and scaled to tile size
// in tile-local space, indexed by the cardinal they face after flipping.
// Winding stays clockwise regardless of flips.
func (s Shape) Lines() (lines [4]common.Line, has [4]bool) {
	if s.IsEmpty() {
		return lines, has
	}
	proto := s.Type.Prototype()

	for i := 0; i < 4; i++ {
		l := common.Line{
			P1: proto.Points[i].Mult(common.TileSize),
			P2: proto.Points[(i+1)%4].Mult(common.TileSize),
		}
		if s.FlipH {
			l.P1.X = common.TileSize - l.P1.X
			l.P2.X = common.TileSize - l.P2.X
		}
		if s.FlipV {
			l.P1.Y = common.TileSize - l.P1.Y
			l.P2.Y = common.TileSize - l.P2.Y
		}
		if s.FlipH != s.FlipV {
			l.P1, l.P2 = l.P2, l.P1
		}
		lines[i] = l
		has[i] = proto.Surfaces&common.Cardinals[i].Bit() != 0
	}

	swapFacing := func(a, b common.Cardinal) {
		switch {
		case has[a] && has[b]:
			lines[a], lines[b] = lines[b], lines[a]
		case has[a]:
			lines[b], has[b] = lines[a], true
			has[a] = false
		case has[b]:
			lines[a], has[a] = lines[b], true
			has[b] = false
		}
	}
	if s.FlipH {
		swapFacing(common.East, common.West)
	}
	if s.FlipV {
		swapFacing(common.North, common.South)
	}
	return lines, has
}

// Touches returns the grid sides that have a surface lying along the tile
// edge. Only those sides are stitched against neighbours.
// One-way shapes never touch, so a platform below a wall keeps both sides.
func (s Shape) Touches() uint8 {
	var bits uint8
	if s.Type == Oneway || s.Type == OnewayVert {
		return 0
	}
	lines, has := s.Lines()
	for _, dir := range common.Cardinals {
		if !has[dir] || lines[dir].IsPoint() {
			continue
		}
		if onTileEdge(lines[dir], dir) {
			bits |= dir.Bit()
		}
	}
	return bits
}

func onTileEdge(l common.Line, dir common.Cardinal) bool {
	switch dir {
	case common.North:
		return l.P1.Y == 0 && l.P2.Y == 0
	case common.East:
		return l.P1.X == common.TileSize && l.P2.X == common.TileSize
	case common.South:
		return l.P1.Y == common.TileSize && l.P2.Y == common.TileSize
	default:
		return l.P1.X == 0 && l.P2.X == 0
	}
}
