package collider

import (
	"log"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/common"
	"github.com/milk9111/tilecollide/tile"
)

// QuadID identifies a quad within its region. Tile maps use the tile index.
type QuadID int

// NoQuad marks an unset quad reference.
const NoQuad QuadID = -1

// SurfaceID addresses one side of one quad.
type SurfaceID struct {
	Quad QuadID
	Dir  common.Cardinal
}

// Surface is one directed side of a quad along with the ghost points of its
// neighbours on either end.
type Surface struct {
	Line      common.Line
	G0        cp.Vector
	G3        cp.Vector
	G0Virtual bool
	G3Virtual bool

	ID      SurfaceID
	Prev    SurfaceID
	Next    SurfaceID
	HasPrev bool
	HasNext bool
}

// GhostPrev is the segment leading into P1.
func (s Surface) GhostPrev() common.Line {
	return common.Line{P1: s.G0, P2: s.Line.P1}
}

// GhostNext is the segment leaving P2.
func (s Surface) GhostNext() common.Line {
	return common.Line{P1: s.Line.P2, P2: s.G3}
}

func (s Surface) Reverse() Surface {
	return Surface{
		Line:      s.Line.Reverse(),
		G0:        s.G3,
		G3:        s.G0,
		G0Virtual: s.G3Virtual,
		G3Virtual: s.G0Virtual,
		ID:        s.ID,
		Prev:      s.Next,
		Next:      s.Prev,
		HasPrev:   s.HasNext,
		HasNext:   s.HasPrev,
	}
}

func (s Surface) Shift(offset cp.Vector) Surface {
	s.Line = s.Line.Shift(offset)
	s.G0 = s.G0.Add(offset)
	s.G3 = s.G3.Add(offset)
	return s
}

// Quad is a convex collision primitive of at most four surfaces, indexed by
// the cardinal each one faces.
type Quad struct {
	ID       QuadID
	Surfaces [4]Surface
	Has      [4]bool

	OneWay   bool
	Boundary bool
	Facing   common.Cardinal

	Material string
}

// Surface returns the side facing dir, or nil when the quad has none there.
func (q *Quad) Surface(dir common.Cardinal) *Surface {
	if q == nil || dir > common.West || !q.Has[dir] {
		return nil
	}
	return &q.Surfaces[dir]
}

func (q *Quad) SetSurface(dir common.Cardinal, s Surface) {
	s.ID = SurfaceID{Quad: q.ID, Dir: dir}
	q.Surfaces[dir] = s
	q.Has[dir] = true
}

func (q *Quad) RemoveSurface(dir common.Cardinal) {
	q.Has[dir] = false
}

func (q *Quad) HasAnySurface() bool {
	return q != nil && (q.Has[0] || q.Has[1] || q.Has[2] || q.Has[3])
}

func (q *Quad) SurfaceCount() int {
	n := 0
	for _, h := range q.Has {
		if h {
			n++
		}
	}
	return n
}

func (q *Quad) IsOneWay(dir common.Cardinal) bool {
	return q.OneWay && q.Facing == dir
}

func (q *Quad) IsBoundary(dir common.Cardinal) bool {
	return q.Boundary && q.Facing == dir
}

// Translated returns a copy of q moved by offset.
func (q Quad) Translated(offset cp.Vector) Quad {
	for i := range q.Surfaces {
		q.Surfaces[i] = q.Surfaces[i].Shift(offset)
	}
	return q
}

func (q *Quad) setID(id QuadID) {
	q.ID = id
	for i := range q.Surfaces {
		q.Surfaces[i].ID = SurfaceID{Quad: id, Dir: common.Cardinal(i)}
	}
}

// BuildQuad compiles a tile shape at grid position pos into a quad in
// region-local space. Unknown or empty shapes produce a quad with no surfaces.
func BuildQuad(shape tile.Shape, pos GridPos, id QuadID, material string) Quad {
	q := Quad{Material: material}
	lines, has := shape.Lines()
	offset := cp.Vector{X: float64(pos.X) * common.TileSize, Y: float64(pos.Y) * common.TileSize}

	for _, dir := range common.Cardinals {
		if !has[dir] {
			continue
		}
		line := lines[dir].Shift(offset)
		if line.IsPoint() {
			log.Printf("collider: dropping zero-length %s surface of %s at %d,%d", dir, shape, pos.X, pos.Y)
			continue
		}
		v := line.Vector()
		q.Surfaces[dir] = Surface{
			Line:      line,
			G0:        line.P1.Sub(v),
			G3:        line.P2.Add(v),
			G0Virtual: true,
			G3Virtual: true,
		}
		q.Has[dir] = true
	}

	if dir, ok := shape.OneWayDir(); ok {
		q.OneWay = true
		q.Facing = dir
	} else if dir, ok := shape.BoundaryDir(); ok {
		q.Boundary = true
		q.Facing = dir
	}

	q.setID(id)
	return q
}

// NewRectQuad builds a four-sided quad from a rectangle. Each side's ghosts
// are the adjacent corners so the outline is closed.
func NewRectQuad(r common.Rect) Quad {
	var q Quad
	if r.Width <= 0 || r.Height <= 0 {
		log.Printf("collider: rect quad %vx%v has no area", r.Width, r.Height)
		q.setID(0)
		return q
	}

	points := [4]cp.Vector{r.TopLeft(), r.TopRight(), r.BotRight(), r.BotLeft()}
	for i := 0; i < 4; i++ {
		q.Surfaces[i] = Surface{
			Line:    common.Line{P1: points[i], P2: points[(i+1)%4]},
			G0:      points[(i+3)%4],
			G3:      points[(i+2)%4],
			Prev:    SurfaceID{Dir: common.Cardinal((i + 3) % 4)},
			Next:    SurfaceID{Dir: common.Cardinal((i + 1) % 4)},
			HasPrev: true,
			HasNext: true,
		}
		q.Has[i] = true
	}
	q.setID(0)
	return q
}
