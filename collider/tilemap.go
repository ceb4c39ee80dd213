package collider

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/common"
	"github.com/milk9111/tilecollide/tile"
)

type tileEntry struct {
	has      bool
	shape    tile.Shape
	material string
}

type edit struct {
	pos      GridPos
	shape    tile.Shape
	material string
	removal  bool
}

// TileMap is a dense grid of tile quads. Edits are queued and applied in one
// pass by ApplyChanges, which also stitches each changed tile to its
// neighbours.
type TileMap struct {
	Base

	min, max  GridPos
	hasBorder bool

	quads []Quad
	tiles []tileEntry
	edits []edit

	validCount int
}

type sideAssociation struct {
	side     common.Cardinal
	opposite common.Cardinal
}

var stitchSides = [4]sideAssociation{
	{common.North, common.South},
	{common.East, common.West},
	{common.South, common.North},
	{common.West, common.East},
}

// NewTileMap creates an empty map of w by h tiles. With border set, a ring of
// one extra tile is reserved on every side for SetBorders.
func NewTileMap(w, h int, border bool) *TileMap {
	m := &TileMap{
		max:       GridPos{X: max(w, 0), Y: max(h, 0)},
		hasBorder: border,
	}
	if border {
		m.min = GridPos{X: -1, Y: -1}
		m.max.X++
		m.max.Y++
	}

	n := m.width() * m.height()
	m.quads = make([]Quad, n)
	m.tiles = make([]tileEntry, n)
	for i := range m.quads {
		m.quads[i].setID(QuadID(i))
	}

	m.bounds = common.Rect{
		X:      float64(m.min.X) * common.TileSize,
		Y:      float64(m.min.Y) * common.TileSize,
		Width:  float64(m.width()) * common.TileSize,
		Height: float64(m.height()) * common.TileSize,
	}
	m.prevBounds = m.bounds
	return m
}

func (m *TileMap) width() int  { return m.max.X - m.min.X }
func (m *TileMap) height() int { return m.max.Y - m.min.Y }

// Size is the playable size in tiles, excluding any border.
func (m *TileMap) Size() GridPos {
	if m.hasBorder {
		return GridPos{X: m.width() - 2, Y: m.height() - 2}
	}
	return GridPos{X: m.width(), Y: m.height()}
}

func (m *TileMap) index(p GridPos) (int, bool) {
	if p.X < m.min.X || p.X >= m.max.X || p.Y < m.min.Y || p.Y >= m.max.Y {
		return 0, false
	}
	return (p.X - m.min.X) + (p.Y-m.min.Y)*m.width(), true
}

// PositionOf maps a quad ID back to its grid position.
func (m *TileMap) PositionOf(id QuadID) (GridPos, bool) {
	if m == nil || id < 0 || int(id) >= len(m.quads) {
		return GridPos{}, false
	}
	w := m.width()
	return GridPos{X: int(id)%w + m.min.X, Y: int(id)/w + m.min.Y}, true
}

func (m *TileMap) tileAt(p GridPos) (*Quad, *tileEntry) {
	i, ok := m.index(p)
	if !ok || !m.tiles[i].has {
		return nil, nil
	}
	return &m.quads[i], &m.tiles[i]
}

// ValidCount is the number of tiles that currently have any surface.
func (m *TileMap) ValidCount() int {
	return m.validCount
}

// Shape returns the shape stored at p.
func (m *TileMap) Shape(p GridPos) (tile.Shape, bool) {
	_, t := m.tileAt(p)
	if t == nil {
		return tile.Shape{}, false
	}
	return t.shape, true
}

// SetTile queues shapeStr to be placed at p on the next ApplyChanges.
func (m *TileMap) SetTile(p GridPos, shapeStr, material string) error {
	return m.SetShape(p, tile.Parse(shapeStr), material)
}

func (m *TileMap) SetShape(p GridPos, shape tile.Shape, material string) error {
	if _, ok := m.index(p); !ok {
		return fmt.Errorf("collider: set tile %d,%d: %w", p.X, p.Y, ErrOutOfBounds)
	}
	m.edits = append(m.edits, edit{pos: p, shape: shape, material: material})
	return nil
}

// RemoveTile queues the tile at p for removal.
func (m *TileMap) RemoveTile(p GridPos) error {
	if _, ok := m.index(p); !ok {
		return fmt.Errorf("collider: remove tile %d,%d: %w", p.X, p.Y, ErrOutOfBounds)
	}
	m.edits = append(m.edits, edit{pos: p, removal: true})
	return nil
}

// PendingEdits is the number of queued edits not yet applied.
func (m *TileMap) PendingEdits() int {
	return len(m.edits)
}

func (m *TileMap) Update(dt float64) {
	m.ApplyChanges()
	m.step(dt)
}

// SetBorders fills the border ring on the given sides with level boundary
// tiles facing into the map, and clears it on the others.
func (m *TileMap) SetBorders(cardinalBits uint8) {
	if !m.hasBorder {
		return
	}
	size := m.Size()

	for _, side := range common.Cardinals {
		var cells []GridPos
		switch side {
		case common.North:
			for x := 0; x < size.X; x++ {
				cells = append(cells, GridPos{X: x, Y: -1})
			}
		case common.East:
			for y := 0; y < size.Y; y++ {
				cells = append(cells, GridPos{X: size.X, Y: y})
			}
		case common.South:
			for x := 0; x < size.X; x++ {
				cells = append(cells, GridPos{X: x, Y: size.Y})
			}
		case common.West:
			for y := 0; y < size.Y; y++ {
				cells = append(cells, GridPos{X: -1, Y: y})
			}
		}

		if cardinalBits&side.Bit() == 0 {
			for _, c := range cells {
				_ = m.RemoveTile(c)
			}
			continue
		}

		typ := tile.LevelBoundaryWall
		if side.IsVertical() {
			typ = tile.LevelBoundary
		}
		shape := tile.NewShape(typ, side == common.East, side == common.North)
		for _, c := range cells {
			_ = m.SetShape(c, shape, "")
		}
	}
	m.ApplyChanges()
}

// ApplyChanges drains the edit queue, then recomputes ghosts for every tile
// neighbouring a change.
func (m *TileMap) ApplyChanges() {
	if len(m.edits) == 0 {
		return
	}

	w, h := m.width(), m.height()
	impacted := make([]bool, w*h)
	changeMin := GridPos{X: math.MaxInt, Y: math.MaxInt}
	changeMax := GridPos{X: math.MinInt, Y: math.MinInt}
	anyChange := false

	edits := m.edits
	m.edits = nil
	for _, e := range edits {
		var changed bool
		if e.removal {
			changed = m.applyRemoveTile(e.pos)
		} else {
			changed = m.applySetTile(e)
		}
		if !changed {
			continue
		}
		anyChange = true

		for xx := e.pos.X - 1 - m.min.X; xx <= e.pos.X+1-m.min.X; xx++ {
			for yy := e.pos.Y - 1 - m.min.Y; yy <= e.pos.Y+1-m.min.Y; yy++ {
				if xx < 0 || xx >= w || yy < 0 || yy >= h {
					continue
				}
				changeMin.X, changeMin.Y = min(xx, changeMin.X), min(yy, changeMin.Y)
				changeMax.X, changeMax.Y = max(xx, changeMax.X), max(yy, changeMax.Y)
				impacted[yy*w+xx] = true
			}
		}
	}

	if !anyChange {
		return
	}
	for yy := changeMin.Y; yy <= changeMax.Y; yy++ {
		for xx := changeMin.X; xx <= changeMax.X; xx++ {
			if impacted[yy*w+xx] {
				m.updateGhosts(GridPos{X: xx + m.min.X, Y: yy + m.min.Y})
			}
		}
	}
}

func (m *TileMap) applyRemoveTile(p GridPos) bool {
	quad, t := m.tileAt(p)
	if quad == nil {
		return false
	}

	touches := t.shape.Touches()
	for _, side := range stitchSides {
		if touches&side.side.Bit() == 0 {
			continue
		}
		dx, dy := side.side.GridOffset()
		adjPos := GridPos{X: p.X + dx, Y: p.Y + dy}
		adjQuad, adjTile := m.tileAt(adjPos)
		if adjQuad == nil || adjTile.shape.Touches()&side.opposite.Bit() == 0 {
			continue
		}

		adjIndex, _ := m.index(adjPos)
		original := BuildQuad(adjTile.shape, adjPos, QuadID(adjIndex), adjTile.material)
		if s := original.Surface(side.opposite); s != nil {
			if !adjQuad.HasAnySurface() {
				m.validCount++
			}
			adjQuad.SetSurface(side.opposite, *s)
		}
	}

	if quad.HasAnySurface() {
		m.validCount--
	}
	i, _ := m.index(p)
	m.tiles[i] = tileEntry{}
	m.quads[i] = Quad{}
	m.quads[i].setID(QuadID(i))
	return true
}

func (m *TileMap) applySetTile(e edit) bool {
	i, _ := m.index(e.pos)
	nQuad := BuildQuad(e.shape, e.pos, QuadID(i), e.material)

	if quad, t := m.tileAt(e.pos); quad != nil {
		if t.shape == e.shape {
			if t.material != e.material {
				t.material = e.material
				quad.Material = e.material
			}
			return false
		}
		m.applyRemoveTile(e.pos)
	}

	if e.shape.IsEmpty() {
		return true
	}

	touches := e.shape.Touches()
	for _, side := range stitchSides {
		if touches&side.side.Bit() == 0 {
			continue
		}
		dx, dy := side.side.GridOffset()
		adjQuad, adjTile := m.tileAt(GridPos{X: e.pos.X + dx, Y: e.pos.Y + dy})
		if adjQuad == nil || adjTile.shape.Touches()&side.opposite.Bit() == 0 {
			continue
		}

		added := nQuad.Surface(side.side)
		adjacent := adjQuad.Surface(side.opposite)
		if added == nil || adjacent == nil {
			continue
		}

		removeAdded, removeAdjacent := cullTouchingSurfaces(added, adjacent)
		if removeAdded {
			nQuad.RemoveSurface(side.side)
		}
		if removeAdjacent {
			adjQuad.RemoveSurface(side.opposite)
			if !adjQuad.HasAnySurface() {
				m.validCount--
			}
		}
	}

	if nQuad.HasAnySurface() {
		m.validCount++
	}
	m.tiles[i] = tileEntry{has: true, shape: e.shape, material: e.material}
	m.quads[i] = nQuad
	return true
}

// cullTouchingSurfaces resolves two surfaces on a shared tile edge. Exactly
// opposed surfaces cancel. Surfaces sharing an endpoint that together overrun
// the edge are trimmed so the longer keeps only the part the shorter does not
// cover, and the shorter is dropped.
func cullTouchingSurfaces(lhs, rhs *Surface) (removeLHS, removeRHS bool) {
	if common.VecNearlyEqual(lhs.Line.P1, rhs.Line.P2) && common.VecNearlyEqual(lhs.Line.P2, rhs.Line.P1) {
		return true, true
	}

	sharesP1 := common.VecNearlyEqual(lhs.Line.P1, rhs.Line.P2)
	sharesP2 := common.VecNearlyEqual(lhs.Line.P2, rhs.Line.P1)
	if !sharesP1 && !sharesP2 {
		return false, false
	}

	lenL := edgeLength(lhs.Line)
	lenR := edgeLength(rhs.Line)
	if lenL+lenR <= common.TileSize {
		return false, false
	}

	switch {
	case lenL > lenR:
		if sharesP1 {
			lhs.Line.P1 = rhs.Line.P1
		} else {
			lhs.Line.P2 = rhs.Line.P2
		}
		return false, true
	case lenR > lenL:
		if common.VecNearlyEqual(rhs.Line.P1, lhs.Line.P2) {
			rhs.Line.P1 = lhs.Line.P1
		} else {
			rhs.Line.P2 = lhs.Line.P2
		}
		return true, false
	}
	return false, false
}

func edgeLength(l common.Line) float64 {
	v := l.Vector()
	if v.X == 0 {
		return math.Abs(v.Y)
	}
	return math.Abs(v.X)
}

type ghosts struct {
	g0, g3               cp.Vector
	g0Virtual, g3Virtual bool
	prev, next           *Surface
}

func (m *TileMap) updateGhosts(p GridPos) {
	quad, _ := m.tileAt(p)
	if quad == nil {
		return
	}

	var nearby []*Quad
	for yy := p.Y - 1; yy <= p.Y+1; yy++ {
		for xx := p.X - 1; xx <= p.X+1; xx++ {
			if q, _ := m.tileAt(GridPos{X: xx, Y: yy}); q != nil {
				nearby = append(nearby, q)
			}
		}
	}

	for _, dir := range common.Cardinals {
		s := quad.Surface(dir)
		if s == nil {
			continue
		}
		g := findGhosts(nearby, s.Line, quad.OneWay)
		s.G0, s.G3 = g.g0, g.g3
		s.G0Virtual, s.G3Virtual = g.g0Virtual, g.g3Virtual
		s.HasPrev, s.HasNext = g.prev != nil, g.next != nil
		if g.prev != nil {
			s.Prev = g.prev.ID
		}
		if g.next != nil {
			s.Next = g.next.ID
		}
	}
}

// findGhosts picks, for each end of surface, the connected neighbour whose
// direction deviates least from the surface's own. When a floor and a
// ceiling both connect, the one matching the surface's orientation wins.
func findGhosts(nearby []*Quad, surface common.Line, isOneWay bool) ghosts {
	var cand0, cand3 []*Surface
	for _, q := range nearby {
		if !isOneWay && q.OneWay {
			continue
		}
		for _, dir := range common.Cardinals {
			qs := q.Surface(dir)
			if qs == nil {
				continue
			}
			if common.VecNearlyEqual(qs.Line.P2, surface.P1) {
				cand0 = append(cand0, qs)
			} else if common.VecNearlyEqual(qs.Line.P1, surface.P2) {
				cand3 = append(cand3, qs)
			}
		}
	}

	v := surface.Vector()
	ideal := common.AngleOf(v)

	better := func(v1, v2 cp.Vector) bool {
		if v1.X != 0 && v2.X != 0 && v.X != 0 && (v1.X < 0) != (v2.X < 0) {
			return (v1.X < 0) == (v.X < 0)
		}
		d1 := math.Abs(common.AngleOf(v1).Sub(ideal).Radians())
		d2 := math.Abs(common.AngleOf(v2).Sub(ideal).Radians())
		return d1 < d2
	}

	var best0, best3 *Surface
	for _, c := range cand0 {
		if best0 == nil || better(surface.P1.Sub(c.Line.P1), surface.P1.Sub(best0.Line.P1)) {
			best0 = c
		}
	}
	for _, c := range cand3 {
		if best3 == nil || better(c.Line.P2.Sub(surface.P2), best3.Line.P2.Sub(surface.P2)) {
			best3 = c
		}
	}

	var g ghosts
	if best0 == nil {
		g.g0Virtual = true
		g.g0 = surface.P1.Sub(v)
	} else {
		g.prev = best0
		g.g0 = best0.Line.P1
	}
	if best3 == nil {
		g.g3Virtual = true
		g.g3 = surface.P2.Add(v)
	} else {
		g.next = best3
		g.g3 = best3.Line.P2
	}
	return g
}

func (m *TileMap) Quad(id QuadID) *Quad {
	if m == nil || id < 0 || int(id) >= len(m.quads) || !m.tiles[id].has {
		return nil
	}
	return &m.quads[id]
}

func (m *TileMap) SurfaceAt(id SurfaceID) *Surface {
	return m.Quad(id.Quad).Surface(id.Dir)
}

// tileRange converts a local-space rectangle into the inclusive-exclusive
// tile range it overlaps. A degenerate range is widened by a tile each way.
func tileRange(local common.Rect) (x0, y0, x1, y1 int) {
	x0 = int(math.Floor(local.Left() / common.TileSize))
	y0 = int(math.Floor(local.Top() / common.TileSize))
	x1 = int(math.Ceil(local.Right() / common.TileSize))
	y1 = int(math.Ceil(local.Bottom() / common.TileSize))

	if x1 == x0 {
		x0--
		x1++
	} else if y1 == y0 {
		y0--
		y1++
	}
	return x0, y0, x1, y1
}

func (m *TileMap) QuadsInRect(area common.Rect) []QuadRef {
	if m == nil {
		return nil
	}
	local := area.Shift(m.position.Neg())
	x0, y0, x1, y1 := tileRange(local)

	var refs []QuadRef
	for yy := y0; yy < y1; yy++ {
		for xx := x0; xx < x1; xx++ {
			p := GridPos{X: xx, Y: yy}
			if q, _ := m.tileAt(p); q != nil {
				refs = append(refs, QuadRef{Bounds: m.tileBounds(p), ID: q.ID})
			}
		}
	}
	return refs
}

// QuadsAlongLine returns occupied tiles crossed by line, nearest first.
func (m *TileMap) QuadsAlongLine(line common.Line) []QuadRef {
	if m == nil {
		return nil
	}
	local := line.Shift(m.position.Neg())
	x0, y0, x1, y1 := tileRange(common.RectFromPoints(local.P1, local.P2))

	var refs []QuadRef
	for yy := y0; yy < y1; yy++ {
		for xx := x0; xx < x1; xx++ {
			p := GridPos{X: xx, Y: yy}
			q, _ := m.tileAt(p)
			if q == nil {
				continue
			}
			b := m.tileBounds(p)
			if b.BB().IntersectsSegment(line.P1, line.P2) {
				refs = append(refs, QuadRef{Bounds: b, ID: q.ID})
			}
		}
	}
	sortByEntry(refs, line)
	return refs
}

func (m *TileMap) tileBounds(p GridPos) common.Rect {
	return common.Rect{
		X:      float64(p.X)*common.TileSize + m.position.X,
		Y:      float64(p.Y)*common.TileSize + m.position.Y,
		Width:  common.TileSize,
		Height: common.TileSize,
	}
}
