package phys

import (
	"math"
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/common"
)

// valleyFlatten is how close to the edge of a concave corner the body has to
// be before the floor under it is treated as flat.
const valleyFlatten = 0.25

const generatedAxis = -1

type frameTime uint8

const (
	prevFrame frameTime = iota
	currFrame
)

// collisionContext is everything the narrow phase reads about the pair.
type collisionContext struct {
	region    collider.Region
	body      *Body
	materials MaterialTable
}

type axisPreStep struct {
	dir     common.Cardinal
	surface collider.Surface
	real    bool
	valid   bool
	quadDir int
}

type collisionAxis struct {
	contact Contact
	dir     common.Cardinal

	// side of the quad this axis came from, or generatedAxis
	quadDir int

	axisValid        bool
	applied          bool
	separationOffset float64

	// colliderValid is false for axes built from the bounding box. They only
	// count toward intersection.
	colliderValid bool
	colliderReal  bool
}

func newAxis(pre axisPreStep) collisionAxis {
	c := newContact()
	c.Collider = pre.surface
	return collisionAxis{
		contact:       c,
		dir:           pre.dir,
		quadDir:       pre.quadDir,
		axisValid:     true,
		colliderValid: pre.valid,
		colliderReal:  pre.real,
	}
}

func (a *collisionAxis) isIntersecting() bool {
	if a.colliderValid {
		return a.contact.Separation > 0
	}
	return a.contact.Separation >= 0
}

// discreteCollision tests a body against one quad at a single instant.
type discreteCollision struct {
	quad collider.Quad
	id   ContactID
	time frameTime

	contact    Contact
	chosenAxis int

	tArea common.Rect
	tPos  cp.Vector
	tMid  cp.Vector
	tHalf cp.Vector

	cBox  common.Rect
	cPrev common.Rect
	cMid  cp.Vector
	cHalf cp.Vector
	cVel  cp.Vector
	cSlip Slip

	regionDelta cp.Vector
	valleys     [4]bool

	axes []collisionAxis
}

func newDiscreteCollision(ctx collisionContext, quad collider.Quad, id ContactID, t frameTime) *discreteCollision {
	d := &discreteCollision{id: id, axes: make([]collisionAxis, 0, 6)}
	d.reset(ctx, quad, t)
	return d
}

func (d *discreteCollision) reset(ctx collisionContext, quad collider.Quad, t frameTime) {
	d.time = t
	d.valleys = [4]bool{}
	d.contact = newContact()
	d.contact.ID, d.contact.HasID = d.id, true

	offset := ctx.region.Position()
	d.regionDelta = cp.Vector{}
	if t == currFrame {
		d.regionDelta = ctx.region.DeltaPosition()
	} else {
		offset = ctx.region.PrevPosition()
	}
	d.quad = quad.Translated(offset)

	topLeft := cp.Vector{X: math.Inf(1), Y: math.Inf(1)}
	botRight := cp.Vector{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, dir := range common.Cardinals {
		s := d.quad.Surface(dir)
		if s == nil {
			continue
		}
		for _, p := range [2]cp.Vector{s.Line.P1, s.Line.P2} {
			topLeft.X = math.Min(topLeft.X, p.X)
			topLeft.Y = math.Min(topLeft.Y, p.Y)
			botRight.X = math.Max(botRight.X, p.X)
			botRight.Y = math.Max(botRight.Y, p.Y)
		}
	}
	d.tArea = common.RectFromPoints(topLeft, botRight)

	q := &d.quad
	if d.tArea.Height == 0 {
		if q.IsOneWay(common.North) || q.IsBoundary(common.North) {
			d.tArea.Height = common.TileSize
		} else if q.IsOneWay(common.South) || q.IsBoundary(common.South) {
			d.tArea.Y -= common.TileSize
			d.tArea.Height = common.TileSize
		}
	} else if d.tArea.Width == 0 {
		if q.IsOneWay(common.West) || q.IsBoundary(common.West) {
			d.tArea.Width = common.TileSize
		} else if q.IsOneWay(common.East) || q.IsBoundary(common.East) {
			d.tArea.X -= common.TileSize
			d.tArea.Width = common.TileSize
		}
	}

	d.tPos = d.tArea.TopLeft()
	d.tMid = d.tArea.Mid()
	d.tHalf = d.tArea.Size().Mult(0.5)

	d.initBodyData(ctx)
	d.createAxes(ctx)
	d.updateContact(ctx)
}

func (d *discreteCollision) initBodyData(ctx collisionContext) {
	b := ctx.body
	if d.time == currFrame {
		d.cBox = b.Box()
		d.cVel = b.LocalVelocity()
	} else {
		d.cBox = b.PrevBox()
		d.cVel = cp.Vector{}
	}
	d.cPrev = b.PrevBox()
	d.cMid = d.cBox.Mid()
	d.cHalf = d.cBox.Size().Mult(0.5)
	d.cSlip = b.Slip()
}

func (d *discreteCollision) createAxes(ctx collisionContext) {
	d.axes = d.axes[:0]

	var hasFloor, hasCeil, hasEast, hasWest, hasEastCorner, hasWestCorner bool
	var verticals, others []axisPreStep

	for _, dir := range common.Cardinals {
		s := d.quad.Surface(dir)
		if s == nil {
			continue
		}
		surf := *s
		v := surf.Line.Vector()
		qd := int(dir)

		switch {
		case v.X == 0 && v.Y > 0:
			hasEast = true
			verticals = append(verticals, axisPreStep{dir: common.East, surface: surf, real: true, valid: true, quadDir: qd})
		case v.X == 0:
			hasWest = true
			verticals = append(verticals, axisPreStep{dir: common.West, surface: surf, real: true, valid: true, quadDir: qd})
		case v.X > 0:
			hasFloor = true
			others = append(others, axisPreStep{dir: common.North, surface: surf, real: true, valid: true, quadDir: qd})

			p1, p2 := surf.Line.P1, surf.Line.P2
			if !hasEastCorner && surf.G3.X <= p2.X && surf.G3.Y >= p2.Y {
				hasEastCorner = true
				verticals = append(verticals, axisPreStep{
					dir:     common.East,
					surface: cornerSurface(surf, p2, p1, surf.G3),
					valid:   true,
					quadDir: qd,
				})
			}
			if !hasWestCorner && surf.G0.X >= p1.X && surf.G0.Y >= p1.Y {
				hasWestCorner = true
				verticals = append(verticals, axisPreStep{
					dir:     common.West,
					surface: cornerSurface(surf, p1, surf.G0, p2),
					valid:   true,
					quadDir: qd,
				})
			}
		default:
			hasCeil = true
			others = append(others, axisPreStep{dir: common.South, surface: surf, real: true, valid: true, quadDir: qd})

			p1, p2 := surf.Line.P1, surf.Line.P2
			if !hasEastCorner && surf.G0.X <= p1.X && surf.G0.Y <= p1.Y {
				hasEastCorner = true
				verticals = append(verticals, axisPreStep{
					dir:     common.East,
					surface: cornerSurface(surf, p1, surf.G0, p2),
					valid:   true,
					quadDir: qd,
				})
			}
			if !hasWestCorner && surf.G3.X >= p2.X && surf.G3.Y <= p2.Y {
				hasWestCorner = true
				verticals = append(verticals, axisPreStep{
					dir:     common.West,
					surface: cornerSurface(surf, p2, p1, surf.G3),
					valid:   true,
					quadDir: qd,
				})
			}
		}
	}

	// The bounding box fills in missing sides. These axes only decide
	// whether the body overlaps the quad at all.
	tl, tr, bl, br := d.tArea.TopLeft(), d.tArea.TopRight(), d.tArea.BotLeft(), d.tArea.BotRight()
	if !hasFloor {
		others = append(others, fakeAxis(tl, tr, common.North))
	}
	if !hasCeil {
		others = append(others, fakeAxis(br, bl, common.South))
	}
	if !hasEast && !hasEastCorner {
		verticals = append(verticals, fakeAxis(tr, br, common.East))
	}
	if !hasWest && !hasWestCorner {
		verticals = append(verticals, fakeAxis(bl, tl, common.West))
	}

	sort.SliceStable(others, func(i, j int) bool { return others[i].dir < others[j].dir })
	sort.SliceStable(verticals, func(i, j int) bool { return verticals[i].dir < verticals[j].dir })

	for _, pre := range others {
		switch pre.dir {
		case common.North:
			d.axes = append(d.axes, d.createFloor(ctx, pre))
		case common.South:
			d.axes = append(d.axes, d.createCeil(ctx, pre))
		}
	}
	for _, pre := range verticals {
		switch pre.dir {
		case common.East:
			if (hasEast && hasEastCorner && pre.real) || !hasEast || !hasEastCorner {
				d.axes = append(d.axes, d.createWall(ctx, pre, common.East))
			}
		case common.West:
			if (hasWest && hasWestCorner && pre.real) || !hasWest || !hasWestCorner {
				d.axes = append(d.axes, d.createWall(ctx, pre, common.West))
			}
		}
	}
}

func cornerSurface(src collider.Surface, at, g0, g3 cp.Vector) collider.Surface {
	return collider.Surface{
		Line: common.Line{P1: at, P2: at},
		G0:   g0,
		G3:   g3,
		ID:   src.ID,
	}
}

func fakeAxis(p1, p2 cp.Vector, dir common.Cardinal) axisPreStep {
	return axisPreStep{
		dir:     dir,
		surface: collider.Surface{Line: common.Line{P1: p1, P2: p2}},
		quadDir: generatedAxis,
	}
}

func (d *discreteCollision) baseAxis(ctx collisionContext, pre axisPreStep, n cp.Vector) collisionAxis {
	axis := newAxis(pre)
	axis.contact.ID, axis.contact.HasID = d.id, true
	axis.contact.OrthoN = n
	axis.contact.ColliderN = n
	axis.contact.Material = d.quad.Material
	if m, ok := ctx.materials[d.quad.Material]; ok {
		axis.contact.SurfaceSpeed = m.Velocity
	}
	return axis
}

func (d *discreteCollision) createFloor(ctx collisionContext, pre axisPreStep) collisionAxis {
	axis := d.baseAxis(ctx, pre, cp.Vector{Y: -1})

	// a one-way floor only holds a body that was above it last frame
	if d.time == currFrame && d.quad.IsOneWay(common.North) {
		pMid := d.cPrev.Mid()
		pHalf := d.cPrev.Size().Mult(0.5)
		surf := axis.contact.Collider

		line := surf.Line
		validGhost := true
		if pMid.X < surf.Line.P1.X-d.regionDelta.X {
			validGhost = !surf.G0Virtual
			line = surf.GhostPrev()
		} else if pMid.X > surf.Line.P2.X-d.regionDelta.X {
			validGhost = !surf.G3Virtual
			line = surf.GhostNext()
		}
		line = line.Shift(d.regionDelta.Neg())

		slip := 0.0
		if d.cSlip.State == SlipVertical && d.cVel.Y >= 0 {
			slip = d.cSlip.Leeway
		}
		axis.axisValid = !line.IsVertical() &&
			(validGhost || slip != 0) &&
			line.YForX(pMid.X) >= pMid.Y+pHalf.Y-slip
	}
	return axis
}

func (d *discreteCollision) createCeil(ctx collisionContext, pre axisPreStep) collisionAxis {
	axis := d.baseAxis(ctx, pre, cp.Vector{Y: 1})

	if d.time == currFrame && d.quad.IsOneWay(common.South) {
		pMid := d.cPrev.Mid()
		pHalf := d.cPrev.Size().Mult(0.5)
		surf := axis.contact.Collider

		line := surf.Line
		validGhost := true
		if pMid.X < surf.Line.P2.X-d.regionDelta.X {
			validGhost = !surf.G3Virtual
			line = surf.GhostNext()
		} else if pMid.X > surf.Line.P1.X-d.regionDelta.X {
			validGhost = !surf.G0Virtual
			line = surf.GhostPrev()
		}
		line = line.Shift(d.regionDelta.Neg())

		slip := 0.0
		if d.cSlip.State == SlipVertical && d.cVel.Y <= 0 {
			slip = d.cSlip.Leeway
		}
		axis.axisValid = !line.IsVertical() &&
			(validGhost || slip != 0) &&
			line.YForX(pMid.X) <= pMid.Y-pHalf.Y+slip
	}
	return axis
}

func (d *discreteCollision) createWall(ctx collisionContext, pre axisPreStep, dir common.Cardinal) collisionAxis {
	axis := d.baseAxis(ctx, pre, dir.Vector())

	pMid := d.cPrev.Mid().Add(d.regionDelta)
	extend := d.wallCanExtend(&axis, dir, pMid)
	valley := d.wallHasValley(&axis, dir)

	if d.time == currFrame && d.quad.IsOneWay(dir) {
		slip := 0.0
		if dir == common.East {
			if d.cSlip.State == SlipHorizontal && d.cVel.X <= 0 {
				slip = d.cSlip.Leeway
			}
			axis.axisValid = d.cPrev.Left() >= d.tArea.Right()-slip
		} else {
			if d.cSlip.State == SlipHorizontal && d.cVel.X >= 0 {
				slip = d.cSlip.Leeway
			}
			axis.axisValid = d.cPrev.Right() <= d.tArea.Left()+slip
		}
	}

	if extend {
		axis.separationOffset += d.cHalf.X
	}
	if valley {
		axis.separationOffset += valleyFlatten
	}
	return axis
}

// wallCanExtend decides whether the wall pushes the body out by its whole
// width or only once its center crosses the wall.
func (d *discreteCollision) wallCanExtend(axis *collisionAxis, dir common.Cardinal, pMid cp.Vector) bool {
	q := &d.quad
	north := q.Surface(common.North)
	south := q.Surface(common.South)

	extend := axis.colliderValid
	if !extend && (q.IsOneWay(common.North) || q.IsOneWay(common.South)) {
		// extend only if the one-way doesn't continue into a neighbour on this side
		if dir == common.East {
			return (north != nil && north.G3Virtual) || (south != nil && south.G0Virtual)
		}
		return (north != nil && north.G0Virtual) || (south != nil && south.G3Virtual)
	}
	if d.time == prevFrame || !extend {
		return extend
	}

	right := d.tMid.X + d.tHalf.X
	left := d.tMid.X - d.tHalf.X

	var passing bool
	if dir == common.East {
		passing = pMid.X <= right && d.cMid.X > right
	} else {
		passing = pMid.X >= left && d.cMid.X < left
	}
	if !passing {
		return extend
	}

	sameWay := func(a, b common.Line) bool {
		return (a.P1.X < a.P2.X) == (b.P1.X < b.P2.X)
	}

	// the floor or ceiling carries on past the wall, so the body is
	// crossing over it rather than into it
	if north != nil {
		line := north.Line
		next := north.GhostPrev()
		still := line.P1.X == left
		if dir == common.East {
			next = north.GhostNext()
			still = line.P2.X == right
		}
		if !next.IsVertical() && pMid.Y < d.tMid.Y && still && sameWay(next, line) {
			return false
		}
	}
	if south != nil {
		line := south.Line
		next := south.GhostPrev()
		still := line.P1.X == right
		if dir == common.West {
			next = south.GhostNext()
			still = line.P2.X == left
		}
		if !next.IsVertical() && pMid.Y > d.tMid.Y && still && sameWay(next, line) {
			return false
		}
	}
	return extend
}

// wallHasValley marks concave corners next to a generated wall.
func (d *discreteCollision) wallHasValley(axis *collisionAxis, dir common.Cardinal) bool {
	if axis.colliderValid {
		return false
	}

	found := false
	for i := range d.axes {
		other := &d.axes[i]
		ord, ok := common.CombineCardinals(other.dir, dir)
		if !ok || !other.colliderReal {
			continue
		}
		s := other.contact.Collider
		p1, p2 := s.Line.P1, s.Line.P2

		var concave bool
		switch ord {
		case common.NorthWest:
			concave = p1.Y > s.G0.Y && p1.Y > p2.Y
		case common.NorthEast:
			concave = p2.Y > s.G3.Y && p2.Y > p1.Y
		case common.SouthEast:
			concave = p1.Y < s.G0.Y && p1.Y < p2.Y
		case common.SouthWest:
			concave = p2.Y < s.G3.Y && p2.Y < p1.Y
		}
		if concave {
			d.valleys[ord] = true
			found = true
		}
	}
	return found
}

func (d *discreteCollision) realSurface(axis *collisionAxis) bool {
	return axis.quadDir != generatedAxis && d.quad.Surface(common.Cardinal(axis.quadDir)) != nil
}

func (d *discreteCollision) updateContact(ctx collisionContext) {
	d.initBodyData(ctx)

	left, right := d.tArea.Left(), d.tArea.Right()
	top, bottom := d.tArea.Top(), d.tArea.Bottom()
	cTop, cBottom := d.cMid.Y-d.cHalf.Y, d.cMid.Y+d.cHalf.Y
	pMid := d.cPrev.Mid()

	for i := range d.axes {
		axis := &d.axes[i]
		c := &axis.contact
		surf := c.Collider
		c.StickOffset = 0
		c.StickLine = common.Line{}

		switch axis.dir {
		case common.North:
			y := top
			if !surf.Line.IsHorizontal() {
				y = surf.Line.YForX(d.cMid.X)
				c.ColliderN = surf.Line.Normal()

				clamped := cp.Clamp(d.cMid.X, left, right)
				if d.cPrev.Bottom() <= top-d.regionDelta.Y && y <= top && d.realSurface(axis) && clamped != d.cMid.X {
					if d.cMid.X > right && surf.GhostNext().P2.Y >= top {
						c.ColliderN = cp.Vector{Y: -1}
					} else if d.cMid.X < left && surf.GhostPrev().P1.Y >= top {
						c.ColliderN = cp.Vector{Y: -1}
					}
					y = top
				}
			}
			c.Separation = cBottom - y
			c.Position = cp.Vector{X: cp.Clamp(d.cMid.X, left, right), Y: y}

			l := surf.GhostPrev()
			r := surf.GhostNext()
			if l.P1.X < l.P2.X && d.cMid.X < left && pMid.X >= left {
				c.StickOffset = -l.YForX(d.cMid.X) + cBottom - c.Separation
				c.StickLine = l
			} else if r.P1.X < r.P2.X && d.cMid.X > right && pMid.X <= right {
				c.StickOffset = -r.YForX(d.cMid.X) + cBottom - c.Separation
				c.StickLine = r
			}

		case common.South:
			y := bottom
			if !surf.Line.IsHorizontal() {
				y = surf.Line.YForX(d.cMid.X)
				c.ColliderN = surf.Line.Normal()

				clamped := cp.Clamp(d.cMid.X, left, right)
				if d.cPrev.Top() >= bottom-d.regionDelta.Y && y >= bottom && d.realSurface(axis) && clamped != d.cMid.X {
					if d.cMid.X > right && surf.GhostPrev().P1.Y <= top {
						c.ColliderN = cp.Vector{Y: 1}
					} else if d.cMid.X < left && surf.GhostNext().P2.Y <= top {
						c.ColliderN = cp.Vector{Y: 1}
					}
					y = bottom
				}
			}
			c.Separation = y - cTop
			c.Position = cp.Vector{X: cp.Clamp(d.cMid.X, left, right), Y: y}

			l := surf.GhostNext()
			r := surf.GhostPrev()
			if l.P1.X > l.P2.X && d.cMid.X < left && pMid.X >= left {
				c.StickOffset = -l.YForX(d.cMid.X) + cTop - c.Separation
				c.StickLine = l
			} else if r.P1.X > r.P2.X && d.cMid.X > right && pMid.X <= right {
				c.StickOffset = -r.YForX(d.cMid.X) + cTop - c.Separation
				c.StickLine = r
			}

		case common.East:
			c.Separation = right - d.cMid.X + axis.separationOffset
			c.Position = cp.Vector{X: right, Y: common.Clamp(d.cMid.Y, surf.Line.P1.Y, surf.Line.P2.Y)}

		case common.West:
			c.Separation = d.cMid.X - left + axis.separationOffset
			c.Position = cp.Vector{X: left, Y: common.Clamp(d.cMid.Y, surf.Line.P2.Y, surf.Line.P1.Y)}
		}
	}

	d.evalContact()
}

func (d *discreteCollision) evalContact() {
	hasContact := true
	noContact := 0
	d.chosenAxis = -1

	left, right := d.tArea.Left(), d.tArea.Right()
	cTop, cBottom := d.cMid.Y-d.cHalf.Y, d.cMid.Y+d.cHalf.Y

	for i := range d.axes {
		axis := &d.axes[i]
		c := &axis.contact
		p1, p2 := c.Collider.Line.P1, c.Collider.Line.P2

		switch axis.dir {
		case common.North:
			if (d.valleys[common.NorthEast] && d.cMid.X > right-valleyFlatten) ||
				(d.valleys[common.NorthWest] && d.cMid.X < left+valleyFlatten) {
				c.ColliderN = c.OrthoN
				c.Separation = math.Max(c.Separation, cBottom-math.Max(p1.Y, p2.Y))
			}
			c.HasValley = d.valleys[common.NorthEast] || d.valleys[common.NorthWest]
		case common.South:
			if (d.valleys[common.SouthEast] && d.cMid.X > right-valleyFlatten) ||
				(d.valleys[common.SouthWest] && d.cMid.X < left+valleyFlatten) {
				c.ColliderN = c.OrthoN
				c.Separation = math.Max(c.Separation, math.Min(p1.Y, p2.Y)-cTop)
			}
			c.HasValley = d.valleys[common.SouthEast] || d.valleys[common.SouthWest]
		}

		c.HasContact = axis.axisValid && axis.isIntersecting()
		if !c.HasContact {
			noContact++
		}
		hasContact = hasContact && c.HasContact
	}

	var best, second, oneway *collisionAxis
	for i := range d.axes {
		axis := &d.axes[i]
		switch noContact {
		case 0:
			if axis.colliderValid && (best == nil || axis.contact.Separation < best.contact.Separation) {
				best = axis
				d.chosenAxis = i
			}
		case 1:
			if axis.colliderValid && !axis.isIntersecting() {
				second = axis
			}
			if d.quad.IsOneWay(axis.dir) {
				oneway = axis
			}
		}
	}

	switch {
	case best != nil:
		d.contact = best.contact
	case second != nil:
		d.contact = second.contact
	case oneway != nil:
		d.contact = oneway.contact
	default:
		d.contact = newContact()
	}
	if best == nil {
		d.chosenAxis = -1
	}
	d.contact.HasContact = hasContact
	d.contact.ID, d.contact.HasID = d.id, true
}

// setAxisApplied marks every axis resolving along orthoN as used this tick.
func (d *discreteCollision) setAxisApplied(orthoN cp.Vector) {
	for i := range d.axes {
		if d.axes[i].contact.OrthoN.Equal(orthoN) {
			d.axes[i].applied = true
		}
	}
}
