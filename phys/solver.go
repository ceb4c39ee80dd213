package phys

import (
	"log"
	"math"
	"sort"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/common"
)

// solverEntry is one contact on a solver stack. Arbiter contacts point at the
// arbiter's live contact so re-updating the arbiter refreshes the entry.
type solverEntry struct {
	contact    *Contact
	arb        *Arbiter
	ctx        collisionContext
	typ        ContactType
	transposed bool
}

type compResult struct {
	contact       Contact
	hasContact    bool
	typ           ContactType
	fromFirst     bool
	discardFirst  bool
	discardSecond bool
}

type pickerFunc func(a, b *Contact, box common.Rect) compResult

type ghostEdge uint8

const (
	ghostNone ghostEdge = iota
	ghostPartial
	ghostFull
)

// solver turns every contact a body gathered in one tick into a frame of
// applied contacts.
type solver struct {
	body    *Body
	entries []*solverEntry

	north, east, south, west []*solverEntry
	northAlt, southAlt       []*solverEntry

	frame []AppliedContact
}

func newSolver(body *Body) *solver {
	return &solver{body: body}
}

func (s *solver) pushArbiter(ctx collisionContext, a *Arbiter) {
	s.entries = append(s.entries, &solverEntry{contact: a.Contact(), arb: a, ctx: ctx, typ: Single})
}

func (s *solver) pushContact(c Contact) {
	cc := c
	s.entries = append(s.entries, &solverEntry{contact: &cc, typ: Single})
}

func (s *solver) updateEntry(e *solverEntry) {
	if e.arb == nil {
		return
	}
	e.arb.update(e.ctx, 0)
	if e.transposed && e.contact.Transposable() {
		e.contact.Transpose()
	}
}

func (s *solver) updateStack(stack []*solverEntry) {
	for _, e := range stack {
		s.updateEntry(e)
	}
}

func isSqueezing(a, b *Contact) bool {
	return a.Separation+b.Separation >= 0 &&
		(a.HasContact || b.HasContact) &&
		a.OrthoN.Equal(b.OrthoN.Neg())
}

func isCrushing(a, b *Contact) bool {
	sum := a.ColliderN.Add(b.ColliderN)
	return math.Abs(sum.X) < common.Epsilon && math.Abs(sum.Y) < common.Epsilon
}

func isDivergingV(a, b common.Line) bool {
	nMid, sMid := a.Midpoint(), b.Midpoint()
	nFacingAway := sMid.Sub(nMid).Dot(a.Normal()) < 0
	sFacingAway := nMid.Sub(sMid).Dot(b.Normal()) < 0
	return nFacingAway && sFacingAway
}

// halfCrush splits the difference between a crushing pair so the body ends
// up between both sides. deep is the contact with more separation.
func halfCrush(deep, other *Contact) Contact {
	c := *deep
	c.Separation = (c.Separation - other.Separation) / 2
	return c
}

func pickH(east, west *Contact, box common.Rect) compResult {
	eSep, wSep := east.Separation, west.Separation

	if (eSep >= box.Width) != (wSep >= box.Width) {
		return compResult{discardFirst: eSep >= box.Width, discardSecond: wSep >= box.Width}
	}

	if eSep+wSep > 0 {
		r := compResult{typ: CrushHorizontal, hasContact: true, discardFirst: true, discardSecond: true}
		if eSep > wSep {
			r.contact = halfCrush(east, west)
			r.fromFirst = true
		} else {
			r.contact = halfCrush(west, east)
		}
		return r
	}

	if east.HasContact != west.HasContact {
		return compResult{discardFirst: !east.HasContact, discardSecond: !west.HasContact}
	}
	return compResult{}
}

func pickV(north, south *Contact, box common.Rect) compResult {
	nSep, sSep := north.Separation, south.Separation

	if nSep+sSep > box.Height || isDivergingV(north.Collider.Line, south.Collider.Line) {
		first := sSep < nSep
		return compResult{discardFirst: first, discardSecond: !first}
	}

	if isSqueezing(north, south) && isCrushing(north, south) {
		r := compResult{typ: CrushVertical, hasContact: true, discardFirst: true, discardSecond: true}
		if nSep > sSep {
			r.contact = halfCrush(north, south)
			r.fromFirst = true
		} else {
			r.contact = halfCrush(south, north)
		}
		return r
	}

	if north.HasContact != south.HasContact {
		return compResult{discardFirst: !north.HasContact, discardSecond: !south.HasContact}
	}
	return compResult{}
}

// isGhostEdge reports whether candidate sits behind basis and so can't be the
// surface the body actually hit.
func isGhostEdge(basis, candidate *Contact) ghostEdge {
	if !basis.IsResolvable() {
		return ghostNone
	}

	isOneWay := !basis.HasContact && basis.Separation > 0 && basis.ImpactTime == -1

	basisLine := basis.Collider.Line
	candLine := candidate.Collider.Line
	basisNormal := basisLine.Normal()

	dot1 := basisNormal.Dot(candLine.P1.Sub(basisLine.P2))
	dot2 := basisNormal.Dot(candLine.P2.Sub(basisLine.P1))

	sharesP1 := basisLine.P1.Equal(candLine.P2)
	sharesP2 := basisLine.P2.Equal(candLine.P1)

	var behind bool
	switch {
	case sharesP1:
		behind = dot1 < 0 && dot2 <= 0
	case sharesP2:
		behind = dot1 <= 0 && dot2 < 0
	default:
		behind = (dot1 <= 0 && dot2 < 0) || (dot1 < 0 && dot2 <= 0)
	}

	// walls make better ghosts than slopes
	preferWall := !basisLine.IsVertical() && candLine.IsVertical() && dot1 <= 0 && dot2 <= 0
	opposite := basisLine.Equal(candLine.Reverse())

	if isOneWay || !(behind || preferWall || opposite) {
		return ghostNone
	}
	if behind {
		return ghostFull
	}
	return ghostPartial
}

func compare(lhs, rhs *Contact) compResult {
	var r compResult
	if lhs == rhs {
		return r
	}
	r.discardFirst = !lhs.QuadValid
	r.discardSecond = !rhs.QuadValid
	if r.discardFirst || r.discardSecond {
		return r
	}

	g1 := isGhostEdge(rhs, lhs)
	g2 := isGhostEdge(lhs, rhs)
	g1Ghost, g2Ghost := g1 != ghostNone, g2 != ghostNone

	if g1Ghost && g2Ghost {
		if g1 == g2 {
			switch order := CompareContacts(lhs, rhs); {
			case order == 0:
				g1Ghost, g2Ghost = false, false
			default:
				g1Ghost = order > 0
				g2Ghost = !g1Ghost
			}
		} else {
			g1Ghost = g2 < g1
			g2Ghost = !g1Ghost
		}
	}
	r.discardFirst = g1Ghost
	r.discardSecond = g2Ghost
	return r
}

func (s *solver) compareAll() {
	for i := 0; i < len(s.entries)-1; i++ {
		for j := i + 1; j < len(s.entries); {
			r := compare(s.entries[i].contact, s.entries[j].contact)
			if r.discardFirst {
				s.entries = append(s.entries[:i], s.entries[i+1:]...)
				i--
				break
			} else if r.discardSecond {
				s.entries = append(s.entries[:j], s.entries[j+1:]...)
			} else {
				j++
			}
		}
	}
}

func (s *solver) pushToStack(e *solverEntry) {
	dir, ok := common.CardinalFromVector(e.contact.OrthoN)
	if !ok {
		return
	}
	switch dir {
	case common.East:
		s.east = append(s.east, e)
	case common.West:
		s.west = append(s.west, e)
	case common.North:
		if e.contact.Transposable() {
			s.northAlt = append(s.northAlt, e)
		} else {
			s.north = append(s.north, e)
		}
	case common.South:
		if e.contact.Transposable() {
			s.southAlt = append(s.southAlt, e)
		} else {
			s.south = append(s.south, e)
		}
	}
}

func (s *solver) detectWedge(north, south *Contact) (Contact, bool) {
	if !isSqueezing(north, south) || isCrushing(north, south) || isDivergingV(north.Collider.Line, south.Collider.Line) {
		return Contact{}, false
	}

	box := s.body.Box()
	pos := s.body.Position()
	floor := north.Collider.Line
	ceil := south.Collider.Line.Shift(cp.Vector{Y: box.Height})

	inter := common.Intersection(floor, ceil)
	if common.IsNaNVec(inter) {
		log.Printf("Solver: wedge surfaces %v and %v don't intersect", floor, ceil)
		return Contact{}, false
	}
	if inter.X == pos.X {
		return Contact{}, false
	}

	side := 1.0
	if north.ColliderN.X+south.ColliderN.X < 0 {
		side = -1
	}
	movedInter := common.Intersection(floor.Shift(north.Velocity.Neg()), ceil.Shift(south.Velocity.Neg()))

	c := newContact()
	c.Separation = math.Abs(inter.X - pos.X)
	c.HasContact = true
	c.QuadValid = true
	c.Position = cp.Vector{X: pos.X, Y: box.Mid().Y}
	c.OrthoN = cp.Vector{X: side}
	c.ColliderN = c.OrthoN
	c.Collider = north.Collider
	c.ID, c.HasID = north.ID, north.HasID
	if !common.IsNaNVec(movedInter) {
		c.Velocity = inter.Sub(movedInter)
	}
	return c, true
}

type wedge struct {
	contact Contact
	score   float64
}

// detectWedges adds a wall contact for every floor and ceiling pair that
// pinches the body sideways. Wedges whose floor faces most directly against
// the body's motion go first.
func (s *solver) detectWedges() {
	var found []wedge
	vel := common.Unit(s.body.GlobalVelocity())
	for _, n := range s.north {
		for _, so := range s.south {
			c, ok := s.detectWedge(n.contact, so.contact)
			if !ok {
				continue
			}
			found = append(found, wedge{contact: c, score: vel.Dot(n.contact.ColliderN)})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].score < found[j].score })
	for _, w := range found {
		c := w.contact
		s.pushToStack(&solverEntry{contact: &c, typ: Wedge})
	}
}

func (s *solver) canApplyAlt() bool {
	all := func(stack []*solverEntry, pred func(*Contact) bool) bool {
		for _, e := range stack {
			if !pred(e.contact) {
				return false
			}
		}
		return true
	}
	isEast := func(c *Contact) bool { return c.ColliderN.X > 0 }
	isWest := func(c *Contact) bool { return c.ColliderN.X < 0 }
	isFlat := func(c *Contact) bool { return common.IsVertical(c.ColliderN) }

	allWest := len(s.east) == 0 && all(s.northAlt, isWest) && all(s.southAlt, isWest)
	allEast := len(s.west) == 0 && all(s.northAlt, isEast) && all(s.southAlt, isEast)

	return all(s.north, isFlat) && all(s.south, isFlat) && (allWest || allEast)
}

func sortStack(stack []*solverEntry) {
	sort.SliceStable(stack, func(i, j int) bool {
		return CompareContacts(stack[i].contact, stack[j].contact) < 0
	})
}

// solve runs once per body per tick. Horizontal contacts are solved before
// vertical ones.
func (s *solver) solve() []AppliedContact {
	s.frame = nil
	if len(s.entries) == 0 {
		return s.frame
	}

	s.compareAll()
	for _, e := range s.entries {
		s.pushToStack(e)
	}
	s.detectWedges()

	if s.canApplyAlt() {
		for _, e := range append(s.northAlt, s.southAlt...) {
			e.contact.Transpose()
			e.transposed = true
			s.pushToStack(e)
		}
	} else {
		s.north = append(s.north, s.northAlt...)
		s.south = append(s.south, s.southAlt...)
	}
	s.northAlt, s.southAlt = nil, nil

	sortStack(s.east)
	sortStack(s.west)
	if s.solveAxis(&s.east, &s.west, pickH) {
		s.updateStack(s.north)
		s.updateStack(s.south)
	}

	sortStack(s.north)
	sortStack(s.south)
	s.solveAxis(&s.north, &s.south, pickV)

	return s.frame
}

func (s *solver) solveAxis(stackA, stackB *[]*solverEntry, picker pickerFunc) bool {
	anyApplied := false

	for len(*stackA) > 0 && len(*stackB) > 0 {
		a, b := (*stackA)[0], (*stackB)[0]
		r := picker(a.contact, b.contact, s.body.Box())

		if r.hasContact {
			src := b
			if r.fromFirst {
				src = a
			}
			if s.apply(&r.contact, src, r.typ) {
				anyApplied = true
				if r.typ.IsCrush() {
					return true
				}
			}
			if !r.discardFirst {
				s.updateEntry(a)
			}
			if !r.discardSecond {
				s.updateEntry(b)
			}
			r.discardFirst = !a.contact.HasContact
			r.discardSecond = !b.contact.HasContact
		}

		if !r.discardFirst && !r.discardSecond {
			if a.contact.Separation < b.contact.Separation {
				anyApplied = s.applyThenUpdateStacks(stackA, stackB) || anyApplied
			} else {
				anyApplied = s.applyThenUpdateStacks(stackB, stackA) || anyApplied
			}
			continue
		}

		if s.canApplyElseDiscard(r.discardFirst, stackA) {
			anyApplied = s.applyThenUpdateStacks(stackA, stackB) || anyApplied
		}
		if s.canApplyElseDiscard(r.discardSecond, stackB) {
			anyApplied = s.applyThenUpdateStacks(stackB, stackA) || anyApplied
		}
	}

	anyApplied = s.applyStack(stackA) || anyApplied
	anyApplied = s.applyStack(stackB) || anyApplied
	return anyApplied
}

// applyThenUpdateStacks applies the front of stack and refreshes both stacks.
func (s *solver) applyThenUpdateStacks(stack, other *[]*solverEntry) bool {
	applied := s.applyFirst(stack)
	if applied {
		s.updateStack(*stack)
		s.updateStack(*other)
	}
	return applied
}

func (s *solver) canApplyElseDiscard(discard bool, stack *[]*solverEntry) bool {
	if discard && len(*stack) > 0 {
		*stack = (*stack)[1:]
	}
	return !discard && len(*stack) > 0
}

func (s *solver) applyStack(stack *[]*solverEntry) bool {
	anyApplied := false
	for len(*stack) > 0 {
		if s.applyFirst(stack) {
			anyApplied = true
			s.updateStack(*stack)
		}
	}
	return anyApplied
}

// applyFirst applies the front of the stack. Among contacts tied on
// separation the one nearest the middle of the box wins.
func (s *solver) applyFirst(stack *[]*solverEntry) bool {
	st := *stack
	if len(st) == 0 {
		return false
	}

	pick := 0
	mid := s.body.Box().Mid()
	sep := st[0].contact.Separation
	for i := 1; i < len(st); i++ {
		if st[i].contact.Separation != sep {
			break
		}
		c1, c2 := st[pick].contact, st[i].contact
		if common.IsHorizontal(st[pick].contact.OrthoN) {
			if math.Abs(c2.Position.Y-mid.Y) < math.Abs(c1.Position.Y-mid.Y) {
				pick = i
			}
		} else if math.Abs(c2.Position.X-mid.X) < math.Abs(c1.Position.X-mid.X) {
			pick = i
		}
	}

	e := st[pick]
	*stack = append(st[:pick], st[pick+1:]...)
	return s.apply(e.contact, e, e.typ)
}

func (s *solver) apply(c *Contact, e *solverEntry, t ContactType) bool {
	if !c.HasContact {
		return false
	}

	prevVel := s.body.GlobalVelocity()
	s.body.applyContact(c, t)

	applied := AppliedContact{Contact: *c, Type: t, PreContactVelocity: prevVel}
	if e != nil && e.arb != nil {
		e.arb.setApplied()
		s.updateEntry(e)
	}
	s.frame = append(s.frame, applied)
	return true
}
