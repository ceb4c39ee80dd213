package phys

import (
	"log"
	"math"

	"github.com/milk9111/tilecollide/common"
	"github.com/milk9111/tilecollide/ecs"
)

// DefaultMaxBoundIterations caps how often gather may grow a body's bound in
// one tick.
const DefaultMaxBoundIterations = 8

// BoundDiagnostic records a gather that stopped before its bound settled.
type BoundDiagnostic struct {
	Iterations int
	Initial    common.Rect
	Final      common.Rect
	// Clamped is set when the bound hit the per-tick push limit.
	Clamped bool
}

// CollidableArbiter owns every region arbiter of one body.
type CollidableArbiter struct {
	body    *Body
	world   *World
	regions []*RegionArbiter

	diagnostic    BoundDiagnostic
	hasDiagnostic bool
}

func newCollidableArbiter(w *World, b *Body) *CollidableArbiter {
	return &CollidableArbiter{body: b, world: w}
}

func (c *CollidableArbiter) RegionArbiters() []*RegionArbiter { return c.regions }

// Diagnostic returns the last tick's non-convergence report, if any.
func (c *CollidableArbiter) Diagnostic() (BoundDiagnostic, bool) {
	return c.diagnostic, c.hasDiagnostic
}

func (c *CollidableArbiter) context(ra *RegionArbiter) (collisionContext, bool) {
	region, ok := c.world.Region(ra.region)
	if !ok {
		return collisionContext{}, false
	}
	return collisionContext{region: region, body: c.body, materials: c.world.materials}, true
}

func (c *CollidableArbiter) eraseRegion(h ecs.Handle) {
	kept := c.regions[:0]
	for _, ra := range c.regions {
		if ra.region != h {
			kept = append(kept, ra)
			continue
		}
		ra.release(c.body)
	}
	c.regions = kept
}

// updateRegionArbiters adds an arbiter for every region whose swept bounds
// cross bound and drops the ones that no longer do.
func (c *CollidableArbiter) updateRegionArbiters(bound common.Rect) {
	near := c.world.regionsIn(bound)

	kept := c.regions[:0]
	for _, ra := range c.regions {
		if _, ok := near[ra.region]; ok {
			kept = append(kept, ra)
			continue
		}
		ra.release(c.body)
	}
	c.regions = kept

	for _, h := range c.world.regions.Handles() {
		if _, ok := near[h]; !ok {
			continue
		}
		var ra *RegionArbiter
		i := 0
		for ; i < len(c.regions); i++ {
			if c.regions[i].region == h {
				ra = c.regions[i]
				break
			}
			if c.regions[i].region > h {
				break
			}
		}
		if ra == nil {
			ra = newRegionArbiter(h)
			c.regions = append(c.regions, nil)
			copy(c.regions[i+1:], c.regions[i:])
			c.regions[i] = ra
		}
		if ctx, ok := c.context(ra); ok {
			ra.Update(ctx, bound)
		}
	}
}

// pushBound grows bound on the side a contact pushes toward, so the quads
// the body would be pushed into get arbiters too.
func pushBound(bound common.Rect, boundDist [4]float64, contact *Contact) common.Rect {
	dir, ok := common.CardinalFromVector(contact.OrthoN)
	if !contact.HasContact || !ok {
		return bound
	}

	if diff := contact.Separation - boundDist[dir]; diff > 0 {
		bound = bound.Extend(dir, diff)
	}

	if common.IsVertical(contact.OrthoN) && contact.Transposable() {
		alt := *contact
		alt.Transpose()
		if altDir, ok := common.CardinalFromVector(alt.OrthoN); ok {
			if diff := alt.Separation - boundDist[altDir]; diff > 0 {
				bound = bound.Extend(altDir, diff)
			}
		}
	}
	return bound
}

// clampBound keeps bound within maxPush of the body's swept box on every side.
func clampBound(bound, swept common.Rect, maxPush [4]float64) (common.Rect, bool) {
	left := math.Max(bound.Left(), swept.Left()-maxPush[common.West])
	top := math.Max(bound.Top(), swept.Top()-maxPush[common.North])
	right := math.Min(bound.Right(), swept.Right()+maxPush[common.East])
	bottom := math.Min(bound.Bottom(), swept.Bottom()+maxPush[common.South])

	out := common.Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
	return out, out != bound
}

// Gather updates every arbiter near the body, growing the searched area
// until no contact pushes past it.
func (c *CollidableArbiter) Gather(dt float64) {
	c.hasDiagnostic = false

	box := c.body.Box()
	swept := c.body.BoundingBox()
	size := box.Size()
	maxPush := [4]float64{size.Y, size.X, size.Y, size.X}

	maxIter := c.world.MaxBoundIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxBoundIterations
	}

	updated := make(map[*Arbiter]bool)
	bound := swept
	push := swept
	iterations := 0
	clamped := false

	for {
		bound = push
		iterations++

		boundDist := [4]float64{
			box.Top() - bound.Top(),
			bound.Right() - box.Right(),
			bound.Bottom() - box.Bottom(),
			box.Left() - bound.Left(),
		}

		c.updateRegionArbiters(bound)

		for _, ra := range c.regions {
			ctx, ok := c.context(ra)
			if !ok {
				continue
			}
			for _, a := range ra.arbiters {
				if !updated[a] {
					a.update(ctx, dt)
					updated[a] = true
				}
				push = pushBound(push, boundDist, a.Contact())
			}
		}

		var hit bool
		push, hit = clampBound(push, swept, maxPush)
		clamped = clamped || hit

		if push == bound {
			break
		}
		if iterations >= maxIter {
			c.diagnostic = BoundDiagnostic{Iterations: iterations, Initial: swept, Final: bound, Clamped: clamped}
			c.hasDiagnostic = true
			log.Printf("CollidableArbiter: bound for body %s did not settle after %d passes", c.body.handle, iterations)
			break
		}
	}
}

// Solve resolves everything Gather found and hands the result to the body.
func (c *CollidableArbiter) Solve() {
	s := newSolver(c.body)

	for _, ra := range c.regions {
		ctx, ok := c.context(ra)
		if !ok {
			continue
		}
		filter := c.world.preContact(ra.region)
		for _, a := range ra.arbiters {
			contact := a.Contact()
			if filter != nil && !filter(PreContact{
				Body:          c.body.handle,
				Region:        ra.region,
				Contact:       *contact,
				TouchDuration: a.touchTime,
			}) {
				continue
			}
			s.pushArbiter(ctx, a)
		}
	}

	frame := s.solve()
	c.body.SetFrame(frame)

	for _, applied := range frame {
		c.body.pushEvent(ContactEvent{Kind: EventPostContact, Region: applied.ID.Region, Contact: applied})
	}
}
