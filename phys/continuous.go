package phys

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/common"
)

// continuousCollision compares the previous and current frame of a discrete
// collision to find when, and on which axis, the body entered the quad.
type continuousCollision struct {
	prev *discreteCollision
	curr *discreteCollision

	lastQuad  collider.Quad
	contact   Contact
	lastAxis  int
	velocity  cp.Vector
	evaluated bool
}

func newContinuousCollision(ctx collisionContext, quad collider.Quad, id ContactID) *continuousCollision {
	c := &continuousCollision{
		prev:     newDiscreteCollision(ctx, quad, id, prevFrame),
		curr:     newDiscreteCollision(ctx, quad, id, currFrame),
		lastQuad: quad,
		lastAxis: -1,
	}
	c.eval(ctx, 0)
	return c
}

func (c *continuousCollision) update(ctx collisionContext, quad collider.Quad, dt float64) {
	if dt > 0 {
		if !ctx.region.Moved() && quad == c.lastQuad {
			// nothing about the quad changed, so last frame's current
			// collision is this frame's previous one
			c.prev, c.curr = c.curr, c.prev
			c.prev.time = prevFrame
			c.prev.updateContact(ctx)
		} else {
			c.prev.reset(ctx, quad, prevFrame)
		}
		c.curr.reset(ctx, quad, currFrame)
	} else {
		c.curr.updateContact(ctx)
	}
	c.eval(ctx, dt)
	c.lastQuad = quad
}

func (c *continuousCollision) eval(ctx collisionContext, dt float64) {
	root := func(y0, y1 float64) float64 {
		return -y0 / (y1 - y0)
	}

	c.contact = newContact()

	firstExit := 1.0
	lastEntry := 0.0
	touchAxis := -1
	noCollision := false

	n := len(c.curr.axes)
	if len(c.prev.axes) < n {
		n = len(c.prev.axes)
	}

	for i := 0; i < n; i++ {
		pAxis := &c.prev.axes[i]
		cAxis := &c.curr.axes[i]

		pIn := pAxis.isIntersecting() && !pAxis.applied
		cIn := cAxis.isIntersecting()

		switch {
		case !pIn && !cIn:
			noCollision = true
		case pIn && !cIn:
			firstExit = math.Min(firstExit, root(pAxis.contact.Separation, cAxis.contact.Separation))
		case !pIn && cIn:
			r := root(pAxis.contact.Separation, cAxis.contact.Separation)
			lastEntry = math.Max(lastEntry, r)

			if cAxis.colliderValid && r >= 0 && r < 1 && r >= lastEntry {
				if touchAxis < 0 {
					touchAxis = i
				} else if r == lastEntry && c.curr.axes[touchAxis].contact.Separation > cAxis.contact.Separation {
					touchAxis = i
				}
			}
		}
	}

	departing := firstExit < 1
	intersect := firstExit >= lastEntry

	switch {
	case noCollision:
		c.contact = c.curr.contact
		c.lastAxis = -1

	case touchAxis >= 0 && intersect:
		axis := &c.curr.axes[touchAxis]
		c.contact = axis.contact
		c.contact.HasContact = axis.isIntersecting()

		if c.contact.HasContact {
			// the body is leaving through the far side of a thin quad
			opposite := axis.dir.Opposite()
			oppositeIn := false
			for i := range c.curr.axes {
				if i != touchAxis && c.curr.axes[i].dir == opposite && c.curr.axes[i].contact.Separation > 0 {
					oppositeIn = true
					break
				}
			}
			if departing && oppositeIn {
				c.contact.HasContact = c.contact.HasContact && c.curr.contact.HasContact
			}
		}

		c.contact.HasImpactTime = lastEntry > 0
		c.contact.ImpactTime = lastEntry
		c.lastAxis = touchAxis

	case intersect:
		if c.lastAxis >= 0 && c.lastAxis < len(c.curr.axes) && c.curr.axes[c.lastAxis].applied {
			axis := &c.curr.axes[c.lastAxis]
			c.contact = axis.contact
			c.contact.HasContact = axis.isIntersecting()
		} else {
			c.contact = c.curr.contact
			c.lastAxis = c.curr.chosenAxis
		}
	}

	if dt > 0 {
		c.velocity = ctx.region.Velocity()
	}
	c.contact.Velocity = c.velocity
	c.evaluated = true

	if ctx.body.Slip().State == SlipVertical {
		if slip, ok := c.verticalSlipContact(ctx.body.Slip().Leeway); ok {
			c.contact = slip
		}
	}
}

// verticalSlipContact swaps a fresh wall contact for a nearby floor or
// ceiling when the body is close enough to slip over the edge.
func (c *continuousCollision) verticalSlipContact(leeway float64) (Contact, bool) {
	if !c.evaluated || leeway <= 0 {
		return Contact{}, false
	}
	if !c.contact.HasContact || !c.contact.HasImpactTime || c.contact.OrthoN.Y != 0 {
		return Contact{}, false
	}

	var north, south *collisionAxis
	for i := range c.curr.axes {
		axis := &c.curr.axes[i]
		if north == nil && axis.dir == common.North {
			north = axis
		}
		if south == nil && axis.dir == common.South {
			south = axis
		}
	}

	within := func(a *collisionAxis) bool {
		return a != nil && a.colliderValid && a.contact.Separation >= 0 && a.contact.Separation <= leeway
	}
	canNorth, canSouth := within(north), within(south)
	if canNorth && canSouth {
		canNorth = south.contact.Separation > north.contact.Separation
		canSouth = !canNorth
	}

	var pick *collisionAxis
	switch {
	case canNorth:
		pick = north
	case canSouth:
		pick = south
	default:
		return Contact{}, false
	}

	slip := pick.contact
	slip.IsSlip = true
	slip.HasImpactTime = c.contact.HasImpactTime
	slip.ImpactTime = c.contact.ImpactTime
	slip.Velocity = c.contact.Velocity
	return slip, true
}

func (c *continuousCollision) setApplied() {
	c.curr.setAxisApplied(c.contact.OrthoN)
}
