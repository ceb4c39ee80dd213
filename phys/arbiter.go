package phys

import (
	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/common"
)

// Arbiter tracks the collision between one body and one quad across ticks.
type Arbiter struct {
	id        ContactID
	collision *continuousCollision
	bounds    common.Rect
	stale     bool

	aliveTime     float64
	touchTime     float64
	recalcCounter int
}

func newArbiter(ctx collisionContext, quad collider.Quad, id ContactID) *Arbiter {
	a := &Arbiter{
		id:        id,
		collision: newContinuousCollision(ctx, quad, id),
	}
	a.collision.contact.QuadValid = true
	return a
}

func (a *Arbiter) ID() ContactID { return a.id }

// Contact is the arbiter's live contact. It changes on every update.
func (a *Arbiter) Contact() *Contact { return &a.collision.contact }

func (a *Arbiter) AliveTime() float64 { return a.aliveTime }
func (a *Arbiter) TouchTime() float64 { return a.touchTime }

// Recalcs counts the zero-dt updates made since the last tick.
func (a *Arbiter) Recalcs() int { return a.recalcCounter }

// update re-runs the narrow phase. A dt of zero recomputes the contact in
// place after the solver has moved the body.
func (a *Arbiter) update(ctx collisionContext, dt float64) {
	if dt > 0 {
		a.recalcCounter = 0
	} else {
		a.recalcCounter++
	}

	quad := ctx.region.Quad(a.id.Quad)
	if quad == nil {
		// the quad was removed by an edit; the solver drops invalid contacts
		a.collision.contact.HasContact = false
		a.collision.contact.QuadValid = false
		return
	}
	a.collision.update(ctx, *quad, dt)

	c := &a.collision.contact
	c.QuadValid = true
	if dt > 0 {
		a.aliveTime += dt
		if c.HasContact {
			a.touchTime += dt
		} else {
			a.touchTime = 0
		}
	}
	c.TouchDuration = a.touchTime
}

func (a *Arbiter) setApplied() {
	a.collision.setApplied()
}
