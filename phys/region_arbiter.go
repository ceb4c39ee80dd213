package phys

import (
	"sort"

	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/common"
	"github.com/milk9111/tilecollide/ecs"
)

// RegionArbiter holds the arbiters between one body and the quads of one
// region that are near it, sorted by quad id.
type RegionArbiter struct {
	region   ecs.Handle
	arbiters []*Arbiter
}

func newRegionArbiter(region ecs.Handle) *RegionArbiter {
	return &RegionArbiter{region: region}
}

func (r *RegionArbiter) Region() ecs.Handle { return r.region }

func (r *RegionArbiter) Arbiters() []*Arbiter { return r.arbiters }

func (r *RegionArbiter) find(id collider.QuadID) (int, bool) {
	i := sort.Search(len(r.arbiters), func(i int) bool { return r.arbiters[i].id.Quad >= id })
	return i, i < len(r.arbiters) && r.arbiters[i].id.Quad == id
}

// Arbiter returns the arbiter for quad id, if there is one.
func (r *RegionArbiter) Arbiter(id collider.QuadID) (*Arbiter, bool) {
	i, ok := r.find(id)
	if !ok {
		return nil, false
	}
	return r.arbiters[i], true
}

// Update brings the arbiter set in line with the quads touching bounds.
// Arbiters are only created here; their narrow phase runs during gather.
func (r *RegionArbiter) Update(ctx collisionContext, bounds common.Rect) {
	for _, a := range r.arbiters {
		if !a.bounds.Touches(bounds) {
			a.stale = true
		}
	}

	for _, ref := range ctx.region.QuadsInRect(bounds) {
		q := ctx.region.Quad(ref.ID)
		if !q.HasAnySurface() {
			continue
		}
		i, ok := r.find(ref.ID)
		if ok {
			r.arbiters[i].stale = false
			r.arbiters[i].bounds = ref.Bounds
			continue
		}
		a := newArbiter(ctx, *q, ContactID{Region: r.region, Quad: ref.ID})
		a.bounds = ref.Bounds
		r.arbiters = append(r.arbiters, nil)
		copy(r.arbiters[i+1:], r.arbiters[i:])
		r.arbiters[i] = a
	}

	kept := r.arbiters[:0]
	for _, a := range r.arbiters {
		if !a.stale {
			kept = append(kept, a)
			continue
		}
		r.endTouch(ctx.body, a)
	}
	for i := len(kept); i < len(r.arbiters); i++ {
		r.arbiters[i] = nil
	}
	r.arbiters = kept
}

// release ends every touch the region still has with body and forgets its
// arbiters.
func (r *RegionArbiter) release(body *Body) {
	for _, a := range r.arbiters {
		r.endTouch(body, a)
	}
	r.arbiters = nil
}

func (r *RegionArbiter) endTouch(body *Body, a *Arbiter) {
	if c := a.Contact(); c.HasContact {
		body.pushEvent(ContactEvent{
			Kind:    EventEndTouch,
			Region:  r.region,
			Contact: AppliedContact{Contact: *c, Type: Single},
		})
	}
}
