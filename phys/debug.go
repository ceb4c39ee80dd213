package phys

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/common"
	"github.com/milk9111/tilecollide/ecs"
)

type DebugCategory uint8

const (
	DebugContacts DebugCategory = 1 << iota
	DebugSurfaces
	DebugQuadBounds
	DebugBodies

	DebugAll = DebugContacts | DebugSurfaces | DebugQuadBounds | DebugBodies
)

// DebugDrawer receives world geometry after every Step. Implementations must
// not change the world.
type DebugDrawer interface {
	DrawContact(c AppliedContact)
	DrawSurface(s collider.Surface, color cp.FColor)
	DrawQuadBounds(bounds common.Rect, touching bool)
	DrawBody(h ecs.Handle, box common.Rect, flags CollisionFlags)
}

var (
	surfaceColor = cp.FColor{R: 0.2, G: 0.8, B: 0.2, A: 1}
	oneWayColor  = cp.FColor{R: 0.9, G: 0.7, B: 0.1, A: 1}
)

func (w *World) SetDebugDrawer(d DebugDrawer, mask DebugCategory) {
	w.drawer = d
	w.debugMask = mask
}

func drawDebug(w *World) {
	d := w.drawer
	if d == nil || w.debugMask == 0 {
		return
	}
	mask := w.debugMask

	w.bodies.Each(func(h ecs.Handle, e *bodyEntry) {
		b := e.body
		if mask&DebugBodies != 0 {
			d.DrawBody(h, b.Box(), b.Flags())
		}
		if mask&DebugContacts != 0 {
			for _, c := range b.Contacts() {
				d.DrawContact(c)
			}
		}
		if mask&(DebugQuadBounds|DebugSurfaces) == 0 {
			return
		}
		for _, ra := range e.arbiter.regions {
			region, ok := w.Region(ra.region)
			if !ok {
				continue
			}
			for _, a := range ra.arbiters {
				if mask&DebugQuadBounds != 0 {
					d.DrawQuadBounds(a.bounds, a.Contact().HasContact)
				}
				if mask&DebugSurfaces == 0 {
					continue
				}
				q := region.Quad(a.id.Quad)
				if q == nil {
					continue
				}
				for _, dir := range common.Cardinals {
					s := q.Surface(dir)
					if s == nil {
						continue
					}
					color := surfaceColor
					if q.IsOneWay(dir) {
						color = oneWayColor
					}
					d.DrawSurface(s.Shift(region.Position()), color)
				}
			}
		}
	})
}
