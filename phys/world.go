package phys

import (
	"fmt"
	"log"
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/common"
	"github.com/milk9111/tilecollide/ecs"
)

// SurfaceMaterial gives every surface tagged with Name a conveyor speed.
type SurfaceMaterial struct {
	Name     string
	Velocity float64
}

type MaterialTable map[string]SurfaceMaterial

type regionEntry struct {
	handle     ecs.Handle
	region     collider.Region
	preContact PreContactFunc
	bounds     rtreego.Rect
}

func (e *regionEntry) Bounds() rtreego.Rect { return e.bounds }

type bodyEntry struct {
	body    *Body
	arbiter *CollidableArbiter
}

// World steps regions and bodies and resolves collisions between them.
type World struct {
	MaxBoundIterations int

	regions *ecs.Arena[*regionEntry]
	bodies  *ecs.Arena[*bodyEntry]
	tree    *rtreego.Rtree

	events    ecs.EventQueue[ContactEvent]
	scheduler *ecs.Scheduler[*World]
	materials MaterialTable

	drawer    DebugDrawer
	debugMask DebugCategory

	dt   float64
	tick uint64
}

func NewWorld() *World {
	w := &World{
		MaxBoundIterations: DefaultMaxBoundIterations,
		regions:            ecs.NewArena[*regionEntry](),
		bodies:             ecs.NewArena[*bodyEntry](),
		materials:          MaterialTable{},
	}
	w.scheduler = ecs.NewScheduler[*World](
		ecs.SystemFunc[*World](updateRegions),
		ecs.SystemFunc[*World](integrateBodies),
		ecs.SystemFunc[*World](resolveCollisions),
		ecs.SystemFunc[*World](drawDebug),
	)
	w.rebuildTree()
	return w
}

// AddSystem runs system after the built-in ones on every Step.
func (w *World) AddSystem(system ecs.System[*World]) {
	w.scheduler.Add(system)
}

// DeltaTime is the dt of the step in progress.
func (w *World) DeltaTime() float64 { return w.dt }

func (w *World) Tick() uint64 { return w.tick }

func (w *World) SetMaterials(m MaterialTable) {
	if m == nil {
		m = MaterialTable{}
	}
	w.materials = m
}

func (w *World) Materials() MaterialTable { return w.materials }

func (w *World) AddRegion(r collider.Region) ecs.Handle {
	e := &regionEntry{region: r}
	e.handle = w.regions.Insert(e)
	w.rebuildTree()
	return e.handle
}

// RemoveRegion drops the region and every arbiter that refers to it.
func (w *World) RemoveRegion(h ecs.Handle) bool {
	if !w.regions.Remove(h) {
		return false
	}
	w.bodies.Each(func(_ ecs.Handle, b *bodyEntry) {
		b.arbiter.eraseRegion(h)
	})
	w.rebuildTree()
	return true
}

func (w *World) Region(h ecs.Handle) (collider.Region, bool) {
	e, ok := w.regions.Get(h)
	if !ok {
		return nil, false
	}
	return e.region, true
}

func (w *World) Regions() []ecs.Handle { return w.regions.Handles() }

// SetPreContact installs a filter that can veto contacts with region h.
func (w *World) SetPreContact(h ecs.Handle, fn PreContactFunc) error {
	e, err := w.regions.Lookup(h)
	if err != nil {
		return fmt.Errorf("phys: set pre-contact: %w", err)
	}
	e.preContact = fn
	return nil
}

func (w *World) preContact(h ecs.Handle) PreContactFunc {
	e, ok := w.regions.Get(h)
	if !ok {
		return nil
	}
	return e.preContact
}

func (w *World) AddBody(b *Body) ecs.Handle {
	e := &bodyEntry{body: b}
	h := w.bodies.Insert(e)
	b.handle = h
	b.world = w
	e.arbiter = newCollidableArbiter(w, b)
	return h
}

func (w *World) RemoveBody(h ecs.Handle) bool {
	e, ok := w.bodies.Get(h)
	if !ok {
		return false
	}
	for _, t := range e.body.trackers {
		t.ForceEndContact()
	}
	w.bodies.Remove(h)
	e.body.world = nil
	return true
}

func (w *World) Body(h ecs.Handle) (*Body, bool) {
	e, ok := w.bodies.Get(h)
	if !ok {
		return nil, false
	}
	return e.body, true
}

func (w *World) Bodies() []ecs.Handle { return w.bodies.Handles() }

// Arbiter returns the collision state kept for body h.
func (w *World) Arbiter(h ecs.Handle) (*CollidableArbiter, bool) {
	e, ok := w.bodies.Get(h)
	if !ok {
		return nil, false
	}
	return e.arbiter, true
}

// Events drains the events queued by the last Step.
func (w *World) Events() []ContactEvent {
	return w.events.Drain()
}

// Step advances the world by dt seconds: regions move and apply their edits,
// bodies integrate, then every body gathers and solves its contacts.
func (w *World) Step(dt float64) {
	w.dt = dt
	w.scheduler.Update(w)
	w.tick++
}

func updateRegions(w *World) {
	w.regions.Each(func(_ ecs.Handle, e *regionEntry) {
		e.region.Update(w.dt)
	})
	w.rebuildTree()
}

func integrateBodies(w *World) {
	w.bodies.Each(func(_ ecs.Handle, e *bodyEntry) {
		e.body.Update(w.dt)
	})
}

func resolveCollisions(w *World) {
	w.bodies.Each(func(_ ecs.Handle, e *bodyEntry) {
		e.arbiter.Gather(w.dt)
		e.arbiter.Solve()
	})
}

// treeRect converts r for the R-tree, which rejects empty extents.
func treeRect(r common.Rect) rtreego.Rect {
	width := math.Max(r.Width, common.Epsilon)
	height := math.Max(r.Height, common.Epsilon)
	rect, err := rtreego.NewRect(rtreego.Point{r.X, r.Y}, []float64{width, height})
	if err != nil {
		log.Printf("World: bad bounds %v: %v", r, err)
	}
	return rect
}

func (w *World) rebuildTree() {
	var spatials []rtreego.Spatial
	w.regions.Each(func(_ ecs.Handle, e *regionEntry) {
		e.bounds = treeRect(e.region.SweptBoundingBox())
		spatials = append(spatials, e)
	})
	w.tree = rtreego.NewTree(2, 25, 50, spatials...)
}

// regionsIn returns the regions whose swept bounds touch bound.
func (w *World) regionsIn(bound common.Rect) map[ecs.Handle]struct{} {
	query := treeRect(bound.Extend(common.North, common.Epsilon).
		Extend(common.West, common.Epsilon).
		Extend(common.South, common.Epsilon).
		Extend(common.East, common.Epsilon))

	out := make(map[ecs.Handle]struct{})
	for _, s := range w.tree.SearchIntersect(query) {
		e, ok := s.(*regionEntry)
		if !ok || !w.regions.Alive(e.handle) {
			continue
		}
		if e.region.SweptBoundingBox().Touches(bound) {
			out[e.handle] = struct{}{}
		}
	}
	return out
}

// QueryRegions lists the regions whose swept bounds touch area.
func (w *World) QueryRegions(area common.Rect) []ecs.Handle {
	near := w.regionsIn(area)
	out := make([]ecs.Handle, 0, len(near))
	for _, h := range w.regions.Handles() {
		if _, ok := near[h]; ok {
			out = append(out, h)
		}
	}
	return out
}

// Raycast casts line against every region it passes near and returns the
// closest hit.
func (w *World) Raycast(line common.Line) (ecs.Handle, collider.SurfaceHit, bool) {
	var (
		bestRegion ecs.Handle
		best       collider.SurfaceHit
		found      bool
	)
	area := common.RectFromPoints(
		cp.Vector{X: math.Min(line.P1.X, line.P2.X), Y: math.Min(line.P1.Y, line.P2.Y)},
		cp.Vector{X: math.Max(line.P1.X, line.P2.X), Y: math.Max(line.P1.Y, line.P2.Y)},
	)
	for _, h := range w.QueryRegions(area) {
		r, _ := w.Region(h)
		hit, ok := collider.Raycast(r, line)
		if ok && (!found || hit.Distance < best.Distance) {
			bestRegion, best, found = h, hit, true
		}
	}
	return bestRegion, best, found
}
