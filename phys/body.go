package phys

import (
	"log"
	"math"
	"strings"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/common"
	"github.com/milk9111/tilecollide/ecs"
)

type SlipState uint8

const (
	SlipHorizontal SlipState = iota
	SlipVertical
)

// Slip lets a body ride over an edge that is within Leeway of its side.
// A zero Leeway disables slipping.
type Slip struct {
	State  SlipState
	Leeway float64
}

// CollisionFlags summarise the contact frame a body was given last step.
type CollisionFlags uint16

const (
	FlagFloor CollisionFlags = 1 << iota
	FlagCeiling
	FlagWallLeft
	FlagWallRight
	FlagCrushHorizontal
	FlagCrushVertical
	FlagWedge
)

func (f CollisionFlags) Has(flag CollisionFlags) bool {
	return f&flag == flag
}

var flagNames = [...]string{"floor", "ceiling", "wall-l", "wall-r", "crush-h", "crush-v", "wedge"}

// Names lists the set flags from lowest bit up.
func (f CollisionFlags) Names() []string {
	var out []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			out = append(out, name)
		}
	}
	return out
}

func (f CollisionFlags) String() string {
	names := f.Names()
	if len(names) == 0 {
		return "air"
	}
	return strings.Join(names, " ")
}

// bodyOffsets are corrections a tracker hands back to its body mid-update.
type bodyOffsets struct {
	Position     cp.Vector
	Velocity     cp.Vector
	Acceleration cp.Vector
}

// Body is an axis-aligned box that collides with regions. Its position is
// the bottom center of the box.
type Body struct {
	handle ecs.Handle
	world  *World

	pos     cp.Vector
	prevPos cp.Vector
	box     common.Rect
	prevBox common.Rect

	vel             cp.Vector
	precollisionVel cp.Vector
	friction        cp.Vector
	acc             cp.Vector
	gravity         cp.Vector
	accelAccum      cp.Vector
	decelAccum      cp.Vector

	slip     Slip
	response ResponseType

	flags    CollisionFlags
	frame    []AppliedContact
	trackers []*SurfaceTracker
}

func NewBody(position, size, gravity cp.Vector) *Body {
	if size.X > common.TileSize {
		log.Printf("Body: width %v is wider than a tile, collision may break", size.X)
	}
	size = cp.Vector{X: math.Max(math.Abs(size.X), 1), Y: math.Max(math.Abs(size.Y), 1)}

	b := &Body{gravity: gravity}
	b.box = common.Rect{X: position.X - size.X/2, Y: position.Y - size.Y, Width: size.X, Height: size.Y}
	b.prevBox = b.box
	b.pos = bottomCenter(b.box)
	b.prevPos = b.pos
	return b
}

func bottomCenter(r common.Rect) cp.Vector {
	return cp.Vector{X: r.X + r.Width/2, Y: r.Bottom()}
}

func (b *Body) Handle() ecs.Handle { return b.handle }

func (b *Body) Position() cp.Vector     { return b.pos }
func (b *Body) PrevPosition() cp.Vector { return b.prevPos }
func (b *Body) Box() common.Rect        { return b.box }
func (b *Body) PrevBox() common.Rect    { return b.prevBox }

// BoundingBox covers the box's travel from the previous position.
func (b *Body) BoundingBox() common.Rect {
	return common.Bound(b.box, b.prevBox)
}

func (b *Body) SetPosition(pos cp.Vector, swapPrev bool) {
	if common.IsNaNVec(pos) {
		log.Printf("Body: ignoring NaN position for %s", b.handle)
		return
	}
	if swapPrev {
		b.prevBox = b.box
		b.prevPos = bottomCenter(b.prevBox)
	}
	b.box.X = pos.X - b.box.Width/2
	b.box.Y = pos.Y - b.box.Height
	b.pos = bottomCenter(b.box)
}

func (b *Body) Move(offset cp.Vector, swapPrev bool) {
	b.SetPosition(b.pos.Add(offset), swapPrev)
}

// SetSize resizes the box around its center. Each side is at least 1.
func (b *Body) SetSize(size cp.Vector) {
	if size.X > common.TileSize {
		log.Printf("Body: width %v is wider than a tile, collision may break", size.X)
	}
	s := cp.Vector{X: math.Max(math.Abs(size.X), 1), Y: math.Max(math.Abs(size.Y), 1)}
	diff := s.Sub(b.box.Size())
	b.box.X -= diff.X / 2
	b.box.Y -= diff.Y / 2
	b.box.Width = s.X
	b.box.Height = s.Y
	b.pos = bottomCenter(b.box)
}

// Teleport moves the body without sweeping and drops every tracked surface.
func (b *Body) Teleport(pos cp.Vector) {
	b.box.X = pos.X - b.box.Width/2
	b.box.Y = pos.Y - b.box.Height
	b.prevBox = b.box
	b.pos = bottomCenter(b.box)
	b.prevPos = b.pos

	for _, t := range b.trackers {
		t.ForceEndContact()
	}
}

func (b *Body) Velocity() cp.Vector     { return b.vel }
func (b *Body) SetVelocity(v cp.Vector) { b.vel = v }

// ParentVelocity is the tangential velocity of the platforms the body rides.
func (b *Body) ParentVelocity() cp.Vector {
	var v cp.Vector
	for _, t := range b.trackers {
		if t.HasContact() && t.Settings.MoveWithPlatforms {
			c := t.current.Contact
			v = v.Add(common.Projection(c.Velocity, common.LeftHand(c.ColliderN), true))
		}
	}
	return v
}

// LocalVelocity is the body's velocity relative to what it stands on.
func (b *Body) LocalVelocity() cp.Vector { return b.vel }

func (b *Body) GlobalVelocity() cp.Vector { return b.vel.Add(b.ParentVelocity()) }

func (b *Body) Gravity() cp.Vector     { return b.gravity }
func (b *Body) SetGravity(g cp.Vector) { b.gravity = g }

func (b *Body) AddAccel(a cp.Vector) { b.accelAccum = b.accelAccum.Add(a) }
func (b *Body) AddDecel(d cp.Vector) { b.decelAccum = b.decelAccum.Add(d) }

func (b *Body) Acceleration() cp.Vector { return b.acc }
func (b *Body) Friction() cp.Vector     { return b.friction }

func (b *Body) Slip() Slip     { return b.slip }
func (b *Body) SetSlip(s Slip) { b.slip = s }

func (b *Body) Flags() CollisionFlags { return b.flags }

func (b *Body) SetResponse(t ResponseType) { b.response = t }

// Contacts is the frame of contacts applied during the last step.
func (b *Body) Contacts() []AppliedContact { return b.frame }

// CreateTracker adds a surface tracker watching normals within angles.
func (b *Body) CreateTracker(angles common.AngleRange, settings TrackerSettings) *SurfaceTracker {
	t := newSurfaceTracker(b, angles, settings)
	b.trackers = append(b.trackers, t)
	return t
}

// RemoveTracker detaches t, ending its contact first.
func (b *Body) RemoveTracker(t *SurfaceTracker) bool {
	for i, tr := range b.trackers {
		if tr != t {
			continue
		}
		t.ForceEndContact()
		b.trackers = append(b.trackers[:i], b.trackers[i+1:]...)
		t.owner = nil
		return true
	}
	return false
}

func (b *Body) Trackers() []*SurfaceTracker { return b.trackers }

// Contact returns the tracked contact of the first tracker whose range holds angle.
func (b *Body) Contact(angle common.Angle) (AppliedContact, bool) {
	for _, t := range b.trackers {
		if t.Angles.Contains(angle) {
			if t.current == nil {
				return AppliedContact{}, false
			}
			return *t.current, true
		}
	}
	return AppliedContact{}, false
}

func (b *Body) ContactDir(dir common.Cardinal) (AppliedContact, bool) {
	return b.Contact(common.AngleOf(dir.Vector()))
}

func (b *Body) HasContact(angle common.Angle) bool {
	c, ok := b.Contact(angle)
	return ok && c.HasContact
}

func (b *Body) HasContactDir(dir common.Cardinal) bool {
	return b.HasContact(common.AngleOf(dir.Vector()))
}

// Update integrates the body for dt seconds. Trackers get to adjust the move
// before and after velocity is applied, and gravity goes in last.
func (b *Body) Update(dt float64) {
	if dt <= 0 {
		return
	}

	prev := b.pos
	next := b.pos

	b.vel = b.vel.Sub(b.friction)
	b.acc = b.accelAccum

	for _, t := range b.trackers {
		off := t.preMove(dt)
		next = next.Add(off.Position)
		b.vel = b.vel.Add(off.Velocity)
		b.acc = b.acc.Add(off.Acceleration)

		if t.HasContact() {
			t.contactTime += dt
			t.airTime = 0
		} else {
			t.airTime += dt
		}
	}

	var surfaceVel cp.Vector
	for _, t := range b.trackers {
		if t.HasContact() {
			surfaceVel = surfaceVel.Add(t.current.SurfaceVelocity())
		}
	}

	b.vel = b.vel.Add(b.acc.Mult(dt))
	b.vel.X = common.Reduce(b.vel.X, b.decelAccum.X*dt, surfaceVel.X)
	b.vel.Y = common.Reduce(b.vel.Y, b.decelAccum.Y*dt, surfaceVel.Y)

	next = next.Add(b.vel.Mult(dt))

	for _, t := range b.trackers {
		off := t.postMove(next, prev, dt)
		next = next.Add(off.Position)
		b.vel = b.vel.Add(off.Velocity)
		b.acc = b.acc.Add(off.Acceleration)
	}

	b.vel = b.vel.Add(b.gravity.Mult(dt))
	next = next.Add(b.gravity.Mult(dt * dt))

	b.precollisionVel = b.vel
	b.SetPosition(next, true)

	b.accelAccum = cp.Vector{}
	b.decelAccum = cp.Vector{}
}

func (b *Body) applyContact(c *Contact, t ContactType) {
	b.Move(c.OrthoN.Mult(c.Separation), false)

	switch {
	case t.IsCrush():
		b.vel = cp.Vector{}
	case t == Wedge:
		b.vel = c.Velocity
	case b.vel.Sub(c.Velocity).Dot(c.ColliderN) <= 0:
		b.vel = responseVelocity(b.vel, c, b.response)
	}

	if c.HasImpactTime {
		for _, tr := range b.trackers {
			tr.firstCollisionWith(c)
		}
	}
}

// SetFrame replaces the body's contact frame, recomputes its flags and lets
// each tracker pick its surface.
func (b *Body) SetFrame(frame []AppliedContact) {
	b.frame = frame
	b.flags = 0

	for i := range b.frame {
		c := &b.frame[i]
		switch c.Type {
		case CrushHorizontal:
			b.flags |= FlagCrushHorizontal
		case CrushVertical:
			b.flags |= FlagCrushVertical
		case Wedge:
			b.flags |= FlagWedge
		case Single:
			dir, ok := common.CardinalFromVector(c.OrthoN)
			if !ok {
				continue
			}
			switch dir {
			case common.North:
				b.flags |= FlagFloor
			case common.South:
				b.flags |= FlagCeiling
			case common.East:
				b.flags |= FlagWallLeft
			case common.West:
				b.flags |= FlagWallRight
			}
		}
	}

	if len(b.trackers) == 0 {
		return
	}
	b.friction = cp.Vector{}
	for _, t := range b.trackers {
		t.ProcessContacts(b.frame)
		b.friction = b.friction.Add(t.calcFriction(b.precollisionVel))
	}
}

func (b *Body) pushEvent(e ContactEvent) {
	if b.world == nil {
		return
	}
	e.Body = b.handle
	b.world.events.Push(e)
}
