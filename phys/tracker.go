package phys

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/common"
)

// followStepCap bounds how many linked surfaces one slope stick may cross.
const followStepCap = 8

type Friction struct {
	Stationary float64
	Kinetic    float64
}

type TrackerSettings struct {
	MoveWithPlatforms bool
	SlopeSticking     bool
	SlopeWallStop     bool
	HasFriction       bool
	UseSurfaceVel     bool

	StickAngleMax   common.Angle
	SurfaceFriction Friction
	MaxSpeed        float64

	SlopeStickSpeedFactor float64
}

func DefaultTrackerSettings() TrackerSettings {
	return TrackerSettings{
		StickAngleMax:         common.Degrees(50),
		SlopeStickSpeedFactor: 0.25,
	}
}

// SurfaceTracker follows the surface a body is in contact with, for contacts
// whose collider normal falls inside Angles.
type SurfaceTracker struct {
	owner    *Body
	Angles   common.AngleRange
	Settings TrackerSettings

	current *AppliedContact
	wall    *AppliedContact

	contactTime float64
	airTime     float64
}

func newSurfaceTracker(owner *Body, angles common.AngleRange, settings TrackerSettings) *SurfaceTracker {
	return &SurfaceTracker{owner: owner, Angles: angles, Settings: settings}
}

func (t *SurfaceTracker) HasContact() bool {
	return t != nil && t.current != nil && t.current.HasContact
}

// Contact returns the tracked contact, if any.
func (t *SurfaceTracker) Contact() (AppliedContact, bool) {
	if t.current == nil {
		return AppliedContact{}, false
	}
	return *t.current, true
}

func (t *SurfaceTracker) ContactTime() float64 { return t.contactTime }
func (t *SurfaceTracker) AirTime() float64     { return t.airTime }

func (t *SurfaceTracker) ResetTime() {
	t.contactTime = 0
	t.airTime = 0
}

func (t *SurfaceTracker) canMakeContactWith(c *Contact) bool {
	within := true
	if t.current != nil && !t.isTracked(c) {
		next := common.AngleOf(common.RightHand(t.current.ColliderN))
		curr := common.AngleOf(common.RightHand(c.ColliderN))
		diff := next.Sub(curr)
		within = math.Abs(diff.Degrees()) < math.Abs(t.Settings.StickAngleMax.Degrees())
	}
	return t.Angles.Contains(common.AngleOf(c.ColliderN)) && within
}

// isTracked reports whether c comes from the surface already being tracked.
func (t *SurfaceTracker) isTracked(c *Contact) bool {
	return t.current.ID == c.ID || t.current.Collider.Line == c.Collider.Line
}

// ProcessContacts picks the tracked surface out of a body's contact frame.
// Later contacts win over earlier ones.
func (t *SurfaceTracker) ProcessContacts(frame []AppliedContact) {
	found := false
	hadContact := t.current != nil
	t.wall = nil

	for i := len(frame) - 1; i >= 0; i-- {
		c := frame[i]

		// a slip contact we're already leaving can't grab the body again
		if c.IsSlip && t.owner.vel.Dot(c.ColliderN) > 0 {
			continue
		}

		if t.canMakeContactWith(&c.Contact) {
			found = true
			if hadContact {
				if t.current.ID.Region != c.ID.Region {
					t.endTouch(t.current)
					t.startTouch(&c)
				}
			} else {
				t.startTouch(&c)
			}
			t.current = &c
			break
		} else if c.ColliderN.Y == 0 {
			wall := c
			t.wall = &wall
		}
	}

	if !found {
		if hadContact && !t.slopeWallStop() {
			t.endTouch(t.current)
			t.current = nil
		} else if !hadContact {
			t.current = nil
		}
	}

	if !t.HasContact() {
		t.contactTime = 0
	}
}

// ForceEndContact drops the tracked surface immediately.
func (t *SurfaceTracker) ForceEndContact() {
	if t.current != nil {
		t.endTouch(t.current)
		t.current = nil
	}
	t.wall = nil
	t.contactTime = 0
}

func (t *SurfaceTracker) calcFriction(prevVel cp.Vector) cp.Vector {
	if !t.HasContact() || !t.Settings.HasFriction {
		return cp.Vector{}
	}
	c := t.current
	if c.HasImpactTime && t.contactTime <= 0 {
		return cp.Vector{}
	}

	var sVel cp.Vector
	if t.Settings.UseSurfaceVel {
		sVel = c.SurfaceVelocity()
	}
	tangent := common.Projection(prevVel.Sub(sVel), common.RightHand(c.ColliderN), true)
	normal := common.Projection(prevVel.Sub(sVel).Sub(c.Velocity), c.ColliderN, true)

	ft := tangent.Length()
	fn := normal.Length()

	var mu float64
	switch {
	case ft < 2:
		mu = t.Settings.SurfaceFriction.Stationary
	case ft > 10:
		mu = t.Settings.SurfaceFriction.Kinetic
	default:
		mu = common.Lerp(t.Settings.SurfaceFriction.Stationary, t.Settings.SurfaceFriction.Kinetic, (ft-2)/(10-2))
	}

	ff := cp.Clamp(fn*mu, -ft, ft)
	return common.Unit(tangent).Mult(ff)
}

func (t *SurfaceTracker) region() (collider.Region, bool) {
	if t.current == nil || t.owner == nil || t.owner.world == nil {
		return nil, false
	}
	return t.owner.world.Region(t.current.ID.Region)
}

// slopeWallStop pins a body to the slope it was climbing when it runs into
// a wall on the uphill side.
func (t *SurfaceTracker) slopeWallStop() bool {
	c := t.current
	canStop := t.Settings.SlopeWallStop &&
		t.wall != nil &&
		!common.IsVertical(c.ColliderN) &&
		(c.ColliderN.X < 0) == (t.wall.ColliderN.X < 0) &&
		t.owner.vel.Dot(c.OrthoN) > 0
	if !canStop {
		return false
	}

	t.owner.vel = cp.Vector{}
	if region, ok := t.region(); ok && t.Settings.MoveWithPlatforms && region.Moved() {
		t.owner.vel = t.owner.vel.Add(common.Projection(region.DeltaVelocity(), c.ColliderN, true))
	}

	x := t.owner.pos.X
	inter := common.Intersection(c.Collider.Line, common.Line{P1: cp.Vector{X: x}, P2: cp.Vector{X: x, Y: 1}})
	t.owner.SetPosition(inter, false)
	return true
}

func (t *SurfaceTracker) preMove(dt float64) bodyOffsets {
	var out bodyOffsets
	if dt > 0 && t.HasContact() {
		out = t.moveWithPlatform(out)
		out = t.maxSpeed(out, dt)
	}
	return out
}

func (t *SurfaceTracker) moveWithPlatform(in bodyOffsets) bodyOffsets {
	if !t.Settings.MoveWithPlatforms {
		return in
	}
	region, ok := t.region()
	if !ok || !region.Moved() {
		return in
	}
	n := t.current.ColliderN
	in.Position = in.Position.Add(common.Projection(region.DeltaPosition(), common.LeftHand(n), true))
	in.Velocity = in.Velocity.Add(common.Projection(region.DeltaVelocity(), n, true))
	return in
}

func (t *SurfaceTracker) maxSpeed(in bodyOffsets, dt float64) bodyOffsets {
	if !t.Settings.SlopeSticking || t.Settings.MaxSpeed <= 0 {
		return in
	}

	speed := t.Speed()
	accVec := common.Projection(t.owner.acc, common.RightHand(t.current.ColliderN), true)
	accMag := accVec.Length()
	if t.owner.acc.X < 0 {
		accMag = -accMag
	}

	if math.Abs(speed+accMag*dt) > t.Settings.MaxSpeed {
		if speed < 0 {
			t.SetSpeed(-t.Settings.MaxSpeed)
		} else {
			t.SetSpeed(t.Settings.MaxSpeed)
		}
		in.Acceleration = in.Acceleration.Sub(accVec)
	}
	return in
}

// postMove keeps a body on the ground when its move would carry it off the
// end of the tracked surface onto a linked one.
func (t *SurfaceTracker) postMove(wish, prev cp.Vector, dt float64) bodyOffsets {
	var out bodyOffsets
	if dt <= 0 || !t.HasContact() || !t.Settings.SlopeSticking {
		return out
	}
	region, ok := t.region()
	if !ok {
		return out
	}

	surf := t.current.Collider
	if s := region.SurfaceAt(surf.ID); s != nil {
		surf = s.Shift(region.Position())
	}
	line := surf.Line
	left, right := math.Min(line.P1.X, line.P2.X), math.Max(line.P1.X, line.P2.X)
	if left >= right {
		return out
	}
	leaving := (wish.X > right && prev.X <= right) || (wish.X < left && prev.X >= left)
	if !leaving {
		return out
	}

	dir := common.Sign(wish.Sub(prev).Dot(line.Tangent()))
	if dir == 0 {
		return out
	}

	size := t.owner.box.Size()
	start := cp.Vector{X: prev.X, Y: line.YForX(prev.X)}
	if kindOf(line) == ceilSurface {
		start.Y += size.Y
	}

	follow := NewSurfaceFollow(line, start, dir, wish.Distance(prev), t.Angles, t.Settings.StickAngleMax, size)

	var result FollowResult
	var landed collider.Surface
	moved, switched := false, false
	for step := 0; step < followStepCap && follow.Remaining() > 0; step++ {
		next, ok := linkedSurface(region, surf, dir)
		if !ok || !follow.AddSurface(next.Line) {
			break
		}
		idx, ok := follow.PickSurfaceToFollow()
		if !ok {
			break
		}
		r := follow.TravelTo(idx)
		result = r
		moved = true
		if !r.OnNewSurface {
			break
		}
		landed = next
		surf = next
		switched = true
	}
	if !moved {
		return out
	}
	if follow.Remaining() > 0 {
		result = follow.Finish()
	}

	slow := 1.0
	if maxDeg := t.Settings.StickAngleMax.Degrees(); maxDeg != 0 {
		slow = 1 - t.Settings.SlopeStickSpeedFactor*math.Abs(result.Path.DiffAngle.Degrees()/maxDeg)
	}
	heading := common.Unit(result.Path.SurfaceLine.Vector().Mult(dir))
	newVel := heading.Mult(t.owner.vel.Length() * slow)

	out.Position = result.Pos.Sub(wish)
	out.Velocity = newVel.Sub(t.owner.vel)

	if !switched {
		return out
	}
	t.owner.pushEvent(ContactEvent{
		Kind:    EventStick,
		Region:  t.current.ID.Region,
		Contact: *t.current,
		Tracker: t,
		Surface: landed.ID,
	})
	return out
}

// linkedSurface returns the neighbour of s in the travel direction, in world
// space, as long as it keeps heading the same way along x.
func linkedSurface(region collider.Region, s collider.Surface, dir float64) (collider.Surface, bool) {
	id, has := s.Next, s.HasNext
	if dir < 0 {
		id, has = s.Prev, s.HasPrev
	}
	if !has {
		return collider.Surface{}, false
	}
	next := region.SurfaceAt(id)
	if next == nil {
		return collider.Surface{}, false
	}
	if (next.Line.P1.X < next.Line.P2.X) != (s.Line.P1.X < s.Line.P2.X) || next.Line.IsVertical() {
		return collider.Surface{}, false
	}
	return next.Shift(region.Position()), true
}

// firstCollisionWith snaps a body that just ran off a ledge back onto the
// neighbouring slope instead of letting it launch.
func (t *SurfaceTracker) firstCollisionWith(c *Contact) {
	if t.HasContact() || !t.Settings.SlopeSticking || c.StickOffset == 0 || !t.canMakeContactWith(c) {
		return
	}
	t.owner.Move(c.OrthoN.Mult(c.StickOffset), false)
	along := common.Projection(t.owner.vel, c.StickLine.Vector(), false)
	t.owner.vel = common.Unit(along).Mult(t.owner.vel.Length())
}

func (t *SurfaceTracker) startTouch(c *AppliedContact) {
	if t.Settings.MoveWithPlatforms {
		t.owner.vel = t.owner.vel.Sub(common.Projection(c.Velocity, common.LeftHand(c.ColliderN), true))
	}
	t.owner.pushEvent(ContactEvent{Kind: EventStartTouch, Region: c.ID.Region, Contact: *c, Tracker: t})
}

func (t *SurfaceTracker) endTouch(c *AppliedContact) {
	if t.Settings.MoveWithPlatforms {
		still := false
		for i := range t.owner.frame {
			if t.owner.frame[i].ID.Region == c.ID.Region {
				still = true
				break
			}
		}
		if !still {
			t.owner.vel = t.owner.vel.Add(common.Projection(c.Velocity, common.LeftHand(c.ColliderN), true))
		}
	}
	t.owner.pushEvent(ContactEvent{Kind: EventEndTouch, Region: c.ID.Region, Contact: *c, Tracker: t})
}

// SetSpeed sets the body's speed along the tracked surface, or along x when
// there is none.
func (t *SurfaceTracker) SetSpeed(speed float64) {
	if !t.HasContact() {
		t.owner.vel.X = speed
		return
	}
	c := t.current
	unit := common.RightHand(c.ColliderN)

	surfaceMag := 0.0
	if t.Settings.UseSurfaceVel {
		sv := c.SurfaceVelocity()
		surfaceMag = sv.Length()
		if sv.X <= 0 {
			surfaceMag = -surfaceMag
		}
	}

	var normalVel cp.Vector
	if t.Settings.MoveWithPlatforms && !c.Velocity.Equal(cp.Vector{}) {
		normalVel = common.Projection(c.Velocity, c.ColliderN, true)
	}
	t.owner.vel = unit.Mult(speed + surfaceMag).Add(normalVel)
}

// Speed is the body's signed speed along the tracked surface, positive in
// the surface's direction.
func (t *SurfaceTracker) Speed() float64 {
	if !t.HasContact() {
		return t.owner.vel.X
	}
	c := t.current
	var surfVel cp.Vector
	if t.Settings.UseSurfaceVel {
		surfVel = c.SurfaceVelocity()
	}
	surf := common.RightHand(c.ColliderN)
	proj := common.Projection(t.owner.vel, surf, true).Sub(surfVel)

	switch {
	case proj.X == 0:
		return 0
	case (proj.X < 0) != (surf.X < 0):
		return -proj.Length()
	default:
		return proj.Length()
	}
}

func (t *SurfaceTracker) AddAccel(accel float64) {
	if !t.HasContact() {
		t.owner.AddAccel(cp.Vector{X: accel})
		return
	}
	t.owner.AddAccel(common.RightHand(t.current.ColliderN).Mult(accel))
}

func (t *SurfaceTracker) AddDecel(decel float64) {
	if !t.HasContact() {
		t.owner.AddDecel(cp.Vector{X: decel})
		return
	}
	u := common.RightHand(t.current.ColliderN)
	t.owner.AddDecel(cp.Vector{X: math.Abs(u.X), Y: math.Abs(u.Y)}.Mult(decel))
}
