package phys

import (
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/common"
	"github.com/milk9111/tilecollide/ecs"
)

// ContactType classifies how the solver applied a contact.
type ContactType uint8

const (
	NoSolution ContactType = iota
	Single
	Wedge
	CrushHorizontal
	CrushVertical
)

var contactTypeNames = [...]string{
	"No solution",
	"Single",
	"Wedge",
	"Crush horizontal",
	"Crush vertical",
}

func (t ContactType) String() string {
	if int(t) >= len(contactTypeNames) {
		return "Unknown"
	}
	return contactTypeNames[t]
}

func (t ContactType) IsCrush() bool {
	return t == CrushHorizontal || t == CrushVertical
}

// ContactID names the region and quad a contact came from.
type ContactID struct {
	Region ecs.Handle
	Quad   collider.QuadID
}

// Contact is the narrow phase result between one body and one quad, in world
// space. Separation is how far the body has to move along OrthoN to stop
// intersecting: positive is penetration, zero is touching.
type Contact struct {
	Collider  collider.Surface
	OrthoN    cp.Vector
	ColliderN cp.Vector

	Separation float64
	Position   cp.Vector

	StickOffset float64
	StickLine   common.Line

	HasContact bool
	HasValley  bool

	Material     string
	SurfaceSpeed float64

	ID    ContactID
	HasID bool

	ImpactTime    float64
	HasImpactTime bool
	IsSlip        bool
	QuadValid     bool
	Velocity      cp.Vector
	TouchDuration float64
	IsTransposed  bool
}

func newContact() Contact {
	return Contact{ImpactTime: -1}
}

// IsResolvable is true once the contact has a usable normal.
func (c *Contact) IsResolvable() bool {
	return c.OrthoN.X != 0 || c.OrthoN.Y != 0
}

// SurfaceVelocity is the conveyor speed of the touched material along the surface.
func (c *Contact) SurfaceVelocity() cp.Vector {
	return common.RightHand(c.ColliderN).Mult(c.SurfaceSpeed)
}

// Transposable reports whether a steep floor or ceiling contact may be solved
// as a wall instead.
func (c *Contact) Transposable() bool {
	return !c.IsTransposed &&
		common.IsVertical(c.OrthoN) &&
		math.Abs(c.ColliderN.X) > math.Abs(c.ColliderN.Y) &&
		c.HasImpactTime &&
		!c.HasValley
}

// Transpose turns the contact onto the horizontal axis its normal leans toward.
func (c *Contact) Transpose() {
	if c.IsTransposed {
		return
	}
	c.OrthoN = cp.Vector{X: common.Sign(c.ColliderN.X)}
	c.Separation = math.Abs(c.ColliderN.Y * c.Separation / c.ColliderN.X)
	c.IsTransposed = true
}

// CompareContacts orders two contacts for the same axis. A negative result
// means lhs should be solved first.
func CompareContacts(lhs, rhs *Contact) int {
	switch {
	case lhs.HasContact != rhs.HasContact:
		if lhs.HasContact {
			return -1
		}
		return 1
	case lhs.HasImpactTime != rhs.HasImpactTime:
		if lhs.HasImpactTime {
			return -1
		}
		return 1
	case lhs.HasImpactTime && lhs.ImpactTime != rhs.ImpactTime:
		if lhs.ImpactTime < rhs.ImpactTime {
			return -1
		}
		return 1
	case lhs.Separation != rhs.Separation:
		if lhs.Separation < rhs.Separation {
			return -1
		}
		return 1
	}

	lv, rv := lhs.Velocity.LengthSq(), rhs.Velocity.LengthSq()
	switch {
	case lv < rv:
		return -1
	case lv > rv:
		return 1
	}
	return 0
}

// AppliedContact is a contact the solver resolved this tick.
type AppliedContact struct {
	Contact
	Type ContactType

	// PreContactVelocity is the body's world velocity just before the
	// contact was applied.
	PreContactVelocity cp.Vector
}
