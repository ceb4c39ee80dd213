package phys

import (
	"github.com/jakecoffman/cp"
	"github.com/milk9111/tilecollide/common"
)

// ResponseType picks which normal a contact's velocity response uses.
type ResponseType uint8

const (
	// ResponseStandard slides along the touched surface.
	ResponseStandard ResponseType = iota
	// ResponseFlatten slides along the axis the contact was resolved on.
	ResponseFlatten
)

// responseVelocity keeps the body's motion along the surface and replaces
// its motion into the surface with the surface's own.
func responseVelocity(vel cp.Vector, c *Contact, t ResponseType) cp.Vector {
	n := c.ColliderN
	if t == ResponseFlatten {
		n = c.OrthoN
	}
	normal := common.Projection(c.Velocity, n, true)
	tangent := common.Projection(vel, common.RightHand(n), true)
	return normal.Add(tangent)
}
