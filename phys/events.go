package phys

import (
	"fmt"

	"github.com/milk9111/tilecollide/collider"
	"github.com/milk9111/tilecollide/ecs"
)

type EventKind uint8

const (
	// EventStartTouch fires when a tracker starts following a surface.
	EventStartTouch EventKind = iota
	// EventEndTouch fires when a tracker loses its surface, or when an
	// arbiter that had contact is dropped because its quad went out of range.
	EventEndTouch
	// EventStick fires when slope sticking moves a body onto a new surface.
	EventStick
	// EventPostContact fires once for every contact applied to a body.
	EventPostContact
)

var eventKindNames = [...]string{"start touch", "end touch", "stick", "post contact"}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return fmt.Sprintf("EventKind(%d)", k)
}

// ContactEvent is queued on the world during Step and drained with Events.
type ContactEvent struct {
	Kind    EventKind
	Body    ecs.Handle
	Region  ecs.Handle
	Contact AppliedContact

	// Tracker is nil for events raised by arbiters.
	Tracker *SurfaceTracker

	// Surface is only set for EventStick.
	Surface collider.SurfaceID
}

// PreContact is what a region's filter sees before a contact is solved.
type PreContact struct {
	Body          ecs.Handle
	Region        ecs.Handle
	Contact       Contact
	TouchDuration float64
}

// PreContactFunc returns false to drop the contact for this tick.
type PreContactFunc func(PreContact) bool
