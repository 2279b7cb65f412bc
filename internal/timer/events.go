package timer

import (
	"time"

	"github.com/hammamikhairi/devtimer/internal/domain"
)

// EventType identifies what changed in a timer event.
type EventType string

const (
	// EventStateChange is sent after any command or transition.
	EventStateChange EventType = "state_change"
	// EventTick is sent once per elapsed second while running.
	EventTick EventType = "tick"
	// EventCompleted is sent when a phase reaches zero and the pipeline starts.
	EventCompleted EventType = "completed"
	// EventFeedback carries the coach message about to be announced.
	EventFeedback EventType = "feedback"
	// EventRestarted is sent when the next phase auto-starts.
	EventRestarted EventType = "restarted"
)

// Event is a timer update for observers. Delivery is best-effort: a slow
// subscriber drops events rather than stalling the countdown.
type Event struct {
	Type    EventType
	State   domain.TimerState
	Phase   domain.Phase // phase that completed, for EventCompleted/EventFeedback
	Message string
	At      time.Time
}
