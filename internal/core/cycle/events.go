package cycle

import (
	"time"

	"cardtap/internal/core/model"
)

// Transition names the branch a single Advance took.
type Transition string

const (
	TransitionCheckIn     Transition = "check_in"
	TransitionExpired     Transition = "expired"
	TransitionBreakEnded  Transition = "break_ended"
	TransitionActiveEnded Transition = "active_ended"
)

// EventType defines the type of controller event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventProgress   EventType = "progress"
	EventError      EventType = "error"
)

// Event represents a controller update for observers.
type Event struct {
	Type       EventType
	Transition Transition
	State      model.CycleState
	Phase      model.Phase
	Remaining  time.Duration
	Message    string
	At         time.Time
}
