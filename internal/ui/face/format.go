package face

import (
	"fmt"
	"time"

	"cardtap/internal/core/model"
)

// PhaseTitle is the headline shown for a state.
func PhaseTitle(state model.CycleState, now time.Time) string {
	if state.Expired(now) {
		return "Shift over"
	}
	switch state.Phase() {
	case model.PhaseBreak:
		return "On break"
	case model.PhaseActive:
		return "Active"
	default:
		return "Checked out"
	}
}

// DetailText describes the deadline and time left.
func DetailText(state model.CycleState, now time.Time) string {
	if state.Phase() == model.PhaseIdle {
		return "Tap to check in"
	}
	checkout := state.Checkout().In(now.Location()).Format("15:04")
	remaining := state.Remaining(now)
	if remaining < 0 {
		return fmt.Sprintf("Checkout was %s (%s ago)", checkout, FormatRemaining(-remaining))
	}
	return fmt.Sprintf("Checkout %s, %s left", checkout, FormatRemaining(remaining))
}

// ActionLabel names what the next tap will do.
func ActionLabel(state model.CycleState, now time.Time) string {
	if state.Expired(now) {
		return "Reset"
	}
	switch state.Phase() {
	case model.PhaseBreak:
		return "End break"
	case model.PhaseActive:
		return "End active"
	default:
		return "Check in"
	}
}

// FormatRemaining renders a duration as HH:MM:SS, clamping negatives to zero.
func FormatRemaining(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	seconds := int(remaining / time.Second)
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	seconds = seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
