package model

import "time"

// Phase is the user-facing meaning of a status value.
type Phase string

const (
	PhaseIdle   Phase = "idle"
	PhaseBreak  Phase = "break"
	PhaseActive Phase = "active"
)

// CycleState is the persisted check-in cycle. Timestamps are milliseconds
// since the Unix epoch and zero means unset.
type CycleState struct {
	Status       int
	CheckinTime  int64
	CheckoutTime int64
	CurrentTime  int64
}

// Phase derives the sub-phase from the status parity.
func (state CycleState) Phase() Phase {
	return PhaseOf(state.Status)
}

// PhaseOf maps a raw status counter to its phase. Zero is idle, odd values
// are breaks and even nonzero values are active measurement periods.
func PhaseOf(status int) Phase {
	switch {
	case status == 0:
		return PhaseIdle
	case status%2 != 0:
		return PhaseBreak
	default:
		return PhaseActive
	}
}

// Expired reports whether a running cycle has passed its checkout deadline.
func (state CycleState) Expired(now time.Time) bool {
	return state.Status != 0 && now.UnixMilli() > state.CheckoutTime
}

// Remaining returns the time left until checkout. It is negative once the
// deadline has passed and zero while idle.
func (state CycleState) Remaining(now time.Time) time.Duration {
	if state.Status == 0 {
		return 0
	}
	return time.Duration(state.CheckoutTime-now.UnixMilli()) * time.Millisecond
}

// Checkout returns the deadline as a time value, or the zero time when unset.
func (state CycleState) Checkout() time.Time {
	if state.CheckoutTime == 0 {
		return time.Time{}
	}
	return time.UnixMilli(state.CheckoutTime)
}
