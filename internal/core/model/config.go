package model

import "time"

// DefaultShiftDuration is the target length of a cycle started from idle.
const DefaultShiftDuration = 8 * time.Hour

// CycleConfig contains runtime settings for the cycle controller.
type CycleConfig struct {
	ShiftDuration time.Duration
	TickInterval  time.Duration
}

// DefaultCycleConfig returns an eight hour shift ticking once per second.
func DefaultCycleConfig() CycleConfig {
	return CycleConfig{
		ShiftDuration: DefaultShiftDuration,
		TickInterval:  time.Second,
	}
}
