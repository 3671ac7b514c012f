package face

import (
	"testing"
	"time"

	"cardtap/internal/core/model"

	"github.com/stretchr/testify/assert"
)

func TestFormatRemaining(t *testing.T) {
	cases := map[time.Duration]string{
		0:                                     "00:00:00",
		-5 * time.Second:                      "00:00:00",
		59*time.Second + 999*time.Millisecond: "00:00:59",
		8 * time.Hour:                         "08:00:00",
		26*time.Hour + 3*time.Minute + 4*time.Second: "26:03:04",
	}
	for input, want := range cases {
		assert.Equal(t, want, FormatRemaining(input), "input %s", input)
	}
}

func TestPhaseTitleAndAction(t *testing.T) {
	now := time.UnixMilli(2000)
	cases := []struct {
		name   string
		state  model.CycleState
		title  string
		action string
	}{
		{"idle", model.CycleState{}, "Checked out", "Check in"},
		{"break", model.CycleState{Status: 1, CheckoutTime: 29_800_000}, "On break", "End break"},
		{"active", model.CycleState{Status: 2, CheckoutTime: 29_800_000}, "Active", "End active"},
		{"expired", model.CycleState{Status: 2, CheckoutTime: 500}, "Shift over", "Reset"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.title, PhaseTitle(tc.state, now))
			assert.Equal(t, tc.action, ActionLabel(tc.state, now))
		})
	}
}

func TestDetailText(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	running := model.CycleState{Status: 1, CheckoutTime: now.Add(8 * time.Hour).UnixMilli()}
	overdue := model.CycleState{Status: 1, CheckoutTime: now.Add(-90 * time.Second).UnixMilli()}

	assert.Equal(t, "Tap to check in", DetailText(model.CycleState{}, now))
	assert.Equal(t, "Checkout 17:00, 08:00:00 left", DetailText(running, now))
	assert.Equal(t, "Checkout was 08:58 (00:01:30 ago)", DetailText(overdue, now))
}
