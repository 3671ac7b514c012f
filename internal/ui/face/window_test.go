package face

import (
	"context"
	"errors"
	"testing"
	"time"

	"cardtap/internal/core/cycle"
	"cardtap/internal/core/model"

	"fyne.io/fyne/v2/test"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubController struct {
	state   model.CycleState
	next    model.CycleState
	err     error
	advance int
	events  chan cycle.Event
}

func (stub *stubController) Advance(context.Context) (cycle.Transition, error) {
	stub.advance++
	if stub.err != nil {
		return cycle.TransitionCheckIn, stub.err
	}
	stub.state = stub.next
	return cycle.TransitionCheckIn, nil
}

func (stub *stubController) State() model.CycleState { return stub.state }

func (stub *stubController) Subscribe(int) <-chan cycle.Event {
	if stub.events == nil {
		stub.events = make(chan cycle.Event)
	}
	return stub.events
}

func TestWindowRendersInitialState(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()
	stub := &stubController{}

	face := New(app, stub, Options{Clock: clockwork.NewFakeClockAt(time.UnixMilli(1000))})
	defer face.Close()

	title, err := face.title.Get()
	require.NoError(t, err)
	assert.Equal(t, "Checked out", title)
	assert.Equal(t, "Check in", face.button.Text)
}

func TestTapAdvancesAndRedraws(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()
	stub := &stubController{next: model.CycleState{Status: 1, CheckinTime: 1000, CheckoutTime: 29_800_000}}
	var advanced []model.CycleState

	face := New(app, stub, Options{
		Clock:      clockwork.NewFakeClockAt(time.UnixMilli(1000)),
		OnAdvanced: func(state model.CycleState) { advanced = append(advanced, state) },
	})
	defer face.Close()

	test.Tap(face.button)

	assert.Equal(t, 1, stub.advance)
	assert.Equal(t, "End break", face.button.Text)
	title, err := face.title.Get()
	require.NoError(t, err)
	assert.Equal(t, "On break", title)
	require.Len(t, advanced, 1)
	assert.Equal(t, 1, advanced[0].Status)
}

func TestTapFailureKeepsState(t *testing.T) {
	app := test.NewApp()
	defer app.Quit()
	stub := &stubController{err: errors.New("disk full")}
	called := false

	face := New(app, stub, Options{
		Clock:      clockwork.NewFakeClockAt(time.UnixMilli(1000)),
		OnAdvanced: func(model.CycleState) { called = true },
	})
	defer face.Close()

	face.Tap()

	assert.Equal(t, 1, stub.advance)
	assert.False(t, called)
	assert.Equal(t, "Check in", face.button.Text)
}
