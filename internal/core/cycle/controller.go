package cycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cardtap/internal/core/model"
	"cardtap/internal/core/observable"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Repository is the persisted cycle state the controller reads and writes.
type Repository interface {
	CurrentTimestamp() *observable.Value[int64]
	CheckoutTimestamp() *observable.Value[int64]
	CheckinTimestamp() *observable.Value[int64]
	CurrentStatus() *observable.Value[int]

	SaveCurrentTimestamp(ctx context.Context, millis int64) error
	SaveCheckoutTimestamp(ctx context.Context, millis int64) error
	SaveCheckinTimestamp(ctx context.Context, millis int64) error
	SaveCurrentStatus(ctx context.Context, status int) error
}

// Options contains runtime dependencies for the Controller.
type Options struct {
	Clock  clockwork.Clock
	Logger logrus.FieldLogger
}

// Controller drives the check-in cycle. Every user action goes through
// Advance, which moves the state one step and persists it field by field.
type Controller struct {
	advanceMu sync.Mutex

	mu      sync.Mutex
	repo    Repository
	config  model.CycleConfig
	clock   clockwork.Clock
	logger  logrus.FieldLogger
	events  []chan Event
	stopCh  chan struct{}
	running bool
}

// New creates a Controller over repo.
func New(repo Repository, config model.CycleConfig, options Options) *Controller {
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	if options.Logger == nil {
		silent := logrus.New()
		silent.SetLevel(logrus.PanicLevel)
		options.Logger = silent
	}
	return &Controller{
		repo:   repo,
		config: normalizeConfig(config),
		clock:  options.Clock,
		logger: options.Logger,
	}
}

// Advance performs the single user action:
//   - idle: check in now, deadline now+shift, status 1
//   - past the deadline: reset every field to zero
//   - odd status: checkpoint now, status+1
//   - even status: push the deadline out by the time since the checkpoint, status+1
//
// Writes happen in order and the first failure aborts the rest.
func (controller *Controller) Advance(ctx context.Context) (Transition, error) {
	controller.advanceMu.Lock()
	defer controller.advanceMu.Unlock()

	controller.mu.Lock()
	shift := controller.config.ShiftDuration
	controller.mu.Unlock()

	now := controller.clock.Now()
	nowMillis := now.UnixMilli()
	status := controller.repo.CurrentStatus().Value()

	var (
		transition Transition
		steps      []func(context.Context) error
	)
	switch {
	case status == 0:
		transition = TransitionCheckIn
		steps = []func(context.Context) error{
			controller.saveCheckin(nowMillis),
			controller.saveCheckout(nowMillis + shift.Milliseconds()),
			controller.saveStatus(status + 1),
		}
	case nowMillis > controller.repo.CheckoutTimestamp().Value():
		transition = TransitionExpired
		steps = []func(context.Context) error{
			controller.saveStatus(0),
			controller.saveCheckin(0),
			controller.saveCheckout(0),
			controller.saveCurrent(0),
		}
	case status%2 != 0:
		transition = TransitionBreakEnded
		steps = []func(context.Context) error{
			controller.saveCurrent(nowMillis),
			controller.saveStatus(status + 1),
		}
	default:
		transition = TransitionActiveEnded
		elapsed := max(0, nowMillis-controller.repo.CurrentTimestamp().Value())
		checkout := controller.repo.CheckoutTimestamp().Value()
		steps = []func(context.Context) error{
			controller.saveCheckout(checkout + elapsed),
			controller.saveStatus(status + 1),
		}
	}

	for _, step := range steps {
		if err := step(ctx); err != nil {
			controller.logger.WithError(err).WithFields(logrus.Fields{
				"status":     status,
				"transition": transition,
			}).Error("advance failed")
			controller.emit(Event{
				Type:       EventError,
				Transition: transition,
				State:      controller.State(),
				Message:    err.Error(),
				At:         now,
			})
			return transition, fmt.Errorf("advance %s: %w", transition, err)
		}
	}

	state := controller.State()
	controller.logger.WithFields(logrus.Fields{
		"from":       status,
		"status":     state.Status,
		"transition": transition,
		"checkout":   state.CheckoutTime,
	}).Info("cycle advanced")
	controller.emit(Event{
		Type:       EventTransition,
		Transition: transition,
		State:      state,
		Phase:      state.Phase(),
		Remaining:  state.Remaining(now),
		At:         now,
	})
	return transition, nil
}

// State returns the last known state from the observable values.
func (controller *Controller) State() model.CycleState {
	return model.CycleState{
		Status:       controller.repo.CurrentStatus().Value(),
		CheckinTime:  controller.repo.CheckinTimestamp().Value(),
		CheckoutTime: controller.repo.CheckoutTimestamp().Value(),
		CurrentTime:  controller.repo.CurrentTimestamp().Value(),
	}
}

// UpdateConfig replaces the configuration. A new shift length applies to
// the next check-in only.
func (controller *Controller) UpdateConfig(config model.CycleConfig) {
	controller.mu.Lock()
	controller.config = normalizeConfig(config)
	controller.mu.Unlock()
}

// Config returns the active configuration.
func (controller *Controller) Config() model.CycleConfig {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.config
}

// Subscribe registers a new observer channel.
func (controller *Controller) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	controller.mu.Lock()
	controller.events = append(controller.events, ch)
	controller.mu.Unlock()
	return ch
}

// Start launches the progress ticker.
func (controller *Controller) Start() {
	controller.mu.Lock()
	if controller.running {
		controller.mu.Unlock()
		return
	}
	controller.running = true
	controller.stopCh = make(chan struct{})
	stopCh := controller.stopCh
	interval := controller.config.TickInterval
	controller.mu.Unlock()

	go controller.run(interval, stopCh)
}

// Stop terminates the ticker and closes observers.
func (controller *Controller) Stop() {
	controller.mu.Lock()
	if !controller.running {
		controller.mu.Unlock()
		return
	}
	close(controller.stopCh)
	controller.running = false
	events := controller.events
	controller.events = nil
	controller.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (controller *Controller) run(interval time.Duration, stopCh chan struct{}) {
	ticker := controller.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case tickTime := <-ticker.Chan():
			controller.tick(tickTime)
		}
	}
}

func (controller *Controller) tick(now time.Time) {
	state := controller.State()
	if state.Status == 0 {
		return
	}
	controller.emit(Event{
		Type:      EventProgress,
		State:     state,
		Phase:     state.Phase(),
		Remaining: state.Remaining(now),
		At:        now,
	})
}

func (controller *Controller) saveCheckin(millis int64) func(context.Context) error {
	return func(ctx context.Context) error { return controller.repo.SaveCheckinTimestamp(ctx, millis) }
}

func (controller *Controller) saveCheckout(millis int64) func(context.Context) error {
	return func(ctx context.Context) error { return controller.repo.SaveCheckoutTimestamp(ctx, millis) }
}

func (controller *Controller) saveCurrent(millis int64) func(context.Context) error {
	return func(ctx context.Context) error { return controller.repo.SaveCurrentTimestamp(ctx, millis) }
}

func (controller *Controller) saveStatus(status int) func(context.Context) error {
	return func(ctx context.Context) error { return controller.repo.SaveCurrentStatus(ctx, status) }
}

func (controller *Controller) emit(event Event) {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	for _, ch := range controller.events {
		select {
		case ch <- event:
		default:
		}
	}
}

func normalizeConfig(config model.CycleConfig) model.CycleConfig {
	if config.ShiftDuration <= 0 {
		config.ShiftDuration = model.DefaultShiftDuration
	}
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	return config
}
