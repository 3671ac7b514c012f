package face

import (
	"context"
	"sync"

	"cardtap/internal/core/cycle"
	"cardtap/internal/core/model"
	"cardtap/internal/core/observable"
	"cardtap/internal/ui/theme"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Controller is the part of the cycle controller the face needs.
type Controller interface {
	Advance(ctx context.Context) (cycle.Transition, error)
	State() model.CycleState
	Subscribe(buffer int) <-chan cycle.Event
}

// Options contains optional dependencies for the face.
type Options struct {
	Clock  clockwork.Clock
	Logger logrus.FieldLogger
	// OnAdvanced runs after every successful tap.
	OnAdvanced func(model.CycleState)
}

// Window is the single-button status screen.
type Window struct {
	window     fyne.Window
	controller Controller
	clock      clockwork.Clock
	logger     logrus.FieldLogger
	onAdvanced func(model.CycleState)

	title  binding.String
	detail binding.String
	button *widget.Button

	mu          sync.Mutex
	closeOnce   sync.Once
	unsubscribe []func()
}

// New creates the face window. It redraws on every controller event.
func New(app fyne.App, controller Controller, options Options) *Window {
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	if options.Logger == nil {
		silent := logrus.New()
		silent.SetLevel(logrus.PanicLevel)
		options.Logger = silent
	}

	window := app.NewWindow("CardTap")
	title := binding.NewString()
	detail := binding.NewString()

	titleLabel := widget.NewLabelWithData(title)
	titleLabel.Alignment = fyne.TextAlignCenter
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}

	detailLabel := widget.NewLabelWithData(detail)
	detailLabel.Alignment = fyne.TextAlignCenter
	detailLabel.Wrapping = fyne.TextWrapWord

	button := widget.NewButton("Check in", nil)
	button.Importance = widget.HighImportance

	content := container.NewVBox(titleLabel, detailLabel, button)
	window.SetContent(theme.Wrap(container.NewPadded(content)))
	window.Resize(fyne.NewSize(260, 260))

	face := &Window{
		window:     window,
		controller: controller,
		clock:      options.Clock,
		logger:     options.Logger,
		onAdvanced: options.OnAdvanced,
		title:      title,
		detail:     detail,
		button:     button,
	}
	button.OnTapped = face.handleTap
	face.render(controller.State())

	events := controller.Subscribe(4)
	go func() {
		for range events {
			face.refresh()
		}
	}()

	return face
}

// WatchValue redraws the face whenever value changes. The subscription is
// released by Close.
func WatchValue[T comparable](face *Window, value *observable.Value[T]) {
	changes, cancel := value.Subscribe(1)
	face.mu.Lock()
	face.unsubscribe = append(face.unsubscribe, cancel)
	face.mu.Unlock()
	go func() {
		for range changes {
			face.refresh()
		}
	}()
}

// Show displays the window.
func (face *Window) Show() {
	face.window.Show()
	face.window.RequestFocus()
}

// Window exposes the underlying Fyne window.
func (face *Window) Window() fyne.Window {
	return face.window
}

// Tap performs the same action as pressing the button.
func (face *Window) Tap() {
	face.handleTap()
}

// Close releases subscriptions and closes the window.
func (face *Window) Close() {
	face.closeOnce.Do(func() {
		face.mu.Lock()
		cancels := face.unsubscribe
		face.unsubscribe = nil
		face.mu.Unlock()
		for _, cancel := range cancels {
			cancel()
		}
		face.window.Close()
	})
}

func (face *Window) handleTap() {
	transition, err := face.controller.Advance(context.Background())
	if err != nil {
		face.logger.WithError(err).Error("tap failed")
		dialog.ShowError(err, face.window)
		return
	}
	state := face.controller.State()
	face.logger.WithField("transition", transition).Debug("tap handled")
	face.render(state)
	if face.onAdvanced != nil {
		face.onAdvanced(state)
	}
}

func (face *Window) refresh() {
	state := face.controller.State()
	fyne.Do(func() {
		face.render(state)
	})
}

func (face *Window) render(state model.CycleState) {
	now := face.clock.Now()
	_ = face.title.Set(PhaseTitle(state, now))
	_ = face.detail.Set(DetailText(state, now))
	face.button.SetText(ActionLabel(state, now))
}
