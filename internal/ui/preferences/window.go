package preferences

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
)

var (
	backendOptions   = []string{"preferences", "yaml", "sqlite"}
	logLevelOptions  = []string{"debug", "info", "warn", "error"}
	logFormatOptions = []string{"text", "json"}
)

// Window handles the preferences UI.
type Window struct {
	window    fyne.Window
	settings  Settings
	onSave    func(Settings)
	shiftMin  *widget.Entry
	graceMs   *widget.Entry
	backend   *widget.Select
	logLevel  *widget.Select
	logFormat *widget.Select
	showTray  *widget.Check
}

// New creates a preferences window.
func New(app fyne.App, settings Settings, onSave func(Settings)) *Window {
	window := app.NewWindow("CardTap Settings")

	prefs := &Window{
		window:    window,
		onSave:    onSave,
		shiftMin:  widget.NewEntry(),
		graceMs:   widget.NewEntry(),
		backend:   widget.NewSelect(backendOptions, nil),
		logLevel:  widget.NewSelect(logLevelOptions, nil),
		logFormat: widget.NewSelect(logFormatOptions, nil),
		showTray:  widget.NewCheck("Show tray icon", nil),
	}
	prefs.UpdateSettings(settings)

	form := container.NewVBox(
		widget.NewLabelWithStyle("Shift", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Shift length"), prefs.shiftMin, widget.NewLabel("min")),
		container.NewHBox(widget.NewLabel("Keep values warm for"), prefs.graceMs, widget.NewLabel("ms")),
		widget.NewLabelWithStyle("Storage", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Backend (restart to apply)"), prefs.backend),
		widget.NewLabelWithStyle("Logging", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(widget.NewLabel("Level"), prefs.logLevel, widget.NewLabel("Format"), prefs.logFormat),
		prefs.showTray,
	)

	saveButton := widget.NewButton("Save", prefs.handleSave)
	cancelButton := widget.NewButton("Cancel", func() {
		window.Hide()
	})
	buttons := container.NewHBox(saveButton, layout.NewSpacer(), cancelButton)

	window.SetContent(container.NewBorder(nil, buttons, nil, nil, form))
	window.Resize(fyne.NewSize(420, 320))
	return prefs
}

// Show displays the preferences window.
func (prefs *Window) Show() {
	prefs.window.Show()
	prefs.window.RequestFocus()
}

// UpdateSettings replaces window values.
func (prefs *Window) UpdateSettings(settings Settings) {
	prefs.settings = settings
	prefs.shiftMin.SetText(fmt.Sprintf("%d", int(settings.ShiftDuration.Minutes())))
	prefs.graceMs.SetText(fmt.Sprintf("%d", settings.SubscriptionGrace.Milliseconds()))
	prefs.backend.SetSelected(strings.ToLower(settings.Backend))
	prefs.logLevel.SetSelected(strings.ToLower(settings.LogLevel))
	prefs.logFormat.SetSelected(strings.ToLower(settings.LogFormat))
	prefs.showTray.SetChecked(settings.ShowTray)
}

// Settings returns the last saved or applied settings.
func (prefs *Window) Settings() Settings {
	return prefs.settings
}

func (prefs *Window) handleSave() {
	settings := prefs.settings

	if minutes, ok := parsePositiveInt(prefs.shiftMin.Text); ok {
		settings.ShiftDuration = time.Duration(minutes) * time.Minute
	}
	if millis, ok := parsePositiveInt(prefs.graceMs.Text); ok {
		settings.SubscriptionGrace = time.Duration(millis) * time.Millisecond
	}
	if prefs.backend.Selected != "" {
		settings.Backend = prefs.backend.Selected
	}
	if prefs.logLevel.Selected != "" {
		settings.LogLevel = prefs.logLevel.Selected
	}
	if prefs.logFormat.Selected != "" {
		settings.LogFormat = prefs.logFormat.Selected
	}
	settings.ShowTray = prefs.showTray.Checked

	prefs.settings = settings
	if prefs.onSave != nil {
		prefs.onSave(settings)
	}
	prefs.window.Hide()
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
