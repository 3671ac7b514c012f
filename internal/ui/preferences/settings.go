package preferences

import (
	"time"

	"cardtap/internal/core/model"
	"cardtap/internal/core/observable"
)

// Settings defines editable user preferences.
type Settings struct {
	ShiftDuration     time.Duration
	SubscriptionGrace time.Duration
	TickInterval      time.Duration

	Backend string
	DataDir string

	LogLevel  string
	LogFormat string
	ShowTray  bool
}

// DefaultSettings returns default settings for CardTap.
func DefaultSettings() Settings {
	return Settings{
		ShiftDuration:     model.DefaultShiftDuration,
		SubscriptionGrace: observable.DefaultGrace,
		TickInterval:      time.Second,
		Backend:           "preferences",
		LogLevel:          "info",
		LogFormat:         "text",
		ShowTray:          true,
	}
}

// CycleConfig converts settings to the controller configuration.
func (settings Settings) CycleConfig() model.CycleConfig {
	return model.CycleConfig{
		ShiftDuration: settings.ShiftDuration,
		TickInterval:  settings.TickInterval,
	}
}
