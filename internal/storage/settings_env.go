package storage

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cardtap/internal/ui/preferences"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CARDTAP_"

// LoadEnvFiles loads .env from the working directory and configDir.
// Variables already set in the environment win, and missing files are ignored.
func LoadEnvFiles(configDir string) {
	envFiles := []string{".env"}
	if configDir != "" {
		envFiles = append(envFiles, filepath.Join(configDir, ".env"))
	}
	for _, envFile := range envFiles {
		_ = godotenv.Load(envFile)
	}
}

// ApplyEnv overrides settings from CARDTAP_* variables. Unparseable values
// leave the current setting in place.
func ApplyEnv(settings preferences.Settings) preferences.Settings {
	if minutes, ok := lookupInt("SHIFT_MINUTES"); ok && minutes > 0 {
		settings.ShiftDuration = time.Duration(minutes) * time.Minute
	}
	if grace, ok := lookupDuration("SUBSCRIPTION_GRACE"); ok && grace > 0 {
		settings.SubscriptionGrace = grace
	}
	if tick, ok := lookupDuration("TICK_INTERVAL"); ok && tick >= 100*time.Millisecond {
		settings.TickInterval = tick
	}
	if backend, ok := lookup("BACKEND"); ok && backend != "" {
		settings.Backend = backend
	}
	if dataDir, ok := lookup("DATA_DIR"); ok && dataDir != "" {
		settings.DataDir = dataDir
	}
	if level, ok := lookup("LOG_LEVEL"); ok && level != "" {
		settings.LogLevel = level
	}
	if format, ok := lookup("LOG_FORMAT"); ok && format != "" {
		settings.LogFormat = format
	}
	if value, ok := lookup("SHOW_TRAY"); ok {
		if showTray, err := strconv.ParseBool(value); err == nil {
			settings.ShowTray = showTray
		}
	}
	return settings
}

func lookup(name string) (string, bool) {
	value, ok := os.LookupEnv(EnvPrefix + name)
	return strings.TrimSpace(value), ok
}

func lookupInt(name string) (int, bool) {
	value, ok := lookup(name)
	if !ok {
		return 0, false
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func lookupDuration(name string) (time.Duration, bool) {
	value, ok := lookup(name)
	if !ok {
		return 0, false
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, false
	}
	return parsed, true
}
