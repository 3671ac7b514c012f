package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cardtap/internal/ui/preferences"

	"gopkg.in/yaml.v3"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	ShiftMinutes int    `yaml:"shift_minutes"`
	GraceMillis  int    `yaml:"subscription_grace_millis"`
	TickMillis   int    `yaml:"tick_millis"`
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
	ShowTray     *bool  `yaml:"show_tray,omitempty"`
}

// SettingsPath returns the settings file location inside configDir.
func SettingsPath(configDir string) string {
	return filepath.Join(configDir, settingsFileName)
}

// DefaultConfigDir returns the per-user config directory for appName.
func DefaultConfigDir(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName), nil
}

// LoadSettings reads user preferences from YAML in configDir.
// If the file does not exist, default settings are returned.
func LoadSettings(configDir string) (preferences.Settings, error) {
	settings := preferences.DefaultSettings()
	settings.DataDir = configDir

	rawData, err := os.ReadFile(SettingsPath(configDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, fmt.Errorf("parse settings yaml: %w", err)
	}

	applyYamlSettings(&settings, fileData)
	return settings, nil
}

// SaveSettings writes user preferences to YAML in configDir.
func SaveSettings(configDir string, settings preferences.Settings) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	showTray := settings.ShowTray
	fileData := yamlSettings{
		ShiftMinutes: int(settings.ShiftDuration / time.Minute),
		GraceMillis:  int(settings.SubscriptionGrace / time.Millisecond),
		TickMillis:   int(settings.TickInterval / time.Millisecond),
		Backend:      settings.Backend,
		LogLevel:     settings.LogLevel,
		LogFormat:    settings.LogFormat,
		ShowTray:     &showTray,
	}
	if settings.DataDir != configDir {
		fileData.DataDir = settings.DataDir
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(SettingsPath(configDir), serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func applyYamlSettings(settings *preferences.Settings, fileData yamlSettings) {
	if fileData.ShiftMinutes > 0 {
		settings.ShiftDuration = time.Duration(fileData.ShiftMinutes) * time.Minute
	}
	if fileData.GraceMillis > 0 {
		settings.SubscriptionGrace = time.Duration(fileData.GraceMillis) * time.Millisecond
	}
	if fileData.TickMillis >= 100 {
		settings.TickInterval = time.Duration(fileData.TickMillis) * time.Millisecond
	}
	if fileData.Backend != "" {
		settings.Backend = fileData.Backend
	}
	if fileData.DataDir != "" {
		settings.DataDir = fileData.DataDir
	}
	if fileData.LogLevel != "" {
		settings.LogLevel = fileData.LogLevel
	}
	if fileData.LogFormat != "" {
		settings.LogFormat = fileData.LogFormat
	}
	if fileData.ShowTray != nil {
		settings.ShowTray = *fileData.ShowTray
	}
}
