package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"cardtap/internal/ui/preferences"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const defaultReloadDebounce = 300 * time.Millisecond

// SettingsWatcher reloads settings.yaml when it changes on disk.
type SettingsWatcher struct {
	configDir string
	onChange  func(preferences.Settings)
	logger    logrus.FieldLogger
	debounce  time.Duration

	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewSettingsWatcher prepares a watcher for configDir. Reloaded settings have
// environment overrides applied before onChange is called.
func NewSettingsWatcher(configDir string, logger logrus.FieldLogger, onChange func(preferences.Settings)) (*SettingsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create settings watcher: %w", err)
	}
	return &SettingsWatcher{
		configDir: configDir,
		onChange:  onChange,
		logger:    logger,
		debounce:  defaultReloadDebounce,
		watcher:   watcher,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// Start watches the config directory; the file itself may not exist yet.
// A failed Start releases the watcher, and Stop then returns at once.
func (sw *SettingsWatcher) Start(ctx context.Context) error {
	if err := sw.watcher.Add(sw.configDir); err != nil {
		sw.close()
		close(sw.done)
		return fmt.Errorf("watch config directory %s: %w", sw.configDir, err)
	}
	sw.logger.WithField("path", SettingsPath(sw.configDir)).Info("watching settings")
	go sw.loop(ctx)
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (sw *SettingsWatcher) Stop() {
	sw.close()
	<-sw.done
}

func (sw *SettingsWatcher) close() {
	sw.stopOnce.Do(func() {
		close(sw.stopCh)
		if err := sw.watcher.Close(); err != nil {
			sw.logger.WithError(err).Warn("close settings watcher")
		}
	})
}

func (sw *SettingsWatcher) loop(ctx context.Context) {
	defer close(sw.done)

	var reload *time.Timer
	defer func() {
		if reload != nil {
			reload.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sw.stopCh:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != settingsFileName {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if reload != nil {
				reload.Stop()
			}
			reload = time.AfterFunc(sw.debounce, sw.reload)
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			sw.logger.WithError(err).Warn("settings watcher error")
		}
	}
}

func (sw *SettingsWatcher) reload() {
	settings, err := LoadSettings(sw.configDir)
	if err != nil {
		sw.logger.WithError(err).Error("reload settings")
		return
	}
	sw.logger.Info("settings reloaded")
	sw.onChange(ApplyEnv(settings))
}
