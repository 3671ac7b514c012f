package main

import (
	"context"
	"os"

	"cardtap/internal/core/cycle"
	"cardtap/internal/logging"
	"cardtap/internal/platform"
	"cardtap/internal/storage"
	"cardtap/internal/ui/face"
	"cardtap/internal/ui/preferences"
	"cardtap/internal/ui/tray"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
)

const (
	appName = "CardTap"
	appID   = "com.cardtap.app"
)

var CLI struct {
	ConfigDir string `help:"Configuration directory (defaults to the user config dir)" type:"path"`
	Backend   string `help:"State backend: preferences, yaml or sqlite"`
	LogLevel  string `help:"Log level: debug, info, warn or error"`

	Run     struct{} `cmd:"" default:"1" help:"Open the tap face"`
	Advance struct{} `cmd:"" help:"Advance the cycle once and print the new state"`
	Status  struct{} `cmd:"" help:"Print the current cycle state"`
}

// runtime bundles what every command needs.
type runtime struct {
	configDir  string
	settings   preferences.Settings
	logger     *logrus.Logger
	fyneApp    fyne.App
	store      *storage.Store
	controller *cycle.Controller
	closeKV    func() error
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name("cardtap"),
		kong.Description("Check-in/check-out cycle tracker."),
	)
	command := kctx.Command()

	configDir, settings, err := loadSettings()
	logger := logging.New(settings.LogLevel, settings.LogFormat)
	if err != nil {
		logger.WithError(err).Warn("using default settings")
	}

	release := func() {}
	if needsInstanceGuard(command) {
		guard, err := platform.AcquireSingleInstance(appName, settings.DataDir)
		if err != nil {
			logger.WithError(err).Error("single instance")
			os.Exit(1)
		}
		release = func() { _ = guard.Release() }
	}
	defer release()

	rt, err := open(context.Background(), configDir, settings, logger)
	if err != nil {
		logger.WithError(err).Error("open state")
		release()
		os.Exit(1)
	}
	defer func() {
		if err := rt.closeKV(); err != nil {
			logger.WithError(err).Warn("close state")
		}
	}()

	switch command {
	case "advance":
		err = runAdvance(context.Background(), rt, os.Stdout)
	case "status":
		err = runStatus(context.Background(), rt, os.Stdout)
	default:
		runFace(rt)
	}
	if err != nil {
		logger.WithError(err).Error(command)
		_ = rt.closeKV()
		release()
		os.Exit(1)
	}
}

// needsInstanceGuard reports whether command writes state. Read-only
// commands may run next to the face.
func needsInstanceGuard(command string) bool {
	return command != "status"
}

func loadSettings() (string, preferences.Settings, error) {
	configDir := CLI.ConfigDir
	if configDir == "" {
		dir, err := storage.DefaultConfigDir(appName)
		if err != nil {
			return "", preferences.DefaultSettings(), err
		}
		configDir = dir
	}

	storage.LoadEnvFiles(configDir)
	settings, err := storage.LoadSettings(configDir)
	return configDir, applyFlags(storage.ApplyEnv(settings)), err
}

// applyFlags lets command-line flags win over the file and environment.
func applyFlags(settings preferences.Settings) preferences.Settings {
	if CLI.Backend != "" {
		settings.Backend = CLI.Backend
	}
	if CLI.LogLevel != "" {
		settings.LogLevel = CLI.LogLevel
	}
	return settings
}

// preferencesFlush returns the app's stop hook, which saves pending
// preference changes synchronously. Run calls it on exit; headless
// commands never start the loop, so the preferences backend calls it.
func preferencesFlush(fyneApp fyne.App) func() {
	lifecycle, ok := fyneApp.Lifecycle().(interface{ OnStopped() func() })
	if !ok {
		return nil
	}
	return func() {
		if stopped := lifecycle.OnStopped(); stopped != nil {
			stopped()
		}
	}
}

func open(ctx context.Context, configDir string, settings preferences.Settings, logger *logrus.Logger) (*runtime, error) {
	fyneApp := app.NewWithID(appID)

	kv, closeKV, err := storage.OpenBackend(ctx, settings.Backend, storage.BackendOptions{
		Preferences:      fyneApp.Preferences(),
		FlushPreferences: preferencesFlush(fyneApp),
		DataDir:          settings.DataDir,
	})
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"backend":  settings.Backend,
		"data_dir": settings.DataDir,
	}).Debug("state opened")

	store := storage.NewStore(kv, storage.StoreOptions{
		Grace:  settings.SubscriptionGrace,
		Logger: logger.WithField("component", "store"),
	})
	controller := cycle.New(store, settings.CycleConfig(), cycle.Options{
		Logger: logger.WithField("component", "cycle"),
	})

	return &runtime{
		configDir:  configDir,
		settings:   settings,
		logger:     logger,
		fyneApp:    fyneApp,
		store:      store,
		controller: controller,
		closeKV:    closeKV,
	}, nil
}

func runFace(rt *runtime) {
	rt.fyneApp.SetIcon(theme.HistoryIcon())
	tapFace := face.New(rt.fyneApp, rt.controller, face.Options{
		Logger: rt.logger.WithField("component", "face"),
	})
	face.WatchValue(tapFace, rt.store.CurrentStatus())
	face.WatchValue(tapFace, rt.store.CheckoutTimestamp())

	prefsWindow := preferences.New(rt.fyneApp, rt.settings, func(updated preferences.Settings) {
		applySettings(rt, updated)
		if err := storage.SaveSettings(rt.configDir, updated); err != nil {
			rt.logger.WithError(err).Error("save settings")
		}
	})

	stopWatcher := watchSettings(rt, prefsWindow)
	defer stopWatcher()

	if desktopApp, ok := rt.fyneApp.(desktop.App); ok && rt.settings.ShowTray {
		trayManager := tray.New(desktopApp, tray.Callbacks{
			OnShow:        tapFace.Show,
			OnAdvance:     tapFace.Tap,
			OnPreferences: prefsWindow.Show,
			OnQuit:        rt.fyneApp.Quit,
		})
		desktopApp.SetSystemTrayIcon(theme.HistoryIcon())
		updateTray(rt, trayManager)

		events := rt.controller.Subscribe(4)
		go func() {
			for event := range events {
				if event.Type == cycle.EventError {
					continue
				}
				fyne.Do(func() {
					updateTray(rt, trayManager)
				})
			}
		}()
	}

	tapFace.Window().SetMaster()
	rt.controller.Start()
	tapFace.Show()
	rt.fyneApp.Run()

	rt.controller.Stop()
	tapFace.Close()
}

func watchSettings(rt *runtime, prefsWindow *preferences.Window) func() {
	noop := func() {}
	if err := os.MkdirAll(rt.configDir, 0o755); err != nil {
		rt.logger.WithError(err).Warn("settings hot reload disabled")
		return noop
	}
	watcher, err := storage.NewSettingsWatcher(rt.configDir, rt.logger.WithField("component", "settings"), func(updated preferences.Settings) {
		applySettings(rt, updated)
		fyne.Do(func() {
			prefsWindow.UpdateSettings(updated)
		})
	})
	if err != nil {
		rt.logger.WithError(err).Warn("settings hot reload disabled")
		return noop
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := watcher.Start(ctx); err != nil {
		cancel()
		watcher.Stop()
		rt.logger.WithError(err).Warn("settings hot reload disabled")
		return noop
	}
	return func() {
		watcher.Stop()
		cancel()
	}
}

func applySettings(rt *runtime, updated preferences.Settings) {
	updated = applyFlags(updated)
	rt.controller.UpdateConfig(updated.CycleConfig())
	if level, err := logrus.ParseLevel(updated.LogLevel); err == nil {
		rt.logger.SetLevel(level)
	}
	if updated.Backend != rt.settings.Backend {
		rt.logger.WithField("backend", updated.Backend).Info("backend change applies after restart")
	}
}

func updateTray(rt *runtime, trayManager *tray.Manager) {
	state := rt.controller.State()
	now := nowFunc()
	trayManager.SetStatus(face.PhaseTitle(state, now))
	trayManager.SetActionLabel(face.ActionLabel(state, now))
}
