package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cardtap/internal/core/cycle"
	"cardtap/internal/logging"
	"cardtap/internal/storage"
	"cardtap/internal/ui/preferences"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeadlessRuntime(t *testing.T, clock clockwork.Clock) *runtime {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return newLoggedRuntime(t, clock, logger)
}

func newLoggedRuntime(t *testing.T, clock clockwork.Clock, logger *logrus.Logger) *runtime {
	t.Helper()
	dir := t.TempDir()
	kv := storage.NewYAMLKV(filepath.Join(dir, "state.yaml"))
	store := storage.NewStore(kv, storage.StoreOptions{Clock: clock, Logger: logger})
	settings := preferences.DefaultSettings()
	return &runtime{
		configDir: dir,
		settings:  settings,
		logger:    logger,
		store:     store,
		controller: cycle.New(store, settings.CycleConfig(), cycle.Options{
			Clock:  clock,
			Logger: logger,
		}),
		closeKV: func() error { return nil },
	}
}

func TestRunAdvanceThenStatus(t *testing.T) {
	start := time.Date(2026, 10, 15, 9, 0, 0, 0, time.Local)
	clock := clockwork.NewFakeClockAt(start)
	nowFunc = clock.Now
	t.Cleanup(func() { nowFunc = time.Now })
	rt := newHeadlessRuntime(t, clock)

	var out bytes.Buffer
	require.NoError(t, runAdvance(context.Background(), rt, &out))
	assert.Equal(t, "check_in\nOn break (status 1): Checkout 17:00, 08:00:00 left\n", out.String())

	out.Reset()
	clock.Advance(30 * time.Minute)
	require.NoError(t, runStatus(context.Background(), rt, &out))
	assert.Equal(t, "On break (status 1): Checkout 17:00, 07:30:00 left\n", out.String())
}

func TestRunStatusIdle(t *testing.T) {
	rt := newHeadlessRuntime(t, clockwork.NewFakeClock())

	var out bytes.Buffer
	require.NoError(t, runStatus(context.Background(), rt, &out))

	assert.Equal(t, "Checked out (status 0): Tap to check in\n", out.String())
}

func TestRunAdvanceKeepsStdoutForResults(t *testing.T) {
	start := time.Date(2026, 10, 15, 9, 0, 0, 0, time.Local)
	clock := clockwork.NewFakeClockAt(start)
	nowFunc = clock.Now
	t.Cleanup(func() { nowFunc = time.Now })

	reader, writer, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = writer
	t.Cleanup(func() { os.Stdout = stdout })

	rt := newLoggedRuntime(t, clock, logging.New("debug", "text"))
	runErr := runAdvance(context.Background(), rt, os.Stdout)
	os.Stdout = stdout
	require.NoError(t, writer.Close())
	require.NoError(t, runErr)

	printed, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "check_in\nOn break (status 1): Checkout 17:00, 08:00:00 left\n", string(printed))
}

func TestRunAdvancePersistsEveryFieldWithPreferencesBackend(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", root)
	t.Setenv("TMPDIR", root)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	settings := preferences.DefaultSettings()
	settings.Backend = storage.BackendPreferences
	settings.DataDir = root

	rt, err := open(context.Background(), root, settings, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.closeKV() })

	require.NoError(t, runAdvance(context.Background(), rt, io.Discard))

	raw, err := os.ReadFile(filepath.Join(rt.fyneApp.Storage().RootURI().Path(), "preferences.json"))
	require.NoError(t, err)
	var persisted map[string]int64
	require.NoError(t, json.Unmarshal(raw, &persisted))

	assert.Equal(t, int64(1), persisted[storage.KeyCurrentStatus])
	require.Contains(t, persisted, storage.KeyCheckinTimestamp)
	require.Contains(t, persisted, storage.KeyCheckoutTimestamp)
	assert.Equal(t, settings.ShiftDuration.Milliseconds(),
		persisted[storage.KeyCheckoutTimestamp]-persisted[storage.KeyCheckinTimestamp])
}

func TestApplySettingsKeepsFlagOverrides(t *testing.T) {
	CLI.LogLevel = "error"
	t.Cleanup(func() { CLI.LogLevel = "" })
	rt := newHeadlessRuntime(t, clockwork.NewFakeClock())

	updated := preferences.DefaultSettings()
	updated.LogLevel = "debug"
	updated.ShiftDuration = 2 * time.Hour
	applySettings(rt, updated)

	assert.Equal(t, logrus.ErrorLevel, rt.logger.GetLevel())
	assert.Equal(t, 2*time.Hour, rt.controller.Config().ShiftDuration)
}

func TestOnlyWritingCommandsTakeInstanceGuard(t *testing.T) {
	assert.True(t, needsInstanceGuard("run"))
	assert.True(t, needsInstanceGuard("advance"))
	assert.False(t, needsInstanceGuard("status"))
}
