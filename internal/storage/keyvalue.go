package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
)

// Backend names accepted by OpenBackend.
const (
	BackendPreferences = "preferences"
	BackendYAML        = "yaml"
	BackendSQLite      = "sqlite"
)

// ErrUnknownBackend is returned for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// KeyValue is a durable int64 container. Missing keys read as zero.
type KeyValue interface {
	Int64(ctx context.Context, key string) (int64, error)
	SetInt64(ctx context.Context, key string, value int64) error
}

// Flusher is implemented by containers that buffer writes.
type Flusher interface {
	Flush(ctx context.Context) error
}

// BackendOptions carries what each backend needs to open.
type BackendOptions struct {
	Preferences fyne.Preferences
	// FlushPreferences writes buffered preference changes to disk. Fyne
	// only does this itself when the app loop stops.
	FlushPreferences func()
	DataDir          string
}

// OpenBackend opens the named backend. The returned close function is never nil.
func OpenBackend(ctx context.Context, name string, options BackendOptions) (KeyValue, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendPreferences:
		if options.Preferences == nil {
			return nil, noop, fmt.Errorf("open %s backend: no preferences container", BackendPreferences)
		}
		kv := NewPreferencesKV(options.Preferences)
		kv.flush = options.FlushPreferences
		return kv, func() error { return kv.Flush(ctx) }, nil
	case BackendYAML:
		return NewYAMLKV(filepath.Join(options.DataDir, stateFileName)), noop, nil
	case BackendSQLite:
		kv, err := OpenSQLiteKV(ctx, filepath.Join(options.DataDir, databaseFileName))
		if err != nil {
			return nil, noop, err
		}
		return kv, kv.Close, nil
	default:
		return nil, noop, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// PreferencesKV stores values in the Fyne application preferences.
type PreferencesKV struct {
	prefs fyne.Preferences
	flush func()
}

// NewPreferencesKV wraps a Fyne preferences container.
func NewPreferencesKV(prefs fyne.Preferences) *PreferencesKV {
	return &PreferencesKV{prefs: prefs}
}

func (kv *PreferencesKV) Int64(_ context.Context, key string) (int64, error) {
	return int64(kv.prefs.IntWithFallback(key, 0)), nil
}

func (kv *PreferencesKV) SetInt64(_ context.Context, key string, value int64) error {
	kv.prefs.SetInt(key, int(value))
	return nil
}

// Flush forces pending preference writes to disk. Without a flush hook the
// container is assumed to persist on its own.
func (kv *PreferencesKV) Flush(_ context.Context) error {
	if kv.flush != nil {
		kv.flush()
	}
	return nil
}
