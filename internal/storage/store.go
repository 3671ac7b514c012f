package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"cardtap/internal/core/model"
	"cardtap/internal/core/observable"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Persisted key names. They are part of the on-disk layout.
const (
	KeyCurrentTimestamp  = "current_timestamp"
	KeyCheckoutTimestamp = "checkout_timestamp"
	KeyCheckinTimestamp  = "checkin_timestamp"
	KeyCurrentStatus     = "current_status"
)

// ErrStatusOutOfRange is returned when a status does not fit in 32 bits.
var ErrStatusOutOfRange = errors.New("status out of 32-bit range")

// StoreOptions configures a Store.
type StoreOptions struct {
	Clock  clockwork.Clock
	Grace  time.Duration
	Logger logrus.FieldLogger
}

// Store exposes the four cycle fields as observable values backed by a
// KeyValue container. Each save persists first and then publishes.
type Store struct {
	kv     KeyValue
	logger logrus.FieldLogger

	currentTimestamp  *observable.Value[int64]
	checkoutTimestamp *observable.Value[int64]
	checkinTimestamp  *observable.Value[int64]
	currentStatus     *observable.Value[int]
}

// NewStore builds a store over kv.
func NewStore(kv KeyValue, options StoreOptions) *Store {
	if options.Clock == nil {
		options.Clock = clockwork.NewRealClock()
	}
	if options.Grace <= 0 {
		options.Grace = observable.DefaultGrace
	}
	if options.Logger == nil {
		silent := logrus.New()
		silent.SetLevel(logrus.PanicLevel)
		options.Logger = silent
	}

	store := &Store{kv: kv, logger: options.Logger}
	store.currentTimestamp = store.int64Value(KeyCurrentTimestamp, options)
	store.checkoutTimestamp = store.int64Value(KeyCheckoutTimestamp, options)
	store.checkinTimestamp = store.int64Value(KeyCheckinTimestamp, options)
	store.currentStatus = observable.New(0, func() (int, error) {
		value, err := kv.Int64(context.Background(), KeyCurrentStatus)
		return int(value), err
	}, store.valueOptions(KeyCurrentStatus, options))
	return store
}

// CurrentTimestamp is the checkpoint of the last break-to-active switch.
func (store *Store) CurrentTimestamp() *observable.Value[int64] { return store.currentTimestamp }

// CheckoutTimestamp is the cycle deadline.
func (store *Store) CheckoutTimestamp() *observable.Value[int64] { return store.checkoutTimestamp }

// CheckinTimestamp is the cycle start. Nothing in the cycle reads it.
func (store *Store) CheckinTimestamp() *observable.Value[int64] { return store.checkinTimestamp }

// CurrentStatus is the raw status counter.
func (store *Store) CurrentStatus() *observable.Value[int] { return store.currentStatus }

func (store *Store) SaveCurrentTimestamp(ctx context.Context, millis int64) error {
	return store.saveInt64(ctx, KeyCurrentTimestamp, millis, store.currentTimestamp)
}

func (store *Store) SaveCheckoutTimestamp(ctx context.Context, millis int64) error {
	return store.saveInt64(ctx, KeyCheckoutTimestamp, millis, store.checkoutTimestamp)
}

func (store *Store) SaveCheckinTimestamp(ctx context.Context, millis int64) error {
	return store.saveInt64(ctx, KeyCheckinTimestamp, millis, store.checkinTimestamp)
}

func (store *Store) SaveCurrentStatus(ctx context.Context, status int) error {
	if status < math.MinInt32 || status > math.MaxInt32 {
		return fmt.Errorf("save %s: %w: %d", KeyCurrentStatus, ErrStatusOutOfRange, status)
	}
	if err := store.kv.SetInt64(ctx, KeyCurrentStatus, int64(status)); err != nil {
		return fmt.Errorf("save %s: %w", KeyCurrentStatus, err)
	}
	store.currentStatus.Publish(status)
	store.logger.WithFields(logrus.Fields{"key": KeyCurrentStatus, "value": status}).Debug("saved")
	return nil
}

// Snapshot reads every field straight from the backend.
func (store *Store) Snapshot(ctx context.Context) (model.CycleState, error) {
	var state model.CycleState
	status, err := store.kv.Int64(ctx, KeyCurrentStatus)
	if err != nil {
		return state, fmt.Errorf("read %s: %w", KeyCurrentStatus, err)
	}
	state.Status = int(status)
	if state.CheckinTime, err = store.kv.Int64(ctx, KeyCheckinTimestamp); err != nil {
		return state, fmt.Errorf("read %s: %w", KeyCheckinTimestamp, err)
	}
	if state.CheckoutTime, err = store.kv.Int64(ctx, KeyCheckoutTimestamp); err != nil {
		return state, fmt.Errorf("read %s: %w", KeyCheckoutTimestamp, err)
	}
	if state.CurrentTime, err = store.kv.Int64(ctx, KeyCurrentTimestamp); err != nil {
		return state, fmt.Errorf("read %s: %w", KeyCurrentTimestamp, err)
	}
	return state, nil
}

// Flush pushes buffered writes to disk for backends that buffer them.
func (store *Store) Flush(ctx context.Context) error {
	flusher, ok := store.kv.(Flusher)
	if !ok {
		return nil
	}
	if err := flusher.Flush(ctx); err != nil {
		return fmt.Errorf("flush state: %w", err)
	}
	return nil
}

func (store *Store) saveInt64(ctx context.Context, key string, value int64, target *observable.Value[int64]) error {
	if err := store.kv.SetInt64(ctx, key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	target.Publish(value)
	store.logger.WithFields(logrus.Fields{"key": key, "value": value}).Debug("saved")
	return nil
}

func (store *Store) int64Value(key string, options StoreOptions) *observable.Value[int64] {
	return observable.New(int64(0), func() (int64, error) {
		return store.kv.Int64(context.Background(), key)
	}, store.valueOptions(key, options))
}

func (store *Store) valueOptions(key string, options StoreOptions) observable.Options {
	return observable.Options{
		Clock: options.Clock,
		Grace: options.Grace,
		OnLoadError: func(err error) {
			store.logger.WithError(err).WithField("key", key).Warn("load failed")
		},
	}
}
