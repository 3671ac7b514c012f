package storage

import (
	"context"
	"math"
	"testing"
	"time"

	"cardtap/internal/core/model"

	"fyne.io/fyne/v2/test"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPreferencesStore(t *testing.T, clock clockwork.Clock) (*Store, *PreferencesKV) {
	t.Helper()
	app := test.NewApp()
	t.Cleanup(app.Quit)
	kv := NewPreferencesKV(app.Preferences())
	return NewStore(kv, StoreOptions{Clock: clock}), kv
}

func TestStoreDefaultsToZero(t *testing.T) {
	store, _ := newPreferencesStore(t, clockwork.NewFakeClock())

	assert.Zero(t, store.CurrentStatus().Value())
	assert.Zero(t, store.CheckoutTimestamp().Value())
	assert.Zero(t, store.CurrentTimestamp().Value())
	assert.Zero(t, store.CheckinTimestamp().Value())

	state, err := store.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.CycleState{}, state)
}

func TestStoreSavePersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	store, kv := newPreferencesStore(t, clockwork.NewFakeClock())

	checkouts, unsubscribe := store.CheckoutTimestamp().Subscribe(1)
	defer unsubscribe()
	require.Zero(t, <-checkouts)

	require.NoError(t, store.SaveCheckoutTimestamp(ctx, 29_800_000))
	require.NoError(t, store.SaveCheckinTimestamp(ctx, 1000))
	require.NoError(t, store.SaveCurrentTimestamp(ctx, 2000))
	require.NoError(t, store.SaveCurrentStatus(ctx, 2))

	select {
	case got := <-checkouts:
		assert.Equal(t, int64(29_800_000), got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for checkout")
	}

	persisted, err := kv.Int64(ctx, KeyCheckoutTimestamp)
	require.NoError(t, err)
	assert.Equal(t, int64(29_800_000), persisted)

	state, err := store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.CycleState{Status: 2, CheckinTime: 1000, CheckoutTime: 29_800_000, CurrentTime: 2000}, state)
	assert.Equal(t, 2, store.CurrentStatus().Value())
}

func TestStoreReadsExistingValuesOnFirstSubscribe(t *testing.T) {
	ctx := context.Background()
	store, kv := newPreferencesStore(t, clockwork.NewFakeClock())
	require.NoError(t, kv.SetInt64(ctx, KeyCurrentStatus, 3))

	statuses, unsubscribe := store.CurrentStatus().Subscribe(1)
	defer unsubscribe()

	assert.Equal(t, 3, <-statuses)
}

func TestStoreRejectsOutOfRangeStatus(t *testing.T) {
	store, _ := newPreferencesStore(t, clockwork.NewFakeClock())

	err := store.SaveCurrentStatus(context.Background(), math.MaxInt32+1)

	assert.ErrorIs(t, err, ErrStatusOutOfRange)
	assert.Zero(t, store.CurrentStatus().Value())
}

func TestStoreSubscriptionOutlivesGrace(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store, _ := newPreferencesStore(t, clock)

	_, unsubscribe := store.CurrentStatus().Subscribe(1)
	unsubscribe()
	assert.True(t, store.CurrentStatus().Active())

	clock.Advance(time.Second)
	assert.Eventually(t, func() bool { return !store.CurrentStatus().Active() }, time.Second, 5*time.Millisecond)
}
