package pointstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/fieldbridge/errors"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedStore(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.UpsertDevice(ctx, &Device{
		ID: 1001, Name: "AHU-1 Controller", Address: "10.0.0.5", Port: 47808, Enabled: true,
	}))
	require.NoError(t, store.UpsertDevice(ctx, &Device{
		ID: 1002, Name: "Disabled Controller", Address: "10.0.0.6", Port: 47808, Enabled: false,
	}))

	minV, maxV := 10.0, 30.0
	require.NoError(t, store.UpsertPoint(ctx, &Point{
		DeviceID:       1001,
		Object:         ObjectRef{Type: "analogOutput", Instance: 3},
		SemanticName:   "plant-a.ahu-1.zone-temp.sp",
		DisplayName:    "Zone Temp Setpoint",
		Units:          "degC",
		Writable:       true,
		MinValue:       &minV,
		MaxValue:       &maxV,
		PollInterval:   30 * time.Second,
		QoS:            0,
		PublishEnabled: true,
	}))
	require.NoError(t, store.UpsertPoint(ctx, &Point{
		DeviceID:       1001,
		Object:         ObjectRef{Type: "analogInput", Instance: 1},
		SemanticName:   "plant-a.ahu-1.zone-temp.sensor",
		PollInterval:   60 * time.Second,
		PublishEnabled: true,
	}))
	// Point on the disabled device must not appear in snapshots
	require.NoError(t, store.UpsertPoint(ctx, &Point{
		DeviceID:     1002,
		Object:       ObjectRef{Type: "analogInput", Instance: 1},
		SemanticName: "plant-a.ahu-2.zone-temp.sensor",
		PollInterval: 60 * time.Second,
	}))
}

func TestOpen_BootstrapsEmptyStore(t *testing.T) {
	store := openTestStore(t)

	snap, err := store.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.DeviceCount())
	assert.Equal(t, 0, snap.PointCount())
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestStore_LoadSnapshot(t *testing.T) {
	store := openTestStore(t)
	seedStore(t, store)

	snap, err := store.LoadSnapshot(context.Background())
	require.NoError(t, err)

	// Disabled devices and their points are excluded
	assert.Equal(t, 1, snap.DeviceCount())
	assert.Equal(t, 2, snap.PointCount())

	dev, ok := snap.Device(1001)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.5", dev.Address)
	assert.Equal(t, 47808, dev.Port)

	key := PointKey{DeviceID: 1001, Object: ObjectRef{Type: "analogOutput", Instance: 3}}
	pt, ok := snap.Point(key)
	require.True(t, ok)
	assert.Equal(t, "plant-a.ahu-1.zone-temp.sp", pt.SemanticName)
	assert.True(t, pt.Writable)
	assert.True(t, pt.Settable())
	require.NotNil(t, pt.MinValue)
	assert.Equal(t, 10.0, *pt.MinValue)
	require.NotNil(t, pt.MaxValue)
	assert.Equal(t, 30.0, *pt.MaxValue)
	assert.Equal(t, 30*time.Second, pt.PollInterval)
	assert.Nil(t, pt.LastValue)
	assert.Nil(t, pt.LastPollTime)

	sensorKey := PointKey{DeviceID: 1001, Object: ObjectRef{Type: "analogInput", Instance: 1}}
	sensor, ok := snap.Point(sensorKey)
	require.True(t, ok)
	assert.False(t, sensor.Writable)
	assert.Nil(t, sensor.MinValue)
	assert.Nil(t, sensor.MaxValue)
}

func TestStore_UpdateLatest(t *testing.T) {
	store := openTestStore(t)
	seedStore(t, store)
	ctx := context.Background()

	key := PointKey{DeviceID: 1001, Object: ObjectRef{Type: "analogOutput", Instance: 3}}
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

	require.NoError(t, store.UpdateLatest(ctx, key, 21.5, ts))

	snap, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)

	pt, ok := snap.Point(key)
	require.True(t, ok)
	require.NotNil(t, pt.LastValue)
	assert.Equal(t, 21.5, *pt.LastValue)
	require.NotNil(t, pt.LastPollTime)
	assert.True(t, pt.LastPollTime.Equal(ts))
}

func TestStore_UpdateLatestUnknownPoint(t *testing.T) {
	store := openTestStore(t)
	seedStore(t, store)

	key := PointKey{DeviceID: 9999, Object: ObjectRef{Type: "analogValue", Instance: 1}}
	err := store.UpdateLatest(context.Background(), key, 1.0, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPointNotFound)
}

func TestStore_UpsertPointPreservesLatest(t *testing.T) {
	store := openTestStore(t)
	seedStore(t, store)
	ctx := context.Background()

	key := PointKey{DeviceID: 1001, Object: ObjectRef{Type: "analogOutput", Instance: 3}}
	require.NoError(t, store.UpdateLatest(ctx, key, 21.5, time.Now().UTC()))

	// Reconfigure the point; the cached value must survive
	require.NoError(t, store.UpsertPoint(ctx, &Point{
		DeviceID:       1001,
		Object:         ObjectRef{Type: "analogOutput", Instance: 3},
		SemanticName:   "plant-a.ahu-1.zone-temp.sp",
		DisplayName:    "Renamed Setpoint",
		PollInterval:   15 * time.Second,
		PublishEnabled: true,
	}))

	snap, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	pt, ok := snap.Point(key)
	require.True(t, ok)
	assert.Equal(t, "Renamed Setpoint", pt.DisplayName)
	assert.Equal(t, 15*time.Second, pt.PollInterval)
	require.NotNil(t, pt.LastValue)
	assert.Equal(t, 21.5, *pt.LastValue)
}
