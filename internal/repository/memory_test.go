package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
)

type memFixture struct {
	mem    *Memory
	owner  domain.User
	system domain.System
	sensor domain.Sensor
}

func newMemFixture(t *testing.T) *memFixture {
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mem := NewMemory().WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})

	f := &memFixture{mem: mem}
	f.owner = domain.User{Username: "u1", PasswordHash: "x"}
	require.NoError(t, mem.CreateUser(ctx, &f.owner))
	f.system = domain.System{OwnerID: f.owner.ID, Name: "sys1"}
	require.NoError(t, mem.CreateSystem(ctx, &f.system))
	f.sensor = domain.Sensor{SystemID: f.system.ID, SensorType: domain.SensorPH}
	require.NoError(t, mem.CreateSensor(ctx, &f.sensor))
	return f
}

func TestMemory_DuplicateUsername(t *testing.T) {
	f := newMemFixture(t)
	err := f.mem.CreateUser(context.Background(), &domain.User{Username: "u1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestMemory_SystemNameUniquePerOwner(t *testing.T) {
	ctx := context.Background()
	f := newMemFixture(t)

	err := f.mem.CreateSystem(ctx, &domain.System{OwnerID: f.owner.ID, Name: "sys1"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	other := domain.User{Username: "u2"}
	require.NoError(t, f.mem.CreateUser(ctx, &other))
	assert.NoError(t, f.mem.CreateSystem(ctx, &domain.System{OwnerID: other.ID, Name: "sys1"}))
}

func TestMemory_ConcurrentCreateSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newMemFixture(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, dups := 0, 0
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.mem.CreateSystem(ctx, &domain.System{OwnerID: f.owner.ID, Name: "race"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
			} else if assert.ErrorIs(t, err, domain.ErrDuplicate) {
				dups++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, 15, dups)
}

func TestMemory_UpdateKeepsOwnName(t *testing.T) {
	ctx := context.Background()
	f := newMemFixture(t)

	s := f.system
	desc := "new"
	s.Description = &desc
	require.NoError(t, f.mem.UpdateSystem(ctx, &s))

	got, err := f.mem.OwnedSystem(ctx, f.owner.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", *got.Description)

	s.OwnerID = f.owner.ID + 100
	assert.ErrorIs(t, f.mem.UpdateSystem(ctx, &s), domain.ErrNotFound)
}

func TestMemory_DeleteSystemCascades(t *testing.T) {
	ctx := context.Background()
	f := newMemFixture(t)

	m := domain.Measurement{SensorID: f.sensor.ID, Value: decimal.RequireFromString("1.23")}
	require.NoError(t, f.mem.InsertMeasurement(ctx, &m))

	require.NoError(t, f.mem.DeleteOwnedSystem(ctx, f.owner.ID, f.system.ID))

	_, err := f.mem.SensorInSystem(ctx, f.system.ID, f.sensor.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, ok := f.mem.Measurement(m.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, f.mem.DeleteOwnedSensor(ctx, f.owner.ID, f.sensor.ID), domain.ErrNotFound)
}

func TestMemory_DeleteSensorRequiresOwnership(t *testing.T) {
	ctx := context.Background()
	f := newMemFixture(t)

	assert.ErrorIs(t, f.mem.DeleteOwnedSensor(ctx, f.owner.ID+1, f.sensor.ID), domain.ErrNotFound)
	assert.NoError(t, f.mem.DeleteOwnedSensor(ctx, f.owner.ID, f.sensor.ID))
}

func TestMemory_SystemMeasurementsOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	f := newMemFixture(t)

	second := domain.Sensor{SystemID: f.system.ID, SensorType: domain.SensorTDS}
	require.NoError(t, f.mem.CreateSensor(ctx, &second))

	var ids []int64
	for i := 0; i < 12; i++ {
		sensorID := f.sensor.ID
		if i%2 == 1 {
			sensorID = second.ID
		}
		m := domain.Measurement{SensorID: sensorID, Value: decimal.NewFromInt(int64(i))}
		require.NoError(t, f.mem.InsertMeasurement(ctx, &m))
		ids = append(ids, m.ID)
	}

	out, err := f.mem.SystemMeasurements(ctx, f.system.ID, 10)
	require.NoError(t, err)
	require.Len(t, out, 10)
	for i, row := range out {
		assert.Equal(t, ids[i], row.ID)
	}
	assert.Equal(t, domain.SensorTDS, out[1].SensorType)

	all, err := f.mem.SystemMeasurements(ctx, f.system.ID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 12)
}
