package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
)

// Memory is an in-process store with the same semantics as Repos: username
// and (owner, name) uniqueness are checked under the write lock, and deletes
// cascade explicitly. It backs the API when DB_ENABLED=false and the tests.
type Memory struct {
	mu sync.RWMutex

	now    func() time.Time
	nextID int64

	users        map[int64]domain.User
	systems      map[int64]domain.System
	sensors      map[int64]domain.Sensor
	measurements map[int64]domain.Measurement
}

func NewMemory() *Memory {
	return &Memory{
		now:          time.Now,
		users:        map[int64]domain.User{},
		systems:      map[int64]domain.System{},
		sensors:      map[int64]domain.Sensor{},
		measurements: map[int64]domain.Measurement{},
	}
}

// WithClock replaces the timestamp source; tests use it to control ordering.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
	return m
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

// Users

func (m *Memory) CreateUser(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Username == u.Username {
			return domain.ErrDuplicate
		}
	}
	u.ID = m.id()
	u.DateJoined = m.now().UTC()
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) UserByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Memory) UserByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

// Systems

func (m *Memory) nameTaken(ownerID int64, name string, except int64) bool {
	for _, s := range m.systems {
		if s.OwnerID == ownerID && s.Name == name && s.ID != except {
			return true
		}
	}
	return false
}

func (m *Memory) CreateSystem(_ context.Context, s *domain.System) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[s.OwnerID]; !ok {
		return domain.ErrNotFound
	}
	if m.nameTaken(s.OwnerID, s.Name, 0) {
		return domain.ErrDuplicate
	}
	s.ID = m.id()
	s.CreatedAt = m.now().UTC()
	m.systems[s.ID] = *s
	return nil
}

func (m *Memory) OwnedSystem(_ context.Context, ownerID, id int64) (*domain.System, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.systems[id]
	if !ok || s.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *Memory) OwnedSystemByName(_ context.Context, ownerID int64, name string) (*domain.System, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.systems {
		if s.OwnerID == ownerID && s.Name == name {
			return &s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Memory) ListOwnedSystems(_ context.Context, ownerID int64) ([]domain.System, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.System{}
	for _, s := range m.systems {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateSystem(_ context.Context, s *domain.System) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.systems[s.ID]
	if !ok || cur.OwnerID != s.OwnerID {
		return domain.ErrNotFound
	}
	if m.nameTaken(s.OwnerID, s.Name, s.ID) {
		return domain.ErrDuplicate
	}
	cur.Name = s.Name
	cur.Description = s.Description
	m.systems[s.ID] = cur
	return nil
}

func (m *Memory) DeleteOwnedSystem(_ context.Context, ownerID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.systems[id]
	if !ok || s.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	for sid, sensor := range m.sensors {
		if sensor.SystemID == id {
			m.deleteSensor(sid)
		}
	}
	delete(m.systems, id)
	return nil
}

// Sensors

func (m *Memory) CreateSensor(_ context.Context, s *domain.Sensor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.systems[s.SystemID]; !ok {
		return domain.ErrNotFound
	}
	s.ID = m.id()
	m.sensors[s.ID] = *s
	return nil
}

func (m *Memory) SensorInSystem(_ context.Context, systemID, id int64) (*domain.Sensor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sensors[id]
	if !ok || s.SystemID != systemID {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *Memory) DeleteOwnedSensor(_ context.Context, ownerID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sensors[id]
	if !ok {
		return domain.ErrNotFound
	}
	if sys, ok := m.systems[s.SystemID]; !ok || sys.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	m.deleteSensor(id)
	return nil
}

// deleteSensor drops the sensor and its measurements. Callers hold mu.
func (m *Memory) deleteSensor(id int64) {
	for mid, meas := range m.measurements {
		if meas.SensorID == id {
			delete(m.measurements, mid)
		}
	}
	delete(m.sensors, id)
}

func (m *Memory) ListSensors(_ context.Context, systemID int64) ([]domain.Sensor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.Sensor{}
	for _, s := range m.sensors {
		if s.SystemID == systemID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Measurements

func (m *Memory) InsertMeasurement(_ context.Context, meas *domain.Measurement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sensors[meas.SensorID]; !ok {
		return domain.ErrNotFound
	}
	meas.ID = m.id()
	meas.MeasuredAt = m.now().UTC()
	m.measurements[meas.ID] = *meas
	return nil
}

func (m *Memory) SystemMeasurements(_ context.Context, systemID int64, limit int) ([]domain.MeasurementRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.MeasurementRow{}
	for _, meas := range m.measurements {
		sensor, ok := m.sensors[meas.SensorID]
		if !ok || sensor.SystemID != systemID {
			continue
		}
		out = append(out, domain.MeasurementRow{Measurement: meas, SensorType: sensor.SensorType})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MeasuredAt.Equal(out[j].MeasuredAt) {
			return out[i].MeasuredAt.Before(out[j].MeasuredAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Measurement looks a single measurement up by id.
func (m *Memory) Measurement(id int64) (domain.Measurement, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meas, ok := m.measurements[id]
	return meas, ok
}
