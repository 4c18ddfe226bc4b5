package ingest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/auth"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/repository"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/service"
)

// fakeMessage implements mqtt.Message.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type env struct {
	svcs   *service.Services
	caller domain.Caller
	token  string
	system *domain.System
	sensor *domain.Sensor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	svcs := service.New(service.Options{
		Store:   repository.NewMemory(),
		Tokens:  auth.NewIssuer("ingest-secret", time.Minute, time.Hour),
		Revoker: auth.NewMemoryRevoker(),
	})
	require.NoError(t, svcs.Users.Register(ctx, "grower", "pw"))
	res, err := svcs.Users.Login(ctx, "grower", "pw")
	require.NoError(t, err)
	caller, err := svcs.Users.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)
	sys, err := svcs.Systems.Create(ctx, caller, "tank", nil)
	require.NoError(t, err)
	sensor, err := svcs.Sensors.Create(ctx, caller, service.SensorInput{SystemID: &sys.ID, SensorType: "ph"})
	require.NoError(t, err)
	return &env{svcs: svcs, caller: caller, token: res.AccessToken, system: sys, sensor: sensor}
}

func TestTopicRoundTrip(t *testing.T) {
	id, err := SystemIDFromTopic(Topic(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{
		"hydro/systems/x/measurements",
		"hydro/systems/0/measurements",
		"hydro/systems/-3/measurements",
		"hydro/systems/7",
		"energy/readings",
	} {
		_, err := SystemIDFromTopic(bad)
		assert.ErrorIs(t, err, ErrBadTopic, bad)
	}
}

func TestHandleAppends(t *testing.T) {
	e := newEnv(t)
	h := NewHandler(e.svcs.Users, e.svcs.Measurements)

	payload := fmt.Sprintf(`{"access_token":%q,"sensor_id":%d,"value":"6.80"}`, e.token, e.sensor.ID)
	m, err := h.Handle(context.Background(), Topic(e.system.ID), []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, e.sensor.ID, m.SensorID)
	assert.Equal(t, "6.80", m.Value.StringFixed(2))

	// numeric values are accepted too
	payload = fmt.Sprintf(`{"access_token":%q,"sensor_id":%d,"value":-1.5}`, e.token, e.sensor.ID)
	_, err = h.Handle(context.Background(), Topic(e.system.ID), []byte(payload))
	require.NoError(t, err)

	// so are string sensor ids
	payload = fmt.Sprintf(`{"access_token":%q,"sensor_id":"%d","value":"3"}`, e.token, e.sensor.ID)
	m, err = h.Handle(context.Background(), Topic(e.system.ID), []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, e.sensor.ID, m.SensorID)
}

func TestHandleRejects(t *testing.T) {
	e := newEnv(t)
	h := NewHandler(e.svcs.Users, e.svcs.Measurements)
	ctx := context.Background()

	_, err := h.Handle(ctx, Topic(e.system.ID), []byte("{"))
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = h.Handle(ctx, Topic(e.system.ID), []byte(fmt.Sprintf(`{"access_token":%q,"sensor_id":"x1","value":"1"}`, e.token)))
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = h.Handle(ctx, Topic(e.system.ID), []byte(fmt.Sprintf(`{"access_token":%q,"sensor_id":"","value":"1"}`, e.token)))
	assert.True(t, domain.IsCode(err, "MISSING_SENSOR_ID"), err)

	_, err = h.Handle(ctx, Topic(e.system.ID), []byte(fmt.Sprintf(`{"sensor_id":%d,"value":"1"}`, e.sensor.ID)))
	assert.True(t, domain.IsCode(err, "UNAUTHENTICATED"), err)

	_, err = h.Handle(ctx, Topic(e.system.ID+100), []byte(fmt.Sprintf(`{"access_token":%q,"sensor_id":%d,"value":"1"}`, e.token, e.sensor.ID)))
	assert.True(t, domain.IsCode(err, "INVALID_ID"), err)

	_, err = h.Handle(ctx, Topic(e.system.ID), []byte(fmt.Sprintf(`{"access_token":%q,"sensor_id":%d,"value":"1.001"}`, e.token, e.sensor.ID)))
	assert.True(t, domain.IsCode(err, "INVALID_VALUE"), err)
}

func TestOnMessage(t *testing.T) {
	e := newEnv(t)
	h := NewHandler(e.svcs.Users, e.svcs.Measurements)

	h.OnMessage(nil, fakeMessage{topic: "bogus", payload: []byte("{}")})
	h.OnMessage(nil, fakeMessage{
		topic:   Topic(e.system.ID),
		payload: []byte(fmt.Sprintf(`{"access_token":%q,"sensor_id":%d,"value":"2.25"}`, e.token, e.sensor.ID)),
	})

	detail, err := e.svcs.Systems.Get(context.Background(), e.caller, e.system.ID)
	require.NoError(t, err)
	require.Len(t, detail.NewestMeasurements, 1)
	assert.Equal(t, "2.25", detail.NewestMeasurements[0].Value.StringFixed(2))
}
