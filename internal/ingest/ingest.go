// Package ingest turns MQTT measurement messages into measurement appends.
//
// Topic layout: hydro/systems/<system_id>/measurements. The payload carries
// the publisher's access token, which is authenticated like an HTTP bearer
// token, so the usual ownership rules apply.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/service"
)

const (
	topicPrefix = "hydro/systems/"
	topicSuffix = "/measurements"

	// DefaultTimeout bounds the store work done for one message.
	DefaultTimeout = 5 * time.Second
)

var (
	ErrBadTopic   = errors.New("ingest: unexpected topic")
	ErrBadPayload = errors.New("ingest: malformed payload")
)

type Payload struct {
	AccessToken string           `json:"access_token"`
	SensorID    *domain.LooseID  `json:"sensor_id"`
	Value       *decimal.Decimal `json:"value"`
}

// Topic is the publish topic for a system's measurements.
func Topic(systemID int64) string {
	return topicPrefix + strconv.FormatInt(systemID, 10) + topicSuffix
}

// SystemIDFromTopic extracts the system id from a measurement topic.
func SystemIDFromTopic(topic string) (int64, error) {
	if !strings.HasPrefix(topic, topicPrefix) || !strings.HasSuffix(topic, topicSuffix) {
		return 0, fmt.Errorf("%w: %q", ErrBadTopic, topic)
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(topic, topicPrefix), topicSuffix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadTopic, topic)
	}
	return id, nil
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Caller, error)
}

type Appender interface {
	Append(ctx context.Context, caller domain.Caller, systemID int64, in service.MeasurementInput) (*domain.Measurement, error)
}

type Handler struct {
	auth    Authenticator
	meas    Appender
	timeout time.Duration
}

func NewHandler(auth Authenticator, meas Appender) *Handler {
	return &Handler{auth: auth, meas: meas, timeout: DefaultTimeout}
}

// Handle decodes one message and appends its measurement.
func (h *Handler) Handle(ctx context.Context, topic string, payload []byte) (*domain.Measurement, error) {
	systemID, err := SystemIDFromTopic(topic)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	caller, err := h.auth.Authenticate(ctx, p.AccessToken)
	if err != nil {
		return nil, err
	}
	return h.meas.Append(ctx, caller, systemID, service.MeasurementInput{SensorID: p.SensorID.Int64(), Value: p.Value})
}

// OnMessage is the paho callback. Failures are logged and dropped.
func (h *Handler) OnMessage(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	m, err := h.Handle(ctx, msg.Topic(), msg.Payload())
	if err != nil {
		var de *domain.Error
		switch {
		case errors.As(err, &de):
			log.Warn().Str("topic", msg.Topic()).Str("code", de.Code).Msg("measurement rejected")
		case errors.Is(err, ErrBadTopic), errors.Is(err, ErrBadPayload):
			log.Warn().Err(err).Str("topic", msg.Topic()).Msg("measurement rejected")
		default:
			log.Error().Err(err).Str("topic", msg.Topic()).Msg("ingest failed")
		}
		return
	}
	log.Debug().Int64("measurement_id", m.ID).Int64("sensor_id", m.SensorID).Msg("measurement ingested")
}
