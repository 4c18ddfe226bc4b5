package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
)

var (
	ErrMissingSensorID   = domain.NewError(domain.KindValidation, "MISSING_SENSOR_ID", "Please provide sensor id.")
	ErrMissingValue      = domain.NewError(domain.KindValidation, "MISSING_VALUE", "Please provide measurement value.")
	ErrInvalidValue      = domain.NewError(domain.KindValidation, "INVALID_VALUE", "Measurement value must have at most 2 decimal places and be between -999.99 and 999.99.")
	ErrInvalidMeasSystem = domain.NewError(domain.KindNotFound, "INVALID_ID", "System with this ID does not exist or you don't have permission to access it.")
	ErrInvalidMeasSensor = domain.NewError(domain.KindNotFound, "INVALID_SENSOR_ID", "Sensor with this ID does not exist in this system.")
)

type MeasurementService struct {
	store Store
}

// MeasurementInput is an append request; nil fields were not supplied.
type MeasurementInput struct {
	SensorID *int64
	Value    *decimal.Decimal
}

// Append records a new reading for a sensor of the given system. The
// timestamp is assigned by the store.
func (s *MeasurementService) Append(ctx context.Context, caller domain.Caller, systemID int64, in MeasurementInput) (*domain.Measurement, error) {
	if in.SensorID == nil || *in.SensorID == 0 {
		return nil, ErrMissingSensorID
	}
	if in.Value == nil {
		return nil, ErrMissingValue
	}
	value, ok := domain.NormalizeValue(*in.Value)
	if !ok {
		return nil, ErrInvalidValue
	}

	sys, err := ownedSystem(ctx, s.store, caller, systemID, ErrInvalidMeasSystem.With("id", systemID))
	if err != nil {
		return nil, err
	}

	sensorID := *in.SensorID
	sensor, err := s.store.SensorInSystem(ctx, sys.ID, sensorID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidMeasSensor.With("sensor_id", sensorID)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup sensor: %w", err)
	}

	m := &domain.Measurement{SensorID: sensor.ID, Value: value}
	if err := s.store.InsertMeasurement(ctx, m); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidMeasSensor.With("sensor_id", sensorID)
		}
		return nil, fmt.Errorf("insert measurement: %w", err)
	}
	return m, nil
}
