package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
)

const maxSensorDescriptionLen = 255

var (
	ErrMissingSystemID      = domain.NewError(domain.KindValidation, "MISSING_SYSTEM_ID", "Please provide id for the system to assign sensor to.")
	ErrMissingSensorType    = domain.NewError(domain.KindValidation, "MISSING_SENSOR_TYPE", "Please provide sensor type")
	ErrInvalidSensorType    = domain.NewError(domain.KindValidation, "INVALID_SENSOR_TYPE", "Please provide correct sensor type")
	ErrDescriptionTooLong   = domain.NewError(domain.KindValidation, "DESCRIPTION_TOO_LONG", "Sensor description must be at most 255 characters.")
	ErrUnknownSensorSystem  = domain.NewError(domain.KindNotFound, "INVALID_SYSTEM_ID", "System with this ID does not exist or you don't have permission to access it")
	ErrInvalidSensorID      = domain.NewError(domain.KindNotFound, "INVALID_ID", "Sensor with this ID does not exist or you don't have permission to remove it.")
	ErrInvalidSensorsSystem = domain.NewError(domain.KindNotFound, "INVALID_ID", "System with this ID does not exist or you don't have permission to access it")
)

type SensorService struct {
	store Store
}

type SensorInput struct {
	SystemID    *int64
	SensorType  string
	Description *string
}

func (s *SensorService) Create(ctx context.Context, caller domain.Caller, in SensorInput) (*domain.Sensor, error) {
	if in.SystemID == nil || *in.SystemID == 0 {
		return nil, ErrMissingSystemID
	}
	if in.SensorType == "" {
		return nil, ErrMissingSensorType
	}
	typ, ok := domain.ParseSensorType(in.SensorType)
	if !ok {
		return nil, ErrInvalidSensorType.With("sensor_types", domain.SensorTypes())
	}
	if in.Description != nil && utf8.RuneCountInString(*in.Description) > maxSensorDescriptionLen {
		return nil, ErrDescriptionTooLong
	}

	systemID := *in.SystemID
	sys, err := ownedSystem(ctx, s.store, caller, systemID, ErrUnknownSensorSystem.With("system_id", systemID))
	if err != nil {
		return nil, err
	}

	sensor := &domain.Sensor{SystemID: sys.ID, SensorType: typ, Description: in.Description}
	if err := s.store.CreateSensor(ctx, sensor); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// system deleted between lookup and insert
			return nil, ErrUnknownSensorSystem.With("system_id", systemID)
		}
		return nil, fmt.Errorf("create sensor: %w", err)
	}
	return sensor, nil
}

func (s *SensorService) Remove(ctx context.Context, caller domain.Caller, id int64) error {
	err := s.store.DeleteOwnedSensor(ctx, caller.UserID, id)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrInvalidSensorID.With("id", id)
	}
	if err != nil {
		return fmt.Errorf("delete sensor: %w", err)
	}
	return nil
}

func (s *SensorService) List(ctx context.Context, caller domain.Caller, systemID int64) ([]domain.Sensor, error) {
	sys, err := ownedSystem(ctx, s.store, caller, systemID, ErrInvalidSensorsSystem.With("id", systemID))
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListSensors(ctx, sys.ID)
	if err != nil {
		return nil, fmt.Errorf("list sensors: %w", err)
	}
	return out, nil
}
