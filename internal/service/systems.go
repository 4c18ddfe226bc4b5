package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
)

const (
	maxSystemNameLen = 100
	// newestMeasurementsLimit is the size of the measurement window in the
	// system detail view.
	newestMeasurementsLimit = 10
)

var (
	ErrMissingName     = domain.NewError(domain.KindValidation, "MISSING_NAME", "Please provide a name for your system.")
	ErrNameTooLong     = domain.NewError(domain.KindValidation, "NAME_TOO_LONG", "System name must be at most 100 characters.")
	ErrDuplicateName   = domain.NewError(domain.KindDuplicate, "INVALID_NAME", "System with this name already exists.")
	ErrInvalidSystemID = domain.NewError(domain.KindNotFound, "INVALID_ID", "System with this ID doesn't exist or you don't have permission to access it.")
)

type SystemService struct {
	store Store
}

// SystemPatch carries the fields of a partial update; nil means unchanged.
type SystemPatch struct {
	Name        *string
	Description *string
}

func validateName(name string) error {
	if name == "" {
		return ErrMissingName
	}
	if utf8.RuneCountInString(name) > maxSystemNameLen {
		return ErrNameTooLong.With("name", name)
	}
	return nil
}

func (s *SystemService) Create(ctx context.Context, caller domain.Caller, name string, description *string) (*domain.System, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	// Fast path only; the unique constraint decides concurrent creates.
	if _, err := s.store.OwnedSystemByName(ctx, caller.UserID, name); err == nil {
		return nil, ErrDuplicateName.With("name", name)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup system: %w", err)
	}

	sys := &domain.System{OwnerID: caller.UserID, Name: name, Description: description}
	if err := s.store.CreateSystem(ctx, sys); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, ErrDuplicateName.With("name", name)
		}
		return nil, fmt.Errorf("create system: %w", err)
	}
	log.Info().Int64("user_id", caller.UserID).Int64("system_id", sys.ID).Msg("system created")
	return sys, nil
}

// Get returns the system with its measurement window: the first ten
// measurements of all its sensors in ascending measured_at order.
func (s *SystemService) Get(ctx context.Context, caller domain.Caller, id int64) (*domain.SystemDetail, error) {
	sys, err := ownedSystem(ctx, s.store, caller, id, ErrInvalidSystemID.With("id", id))
	if err != nil {
		return nil, err
	}
	rows, err := s.store.SystemMeasurements(ctx, sys.ID, newestMeasurementsLimit)
	if err != nil {
		return nil, fmt.Errorf("system measurements: %w", err)
	}
	detail := &domain.SystemDetail{System: *sys, NewestMeasurements: make([]domain.Measurement, 0, len(rows))}
	for _, row := range rows {
		detail.NewestMeasurements = append(detail.NewestMeasurements, row.Measurement)
	}
	return detail, nil
}

func (s *SystemService) Update(ctx context.Context, caller domain.Caller, id int64, patch SystemPatch) (*domain.System, error) {
	sys, err := ownedSystem(ctx, s.store, caller, id, ErrInvalidSystemID.With("id", id))
	if err != nil {
		return nil, err
	}

	if patch.Name != nil && *patch.Name != "" && *patch.Name != sys.Name {
		name := *patch.Name
		if err := validateName(name); err != nil {
			return nil, err
		}
		if other, err := s.store.OwnedSystemByName(ctx, caller.UserID, name); err == nil && other.ID != sys.ID {
			return nil, ErrDuplicateName.With("name", name)
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("lookup system: %w", err)
		}
		sys.Name = name
	}
	if patch.Description != nil {
		sys.Description = patch.Description
	}

	if err := s.store.UpdateSystem(ctx, sys); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicate):
			return nil, ErrDuplicateName.With("name", sys.Name)
		case errors.Is(err, domain.ErrNotFound):
			return nil, ErrInvalidSystemID.With("id", id)
		}
		return nil, fmt.Errorf("update system: %w", err)
	}
	return sys, nil
}

// Delete removes the system together with its sensors and their measurements.
func (s *SystemService) Delete(ctx context.Context, caller domain.Caller, id int64) error {
	err := s.store.DeleteOwnedSystem(ctx, caller.UserID, id)
	if errors.Is(err, domain.ErrNotFound) {
		return ErrInvalidSystemID.With("id", id)
	}
	if err != nil {
		return fmt.Errorf("delete system: %w", err)
	}
	log.Info().Int64("user_id", caller.UserID).Int64("system_id", id).Msg("system deleted")
	return nil
}

func (s *SystemService) List(ctx context.Context, caller domain.Caller) ([]domain.System, error) {
	out, err := s.store.ListOwnedSystems(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list systems: %w", err)
	}
	return out, nil
}
