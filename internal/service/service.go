package service

import (
	"context"
	"errors"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/auth"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
)

// Store is everything the services need from persistence. Implemented by
// repository.Repos (Postgres) and repository.Memory.
type Store interface {
	CreateUser(ctx context.Context, u *domain.User) error
	UserByUsername(ctx context.Context, username string) (*domain.User, error)
	UserByID(ctx context.Context, id int64) (*domain.User, error)

	CreateSystem(ctx context.Context, s *domain.System) error
	OwnedSystem(ctx context.Context, ownerID, id int64) (*domain.System, error)
	OwnedSystemByName(ctx context.Context, ownerID int64, name string) (*domain.System, error)
	ListOwnedSystems(ctx context.Context, ownerID int64) ([]domain.System, error)
	UpdateSystem(ctx context.Context, s *domain.System) error
	DeleteOwnedSystem(ctx context.Context, ownerID, id int64) error

	CreateSensor(ctx context.Context, s *domain.Sensor) error
	SensorInSystem(ctx context.Context, systemID, id int64) (*domain.Sensor, error)
	DeleteOwnedSensor(ctx context.Context, ownerID, id int64) error
	ListSensors(ctx context.Context, systemID int64) ([]domain.Sensor, error)

	InsertMeasurement(ctx context.Context, m *domain.Measurement) error
	SystemMeasurements(ctx context.Context, systemID int64, limit int) ([]domain.MeasurementRow, error)
}

type Services struct {
	Users        *UserService
	Systems      *SystemService
	Sensors      *SensorService
	Measurements *MeasurementService
	// Export is nil unless cloud services are enabled.
	Export *ExportService
}

type Options struct {
	Store    Store
	Tokens   *auth.Issuer
	Revoker  auth.Revoker
	Uploader Uploader
}

func New(opts Options) *Services {
	svcs := &Services{
		Users:        &UserService{store: opts.Store, tokens: opts.Tokens, revoker: opts.Revoker},
		Systems:      &SystemService{store: opts.Store},
		Sensors:      &SensorService{store: opts.Store},
		Measurements: &MeasurementService{store: opts.Store},
	}
	if opts.Uploader != nil {
		svcs.Export = &ExportService{store: opts.Store, uploader: opts.Uploader}
	}
	return svcs
}

// ownedSystem resolves id inside the caller's ownership scope, returning
// notFound when it does not resolve.
func ownedSystem(ctx context.Context, store Store, caller domain.Caller, id int64, notFound *domain.Error) (*domain.System, error) {
	s, err := store.OwnedSystem(ctx, caller.UserID, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
