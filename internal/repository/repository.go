package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
)

const uniqueViolation = "23505"

// Repos is the Postgres backed store.
type Repos struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repos { return &Repos{db: db} }

// translate maps driver errors onto the domain sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicate
	}
	return err
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return translate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Users

func (r *Repos) CreateUser(ctx context.Context, u *domain.User) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (username, password) VALUES ($1, $2) RETURNING id, date_joined`,
		u.Username, u.PasswordHash).Scan(&u.ID, &u.DateJoined)
	return translate(err)
}

func (r *Repos) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u,
		`SELECT id, username, password, date_joined FROM users WHERE username = $1`, username)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *Repos) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u,
		`SELECT id, username, password, date_joined FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// Systems

const systemColumns = `id, owner_id, name, description, created_at`

func (r *Repos) CreateSystem(ctx context.Context, s *domain.System) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO systems (owner_id, name, description) VALUES ($1, $2, $3) RETURNING id, created_at`,
		s.OwnerID, s.Name, s.Description).Scan(&s.ID, &s.CreatedAt)
	return translate(err)
}

func (r *Repos) OwnedSystem(ctx context.Context, ownerID, id int64) (*domain.System, error) {
	var s domain.System
	err := r.db.GetContext(ctx, &s,
		`SELECT `+systemColumns+` FROM systems WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *Repos) OwnedSystemByName(ctx context.Context, ownerID int64, name string) (*domain.System, error) {
	var s domain.System
	err := r.db.GetContext(ctx, &s,
		`SELECT `+systemColumns+` FROM systems WHERE owner_id = $1 AND name = $2`, ownerID, name)
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *Repos) ListOwnedSystems(ctx context.Context, ownerID int64) ([]domain.System, error) {
	out := []domain.System{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT `+systemColumns+` FROM systems WHERE owner_id = $1 ORDER BY id`, ownerID)
	return out, translate(err)
}

func (r *Repos) UpdateSystem(ctx context.Context, s *domain.System) error {
	return affected(r.db.ExecContext(ctx,
		`UPDATE systems SET name = $1, description = $2 WHERE id = $3 AND owner_id = $4`,
		s.Name, s.Description, s.ID, s.OwnerID))
}

// DeleteOwnedSystem removes the system; sensors and measurements go with it
// through ON DELETE CASCADE.
func (r *Repos) DeleteOwnedSystem(ctx context.Context, ownerID, id int64) error {
	return affected(r.db.ExecContext(ctx,
		`DELETE FROM systems WHERE id = $1 AND owner_id = $2`, id, ownerID))
}

// Sensors

func (r *Repos) CreateSensor(ctx context.Context, s *domain.Sensor) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO sensors (system_id, sensor_type, description) VALUES ($1, $2, $3) RETURNING id`,
		s.SystemID, s.SensorType, s.Description).Scan(&s.ID)
	return translate(err)
}

func (r *Repos) SensorInSystem(ctx context.Context, systemID, id int64) (*domain.Sensor, error) {
	var s domain.Sensor
	err := r.db.GetContext(ctx, &s,
		`SELECT id, system_id, sensor_type, description FROM sensors WHERE id = $1 AND system_id = $2`,
		id, systemID)
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *Repos) DeleteOwnedSensor(ctx context.Context, ownerID, id int64) error {
	return affected(r.db.ExecContext(ctx,
		`DELETE FROM sensors s USING systems y
		 WHERE s.id = $1 AND s.system_id = y.id AND y.owner_id = $2`, id, ownerID))
}

func (r *Repos) ListSensors(ctx context.Context, systemID int64) ([]domain.Sensor, error) {
	out := []domain.Sensor{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, system_id, sensor_type, description FROM sensors WHERE system_id = $1 ORDER BY id`,
		systemID)
	return out, translate(err)
}

// Measurements

func (r *Repos) InsertMeasurement(ctx context.Context, m *domain.Measurement) error {
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO measurements (sensor_id, value) VALUES ($1, $2) RETURNING id, measured_at`,
		m.SensorID, m.Value).Scan(&m.ID, &m.MeasuredAt)
	return translate(err)
}

// SystemMeasurements returns measurements of every sensor in the system in
// ascending measured_at order. A limit of 0 returns all of them.
func (r *Repos) SystemMeasurements(ctx context.Context, systemID int64, limit int) ([]domain.MeasurementRow, error) {
	out := []domain.MeasurementRow{}
	err := r.db.SelectContext(ctx, &out,
		`SELECT m.id, m.sensor_id, m.value, m.measured_at, s.sensor_type
		   FROM measurements m
		   JOIN sensors s ON s.id = m.sensor_id
		  WHERE s.system_id = $1
		  ORDER BY m.measured_at, m.id
		  LIMIT NULLIF($2, 0)`, systemID, limit)
	return out, translate(err)
}
