package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password" json:"-"`
	DateJoined   time.Time `db:"date_joined" json:"-"`
}

// Caller is the authenticated identity of a request. It is built by the
// transport layer and handed to every service call explicitly.
type Caller struct {
	UserID   int64
	Username string
}

type System struct {
	ID          int64     `db:"id" json:"id"`
	OwnerID     int64     `db:"owner_id" json:"owner"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SystemDetail is a system together with its measurement window.
type SystemDetail struct {
	System
	NewestMeasurements []Measurement `json:"newest_measurements"`
}

type SensorType string

const (
	SensorPH          SensorType = "ph"
	SensorTemperature SensorType = "temperature"
	SensorTDS         SensorType = "tds"
)

// SensorTypes lists the accepted sensor types in display order.
func SensorTypes() []SensorType {
	return []SensorType{SensorPH, SensorTemperature, SensorTDS}
}

// ParseSensorType matches s case-insensitively against the known types.
func ParseSensorType(s string) (SensorType, bool) {
	t := SensorType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SensorTypes() {
		if t == known {
			return t, true
		}
	}
	return "", false
}

type Sensor struct {
	ID          int64      `db:"id" json:"id"`
	SystemID    int64      `db:"system_id" json:"system"`
	SensorType  SensorType `db:"sensor_type" json:"sensor_type"`
	Description *string    `db:"description" json:"description"`
}

type Measurement struct {
	ID         int64           `db:"id" json:"id"`
	SensorID   int64           `db:"sensor_id" json:"sensor"`
	Value      decimal.Decimal `db:"value" json:"value"`
	MeasuredAt time.Time       `db:"measured_at" json:"measured_at"`
}

// MarshalJSON renders the value with exactly ValueScale decimals.
func (m Measurement) MarshalJSON() ([]byte, error) {
	type plain Measurement
	return json.Marshal(struct {
		plain
		Value string `json:"value"`
	}{plain: plain(m), Value: m.Value.StringFixed(ValueScale)})
}

// MeasurementRow is a measurement joined with its sensor type, used for exports.
type MeasurementRow struct {
	Measurement
	SensorType SensorType `db:"sensor_type"`
}
