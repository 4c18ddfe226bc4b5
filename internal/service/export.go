package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/domain"
)

// Uploader stores an export and returns a URL it can be downloaded from.
// Implemented by cloud.S3Client.
type Uploader interface {
	UploadReport(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

var csvHeader = []string{"id", "sensor", "sensor_type", "value", "measured_at"}

type ExportService struct {
	store    Store
	uploader Uploader
}

// Export writes every measurement of the system as CSV and uploads it.
func (s *ExportService) Export(ctx context.Context, caller domain.Caller, systemID int64) (string, error) {
	sys, err := ownedSystem(ctx, s.store, caller, systemID, ErrInvalidSystemID.With("id", systemID))
	if err != nil {
		return "", err
	}
	rows, err := s.store.SystemMeasurements(ctx, sys.ID, 0)
	if err != nil {
		return "", fmt.Errorf("system measurements: %w", err)
	}

	data, err := encodeCSV(rows)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("exports/systems/%d/%d.csv", sys.ID, time.Now().Unix())
	url, err := s.uploader.UploadReport(ctx, key, data, "text/csv")
	if err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}
	log.Info().
		Int64("user_id", caller.UserID).
		Int64("system_id", sys.ID).
		Int("rows", len(rows)).
		Str("key", key).
		Msg("measurements exported")
	return url, nil
}

func encodeCSV(rows []domain.MeasurementRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		rec := []string{
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(r.SensorID, 10),
			string(r.SensorType),
			r.Value.StringFixed(domain.ValueScale),
			r.MeasuredAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}
