package export

import (
	"context"
	"fmt"

	"wlan-analyzer/pkg/database"
	"wlan-analyzer/pkg/models"
)

// DBSink appends measurement records to PostgreSQL.
type DBSink struct {
	db *database.DB
}

// NewDBSink wraps an initialized database connection as a sink.
func NewDBSink(db *database.DB) *DBSink {
	return &DBSink{db: db}
}

func (s *DBSink) Append(ctx context.Context, rec *models.MeasurementRecord) error {
	row, err := database.RowFromRecord(rec)
	if err != nil {
		return err
	}
	if err := s.db.InsertMeasurement(ctx, row); err != nil {
		return fmt.Errorf("database export failed: %v", err)
	}
	return nil
}
