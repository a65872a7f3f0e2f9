// Package export persists aggregate measurement records. The CSV sink
// appends rows to a per-day file, creating it with a header when needed;
// the database sink stores flattened rows in PostgreSQL. MultiSink fans one
// record out to several destinations.
package export

import (
	"context"
	"errors"

	"wlan-analyzer/pkg/models"
)

// Sink appends one measurement record to a destination. Schema and header
// management is the sink's responsibility.
type Sink interface {
	Append(ctx context.Context, rec *models.MeasurementRecord) error
}

// MultiSink forwards a record to every sink; all sinks are attempted even
// when one fails, and the failures are joined into one error.
type MultiSink []Sink

func (m MultiSink) Append(ctx context.Context, rec *models.MeasurementRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Append(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
