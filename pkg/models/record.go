package models

import (
	"fmt"
	"time"
)

// MeasurementRecord is the aggregate result of one measurement cycle. It is
// created at run start and filled in place as steps complete; after the run
// returns it is never mutated again.
type MeasurementRecord struct {
	MeasurementID string
	LinkInfo      *LinkInfo
	Latency       *LatencyResult
	ThroughputTCP *ThroughputResult
	ThroughputUDP *DatagramResult
	BulkTransfer  *TransferResult
	Errors        []string
	Metadata      map[string]string
	Timestamp     time.Time
}

// NewMeasurementRecord creates an empty record for the given run identifier.
func NewMeasurementRecord(id string) *MeasurementRecord {
	return &MeasurementRecord{
		MeasurementID: id,
		Metadata:      make(map[string]string),
		Timestamp:     time.Now(),
	}
}

// AddError appends a timestamped error message to the record.
func (m *MeasurementRecord) AddError(msg string) {
	m.Errors = append(m.Errors, fmt.Sprintf("[%s] %s", time.Now().Format(time.RFC3339), msg))
}
