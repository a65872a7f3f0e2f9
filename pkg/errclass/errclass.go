// Package errclass classifies failures into a closed taxonomy of error
// types and severities and keeps per-type statistics for run summaries.
// A Handler is constructed explicitly and injected into the orchestrator,
// so tests can substitute a fake recorder.
package errclass

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

// ErrorType categorizes a failure by origin.
type ErrorType string

const (
	NetworkError     ErrorType = "network_error"
	MeasurementError ErrorType = "measurement_error"
	FileSystemError  ErrorType = "file_system_error"
	ConfigError      ErrorType = "config_error"
	DataExportError  ErrorType = "data_export_error"
	SystemError      ErrorType = "system_error"
)

// Severity grades how serious a classified failure is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ClassifiedError is the record produced for one failure.
type ClassifiedError struct {
	Type      ErrorType
	Severity  Severity
	Component string
	Operation string
	Message   string
	Timestamp time.Time
}

// Handler records classified errors. Safe for concurrent use.
type Handler struct {
	logger *slog.Logger

	mu      sync.Mutex
	counts  map[ErrorType]int
	history []ClassifiedError
	limit   int
}

// NewHandler creates a handler keeping the most recent 100 records.
func NewHandler(logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger: logger,
		counts: make(map[ErrorType]int),
		limit:  100,
	}
}

// ClassifyAndRecord classifies err, appends it to the history, bumps the
// per-type counter and logs it at a level matching its severity. A nil err
// returns nil without recording anything.
func (h *Handler) ClassifyAndRecord(err error, component, operation string) *ClassifiedError {
	if err == nil {
		return nil
	}

	etype, severity := classify(err, operation)
	rec := ClassifiedError{
		Type:      etype,
		Severity:  severity,
		Component: component,
		Operation: operation,
		Message:   err.Error(),
		Timestamp: time.Now(),
	}

	h.mu.Lock()
	h.counts[etype]++
	h.history = append(h.history, rec)
	if len(h.history) > h.limit {
		h.history = h.history[len(h.history)-h.limit:]
	}
	h.mu.Unlock()

	attrs := []any{
		"errorType", string(etype),
		"severity", string(severity),
		"component", component,
		"operation", operation,
		"error", err,
	}
	switch severity {
	case SeverityLow:
		h.logger.Info("Recorded error", attrs...)
	case SeverityMedium:
		h.logger.Warn("Recorded error", attrs...)
	default:
		h.logger.Error("Recorded error", attrs...)
	}

	return &rec
}

// Stats returns a copy of the per-type error counters.
func (h *Handler) Stats() map[ErrorType]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[ErrorType]int, len(h.counts))
	for k, v := range h.counts {
		out[k] = v
	}
	return out
}

// Recent returns up to n of the most recently recorded errors, oldest first.
func (h *Handler) Recent(n int) []ClassifiedError {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > len(h.history) {
		n = len(h.history)
	}
	out := make([]ClassifiedError, n)
	copy(out, h.history[len(h.history)-n:])
	return out
}

func classify(err error, operation string) (ErrorType, Severity) {
	switch {
	case strings.HasPrefix(operation, "export"):
		return DataExportError, SeverityMedium
	case strings.Contains(operation, "config"):
		return ConfigError, SeverityHigh
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NetworkError, SeverityMedium
		}
		return NetworkError, SeverityHigh
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NetworkError, SeverityMedium
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return FileSystemError, SeverityMedium
	}

	if strings.HasPrefix(operation, "execute_") || strings.HasPrefix(operation, "validate_") {
		return MeasurementError, SeverityMedium
	}
	return SystemError, SeverityMedium
}
