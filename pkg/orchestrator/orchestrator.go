package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wlan-analyzer/pkg/errclass"
	"wlan-analyzer/pkg/models"
)

// ErrUnknownKind is returned by Run for a plan that names a probe kind the
// engine does not know. An invalid plan is a programming error and the one
// condition reported outside the run outcome.
var ErrUnknownKind = errors.New("unknown measurement kind")

// ErrServerUnavailable marks a CheckServerReachable failure caused by the
// throughput server being down or unreachable. Probers wrap it so the
// prerequisite validator can tell it apart from unexpected errors.
var ErrServerUnavailable = errors.New("server unavailable")

// StepStatus is the terminal (or in-flight) state of one step within a run.
type StepStatus string

const (
	StatusPending    StepStatus = "pending"
	StatusInProgress StepStatus = "in_progress"
	StatusCompleted  StepStatus = "completed"
	StatusFailed     StepStatus = "failed"
	StatusSkipped    StepStatus = "skipped"
)

// Prober is the collaborator that performs the actual measurements. Every
// call is synchronous; the timeout carried in the parameters is advisory
// (see package documentation).
type Prober interface {
	CollectLinkInfo(ctx context.Context, timeout time.Duration) (*models.LinkInfo, error)
	ProbeLatency(ctx context.Context, params models.LatencyParams) (*models.LatencyResult, error)
	ProbeThroughputTCP(ctx context.Context, params models.ThroughputTCPParams) (*models.ThroughputResult, error)
	ProbeThroughputUDP(ctx context.Context, params models.ThroughputUDPParams) (*models.DatagramResult, error)
	ProbeBulkTransfer(ctx context.Context, params models.TransferParams) (*models.TransferResult, error)
	IsLinkConnected() bool
	CheckServerReachable(ctx context.Context, server string, port int, timeout time.Duration) error
	Cleanup() error
}

// Exporter persists one aggregate record at the end of a run.
type Exporter interface {
	Append(ctx context.Context, rec *models.MeasurementRecord) error
}

// ErrorClassifier records classified failures. The orchestrator ignores the
// returned classification.
type ErrorClassifier interface {
	ClassifyAndRecord(err error, component, operation string) *errclass.ClassifiedError
}

// RunOutcome is the immutable result of one Run invocation.
type RunOutcome struct {
	MeasurementID string
	Record        *models.MeasurementRecord
	StepStatus    map[models.MeasurementKind]StepStatus
	Elapsed       time.Duration
	Errors        []string
	Warnings      []string
}

// Orchestrator turns a measurement plan into a supervised, strictly
// sequential execution. It holds no per-run state between invocations;
// concurrent Run calls on one instance are not supported and must be
// serialized by the caller.
type Orchestrator struct {
	cfg      *models.Configuration
	prober   Prober
	exporter Exporter
	errs     ErrorClassifier
	logger   *slog.Logger
	events   dispatcher
}

// New constructs an orchestrator with explicitly injected collaborators.
func New(cfg *models.Configuration, prober Prober, exporter Exporter, errs ErrorClassifier, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:      cfg,
		prober:   prober,
		exporter: exporter,
		errs:     errs,
		logger:   logger,
		events:   dispatcher{logger: logger},
	}
}

// RegisterListener attaches a listener to one of the lifecycle events.
func (o *Orchestrator) RegisterListener(ev Event, fn Listener) error {
	return o.events.register(ev, fn)
}

// ValidatePrerequisites checks that the environment is ready for a
// measurement cycle. All checks run independently so every issue is
// collected in one pass; the returned ok is true only when no issues were
// found. The method mutates no engine state and may be called repeatedly.
func (o *Orchestrator) ValidatePrerequisites(ctx context.Context) (bool, []string) {
	var issues []string

	if !o.prober.IsLinkConnected() {
		issues = append(issues, "link interface is not connected")
	}

	if len(o.cfg.TargetIPs) > 0 {
		primary := o.cfg.TargetIPs[0]
		if !o.isHostReachable(ctx, primary) {
			issues = append(issues, fmt.Sprintf("primary target %s is not reachable", primary))
		}
	}

	err := o.prober.CheckServerReachable(ctx, o.cfg.IperfServer, o.cfg.IperfPort, 5*time.Second)
	switch {
	case err == nil:
	case errors.Is(err, ErrServerUnavailable):
		issues = append(issues, fmt.Sprintf("throughput server unavailable: %v", err))
	default:
		o.errs.ClassifyAndRecord(err, "orchestrator", "validate_prerequisites")
		issues = append(issues, fmt.Sprintf("unexpected error during validation: %v", err))
	}

	if err := o.cfg.Validate(); err != nil {
		issues = append(issues, fmt.Sprintf("configuration validation failed: %v", err))
	}

	return len(issues) == 0, issues
}

// isHostReachable runs a lightweight latency probe against one target.
func (o *Orchestrator) isHostReachable(ctx context.Context, target string) bool {
	res, err := o.prober.ProbeLatency(ctx, models.LatencyParams{
		Targets: []string{target},
		Count:   2,
		Timeout: 5 * time.Second,
	})
	return err == nil && res != nil && res.PacketsReceived > 0
}

// Run executes the plan with a generated run identifier.
func (o *Orchestrator) Run(ctx context.Context, plan Plan) (*RunOutcome, error) {
	return o.RunWithID(ctx, plan, uuid.New().String())
}

// RunWithID executes one measurement cycle. Every runtime failure is folded
// into the returned outcome; the error return is non-nil only when the plan
// itself is malformed (a step with an unknown probe kind).
func (o *Orchestrator) RunWithID(ctx context.Context, plan Plan, id string) (*RunOutcome, error) {
	for _, step := range plan.Steps {
		if _, err := models.ParseKind(string(step.Kind)); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKind, step.Kind)
		}
	}

	record := models.NewMeasurementRecord(id)
	statuses := make(map[models.MeasurementKind]StepStatus, len(plan.Steps))
	var errs, warnings []string

	o.logger.Info("Starting measurement cycle", "measurementID", id)

	if plan.ValidatePrerequisites {
		ok, issues := o.ValidatePrerequisites(ctx)
		if !ok {
			o.logger.Error("Prerequisite validation failed", "issues", issues)
			if !plan.ContinueOnFailure {
				return &RunOutcome{
					MeasurementID: id,
					Record:        record,
					StepStatus:    statuses,
					Elapsed:       0,
					Errors:        append(errs, issues...),
					Warnings:      warnings,
				}, nil
			}
			warnings = append(warnings, issues...)
		}
	}

	start := time.Now()
	o.events.fire(BeforeRun, EventContext{MeasurementID: id})

	for _, step := range plan.Steps {
		if !step.Enabled {
			statuses[step.Kind] = StatusSkipped
			continue
		}

		o.logger.Info("Executing measurement step", "kind", step.Kind)
		statuses[step.Kind] = StatusInProgress
		o.events.fire(BeforeStep, EventContext{MeasurementID: id, Kind: step.Kind})

		attempts := step.RetryAttempts
		if attempts < 1 {
			attempts = 1
		}

		var stepErr error
		success := false
		for attempt := 0; attempt < attempts; attempt++ {
			if attempt > 0 {
				o.logger.Info("Retrying measurement step", "kind", step.Kind, "attempt", attempt+1)
			}

			stepErr = o.executeStep(ctx, step, record)
			if stepErr == nil {
				statuses[step.Kind] = StatusCompleted
				success = true
				break
			}

			o.logger.Warn("Measurement step attempt failed",
				"kind", step.Kind,
				"attempt", attempt+1,
				"error", stepErr)

			if attempt == attempts-1 {
				statuses[step.Kind] = StatusFailed
				msg := fmt.Sprintf("%s failed after %d attempts: %v", step.Kind, attempts, stepErr)
				errs = append(errs, msg)
				record.AddError(msg)
				o.errs.ClassifyAndRecord(stepErr, "orchestrator", fmt.Sprintf("execute_%s", step.Kind))
				o.events.fire(OnError, EventContext{MeasurementID: id, Kind: step.Kind, Err: stepErr})
			}
		}

		o.events.fire(AfterStep, EventContext{MeasurementID: id, Kind: step.Kind, Success: success})

		if !success && !step.SkipOnError && !plan.ContinueOnFailure {
			o.logger.Error("Stopping measurement cycle after step failure", "kind", step.Kind)
			break
		}
	}

	if plan.ExportResults {
		if err := o.exporter.Append(ctx, record); err != nil {
			msg := fmt.Sprintf("failed to export measurement results: %v", err)
			errs = append(errs, msg)
			o.logger.Error("Export failed", "measurementID", id, "error", err)
			o.errs.ClassifyAndRecord(err, "orchestrator", "export_results")
		} else {
			o.logger.Info("Measurement exported", "measurementID", id)
		}
	}

	if plan.CleanupOnExit {
		if err := o.prober.Cleanup(); err != nil {
			warnings = append(warnings, fmt.Sprintf("cleanup failed: %v", err))
			o.logger.Warn("Cleanup failed", "error", err)
		}
	}

	o.events.fire(AfterRun, EventContext{MeasurementID: id})
	elapsed := time.Since(start)

	o.logger.Info("Measurement cycle completed",
		"measurementID", id,
		"elapsed", elapsed,
		"errors", len(errs))

	return &RunOutcome{
		MeasurementID: id,
		Record:        record,
		StepStatus:    statuses,
		Elapsed:       elapsed,
		Errors:        errs,
		Warnings:      warnings,
	}, nil
}

// executeStep invokes the probe matching the step's kind, forwarding the
// step timeout into the typed parameter bundle, and merges a successful
// result into the record. The most recent successful result for a kind
// replaces any previous one; a nil result leaves the record untouched.
func (o *Orchestrator) executeStep(ctx context.Context, step Step, record *models.MeasurementRecord) error {
	switch step.Kind {
	case models.KindLinkInfo:
		info, err := o.prober.CollectLinkInfo(ctx, step.Timeout)
		if err != nil {
			return err
		}
		if info != nil {
			record.LinkInfo = info
		}
		return nil

	case models.KindLatency:
		params, _ := step.Params.(models.LatencyParams)
		if len(params.Targets) == 0 {
			params.Targets = o.cfg.TargetIPs
		}
		if len(params.Targets) == 0 {
			return fmt.Errorf("no targets specified for latency probe")
		}
		if step.Timeout > 0 {
			params.Timeout = step.Timeout
		}
		res, err := o.prober.ProbeLatency(ctx, params)
		if err != nil {
			return err
		}
		if res != nil {
			record.Latency = res
		}
		return nil

	case models.KindThroughputTCP:
		params, ok := step.Params.(models.ThroughputTCPParams)
		if !ok {
			params = models.DefaultThroughputTCPParams(o.cfg)
		}
		if step.Timeout > 0 {
			params.Timeout = step.Timeout
		}
		res, err := o.prober.ProbeThroughputTCP(ctx, params)
		if err != nil {
			return err
		}
		if res != nil {
			record.ThroughputTCP = res
		}
		return nil

	case models.KindThroughputUDP:
		params, ok := step.Params.(models.ThroughputUDPParams)
		if !ok {
			params = models.DefaultThroughputUDPParams(o.cfg)
		}
		if step.Timeout > 0 {
			params.Timeout = step.Timeout
		}
		res, err := o.prober.ProbeThroughputUDP(ctx, params)
		if err != nil {
			return err
		}
		if res != nil {
			record.ThroughputUDP = res
		}
		return nil

	case models.KindBulkTransfer:
		params, ok := step.Params.(models.TransferParams)
		if !ok {
			params = models.DefaultTransferParams(o.cfg)
		}
		if step.Timeout > 0 {
			params.Timeout = step.Timeout
		}
		res, err := o.prober.ProbeBulkTransfer(ctx, params)
		if err != nil {
			return err
		}
		if res != nil {
			record.BulkTransfer = res
		}
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnknownKind, step.Kind)
}
