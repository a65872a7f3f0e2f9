package orchestrator

import (
	"time"

	"wlan-analyzer/pkg/models"
)

// Fixed timeout headroom added on top of the configured iperf3 duration, and
// the ceiling granted to bulk transfers.
const (
	linkInfoTimeout     = 10 * time.Second
	latencyTimeout      = 30 * time.Second
	throughputMargin    = 30 * time.Second
	bulkTransferTimeout = 5 * time.Minute
)

// Step is one configured probe invocation within a plan. Steps are values;
// once a plan is built they are never mutated.
type Step struct {
	Kind          models.MeasurementKind
	Enabled       bool
	Timeout       time.Duration // 0 means no step-specific timeout
	SkipOnError   bool
	RetryAttempts int
	Params        models.ProbeParams // nil for kinds that take none
}

// Plan is the ordered sequence of steps plus run-level policy flags.
type Plan struct {
	Steps                 []Step
	ValidatePrerequisites bool
	ContinueOnFailure     bool
	ExportResults         bool
	CleanupOnExit         bool
}

// DefaultPlan builds a plan containing every probe kind in the default
// order, parameterized from the active configuration. The link snapshot is
// retried twice and never skipped on error; everything else gets one attempt
// and skip-on-error.
func (o *Orchestrator) DefaultPlan() Plan {
	cfg := o.cfg
	steps := []Step{
		{
			Kind:          models.KindLinkInfo,
			Enabled:       true,
			Timeout:       linkInfoTimeout,
			SkipOnError:   false,
			RetryAttempts: 2,
		},
		{
			Kind:          models.KindLatency,
			Enabled:       true,
			Timeout:       latencyTimeout,
			SkipOnError:   true,
			RetryAttempts: 1,
			Params:        models.DefaultLatencyParams(cfg),
		},
		{
			Kind:          models.KindThroughputTCP,
			Enabled:       true,
			Timeout:       time.Duration(cfg.IperfDuration)*time.Second + throughputMargin,
			SkipOnError:   true,
			RetryAttempts: 1,
			Params:        models.DefaultThroughputTCPParams(cfg),
		},
		{
			Kind:          models.KindThroughputUDP,
			Enabled:       true,
			Timeout:       time.Duration(cfg.IperfDuration)*time.Second + throughputMargin,
			SkipOnError:   true,
			RetryAttempts: 1,
			Params:        models.DefaultThroughputUDPParams(cfg),
		},
		{
			Kind:          models.KindBulkTransfer,
			Enabled:       true,
			Timeout:       bulkTransferTimeout,
			SkipOnError:   true,
			RetryAttempts: 1,
			Params:        models.DefaultTransferParams(cfg),
		},
	}

	return Plan{
		Steps:                 steps,
		ValidatePrerequisites: true,
		ContinueOnFailure:     true,
		ExportResults:         true,
		CleanupOnExit:         true,
	}
}

// CustomPlan starts from the default plan, keeps only the steps whose kind
// appears in kinds, and applies per-kind timeout and parameter overrides.
// Excluded kinds are dropped entirely; the default ordering is preserved
// regardless of the order of kinds.
func (o *Orchestrator) CustomPlan(
	kinds []models.MeasurementKind,
	timeoutOverrides map[models.MeasurementKind]time.Duration,
	paramOverrides map[models.MeasurementKind]models.ProbeParams,
) Plan {
	enabled := make(map[models.MeasurementKind]bool, len(kinds))
	for _, k := range kinds {
		enabled[k] = true
	}

	plan := o.DefaultPlan()
	steps := make([]Step, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		if !enabled[step.Kind] {
			continue
		}
		if t, ok := timeoutOverrides[step.Kind]; ok {
			step.Timeout = t
		}
		if p, ok := paramOverrides[step.Kind]; ok && p != nil {
			step.Params = p
		}
		steps = append(steps, step)
	}
	plan.Steps = steps
	return plan
}
