// Package metrics exposes Prometheus collectors for the measurement engine.
// The collectors are fed by event listeners registered on the orchestrator,
// keeping the engine itself metrics-free.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"wlan-analyzer/pkg/orchestrator"
)

var (
	RunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wlan_analyzer_runs_total",
			Help: "Number of measurement cycles executed.",
		})
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wlan_analyzer_run_duration_seconds",
			Help:    "A histogram of measurement cycle durations.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		})
	StepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wlan_analyzer_steps_total",
			Help: "Number of measurement steps, by kind and result.",
		},
		[]string{"kind", "result"})
	StepErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wlan_analyzer_step_errors_total",
			Help: "Number of step failures after retry exhaustion, by kind.",
		},
		[]string{"kind"})
)

// Register attaches the metric-feeding listeners to an orchestrator.
func Register(o *orchestrator.Orchestrator) error {
	var mu sync.Mutex
	starts := make(map[string]time.Time)

	if err := o.RegisterListener(orchestrator.BeforeRun, func(ec orchestrator.EventContext) error {
		mu.Lock()
		starts[ec.MeasurementID] = time.Now()
		mu.Unlock()
		return nil
	}); err != nil {
		return err
	}

	if err := o.RegisterListener(orchestrator.AfterRun, func(ec orchestrator.EventContext) error {
		RunsTotal.Inc()
		mu.Lock()
		start, ok := starts[ec.MeasurementID]
		delete(starts, ec.MeasurementID)
		mu.Unlock()
		if ok {
			RunDuration.Observe(time.Since(start).Seconds())
		}
		return nil
	}); err != nil {
		return err
	}

	if err := o.RegisterListener(orchestrator.AfterStep, func(ec orchestrator.EventContext) error {
		result := "success"
		if !ec.Success {
			result = "failure"
		}
		StepsTotal.WithLabelValues(string(ec.Kind), result).Inc()
		return nil
	}); err != nil {
		return err
	}

	return o.RegisterListener(orchestrator.OnError, func(ec orchestrator.EventContext) error {
		StepErrors.WithLabelValues(string(ec.Kind)).Inc()
		return nil
	})
}
