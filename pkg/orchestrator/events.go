package orchestrator

import (
	"fmt"
	"log/slog"

	"wlan-analyzer/pkg/models"
)

// Event names a lifecycle notification channel. The set is closed; Register
// rejects anything outside it.
type Event int

const (
	BeforeRun Event = iota
	AfterRun
	BeforeStep
	AfterStep
	OnError
	eventCount
)

func (e Event) String() string {
	switch e {
	case BeforeRun:
		return "before_run"
	case AfterRun:
		return "after_run"
	case BeforeStep:
		return "before_step"
	case AfterStep:
		return "after_step"
	case OnError:
		return "on_error"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// EventContext carries the details of one lifecycle notification. Kind is
// empty for run-level events; Success is meaningful only for AfterStep and
// Err only for OnError.
type EventContext struct {
	MeasurementID string
	Kind          models.MeasurementKind
	Success       bool
	Err           error
}

// Listener receives lifecycle notifications. A non-nil return is logged as a
// warning and never propagated; the same holds for a panicking listener.
type Listener func(EventContext) error

type dispatcher struct {
	logger    *slog.Logger
	listeners [eventCount][]Listener
}

func (d *dispatcher) register(ev Event, fn Listener) error {
	if ev < 0 || ev >= eventCount {
		return fmt.Errorf("unknown event: %v", ev)
	}
	d.listeners[ev] = append(d.listeners[ev], fn)
	return nil
}

// fire invokes every listener registered for ev synchronously, in
// registration order. Listener failures are isolated so one misbehaving
// listener cannot stop the others or the run.
func (d *dispatcher) fire(ev Event, ctx EventContext) {
	for _, fn := range d.listeners[ev] {
		d.invoke(ev, fn, ctx)
	}
}

func (d *dispatcher) invoke(ev Event, fn Listener, ctx EventContext) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("Event listener panicked", "event", ev.String(), "panic", r)
		}
	}()
	if err := fn(ctx); err != nil {
		d.logger.Warn("Event listener failed", "event", ev.String(), "error", err)
	}
}
