/*
Package orchestrator contains the measurement orchestration engine: it turns
a declarative plan (which probes to run, with what timeout, retry and skip
policy) into a supervised, strictly sequential execution with prerequisite
gating, per-step retry, failure isolation, lifecycle events and result
aggregation into a single measurement record per run.

A run never raises: probe, export and cleanup failures are folded into the
returned RunOutcome as error and warning strings. The only error Run itself
returns is ErrUnknownKind for a malformed plan.

Timeout handling is advisory. A step's timeout is forwarded to the probe
call inside its parameter bundle; the engine does not preempt a hung probe.
Enforcing the deadline is the Prober implementation's responsibility (the
system prober passes it to the external command runner).

Concurrent runs against one Orchestrator instance are not supported; callers
that need parallel cycles must use one instance per run or serialize access.
*/
package orchestrator
