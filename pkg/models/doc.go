/*
Package models defines the core data structures used throughout the
wlan-analyzer application: the probe kinds, the typed result of each probe,
the per-kind parameter bundles, the aggregate measurement record, and the
application configuration.

Core Types:

MeasurementKind is the closed set of probe kinds, in default execution order:

	KindLinkInfo       // wireless link snapshot
	KindLatency        // ICMP round-trip statistics
	KindThroughputTCP  // bidirectional TCP throughput (iperf3)
	KindThroughputUDP  // UDP throughput, jitter and loss (iperf3)
	KindBulkTransfer   // bulk file transfer speed

Each kind produces one typed result (LinkInfo, LatencyResult,
ThroughputResult, DatagramResult, TransferResult) and is parameterized by
one typed ProbeParams variant (LatencyParams, ThroughputTCPParams,
ThroughputUDPParams, TransferParams; the link snapshot takes none).

MeasurementRecord aggregates the results of one measurement cycle:

	type MeasurementRecord struct {
		MeasurementID string            // unique run identifier
		LinkInfo      *LinkInfo         // nil until the step completes
		Latency       *LatencyResult
		ThroughputTCP *ThroughputResult
		ThroughputUDP *DatagramResult
		BulkTransfer  *TransferResult
		Errors        []string          // timestamped error strings
		Metadata      map[string]string // free-form annotations
		Timestamp     time.Time         // record creation time
	}

Configuration carries the network, probe and output settings consumed by the
orchestrator and the probes. Validate performs the structural checks the
prerequisite validator relies on (positive counts and durations, port
ranges, IP syntax, known log level and transfer protocol).

The package has no dependencies beyond the standard library; persistence
mappings for measurement records live in pkg/database.
*/
package models
