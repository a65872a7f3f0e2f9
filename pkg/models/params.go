package models

import "time"

// ProbeParams is the closed set of per-kind probe parameter bundles. Each
// probe kind has exactly one concrete variant; the sequence builder
// constructs the right one, so probers never fish values out of a map.
type ProbeParams interface {
	Kind() MeasurementKind
}

// LatencyParams parameterizes a latency probe. With more than one target the
// prober measures all of them and reports aggregated statistics under the
// first target.
type LatencyParams struct {
	Targets    []string
	Count      int
	PacketSize int     // bytes
	Interval   float64 // seconds between packets
	Timeout    time.Duration
}

func (LatencyParams) Kind() MeasurementKind { return KindLatency }

// ThroughputTCPParams parameterizes a bidirectional TCP throughput probe.
type ThroughputTCPParams struct {
	Server   string
	Port     int
	Duration int // seconds
	Parallel int
	Timeout  time.Duration
}

func (ThroughputTCPParams) Kind() MeasurementKind { return KindThroughputTCP }

// ThroughputUDPParams parameterizes a UDP throughput probe.
type ThroughputUDPParams struct {
	Server    string
	Port      int
	Duration  int    // seconds
	Bandwidth string // iperf3 bandwidth spec, e.g. "10M"
	Timeout   time.Duration
}

func (ThroughputUDPParams) Kind() MeasurementKind { return KindThroughputUDP }

// TransferParams parameterizes a bulk transfer probe.
type TransferParams struct {
	Server    string
	Port      int
	SizeMB    int
	Protocol  string // "http", "https" or "tcp"
	Direction string // "upload" or "download"
	Username  string
	Password  string
	Timeout   time.Duration
}

func (TransferParams) Kind() MeasurementKind { return KindBulkTransfer }

// DefaultLatencyParams builds latency parameters from the configuration.
func DefaultLatencyParams(cfg *Configuration) LatencyParams {
	return LatencyParams{
		Targets:    append([]string(nil), cfg.TargetIPs...),
		Count:      cfg.PingCount,
		PacketSize: cfg.PingSize,
		Interval:   cfg.PingInterval,
	}
}

// DefaultThroughputTCPParams builds TCP throughput parameters from the
// configuration.
func DefaultThroughputTCPParams(cfg *Configuration) ThroughputTCPParams {
	return ThroughputTCPParams{
		Server:   cfg.IperfServer,
		Port:     cfg.IperfPort,
		Duration: cfg.IperfDuration,
		Parallel: cfg.IperfParallel,
	}
}

// DefaultThroughputUDPParams builds UDP throughput parameters from the
// configuration.
func DefaultThroughputUDPParams(cfg *Configuration) ThroughputUDPParams {
	return ThroughputUDPParams{
		Server:    cfg.IperfServer,
		Port:      cfg.IperfPort,
		Duration:  cfg.IperfDuration,
		Bandwidth: cfg.IperfUDPBandwidth,
	}
}

// DefaultTransferParams builds bulk transfer parameters from the
// configuration. Direction defaults to download.
func DefaultTransferParams(cfg *Configuration) TransferParams {
	return TransferParams{
		Server:    cfg.FileServer,
		Port:      cfg.FilePort,
		SizeMB:    cfg.FileSizeMB,
		Protocol:  cfg.FileProtocol,
		Direction: "download",
		Username:  cfg.FileUsername,
		Password:  cfg.FilePassword,
	}
}
