package models

import (
	"fmt"
	"net"
	"time"
)

// MeasurementKind identifies one of the probe kinds the orchestrator knows
// how to run. The set is closed; ParseKind rejects anything else.
type MeasurementKind string

const (
	KindLinkInfo      MeasurementKind = "link_info"
	KindLatency       MeasurementKind = "latency"
	KindThroughputTCP MeasurementKind = "throughput_tcp"
	KindThroughputUDP MeasurementKind = "throughput_udp"
	KindBulkTransfer  MeasurementKind = "bulk_transfer"
)

// AllKinds returns every probe kind in the default execution order.
func AllKinds() []MeasurementKind {
	return []MeasurementKind{
		KindLinkInfo,
		KindLatency,
		KindThroughputTCP,
		KindThroughputUDP,
		KindBulkTransfer,
	}
}

// ParseKind converts a string into a MeasurementKind.
func ParseKind(s string) (MeasurementKind, error) {
	switch MeasurementKind(s) {
	case KindLinkInfo, KindLatency, KindThroughputTCP, KindThroughputUDP, KindBulkTransfer:
		return MeasurementKind(s), nil
	}
	return "", fmt.Errorf("unknown measurement kind: %q", s)
}

// LinkInfo is a snapshot of the wireless link taken from the OS.
type LinkInfo struct {
	SSID          string
	RSSI          int // dBm
	LinkQuality   int // percentage
	TxRateMbps    float64
	RxRateMbps    float64
	Channel       int
	FrequencyGHz  float64
	InterfaceName string
	MACAddress    string
	Timestamp     time.Time
}

// Validate checks that the snapshot values are physically plausible.
func (l *LinkInfo) Validate() error {
	if l.RSSI < -100 || l.RSSI > 0 {
		return fmt.Errorf("invalid RSSI value: %d", l.RSSI)
	}
	if l.LinkQuality < 0 || l.LinkQuality > 100 {
		return fmt.Errorf("invalid link quality: %d", l.LinkQuality)
	}
	if l.TxRateMbps < 0 || l.RxRateMbps < 0 {
		return fmt.Errorf("tx/rx rates cannot be negative")
	}
	return nil
}

// LatencyResult holds the outcome of a latency probe against one target.
type LatencyResult struct {
	Target          string
	PacketsSent     int
	PacketsReceived int
	PacketLossPct   float64
	MinRTT          float64 // ms
	MaxRTT          float64 // ms
	AvgRTT          float64 // ms
	StdDevRTT       float64 // ms
	Timestamp       time.Time
}

// SuccessRate returns the percentage of packets that were answered.
func (r *LatencyResult) SuccessRate() float64 {
	if r.PacketsSent == 0 {
		return 0
	}
	return float64(r.PacketsReceived) / float64(r.PacketsSent) * 100
}

// ThroughputResult holds a bidirectional TCP throughput measurement.
type ThroughputResult struct {
	Server        string
	Port          int
	Duration      float64 // seconds
	BytesSent     int64
	BytesReceived int64
	UploadMbps    float64
	DownloadMbps  float64
	Retransmits   int
	Timestamp     time.Time
}

// DatagramResult holds a UDP throughput measurement.
type DatagramResult struct {
	Server         string
	Port           int
	Duration       float64 // seconds
	BytesSent      int64
	PacketsSent    int
	PacketsLost    int
	PacketLossPct  float64
	JitterMs       float64
	ThroughputMbps float64
	Timestamp      time.Time
}

// TransferResult holds a bulk file transfer measurement.
type TransferResult struct {
	Server        string
	FileSizeBytes int64
	TransferTime  float64 // seconds
	SpeedMBps     float64
	Protocol      string // "http", "https" or "tcp"
	Direction     string // "upload" or "download"
	Timestamp     time.Time
}

// ThroughputMbps converts the transfer speed from MB/s to Mbit/s.
func (t *TransferResult) ThroughputMbps() float64 {
	return t.SpeedMBps * 8
}

// Configuration carries every tunable of the analyzer. It is populated by
// pkg/config from viper and validated before a run starts.
type Configuration struct {
	// Network settings
	InterfaceName string
	TargetIPs     []string
	ScanInterval  int // seconds between cycles in monitor mode
	Timeout       int // seconds, default probe timeout

	// Latency probe settings
	PingCount    int
	PingSize     int     // bytes
	PingInterval float64 // seconds between packets

	// Throughput probe settings
	IperfServer       string
	IperfPort         int
	IperfDuration     int // seconds
	IperfParallel     int
	IperfUDPBandwidth string // iperf3 bandwidth spec, e.g. "10M"

	// Bulk transfer settings
	FileServer   string
	FilePort     int
	FileSizeMB   int
	FileProtocol string // "http", "https" or "tcp"
	FileUsername string
	FilePassword string

	// Output settings
	OutputDir string
	LogLevel  string
}

var validLogLevels = map[string]bool{
	"DEBUG": true, "INFO": true, "WARNING": true, "ERROR": true,
}

var validTransferProtocols = map[string]bool{
	"http": true, "https": true, "tcp": true,
}

// Validate performs structural validation of the configuration.
func (c *Configuration) Validate() error {
	if c.InterfaceName == "" {
		return fmt.Errorf("interface name must not be empty")
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("scan interval must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.PingCount <= 0 {
		return fmt.Errorf("ping count must be positive")
	}
	if c.IperfDuration <= 0 {
		return fmt.Errorf("iperf duration must be positive")
	}
	if c.IperfPort < 1 || c.IperfPort > 65535 {
		return fmt.Errorf("invalid iperf port: %d", c.IperfPort)
	}
	if c.FileSizeMB <= 0 {
		return fmt.Errorf("file size must be positive")
	}
	if !validTransferProtocols[c.FileProtocol] {
		return fmt.Errorf("unsupported file transfer protocol: %q", c.FileProtocol)
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %q", c.LogLevel)
	}
	for _, ip := range c.TargetIPs {
		if net.ParseIP(ip) == nil {
			return fmt.Errorf("invalid target IP address: %q", ip)
		}
	}
	return nil
}
