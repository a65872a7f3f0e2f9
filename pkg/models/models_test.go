package models

import (
	"strings"
	"testing"
)

func validConfig() *Configuration {
	return &Configuration{
		InterfaceName: "wlan0",
		TargetIPs:     []string{"192.168.1.1", "8.8.8.8"},
		ScanInterval:  60,
		Timeout:       10,
		PingCount:     10,
		PingSize:      32,
		PingInterval:  1.0,
		IperfServer:   "192.168.1.100",
		IperfPort:     5201,
		IperfDuration: 10,
		IperfParallel: 1,
		FileServer:    "192.168.1.100",
		FilePort:      80,
		FileSizeMB:    100,
		FileProtocol:  "http",
		OutputDir:     "data",
		LogLevel:      "INFO",
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    MeasurementKind
		wantErr bool
	}{
		{"link_info", KindLinkInfo, false},
		{"latency", KindLatency, false},
		{"throughput_tcp", KindThroughputTCP, false},
		{"throughput_udp", KindThroughputUDP, false},
		{"bulk_transfer", KindBulkTransfer, false},
		{"wifi_scan", "", true},
		{"", "", true},
		{"Latency", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAllKindsOrder(t *testing.T) {
	want := []MeasurementKind{KindLinkInfo, KindLatency, KindThroughputTCP, KindThroughputUDP, KindBulkTransfer}
	got := AllKinds()
	if len(got) != len(want) {
		t.Fatalf("AllKinds() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AllKinds()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLinkInfoValidate(t *testing.T) {
	tests := []struct {
		name    string
		info    LinkInfo
		wantErr bool
	}{
		{"valid", LinkInfo{RSSI: -55, LinkQuality: 90, TxRateMbps: 866.7, RxRateMbps: 866.7}, false},
		{"rssi too low", LinkInfo{RSSI: -120, LinkQuality: 50}, true},
		{"rssi positive", LinkInfo{RSSI: 3, LinkQuality: 50}, true},
		{"quality over 100", LinkInfo{RSSI: -55, LinkQuality: 120}, true},
		{"negative rate", LinkInfo{RSSI: -55, LinkQuality: 90, TxRateMbps: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.info.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLatencySuccessRate(t *testing.T) {
	tests := []struct {
		sent, received int
		want           float64
	}{
		{10, 10, 100},
		{10, 5, 50},
		{10, 0, 0},
		{0, 0, 0},
	}
	for _, tt := range tests {
		r := LatencyResult{PacketsSent: tt.sent, PacketsReceived: tt.received}
		if got := r.SuccessRate(); got != tt.want {
			t.Errorf("SuccessRate(%d/%d) = %v, want %v", tt.received, tt.sent, got, tt.want)
		}
	}
}

func TestTransferThroughputMbps(t *testing.T) {
	r := TransferResult{SpeedMBps: 12.5}
	if got := r.ThroughputMbps(); got != 100 {
		t.Errorf("ThroughputMbps() = %v, want 100", got)
	}
}

func TestConfigurationValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr string
	}{
		{"valid", func(c *Configuration) {}, ""},
		{"empty interface", func(c *Configuration) { c.InterfaceName = "" }, "interface name"},
		{"zero scan interval", func(c *Configuration) { c.ScanInterval = 0 }, "scan interval"},
		{"negative timeout", func(c *Configuration) { c.Timeout = -1 }, "timeout"},
		{"zero ping count", func(c *Configuration) { c.PingCount = 0 }, "ping count"},
		{"zero iperf duration", func(c *Configuration) { c.IperfDuration = 0 }, "iperf duration"},
		{"port out of range", func(c *Configuration) { c.IperfPort = 70000 }, "iperf port"},
		{"zero file size", func(c *Configuration) { c.FileSizeMB = 0 }, "file size"},
		{"bad protocol", func(c *Configuration) { c.FileProtocol = "ftp" }, "protocol"},
		{"bad log level", func(c *Configuration) { c.LogLevel = "TRACE" }, "log level"},
		{"bad target IP", func(c *Configuration) { c.TargetIPs = []string{"not-an-ip"} }, "IP address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
