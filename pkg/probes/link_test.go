package probes

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"wlan-analyzer/pkg/models"
)

func testProberConfig() *models.Configuration {
	return &models.Configuration{
		InterfaceName: "wlan0",
		TargetIPs:     []string{"192.168.1.1"},
		ScanInterval:  60,
		Timeout:       5,
		PingCount:     4,
		PingSize:      32,
		PingInterval:  0.2,
		IperfServer:   "192.168.1.100",
		IperfPort:     5201,
		IperfDuration: 10,
		IperfParallel: 1,
		FileServer:    "192.168.1.100",
		FilePort:      80,
		FileSizeMB:    1,
		FileProtocol:  "http",
		OutputDir:     "data",
		LogLevel:      "INFO",
	}
}

func testProber() *SystemProber {
	return NewSystemProber(testProberConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const iwLinkOutput = `Connected to aa:bb:cc:dd:ee:ff (on wlan0)
	SSID: HomeLab
	freq: 5180
	RX: 181976430 bytes (133672 packets)
	TX: 6382747 bytes (42815 packets)
	signal: -55 dBm
	rx bitrate: 866.7 MBit/s VHT-MCS 9 80MHz short GI VHT-NSS 2
	tx bitrate: 780.0 MBit/s VHT-MCS 8 80MHz short GI VHT-NSS 2
`

func TestParseIWLink(t *testing.T) {
	info, err := parseIWLink([]byte(iwLinkOutput))
	if err != nil {
		t.Fatalf("parseIWLink: %v", err)
	}
	if info.SSID != "HomeLab" {
		t.Errorf("SSID = %q, want HomeLab", info.SSID)
	}
	if info.RSSI != -55 {
		t.Errorf("RSSI = %d, want -55", info.RSSI)
	}
	if info.LinkQuality != 90 {
		t.Errorf("LinkQuality = %d, want 90", info.LinkQuality)
	}
	if info.Channel != 36 {
		t.Errorf("Channel = %d, want 36", info.Channel)
	}
	if info.FrequencyGHz != 5.18 {
		t.Errorf("FrequencyGHz = %v, want 5.18", info.FrequencyGHz)
	}
	if info.RxRateMbps != 866.7 {
		t.Errorf("RxRateMbps = %v, want 866.7", info.RxRateMbps)
	}
	if info.TxRateMbps != 780.0 {
		t.Errorf("TxRateMbps = %v, want 780", info.TxRateMbps)
	}
}

func TestParseIWLinkNotConnected(t *testing.T) {
	_, err := parseIWLink([]byte("Not connected.\n"))
	if err == nil || !strings.Contains(err.Error(), "not associated") {
		t.Errorf("error = %v, want 'not associated'", err)
	}
}

func TestParseIWLinkMissingSSID(t *testing.T) {
	_, err := parseIWLink([]byte("Connected to aa:bb:cc:dd:ee:ff (on wlan0)\n\tfreq: 2437\n"))
	if err == nil {
		t.Error("expected an error for output without an SSID")
	}
}

func TestCollectLinkInfoUsesRunner(t *testing.T) {
	p := testProber()

	var gotArgs []string
	p.SetRunner(func(timeout time.Duration, name string, args ...string) ([]byte, []byte, error) {
		if name != "iw" {
			t.Errorf("command = %q, want iw", name)
		}
		gotArgs = args
		return []byte(iwLinkOutput), nil, nil
	})

	info, err := p.CollectLinkInfo(context.Background(), 10*time.Second)
	if err != nil {
		t.Fatalf("CollectLinkInfo: %v", err)
	}
	if info.InterfaceName != "wlan0" {
		t.Errorf("InterfaceName = %q, want wlan0", info.InterfaceName)
	}
	if info.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
	want := []string{"dev", "wlan0", "link"}
	if len(gotArgs) != len(want) {
		t.Fatalf("args = %v, want %v", gotArgs, want)
	}
	for i := range want {
		if gotArgs[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, gotArgs[i], want[i])
		}
	}
}

func TestRssiToQuality(t *testing.T) {
	tests := []struct {
		rssi, want int
	}{
		{-30, 100},
		{-50, 100},
		{-55, 90},
		{-70, 60},
		{-100, 0},
		{-110, 0},
	}
	for _, tt := range tests {
		if got := rssiToQuality(tt.rssi); got != tt.want {
			t.Errorf("rssiToQuality(%d) = %d, want %d", tt.rssi, got, tt.want)
		}
	}
}

func TestFrequencyToChannel(t *testing.T) {
	tests := []struct {
		mhz, want int
	}{
		{2412, 1},
		{2437, 6},
		{2462, 11},
		{2484, 14},
		{5180, 36},
		{5745, 149},
		{5955, 1},
		{6135, 37},
		{1000, 0},
	}
	for _, tt := range tests {
		if got := frequencyToChannel(tt.mhz); got != tt.want {
			t.Errorf("frequencyToChannel(%d) = %d, want %d", tt.mhz, got, tt.want)
		}
	}
}

func TestParseBitrate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{" 866.7 MBit/s VHT-MCS 9", 866.7},
		{" 54.0 MBit/s", 54.0},
		{"", 0},
		{" garbage", 0},
	}
	for _, tt := range tests {
		if got := parseBitrate(tt.in); got != tt.want {
			t.Errorf("parseBitrate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
