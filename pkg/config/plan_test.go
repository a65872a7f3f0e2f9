package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"wlan-analyzer/pkg/models"
)

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	return path
}

func TestLoadPlanFile(t *testing.T) {
	path := writePlan(t, `
probes:
  - link_info
  - latency
stop_on_failure: true
timeouts:
  latency: 45
overrides:
  latency:
    targets:
      - 10.0.0.1
      - 10.0.0.2
    count: 20
`)

	pf, err := LoadPlanFile(path)
	if err != nil {
		t.Fatalf("LoadPlanFile: %v", err)
	}
	if !pf.StopOnFailure {
		t.Error("stop_on_failure not parsed")
	}

	kinds := pf.Kinds()
	if len(kinds) != 2 || kinds[0] != models.KindLinkInfo || kinds[1] != models.KindLatency {
		t.Errorf("kinds = %v, want [link_info latency]", kinds)
	}

	timeouts := pf.TimeoutOverrides()
	if timeouts[models.KindLatency] != 45*time.Second {
		t.Errorf("latency timeout = %v, want 45s", timeouts[models.KindLatency])
	}
}

func TestLoadPlanFileRejectsUnknownKind(t *testing.T) {
	path := writePlan(t, "probes:\n  - wifi_scan\n")
	if _, err := LoadPlanFile(path); err == nil {
		t.Error("expected an error for an unknown probe kind")
	}
}

func TestLoadPlanFileRejectsUnknownOverrideKind(t *testing.T) {
	path := writePlan(t, `
probes:
  - latency
overrides:
  wifi_scan:
    count: 5
`)
	if _, err := LoadPlanFile(path); err == nil {
		t.Error("expected an error for an unknown override kind")
	}
}

func TestLoadPlanFileRejectsEmptySelection(t *testing.T) {
	path := writePlan(t, "stop_on_failure: true\n")
	if _, err := LoadPlanFile(path); err == nil {
		t.Error("expected an error for a plan selecting no probes")
	}
}

func TestLoadPlanFileMissingFile(t *testing.T) {
	if _, err := LoadPlanFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestParamOverridesPartialMerge(t *testing.T) {
	path := writePlan(t, `
probes:
  - latency
  - throughput_udp
overrides:
  latency:
    count: 20
  throughput_udp:
    bandwidth: 100M
`)
	pf, err := LoadPlanFile(path)
	if err != nil {
		t.Fatalf("LoadPlanFile: %v", err)
	}

	cfg := &models.Configuration{
		TargetIPs:         []string{"192.168.1.1"},
		PingCount:         10,
		PingSize:          32,
		PingInterval:      1.0,
		IperfServer:       "192.168.1.100",
		IperfPort:         5201,
		IperfDuration:     10,
		IperfUDPBandwidth: "10M",
	}
	overrides := pf.ParamOverrides(cfg)

	lat, ok := overrides[models.KindLatency].(models.LatencyParams)
	if !ok {
		t.Fatalf("latency override = %T, want LatencyParams", overrides[models.KindLatency])
	}
	if lat.Count != 20 {
		t.Errorf("count = %d, want the override 20", lat.Count)
	}
	if len(lat.Targets) != 1 || lat.Targets[0] != "192.168.1.1" {
		t.Errorf("targets = %v, want the configured default", lat.Targets)
	}
	if lat.PacketSize != 32 {
		t.Errorf("packet size = %d, want the configured default 32", lat.PacketSize)
	}

	udp, ok := overrides[models.KindThroughputUDP].(models.ThroughputUDPParams)
	if !ok {
		t.Fatalf("udp override = %T, want ThroughputUDPParams", overrides[models.KindThroughputUDP])
	}
	if udp.Bandwidth != "100M" {
		t.Errorf("bandwidth = %q, want the override 100M", udp.Bandwidth)
	}
	if udp.Server != "192.168.1.100" || udp.Port != 5201 {
		t.Errorf("server = %s:%d, want the configured default", udp.Server, udp.Port)
	}
}
