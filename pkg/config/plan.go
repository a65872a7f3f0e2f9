package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"wlan-analyzer/pkg/models"
)

// PlanFile is the YAML description of a custom measurement sequence.
type PlanFile struct {
	Probes        []string                 `yaml:"probes"`
	StopOnFailure bool                     `yaml:"stop_on_failure"`
	Timeouts      map[string]int           `yaml:"timeouts"` // seconds, per kind
	Overrides     map[string]ProbeOverride `yaml:"overrides"`
}

// ProbeOverride carries the per-kind parameter fields a plan file may
// override. Zero values leave the configured default in place.
type ProbeOverride struct {
	Targets    []string `yaml:"targets"`
	Count      int      `yaml:"count"`
	PacketSize int      `yaml:"packet_size"`
	Interval   float64  `yaml:"interval"`
	Server     string   `yaml:"server"`
	Port       int      `yaml:"port"`
	Duration   int      `yaml:"duration"`
	Parallel   int      `yaml:"parallel"`
	Bandwidth  string   `yaml:"bandwidth"`
	SizeMB     int      `yaml:"size_mb"`
	Protocol   string   `yaml:"protocol"`
	Direction  string   `yaml:"direction"`
}

// LoadPlanFile reads and validates a plan file. Unknown probe kind names are
// load-time errors.
func LoadPlanFile(path string) (*PlanFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %v", err)
	}

	var pf PlanFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing plan file: %v", err)
	}

	if len(pf.Probes) == 0 {
		return nil, fmt.Errorf("plan file selects no probes")
	}
	for _, name := range pf.Probes {
		if _, err := models.ParseKind(name); err != nil {
			return nil, fmt.Errorf("plan file: %v", err)
		}
	}
	for name := range pf.Timeouts {
		if _, err := models.ParseKind(name); err != nil {
			return nil, fmt.Errorf("plan file timeouts: %v", err)
		}
	}
	for name := range pf.Overrides {
		if _, err := models.ParseKind(name); err != nil {
			return nil, fmt.Errorf("plan file overrides: %v", err)
		}
	}
	return &pf, nil
}

// Kinds returns the selected probe kinds.
func (pf *PlanFile) Kinds() []models.MeasurementKind {
	kinds := make([]models.MeasurementKind, 0, len(pf.Probes))
	for _, name := range pf.Probes {
		k, _ := models.ParseKind(name)
		kinds = append(kinds, k)
	}
	return kinds
}

// TimeoutOverrides converts the per-kind timeout seconds into durations.
func (pf *PlanFile) TimeoutOverrides() map[models.MeasurementKind]time.Duration {
	out := make(map[models.MeasurementKind]time.Duration, len(pf.Timeouts))
	for name, secs := range pf.Timeouts {
		k, _ := models.ParseKind(name)
		out[k] = time.Duration(secs) * time.Second
	}
	return out
}

// ParamOverrides materializes the overrides into typed parameter bundles,
// starting from the configured defaults so partial overrides work.
func (pf *PlanFile) ParamOverrides(cfg *models.Configuration) map[models.MeasurementKind]models.ProbeParams {
	out := make(map[models.MeasurementKind]models.ProbeParams, len(pf.Overrides))
	for name, ov := range pf.Overrides {
		k, _ := models.ParseKind(name)
		switch k {
		case models.KindLatency:
			p := models.DefaultLatencyParams(cfg)
			if len(ov.Targets) > 0 {
				p.Targets = ov.Targets
			}
			if ov.Count > 0 {
				p.Count = ov.Count
			}
			if ov.PacketSize > 0 {
				p.PacketSize = ov.PacketSize
			}
			if ov.Interval > 0 {
				p.Interval = ov.Interval
			}
			out[k] = p
		case models.KindThroughputTCP:
			p := models.DefaultThroughputTCPParams(cfg)
			if ov.Server != "" {
				p.Server = ov.Server
			}
			if ov.Port > 0 {
				p.Port = ov.Port
			}
			if ov.Duration > 0 {
				p.Duration = ov.Duration
			}
			if ov.Parallel > 0 {
				p.Parallel = ov.Parallel
			}
			out[k] = p
		case models.KindThroughputUDP:
			p := models.DefaultThroughputUDPParams(cfg)
			if ov.Server != "" {
				p.Server = ov.Server
			}
			if ov.Port > 0 {
				p.Port = ov.Port
			}
			if ov.Duration > 0 {
				p.Duration = ov.Duration
			}
			if ov.Bandwidth != "" {
				p.Bandwidth = ov.Bandwidth
			}
			out[k] = p
		case models.KindBulkTransfer:
			p := models.DefaultTransferParams(cfg)
			if ov.Server != "" {
				p.Server = ov.Server
			}
			if ov.Port > 0 {
				p.Port = ov.Port
			}
			if ov.SizeMB > 0 {
				p.SizeMB = ov.SizeMB
			}
			if ov.Protocol != "" {
				p.Protocol = ov.Protocol
			}
			if ov.Direction != "" {
				p.Direction = ov.Direction
			}
			out[k] = p
		}
	}
	return out
}
