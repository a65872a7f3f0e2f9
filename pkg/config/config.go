// Package config loads the analyzer configuration through viper and parses
// YAML plan files describing custom measurement sequences.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"wlan-analyzer/pkg/models"
)

// SetDefaults registers the default value of every configuration key.
func SetDefaults() {
	viper.SetDefault("network.interface_name", "wlan0")
	viper.SetDefault("network.target_ips", []string{"192.168.1.1"})
	viper.SetDefault("network.scan_interval", 60)
	viper.SetDefault("network.timeout", 10)

	viper.SetDefault("measurement.ping_count", 10)
	viper.SetDefault("measurement.ping_size", 32)
	viper.SetDefault("measurement.ping_interval", 1.0)
	viper.SetDefault("measurement.iperf_server", "192.168.1.100")
	viper.SetDefault("measurement.iperf_port", 5201)
	viper.SetDefault("measurement.iperf_duration", 10)
	viper.SetDefault("measurement.iperf_parallel", 1)
	viper.SetDefault("measurement.iperf_udp_bandwidth", "10M")
	viper.SetDefault("measurement.file_server", "192.168.1.100")
	viper.SetDefault("measurement.file_port", 80)
	viper.SetDefault("measurement.file_size_mb", 100)
	viper.SetDefault("measurement.file_protocol", "http")
	viper.SetDefault("measurement.file_username", "")
	viper.SetDefault("measurement.file_password", "")

	viper.SetDefault("output.data_directory", "data")
	viper.SetDefault("output.log_level", "INFO")

	viper.SetDefault("export.database", false)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "wlan")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "wlan_analyzer")
	viper.SetDefault("database.sslmode", "disable")

	viper.SetDefault("metrics.listen_address", ":9990")
}

// Load builds a validated Configuration from the current viper state.
func Load() (*models.Configuration, error) {
	cfg := &models.Configuration{
		InterfaceName: viper.GetString("network.interface_name"),
		TargetIPs:     viper.GetStringSlice("network.target_ips"),
		ScanInterval:  viper.GetInt("network.scan_interval"),
		Timeout:       viper.GetInt("network.timeout"),

		PingCount:    viper.GetInt("measurement.ping_count"),
		PingSize:     viper.GetInt("measurement.ping_size"),
		PingInterval: viper.GetFloat64("measurement.ping_interval"),

		IperfServer:       viper.GetString("measurement.iperf_server"),
		IperfPort:         viper.GetInt("measurement.iperf_port"),
		IperfDuration:     viper.GetInt("measurement.iperf_duration"),
		IperfParallel:     viper.GetInt("measurement.iperf_parallel"),
		IperfUDPBandwidth: viper.GetString("measurement.iperf_udp_bandwidth"),

		FileServer:   viper.GetString("measurement.file_server"),
		FilePort:     viper.GetInt("measurement.file_port"),
		FileSizeMB:   viper.GetInt("measurement.file_size_mb"),
		FileProtocol: viper.GetString("measurement.file_protocol"),
		FileUsername: viper.GetString("measurement.file_username"),
		FilePassword: viper.GetString("measurement.file_password"),

		OutputDir: viper.GetString("output.data_directory"),
		LogLevel:  viper.GetString("output.log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %v", err)
	}
	return cfg, nil
}

const defaultConfigYAML = `# wlan-analyzer configuration
network:
  interface_name: wlan0
  target_ips:
    - 192.168.1.1
  scan_interval: 60   # seconds between cycles in monitor mode
  timeout: 10         # default probe timeout, seconds

measurement:
  ping_count: 10
  ping_size: 32
  ping_interval: 1.0
  iperf_server: 192.168.1.100
  iperf_port: 5201
  iperf_duration: 10
  iperf_parallel: 1
  iperf_udp_bandwidth: 10M
  file_server: 192.168.1.100
  file_port: 80
  file_size_mb: 100
  file_protocol: http   # http, https or tcp

output:
  data_directory: data
  log_level: INFO

export:
  database: false       # also export into PostgreSQL

database:
  host: localhost
  port: 5432
  user: wlan
  password: ""
  dbname: wlan_analyzer
  sslmode: disable

metrics:
  listen_address: ":9990"
`

// WriteDefault writes a commented default configuration file. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %v", err)
	}
	return nil
}
