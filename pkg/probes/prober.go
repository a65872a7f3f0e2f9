// Package probes implements the measurement probes behind the
// orchestrator's Prober interface for Linux hosts: a wireless link snapshot
// via iw and sysfs, latency via the system ping binary, TCP/UDP throughput
// via iperf3's JSON output, and bulk transfers over HTTP, HTTPS or a raw TCP
// stream. External commands run through gopkg.in/m-lab/pipe.v3 with the
// advisory step timeout enforced at the process level.
package probes

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Jigsaw-Code/outline-sdk/transport"
	pipe "gopkg.in/m-lab/pipe.v3"

	"wlan-analyzer/pkg/models"
)

// Runner executes an external command and returns its stdout and stderr.
// It is injectable so parser behavior can be tested with canned output.
type Runner func(timeout time.Duration, name string, args ...string) (stdout, stderr []byte, err error)

func pipeRunner(timeout time.Duration, name string, args ...string) ([]byte, []byte, error) {
	p := pipe.Exec(name, args...)
	if timeout > 0 {
		return pipe.DividedOutputTimeout(p, timeout)
	}
	return pipe.DividedOutput(p)
}

// SystemProber performs measurements using external tools and the local
// network stack. Temp files created for bulk transfers are tracked and
// removed by Cleanup.
type SystemProber struct {
	cfg    *models.Configuration
	logger *slog.Logger
	run    Runner
	dialer *transport.TCPDialer

	mu        sync.Mutex
	tempDir   string
	tempFiles []string
}

// NewSystemProber creates a prober bound to the given configuration.
func NewSystemProber(cfg *models.Configuration, logger *slog.Logger) *SystemProber {
	if logger == nil {
		logger = slog.Default()
	}
	return &SystemProber{
		cfg:    cfg,
		logger: logger,
		run:    pipeRunner,
		dialer: &transport.TCPDialer{},
	}
}

// SetRunner replaces the external command runner. Intended for tests.
func (p *SystemProber) SetRunner(run Runner) {
	p.run = run
}

// Cleanup removes any temp files left behind by bulk transfer probes.
func (p *SystemProber) Cleanup() error {
	p.mu.Lock()
	files := p.tempFiles
	dir := p.tempDir
	p.tempFiles = nil
	p.tempDir = ""
	p.mu.Unlock()

	var firstErr error
	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	if dir != "" {
		if err := os.Remove(dir); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *SystemProber) trackTempFile(path string) {
	p.mu.Lock()
	p.tempFiles = append(p.tempFiles, path)
	p.mu.Unlock()
}
