package probes

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"wlan-analyzer/pkg/models"
	"wlan-analyzer/pkg/orchestrator"
)

// ProbeThroughputTCP runs a bidirectional iperf3 TCP test and parses its
// JSON report.
func (p *SystemProber) ProbeThroughputTCP(ctx context.Context, params models.ThroughputTCPParams) (*models.ThroughputResult, error) {
	parallel := params.Parallel
	if parallel <= 0 {
		parallel = 1
	}
	args := []string{
		"--json", "--bidir",
		"-c", params.Server,
		"-p", strconv.Itoa(params.Port),
		"-t", strconv.Itoa(params.Duration),
		"-P", strconv.Itoa(parallel),
	}

	stdout, stderr, err := p.run(params.Timeout, "iperf3", args...)
	if err != nil && len(stdout) == 0 {
		return nil, fmt.Errorf("iperf3 TCP test failed: %v (%s)", err, strings.TrimSpace(string(stderr)))
	}
	return parseIperfTCP(params.Server, params.Port, stdout)
}

// ProbeThroughputUDP runs an iperf3 UDP test at the requested bandwidth and
// parses its JSON report.
func (p *SystemProber) ProbeThroughputUDP(ctx context.Context, params models.ThroughputUDPParams) (*models.DatagramResult, error) {
	args := []string{
		"--json", "-u",
		"-c", params.Server,
		"-p", strconv.Itoa(params.Port),
		"-t", strconv.Itoa(params.Duration),
	}
	if params.Bandwidth != "" {
		args = append(args, "-b", params.Bandwidth)
	}

	stdout, stderr, err := p.run(params.Timeout, "iperf3", args...)
	if err != nil && len(stdout) == 0 {
		return nil, fmt.Errorf("iperf3 UDP test failed: %v (%s)", err, strings.TrimSpace(string(stderr)))
	}
	return parseIperfUDP(params.Server, params.Port, stdout)
}

// CheckServerReachable attempts a plain TCP connection to the throughput
// server. Failures wrap orchestrator.ErrServerUnavailable so the
// prerequisite validator can match them.
func (p *SystemProber) CheckServerReachable(ctx context.Context, server string, port int, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := p.dialer.DialStream(ctx, net.JoinHostPort(server, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("%w: %s:%d: %v", orchestrator.ErrServerUnavailable, server, port, err)
	}
	conn.Close()
	return nil
}

func parseIperfTCP(server string, port int, out []byte) (*models.ThroughputResult, error) {
	if !gjson.ValidBytes(out) {
		return nil, fmt.Errorf("iperf3 produced invalid JSON")
	}
	if msg := gjson.GetBytes(out, "error"); msg.Exists() && msg.String() != "" {
		return nil, fmt.Errorf("iperf3 error: %s", msg.String())
	}

	sent := gjson.GetBytes(out, "end.sum_sent")
	received := gjson.GetBytes(out, "end.sum_received")
	if !sent.Exists() || !received.Exists() {
		return nil, fmt.Errorf("iperf3 report is missing end sums")
	}

	return &models.ThroughputResult{
		Server:        server,
		Port:          port,
		Duration:      sent.Get("seconds").Float(),
		BytesSent:     sent.Get("bytes").Int(),
		BytesReceived: received.Get("bytes").Int(),
		UploadMbps:    sent.Get("bits_per_second").Float() / 1e6,
		DownloadMbps:  received.Get("bits_per_second").Float() / 1e6,
		Retransmits:   int(sent.Get("retransmits").Int()),
		Timestamp:     time.Now(),
	}, nil
}

func parseIperfUDP(server string, port int, out []byte) (*models.DatagramResult, error) {
	if !gjson.ValidBytes(out) {
		return nil, fmt.Errorf("iperf3 produced invalid JSON")
	}
	if msg := gjson.GetBytes(out, "error"); msg.Exists() && msg.String() != "" {
		return nil, fmt.Errorf("iperf3 error: %s", msg.String())
	}

	sum := gjson.GetBytes(out, "end.sum")
	if !sum.Exists() {
		return nil, fmt.Errorf("iperf3 report is missing end sum")
	}

	return &models.DatagramResult{
		Server:         server,
		Port:           port,
		Duration:       sum.Get("seconds").Float(),
		BytesSent:      sum.Get("bytes").Int(),
		PacketsSent:    int(sum.Get("packets").Int()),
		PacketsLost:    int(sum.Get("lost_packets").Int()),
		PacketLossPct:  sum.Get("lost_percent").Float(),
		JitterMs:       sum.Get("jitter_ms").Float(),
		ThroughputMbps: sum.Get("bits_per_second").Float() / 1e6,
		Timestamp:      time.Now(),
	}, nil
}
