package probes

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"wlan-analyzer/pkg/models"
)

var (
	pingSummaryRe = regexp.MustCompile(`(\d+) packets transmitted, (\d+) (?:packets )?received.*?([\d.]+)% packet loss`)
	pingRTTRe     = regexp.MustCompile(`rtt min/avg/max/mdev = ([\d.]+)/([\d.]+)/([\d.]+)/([\d.]+) ms`)
)

// ProbeLatency measures round-trip latency with the system ping binary.
// With multiple targets each one is probed in turn and the statistics are
// aggregated under the first target; targets that fail entirely are skipped
// as long as at least one answers.
func (p *SystemProber) ProbeLatency(ctx context.Context, params models.LatencyParams) (*models.LatencyResult, error) {
	if len(params.Targets) == 0 {
		return nil, fmt.Errorf("no targets specified for latency probe")
	}

	var results []*models.LatencyResult
	var lastErr error
	for _, target := range params.Targets {
		res, err := p.pingTarget(target, params)
		if err != nil {
			lastErr = err
			p.logger.Warn("Latency probe target failed", "target", target, "error", err)
			continue
		}
		results = append(results, res)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("latency probe failed for all %d targets: %v", len(params.Targets), lastErr)
	}
	return aggregateLatency(results), nil
}

func (p *SystemProber) pingTarget(target string, params models.LatencyParams) (*models.LatencyResult, error) {
	count := params.Count
	if count <= 0 {
		count = 1
	}

	args := []string{"-n", "-q", "-c", strconv.Itoa(count)}
	if params.PacketSize > 0 {
		args = append(args, "-s", strconv.Itoa(params.PacketSize))
	}
	if params.Interval > 0 {
		args = append(args, "-i", strconv.FormatFloat(params.Interval, 'f', -1, 64))
	}
	if p.cfg.Timeout > 0 {
		args = append(args, "-W", strconv.Itoa(p.cfg.Timeout))
	}
	args = append(args, target)

	stdout, stderr, err := p.run(params.Timeout, "ping", args...)
	// ping exits non-zero when packets were lost; the summary line is still
	// there, so parse before deciding the command failed.
	res, perr := parsePingOutput(target, stdout)
	if perr != nil {
		if err != nil {
			return nil, fmt.Errorf("ping %s failed: %v (%s)", target, err, strings.TrimSpace(string(stderr)))
		}
		return nil, perr
	}
	return res, nil
}

// parsePingOutput reads the statistics block of ping's output. Total loss
// still yields a result; the RTT fields stay zero.
func parsePingOutput(target string, out []byte) (*models.LatencyResult, error) {
	text := string(out)

	m := pingSummaryRe.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("could not parse ping summary for %s", target)
	}
	sent, _ := strconv.Atoi(m[1])
	received, _ := strconv.Atoi(m[2])
	loss, _ := strconv.ParseFloat(m[3], 64)

	res := &models.LatencyResult{
		Target:          target,
		PacketsSent:     sent,
		PacketsReceived: received,
		PacketLossPct:   loss,
		Timestamp:       time.Now(),
	}

	if rtt := pingRTTRe.FindStringSubmatch(text); rtt != nil {
		res.MinRTT, _ = strconv.ParseFloat(rtt[1], 64)
		res.AvgRTT, _ = strconv.ParseFloat(rtt[2], 64)
		res.MaxRTT, _ = strconv.ParseFloat(rtt[3], 64)
		res.StdDevRTT, _ = strconv.ParseFloat(rtt[4], 64)
	}
	return res, nil
}

// aggregateLatency folds per-target results into one. Averages are weighted
// by answered packets; the spread keeps the widest min/max and the largest
// deviation seen.
func aggregateLatency(results []*models.LatencyResult) *models.LatencyResult {
	if len(results) == 1 {
		return results[0]
	}

	agg := &models.LatencyResult{
		Target:    results[0].Target,
		MinRTT:    results[0].MinRTT,
		Timestamp: time.Now(),
	}
	var weightedSum float64
	for _, r := range results {
		agg.PacketsSent += r.PacketsSent
		agg.PacketsReceived += r.PacketsReceived
		weightedSum += r.AvgRTT * float64(r.PacketsReceived)
		if r.MinRTT < agg.MinRTT {
			agg.MinRTT = r.MinRTT
		}
		if r.MaxRTT > agg.MaxRTT {
			agg.MaxRTT = r.MaxRTT
		}
		if r.StdDevRTT > agg.StdDevRTT {
			agg.StdDevRTT = r.StdDevRTT
		}
	}
	if agg.PacketsReceived > 0 {
		agg.AvgRTT = weightedSum / float64(agg.PacketsReceived)
	}
	if agg.PacketsSent > 0 {
		agg.PacketLossPct = float64(agg.PacketsSent-agg.PacketsReceived) / float64(agg.PacketsSent) * 100
	}
	return agg
}
