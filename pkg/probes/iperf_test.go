package probes

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"wlan-analyzer/pkg/models"
	"wlan-analyzer/pkg/orchestrator"
)

const iperfTCPOutput = `{
  "end": {
    "sum_sent": {
      "seconds": 10.0,
      "bytes": 125000000,
      "bits_per_second": 100000000,
      "retransmits": 7
    },
    "sum_received": {
      "seconds": 10.0,
      "bytes": 250000000,
      "bits_per_second": 200000000
    }
  }
}`

const iperfUDPOutput = `{
  "end": {
    "sum": {
      "seconds": 10.0,
      "bytes": 12500000,
      "bits_per_second": 10000000,
      "packets": 8500,
      "lost_packets": 12,
      "lost_percent": 0.141,
      "jitter_ms": 0.123
    }
  }
}`

func TestParseIperfTCP(t *testing.T) {
	res, err := parseIperfTCP("192.168.1.100", 5201, []byte(iperfTCPOutput))
	if err != nil {
		t.Fatalf("parseIperfTCP: %v", err)
	}
	if res.UploadMbps != 100 {
		t.Errorf("upload = %v, want 100", res.UploadMbps)
	}
	if res.DownloadMbps != 200 {
		t.Errorf("download = %v, want 200", res.DownloadMbps)
	}
	if res.Retransmits != 7 {
		t.Errorf("retransmits = %d, want 7", res.Retransmits)
	}
	if res.BytesSent != 125000000 || res.BytesReceived != 250000000 {
		t.Errorf("bytes = %d/%d, want 125000000/250000000", res.BytesSent, res.BytesReceived)
	}
	if res.Duration != 10 {
		t.Errorf("duration = %v, want 10", res.Duration)
	}
}

func TestParseIperfTCPServerError(t *testing.T) {
	out := `{"error": "unable to connect to server: Connection refused"}`
	_, err := parseIperfTCP("x", 5201, []byte(out))
	if err == nil || !strings.Contains(err.Error(), "unable to connect") {
		t.Errorf("error = %v, want the iperf3 error message", err)
	}
}

func TestParseIperfTCPInvalidJSON(t *testing.T) {
	if _, err := parseIperfTCP("x", 5201, []byte("not json at all")); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestParseIperfTCPMissingSums(t *testing.T) {
	if _, err := parseIperfTCP("x", 5201, []byte(`{"end": {}}`)); err == nil {
		t.Error("expected an error for a report without end sums")
	}
}

func TestParseIperfUDP(t *testing.T) {
	res, err := parseIperfUDP("192.168.1.100", 5201, []byte(iperfUDPOutput))
	if err != nil {
		t.Fatalf("parseIperfUDP: %v", err)
	}
	if res.ThroughputMbps != 10 {
		t.Errorf("throughput = %v, want 10", res.ThroughputMbps)
	}
	if res.PacketsSent != 8500 || res.PacketsLost != 12 {
		t.Errorf("packets = %d sent / %d lost, want 8500/12", res.PacketsSent, res.PacketsLost)
	}
	if res.PacketLossPct != 0.141 {
		t.Errorf("loss = %v, want 0.141", res.PacketLossPct)
	}
	if res.JitterMs != 0.123 {
		t.Errorf("jitter = %v, want 0.123", res.JitterMs)
	}
}

func TestProbeThroughputTCPArgs(t *testing.T) {
	p := testProber()

	var got []string
	p.SetRunner(func(timeout time.Duration, name string, args ...string) ([]byte, []byte, error) {
		if name != "iperf3" {
			t.Errorf("command = %q, want iperf3", name)
		}
		got = args
		return []byte(iperfTCPOutput), nil, nil
	})

	_, err := p.ProbeThroughputTCP(context.Background(), models.ThroughputTCPParams{
		Server:   "192.168.1.100",
		Port:     5201,
		Duration: 10,
		Parallel: 4,
	})
	if err != nil {
		t.Fatalf("ProbeThroughputTCP: %v", err)
	}

	joined := strings.Join(got, " ")
	for _, want := range []string{"--json", "--bidir", "-c 192.168.1.100", "-p 5201", "-t 10", "-P 4"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q are missing %q", joined, want)
		}
	}
}

func TestProbeThroughputUDPBandwidth(t *testing.T) {
	p := testProber()

	var got []string
	p.SetRunner(func(timeout time.Duration, name string, args ...string) ([]byte, []byte, error) {
		got = args
		return []byte(iperfUDPOutput), nil, nil
	})

	_, err := p.ProbeThroughputUDP(context.Background(), models.ThroughputUDPParams{
		Server:    "192.168.1.100",
		Port:      5201,
		Duration:  10,
		Bandwidth: "50M",
	})
	if err != nil {
		t.Fatalf("ProbeThroughputUDP: %v", err)
	}

	joined := strings.Join(got, " ")
	for _, want := range []string{"-u", "-b 50M"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q are missing %q", joined, want)
		}
	}
}

// iperf3 exits non-zero but still prints a JSON report carrying the error;
// the report wins over the exit status.
func TestProbeThroughputTCPParsesErrorReport(t *testing.T) {
	p := testProber()
	p.SetRunner(func(timeout time.Duration, name string, args ...string) ([]byte, []byte, error) {
		return []byte(`{"error": "the server is busy running a test"}`), nil, errors.New("exit status 1")
	})

	_, err := p.ProbeThroughputTCP(context.Background(), models.ThroughputTCPParams{
		Server: "x", Port: 5201, Duration: 10,
	})
	if err == nil || !strings.Contains(err.Error(), "server is busy") {
		t.Errorf("error = %v, want the report's error message", err)
	}
}

func TestProbeThroughputTCPExecFailure(t *testing.T) {
	p := testProber()
	p.SetRunner(func(timeout time.Duration, name string, args ...string) ([]byte, []byte, error) {
		return nil, []byte("iperf3: command not found"), errors.New("exit status 127")
	})

	_, err := p.ProbeThroughputTCP(context.Background(), models.ThroughputTCPParams{
		Server: "x", Port: 5201, Duration: 10,
	})
	if err == nil || !strings.Contains(err.Error(), "iperf3 TCP test failed") {
		t.Errorf("error = %v, want an exec failure", err)
	}
}

func TestCheckServerReachable(t *testing.T) {
	p := testProber()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("SplitHostPort: %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	if err := p.CheckServerReachable(context.Background(), host, port, 2*time.Second); err != nil {
		t.Errorf("CheckServerReachable(%s:%d) = %v, want nil", host, port, err)
	}
}

func TestCheckServerReachableDown(t *testing.T) {
	p := testProber()

	// Grab a port and close it again so nothing is listening.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := l.Addr().(*net.TCPAddr)
	l.Close()

	err = p.CheckServerReachable(context.Background(), "127.0.0.1", addr.Port, time.Second)
	if err == nil {
		t.Fatal("expected an error for a closed port")
	}
	if !errors.Is(err, orchestrator.ErrServerUnavailable) {
		t.Errorf("error = %v, want ErrServerUnavailable", err)
	}
}
