package probes

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"wlan-analyzer/pkg/models"
)

// ProbeBulkTransfer measures bulk transfer speed against the file server.
// Supported protocols are "http", "https" (GET for download, POST for
// upload) and "tcp" (a raw stream to the server). Download payloads and
// generated upload payloads land in a temp dir removed by Cleanup.
func (p *SystemProber) ProbeBulkTransfer(ctx context.Context, params models.TransferParams) (*models.TransferResult, error) {
	if params.SizeMB <= 0 {
		return nil, fmt.Errorf("transfer size must be positive, got %d MB", params.SizeMB)
	}
	if params.Direction != "upload" && params.Direction != "download" {
		return nil, fmt.Errorf("unsupported transfer direction: %q", params.Direction)
	}

	var (
		bytesMoved int64
		elapsed    time.Duration
		err        error
	)
	switch params.Protocol {
	case "http", "https":
		bytesMoved, elapsed, err = p.httpTransfer(ctx, params)
	case "tcp":
		bytesMoved, elapsed, err = p.tcpTransfer(ctx, params)
	default:
		return nil, fmt.Errorf("unsupported file transfer protocol: %q", params.Protocol)
	}
	if err != nil {
		return nil, err
	}
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}

	return &models.TransferResult{
		Server:        params.Server,
		FileSizeBytes: bytesMoved,
		TransferTime:  elapsed.Seconds(),
		SpeedMBps:     float64(bytesMoved) / 1e6 / elapsed.Seconds(),
		Protocol:      params.Protocol,
		Direction:     params.Direction,
		Timestamp:     time.Now(),
	}, nil
}

func (p *SystemProber) httpTransfer(ctx context.Context, params models.TransferParams) (int64, time.Duration, error) {
	client := &http.Client{
		Timeout: params.Timeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return p.dialer.DialStream(ctx, addr)
			},
		},
	}

	host := params.Server
	if params.Port > 0 {
		host = net.JoinHostPort(params.Server, strconv.Itoa(params.Port))
	}

	if params.Direction == "download" {
		url := fmt.Sprintf("%s://%s/testfile_%dmb.bin", params.Protocol, host, params.SizeMB)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return 0, 0, err
		}
		if params.Username != "" {
			req.SetBasicAuth(params.Username, params.Password)
		}

		start := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			return 0, 0, fmt.Errorf("download from %s failed: %v", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return 0, 0, fmt.Errorf("download from %s failed: HTTP %d", url, resp.StatusCode)
		}

		dest, err := p.createTempFile("download")
		if err != nil {
			return 0, 0, err
		}
		defer dest.Close()

		n, err := io.Copy(dest, resp.Body)
		if err != nil {
			return 0, 0, fmt.Errorf("download from %s failed after %d bytes: %v", url, n, err)
		}
		return n, time.Since(start), nil
	}

	src, err := p.createTestFile(params.SizeMB)
	if err != nil {
		return 0, 0, err
	}
	f, err := os.Open(src)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	url := fmt.Sprintf("%s://%s/upload", params.Protocol, host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, f)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = int64(params.SizeMB) * 1024 * 1024
	if params.Username != "" {
		req.SetBasicAuth(params.Username, params.Password)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("upload to %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return 0, 0, fmt.Errorf("upload to %s failed: HTTP %d", url, resp.StatusCode)
	}
	return req.ContentLength, time.Since(start), nil
}

func (p *SystemProber) tcpTransfer(ctx context.Context, params models.TransferParams) (int64, time.Duration, error) {
	if params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	addr := net.JoinHostPort(params.Server, strconv.Itoa(params.Port))
	conn, err := p.dialer.DialStream(ctx, addr)
	if err != nil {
		return 0, 0, fmt.Errorf("tcp transfer to %s failed: %v", addr, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	size := int64(params.SizeMB) * 1024 * 1024
	start := time.Now()

	if params.Direction == "upload" {
		src, err := p.createTestFile(params.SizeMB)
		if err != nil {
			return 0, 0, err
		}
		f, err := os.Open(src)
		if err != nil {
			return 0, 0, err
		}
		defer f.Close()

		n, err := io.Copy(conn, f)
		if err != nil {
			return 0, 0, fmt.Errorf("tcp upload to %s failed after %d bytes: %v", addr, n, err)
		}
		conn.CloseWrite()
		return n, time.Since(start), nil
	}

	dest, err := p.createTempFile("download")
	if err != nil {
		return 0, 0, err
	}
	defer dest.Close()

	n, err := io.Copy(dest, io.LimitReader(conn, size))
	if err != nil {
		return 0, 0, fmt.Errorf("tcp download from %s failed after %d bytes: %v", addr, n, err)
	}
	return n, time.Since(start), nil
}

// createTestFile writes sizeMB of pseudorandom data to a tracked temp file
// and returns its path.
func (p *SystemProber) createTestFile(sizeMB int) (string, error) {
	f, err := p.createTempFile("payload")
	if err != nil {
		return "", err
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	chunk := make([]byte, 1024*1024)
	for i := 0; i < sizeMB; i++ {
		rng.Read(chunk)
		if _, err := f.Write(chunk); err != nil {
			return "", fmt.Errorf("failed to create %d MB test file: %v", sizeMB, err)
		}
	}
	return f.Name(), nil
}

func (p *SystemProber) createTempFile(prefix string) (*os.File, error) {
	p.mu.Lock()
	dir := p.tempDir
	p.mu.Unlock()

	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "wlan-analyzer-")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp dir: %v", err)
		}
		p.mu.Lock()
		p.tempDir = dir
		p.mu.Unlock()
	}

	f, err := os.CreateTemp(dir, prefix+"-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %v", err)
	}
	p.trackTempFile(f.Name())
	return f, nil
}
