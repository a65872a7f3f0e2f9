package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"wlan-analyzer/pkg/models"
)

// csvHeader is the fixed column set covering every probe kind. Records
// missing a result leave the matching columns empty.
var csvHeader = []string{
	"measurement_id",
	"timestamp",
	"wifi_ssid",
	"wifi_rssi",
	"wifi_link_quality",
	"wifi_tx_rate",
	"wifi_rx_rate",
	"wifi_channel",
	"wifi_frequency",
	"ping_target",
	"ping_packet_loss",
	"ping_avg_rtt",
	"ping_min_rtt",
	"ping_max_rtt",
	"ping_std_dev",
	"iperf_tcp_upload",
	"iperf_tcp_download",
	"iperf_tcp_retransmits",
	"iperf_udp_throughput",
	"iperf_udp_packet_loss",
	"iperf_udp_jitter",
	"file_transfer_speed",
	"file_transfer_throughput",
	"file_transfer_direction",
	"error_count",
}

// CSVSink appends measurement rows to one CSV file per day in the output
// directory, writing the header when it creates a file.
type CSVSink struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewCSVSink creates the output directory if needed and returns a sink
// writing into it.
func NewCSVSink(dir string, logger *slog.Logger) (*CSVSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %v", dir, err)
	}
	return &CSVSink{dir: dir, logger: logger}, nil
}

func (s *CSVSink) Append(ctx context.Context, rec *models.MeasurementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, "measurements_"+rec.Timestamp.Format("2006-01-02")+".csv")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %v", path, err)
	}

	w := csv.NewWriter(f)
	if stat.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write CSV header: %v", err)
		}
		s.logger.Info("Initialized CSV file", "path", path)
	}
	if err := w.Write(csvRow(rec)); err != nil {
		return fmt.Errorf("failed to write CSV row: %v", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV row: %v", err)
	}
	return nil
}

func csvRow(rec *models.MeasurementRecord) []string {
	row := make([]string, len(csvHeader))
	row[0] = rec.MeasurementID
	row[1] = rec.Timestamp.Format(time.RFC3339)

	if w := rec.LinkInfo; w != nil {
		row[2] = w.SSID
		row[3] = strconv.Itoa(w.RSSI)
		row[4] = strconv.Itoa(w.LinkQuality)
		row[5] = formatFloat(w.TxRateMbps)
		row[6] = formatFloat(w.RxRateMbps)
		row[7] = strconv.Itoa(w.Channel)
		row[8] = formatFloat(w.FrequencyGHz)
	}
	if l := rec.Latency; l != nil {
		row[9] = l.Target
		row[10] = formatFloat(l.PacketLossPct)
		row[11] = formatFloat(l.AvgRTT)
		row[12] = formatFloat(l.MinRTT)
		row[13] = formatFloat(l.MaxRTT)
		row[14] = formatFloat(l.StdDevRTT)
	}
	if t := rec.ThroughputTCP; t != nil {
		row[15] = formatFloat(t.UploadMbps)
		row[16] = formatFloat(t.DownloadMbps)
		row[17] = strconv.Itoa(t.Retransmits)
	}
	if u := rec.ThroughputUDP; u != nil {
		row[18] = formatFloat(u.ThroughputMbps)
		row[19] = formatFloat(u.PacketLossPct)
		row[20] = formatFloat(u.JitterMs)
	}
	if ft := rec.BulkTransfer; ft != nil {
		row[21] = formatFloat(ft.SpeedMBps)
		row[22] = formatFloat(ft.ThroughputMbps())
		row[23] = ft.Direction
	}
	row[24] = strconv.Itoa(len(rec.Errors))
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
