package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"wlan-analyzer/pkg/models"
)

// MeasurementRow is the flattened persistence shape of one measurement
// cycle: the commonly queried figures as columns plus the whole record as
// JSONB for anything else.
type MeasurementRow struct {
	bun.BaseModel `bun:"table:measurements,alias:m"`

	ID            int64     `bun:",pk,autoincrement"`
	MeasurementID string    `bun:",notnull,unique"`
	Time          time.Time `bun:",notnull"`

	WifiSSID        string
	WifiRSSI        int
	WifiLinkQuality int
	WifiTxRate      float64
	WifiRxRate      float64
	WifiChannel     int

	PingTarget     string
	PingPacketLoss float64
	PingAvgRTT     float64

	TCPUploadMbps   float64
	TCPDownloadMbps float64
	TCPRetransmits  int

	UDPThroughputMbps float64
	UDPPacketLoss     float64
	UDPJitterMs       float64

	TransferSpeedMBps float64
	TransferDirection string

	ErrorCount int
	FullReport json.RawMessage `bun:",type:jsonb"`
}

// RowFromRecord flattens an aggregate record into a persistable row.
func RowFromRecord(rec *models.MeasurementRecord) (*MeasurementRow, error) {
	report, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal measurement report: %v", err)
	}

	row := &MeasurementRow{
		MeasurementID: rec.MeasurementID,
		Time:          rec.Timestamp,
		ErrorCount:    len(rec.Errors),
		FullReport:    report,
	}

	if w := rec.LinkInfo; w != nil {
		row.WifiSSID = w.SSID
		row.WifiRSSI = w.RSSI
		row.WifiLinkQuality = w.LinkQuality
		row.WifiTxRate = w.TxRateMbps
		row.WifiRxRate = w.RxRateMbps
		row.WifiChannel = w.Channel
	}
	if l := rec.Latency; l != nil {
		row.PingTarget = l.Target
		row.PingPacketLoss = l.PacketLossPct
		row.PingAvgRTT = l.AvgRTT
	}
	if t := rec.ThroughputTCP; t != nil {
		row.TCPUploadMbps = t.UploadMbps
		row.TCPDownloadMbps = t.DownloadMbps
		row.TCPRetransmits = t.Retransmits
	}
	if u := rec.ThroughputUDP; u != nil {
		row.UDPThroughputMbps = u.ThroughputMbps
		row.UDPPacketLoss = u.PacketLossPct
		row.UDPJitterMs = u.JitterMs
	}
	if ft := rec.BulkTransfer; ft != nil {
		row.TransferSpeedMBps = ft.SpeedMBps
		row.TransferDirection = ft.Direction
	}
	return row, nil
}
