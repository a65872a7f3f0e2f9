package probes

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"wlan-analyzer/pkg/models"
)

// CollectLinkInfo snapshots the wireless link via `iw dev <iface> link` and
// sysfs. It fails when the interface is down or not associated.
func (p *SystemProber) CollectLinkInfo(ctx context.Context, timeout time.Duration) (*models.LinkInfo, error) {
	iface := p.cfg.InterfaceName

	stdout, stderr, err := p.run(timeout, "iw", "dev", iface, "link")
	if err != nil {
		return nil, fmt.Errorf("iw failed for %s: %v (%s)", iface, err, strings.TrimSpace(string(stderr)))
	}

	info, err := parseIWLink(stdout)
	if err != nil {
		return nil, err
	}
	info.InterfaceName = iface
	info.MACAddress = readInterfaceMAC(iface)
	info.Timestamp = time.Now()

	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("implausible link snapshot: %v", err)
	}
	return info, nil
}

// IsLinkConnected reports whether the configured interface is up according
// to sysfs.
func (p *SystemProber) IsLinkConnected() bool {
	data, err := os.ReadFile(filepath.Join("/sys/class/net", p.cfg.InterfaceName, "operstate"))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "up"
}

func readInterfaceMAC(iface string) string {
	data, err := os.ReadFile(filepath.Join("/sys/class/net", iface, "address"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// parseIWLink extracts SSID, signal, bitrates and frequency from the output
// of `iw dev <iface> link`.
func parseIWLink(out []byte) (*models.LinkInfo, error) {
	text := string(out)
	if strings.HasPrefix(strings.TrimSpace(text), "Not connected") {
		return nil, fmt.Errorf("interface is not associated with an access point")
	}

	info := &models.LinkInfo{}
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "SSID:"):
			info.SSID = strings.TrimSpace(strings.TrimPrefix(line, "SSID:"))
		case strings.HasPrefix(line, "freq:"):
			mhz, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "freq:")), 64)
			if err == nil {
				info.FrequencyGHz = mhz / 1000
				info.Channel = frequencyToChannel(int(mhz))
			}
		case strings.HasPrefix(line, "signal:"):
			fields := strings.Fields(strings.TrimPrefix(line, "signal:"))
			if len(fields) > 0 {
				if rssi, err := strconv.Atoi(fields[0]); err == nil {
					info.RSSI = rssi
					info.LinkQuality = rssiToQuality(rssi)
				}
			}
		case strings.HasPrefix(line, "tx bitrate:"):
			info.TxRateMbps = parseBitrate(strings.TrimPrefix(line, "tx bitrate:"))
		case strings.HasPrefix(line, "rx bitrate:"):
			info.RxRateMbps = parseBitrate(strings.TrimPrefix(line, "rx bitrate:"))
		}
	}

	if info.SSID == "" {
		return nil, fmt.Errorf("could not parse SSID from iw output")
	}
	return info, nil
}

// parseBitrate reads the leading number of a "866.7 MBit/s ..." value.
func parseBitrate(s string) float64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	rate, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return rate
}

// rssiToQuality maps an RSSI in dBm onto a 0..100 quality scale using the
// common 2*(rssi+100) approximation.
func rssiToQuality(rssi int) int {
	q := 2 * (rssi + 100)
	if q < 0 {
		return 0
	}
	if q > 100 {
		return 100
	}
	return q
}

// frequencyToChannel converts a center frequency in MHz to the 802.11
// channel number for the 2.4, 5 and 6 GHz bands.
func frequencyToChannel(mhz int) int {
	switch {
	case mhz == 2484:
		return 14
	case mhz >= 2412 && mhz < 2484:
		return (mhz - 2407) / 5
	case mhz >= 5160 && mhz <= 5885:
		return (mhz - 5000) / 5
	case mhz >= 5955 && mhz <= 7115:
		return (mhz - 5950) / 5
	}
	return 0
}
