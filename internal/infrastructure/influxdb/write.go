package influxdb

import (
	"context"
	"fmt"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementImport is the measurement holding one point per import run.
const MeasurementImport = "knx_import"

// ImportMetrics describes one import run.
type ImportMetrics struct {
	RunID             string
	Status            string
	ErrorCode         string
	GroupAddressStyle string

	ArchiveBytes   int64
	Areas          int
	Lines          int
	Devices        int
	GroupAddresses int
	GroupLinks     int
	Locations      int
	Warnings       int
	Duration       time.Duration

	Timestamp time.Time
}

// newImportPoint tags the point with low-cardinality values only; the run
// id is a field.
func newImportPoint(m ImportMetrics) *write.Point {
	tags := map[string]string{"status": m.Status}
	if m.GroupAddressStyle != "" {
		tags["style"] = m.GroupAddressStyle
	}
	if m.ErrorCode != "" {
		tags["error_code"] = m.ErrorCode
	}

	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	return write.NewPoint(MeasurementImport, tags, map[string]any{
		"run_id":          m.RunID,
		"archive_bytes":   m.ArchiveBytes,
		"areas":           m.Areas,
		"lines":           m.Lines,
		"devices":         m.Devices,
		"group_addresses": m.GroupAddresses,
		"group_links":     m.GroupLinks,
		"locations":       m.Locations,
		"warnings":        m.Warnings,
		"duration_ms":     m.Duration.Milliseconds(),
	}, ts)
}

// WriteImport writes one import point and waits for the server to accept it.
func (c *Client) WriteImport(ctx context.Context, m ImportMetrics) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	if err := c.writeAPI.WritePoint(ctx, newImportPoint(m)); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
