package pipeline

import (
	"context"
	"time"

	"github.com/nerrad567/knxgraph-core/internal/commissioning/etsimport"
	"github.com/nerrad567/knxgraph-core/internal/commissioning/history"
	"github.com/nerrad567/knxgraph-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/knxgraph-core/internal/infrastructure/mqtt"
)

// Event is the outcome of one import as announced to sinks.
type Event struct {
	RunID             string                    `json:"run_id"`
	Filename          string                    `json:"filename"`
	Status            history.Status            `json:"status"`
	ErrorCode         string                    `json:"error_code,omitempty"`
	ErrorMessage      string                    `json:"error_message,omitempty"`
	ProjectName       string                    `json:"project_name,omitempty"`
	GroupAddressStyle string                    `json:"group_address_style,omitempty"`
	Language          string                    `json:"language,omitempty"`
	ArchiveBytes      int64                     `json:"archive_bytes"`
	Statistics        etsimport.ParseStatistics `json:"statistics"`
	DurationMS        int64                     `json:"duration_ms"`
	Timestamp         time.Time                 `json:"timestamp"`
}

// messagePublisher is the part of *mqtt.Client used here.
type messagePublisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// MQTTPublisher publishes each event to its run topic and, retained, to
// the latest-import topic.
type MQTTPublisher struct {
	client messagePublisher
	topics mqtt.Topics
}

// NewMQTTPublisher publishes through client under its topic prefix.
func NewMQTTPublisher(client *mqtt.Client) *MQTTPublisher {
	return &MQTTPublisher{client: client, topics: client.Topics()}
}

// PublishImport implements Publisher.
func (p *MQTTPublisher) PublishImport(_ context.Context, ev Event) error {
	event := mqtt.EventImportSucceeded
	if ev.Status == history.StatusFailed {
		event = mqtt.EventImportFailed
	}
	if err := p.client.PublishJSON(p.topics.ImportEvent(ev.RunID, event), ev, false); err != nil {
		return err
	}
	return p.client.PublishJSON(p.topics.ImportLatest(), ev, true)
}

// importWriter is the part of *influxdb.Client used here.
type importWriter interface {
	WriteImport(ctx context.Context, m influxdb.ImportMetrics) error
}

// InfluxRecorder writes one knx_import point per event.
type InfluxRecorder struct {
	client importWriter
}

// NewInfluxRecorder records through client.
func NewInfluxRecorder(client *influxdb.Client) *InfluxRecorder {
	return &InfluxRecorder{client: client}
}

// RecordImport implements Recorder.
func (r *InfluxRecorder) RecordImport(ctx context.Context, ev Event) error {
	s := ev.Statistics
	return r.client.WriteImport(ctx, influxdb.ImportMetrics{
		RunID:             ev.RunID,
		Status:            string(ev.Status),
		ErrorCode:         ev.ErrorCode,
		GroupAddressStyle: ev.GroupAddressStyle,
		ArchiveBytes:      ev.ArchiveBytes,
		Areas:             s.Areas,
		Lines:             s.Lines,
		Devices:           s.Devices,
		GroupAddresses:    s.GroupAddresses,
		GroupLinks:        s.GroupLinks,
		Locations:         s.Locations,
		Warnings:          s.Warnings,
		Duration:          time.Duration(ev.DurationMS) * time.Millisecond,
		Timestamp:         ev.Timestamp,
	})
}
