// Package telemetry records operational events for ingest and analytics.
package telemetry

import (
	"context"
	"time"

	"github.com/muridae/tumorboard/internal/storage"
)

// Severity describes the telemetry severity level.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// Well-known event names.
const (
	EventDatasetIngested = "dataset.ingested"
	EventDatasetRejected = "dataset.rejected"
	EventAnalyticsServed = "analytics.served"
	EventAnalyticsFailed = "analytics.failed"
)

// Emitter records operational telemetry events.
type Emitter struct {
	store storage.TelemetryStore
	clock func() time.Time
}

// NewEmitter creates a new telemetry emitter.
func NewEmitter(store storage.TelemetryStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records a telemetry event. It is a no-op when the store is nil.
func (e *Emitter) Emit(ctx context.Context, severity Severity, event, datasetID, detail string) error {
	if e == nil || e.store == nil {
		return nil
	}
	evt := storage.TelemetryEvent{
		Severity:  string(severity),
		Event:     event,
		DatasetID: datasetID,
		Detail:    detail,
	}
	if e.clock == nil {
		evt.Timestamp = time.Now().UTC()
	} else {
		evt.Timestamp = e.clock().UTC()
	}
	return e.store.AppendTelemetryEvent(ctx, evt)
}
