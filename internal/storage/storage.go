package storage

import (
	"context"
	"errors"
	"time"

	"github.com/muridae/tumorboard/internal/study"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// DatasetMeta describes one stored dataset version without its measurements.
type DatasetMeta struct {
	ID               string
	Name             string
	Source           string
	CreatedAt        time.Time
	MeasurementCount int
}

// DatasetStore persists immutable dataset versions.
type DatasetStore interface {
	// PutDataset stores a new dataset version with its measurements.
	PutDataset(ctx context.Context, dataset study.Dataset) error
	// GetDataset loads one version by id, including measurements.
	GetDataset(ctx context.Context, id string) (study.Dataset, error)
	// LatestDataset loads the most recently created version.
	LatestDataset(ctx context.Context) (study.Dataset, error)
	// ListDatasets returns version metadata, newest first.
	ListDatasets(ctx context.Context) ([]DatasetMeta, error)
}

// CacheEntry is one cached analytics payload.
type CacheEntry struct {
	CacheKey  string
	DatasetID string
	Payload   []byte
	CreatedAt time.Time
}

// AnalyticsCacheStore persists computed analytics keyed by dataset version
// and canonical parameters.
type AnalyticsCacheStore interface {
	GetCacheEntry(ctx context.Context, cacheKey string) (CacheEntry, bool, error)
	PutCacheEntry(ctx context.Context, entry CacheEntry) error
	// DeleteCacheForDataset removes every entry computed from the dataset.
	DeleteCacheForDataset(ctx context.Context, datasetID string) error
}

// TelemetryEvent records one operational event.
type TelemetryEvent struct {
	Timestamp time.Time
	Severity  string
	Event     string
	DatasetID string
	Detail    string
}

// TelemetryStore persists operational telemetry events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, evt TelemetryEvent) error
}
