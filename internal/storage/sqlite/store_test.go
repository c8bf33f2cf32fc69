package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/muridae/tumorboard/internal/storage"
	"github.com/muridae/tumorboard/internal/study"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "tumorboard.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testDataset(id string, createdAt time.Time) study.Dataset {
	return study.Dataset{
		ID:        id,
		Name:      "simulation",
		Source:    "upload",
		CreatedAt: createdAt,
		Measurements: []study.Measurement{
			{MouseID: "m1", Day: 0, Group: "Vehicle", Volume: 100},
			{MouseID: "m1", Day: 7, Group: "Vehicle", Volume: 250},
			{MouseID: "m2", Day: 0, Group: "DrugA", Volume: 95},
		},
	}
}

func TestPutAndGetDataset(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.PutDataset(ctx, testDataset("ds1", created)); err != nil {
		t.Fatalf("put dataset: %v", err)
	}

	got, err := store.GetDataset(ctx, "ds1")
	if err != nil {
		t.Fatalf("get dataset: %v", err)
	}
	if got.Name != "simulation" || got.Source != "upload" {
		t.Fatalf("unexpected metadata: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("expected created at %v, got %v", created, got.CreatedAt)
	}
	if len(got.Measurements) != 3 {
		t.Fatalf("expected 3 measurements, got %d", len(got.Measurements))
	}
	if got.Measurements[1].Volume != 250 {
		t.Fatalf("unexpected measurement: %+v", got.Measurements[1])
	}
}

func TestGetDatasetNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetDataset(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutDatasetRejectsDuplicateID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	dataset := testDataset("ds1", time.Now().UTC())

	if err := store.PutDataset(ctx, dataset); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := store.PutDataset(ctx, dataset); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestLatestAndListDatasets(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := store.PutDataset(ctx, testDataset("older", base)); err != nil {
		t.Fatalf("put older: %v", err)
	}
	if err := store.PutDataset(ctx, testDataset("newer", base.Add(time.Hour))); err != nil {
		t.Fatalf("put newer: %v", err)
	}

	latest, err := store.LatestDataset(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != "newer" {
		t.Fatalf("expected newer, got %q", latest.ID)
	}

	metas, err := store.ListDatasets(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("expected 2 datasets, got %d", len(metas))
	}
	if metas[0].ID != "newer" || metas[1].ID != "older" {
		t.Fatalf("unexpected order: %q, %q", metas[0].ID, metas[1].ID)
	}
	if metas[0].MeasurementCount != 3 {
		t.Fatalf("expected 3 measurements, got %d", metas[0].MeasurementCount)
	}
}

func TestLatestDatasetEmptyStore(t *testing.T) {
	store := openTestStore(t)

	_, err := store.LatestDataset(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCacheEntryLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, found, err := store.GetCacheEntry(ctx, "k1")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if found {
		t.Fatal("expected cache miss")
	}

	entry := storage.CacheEntry{CacheKey: "k1", DatasetID: "ds1", Payload: []byte(`{"tgi":50}`)}
	if err := store.PutCacheEntry(ctx, entry); err != nil {
		t.Fatalf("put entry: %v", err)
	}

	got, found, err := store.GetCacheEntry(ctx, "k1")
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if !found || string(got.Payload) != `{"tgi":50}` {
		t.Fatalf("unexpected entry: found=%v payload=%s", found, got.Payload)
	}

	entry.Payload = []byte(`{"tgi":60}`)
	if err := store.PutCacheEntry(ctx, entry); err != nil {
		t.Fatalf("upsert entry: %v", err)
	}
	got, _, err = store.GetCacheEntry(ctx, "k1")
	if err != nil {
		t.Fatalf("get upserted entry: %v", err)
	}
	if string(got.Payload) != `{"tgi":60}` {
		t.Fatalf("expected upserted payload, got %s", got.Payload)
	}

	if err := store.DeleteCacheForDataset(ctx, "ds1"); err != nil {
		t.Fatalf("delete entries: %v", err)
	}
	_, found, err = store.GetCacheEntry(ctx, "k1")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if found {
		t.Fatal("expected entry deleted")
	}
}

func TestAppendTelemetryEvent(t *testing.T) {
	store := openTestStore(t)

	err := store.AppendTelemetryEvent(context.Background(), storage.TelemetryEvent{
		Severity:  "INFO",
		Event:     "dataset.ingested",
		DatasetID: "ds1",
		Detail:    "42 rows",
	})
	if err != nil {
		t.Fatalf("append telemetry: %v", err)
	}

	var count int
	if err := store.sqlDB.QueryRow("SELECT COUNT(*) FROM telemetry_events").Scan(&count); err != nil {
		t.Fatalf("count events: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 event, got %d", count)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
