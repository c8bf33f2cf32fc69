package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	sqlitemigrate "github.com/muridae/tumorboard/internal/platform/storage/sqlitemigrate"
	"github.com/muridae/tumorboard/internal/storage"
	"github.com/muridae/tumorboard/internal/storage/sqlite/migrations"
	"github.com/muridae/tumorboard/internal/study"
)

// Store provides SQLite-backed persistence for datasets, cached analytics,
// and telemetry events.
type Store struct {
	sqlDB *sql.DB
}

// Open opens and migrates a tumorboard SQLite store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutDataset stores a new dataset version and its measurements in one
// transaction. Dataset ids are immutable; re-inserting an id is an error.
func (s *Store) PutDataset(ctx context.Context, dataset study.Dataset) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	dataset.ID = strings.TrimSpace(dataset.ID)
	if dataset.ID == "" {
		return fmt.Errorf("dataset id is required")
	}
	if len(dataset.Measurements) == 0 {
		return fmt.Errorf("dataset has no measurements")
	}
	if dataset.CreatedAt.IsZero() {
		dataset.CreatedAt = time.Now().UTC()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put dataset: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO datasets (id, name, source, created_at) VALUES (?, ?, ?, ?)`,
		dataset.ID,
		dataset.Name,
		dataset.Source,
		dataset.CreatedAt.UnixMilli(),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert dataset: %w", err)
	}

	insert, err := tx.PrepareContext(
		ctx,
		`INSERT INTO measurements (dataset_id, mouse_id, day, grp, volume) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare measurement insert: %w", err)
	}
	defer insert.Close()

	for _, m := range dataset.Measurements {
		if _, err := insert.ExecContext(ctx, dataset.ID, m.MouseID, m.Day, m.Group, m.Volume); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert measurement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put dataset: %w", err)
	}
	return nil
}

// GetDataset loads one dataset version by id, including measurements.
func (s *Store) GetDataset(ctx context.Context, id string) (study.Dataset, error) {
	if s == nil || s.sqlDB == nil {
		return study.Dataset{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return study.Dataset{}, fmt.Errorf("dataset id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, source, created_at FROM datasets WHERE id = ?`,
		id,
	)
	dataset, err := scanDataset(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return study.Dataset{}, storage.ErrNotFound
		}
		return study.Dataset{}, fmt.Errorf("get dataset: %w", err)
	}

	dataset.Measurements, err = s.loadMeasurements(ctx, dataset.ID)
	if err != nil {
		return study.Dataset{}, err
	}
	return dataset, nil
}

// LatestDataset loads the most recently created dataset version.
func (s *Store) LatestDataset(ctx context.Context) (study.Dataset, error) {
	if s == nil || s.sqlDB == nil {
		return study.Dataset{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, source, created_at FROM datasets ORDER BY created_at DESC, id DESC LIMIT 1`,
	)
	dataset, err := scanDataset(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return study.Dataset{}, storage.ErrNotFound
		}
		return study.Dataset{}, fmt.Errorf("latest dataset: %w", err)
	}

	dataset.Measurements, err = s.loadMeasurements(ctx, dataset.ID)
	if err != nil {
		return study.Dataset{}, err
	}
	return dataset, nil
}

// ListDatasets returns dataset version metadata, newest first.
func (s *Store) ListDatasets(ctx context.Context) ([]storage.DatasetMeta, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT d.id, d.name, d.source, d.created_at, COUNT(m.dataset_id)
		 FROM datasets d
		 LEFT JOIN measurements m ON m.dataset_id = d.id
		 GROUP BY d.id
		 ORDER BY d.created_at DESC, d.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var out []storage.DatasetMeta
	for rows.Next() {
		var meta storage.DatasetMeta
		var createdAt int64
		if err := rows.Scan(&meta.ID, &meta.Name, &meta.Source, &createdAt, &meta.MeasurementCount); err != nil {
			return nil, fmt.Errorf("scan dataset meta: %w", err)
		}
		meta.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}
	return out, nil
}

// GetCacheEntry loads a cached analytics payload by key.
func (s *Store) GetCacheEntry(ctx context.Context, cacheKey string) (storage.CacheEntry, bool, error) {
	if s == nil || s.sqlDB == nil {
		return storage.CacheEntry{}, false, fmt.Errorf("storage is not configured")
	}
	cacheKey = strings.TrimSpace(cacheKey)
	if cacheKey == "" {
		return storage.CacheEntry{}, false, fmt.Errorf("cache key is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT cache_key, dataset_id, payload, created_at FROM cache_entries WHERE cache_key = ?`,
		cacheKey,
	)

	var entry storage.CacheEntry
	var createdAt int64
	if err := row.Scan(&entry.CacheKey, &entry.DatasetID, &entry.Payload, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return storage.CacheEntry{}, false, nil
		}
		return storage.CacheEntry{}, false, fmt.Errorf("get cache entry: %w", err)
	}
	entry.CreatedAt = time.UnixMilli(createdAt).UTC()
	return entry, true, nil
}

// PutCacheEntry upserts a cached analytics payload by key.
func (s *Store) PutCacheEntry(ctx context.Context, entry storage.CacheEntry) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	entry.CacheKey = strings.TrimSpace(entry.CacheKey)
	if entry.CacheKey == "" {
		return fmt.Errorf("cache key is required")
	}
	entry.DatasetID = strings.TrimSpace(entry.DatasetID)
	if entry.DatasetID == "" {
		return fmt.Errorf("cache dataset id is required")
	}
	if len(entry.Payload) == 0 {
		return fmt.Errorf("cache payload is required")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if _, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO cache_entries (cache_key, dataset_id, payload, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
		    dataset_id = excluded.dataset_id,
		    payload = excluded.payload,
		    created_at = excluded.created_at`,
		entry.CacheKey,
		entry.DatasetID,
		entry.Payload,
		entry.CreatedAt.UnixMilli(),
	); err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// DeleteCacheForDataset removes every cache entry computed from the dataset.
func (s *Store) DeleteCacheForDataset(ctx context.Context, datasetID string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	datasetID = strings.TrimSpace(datasetID)
	if datasetID == "" {
		return fmt.Errorf("dataset id is required")
	}

	if _, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM cache_entries WHERE dataset_id = ?`,
		datasetID,
	); err != nil {
		return fmt.Errorf("delete cache entries: %w", err)
	}
	return nil
}

// AppendTelemetryEvent records one operational event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, evt storage.TelemetryEvent) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	if _, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO telemetry_events (ts, severity, event, dataset_id, detail) VALUES (?, ?, ?, ?, ?)`,
		evt.Timestamp.UnixMilli(),
		evt.Severity,
		evt.Event,
		evt.DatasetID,
		evt.Detail,
	); err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}

func scanDataset(row *sql.Row) (study.Dataset, error) {
	var dataset study.Dataset
	var createdAt int64
	if err := row.Scan(&dataset.ID, &dataset.Name, &dataset.Source, &createdAt); err != nil {
		return study.Dataset{}, err
	}
	dataset.CreatedAt = time.UnixMilli(createdAt).UTC()
	return dataset, nil
}

func (s *Store) loadMeasurements(ctx context.Context, datasetID string) ([]study.Measurement, error) {
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT mouse_id, day, grp, volume FROM measurements WHERE dataset_id = ? ORDER BY mouse_id, day`,
		datasetID,
	)
	if err != nil {
		return nil, fmt.Errorf("load measurements: %w", err)
	}
	defer rows.Close()

	var out []study.Measurement
	for rows.Next() {
		var m study.Measurement
		if err := rows.Scan(&m.MouseID, &m.Day, &m.Group, &m.Volume); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate measurements: %w", err)
	}
	return out, nil
}
