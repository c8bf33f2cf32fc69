package server

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/muridae/tumorboard/internal/storage/sqlite"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "localhost:8080" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "localhost:8080")
	}
	if cfg.DBPath != "tumorboard.db" {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, "tumorboard.db")
	}
}

func TestParseConfigFlagOverride(t *testing.T) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", "127.0.0.1:9001", "-db", "/tmp/x.db"})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9001" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "/tmp/x.db" {
		t.Fatalf("DBPath = %q", cfg.DBPath)
	}
}

func TestParseConfigEnvDefault(t *testing.T) {
	t.Setenv("TUMORBOARD_HTTP_ADDR", "0.0.0.0:9002")

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "0.0.0.0:9002" {
		t.Fatalf("HTTPAddr = %q, want env value", cfg.HTTPAddr)
	}
}

func TestEnsureDatasetGeneratesSimulation(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := ensureDataset(ctx, store, ""); err != nil {
		t.Fatalf("ensureDataset() error = %v", err)
	}

	dataset, err := store.LatestDataset(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if dataset.Source != "generated" || len(dataset.Measurements) == 0 {
		t.Fatalf("unexpected seeded dataset: %+v", dataset)
	}

	// A second run must not add another version.
	if err := ensureDataset(ctx, store, ""); err != nil {
		t.Fatalf("ensureDataset() second run error = %v", err)
	}
	metas, err := store.ListDatasets(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("expected 1 dataset, got %d", len(metas))
	}
}

func TestEnsureDatasetFromFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "default.csv")
	csv := "mouse_id,day,group,volume\nm1,0,Vehicle,100\nm1,7,Vehicle,400\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	store, err := sqlite.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := ensureDataset(ctx, store, csvPath); err != nil {
		t.Fatalf("ensureDataset() error = %v", err)
	}

	dataset, err := store.LatestDataset(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(dataset.Measurements) != 2 {
		t.Fatalf("expected 2 measurements, got %d", len(dataset.Measurements))
	}
	if dataset.Source != "file:"+csvPath {
		t.Fatalf("unexpected source %q", dataset.Source)
	}
}
