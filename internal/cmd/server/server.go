// Package server wires configuration and startup for the dashboard server.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/muridae/tumorboard/internal/cache"
	"github.com/muridae/tumorboard/internal/platform/config"
	"github.com/muridae/tumorboard/internal/platform/id"
	"github.com/muridae/tumorboard/internal/platform/otel"
	"github.com/muridae/tumorboard/internal/seed"
	"github.com/muridae/tumorboard/internal/server"
	"github.com/muridae/tumorboard/internal/storage"
	"github.com/muridae/tumorboard/internal/storage/sqlite"
	"github.com/muridae/tumorboard/internal/study"
	"github.com/muridae/tumorboard/internal/telemetry"
)

// Config holds the server command configuration.
type Config struct {
	HTTPAddr     string
	DBPath       string
	DefaultData  string
	UploadSecret string
}

type envConfig struct {
	HTTPAddr     string `env:"TUMORBOARD_HTTP_ADDR" envDefault:"localhost:8080"`
	DBPath       string `env:"TUMORBOARD_DB_PATH" envDefault:"tumorboard.db"`
	DefaultData  string `env:"TUMORBOARD_DEFAULT_DATA"`
	UploadSecret string `env:"TUMORBOARD_UPLOAD_SECRET"`
}

// ParseConfig loads environment defaults and parses flags over them.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var ec envConfig
	if err := config.ParseEnv(&ec); err != nil {
		return Config{}, err
	}

	cfg := Config{
		HTTPAddr:     ec.HTTPAddr,
		DBPath:       ec.DBPath,
		DefaultData:  ec.DefaultData,
		UploadSecret: ec.UploadSecret,
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database path")
	fs.StringVar(&cfg.DefaultData, "default-data", cfg.DefaultData, "CSV ingested on first start when the store is empty")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run starts the dashboard server and blocks until the context ends.
func Run(ctx context.Context, cfg Config) error {
	shutdownOtel, err := otel.Setup(ctx, "tumorboard")
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	if err := ensureDataset(ctx, store, cfg.DefaultData); err != nil {
		return err
	}

	handler, err := server.NewHandler(server.HandlerConfig{
		Datasets:       store,
		AnalyticsCache: cache.New(store),
		Emitter:        telemetry.NewEmitter(store),
		UploadSecret:   []byte(cfg.UploadSecret),
	})
	if err != nil {
		return fmt.Errorf("init handler: %w", err)
	}

	srv, err := server.New(server.Config{
		HTTPAddr: cfg.HTTPAddr,
		Handler:  handler,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve dashboard: %w", err)
	}
	return nil
}

// ensureDataset seeds an empty store. A configured CSV file wins; otherwise
// a simulated four-arm study keeps the dashboard usable out of the box.
func ensureDataset(ctx context.Context, store *sqlite.Store, defaultData string) error {
	_, err := store.LatestDataset(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("check store: %w", err)
	}

	var measurements []study.Measurement
	name := "simulation"
	source := "generated"

	if defaultData != "" {
		file, err := os.Open(defaultData)
		if err != nil {
			return fmt.Errorf("open default data: %w", err)
		}
		defer file.Close()
		measurements, err = study.DecodeCSV(file)
		if err != nil {
			return fmt.Errorf("decode default data: %w", err)
		}
		name = "default"
		source = "file:" + defaultData
	} else {
		measurements, err = seed.Generate(seed.DefaultConfig())
		if err != nil {
			return fmt.Errorf("generate simulation: %w", err)
		}
	}

	datasetID, err := id.NewID()
	if err != nil {
		return err
	}
	dataset := study.Dataset{
		ID:           datasetID,
		Name:         name,
		Source:       source,
		CreatedAt:    time.Now().UTC(),
		Measurements: measurements,
	}
	if err := store.PutDataset(ctx, dataset); err != nil {
		return fmt.Errorf("store default dataset: %w", err)
	}
	log.Printf("seeded dataset %s (%d measurements)", dataset.ID, len(measurements))
	return nil
}
