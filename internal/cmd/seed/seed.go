// Package seed implements the study-data generator command.
package seed

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/muridae/tumorboard/internal/seed"
)

// Config holds the seed command configuration.
type Config struct {
	Out      string
	Generate seed.Config
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{
		Out:      "-",
		Generate: seed.DefaultConfig(),
	}

	fs.StringVar(&cfg.Out, "out", cfg.Out, "output path (- for stdout)")
	fs.IntVar(&cfg.Generate.MicePerGroup, "mice", cfg.Generate.MicePerGroup, "mice per group")
	fs.IntVar(&cfg.Generate.Days, "days", cfg.Generate.Days, "last measurement day")
	fs.IntVar(&cfg.Generate.IntervalDays, "interval", cfg.Generate.IntervalDays, "days between measurements")
	fs.Float64Var(&cfg.Generate.BaselineVolume, "baseline", cfg.Generate.BaselineVolume, "mean implant volume at day 0")
	fs.Int64Var(&cfg.Generate.Seed, "seed", cfg.Generate.Seed, "random seed for reproducibility")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Run generates a simulated study CSV to the configured output.
func Run(_ context.Context, cfg Config, stdout io.Writer) error {
	if cfg.Out == "-" || cfg.Out == "" {
		return seed.WriteCSV(stdout, cfg.Generate)
	}

	file, err := os.Create(cfg.Out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := seed.WriteCSV(file, cfg.Generate); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}
