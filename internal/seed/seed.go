// Package seed generates simulated tumor-volume study data for local
// development and demos.
package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"
	"strconv"

	"github.com/muridae/tumorboard/internal/study"
)

// arm pairs a treatment group with its simulated daily growth rate.
type arm struct {
	group string
	rate  float64
}

// Four-arm design matching a vehicle/monotherapy/combination study.
// Rates are log-scale growth per day.
var arms = []arm{
	{"Vehicle", 0.115},
	{"DrugA", 0.080},
	{"DrugB", 0.095},
	{"Combo", 0.030},
}

// Config controls the generated study shape.
type Config struct {
	MicePerGroup int
	// Days is the last measurement day; measurements land every IntervalDays.
	Days         int
	IntervalDays int
	// BaselineVolume is the mean implant volume at day 0 in mm^3.
	BaselineVolume float64
	// Noise is the log-scale standard deviation applied per measurement.
	Noise float64
	Seed  int64
}

// DefaultConfig mirrors the lab's usual pilot-study shape.
func DefaultConfig() Config {
	return Config{
		MicePerGroup:   8,
		Days:           21,
		IntervalDays:   3,
		BaselineVolume: 100,
		Noise:          0.12,
		Seed:           1,
	}
}

// Generate simulates a four-arm study and returns its measurements sorted by
// group, mouse, and day.
func Generate(cfg Config) ([]study.Measurement, error) {
	if cfg.MicePerGroup <= 0 {
		return nil, errors.New("mice per group must be positive")
	}
	if cfg.Days <= 0 {
		return nil, errors.New("days must be positive")
	}
	if cfg.IntervalDays <= 0 {
		cfg.IntervalDays = 3
	}
	if cfg.BaselineVolume <= 0 {
		cfg.BaselineVolume = 100
	}
	if cfg.Noise < 0 {
		cfg.Noise = 0
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	var measurements []study.Measurement
	mouseN := 0
	for _, a := range arms {
		for i := 0; i < cfg.MicePerGroup; i++ {
			mouseN++
			mouseID := fmt.Sprintf("m%03d", mouseN)
			// Per-mouse variation around the arm rate and baseline.
			rate := a.rate * (1 + 0.15*rng.NormFloat64())
			baseline := cfg.BaselineVolume * math.Exp(0.1*rng.NormFloat64())

			for day := 0; day <= cfg.Days; day += cfg.IntervalDays {
				d := float64(day)
				volume := baseline * math.Exp(rate*d+cfg.Noise*rng.NormFloat64())
				measurements = append(measurements, study.Measurement{
					MouseID: mouseID,
					Day:     d,
					Group:   a.group,
					Volume:  math.Round(volume*10) / 10,
				})
			}
		}
	}

	sort.Slice(measurements, func(i, j int) bool {
		a, b := measurements[i], measurements[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		if a.MouseID != b.MouseID {
			return a.MouseID < b.MouseID
		}
		return a.Day < b.Day
	})
	return measurements, nil
}

// WriteCSV generates a study and writes it in the dashboard's CSV format.
func WriteCSV(w io.Writer, cfg Config) error {
	measurements, err := Generate(cfg)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{study.ColumnMouseID, study.ColumnDay, study.ColumnGroup, study.ColumnVolume}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, m := range measurements {
		record := []string{
			m.MouseID,
			strconv.FormatFloat(m.Day, 'f', -1, 64),
			m.Group,
			strconv.FormatFloat(m.Volume, 'f', 1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
