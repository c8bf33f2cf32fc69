package study

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Required CSV columns. Header matching is case-insensitive and order-free;
// extra columns are ignored.
const (
	ColumnMouseID = "mouse_id"
	ColumnDay     = "day"
	ColumnGroup   = "group"
	ColumnVolume  = "volume"
)

// MissingColumnError reports a required CSV column that was not found.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("csv is missing required column %q", e.Column)
}

// DecodeCSV reads measurements from CSV data. Rows whose day or volume do
// not parse as finite numbers are dropped; an empty result after dropping is
// ErrNoData.
func DecodeCSV(r io.Reader) ([]Measurement, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var measurements []Measurement
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}

		m, ok := decodeRow(record, cols)
		if !ok {
			continue
		}
		measurements = append(measurements, m)
	}

	if len(measurements) == 0 {
		return nil, ErrNoData
	}
	return measurements, nil
}

type columnIndexes struct {
	mouseID int
	day     int
	group   int
	volume  int
}

func resolveColumns(header []string) (columnIndexes, error) {
	cols := columnIndexes{mouseID: -1, day: -1, group: -1, volume: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case ColumnMouseID:
			cols.mouseID = i
		case ColumnDay:
			cols.day = i
		case ColumnGroup:
			cols.group = i
		case ColumnVolume:
			cols.volume = i
		}
	}

	switch {
	case cols.mouseID < 0:
		return cols, &MissingColumnError{Column: ColumnMouseID}
	case cols.day < 0:
		return cols, &MissingColumnError{Column: ColumnDay}
	case cols.group < 0:
		return cols, &MissingColumnError{Column: ColumnGroup}
	case cols.volume < 0:
		return cols, &MissingColumnError{Column: ColumnVolume}
	}
	return cols, nil
}

func decodeRow(record []string, cols columnIndexes) (Measurement, bool) {
	max := cols.mouseID
	for _, idx := range []int{cols.day, cols.group, cols.volume} {
		if idx > max {
			max = idx
		}
	}
	if len(record) <= max {
		return Measurement{}, false
	}

	mouseID := strings.TrimSpace(record[cols.mouseID])
	group := strings.TrimSpace(record[cols.group])
	if mouseID == "" || group == "" {
		return Measurement{}, false
	}

	day, err := strconv.ParseFloat(strings.TrimSpace(record[cols.day]), 64)
	if err != nil || math.IsNaN(day) || math.IsInf(day, 0) {
		return Measurement{}, false
	}
	volume, err := strconv.ParseFloat(strings.TrimSpace(record[cols.volume]), 64)
	if err != nil || math.IsNaN(volume) || math.IsInf(volume, 0) {
		return Measurement{}, false
	}

	return Measurement{MouseID: mouseID, Day: day, Group: group, Volume: volume}, true
}
