package report

import (
	"bytes"
	"testing"

	"github.com/muridae/tumorboard/internal/study"
)

func TestWriteGroupMeanPNG(t *testing.T) {
	series := []study.Series{
		{Label: "Vehicle", Points: []study.SeriesPoint{{Day: 0, Volume: 100}, {Day: 7, Volume: 250}, {Day: 14, Volume: 520}}},
		{Label: "DrugA", Points: []study.SeriesPoint{{Day: 0, Volume: 100}, {Day: 7, Volume: 180}, {Day: 14, Volume: 260}}},
	}

	var buf bytes.Buffer
	if err := WriteGroupMeanPNG(&buf, "simulation", series); err != nil {
		t.Fatalf("render: %v", err)
	}

	png := buf.Bytes()
	if len(png) < 8 {
		t.Fatalf("expected png output, got %d bytes", len(png))
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatal("expected PNG signature")
	}
}

func TestWriteGroupMeanPNGSkipsSparseSeries(t *testing.T) {
	series := []study.Series{
		{Label: "Vehicle", Points: []study.SeriesPoint{{Day: 0, Volume: 100}}},
	}

	var buf bytes.Buffer
	if err := WriteGroupMeanPNG(&buf, "sparse", series); err == nil {
		t.Fatal("expected error when nothing is renderable")
	}
}
