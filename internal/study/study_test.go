package study

import (
	"reflect"
	"testing"
)

func sampleMeasurements() []Measurement {
	return []Measurement{
		{MouseID: "m1", Day: 0, Group: "Vehicle", Volume: 100},
		{MouseID: "m1", Day: 7, Group: "Vehicle", Volume: 240},
		{MouseID: "m2", Day: 0, Group: "Vehicle", Volume: 110},
		{MouseID: "m2", Day: 7, Group: "Vehicle", Volume: 260},
		{MouseID: "m3", Day: 0, Group: "DrugA", Volume: 105},
		{MouseID: "m3", Day: 7, Group: "DrugA", Volume: 180},
	}
}

func TestGroupsAndMouseIDs(t *testing.T) {
	d := Dataset{Measurements: sampleMeasurements()}

	if got := d.Groups(); !reflect.DeepEqual(got, []string{"DrugA", "Vehicle"}) {
		t.Fatalf("unexpected groups: %v", got)
	}
	if got := d.MouseIDs(); !reflect.DeepEqual(got, []string{"m1", "m2", "m3"}) {
		t.Fatalf("unexpected mouse ids: %v", got)
	}
}

func TestFilter(t *testing.T) {
	measurements := sampleMeasurements()

	tests := []struct {
		name   string
		groups []string
		mice   []string
		want   int
	}{
		{name: "no filters keeps everything", want: 6},
		{name: "group filter", groups: []string{"DrugA"}, want: 2},
		{name: "mouse filter", mice: []string{"m1"}, want: 2},
		{name: "group and mouse", groups: []string{"Vehicle"}, mice: []string{"m2"}, want: 2},
		{name: "no match", groups: []string{"DrugB"}, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(measurements, tc.groups, tc.mice)
			if len(got) != tc.want {
				t.Fatalf("expected %d measurements, got %d", tc.want, len(got))
			}
		})
	}

	if len(measurements) != 6 {
		t.Fatal("filter mutated its input")
	}
}

func TestSeriesByGroup(t *testing.T) {
	series := SeriesByGroup(sampleMeasurements())

	if len(series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(series))
	}
	if series[0].Label != "DrugA" || series[1].Label != "Vehicle" {
		t.Fatalf("unexpected series order: %q, %q", series[0].Label, series[1].Label)
	}

	vehicle := series[1]
	if len(vehicle.Points) != 2 {
		t.Fatalf("expected 2 vehicle points, got %d", len(vehicle.Points))
	}
	if vehicle.Points[0].Day != 0 || vehicle.Points[0].Volume != 105 {
		t.Fatalf("unexpected day-0 mean: %+v", vehicle.Points[0])
	}
	if vehicle.Points[1].Day != 7 || vehicle.Points[1].Volume != 250 {
		t.Fatalf("unexpected day-7 mean: %+v", vehicle.Points[1])
	}
}

func TestSeriesByMouse(t *testing.T) {
	series := SeriesByMouse(sampleMeasurements(), "Vehicle")

	if len(series) != 2 {
		t.Fatalf("expected 2 mouse series, got %d", len(series))
	}
	if series[0].Label != "m1" || series[1].Label != "m2" {
		t.Fatalf("unexpected mouse order: %q, %q", series[0].Label, series[1].Label)
	}
	if series[0].Points[1].Volume != 240 {
		t.Fatalf("unexpected m1 day-7 volume: %+v", series[0].Points[1])
	}
}

func TestVolumesAt(t *testing.T) {
	volumes := VolumesAt(sampleMeasurements(), "Vehicle", 7)
	if !reflect.DeepEqual(volumes, []float64{240, 260}) {
		t.Fatalf("unexpected volumes: %v", volumes)
	}
	if got := VolumesAt(sampleMeasurements(), "DrugB", 7); got != nil {
		t.Fatalf("expected nil for unknown group, got %v", got)
	}
}
