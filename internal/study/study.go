// Package study holds the tumor measurement domain model.
//
// A dataset is an immutable set of measurements decoded from one CSV upload.
// Each measurement records the tumor volume observed for one mouse on one
// study day, together with the treatment group the mouse belongs to.
package study

import (
	"errors"
	"sort"
	"time"
)

// ErrNoData indicates a dataset contains no usable measurements.
var ErrNoData = errors.New("no usable measurements")

// Measurement is a single observed tumor volume.
type Measurement struct {
	MouseID string
	Day     float64
	Group   string
	Volume  float64
}

// Dataset is one immutable version of uploaded measurements.
type Dataset struct {
	ID           string
	Name         string
	Source       string
	CreatedAt    time.Time
	Measurements []Measurement
}

// SeriesPoint is one aggregated point on a volume-over-time series.
type SeriesPoint struct {
	Day    float64
	Volume float64
}

// Series is a named volume-over-time line with days ascending.
type Series struct {
	Label  string
	Points []SeriesPoint
}

// Groups returns the sorted unique treatment groups in the dataset.
func (d Dataset) Groups() []string {
	return uniqueSorted(d.Measurements, func(m Measurement) string { return m.Group })
}

// MouseIDs returns the sorted unique mouse identifiers in the dataset.
func (d Dataset) MouseIDs() []string {
	return uniqueSorted(d.Measurements, func(m Measurement) string { return m.MouseID })
}

// Filter returns the measurements restricted to the given groups and,
// when mice is non-empty, to the given mouse identifiers. A nil or empty
// groups slice keeps every group.
func Filter(measurements []Measurement, groups, mice []string) []Measurement {
	groupSet := toSet(groups)
	mouseSet := toSet(mice)

	var out []Measurement
	for _, m := range measurements {
		if len(groupSet) > 0 && !groupSet[m.Group] {
			continue
		}
		if len(mouseSet) > 0 && !mouseSet[m.MouseID] {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SeriesByGroup aggregates measurements into one mean-volume series per group.
// Series are ordered by group name and points by ascending day.
func SeriesByGroup(measurements []Measurement) []Series {
	type cell struct {
		sum   float64
		count int
	}
	byGroup := make(map[string]map[float64]*cell)
	for _, m := range measurements {
		days, ok := byGroup[m.Group]
		if !ok {
			days = make(map[float64]*cell)
			byGroup[m.Group] = days
		}
		c, ok := days[m.Day]
		if !ok {
			c = &cell{}
			days[m.Day] = c
		}
		c.sum += m.Volume
		c.count++
	}

	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	series := make([]Series, 0, len(groups))
	for _, g := range groups {
		days := byGroup[g]
		points := make([]SeriesPoint, 0, len(days))
		for day, c := range days {
			points = append(points, SeriesPoint{Day: day, Volume: c.sum / float64(c.count)})
		}
		sort.Slice(points, func(i, j int) bool { return points[i].Day < points[j].Day })
		series = append(series, Series{Label: g, Points: points})
	}
	return series
}

// SeriesByMouse returns one series per mouse within the given group,
// ordered by mouse identifier and ascending day.
func SeriesByMouse(measurements []Measurement, group string) []Series {
	byMouse := make(map[string][]SeriesPoint)
	for _, m := range measurements {
		if m.Group != group {
			continue
		}
		byMouse[m.MouseID] = append(byMouse[m.MouseID], SeriesPoint{Day: m.Day, Volume: m.Volume})
	}

	mice := make([]string, 0, len(byMouse))
	for id := range byMouse {
		mice = append(mice, id)
	}
	sort.Strings(mice)

	series := make([]Series, 0, len(mice))
	for _, id := range mice {
		points := byMouse[id]
		sort.Slice(points, func(i, j int) bool { return points[i].Day < points[j].Day })
		series = append(series, Series{Label: id, Points: points})
	}
	return series
}

// VolumesAt returns the volumes observed for the group at the given day.
func VolumesAt(measurements []Measurement, group string, day float64) []float64 {
	var out []float64
	for _, m := range measurements {
		if m.Group == group && m.Day == day {
			out = append(out, m.Volume)
		}
	}
	return out
}

func uniqueSorted(measurements []Measurement, key func(Measurement) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range measurements {
		k := key(m)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		set[v] = true
	}
	return set
}
