package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/muridae/tumorboard/internal/study"
)

// GroupGrowth summarises per-mouse exponential growth rates within a group.
// Rate is the mean least-squares slope of ln(volume) against day, so a rate
// of 0.1 means volumes grow by a factor of e^0.1 per day.
type GroupGrowth struct {
	Group   string  `json:"group"`
	N       int     `json:"n"`
	Rate    float64 `json:"rate_per_day"`
	RateSD  float64 `json:"rate_sd"`
	Doubles float64 `json:"doubling_days"`
}

// GrowthRatesByGroup fits a log-linear growth rate to each mouse and
// aggregates the slopes per group. Mice with fewer than two positive-volume
// observations are skipped; groups where no mouse could be fit are omitted.
func GrowthRatesByGroup(measurements []study.Measurement) []GroupGrowth {
	type series struct {
		days    []float64
		logVols []float64
	}
	byMouse := make(map[string]*series)
	mouseGroup := make(map[string]string)
	for _, m := range measurements {
		if m.Volume <= 0 {
			continue
		}
		s, ok := byMouse[m.MouseID]
		if !ok {
			s = &series{}
			byMouse[m.MouseID] = s
			mouseGroup[m.MouseID] = m.Group
		}
		s.days = append(s.days, m.Day)
		s.logVols = append(s.logVols, math.Log(m.Volume))
	}

	slopesByGroup := make(map[string][]float64)
	for mouseID, s := range byMouse {
		if len(s.days) < 2 {
			continue
		}
		_, slope := stat.LinearRegression(s.days, s.logVols, nil, false)
		if math.IsNaN(slope) || math.IsInf(slope, 0) {
			continue
		}
		group := mouseGroup[mouseID]
		slopesByGroup[group] = append(slopesByGroup[group], slope)
	}

	groups := make([]string, 0, len(slopesByGroup))
	for g := range slopesByGroup {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	out := make([]GroupGrowth, 0, len(groups))
	for _, g := range groups {
		slopes := slopesByGroup[g]
		mean := stat.Mean(slopes, nil)
		sd := 0.0
		if len(slopes) > 1 {
			sd = stat.StdDev(slopes, nil)
		}
		// Doubling time is undefined for shrinking tumors; 0 marks that case.
		doubling := 0.0
		if mean > 0 {
			doubling = math.Ln2 / mean
		}
		out = append(out, GroupGrowth{
			Group:   g,
			N:       len(slopes),
			Rate:    mean,
			RateSD:  sd,
			Doubles: doubling,
		})
	}
	return out
}
