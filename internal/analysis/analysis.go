// Package analysis computes treatment-efficacy statistics over tumor
// measurements: tumor growth inhibition (TGI), the Bliss independence
// expectation for two single agents, and the combination index for a
// combo arm, with a bootstrap percentile interval.
package analysis

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/muridae/tumorboard/internal/study"
)

var (
	// ErrNoEndpoint indicates no mouse reached the humane-endpoint threshold.
	ErrNoEndpoint = errors.New("no mouse reached the endpoint threshold")
	// ErrControlMissing indicates the control group has no data at the evaluation day.
	ErrControlMissing = errors.New("control group has no data at the evaluation day")
	// ErrControlMean indicates the control group mean is not positive.
	ErrControlMean = errors.New("control group mean volume is not positive")
)

// comboCandidates are the group names recognised as the combination arm,
// in detection order.
var comboCandidates = []string{"Combo", "A+B", "DrugAB", "AB"}

// Params selects the arms and constants for an efficacy evaluation.
type Params struct {
	Control    string
	DrugA      string
	DrugB      string
	Threshold  float64
	BootstrapN int
}

// DefaultThreshold is the humane-endpoint tumor volume used when none is given.
const DefaultThreshold = 500.0

// DefaultBootstrapN is the default number of bootstrap resamples.
const DefaultBootstrapN = 2000

// Bootstrap resample bounds, matching the dashboard control range.
const (
	MinBootstrapN = 200
	MaxBootstrapN = 10000
)

// GroupStat summarises one group at the evaluation day.
type GroupStat struct {
	Group      string  `json:"group"`
	N          int     `json:"n"`
	MeanVolume float64 `json:"mean_volume"`
	TGI        float64 `json:"tgi_percent"`
}

// Interval is a bootstrap percentile interval.
type Interval struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Bliss pairs the single-agent TGIs with their Bliss independence
// expectation. It is absent from a Result when either agent arm has no
// measurement at the evaluation day, so a missing arm is never reported
// as a zero effect.
type Bliss struct {
	DrugATGI    float64 `json:"drug_a_tgi_percent"`
	DrugBTGI    float64 `json:"drug_b_tgi_percent"`
	ExpectedTGI float64 `json:"expected_tgi_percent"`
}

// Combination reports the combo-arm synergy evaluation. Index is nil when
// the combo TGI is not positive, which leaves the ratio undefined.
type Combination struct {
	Group     string    `json:"group"`
	TGI       float64   `json:"tgi_percent"`
	Index     *float64  `json:"index,omitempty"`
	Bootstrap *Interval `json:"bootstrap_95ci,omitempty"`
}

// Result is a full efficacy evaluation at the endpoint-derived day.
type Result struct {
	EvaluationDay float64       `json:"evaluation_day"`
	Threshold     float64       `json:"threshold"`
	Control       string        `json:"control"`
	Groups        []GroupStat   `json:"groups"`
	Bliss         *Bliss        `json:"bliss,omitempty"`
	Combination   *Combination  `json:"combination,omitempty"`
	GrowthRates   []GroupGrowth `json:"growth_rates,omitempty"`
}

// EndpointDay returns the evaluation day derived from the humane-endpoint
// rule: for each mouse the day preceding its first observation at or above
// threshold, taking the earliest such day across mice. A mouse that is
// already at threshold on its first observed day contributes nothing.
func EndpointDay(measurements []study.Measurement, threshold float64) (float64, error) {
	byMouse := make(map[string][]study.Measurement)
	for _, m := range measurements {
		byMouse[m.MouseID] = append(byMouse[m.MouseID], m)
	}

	var days []float64
	for _, obs := range byMouse {
		sort.Slice(obs, func(i, j int) bool { return obs[i].Day < obs[j].Day })
		for i, m := range obs {
			if m.Volume >= threshold {
				if i > 0 {
					days = append(days, obs[i-1].Day)
				}
				break
			}
		}
	}

	if len(days) == 0 {
		return 0, ErrNoEndpoint
	}
	earliest := days[0]
	for _, d := range days[1:] {
		if d < earliest {
			earliest = d
		}
	}
	return earliest, nil
}

// TGIByGroup computes per-group TGI percentages at the given day relative to
// the control group mean: (1 - mean(group)/mean(control)) * 100.
func TGIByGroup(measurements []study.Measurement, day float64, control string) (map[string]float64, error) {
	means, err := groupMeansAt(measurements, day, control)
	if err != nil {
		return nil, err
	}
	controlMean := means[control]

	tgi := make(map[string]float64, len(means))
	for group, mean := range means {
		tgi[group] = (1 - mean/controlMean) * 100
	}
	return tgi, nil
}

// BlissExpected returns the Bliss independence expectation for two single
// agents, with inputs and output as TGI percentages.
func BlissExpected(tgiA, tgiB float64) float64 {
	ea := tgiA / 100
	eb := tgiB / 100
	return (ea + eb - ea*eb) * 100
}

// DetectComboGroup returns the first recognised combination-arm name
// among the given groups.
func DetectComboGroup(groups []string) (string, bool) {
	present := make(map[string]bool, len(groups))
	for _, g := range groups {
		present[g] = true
	}
	for _, candidate := range comboCandidates {
		if present[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// Evaluate runs the full efficacy analysis: endpoint day selection, per-group
// TGI, Bliss expectation for the two single agents, and (when a combo arm is
// present) the combination index with a bootstrap interval. Sections whose
// inputs are missing are omitted rather than failing the whole evaluation:
// no Bliss without both agent arms at the evaluation day, no index without a
// positive combo TGI. src seeds the bootstrap; a nil src makes the bootstrap
// non-deterministic.
func Evaluate(measurements []study.Measurement, params Params, src rand.Source) (Result, error) {
	params = normalizeParams(params)

	day, err := EndpointDay(measurements, params.Threshold)
	if err != nil {
		return Result{}, err
	}

	tgi, err := TGIByGroup(measurements, day, params.Control)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		EvaluationDay: day,
		Threshold:     params.Threshold,
		Control:       params.Control,
		GrowthRates:   GrowthRatesByGroup(measurements),
	}

	groups := make([]string, 0, len(tgi))
	for g := range tgi {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		volumes := study.VolumesAt(measurements, g, day)
		result.Groups = append(result.Groups, GroupStat{
			Group:      g,
			N:          len(volumes),
			MeanVolume: stat.Mean(volumes, nil),
			TGI:        tgi[g],
		})
	}

	tgiA, okA := tgi[params.DrugA]
	tgiB, okB := tgi[params.DrugB]
	if okA && okB {
		result.Bliss = &Bliss{
			DrugATGI:    tgiA,
			DrugBTGI:    tgiB,
			ExpectedTGI: BlissExpected(tgiA, tgiB),
		}
	}

	comboGroup, found := DetectComboGroup(groups)
	if !found || result.Bliss == nil {
		return result, nil
	}

	combo := &Combination{Group: comboGroup, TGI: tgi[comboGroup]}
	result.Combination = combo

	comboFraction := combo.TGI / 100
	if comboFraction <= 0 {
		return result, nil
	}
	index := (result.Bliss.ExpectedTGI / 100) / comboFraction
	combo.Index = &index

	if interval, ok := BootstrapIndexInterval(measurements, day, params, comboGroup, src); ok {
		combo.Bootstrap = &interval
	}
	return result, nil
}

func normalizeParams(params Params) Params {
	if params.Threshold <= 0 {
		params.Threshold = DefaultThreshold
	}
	if params.BootstrapN == 0 {
		params.BootstrapN = DefaultBootstrapN
	}
	if params.BootstrapN < MinBootstrapN {
		params.BootstrapN = MinBootstrapN
	}
	if params.BootstrapN > MaxBootstrapN {
		params.BootstrapN = MaxBootstrapN
	}
	return params
}

func groupMeansAt(measurements []study.Measurement, day float64, control string) (map[string]float64, error) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, m := range measurements {
		if m.Day != day {
			continue
		}
		sums[m.Group] += m.Volume
		counts[m.Group]++
	}

	if counts[control] == 0 {
		return nil, fmt.Errorf("%w: %s at day %g", ErrControlMissing, control, day)
	}

	means := make(map[string]float64, len(sums))
	for group, sum := range sums {
		means[group] = sum / float64(counts[group])
	}
	if means[control] <= 0 {
		return nil, fmt.Errorf("%w: %s at day %g", ErrControlMean, control, day)
	}
	return means, nil
}
