package analysis

import (
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/muridae/tumorboard/internal/study"
)

// minBootstrapKept is the smallest number of surviving resamples for which a
// percentile interval is reported.
const minBootstrapKept = 10

// BootstrapIndexInterval estimates a 95% percentile interval for the
// combination index by resampling each arm's volumes at the evaluation day
// with replacement. Resamples whose combo TGI is not positive are discarded;
// the interval is only reported when more than minBootstrapKept resamples
// survive.
func BootstrapIndexInterval(measurements []study.Measurement, day float64, params Params, comboGroup string, src rand.Source) (Interval, bool) {
	control := study.VolumesAt(measurements, params.Control, day)
	drugA := study.VolumesAt(measurements, params.DrugA, day)
	drugB := study.VolumesAt(measurements, params.DrugB, day)
	combo := study.VolumesAt(measurements, comboGroup, day)
	if len(control) == 0 || len(drugA) == 0 || len(drugB) == 0 || len(combo) == 0 {
		return Interval{}, false
	}

	var rng *rand.Rand
	if src != nil {
		rng = rand.New(src)
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	kept := make([]float64, 0, params.BootstrapN)
	for i := 0; i < params.BootstrapN; i++ {
		meanCtrl := resampleMean(rng, control)
		if meanCtrl <= 0 {
			continue
		}
		tgiA := 1 - resampleMean(rng, drugA)/meanCtrl
		tgiB := 1 - resampleMean(rng, drugB)/meanCtrl
		tgiCombo := 1 - resampleMean(rng, combo)/meanCtrl

		expected := tgiA + tgiB - tgiA*tgiB
		if tgiCombo > 0 {
			kept = append(kept, expected/tgiCombo)
		}
	}

	if len(kept) <= minBootstrapKept {
		return Interval{}, false
	}

	sort.Float64s(kept)
	return Interval{
		Low:  stat.Quantile(0.025, stat.LinInterp, kept, nil),
		High: stat.Quantile(0.975, stat.LinInterp, kept, nil),
	}, true
}

func resampleMean(rng *rand.Rand, values []float64) float64 {
	sum := 0.0
	for range values {
		sum += values[rng.Intn(len(values))]
	}
	return sum / float64(len(values))
}
