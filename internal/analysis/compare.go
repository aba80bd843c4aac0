package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"pvbess-model/internal/data"
	"pvbess-model/internal/dispatch"
)

// zeroTruthEpsilon is the magnitude below which a truth value counts as zero.
const zeroTruthEpsilon = 1e-9

// FieldComparison is the model-vs-truth error for one named quantity.
// For totals Model/Truth are the two values; for hourly columns they are the
// values at WorstIndex and the error fields summarise the whole column.
type FieldComparison struct {
	Field        string  `json:"field"`
	Model        float64 `json:"model"`
	Truth        float64 `json:"truth"`
	AbsError     float64 `json:"abs_error"`
	PercentError float64 `json:"percent_error"`

	Samples      int     `json:"samples,omitempty"`
	MeanAbsError float64 `json:"mean_abs_error,omitempty"`
	P95AbsError  float64 `json:"p95_abs_error,omitempty"`
	WorstIndex   int     `json:"worst_index,omitempty"`
}

// PercentError is |model - truth| / |truth| * 100. A zero truth yields 0 when the
// model is also zero and 100 otherwise.
func PercentError(model, truth float64) float64 {
	diff := math.Abs(model - truth)
	if math.Abs(truth) < zeroTruthEpsilon {
		if diff < zeroTruthEpsilon {
			return 0
		}
		return 100
	}
	return diff / math.Abs(truth) * 100
}

// CompareTotals compares every field present in both maps, sorted by field name.
func CompareTotals(model, truth map[string]float64) []FieldComparison {
	out := make([]FieldComparison, 0, len(truth))
	for field, want := range truth {
		got, ok := model[field]
		if !ok {
			continue
		}
		out = append(out, FieldComparison{
			Field:        field,
			Model:        got,
			Truth:        want,
			AbsError:     math.Abs(got - want),
			PercentError: PercentError(got, want),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// CompareHourly compares ledger columns against reference columns of the same name
// over the overlapping row range. PercentError is the relative error at the worst hour.
func CompareHourly(results []dispatch.HourlyResult, truth data.HourlyTruth) []FieldComparison {
	if len(results) == 0 {
		return nil
	}
	columns := make(map[string][]float64)
	for i, r := range results {
		for name, v := range dispatch.HourlyFields(r) {
			if columns[name] == nil {
				columns[name] = make([]float64, len(results))
			}
			columns[name][i] = v
		}
	}

	var out []FieldComparison
	for field, want := range truth {
		got, ok := columns[field]
		if !ok {
			continue
		}
		n := min(len(got), len(want))
		if n == 0 {
			continue
		}
		errs := make([]float64, n)
		for i := 0; i < n; i++ {
			errs[i] = math.Abs(got[i] - want[i])
		}
		worst := floats.MaxIdx(errs)

		sorted := append([]float64(nil), errs...)
		sort.Float64s(sorted)

		out = append(out, FieldComparison{
			Field:        field,
			Model:        got[worst],
			Truth:        want[worst],
			AbsError:     errs[worst],
			PercentError: PercentError(got[worst], want[worst]),
			Samples:      n,
			MeanAbsError: stat.Mean(errs, nil),
			P95AbsError:  stat.Quantile(0.95, stat.Empirical, sorted, nil),
			WorstIndex:   worst,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// MaxPercentError is the largest PercentError across comparisons (0 when empty).
func MaxPercentError(cmp []FieldComparison) float64 {
	m := 0.0
	for _, c := range cmp {
		m = math.Max(m, c.PercentError)
	}
	return m
}
