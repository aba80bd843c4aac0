package analysis

import "sort"

// RankedComparison is a comparison with its 1-based position in an error ranking.
type RankedComparison struct {
	Rank int `json:"rank"`
	FieldComparison
}

// RankByMaxError sorts descending by PercentError, then AbsError, then field name.
func RankByMaxError(cmp []FieldComparison) []RankedComparison {
	out := make([]RankedComparison, 0, len(cmp))
	for _, c := range cmp {
		out = append(out, RankedComparison{FieldComparison: c})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.PercentError != b.PercentError {
			return a.PercentError > b.PercentError
		}
		if a.AbsError != b.AbsError {
			return a.AbsError > b.AbsError
		}
		return a.Field < b.Field
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Failing returns the comparisons whose PercentError exceeds tolerancePct.
func Failing(cmp []FieldComparison, tolerancePct float64) []FieldComparison {
	var out []FieldComparison
	for _, c := range cmp {
		if c.PercentError > tolerancePct {
			out = append(out, c)
		}
	}
	return out
}
