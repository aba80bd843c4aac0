package finance

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

const (
	irrLow       = -0.99
	irrHigh      = 10.0
	irrTolerance = 1e-10
	irrMaxIter   = 500
)

// NPV discounts cashFlows at rate with the first element at t=0.
func NPV(cashFlows []float64, rate float64) float64 {
	factors := make([]float64, len(cashFlows))
	for i := range factors {
		factors[i] = math.Pow(1+rate, -float64(i))
	}
	return floats.Dot(cashFlows, factors)
}

// XNPV discounts each flow by actual days from the first date (act/365).
func XNPV(cashFlows []float64, dates []time.Time, rate float64) float64 {
	if len(cashFlows) == 0 || len(dates) == 0 {
		return 0
	}
	base := dates[0]
	var total float64
	for i, cf := range cashFlows {
		if i >= len(dates) {
			break
		}
		days := dates[i].Sub(base).Hours() / 24
		total += cf / math.Pow(1+rate, days/365.0)
	}
	return total
}

// IRR finds the rate where NPV is zero by bisection on [-0.99, 10].
// ok is false when the bracket holds no sign change; the rate is then 0.
func IRR(cashFlows []float64) (rate float64, ok bool) {
	lo, hi := irrLow, irrHigh
	fLo, fHi := NPV(cashFlows, lo), NPV(cashFlows, hi)
	if math.IsNaN(fLo) || math.IsNaN(fHi) || fLo*fHi > 0 {
		return 0, false
	}
	if fLo == 0 {
		return lo, true
	}
	if fHi == 0 {
		return hi, true
	}

	for i := 0; i < irrMaxIter; i++ {
		mid := (lo + hi) / 2
		fMid := NPV(cashFlows, mid)
		if fMid == 0 || (hi-lo)/2 < irrTolerance {
			return mid, true
		}
		if math.Signbit(fMid) == math.Signbit(fLo) {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, true
}

// Payback returns the first index at which the cumulative cash flow turns
// non-negative, or len(cashFlows) if it never does.
func Payback(cashFlows []float64) float64 {
	cum := make([]float64, len(cashFlows))
	floats.CumSum(cum, cashFlows)
	for i, v := range cum {
		if v >= 0 {
			return float64(i)
		}
	}
	return float64(len(cashFlows))
}

// AnnualDates returns n dates one year apart starting at start.
func AnnualDates(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(i, 0, 0)
	}
	return out
}
