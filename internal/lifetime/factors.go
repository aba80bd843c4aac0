package lifetime

import "pvbess-model/internal/model"

// YearFactors are the multipliers applied to the year-1 configuration for one year.
type YearFactors struct {
	Year       int
	PV         float64
	BESS       float64
	Efficiency float64
	Augmented  bool
}

// Factors resolves the effective per-year multipliers. An augmentation in year a
// with fraction f restarts the BESS curve: cap(y) = f * BESS[y-a+1] / BESS[1] for y >= a,
// until the next augmentation. The efficiency curve restarts the same way, without f.
// Schedules must already be validated.
func Factors(deg model.DegradationSchedule, aug model.AugmentationSchedule, horizonYears int) []YearFactors {
	out := make([]YearFactors, horizonYears)
	lastAug, fraction := 0, 1.0

	for y := 1; y <= horizonYears; y++ {
		augmented := false
		if ev, ok := aug.EventFor(y); ok {
			lastAug, fraction = y, ev.RestoredFraction
			augmented = true
		}

		bess := deg.BESS[y-1]
		if lastAug > 0 {
			bess = fraction * deg.BESS[y-lastAug] / deg.BESS[0]
		}

		effFactor := 1.0
		if len(deg.BESSEfficiency) > 0 {
			effFactor = deg.BESSEfficiency[y-1]
			if lastAug > 0 {
				effFactor = deg.BESSEfficiency[y-lastAug] / deg.BESSEfficiency[0]
			}
		}

		out[y-1] = YearFactors{
			Year:       y,
			PV:         deg.PV[y-1],
			BESS:       bess,
			Efficiency: effFactor,
			Augmented:  augmented,
		}
	}
	return out
}
