package model

import "math"

// DegradationSchedule holds per-year multiplicative factors, index 0 = year 1.
// BESSEfficiency is optional; when empty the efficiency is not degraded.
type DegradationSchedule struct {
	PV             []float64 `json:"pv" yaml:"pv"`
	BESS           []float64 `json:"bess" yaml:"bess"`
	BESSEfficiency []float64 `json:"bess_efficiency,omitempty" yaml:"bess_efficiency"`
}

// Validate requires every series to cover horizonYears with positive finite factors.
func (d DegradationSchedule) Validate(horizonYears int) error {
	if horizonYears <= 0 {
		return ConfigErrorf("horizon_years", "must be > 0")
	}
	series := []struct {
		field    string
		values   []float64
		optional bool
	}{
		{"degradation.pv", d.PV, false},
		{"degradation.bess", d.BESS, false},
		{"degradation.bess_efficiency", d.BESSEfficiency, true},
	}
	for _, s := range series {
		if s.optional && len(s.values) == 0 {
			continue
		}
		if len(s.values) < horizonYears {
			return ConfigErrorf(s.field, "covers %d years, horizon is %d", len(s.values), horizonYears)
		}
		for i, v := range s.values[:horizonYears] {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return ConfigErrorAt(s.field, i, "factor must be finite and > 0, got %v", v)
			}
		}
	}
	return nil
}

// AugmentationEvent restores BESS capacity at the start of Year.
type AugmentationEvent struct {
	Year             int     `json:"year" yaml:"year"`
	RestoredFraction float64 `json:"restored_fraction" yaml:"restored_fraction"`
}

// AugmentationSchedule is the externally supplied set of augmentation events.
type AugmentationSchedule []AugmentationEvent

// Validate checks that events fall inside the horizon, are unique per year and
// restore a fraction in (0, 1].
func (a AugmentationSchedule) Validate(horizonYears int) error {
	seen := make(map[int]bool, len(a))
	for i, ev := range a {
		if ev.Year < 1 || ev.Year > horizonYears {
			return ConfigErrorAt("augmentation.year", i, "year %d outside 1..%d", ev.Year, horizonYears)
		}
		if seen[ev.Year] {
			return ConfigErrorAt("augmentation.year", i, "duplicate augmentation in year %d", ev.Year)
		}
		seen[ev.Year] = true
		if math.IsNaN(ev.RestoredFraction) || ev.RestoredFraction <= 0 || ev.RestoredFraction > 1 {
			return ConfigErrorAt("augmentation.restored_fraction", i, "must be in (0, 1], got %v", ev.RestoredFraction)
		}
	}
	return nil
}

// EventFor returns the event scheduled for year, if any.
func (a AugmentationSchedule) EventFor(year int) (AugmentationEvent, bool) {
	for _, ev := range a {
		if ev.Year == year {
			return ev, true
		}
	}
	return AugmentationEvent{}, false
}

// Totals are the yearly aggregates of one simulated year.
// Energy totals are MWh; FinalSOCKWh is kWh.
type Totals struct {
	Hours                int     `json:"hours"`
	SolarGenMWh          float64 `json:"solar_gen_mwh"`
	LoadMWh              float64 `json:"load_mwh"`
	DirectConsumptionMWh float64 `json:"direct_consumption_mwh"`
	SurplusMWh           float64 `json:"surplus_mwh"`
	ChargeMWh            float64 `json:"charge_mwh"`
	DischargeMWh         float64 `json:"discharge_mwh"`
	GridImportMWh        float64 `json:"grid_import_mwh"`
	GridExportMWh        float64 `json:"grid_export_mwh"`
	BatteryLossMWh       float64 `json:"battery_loss_mwh"`
	EquivalentCycles     float64 `json:"equivalent_cycles"`
	FinalSOCKWh          float64 `json:"final_soc_kwh"`
}

// Map flattens the totals into named fields for comparison against truth values.
func (t Totals) Map() map[string]float64 {
	return map[string]float64{
		"solar_gen_mwh":          t.SolarGenMWh,
		"load_mwh":               t.LoadMWh,
		"direct_consumption_mwh": t.DirectConsumptionMWh,
		"surplus_mwh":            t.SurplusMWh,
		"charge_mwh":             t.ChargeMWh,
		"discharge_mwh":          t.DischargeMWh,
		"grid_import_mwh":        t.GridImportMWh,
		"grid_export_mwh":        t.GridExportMWh,
		"battery_loss_mwh":       t.BatteryLossMWh,
		"equivalent_cycles":      t.EquivalentCycles,
		"final_soc_kwh":          t.FinalSOCKWh,
	}
}

// YearlyRecord is one row of the lifetime energy table.
type YearlyRecord struct {
	Year            int     `json:"year"`
	PVFactor        float64 `json:"pv_factor"`
	BESSFactor      float64 `json:"bess_factor"`
	BESSCapacityKWh float64 `json:"bess_capacity_kwh"`
	BESSEfficiency  float64 `json:"bess_efficiency"`
	Augmented       bool    `json:"augmented"`
	Totals
}
