package model

import (
	"math"
)

// StrategyMode selects a dispatch policy variant from the strategy table.
type StrategyMode int

// DischargeWindow is a daily HH:MM window, used only by the window strategy.
// An empty Start disables it.
type DischargeWindow struct {
	Start string `json:"start,omitempty" yaml:"start"`
	End   string `json:"end,omitempty" yaml:"end"`
}

// PlantConfig defines the static parameters of the plant and its single BESS unit.
// Units:
// - StepHours: hours represented by one sample
// - BESSCapacityKWh, MinSOCKWh, InitialSOCKWh: kWh
// - BESSPowerKW: kW, applies to both charge and discharge
// - BESSEfficiency: one-way, 0..1 (round trip = efficiency^2)
// - CAPeak/CANormal/CAOffPeak: per-period weights used to rank tariff periods
type PlantConfig struct {
	StepHours       float64
	BESSCapacityKWh float64
	BESSPowerKW     float64
	BESSEfficiency  float64
	MinSOCKWh       float64
	InitialSOCKWh   float64

	CAPeak    float64
	CANormal  float64
	CAOffPeak float64

	StrategyMode    StrategyMode
	DischargeWindow DischargeWindow
}

// Validate checks the physical parameters. The strategy mode itself is checked
// when the policy is compiled.
func (p PlantConfig) Validate() error {
	finite := map[string]float64{
		"step_hours":        p.StepHours,
		"bess_capacity_kwh": p.BESSCapacityKWh,
		"bess_power_kw":     p.BESSPowerKW,
		"bess_efficiency":   p.BESSEfficiency,
		"min_soc_kwh":       p.MinSOCKWh,
		"initial_soc_kwh":   p.InitialSOCKWh,
		"ca_peak":           p.CAPeak,
		"ca_normal":         p.CANormal,
		"ca_offpeak":        p.CAOffPeak,
	}
	for field, v := range finite {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ConfigErrorf(field, "must be finite, got %v", v)
		}
	}
	if p.StepHours <= 0 {
		return ConfigErrorf("step_hours", "must be > 0")
	}
	if p.BESSCapacityKWh < 0 {
		return ConfigErrorf("bess_capacity_kwh", "must be >= 0")
	}
	if p.BESSPowerKW < 0 {
		return ConfigErrorf("bess_power_kw", "must be >= 0")
	}
	if p.BESSEfficiency <= 0 || p.BESSEfficiency > 1 {
		return ConfigErrorf("bess_efficiency", "must be in (0, 1]")
	}
	if p.MinSOCKWh < 0 || p.MinSOCKWh > p.BESSCapacityKWh {
		return ConfigErrorf("min_soc_kwh", "must satisfy 0 <= min_soc_kwh <= bess_capacity_kwh")
	}
	if p.InitialSOCKWh < p.MinSOCKWh || p.InitialSOCKWh > p.BESSCapacityKWh {
		return ConfigErrorf("initial_soc_kwh", "must be within [min_soc_kwh, bess_capacity_kwh]")
	}
	if p.StrategyMode < 0 {
		return ConfigErrorf("strategy_mode", "must be >= 0")
	}
	return nil
}

// RoundTripEfficiency is the fraction retrievable after one full cycle.
func (p PlantConfig) RoundTripEfficiency() float64 {
	return p.BESSEfficiency * p.BESSEfficiency
}

// Weight returns the configured ranking weight for a tariff period.
func (p PlantConfig) Weight(period TariffPeriod) float64 {
	switch period {
	case PeriodPeak:
		return p.CAPeak
	case PeriodOffPeak:
		return p.CAOffPeak
	default:
		return p.CANormal
	}
}

// Degraded returns a copy whose energy terms are scaled by capacityFactor and whose
// efficiency is scaled by efficiencyFactor. Power rating is left untouched; the
// result is not validated.
func (p PlantConfig) Degraded(capacityFactor, efficiencyFactor float64) PlantConfig {
	out := p
	out.BESSCapacityKWh = p.BESSCapacityKWh * capacityFactor
	out.MinSOCKWh = p.MinSOCKWh * capacityFactor
	out.InitialSOCKWh = p.InitialSOCKWh * capacityFactor
	out.BESSEfficiency = p.BESSEfficiency * efficiencyFactor
	return out
}

// BatteryState captures the mutable state of one simulation run.
type BatteryState struct {
	SOCKWh float64
}
