package strategy

import (
	"pvbess-model/internal/model"
)

var periods = []model.TariffPeriod{model.PeriodPeak, model.PeriodNormal, model.PeriodOffPeak}

type unrestricted struct{}

func (unrestricted) Name() string { return "unrestricted" }

func (unrestricted) AllowDischarge(model.HourlySample) bool { return true }

// periodSet permits discharge in a fixed set of tariff periods.
type periodSet struct {
	name    string
	allowed map[model.TariffPeriod]bool
}

func (p periodSet) Name() string { return p.name }

func (p periodSet) AllowDischarge(s model.HourlySample) bool { return p.allowed[s.Period] }

func weightRange(plant model.PlantConfig) (lo, hi float64) {
	lo, hi = plant.Weight(periods[0]), plant.Weight(periods[0])
	for _, period := range periods[1:] {
		w := plant.Weight(period)
		lo = min(lo, w)
		hi = max(hi, w)
	}
	return lo, hi
}

func newTopTier(plant model.PlantConfig) (Policy, error) {
	_, hi := weightRange(plant)
	allowed := map[model.TariffPeriod]bool{}
	for _, period := range periods {
		if plant.Weight(period) == hi {
			allowed[period] = true
		}
	}
	return periodSet{name: "top-tier", allowed: allowed}, nil
}

func newSkipCheapest(plant model.PlantConfig) (Policy, error) {
	lo, hi := weightRange(plant)
	if lo == hi {
		// No ranking signal: nothing is cheaper than anything else.
		return unrestricted{}, nil
	}
	allowed := map[model.TariffPeriod]bool{}
	for _, period := range periods {
		if plant.Weight(period) > lo {
			allowed[period] = true
		}
	}
	return periodSet{name: "skip-cheapest", allowed: allowed}, nil
}
