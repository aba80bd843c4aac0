package analysis

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"pvbess-model/internal/dispatch"
	"pvbess-model/internal/model"
)

// LedgerProfile is a year-level summary of one hourly ledger. It complements the
// energy totals with SOC statistics and how the hours split between actions.
type LedgerProfile struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int       `json:"count"`

	MinSOCKWh  float64 `json:"min_soc_kwh"`
	MaxSOCKWh  float64 `json:"max_soc_kwh"`
	MeanSOCKWh float64 `json:"mean_soc_kwh"`
	P05SOCKWh  float64 `json:"p05_soc_kwh"`
	P95SOCKWh  float64 `json:"p95_soc_kwh"`

	HoursCharging    int `json:"hours_charging"`
	HoursDischarging int `json:"hours_discharging"`
	HoursIdle        int `json:"hours_idle"`
	// HoursDenied counts hours with unmet load where discharge was not permitted.
	HoursDenied int `json:"hours_denied"`

	// SelfConsumptionPct is the share of solar used on site (directly or via the battery).
	SelfConsumptionPct float64 `json:"self_consumption_pct"`
	// SelfSufficiencyPct is the share of load not drawn from the grid.
	SelfSufficiencyPct float64 `json:"self_sufficiency_pct"`
}

func ComputeProfile(hourly []dispatch.HourlyResult, totals model.Totals) LedgerProfile {
	p := LedgerProfile{}
	if len(hourly) == 0 {
		return p
	}
	p.Count = len(hourly)
	p.Start = hourly[0].Timestamp
	p.End = hourly[len(hourly)-1].Timestamp

	soc := make([]float64, 0, len(hourly))
	for _, h := range hourly {
		soc = append(soc, h.SOCKWh)
		switch h.Action {
		case model.ActionCharging:
			p.HoursCharging++
		case model.ActionDischarging:
			p.HoursDischarging++
		default:
			p.HoursIdle++
		}
		if h.ResidualLoadKW > 0 && !h.DischargePermitted {
			p.HoursDenied++
		}
	}

	p.MinSOCKWh = floats.Min(soc)
	p.MaxSOCKWh = floats.Max(soc)
	p.MeanSOCKWh = stat.Mean(soc, nil)
	sort.Float64s(soc)
	p.P05SOCKWh = stat.Quantile(0.05, stat.LinInterp, soc, nil)
	p.P95SOCKWh = stat.Quantile(0.95, stat.LinInterp, soc, nil)

	if totals.SolarGenMWh > 0 {
		p.SelfConsumptionPct = (totals.DirectConsumptionMWh + totals.ChargeMWh) / totals.SolarGenMWh * 100
	}
	if totals.LoadMWh > 0 {
		p.SelfSufficiencyPct = (totals.DirectConsumptionMWh + totals.DischargeMWh) / totals.LoadMWh * 100
	}
	return p
}
