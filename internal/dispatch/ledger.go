package dispatch

import (
	"time"

	"pvbess-model/internal/model"
)

// HourlyResult is one row of per-hour output.
// This is the primary artifact for "what happened" in a simulated year.
// Power fields are kW averaged over the step; energy fields are kWh per step.
type HourlyResult struct {
	Index     int                `json:"index"`
	Timestamp time.Time          `json:"timestamp"`
	Period    model.TariffPeriod `json:"period"`

	Action model.Action `json:"action"`

	SolarKW float64 `json:"solar_kw"`
	LoadKW  float64 `json:"load_kw"`

	DirectPVConsumptionKW float64 `json:"direct_pv_consumption_kw"`
	PowerSurplusKW        float64 `json:"power_surplus_kw"`
	ResidualLoadKW        float64 `json:"residual_load_kw"`

	DischargePermitted bool `json:"discharge_permitted"`

	ChargeEnergyKWh    float64 `json:"charge_energy_kwh"`
	DischargeEnergyKWh float64 `json:"discharge_energy_kwh"`

	SOCStartKWh float64 `json:"soc_start_kwh"`
	SOCKWh      float64 `json:"soc_kwh"`

	GridImportKW float64 `json:"grid_import_kw"`
	GridExportKW float64 `json:"grid_export_kw"`
}

// Result is the output of one simulated year.
type Result struct {
	Hourly      []HourlyResult `json:"hourly"`
	Totals      model.Totals   `json:"totals"`
	FinalSOCKWh float64        `json:"final_soc_kwh"`
}

// totalsFolder accumulates yearly aggregates hour by hour.
type totalsFolder struct {
	t model.Totals
}

func (f *totalsFolder) add(r HourlyResult, stepHours, efficiency float64) {
	const kWhPerMWh = 1000.0
	f.t.Hours++
	f.t.SolarGenMWh += r.SolarKW * stepHours / kWhPerMWh
	f.t.LoadMWh += r.LoadKW * stepHours / kWhPerMWh
	f.t.DirectConsumptionMWh += r.DirectPVConsumptionKW * stepHours / kWhPerMWh
	f.t.SurplusMWh += r.PowerSurplusKW * stepHours / kWhPerMWh
	f.t.ChargeMWh += r.ChargeEnergyKWh / kWhPerMWh
	f.t.DischargeMWh += r.DischargeEnergyKWh / kWhPerMWh
	f.t.GridImportMWh += r.GridImportKW * stepHours / kWhPerMWh
	f.t.GridExportMWh += r.GridExportKW * stepHours / kWhPerMWh
	f.t.BatteryLossMWh += (r.ChargeEnergyKWh*(1-efficiency) + r.DischargeEnergyKWh*(1/efficiency-1)) / kWhPerMWh
}

func (f *totalsFolder) finish(finalSOC, capacityKWh float64) model.Totals {
	f.t.FinalSOCKWh = finalSOC
	if capacityKWh > 0 {
		f.t.EquivalentCycles = f.t.DischargeMWh * 1000 / capacityKWh
	}
	return f.t
}
