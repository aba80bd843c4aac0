package dispatch

import (
	"fmt"
	"math"

	"pvbess-model/internal/logging"
	"pvbess-model/internal/model"
	"pvbess-model/internal/strategy"
)

// relTolerance bounds floating-point drift accepted by the per-hour invariant checks.
const relTolerance = 1e-9

type Engine struct {
	logger logging.Logger
}

type Option func(*Engine)

// WithLogger sets the logger used for run summaries.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{logger: logging.NopLogger{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run simulates one year over the ordered hourly timeline. The engine holds no
// state between runs; SOC starts at plant.InitialSOCKWh every time.
func (e *Engine) Run(timeline []model.HourlySample, plant model.PlantConfig) (*Result, error) {
	return e.RunYear(0, timeline, plant)
}

// RunYear is Run with a year label carried into consistency errors (0 = not part of a lifetime).
func (e *Engine) RunYear(year int, timeline []model.HourlySample, plant model.PlantConfig) (*Result, error) {
	if err := plant.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateTimeline(timeline, plant.StepHours); err != nil {
		return nil, err
	}
	policy, err := strategy.Compile(plant)
	if err != nil {
		return nil, err
	}

	sim := simulator{
		plant:  plant,
		policy: policy,
		year:   year,
		state:  model.BatteryState{SOCKWh: plant.InitialSOCKWh},
	}
	hourly := make([]HourlyResult, 0, len(timeline))
	var totals totalsFolder

	for idx, s := range timeline {
		row, err := sim.step(idx, s)
		if err != nil {
			return nil, err
		}
		totals.add(row, plant.StepHours, plant.BESSEfficiency)
		hourly = append(hourly, row)
	}

	res := &Result{
		Hourly:      hourly,
		Totals:      totals.finish(sim.state.SOCKWh, plant.BESSCapacityKWh),
		FinalSOCKWh: sim.state.SOCKWh,
	}
	e.logger.Debugw("dispatch run complete", map[string]any{
		"year":          year,
		"hours":         res.Totals.Hours,
		"policy":        policy.Name(),
		"solar_mwh":     res.Totals.SolarGenMWh,
		"discharge_mwh": res.Totals.DischargeMWh,
		"final_soc_kwh": res.FinalSOCKWh,
	})
	return res, nil
}

// simulator carries the single mutable scalar of a run.
type simulator struct {
	plant  model.PlantConfig
	policy strategy.Policy
	year   int
	state  model.BatteryState
}

func (s *simulator) step(idx int, in model.HourlySample) (HourlyResult, error) {
	p := s.plant
	dt := p.StepHours
	eff := p.BESSEfficiency
	powerLimitKWh := p.BESSPowerKW * dt

	direct := math.Min(in.SolarKW, in.LoadKW)
	residual := math.Max(in.LoadKW-in.SolarKW, 0)
	surplus := math.Max(in.SolarKW-in.LoadKW, 0)

	socStart := s.state.SOCKWh
	var chargeKWh, dischargeKWh float64

	exportKWh := surplus * dt
	if surplus > 0 && p.BESSCapacityKWh > 0 {
		headroomKWh := (p.BESSCapacityKWh - s.state.SOCKWh) / eff
		chargeKWh = math.Max(math.Min(surplus*dt, math.Min(powerLimitKWh, headroomKWh)), 0)
		s.state.SOCKWh += chargeKWh * eff
		exportKWh = surplus*dt - chargeKWh
	}

	permitted := s.policy.AllowDischarge(in)
	importKWh := residual * dt
	if residual > 0 && permitted {
		availableKWh := math.Max(s.state.SOCKWh-p.MinSOCKWh, 0) * eff
		dischargeKWh = math.Min(residual*dt, math.Min(availableKWh, powerLimitKWh))
		s.state.SOCKWh -= dischargeKWh / eff
		importKWh = residual*dt - dischargeKWh
	}

	if err := s.guardSOC(idx); err != nil {
		return HourlyResult{}, err
	}

	row := HourlyResult{
		Index:                 idx,
		Timestamp:             in.Timestamp,
		Period:                in.Period,
		Action:                model.ActionFromEnergy(chargeKWh, dischargeKWh),
		SolarKW:               in.SolarKW,
		LoadKW:                in.LoadKW,
		DirectPVConsumptionKW: direct,
		PowerSurplusKW:        surplus,
		ResidualLoadKW:        residual,
		DischargePermitted:    permitted,
		ChargeEnergyKWh:       chargeKWh,
		DischargeEnergyKWh:    dischargeKWh,
		SOCStartKWh:           socStart,
		SOCKWh:                s.state.SOCKWh,
		GridImportKW:          importKWh / dt,
		GridExportKW:          exportKWh / dt,
	}
	if err := s.checkConservation(row); err != nil {
		return HourlyResult{}, err
	}
	return row, nil
}

// guardSOC clamps floating-point drift back into [min, capacity] and fails on
// anything larger, which can only come from a logic defect.
func (s *simulator) guardSOC(idx int) error {
	p := s.plant
	soc := s.state.SOCKWh
	tol := relTolerance * math.Max(p.BESSCapacityKWh, 1)
	if math.IsNaN(soc) || soc < p.MinSOCKWh-tol || soc > p.BESSCapacityKWh+tol {
		return &model.InternalConsistencyError{
			Year:      s.year,
			Hour:      idx,
			Invariant: "soc_range",
			Detail:    fmt.Sprintf("soc %.12g kWh outside [%g, %g]", soc, p.MinSOCKWh, p.BESSCapacityKWh),
		}
	}
	s.state.SOCKWh = math.Min(math.Max(soc, p.MinSOCKWh), p.BESSCapacityKWh)
	return nil
}

func (s *simulator) checkConservation(r HourlyResult) error {
	dt := s.plant.StepHours
	checks := []struct {
		name     string
		lhs, rhs float64
	}{
		{"load_balance", r.LoadKW * dt, r.DirectPVConsumptionKW*dt + r.DischargeEnergyKWh + r.GridImportKW*dt},
		{"solar_balance", r.SolarKW * dt, r.DirectPVConsumptionKW*dt + r.ChargeEnergyKWh + r.GridExportKW*dt},
	}
	for _, c := range checks {
		if math.Abs(c.lhs-c.rhs) > relTolerance*math.Max(math.Abs(c.lhs), 1) {
			return &model.InternalConsistencyError{
				Year:      s.year,
				Hour:      r.Index,
				Invariant: c.name,
				Detail:    fmt.Sprintf("%.12g kWh != %.12g kWh", c.lhs, c.rhs),
			}
		}
	}
	return nil
}
