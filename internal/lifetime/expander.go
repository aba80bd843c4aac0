package lifetime

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"pvbess-model/internal/dispatch"
	"pvbess-model/internal/logging"
	"pvbess-model/internal/model"
)

// Expander re-runs the dispatch engine for every project year.
type Expander struct {
	engine      *dispatch.Engine
	logger      logging.Logger
	concurrency int
}

type Option func(*Expander)

func WithEngine(e *dispatch.Engine) Option {
	return func(x *Expander) {
		if e != nil {
			x.engine = e
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(x *Expander) {
		if l != nil {
			x.logger = l
		}
	}
}

// WithConcurrency bounds the number of years simulated at once. n <= 0 means NumCPU.
func WithConcurrency(n int) Option {
	return func(x *Expander) {
		x.concurrency = n
	}
}

func New(opts ...Option) *Expander {
	x := &Expander{
		engine: dispatch.New(),
		logger: logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.concurrency <= 0 {
		x.concurrency = runtime.NumCPU()
	}
	return x
}

// Expand simulates years 1..horizonYears. Year y scales hourly solar by PV[y] and the
// BESS energy terms by the effective BESS factor; each year starts from the configured
// initial SOC. Records come back ordered by year with no gaps.
func (x *Expander) Expand(
	ctx context.Context,
	timeline []model.HourlySample,
	plant model.PlantConfig,
	deg model.DegradationSchedule,
	aug model.AugmentationSchedule,
	horizonYears int,
) ([]model.YearlyRecord, error) {
	if err := deg.Validate(horizonYears); err != nil {
		return nil, err
	}
	if err := aug.Validate(horizonYears); err != nil {
		return nil, err
	}
	if err := plant.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateTimeline(timeline, plant.StepHours); err != nil {
		return nil, err
	}

	factors := Factors(deg, aug, horizonYears)
	for _, f := range factors {
		if eff := plant.BESSEfficiency * f.Efficiency; eff > 1 {
			return nil, model.ConfigErrorAt("degradation.bess_efficiency", f.Year-1,
				"year %d efficiency %.4f exceeds 1", f.Year, eff)
		}
	}
	records := make([]model.YearlyRecord, horizonYears)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.concurrency)

	for _, f := range factors {
		if gctx.Err() != nil {
			break
		}
		f := f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := x.runYear(timeline, plant, f)
			if err != nil {
				return err
			}
			records[f.Year-1] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("lifetime expansion cancelled: %w", err)
	}

	x.logger.Infof("lifetime expansion complete: %d years", horizonYears)
	return records, nil
}

func (x *Expander) runYear(timeline []model.HourlySample, plant model.PlantConfig, f YearFactors) (model.YearlyRecord, error) {
	scaled := ScaleSolar(timeline, f.PV)
	yearPlant := plant.Degraded(f.BESS, f.Efficiency)

	res, err := x.engine.RunYear(f.Year, scaled, yearPlant)
	if err != nil {
		return model.YearlyRecord{}, fmt.Errorf("year %d: %w", f.Year, err)
	}

	x.logger.Debugw("lifetime year simulated", map[string]any{
		"year":          f.Year,
		"pv_factor":     f.PV,
		"bess_factor":   f.BESS,
		"augmented":     f.Augmented,
		"solar_mwh":     res.Totals.SolarGenMWh,
		"discharge_mwh": res.Totals.DischargeMWh,
	})

	return model.YearlyRecord{
		Year:            f.Year,
		PVFactor:        f.PV,
		BESSFactor:      f.BESS,
		BESSCapacityKWh: yearPlant.BESSCapacityKWh,
		BESSEfficiency:  yearPlant.BESSEfficiency,
		Augmented:       f.Augmented,
		Totals:          res.Totals,
	}, nil
}

// ScaleSolar returns a copy of timeline with SolarKW multiplied by factor.
func ScaleSolar(timeline []model.HourlySample, factor float64) []model.HourlySample {
	out := make([]model.HourlySample, len(timeline))
	copy(out, timeline)
	if factor == 1 {
		return out
	}
	for i := range out {
		out[i].SolarKW *= factor
	}
	return out
}
