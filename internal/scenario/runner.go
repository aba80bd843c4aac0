package scenario

import (
	"context"
	"fmt"
	"io"
	"time"

	"pvbess-model/internal/analysis"
	"pvbess-model/internal/config"
	"pvbess-model/internal/data"
	"pvbess-model/internal/dispatch"
	"pvbess-model/internal/finance"
	"pvbess-model/internal/lifetime"
	"pvbess-model/internal/logging"
	"pvbess-model/internal/metrics"
	"pvbess-model/internal/model"
)

// Outcome is everything produced for one configuration.
type Outcome struct {
	Dispatch    *dispatch.Result           `json:"dispatch"`
	Yearly      []model.YearlyRecord       `json:"yearly,omitempty"`
	Lifetime    *lifetime.Summary          `json:"lifetime,omitempty"`
	Finance     *finance.Results           `json:"finance,omitempty"`
	Comparisons []analysis.FieldComparison `json:"comparisons,omitempty"`
	// MaxPercentError is the worst comparison, 0 when nothing was compared.
	MaxPercentError float64 `json:"max_percent_error"`
}

// Result pairs a scenario with its outcome or the error that stopped it.
type Result struct {
	Scenario Scenario `json:"scenario"`
	Outcome  *Outcome `json:"outcome,omitempty"`
	Err      error    `json:"-"`
}

// Passed reports whether the scenario ran and, when it has reference totals and a
// tolerance, stayed within it.
func (r Result) Passed() bool {
	if r.Err != nil || r.Outcome == nil {
		return false
	}
	if r.Scenario.TolerancePct <= 0 || len(r.Outcome.Comparisons) == 0 {
		return true
	}
	return r.Outcome.MaxPercentError <= r.Scenario.TolerancePct
}

type Runner struct {
	engine   *dispatch.Engine
	expander *lifetime.Expander
	recorder metrics.Recorder
	logger   logging.Logger
}

type Option func(*Runner)

func WithLogger(l logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Runner) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

func WithExpander(x *lifetime.Expander) Option {
	return func(r *Runner) {
		if x != nil {
			r.expander = x
		}
	}
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		recorder: metrics.NopRecorder{},
		logger:   logging.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.engine = dispatch.New(dispatch.WithLogger(r.logger))
	if r.expander == nil {
		r.expander = lifetime.New(lifetime.WithEngine(r.engine), lifetime.WithLogger(r.logger))
	}
	return r
}

// Evaluate runs year one, the lifetime expansion when a horizon is configured, and
// the finance model when a revenue rate is set; then compares the year-one totals
// against truth (if any). cfg must already be validated.
func (r *Runner) Evaluate(ctx context.Context, cfg *config.Config, timeline []model.HourlySample, truth map[string]float64) (*Outcome, error) {
	plant := cfg.Plant.ToModel()

	start := time.Now()
	res, err := r.engine.Run(timeline, plant)
	r.recorder.RecordRun(metrics.KindDispatch, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	r.recorder.RecordHours(len(res.Hourly))
	out := &Outcome{Dispatch: res}

	if cfg.HasLifetime() {
		start = time.Now()
		yearly, err := r.expander.Expand(ctx, timeline, plant,
			cfg.Lifetime.Degradation(), cfg.Lifetime.AugmentationSchedule(), cfg.Lifetime.HorizonYears)
		r.recorder.RecordRun(metrics.KindLifetime, err, time.Since(start))
		if err != nil {
			return nil, err
		}
		r.recorder.RecordHours(len(timeline) * len(yearly))
		summary := lifetime.Summarize(yearly)
		out.Yearly = yearly
		out.Lifetime = &summary

		if cfg.Finance.RevenuePerMWh > 0 {
			start = time.Now()
			fin, err := finance.Run(yearly, cfg.Finance.RevenuePerMWh, cfg.Finance.Config)
			r.recorder.RecordRun(metrics.KindFinance, err, time.Since(start))
			if err != nil {
				return nil, err
			}
			out.Finance = fin
		}
	}

	if len(truth) > 0 {
		out.Comparisons = analysis.CompareTotals(res.Totals.Map(), truth)
		out.MaxPercentError = analysis.MaxPercentError(out.Comparisons)
	}
	return out, nil
}

// Run evaluates each scenario against base. A scenario that overrides
// timeline.file loads its own timeline; the others share the given one.
// Failures are kept per scenario and do not stop the batch.
func (r *Runner) Run(ctx context.Context, base config.Config, timeline []model.HourlySample, scenarios []Scenario) ([]Result, error) {
	results := make([]Result, 0, len(scenarios))
	for _, sc := range scenarios {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		start := time.Now()
		out, err := r.runOne(ctx, base, timeline, sc)
		r.recorder.RecordRun(metrics.KindScenario, err, time.Since(start))
		if err != nil {
			r.logger.Warnf("scenario %s failed: %v", sc.Name, err)
		} else {
			r.logger.Debugw("scenario complete", map[string]any{
				"scenario":          sc.Name,
				"max_percent_error": out.MaxPercentError,
				"elapsed_ms":        time.Since(start).Milliseconds(),
			})
		}
		results = append(results, Result{Scenario: sc, Outcome: out, Err: err})
	}
	return results, nil
}

func (r *Runner) runOne(ctx context.Context, base config.Config, timeline []model.HourlySample, sc Scenario) (*Outcome, error) {
	cfg, err := Apply(base, sc.Overrides)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeline.File != "" && cfg.Timeline.File != base.Timeline.File {
		timeline, err = data.LoadTimeline(cfg.Timeline.File)
		if err != nil {
			return nil, fmt.Errorf("scenario timeline: %w", err)
		}
	}
	return r.Evaluate(ctx, &cfg, timeline, sc.TruthTotals)
}

// PrintSummary writes one line per scenario.
func PrintSummary(w io.Writer, results []Result) {
	fmt.Fprintln(w, "=== Scenario Summary ===")
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(w, "- %s: error: %v\n", r.Scenario.Name, r.Err)
		case len(r.Outcome.Comparisons) == 0:
			fmt.Fprintf(w, "- %s: solar %.1f MWh, discharge %.1f MWh (no reference)\n",
				r.Scenario.Name, r.Outcome.Dispatch.Totals.SolarGenMWh, r.Outcome.Dispatch.Totals.DischargeMWh)
		default:
			status := "pass"
			if !r.Passed() {
				status = "FAIL"
			}
			fmt.Fprintf(w, "- %s: max error %.2f%% (%s)\n", r.Scenario.Name, r.Outcome.MaxPercentError, status)
		}
	}
}
