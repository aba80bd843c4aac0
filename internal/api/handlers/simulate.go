package handlers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"pvbess-model/internal/analysis"
	"pvbess-model/internal/api/middleware"
	"pvbess-model/internal/api/models"
	"pvbess-model/internal/config"
	"pvbess-model/internal/data"
	"pvbess-model/internal/logging"
	"pvbess-model/internal/model"
	"pvbess-model/internal/scenario"
	"pvbess-model/internal/store"
)

// Deps are the shared services handlers need.
type Deps struct {
	Plants      *PlantHandler
	Store       store.Store
	Timelines   *data.TimelineCache
	TimelineDir string
	Runner      *scenario.Runner
	Logger      logging.Logger
}

// SimulateHandler handles simulation requests
type SimulateHandler struct {
	plants      *PlantHandler
	store       store.Store
	timelines   *data.TimelineCache
	timelineDir string
	runner      *scenario.Runner
	logger      logging.Logger
}

func NewSimulateHandler(d Deps) *SimulateHandler {
	h := &SimulateHandler{
		plants:      d.Plants,
		store:       d.Store,
		timelines:   d.Timelines,
		timelineDir: d.TimelineDir,
		runner:      d.Runner,
		logger:      d.Logger,
	}
	if h.logger == nil {
		h.logger = logging.NopLogger{}
	}
	if h.runner == nil {
		h.runner = scenario.NewRunner(scenario.WithLogger(h.logger))
	}
	if h.plants == nil {
		h.plants = NewPlantHandler(DefaultPlantDir(), h.logger)
	}
	return h
}

// Overrides on these keys would point the server at arbitrary files.
var lockedOverridePrefixes = []string{"timeline", "plant_file", "logging"}

// RunSimulation handles POST /api/v1/simulate
func (h *SimulateHandler) RunSimulation(c *gin.Context) {
	req := models.NewSimulateRequest()
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	timeline, err := h.loadTimeline(req.Timeline)
	if err != nil {
		abort(c, err)
		return
	}
	if req.Options.LimitHours > 0 && req.Options.LimitHours < len(timeline) {
		timeline = timeline[:req.Options.LimitHours]
	}

	cfg, err := h.buildConfig(req.SimulateConfig)
	if err != nil {
		abort(c, err)
		return
	}

	out, err := h.runner.Evaluate(c.Request.Context(), cfg, timeline, nil)
	if err != nil {
		abort(c, err)
		return
	}

	name := req.Name
	if name == "" {
		name = cfg.Plant.Name
	}
	run := &store.Run{
		Name:      name,
		StepHours: cfg.Plant.StepHours,
		Hourly:    out.Dispatch.Hourly,
		Totals:    out.Dispatch.Totals,
		Yearly:    out.Yearly,
	}
	id, err := h.store.Save(c.Request.Context(), run)
	if err != nil {
		abort(c, err)
		return
	}

	resp := models.SimulateResponse{
		ID:       id,
		Status:   "completed",
		Summary:  buildSummary(out),
		Lifetime: out.Lifetime,
		Finance:  models.NewFinanceSummary(out.Finance),
	}
	if req.Options.IncludeLedger {
		resp.Ledger = out.Dispatch.Hourly
	}
	if req.Options.IncludeYearly {
		resp.Yearly = out.Yearly
	}
	h.logger.Debugw("simulation complete", map[string]any{"id": id, "hours": len(timeline), "years": len(out.Yearly)})
	c.JSON(http.StatusOK, resp)
}

// CompareSimulations handles POST /api/v1/simulate/compare
func (h *SimulateHandler) CompareSimulations(c *gin.Context) {
	req := models.NewCompareRequest()
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	scenarios := make([]scenario.Scenario, 0, len(req.Variations))
	for _, v := range req.Variations {
		for path := range v.Overrides {
			if lockedOverride(path) {
				abort(c, model.ConfigErrorf(path, "cannot be overridden in variation %q", v.Name))
				return
			}
		}
		scenarios = append(scenarios, scenario.Scenario{Name: v.Name, Overrides: v.Overrides, TruthTotals: req.TruthTotals})
	}

	timeline, err := h.loadTimeline(req.Timeline)
	if err != nil {
		abort(c, err)
		return
	}
	base, err := h.buildConfig(req.BaseConfig)
	if err != nil {
		abort(c, err)
		return
	}

	results, err := h.runner.Run(c.Request.Context(), *base, timeline, scenarios)
	if err != nil {
		abort(c, err)
		return
	}

	comparison := make([]models.ComparisonResult, 0, len(results))
	for _, r := range results {
		row := models.ComparisonResult{Name: r.Scenario.Name}
		if r.Err != nil {
			_, detail := middleware.Classify(r.Err)
			row.Error = &detail
		} else {
			totals := r.Outcome.Dispatch.Totals
			row.Totals = &totals
			row.Lifetime = r.Outcome.Lifetime
			row.Finance = models.NewFinanceSummary(r.Outcome.Finance)
			row.Comparisons = r.Outcome.Comparisons
			row.MaxPercentError = r.Outcome.MaxPercentError
		}
		comparison = append(comparison, row)
	}
	c.JSON(http.StatusOK, models.CompareResponse{Comparison: comparison})
}

// Helper methods

// buildConfig resolves the plant preset, fills defaults and validates.
func (h *SimulateHandler) buildConfig(req models.SimulateConfig) (*config.Config, error) {
	plant, err := h.plants.Resolve(req.PlantFile, req.Plant)
	if err != nil {
		return nil, err
	}
	cfg := config.Default()
	cfg.PlantFile = req.PlantFile
	cfg.Plant = plant
	cfg.Lifetime = req.Lifetime
	cfg.Finance = req.Finance
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (h *SimulateHandler) loadTimeline(in models.TimelineInput) ([]model.HourlySample, error) {
	switch {
	case in.Preset != "":
		path, err := h.presetPath(in.Preset)
		if err != nil {
			return nil, err
		}
		tl, err := h.timelines.Load(path)
		if err != nil {
			return nil, asConfigError("timeline.preset", err)
		}
		return tl, nil
	case len(in.Data) > 0:
		tl, err := data.DecodeTimelineJSON(in.Data)
		if err != nil {
			return nil, asConfigError("timeline.data", err)
		}
		return tl, nil
	default:
		return nil, model.ConfigErrorf("timeline", "either preset or data is required")
	}
}

// presetPath finds a timeline file by base name, with or without extension.
func (h *SimulateHandler) presetPath(preset string) (string, error) {
	name := filepath.Base(preset)
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = []string{name + ".csv", name + ".json"}
	}
	for _, cand := range candidates {
		path := filepath.Join(h.timelineDir, cand)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", model.ConfigErrorf("timeline.preset", "unknown timeline %q", preset)
}

func buildSummary(out *scenario.Outcome) models.SimulateSummary {
	hourly := out.Dispatch.Hourly
	s := models.SimulateSummary{
		TotalHours: len(hourly),
		Totals:     out.Dispatch.Totals,
	}
	if len(hourly) > 0 {
		s.Window = models.TimeWindow{Start: hourly[0].Timestamp, End: hourly[len(hourly)-1].Timestamp}
	}
	s.Profile = analysis.ComputeProfile(hourly, out.Dispatch.Totals)
	return s
}

func lockedOverride(path string) bool {
	for _, p := range lockedOverridePrefixes {
		if path == p || strings.HasPrefix(path, p+".") {
			return true
		}
	}
	return false
}

func asConfigError(field string, err error) error {
	if model.IsConfigurationError(err) {
		return err
	}
	if errors.Is(err, os.ErrNotExist) {
		return model.ConfigErrorf(field, "not found")
	}
	return model.ConfigErrorf(field, "%v", err)
}

func invalidRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: err.Error(),
		},
	})
}

// abort hands err to the Errors middleware.
func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
