package models

import (
	"encoding/json"

	"pvbess-model/internal/config"
	"pvbess-model/internal/finance"
	"pvbess-model/internal/model"
)

// SimulateRequest represents the request body for running a simulation
type SimulateRequest struct {
	Name string `json:"name,omitempty"`
	SimulateConfig
	Timeline TimelineInput   `json:"timeline"`
	Options  SimulateOptions `json:"options,omitempty"`
}

// SimulateConfig contains plant, lifetime and finance configuration.
type SimulateConfig struct {
	// PlantFile names a preset in PLANT_DIR (without .yaml); Plant fields override it.
	PlantFile string                `json:"plant_file,omitempty"`
	Plant     config.PlantConfig    `json:"plant"`
	Lifetime  config.LifetimeConfig `json:"lifetime,omitempty"`
	Finance   config.FinanceConfig  `json:"finance,omitempty"`
}

// TimelineInput is either inline rows or the name of a timeline file in TIMELINE_DIR.
type TimelineInput struct {
	Preset string `json:"preset,omitempty"`
	// Data holds the rows in the timeline JSON format (bare array or {"data": [...]}).
	Data json.RawMessage `json:"data,omitempty"`
}

// SimulateOptions contains optional simulation parameters
type SimulateOptions struct {
	LimitHours    int  `json:"limit_hours,omitempty"`    // 0 = all
	IncludeLedger bool `json:"include_ledger,omitempty"` // default: false
	IncludeYearly bool `json:"include_yearly,omitempty"`
}

// CompareRequest represents a request to compare variations of one base configuration
type CompareRequest struct {
	Timeline    TimelineInput      `json:"timeline"`
	BaseConfig  SimulateConfig     `json:"base_config"`
	Variations  []Variation        `json:"variations" binding:"required,min=1,dive"`
	TruthTotals map[string]float64 `json:"truth_totals,omitempty"`
}

// Variation overrides base config keys by dotted path, e.g. "plant.bess_capacity_kwh".
type Variation struct {
	Name      string         `json:"name" binding:"required"`
	Overrides map[string]any `json:"overrides"`
}

// FinanceRequest runs the finance model on a yearly energy table.
type FinanceRequest struct {
	Yearly        []model.YearlyRecord `json:"yearly" binding:"required,min=1"`
	RevenuePerMWh float64              `json:"revenue_per_mwh"`
	Config        finance.Config       `json:"config"`
}

// NewSimulateConfig returns a config pre-filled with defaults; request JSON is
// decoded on top of it.
func NewSimulateConfig() SimulateConfig {
	return SimulateConfig{Finance: config.Default().Finance}
}

func NewSimulateRequest() SimulateRequest {
	return SimulateRequest{SimulateConfig: NewSimulateConfig()}
}

func NewCompareRequest() CompareRequest {
	return CompareRequest{BaseConfig: NewSimulateConfig()}
}

// NewFinanceRequest seeds the finance config with the defaults. The MRA table is
// left nil so a supplied table replaces the default rather than merging into it.
func NewFinanceRequest() FinanceRequest {
	cfg := finance.DefaultConfig()
	cfg.MRAByYear = nil
	return FinanceRequest{Config: cfg}
}
