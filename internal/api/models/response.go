package models

import (
	"time"

	"pvbess-model/internal/analysis"
	"pvbess-model/internal/dispatch"
	"pvbess-model/internal/finance"
	"pvbess-model/internal/lifetime"
	"pvbess-model/internal/model"
)

// SimulateResponse represents the response from a simulation run
type SimulateResponse struct {
	ID       string                  `json:"id,omitempty"`
	Status   string                  `json:"status"`
	Summary  SimulateSummary         `json:"summary"`
	Lifetime *lifetime.Summary       `json:"lifetime,omitempty"`
	Finance  *FinanceSummary         `json:"finance,omitempty"`
	Ledger   []dispatch.HourlyResult `json:"ledger,omitempty"`
	Yearly   []model.YearlyRecord    `json:"yearly,omitempty"`
}

// SimulateSummary contains aggregated year-one results
type SimulateSummary struct {
	TotalHours int                    `json:"total_hours"`
	Window     TimeWindow             `json:"window"`
	Totals     model.Totals           `json:"totals"`
	Profile    analysis.LedgerProfile `json:"profile"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// FinanceSummary is the headline of a finance run.
type FinanceSummary struct {
	TotalCAPEXUSD   float64  `json:"total_capex_usd"`
	TotalRevenueUSD float64  `json:"total_revenue_usd"`
	ProjectIRR      float64  `json:"project_irr"`
	EquityIRR       float64  `json:"equity_irr"`
	NPV             float64  `json:"npv"`
	XNPV            *float64 `json:"xnpv,omitempty"`
	PaybackYears    float64  `json:"payback_years"`
	Warnings        []string `json:"warnings,omitempty"`
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation. Error is set when the
// variation could not be simulated.
type ComparisonResult struct {
	Name            string                     `json:"name"`
	Totals          *model.Totals              `json:"totals,omitempty"`
	Lifetime        *lifetime.Summary          `json:"lifetime,omitempty"`
	Finance         *FinanceSummary            `json:"finance,omitempty"`
	Comparisons     []analysis.FieldComparison `json:"comparisons,omitempty"`
	MaxPercentError float64                    `json:"max_percent_error"`
	Error           *ErrorDetail               `json:"error,omitempty"`
}

// FinanceResponse wraps the full finance results.
type FinanceResponse struct {
	Summary FinanceSummary   `json:"summary"`
	Results *finance.Results `json:"results"`
}

// LedgerResponse is a stored run's hourly ledger.
type LedgerResponse struct {
	ID     string                  `json:"id"`
	Name   string                  `json:"name,omitempty"`
	Totals model.Totals            `json:"totals"`
	Ledger []dispatch.HourlyResult `json:"ledger"`
}

// YearlyResponse is a stored run's lifetime table.
type YearlyResponse struct {
	ID      string               `json:"id"`
	Name    string               `json:"name,omitempty"`
	Summary lifetime.Summary     `json:"summary"`
	Yearly  []model.YearlyRecord `json:"yearly"`
}

// PlantInfo represents information about a plant preset
type PlantInfo struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	File  string     `json:"file"`
	Specs PlantSpecs `json:"specs"`
}

// PlantSpecs contains the headline BESS specifications
type PlantSpecs struct {
	BESSCapacityKWh float64 `json:"bess_capacity_kwh"`
	BESSPowerKW     float64 `json:"bess_power_kw"`
	BESSEfficiency  float64 `json:"bess_efficiency"`
	StrategyMode    int     `json:"strategy_mode"`
}

// StrategyInfo represents information about a discharge strategy mode
type StrategyInfo struct {
	Mode        int             `json:"mode"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// ParameterInfo describes a plant parameter a strategy reads
type ParameterInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "float", "int", "string"
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewFinanceSummary flattens finance results for responses.
func NewFinanceSummary(r *finance.Results) *FinanceSummary {
	if r == nil {
		return nil
	}
	return &FinanceSummary{
		TotalCAPEXUSD:   r.TotalCAPEXUSD,
		TotalRevenueUSD: r.TotalRevenueUSD(),
		ProjectIRR:      r.ProjectIRR,
		EquityIRR:       r.EquityIRR,
		NPV:             r.NPV,
		XNPV:            r.XNPV,
		PaybackYears:    r.PaybackYears,
		Warnings:        r.Warnings,
	}
}
