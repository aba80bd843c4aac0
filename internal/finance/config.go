package finance

import (
	"math"
	"time"

	"pvbess-model/internal/model"
)

// Config holds the project economics. Monetary amounts are USD; OPEX lines are year-1 values.
type Config struct {
	LandCostUSD float64 `json:"land_cost_usd" yaml:"land_cost_usd"`
	BOPCostUSD  float64 `json:"bop_cost_usd" yaml:"bop_cost_usd"`
	PVCostUSD   float64 `json:"pv_cost_usd" yaml:"pv_cost_usd"`
	BESSCostUSD float64 `json:"bess_cost_usd" yaml:"bess_cost_usd"`

	OMPVUSD          float64 `json:"om_pv_usd" yaml:"om_pv_usd"`
	OMBESSUSD        float64 `json:"om_bess_usd" yaml:"om_bess_usd"`
	InsurancePVUSD   float64 `json:"insurance_pv_usd" yaml:"insurance_pv_usd"`
	InsuranceBESSUSD float64 `json:"insurance_bess_usd" yaml:"insurance_bess_usd"`
	OtherOpexUSD     float64 `json:"other_opex_usd" yaml:"other_opex_usd"`
	LandLeaseUSD     float64 `json:"land_lease_usd" yaml:"land_lease_usd"`

	OpexEscalation  float64 `json:"opex_escalation" yaml:"opex_escalation"`
	PriceEscalation float64 `json:"price_escalation" yaml:"price_escalation"`

	LeverageRatio  float64 `json:"leverage_ratio" yaml:"leverage_ratio"`
	DebtTenorYears int     `json:"debt_tenor_years" yaml:"debt_tenor_years"`
	InterestRate   float64 `json:"interest_rate" yaml:"interest_rate"`
	TargetDSCR     float64 `json:"target_dscr" yaml:"target_dscr"`

	DepreciationYears int     `json:"depreciation_years" yaml:"depreciation_years"`
	ProjectYears      int     `json:"project_years" yaml:"project_years"`
	DiscountRate      float64 `json:"discount_rate" yaml:"discount_rate"`

	TaxHoliday TaxHoliday `json:"tax_holiday" yaml:"tax_holiday"`

	// MRAByYear is the fixed maintenance reserve contribution per project year.
	MRAByYear map[int]float64 `json:"mra_by_year" yaml:"mra_by_year"`

	// CODDate switches NPV to date-based discounting (XNPV) when set.
	CODDate time.Time `json:"cod_date,omitempty" yaml:"cod_date"`
}

// TaxHoliday is a stepped CIT schedule: ExemptYears at 0%, then Reduced5Years at 5%,
// then Reduced10Years at 10%, then StandardRate.
type TaxHoliday struct {
	ExemptYears    int     `json:"exempt_years" yaml:"exempt_years"`
	Reduced5Years  int     `json:"reduced_5pct_years" yaml:"reduced_5pct_years"`
	Reduced10Years int     `json:"reduced_10pct_years" yaml:"reduced_10pct_years"`
	StandardRate   float64 `json:"standard_rate" yaml:"standard_rate"`
}

func (h TaxHoliday) Rate(year int) float64 {
	switch {
	case year <= h.ExemptYears:
		return 0
	case year <= h.ExemptYears+h.Reduced5Years:
		return 0.05
	case year <= h.ExemptYears+h.Reduced5Years+h.Reduced10Years:
		return 0.10
	default:
		return h.StandardRate
	}
}

func DefaultTaxHoliday() TaxHoliday {
	return TaxHoliday{ExemptYears: 4, Reduced5Years: 9, Reduced10Years: 2, StandardRate: 0.20}
}

// DefaultMRA is the reserve build-up used by the reference workbook.
func DefaultMRA() map[int]float64 {
	return map[int]float64{
		8:  908_100,
		9:  908_100,
		10: 908_100,
		11: 302_700,
	}
}

func DefaultConfig() Config {
	return Config{
		OpexEscalation:    0.04,
		PriceEscalation:   0.05,
		LeverageRatio:     0.7,
		DebtTenorYears:    10,
		InterestRate:      0.08,
		TargetDSCR:        1.3,
		DepreciationYears: 20,
		ProjectYears:      25,
		DiscountRate:      0.10,
		TaxHoliday:        DefaultTaxHoliday(),
		MRAByYear:         DefaultMRA(),
	}
}

func (c Config) TotalCAPEX() float64 {
	return c.LandCostUSD + c.BOPCostUSD + c.PVCostUSD + c.BESSCostUSD
}

func (c Config) Year1OPEX() float64 {
	return c.OMPVUSD + c.OMBESSUSD + c.InsurancePVUSD + c.InsuranceBESSUSD + c.OtherOpexUSD + c.LandLeaseUSD
}

func (c Config) Validate() error {
	amounts := map[string]float64{
		"finance.land_cost_usd":      c.LandCostUSD,
		"finance.bop_cost_usd":       c.BOPCostUSD,
		"finance.pv_cost_usd":        c.PVCostUSD,
		"finance.bess_cost_usd":      c.BESSCostUSD,
		"finance.om_pv_usd":          c.OMPVUSD,
		"finance.om_bess_usd":        c.OMBESSUSD,
		"finance.insurance_pv_usd":   c.InsurancePVUSD,
		"finance.insurance_bess_usd": c.InsuranceBESSUSD,
		"finance.other_opex_usd":     c.OtherOpexUSD,
		"finance.land_lease_usd":     c.LandLeaseUSD,
	}
	for field, v := range amounts {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return model.ConfigErrorf(field, "must be finite and >= 0, got %v", v)
		}
	}
	if c.ProjectYears <= 0 {
		return model.ConfigErrorf("finance.project_years", "must be > 0")
	}
	if c.DepreciationYears <= 0 {
		return model.ConfigErrorf("finance.depreciation_years", "must be > 0")
	}
	if c.LeverageRatio < 0 || c.LeverageRatio > 1 {
		return model.ConfigErrorf("finance.leverage_ratio", "must be in [0, 1]")
	}
	if c.DebtTenorYears < 0 {
		return model.ConfigErrorf("finance.debt_tenor_years", "must be >= 0")
	}
	if c.DebtTenorYears > 0 && c.LeverageRatio > 0 && c.TargetDSCR <= 0 {
		return model.ConfigErrorf("finance.target_dscr", "must be > 0 when debt is drawn")
	}
	for field, r := range map[string]float64{
		"finance.discount_rate":    c.DiscountRate,
		"finance.interest_rate":    c.InterestRate,
		"finance.opex_escalation":  c.OpexEscalation,
		"finance.price_escalation": c.PriceEscalation,
	} {
		if math.IsNaN(r) || r <= -1 {
			return model.ConfigErrorf(field, "must be > -1, got %v", r)
		}
	}
	return nil
}
