package finance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"pvbess-model/internal/model"
)

// YearlyCashFlow is one row of the financial projection.
type YearlyCashFlow struct {
	Year            int     `json:"year"`
	SolarGenMWh     float64 `json:"solar_gen_mwh"`
	RevenueUSD      float64 `json:"revenue_usd"`
	OPEXUSD         float64 `json:"opex_usd"`
	MRAUSD          float64 `json:"mra_usd"`
	EBITDAUSD       float64 `json:"ebitda_usd"`
	DepreciationUSD float64 `json:"depreciation_usd"`
	EBITUSD         float64 `json:"ebit_usd"`
	TaxRate         float64 `json:"tax_rate"`
	TaxUSD          float64 `json:"tax_usd"`
	NetIncomeUSD    float64 `json:"net_income_usd"`
	DebtServiceUSD  float64 `json:"debt_service_usd"`
	InterestUSD     float64 `json:"interest_usd"`
	PrincipalUSD    float64 `json:"principal_usd"`
	DebtBalanceUSD  float64 `json:"debt_balance_usd"`
	FCFEUSD         float64 `json:"fcfe_usd"`
}

type Results struct {
	Yearly []YearlyCashFlow `json:"yearly"`

	TotalCAPEXUSD float64 `json:"total_capex_usd"`
	DebtUSD       float64 `json:"debt_usd"`
	EquityUSD     float64 `json:"equity_usd"`

	ProjectCashFlows []float64 `json:"project_cash_flows"`
	EquityCashFlows  []float64 `json:"equity_cash_flows"`

	ProjectIRR   float64  `json:"project_irr"`
	EquityIRR    float64  `json:"equity_irr"`
	NPV          float64  `json:"npv"`
	XNPV         *float64 `json:"xnpv,omitempty"`
	PaybackYears float64  `json:"payback_years"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Run projects cash flows from the lifetime energy table. Years beyond the table
// earn no revenue.
func Run(yearly []model.YearlyRecord, revenuePerMWh float64, cfg Config) (*Results, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(revenuePerMWh) || math.IsInf(revenuePerMWh, 0) || revenuePerMWh < 0 {
		return nil, model.ConfigErrorf("revenue_per_mwh", "must be finite and >= 0, got %v", revenuePerMWh)
	}
	generation := make(map[int]float64, len(yearly))
	for _, r := range yearly {
		generation[r.Year] = r.SolarGenMWh
	}

	capex := cfg.TotalCAPEX()
	debt := capex * cfg.LeverageRatio
	equity := capex - debt
	depreciation := capex / float64(cfg.DepreciationYears)
	balance := debt

	res := &Results{
		Yearly:        make([]YearlyCashFlow, 0, cfg.ProjectYears),
		TotalCAPEXUSD: capex,
		DebtUSD:       debt,
		EquityUSD:     equity,
	}

	for y := 1; y <= cfg.ProjectYears; y++ {
		row := YearlyCashFlow{Year: y, SolarGenMWh: generation[y]}
		row.RevenueUSD = row.SolarGenMWh * revenuePerMWh * math.Pow(1+cfg.PriceEscalation, float64(y-1))
		row.OPEXUSD = cfg.Year1OPEX() * math.Pow(1+cfg.OpexEscalation, float64(y-1))
		row.MRAUSD = cfg.MRAByYear[y]
		row.EBITDAUSD = row.RevenueUSD - row.OPEXUSD - row.MRAUSD

		if y <= cfg.DepreciationYears {
			row.DepreciationUSD = depreciation
		}
		row.EBITUSD = row.EBITDAUSD - row.DepreciationUSD
		row.TaxRate = cfg.TaxHoliday.Rate(y)
		row.TaxUSD = math.Max(row.EBITUSD*row.TaxRate, 0)
		row.NetIncomeUSD = row.EBITUSD - row.TaxUSD

		// DSCR-sculpted debt service on CFADS (= EBITDA).
		cfads := row.EBITDAUSD
		if y <= cfg.DebtTenorYears && cfads > 0 && cfg.TargetDSCR > 0 {
			row.DebtServiceUSD = cfads / cfg.TargetDSCR
			row.InterestUSD = balance * cfg.InterestRate
			row.PrincipalUSD = math.Min(row.DebtServiceUSD-row.InterestUSD, balance)
			balance -= row.PrincipalUSD
		}
		row.DebtBalanceUSD = balance
		row.FCFEUSD = cfads + row.PrincipalUSD - row.InterestUSD

		res.Yearly = append(res.Yearly, row)
	}

	n := cfg.ProjectYears
	res.ProjectCashFlows = make([]float64, n+1)
	res.EquityCashFlows = make([]float64, n+1)
	res.ProjectCashFlows[0] = -capex
	res.EquityCashFlows[0] = -equity
	for i, row := range res.Yearly {
		res.ProjectCashFlows[i+1] = row.EBITDAUSD - row.TaxUSD
		res.EquityCashFlows[i+1] = row.FCFEUSD
	}

	var ok bool
	if res.ProjectIRR, ok = IRR(res.ProjectCashFlows); !ok {
		res.Warnings = append(res.Warnings, "project IRR has no root in [-0.99, 10]; reported as 0")
	}
	if res.EquityIRR, ok = IRR(res.EquityCashFlows); !ok {
		res.Warnings = append(res.Warnings, "equity IRR has no root in [-0.99, 10]; reported as 0")
	}

	netFCFE := append([]float64(nil), res.EquityCashFlows[1:]...)
	netFCFE[0] -= equity
	res.NPV = NPV(netFCFE, cfg.DiscountRate)
	if !cfg.CODDate.IsZero() {
		x := XNPV(netFCFE, AnnualDates(cfg.CODDate, len(netFCFE)), cfg.DiscountRate)
		res.XNPV = &x
	}
	res.PaybackYears = Payback(res.EquityCashFlows)
	return res, nil
}

// Summary is a compact one-line description of the headline metrics.
func (r *Results) Summary() string {
	return fmt.Sprintf("project IRR %.2f%%, equity IRR %.2f%%, NPV %.0f USD, payback %.0f years, lifetime revenue %.0f USD",
		r.ProjectIRR*100, r.EquityIRR*100, r.NPV, r.PaybackYears, r.TotalRevenueUSD())
}

func (r *Results) TotalRevenueUSD() float64 {
	rev := make([]float64, len(r.Yearly))
	for i, y := range r.Yearly {
		rev[i] = y.RevenueUSD
	}
	return floats.Sum(rev)
}
