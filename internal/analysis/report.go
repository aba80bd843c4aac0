package analysis

import (
	"fmt"
	"sort"
	"strings"

	"pvbess-model/internal/finance"
	"pvbess-model/internal/lifetime"
	"pvbess-model/internal/model"
)

// ReportInput gathers everything an audit report can show. Nil/empty sections are omitted.
type ReportInput struct {
	Title       string
	Totals      model.Totals
	Profile     *LedgerProfile
	Yearly      []model.YearlyRecord
	Finance     *finance.Results
	Comparisons []FieldComparison
	// TolerancePct marks comparisons above it as failing (0 disables the verdict).
	TolerancePct float64
}

// BuildReport renders a markdown audit report.
func BuildReport(in ReportInput) string {
	var b strings.Builder
	title := in.Title
	if title == "" {
		title = "PV+BESS model audit"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("## Year-one energy\n\n")
	b.WriteString("| Metric | Value |\n|---|---:|\n")
	totals := in.Totals.Map()
	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(&b, "| hours | %d |\n", in.Totals.Hours)
	for _, k := range keys {
		fmt.Fprintf(&b, "| %s | %.3f |\n", k, totals[k])
	}
	b.WriteString("\n")

	if p := in.Profile; p != nil {
		b.WriteString("## Dispatch profile\n\n")
		fmt.Fprintf(&b, "- Hours charging / discharging / idle: %d / %d / %d\n", p.HoursCharging, p.HoursDischarging, p.HoursIdle)
		fmt.Fprintf(&b, "- Hours with discharge denied: %d\n", p.HoursDenied)
		fmt.Fprintf(&b, "- SOC kWh min %.1f, p05 %.1f, mean %.1f, p95 %.1f, max %.1f\n",
			p.MinSOCKWh, p.P05SOCKWh, p.MeanSOCKWh, p.P95SOCKWh, p.MaxSOCKWh)
		fmt.Fprintf(&b, "- Self-consumption %.1f%%, self-sufficiency %.1f%%\n\n", p.SelfConsumptionPct, p.SelfSufficiencyPct)
	}

	if len(in.Yearly) > 0 {
		s := lifetime.Summarize(in.Yearly)
		b.WriteString("## Lifetime\n\n")
		fmt.Fprintf(&b, "%d years, %.1f MWh solar in total (year 1 %.1f MWh, final year %.1f MWh).\n\n",
			s.Years, s.TotalSolarGenMWh, s.Year1SolarGenMWh, s.FinalYearSolarGenMWh)
		b.WriteString("| Year | PV factor | BESS factor | Solar MWh | Discharge MWh | Import MWh | Augmented |\n")
		b.WriteString("|---:|---:|---:|---:|---:|---:|:---:|\n")
		for _, r := range in.Yearly {
			aug := ""
			if r.Augmented {
				aug = "yes"
			}
			fmt.Fprintf(&b, "| %d | %.4f | %.4f | %.1f | %.1f | %.1f | %s |\n",
				r.Year, r.PVFactor, r.BESSFactor, r.SolarGenMWh, r.DischargeMWh, r.GridImportMWh, aug)
		}
		b.WriteString("\n")
	}

	if f := in.Finance; f != nil {
		b.WriteString("## Economics\n\n")
		fmt.Fprintf(&b, "- CAPEX %.0f USD (debt %.0f, equity %.0f)\n", f.TotalCAPEXUSD, f.DebtUSD, f.EquityUSD)
		fmt.Fprintf(&b, "- Project IRR %.2f%%, equity IRR %.2f%%\n", f.ProjectIRR*100, f.EquityIRR*100)
		fmt.Fprintf(&b, "- NPV %.0f USD", f.NPV)
		if f.XNPV != nil {
			fmt.Fprintf(&b, " (XNPV %.0f USD)", *f.XNPV)
		}
		fmt.Fprintf(&b, "\n- Payback %.0f years\n", f.PaybackYears)
		for _, w := range f.Warnings {
			fmt.Fprintf(&b, "- Warning: %s\n", w)
		}
		b.WriteString("\n")
	}

	if len(in.Comparisons) > 0 {
		b.WriteString("## Comparison against reference\n\n")
		b.WriteString("| Rank | Field | Model | Truth | Abs error | % error |\n|---:|---|---:|---:|---:|---:|\n")
		for _, r := range RankByMaxError(in.Comparisons) {
			fmt.Fprintf(&b, "| %d | %s | %.4f | %.4f | %.4g | %.4f |\n",
				r.Rank, r.Field, r.Model, r.Truth, r.AbsError, r.PercentError)
		}
		if in.TolerancePct > 0 {
			failing := Failing(in.Comparisons, in.TolerancePct)
			if len(failing) == 0 {
				fmt.Fprintf(&b, "\nPASS: all %d fields within %.3g%%.\n", len(in.Comparisons), in.TolerancePct)
			} else {
				fmt.Fprintf(&b, "\nFAIL: %d of %d fields exceed %.3g%%.\n", len(failing), len(in.Comparisons), in.TolerancePct)
			}
		}
	}
	return b.String()
}
