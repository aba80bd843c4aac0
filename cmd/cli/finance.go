package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pvbess-model/internal/analysis"
	"pvbess-model/internal/scenario"
)

var (
	financeRevenue float64
	financeReport  string
)

var financeCmd = &cobra.Command{
	Use:   "finance",
	Short: "Run dispatch, lifetime and the project finance model",
	RunE:  runFinance,
}

func init() {
	financeCmd.Flags().Float64Var(&financeRevenue, "revenue", 0, "revenue per MWh (overrides finance.revenue_per_mwh)")
	financeCmd.Flags().StringVar(&financeReport, "report", "", "write a markdown report here")
	rootCmd.AddCommand(financeCmd)
}

func runFinance(cmd *cobra.Command, _ []string) error {
	in, err := loadInputs("finance")
	if err != nil {
		return err
	}
	if financeRevenue > 0 {
		in.cfg.Finance.RevenuePerMWh = financeRevenue
	}
	if !in.cfg.HasLifetime() {
		return fmt.Errorf("lifetime.horizon_years is not set in %s", cfgPath)
	}
	if in.cfg.Finance.RevenuePerMWh <= 0 {
		return fmt.Errorf("finance.revenue_per_mwh must be set (or pass --revenue)")
	}

	runner := scenario.NewRunner(scenario.WithLogger(in.logger))
	out, err := runner.Evaluate(cmd.Context(), in.cfg, in.timeline, nil)
	if err != nil {
		return err
	}
	fin := out.Finance

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "year     revenue_usd      ebitda_usd        tax_usd   debt_bal_usd       fcfe_usd")
	for _, y := range fin.Yearly {
		fmt.Fprintf(w, "%4d %15.0f %15.0f %14.0f %14.0f %14.0f\n",
			y.Year, y.RevenueUSD, y.EBITDAUSD, y.TaxUSD, y.DebtBalanceUSD, y.FCFEUSD)
	}
	fmt.Fprintln(w, fin.Summary())
	for _, warn := range fin.Warnings {
		in.logger.Warnf("%s", warn)
	}

	if financeReport != "" {
		profile := analysis.ComputeProfile(out.Dispatch.Hourly, out.Dispatch.Totals)
		report := analysis.BuildReport(analysis.ReportInput{
			Title:   in.cfg.Plant.Name,
			Totals:  out.Dispatch.Totals,
			Profile: &profile,
			Yearly:  out.Yearly,
			Finance: fin,
		})
		if err := os.WriteFile(financeReport, []byte(report), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		in.logger.Infof("report written to %s", financeReport)
	}
	return nil
}
