package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pvbess-model/internal/analysis"
	"pvbess-model/internal/data"
	"pvbess-model/internal/dispatch"
)

var (
	truthHourly  string
	truthTotals  string
	tolerancePct float64
	compareTop   int
	compareOut   string
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the year-one dispatch against a reference export",
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&truthHourly, "truth-hourly", "", "reference hourly CSV (ledger column names)")
	compareCmd.Flags().StringVar(&truthTotals, "truth-totals", "", "reference totals YAML (field: value)")
	compareCmd.Flags().Float64Var(&tolerancePct, "tolerance", 0, "fail when any percent error exceeds this (0 = report only)")
	compareCmd.Flags().IntVar(&compareTop, "top", 10, "print the N worst fields")
	compareCmd.Flags().StringVar(&compareOut, "report", "", "write a markdown audit report here")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, _ []string) error {
	if truthHourly == "" && truthTotals == "" {
		return fmt.Errorf("pass --truth-hourly and/or --truth-totals")
	}
	in, err := loadInputs("compare")
	if err != nil {
		return err
	}
	res, err := dispatch.New(dispatch.WithLogger(in.logger)).Run(in.timeline, in.cfg.Plant.ToModel())
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	var cmp []analysis.FieldComparison
	if truthHourly != "" {
		truth, err := data.LoadTruthCSV(truthHourly)
		if err != nil {
			return fmt.Errorf("load truth: %w", err)
		}
		cmp = append(cmp, analysis.CompareHourly(res.Hourly, truth)...)
	}
	if truthTotals != "" {
		truth, err := data.LoadTotalsYAML(truthTotals)
		if err != nil {
			return fmt.Errorf("load truth totals: %w", err)
		}
		for _, c := range analysis.CompareTotals(res.Totals.Map(), truth) {
			c.Field = "total." + c.Field
			cmp = append(cmp, c)
		}
	}
	if len(cmp) == 0 {
		return fmt.Errorf("no overlapping fields between the model and the reference")
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "=== Worst fields ===")
	for _, r := range analysis.RankByMaxError(cmp) {
		if compareTop > 0 && r.Rank > compareTop {
			break
		}
		fmt.Fprintf(w, "%2d. %-32s model %12.3f truth %12.3f  %.3f%%\n",
			r.Rank, r.Field, r.Model, r.Truth, r.PercentError)
	}

	if compareOut != "" {
		profile := analysis.ComputeProfile(res.Hourly, res.Totals)
		report := analysis.BuildReport(analysis.ReportInput{
			Title:        in.cfg.Plant.Name,
			Totals:       res.Totals,
			Profile:      &profile,
			Comparisons:  cmp,
			TolerancePct: tolerancePct,
		})
		if err := os.WriteFile(compareOut, []byte(report), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		in.logger.Infof("report written to %s", compareOut)
	}

	if tolerancePct > 0 {
		if failing := analysis.Failing(cmp, tolerancePct); len(failing) > 0 {
			return fmt.Errorf("%d field(s) exceed %.2f%% (max %.3f%%)",
				len(failing), tolerancePct, analysis.MaxPercentError(cmp))
		}
	}
	return nil
}
