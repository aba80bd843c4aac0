package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"pvbess-model/internal/analysis"
	"pvbess-model/internal/dispatch"
	"pvbess-model/internal/model"
)

var (
	simulateOut    string
	simulateReport string
	simulateJSON   bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the year-one hourly dispatch and write the ledger",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&simulateOut, "out", "o", "", "write the hourly ledger CSV here")
	simulateCmd.Flags().StringVar(&simulateReport, "report", "", "write a markdown report here")
	simulateCmd.Flags().BoolVar(&simulateJSON, "json", false, "print totals as JSON")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	in, err := loadInputs("simulate")
	if err != nil {
		return err
	}
	engine := dispatch.New(dispatch.WithLogger(in.logger))
	res, err := engine.Run(in.timeline, in.cfg.Plant.ToModel())
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	in.logger.Infof("simulated %d hours", len(res.Hourly))

	if simulateOut != "" {
		if err := dispatch.WriteHourlyCSV(simulateOut, res.Hourly); err != nil {
			return fmt.Errorf("write ledger: %w", err)
		}
		in.logger.Infof("hourly ledger written to %s", simulateOut)
	}
	if simulateReport != "" {
		profile := analysis.ComputeProfile(res.Hourly, res.Totals)
		report := analysis.BuildReport(analysis.ReportInput{
			Title:   in.cfg.Plant.Name,
			Totals:  res.Totals,
			Profile: &profile,
		})
		if err := os.WriteFile(simulateReport, []byte(report), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if simulateJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Totals)
	}
	printTotals(out, res.Totals)
	return nil
}

func printTotals(w io.Writer, t model.Totals) {
	fmt.Fprintf(w, "=== Year-one totals (%d hours) ===\n", t.Hours)
	m := t.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%-24s %14.3f\n", k, m[k])
	}
}
