package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pvbess-model/internal/lifetime"
	"pvbess-model/internal/model"
)

var (
	lifetimeOut     string
	lifetimeWorkers int
)

var lifetimeCmd = &cobra.Command{
	Use:   "lifetime",
	Short: "Expand year one over the project horizon with degradation and augmentation",
	RunE:  runLifetime,
}

func init() {
	lifetimeCmd.Flags().StringVarP(&lifetimeOut, "out", "o", "", "write the yearly table CSV here")
	lifetimeCmd.Flags().IntVar(&lifetimeWorkers, "workers", 0, "years simulated in parallel (0 = GOMAXPROCS)")
	rootCmd.AddCommand(lifetimeCmd)
}

func runLifetime(cmd *cobra.Command, _ []string) error {
	in, err := loadInputs("lifetime")
	if err != nil {
		return err
	}
	if !in.cfg.HasLifetime() {
		return fmt.Errorf("lifetime.horizon_years is not set in %s", cfgPath)
	}
	opts := []lifetime.Option{lifetime.WithLogger(in.logger)}
	if lifetimeWorkers > 0 {
		opts = append(opts, lifetime.WithConcurrency(lifetimeWorkers))
	}
	lc := in.cfg.Lifetime
	yearly, err := lifetime.New(opts...).Expand(cmd.Context(), in.timeline, in.cfg.Plant.ToModel(),
		lc.Degradation(), lc.AugmentationSchedule(), lc.HorizonYears)
	if err != nil {
		return fmt.Errorf("lifetime: %w", err)
	}
	if lifetimeOut != "" {
		if err := lifetime.WriteYearlyCSV(lifetimeOut, yearly); err != nil {
			return fmt.Errorf("write yearly table: %w", err)
		}
		in.logger.Infof("yearly table written to %s", lifetimeOut)
	}
	printYearly(cmd.OutOrStdout(), yearly)
	return nil
}

func printYearly(w io.Writer, yearly []model.YearlyRecord) {
	fmt.Fprintln(w, "year  solar_mwh  discharge_mwh  import_mwh  export_mwh  bess_kwh  aug")
	for _, y := range yearly {
		aug := ""
		if y.Augmented {
			aug = "*"
		}
		fmt.Fprintf(w, "%4d %10.1f %14.1f %11.1f %11.1f %9.0f  %s\n",
			y.Year, y.SolarGenMWh, y.DischargeMWh, y.GridImportMWh, y.GridExportMWh, y.BESSCapacityKWh, aug)
	}
	s := lifetime.Summarize(yearly)
	fmt.Fprintf(w, "total solar %.1f MWh, discharge %.1f MWh over %d years\n",
		s.TotalSolarGenMWh, s.TotalDischargeMWh, s.Years)
}
