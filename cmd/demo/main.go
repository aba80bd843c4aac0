package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pvbess-model/internal/config"
	"pvbess-model/internal/dispatch"
	"pvbess-model/internal/logging"
	"pvbess-model/internal/model"
	"pvbess-model/internal/strategy"
)

// Demo:
// - Build a synthetic day of solar and load
// - Run the dispatch with a small plant (or one loaded via --config)
// - Print the hourly ledger to show how the pieces fit together
var (
	cfgPath string
	days    int
	mode    int
	outCSV  string
)

var demoCmd = &cobra.Command{
	Use:          "demo",
	Short:        "Dispatch a synthetic PV+load day and print the ledger",
	SilenceUsage: true,
	RunE:         runDemo,
}

func init() {
	demoCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "YAML config for the plant (optional)")
	demoCmd.Flags().IntVar(&days, "days", 1, "number of synthetic days")
	demoCmd.Flags().IntVar(&mode, "mode", int(strategy.ModeTopTier), "strategy mode when no config is given")
	demoCmd.Flags().StringVarP(&outCSV, "out", "o", "", "optional path to write the ledger CSV")
}

func main() {
	if err := demoCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runDemo(cmd *cobra.Command, _ []string) error {
	logger := logging.NewWithOptions("demo", logging.Options{Format: "console", Out: os.Stderr})

	plant := model.PlantConfig{
		StepHours:       1,
		BESSCapacityKWh: 200,
		BESSPowerKW:     50,
		BESSEfficiency:  0.95,
		MinSOCKWh:       20,
		InitialSOCKWh:   20,
		CAPeak:          3,
		CANormal:        2,
		CAOffPeak:       1,
		StrategyMode:    model.StrategyMode(mode),
	}
	if cfgPath != "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		plant = cfg.Plant.ToModel()
	}

	timeline := syntheticTimeline(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), days)
	res, err := dispatch.New(dispatch.WithLogger(logger)).Run(timeline, plant)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Plant: %.0f kWh / %.0f kW, efficiency %.2f, strategy mode %d\n\n",
		plant.BESSCapacityKWh, plant.BESSPowerKW, plant.BESSEfficiency, plant.StrategyMode)
	for _, r := range res.Hourly {
		fmt.Fprintf(w, "%s %-7s solar=%6.1f load=%6.1f  %-11s chg=%6.2f dis=%6.2f  soc=%6.1f->%6.1f  import=%6.1f export=%6.1f\n",
			r.Timestamp.Format("2006-01-02 15:04"),
			r.Period,
			r.SolarKW,
			r.LoadKW,
			r.Action,
			r.ChargeEnergyKWh,
			r.DischargeEnergyKWh,
			r.SOCStartKWh,
			r.SOCKWh,
			r.GridImportKW,
			r.GridExportKW,
		)
	}

	if outCSV != "" {
		if err := dispatch.WriteHourlyCSV(outCSV, res.Hourly); err != nil {
			return err
		}
		logger.Infof("wrote ledger CSV to %s", outCSV)
	}

	t := res.Totals
	fmt.Fprintf(w, "\nSolar %.3f MWh, load %.3f MWh, charged %.3f MWh, discharged %.3f MWh, import %.3f MWh, final SOC %.1f kWh\n",
		t.SolarGenMWh, t.LoadMWh, t.ChargeMWh, t.DischargeMWh, t.GridImportMWh, res.FinalSOCKWh)
	return nil
}

// syntheticTimeline is a clear-sky bell of solar over a flat load with an evening
// bump. Peak is 17-20h, off-peak 22-04h.
func syntheticTimeline(start time.Time, days int) []model.HourlySample {
	out := make([]model.HourlySample, 0, days*24)
	for h := 0; h < days*24; h++ {
		hour := h % 24
		solar := 0.0
		if hour >= 6 && hour <= 18 {
			solar = 120 * math.Sin(math.Pi*float64(hour-6)/12)
		}
		load := 40.0
		if hour >= 17 && hour <= 21 {
			load = 70
		}
		period := model.PeriodNormal
		switch {
		case hour >= 17 && hour <= 20:
			period = model.PeriodPeak
		case hour >= 22 || hour <= 4:
			period = model.PeriodOffPeak
		}
		out = append(out, model.HourlySample{
			Timestamp:      start.Add(time.Duration(h) * time.Hour),
			SolarKW:        math.Round(solar*10) / 10,
			LoadKW:         load,
			Period:         period,
			AllowDischarge: true,
		})
	}
	return out
}
