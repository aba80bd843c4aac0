package scenario

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pvbess-model/internal/config"
	"pvbess-model/internal/metrics"
	"pvbess-model/internal/model"
)

func baseConfig() config.Config {
	c := config.Default()
	c.Plant = config.PlantConfig{
		Name:            "test",
		BESSCapacityKWh: 100,
		BESSPowerKW:     50,
		BESSEfficiency:  0.9,
		MinSOCKWh:       0,
		CAPeak:          1,
		CANormal:        0.5,
		CAOffPeak:       0.1,
	}
	c.Lifetime = config.LifetimeConfig{
		PVDegradation:   []float64{1, 0.99},
		BESSDegradation: []float64{1, 0.98},
	}
	c.ApplyDefaults()
	return c
}

// Solar surplus in the morning, evening load after.
func timeline() []model.HourlySample {
	t0 := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	solar := []float64{100, 100, 0, 0}
	load := []float64{50, 50, 40, 40}
	out := make([]model.HourlySample, len(solar))
	for i := range solar {
		out[i] = model.HourlySample{
			Timestamp:      t0.Add(time.Duration(i) * time.Hour),
			SolarKW:        solar[i],
			LoadKW:         load[i],
			Period:         model.PeriodPeak,
			AllowDischarge: true,
		}
	}
	return out
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_bigger.yaml", `
description: double the battery
overrides:
  plant.bess_capacity_kwh: 200
truth_totals:
  solar_gen_mwh: 0.2
tolerance_pct: 0.5
`)
	writeFile(t, dir, "a_named.json", `{"name": "json one", "overrides": {"plant.bess_power_kw": 10}}`)
	writeFile(t, dir, "notes.txt", "ignored")

	got, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "json one", got[0].Name)
	assert.Equal(t, 10, got[0].Overrides["plant.bess_power_kw"])

	assert.Equal(t, "b_bigger", got[1].Name, "name defaults to the file stem")
	assert.Equal(t, "double the battery", got[1].Description)
	assert.Equal(t, 0.2, got[1].TruthTotals["solar_gen_mwh"])
	assert.Equal(t, 0.5, got[1].TolerancePct)
	assert.Equal(t, filepath.Join(dir, "b_bigger.yaml"), got[1].Source)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, err = Load(t.TempDir())
	assert.ErrorContains(t, err, "no scenario files")

	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "overrides: [1, 2")
	_, err = Load(dir)
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	base := baseConfig()
	out, err := Apply(base, map[string]any{
		"plant.bess_capacity_kwh":          250,
		"plant.discharge_window":           map[string]any{"start": "17:00", "end": "21:00"},
		"lifetime.pv_degradation":          []any{1.0, 0.5},
		"finance.revenue_per_mwh":          60.5,
		"finance.tax_holiday.exempt_years": 2,
	})
	require.NoError(t, err)

	assert.Equal(t, 250.0, out.Plant.BESSCapacityKWh)
	assert.Equal(t, "17:00", out.Plant.DischargeWindow.Start)
	assert.Equal(t, []float64{1, 0.5}, out.Lifetime.PVDegradation)
	assert.Equal(t, 60.5, out.Finance.RevenuePerMWh)
	assert.Equal(t, 2, out.Finance.TaxHoliday.ExemptYears)

	assert.Equal(t, base.Plant.BESSPowerKW, out.Plant.BESSPowerKW, "untouched keys survive")
	assert.Equal(t, base.Finance.MRAByYear, out.Finance.MRAByYear)
	assert.Equal(t, 100.0, base.Plant.BESSCapacityKWh, "base is not modified")
}

func TestApply_UnknownPath(t *testing.T) {
	_, err := Apply(baseConfig(), map[string]any{"plant.flux_capacitor": 1})
	require.Error(t, err)
	assert.True(t, model.IsConfigurationError(err))

	_, err = Apply(baseConfig(), map[string]any{"plant.bess_power_kw.x": 1})
	assert.True(t, model.IsConfigurationError(err))
}

func TestApply_NoOverrides(t *testing.T) {
	base := baseConfig()
	out, err := Apply(base, nil)
	require.NoError(t, err)
	assert.Equal(t, base, out)
}

func TestRunner_Evaluate(t *testing.T) {
	cfg := baseConfig()
	cfg.Finance.RevenuePerMWh = 50
	require.NoError(t, cfg.Validate())

	r := NewRunner()
	out, err := r.Evaluate(context.Background(), &cfg, timeline(), map[string]float64{"solar_gen_mwh": 0.2, "discharge_mwh": 0.1})
	require.NoError(t, err)

	require.NotNil(t, out.Dispatch)
	assert.InDelta(t, 0.2, out.Dispatch.Totals.SolarGenMWh, 1e-12)
	require.Len(t, out.Yearly, 2)
	require.NotNil(t, out.Lifetime)
	assert.Equal(t, 2, out.Lifetime.Years)
	require.NotNil(t, out.Finance)
	require.Len(t, out.Comparisons, 2)
	assert.Greater(t, out.MaxPercentError, 0.0, "discharge is capped by the 90% efficiency")
}

func TestRunner_Run(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSink(reg)
	require.NoError(t, err)

	scenarios := []Scenario{
		{Name: "baseline", TruthTotals: map[string]float64{"solar_gen_mwh": 0.2}, TolerancePct: 0.1},
		{Name: "tiny battery", Overrides: map[string]any{"plant.bess_capacity_kwh": 10}},
		{Name: "broken", Overrides: map[string]any{"plant.bess_efficiency": 1.5}},
		{Name: "typo", Overrides: map[string]any{"plant.capacity": 1}},
	}
	r := NewRunner(WithRecorder(sink))
	results, err := r.Run(context.Background(), baseConfig(), timeline(), scenarios)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.NoError(t, results[0].Err)
	assert.True(t, results[0].Passed())
	assert.Equal(t, 0.0, results[0].Outcome.MaxPercentError)

	require.NoError(t, results[1].Err)
	assert.Less(t, results[1].Outcome.Dispatch.Totals.DischargeMWh, results[0].Outcome.Dispatch.Totals.DischargeMWh)

	assert.True(t, model.IsConfigurationError(results[2].Err))
	assert.False(t, results[2].Passed())
	assert.True(t, model.IsConfigurationError(results[3].Err))

	var buf bytes.Buffer
	PrintSummary(&buf, results)
	s := buf.String()
	assert.Contains(t, s, "=== Scenario Summary ===")
	assert.Contains(t, s, "- baseline: max error 0.00% (pass)")
	assert.Contains(t, s, "- tiny battery: solar 0.2 MWh")
	assert.Contains(t, s, "- broken: error: ")

	// dispatch/ok, lifetime/ok, scenario/ok, scenario/invalid_config
	assert.Equal(t, 4, testutil.CollectAndCount(reg, "pvbess_simulations_total"))
}

func TestRunner_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := NewRunner().Run(ctx, baseConfig(), timeline(), []Scenario{{Name: "x"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}
