package model

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func validPlant() PlantConfig {
	return PlantConfig{
		StepHours:       1,
		BESSCapacityKWh: 100,
		BESSPowerKW:     50,
		BESSEfficiency:  0.9,
		CAPeak:          1,
		CANormal:        0.5,
		CAOffPeak:       0.1,
	}
}

func TestNewTimeline_LengthMismatch(t *testing.T) {
	ts := []time.Time{t0, t0.Add(time.Hour)}
	_, err := NewTimeline(ts, []float64{1, 2}, []float64{1}, []TariffPeriod{PeriodPeak, PeriodPeak}, []bool{true, true})
	require.Error(t, err)

	var ce *ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "load_kw", ce.Field)
}

func TestNewTimeline_Zips(t *testing.T) {
	ts := []time.Time{t0, t0.Add(time.Hour)}
	got, err := NewTimeline(ts, []float64{10, 20}, []float64{5, 6}, []TariffPeriod{PeriodPeak, PeriodOffPeak}, []bool{true, false})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 20.0, got[1].SolarKW)
	assert.Equal(t, PeriodOffPeak, got[1].Period)
	assert.False(t, got[1].AllowDischarge)
}

func TestValidateTimeline(t *testing.T) {
	good := []HourlySample{
		{Timestamp: t0, Period: PeriodNormal},
		{Timestamp: t0.Add(time.Hour), Period: PeriodPeak},
	}
	assert.NoError(t, ValidateTimeline(good, 1))

	cases := map[string]struct {
		samples []HourlySample
		field   string
	}{
		"empty": {nil, "timeline"},
		"non monotonic": {[]HourlySample{
			{Timestamp: t0.Add(time.Hour), Period: PeriodNormal},
			{Timestamp: t0, Period: PeriodNormal},
		}, "timestamp"},
		"step mismatch": {[]HourlySample{
			{Timestamp: t0, Period: PeriodNormal},
			{Timestamp: t0.Add(2 * time.Hour), Period: PeriodNormal},
		}, "timestamp"},
		"negative solar": {[]HourlySample{{Timestamp: t0, SolarKW: -1, Period: PeriodNormal}}, "solar_kw"},
		"nan load":       {[]HourlySample{{Timestamp: t0, LoadKW: math.NaN(), Period: PeriodNormal}}, "load_kw"},
		"bad period":     {[]HourlySample{{Timestamp: t0, Period: "shoulder"}}, "period"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := ValidateTimeline(tc.samples, 1)
			var ce *ConfigurationError
			require.True(t, errors.As(err, &ce), "expected configuration error, got %v", err)
			assert.Equal(t, tc.field, ce.Field)
		})
	}
}

func TestParseTariffPeriod(t *testing.T) {
	for in, want := range map[string]TariffPeriod{
		"P": PeriodPeak, "peak": PeriodPeak, "N": PeriodNormal, "off-peak": PeriodOffPeak, "o": PeriodOffPeak,
	} {
		got, err := ParseTariffPeriod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseTariffPeriod("shoulder")
	assert.Error(t, err)
}

func TestPlantConfig_Validate(t *testing.T) {
	assert.NoError(t, validPlant().Validate())

	zeroCap := validPlant()
	zeroCap.BESSCapacityKWh = 0
	assert.NoError(t, zeroCap.Validate(), "a plant without storage is valid")

	mutations := map[string]func(*PlantConfig){
		"step":       func(p *PlantConfig) { p.StepHours = 0 },
		"efficiency": func(p *PlantConfig) { p.BESSEfficiency = 1.2 },
		"min soc":    func(p *PlantConfig) { p.MinSOCKWh = 200 },
		"initial":    func(p *PlantConfig) { p.MinSOCKWh = 10; p.InitialSOCKWh = 5 },
		"power":      func(p *PlantConfig) { p.BESSPowerKW = -1 },
		"inf weight": func(p *PlantConfig) { p.CAPeak = math.Inf(1) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			p := validPlant()
			mutate(&p)
			assert.True(t, IsConfigurationError(p.Validate()))
		})
	}
}

func TestPlantConfig_Degraded(t *testing.T) {
	p := validPlant()
	p.MinSOCKWh = 10
	p.InitialSOCKWh = 20

	d := p.Degraded(0.8, 0.95)
	assert.InDelta(t, 80, d.BESSCapacityKWh, 1e-9)
	assert.InDelta(t, 8, d.MinSOCKWh, 1e-9)
	assert.InDelta(t, 16, d.InitialSOCKWh, 1e-9)
	assert.InDelta(t, 0.855, d.BESSEfficiency, 1e-9)
	assert.Equal(t, p.BESSPowerKW, d.BESSPowerKW)
	assert.NoError(t, d.Validate())
}

func TestDegradationSchedule_Validate(t *testing.T) {
	d := DegradationSchedule{PV: []float64{1, 0.99, 0.98}, BESS: []float64{1, 0.97, 0.94}}
	assert.NoError(t, d.Validate(3))
	assert.True(t, IsConfigurationError(d.Validate(4)), "short schedule")

	d.BESSEfficiency = []float64{1}
	assert.True(t, IsConfigurationError(d.Validate(3)), "short optional schedule")

	d.BESSEfficiency = nil
	d.PV[1] = 0
	assert.True(t, IsConfigurationError(d.Validate(3)), "zero factor")
}

func TestAugmentationSchedule_Validate(t *testing.T) {
	a := AugmentationSchedule{{Year: 5, RestoredFraction: 1}}
	assert.NoError(t, a.Validate(10))
	assert.True(t, IsConfigurationError(a.Validate(4)))

	dup := AugmentationSchedule{{Year: 5, RestoredFraction: 1}, {Year: 5, RestoredFraction: 0.9}}
	assert.True(t, IsConfigurationError(dup.Validate(10)))

	bad := AugmentationSchedule{{Year: 2, RestoredFraction: 1.5}}
	assert.True(t, IsConfigurationError(bad.Validate(10)))

	ev, ok := a.EventFor(5)
	assert.True(t, ok)
	assert.Equal(t, 1.0, ev.RestoredFraction)
	_, ok = a.EventFor(6)
	assert.False(t, ok)
}

func TestActionFromEnergy(t *testing.T) {
	assert.Equal(t, ActionCharging, ActionFromEnergy(1, 0))
	assert.Equal(t, ActionDischarging, ActionFromEnergy(0, 1))
	assert.Equal(t, ActionIdle, ActionFromEnergy(0, 0))
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, ConfigErrorAt("load_kw", 3, "bad").Error(), "load_kw[3]")
	ie := &InternalConsistencyError{Year: 2, Hour: 7, Invariant: "soc_range", Detail: "x"}
	assert.Contains(t, ie.Error(), "year 2 hour 7")
	assert.True(t, IsInternalConsistencyError(ie))
}
