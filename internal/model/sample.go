package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TariffPeriod is the time-of-day pricing band an hour belongs to.
type TariffPeriod string

const (
	PeriodPeak    TariffPeriod = "peak"
	PeriodNormal  TariffPeriod = "normal"
	PeriodOffPeak TariffPeriod = "offpeak"
)

// ParseTariffPeriod accepts the long names as well as the single-letter tags
// used by the source workbook (P / N / O).
func ParseTariffPeriod(s string) (TariffPeriod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "peak", "p":
		return PeriodPeak, nil
	case "normal", "n", "":
		return PeriodNormal, nil
	case "offpeak", "off-peak", "off_peak", "o":
		return PeriodOffPeak, nil
	default:
		return "", fmt.Errorf("unknown tariff period %q", s)
	}
}

func (p TariffPeriod) Valid() bool {
	switch p {
	case PeriodPeak, PeriodNormal, PeriodOffPeak:
		return true
	}
	return false
}

// HourlySample is one input row of the year-one timeline.
// Units: SolarKW and LoadKW are average kW over the step.
type HourlySample struct {
	Timestamp      time.Time    `json:"timestamp"`
	SolarKW        float64      `json:"solar_kw"`
	LoadKW         float64      `json:"load_kw"`
	Period         TariffPeriod `json:"period"`
	AllowDischarge bool         `json:"allow_discharge"`
}

// NewTimeline zips the equal-length parallel arrays delivered by the input
// boundary into an ordered sample sequence.
func NewTimeline(timestamps []time.Time, solarKW, loadKW []float64, periods []TariffPeriod, allowDischarge []bool) ([]HourlySample, error) {
	n := len(timestamps)
	lengths := []struct {
		field string
		n     int
	}{
		{"solar_kw", len(solarKW)},
		{"load_kw", len(loadKW)},
		{"period", len(periods)},
		{"allow_discharge", len(allowDischarge)},
	}
	for _, l := range lengths {
		if l.n != n {
			return nil, ConfigErrorf(l.field, "length %d does not match %d timestamps", l.n, n)
		}
	}

	out := make([]HourlySample, n)
	for i := range timestamps {
		out[i] = HourlySample{
			Timestamp:      timestamps[i],
			SolarKW:        solarKW[i],
			LoadKW:         loadKW[i],
			Period:         periods[i],
			AllowDischarge: allowDischarge[i],
		}
	}
	return out, nil
}

// ValidateTimeline checks ordering, fixed step and value ranges.
func ValidateTimeline(samples []HourlySample, stepHours float64) error {
	if len(samples) == 0 {
		return ConfigErrorf("timeline", "no samples")
	}
	step := time.Duration(stepHours * float64(time.Hour))
	for i, s := range samples {
		if math.IsNaN(s.SolarKW) || math.IsInf(s.SolarKW, 0) || s.SolarKW < 0 {
			return ConfigErrorAt("solar_kw", i, "must be finite and >= 0, got %v", s.SolarKW)
		}
		if math.IsNaN(s.LoadKW) || math.IsInf(s.LoadKW, 0) || s.LoadKW < 0 {
			return ConfigErrorAt("load_kw", i, "must be finite and >= 0, got %v", s.LoadKW)
		}
		if !s.Period.Valid() {
			return ConfigErrorAt("period", i, "unknown tariff period %q", s.Period)
		}
		if i == 0 {
			continue
		}
		prev := samples[i-1].Timestamp
		if !s.Timestamp.After(prev) {
			return ConfigErrorAt("timestamp", i, "not strictly increasing (%s after %s)",
				s.Timestamp.Format(time.RFC3339), prev.Format(time.RFC3339))
		}
		if d := s.Timestamp.Sub(prev); absDuration(d-step) > time.Second {
			return ConfigErrorAt("timestamp", i, "step %s does not match step_hours %g", d, stepHours)
		}
	}
	return nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
