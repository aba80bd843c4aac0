package data

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"pvbess-model/internal/model"
)

// TimelineDocument is the JSON shape of an hourly timeline file:
//
//	{"step_hours": 1, "data": [{"timestamp": "...", "solar_kw": 0, "load_kw": 12.5, "period": "P"}]}
type TimelineDocument struct {
	StepHours float64       `json:"step_hours,omitempty"`
	Data      []timelineRow `json:"data"`
}

type timelineRow struct {
	Timestamp      string  `json:"timestamp"`
	SolarKW        float64 `json:"solar_kw"`
	LoadKW         float64 `json:"load_kw"`
	Period         string  `json:"period"`
	AllowDischarge *bool   `json:"allow_discharge,omitempty"`
}

func LoadTimelineJSON(path string) ([]model.HourlySample, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeTimelineJSON(raw)
}

// DecodeTimelineJSON accepts either a TimelineDocument or a bare array of rows.
// A missing allow_discharge defaults to true.
func DecodeTimelineJSON(raw []byte) ([]model.HourlySample, error) {
	var doc TimelineDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		var rows []timelineRow
		if errArr := json.Unmarshal(raw, &rows); errArr != nil {
			return nil, fmt.Errorf("decode timeline json: %w", err)
		}
		doc.Data = rows
	}

	out := make([]model.HourlySample, 0, len(doc.Data))
	for i, r := range doc.Data {
		ts, err := ParseTimestamp(r.Timestamp)
		if err != nil {
			return nil, model.ConfigErrorAt("timestamp", i, "%v", err)
		}
		period, err := model.ParseTariffPeriod(r.Period)
		if err != nil {
			return nil, model.ConfigErrorAt("period", i, "%v", err)
		}
		allow := true
		if r.AllowDischarge != nil {
			allow = *r.AllowDischarge
		}
		out = append(out, model.HourlySample{
			Timestamp:      ts,
			SolarKW:        r.SolarKW,
			LoadKW:         r.LoadKW,
			Period:         period,
			AllowDischarge: allow,
		})
	}
	return out, nil
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"01/02/2006 15:04",
}

// ParseTimestamp accepts RFC3339 and the common spreadsheet export layouts.
// Layouts without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
