package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pvbess-model/internal/model"
)

// LoadTimeline dispatches on the file extension (.csv or .json).
func LoadTimeline(path string) ([]model.HourlySample, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadTimelineCSV(path)
	case ".json":
		return LoadTimelineJSON(path)
	default:
		return nil, fmt.Errorf("unsupported timeline format %q (want .csv or .json)", filepath.Ext(path))
	}
}

func LoadTimelineCSV(path string) ([]model.HourlySample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeTimelineCSV(f)
}

// DecodeTimelineCSV reads columns timestamp, solar_kw, load_kw and the optional
// period and allow_discharge. Header names are case-insensitive.
func DecodeTimelineCSV(r io.Reader) ([]model.HourlySample, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read timeline header: %w", err)
	}
	cols := indexHeader(header)
	for _, required := range []string{"timestamp", "solar_kw", "load_kw"} {
		if _, ok := cols[required]; !ok {
			return nil, model.ConfigErrorf(required, "missing column in timeline csv")
		}
	}

	var out []model.HourlySample
	for i := 0; ; i++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read timeline row %d: %w", i, err)
		}

		ts, err := ParseTimestamp(rec[cols["timestamp"]])
		if err != nil {
			return nil, model.ConfigErrorAt("timestamp", i, "%v", err)
		}
		solar, err := parseFloat(rec[cols["solar_kw"]])
		if err != nil {
			return nil, model.ConfigErrorAt("solar_kw", i, "%v", err)
		}
		load, err := parseFloat(rec[cols["load_kw"]])
		if err != nil {
			return nil, model.ConfigErrorAt("load_kw", i, "%v", err)
		}
		period := model.PeriodNormal
		if c, ok := cols["period"]; ok {
			if period, err = model.ParseTariffPeriod(rec[c]); err != nil {
				return nil, model.ConfigErrorAt("period", i, "%v", err)
			}
		}
		allow := true
		if c, ok := cols["allow_discharge"]; ok && strings.TrimSpace(rec[c]) != "" {
			if allow, err = parseBool(rec[c]); err != nil {
				return nil, model.ConfigErrorAt("allow_discharge", i, "%v", err)
			}
		}

		out = append(out, model.HourlySample{
			Timestamp:      ts,
			SolarKW:        solar,
			LoadKW:         load,
			Period:         period,
			AllowDischarge: allow,
		})
	}
	return out, nil
}

// HourlyTruth holds reference hourly columns keyed by ledger column name.
type HourlyTruth map[string][]float64

// Len is the row count of the longest column.
func (h HourlyTruth) Len() int {
	n := 0
	for _, v := range h {
		if len(v) > n {
			n = len(v)
		}
	}
	return n
}

// LoadTruthCSV reads every numeric column of a reference hourly export.
// Non-numeric columns (timestamp, period, action) are skipped.
func LoadTruthCSV(path string) (HourlyTruth, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeTruthCSV(f)
}

func DecodeTruthCSV(r io.Reader) (HourlyTruth, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read truth csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, model.ConfigErrorf("truth", "empty csv")
	}
	header := rows[0]
	numeric := make([]bool, len(header))
	for c := range header {
		numeric[c] = true
		for _, row := range rows[1:] {
			if c >= len(row) || strings.TrimSpace(row[c]) == "" {
				continue
			}
			if _, err := parseFloat(row[c]); err != nil {
				numeric[c] = false
				break
			}
		}
	}

	out := HourlyTruth{}
	for c, name := range header {
		if !numeric[c] {
			continue
		}
		key := normaliseName(name)
		vals := make([]float64, 0, len(rows)-1)
		for _, row := range rows[1:] {
			v := 0.0
			if c < len(row) && strings.TrimSpace(row[c]) != "" {
				v, _ = parseFloat(row[c])
			}
			vals = append(vals, v)
		}
		out[key] = vals
	}
	return out, nil
}

func indexHeader(header []string) map[string]int {
	out := make(map[string]int, len(header))
	for i, h := range header {
		out[normaliseName(h)] = i
	}
	return out
}

func normaliseName(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.TrimSpace(s))
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
