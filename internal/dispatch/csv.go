package dispatch

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

// HourlyCSVHeader is the column order of the hourly ledger. The names double as
// the keys accepted by the hourly truth loader.
var HourlyCSVHeader = []string{
	"index",
	"timestamp",
	"period",
	"action",
	"solar_kw",
	"load_kw",
	"direct_pv_consumption_kw",
	"power_surplus_kw",
	"residual_load_kw",
	"discharge_permitted",
	"charge_energy_kwh",
	"discharge_energy_kwh",
	"soc_start_kwh",
	"soc_kwh",
	"grid_import_kw",
	"grid_export_kw",
}

func WriteHourlyCSV(path string, hourly []HourlyResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeHourlyCSV(f, hourly)
}

// EncodeHourlyCSV writes the ledger to any writer (files, HTTP responses).
func EncodeHourlyCSV(out io.Writer, hourly []HourlyResult) error {
	w := csv.NewWriter(out)
	if err := w.Write(HourlyCSVHeader); err != nil {
		return err
	}

	for _, r := range hourly {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Timestamp),
			string(r.Period),
			string(r.Action),
			fmtFloat(r.SolarKW),
			fmtFloat(r.LoadKW),
			fmtFloat(r.DirectPVConsumptionKW),
			fmtFloat(r.PowerSurplusKW),
			fmtFloat(r.ResidualLoadKW),
			strconv.FormatBool(r.DischargePermitted),
			fmtFloat(r.ChargeEnergyKWh),
			fmtFloat(r.DischargeEnergyKWh),
			fmtFloat(r.SOCStartKWh),
			fmtFloat(r.SOCKWh),
			fmtFloat(r.GridImportKW),
			fmtFloat(r.GridExportKW),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// HourlyFields returns the numeric columns of a row keyed by CSV header name.
func HourlyFields(r HourlyResult) map[string]float64 {
	return map[string]float64{
		"solar_kw":                 r.SolarKW,
		"load_kw":                  r.LoadKW,
		"direct_pv_consumption_kw": r.DirectPVConsumptionKW,
		"power_surplus_kw":         r.PowerSurplusKW,
		"residual_load_kw":         r.ResidualLoadKW,
		"charge_energy_kwh":        r.ChargeEnergyKWh,
		"discharge_energy_kwh":     r.DischargeEnergyKWh,
		"soc_start_kwh":            r.SOCStartKWh,
		"soc_kwh":                  r.SOCKWh,
		"grid_import_kw":           r.GridImportKW,
		"grid_export_kw":           r.GridExportKW,
	}
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
