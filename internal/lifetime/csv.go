package lifetime

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"pvbess-model/internal/model"
)

var YearlyCSVHeader = []string{
	"year",
	"pv_factor",
	"bess_factor",
	"bess_capacity_kwh",
	"bess_efficiency",
	"augmented",
	"solar_gen_mwh",
	"load_mwh",
	"direct_consumption_mwh",
	"surplus_mwh",
	"charge_mwh",
	"discharge_mwh",
	"grid_import_mwh",
	"grid_export_mwh",
	"battery_loss_mwh",
	"equivalent_cycles",
}

func WriteYearlyCSV(path string, yearly []model.YearlyRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeYearlyCSV(f, yearly)
}

func EncodeYearlyCSV(out io.Writer, yearly []model.YearlyRecord) error {
	w := csv.NewWriter(out)
	if err := w.Write(YearlyCSVHeader); err != nil {
		return err
	}
	for _, r := range yearly {
		row := []string{
			strconv.Itoa(r.Year),
			fmtFloat(r.PVFactor),
			fmtFloat(r.BESSFactor),
			fmtFloat(r.BESSCapacityKWh),
			fmtFloat(r.BESSEfficiency),
			strconv.FormatBool(r.Augmented),
			fmtFloat(r.SolarGenMWh),
			fmtFloat(r.LoadMWh),
			fmtFloat(r.DirectConsumptionMWh),
			fmtFloat(r.SurplusMWh),
			fmtFloat(r.ChargeMWh),
			fmtFloat(r.DischargeMWh),
			fmtFloat(r.GridImportMWh),
			fmtFloat(r.GridExportMWh),
			fmtFloat(r.BatteryLossMWh),
			fmtFloat(r.EquivalentCycles),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
