package lifetime

import "pvbess-model/internal/model"

// Summary condenses a lifetime table for reports and API responses.
type Summary struct {
	Years                int     `json:"years"`
	TotalSolarGenMWh     float64 `json:"total_solar_gen_mwh"`
	TotalDischargeMWh    float64 `json:"total_discharge_mwh"`
	TotalGridImportMWh   float64 `json:"total_grid_import_mwh"`
	TotalGridExportMWh   float64 `json:"total_grid_export_mwh"`
	Year1SolarGenMWh     float64 `json:"year1_solar_gen_mwh"`
	FinalYearSolarGenMWh float64 `json:"final_year_solar_gen_mwh"`
	AugmentationYears    []int   `json:"augmentation_years,omitempty"`
}

func Summarize(yearly []model.YearlyRecord) Summary {
	s := Summary{Years: len(yearly)}
	if len(yearly) == 0 {
		return s
	}
	for _, r := range yearly {
		s.TotalSolarGenMWh += r.SolarGenMWh
		s.TotalDischargeMWh += r.DischargeMWh
		s.TotalGridImportMWh += r.GridImportMWh
		s.TotalGridExportMWh += r.GridExportMWh
		if r.Augmented {
			s.AugmentationYears = append(s.AugmentationYears, r.Year)
		}
	}
	s.Year1SolarGenMWh = yearly[0].SolarGenMWh
	s.FinalYearSolarGenMWh = yearly[len(yearly)-1].SolarGenMWh
	return s
}
