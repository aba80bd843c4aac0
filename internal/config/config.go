package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"pvbess-model/internal/finance"
	"pvbess-model/internal/model"
	"pvbess-model/internal/strategy"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Optional: load plant parameters from a separate YAML (e.g. plants/*.yaml).
	// If both PlantFile and Plant are provided, non-zero Plant fields override PlantFile.
	PlantFile string         `yaml:"plant_file"`
	Plant     PlantConfig    `yaml:"plant"`
	Timeline  TimelineConfig `yaml:"timeline"`
	Lifetime  LifetimeConfig `yaml:"lifetime"`
	Finance   FinanceConfig  `yaml:"finance"`
	Logging   LoggingConfig  `yaml:"logging"`
}

type PlantConfig struct {
	Name            string                `yaml:"name" json:"name"`
	StepHours       float64               `yaml:"step_hours" json:"step_hours"`
	BESSCapacityKWh float64               `yaml:"bess_capacity_kwh" json:"bess_capacity_kwh"`
	BESSPowerKW     float64               `yaml:"bess_power_kw" json:"bess_power_kw"`
	BESSEfficiency  float64               `yaml:"bess_efficiency" json:"bess_efficiency"`
	MinSOCKWh       float64               `yaml:"min_soc_kwh" json:"min_soc_kwh"`
	InitialSOCKWh   float64               `yaml:"initial_soc_kwh" json:"initial_soc_kwh"`
	CAPeak          float64               `yaml:"ca_peak" json:"ca_peak"`
	CANormal        float64               `yaml:"ca_normal" json:"ca_normal"`
	CAOffPeak       float64               `yaml:"ca_offpeak" json:"ca_offpeak"`
	StrategyMode    int                   `yaml:"strategy_mode" json:"strategy_mode"`
	DischargeWindow model.DischargeWindow `yaml:"discharge_window" json:"discharge_window"`
}

type TimelineConfig struct {
	// File is a CSV or JSON hourly timeline; relative paths resolve against the config file.
	File string `yaml:"file"`
}

type LifetimeConfig struct {
	HorizonYears              int                       `yaml:"horizon_years" json:"horizon_years"`
	PVDegradation             []float64                 `yaml:"pv_degradation" json:"pv_degradation"`
	BESSDegradation           []float64                 `yaml:"bess_degradation" json:"bess_degradation"`
	BESSEfficiencyDegradation []float64                 `yaml:"bess_efficiency_degradation" json:"bess_efficiency_degradation,omitempty"`
	Augmentation              []model.AugmentationEvent `yaml:"augmentation" json:"augmentation,omitempty"`
}

type FinanceConfig struct {
	RevenuePerMWh float64 `yaml:"revenue_per_mwh" json:"revenue_per_mwh"`

	finance.Config `yaml:",inline"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a config with the finance and logging defaults filled in.
// The MRA table is left nil so a configured table replaces the default instead of
// merging into it; ApplyDefaults fills it when absent.
func Default() Config {
	fin := finance.DefaultConfig()
	fin.MRAByYear = nil
	return Config{
		Finance: FinanceConfig{Config: fin},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c.Timeline.File = resolveRelative(path, c.Timeline.File)
	// If plant_file is set, load it and merge in any explicit overrides from c.Plant.
	if c.PlantFile != "" {
		loaded, err := LoadPlantFile(resolveRelative(path, c.PlantFile))
		if err != nil {
			return nil, err
		}
		c.Plant = MergePlant(loaded, c.Plant)
	}
	return c, nil
}

// Parse decodes YAML on top of Default().
func Parse(raw []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// resolveRelative prefers interpreting p relative to the config file directory,
// falling back to p itself (relative to cwd) when that does not exist.
func resolveRelative(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	cand := filepath.Join(filepath.Dir(configPath), p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

// ApplyDefaults fills values that are allowed to be omitted.
func (c *Config) ApplyDefaults() {
	if c.Plant.StepHours == 0 {
		c.Plant.StepHours = 1
	}
	// If initial_soc_kwh is not provided, default it to min_soc_kwh.
	if c.Plant.InitialSOCKWh == 0 {
		c.Plant.InitialSOCKWh = c.Plant.MinSOCKWh
	}
	if c.Lifetime.HorizonYears == 0 {
		c.Lifetime.HorizonYears = len(c.Lifetime.PVDegradation)
	}
	if c.Finance.MRAByYear == nil {
		c.Finance.MRAByYear = finance.DefaultMRA()
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	plant := c.Plant.ToModel()
	if err := plant.Validate(); err != nil {
		return fmt.Errorf("plant config invalid: %w", err)
	}
	if _, err := strategy.Compile(plant); err != nil {
		return fmt.Errorf("plant config invalid: %w", err)
	}
	if c.HasLifetime() {
		if err := c.Lifetime.Degradation().Validate(c.Lifetime.HorizonYears); err != nil {
			return fmt.Errorf("lifetime config invalid: %w", err)
		}
		if err := c.Lifetime.AugmentationSchedule().Validate(c.Lifetime.HorizonYears); err != nil {
			return fmt.Errorf("lifetime config invalid: %w", err)
		}
	}
	if err := c.Finance.Config.Validate(); err != nil {
		return fmt.Errorf("finance config invalid: %w", err)
	}
	return nil
}

// HasLifetime reports whether a multi-year run is configured.
func (c *Config) HasLifetime() bool {
	return c.Lifetime.HorizonYears > 0
}

func (p PlantConfig) ToModel() model.PlantConfig {
	return model.PlantConfig{
		StepHours:       p.StepHours,
		BESSCapacityKWh: p.BESSCapacityKWh,
		BESSPowerKW:     p.BESSPowerKW,
		BESSEfficiency:  p.BESSEfficiency,
		MinSOCKWh:       p.MinSOCKWh,
		InitialSOCKWh:   p.InitialSOCKWh,
		CAPeak:          p.CAPeak,
		CANormal:        p.CANormal,
		CAOffPeak:       p.CAOffPeak,
		StrategyMode:    model.StrategyMode(p.StrategyMode),
		DischargeWindow: p.DischargeWindow,
	}
}

func (l LifetimeConfig) Degradation() model.DegradationSchedule {
	return model.DegradationSchedule{
		PV:             l.PVDegradation,
		BESS:           l.BESSDegradation,
		BESSEfficiency: l.BESSEfficiencyDegradation,
	}
}

func (l LifetimeConfig) AugmentationSchedule() model.AugmentationSchedule {
	return model.AugmentationSchedule(l.Augmentation)
}

type plantFileWrapper struct {
	Plant PlantConfig `yaml:"plant"`
}

// LoadPlantFile reads a preset file of the form `plant: {...}`.
func LoadPlantFile(path string) (PlantConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return PlantConfig{}, err
	}
	var w plantFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return PlantConfig{}, fmt.Errorf("parse plant file %s: %w", path, err)
	}
	return w.Plant, nil
}

// MergePlant overlays non-zero fields from override onto base.
// This is used when loading a plant file and then applying overrides from the config or request.
func MergePlant(base, override PlantConfig) PlantConfig {
	out := base
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.StepHours != 0 {
		out.StepHours = override.StepHours
	}
	if override.BESSCapacityKWh != 0 {
		out.BESSCapacityKWh = override.BESSCapacityKWh
	}
	if override.BESSPowerKW != 0 {
		out.BESSPowerKW = override.BESSPowerKW
	}
	if override.BESSEfficiency != 0 {
		out.BESSEfficiency = override.BESSEfficiency
	}
	// Note: a zero reserve or initial SOC cannot be expressed as an override.
	if override.MinSOCKWh != 0 {
		out.MinSOCKWh = override.MinSOCKWh
	}
	if override.InitialSOCKWh != 0 {
		out.InitialSOCKWh = override.InitialSOCKWh
	}
	if override.CAPeak != 0 {
		out.CAPeak = override.CAPeak
	}
	if override.CANormal != 0 {
		out.CANormal = override.CANormal
	}
	if override.CAOffPeak != 0 {
		out.CAOffPeak = override.CAOffPeak
	}
	if override.StrategyMode != 0 {
		out.StrategyMode = override.StrategyMode
	}
	if override.DischargeWindow.Start != "" {
		out.DischargeWindow = override.DischargeWindow
	}
	return out
}
