package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadTotalsYAML reads a flat `field: value` map of reference yearly totals,
// e.g. `solar_gen_mwh: 123456.7`.
func LoadTotalsYAML(path string) (map[string]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := map[string]float64{}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse totals %s: %w", path, err)
	}
	return out, nil
}
