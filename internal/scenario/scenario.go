package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"pvbess-model/internal/config"
	"pvbess-model/internal/model"
)

// Scenario is a named set of config overrides, optionally with reference totals
// the run is compared against.
type Scenario struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	// Overrides maps a dotted config path (e.g. plant.bess_capacity_kwh) to its new value.
	Overrides    map[string]any     `yaml:"overrides" json:"overrides"`
	TruthTotals  map[string]float64 `yaml:"truth_totals" json:"truth_totals,omitempty"`
	TolerancePct float64            `yaml:"tolerance_pct" json:"tolerance_pct,omitempty"`

	// Source is the file the scenario was loaded from.
	Source string `yaml:"-" json:"source,omitempty"`
}

// LoadFile reads one scenario. YAML and JSON are both accepted; the name
// defaults to the file stem.
func LoadFile(path string) (Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return Scenario{}, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	sc.Source = path
	return sc, nil
}

// Load reads every *.yaml, *.yml and *.json scenario in dir, sorted by file name.
func Load(dir string) ([]Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".json":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}
	sort.Strings(files)

	out := make([]Scenario, 0, len(files))
	for _, f := range files {
		sc, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, nil
}

// Apply returns a copy of base with overrides written at their dotted paths.
// Every path must name an existing config key; an unknown path is a configuration error.
func Apply(base config.Config, overrides map[string]any) (config.Config, error) {
	if len(overrides) == 0 {
		return base, nil
	}
	raw, err := yaml.Marshal(base)
	if err != nil {
		return base, fmt.Errorf("encode base config: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return base, fmt.Errorf("decode base config: %w", err)
	}

	paths := make([]string, 0, len(overrides))
	for p := range overrides {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := setPath(tree, p, overrides[p]); err != nil {
			return base, err
		}
	}

	raw, err = yaml.Marshal(tree)
	if err != nil {
		return base, fmt.Errorf("encode overridden config: %w", err)
	}
	var out config.Config
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return base, model.ConfigErrorf("overrides", "%v", err)
	}
	// an unset MRA table stays unset so ApplyDefaults can fill it
	if base.Finance.MRAByYear == nil && len(out.Finance.MRAByYear) == 0 {
		out.Finance.MRAByYear = nil
	}
	return out, nil
}

func setPath(tree map[string]any, path string, value any) error {
	parts := strings.Split(path, ".")
	node := tree
	for i, key := range parts {
		cur, ok := node[key]
		if !ok {
			return model.ConfigErrorf(path, "unknown config key %q", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			node[key] = value
			return nil
		}
		next, ok := cur.(map[string]any)
		if !ok {
			return model.ConfigErrorf(path, "%q is not a section", strings.Join(parts[:i+1], "."))
		}
		node = next
	}
	return model.ConfigErrorf(path, "empty override path")
}
