package strategy

import (
	"fmt"
	"sort"
	"sync"

	"pvbess-model/internal/model"
)

const (
	ModeUnrestricted model.StrategyMode = 0
	ModeTopTier      model.StrategyMode = 1
	ModeSkipCheapest model.StrategyMode = 2
	ModeWindow       model.StrategyMode = 3
)

// Factory builds a policy from the plant configuration. It returns a
// ConfigurationError when the plant lacks what the policy needs.
type Factory func(plant model.PlantConfig) (Policy, error)

// Entry describes one row of the policy table.
type Entry struct {
	Mode        model.StrategyMode
	Name        string
	Description string
	Factory     Factory
}

var (
	mu    sync.RWMutex
	table = map[model.StrategyMode]Entry{}
)

func init() {
	Register(Entry{
		Mode:        ModeUnrestricted,
		Name:        "unrestricted",
		Description: "Discharge whenever the hour's allow-discharge flag permits it; no tariff bias.",
		Factory:     func(model.PlantConfig) (Policy, error) { return unrestricted{}, nil },
	})
	Register(Entry{
		Mode:        ModeTopTier,
		Name:        "top-tier",
		Description: "Discharge only in the tariff periods carrying the highest ca_* weight.",
		Factory:     newTopTier,
	})
	Register(Entry{
		Mode:        ModeSkipCheapest,
		Name:        "skip-cheapest",
		Description: "Discharge in every tariff period except those carrying the lowest ca_* weight.",
		Factory:     newSkipCheapest,
	})
	Register(Entry{
		Mode:        ModeWindow,
		Name:        "window",
		Description: "Discharge only inside the plant's daily discharge window (HH:MM, may wrap midnight).",
		Factory:     newWindow,
	})
}

// Register adds or replaces a policy table entry.
func Register(e Entry) {
	if e.Factory == nil {
		panic(fmt.Sprintf("strategy: nil factory for mode %d", e.Mode))
	}
	mu.Lock()
	defer mu.Unlock()
	table[e.Mode] = e
}

// Entries lists the registered policies ordered by mode.
func Entries() []Entry {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Entry, 0, len(table))
	for _, e := range table {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Mode < out[j].Mode })
	return out
}

// Compile resolves the plant's strategy mode into a policy that already
// applies the per-sample hard veto.
func Compile(plant model.PlantConfig) (Policy, error) {
	mu.RLock()
	e, ok := table[plant.StrategyMode]
	mu.RUnlock()
	if !ok {
		return nil, model.ConfigErrorf("strategy_mode", "no dispatch policy registered for mode %d", plant.StrategyMode)
	}
	p, err := e.Factory(plant)
	if err != nil {
		return nil, err
	}
	return vetoed{inner: p}, nil
}
