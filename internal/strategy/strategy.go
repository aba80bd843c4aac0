package strategy

import "pvbess-model/internal/model"

// Policy gates the discharge branch of the dispatch simulator for one hour.
// Implementations are pure: they never see or mutate battery state.
type Policy interface {
	Name() string
	AllowDischarge(sample model.HourlySample) bool
}

// ResolveDischargePermission compiles the plant's policy and evaluates it for a
// single sample. The engine compiles once per run instead of calling this per hour.
func ResolveDischargePermission(sample model.HourlySample, plant model.PlantConfig) (bool, error) {
	p, err := Compile(plant)
	if err != nil {
		return false, err
	}
	return p.AllowDischarge(sample), nil
}

// vetoed wraps a policy so that the sample's own flag is always a hard veto.
type vetoed struct {
	inner Policy
}

func (v vetoed) Name() string { return v.inner.Name() }

func (v vetoed) AllowDischarge(s model.HourlySample) bool {
	if !s.AllowDischarge {
		return false
	}
	return v.inner.AllowDischarge(s)
}
