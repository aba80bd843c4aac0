package model

// ScenarioInputs is the canonical "inputs to the system" object: everything the
// dispatch simulator and the lifetime expander consume for one scenario.
type ScenarioInputs struct {
	Timeline     []HourlySample
	Plant        PlantConfig
	Degradation  DegradationSchedule
	Augmentation AugmentationSchedule
	HorizonYears int
}
