package disturb

import "sort"

// SweepPreset is the default robustness sweep for an environment.
type SweepPreset struct {
	Description string
	Param       string
	Values      []float64
}

var Presets = map[string]SweepPreset{
	"CartPoleCost": {
		Description: "Pole length disturbance",
		Param:       "length",
		Values:      Linspace(0.1, 4.0, 6),
	},
	"Oscillator": {
		Description: "Protein 1 decay rate disturbance",
		Param:       "c1",
		Values:      Linspace(0.03, 0.12, 4),
	},
	"Ex3EKF": {
		Description: "Packet loss disturbance",
		Param:       "missing_rate",
		Values:      Linspace(0, 0.5, 6),
	},
	"VelocityTracking": {
		Description: "Body mass disturbance",
		Param:       "mass",
		Values:      Linspace(0.5, 2.0, 4),
	},
}

func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
