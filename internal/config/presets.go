package config

import "sort"

var Presets = map[string]map[string]*Config{
	"Oscillator": {
		"open-loop": {
			Env: "Oscillator", Policy: "none", Episodes: 1, ClipAction: true,
		},
		"pid": {
			Env: "Oscillator", Policy: "pid", Episodes: 3, ClipAction: true,
			PolicyParams: PolicyConfig{Kp: 0.5, Ki: 0.01, Kd: 0},
		},
		"noisy": {
			Env: "Oscillator", Policy: "random", Episodes: 5, ClipAction: true,
			Params: map[string]float64{"delta1": 0.1, "delta4": 0.1},
		},
	},
	"Ex3EKF": {
		"nominal": {
			Env: "Ex3EKF", Policy: "none", Episodes: 3, ClipAction: true,
		},
		"lossy": {
			Env: "Ex3EKF", Policy: "none", Episodes: 3, ClipAction: true,
			Params: map[string]float64{"missing_rate": 0.3},
		},
		"disturbed": {
			Env: "Ex3EKF", Policy: "none", Episodes: 3, ClipAction: true,
			Disturbance: DisturbanceConfig{Kind: "noise", Std: 0.05},
		},
	},
	"CartPoleCost": {
		"balance": {
			Env: "CartPoleCost", Integrator: "euler", Policy: "lqr", Episodes: 5, ClipAction: true,
		},
		"freefall": {
			Env: "CartPoleCost", Integrator: "euler", Policy: "none", Episodes: 5, ClipAction: true,
		},
		"long-pole": {
			Env: "CartPoleCost", Integrator: "semi-implicit", Policy: "lqr", Episodes: 5, ClipAction: true,
			Params: map[string]float64{"length": 1.0},
		},
		"shaped": {
			Env: "CartPoleCost", Integrator: "euler", Policy: "lqr", Episodes: 5, ClipAction: true,
			CostType: "reference",
		},
	},
	"VelocityTracking": {
		"hover": {
			Env: "VelocityTracking", Integrator: "rk4", Policy: "lqr", Episodes: 3, ClipAction: true,
		},
		"random": {
			Env: "VelocityTracking", Integrator: "euler", Policy: "random", Episodes: 3, ClipAction: true,
		},
		"kick": {
			Env: "VelocityTracking", Integrator: "rk4", Policy: "lqr", Episodes: 3, ClipAction: true,
			Disturbance: DisturbanceConfig{Kind: "impulse", Magnitude: 0.5, Period: 50},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(env, preset string) *Config {
	envPresets, ok := Presets[env]
	if !ok {
		return nil
	}
	cfg, ok := envPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(env string) []string {
	envPresets, ok := Presets[env]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(envPresets))
	for name := range envPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
