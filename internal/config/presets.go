package config

import "sort"

func ptr[T any](v T) *T { return &v }

var Presets = map[string]map[string]*Config{
	"decay": {
		"fast": {
			Model: "decay", Integrator: "rk4",
			Overrides: map[string]float64{"P": 0.5},
		},
		"slow": {
			Model: "decay", Integrator: "rk4",
			Settings:  SettingsConfig{End: ptr(50.0), Steps: ptr(250)},
			Overrides: map[string]float64{"P": 10},
		},
	},
	"monod": {
		"batch": {
			Model: "monod", Integrator: "rk45",
			Overrides: map[string]float64{"t_feed": 1e9},
		},
		"fedbatch": {
			Model: "monod", Integrator: "rk4",
		},
		"aggressive": {
			Model: "monod", Integrator: "rk4",
			Settings:  SettingsConfig{End: ptr(48.0), Steps: ptr(480)},
			Overrides: map[string]float64{"Kp": 0.5, "Ki": 0.05, "F_max": 0.5, "t_feed": 2},
		},
	},
}

// GetPreset returns a copy of a named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
