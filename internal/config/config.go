package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel      = "decay"
	DefaultIntegrator = "rk4"
	DefaultLogLevel   = "info"
)

// Settings keys as understood by the simulator's settings table.
const (
	keyStart = "Ti"
	keyEnd   = "Tf"
	keySteps = "n"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Model string `yaml:"model"`
	// Resources is a directory of CSV files replacing the model's built-in ones.
	Resources  string         `yaml:"resources,omitempty"`
	Integrator string         `yaml:"integrator"`
	Settings   SettingsConfig `yaml:"settings,omitempty"`
	// Overrides sets any parameter, manipulated variable, controller
	// variable or setting by identifier before the run.
	Overrides     map[string]float64 `yaml:"overrides,omitempty"`
	ResetAfterRun bool               `yaml:"reset_after_run"`
	LogLevel      string             `yaml:"log_level"`
	MetricsAddr   string             `yaml:"metrics_addr,omitempty"`
}

// SettingsConfig overrides the model's time grid. Nil fields keep the
// model's own values.
type SettingsConfig struct {
	Start *float64 `yaml:"start,omitempty"`
	End   *float64 `yaml:"end,omitempty"`
	Steps *int     `yaml:"steps,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:      DefaultModel,
		Integrator: DefaultIntegrator,
		LogLevel:   DefaultLogLevel,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model is required", ErrInvalid)
	}
	if c.Settings.Steps != nil && *c.Settings.Steps <= 0 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalid, *c.Settings.Steps)
	}
	if c.Settings.Start != nil && c.Settings.End != nil && *c.Settings.End <= *c.Settings.Start {
		return fmt.Errorf("%w: end %g must be after start %g", ErrInvalid, *c.Settings.End, *c.Settings.Start)
	}
	return nil
}

// Inputs merges the settings block into the overrides, keyed the way the
// session expects. Settings win over an override of the same key.
func (c *Config) Inputs() map[string]float64 {
	out := make(map[string]float64, len(c.Overrides)+3)
	for id, v := range c.Overrides {
		out[id] = v
	}
	if c.Settings.Start != nil {
		out[keyStart] = *c.Settings.Start
	}
	if c.Settings.End != nil {
		out[keyEnd] = *c.Settings.End
	}
	if c.Settings.Steps != nil {
		out[keySteps] = float64(*c.Settings.Steps)
	}
	return out
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	if c.Overrides != nil {
		out.Overrides = make(map[string]float64, len(c.Overrides))
		for id, v := range c.Overrides {
			out.Overrides[id] = v
		}
	}
	out.Settings = SettingsConfig{
		Start: clonePtr(c.Settings.Start),
		End:   clonePtr(c.Settings.End),
		Steps: clonePtr(c.Settings.Steps),
	}
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
