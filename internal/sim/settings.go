package sim

import (
	"fmt"
	"math"

	"github.com/mitchellh/mapstructure"
	"github.com/san-kum/rmsim/internal/variables"
)

// Settings identifiers as they appear in simulator_vars.csv.
const (
	SettingStart = "Ti"
	SettingEnd   = "Tf"
	SettingSteps = "n"
	// SettingStep is the derived step size exposed to hooks.
	SettingStep = "dt"
)

const (
	DefaultStart = 0.0
	DefaultEnd   = 10.0
	DefaultSteps = 100
)

// Settings describes the time grid of a run.
type Settings struct {
	Start float64 `mapstructure:"Ti"`
	End   float64 `mapstructure:"Tf"`
	Steps int     `mapstructure:"n"`
}

func DefaultSettings() Settings {
	return Settings{
		Start: DefaultStart,
		End:   DefaultEnd,
		Steps: DefaultSteps,
	}
}

// DecodeSettings reads a settings table. Identifiers missing from the
// table keep their defaults.
func DecodeSettings(t *variables.Table) (Settings, error) {
	s := DefaultSettings()
	if t == nil {
		return s, nil
	}

	values := t.Values(variables.Current)
	if n, ok := values[SettingSteps]; ok && n != math.Trunc(n) {
		return Settings{}, fmt.Errorf("%w: step count %g is not an integer", ErrInvalidSettings, n)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &s,
	})
	if err != nil {
		return Settings{}, err
	}
	if err := dec.Decode(values); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return s, s.Validate()
}

// Table renders settings as a variable table, for models that ship none.
func (s Settings) Table() *variables.Table {
	t, _ := variables.New([]variables.Record{
		settingRecord(SettingStart, "Start time", s.Start),
		settingRecord(SettingEnd, "End time", s.End),
		settingRecord(SettingSteps, "Number of steps", float64(s.Steps)),
	})
	return t
}

func settingRecord(id, label string, v float64) variables.Record {
	r := variables.NewRecord(id, label, v)
	if id == SettingSteps {
		r.Min = 1
	}
	return r
}

func (s Settings) Validate() error {
	if s.Steps <= 0 {
		return fmt.Errorf("%w: step count must be positive, got %d", ErrInvalidSettings, s.Steps)
	}
	if math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0) {
		return fmt.Errorf("%w: start and end must be finite", ErrInvalidSettings)
	}
	if s.End <= s.Start {
		return fmt.Errorf("%w: end %g must be after start %g", ErrInvalidSettings, s.End, s.Start)
	}
	return nil
}

// StepSize returns (End - Start) / Steps.
func (s Settings) StepSize() float64 {
	return (s.End - s.Start) / float64(s.Steps)
}

// Grid returns the Steps step start times.
func (s Settings) Grid() []float64 {
	dt := s.StepSize()
	grid := make([]float64, s.Steps)
	for k := range grid {
		grid[k] = s.Start + float64(k)*dt
	}
	return grid
}

// View returns the settings as the map handed to hooks, including dt.
func (s Settings) View() map[string]float64 {
	return map[string]float64{
		SettingStart: s.Start,
		SettingEnd:   s.End,
		SettingSteps: float64(s.Steps),
		SettingStep:  s.StepSize(),
	}
}
