package session

import (
	"os"

	"github.com/san-kum/rmsim/internal/config"
	"github.com/san-kum/rmsim/internal/integrators"
	"github.com/san-kum/rmsim/internal/model"
)

// FromConfig opens cfg.Model and applies cfg's inputs. Fields already set in
// opts win over the config's integrator, resources and reset flag.
func FromConfig(r *model.Registry, cfg *config.Config, opts Options) (*Session, error) {
	if opts.Integrator == nil {
		integ, err := integrators.New(cfg.Integrator)
		if err != nil {
			return nil, err
		}
		opts.Integrator = integ
	}
	if opts.Resources == nil && cfg.Resources != "" {
		opts.Resources = os.DirFS(cfg.Resources)
	}
	opts.ResetAfterRun = opts.ResetAfterRun || cfg.ResetAfterRun

	s, err := Open(r, cfg.Model, opts)
	if err != nil {
		return nil, err
	}
	if err := s.SetInputs(cfg.Inputs()); err != nil {
		return nil, err
	}
	return s, nil
}
