package models

import (
	"embed"
	"io/fs"
	"path"

	"github.com/san-kum/rmsim/internal/model"
)

//go:embed resources
var resources embed.FS

// Resources returns the embedded resource directory of a built-in model.
func Resources(name string) (fs.FS, error) {
	return fs.Sub(resources, path.Join("resources", name))
}

// Register adds every built-in model to r.
func Register(r *model.Registry) error {
	decayFS, err := Resources("decay")
	if err != nil {
		return err
	}
	monodFS, err := Resources("monod")
	if err != nil {
		return err
	}

	if err := r.Register("decay", model.Entry{
		Description: "First-order decay dX/dt = -X/P",
		Computation: func() model.Computation { return NewDecay() },
		Resources:   decayFS,
	}); err != nil {
		return err
	}
	return r.Register("monod", model.Entry{
		Description: "Fed-batch Monod growth with PID substrate feed",
		Computation: func() model.Computation { return NewMonod() },
		Subroutine:  NewFeedControl,
		Resources:   monodFS,
	})
}

// NewRegistry returns a registry holding the built-in models.
func NewRegistry() *model.Registry {
	r := model.NewRegistry()
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}
