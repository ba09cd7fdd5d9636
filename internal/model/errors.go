package model

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is matched by every *ConfigurationError.
	ErrConfiguration = errors.New("model: configuration error")

	// ErrUnknownModel indicates a registry lookup for an unregistered name.
	ErrUnknownModel = errors.New("model: unknown model")

	// ErrNoComputation indicates a model has no bound right-hand side.
	ErrNoComputation = errors.New("model: no computation bound")

	// ErrStateMismatch indicates the computation's states disagree with the state-flagged rows.
	ErrStateMismatch = errors.New("model: computation states do not match state rows")
)

// ConfigurationError reports a model that cannot be assembled.
type ConfigurationError struct {
	Model string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("model %q: %v", e.Model, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErr(model string, format string, args ...any) error {
	return &ConfigurationError{Model: model, Err: fmt.Errorf(format, args...)}
}
