package variables

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateKey indicates two records share an identifier.
	ErrDuplicateKey = errors.New("variables: duplicate identifier")

	// ErrUnknownVariable indicates a lookup of an identifier the table does not hold.
	ErrUnknownVariable = errors.New("variables: unknown identifier")

	// ErrOutOfBounds indicates a value outside the record's [Min, Max] range.
	ErrOutOfBounds = errors.New("variables: value out of bounds")

	// ErrMalformed indicates a resource that cannot be parsed into records.
	ErrMalformed = errors.New("variables: malformed resource")
)

// DuplicateKeyError reports the identifier that appeared more than once.
type DuplicateKeyError struct {
	ID string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("variables: duplicate identifier %q", e.ID)
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// LoadError wraps any failure to read a variable resource.
type LoadError struct {
	Source string
	Line   int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load %s:%d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
