package validate

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ErrValidation is matched by every error returned by this package.
// Use errors.Is(err, ErrValidation) to tell an invalid input apart
// from an I/O failure
var ErrValidation = errors.New("validation failed")

// InvalidNameError is returned when a crate name is rejected
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid crate name %q: %s", e.Name, e.Reason)
}

// Is reports whether target is ErrValidation
func (e *InvalidNameError) Is(target error) bool {
	return target == ErrValidation
}

// VersionError is returned when a version is not strictly greater than
// the greatest version sharing its major number
type VersionError struct {
	// Required holds the constraint the version failed to satisfy.
	// ex. "> 1.2.3"
	Required string
	Given    *semver.Version
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("invalid version %s: version must be %s", e.Given, e.Required)
}

// Is reports whether target is ErrValidation
func (e *VersionError) Is(target error) bool {
	return target == ErrValidation
}

// NameMismatchError is returned when a record is written to a file
// that belongs to a different crate
type NameMismatchError struct {
	Expected string
	Given    string
}

func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("crate name mismatch: expected %q, got %q", e.Expected, e.Given)
}

// Is reports whether target is ErrValidation
func (e *NameMismatchError) Is(target error) bool {
	return target == ErrValidation
}
