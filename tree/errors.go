package tree

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/Rust-Bucket/Crate-Index/validate"
)

var (
	// ErrNotFound is matched by CrateNotFoundError and
	// VersionNotFoundError
	ErrNotFound = errors.New("not found")

	// ErrCorruptFile is returned when a record file contains a line
	// that cannot be parsed. Record files are only written by this
	// package so this is never expected to happen
	ErrCorruptFile = errors.New("record file is corrupt")

	// ErrConfigInvalid is returned when the configuration of an index
	// contains unexpected data
	ErrConfigInvalid = errors.New("invalid index configuration")
)

// CrateNotFoundError is returned when acting on a crate that is not
// in the index
type CrateNotFoundError struct {
	Name string
}

func (e *CrateNotFoundError) Error() string {
	return fmt.Sprintf("crate not found (no data in index for %s)", e.Name)
}

// Is reports whether target is ErrNotFound
func (e *CrateNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// VersionNotFoundError is returned when acting on a version that has
// never been published
type VersionNotFoundError struct {
	Name    string
	Version *semver.Version
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version not found (no version %s of %s in index)", e.Version, e.Name)
}

// Is reports whether target is ErrNotFound
func (e *VersionNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsRecoverable returns whether err is an expected failure the caller
// can act on (an invalid record, or an unknown crate or version), as
// opposed to a failure of the filesystem.
// Recoverable errors never leave the index modified.
func IsRecoverable(err error) bool {
	return errors.Is(err, validate.ErrValidation) || errors.Is(err, ErrNotFound)
}
