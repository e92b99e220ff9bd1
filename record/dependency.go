package record

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

var (
	// ErrDependencyKindUnknown is returned when parsing an unsupported
	// dependency kind
	ErrDependencyKindUnknown = errors.New("unknown dependency kind")

	// ErrDependencyInvalid is returned when a dependency contains
	// unexpected data
	ErrDependencyInvalid = errors.New("invalid dependency")
)

// DependencyKind represents when a dependency is needed
type DependencyKind int8

// List of all the dependency kinds
const (
	KindNormal DependencyKind = iota
	KindDev
	KindBuild
)

func (k DependencyKind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindDev:
		return "dev"
	case KindBuild:
		return "build"
	default:
		return fmt.Sprintf("DependencyKind(%d)", k)
	}
}

// IsValid returns whether k is one of the known kinds
func (k DependencyKind) IsValid() bool {
	return k >= KindNormal && k <= KindBuild
}

// NewDependencyKindFromString returns a DependencyKind from its string
// representation
func NewDependencyKindFromString(k string) (DependencyKind, error) {
	switch k {
	case "normal":
		return KindNormal, nil
	case "dev":
		return KindDev, nil
	case "build":
		return KindBuild, nil
	default:
		return 0, fmt.Errorf("kind %q: %w", k, ErrDependencyKindUnknown)
	}
}

// MarshalText implements encoding.TextMarshaler
func (k DependencyKind) MarshalText() ([]byte, error) {
	if !k.IsValid() {
		return nil, fmt.Errorf("kind %d: %w", k, ErrDependencyKindUnknown)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *DependencyKind) UnmarshalText(text []byte) error {
	kind, err := NewDependencyKindFromString(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Dependency represents a crate needed by a published version
type Dependency struct {
	// Name is the name of the dependency. If the dependency was
	// renamed, Package holds the real name of the crate
	Name string `json:"name"`
	// Req is the version requirement. ex. "^1.0"
	Req string `json:"req"`
	// Features contains the features enabled for this dependency
	Features []string `json:"features,omitempty"`
	// Optional states whether the dependency is behind a feature
	Optional bool `json:"optional"`
	// DefaultFeatures states whether the default features of the
	// dependency are enabled
	DefaultFeatures bool `json:"default_features"`
	// Target is the platform the dependency is restricted to, if any.
	// ex. cfg(windows)
	Target string `json:"target,omitempty"`
	// Kind represents when the dependency is needed
	Kind DependencyKind `json:"kind"`
	// Registry is the URL of the index the dependency comes from.
	// Empty means the dependency comes from the same index
	Registry string `json:"registry,omitempty"`
	// Package is the real name of the crate when the dependency has
	// been renamed
	Package string `json:"package,omitempty"`
}

// NewDependency returns a normal dependency with the default features
// enabled
func NewDependency(name, req string) (Dependency, error) {
	d := Dependency{
		Name:            name,
		Req:             req,
		DefaultFeatures: true,
		Kind:            KindNormal,
	}
	if err := d.Validate(); err != nil {
		return Dependency{}, err
	}
	return d, nil
}

// Requirement returns the parsed version requirement
func (d Dependency) Requirement() (*semver.Constraints, error) {
	c, err := semver.NewConstraint(d.Req)
	if err != nil {
		return nil, fmt.Errorf("requirement %q of %s: %s: %w", d.Req, d.Name, err.Error(), ErrDependencyInvalid)
	}
	return c, nil
}

// Validate checks that the dependency has a name, a known kind, and a
// parsable requirement
func (d Dependency) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("dependency has no name: %w", ErrDependencyInvalid)
	}
	if !d.Kind.IsValid() {
		return fmt.Errorf("dependency %s has kind %d: %w", d.Name, d.Kind, ErrDependencyInvalid)
	}
	_, err := d.Requirement()
	return err
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Dependency) UnmarshalJSON(data []byte) error {
	// the alias prevents the method from calling itself
	type dependency Dependency
	dep := dependency{
		DefaultFeatures: true,
	}
	if err := json.Unmarshal(data, &dep); err != nil {
		return err
	}
	if err := Dependency(dep).Validate(); err != nil {
		return err
	}
	*d = Dependency(dep)
	return nil
}
