// Package record contains the metadata of a published crate version,
// as stored in the index
package record

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// ErrRecordInvalid is returned when a record contains unexpected data
var ErrRecordInvalid = errors.New("invalid record")

// Options represents all the optional data of a record
type Options struct {
	Dependencies []Dependency
	// Features maps a feature name to the features and dependencies
	// it enables
	Features map[string][]string
	// Links is the name of the native library the crate links to
	Links string
}

// Record represents one published version of a crate.
// A record is immutable, except for its yanked flag.
type Record struct {
	name     string
	version  *semver.Version
	deps     []Dependency
	checksum string
	features map[string][]string
	yanked   bool
	links    string
}

// New returns a new, non-yanked, record
func New(name string, version *semver.Version, checksum string, opts *Options) *Record {
	r := &Record{
		name:     name,
		version:  version,
		checksum: checksum,
	}
	if opts != nil {
		r.deps = copyDependencies(opts.Dependencies)
		r.features = copyFeatures(opts.Features)
		r.links = opts.Links
	}
	return r
}

// Parse returns a record from its JSON representation
func Parse(data []byte) (*Record, error) {
	r := &Record{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Name returns the name of the crate
func (r *Record) Name() string {
	return r.name
}

// Version returns the version of the crate
func (r *Record) Version() *semver.Version {
	return r.version
}

// Dependencies returns a copy of the dependencies
func (r *Record) Dependencies() []Dependency {
	return copyDependencies(r.deps)
}

// Validate checks that every dependency of the record is valid, so the
// record can be serialized
func (r *Record) Validate() error {
	for _, d := range r.deps {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("%s: %w", r.String(), err)
		}
	}
	return nil
}

// Checksum returns the checksum of the crate's archive
func (r *Record) Checksum() string {
	return r.checksum
}

// Features returns a copy of the features
func (r *Record) Features() map[string][]string {
	return copyFeatures(r.features)
}

// Links returns the native library the crate links to, if any
func (r *Record) Links() (links string, ok bool) {
	return r.links, r.links != ""
}

// Yanked returns whether the version has been yanked
func (r *Record) Yanked() bool {
	return r.yanked
}

// Yank marks the version as yanked
func (r *Record) Yank() {
	r.yanked = true
}

// Unyank marks the version as not yanked
func (r *Record) Unyank() {
	r.yanked = false
}

// String returns the record as name#version
func (r *Record) String() string {
	return fmt.Sprintf("%s#%s", r.name, r.version)
}

type recordJSON struct {
	Name     string              `json:"name"`
	Vers     string              `json:"vers"`
	Deps     []Dependency        `json:"deps,omitempty"`
	Cksum    string              `json:"cksum"`
	Features map[string][]string `json:"features,omitempty"`
	Yanked   bool                `json:"yanked"`
	Links    *string             `json:"links,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (r *Record) MarshalJSON() ([]byte, error) {
	if r.version == nil {
		return nil, fmt.Errorf("%s has no version: %w", r.name, ErrRecordInvalid)
	}
	raw := recordJSON{
		Name:     r.name,
		Vers:     r.version.String(),
		Deps:     r.deps,
		Cksum:    r.checksum,
		Features: r.features,
		Yanked:   r.yanked,
	}
	if r.links != "" {
		raw.Links = &r.links
	}
	return json.Marshal(raw)
}

// UnmarshalJSON implements json.Unmarshaler
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("could not parse record: %w", err)
	}
	if raw.Name == "" {
		return fmt.Errorf("record has no name: %w", ErrRecordInvalid)
	}
	v, err := semver.StrictNewVersion(raw.Vers)
	if err != nil {
		return fmt.Errorf("version %q of %s: %s: %w", raw.Vers, raw.Name, err.Error(), ErrRecordInvalid)
	}

	*r = Record{
		name:     raw.Name,
		version:  v,
		deps:     raw.Deps,
		checksum: raw.Cksum,
		features: raw.Features,
		yanked:   raw.Yanked,
	}
	if raw.Links != nil {
		r.links = *raw.Links
	}
	return nil
}

func copyDependencies(deps []Dependency) []Dependency {
	if len(deps) == 0 {
		return nil
	}
	out := make([]Dependency, len(deps))
	for i, d := range deps {
		out[i] = d
		if d.Features != nil {
			out[i].Features = append([]string{}, d.Features...)
		}
	}
	return out
}

func copyFeatures(features map[string][]string) map[string][]string {
	if len(features) == 0 {
		return nil
	}
	out := make(map[string][]string, len(features))
	for k, v := range features {
		if v != nil {
			v = append([]string{}, v...)
		}
		out[k] = v
	}
	return out
}
