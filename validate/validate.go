// Package validate contains the rules a crate must follow to be
// accepted in the index
package validate

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"
)

// List of reasons used by InvalidNameError
const (
	ReasonEmpty       = "crate name cannot be empty"
	ReasonBlacklisted = "crate name is blacklisted"
	ReasonCharset     = "crate name must be ASCII, be alphanumeric + '-' and '_', and begin with a letter ([a-zA-Z][a-zA-Z0-9-_]*)."
	ReasonTooSimilar  = "name is too similar to existing crate"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// names that cannot be used as a file on some systems
var blacklist = map[string]struct{}{
	"nul": {},
}

// Name returns an *InvalidNameError if the name cannot be used for
// a crate
func Name(name string) error {
	if name == "" {
		return &InvalidNameError{Name: name, Reason: ReasonEmpty}
	}
	if _, ok := blacklist[strings.ToLower(name)]; ok {
		return &InvalidNameError{Name: name, Reason: ReasonBlacklisted}
	}
	if !isASCII(name) || !namePattern.MatchString(name) {
		return &InvalidNameError{Name: name, Reason: ReasonCharset}
	}
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// Version returns a *VersionError if candidate is not strictly greater
// than greatest.
// greatest is the greatest version already accepted that has the same
// major number as candidate, or nil if there are none. Versions of
// different majors are never compared, so 1.5.0 can still be published
// once 2.0.0 exists.
func Version(greatest, candidate *semver.Version) error {
	if greatest == nil {
		return nil
	}
	if candidate.GreaterThan(greatest) {
		return nil
	}
	return &VersionError{
		Required: "> " + greatest.String(),
		Given:    candidate,
	}
}

// Canonicalize returns the form used to detect names that are too
// similar. "Foo-Bar" and "foo_bar" have the same canonical form.
// The canonical form is never used to store or look up a crate.
func Canonicalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}
