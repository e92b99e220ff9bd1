package validate_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/Rust-Bucket/Crate-Index/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc           string
		name           string
		expectedReason string
	}{
		{
			desc: "simple name should work",
			name: "serde",
		},
		{
			desc: "name with dashes and underscores should work",
			name: "Foo-Bar_baz2",
		},
		{
			desc: "single letter should work",
			name: "a",
		},
		{
			desc:           "empty name should fail",
			name:           "",
			expectedReason: validate.ReasonEmpty,
		},
		{
			desc:           "blacklisted name should fail",
			name:           "nul",
			expectedReason: validate.ReasonBlacklisted,
		},
		{
			desc:           "name starting with a digit should fail",
			name:           "1password",
			expectedReason: validate.ReasonCharset,
		},
		{
			desc:           "name starting with a dash should fail",
			name:           "-crate",
			expectedReason: validate.ReasonCharset,
		},
		{
			desc:           "non-ASCII name should fail",
			name:           "crâte",
			expectedReason: validate.ReasonCharset,
		},
		{
			desc:           "name with a space should fail",
			name:           "my crate",
			expectedReason: validate.ReasonCharset,
		},
		{
			desc:           "name with a slash should fail",
			name:           "my/crate",
			expectedReason: validate.ReasonCharset,
		},
	}
	for i, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()

			err := validate.Name(tc.name)
			if tc.expectedReason == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, validate.ErrValidation), "expected a validation error")

			var nameErr *validate.InvalidNameError
			require.True(t, errors.As(err, &nameErr), "expected an InvalidNameError")
			assert.Equal(t, tc.name, nameErr.Name)
			assert.Equal(t, tc.expectedReason, nameErr.Reason)
		})
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc        string
		greatest    string
		candidate   string
		expectError bool
	}{
		{
			desc:      "anything should work when there is no version",
			candidate: "0.0.1",
		},
		{
			desc:      "greater patch should work",
			greatest:  "1.2.3",
			candidate: "1.2.4",
		},
		{
			desc:      "greater minor should work",
			greatest:  "1.2.3",
			candidate: "1.3.0",
		},
		{
			desc:      "release should be greater than its pre-release",
			greatest:  "1.0.0-alpha.1",
			candidate: "1.0.0",
		},
		{
			desc:        "same version should fail",
			greatest:    "1.2.3",
			candidate:   "1.2.3",
			expectError: true,
		},
		{
			desc:        "smaller version should fail",
			greatest:    "1.2.3",
			candidate:   "1.1.9",
			expectError: true,
		},
		{
			desc:        "same version with different build metadata should fail",
			greatest:    "1.2.3+build.1",
			candidate:   "1.2.3+build.2",
			expectError: true,
		},
		{
			desc:        "pre-release of the greatest version should fail",
			greatest:    "1.2.3",
			candidate:   "1.2.3-rc.1",
			expectError: true,
		},
	}
	for i, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()

			var greatest *semver.Version
			if tc.greatest != "" {
				greatest = semver.MustParse(tc.greatest)
			}
			candidate := semver.MustParse(tc.candidate)

			err := validate.Version(greatest, candidate)
			if !tc.expectError {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, validate.ErrValidation), "expected a validation error")

			var versionErr *validate.VersionError
			require.True(t, errors.As(err, &versionErr), "expected a VersionError")
			assert.Equal(t, "> "+greatest.String(), versionErr.Required)
			assert.Equal(t, candidate, versionErr.Given)
		})
	}
}

func TestVersionIsStrictlyIncreasing(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		greatest := semver.New(
			rapid.Uint64Range(0, 20).Draw(rt, "major"),
			rapid.Uint64Range(0, 20).Draw(rt, "minor"),
			rapid.Uint64Range(0, 20).Draw(rt, "patch"),
			"", "")
		candidate := semver.New(
			greatest.Major(),
			rapid.Uint64Range(0, 20).Draw(rt, "candidateMinor"),
			rapid.Uint64Range(0, 20).Draw(rt, "candidatePatch"),
			"", "")

		err := validate.Version(greatest, candidate)
		if candidate.GreaterThan(greatest) {
			if err != nil {
				rt.Fatalf("%s should be accepted after %s: %v", candidate, greatest, err)
			}
			return
		}
		if err == nil {
			rt.Fatalf("%s should be rejected after %s", candidate, greatest)
		}
	})
}

func TestCanonicalize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc     string
		name     string
		expected string
	}{
		{
			desc:     "should lowercase",
			name:     "FooBar",
			expected: "foobar",
		},
		{
			desc:     "should replace dashes with underscores",
			name:     "Foo-Bar",
			expected: "foo_bar",
		},
		{
			desc:     "should keep underscores",
			name:     "foo_bar",
			expected: "foo_bar",
		},
	}
	for i, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, validate.Canonicalize(tc.name))
		})
	}

	t.Run("names differing by case and separator should collide", func(t *testing.T) {
		t.Parallel()

		rapid.Check(t, func(rt *rapid.T) {
			name := rapid.StringMatching(`[a-z][a-z0-9_-]{0,15}`).Draw(rt, "name")
			upper := []byte(name)
			for i, c := range upper {
				switch {
				case c >= 'a' && c <= 'z':
					upper[i] = c - 'a' + 'A'
				case c == '_':
					upper[i] = '-'
				}
			}
			if validate.Canonicalize(name) != validate.Canonicalize(string(upper)) {
				rt.Fatalf("%q and %q should have the same canonical form", name, upper)
			}
		})
	})
}
