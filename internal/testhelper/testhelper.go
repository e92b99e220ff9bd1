// Package testhelper contains helpers to simplify tests
package testhelper

import (
	"os"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/Rust-Bucket/Crate-Index/record"
	"github.com/stretchr/testify/require"
)

// TempDir creates a temp dir and returns a cleanup method
func TempDir(t *testing.T) (out string, cleanup func()) {
	out, err := os.MkdirTemp("", strings.ReplaceAll(t.Name(), "/", "_")+"_")
	require.NoError(t, err)

	cleanup = func() {
		require.NoError(t, os.RemoveAll(out))
	}
	return out, cleanup
}

// Version parses a version and fails the test if the version is not
// valid
func Version(t *testing.T, v string) *semver.Version {
	version, err := semver.StrictNewVersion(v)
	require.NoError(t, err)
	return version
}

// NewRecord returns a record with no dependencies nor features
func NewRecord(t *testing.T, name, version, checksum string) *record.Record {
	return record.New(name, Version(t, version), checksum, nil)
}
