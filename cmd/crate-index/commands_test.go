package main

import (
	"fmt"
	"strings"
	"testing"

	crateindex "github.com/Rust-Bucket/Crate-Index"
	"github.com/Rust-Bucket/Crate-Index/git"
	"github.com/Rust-Bucket/Crate-Index/record"
	"github.com/Rust-Bucket/Crate-Index/tree"
	"github.com/Rust-Bucket/Crate-Index/validate"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordLine(name, version string) string {
	return fmt.Sprintf(`{"name":%q,"vers":%q,"deps":[],"cksum":"abc","features":{},"yanked":false}`, name, version)
}

// newIndex runs "init" in /index
func newIndex(t *testing.T, args ...string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	_, err := run(t, fs, "", append([]string{"init", download}, args...)...)
	require.NoError(t, err)
	return fs
}

func headMessage(t *testing.T, fs afero.Fs, root string) string {
	t.Helper()

	idx, err := crateindex.OpenWithOptions(root, crateindex.OpenOptions{FS: fs})
	require.NoError(t, err)
	defer func() {
		require.NoError(t, idx.Close())
	}()
	head, err := idx.Repository().Head()
	require.NoError(t, err)
	return head.Message()
}

func TestInsert(t *testing.T) {
	t.Parallel()

	t.Run("should insert the records of stdin", func(t *testing.T) {
		t.Parallel()

		fs := newIndex(t)
		in := strings.Join([]string{
			recordLine("serde", "1.0.0"),
			"",
			recordLine("serde", "1.0.1"),
			recordLine("tokio", "1.0.0"),
		}, "\n")
		out, err := run(t, fs, in, "insert")
		require.NoError(t, err)
		assert.Equal(t, "inserted serde#1.0.0\ninserted serde#1.0.1\ninserted tokio#1.0.0\n", out)
		assert.Equal(t, "updating crate `tokio#1.0.0`", headMessage(t, fs, "/index"))

		out, err = run(t, fs, "", "list")
		require.NoError(t, err)
		assert.Equal(t, "serde\ntokio\n", out)

		out, err = run(t, fs, "", "list", "serde")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
		require.Len(t, lines, 2)
		for i, v := range []string{"1.0.0", "1.0.1"} {
			r, err := record.Parse([]byte(lines[i]))
			require.NoError(t, err)
			assert.Equal(t, v, r.Version().String())
		}
	})

	t.Run("should insert the records of a file", func(t *testing.T) {
		t.Parallel()

		fs := newIndex(t)
		require.NoError(t, afero.WriteFile(fs, "/records.json", []byte(recordLine("serde", "1.0.0")+"\n"), 0o644))
		out, err := run(t, fs, "", "insert", "/records.json")
		require.NoError(t, err)
		assert.Equal(t, "inserted serde#1.0.0\n", out)
	})

	t.Run("should work without git", func(t *testing.T) {
		t.Parallel()

		fs := newIndex(t, "--no-git")
		_, err := run(t, fs, recordLine("serde", "1.0.0"), "insert", "-")
		require.NoError(t, err)
		_, err = run(t, fs, "", "yank", "serde", "1.0.0")
		require.NoError(t, err)

		tr, err := tree.OpenWithOptions("/index", tree.OpenOptions{FS: fs})
		require.NoError(t, err)
		f, err := tr.File("serde")
		require.NoError(t, err)
		assert.True(t, f.LatestVersion().Yanked())
	})

	t.Run("older major should be accepted", func(t *testing.T) {
		t.Parallel()

		fs := newIndex(t)
		_, err := run(t, fs, recordLine("serde", "1.0.0"), "insert")
		require.NoError(t, err)
		out, err := run(t, fs, recordLine("serde", "0.9.0"), "insert")
		require.NoError(t, err)
		assert.Equal(t, "inserted serde#0.9.0\n", out)
		assert.Equal(t, "updating crate `serde#0.9.0`", headMessage(t, fs, "/index"))
	})

	testCases := []struct {
		desc      string
		in        string
		targetErr error
	}{
		{
			desc:      "same version should fail",
			in:        recordLine("serde", "1.0.0"),
			targetErr: validate.ErrValidation,
		},
		{
			desc:      "similar name should fail",
			in:        recordLine("Serde", "2.0.0"),
			targetErr: validate.ErrValidation,
		},
		{
			desc:      "invalid JSON should fail",
			in:        "{",
			targetErr: nil,
		},
		{
			desc:      "invalid version should fail",
			in:        recordLine("serde", "1.0"),
			targetErr: record.ErrRecordInvalid,
		},
	}
	for i, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()

			fs := newIndex(t)
			_, err := run(t, fs, recordLine("serde", "1.0.0"), "insert")
			require.NoError(t, err)

			_, err = run(t, fs, tc.in, "insert")
			require.Error(t, err)
			if tc.targetErr != nil {
				require.ErrorIs(t, err, tc.targetErr)
			}
			assert.Equal(t, "updating crate `serde#1.0.0`", headMessage(t, fs, "/index"), "nothing should have been committed")
		})
	}
}

func TestYank(t *testing.T) {
	t.Parallel()

	t.Run("should yank and unyank", func(t *testing.T) {
		t.Parallel()

		fs := newIndex(t)
		_, err := run(t, fs, recordLine("serde", "1.0.0"), "insert")
		require.NoError(t, err)

		out, err := run(t, fs, "", "yank", "serde", "1.0.0")
		require.NoError(t, err)
		assert.Equal(t, "yanked serde#1.0.0\n", out)
		assert.Equal(t, "yanking crate `serde#1.0.0`", headMessage(t, fs, "/index"))

		out, err = run(t, fs, "", "unyank", "serde", "1.0.0")
		require.NoError(t, err)
		assert.Equal(t, "unyanked serde#1.0.0\n", out)
		assert.Equal(t, "unyanking crate `serde#1.0.0`", headMessage(t, fs, "/index"))
	})

	testCases := []struct {
		desc      string
		args      []string
		targetErr error
	}{
		{
			desc:      "unknown crate should fail",
			args:      []string{"yank", "tokio", "1.0.0"},
			targetErr: tree.ErrNotFound,
		},
		{
			desc:      "unknown version should fail",
			args:      []string{"unyank", "serde", "2.0.0"},
			targetErr: tree.ErrNotFound,
		},
		{
			desc: "invalid version should fail",
			args: []string{"yank", "serde", "latest"},
		},
		{
			desc: "version is required",
			args: []string{"yank", "serde"},
		},
	}
	for i, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()

			fs := newIndex(t)
			_, err := run(t, fs, recordLine("serde", "1.0.0"), "insert")
			require.NoError(t, err)

			_, err = run(t, fs, "", tc.args...)
			require.Error(t, err)
			if tc.targetErr != nil {
				require.ErrorIs(t, err, tc.targetErr)
			}
		})
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	t.Run("unknown crate should fail", func(t *testing.T) {
		t.Parallel()

		fs := newIndex(t)
		_, err := run(t, fs, "", "list", "serde")
		require.ErrorIs(t, err, tree.ErrNotFound)
	})

	t.Run("missing index should fail", func(t *testing.T) {
		t.Parallel()

		_, err := run(t, afero.NewMemMapFs(), "", "list")
		require.Error(t, err)
	})
}

func TestSync(t *testing.T) {
	t.Parallel()

	fs := newIndex(t, "--origin", "/remote.git")
	remote, err := git.InitRepositoryWithOptions("/remote.git", git.InitOptions{
		FS:     fs,
		IsBare: true,
	})
	require.NoError(t, err)
	require.NoError(t, remote.Close())

	_, err = run(t, fs, recordLine("serde", "1.0.0"), "insert")
	require.NoError(t, err)
	out, err := run(t, fs, "", "push")
	require.NoError(t, err)
	assert.Equal(t, "index pushed\n", out)

	out, err = run(t, fs, "", "clone", "-C", "/clone", "/remote.git")
	require.NoError(t, err)
	assert.Equal(t, "Cloned /remote.git into /clone\n", out)
	out, err = run(t, fs, "", "list", "-C", "/clone")
	require.NoError(t, err)
	assert.Equal(t, "serde\n", out)

	_, err = run(t, fs, recordLine("tokio", "1.0.0"), "insert")
	require.NoError(t, err)
	_, err = run(t, fs, "", "push")
	require.NoError(t, err)

	out, err = run(t, fs, "", "pull", "-C", "/clone")
	require.NoError(t, err)
	assert.Equal(t, "index up to date, 2 crates\n", out)
	assert.Equal(t, "updating crate `tokio#1.0.0`", headMessage(t, fs, "/clone"))

	_, err = run(t, fs, "", "push", "-C", "/other")
	require.Error(t, err)
}
