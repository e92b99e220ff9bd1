package backend_test

import (
	"path/filepath"
	"testing"

	"github.com/Rust-Bucket/Crate-Index/backend"
	"github.com/Rust-Bucket/Crate-Index/ginternals"
	"github.com/Rust-Bucket/Crate-Index/ginternals/config"
	"github.com/Rust-Bucket/Crate-Index/ginternals/githash"
	"github.com/Rust-Bucket/Crate-Index/ginternals/object"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, fs afero.Fs, bare bool) *backend.Backend {
	t.Helper()

	cfg, err := config.LoadConfig(config.LoadConfigOptions{
		FS:           fs,
		WorkTreePath: "/index",
		IsBare:       bare,
	})
	require.NoError(t, err)
	b, err := backend.NewFS(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, b.Close())
	})
	return b
}

func TestInit(t *testing.T) {
	t.Parallel()

	t.Run("regular repository", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		b := newBackend(t, fs, false)
		require.NoError(t, b.Init(ginternals.Master, false))

		for _, p := range []string{"HEAD", "config", "description", "objects", "refs/heads", "refs/tags"} {
			_, err := fs.Stat(filepath.Join("/index", ".git", filepath.FromSlash(p)))
			assert.NoError(t, err, "%s should exist", p)
		}

		ref, err := b.Reference(ginternals.Head)
		require.ErrorIs(t, err, ginternals.ErrRefNotFound, "HEAD should target a branch that doesn't exist yet")
		assert.Nil(t, ref)

		f, err := config.LoadFile(fs, filepath.Join("/index", ".git", "config"))
		require.NoError(t, err)
		bare, ok := f.IsBare()
		require.True(t, ok)
		assert.False(t, bare)
	})

	t.Run("bare repository", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		b := newBackend(t, fs, true)
		require.NoError(t, b.Init(ginternals.Master, true))

		_, err := fs.Stat(filepath.Join("/index", "HEAD"))
		require.NoError(t, err)
		f, err := config.LoadFile(fs, filepath.Join("/index", "config"))
		require.NoError(t, err)
		bare, ok := f.IsBare()
		require.True(t, ok)
		assert.True(t, bare)
	})

	t.Run("init twice should fail", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		b := newBackend(t, fs, false)
		require.NoError(t, b.Init(ginternals.Master, false))
		require.ErrorIs(t, b.Init(ginternals.Master, false), ginternals.ErrRefExists)
	})
}

func TestObjects(t *testing.T) {
	t.Parallel()

	t.Run("written objects should be readable", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		b := newBackend(t, fs, false)
		require.NoError(t, b.Init(ginternals.Master, false))

		o := object.New(object.TypeBlob, []byte("{}\n"))
		oid, err := b.WriteObject(o)
		require.NoError(t, err)
		assert.Equal(t, o.ID(), oid)
		assert.True(t, b.HasObject(oid))

		// writing twice is a no-op
		_, err = b.WriteObject(o)
		require.NoError(t, err)

		// a fresh backend should find the object on disk
		reloaded := newBackend(t, fs, false)
		assert.True(t, reloaded.HasObject(oid))
		found, err := reloaded.Object(oid)
		require.NoError(t, err)
		assert.Equal(t, o.Bytes(), found.Bytes())
		assert.Equal(t, object.TypeBlob, found.Type())
	})

	t.Run("missing object should return ErrObjectNotFound", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t, afero.NewMemMapFs(), false)
		oid := githash.Sum([]byte("nope"))
		assert.False(t, b.HasObject(oid))
		_, err := b.Object(oid)
		require.ErrorIs(t, err, ginternals.ErrObjectNotFound)
	})
}

func TestReferences(t *testing.T) {
	t.Parallel()

	oid := githash.Sum([]byte("commit"))

	t.Run("HEAD should resolve once the branch exists", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		b := newBackend(t, fs, false)
		require.NoError(t, b.Init(ginternals.Master, false))

		ref := ginternals.NewReference(ginternals.LocalBranchFullName(ginternals.Master), oid)
		require.NoError(t, b.WriteReferenceSafe(ref))
		require.ErrorIs(t, b.WriteReferenceSafe(ref), ginternals.ErrRefExists)

		head, err := b.Reference(ginternals.Head)
		require.NoError(t, err)
		assert.Equal(t, ginternals.SymbolicReference, head.Type())
		assert.Equal(t, "refs/heads/master", head.SymbolicTarget())
		assert.Equal(t, oid, head.Target())

		// a fresh backend should load the references from disk
		reloaded := newBackend(t, fs, false)
		head, err = reloaded.Reference(ginternals.Head)
		require.NoError(t, err)
		assert.Equal(t, oid, head.Target())
	})

	t.Run("packed-refs should be loaded", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		content := "# pack-refs with: peeled fully-peeled sorted\n" + oid.String() + " refs/heads/master\n"
		require.NoError(t, afero.WriteFile(fs, "/index/.git/packed-refs", []byte(content), 0o644))

		b := newBackend(t, fs, false)
		ref, err := b.Reference("refs/heads/master")
		require.NoError(t, err)
		assert.Equal(t, oid, ref.Target())
	})

	t.Run("invalid packed-refs should fail", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/index/.git/packed-refs", []byte("nope\n"), 0o644))

		cfg, err := config.LoadConfig(config.LoadConfigOptions{
			FS:           fs,
			WorkTreePath: "/index",
		})
		require.NoError(t, err)
		_, err = backend.NewFS(cfg)
		require.ErrorIs(t, err, ginternals.ErrPackedRefInvalid)
	})

	t.Run("UpdateReference should only move the expected target", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t, afero.NewMemMapFs(), false)
		name := ginternals.LocalBranchFullName(ginternals.Master)
		next := githash.Sum([]byte("next"))

		require.NoError(t, b.UpdateReference(ginternals.NewReference(name, oid), githash.NullOid))
		err := b.UpdateReference(ginternals.NewReference(name, next), githash.NullOid)
		require.ErrorIs(t, err, backend.ErrRefChanged)
		require.NoError(t, b.UpdateReference(ginternals.NewReference(name, next), oid))

		ref, err := b.Reference(name)
		require.NoError(t, err)
		assert.Equal(t, next, ref.Target())
	})


	t.Run("invalid name should fail", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t, afero.NewMemMapFs(), false)
		err := b.WriteReference(ginternals.NewReference("refs/heads/ma ster", oid))
		require.ErrorIs(t, err, ginternals.ErrRefNameInvalid)
	})
}

func TestSymbolicTarget(t *testing.T) {
	t.Parallel()

	b := newBackend(t, afero.NewMemMapFs(), false)
	require.NoError(t, b.Init("main", false))

	target, err := b.SymbolicTarget(ginternals.Head)
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/main", target)

	oid := githash.Sum([]byte("commit"))
	require.NoError(t, b.WriteReference(ginternals.NewReference("refs/heads/main", oid)))
	_, err = b.SymbolicTarget("refs/heads/main")
	require.ErrorIs(t, err, ginternals.ErrRefInvalid)

	_, err = b.SymbolicTarget("refs/heads/nope")
	require.ErrorIs(t, err, ginternals.ErrRefNotFound)
}
