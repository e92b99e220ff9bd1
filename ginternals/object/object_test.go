package object_test

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/Rust-Bucket/Crate-Index/ginternals/githash"
	"github.com/Rust-Bucket/Crate-Index/ginternals/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject(t *testing.T) {
	t.Parallel()

	t.Run("empty blob should have the git ID", func(t *testing.T) {
		t.Parallel()

		o := object.New(object.TypeBlob, []byte{})
		assert.Equal(t, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", o.ID().String())
	})

	t.Run("empty tree should have the git ID", func(t *testing.T) {
		t.Parallel()

		tree := object.NewTree(nil)
		assert.Equal(t, "4b825dc642cb6eb9a060e54bf8d69288fbee4904", tree.ID().String())
	})

	t.Run("Compress and Decompress should return the same object", func(t *testing.T) {
		t.Parallel()

		line := `{"name":"serde","vers":"1.0.0","cksum":"abc","yanked":false}` + "\n"
		o := object.New(object.TypeBlob, []byte(line))
		data, err := o.Compress()
		require.NoError(t, err)

		decompressed, err := object.Decompress(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, o.ID(), decompressed.ID())
		assert.Equal(t, object.TypeBlob, decompressed.Type())
		assert.Equal(t, line, string(decompressed.AsBlob().Bytes()))
	})
}

func TestNewFromLoose(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc        string
		data        string
		expectError bool
	}{
		{
			desc: "valid object should work",
			data: "blob 5\x00hello",
		},
		{
			desc:        "unknown type should fail",
			data:        "tag 5\x00hello",
			expectError: true,
		},
		{
			desc:        "wrong size should fail",
			data:        "blob 6\x00hello",
			expectError: true,
		},
		{
			desc:        "missing size should fail",
			data:        "blob 5hello",
			expectError: true,
		},
	}
	for i, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()

			o, err := object.NewFromLoose([]byte(tc.data))
			if tc.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "hello", string(o.Bytes()))
		})
	}
}

func TestTree(t *testing.T) {
	t.Parallel()

	t.Run("entries should be sorted the git way", func(t *testing.T) {
		t.Parallel()

		blob := object.New(object.TypeBlob, []byte("x"))
		dir := object.NewTree(nil)

		tree := object.NewTree([]object.TreeEntry{
			{Path: "fo", ID: dir.ID(), Mode: object.ModeDirectory},
			{Path: "fo-bar", ID: blob.ID(), Mode: object.ModeFile},
			{Path: "config.json", ID: blob.ID(), Mode: object.ModeFile},
		})
		entries := tree.Entries()
		require.Len(t, entries, 3)
		assert.Equal(t, "config.json", entries[0].Path)
		// "fo/" > "fo-bar" since '/' > '-'
		assert.Equal(t, "fo-bar", entries[1].Path)
		assert.Equal(t, "fo", entries[2].Path)
	})

	t.Run("parsing should return the same tree", func(t *testing.T) {
		t.Parallel()

		blob := object.New(object.TypeBlob, []byte("x"))
		tree := object.NewTree([]object.TreeEntry{
			{Path: "config.json", ID: blob.ID(), Mode: object.ModeFile},
			{Path: "se", ID: object.NewTree(nil).ID(), Mode: object.ModeDirectory},
		})

		parsed, err := tree.ToObject().AsTree()
		require.NoError(t, err)
		assert.Equal(t, tree.ID(), parsed.ID())
		assert.Equal(t, tree.Entries(), parsed.Entries())
		assert.Equal(t, object.TypeTree, parsed.Entries()[1].Mode.ObjectType())
		assert.Equal(t, object.TypeBlob, parsed.Entries()[0].Mode.ObjectType())
	})

	t.Run("entries should be immutable", func(t *testing.T) {
		t.Parallel()

		blob := object.New(object.TypeBlob, []byte("x"))
		tree := object.NewTree([]object.TreeEntry{
			{Path: "a", ID: blob.ID(), Mode: object.ModeFile},
		})
		tree.Entries()[0].Path = "b"
		assert.Equal(t, "a", tree.Entries()[0].Path)
	})

	t.Run("truncated tree should fail", func(t *testing.T) {
		t.Parallel()

		o := object.New(object.TypeTree, []byte("100644 a\x00abc"))
		_, err := o.AsTree()
		require.ErrorIs(t, err, object.ErrTreeInvalid)
	})

	t.Run("blob should not be parsed as tree", func(t *testing.T) {
		t.Parallel()

		_, err := object.New(object.TypeBlob, nil).AsTree()
		require.ErrorIs(t, err, object.ErrObjectInvalid)
	})
}

func TestCommit(t *testing.T) {
	t.Parallel()

	t.Run("parsing should return the same commit", func(t *testing.T) {
		t.Parallel()

		treeID := object.NewTree(nil).ID()
		parentID := githash.Sum([]byte("parent"))
		author := object.Signature{
			Name:  "crate-index",
			Email: "crate-index@localhost",
			Time:  time.Unix(1600000000, 0).UTC(),
		}
		c := object.NewCommit(treeID, author, &object.CommitOptions{
			Message:   "updating crate `serde#1.0.0`",
			ParentsID: []githash.Oid{parentID},
		})

		parsed, err := c.ToObject().AsCommit()
		require.NoError(t, err)
		assert.Equal(t, c.ID(), parsed.ID())
		assert.Equal(t, treeID, parsed.TreeID())
		assert.Equal(t, []githash.Oid{parentID}, parsed.ParentIDs())
		assert.Equal(t, "updating crate `serde#1.0.0`", parsed.Message())
		assert.Equal(t, author.Name, parsed.Author().Name)
		assert.Equal(t, author.Email, parsed.Committer().Email)
		assert.Equal(t, author.Time.Unix(), parsed.Author().Time.Unix())
	})

	t.Run("commit without tree should fail", func(t *testing.T) {
		t.Parallel()

		o := object.New(object.TypeCommit, []byte("author a <b> 1600000000 +0000\n\nmsg"))
		_, err := o.AsCommit()
		require.ErrorIs(t, err, object.ErrCommitInvalid)
	})
}

func TestNewSignatureFromBytes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc              string
		signature         string
		expectsError      bool
		expectedName      string
		expectedEmail     string
		expectedTimestamp int64
		expectedOffset    int
	}{
		{
			desc:              "valid with a negative offset",
			signature:         "Index Bot <bot@example.com> 1566115917 -0700",
			expectedName:      "Index Bot",
			expectedEmail:     "bot@example.com",
			expectedTimestamp: 1566115917,
			expectedOffset:    -7 * 3600,
		},
		{
			desc:              "valid with a 0 offset",
			signature:         "bot <bot@example.com> 1566005917 +0000",
			expectedName:      "bot",
			expectedEmail:     "bot@example.com",
			expectedTimestamp: 1566005917,
		},
		{
			desc:         "invalid offset should fail",
			signature:    "bot <bot@example.com> 1566005917 nope",
			expectsError: true,
		},
		{
			desc:         "missing email should fail",
			signature:    "bot",
			expectsError: true,
		},
		{
			desc:         "empty signature should fail",
			signature:    "",
			expectsError: true,
		},
	}
	for i, tc := range testCases {
		tc := tc
		t.Run(fmt.Sprintf("%d/%s", i, tc.desc), func(t *testing.T) {
			t.Parallel()

			sig, err := object.NewSignatureFromBytes([]byte(tc.signature))
			if tc.expectsError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedName, sig.Name)
			assert.Equal(t, tc.expectedEmail, sig.Email)
			assert.Equal(t, tc.expectedTimestamp, sig.Time.Unix())
			_, offset := sig.Time.Zone()
			assert.Equal(t, tc.expectedOffset, offset)
		})
	}
}
