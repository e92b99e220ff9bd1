package git

import (
	"strings"

	"github.com/Rust-Bucket/Crate-Index/backend"
	"github.com/Rust-Bucket/Crate-Index/ginternals"
	"github.com/Rust-Bucket/Crate-Index/ginternals/githash"
	"github.com/Rust-Bucket/Crate-Index/ginternals/object"
	"golang.org/x/xerrors"
)

// TreeBuilder is used to build a tree and all its sub-trees from a
// list of files
type TreeBuilder struct {
	Backend *backend.Backend
	// entries are indexed by their UNIX path, relative to the
	// root of the tree
	entries map[string]object.TreeEntry
}

// NewTreeBuilder create a new empty tree builder
func (r *Repository) NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{
		Backend: r.dotGit,
		entries: map[string]object.TreeEntry{},
	}
}

// Insert adds a file to the tree. path uses the UNIX format and may
// contain directories (ex. "se/rd/serde")
func (tb *TreeBuilder) Insert(path string, oid githash.Oid, mode object.TreeObjectMode) error {
	if mode != object.ModeFile && mode != object.ModeExecutable {
		return xerrors.Errorf("invalid mode %o", mode)
	}
	if path == "" || strings.HasPrefix(path, "/") || strings.HasSuffix(path, "/") {
		return xerrors.Errorf("invalid path %q", path)
	}
	if !tb.Backend.HasObject(oid) {
		return xerrors.Errorf("cannot insert %s, object %s: %w", path, oid.String(), ginternals.ErrObjectNotFound)
	}

	tb.entries[path] = object.TreeEntry{
		Mode: mode,
		Path: path,
		ID:   oid,
	}
	return nil
}

// Remove removes a file from tree
func (tb *TreeBuilder) Remove(path string) {
	delete(tb.entries, path)
}

// Write creates and persists the Tree object and all its sub-trees
func (tb *TreeBuilder) Write() (*object.Tree, error) {
	return tb.write(tb.entries)
}

// write persists the tree containing the given entries. The entries
// located in sub-directories are written first, as their own trees
func (tb *TreeBuilder) write(entries map[string]object.TreeEntry) (*object.Tree, error) {
	dirs := map[string]map[string]object.TreeEntry{}
	out := make([]object.TreeEntry, 0, len(entries))
	for p, e := range entries {
		dir, rest, nested := strings.Cut(p, "/")
		if !nested {
			e.Path = p
			out = append(out, e)
			continue
		}
		if dirs[dir] == nil {
			dirs[dir] = map[string]object.TreeEntry{}
		}
		dirs[dir][rest] = e
	}

	for dir, sub := range dirs {
		t, err := tb.write(sub)
		if err != nil {
			return nil, err
		}
		out = append(out, object.TreeEntry{
			Path: dir,
			ID:   t.ID(),
			Mode: object.ModeDirectory,
		})
	}

	t := object.NewTree(out)
	if _, err := tb.Backend.WriteObject(t.ToObject()); err != nil {
		return nil, xerrors.Errorf("could not write the object to the odb: %w", err)
	}
	return t, nil
}
