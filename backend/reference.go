package backend

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rust-Bucket/Crate-Index/ginternals"
	"github.com/Rust-Bucket/Crate-Index/ginternals/githash"
	"github.com/Rust-Bucket/Crate-Index/internal/errutil"
	"github.com/spf13/afero"
)

// ErrRefChanged is returned when a reference doesn't target the
// expected object anymore
var ErrRefChanged = errors.New("reference changed")

// Reference returns a stored reference from its name
// ErrRefNotFound is returned if the reference doesn't exists
// This method can be called concurrently
func (b *Backend) Reference(name string) (*ginternals.Reference, error) {
	finder := func(name string) ([]byte, error) {
		data, ok := b.refs.Load(name)
		if !ok {
			return nil, fmt.Errorf(`ref "%s": %w`, name, ginternals.ErrRefNotFound)
		}
		return data.([]byte), nil
	}
	return ginternals.ResolveReference(name, finder)
}

// SymbolicTarget returns the name of the reference targeted by a
// symbolic reference, without resolving it. This works even if the
// target doesn't exist yet (HEAD of an empty repository)
func (b *Backend) SymbolicTarget(name string) (string, error) {
	data, ok := b.refs.Load(name)
	if !ok {
		return "", fmt.Errorf(`ref "%s": %w`, name, ginternals.ErrRefNotFound)
	}
	content := strings.TrimSpace(string(data.([]byte)))
	if !strings.HasPrefix(content, "ref: ") {
		return "", fmt.Errorf(`ref "%s" is not symbolic: %w`, name, ginternals.ErrRefInvalid)
	}
	return strings.TrimPrefix(content, "ref: "), nil
}

// systemPath returns a path from a ref name
// Ex.: On windows refs/heads/master would return refs\heads\master
func (b *Backend) systemPath(name string) string {
	name = filepath.FromSlash(name)
	return filepath.Join(b.Path(), name)
}

// loadRefs loads the references in memory
func (b *Backend) loadRefs() (err error) {
	// We first parse the packed-refs file which may or may not exists
	// and may or may not contain outdated information
	// (outdated information will be overwritten once we parse the
	// on-disk references).
	packedRefPath := ginternals.PackedRefsPath(b.config)
	f, err := b.fs.Open(packedRefPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not open %s: %w", packedRefPath, err)
	}
	// if the file doesn't exist then there's nothing to do
	if err == nil {
		defer errutil.Close(f, &err)

		sc := bufio.NewScanner(f)
		for i := 1; sc.Scan(); i++ {
			line := sc.Text()
			// we skip empty lines, comments, and annotated tag commit
			if line == "" || line[0] == '#' || line[0] == '^' {
				continue
			}
			// We expected data to have the format:
			// "oid ref-name"
			parts := strings.Split(line, " ")
			if len(parts) != 2 {
				return fmt.Errorf("could not parse %s, unexpected data line %d: %w", packedRefPath, i, ginternals.ErrPackedRefInvalid)
			}
			// the name of the ref is its UNIX path
			b.refs.Store(filepath.ToSlash(parts[1]), []byte(parts[0]))
		}

		if sc.Err() != nil {
			return fmt.Errorf("could not parse %s: %w", packedRefPath, sc.Err())
		}
	}

	// Now we browse all the references on disk
	refsPath := ginternals.RefsPath(b.config)
	err = afero.Walk(b.fs, refsPath, func(path string, info fs.FileInfo, e error) error {
		// if refsPath doesn't exists this will return nil and skip the error
		// this is useful in case where the repo is empty and has no
		// references yet
		if path == refsPath {
			return nil
		}

		if e != nil {
			return fmt.Errorf("could not walk %s: %w", path, e)
		}
		if info.IsDir() {
			return nil
		}
		data, e := afero.ReadFile(b.fs, path)
		if e != nil {
			return fmt.Errorf("could not read reference at %s: %w", path, e)
		}
		relpath, e := filepath.Rel(b.Path(), path)
		if e != nil {
			return e //nolint:wrapcheck // the error message is already pretty descriptive
		}
		// the name of the ref is its UNIX path
		b.refs.Store(filepath.ToSlash(relpath), data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not browse the refs directory: %w", err)
	}

	// HEAD lives at the root of the git directory
	data, err := afero.ReadFile(b.fs, filepath.Join(b.Path(), ginternals.Head))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not read reference at %s: %w", ginternals.Head, err)
	}
	b.refs.Store(ginternals.Head, data)

	return nil
}

// WriteReference writes the given reference on disk. If the
// reference already exists it will be overwritten
func (b *Backend) WriteReference(ref *ginternals.Reference) error {
	b.refMu.Lock()
	defer b.refMu.Unlock()

	return b.writeReference(ref)
}

// WriteReferenceSafe writes the given reference on disk.
// ErrRefExists is returned if the reference already exists
func (b *Backend) WriteReferenceSafe(ref *ginternals.Reference) error {
	b.refMu.Lock()
	defer b.refMu.Unlock()

	if _, ok := b.refs.Load(ref.Name()); ok {
		return ginternals.ErrRefExists
	}
	return b.writeReference(ref)
}

// UpdateReference moves an oid reference to a new target, only if it
// currently targets expected. A zero expected Oid means the
// reference must not exist yet.
// ErrRefChanged is returned if the reference doesn't target expected
func (b *Backend) UpdateReference(ref *ginternals.Reference, expected githash.Oid) error {
	b.refMu.Lock()
	defer b.refMu.Unlock()

	current := githash.NullOid
	existing, err := b.Reference(ref.Name())
	switch {
	case err == nil:
		current = existing.Target()
	case !errors.Is(err, ginternals.ErrRefNotFound):
		return fmt.Errorf("could not get reference %s: %w", ref.Name(), err)
	}
	if current != expected {
		return fmt.Errorf("reference %s targets %s: %w", ref.Name(), current.String(), ErrRefChanged)
	}
	return b.writeReference(ref)
}

// writeReference writes the given reference on disk. If the
// reference already exists it will be overwritten
func (b *Backend) writeReference(ref *ginternals.Reference) error {
	if !ginternals.IsRefNameValid(ref.Name()) {
		return ginternals.ErrRefNameInvalid
	}
	switch ref.Type() {
	case ginternals.SymbolicReference, ginternals.OidReference:
	default:
		return fmt.Errorf("reference type %d: %w", ref.Type(), ginternals.ErrUnknownRefType)
	}

	refPath := b.systemPath(ref.Name())
	// Since we can have `/` in the ref name, we need to create
	// the path on the FS
	dir := filepath.Dir(refPath)
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not persist reference to disk: %w", err)
	}
	data := ref.Bytes()
	if err := afero.WriteFile(b.fs, refPath, data, 0o644); err != nil {
		return fmt.Errorf("could not persist reference to disk: %w", err)
	}
	b.refs.Store(ref.Name(), data)
	return nil
}
