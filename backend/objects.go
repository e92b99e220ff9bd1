package backend

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Rust-Bucket/Crate-Index/ginternals"
	"github.com/Rust-Bucket/Crate-Index/ginternals/githash"
	"github.com/Rust-Bucket/Crate-Index/ginternals/object"
	"github.com/Rust-Bucket/Crate-Index/internal/errutil"
	"github.com/spf13/afero"
)

// Object returns the object that has given oid.
// ginternals.ErrObjectNotFound is returned if the object doesn't exist
// This method can be called concurrently
func (b *Backend) Object(oid githash.Oid) (*object.Object, error) {
	key := oid.Bytes()
	b.objectMu.RLock(key)
	defer b.objectMu.RUnlock(key)

	return b.objectUnsafe(oid)
}

func (b *Backend) objectUnsafe(oid githash.Oid) (*object.Object, error) {
	if cachedO, found := b.cache.Get(oid); found {
		if o, valid := cachedO.(*object.Object); valid {
			return o, nil
		}
	}

	o, err := b.looseObject(oid)
	if err != nil {
		return nil, err
	}
	b.cache.Add(oid, o)
	return o, nil
}

// looseObject returns the object matching the given OID
func (b *Backend) looseObject(oid githash.Oid) (o *object.Object, err error) {
	if _, exists := b.looseObjects.Load(oid); !exists {
		return nil, fmt.Errorf("object %s: %w", oid.String(), ginternals.ErrObjectNotFound)
	}

	strOid := oid.String()
	p := ginternals.LooseObjectPath(b.config, strOid)
	f, err := b.fs.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("object %s: %w", strOid, ginternals.ErrObjectNotFound)
		}
		return nil, fmt.Errorf("could not get object %s at path %s: %w", strOid, p, err)
	}
	defer errutil.Close(f, &err)

	o, err = object.Decompress(f)
	if err != nil {
		return nil, fmt.Errorf("could not read object %s at path %s: %w", strOid, p, err)
	}
	if o.ID() != oid {
		return nil, fmt.Errorf("object at path %s has id %s: %w", p, o.ID().String(), object.ErrObjectInvalid)
	}
	return o, nil
}

// HasObject returns whether an object exists in the odb
// This method can be called concurrently
func (b *Backend) HasObject(oid githash.Oid) bool {
	_, ok := b.looseObjects.Load(oid)
	return ok
}

// WriteObject adds an object to the odb. Writing an object that
// already exists is a no-op
// This method can be called concurrently
func (b *Backend) WriteObject(o *object.Object) (githash.Oid, error) {
	oid := o.ID()
	b.objectMu.Lock(oid.Bytes())
	defer b.objectMu.Unlock(oid.Bytes())

	if _, found := b.looseObjects.Load(oid); found {
		return oid, nil
	}

	data, err := o.Compress()
	if err != nil {
		return githash.NullOid, fmt.Errorf("could not compress object: %w", err)
	}

	sha := oid.String()
	p := ginternals.LooseObjectPath(b.config, sha)

	// We need to make sure the dest dir exists
	dest := filepath.Dir(p)
	if err = b.fs.MkdirAll(dest, 0o755); err != nil {
		return githash.NullOid, fmt.Errorf("could not create the destination directory %s: %w", dest, err)
	}

	// We use 444 because git object are read-only
	if err = afero.WriteFile(b.fs, p, data, 0o444); err != nil {
		return githash.NullOid, fmt.Errorf("could not persist object %s at path %s: %w", sha, p, err)
	}

	b.looseObjects.Store(oid, struct{}{})
	b.cache.Add(oid, o)
	return oid, nil
}

// loadLooseObject loads the IDs of the loose objects in memory
func (b *Backend) loadLooseObject() error {
	objectsPath := ginternals.ObjectsPath(b.config)
	return afero.Walk(b.fs, objectsPath, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			//nolint:nilerr // in case of error we just skip it and move on.
			// this will happen if the repo is empty and the ./objects
			// folder doesn't exists
			return nil
		}
		if path == objectsPath {
			return nil
		}

		// We're interested in all the directory that are named "00"
		// up to "ff"
		if info.IsDir() {
			if !isLooseObjectDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		prefix := filepath.Base(filepath.Dir(path))
		sha := prefix + info.Name()
		oid, err := githash.ParseString(sha)
		if err != nil {
			// not an object (tmp file, etc.)
			return nil //nolint:nilerr // we ignore files that aren't objects
		}
		b.looseObjects.Store(oid, struct{}{})
		return nil
	})
}

// isLooseObjectDir checks if a directory name is anything between 00 and ff
func isLooseObjectDir(name string) bool {
	if len(name) != 2 {
		return false
	}
	_, err := strconv.ParseUint(name, 16, 8)
	return err == nil
}
