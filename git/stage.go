package git

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/Rust-Bucket/Crate-Index/ginternals/githash"
	"github.com/Rust-Bucket/Crate-Index/ginternals/object"
	"github.com/Rust-Bucket/Crate-Index/internal/gitpath"
	"github.com/spf13/afero"
)

// loadStage sets the staging area to the content of HEAD
func (r *Repository) loadStage() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stage = map[string]object.TreeEntry{}
	head, err := r.Head()
	if err != nil {
		if errors.Is(err, ErrNoCommit) {
			return nil
		}
		return err
	}
	return r.flattenTree(head.TreeID(), "", r.stage)
}

// flattenTree adds all the files of a tree to out, indexed by their
// UNIX path
func (r *Repository) flattenTree(oid githash.Oid, prefix string, out map[string]object.TreeEntry) error {
	t, err := r.GetTree(oid)
	if err != nil {
		return fmt.Errorf("could not get tree %s: %w", oid.String(), err)
	}
	for _, e := range t.Entries() {
		p := path.Join(prefix, e.Path)
		if e.Mode == object.ModeDirectory {
			if err := r.flattenTree(e.ID, p, out); err != nil {
				return err
			}
			continue
		}
		e.Path = p
		out[p] = e
	}
	return nil
}

// StagePath adds the current content of a file of the working tree
// to the staging area. relPath is relative to the root of the
// working tree. The file is removed from the staging area if it
// doesn't exist anymore
func (r *Repository) StagePath(relPath string) error {
	if r.IsBare() {
		return ErrBareRepository
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stagePathUnsafe(relPath)
}

func (r *Repository) stagePathUnsafe(relPath string) error {
	key := filepath.ToSlash(filepath.Clean(relPath))
	fullPath := filepath.Join(r.config.WorkTreePath, relPath)

	info, err := r.fs.Stat(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			delete(r.stage, key)
			return nil
		}
		return fmt.Errorf("could not stat %s: %w", fullPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("could not stage %s: %w", relPath, errIsDirectory)
	}

	data, err := afero.ReadFile(r.fs, fullPath)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", fullPath, err)
	}
	oid, err := r.dotGit.WriteObject(object.New(object.TypeBlob, data))
	if err != nil {
		return fmt.Errorf("could not write the blob of %s: %w", relPath, err)
	}

	mode := object.ModeFile
	if info.Mode()&0o100 != 0 {
		mode = object.ModeExecutable
	}
	r.stage[key] = object.TreeEntry{
		Path: key,
		ID:   oid,
		Mode: mode,
	}
	return nil
}

var errIsDirectory = errors.New("path is a directory")

// StageAll replaces the staging area by the content of the working
// tree. The .git directory is ignored
func (r *Repository) StageAll() error {
	if r.IsBare() {
		return ErrBareRepository
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	root := r.config.WorkTreePath
	r.stage = map[string]object.TreeEntry{}
	return afero.Walk(r.fs, root, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("could not walk %s: %w", p, err)
		}
		if info.IsDir() {
			if info.Name() == gitpath.DotGitPath {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("could not get the relative path of %s: %w", p, err)
		}
		return r.stagePathUnsafe(rel)
	})
}

// checkoutUnsafe updates the working tree and the staging area to
// match the content of the given tree. Files tracked by the staging
// area that are not part of the tree are removed
func (r *Repository) checkoutUnsafe(treeID githash.Oid) error {
	target := map[string]object.TreeEntry{}
	if err := r.flattenTree(treeID, "", target); err != nil {
		return err
	}

	if !r.IsBare() {
		for p, e := range target {
			if current, ok := r.stage[p]; ok && current.ID == e.ID {
				continue
			}
			if err := r.writeWorkTreeFile(p, e); err != nil {
				return err
			}
		}
		for p := range r.stage {
			if _, ok := target[p]; ok {
				continue
			}
			fullPath := filepath.Join(r.config.WorkTreePath, filepath.FromSlash(p))
			if err := r.fs.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("could not remove %s: %w", fullPath, err)
			}
		}
	}

	r.stage = target
	return nil
}

func (r *Repository) writeWorkTreeFile(p string, e object.TreeEntry) error {
	o, err := r.dotGit.Object(e.ID)
	if err != nil {
		return fmt.Errorf("could not get blob %s: %w", e.ID.String(), err)
	}
	fullPath := filepath.Join(r.config.WorkTreePath, filepath.FromSlash(p))
	if err = r.fs.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("could not create %s: %w", filepath.Dir(fullPath), err)
	}
	perm := os.FileMode(0o644)
	if e.Mode == object.ModeExecutable {
		perm = 0o755
	}
	if err = afero.WriteFile(r.fs, fullPath, o.AsBlob().Bytes(), perm); err != nil {
		return fmt.Errorf("could not write %s: %w", fullPath, err)
	}
	return nil
}
