package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Rust-Bucket/Crate-Index/backend"
	"github.com/Rust-Bucket/Crate-Index/ginternals"
	"github.com/Rust-Bucket/Crate-Index/ginternals/githash"
	"github.com/Rust-Bucket/Crate-Index/ginternals/object"
	"github.com/Rust-Bucket/Crate-Index/internal/gitpath"
	"github.com/sirupsen/logrus"
)

// List of errors returned when synchronizing with a remote
var (
	ErrNonFastForward = errors.New("histories have diverged, fast-forward impossible")
	ErrRemoteNotBare  = errors.New("cannot push to a remote that has a working tree")
)

// remotePath returns the path on the filesystem of a remote URL.
// Relative paths are relative to the repository
func (r *Repository) remotePath(url string) string {
	p := strings.TrimPrefix(url, "file://")
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.Path(), p)
	}
	return filepath.Clean(p)
}

// openRemote opens the repository of a remote. The remote is
// considered bare if it doesn't contain a .git directory
func (r *Repository) openRemote(name string) (*Repository, error) {
	url, ok := r.Remote(name)
	if !ok {
		return nil, fmt.Errorf("remote %s: %w", name, ErrRemoteNotFound)
	}
	p := r.remotePath(url)

	_, statErr := r.fs.Stat(filepath.Join(p, gitpath.DotGitPath))
	remote, err := OpenRepositoryWithOptions(p, OpenOptions{
		IsBare: statErr != nil,
		FS:     r.fs,
		Logger: r.log,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open remote %s at %s: %w", name, p, err)
	}
	return remote, nil
}

// branchTip returns the commit a branch points to, or a zero Oid if
// the branch doesn't exist
func (r *Repository) branchTip(branch string) (githash.Oid, error) {
	ref, err := r.dotGit.Reference(branch)
	if err != nil {
		if errors.Is(err, ginternals.ErrRefNotFound) {
			return githash.NullOid, nil
		}
		return githash.NullOid, fmt.Errorf("could not get %s: %w", branch, err)
	}
	return ref.Target(), nil
}

// Push sends the commits of the current branch to the same branch of
// the given remote. The remote must be bare and its branch must be an
// ancestor of the local branch
func (r *Repository) Push(remoteName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	branch, err := r.Branch()
	if err != nil {
		return err
	}
	local, err := r.branchTip(branch)
	if err != nil {
		return err
	}
	if local.IsZero() {
		return ErrNoCommit
	}

	remote, err := r.openRemote(remoteName)
	if err != nil {
		return err
	}
	defer remote.Close() //nolint:errcheck // nothing is written on close
	if !remote.IsBare() {
		return fmt.Errorf("remote %s: %w", remoteName, ErrRemoteNotBare)
	}

	remoteTip, err := remote.branchTip(branch)
	if err != nil {
		return err
	}
	logger := r.log.WithFields(logrus.Fields{
		"remote": remoteName,
		"branch": ginternals.LocalBranchShortName(branch),
		"commit": local.String(),
	})
	if remoteTip == local {
		logger.Debug("remote already up to date")
		return r.setRemoteTracking(remoteName, branch, local)
	}
	if !remoteTip.IsZero() {
		ok, e := isAncestor(r.dotGit, remoteTip, local)
		if e != nil {
			return e
		}
		if !ok {
			return fmt.Errorf("push to %s: %w", remoteName, ErrNonFastForward)
		}
	}

	if err = copyCommits(r.dotGit, remote.dotGit, local); err != nil {
		return fmt.Errorf("could not send the objects: %w", err)
	}
	if err = remote.dotGit.UpdateReference(ginternals.NewReference(branch, local), remoteTip); err != nil {
		if errors.Is(err, backend.ErrRefChanged) {
			return fmt.Errorf("push to %s: %w", remoteName, ErrNonFastForward)
		}
		return fmt.Errorf("could not update the remote branch: %w", err)
	}
	logger.Debug("pushed")
	return r.setRemoteTracking(remoteName, branch, local)
}

// Pull fast-forwards the current branch to the same branch of the
// given remote, and updates the working tree.
// Nothing happens if the local branch is ahead of the remote
func (r *Repository) Pull(remoteName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	branch, err := r.Branch()
	if err != nil {
		return err
	}
	local, err := r.branchTip(branch)
	if err != nil {
		return err
	}

	remote, err := r.openRemote(remoteName)
	if err != nil {
		return err
	}
	defer remote.Close() //nolint:errcheck // nothing is written on close

	remoteTip, err := remote.branchTip(branch)
	if err != nil {
		return err
	}
	logger := r.log.WithFields(logrus.Fields{
		"remote": remoteName,
		"branch": ginternals.LocalBranchShortName(branch),
		"commit": remoteTip.String(),
	})
	if remoteTip.IsZero() || remoteTip == local {
		logger.Debug("already up to date")
		return nil
	}

	if err = copyCommits(remote.dotGit, r.dotGit, remoteTip); err != nil {
		return fmt.Errorf("could not fetch the objects: %w", err)
	}
	if err = r.setRemoteTracking(remoteName, branch, remoteTip); err != nil {
		return err
	}

	if !local.IsZero() {
		behind, e := isAncestor(r.dotGit, local, remoteTip)
		if e != nil {
			return e
		}
		if !behind {
			ahead, e := isAncestor(r.dotGit, remoteTip, local)
			if e != nil {
				return e
			}
			if ahead {
				logger.Debug("local branch is ahead of the remote")
				return nil
			}
			return fmt.Errorf("pull from %s: %w", remoteName, ErrNonFastForward)
		}
	}

	c, err := r.GetCommit(remoteTip)
	if err != nil {
		return err
	}
	if err = r.checkoutUnsafe(c.TreeID()); err != nil {
		return fmt.Errorf("could not update the working tree: %w", err)
	}
	if err = r.dotGit.UpdateReference(ginternals.NewReference(branch, remoteTip), local); err != nil {
		return fmt.Errorf("could not move %s: %w", branch, err)
	}
	logger.Debug("fast-forwarded")
	return nil
}

// setRemoteTracking updates refs/remotes/<remote>/<branch>
func (r *Repository) setRemoteTracking(remote, branch string, oid githash.Oid) error {
	name := ginternals.RemoteBranchFullName(remote, ginternals.LocalBranchShortName(branch))
	if err := r.dotGit.WriteReference(ginternals.NewReference(name, oid)); err != nil {
		return fmt.Errorf("could not update %s: %w", name, err)
	}
	return nil
}

// CloneOptions contains all the optional data used to clone a
// repository
type CloneOptions = OpenOptions

// Clone creates a repository at repoPath containing the current branch
// of the repository located at url. The remote is registered as "origin"
func Clone(url, repoPath string, opts CloneOptions) (*Repository, error) {
	r, err := InitRepositoryWithOptions(repoPath, InitOptions{
		IsBare: opts.IsBare,
		FS:     opts.FS,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	if err = r.clone(url); err != nil {
		r.Close() //nolint:errcheck // we already have an error to return
		return nil, err
	}
	return r, nil
}

func (r *Repository) clone(url string) error {
	if err := r.AddRemote(ginternals.Origin, url); err != nil {
		return err
	}

	// we want the same default branch as the remote
	remote, err := r.openRemote(ginternals.Origin)
	if err != nil {
		return err
	}
	branch, err := remote.Branch()
	remote.Close() //nolint:errcheck // nothing is written on close
	if err != nil {
		return err
	}
	head := ginternals.NewSymbolicReference(ginternals.Head, branch)
	if err = r.dotGit.WriteReference(head); err != nil {
		return fmt.Errorf("could not update HEAD: %w", err)
	}
	return r.Pull(ginternals.Origin)
}

// isAncestor returns whether ancestor is reachable from the commit
// descendant
func isAncestor(db *backend.Backend, ancestor, descendant githash.Oid) (bool, error) {
	seen := map[githash.Oid]struct{}{}
	queue := []githash.Oid{descendant}
	for len(queue) > 0 {
		oid := queue[0]
		queue = queue[1:]
		if oid == ancestor {
			return true, nil
		}
		if _, ok := seen[oid]; ok {
			continue
		}
		seen[oid] = struct{}{}

		c, err := getCommit(db, oid)
		if err != nil {
			return false, err
		}
		queue = append(queue, c.ParentIDs()...)
	}
	return false, nil
}

// copyCommits copies the commit tip and all its history from src to dst.
// The commits are written from the oldest to the newest so the history
// of a commit that exists in dst is always complete
func copyCommits(src, dst *backend.Backend, tip githash.Oid) error {
	missing := []*object.Commit{}
	seen := map[githash.Oid]struct{}{}
	queue := []githash.Oid{tip}
	for len(queue) > 0 {
		oid := queue[0]
		queue = queue[1:]
		if _, ok := seen[oid]; ok {
			continue
		}
		seen[oid] = struct{}{}
		if dst.HasObject(oid) {
			continue
		}

		c, err := getCommit(src, oid)
		if err != nil {
			return err
		}
		missing = append(missing, c)
		queue = append(queue, c.ParentIDs()...)
	}

	for i := len(missing) - 1; i >= 0; i-- {
		c := missing[i]
		if err := copyTree(src, dst, c.TreeID()); err != nil {
			return err
		}
		if _, err := dst.WriteObject(c.ToObject()); err != nil {
			return fmt.Errorf("could not write commit %s: %w", c.ID().String(), err)
		}
	}
	return nil
}

// copyTree copies a tree and all its content from src to dst
func copyTree(src, dst *backend.Backend, oid githash.Oid) error {
	if dst.HasObject(oid) {
		return nil
	}
	o, err := src.Object(oid)
	if err != nil {
		return fmt.Errorf("could not get tree %s: %w", oid.String(), err)
	}
	t, err := o.AsTree()
	if err != nil {
		return err
	}
	for _, e := range t.Entries() {
		if e.Mode.ObjectType() == object.TypeTree {
			if err = copyTree(src, dst, e.ID); err != nil {
				return err
			}
			continue
		}
		if dst.HasObject(e.ID) {
			continue
		}
		blob, err := src.Object(e.ID)
		if err != nil {
			return fmt.Errorf("could not get blob %s: %w", e.ID.String(), err)
		}
		if _, err = dst.WriteObject(blob); err != nil {
			return fmt.Errorf("could not write blob %s: %w", e.ID.String(), err)
		}
	}
	// the tree is written last so a tree in dst is always complete
	if _, err = dst.WriteObject(o); err != nil {
		return fmt.Errorf("could not write tree %s: %w", oid.String(), err)
	}
	return nil
}

func getCommit(db *backend.Backend, oid githash.Oid) (*object.Commit, error) {
	o, err := db.Object(oid)
	if err != nil {
		return nil, fmt.Errorf("could not get commit %s: %w", oid.String(), err)
	}
	return o.AsCommit()
}
