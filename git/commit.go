package git

import (
	"errors"
	"fmt"

	"github.com/Rust-Bucket/Crate-Index/ginternals"
	"github.com/Rust-Bucket/Crate-Index/ginternals/githash"
	"github.com/Rust-Bucket/Crate-Index/ginternals/object"
	"github.com/sirupsen/logrus"
)

// InitialCommitMessage is the message of the commit created by
// CreateInitialCommit
const InitialCommitMessage = "Initial commit"

// CreateInitialCommit commits the staging area, without any parents.
// ErrRepositoryNotEmpty is returned if the current branch already has
// commits
func (r *Repository) CreateInitialCommit() (*object.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.headID()
	if err == nil {
		return nil, ErrRepositoryNotEmpty
	}
	if !errors.Is(err, ErrNoCommit) {
		return nil, err
	}
	return r.commitUnsafe(InitialCommitMessage, githash.NullOid)
}

// Commit creates a new commit containing the staging area, on top
// of HEAD, and moves the current branch to it
func (r *Repository) Commit(message string) (*object.Commit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	parent, err := r.headID()
	if err != nil && !errors.Is(err, ErrNoCommit) {
		return nil, err
	}
	return r.commitUnsafe(message, parent)
}

func (r *Repository) commitUnsafe(message string, parent githash.Oid) (*object.Commit, error) {
	branch, err := r.Branch()
	if err != nil {
		return nil, err
	}

	tb := r.NewTreeBuilder()
	for p, e := range r.stage {
		if err = tb.Insert(p, e.ID, e.Mode); err != nil {
			return nil, fmt.Errorf("could not add %s to the tree: %w", p, err)
		}
	}
	tree, err := tb.Write()
	if err != nil {
		return nil, fmt.Errorf("could not write the tree: %w", err)
	}

	opts := &object.CommitOptions{
		Message: message,
	}
	if !parent.IsZero() {
		opts.ParentsID = []githash.Oid{parent}
	}
	c := object.NewCommit(tree.ID(), r.Signature(), opts)
	if _, err = r.dotGit.WriteObject(c.ToObject()); err != nil {
		return nil, fmt.Errorf("could not write the commit: %w", err)
	}

	ref := ginternals.NewReference(branch, c.ID())
	if err = r.dotGit.UpdateReference(ref, parent); err != nil {
		return nil, fmt.Errorf("could not move %s: %w", branch, err)
	}
	r.log.WithFields(logrus.Fields{
		"commit": c.ID().String(),
		"branch": ginternals.LocalBranchShortName(branch),
	}).Debug(message)
	return c, nil
}
