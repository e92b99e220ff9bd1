// Package crateindex contains a crates registry index backed by a
// directory and a git repository. Every change made to the index is
// committed so it can be synchronized with a remote
package crateindex

import (
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/Rust-Bucket/Crate-Index/ginternals"
	"github.com/Rust-Bucket/Crate-Index/git"
	"github.com/Rust-Bucket/Crate-Index/internal/logging"
	"github.com/Rust-Bucket/Crate-Index/record"
	"github.com/Rust-Bucket/Crate-Index/tree"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ErrUncommitted is matched by the errors returned when the index has
// been modified on disk but the change could not be committed
var ErrUncommitted = errors.New("change not committed")

// CommitError is returned when a change has been written to the
// index but could not be committed. The working tree is left modified
type CommitError struct {
	// Message is the message of the commit that failed
	Message string
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("could not commit %q: %s", e.Message, e.Err.Error())
}

// Unwrap returns the underlying error
func (e *CommitError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrUncommitted
func (e *CommitError) Is(target error) bool {
	return target == ErrUncommitted
}

// Identity represents the author of the commits
type Identity struct {
	Name  string
	Email string
}

// Index represents a crates index stored in a git repository
type Index struct {
	tree *tree.Tree
	repo *git.Repository
	log  logrus.FieldLogger
}

// InitOptions contains all the optional data used to initialize an
// index
type InitOptions struct {
	// API is the base URL of the registry's web API
	API string
	// AllowedRegistries contains the URL of the other indexes the crates
	// of this index are allowed to depend on
	AllowedRegistries []string
	// AllowCratesIO adds crates.io to the list of allowed registries
	AllowCratesIO bool
	// Origin is the URL of the repository the index is pushed to
	Origin string
	// Identity is the author of the commits. Defaults to the git
	// package default
	Identity *Identity
	// FS represents the file system implementation to use.
	// Defaults to the regular filesystem.
	FS afero.Fs
	// Logger is used to report the changes made to the index.
	// Defaults to a logger that discards everything
	Logger logrus.FieldLogger
}

// Init creates a new empty index and its git repository in the given
// directory
func Init(root, download string) (*Index, error) {
	return InitWithOptions(root, download, InitOptions{})
}

// InitWithOptions creates a new empty index and its git repository in
// the given directory
func InitWithOptions(root, download string, opts InitOptions) (*Index, error) {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	t, err := tree.InitWithOptions(root, download, tree.InitOptions{
		API:               opts.API,
		AllowedRegistries: opts.AllowedRegistries,
		AllowCratesIO:     opts.AllowCratesIO,
		FS:                opts.FS,
		Logger:            opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	repo, err := git.InitRepositoryWithOptions(root, git.InitOptions{
		FS:     opts.FS,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create the git repository: %w", err)
	}
	idx := &Index{
		tree: t,
		repo: repo,
		log:  opts.Logger,
	}
	if err = idx.setupRepository(opts); err != nil {
		repo.Close() //nolint:errcheck // we already have an error to return
		return nil, err
	}
	return idx, nil
}

func (idx *Index) setupRepository(opts InitOptions) error {
	if opts.Origin != "" {
		if err := idx.repo.AddRemote(ginternals.Origin, opts.Origin); err != nil {
			return fmt.Errorf("could not add the origin: %w", err)
		}
	}
	if opts.Identity != nil {
		if err := idx.repo.SetIdentity(opts.Identity.Name, opts.Identity.Email); err != nil {
			return fmt.Errorf("could not set the identity: %w", err)
		}
	}
	if _, err := idx.repo.CreateInitialCommit(); err != nil {
		return fmt.Errorf("could not create the initial commit: %w", err)
	}
	return nil
}

// OpenOptions contains all the optional data used to open an index
type OpenOptions struct {
	// FS represents the file system implementation to use.
	// Defaults to the regular filesystem.
	FS afero.Fs
	// Logger is used to report the changes made to the index.
	// Defaults to a logger that discards everything
	Logger logrus.FieldLogger
}

// Open loads an existing index
func Open(root string) (*Index, error) {
	return OpenWithOptions(root, OpenOptions{})
}

// OpenWithOptions loads an existing index
func OpenWithOptions(root string, opts OpenOptions) (*Index, error) {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	t, err := tree.OpenWithOptions(root, tree.OpenOptions{
		FS:     opts.FS,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	repo, err := git.OpenRepositoryWithOptions(root, git.OpenOptions{
		FS:     opts.FS,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open the git repository: %w", err)
	}
	return &Index{
		tree: t,
		repo: repo,
		log:  opts.Logger,
	}, nil
}

// Clone copies the index stored at the given git URL into root, and
// opens it
func Clone(url, root string, opts OpenOptions) (*Index, error) {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	repo, err := git.Clone(url, root, git.CloneOptions{
		FS:     opts.FS,
		Logger: opts.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not clone %s: %w", url, err)
	}
	t, err := tree.OpenWithOptions(root, tree.OpenOptions{
		FS:     opts.FS,
		Logger: opts.Logger,
	})
	if err != nil {
		repo.Close() //nolint:errcheck // we already have an error to return
		return nil, err
	}
	return &Index{
		tree: t,
		repo: repo,
		log:  opts.Logger,
	}, nil
}

// Close frees the resources used by the index
func (idx *Index) Close() error {
	return idx.repo.Close()
}

// Insert adds a new version of a crate to the index, and commits it.
// The returned error matches validate.ErrValidation if the record
// cannot be added, in which case nothing is written nor committed
func (idx *Index) Insert(r *record.Record) error {
	if err := idx.tree.Insert(r); err != nil {
		return err
	}
	return idx.commit(r.Name(), fmt.Sprintf("updating crate `%s`", r.String()))
}

// Yank marks a version of a crate as yanked, and commits the change.
// The returned error matches tree.ErrNotFound if the crate or the
// version doesn't exist
func (idx *Index) Yank(name string, v *semver.Version) error {
	if err := idx.tree.Yank(name, v); err != nil {
		return err
	}
	return idx.commit(name, fmt.Sprintf("yanking crate `%s#%s`", name, v.String()))
}

// Unyank marks a version of a crate as not yanked, and commits the
// change.
// The returned error matches tree.ErrNotFound if the crate or the
// version doesn't exist
func (idx *Index) Unyank(name string, v *semver.Version) error {
	if err := idx.tree.Unyank(name, v); err != nil {
		return err
	}
	return idx.commit(name, fmt.Sprintf("unyanking crate `%s#%s`", name, v.String()))
}

// commit stages the record file of the given crate and the config
// file, and commits them
func (idx *Index) commit(name, message string) error {
	paths := []string{tree.ShardPath(name), tree.ConfigFileName}
	for _, p := range paths {
		if err := idx.repo.StagePath(p); err != nil {
			return &CommitError{
				Message: message,
				Err:     fmt.Errorf("could not stage %s: %w", p, err),
			}
		}
	}
	c, err := idx.repo.Commit(message)
	if err != nil {
		return &CommitError{Message: message, Err: err}
	}
	idx.log.WithFields(logrus.Fields{
		"crate":  name,
		"commit": c.ID().String(),
	}).Info(message)
	return nil
}

// Push sends the commits to the origin
func (idx *Index) Push() error {
	if err := idx.repo.Push(ginternals.Origin); err != nil {
		return fmt.Errorf("could not push: %w", err)
	}
	return nil
}

// Pull fetches the commits of the origin, updates the files, and
// reloads the list of crates
func (idx *Index) Pull() error {
	if err := idx.repo.Pull(ginternals.Origin); err != nil {
		return fmt.Errorf("could not pull: %w", err)
	}
	if err := idx.tree.Rescan(); err != nil {
		return fmt.Errorf("could not reload the index: %w", err)
	}
	return nil
}

// Root returns the directory containing the index
func (idx *Index) Root() string {
	return idx.tree.Root()
}

// Download returns the URL template used to download a crate
func (idx *Index) Download() string {
	return idx.tree.Download()
}

// API returns the URL of the API of the registry, if any
func (idx *Index) API() (string, bool) {
	return idx.tree.API()
}

// AllowedRegistries returns the list of registries the crates are
// allowed to depend on
func (idx *Index) AllowedRegistries() []string {
	return idx.tree.AllowedRegistries()
}

// ContainsCrate returns whether the index contains the given crate
func (idx *Index) ContainsCrate(name string) bool {
	return idx.tree.ContainsCrate(name)
}

// Tree returns the directory part of the index
func (idx *Index) Tree() *tree.Tree {
	return idx.tree
}

// Repository returns the git repository of the index
func (idx *Index) Repository() *git.Repository {
	return idx.repo
}

