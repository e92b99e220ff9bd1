// Package git contains a minimal git client able to track the files of
// an index: init, commit, and fast-forward synchronisation with a remote
// reachable on the filesystem
package git

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Rust-Bucket/Crate-Index/backend"
	"github.com/Rust-Bucket/Crate-Index/ginternals"
	"github.com/Rust-Bucket/Crate-Index/ginternals/config"
	"github.com/Rust-Bucket/Crate-Index/ginternals/githash"
	"github.com/Rust-Bucket/Crate-Index/ginternals/object"
	"github.com/Rust-Bucket/Crate-Index/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// List of errors returned by the Repository struct
var (
	ErrRepositoryNotExist           = errors.New("repository does not exist")
	ErrRepositoryUnsupportedVersion = errors.New("repository not supported")
	ErrRepositoryExists             = errors.New("repository already exists")
	ErrRepositoryNotEmpty           = errors.New("repository already has commits")
	ErrNoCommit                     = errors.New("branch has no commits")
	ErrBareRepository               = errors.New("operation not supported on a bare repository")
)

// Repository represent a git repository
// A Git repository is the .git/ folder inside a project.
// This repository tracks all changes made to files in your project,
// building a history over time.
// https://blog.axosoft.com/learning-git-repository/
type Repository struct {
	config *config.Config
	dotGit *backend.Backend
	fs     afero.Fs
	log    logrus.FieldLogger

	// mu protects the staging area and serializes the commits
	mu    sync.Mutex
	stage map[string]object.TreeEntry
}

// InitOptions contains all the optional data used to initialized a
// repository
type InitOptions struct {
	// IsBare represents whether a bare repository will be created or not
	IsBare bool
	// FS represents the filesystem the repository lives on.
	// Defaults to the OS filesystem
	FS afero.Fs
	// Branch is the name of the branch HEAD points to.
	// Defaults to master
	Branch string
	// Logger is used to log the operations of the repository.
	// Defaults to a logger that discards everything
	Logger logrus.FieldLogger
}

// InitRepository initialize a new git repository by creating the .git
// directory in the given path, which is where almost everything that
// Git stores and manipulates is located.
// https://git-scm.com/book/en/v2/Git-Internals-Plumbing-and-Porcelain#ch10-git-internals
func InitRepository(repoPath string) (*Repository, error) {
	return InitRepositoryWithOptions(repoPath, InitOptions{})
}

// InitRepositoryWithOptions initialize a new git repository by creating
// the .git directory in the given path, which is where almost everything
// that Git stores and manipulates is located.
// https://git-scm.com/book/en/v2/Git-Internals-Plumbing-and-Porcelain#ch10-git-internals
func InitRepositoryWithOptions(repoPath string, opts InitOptions) (*Repository, error) {
	if opts.Branch == "" {
		opts.Branch = ginternals.Master
	}
	r, err := newRepository(repoPath, opts.IsBare, opts.FS, opts.Logger)
	if err != nil {
		return nil, err
	}

	if _, err = r.dotGit.SymbolicTarget(ginternals.Head); err == nil {
		r.Close() //nolint:errcheck // we already have an error to return
		return nil, ErrRepositoryExists
	}
	if err = r.dotGit.Init(opts.Branch, opts.IsBare); err != nil {
		r.Close() //nolint:errcheck // we already have an error to return
		return nil, fmt.Errorf("could not initialize the repository: %w", err)
	}
	r.log.WithFields(logrus.Fields{
		"path":   repoPath,
		"branch": opts.Branch,
	}).Debug("git repository initialized")
	return r, nil
}

// OpenOptions contains all the optional data used to open a
// repository
type OpenOptions struct {
	// IsBare represents whether the repository is bare or not
	IsBare bool
	// FS represents the filesystem the repository lives on.
	// Defaults to the OS filesystem
	FS afero.Fs
	// Logger is used to log the operations of the repository.
	// Defaults to a logger that discards everything
	Logger logrus.FieldLogger
}

// OpenRepository loads an existing git repository by reading its
// config file, and returns a Repository instance
func OpenRepository(repoPath string) (*Repository, error) {
	return OpenRepositoryWithOptions(repoPath, OpenOptions{})
}

// OpenRepositoryWithOptions loads an existing git repository by reading
// its config file, and returns a Repository instance
func OpenRepositoryWithOptions(repoPath string, opts OpenOptions) (*Repository, error) {
	r, err := newRepository(repoPath, opts.IsBare, opts.FS, opts.Logger)
	if err != nil {
		return nil, err
	}
	if err = r.load(); err != nil {
		r.Close() //nolint:errcheck // we already have an error to return
		return nil, err
	}
	return r, nil
}

// load makes sure the repository exists and loads its staging area
func (r *Repository) load() error {
	// HEAD should always be there
	if _, err := r.dotGit.SymbolicTarget(ginternals.Head); err != nil {
		if errors.Is(err, ginternals.ErrRefNotFound) {
			return ErrRepositoryNotExist
		}
		return fmt.Errorf("could not read HEAD: %w", err)
	}

	if version, ok := r.config.File().RepoFormatVersion(); ok && version != 0 {
		return fmt.Errorf("version %d: %w", version, ErrRepositoryUnsupportedVersion)
	}

	if err := r.loadStage(); err != nil {
		return fmt.Errorf("could not load the staging area: %w", err)
	}
	return nil
}

func newRepository(repoPath string, isBare bool, fs afero.Fs, log logrus.FieldLogger) (*Repository, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = logging.Discard()
	}

	cfg, err := config.LoadConfig(config.LoadConfigOptions{
		FS:           fs,
		WorkTreePath: repoPath,
		IsBare:       isBare,
	})
	if err != nil {
		return nil, fmt.Errorf("could not load the config: %w", err)
	}
	dotGit, err := backend.NewFS(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not load the odb: %w", err)
	}
	return &Repository{
		config: cfg,
		dotGit: dotGit,
		fs:     fs,
		log:    log,
		stage:  map[string]object.TreeEntry{},
	}, nil
}

// Close frees the resources used by the repository
func (r *Repository) Close() error {
	return r.dotGit.Close()
}

// IsBare returns whether the repo is bare or not.
// A bare repo doesn't have a working tree
func (r *Repository) IsBare() bool {
	return r.config.IsBare()
}

// Path returns the path of the working tree, or the path of the
// repository itself if the repository is bare
func (r *Repository) Path() string {
	if r.IsBare() {
		return r.config.GitDirPath
	}
	return r.config.WorkTreePath
}

// Config returns the configuration of the repository
func (r *Repository) Config() *config.Config {
	return r.config
}

// GetObject returns the object matching the given ID
func (r *Repository) GetObject(oid githash.Oid) (*object.Object, error) {
	return r.dotGit.Object(oid)
}

// GetCommit returns the commit matching the given ID
func (r *Repository) GetCommit(oid githash.Oid) (*object.Commit, error) {
	o, err := r.dotGit.Object(oid)
	if err != nil {
		return nil, fmt.Errorf("could not get object %s: %w", oid.String(), err)
	}
	return o.AsCommit()
}

// GetTree returns the tree matching the given ID
func (r *Repository) GetTree(oid githash.Oid) (*object.Tree, error) {
	o, err := r.dotGit.Object(oid)
	if err != nil {
		return nil, fmt.Errorf("could not get object %s: %w", oid.String(), err)
	}
	return o.AsTree()
}

// Branch returns the full name of the branch HEAD points to
// ex. refs/heads/master
func (r *Repository) Branch() (string, error) {
	name, err := r.dotGit.SymbolicTarget(ginternals.Head)
	if err != nil {
		return "", fmt.Errorf("could not resolve HEAD: %w", err)
	}
	return name, nil
}

// Head returns the commit targeted by HEAD.
// ErrNoCommit is returned if the current branch has no commits
func (r *Repository) Head() (*object.Commit, error) {
	oid, err := r.headID()
	if err != nil {
		return nil, err
	}
	return r.GetCommit(oid)
}

// headID returns the ID of the commit targeted by HEAD.
// ErrNoCommit is returned if the current branch has no commits
func (r *Repository) headID() (githash.Oid, error) {
	ref, err := r.dotGit.Reference(ginternals.Head)
	if err != nil {
		if errors.Is(err, ginternals.ErrRefNotFound) {
			return githash.NullOid, ErrNoCommit
		}
		return githash.NullOid, fmt.Errorf("could not resolve HEAD: %w", err)
	}
	return ref.Target(), nil
}
