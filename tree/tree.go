// Package tree contains the index as it is stored on disk: a config
// file at the root, and one record file per crate
package tree

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/Rust-Bucket/Crate-Index/internal/logging"
	"github.com/Rust-Bucket/Crate-Index/record"
	"github.com/Rust-Bucket/Crate-Index/validate"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// ErrIndexExists is returned when initializing an index in a directory
// that already contains one
var ErrIndexExists = errors.New("index already exists")

// Tree represents an index stored in a directory.
//
// The Tree keeps the set of known crates in memory. The set is built
// from the content of the directory when the Tree is opened, and is
// only valid as long as nothing else writes to the directory. Use
// Rescan() to rebuild it.
//
// A Tree is not safe for concurrent use when acting on the same crate
type Tree struct {
	fs     afero.Fs
	root   string
	config *Config
	log    logrus.FieldLogger

	crates map[string]struct{}
	// canonical name -> name
	canonical map[string]string
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
	// FS represents the file system implementation to use.
	// Defaults to the regular filesystem.
	FS afero.Fs
	// Logger is used to report the changes made to the index.
	// Defaults to a logger that discards everything
	Logger logrus.FieldLogger
}

// Init creates a new empty index in the given directory.
// download is the URL used to download a crate, it may contain the
// markers {crate} and {version}
func Init(root, download string) (*Tree, error) {
	return InitWithOptions(root, download, InitOptions{})
}

// InitWithOptions creates a new empty index in the given directory
func InitWithOptions(root, download string, opts InitOptions) (*Tree, error) {
	cfg, err := NewConfig(download, ConfigOptions{
		API:               opts.API,
		AllowedRegistries: opts.AllowedRegistries,
		AllowCratesIO:     opts.AllowCratesIO,
	})
	if err != nil {
		return nil, err
	}

	t := newTree(root, cfg, opts.FS, opts.Logger)
	_, err = t.fs.Stat(filepath.Join(root, ConfigFileName))
	if err == nil {
		return nil, fmt.Errorf("%s: %w", root, ErrIndexExists)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not check %s: %w", root, err)
	}

	if err = t.fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("could not create directory %s: %w", root, err)
	}
	if err = writeConfig(t.fs, root, cfg); err != nil {
		return nil, err
	}

	t.log.WithField("root", root).Debug("index initialized")
	return t, nil
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
func Open(root string) (*Tree, error) {
	return OpenWithOptions(root, OpenOptions{})
}

// OpenWithOptions loads an existing index
func OpenWithOptions(root string, opts OpenOptions) (*Tree, error) {
	t := newTree(root, nil, opts.FS, opts.Logger)

	cfg, err := readConfig(t.fs, root)
	if err != nil {
		return nil, err
	}
	t.config = cfg

	if err = t.Rescan(); err != nil {
		return nil, err
	}
	t.log.WithFields(logrus.Fields{
		"root":   root,
		"crates": len(t.crates),
	}).Debug("index opened")
	return t, nil
}

func newTree(root string, cfg *Config, fs afero.Fs, log logrus.FieldLogger) *Tree {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Tree{
		fs:        fs,
		root:      root,
		config:    cfg,
		log:       log,
		crates:    map[string]struct{}{},
		canonical: map[string]string{},
	}
}

// Rescan rebuilds the set of known crates from the content of the
// directory
func (t *Tree) Rescan() error {
	names, err := crateNames(t.fs, t.root)
	if err != nil {
		return fmt.Errorf("could not list the crates of %s: %w", t.root, err)
	}
	t.crates = map[string]struct{}{}
	t.canonical = map[string]string{}
	for name := range names {
		t.add(name)
	}
	return nil
}

func (t *Tree) add(name string) {
	t.crates[name] = struct{}{}
	t.canonical[validate.Canonicalize(name)] = name
}

// validateName checks that the name is valid, and that it's not too
// similar to a crate that already exists
func (t *Tree) validateName(name string) error {
	if err := validate.Name(name); err != nil {
		return err
	}
	existing, ok := t.canonical[validate.Canonicalize(name)]
	if ok && existing != name {
		return &validate.InvalidNameError{
			Name:   name,
			Reason: validate.ReasonTooSimilar,
		}
	}
	return nil
}

// File opens the record file of a crate that exists.
// A *CrateNotFoundError is returned if the crate doesn't exist
func (t *Tree) File(name string) (*File, error) {
	if !t.ContainsCrate(name) {
		return nil, &CrateNotFoundError{Name: name}
	}
	return OpenFile(t.fs, t.root, name)
}

// Insert adds a new version of a crate to the index.
// The returned error matches validate.ErrValidation if the record
// cannot be added, in which case the index is left untouched.
func (t *Tree) Insert(r *record.Record) error {
	if err := t.validateName(r.Name()); err != nil {
		return err
	}
	// OpenFile creates the file of new crates
	if err := r.Validate(); err != nil {
		return err
	}

	f, err := OpenFile(t.fs, t.root, r.Name())
	if err != nil {
		return err
	}
	if err = f.Insert(r); err != nil {
		return err
	}
	t.add(r.Name())

	t.log.WithFields(logrus.Fields{
		"crate":   r.Name(),
		"version": r.Version().String(),
	}).Debug("version inserted")
	return nil
}

// Yank marks a version of a crate as yanked.
// The returned error matches ErrNotFound if the crate or the version
// doesn't exist
func (t *Tree) Yank(name string, v *semver.Version) error {
	return t.setYanked(name, v, true)
}

// Unyank marks a version of a crate as not yanked.
// The returned error matches ErrNotFound if the crate or the version
// doesn't exist
func (t *Tree) Unyank(name string, v *semver.Version) error {
	return t.setYanked(name, v, false)
}

func (t *Tree) setYanked(name string, v *semver.Version, yanked bool) error {
	f, err := t.File(name)
	if err != nil {
		return err
	}

	if yanked {
		err = f.Yank(v)
	} else {
		err = f.Unyank(v)
	}
	if err != nil {
		return err
	}

	t.log.WithFields(logrus.Fields{
		"crate":   name,
		"version": v.String(),
		"yanked":  yanked,
	}).Debug("version updated")
	return nil
}

// ContainsCrate returns whether the index contains the given crate
func (t *Tree) ContainsCrate(name string) bool {
	_, ok := t.crates[name]
	return ok
}

// Crates returns the name of all the crates, sorted
func (t *Tree) Crates() []string {
	out := make([]string, 0, len(t.crates))
	for name := range t.crates {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Path returns the path of the record file of a crate, whether the
// crate exists or not
func (t *Tree) Path(name string) string {
	return filepath.Join(t.root, ShardPath(name))
}

// Root returns the directory containing the index
func (t *Tree) Root() string {
	return t.root
}

// Config returns the configuration of the index
func (t *Tree) Config() *Config {
	return t.config
}

// Download returns the URL template used to download a crate
func (t *Tree) Download() string {
	return t.config.Download()
}

// API returns the URL of the API of the registry, if any
func (t *Tree) API() (string, bool) {
	return t.config.API()
}

// AllowedRegistries returns the list of registries the crates are
// allowed to depend on
func (t *Tree) AllowedRegistries() []string {
	return t.config.AllowedRegistries()
}

// FS returns the filesystem used by the index
func (t *Tree) FS() afero.Fs {
	return t.fs
}
