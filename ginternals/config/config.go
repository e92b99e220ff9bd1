// Package config contains structs to interact with the git configuration
// of an index repository
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Rust-Bucket/Crate-Index/internal/gitpath"
	"github.com/spf13/afero"
)

// ErrNoPath is returned when neither a work tree nor a git dir
// have been provided
var ErrNoPath = errors.New("a work tree or a git directory is required")

// Config contains the paths of a repository as well as its config file.
//
// If you decide to create a Config by yourself, make sure to set correct
// values everywhere
type Config struct {
	// FS represents the file system implementation to use to look for
	// files and directories.
	FS afero.Fs

	// GitDirPath represents the path to the .git directory.
	// For a bare repository this is the repository itself
	GitDirPath string
	// WorkTreePath represents the path of the checked out files.
	// Empty for a bare repository
	WorkTreePath string
	// ObjectDirPath represents the path to the .git/objects directory
	ObjectDirPath string
	// LocalConfig represents the path of the config file
	LocalConfig string

	file *File
}

// LoadConfigOptions represents all the params used to set the default
// values of a Config object
type LoadConfigOptions struct {
	// FS represents the file system implementation to use to look for
	// files and directories.
	// Defaults to the regular filesystem.
	FS afero.Fs
	// WorkTreePath corresponds to the directory that contains the .git.
	WorkTreePath string
	// GitDirPath corresponds to the .git directory.
	// Defaults to $WorkTreePath/.git, or to $WorkTreePath for a bare
	// repository
	GitDirPath string
	// IsBare defines if the repo is bare. It means that the repo has no
	// work tree
	IsBare bool
}

// LoadConfig returns a new Config for the repository described by the
// options. The config file is loaded if it exists
func LoadConfig(opts LoadConfigOptions) (*Config, error) {
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.WorkTreePath == "" && opts.GitDirPath == "" {
		return nil, ErrNoPath
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("could not get the current directory: %w", err)
	}
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(wd, p)
	}

	cfg := &Config{
		FS:           opts.FS,
		GitDirPath:   abs(opts.GitDirPath),
		WorkTreePath: abs(opts.WorkTreePath),
	}
	if cfg.GitDirPath == "" {
		cfg.GitDirPath = cfg.WorkTreePath
		if !opts.IsBare {
			cfg.GitDirPath = filepath.Join(cfg.WorkTreePath, gitpath.DotGitPath)
		}
	}
	if opts.IsBare {
		cfg.WorkTreePath = ""
	}
	cfg.ObjectDirPath = filepath.Join(cfg.GitDirPath, gitpath.ObjectsPath)
	cfg.LocalConfig = filepath.Join(cfg.GitDirPath, gitpath.ConfigPath)

	cfg.file, err = LoadFile(cfg.FS, cfg.LocalConfig)
	if err != nil {
		return nil, fmt.Errorf("could not load the config file: %w", err)
	}
	return cfg, nil
}

// File returns the config file of the repository.
// The file may not exist on disk yet
func (cfg *Config) File() *File {
	return cfg.file
}

// IsBare returns whether the repository has no work tree
func (cfg *Config) IsBare() bool {
	return cfg.WorkTreePath == ""
}
