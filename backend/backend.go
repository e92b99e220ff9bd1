// Package backend contains the storage layer of a git repository:
// loose objects and references saved on an afero filesystem
package backend

import (
	"fmt"
	"sync"

	"github.com/Rust-Bucket/Crate-Index/ginternals/config"
	"github.com/Rust-Bucket/Crate-Index/internal/cache"
	"github.com/Rust-Bucket/Crate-Index/internal/syncutil"
	"github.com/spf13/afero"
)

// cacheSize is the number of objects kept in memory
const cacheSize = 1000

// Backend is a storage implementation that uses a filesystem to store
// the objects and references of a repository
type Backend struct {
	config *config.Config
	fs     afero.Fs

	cache        *cache.LRU
	objectMu     *syncutil.NamedMutex
	looseObjects sync.Map

	refMu sync.Mutex
	refs  sync.Map
}

// NewFS returns a new Backend for the repository described by cfg.
// The existing references and objects are loaded in memory
func NewFS(cfg *config.Config) (*Backend, error) {
	c, err := cache.NewLRU(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create cache: %w", err)
	}
	b := &Backend{
		config:   cfg,
		fs:       cfg.FS,
		cache:    c,
		objectMu: syncutil.NewNamedMutex(101),
	}

	if err = b.loadRefs(); err != nil {
		return nil, fmt.Errorf("could not load the references: %w", err)
	}
	if err = b.loadLooseObject(); err != nil {
		return nil, fmt.Errorf("could not load the objects: %w", err)
	}
	return b, nil
}

// Path returns the path of the git directory
func (b *Backend) Path() string {
	return b.config.GitDirPath
}

// Config returns the config of the repository
func (b *Backend) Config() *config.Config {
	return b.config
}

// Close frees the resources used by the Backend
// This method cannot be called concurrently with other methods
func (b *Backend) Close() error {
	b.cache.Clear()
	return nil
}
