package backend

import (
	"fmt"

	"github.com/Rust-Bucket/Crate-Index/ginternals"
	"github.com/spf13/afero"
)

// Init initializes a repository whose HEAD points to branchName
// This method cannot be called concurrently with other methods
func (b *Backend) Init(branchName string, bare bool) error {
	// Create the directories
	dirs := []string{
		b.Path(),
		ginternals.TagsPath(b.config),
		ginternals.LocalBranchesPath(b.config),
		ginternals.ObjectsPath(b.config),
		ginternals.ObjectsInfoPath(b.config),
	}
	for _, d := range dirs {
		if err := b.fs.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("could not create directory %s: %w", d, err)
		}
	}

	desc := ginternals.DescriptionFilePath(b.config)
	content := []byte("Unnamed repository; edit this file 'description' to name the repository.\n")
	if err := afero.WriteFile(b.fs, desc, content, 0o644); err != nil {
		return fmt.Errorf("could not create file %s: %w", desc, err)
	}

	if err := b.setDefaultCfg(bare); err != nil {
		return fmt.Errorf("could not set the default config: %w", err)
	}

	ref := ginternals.NewSymbolicReference(ginternals.Head, ginternals.LocalBranchFullName(branchName))
	if err := b.WriteReferenceSafe(ref); err != nil {
		return fmt.Errorf("could not write HEAD: %w", err)
	}
	return nil
}

// setDefaultCfg set and persists the default git configuration for
// the repository
func (b *Backend) setDefaultCfg(bare bool) error {
	f := b.config.File()
	f.SetCoreDefaults(bare)
	return f.Save()
}
