package tree

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// crateNames returns the names of all the crates stored in the index,
// by walking the directory.
// Hidden files and directories (like .git) and the config file are
// skipped.
func crateNames(fsys afero.Fs, root string) (map[string]struct{}, error) {
	names := map[string]struct{}{}
	err := afero.Walk(fsys, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("could not walk %s: %w", path, err)
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		if info.Name() == ConfigFileName {
			return nil
		}
		names[info.Name()] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}
