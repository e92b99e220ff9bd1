package tree

import (
	"path/filepath"
	"strings"
)

// ShardPath returns the path of the record file of a crate, relative
// to the root of the index.
//
// Crates are spread among directories to keep their number of entries
// low:
//   - 1 char names go in 1/
//   - 2 chars names go in 2/
//   - 3 chars names go in 3/{first char}/
//   - the others go in {first 2 chars}/{next 2 chars}/
//
// The directories are lowercase, the file keeps the case of the name
// ex. "Serde" is stored at se/rd/Serde
//
// name is expected to have been validated
func ShardPath(name string) string {
	lower := strings.ToLower(name)
	switch len(name) {
	case 1:
		return filepath.Join("1", name)
	case 2:
		return filepath.Join("2", name)
	case 3:
		return filepath.Join("3", lower[0:1], name)
	default:
		return filepath.Join(lower[0:2], lower[2:4], name)
	}
}
