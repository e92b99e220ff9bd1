package ginternals

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/Rust-Bucket/Crate-Index/ginternals/config"
	"github.com/Rust-Bucket/Crate-Index/internal/gitpath"
)

// LocalBranchFullName returns the full name of branch
// ex. for `main` returns `refs/heads/main`
func LocalBranchFullName(shortName string) string {
	return path.Join(gitpath.RefsHeadsPath, shortName)
}

// LocalBranchShortName returns the short name of a branch
// ex. for `refs/heads/main` returns `main`
func LocalBranchShortName(fullName string) string {
	return strings.TrimPrefix(fullName, gitpath.RefsHeadsPath+"/")
}

// RemoteBranchFullName returns the full name of the branch of a remote
// ex. for `origin` and `main` returns `refs/remotes/origin/main`
func RemoteBranchFullName(remote, shortName string) string {
	return path.Join(gitpath.RefsRemotesPath, remote, shortName)
}

// RefsPath return the path to the directory that contains all the refs
func RefsPath(cfg *config.Config) string {
	return filepath.Join(cfg.GitDirPath, gitpath.RefsPath)
}

// RefPath return the path of a reference. The name of the reference
// uses the UNIX format (refs/heads/master)
func RefPath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.GitDirPath, filepath.FromSlash(name))
}

// PackedRefsPath return the local path of a the packed-refs file
func PackedRefsPath(cfg *config.Config) string {
	return filepath.Join(cfg.GitDirPath, gitpath.PackedRefsPath)
}

// LocalBranchesPath returns the path to the directory containing the
// local branches
func LocalBranchesPath(cfg *config.Config) string {
	return filepath.Join(cfg.GitDirPath, filepath.FromSlash(gitpath.RefsHeadsPath))
}

// TagsPath returns the path to the directory that contains the tags
func TagsPath(cfg *config.Config) string {
	return filepath.Join(cfg.GitDirPath, filepath.FromSlash(gitpath.RefsTagsPath))
}

// ObjectsPath returns the path to the directory that contains
// the object
func ObjectsPath(cfg *config.Config) string {
	return cfg.ObjectDirPath
}

// ObjectsInfoPath returns the path to the directory that contains
// the info about the objects
func ObjectsInfoPath(cfg *config.Config) string {
	return filepath.Join(cfg.ObjectDirPath, "info")
}

// DescriptionFilePath returns the path to the description file
func DescriptionFilePath(cfg *config.Config) string {
	return filepath.Join(cfg.GitDirPath, gitpath.DescriptionPath)
}

// LooseObjectPath returns the path of a loose object.
// Path is .git/objects/first_2_chars_of_sha/remaining_chars_of_sha
//
// Ex. path of fcfe68a0e44e04bd7fd564fc0b75f1ae457e18b3 is:
// .git/objects/fc/fe68a0e44e04bd7fd564fc0b75f1ae457e18b3
func LooseObjectPath(cfg *config.Config, sha string) string {
	return filepath.Join(ObjectsPath(cfg), sha[:2], sha[2:])
}
