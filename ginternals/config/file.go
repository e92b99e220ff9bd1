package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Rust-Bucket/Crate-Index/internal/errutil"
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"
)

// defaultLoadOption contains the params used to load the config files
//
//nolint:gochecknoglobals // treat this as a const
var defaultLoadOption = ini.LoadOptions{
	SkipUnrecognizableLines: true,
}

const (
	sectionCore   = "core"
	sectionUser   = "user"
	remotePrefix  = "remote "
	keyURL        = "url"
	keyFetch      = "fetch"
	keyBare       = "bare"
	keyFormat     = "repositoryformatversion"
	keyFileMode   = "filemode"
	keyName       = "name"
	keyEmail      = "email"
)

// File represents the config file of a repository
type File struct {
	fs   afero.Fs
	path string

	mu  sync.Mutex
	ini *ini.File
}

// NewFile returns an empty config file that will be written at the
// given path
func NewFile(fs afero.Fs, path string) *File {
	return &File{
		fs:   fs,
		path: path,
		ini:  ini.Empty(defaultLoadOption),
	}
}

// LoadFile loads the config file located at path.
// An empty File is returned if the file doesn't exist
func LoadFile(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewFile(fs, path), nil
		}
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	f, err := ini.LoadSources(defaultLoadOption, data)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	return &File{
		fs:   fs,
		path: path,
		ini:  f,
	}, nil
}

// Path returns the path of the file on disk
func (f *File) Path() string {
	return f.path
}

// Save writes the config on disk
func (f *File) Save() (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err = f.fs.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("could not create %s: %w", filepath.Dir(f.path), err)
	}
	out, err := f.fs.OpenFile(f.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", f.path, err)
	}
	defer errutil.Close(out, &err)

	if _, err = f.ini.WriteTo(out); err != nil {
		return fmt.Errorf("could not write %s: %w", f.path, err)
	}
	return nil
}

func (f *File) get(section, key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.ini.GetSection(section)
	if err != nil {
		return "", false
	}
	if !s.HasKey(key) {
		return "", false
	}
	return s.Key(key).String(), true
}

func (f *File) set(section, key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ini.Section(section).Key(key).SetValue(value)
}

// SetCoreDefaults sets the core section the way `git init` does
func (f *File) SetCoreDefaults(bare bool) {
	f.set(sectionCore, keyFormat, "0")
	f.set(sectionCore, keyFileMode, "true")
	f.set(sectionCore, keyBare, fmt.Sprintf("%t", bare))
}

// RepoFormatVersion returns the version of the format of the repo
func (f *File) RepoFormatVersion() (version int, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, err := f.ini.Section(sectionCore).Key(keyFormat).Int()
	if err != nil {
		return 0, false
	}
	return v, true
}

// IsBare returns the value of core.bare
func (f *File) IsBare() (bare, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.ini.GetSection(sectionCore)
	if err != nil || !s.HasKey(keyBare) {
		return false, false
	}
	v, err := s.Key(keyBare).Bool()
	if err != nil {
		return false, false
	}
	return v, true
}

// UserName returns the value of user.name
func (f *File) UserName() (name string, ok bool) {
	return f.get(sectionUser, keyName)
}

// UserEmail returns the value of user.email
func (f *File) UserEmail() (email string, ok bool) {
	return f.get(sectionUser, keyEmail)
}

// SetUser sets user.name and user.email
func (f *File) SetUser(name, email string) {
	f.set(sectionUser, keyName, name)
	f.set(sectionUser, keyEmail, email)
}

// RemoteURL returns the URL of the given remote
func (f *File) RemoteURL(remote string) (url string, ok bool) {
	return f.get(remotePrefix+quote(remote), keyURL)
}

// SetRemote adds or updates a remote, with the default fetch refspec
func (f *File) SetRemote(remote, url string) {
	section := remotePrefix + quote(remote)
	f.set(section, keyURL, url)
	f.set(section, keyFetch, fmt.Sprintf("+refs/heads/*:refs/remotes/%s/*", remote))
}

// Remotes returns the name of all the remotes
func (f *File) Remotes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	remotes := []string{}
	for _, name := range f.ini.SectionStrings() {
		if !strings.HasPrefix(name, remotePrefix) {
			continue
		}
		remotes = append(remotes, strings.Trim(strings.TrimPrefix(name, remotePrefix), `"`))
	}
	return remotes
}

func quote(s string) string {
	return `"` + s + `"`
}
