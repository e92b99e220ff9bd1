package git

import (
	"errors"
	"fmt"

	"github.com/Rust-Bucket/Crate-Index/ginternals/object"
)

// Identity used when the repository has no user configured
const (
	DefaultUserName  = "crate-index"
	DefaultUserEmail = "crate-index@localhost"
)

// ErrRemoteExists is returned when adding a remote that already exists
var ErrRemoteExists = errors.New("remote already exists")

// ErrRemoteNotFound is returned when using a remote that doesn't exist
var ErrRemoteNotFound = errors.New("remote not found")

// AddRemote adds a remote to the repository and persists it in
// the config file
func (r *Repository) AddRemote(name, url string) error {
	f := r.config.File()
	if _, ok := f.RemoteURL(name); ok {
		return fmt.Errorf("remote %s: %w", name, ErrRemoteExists)
	}
	f.SetRemote(name, url)
	if err := f.Save(); err != nil {
		return fmt.Errorf("could not save the config: %w", err)
	}
	r.log.WithField("remote", name).Debug("remote added")
	return nil
}

// Remote returns the URL of a remote
func (r *Repository) Remote(name string) (url string, ok bool) {
	return r.config.File().RemoteURL(name)
}

// SetIdentity sets the author and committer used for the commits, and
// persists it in the config file
func (r *Repository) SetIdentity(name, email string) error {
	f := r.config.File()
	f.SetUser(name, email)
	if err := f.Save(); err != nil {
		return fmt.Errorf("could not save the config: %w", err)
	}
	return nil
}

// Signature returns a signature of the configured user at the
// current time
func (r *Repository) Signature() object.Signature {
	f := r.config.File()
	name, ok := f.UserName()
	if !ok || name == "" {
		name = DefaultUserName
	}
	email, ok := f.UserEmail()
	if !ok || email == "" {
		email = DefaultUserEmail
	}
	return object.NewSignature(name, email)
}
