package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/Rust-Bucket/Crate-Index/internal/errutil"
	"github.com/Rust-Bucket/Crate-Index/record"
	"github.com/Rust-Bucket/Crate-Index/validate"
	"github.com/spf13/afero"
)

// File represents the record file of a crate. It contains one record
// per published version, ordered by version.
//
// The content of the file always matches the records held in memory:
// every change rewrites the whole file.
//
// A File is not safe for concurrent use, and nothing prevents two
// Files of the same crate from overwriting each other's changes.
type File struct {
	fs   afero.Fs
	name string
	path string
	// sorted by version, ascending
	records []*record.Record
}

// OpenFile opens the record file of the given crate, creating it
// (and its parent directories) if needed.
// ErrCorruptFile is returned if the file contains a line that is not
// a valid record
func OpenFile(fs afero.Fs, root, name string) (f *File, err error) {
	p := filepath.Join(root, ShardPath(name))
	if err = fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("could not create the parent directories of %s: %w", p, err)
	}

	raw, err := fs.OpenFile(p, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", p, err)
	}
	defer errutil.Close(raw, &err)

	data, err := io.ReadAll(raw)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", p, err)
	}

	f = &File{
		fs:   fs,
		name: name,
		path: p,
	}
	for i, line := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		r, e := record.Parse(line)
		if e != nil {
			return nil, fmt.Errorf("%s line %d: %s: %w", p, i+1, e.Error(), ErrCorruptFile)
		}
		f.records = append(f.records, r)
	}
	sort.SliceStable(f.records, func(i, j int) bool {
		return f.records[i].Version().LessThan(f.records[j].Version())
	})
	return f, nil
}

// Name returns the name of the crate
func (f *File) Name() string {
	return f.name
}

// Path returns the path of the file
func (f *File) Path() string {
	return f.path
}

// Len returns the number of records in the file
func (f *File) Len() int {
	return len(f.records)
}

// Records returns the records of the file, ordered by version
func (f *File) Records() []*record.Record {
	out := make([]*record.Record, len(f.records))
	copy(out, f.records)
	return out
}

// Get returns the record of the given version, or nil if it doesn't
// exist
func (f *File) Get(v *semver.Version) *record.Record {
	i, found := f.search(v)
	if !found {
		return nil
	}
	return f.records[i]
}

// LatestVersion returns the record with the greatest version, or nil
// if the file is empty
func (f *File) LatestVersion() *record.Record {
	if len(f.records) == 0 {
		return nil
	}
	return f.records[len(f.records)-1]
}

// greatestOfMajor returns the greatest version that has the given
// major number, or nil
func (f *File) greatestOfMajor(major uint64) *semver.Version {
	for i := len(f.records) - 1; i >= 0; i-- {
		v := f.records[i].Version()
		if v.Major() == major {
			return v
		}
		if v.Major() < major {
			return nil
		}
	}
	return nil
}

// search returns the position of the given version, or the position
// where it should be inserted
func (f *File) search(v *semver.Version) (i int, found bool) {
	i = sort.Search(len(f.records), func(i int) bool {
		return !f.records[i].Version().LessThan(v)
	})
	return i, i < len(f.records) && f.records[i].Version().Equal(v)
}

// Insert adds a new record to the file.
// A *validate.NameMismatchError or *validate.InvalidNameError is
// returned if the record belongs to another crate, and a
// *validate.VersionError if the version is not greater than the
// greatest version sharing its major number.
// Nothing is written when the record is invalid.
func (f *File) Insert(r *record.Record) error {
	if err := validate.Name(r.Name()); err != nil {
		return err
	}
	if r.Name() != f.name {
		return &validate.NameMismatchError{
			Expected: f.name,
			Given:    r.Name(),
		}
	}
	if err := validate.Version(f.greatestOfMajor(r.Version().Major()), r.Version()); err != nil {
		return err
	}
	if err := r.Validate(); err != nil {
		return err
	}

	i, _ := f.search(r.Version())
	f.records = append(f.records, nil)
	copy(f.records[i+1:], f.records[i:])
	f.records[i] = r
	return f.save()
}

// Yank marks a version as yanked.
// A *VersionNotFoundError is returned if the version doesn't exist
func (f *File) Yank(v *semver.Version) error {
	r := f.Get(v)
	if r == nil {
		return &VersionNotFoundError{Name: f.name, Version: v}
	}
	r.Yank()
	return f.save()
}

// Unyank marks a version as not yanked.
// A *VersionNotFoundError is returned if the version doesn't exist
func (f *File) Unyank(v *semver.Version) error {
	r := f.Get(v)
	if r == nil {
		return &VersionNotFoundError{Name: f.name, Version: v}
	}
	r.Unyank()
	return f.save()
}

// Bytes returns the content of the file: one JSON record per line,
// ordered by version
func (f *File) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	for _, r := range f.records {
		line, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("could not encode %s: %w", r, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// String returns the content of the file
func (f *File) String() string {
	data, err := f.Bytes()
	if err != nil {
		return ""
	}
	return string(data)
}

// save truncates the file and writes all the records
func (f *File) save() error {
	data, err := f.Bytes()
	if err != nil {
		return err
	}
	if err = afero.WriteFile(f.fs, f.path, data, 0o644); err != nil {
		return fmt.Errorf("could not write %s: %w", f.path, err)
	}
	return nil
}
