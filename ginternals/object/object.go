// Package object contains methods and objects to work with git objects
package object

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Rust-Bucket/Crate-Index/ginternals/githash"
	"github.com/Rust-Bucket/Crate-Index/internal/errutil"
	"github.com/Rust-Bucket/Crate-Index/internal/readutil"
	"golang.org/x/xerrors"
)

var (
	// ErrObjectUnknown represents an error thrown when encountering an
	// unknown object
	ErrObjectUnknown = errors.New("invalid object type")

	// ErrObjectInvalid represents an error thrown when an object contains
	// unexpected data or when the wrong object is provided to a method.
	// Ex. Parsing a blob as a commit
	ErrObjectInvalid = errors.New("invalid object")

	// ErrTreeInvalid represents an error thrown when parsing an invalid
	// tree object
	ErrTreeInvalid = errors.New("invalid tree")

	// ErrCommitInvalid represents an error thrown when parsing an invalid
	// commit object
	ErrCommitInvalid = errors.New("invalid commit")
)

// Type represents the type of an object
type Type int8

// List of the object types used by the index. Tags are never created
const (
	TypeCommit Type = 1
	TypeTree   Type = 2
	TypeBlob   Type = 3
)

func (t Type) String() string {
	switch t {
	case TypeCommit:
		return "commit"
	case TypeTree:
		return "tree"
	case TypeBlob:
		return "blob"
	default:
		panic(fmt.Sprintf("unknown object type %d", t))
	}
}

// IsValid check id the object type is an existing type
func (t Type) IsValid() bool {
	switch t {
	case TypeCommit, TypeTree, TypeBlob:
		return true
	default:
		return false
	}
}

// NewTypeFromString returns an Type from its string
// representation
func NewTypeFromString(t string) (Type, error) {
	switch t {
	case "commit":
		return TypeCommit, nil
	case "tree":
		return TypeTree, nil
	case "blob":
		return TypeBlob, nil
	default:
		return 0, ErrObjectUnknown
	}
}

// Object represents a git object. An object can be of multiple types
// but they all share similarities (same storage system, same header,
// etc.).
// Object are stored in .git/objects
// https://git-scm.com/book/en/v2/Git-Internals-Git-Objects
type Object struct {
	id      githash.Oid
	typ     Type
	content []byte
}

// New creates a new git object of the given type
func New(typ Type, content []byte) *Object {
	o := &Object{
		typ:     typ,
		content: content,
	}
	o.id = githash.Sum(o.encode())
	return o
}

// NewFromLoose parses a decompressed loose object.
// The format of an object is an ascii encoded type, an ascii encoded
// space, then an ascii encoded length of the object, then a null
// character, then the body of the object
func NewFromLoose(data []byte) (*Object, error) {
	// the type of the object starts at offset 0 and ends a the first
	// space character that we'll need to trim
	typ := readutil.ReadTo(data, ' ')
	if typ == nil {
		return nil, xerrors.Errorf("could not find object type: %w", ErrObjectInvalid)
	}
	oType, err := NewTypeFromString(string(typ))
	if err != nil {
		return nil, xerrors.Errorf("unsupported type %s: %w", string(typ), err)
	}
	offset := len(typ) + 1 // +1 for the space

	// The size of the object starts after the space and ends at a NULL char
	size := readutil.ReadTo(data[offset:], 0)
	if size == nil {
		return nil, xerrors.Errorf("could not find object size: %w", ErrObjectInvalid)
	}
	oSize, err := strconv.Atoi(string(size))
	if err != nil {
		return nil, xerrors.Errorf("invalid size %s: %w", size, ErrObjectInvalid)
	}
	offset += len(size) + 1 // +1 for the NULL char

	content := data[offset:]
	if len(content) != oSize {
		return nil, xerrors.Errorf("object marked as size %d, but has %d: %w", oSize, len(content), ErrObjectInvalid)
	}
	return New(oType, content), nil
}

// Decompress parses a zlib compressed loose object
func Decompress(r io.Reader) (o *Object, err error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, xerrors.Errorf("could not decompress object: %w", err)
	}
	defer errutil.Close(zr, &err)

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, xerrors.Errorf("could not read object: %w", err)
	}
	return NewFromLoose(data)
}

// ID returns the ID of the object
func (o *Object) ID() githash.Oid {
	return o.id
}

// Size returns the size of the object
func (o *Object) Size() int {
	return len(o.content)
}

// Type returns the Type for this object
func (o *Object) Type() Type {
	return o.typ
}

// Bytes returns the object's contents
func (o *Object) Bytes() []byte {
	return o.content
}

// encode returns the object as stored on disk, before compression:
// [type] [size][NULL][content]
func (o *Object) encode() []byte {
	// Quick reminder that the Write* methods on bytes.Buffer never fails,
	// the error returned is always nil
	w := new(bytes.Buffer)
	w.WriteString(o.Type().String())
	w.WriteByte(' ')
	w.WriteString(strconv.Itoa(o.Size()))
	w.WriteByte(0)
	w.Write(o.Bytes())
	return w.Bytes()
}

// Compress return the object zlib compressed.
// The format of the compressed data is:
// [type] [size][NULL][content]
// The type in ascii, followed by a space, followed by the size in ascii,
// followed by a null character (0), followed by the object data
func (o *Object) Compress() (data []byte, err error) {
	compressedContent := new(bytes.Buffer)
	zw := zlib.NewWriter(compressedContent)
	if _, err = zw.Write(o.encode()); err != nil {
		zw.Close() //nolint:errcheck // we already have an error to return
		return nil, xerrors.Errorf("could not zlib the object: %w", err)
	}
	// the data are only flushed on Close
	if err = zw.Close(); err != nil {
		return nil, xerrors.Errorf("could not zlib the object: %w", err)
	}
	return compressedContent.Bytes(), nil
}

// AsBlob returns the object as a Blob
func (o *Object) AsBlob() *Blob {
	return NewBlob(o)
}

// AsTree parses the object as Tree
func (o *Object) AsTree() (*Tree, error) {
	return NewTreeFromObject(o)
}

// AsCommit parses the object as Commit
func (o *Object) AsCommit() (*Commit, error) {
	return NewCommitFromObject(o)
}
