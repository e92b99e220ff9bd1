// Package githash contains the hash used to identify the objects
// of a repository
package githash

import (
	"crypto/sha1" //nolint:gosec // git objects are identified by their SHA1
	"encoding/hex"
	"errors"
)

// ErrInvalidOid is returned when a given value isn't a valid Oid
var ErrInvalidOid = errors.New("invalid Oid")

// OidSize is the length of an oid, in bytes
const OidSize = sha1.Size

// Oid represents a git Object ID.
// An Oid can be used as a map key
type Oid [OidSize]byte

// NullOid represents an empty Oid
var NullOid = Oid{}

// Sum returns the Oid of the given content
func Sum(content []byte) Oid {
	return sha1.Sum(content) //nolint:gosec // git objects are identified by their SHA1
}

// ParseString returns an Oid from its hex representation.
// ex. for "9b91da06e69613397b38e0808e0ba5ee6983251b" the oid will be
// {0x9b, 0x91, 0xda, ...}
func ParseString(id string) (Oid, error) {
	if len(id) != OidSize*2 {
		return NullOid, ErrInvalidOid
	}
	raw, err := hex.DecodeString(id)
	if err != nil {
		return NullOid, ErrInvalidOid
	}
	return ParseBytes(raw)
}

// ParseChars returns an Oid from its hex representation, as bytes
// ex. for {'9', 'b', '9', '1', 'd', 'a', ...} the oid will be
// {0x9b, 0x91, 0xda, ...}
func ParseChars(id []byte) (Oid, error) {
	return ParseString(string(id))
}

// ParseBytes returns an Oid from its raw representation
func ParseBytes(id []byte) (Oid, error) {
	if len(id) != OidSize {
		return NullOid, ErrInvalidOid
	}
	var oid Oid
	copy(oid[:], id)
	return oid, nil
}

// Bytes returns the raw Oid as []byte.
// This is different than doing []byte(oid.String())
// For the oid 642480605b8b0fd464ab5762e044269cf29a60a3:
// oid.Bytes(): []byte{ 0x64, 0x24, 0x80, ... }
// []byte(oid.String()): []byte{ '6', '4', '2', '4', '8' '0', ... }
func (o Oid) Bytes() []byte {
	return o[:]
}

// String converts an oid to its hex representation
func (o Oid) String() string {
	return hex.EncodeToString(o[:])
}

// IsZero returns whether the oid has the zero value (NullOid)
func (o Oid) IsZero() bool {
	return o == NullOid
}
