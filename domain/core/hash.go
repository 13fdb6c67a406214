package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Fingerprint is the content hash of a rendered report. Identical inputs
// always render identical text and therefore the same fingerprint.
type Fingerprint Hash

func (f Fingerprint) String() string { return Hash(f).String() }

// ComputeFingerprint hashes the given parts separated by a unit separator so
// that ("ab","c") and ("a","bc") differ.
func ComputeFingerprint(parts ...string) Fingerprint {
	return Fingerprint(NewHash([]byte(strings.Join(parts, "\x1f"))))
}
