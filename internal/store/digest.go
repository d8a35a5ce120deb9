package store

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// DomainSnapshot separates snapshot digests from any other hash of the same
// bytes. The version suffix leaves room for a different algorithm.
const DomainSnapshot = "sofer/snapshot/v1"

// ErrDigestMismatch is returned when stored content no longer matches the
// digest recorded when it was saved.
var ErrDigestMismatch = errors.New("snapshot digest mismatch")

// Digest returns the hex SHA-256 of content under DomainSnapshot.
// Format: SHA256(domain + 0x00 + content)
func Digest(content string) string {
	h := sha256.New()
	h.Write([]byte(DomainSnapshot))
	h.Write([]byte{0x00})
	h.Write([]byte(content))
	return hex.EncodeToString(h.Sum(nil))
}
