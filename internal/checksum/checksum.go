// Package checksum provides the content digests used for optimistic
// concurrency on document writes.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether expected matches the digest of data. An empty
// expected value matches anything, so callers can treat If-Match headers as
// optional.
func Matches(expected string, data []byte) bool {
	return expected == "" || expected == Sum(data)
}
