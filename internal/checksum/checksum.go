// Package checksum fingerprints document bodies.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Reader loads a document by its path relative to the corpus root.
type Reader interface {
	Read(path string) ([]byte, error)
}

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Document reads rel from r and returns the digest of its content.
func Document(r Reader, rel string) (string, error) {
	data, err := r.Read(rel)
	if err != nil {
		return "", fmt.Errorf("checksum: %w", err)
	}
	return Sum(data), nil
}
