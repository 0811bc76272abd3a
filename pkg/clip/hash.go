package clip

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

// Sum returns the content digest for payload bytes. SHA-256 over the
// raw canonical bytes, independent of any downstream transcoding.
func Sum(b []byte) Digest {
	sum := sha256.Sum256(b)
	return Digest(hex.EncodeToString(sum[:]))
}

// QuickSum returns a fast non-cryptographic hash of payload bytes.
// Used only to coalesce back-to-back duplicate bridge events before
// the full digest is computed, never as a storage key.
func QuickSum(b []byte) uint64 {
	return xxh3.Hash(b)
}
