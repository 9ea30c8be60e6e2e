package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is the collision-resistant content key: the SHA-256 digest
// of the blob bytes, hex encoded. Two blobs with equal fingerprints are
// byte-identical; the store verifies this on write rather than trusting
// the hash alone.
type Fingerprint string

// ComputeFingerprint hashes content bytes into their storage key.
func ComputeFingerprint(data []byte) Fingerprint {
	sum := sha256.Sum256(data)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// Short returns the abbreviated form used in logs and CLI output.
func (f Fingerprint) Short() string {
	if len(f) < 8 {
		return string(f)
	}
	return string(f[:8])
}

func (f Fingerprint) String() string { return string(f) }
