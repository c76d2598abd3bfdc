package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateInviteToken returns a hex-encoded random token of n source
// bytes (2n characters). 32 bytes gives 256 bits of entropy; collisions
// are treated as impossible by construction, the storage-level uniqueness
// constraint is the only re-check.
func GenerateInviteToken(n int) (string, error) {
	if n <= 0 {
		n = 32
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
