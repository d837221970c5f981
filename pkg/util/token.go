package util

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateToken returns 2n hex characters of crypto/rand randomness. Used
// for the opaque guest tokens, so collisions have to be practically
// impossible
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)

	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
