package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// TokenKeyLength is the length of a bearer token key in hex characters
const TokenKeyLength = 40

// GenerateTokenKey returns a random bearer token key
func GenerateTokenKey() (string, error) {
	return randomHex(TokenKeyLength / 2)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
