package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	apiKeyPrefixLength = 8
	apiKeySecretLength = 32
)

// ErrMalformedAPIKey is returned for keys not shaped <prefix>.<secret>
var ErrMalformedAPIKey = errors.New("malformed api key")

// APIKeyHasher issues API keys and verifies presented ones. Only the HMAC of
// the secret part is stored.
type APIKeyHasher struct {
	secret []byte
}

// NewAPIKeyHasher creates a hasher keyed with the server secret
func NewAPIKeyHasher(secret string) *APIKeyHasher {
	return &APIKeyHasher{secret: []byte(secret)}
}

// GeneratedAPIKey is a freshly issued key. Key is shown to the caller once.
type GeneratedAPIKey struct {
	Key       string
	Prefix    string
	HashedKey string
}

// Generate issues a new key
func (h *APIKeyHasher) Generate() (*GeneratedAPIKey, error) {
	prefix, err := randomHex(apiKeyPrefixLength / 2)
	if err != nil {
		return nil, err
	}
	secret, err := randomHex(apiKeySecretLength / 2)
	if err != nil {
		return nil, err
	}
	return &GeneratedAPIKey{
		Key:       prefix + "." + secret,
		Prefix:    prefix,
		HashedKey: h.Hash(secret),
	}, nil
}

// Hash returns the stored form of a secret
func (h *APIKeyHasher) Hash(secret string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether secret matches the stored hash
func (h *APIKeyHasher) Verify(hashed, secret string) bool {
	return hmac.Equal([]byte(h.Hash(secret)), []byte(hashed))
}

// SplitAPIKey separates a presented key into its prefix and secret
func SplitAPIKey(key string) (prefix, secret string, err error) {
	prefix, secret, ok := strings.Cut(key, ".")
	if !ok || len(prefix) != apiKeyPrefixLength || secret == "" {
		return "", "", ErrMalformedAPIKey
	}
	return prefix, secret, nil
}
