// Package crypto provides cryptographic utilities for the theory forum.
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// TokenBytes is the number of random bytes in a bearer token.
	TokenBytes = 32

	// TokenLength is the length of an encoded bearer token.
	TokenLength = 43
)

// Key generation errors
var (
	// ErrMalformedToken indicates the string cannot be a token issued by GenerateToken.
	ErrMalformedToken = errors.New("malformed token")
)

// tokenEncoding is URL-safe base64 without padding.
var tokenEncoding = base64.RawURLEncoding

// GenerateToken generates a random bearer token.
// Format: 32 random bytes, URL-safe base64 without padding (43 characters).
func GenerateToken() (string, error) {
	raw := make([]byte, TokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return tokenEncoding.EncodeToString(raw), nil
}

// ValidateToken checks that token has the shape of a generated token.
func ValidateToken(token string) error {
	if len(token) != TokenLength {
		return ErrMalformedToken
	}
	raw, err := tokenEncoding.DecodeString(token)
	if err != nil || len(raw) != TokenBytes {
		return ErrMalformedToken
	}
	return nil
}
