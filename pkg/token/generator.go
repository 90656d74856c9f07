package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const (
	// DefaultLength is the default token length in bytes.
	DefaultLength = 32

	// MinLength is the shortest accepted token length in bytes.
	MinLength = 16
)

// GenerateWithLength returns a token built from length random bytes.
// Lengths below MinLength are rejected.
func GenerateWithLength(length int) (string, error) {
	if length < MinLength {
		return "", fmt.Errorf("token: length %d below minimum %d", length, MinLength)
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
