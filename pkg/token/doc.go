// Package token generates opaque session tokens.
//
// Tokens are crypto/rand bytes rendered as Base64 RawURL text, so they are
// safe as cookie values without further escaping. The minimum length is
// 16 bytes (128 bits); the default is 32 bytes.
//
// Fingerprint gives a short, non-reversible handle for a token that can be
// written to logs in place of the token itself.
package token
