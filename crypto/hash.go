package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashToken returns the hex-encoded SHA-256 digest of a CAPTCHA response
// token, used to detect replay without storing the token itself.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// HashEmail returns the hex-encoded SHA-256 digest of a normalized
// (lowercased, trimmed) email address, used as a stable lookup key for
// the email-reputation signal without persisting the address in logs.
func HashEmail(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
