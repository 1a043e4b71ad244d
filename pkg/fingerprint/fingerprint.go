package fingerprint

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// delimiter joins the fingerprint components before hashing. Fixed so that
// the same inputs always produce the same digest.
const delimiter = "|"

// Generate creates a device fingerprint from the client-reported user agent
// and screen descriptor plus a per-binding random salt. The result is the
// full hex-encoded SHA-256 digest of "userAgent|screen|salt".
//
// The salt makes the digest meaningful only in combination with the trust
// record it was bound with: re-binding the same (userAgent, screen) pair
// yields a different fingerprint every time.
func Generate(userAgent, screen, salt string) string {
	raw := strings.Join([]string{userAgent, screen, salt}, delimiter)
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:])
}

// Match compares two fingerprint digests in constant time.
func Match(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
