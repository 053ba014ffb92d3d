package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// LinkTokenBytes is the entropy of a reservation link token.
const LinkTokenBytes = 32

// NewLinkToken returns a random URL-safe token (base64url, no padding)
// and the hex SHA-256 digest that is stored in its place.  The token
// carries no identifiers.
func NewLinkToken() (raw, hash string, err error) {
	buf := make([]byte, LinkTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, HashToken(raw), nil
}

// HashToken returns the SHA-256 hash of a raw token as a hex string.
// Storing only the hash means a leaked database row cannot be replayed
// as a link.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
