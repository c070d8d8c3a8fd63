package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword returns the lowercase hex SHA-256 of password. It is unsalted
// and single-round so that digests in existing users.json files keep verifying.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func VerifyPassword(password, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(HashPassword(password)), []byte(digest)) == 1
}
