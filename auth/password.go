package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// hashCost is the fixed bcrypt work factor for password digests.
const hashCost = 10

// HashPassword produces a salted one-way digest. A new salt is drawn on
// every call, so hashing the same password twice yields different digests.
func HashPassword(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// CheckPassword reports whether plaintext matches the stored digest.
// A mismatch is a false return, never an error.
func CheckPassword(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
