// Package cryptox wraps password hashing for clinician credentials.
// Secrets are stored only as bcrypt hashes, never in plaintext.
package cryptox

import (
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var (
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
)

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password []byte) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a bcrypt hash with a candidate plaintext.
// Returns true if they match.
func CheckPassword(password []byte, hashedPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), password) == nil
}

// ValidSecret reports whether a candidate secret satisfies the credential
// policy: at least 6 characters, containing at least one letter and one digit.
func ValidSecret(secret string) bool {
	return len(secret) >= 6 && hasLetter.MatchString(secret) && hasDigit.MatchString(secret)
}
