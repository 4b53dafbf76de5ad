// Package codes generates the two kinds of human-typed tokens the system
// hands out: 6-digit email verification codes and patient access codes.
package codes

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Access codes look like "PSY9-3N6R": a letter-letter-letter-digit group,
// a dash, then digit-letter-digit-letter. Ambiguous characters (I, O, 0, 1)
// are excluded because patients type these by hand.
const (
	accessLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	accessDigits  = "23456789"
)

// OTPDigits is the fixed length of email verification codes.
const OTPDigits = 6

// Generator produces verification and access codes. Implementations must be
// safe for concurrent use.
type Generator interface {
	// OTP returns a numeric verification code of exactly OTPDigits digits,
	// zero-padded on the left.
	OTP() (string, error)

	// AccessCode returns a new patient access code in XXXN-NXNX form.
	AccessCode() (string, error)
}

// CryptoGenerator draws from crypto/rand.
type CryptoGenerator struct{}

func (CryptoGenerator) OTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < OTPDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("otp generation: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPDigits, n), nil
}

func (CryptoGenerator) AccessCode() (string, error) {
	// Pattern positions: L=letter, D=digit. "LLLD-DLDL".
	pattern := []string{
		accessLetters, accessLetters, accessLetters, accessDigits,
		accessDigits, accessLetters, accessDigits, accessLetters,
	}

	out := make([]byte, 0, 9)
	for i, charset := range pattern {
		if i == 4 {
			out = append(out, '-')
		}
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("access code generation: %w", err)
		}
		out = append(out, charset[idx.Int64()])
	}
	return string(out), nil
}

// IsNumeric reports whether s consists only of ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
