// Package common defines shared constants and sentinel errors used across
// client and server layers of screenauth. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrorDuplicateEmail = errors.New("email already registered")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Login errors.
	ErrorUnverified        = errors.New("account not verified: complete email verification before logging in")
	ErrorInvalidCredential = errors.New("invalid email or password")

	// Verification flow errors.
	ErrorNoPendingVerification = errors.New("no registration awaiting verification")
	ErrorCodeFormat            = errors.New("verification code must be exactly 6 digits")
	ErrorCodeExpired           = errors.New("verification code expired: request a new code")
	ErrorCodeMismatch          = errors.New("verification code does not match")

	// Access-grant errors. Missing, inactive and expired codes are
	// deliberately indistinguishable to the caller.
	ErrorInvalidOrExpiredCode = errors.New("invalid or expired access code")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
