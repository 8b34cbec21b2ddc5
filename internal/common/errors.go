// Package common defines shared constants and sentinel errors used across
// the folder lock service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Lock lifecycle errors.
	ErrorAlreadyLocked = errors.New("folder is already locked")
	ErrorSharedFolder  = errors.New("folder is shared and cannot be locked")

	// Sharing errors.
	ErrorSelfGrant = errors.New("cannot share a folder with its owner")

	// Unlock errors. ErrorInvalidPasscode covers every cryptographic
	// failure mode (malformed payload, tag mismatch, wrong secret) so the
	// caller cannot distinguish them.
	ErrorInvalidFormat   = errors.New("invalid passcode format")
	ErrorInvalidPasscode = errors.New("invalid passcode")
	ErrorLockedOut       = errors.New("too many failed attempts")

	// Recovery errors.
	ErrorInvalidCode = errors.New("invalid recovery code")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
