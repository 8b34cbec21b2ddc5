// Package models defines the persistence-level types shared by repositories
// and services.
package models

import "time"

// LockType selects the passcode shape enforced for a folder lock. Fixed at
// creation.
type LockType string

const (
	LockTypePasscode4 LockType = "passcode_4"
	LockTypePasscode6 LockType = "passcode_6"
	LockTypePassword  LockType = "password"
)

// Valid reports whether the value is one of the known lock types.
func (t LockType) Valid() bool {
	switch t {
	case LockTypePasscode4, LockTypePasscode6, LockTypePassword:
		return true
	}
	return false
}

// FolderLock is the lock record for one (owner, folder) pair.
//
// EncryptedPayload holds the iv:authTag:ciphertext encoding of the passcode
// encrypted under a key derived from the passcode itself plus Salt.
// Decrypting with the correct passcode reproduces the passcode; anything
// else fails the tag check or yields a non-matching plaintext.
type FolderLock struct {
	ID                string
	OwnerID           string
	FolderID          string
	LockType          LockType
	EncryptedPayload  string
	Salt              []byte
	IsLocked          bool
	FailedAttempts    int
	MaxAttempts       int
	LockoutUntil      *time.Time
	LastUnlockAttempt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LockedOut reports whether the lock is inside an active lockout window.
func (l *FolderLock) LockedOut(now time.Time) bool {
	return l.LockoutUntil != nil && l.LockoutUntil.After(now)
}
