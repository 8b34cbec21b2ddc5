package models

import "time"

// PurposeFolderLockRecovery marks email codes issued for folder lock
// recovery.
const PurposeFolderLockRecovery = "folder_lock_recovery"

// EmailCode is an ephemeral one-time code delivered by email. CodeEncrypted
// is the code sealed under the server static key, not a hash: recovery
// needs the plaintext back to compare against the user's input. A code is
// single-use and deleted on the first successful match; expired rows are
// never matched even if not yet deleted.
type EmailCode struct {
	ID            string
	UserID        string
	CodeEncrypted string
	Purpose       string
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

// Expired reports whether the code is past its expiry.
func (c *EmailCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
