package models

import "time"

// UserProfile carries the per-user recovery material: the TOTP secret
// enrolled with the identity provider and the remaining single-use backup
// codes (stored uppercase).
type UserProfile struct {
	UserID      string
	Email       string
	TOTPSecret  string
	BackupCodes []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
