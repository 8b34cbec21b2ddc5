package services

import "github.com/dkovalev/folderlock/internal/server/models"

// ValidateFormat enforces the passcode shape for a lock type:
// passcode_4 is exactly 4 ASCII digits, passcode_6 exactly 6 ASCII digits,
// password any content of length >= 4.
//
// Pure function, called before the cryptographic path so obviously
// malformed input never reaches decryption. Format failures never count as
// unlock attempts.
func ValidateFormat(passcode string, lockType models.LockType) bool {
	switch lockType {
	case models.LockTypePasscode4:
		return isDigits(passcode, 4)
	case models.LockTypePasscode6:
		return isDigits(passcode, 6)
	case models.LockTypePassword:
		return len(passcode) >= 4
	}
	return false
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
