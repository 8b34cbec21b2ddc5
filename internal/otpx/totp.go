// Package otpx wraps TOTP verification behind a small interface so services
// can swap in fakes.
package otpx

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Verifier checks a one-time code against a user's enrolled secret.
type Verifier interface {
	Verify(code, secret string) (bool, error)
}

// TOTPVerifier validates standard 30-second, 6-digit TOTP codes with a
// tolerance window of ±2 time steps.
type TOTPVerifier struct {
	skew uint
}

func NewTOTPVerifier() *TOTPVerifier {
	return &TOTPVerifier{skew: 2}
}

func (v *TOTPVerifier) Verify(code, secret string) (bool, error) {
	opts := totp.ValidateOpts{
		Period:    30,
		Skew:      v.skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
	return totp.ValidateCustom(code, secret, time.Now(), opts)
}
