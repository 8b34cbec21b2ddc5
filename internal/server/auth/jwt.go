// Package auth extracts the caller's identity from access tokens issued by
// the external identity provider. The service never authenticates users
// itself; it only verifies the HS256 signature with the shared secret and
// reads the user id claim.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkovalev/folderlock/internal/common"
)

// Claims extends the registered claims with the user id set by the identity
// provider.
type Claims struct {
	jwt.RegisteredClaims
	UserID string
}

// GetUserIDFromToken verifies the token signature and expiry and returns
// the embedded user id.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}

// GenerateToken mints a token the way the identity provider does. Used in
// tests and local development.
func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
	})

	return token.SignedString(secretKey)
}
