// Package auth implements password hashing for the User entity. Plaintext
// passwords never cross a storage boundary; only the bcrypt hash does.
package auth

import (
	"golang.org/x/crypto/bcrypt"

	mrkrerrors "github.com/adverant/mrkr-core/internal/errors"
)

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash, returning
// AuthError on mismatch or malformed hash.
func VerifyPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return mrkrerrors.NewAuthError(err)
	}
	return nil
}
