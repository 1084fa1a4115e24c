package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooShort rejects passwords under MinPasswordLength before hashing
var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

const (
	// bcryptCost trades hash time for resistance to offline cracking
	bcryptCost = 12
	// MinPasswordLength applies to admin-set and generated passwords alike
	MinPasswordLength = 8
)

// HashPassword returns a bcrypt hash for storing in a principal's password_hash
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// VerifyPassword compares a stored hash against a login attempt. Any non-nil
// error means the attempt is rejected.
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
