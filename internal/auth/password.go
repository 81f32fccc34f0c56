// Package auth holds password hashing and the signed session cookie token.
package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a bcrypt hash for the provided plaintext.
func HashPassword(password string) (string, error) {
	// GenerateFromPassword salts and hashes with the default cost (10 rounds)
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	// Stored as-is in the user document
	return string(hashedPassword), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(hash, password string) error {
	// nil on match; bcrypt.ErrMismatchedHashAndPassword otherwise
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
