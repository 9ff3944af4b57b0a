package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"gitlab.com/timkado/api/clinic-case-service/internal/apperrors"
)

// HashPassword hashes plain with bcrypt at the default cost.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword returns ErrUnauthorized when plain does not match hash.
func ComparePassword(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%w: password mismatch", apperrors.ErrUnauthorized)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrUnauthorized, err)
	}
	return nil
}
