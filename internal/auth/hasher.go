package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt rejects longer inputs; the limit is in bytes, not characters
const maxPasswordBytes = 72

// PasswordHasher provides one-way password hashing and verification
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a hasher with the given cost. Out of range costs
// fall back to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt digest of password
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrPasswordRequired
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(digest), nil
}

// Verify reports whether password matches the bcrypt digest.
// A malformed digest never matches.
func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
