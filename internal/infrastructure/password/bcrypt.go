package password

import (
	"fmt"

	domain "accounts/backend/internal/domain/auth"

	"golang.org/x/crypto/bcrypt"
)

// MaxLength is the longest password, in bytes, bcrypt will accept.
const MaxLength = 72

// BcryptHasher hashes passwords with bcrypt at a fixed work factor.
type BcryptHasher struct {
	cost int
}

// Ensure BcryptHasher implements the PasswordHasher interface.
var _ domain.PasswordHasher = (*BcryptHasher)(nil)

// NewBcryptHasher constructs a hasher with the provided cost.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d..%d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Hash returns a salted bcrypt hash of the password.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash. Malformed hashes never match.
func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
