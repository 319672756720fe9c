package auth

import domain "accounts/backend/internal/domain/auth"

// TokenManager abstracts token issuance and verification.
type TokenManager interface {
	Issue(claims domain.SessionClaims) (string, error)
	// Verify returns ErrTokenMissing, ErrTokenMalformed or ErrTokenExpired on rejection.
	Verify(token string) (domain.SessionClaims, error)
}
