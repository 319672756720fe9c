package token

import (
	"errors"
	"strings"
	"time"

	domain "accounts/backend/internal/domain/auth"
	usecase "accounts/backend/internal/usecase/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTTL is the fixed lifetime of an issued session token.
const SessionTTL = 5 * 24 * time.Hour

// JWTManager issues and validates HS256 session tokens.
type JWTManager struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewJWTManager constructs a manager signing with the provided secret.
func NewJWTManager(secret, issuer string) *JWTManager {
	return &JWTManager{
		secret:  []byte(secret),
		issuer:  issuer,
		ttl:     SessionTTL,
		nowFunc: time.Now,
	}
}

// Ensure JWTManager implements the TokenManager interface.
var _ usecase.TokenManager = (*JWTManager)(nil)

// Claims represents token claims.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs a token for the subject in claims. Timestamps, issuer and token
// id are filled in here; anything set by the caller is ignored.
func (m *JWTManager) Issue(claims domain.SessionClaims) (string, error) {
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("token subject is required")
	}

	now := m.nowFunc().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: claims.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   claims.Subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	return token.SignedString(m.secret)
}

// Verify checks signature and expiry and returns the decoded claims.
func (m *JWTManager) Verify(tokenString string) (domain.SessionClaims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return domain.SessionClaims{}, domain.ErrTokenMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.nowFunc),
	)
	if err != nil {
		// Claims are only validated once the signature checks out.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.SessionClaims{}, domain.ErrTokenExpired
		}
		return domain.SessionClaims{}, domain.ErrTokenMalformed
	}
	if !token.Valid || claims.Subject == "" {
		return domain.SessionClaims{}, domain.ErrTokenMalformed
	}

	out := domain.SessionClaims{
		Subject: claims.Subject,
		Email:   claims.Email,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
