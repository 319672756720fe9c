package auth

import (
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials indicates the supplied password does not match.
	ErrInvalidCredentials = errors.New("invalid password")
	// ErrEmailExists signals a duplicate email registration.
	ErrEmailExists = errors.New("email already exists")
	// ErrUserNotFound indicates missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenMissing means no bearer token accompanied the request.
	ErrTokenMissing = errors.New("missing token")
	// ErrTokenMalformed means the token could not be decoded or its signature did not verify.
	ErrTokenMalformed = errors.New("invalid token")
	// ErrTokenExpired means the token signature is valid but its expiry has passed.
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError reports missing or malformed input fields.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// User models the account entity persisted in storage. The password hash is
// never serialized.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	ProfileImage *string   `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Credentials captures raw credential input for login.
type Credentials struct {
	Email    string
	Password string
}

// SessionClaims is the identity carried inside a session token.
type SessionClaims struct {
	Subject   string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
