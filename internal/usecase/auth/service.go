package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	domain "accounts/backend/internal/domain/auth"
	"accounts/backend/internal/domain/media"

	"github.com/google/uuid"
)

// MaxPasswordBytes bounds accepted passwords to what the hasher can digest.
const MaxPasswordBytes = 72

// Service coordinates authentication workflows between domain and infrastructure.
type Service struct {
	users   domain.UserRepository
	hasher  domain.PasswordHasher
	tokens  TokenManager
	images  media.ImageStore
	logger  *slog.Logger
	nowFunc func() time.Time
}

// NewService constructs an auth service.
func NewService(users domain.UserRepository, hasher domain.PasswordHasher, tokens TokenManager, images media.ImageStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		images:  images,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Image     *media.Upload
}

// Register creates a new user and returns it without a password hash, along
// with a session token for the new identity.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, string, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := NormalizeEmail(input.Email)
	switch {
	case firstName == "":
		return nil, "", domain.NewValidationError("firstName is required")
	case lastName == "":
		return nil, "", domain.NewValidationError("lastName is required")
	case email == "":
		return nil, "", domain.NewValidationError("email is required")
	case input.Password == "":
		return nil, "", domain.NewValidationError("password is required")
	}
	if err := ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := ValidatePassword(input.Password); err != nil {
		return nil, "", err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, "", domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, "", err
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, "", err
	}

	imageRef, err := StoreImage(ctx, s.images, input.Image, s.logger)
	if err != nil {
		return nil, "", err
	}

	now := s.nowFunc().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hashed,
		ProfileImage: imageRef,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		DiscardImage(ctx, s.images, imageRef, s.logger)
		return nil, "", err
	}

	token, err := s.tokens.Issue(domain.SessionClaims{Subject: user.ID, Email: user.Email})
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}

	return sanitizeUser(user), token, nil
}

// Login validates credentials and returns a token plus user.
func (s *Service) Login(ctx context.Context, creds domain.Credentials) (string, *domain.User, error) {
	email := NormalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		return "", nil, domain.NewValidationError("email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}

	if !s.hasher.Verify(creds.Password, user.PasswordHash) {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(domain.SessionClaims{Subject: user.ID, Email: user.Email})
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	return token, sanitizeUser(user), nil
}

// Authorize verifies a bearer token and returns its claims. It performs no
// persistence lookups.
func (s *Service) Authorize(token string) (domain.SessionClaims, error) {
	if strings.TrimSpace(token) == "" {
		return domain.SessionClaims{}, domain.ErrTokenMissing
	}
	return s.tokens.Verify(token)
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail rejects addresses that do not parse as a bare address.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || !strings.EqualFold(addr.Address, email) {
		return domain.NewValidationError("email is invalid")
	}
	return nil
}

// ValidatePassword enforces the bounds the hasher can handle.
func ValidatePassword(password string) error {
	if password == "" {
		return domain.NewValidationError("password is required")
	}
	if len(password) > MaxPasswordBytes {
		return domain.NewValidationError(fmt.Sprintf("password must be at most %d bytes", MaxPasswordBytes))
	}
	return nil
}

// StoreImage saves a supported upload and returns its reference. Unsupported
// formats are dropped without error and yield a nil reference.
func StoreImage(ctx context.Context, store media.ImageStore, upload *media.Upload, logger *slog.Logger) (*string, error) {
	if upload == nil {
		return nil, nil
	}
	if !media.IsSupported(upload.ContentType) {
		logger.DebugContext(ctx, "profile image dropped", "content_type", upload.ContentType, "filename", upload.Filename)
		return nil, nil
	}
	ref, err := store.Save(ctx, *upload)
	if err != nil {
		return nil, fmt.Errorf("store profile image: %w", err)
	}
	return &ref, nil
}

// DiscardImage removes a stored image after the owning write failed.
func DiscardImage(ctx context.Context, store media.ImageStore, ref *string, logger *slog.Logger) {
	if ref == nil {
		return
	}
	if err := store.Delete(ctx, *ref); err != nil {
		logger.WarnContext(ctx, "failed to discard profile image", "ref", *ref, "err", err)
	}
}

func sanitizeUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	copy := *u
	copy.PasswordHash = ""
	return &copy
}
