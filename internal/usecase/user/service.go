package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domain "accounts/backend/internal/domain/auth"
	"accounts/backend/internal/domain/media"
	authusecase "accounts/backend/internal/usecase/auth"
)

// Service provides profile retrieval and update use cases.
type Service struct {
	repo    domain.UserRepository
	hasher  domain.PasswordHasher
	images  media.ImageStore
	logger  *slog.Logger
	nowFunc func() time.Time
}

// NewService constructs a user service around the provided repository.
func NewService(repo domain.UserRepository, hasher domain.PasswordHasher, images media.ImageStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		hasher:  hasher,
		images:  images,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// UpdateInput defines the payload to update a user. Nil fields are left untouched.
type UpdateInput struct {
	FirstName       *string
	LastName        *string
	Email           *string
	OldPassword     *string
	NewPassword     *string
	ConfirmPassword *string
	Image           *media.Upload
}

func (in UpdateInput) passwordFields() int {
	n := 0
	for _, p := range []*string{in.OldPassword, in.NewPassword, in.ConfirmPassword} {
		if p != nil {
			n++
		}
	}
	return n
}

// Get retrieves a single user by its identifier.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("user id is required")
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// Update applies a partial update in a single repository write. A password
// change needs the old, new and confirmation values together.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewValidationError("user id is required")
	}

	changePassword := false
	switch input.passwordFields() {
	case 0:
	case 3:
		changePassword = true
		if *input.OldPassword == "" {
			return nil, domain.NewValidationError("oldPassword is required")
		}
		if err := authusecase.ValidatePassword(*input.NewPassword); err != nil {
			return nil, err
		}
		if *input.NewPassword != *input.ConfirmPassword {
			return nil, domain.NewValidationError("newPassword and confirmPassword do not match")
		}
	default:
		return nil, domain.NewValidationError("oldPassword, newPassword and confirmPassword must be provided together")
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, domain.NewValidationError("firstName must not be empty")
		}
		user.FirstName = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return nil, domain.NewValidationError("lastName must not be empty")
		}
		user.LastName = name
	}
	if input.Email != nil {
		email := authusecase.NormalizeEmail(*input.Email)
		if email == "" {
			return nil, domain.NewValidationError("email must not be empty")
		}
		if err := authusecase.ValidateEmail(email); err != nil {
			return nil, err
		}
		if email != user.Email {
			existing, err := s.repo.GetByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, domain.ErrEmailExists
			case err != nil && !errors.Is(err, domain.ErrUserNotFound):
				return nil, err
			}
		}
		user.Email = email
	}

	if changePassword {
		if !s.hasher.Verify(*input.OldPassword, user.PasswordHash) {
			return nil, domain.ErrInvalidCredentials
		}
		hashed, err := s.hasher.Hash(*input.NewPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hashed
	}

	previousImage := user.ProfileImage
	newImage, err := authusecase.StoreImage(ctx, s.images, input.Image, s.logger)
	if err != nil {
		return nil, err
	}
	if newImage != nil {
		user.ProfileImage = newImage
	}

	user.UpdatedAt = s.nowFunc().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		authusecase.DiscardImage(ctx, s.images, newImage, s.logger)
		return nil, err
	}
	if newImage != nil {
		authusecase.DiscardImage(ctx, s.images, previousImage, s.logger)
	}

	return sanitizeUser(user), nil
}

func sanitizeUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	copy := *u
	copy.PasswordHash = ""
	return &copy
}
