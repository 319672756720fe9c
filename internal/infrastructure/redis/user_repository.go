package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "accounts/backend/internal/domain/auth"

	goredis "github.com/redis/go-redis/v9"
)

// Documents and the email index live under disjoint prefixes so a client
// supplied id can never address an index entry.
const (
	userKeyPrefix  = "user:id:"
	emailKeyPrefix = "user:email:"
)

// userRecord is the stored form of a user. Unlike domain.User it keeps the hash.
type userRecord struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PasswordHash string    `json:"password_hash"`
	ProfileImage *string   `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRepository stores users as JSON documents in Redis with a secondary email index.
type UserRepository struct {
	client *goredis.Client
}

var _ domain.UserRepository = (*UserRepository)(nil)

// NewClient parses a redis:// URL and verifies the server is reachable.
func NewClient(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewUserRepository constructs a repository over an existing client.
func NewUserRepository(client *goredis.Client) *UserRepository {
	return &UserRepository{client: client}
}

func userKey(id string) string     { return userKeyPrefix + id }
func emailKey(email string) string { return emailKeyPrefix + email }

// Create claims the email index with SETNX before writing the document.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ok, err := r.client.SetNX(ctx, emailKey(user.Email), user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("claim email: %w", err)
	}
	if !ok {
		return domain.ErrEmailExists
	}

	payload, err := json.Marshal(toRecord(user))
	if err != nil {
		_ = r.client.Del(ctx, emailKey(user.Email)).Err()
		return err
	}
	if err := r.client.Set(ctx, userKey(user.ID), payload, 0).Err(); err != nil {
		_ = r.client.Del(ctx, emailKey(user.Email)).Err()
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// GetByEmail resolves the email index then loads the document.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := r.client.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// GetByID loads a user document.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	raw, err := r.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	var rec userRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", id, err)
	}
	return rec.toUser(), nil
}

// Update rewrites the document and moves the email index when the address changes.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	current, err := r.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}

	emailChanged := current.Email != user.Email
	if emailChanged {
		ok, err := r.client.SetNX(ctx, emailKey(user.Email), user.ID, 0).Result()
		if err != nil {
			return fmt.Errorf("claim email: %w", err)
		}
		if !ok {
			return domain.ErrEmailExists
		}
	}

	payload, err := json.Marshal(toRecord(user))
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, userKey(user.ID), payload, 0)
		if emailChanged {
			pipe.Del(ctx, emailKey(current.Email))
		}
		return nil
	})
	if err != nil {
		if emailChanged {
			_ = r.client.Del(ctx, emailKey(user.Email)).Err()
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func toRecord(u *domain.User) userRecord {
	return userRecord{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		ProfileImage: u.ProfileImage,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (rec userRecord) toUser() *domain.User {
	return &domain.User{
		ID:           rec.ID,
		Email:        rec.Email,
		FirstName:    rec.FirstName,
		LastName:     rec.LastName,
		PasswordHash: rec.PasswordHash,
		ProfileImage: rec.ProfileImage,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}
