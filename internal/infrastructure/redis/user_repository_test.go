package redis

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	domain "accounts/backend/internal/domain/auth"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRepo(t *testing.T) *UserRepository {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewUserRepository(client)
}

func TestUserRecord_KeepsHashOnDisk(t *testing.T) {
	ref := "uploads/a.png"
	user := &domain.User{
		ID:           "1",
		Email:        "ann@x.com",
		FirstName:    "Ann",
		PasswordHash: "hash",
		ProfileImage: &ref,
	}

	payload, err := json.Marshal(toRecord(user))
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"password_hash":"hash"`)

	var rec userRecord
	require.NoError(t, json.Unmarshal(payload, &rec))
	back := rec.toUser()
	assert.Equal(t, "hash", back.PasswordHash)
	require.NotNil(t, back.ProfileImage)
	assert.Equal(t, ref, *back.ProfileImage)
}

func TestKeys_DoNotOverlap(t *testing.T) {
	assert.Equal(t, "user:id:42", userKey("42"))
	assert.Equal(t, "user:email:ann@x.com", emailKey("ann@x.com"))
	assert.NotEqual(t, emailKey("ann@x.com"), userKey("email:ann@x.com"))
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := newMiniRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u1", Email: "ann@x.com", PasswordHash: "hash"}))
	assert.ErrorIs(t, repo.Create(ctx, &domain.User{ID: "u2", Email: "ann@x.com"}), domain.ErrEmailExists)

	byEmail, err := repo.GetByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	byID, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", byID.Email)

	_, err = repo.GetByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repo.GetByID(ctx, "u2")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_IDCannotReachEmailIndex(t *testing.T) {
	repo := newMiniRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u1", Email: "ann@x.com"}))

	_, err := repo.GetByID(ctx, "email:ann@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repo.GetByID(ctx, "email:nobody@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	err = repo.Update(ctx, &domain.User{ID: "email:ann@x.com", Email: "eve@x.com"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_UpdateMovesEmailIndex(t *testing.T) {
	repo := newMiniRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u1", Email: "ann@x.com", FirstName: "Ann"}))
	require.NoError(t, repo.Create(ctx, &domain.User{ID: "u2", Email: "bob@x.com"}))

	err := repo.Update(ctx, &domain.User{ID: "u1", Email: "bob@x.com"})
	assert.ErrorIs(t, err, domain.ErrEmailExists)
	bob, err := repo.GetByEmail(ctx, "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, "u2", bob.ID)

	require.NoError(t, repo.Update(ctx, &domain.User{ID: "u1", Email: "ann@y.com", FirstName: "Annie"}))
	_, err = repo.GetByEmail(ctx, "ann@x.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	moved, err := repo.GetByEmail(ctx, "ann@y.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", moved.ID)
	assert.Equal(t, "Annie", moved.FirstName)

	require.NoError(t, repo.Update(ctx, &domain.User{ID: "u1", Email: "ann@y.com", FirstName: "Ann"}))
	same, err := repo.GetByEmail(ctx, "ann@y.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann", same.FirstName)
}

func TestUserRepository_Redis_Lifecycle(t *testing.T) {
	url := os.Getenv("ACCOUNTS_TEST_REDIS_URL")
	if url == "" {
		t.Skip("ACCOUNTS_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := NewClient(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	repo := NewUserRepository(client)
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		FirstName:    "Ann",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	newEmail := uuid.NewString() + "@example.com"
	t.Cleanup(func() {
		client.Del(context.Background(), userKey(user.ID), emailKey(user.Email), emailKey(newEmail))
	})

	require.NoError(t, repo.Create(ctx, user))
	got, err := repo.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got.Email = newEmail
	require.NoError(t, repo.Update(ctx, got))
	_, err = repo.GetByEmail(ctx, user.Email)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	moved, err := repo.GetByEmail(ctx, newEmail)
	require.NoError(t, err)
	assert.Equal(t, user.ID, moved.ID)
}
