package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"accounts/backend/internal/domain/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_SaveAndDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	ctx := context.Background()
	ref, err := store.Save(ctx, media.Upload{
		Filename:    "me.png",
		ContentType: "image/png",
		Body:        strings.NewReader("png-bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(ref))
	assert.Equal(t, ".png", filepath.Ext(ref))

	data, err := os.ReadFile(ref)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, ref))
	_, err = os.Stat(ref)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, ref))
}

func TestLocalStore_UniqueNames(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	a, err := store.Save(ctx, media.Upload{ContentType: "image/jpeg", Body: strings.NewReader("a")})
	require.NoError(t, err)
	b, err := store.Save(ctx, media.Upload{ContentType: "image/jpeg", Body: strings.NewReader("b")})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, ".jpg", filepath.Ext(a))
}

func TestLocalStore_DeleteOutsideDir(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Delete(context.Background(), "/etc/passwd"))
}

func TestNewLocalStore_RequiresDir(t *testing.T) {
	_, err := NewLocalStore(" ")
	assert.Error(t, err)
}
