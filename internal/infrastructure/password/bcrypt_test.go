package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *BcryptHasher {
	t.Helper()
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	for _, pw := range []string{"Secr3t!", "a", strings.Repeat("x", MaxLength), "pässwörd 🔑"} {
		hashed, err := h.Hash(pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, hashed)
		assert.True(t, h.Verify(pw, hashed), "password %q should verify", pw)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	h := newTestHasher(t)

	hashed, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.False(t, h.Verify("correct horse ", hashed))
	assert.False(t, h.Verify("", hashed))
}

func TestHash_SaltsEachCall(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("same-password", first))
	assert.True(t, h.Verify("same-password", second))
}

func TestVerify_MalformedHash(t *testing.T) {
	h := newTestHasher(t)

	for _, hash := range []string{"", "not-a-hash", "$2a$10$short", "$argon2id$v=19$m=1,t=1,p=1$x$y"} {
		assert.False(t, h.Verify("whatever", hash), "hash %q", hash)
	}
}

func TestHash_UsesConfiguredCost(t *testing.T) {
	h, err := NewBcryptHasher(bcrypt.MinCost + 1)
	require.NoError(t, err)

	hashed, err := h.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hashed))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
}

func TestNewBcryptHasher_RejectsOutOfRangeCost(t *testing.T) {
	_, err := NewBcryptHasher(bcrypt.MinCost - 1)
	assert.Error(t, err)
	_, err = NewBcryptHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}
