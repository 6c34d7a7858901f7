package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomString(t *testing.T) {
	a, err := RandomString(32)
	require.NoError(t, err)
	b, err := RandomString(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestHashPassword(t *testing.T) {
	hash1, err := HashPassword("Sup3rSecret", 4)
	require.NoError(t, err)
	hash2, err := HashPassword("Sup3rSecret", 4)
	require.NoError(t, err)

	// Fresh salt per call
	assert.NotEqual(t, hash1, hash2)

	assert.True(t, CheckPassword("Sup3rSecret", hash1))
	assert.True(t, CheckPassword("Sup3rSecret", hash2))
	assert.False(t, CheckPassword("wrong", hash1))
}

func TestCheckPasswordBadHash(t *testing.T) {
	assert.False(t, CheckPassword("anything", "not-a-bcrypt-hash"))
}
