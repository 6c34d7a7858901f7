package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
}

func TestLoadSettingsDefaults(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("ISSUER_URL", "")

	settings, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, 3001, settings.Port)
	assert.Equal(t, 15*time.Minute, settings.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, settings.RefreshTokenTTL)
	assert.False(t, settings.CookieSecure)
	assert.Equal(t, "http://localhost:3001", settings.Issuer)
}

func TestLoadSettingsRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")

	_, err := LoadSettings()
	assert.Error(t, err)
}

func TestLoadSettingsRejectsSharedSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "same")
	t.Setenv("JWT_REFRESH_SECRET", "same")

	_, err := LoadSettings()
	assert.Error(t, err)
}

func TestLoadSettingsOverrides(t *testing.T) {
	setRequiredSecrets(t)
	t.Setenv("PORT", "8080")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ISSUER_URL", "https://auth.example.com/")

	settings, err := LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, 8080, settings.Port)
	assert.Equal(t, 5*time.Minute, settings.AccessTokenTTL)
	assert.True(t, settings.CookieSecure)
	assert.Equal(t, "https://auth.example.com", settings.Issuer)
}
