package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"alice@example.com",
		"a.b+tag@sub.example.co",
	}
	invalid := []string{
		"",
		"alice",
		"alice@",
		"@example.com",
		"alice@example",
		"alice @example.com",
	}

	for _, email := range valid {
		assert.True(t, IsValidEmail(email), email)
	}
	for _, email := range invalid {
		assert.False(t, IsValidEmail(email), email)
	}
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("Passw0rd"))
	assert.True(t, IsValidPassword("longer Password 1"))

	assert.False(t, IsValidPassword("Pass1"), "too short")
	assert.False(t, IsValidPassword("password1"), "no uppercase")
	assert.False(t, IsValidPassword("Password"), "no digit")
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello", SanitizeInput("  hello  "))
	assert.Equal(t, "hello", SanitizeInput("<b>hello</b>"))
	assert.Equal(t, "safe", SanitizeInput(`safe<script>alert("x")</script>`))
	assert.Equal(t, "", SanitizeInput("<script>only</script>"))
}

func TestIsValidURL(t *testing.T) {
	assert.True(t, IsValidURL("https://app.example.com/callback"))
	assert.True(t, IsValidURL("http://localhost:3000/cb"))

	assert.False(t, IsValidURL("ftp://example.com"))
	assert.False(t, IsValidURL("/relative/path"))
	assert.False(t, IsValidURL("not a url"))
}
