// Package validate holds the pure input checks applied before data enters
// the auth and chat services.
package validate

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var (
	emailRe     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
	scriptTagRe = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	htmlTagRe   = regexp.MustCompile(`<[^>]*>?`)
)

// IsValidEmail reports whether email looks like a deliverable address.
func IsValidEmail(email string) bool {
	if email == "" {
		return false
	}
	return emailRe.MatchString(email)
}

// IsValidPassword enforces the registration password policy: at least 8
// characters with one digit and one uppercase letter.
func IsValidPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasDigit, hasUpper bool
	for _, r := range password {
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasDigit && hasUpper
}

// SanitizeInput trims whitespace and strips HTML tags, script bodies included.
func SanitizeInput(input string) string {
	out := strings.TrimSpace(input)
	out = scriptTagRe.ReplaceAllString(out, "")
	out = htmlTagRe.ReplaceAllString(out, "")
	return out
}

// IsValidURL reports whether raw is an absolute http(s) URL.
func IsValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
