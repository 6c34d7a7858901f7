package auth

import "errors"

// Domain errors returned by the session and authorization services. The HTTP
// boundary switches on these to pick status codes; services never shape HTTP
// responses themselves.
var (
	ErrEmailTaken            = errors.New("email already registered")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountNotActive      = errors.New("account is not active")
	ErrTokenRequired         = errors.New("refresh token required")
	ErrInvalidToken          = errors.New("invalid token")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenExpiredOrRevoked = errors.New("token expired or revoked")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidClient         = errors.New("invalid client or redirect URI")
	ErrInvalidGrant          = errors.New("invalid or expired authorization code")
	ErrInvalidRequest        = errors.New("code verifier required")
)
