package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/luminariq/agentgate/internal/auth"
	"github.com/luminariq/agentgate/internal/cache"
)

type contextKey string

// ClaimsContextKey is the request context key holding the verified access claims.
const ClaimsContextKey contextKey = "accessClaims"

// AuthMiddleware creates HTTP middleware that verifies bearer access tokens.
type AuthMiddleware struct {
	codec    *auth.TokenCodec
	verified *cache.TTLCache
	optional bool
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(codec *auth.TokenCodec, optional bool) *AuthMiddleware {
	return &AuthMiddleware{
		codec:    codec,
		verified: cache.New(),
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Allow OPTIONS requests (CORS preflight) to pass through without auth
		if r.Method == "OPTIONS" {
			next.ServeHTTP(w, r)
			return
		}

		// Try to extract token from header first
		token := ExtractTokenFromHeader(r)

		// If not in header, try query parameter (for SSE)
		if token == "" {
			token = ExtractTokenFromQuery(r)
		}

		if token == "" {
			if !m.optional {
				writeUnauthorized(w, "missing authentication token")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.verify(token)
		if err != nil {
			if !m.optional {
				writeUnauthorized(w, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HandlerFunc wraps an HTTP handler function with authentication
func (m *AuthMiddleware) HandlerFunc(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.Handler(next).ServeHTTP(w, r)
	}
}

// verify checks the memoization cache before doing signature verification.
// A cache entry never outlives the token's own expiry.
func (m *AuthMiddleware) verify(token string) (*auth.AccessClaims, error) {
	if cached, ok := m.verified.Get(token); ok {
		return cached.(*auth.AccessClaims), nil
	}
	claims, err := m.codec.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}
	ttl := cache.VerifiedTokenTTL
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl > 0 {
		m.verified.Set(token, claims, ttl)
	}
	return claims, nil
}

// RequireAuth creates middleware that requires authentication
func RequireAuth(codec *auth.TokenCodec) *AuthMiddleware {
	return NewAuthMiddleware(codec, false)
}

// OptionalAuth creates middleware that allows optional authentication
func OptionalAuth(codec *auth.TokenCodec) *AuthMiddleware {
	return NewAuthMiddleware(codec, true)
}

// ClaimsFromContext extracts the verified access claims from a request context.
func ClaimsFromContext(ctx context.Context) (*auth.AccessClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*auth.AccessClaims)
	return claims, ok
}

// ExtractTokenFromHeader extracts the JWT from the Authorization header
func ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// ExtractTokenFromQuery extracts the JWT from a query parameter
func ExtractTokenFromQuery(r *http.Request) string {
	return r.URL.Query().Get("token")
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}
