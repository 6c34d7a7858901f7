package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/luminariq/agentgate/internal/auth"
	"github.com/luminariq/agentgate/internal/config"
	"github.com/luminariq/agentgate/internal/models"
	"github.com/luminariq/agentgate/internal/validate"
)

const refreshCookieName = "refreshToken"

// AuthHandler serves the password session endpoints. The refresh token only
// ever travels in an HTTP-only cookie; the response body carries the access
// token.
type AuthHandler struct {
	sessions *auth.SessionService
	settings *config.Settings
}

// NewAuthHandler creates the session endpoint handler.
func NewAuthHandler(sessions *auth.SessionService, settings *config.Settings) *AuthHandler {
	return &AuthHandler{sessions: sessions, settings: settings}
}

// HandleRegister creates a new user account.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Email             string `json:"email"`
		Password          string `json:"password"`
		FullName          string `json:"fullName"`
		PreferredLanguage string `json:"preferredLanguage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	payload.Email = validate.SanitizeInput(payload.Email)
	payload.FullName = validate.SanitizeInput(payload.FullName)

	if !validate.IsValidEmail(payload.Email) {
		writeError(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if !validate.IsValidPassword(payload.Password) {
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters with an uppercase letter and a digit")
		return
	}

	user, err := h.sessions.Register(auth.RegisterInput{
		Email:             payload.Email,
		Password:          payload.Password,
		FullName:          payload.FullName,
		PreferredLanguage: payload.PreferredLanguage,
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "Email already registered")
			return
		}
		fmt.Printf("Register error: %v\n", err)
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	writeSuccess(w, http.StatusCreated, "User registered successfully", map[string]interface{}{
		"user": map[string]interface{}{
			"id":        user.ID,
			"email":     user.Email,
			"fullName":  user.FullName,
			"role":      user.Role,
			"status":    user.Status,
			"createdAt": user.CreatedAt,
		},
	})
}

// HandleLogin verifies credentials and starts a session.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if payload.Email == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	result, err := h.sessions.Login(payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, auth.ErrAccountNotActive):
			writeError(w, http.StatusForbidden, "Account is not active")
		default:
			fmt.Printf("Login error: %v\n", err)
			writeError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	h.setRefreshCookie(w, result.RefreshToken, result.ExpiresAt)

	writeSuccess(w, http.StatusOK, "Login successful", map[string]interface{}{
		"accessToken": result.AccessToken,
		"expiresIn":   int(h.settings.AccessTokenTTL.Seconds()),
		"user":        userPayload(result.User),
	})
}

// HandleRefresh mints a new access token from the refresh cookie. The cookie
// itself is left untouched; refresh tokens are not rotated.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := refreshTokenFromRequest(r)

	accessToken, err := h.sessions.Refresh(token)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenRequired):
			writeError(w, http.StatusUnauthorized, "Refresh token required")
		case errors.Is(err, auth.ErrInvalidToken):
			writeError(w, http.StatusForbidden, "Invalid refresh token")
		case errors.Is(err, auth.ErrTokenExpiredOrRevoked):
			writeError(w, http.StatusForbidden, "Refresh token expired or revoked")
		case errors.Is(err, auth.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			fmt.Printf("Refresh error: %v\n", err)
			writeError(w, http.StatusInternalServerError, "Token refresh failed")
		}
		return
	}

	writeSuccess(w, http.StatusOK, "", map[string]interface{}{
		"accessToken": accessToken,
		"expiresIn":   int(h.settings.AccessTokenTTL.Seconds()),
	})
}

// HandleLogout revokes the session. Always succeeds, even without a cookie.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	token := refreshTokenFromRequest(r)
	if err := h.sessions.Logout(token); err != nil {
		fmt.Printf("Logout error: %v\n", err)
	}

	h.clearRefreshCookie(w)
	writeSuccess(w, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.settings.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.settings.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// refreshTokenFromRequest reads the cookie first and falls back to a JSON
// body for non-browser clients.
func refreshTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
		return payload.RefreshToken
	}
	return ""
}

func userPayload(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":          user.ID,
		"email":       user.Email,
		"fullName":    user.FullName,
		"role":        user.Role,
		"permissions": user.Scopes,
	}
}
