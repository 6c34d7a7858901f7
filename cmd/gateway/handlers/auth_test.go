package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luminariq/agentgate/internal/auth"
	"github.com/luminariq/agentgate/internal/config"
	"github.com/luminariq/agentgate/internal/storage"
)

func newTestAuthHandler(t *testing.T) (*AuthHandler, *storage.FileStore) {
	t.Helper()
	store, err := storage.NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)

	codec := auth.NewTokenCodec("access-secret", "refresh-secret", 0, 0)
	sessions := auth.NewSessionService(store, store, codec, 4)
	settings := &config.Settings{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
	return NewAuthHandler(sessions, settings), store
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == refreshCookieName {
			return c
		}
	}
	return nil
}

const registerBody = `{"email":"alice@example.com","password":"Passw0rdOk","fullName":"Alice Example"}`

func TestHandleRegister(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	rec := postJSON(t, h.HandleRegister, "/api/auth/register", registerBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, rec.Body.String(), "Passw0rdOk")
}

func TestHandleRegisterDuplicate(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	postJSON(t, h.HandleRegister, "/api/auth/register", registerBody)
	rec := postJSON(t, h.HandleRegister, "/api/auth/register", registerBody)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleRegisterValidation(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	rec := postJSON(t, h.HandleRegister, "/api/auth/register", `{"email":"bad","password":"Passw0rdOk"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.HandleRegister, "/api/auth/register", `{"email":"ok@example.com","password":"weak"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleLoginSetsRefreshCookie(t *testing.T) {
	h, _ := newTestAuthHandler(t)
	postJSON(t, h.HandleRegister, "/api/auth/register", registerBody)

	rec := postJSON(t, h.HandleLogin, "/api/auth/login", `{"email":"alice@example.com","password":"Passw0rdOk"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["accessToken"])
	assert.Equal(t, float64(900), body["expiresIn"])

	cookie := refreshCookie(rec)
	require.NotNil(t, cookie, "refresh token cookie must be set")
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.NotEmpty(t, cookie.Value)

	// The refresh token never appears in the response body
	assert.NotContains(t, rec.Body.String(), cookie.Value)
}

func TestHandleLoginBadCredentials(t *testing.T) {
	h, _ := newTestAuthHandler(t)
	postJSON(t, h.HandleRegister, "/api/auth/register", registerBody)

	rec := postJSON(t, h.HandleLogin, "/api/auth/login", `{"email":"alice@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, h.HandleLogin, "/api/auth/login", `{"email":"ghost@example.com","password":"Passw0rdOk"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleRefreshFromCookie(t *testing.T) {
	h, _ := newTestAuthHandler(t)
	postJSON(t, h.HandleRegister, "/api/auth/register", registerBody)
	login := postJSON(t, h.HandleLogin, "/api/auth/login", `{"email":"alice@example.com","password":"Passw0rdOk"}`)
	cookie := refreshCookie(login)
	require.NotNil(t, cookie)

	rec := postJSON(t, h.HandleRefresh, "/api/auth/refresh", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["accessToken"])
}

func TestHandleRefreshWithoutCookie(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	rec := postJSON(t, h.HandleRefresh, "/api/auth/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleRefreshAfterLogout(t *testing.T) {
	h, _ := newTestAuthHandler(t)
	postJSON(t, h.HandleRegister, "/api/auth/register", registerBody)
	login := postJSON(t, h.HandleLogin, "/api/auth/login", `{"email":"alice@example.com","password":"Passw0rdOk"}`)
	cookie := refreshCookie(login)
	require.NotNil(t, cookie)

	logout := postJSON(t, h.HandleLogout, "/api/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, logout.Code)

	cleared := refreshCookie(logout)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	rec := postJSON(t, h.HandleRefresh, "/api/auth/refresh", "", cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandleLogoutWithoutSession(t *testing.T) {
	h, _ := newTestAuthHandler(t)

	rec := postJSON(t, h.HandleLogout, "/api/auth/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
