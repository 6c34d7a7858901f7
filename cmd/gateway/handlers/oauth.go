package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/luminariq/agentgate/internal/auth"
	"github.com/luminariq/agentgate/internal/models"
	"github.com/luminariq/agentgate/internal/storage"
	"github.com/luminariq/agentgate/internal/validate"
)

// OAuthHandler serves the authorization-code grant endpoints. The authorize
// page and the login action bridge the browser flow; the token endpoint is
// for clients.
type OAuthHandler struct {
	authz    *auth.AuthorizationService
	sessions *auth.SessionService
	requests storage.AuthorizeRequestStore
	clients  storage.ClientStore
	issuer   string
}

// NewOAuthHandler creates the OAuth endpoint handler.
func NewOAuthHandler(authz *auth.AuthorizationService, sessions *auth.SessionService, requests storage.AuthorizeRequestStore, clients storage.ClientStore, issuer string) *OAuthHandler {
	return &OAuthHandler{
		authz:    authz,
		sessions: sessions,
		requests: requests,
		clients:  clients,
		issuer:   issuer,
	}
}

// HandleAuthorize validates the authorization request, parks it, and renders
// the login page.
func (h *OAuthHandler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	if query.Get("response_type") != "code" {
		http.Error(w, "unsupported response_type", http.StatusBadRequest)
		return
	}
	clientID := query.Get("client_id")
	if clientID == "" {
		http.Error(w, "client_id required", http.StatusBadRequest)
		return
	}
	redirectURI := query.Get("redirect_uri")
	if redirectURI == "" {
		http.Error(w, "redirect_uri required", http.StatusBadRequest)
		return
	}

	if _, err := h.authz.ValidateClient(clientID, redirectURI); err != nil {
		if errors.Is(err, auth.ErrInvalidClient) {
			http.Error(w, "invalid client_id or redirect_uri", http.StatusBadRequest)
			return
		}
		fmt.Printf("OAuth authorize error: %v\n", err)
		http.Error(w, "Authorization failed", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	req := &models.AuthorizeRequest{
		RequestID:           uuid.New().String(),
		ClientID:            clientID,
		RedirectURI:         redirectURI,
		Scope:               strings.TrimSpace(query.Get("scope")),
		State:               query.Get("state"),
		CodeChallenge:       query.Get("code_challenge"),
		CodeChallengeMethod: query.Get("code_challenge_method"),
		CreatedAt:           now,
		ExpiresAt:           now.Add(auth.AuthCodeTTL),
	}
	if err := h.requests.SaveAuthorizeRequest(req); err != nil {
		fmt.Printf("OAuth authorize error: saving request: %v\n", err)
		http.Error(w, "Failed to store authorization request", http.StatusInternalServerError)
		return
	}

	h.renderLoginPage(w, req.RequestID, "")
}

// HandleLoginAction consumes the parked authorize request after a successful
// credential check and redirects back to the client with a code.
func (h *OAuthHandler) HandleLoginAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	requestID := r.FormValue("request_id")
	username := validate.SanitizeInput(r.FormValue("username"))
	password := r.FormValue("password")
	if requestID == "" || username == "" || password == "" {
		http.Error(w, "Missing request_id, username or password", http.StatusBadRequest)
		return
	}

	req, err := h.requests.GetAuthorizeRequest(requestID)
	if err != nil || time.Now().After(req.ExpiresAt) {
		http.Error(w, "Invalid or expired authorization request", http.StatusBadRequest)
		return
	}

	user, err := h.sessions.Authenticate(username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrAccountNotActive) {
			h.renderLoginPage(w, requestID, "Invalid username or password")
			return
		}
		fmt.Printf("OAuth login error: %v\n", err)
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}
	_ = h.requests.DeleteAuthorizeRequest(requestID)

	scope := strings.Fields(req.Scope)
	if len(scope) == 0 {
		scope = auth.DefaultScopes
	}

	code, err := h.authz.CreateAuthorizationCode(auth.CreateCodeInput{
		UserID:              user.ID,
		ClientID:            req.ClientID,
		RedirectURI:         req.RedirectURI,
		Scope:               scope,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		State:               req.State,
	})
	if err != nil {
		fmt.Printf("OAuth login error: issuing code: %v\n", err)
		http.Error(w, "Authorization failed", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, buildRedirect(req.RedirectURI, code.Code, req.State), http.StatusFound)
}

// HandleToken exchanges authorization codes or refresh tokens.
func (h *OAuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	params, err := tokenParams(r)
	if err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	switch params["grant_type"] {
	case "authorization_code":
		h.handleAuthorizationCodeGrant(w, params)
	case "refresh_token":
		h.handleRefreshTokenGrant(w, params)
	default:
		writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type", "grant_type must be authorization_code or refresh_token")
	}
}

func (h *OAuthHandler) handleAuthorizationCodeGrant(w http.ResponseWriter, params map[string]string) {
	code := params["code"]
	clientID := params["client_id"]
	if code == "" || clientID == "" {
		writeOAuthError(w, http.StatusBadRequest, "invalid_request", "code and client_id are required")
		return
	}

	resp, err := h.authz.ExchangeCode(code, clientID, params["code_verifier"], params["client_secret"])
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidRequest):
			writeOAuthError(w, http.StatusBadRequest, "invalid_request", "code_verifier is required")
		case errors.Is(err, auth.ErrInvalidClient):
			writeOAuthError(w, http.StatusUnauthorized, "invalid_client", "client authentication failed")
		case errors.Is(err, auth.ErrInvalidGrant):
			writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "authorization code is invalid, expired or already used")
		default:
			fmt.Printf("OAuth token error: %v\n", err)
			writeOAuthError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *OAuthHandler) handleRefreshTokenGrant(w http.ResponseWriter, params map[string]string) {
	refreshToken := params["refresh_token"]

	accessToken, err := h.sessions.Refresh(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenRequired):
			writeOAuthError(w, http.StatusBadRequest, "invalid_request", "refresh_token is required")
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenExpiredOrRevoked), errors.Is(err, auth.ErrUserNotFound):
			writeOAuthError(w, http.StatusBadRequest, "invalid_grant", "refresh token is invalid, expired or revoked")
		default:
			fmt.Printf("OAuth token error: %v\n", err)
			writeOAuthError(w, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	writeJSON(w, http.StatusOK, &auth.TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.sessions.AccessTTL().Seconds()),
		RefreshToken: refreshToken,
	})
}

// HandleRegister registers dynamic clients.
func (h *OAuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		RedirectURIs            []string `json:"redirect_uris"`
		ClientName              string   `json:"client_name"`
		GrantTypes              []string `json:"grant_types"`
		Scope                   string   `json:"scope"`
		TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOAuthError(w, http.StatusBadRequest, "invalid_client_metadata", "invalid JSON body")
		return
	}

	if len(req.RedirectURIs) == 0 {
		writeOAuthError(w, http.StatusBadRequest, "invalid_redirect_uri", "redirect_uris is required")
		return
	}
	for _, uri := range req.RedirectURIs {
		if !validate.IsValidURL(uri) {
			writeOAuthError(w, http.StatusBadRequest, "invalid_redirect_uri", "redirect_uris must be absolute http(s) URLs")
			return
		}
	}

	if len(req.GrantTypes) == 0 {
		req.GrantTypes = []string{"authorization_code", "refresh_token"}
	}
	if req.TokenEndpointAuthMethod == "" {
		req.TokenEndpointAuthMethod = "none"
	}

	clientID := uuid.New().String()
	public := req.TokenEndpointAuthMethod == "none"

	var clientSecret, clientSecretHash string
	if !public {
		secret, err := auth.RandomString(32)
		if err != nil {
			writeOAuthError(w, http.StatusInternalServerError, "server_error", "")
			return
		}
		hash, err := auth.HashPassword(secret, 0)
		if err != nil {
			writeOAuthError(w, http.StatusInternalServerError, "server_error", "")
			return
		}
		clientSecret = secret
		clientSecretHash = hash
	}

	scopes := strings.Fields(req.Scope)
	if len(scopes) == 0 {
		scopes = auth.DefaultScopes
	}

	client := &models.OAuthClient{
		ClientID:         clientID,
		ClientSecretHash: clientSecretHash,
		ClientName:       req.ClientName,
		RedirectURIs:     req.RedirectURIs,
		AllowedScopes:    scopes,
		GrantTypes:       req.GrantTypes,
		Public:           public,
		CreatedAt:        time.Now(),
	}
	if err := h.clients.SaveClient(client); err != nil {
		fmt.Printf("OAuth register error: %v\n", err)
		writeOAuthError(w, http.StatusInternalServerError, "server_error", "")
		return
	}

	resp := map[string]interface{}{
		"client_id":                  clientID,
		"client_id_issued_at":        time.Now().Unix(),
		"client_secret_expires_at":   0,
		"redirect_uris":              req.RedirectURIs,
		"grant_types":                req.GrantTypes,
		"response_types":             []string{"code"},
		"token_endpoint_auth_method": req.TokenEndpointAuthMethod,
		"client_name":                req.ClientName,
		"scope":                      strings.Join(scopes, " "),
	}
	if clientSecret != "" {
		resp["client_secret"] = clientSecret
	}

	writeJSON(w, http.StatusCreated, resp)
}

// HandleWellKnown serves OAuth discovery metadata.
func (h *OAuthHandler) HandleWellKnown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := map[string]interface{}{
		"issuer":                                h.issuer,
		"authorization_endpoint":                h.issuer + "/oauth/authorize",
		"token_endpoint":                        h.issuer + "/oauth/token",
		"registration_endpoint":                 h.issuer + "/oauth/register",
		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
		"code_challenge_methods_supported":      []string{"S256", "plain"},
		"token_endpoint_auth_methods_supported": []string{"none", "client_secret_post"},
	}
	writeJSON(w, http.StatusOK, data)
}

// tokenParams accepts JSON and form-encoded token requests.
func tokenParams(r *http.Request) (map[string]string, error) {
	params := map[string]string{}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("invalid JSON body")
		}
		for k, v := range body {
			params[k] = v
		}
		return params, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form body")
	}
	for k := range r.PostForm {
		params[k] = r.PostForm.Get(k)
	}
	return params, nil
}

func buildRedirect(base, code, state string) string {
	parsed, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := parsed.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

func (h *OAuthHandler) renderLoginPage(w http.ResponseWriter, requestID, errMsg string) {
	notice := ""
	if errMsg != "" {
		notice = fmt.Sprintf(`<p class="error">%s</p>`, errMsg)
	}

	html := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>Sign in</title>
  <style>
    body { font-family: Arial, sans-serif; background:#0f172a; color:#e2e8f0; display:flex; align-items:center; justify-content:center; height:100vh; margin:0; }
    .card { background:#111827; border:1px solid #1f2937; padding:32px; border-radius:12px; max-width:420px; width:100%%; }
    h1 { margin:0 0 12px; font-size:22px; }
    p { margin:0 0 18px; color:#94a3b8; }
    .error { color:#f87171; }
    label { display:block; margin:12px 0 4px; font-size:14px; }
    input { width:100%%; padding:8px; border-radius:6px; border:1px solid #1f2937; background:#0f172a; color:#e2e8f0; box-sizing:border-box; }
    button { margin-top:18px; width:100%%; padding:10px; border:none; border-radius:6px; background:#2563eb; color:white; font-size:15px; cursor:pointer; }
  </style>
</head>
<body>
  <div class="card">
    <h1>Sign in to continue</h1>
    <p>An application is requesting access to your account.</p>
    %s
    <form method="POST" action="/oauth/login-action">
      <input type="hidden" name="request_id" value=%q />
      <label for="username">Username or email</label>
      <input type="text" id="username" name="username" autocomplete="username" required />
      <label for="password">Password</label>
      <input type="password" id="password" name="password" autocomplete="current-password" required />
      <button type="submit">Authorize</button>
    </form>
  </div>
</body>
</html>`, notice, requestID)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}
