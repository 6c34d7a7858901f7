package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/luminariq/agentgate/internal/models"
	"github.com/luminariq/agentgate/internal/storage"
)

// AuthCodeTTL is the authorization-code lifetime.
const AuthCodeTTL = 5 * time.Minute

// TokenResponse is the standard OAuth2 token endpoint payload.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// CreateCodeInput carries everything recorded on a new authorization code.
type CreateCodeInput struct {
	UserID              string
	ClientID            string
	RedirectURI         string
	Scope               []string
	CodeChallenge       string
	CodeChallengeMethod string
	State               string
}

// AuthorizationService implements the authorization_code grant with PKCE for
// pre-registered clients.
type AuthorizationService struct {
	clients storage.ClientStore
	codes   storage.AuthCodeStore
	users   storage.UserStore
	tokens  storage.RefreshTokenStore
	codec   *TokenCodec
}

// NewAuthorizationService wires the OAuth authorization service.
func NewAuthorizationService(clients storage.ClientStore, codes storage.AuthCodeStore, users storage.UserStore, tokens storage.RefreshTokenStore, codec *TokenCodec) *AuthorizationService {
	return &AuthorizationService{
		clients: clients,
		codes:   codes,
		users:   users,
		tokens:  tokens,
		codec:   codec,
	}
}

// ValidateClient returns the client when it exists and redirectURI is in its
// registered set. Matching is exact, never prefix or host-only.
func (s *AuthorizationService) ValidateClient(clientID, redirectURI string) (*models.OAuthClient, error) {
	client, err := s.clients.GetClient(clientID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidClient
		}
		return nil, fmt.Errorf("looking up client: %w", err)
	}
	if !client.AllowsRedirect(redirectURI) {
		return nil, ErrInvalidClient
	}
	return client, nil
}

// CreateAuthorizationCode mints a random single-use code with a 5-minute
// expiry and persists it.
func (s *AuthorizationService) CreateAuthorizationCode(in CreateCodeInput) (*models.AuthorizationCode, error) {
	codeStr, err := RandomString(32)
	if err != nil {
		return nil, fmt.Errorf("generating code: %w", err)
	}

	code := &models.AuthorizationCode{
		Code:                codeStr,
		UserID:              in.UserID,
		ClientID:            in.ClientID,
		RedirectURI:         in.RedirectURI,
		Scope:               in.Scope,
		CodeChallenge:       in.CodeChallenge,
		CodeChallengeMethod: in.CodeChallengeMethod,
		State:               in.State,
		ExpiresAt:           time.Now().Add(AuthCodeTTL),
	}
	if err := s.codes.SaveAuthCode(code); err != nil {
		return nil, fmt.Errorf("saving authorization code: %w", err)
	}
	return code, nil
}

// ExchangeCode trades an authorization code for tokens. The code is consumed
// exactly once; the conditional MarkCodeUsed update means a concurrent replay
// loses the race and fails with ErrInvalidGrant.
func (s *AuthorizationService) ExchangeCode(codeStr, clientID, codeVerifier, clientSecret string) (*TokenResponse, error) {
	code, err := s.codes.GetAuthCode(codeStr, clientID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidGrant
		}
		return nil, fmt.Errorf("looking up authorization code: %w", err)
	}

	client, err := s.clients.GetClient(clientID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidClient
		}
		return nil, fmt.Errorf("looking up client: %w", err)
	}
	// Confidential clients authenticate with their secret; public clients
	// rely on PKCE alone.
	if !client.Public && client.ClientSecretHash != "" {
		if clientSecret == "" || !CheckPassword(clientSecret, client.ClientSecretHash) {
			return nil, ErrInvalidClient
		}
	}

	if code.CodeChallenge != "" {
		if codeVerifier == "" {
			return nil, ErrInvalidRequest
		}
		if !VerifyCodeChallenge(codeVerifier, code.CodeChallenge, code.CodeChallengeMethod) {
			return nil, ErrInvalidGrant
		}
	}

	consumed, err := s.codes.MarkCodeUsed(code.Code)
	if err != nil {
		return nil, fmt.Errorf("consuming authorization code: %w", err)
	}
	if !consumed {
		return nil, ErrInvalidGrant
	}

	user, err := s.users.GetUserByID(code.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidGrant
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	// Scope comes from the code as recorded at authorize time, never
	// re-derived from the client's full allow-list.
	accessToken, err := s.codec.MintAccessToken(AccessClaims{
		Username:         user.Username,
		Scope:            code.Scope,
		RegisteredClaims: subjectClaims(user.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("minting access token: %w", err)
	}

	refreshToken, expiresAt, err := s.codec.MintRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("minting refresh token: %w", err)
	}
	if err := s.tokens.SaveRefreshToken(&models.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ClientID:  clientID,
		Scope:     code.Scope,
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("saving refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.codec.AccessTTL().Seconds()),
		RefreshToken: refreshToken,
		Scope:        strings.Join(code.Scope, " "),
	}, nil
}
