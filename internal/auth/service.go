package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/luminariq/agentgate/internal/models"
	"github.com/luminariq/agentgate/internal/storage"
)

// WebClientID tags refresh tokens minted by the first-party login flow, as
// opposed to tokens minted through the OAuth code exchange.
const WebClientID = "web"

// DefaultScopes granted to newly registered users.
var DefaultScopes = []string{"chat"}

// RegisterInput carries the register request fields.
type RegisterInput struct {
	Email             string
	Password          string
	FullName          string
	PreferredLanguage string
}

// LoginResult is what a successful login produces. RefreshToken travels back
// to the boundary for cookie transport; the core never sets cookies.
type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// SessionService orchestrates registration, login, refresh and logout.
type SessionService struct {
	users  storage.UserStore
	tokens storage.RefreshTokenStore
	codec  *TokenCodec
	cost   int
}

// NewSessionService wires the session service. cost is the bcrypt cost
// factor; zero takes the bcrypt default.
func NewSessionService(users storage.UserStore, tokens storage.RefreshTokenStore, codec *TokenCodec, cost int) *SessionService {
	return &SessionService{users: users, tokens: tokens, codec: codec, cost: cost}
}

// Register creates a user with a freshly salted password hash. The username
// defaults to the email address.
func (s *SessionService) Register(in RegisterInput) (*models.User, error) {
	if _, err := s.users.GetUserByEmail(in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}

	hash, err := HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	lang := in.PreferredLanguage
	if lang == "" {
		lang = "en"
	}
	user := &models.User{
		ID:                uuid.New().String(),
		Username:          in.Email,
		Email:             in.Email,
		FullName:          in.FullName,
		PasswordHash:      hash,
		Role:              models.RoleUser,
		Scopes:            append([]string(nil), DefaultScopes...),
		Status:            models.StatusActive,
		PreferredLanguage: lang,
	}
	if err := s.users.CreateUser(user); err != nil {
		// A concurrent registration can slip past the pre-check.
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and mints an access/refresh token pair. A
// missing user and a wrong password return the same error so callers cannot
// enumerate accounts.
func (s *SessionService) Login(email, password string) (*LoginResult, error) {
	user, err := s.Authenticate(email, password)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.codec.MintAccessToken(AccessClaims{
		Role:             user.Role,
		Email:            user.Email,
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
		ClientID:  WebClientID,
		Scope:     append([]string(nil), user.Scopes...),
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, fmt.Errorf("saving refresh token: %w", err)
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(user.ID, now); err != nil {
		return nil, fmt.Errorf("updating last login: %w", err)
	}
	user.LastLogin = &now

	return &LoginResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// AccessTTL exposes the configured access-token lifetime for expires_in
// fields at the boundary.
func (s *SessionService) AccessTTL() time.Duration {
	return s.codec.AccessTTL()
}

// Authenticate verifies credentials without starting a session. The OAuth
// login form goes through here; identifier may be a username or an email.
// Absent user and wrong password produce the same error.
func (s *SessionService) Authenticate(identifier, password string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(identifier)
	if errors.Is(err, storage.ErrNotFound) {
		user, err = s.users.GetUserByEmail(identifier)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, ErrAccountNotActive
	}
	return user, nil
}

// Refresh mints a new access token from a valid refresh token. The refresh
// token itself is not rotated: one long-lived token per session until logout.
func (s *SessionService) Refresh(refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrTokenRequired
	}

	if _, err := s.codec.VerifyRefreshToken(refreshToken); err != nil {
		return "", ErrInvalidToken
	}

	// The persisted record is authoritative; a valid signature on a
	// revoked or deleted token is not enough.
	record, err := s.tokens.GetRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrTokenExpiredOrRevoked
		}
		return "", fmt.Errorf("looking up refresh token: %w", err)
	}
	if !record.Valid(time.Now()) {
		return "", ErrTokenExpiredOrRevoked
	}

	user, err := s.users.GetUserByID(record.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("looking up user: %w", err)
	}

	accessToken, err := s.codec.MintAccessToken(AccessClaims{
		Role:             user.Role,
		Email:            user.Email,
		RegisteredClaims: subjectClaims(user.ID),
	})
	if err != nil {
		return "", fmt.Errorf("minting access token: %w", err)
	}
	return accessToken, nil
}

// Logout deletes the refresh token record. Empty and unknown tokens are
// no-ops; logout never fails for the caller's benefit.
func (s *SessionService) Logout(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.tokens.DeleteRefreshToken(refreshToken)
}
