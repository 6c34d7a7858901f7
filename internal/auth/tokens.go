package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes, matching the boundary contract (expires_in=900).
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// AccessClaims is the access-token payload. Username and Scope are only set
// on tokens minted by the OAuth code exchange.
type AccessClaims struct {
	Role     string   `json:"role,omitempty"`
	Email    string   `json:"email,omitempty"`
	Username string   `json:"username,omitempty"`
	Scope    []string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// RefreshClaims is the minimal refresh-token payload.
type RefreshClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies access and refresh tokens. The two classes
// use separate secrets so compromise of one cannot forge the other.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenCodec creates a codec with the given secrets. Zero TTLs take the
// defaults (15m access, 7d refresh).
func NewTokenCodec(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenCodec {
	if accessTTL == 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL == 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessTTL returns the configured access-token lifetime.
func (c *TokenCodec) AccessTTL() time.Duration {
	return c.accessTTL
}

// RefreshTTL returns the configured refresh-token lifetime.
func (c *TokenCodec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// MintAccessToken signs a short-lived access token for the subject.
func (c *TokenCodec) MintAccessToken(claims AccessClaims) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.accessTTL))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.accessSecret)
}

// MintRefreshToken signs a long-lived refresh token for the user. The caller
// is responsible for persisting it so it can be revoked before expiry.
func (c *TokenCodec) MintRefreshToken(userID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(c.refreshTTL)
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func subjectClaims(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{Subject: sub}
}

// VerifyAccessToken parses and validates an access token. Expired tokens
// return ErrTokenExpired, everything else ErrInvalidToken.
func (c *TokenCodec) VerifyAccessToken(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	err := c.verify(tokenStr, claims, c.accessSecret)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// VerifyRefreshToken parses and validates a refresh token signature. The
// persisted record remains authoritative for revocation.
func (c *TokenCodec) VerifyRefreshToken(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	err := c.verify(tokenStr, claims, c.refreshSecret)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (c *TokenCodec) verify(tokenStr string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
