package models

import "time"

// OAuthClient represents a pre-registered OAuth client.
type OAuthClient struct {
	ClientID         string    `json:"clientId"`
	ClientSecretHash string    `json:"-"`
	ClientName       string    `json:"clientName"`
	RedirectURIs     []string  `json:"redirectUris"`
	AllowedScopes    []string  `json:"allowedScopes"`
	GrantTypes       []string  `json:"grantTypes"`
	Public           bool      `json:"public"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// AllowsRedirect reports whether redirectURI is registered for the client.
// Matching is exact string equality, never prefix or host-only.
func (c *OAuthClient) AllowsRedirect(redirectURI string) bool {
	for _, uri := range c.RedirectURIs {
		if uri == redirectURI {
			return true
		}
	}
	return false
}

// AuthorizationCode is a single-use credential minted by the authorize flow.
// Consumed codes are flagged, not deleted; the store expires them past ExpiresAt.
type AuthorizationCode struct {
	Code                string    `json:"code"`
	UserID              string    `json:"userId"`
	ClientID            string    `json:"clientId"`
	RedirectURI         string    `json:"redirectUri"`
	Scope               []string  `json:"scope"`
	CodeChallenge       string    `json:"codeChallenge,omitempty"`
	CodeChallengeMethod string    `json:"codeChallengeMethod,omitempty"`
	State               string    `json:"state,omitempty"`
	Used                bool      `json:"used"`
	ExpiresAt           time.Time `json:"expiresAt"`
	CreatedAt           time.Time `json:"createdAt"`
}

// RefreshToken is a server-tracked credential; signature validity alone is
// not sufficient, the stored record decides revocation.
type RefreshToken struct {
	Token     string     `json:"token"`
	UserID    string     `json:"userId"`
	ClientID  string     `json:"clientId"`
	Scope     []string   `json:"scope"`
	ExpiresAt time.Time  `json:"expiresAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Valid reports whether the token is usable at time now.
func (t *RefreshToken) Valid(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// AuthorizeRequest is a pending /oauth/authorize request awaiting login.
type AuthorizeRequest struct {
	RequestID           string    `json:"requestId"`
	ClientID            string    `json:"clientId"`
	RedirectURI         string    `json:"redirectUri"`
	Scope               string    `json:"scope"`
	State               string    `json:"state"`
	CodeChallenge       string    `json:"codeChallenge"`
	CodeChallengeMethod string    `json:"codeChallengeMethod"`
	CreatedAt           time.Time `json:"createdAt"`
	ExpiresAt           time.Time `json:"expiresAt"`
}
