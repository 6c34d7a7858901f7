package models

import "time"

// User roles.
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// User account statuses.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// User represents a registered account. PasswordHash is never serialized.
type User struct {
	ID                string     `json:"id"`
	Username          string     `json:"username"`
	Email             string     `json:"email"`
	FullName          string     `json:"fullName"`
	PasswordHash      string     `json:"-"`
	Role              string     `json:"role"`
	Scopes            []string   `json:"scopes"`
	Status            string     `json:"status"`
	PreferredLanguage string     `json:"preferredLanguage"`
	LastLogin         *time.Time `json:"lastLogin,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// IsActive reports whether the account may log in.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}
