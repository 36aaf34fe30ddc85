package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/hrdesk/hrdesk/internal/users"
)

// Token is an opaque API credential bound to one user.
type Token struct {
	Key       string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// LoginInput carries credentials; the login may be a username or an email.
type LoginInput struct {
	EmailOrUsername string `json:"email_or_username" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Token string     `json:"token"`
	User  users.View `json:"user"`
}

// ClientInfo describes where a login came from, stored for auditing.
type ClientInfo struct {
	IP        string
	UserAgent string
}
