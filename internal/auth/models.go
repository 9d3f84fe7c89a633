package auth

import (
	"time"

	"github.com/google/uuid"
)

// Session is a single revocable login. One exists per active device/browser;
// logout destroys only the presenting one.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// PasswordResetRecord is the short-lived, single-use reset credential.
// Only the hash of the emailed token is stored.
type PasswordResetRecord struct {
	Email     string
	TokenHash string
	CreatedAt time.Time
}
