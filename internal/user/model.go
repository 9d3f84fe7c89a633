package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                     uuid.UUID  `json:"id"`
	Name                   string     `json:"name"`
	Email                  string     `json:"email"`
	PasswordHash           string     `json:"-"` // Never expose password hash in JSON
	Role                   Role       `json:"role"`
	EmailVerifiedAt        *time.Time `json:"email_verified_at"`
	EmailVerificationToken *string    `json:"-"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// EmailVerified reports whether the user has completed email verification.
func (u *User) EmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}

func (u *User) IsBanned() bool {
	return u.Role.IsBanned()
}

func (u *User) CanAccessAdmin() bool {
	return u.Role.CanAccessAdmin()
}
