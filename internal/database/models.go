package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the database model for the users table.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                     uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name                   string     `bun:"name,notnull"`
	Email                  string     `bun:"email,notnull,unique"`
	PasswordHash           string     `bun:"password_hash,notnull"`
	Role                   string     `bun:"role,notnull,default:'player'"`
	EmailVerifiedAt        *time.Time `bun:"email_verified_at"`
	EmailVerificationToken *string    `bun:"email_verification_token"`
	CreatedAt              time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt              time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// PasswordResetToken is the database model for the password_reset_tokens table.
// At most one row exists per email; the plaintext token is never stored.
type PasswordResetToken struct {
	bun.BaseModel `bun:"table:password_reset_tokens,alias:prt"`

	Email     string    `bun:"email,pk"`
	TokenHash string    `bun:"token_hash,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
