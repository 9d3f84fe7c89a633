package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spielrunde/cardtable/internal/user"
)

// TokenService defines the interface for session token creation and validation.
type TokenService interface {
	CreateToken(userID, sessionID uuid.UUID, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserStore is the subset of the user repository the auth layer depends on.
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash, verificationToken string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*user.User, error)
	MarkEmailVerified(ctx context.Context, userID uuid.UUID) error
	UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

// SessionStore defines the interface for session persistence.
type SessionStore interface {
	StoreSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error)
	RevokeSession(ctx context.Context, sessionID, userID uuid.UUID) error
	RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error
}

// PasswordResetStore defines the interface for reset record persistence.
// Implementations must keep at most one live record per email.
type PasswordResetStore interface {
	Replace(ctx context.Context, email, tokenHash string) error
	GetByEmail(ctx context.Context, email string) (*PasswordResetRecord, error)
	Delete(ctx context.Context, email string) error
}

// EmailService defines the interface for email operations
type EmailService interface {
	SendVerificationEmail(ctx context.Context, toEmail, name, token string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, name, token string) error
}
