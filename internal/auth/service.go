package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/spielrunde/cardtable/internal/logging"
	"github.com/spielrunde/cardtable/internal/user"
)

var (
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrNameRequired             = errors.New("name is required")
	ErrEmailRequired            = errors.New("email is required")
	ErrPasswordRequired         = errors.New("password is required")
	ErrPasswordTooShort         = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch         = errors.New("password confirmation does not match")
	ErrEmailNotVerified         = errors.New("email not verified, please check your inbox")
	ErrAccountBanned            = errors.New("account has been banned")
	ErrInvalidVerificationToken = errors.New("invalid verification token")
	ErrEmailAlreadyVerified     = errors.New("email already verified")
	ErrInvalidEmailFormat       = errors.New("invalid email format")
	ErrInvalidResetToken        = errors.New("invalid or expired reset token")
	ErrResetTokenExpired        = errors.New("reset token has expired")
	ErrWrongPassword            = errors.New("current password is incorrect")
)

// Service handles authentication business logic
type Service struct {
	users           UserStore
	sessions        SessionStore
	resets          PasswordResetStore
	tokenService    TokenService
	emailService    EmailService
	logger          *logging.Logger
	sessionDuration time.Duration
	resetTokenTTL   time.Duration
}

func NewService(
	users UserStore,
	sessions SessionStore,
	resets PasswordResetStore,
	tokenService TokenService,
	emailService EmailService,
	logger *logging.Logger,
	sessionDuration time.Duration,
	resetTokenTTL time.Duration,
) *Service {
	return &Service{
		users:           users,
		sessions:        sessions,
		resets:          resets,
		tokenService:    tokenService,
		emailService:    emailService,
		logger:          logger,
		sessionDuration: sessionDuration,
		resetTokenTTL:   resetTokenTTL,
	}
}

// LoginResult carries the authenticated user and their new session token.
type LoginResult struct {
	User      *user.User
	Token     string
	ExpiresIn int64
}

// Register creates a new user account and sends a verification email.
// The caller never supplies a role; accounts start as player.
func (s *Service) Register(ctx context.Context, name, email, password, confirmation string) (*user.User, error) {
	if name == "" {
		return nil, ErrNameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(email) > 254 {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if err := validatePassword(password, confirmation); err != nil {
		return nil, err
	}

	// Hash password using argon2id
	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Generate verification token
	verificationToken, err := generateRandomToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}

	// Create user in database
	newUser, err := s.users.Create(ctx, name, email, passwordHash, verificationToken)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Send verification email in a goroutine (non-blocking)
	go func() {
		// Create a new context for the goroutine to avoid cancellation issues
		emailCtx := context.Background()
		if err := s.emailService.SendVerificationEmail(emailCtx, email, name, verificationToken); err != nil {
			// Log error but don't fail registration
			// User can request a new verification email later
			s.logger.Warn("failed to send verification email", "email", email, "error", err)
		}
	}()

	return newUser, nil
}

// Login authenticates a user and issues a new session.
// Unknown email and wrong password fail identically to prevent enumeration.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	// Unverified accounts get no usable session beyond the verification flow
	if !existingUser.EmailVerified() {
		return nil, ErrEmailNotVerified
	}

	if existingUser.IsBanned() {
		return nil, ErrAccountBanned
	}

	token, err := s.createSession(ctx, existingUser.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &LoginResult{
		User:      existingUser,
		Token:     token,
		ExpiresIn: int64(s.sessionDuration.Seconds()),
	}, nil
}

// Logout revokes only the presenting session; other devices stay logged in.
func (s *Service) Logout(ctx context.Context, sessionID, userID uuid.UUID) error {
	return s.sessions.RevokeSession(ctx, sessionID, userID)
}

// VerifyEmail verifies a user's email using the verification token.
// Returns true if the email was already verified (idempotent success).
func (s *Service) VerifyEmail(ctx context.Context, token string) (bool, error) {
	existingUser, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return false, ErrInvalidVerificationToken
		}
		return false, fmt.Errorf("failed to find user by token: %w", err)
	}

	if existingUser.EmailVerified() {
		return true, nil
	}

	// Mark email as verified and clear the token permanently
	if err := s.users.MarkEmailVerified(ctx, existingUser.ID); err != nil {
		return false, fmt.Errorf("failed to verify email: %w", err)
	}

	return false, nil
}

// ResendVerificationEmail rotates the verification token and resends the link
func (s *Service) ResendVerificationEmail(ctx context.Context, email string) error {
	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser.EmailVerified() {
		return ErrEmailAlreadyVerified
	}

	token, err := generateRandomToken()
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}

	if err := s.users.UpdateVerificationToken(ctx, existingUser.ID, token); err != nil {
		return fmt.Errorf("failed to update verification token: %w", err)
	}

	// Send verification email in goroutine (non-blocking)
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendVerificationEmail(emailCtx, email, existingUser.Name, token); err != nil {
			s.logger.Warn("failed to resend verification email", "email", email, "error", err)
		}
	}()

	return nil
}

// RequestPasswordReset issues a fresh reset token for the email. Any prior
// record is replaced, so at most one reset credential is live per address.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	token, err := generateRandomToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	// Only the hash is stored; the plaintext token exists in the email alone
	tokenHash, err := HashPassword(token)
	if err != nil {
		return fmt.Errorf("failed to hash reset token: %w", err)
	}

	if err := s.resets.Replace(ctx, email, tokenHash); err != nil {
		return fmt.Errorf("failed to store reset record: %w", err)
	}

	// Send password reset email in goroutine (non-blocking)
	go func() {
		emailCtx := context.Background()
		if err := s.emailService.SendPasswordResetEmail(emailCtx, email, existingUser.Name, token); err != nil {
			s.logger.Warn("failed to send password reset email", "email", email, "error", err)
		}
	}()

	return nil
}

// ResetPassword resets a user's password using a valid reset token.
// The record is single-use: it is deleted on success and on expiry detection.
func (s *Service) ResetPassword(ctx context.Context, email, token, newPassword, confirmation string) error {
	if err := validatePassword(newPassword, confirmation); err != nil {
		return err
	}

	record, err := s.resets.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrPasswordResetTokenNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to get reset record: %w", err)
	}

	if !VerifyPassword(record.TokenHash, token) {
		return ErrInvalidResetToken
	}

	if time.Since(record.CreatedAt) > s.resetTokenTTL {
		if err := s.resets.Delete(ctx, email); err != nil {
			s.logger.Warn("failed to delete expired reset record", "error", err)
		}
		return ErrResetTokenExpired
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, existingUser.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.resets.Delete(ctx, email); err != nil {
		s.logger.Warn("failed to delete used reset record", "error", err)
	}

	// Revoke all sessions for security
	if err := s.sessions.RevokeAllUserSessions(ctx, existingUser.ID); err != nil {
		s.logger.Warn("failed to revoke sessions after password reset", "error", err)
	}

	return nil
}

// ChangePassword updates the password of a logged-in user. Every other
// session is revoked; the presenting one is re-stored and stays valid.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, newPassword, confirmation string, presenting *Session) error {
	existingUser, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.PasswordHash, current) {
		return ErrWrongPassword
	}

	if err := validatePassword(newPassword, confirmation); err != nil {
		return err
	}

	passwordHash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.sessions.RevokeAllUserSessions(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions after password change", "error", err)
	}
	if presenting != nil {
		if err := s.sessions.StoreSession(ctx, presenting); err != nil {
			s.logger.Warn("failed to keep current session after password change", "error", err)
		}
	}

	return nil
}

// createSession stores a new session record and wraps it in a PASETO token
func (s *Service) createSession(ctx context.Context, userID uuid.UUID) (string, error) {
	now := time.Now()
	session := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	if err := s.sessions.StoreSession(ctx, session); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	token, err := s.tokenService.CreateToken(userID, session.ID, s.sessionDuration)
	if err != nil {
		return "", fmt.Errorf("failed to create session token: %w", err)
	}

	return token, nil
}

func validatePassword(password, confirmation string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	if password != confirmation {
		return ErrPasswordMismatch
	}
	return nil
}
