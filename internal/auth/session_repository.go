package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository handles session persistence in Redis. Expiry is enforced
// by Redis TTLs; revocation deletes the record so the next lookup fails.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

// getSessionKey generates the Redis key for a session
func getSessionKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s", sessionID.String())
}

// getUserSessionsKey generates the Redis key for a user's session set
func getUserSessionsKey(userID uuid.UUID) string {
	return fmt.Sprintf("user_sessions:%s", userID.String())
}

// StoreSession stores a session in Redis with TTL
func (r *SessionRepository) StoreSession(ctx context.Context, session *Session) error {
	sessionKey := getSessionKey(session.ID)
	userSessionsKey := getUserSessionsKey(session.UserID)

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session expiration time is in the past")
	}

	// Create a pipeline for atomic operations
	pipe := r.client.Pipeline()

	pipe.HSet(ctx, sessionKey, map[string]interface{}{
		"user_id":    session.UserID.String(),
		"created_at": session.CreatedAt.Unix(),
		"expires_at": session.ExpiresAt.Unix(),
	})
	pipe.Expire(ctx, sessionKey, ttl)

	// Track the session in the user's set so bans and password resets can
	// revoke every device at once
	pipe.SAdd(ctx, userSessionsKey, session.ID.String())
	pipe.Expire(ctx, userSessionsKey, ttl)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// GetSession retrieves a live session by ID
func (r *SessionRepository) GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	sessionKey := getSessionKey(sessionID)

	data, err := r.client.HGetAll(ctx, sessionKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}

	userID, err := uuid.Parse(data["user_id"])
	if err != nil {
		return nil, ErrSessionNotFound
	}

	var createdAtUnix, expiresAtUnix int64
	fmt.Sscanf(data["created_at"], "%d", &createdAtUnix)
	fmt.Sscanf(data["expires_at"], "%d", &expiresAtUnix)

	session := &Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: time.Unix(createdAtUnix, 0),
		ExpiresAt: time.Unix(expiresAtUnix, 0),
	}

	if session.IsExpired() {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// RevokeSession destroys a single session (logout on one device)
func (r *SessionRepository) RevokeSession(ctx context.Context, sessionID, userID uuid.UUID) error {
	pipe := r.client.Pipeline()
	pipe.Del(ctx, getSessionKey(sessionID))
	pipe.SRem(ctx, getUserSessionsKey(userID), sessionID.String())

	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

// RevokeAllUserSessions destroys every session a user holds. Called when a
// user is banned or resets their password.
func (r *SessionRepository) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	userSessionsKey := getUserSessionsKey(userID)

	sessionIDs, err := r.client.SMembers(ctx, userSessionsKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get user sessions: %w", err)
	}

	if len(sessionIDs) == 0 {
		return nil // No sessions to revoke
	}

	pipe := r.client.Pipeline()
	for _, id := range sessionIDs {
		pipe.Del(ctx, fmt.Sprintf("session:%s", id))
	}
	pipe.Del(ctx, userSessionsKey)

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to revoke all user sessions: %w", err)
	}

	return nil
}
