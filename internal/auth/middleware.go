package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/spielrunde/cardtable/internal/httputil"
	"github.com/spielrunde/cardtable/internal/logging"
	"github.com/spielrunde/cardtable/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey    ContextKey = "user"
	SessionContextKey ContextKey = "session"
)

// Middleware enforces authentication and the role gate on protected routes.
// The user row is re-read from the store on every request, so role and ban
// changes take effect without any push or cache invalidation mechanism.
type Middleware struct {
	tokenService TokenService
	sessions     SessionStore
	users        UserStore
}

func NewMiddleware(tokenService TokenService, sessions SessionStore, users UserStore) *Middleware {
	return &Middleware{
		tokenService: tokenService,
		sessions:     sessions,
		users:        users,
	}
}

// RequireAuth validates the bearer token, checks the session is still live,
// and re-validates verification and ban state against the current user row.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokenService.VerifyToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}
		sessionID, err := uuid.Parse(claims.SessionID)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		// The session record is the revocation authority; a valid token
		// whose session is gone was logged out or force-revoked
		session, err := m.sessions.GetSession(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				httputil.RespondErrorWithCode(w, "session has been revoked", httputil.CodeSessionRevoked, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "failed to validate session", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}
		if session.UserID != userID {
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		// Re-read the user row: role and verification state are never
		// trusted from the token
		currentUser, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "failed to load user", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		if currentUser.IsBanned() {
			// Ban detected after login: destroy every session the user holds
			logger := logging.GetLoggerFromContext(r.Context())
			if err := m.sessions.RevokeAllUserSessions(r.Context(), userID); err != nil {
				logger.Error("failed to revoke sessions of banned user", "user_id", userID, "error", err)
			}
			logger.Warn("banned user attempted protected request", "user_id", userID)
			httputil.RespondErrorWithCode(w, "your account has been banned", httputil.CodeAccountBanned, http.StatusForbidden)
			return
		}

		if !currentUser.EmailVerified() {
			httputil.RespondErrorWithCode(w, "email address not verified", httputil.CodeEmailNotVerified, http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, currentUser)
		ctx = context.WithValue(ctx, SessionContextKey, session)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates a route on the admin role. Must run after RequireAuth.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		currentUser, ok := GetUserFromContext(r.Context())
		if !ok {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		if !currentUser.CanAccessAdmin() {
			httputil.RespondErrorWithCode(w, "you do not have permission for this action", httputil.CodeForbidden, http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*user.User)
	return u, ok
}

// GetSessionFromContext extracts the presenting session from the request context
func GetSessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(SessionContextKey).(*Session)
	return s, ok
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
