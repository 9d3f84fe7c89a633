package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type SessionRepositorySuite struct {
	suite.Suite
	mr   *miniredis.Miniredis
	repo *SessionRepository
	ctx  context.Context
}

func TestSessionRepositorySuite(t *testing.T) {
	suite.Run(t, new(SessionRepositorySuite))
}

func (s *SessionRepositorySuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.repo = NewSessionRepository(client)
	s.ctx = context.Background()
}

func (s *SessionRepositorySuite) TearDownTest() {
	s.mr.Close()
}

func (s *SessionRepositorySuite) newSession(userID uuid.UUID) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func (s *SessionRepositorySuite) TestStoreAndGetSession() {
	session := s.newSession(uuid.New())

	s.Require().NoError(s.repo.StoreSession(s.ctx, session))

	got, err := s.repo.GetSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(session.ID, got.ID)
	s.Equal(session.UserID, got.UserID)
	s.WithinDuration(session.ExpiresAt, got.ExpiresAt, time.Second)
}

func (s *SessionRepositorySuite) TestStoreSessionRejectsPastExpiry() {
	session := s.newSession(uuid.New())
	session.ExpiresAt = time.Now().Add(-time.Minute)

	s.Error(s.repo.StoreSession(s.ctx, session))
}

func (s *SessionRepositorySuite) TestGetSessionUnknown() {
	_, err := s.repo.GetSession(s.ctx, uuid.New())
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *SessionRepositorySuite) TestSessionExpiresWithTTL() {
	session := s.newSession(uuid.New())
	s.Require().NoError(s.repo.StoreSession(s.ctx, session))

	s.mr.FastForward(2 * time.Hour)

	_, err := s.repo.GetSession(s.ctx, session.ID)
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *SessionRepositorySuite) TestRevokeSession() {
	userID := uuid.New()
	session := s.newSession(userID)
	s.Require().NoError(s.repo.StoreSession(s.ctx, session))

	s.Require().NoError(s.repo.RevokeSession(s.ctx, session.ID, userID))

	_, err := s.repo.GetSession(s.ctx, session.ID)
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *SessionRepositorySuite) TestRevokeSessionLeavesOthers() {
	userID := uuid.New()
	first := s.newSession(userID)
	second := s.newSession(userID)
	s.Require().NoError(s.repo.StoreSession(s.ctx, first))
	s.Require().NoError(s.repo.StoreSession(s.ctx, second))

	s.Require().NoError(s.repo.RevokeSession(s.ctx, first.ID, userID))

	_, err := s.repo.GetSession(s.ctx, second.ID)
	s.NoError(err)
}

func (s *SessionRepositorySuite) TestRevokeAllUserSessions() {
	userID := uuid.New()
	otherID := uuid.New()
	first := s.newSession(userID)
	second := s.newSession(userID)
	unrelated := s.newSession(otherID)
	s.Require().NoError(s.repo.StoreSession(s.ctx, first))
	s.Require().NoError(s.repo.StoreSession(s.ctx, second))
	s.Require().NoError(s.repo.StoreSession(s.ctx, unrelated))

	s.Require().NoError(s.repo.RevokeAllUserSessions(s.ctx, userID))

	_, err := s.repo.GetSession(s.ctx, first.ID)
	s.ErrorIs(err, ErrSessionNotFound)
	_, err = s.repo.GetSession(s.ctx, second.ID)
	s.ErrorIs(err, ErrSessionNotFound)

	// Other users are untouched
	_, err = s.repo.GetSession(s.ctx, unrelated.ID)
	s.NoError(err)
}

func (s *SessionRepositorySuite) TestRevokeAllUserSessionsNoSessions() {
	s.NoError(s.repo.RevokeAllUserSessions(s.ctx, uuid.New()))
}
