package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spielrunde/cardtable/internal/user"
)

// fakeUserStore is an in-memory UserStore mirroring the behavior of the
// Postgres repository closely enough for service tests.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*user.User)}
}

func (f *fakeUserStore) Create(ctx context.Context, name, email, passwordHash, verificationToken string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			return nil, user.ErrDuplicateEmail
		}
	}

	now := time.Now()
	token := verificationToken
	u := &user.User{
		ID:                     uuid.New(),
		Name:                   name,
		Email:                  email,
		PasswordHash:           passwordHash,
		Role:                   user.RolePlayer,
		EmailVerificationToken: &token,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	f.users[u.ID] = u

	return copyUser(u), nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return copyUser(u), nil
}

func (f *fakeUserStore) GetByVerificationToken(ctx context.Context, token string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.EmailVerificationToken != nil && *u.EmailVerificationToken == token {
			return copyUser(u), nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUserStore) MarkEmailVerified(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	now := time.Now()
	u.EmailVerifiedAt = &now
	u.EmailVerificationToken = nil
	return nil
}

func (f *fakeUserStore) UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok || u.EmailVerifiedAt != nil {
		return user.ErrNotFound
	}
	u.EmailVerificationToken = &token
	return nil
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

// markVerified is a test seam flipping a user to verified directly
func (f *fakeUserStore) markVerified(userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u, ok := f.users[userID]; ok {
		now := time.Now()
		u.EmailVerifiedAt = &now
	}
}

// setRole is a test seam changing a user's role directly
func (f *fakeUserStore) setRole(userID uuid.UUID, role user.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u, ok := f.users[userID]; ok {
		u.Role = role
	}
}

// verificationToken returns the user's current verification token, if any
func (f *fakeUserStore) verificationToken(userID uuid.UUID) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u, ok := f.users[userID]; ok && u.EmailVerificationToken != nil {
		return *u.EmailVerificationToken
	}
	return ""
}

func copyUser(u *user.User) *user.User {
	c := *u
	if u.EmailVerifiedAt != nil {
		t := *u.EmailVerifiedAt
		c.EmailVerifiedAt = &t
	}
	if u.EmailVerificationToken != nil {
		t := *u.EmailVerificationToken
		c.EmailVerificationToken = &t
	}
	return &c
}

// fakeSessionStore is an in-memory SessionStore
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[uuid.UUID]*Session)}
}

func (f *fakeSessionStore) StoreSession(ctx context.Context, session *Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := *session
	f.sessions[session.ID] = &c
	return nil
}

func (f *fakeSessionStore) GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.sessions[sessionID]
	if !ok || s.IsExpired() {
		return nil, ErrSessionNotFound
	}
	c := *s
	return &c, nil
}

func (f *fakeSessionStore) RevokeSession(ctx context.Context, sessionID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeSessionStore) RevokeAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, s := range f.sessions {
		if s.UserID == userID {
			delete(f.sessions, id)
		}
	}
	return nil
}

func (f *fakeSessionStore) count(userID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, s := range f.sessions {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

// fakeResetStore is an in-memory PasswordResetStore
type fakeResetStore struct {
	mu      sync.Mutex
	records map[string]*PasswordResetRecord
}

func newFakeResetStore() *fakeResetStore {
	return &fakeResetStore{records: make(map[string]*PasswordResetRecord)}
}

func (f *fakeResetStore) Replace(ctx context.Context, email, tokenHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.records[email] = &PasswordResetRecord{
		Email:     email,
		TokenHash: tokenHash,
		CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeResetStore) GetByEmail(ctx context.Context, email string) (*PasswordResetRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.records[email]
	if !ok {
		return nil, ErrPasswordResetTokenNotFound
	}
	c := *r
	return &c, nil
}

func (f *fakeResetStore) Delete(ctx context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.records, email)
	return nil
}

// age backdates the record's creation time to simulate expiry
func (f *fakeResetStore) age(email string, by time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r, ok := f.records[email]; ok {
		r.CreatedAt = r.CreatedAt.Add(-by)
	}
}

func (f *fakeResetStore) has(email string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.records[email]
	return ok
}

type sentEmail struct {
	To    string
	Name  string
	Token string
}

// fakeEmailService records sent emails; the service sends them in goroutines,
// so readers must poll
type fakeEmailService struct {
	mu            sync.Mutex
	verifications []sentEmail
	resets        []sentEmail
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{}
}

func (f *fakeEmailService) SendVerificationEmail(ctx context.Context, toEmail, name, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.verifications = append(f.verifications, sentEmail{To: toEmail, Name: name, Token: token})
	return nil
}

func (f *fakeEmailService) SendPasswordResetEmail(ctx context.Context, toEmail, name, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resets = append(f.resets, sentEmail{To: toEmail, Name: name, Token: token})
	return nil
}

func (f *fakeEmailService) lastReset() (sentEmail, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.resets) == 0 {
		return sentEmail{}, false
	}
	return f.resets[len(f.resets)-1], true
}
