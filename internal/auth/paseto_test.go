package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasetoServiceRejectsBadKeyLength(t *testing.T) {
	_, err := NewPasetoService([]byte("too-short"))
	assert.Error(t, err)
}

func TestCreateAndVerifyToken(t *testing.T) {
	service, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	userID := uuid.New()
	sessionID := uuid.New()

	token, err := service.CreateToken(userID, sessionID, time.Hour)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)

	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestVerifyTokenExpired(t *testing.T) {
	service, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	token, err := service.CreateToken(uuid.New(), uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyTokenWrongKey(t *testing.T) {
	service, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)
	other, err := NewPasetoService([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	token, err := service.CreateToken(uuid.New(), uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = other.VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenGarbage(t *testing.T) {
	service, err := NewPasetoService(testPasetoKey)
	require.NoError(t, err)

	_, err = service.VerifyToken("v4.local.garbage")
	assert.Error(t, err)
}
