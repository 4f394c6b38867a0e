package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
)

func newTestSessions() (*SessionService, *mockRefreshTokenRepository, *mockUserRepository) {
	refreshes := new(mockRefreshTokenRepository)
	users := new(mockUserRepository)
	return NewSessionService(newTestJWTManager(), refreshes, users, newTestLogger()), refreshes, users
}

func TestSessionIssue_StoresRefreshDigest(t *testing.T) {
	sessions, refreshes, _ := newTestSessions()
	user := &domain.User{ID: "user-1", Role: domain.RoleEmployer}

	var storedHash string
	refreshes.On("Create", mock.Anything, "user-1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) { storedHash = args.String(2) }).
		Return(nil)

	pair, err := sessions.Issue(context.Background(), user)

	require.NoError(t, err)
	assert.Equal(t, hashToken(pair.RefreshToken), storedHash)
	assert.NotEqual(t, pair.RefreshToken, storedHash)
	assert.Equal(t, 900, pair.ExpiresIn)

	claims, err := newTestJWTManager().ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.RoleEmployer, claims.Role)
}

func TestSessionRefresh_RotatesToken(t *testing.T) {
	sessions, refreshes, users := newTestSessions()
	user := &domain.User{ID: "user-1", Role: domain.RoleStudent, IsActive: true}

	oldToken, expiresAt, err := newTestJWTManager().GenerateRefreshToken("user-1")
	require.NoError(t, err)
	oldHash := hashToken(oldToken)

	refreshes.On("GetByHash", mock.Anything, oldHash).Return(&domain.RefreshToken{
		UserID: "user-1", TokenHash: oldHash, ExpiresAt: expiresAt,
	}, nil)
	refreshes.On("Revoke", mock.Anything, oldHash).Return(true, nil)
	users.On("GetByID", mock.Anything, "user-1").Return(user, nil)
	refreshes.On("Create", mock.Anything, "user-1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)

	pair, err := sessions.Refresh(context.Background(), oldToken)

	require.NoError(t, err)
	assert.NotEqual(t, oldToken, pair.RefreshToken)
	refreshes.AssertExpectations(t)
}

func TestSessionRefresh_RevokedToken(t *testing.T) {
	sessions, refreshes, _ := newTestSessions()

	token, expiresAt, err := newTestJWTManager().GenerateRefreshToken("user-1")
	require.NoError(t, err)
	revokedAt := time.Now()

	refreshes.On("GetByHash", mock.Anything, hashToken(token)).Return(&domain.RefreshToken{
		UserID: "user-1", ExpiresAt: expiresAt, RevokedAt: &revokedAt,
	}, nil)

	_, err = sessions.Refresh(context.Background(), token)

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	refreshes.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
}

func TestSessionRefresh_LostRotationRace(t *testing.T) {
	sessions, refreshes, users := newTestSessions()

	token, expiresAt, err := newTestJWTManager().GenerateRefreshToken("user-1")
	require.NoError(t, err)

	refreshes.On("GetByHash", mock.Anything, hashToken(token)).Return(&domain.RefreshToken{UserID: "user-1", ExpiresAt: expiresAt}, nil)
	refreshes.On("Revoke", mock.Anything, hashToken(token)).Return(false, nil)

	_, err = sessions.Refresh(context.Background(), token)

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestSessionRefresh_UnknownToken(t *testing.T) {
	sessions, refreshes, _ := newTestSessions()

	token, _, err := newTestJWTManager().GenerateRefreshToken("user-1")
	require.NoError(t, err)

	refreshes.On("GetByHash", mock.Anything, hashToken(token)).Return(nil, apperrors.ErrNotFound)

	_, err = sessions.Refresh(context.Background(), token)

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestSessionRefresh_AccessTokenIsRejected(t *testing.T) {
	sessions, refreshes, _ := newTestSessions()

	access, err := newTestJWTManager().GenerateAccessToken("user-1", domain.RoleStudent)
	require.NoError(t, err)

	_, err = sessions.Refresh(context.Background(), access)

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	refreshes.AssertNotCalled(t, "GetByHash", mock.Anything, mock.Anything)
}

func TestSessionRefresh_Empty(t *testing.T) {
	sessions, _, _ := newTestSessions()

	_, err := sessions.Refresh(context.Background(), "")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSessionRefresh_InactiveUser(t *testing.T) {
	sessions, refreshes, users := newTestSessions()

	token, expiresAt, err := newTestJWTManager().GenerateRefreshToken("user-1")
	require.NoError(t, err)

	refreshes.On("GetByHash", mock.Anything, hashToken(token)).Return(&domain.RefreshToken{UserID: "user-1", ExpiresAt: expiresAt}, nil)
	refreshes.On("Revoke", mock.Anything, hashToken(token)).Return(true, nil)
	users.On("GetByID", mock.Anything, "user-1").Return(&domain.User{ID: "user-1"}, nil)

	_, err = sessions.Refresh(context.Background(), token)

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	refreshes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionRevoke_UnknownTokenIsNotAnError(t *testing.T) {
	sessions, refreshes, _ := newTestSessions()

	refreshes.On("Revoke", mock.Anything, hashToken("whatever")).Return(false, nil)

	assert.NoError(t, sessions.Revoke(context.Background(), "whatever"))
}

func TestSessionRevokeAll_Error(t *testing.T) {
	sessions, refreshes, _ := newTestSessions()

	refreshes.On("RevokeByUserID", mock.Anything, "user-1").Return(errors.New("db down"))

	err := sessions.RevokeAll(context.Background(), "user-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "revoke refresh tokens")
}

func TestHashToken(t *testing.T) {
	h := hashToken("refresh")
	assert.Len(t, h, 64)
	assert.Equal(t, h, hashToken("refresh"))
	assert.NotEqual(t, h, hashToken("refresh2"))
}
