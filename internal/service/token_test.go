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

func TestTokenStore_Issue_VerificationTokenCarriesCode(t *testing.T) {
	repo := new(mockTokenRepository)
	store := NewTokenStore(repo, &sequenceGenerator{}, 6)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Token"), 10*time.Minute).
		Run(func(args mock.Arguments) {
			tok := args.Get(1).(*domain.Token)
			tok.CreatedAt = now
			tok.ExpiresAt = now.Add(args.Get(2).(time.Duration))
		}).
		Return(nil)

	token, err := store.Issue(context.Background(), "user-1", domain.TokenEmailVerification, 10*time.Minute)

	require.NoError(t, err)
	assert.Equal(t, "100001", token.Value)
	assert.Len(t, token.Value, 6)
	assert.Equal(t, domain.TokenEmailVerification, token.Type)
	assert.Equal(t, "user-1", token.UserID)
	assert.False(t, token.IsUsed)
	assert.Equal(t, now.Add(10*time.Minute), token.ExpiresAt)
	repo.AssertExpectations(t)
}

func TestTokenStore_Issue_ResetTokenIsOpaque(t *testing.T) {
	repo := new(mockTokenRepository)
	store := NewTokenStore(repo, &sequenceGenerator{}, 6)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Token"), mock.Anything).Return(nil)

	token, err := store.Issue(context.Background(), "user-1", domain.TokenForgotPassword, time.Hour)

	require.NoError(t, err)
	assert.Equal(t, "opaque-1", token.Value)
}

func TestTokenStore_Issue_RetriesOnCollision(t *testing.T) {
	repo := new(mockTokenRepository)
	store := NewTokenStore(repo, &sequenceGenerator{}, 6)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Token"), mock.Anything).Return(apperrors.ErrDuplicateToken).Twice()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Token"), mock.Anything).Return(nil).Once()

	token, err := store.Issue(context.Background(), "user-1", domain.TokenOTPVerification, time.Minute)

	require.NoError(t, err)
	assert.Equal(t, "100003", token.Value)
	repo.AssertNumberOfCalls(t, "Create", 3)
}

func TestTokenStore_Issue_GivesUpAfterMaxAttempts(t *testing.T) {
	repo := new(mockTokenRepository)
	store := NewTokenStore(repo, &sequenceGenerator{}, 6)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Token"), mock.Anything).Return(apperrors.ErrDuplicateToken)

	token, err := store.Issue(context.Background(), "user-1", domain.TokenBearer, time.Minute)

	require.Error(t, err)
	assert.Nil(t, token)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateToken)
	repo.AssertNumberOfCalls(t, "Create", maxIssueAttempts)
}

func TestTokenStore_Issue_OtherErrorsAreNotRetried(t *testing.T) {
	repo := new(mockTokenRepository)
	store := NewTokenStore(repo, &sequenceGenerator{}, 6)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Token"), mock.Anything).Return(errors.New("connection refused"))

	_, err := store.Issue(context.Background(), "user-1", domain.TokenBearer, time.Minute)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create token")
	repo.AssertNumberOfCalls(t, "Create", 1)
}

func TestTokenStore_Issue_UnknownType(t *testing.T) {
	store := NewTokenStore(new(mockTokenRepository), &sequenceGenerator{}, 6)

	_, err := store.Issue(context.Background(), "user-1", domain.TokenType("magic"), time.Minute)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestTokenStore_FindValid_NotFoundIsInvalidToken(t *testing.T) {
	repo := new(mockTokenRepository)
	store := NewTokenStore(repo, &sequenceGenerator{}, 6)

	repo.On("FindValid", mock.Anything, "123456", domain.TokenEmailVerification).Return(nil, apperrors.ErrNotFound)

	_, err := store.FindValid(context.Background(), "123456", domain.TokenEmailVerification)

	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	assert.Equal(t, 400, apperrors.HTTPStatus(err))
}

func TestTokenStore_Consume_SecondConsumeFails(t *testing.T) {
	repo := new(mockTokenRepository)
	store := NewTokenStore(repo, &sequenceGenerator{}, 6)

	spent := &domain.Token{Value: "123456", Type: domain.TokenEmailVerification, UserID: "user-1", IsUsed: true}
	repo.On("Consume", mock.Anything, "123456", domain.TokenEmailVerification).Return(spent, nil).Once()
	repo.On("Consume", mock.Anything, "123456", domain.TokenEmailVerification).Return(nil, apperrors.ErrInvalidToken).Once()

	got, err := store.Consume(context.Background(), "123456", domain.TokenEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)

	_, err = store.Consume(context.Background(), "123456", domain.TokenEmailVerification)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenStore_Consume_StorageErrorIsWrapped(t *testing.T) {
	repo := new(mockTokenRepository)
	store := NewTokenStore(repo, &sequenceGenerator{}, 6)

	repo.On("Consume", mock.Anything, "tok", domain.TokenForgotPassword).Return(nil, errors.New("timeout"))

	_, err := store.Consume(context.Background(), "tok", domain.TokenForgotPassword)

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrInvalidToken)
	assert.Contains(t, err.Error(), "consume token")
}

func TestTokenStore_DeleteExpired(t *testing.T) {
	repo := new(mockTokenRepository)
	store := NewTokenStore(repo, &sequenceGenerator{}, 6)
	cutoff := time.Now().Add(-24 * time.Hour)

	repo.On("DeleteExpired", mock.Anything, cutoff).Return(int64(7), nil)

	n, err := store.DeleteExpired(context.Background(), cutoff)

	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestNewTokenStore_DefaultsOTPLength(t *testing.T) {
	store := NewTokenStore(new(mockTokenRepository), &sequenceGenerator{}, 0)
	assert.Equal(t, 6, store.otpLength)
}
