package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/venkatesh-palenso/palenso-api/internal/auth"
	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/internal/repository"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
)

// SessionService mints access/refresh pairs and rotates or revokes refresh
// tokens. Refresh tokens are stored as SHA-256 digests.
type SessionService struct {
	jwt       *auth.JWTManager
	refreshes repository.RefreshTokenRepository
	users     repository.UserRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewSessionService(
	jwt *auth.JWTManager,
	refreshes repository.RefreshTokenRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		jwt:       jwt,
		refreshes: refreshes,
		users:     users,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a new token pair for user and stores the refresh digest.
func (s *SessionService) Issue(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, expiresAt, err := s.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if err := s.refreshes.Create(ctx, user.ID, hashToken(refreshToken), expiresAt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.jwt.AccessExpiry().Seconds()),
	}, nil
}

// Refresh validates refreshToken, revokes it and issues a new pair. A token
// can be rotated once; a second rotation of the same token is rejected.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh_token is required")
	}

	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	digest := hashToken(refreshToken)
	stored, err := s.refreshes.GetByHash(ctx, digest)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}
	if stored.RevokedAt != nil || !s.now().Before(stored.ExpiresAt) {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	revoked, err := s.refreshes.Revoke(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	if !revoked {
		// Lost a race against another rotation or a sign-out.
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user for token refresh: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("account is not active")
	}

	pair, err := s.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tokens refreshed", slog.String("user_id", user.ID))
	return pair, nil
}

// Revoke revokes one refresh token. Unknown and already revoked tokens are
// not an error.
func (s *SessionService) Revoke(ctx context.Context, refreshToken string) error {
	if _, err := s.refreshes.Revoke(ctx, hashToken(refreshToken)); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAll ends every session of userID.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) error {
	if err := s.refreshes.RevokeByUserID(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}
