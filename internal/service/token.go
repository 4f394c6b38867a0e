package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/internal/otp"
	"github.com/venkatesh-palenso/palenso-api/internal/repository"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
)

// maxIssueAttempts bounds how often Issue retries after a value collision.
const maxIssueAttempts = 5

var (
	tokensIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Single-use tokens issued, by type",
		},
		[]string{"type"},
	)
	tokensConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_tokens_consumed_total",
			Help: "Single-use token consume attempts, by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

// TokenGenerator produces token values.
type TokenGenerator interface {
	OTP(length int) (string, error)
	Opaque() (string, error)
}

// TokenStore issues, validates and consumes single-use tokens. Verification
// tokens carry a numeric code, reset and bearer tokens an opaque value.
type TokenStore struct {
	repo      repository.TokenRepository
	gen       TokenGenerator
	otpLength int
}

func NewTokenStore(repo repository.TokenRepository, gen TokenGenerator, otpLength int) *TokenStore {
	if otpLength <= 0 {
		otpLength = otp.DefaultLength
	}
	return &TokenStore{
		repo:      repo,
		gen:       gen,
		otpLength: otpLength,
	}
}

// Issue creates a token of tokenType for userID valid for ttl. The expiry is
// stamped by the repository so it is measured on the clock that later checks
// it. A value that collides with an existing token is regenerated; after maxIssueAttempts
// collisions apperrors.ErrDuplicateToken is returned.
func (s *TokenStore) Issue(ctx context.Context, userID string, tokenType domain.TokenType, ttl time.Duration) (*domain.Token, error) {
	if !tokenType.IsValid() {
		return nil, fmt.Errorf("issue token: unknown type %q", tokenType)
	}

	for range maxIssueAttempts {
		value, err := s.value(tokenType)
		if err != nil {
			return nil, err
		}

		token := &domain.Token{
			ID:     uuid.New().String(),
			Value:  value,
			Type:   tokenType,
			UserID: userID,
		}

		err = s.repo.Create(ctx, token, ttl)
		if err == nil {
			tokensIssued.WithLabelValues(string(tokenType)).Inc()
			return token, nil
		}
		if !errors.Is(err, apperrors.ErrDuplicateToken) {
			return nil, fmt.Errorf("create token: %w", err)
		}
	}
	return nil, fmt.Errorf("issue %s token after %d attempts: %w", tokenType, maxIssueAttempts, apperrors.ErrDuplicateToken)
}

func (s *TokenStore) value(tokenType domain.TokenType) (string, error) {
	if tokenType.UsesOTP() {
		return s.gen.OTP(s.otpLength)
	}
	return s.gen.Opaque()
}

// FindValid returns the usable token with value and type. Missing, expired
// and used tokens all yield InvalidOrExpiredToken.
func (s *TokenStore) FindValid(ctx context.Context, value string, tokenType domain.TokenType) (*domain.Token, error) {
	token, err := s.repo.FindValid(ctx, value, tokenType)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.InvalidOrExpiredToken()
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return token, nil
}

// Consume spends the token. Of concurrent callers at most one succeeds.
func (s *TokenStore) Consume(ctx context.Context, value string, tokenType domain.TokenType) (*domain.Token, error) {
	token, err := s.repo.Consume(ctx, value, tokenType)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidToken) || errors.Is(err, apperrors.ErrNotFound) {
			tokensConsumed.WithLabelValues(string(tokenType), "rejected").Inc()
			return nil, apperrors.InvalidOrExpiredToken()
		}
		return nil, fmt.Errorf("consume token: %w", err)
	}
	tokensConsumed.WithLabelValues(string(tokenType), "consumed").Inc()
	return token, nil
}

// InvalidateOutstanding spends every usable token of userID and tokenType.
func (s *TokenStore) InvalidateOutstanding(ctx context.Context, userID string, tokenType domain.TokenType) (int64, error) {
	n, err := s.repo.InvalidateOutstanding(ctx, userID, tokenType)
	if err != nil {
		return 0, fmt.Errorf("invalidate outstanding tokens: %w", err)
	}
	return n, nil
}

// DeleteExpired removes tokens that expired or were spent before cutoff.
func (s *TokenStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return n, nil
}
