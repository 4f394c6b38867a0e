package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/pkg/database"
)

// RefreshTokenRepository implements repository.RefreshTokenRepository using PostgreSQL.
type RefreshTokenRepository struct {
	db database.DBTX
}

// NewRefreshTokenRepository creates a new PostgreSQL-backed refresh token repository.
func NewRefreshTokenRepository(db database.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// Create stores a new refresh token hash.
func (r *RefreshTokenRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) (err error) {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	ctx, end := database.TraceQuery(ctx, "CreateRefreshToken", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, uuid.New().String(), userID, tokenHash, expiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// GetByHash retrieves a refresh token record by its hash.
func (r *RefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1`

	var rt domain.RefreshToken
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.CreatedAt, &rt.RevokedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "scan refresh token")
	}
	return &rt, nil
}

// Revoke revokes one active token. Two concurrent rotations of the same token
// cannot both see true.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) (revoked bool, err error) {
	query := `UPDATE refresh_tokens SET revoked_at = NOW() WHERE token_hash = $1 AND revoked_at IS NULL`

	ctx, end := database.TraceQuery(ctx, "RevokeRefreshToken", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, tokenHash)
	if err != nil {
		return false, fmt.Errorf("revoke refresh token: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// RevokeByUserID revokes all active refresh tokens of the user.
func (r *RefreshTokenRepository) RevokeByUserID(ctx context.Context, userID string) (err error) {
	query := `UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = $1 AND revoked_at IS NULL`

	ctx, end := database.TraceQuery(ctx, "RevokeUserRefreshTokens", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}
