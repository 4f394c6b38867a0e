package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/pkg/database"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
)

const constraintTokenValue = "auth_tokens_value_key"

const tokenColumns = `id, value, type, user_id, is_used, expires_at, used_at, created_at`

// TokenRepository implements repository.TokenRepository using PostgreSQL.
// Validity is always judged against the database clock.
type TokenRepository struct {
	db database.DBTX
}

func NewTokenRepository(db database.DBTX) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create stamps created_at and expires_at from the database clock, the same
// clock FindValid and Consume compare against, and writes both back to t.
func (r *TokenRepository) Create(ctx context.Context, t *domain.Token, ttl time.Duration) (err error) {
	query := `
		INSERT INTO auth_tokens (id, value, type, user_id, is_used, expires_at, created_at)
		VALUES ($1, $2, $3, $4, FALSE, NOW() + $5 * INTERVAL '1 millisecond', NOW())
		RETURNING expires_at, created_at`

	ctx, end := database.TraceQuery(ctx, "CreateToken", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query, t.ID, t.Value, string(t.Type), t.UserID, ttl.Milliseconds()).
		Scan(&t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, constraintTokenValue) {
			return apperrors.ErrDuplicateToken
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindValid(ctx context.Context, value string, tokenType domain.TokenType) (*domain.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM auth_tokens
		WHERE value = $1 AND type = $2 AND is_used = FALSE AND expires_at > NOW()`

	ctx, end := database.TraceQuery(ctx, "FindValidToken", query)
	t, err := scanToken(r.db.QueryRow(ctx, query, value, string(tokenType)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			end(nil)
			return nil, apperrors.ErrNotFound
		}
		end(err)
		return nil, fmt.Errorf("find token: %w", err)
	}
	end(nil)
	return t, nil
}

// Consume flips is_used with a single conditional UPDATE. The WHERE clause
// repeats the validity check, so a concurrent consumer that lost the race
// matches zero rows.
func (r *TokenRepository) Consume(ctx context.Context, value string, tokenType domain.TokenType) (*domain.Token, error) {
	query := `
		UPDATE auth_tokens
		SET is_used = TRUE, used_at = NOW()
		WHERE value = $1 AND type = $2 AND is_used = FALSE AND expires_at > NOW()
		RETURNING ` + tokenColumns

	ctx, end := database.TraceQuery(ctx, "ConsumeToken", query)
	t, err := scanToken(r.db.QueryRow(ctx, query, value, string(tokenType)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			end(nil)
			return nil, apperrors.InvalidOrExpiredToken()
		}
		end(err)
		return nil, fmt.Errorf("consume token: %w", err)
	}
	end(nil)
	return t, nil
}

func (r *TokenRepository) InvalidateOutstanding(ctx context.Context, userID string, tokenType domain.TokenType) (n int64, err error) {
	query := `
		UPDATE auth_tokens
		SET is_used = TRUE, used_at = NOW()
		WHERE user_id = $1 AND type = $2 AND is_used = FALSE AND expires_at > NOW()`

	ctx, end := database.TraceQuery(ctx, "InvalidateOutstandingTokens", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, userID, string(tokenType))
	if err != nil {
		return 0, fmt.Errorf("invalidate tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (n int64, err error) {
	query := `DELETE FROM auth_tokens WHERE expires_at < $1 OR (is_used = TRUE AND used_at < $1)`

	ctx, end := database.TraceQuery(ctx, "DeleteExpiredTokens", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}

func scanToken(row pgx.Row) (*domain.Token, error) {
	var t domain.Token
	var tokenType string
	if err := row.Scan(&t.ID, &t.Value, &tokenType, &t.UserID, &t.IsUsed, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Type = domain.TokenType(tokenType)
	return &t, nil
}
