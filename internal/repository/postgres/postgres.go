// Package postgres implements the repository interfaces on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/venkatesh-palenso/palenso-api/pkg/database"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
)

// nullIfEmpty maps "" to SQL NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// notFoundOr maps pgx.ErrNoRows to ErrNotFound and wraps anything else.
func notFoundOr(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("%s: %w", what, err)
}

// exec runs a traced statement and fails with NotFound when no row matched.
func exec(ctx context.Context, db database.DBTX, op, resource, id, query string, args ...any) (err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	ct, err := db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound(resource, id)
	}
	return nil
}

// count runs a COUNT(*) query.
func count(ctx context.Context, db database.DBTX, query string, args ...any) (int, error) {
	var n int
	if err := db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

// inTx runs fn inside a transaction that is committed only when fn succeeds.
func inTx(ctx context.Context, db database.DBTX, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
