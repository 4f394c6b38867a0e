package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/pkg/database"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
)

const constraintResumeOnePrimary = "resumes_one_primary_idx"

const resumeColumns = `id, user_id, title, file_url, description, is_primary, created_by, updated_by, created_at, updated_at`

// ResumeRepository implements repository.ResumeRepository using PostgreSQL.
type ResumeRepository struct {
	db database.DBTX
}

func NewResumeRepository(db database.DBTX) *ResumeRepository {
	return &ResumeRepository{db: db}
}

func (r *ResumeRepository) Create(ctx context.Context, res *domain.Resume) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO resumes (`+resumeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		res.ID, res.UserID, res.Title, res.FileURL, res.Description, res.IsPrimary,
		res.CreatedBy, res.UpdatedBy, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, constraintResumeOnePrimary) {
			return apperrors.AlreadyExists("resume", "is_primary", "true")
		}
		return fmt.Errorf("insert resume: %w", err)
	}
	return nil
}

func (r *ResumeRepository) GetByID(ctx context.Context, id string) (*domain.Resume, error) {
	res, err := scanResume(r.db.QueryRow(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "scan resume")
	}
	return res, nil
}

// ListByUser returns the primary resume first, then newest first.
func (r *ResumeRepository) ListByUser(ctx context.Context, userID string) ([]domain.Resume, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE user_id = $1 ORDER BY is_primary DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	defer rows.Close()

	var resumes []domain.Resume
	for rows.Next() {
		res, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resume: %w", err)
		}
		resumes = append(resumes, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resumes: %w", err)
	}
	return resumes, nil
}

func (r *ResumeRepository) Update(ctx context.Context, actor domain.Actor, res *domain.Resume) error {
	return exec(ctx, r.db, "UpdateResume", "resume", res.ID, `
		UPDATE resumes SET title = $1, file_url = $2, description = $3, updated_by = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6`,
		res.Title, res.FileURL, res.Description, actor.StampID(), res.ID, res.UserID)
}

func (r *ResumeRepository) Delete(ctx context.Context, userID, id string) error {
	return exec(ctx, r.db, "DeleteResume", "resume", id,
		`DELETE FROM resumes WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *ResumeRepository) SetPrimary(ctx context.Context, actor domain.Actor, userID, id string) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE resumes SET is_primary = FALSE, updated_by = $1, updated_at = NOW()
			WHERE user_id = $2 AND is_primary AND id <> $3`,
			actor.StampID(), userID, id)
		if err != nil {
			return fmt.Errorf("clear primary resume: %w", err)
		}

		return exec(ctx, tx, "SetPrimaryResume", "resume", id, `
			UPDATE resumes SET is_primary = TRUE, updated_by = $1, updated_at = NOW()
			WHERE id = $2 AND user_id = $3`,
			actor.StampID(), id, userID)
	})
}

func scanResume(row pgx.Row) (*domain.Resume, error) {
	var res domain.Resume
	err := row.Scan(
		&res.ID, &res.UserID, &res.Title, &res.FileURL, &res.Description, &res.IsPrimary,
		&res.CreatedBy, &res.UpdatedBy, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
