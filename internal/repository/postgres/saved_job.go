package postgres

import (
	"context"
	"fmt"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/pkg/database"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
)

// SavedJobRepository implements repository.SavedJobRepository using PostgreSQL.
type SavedJobRepository struct {
	db database.DBTX
}

func NewSavedJobRepository(db database.DBTX) *SavedJobRepository {
	return &SavedJobRepository{db: db}
}

// Save bookmarks a job. Saving twice yields AlreadyExists.
func (r *SavedJobRepository) Save(ctx context.Context, s *domain.SavedJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO saved_jobs (student_id, job_id, notes, saved_at) VALUES ($1, $2, $3, $4)`,
		s.StudentID, s.JobID, s.Notes, s.SavedAt)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return apperrors.AlreadyExists("saved job", "job_id", s.JobID)
		case database.IsForeignKeyViolation(err):
			return apperrors.NotFound("job", s.JobID)
		}
		return fmt.Errorf("insert saved job: %w", err)
	}
	return nil
}

func (r *SavedJobRepository) Delete(ctx context.Context, studentID, jobID string) error {
	return exec(ctx, r.db, "DeleteSavedJob", "saved job", jobID,
		`DELETE FROM saved_jobs WHERE student_id = $1 AND job_id = $2`, studentID, jobID)
}

// List returns the student's bookmarks with their jobs, most recent first.
func (r *SavedJobRepository) List(ctx context.Context, studentID string, params pagination.Params) ([]domain.SavedJob, int, error) {
	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM saved_jobs WHERE student_id = $1`, studentID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT s.student_id, s.job_id, s.notes, s.saved_at, `+jobColumns+`
		FROM saved_jobs s
		JOIN jobs j ON j.id = s.job_id
		WHERE s.student_id = $1
		ORDER BY s.saved_at DESC
		LIMIT $2 OFFSET $3`,
		studentID, params.PerPage, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list saved jobs: %w", err)
	}
	defer rows.Close()

	var saved []domain.SavedJob
	for rows.Next() {
		s := domain.SavedJob{Job: &domain.Job{}}
		dest := append([]any{&s.StudentID, &s.JobID, &s.Notes, &s.SavedAt}, jobFields(s.Job)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("scan saved job: %w", err)
		}
		saved = append(saved, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate saved jobs: %w", err)
	}
	return saved, total, nil
}
