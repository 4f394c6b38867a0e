package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/pkg/database"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
)

const constraintApplicationJobApplicant = "job_applications_job_applicant_key"

const applicationColumns = `id, job_id, applicant_id, resume_id, cover_letter, status, expected_salary,
	available_from, notes, employer_notes, created_by, updated_by, created_at, updated_at`

// ApplicationRepository implements repository.ApplicationRepository using PostgreSQL.
type ApplicationRepository struct {
	db database.DBTX
}

func NewApplicationRepository(db database.DBTX) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create locks the job row, counts its applications against maxApplications
// and inserts a in one transaction.
func (r *ApplicationRepository) Create(ctx context.Context, a *domain.Application, maxApplications *int) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateApplication", "INSERT INTO job_applications")
	defer func() { end(err) }()

	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		var jobID string
		if err := tx.QueryRow(ctx, `SELECT id FROM jobs WHERE id = $1 FOR UPDATE`, a.JobID).Scan(&jobID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("job", a.JobID)
			}
			return fmt.Errorf("lock job: %w", err)
		}

		if maxApplications != nil {
			n, err := count(ctx, tx, `SELECT COUNT(*) FROM job_applications WHERE job_id = $1`, a.JobID)
			if err != nil {
				return err
			}
			if n >= *maxApplications {
				return apperrors.PreconditionFailed("job has reached its maximum number of applications")
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO job_applications (`+applicationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			a.ID, a.JobID, a.ApplicantID, a.ResumeID, a.CoverLetter, a.Status, a.ExpectedSalary,
			a.AvailableFrom, a.Notes, a.EmployerNotes, a.CreatedBy, a.UpdatedBy, a.CreatedAt, a.UpdatedAt,
		)
		if err != nil {
			if database.IsUniqueViolation(err, constraintApplicationJobApplicant) {
				return apperrors.AlreadyExists("application", "job_id", a.JobID)
			}
			return fmt.Errorf("insert application: %w", err)
		}
		return nil
	})
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	a, err := scanApplication(r.db.QueryRow(ctx, `SELECT `+applicationColumns+` FROM job_applications WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "scan application")
	}
	return a, nil
}

func (r *ApplicationRepository) ListByApplicant(ctx context.Context, applicantID string, params pagination.Params) ([]domain.Application, int, error) {
	return r.list(ctx, "applicant_id", applicantID, params)
}

func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID string, params pagination.Params) ([]domain.Application, int, error) {
	return r.list(ctx, "job_id", jobID, params)
}

// list is shared by the two listings; column is one of two fixed names.
func (r *ApplicationRepository) list(ctx context.Context, column, value string, params pagination.Params) ([]domain.Application, int, error) {
	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM job_applications WHERE `+column+` = $1`, value)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+applicationColumns+` FROM job_applications WHERE `+column+` = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		value, params.PerPage, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate applications: %w", err)
	}
	return apps, total, nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, actor domain.Actor, id, status, employerNotes string) error {
	query := `
		UPDATE job_applications
		SET status = $1, employer_notes = $2, updated_by = $3, updated_at = NOW()
		WHERE id = $4`

	return exec(ctx, r.db, "UpdateApplicationStatus", "application", id, query, status, employerNotes, actor.StampID(), id)
}

func scanApplication(row pgx.Row) (*domain.Application, error) {
	var a domain.Application
	err := row.Scan(
		&a.ID, &a.JobID, &a.ApplicantID, &a.ResumeID, &a.CoverLetter, &a.Status, &a.ExpectedSalary,
		&a.AvailableFrom, &a.Notes, &a.EmployerNotes, &a.CreatedBy, &a.UpdatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
