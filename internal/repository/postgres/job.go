package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/pkg/database"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
)

const jobColumns = `j.id, j.company_id, j.title, j.description, j.requirements, j.responsibilities,
	j.job_type, j.experience_level, j.location, j.is_remote, j.salary_min, j.salary_max,
	j.salary_currency, j.required_skills, j.category, j.application_deadline, j.max_applications,
	j.is_active, (SELECT COUNT(*) FROM job_applications a WHERE a.job_id = j.id),
	j.created_by, j.updated_by, j.created_at, j.updated_at`

// JobRepository implements repository.JobRepository using PostgreSQL.
type JobRepository struct {
	db database.DBTX
}

func NewJobRepository(db database.DBTX) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, j *domain.Job) (err error) {
	query := `
		INSERT INTO jobs (id, company_id, title, description, requirements, responsibilities,
		                  job_type, experience_level, location, is_remote, salary_min, salary_max,
		                  salary_currency, required_skills, category, application_deadline,
		                  max_applications, is_active, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`

	ctx, end := database.TraceQuery(ctx, "CreateJob", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		j.ID, j.CompanyID, j.Title, j.Description, j.Requirements, j.Responsibilities,
		j.JobType, j.ExperienceLevel, j.Location, j.IsRemote, j.SalaryMin, j.SalaryMax,
		j.SalaryCurrency, j.RequiredSkills, j.Category, j.ApplicationDeadline,
		j.MaxApplications, j.IsActive, j.CreatedBy, j.UpdatedBy, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetByID returns the job with its current application count.
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	j, err := scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs j WHERE j.id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "scan job")
	}
	return j, nil
}

func (r *JobRepository) Update(ctx context.Context, actor domain.Actor, j *domain.Job) error {
	query := `
		UPDATE jobs
		SET title = $1, description = $2, requirements = $3, responsibilities = $4, job_type = $5,
		    experience_level = $6, location = $7, is_remote = $8, salary_min = $9, salary_max = $10,
		    salary_currency = $11, required_skills = $12, category = $13, application_deadline = $14,
		    max_applications = $15, is_active = $16, updated_by = $17, updated_at = NOW()
		WHERE id = $18`

	return exec(ctx, r.db, "UpdateJob", "job", j.ID, query,
		j.Title, j.Description, j.Requirements, j.Responsibilities, j.JobType,
		j.ExperienceLevel, j.Location, j.IsRemote, j.SalaryMin, j.SalaryMax,
		j.SalaryCurrency, j.RequiredSkills, j.Category, j.ApplicationDeadline,
		j.MaxApplications, j.IsActive, actor.StampID(), j.ID,
	)
}

func (r *JobRepository) List(ctx context.Context, filter domain.JobFilter, params pagination.Params) (_ []domain.Job, _ int, err error) {
	var (
		conditions = []string{"j.is_active"}
		args       []any
		argIndex   = 1
	)

	if filter.CompanyID != "" {
		conditions = append(conditions, fmt.Sprintf("j.company_id = $%d", argIndex))
		args = append(args, filter.CompanyID)
		argIndex++
	}

	if filter.JobType != "" {
		conditions = append(conditions, fmt.Sprintf("j.job_type = $%d", argIndex))
		args = append(args, filter.JobType)
		argIndex++
	}

	if filter.ExperienceLevel != "" {
		conditions = append(conditions, fmt.Sprintf("j.experience_level = $%d", argIndex))
		args = append(args, filter.ExperienceLevel)
		argIndex++
	}

	if filter.IsRemote != nil {
		conditions = append(conditions, fmt.Sprintf("j.is_remote = $%d", argIndex))
		args = append(args, *filter.IsRemote)
		argIndex++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(j.title ILIKE $%d OR j.description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM jobs j
		WHERE %s
		ORDER BY j.created_at DESC
		LIMIT $%d OFFSET $%d`,
		jobColumns, strings.Join(conditions, " AND "), argIndex, argIndex+1,
	)
	args = append(args, params.PerPage, params.Offset)

	ctx, end := database.TraceQuery(ctx, "ListJobs", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var (
		jobs       []domain.Job
		totalCount int
	)
	for rows.Next() {
		var j domain.Job
		if err := rows.Scan(append(jobFields(&j), &totalCount)...); err != nil {
			return nil, 0, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, totalCount, nil
}

func jobFields(j *domain.Job) []any {
	return []any{
		&j.ID, &j.CompanyID, &j.Title, &j.Description, &j.Requirements, &j.Responsibilities,
		&j.JobType, &j.ExperienceLevel, &j.Location, &j.IsRemote, &j.SalaryMin, &j.SalaryMax,
		&j.SalaryCurrency, &j.RequiredSkills, &j.Category, &j.ApplicationDeadline, &j.MaxApplications,
		&j.IsActive, &j.ApplicationCount,
		&j.CreatedBy, &j.UpdatedBy, &j.CreatedAt, &j.UpdatedAt,
	}
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var j domain.Job
	if err := row.Scan(jobFields(&j)...); err != nil {
		return nil, err
	}
	return &j, nil
}
