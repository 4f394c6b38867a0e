package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/internal/repository"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
)

const defaultSalaryCurrency = "USD"

// JobService manages postings, applications and saved jobs.
type JobService struct {
	companies    repository.CompanyRepository
	jobs         repository.JobRepository
	applications repository.ApplicationRepository
	saved        repository.SavedJobRepository
	resumes      repository.ResumeRepository
	logger       *slog.Logger
	now          func() time.Time
}

func NewJobService(
	companies repository.CompanyRepository,
	jobs repository.JobRepository,
	applications repository.ApplicationRepository,
	saved repository.SavedJobRepository,
	resumes repository.ResumeRepository,
	logger *slog.Logger,
) *JobService {
	return &JobService{
		companies:    companies,
		jobs:         jobs,
		applications: applications,
		saved:        saved,
		resumes:      resumes,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// JobInput holds the fields of a posting. Nil fields are left unchanged.
type JobInput struct {
	Title               *string
	Description         *string
	Requirements        *string
	Responsibilities    *string
	JobType             *string
	ExperienceLevel     *string
	Location            *string
	IsRemote            *bool
	SalaryMin           *float64
	SalaryMax           *float64
	SalaryCurrency      *string
	RequiredSkills      *string
	Category            *string
	ApplicationDeadline *time.Time
	MaxApplications     *int
}

func (in JobInput) apply(j *domain.Job) {
	setString(&j.Title, in.Title, sanitizePlain)
	setString(&j.Description, in.Description, sanitizeRich)
	setString(&j.Requirements, in.Requirements, sanitizeRich)
	setString(&j.Responsibilities, in.Responsibilities, sanitizeRich)
	setString(&j.JobType, in.JobType, strings.TrimSpace)
	setString(&j.ExperienceLevel, in.ExperienceLevel, strings.TrimSpace)
	setString(&j.Location, in.Location, sanitizePlain)
	setString(&j.SalaryCurrency, in.SalaryCurrency, strings.ToUpper)
	setString(&j.RequiredSkills, in.RequiredSkills, sanitizePlain)
	setString(&j.Category, in.Category, sanitizePlain)
	if in.IsRemote != nil {
		j.IsRemote = *in.IsRemote
	}
	if in.SalaryMin != nil {
		j.SalaryMin = in.SalaryMin
	}
	if in.SalaryMax != nil {
		j.SalaryMax = in.SalaryMax
	}
	if in.ApplicationDeadline != nil {
		j.ApplicationDeadline = in.ApplicationDeadline
	}
	if in.MaxApplications != nil {
		j.MaxApplications = in.MaxApplications
	}
}

func validateJob(j *domain.Job) error {
	switch {
	case j.Title == "":
		return apperrors.InvalidInput("title is required")
	case j.Description == "":
		return apperrors.InvalidInput("description is required")
	case !domain.IsValidJobType(j.JobType):
		return apperrors.InvalidInput("job_type must be one of: full_time part_time contract internship freelance")
	case !domain.IsValidExperienceLevel(j.ExperienceLevel):
		return apperrors.InvalidInput("experience_level must be one of: entry mid senior executive")
	case j.SalaryMin != nil && *j.SalaryMin < 0, j.SalaryMax != nil && *j.SalaryMax < 0:
		return apperrors.InvalidInput("salary must not be negative")
	case j.SalaryMin != nil && j.SalaryMax != nil && *j.SalaryMin > *j.SalaryMax:
		return apperrors.InvalidInput("salary_min must not exceed salary_max")
	case j.MaxApplications != nil && *j.MaxApplications <= 0:
		return apperrors.InvalidInput("max_applications must be positive")
	}
	return nil
}

// employerCompany returns the active company of the calling employer.
func (s *JobService) employerCompany(ctx context.Context, actor domain.Actor) (*domain.Company, error) {
	if !actor.HasRole(domain.RoleEmployer) {
		return nil, apperrors.Forbidden("only employers can post jobs")
	}
	company, err := s.companies.GetByEmployerID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.PreconditionFailed("create a company before posting jobs")
		}
		return nil, fmt.Errorf("get company of employer: %w", err)
	}
	if !company.IsActive {
		return nil, apperrors.Forbidden("company is not active")
	}
	return company, nil
}

// ownedJob loads a job the actor may manage: its company's employer or an admin.
func (s *JobService) ownedJob(ctx context.Context, actor domain.Actor, jobID string) (*domain.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if actor.HasRole(domain.RoleAdmin) {
		return job, nil
	}
	company, err := s.companies.GetByID(ctx, job.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("get company of job: %w", err)
	}
	if company.EmployerID != actor.UserID {
		return nil, apperrors.Forbidden("you do not own this job")
	}
	return job, nil
}

// --- Jobs ---

// CreateJob posts a job for the calling employer's company.
func (s *JobService) CreateJob(ctx context.Context, actor domain.Actor, input JobInput) (*domain.Job, error) {
	company, err := s.employerCompany(ctx, actor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	job := &domain.Job{
		ID:             uuid.New().String(),
		CompanyID:      company.ID,
		SalaryCurrency: defaultSalaryCurrency,
		IsActive:       true,
		CreatedBy:      actor.StampID(),
		UpdatedBy:      actor.StampID(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	input.apply(job)
	if err := validateJob(job); err != nil {
		return nil, err
	}
	if job.IsExpired(now) {
		return nil, apperrors.InvalidInput("application_deadline must not be in the past")
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.logger.InfoContext(ctx, "job created",
		slog.String("job_id", job.ID),
		slog.String("company_id", job.CompanyID),
	)
	return job, nil
}

func (s *JobService) GetJob(ctx context.Context, id string) (*domain.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ListJobs returns active jobs matching filter.
func (s *JobService) ListJobs(ctx context.Context, filter domain.JobFilter, params pagination.Params) ([]domain.Job, int, error) {
	if filter.JobType != "" && !domain.IsValidJobType(filter.JobType) {
		return nil, 0, apperrors.InvalidInput("invalid job_type filter")
	}
	if filter.ExperienceLevel != "" && !domain.IsValidExperienceLevel(filter.ExperienceLevel) {
		return nil, 0, apperrors.InvalidInput("invalid experience_level filter")
	}
	filter.Search = strings.TrimSpace(filter.Search)

	jobs, total, err := s.jobs.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, total, nil
}

func (s *JobService) UpdateJob(ctx context.Context, actor domain.Actor, id string, input JobInput) (*domain.Job, error) {
	job, err := s.ownedJob(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	input.apply(job)
	if err := validateJob(job); err != nil {
		return nil, err
	}

	if err := s.jobs.Update(ctx, actor, job); err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}

	s.logger.InfoContext(ctx, "job updated", slog.String("job_id", job.ID))
	return job, nil
}

// DeactivateJob closes a posting. It stays readable but stops accepting
// applications and leaves the listings.
func (s *JobService) DeactivateJob(ctx context.Context, actor domain.Actor, id string) error {
	job, err := s.ownedJob(ctx, actor, id)
	if err != nil {
		return err
	}
	if !job.IsActive {
		return nil
	}

	job.IsActive = false
	if err := s.jobs.Update(ctx, actor, job); err != nil {
		return fmt.Errorf("deactivate job: %w", err)
	}

	s.logger.InfoContext(ctx, "job deactivated", slog.String("job_id", job.ID))
	return nil
}

// --- Applications ---

// ApplyInput holds the parameters of an application.
type ApplyInput struct {
	ResumeID       *string
	CoverLetter    string
	ExpectedSalary *float64
	AvailableFrom  *time.Time
	Notes          string
}

// ApplyToJob files the calling student's application. The job must be open
// and under its application cap; a student applies to a job once.
func (s *JobService) ApplyToJob(ctx context.Context, actor domain.Actor, jobID string, input ApplyInput) (*domain.Application, error) {
	if !actor.HasRole(domain.RoleStudent) {
		return nil, apperrors.Forbidden("only students can apply to jobs")
	}
	if input.ExpectedSalary != nil && *input.ExpectedSalary < 0 {
		return nil, apperrors.InvalidInput("expected_salary must not be negative")
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	now := s.now()
	if !job.IsActive {
		return nil, apperrors.PreconditionFailed("job is no longer accepting applications")
	}
	if job.IsExpired(now) {
		return nil, apperrors.PreconditionFailed("the application deadline has passed")
	}

	if input.ResumeID != nil && *input.ResumeID != "" {
		resume, err := s.resumes.GetByID(ctx, *input.ResumeID)
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("get resume: %w", err)
		}
		if resume == nil || resume.UserID != actor.UserID {
			return nil, apperrors.InvalidInput("resume_id does not refer to one of your resumes")
		}
	} else {
		input.ResumeID = nil
	}

	app := &domain.Application{
		ID:             uuid.New().String(),
		JobID:          job.ID,
		ApplicantID:    actor.UserID,
		ResumeID:       input.ResumeID,
		CoverLetter:    sanitizePlain(input.CoverLetter),
		Status:         domain.ApplicationPending,
		ExpectedSalary: input.ExpectedSalary,
		AvailableFrom:  input.AvailableFrom,
		Notes:          sanitizePlain(input.Notes),
		CreatedBy:      actor.StampID(),
		UpdatedBy:      actor.StampID(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.applications.Create(ctx, app, job.MaxApplications); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	s.logger.InfoContext(ctx, "application submitted",
		slog.String("application_id", app.ID),
		slog.String("job_id", job.ID),
	)
	return app, nil
}

// WithdrawApplication lets the applicant pull an application that is still
// under consideration.
func (s *JobService) WithdrawApplication(ctx context.Context, actor domain.Actor, id string) error {
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get application: %w", err)
	}
	if app.ApplicantID != actor.UserID {
		return apperrors.Forbidden("you did not submit this application")
	}
	switch app.Status {
	case domain.ApplicationWithdrawn, domain.ApplicationHired, domain.ApplicationRejected:
		return apperrors.PreconditionFailed(fmt.Sprintf("an application that is %s cannot be withdrawn", app.Status))
	}

	if err := s.applications.UpdateStatus(ctx, actor, id, domain.ApplicationWithdrawn, app.EmployerNotes); err != nil {
		return fmt.Errorf("withdraw application: %w", err)
	}

	s.logger.InfoContext(ctx, "application withdrawn", slog.String("application_id", id))
	return nil
}

func (s *JobService) ListMyApplications(ctx context.Context, actor domain.Actor, params pagination.Params) ([]domain.Application, int, error) {
	apps, total, err := s.applications.ListByApplicant(ctx, actor.UserID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	return apps, total, nil
}

// ListJobApplications lists the applications to a job the actor owns.
func (s *JobService) ListJobApplications(ctx context.Context, actor domain.Actor, jobID string, params pagination.Params) ([]domain.Application, int, error) {
	if _, err := s.ownedJob(ctx, actor, jobID); err != nil {
		return nil, 0, err
	}
	apps, total, err := s.applications.ListByJob(ctx, jobID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list job applications: %w", err)
	}
	return apps, total, nil
}

// UpdateApplicationStatus moves an application through the hiring pipeline.
// Only the owner of the job may, and withdrawal is left to the applicant.
func (s *JobService) UpdateApplicationStatus(ctx context.Context, actor domain.Actor, id, status, employerNotes string) (*domain.Application, error) {
	if !domain.IsValidApplicationStatus(status) {
		return nil, apperrors.InvalidInput("invalid application status")
	}
	if status == domain.ApplicationWithdrawn {
		return nil, apperrors.InvalidInput("only the applicant can withdraw an application")
	}

	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if _, err := s.ownedJob(ctx, actor, app.JobID); err != nil {
		return nil, err
	}
	if app.Status == domain.ApplicationWithdrawn {
		return nil, apperrors.PreconditionFailed("the application was withdrawn")
	}

	notes := sanitizePlain(employerNotes)
	if err := s.applications.UpdateStatus(ctx, actor, id, status, notes); err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}
	app.Status = status
	app.EmployerNotes = notes

	s.logger.InfoContext(ctx, "application status updated",
		slog.String("application_id", id),
		slog.String("status", status),
	)
	return app, nil
}

// --- Saved jobs ---

func (s *JobService) SaveJob(ctx context.Context, actor domain.Actor, jobID, notes string) (*domain.SavedJob, error) {
	if !actor.HasRole(domain.RoleStudent) {
		return nil, apperrors.Forbidden("only students can save jobs")
	}

	saved := &domain.SavedJob{
		StudentID: actor.UserID,
		JobID:     jobID,
		Notes:     sanitizePlain(notes),
		SavedAt:   s.now(),
	}
	if err := s.saved.Save(ctx, saved); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}
	return saved, nil
}

func (s *JobService) UnsaveJob(ctx context.Context, actor domain.Actor, jobID string) error {
	if err := s.saved.Delete(ctx, actor.UserID, jobID); err != nil {
		return fmt.Errorf("unsave job: %w", err)
	}
	return nil
}

func (s *JobService) ListSavedJobs(ctx context.Context, actor domain.Actor, params pagination.Params) ([]domain.SavedJob, int, error) {
	saved, total, err := s.saved.List(ctx, actor.UserID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list saved jobs: %w", err)
	}
	return saved, total, nil
}
