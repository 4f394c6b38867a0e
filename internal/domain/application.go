package domain

import (
	"slices"
	"time"
)

// Application statuses. Offers are modelled as a status, not an entity.
const (
	ApplicationPending     = "pending"
	ApplicationReviewed    = "reviewed"
	ApplicationShortlisted = "shortlisted"
	ApplicationInterviewed = "interviewed"
	ApplicationOffered     = "offered"
	ApplicationHired       = "hired"
	ApplicationRejected    = "rejected"
	ApplicationWithdrawn   = "withdrawn"
)

func IsValidApplicationStatus(s string) bool {
	return slices.Contains([]string{
		ApplicationPending, ApplicationReviewed, ApplicationShortlisted, ApplicationInterviewed,
		ApplicationOffered, ApplicationHired, ApplicationRejected, ApplicationWithdrawn,
	}, s)
}

// Application is a student's application to a job.
type Application struct {
	ID             string     `json:"id"`
	JobID          string     `json:"job_id"`
	ApplicantID    string     `json:"applicant_id"`
	ResumeID       *string    `json:"resume_id,omitempty"`
	CoverLetter    string     `json:"cover_letter"`
	Status         string     `json:"status"`
	ExpectedSalary *float64   `json:"expected_salary,omitempty"`
	AvailableFrom  *time.Time `json:"available_from,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	EmployerNotes  string     `json:"employer_notes,omitempty"`
	CreatedBy      *string    `json:"-"`
	UpdatedBy      *string    `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// SavedJob is a student's bookmark.
type SavedJob struct {
	StudentID string    `json:"student_id"`
	JobID     string    `json:"job_id"`
	Notes     string    `json:"notes,omitempty"`
	SavedAt   time.Time `json:"saved_at"`
	Job       *Job      `json:"job,omitempty"`
}
