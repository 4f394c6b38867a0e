package domain

import (
	"slices"
	"time"
)

// Job types.
const (
	JobTypeFullTime   = "full_time"
	JobTypePartTime   = "part_time"
	JobTypeContract   = "contract"
	JobTypeInternship = "internship"
	JobTypeFreelance  = "freelance"
)

// Experience levels.
const (
	ExperienceEntry     = "entry"
	ExperienceMid       = "mid"
	ExperienceSenior    = "senior"
	ExperienceExecutive = "executive"
)

func IsValidJobType(t string) bool {
	return slices.Contains([]string{JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship, JobTypeFreelance}, t)
}

func IsValidExperienceLevel(l string) bool {
	return slices.Contains([]string{ExperienceEntry, ExperienceMid, ExperienceSenior, ExperienceExecutive}, l)
}

// Job is a posting owned by a company.
type Job struct {
	ID                  string     `json:"id"`
	CompanyID           string     `json:"company_id"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Requirements        string     `json:"requirements"`
	Responsibilities    string     `json:"responsibilities"`
	JobType             string     `json:"job_type"`
	ExperienceLevel     string     `json:"experience_level"`
	Location            string     `json:"location"`
	IsRemote            bool       `json:"is_remote"`
	SalaryMin           *float64   `json:"salary_min,omitempty"`
	SalaryMax           *float64   `json:"salary_max,omitempty"`
	SalaryCurrency      string     `json:"salary_currency"`
	RequiredSkills      string     `json:"required_skills,omitempty"`
	Category            string     `json:"category,omitempty"`
	ApplicationDeadline *time.Time `json:"application_deadline,omitempty"`
	MaxApplications     *int       `json:"max_applications,omitempty"`
	IsActive            bool       `json:"is_active"`
	ApplicationCount    int        `json:"application_count"`
	CreatedBy           *string    `json:"-"`
	UpdatedBy           *string    `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// IsExpired reports whether the application deadline lies before now's date.
// The deadline day itself is still open.
func (j *Job) IsExpired(now time.Time) bool {
	if j.ApplicationDeadline == nil {
		return false
	}
	y, m, d := j.ApplicationDeadline.Date()
	endOfDeadline := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return !now.UTC().Before(endOfDeadline)
}

// JobFilter narrows ListJobs. Empty fields do not filter.
type JobFilter struct {
	CompanyID       string
	JobType         string
	ExperienceLevel string
	IsRemote        *bool
	Search          string
}
