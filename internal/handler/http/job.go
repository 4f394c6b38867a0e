package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/internal/service"
	"github.com/venkatesh-palenso/palenso-api/pkg/httputil"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
)

// JobHandler handles HTTP requests for job postings, applications and saved
// jobs.
type JobHandler struct {
	service *service.JobService
	logger  *slog.Logger
}

// NewJobHandler creates a new job HTTP handler.
func NewJobHandler(svc *service.JobService, logger *slog.Logger) *JobHandler {
	return &JobHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// JobRequest is the JSON request body for creating or updating a job.
// Omitted fields are left unchanged on update.
type JobRequest struct {
	Title               *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description         *string    `json:"description" validate:"omitempty,max=20000"`
	Requirements        *string    `json:"requirements" validate:"omitempty,max=10000"`
	Responsibilities    *string    `json:"responsibilities" validate:"omitempty,max=10000"`
	JobType             *string    `json:"job_type" validate:"omitempty,oneof=full_time part_time contract internship freelance"`
	ExperienceLevel     *string    `json:"experience_level" validate:"omitempty,oneof=entry mid senior executive"`
	Location            *string    `json:"location" validate:"omitempty,max=200"`
	IsRemote            *bool      `json:"is_remote"`
	SalaryMin           *float64   `json:"salary_min" validate:"omitempty,gte=0"`
	SalaryMax           *float64   `json:"salary_max" validate:"omitempty,gte=0"`
	SalaryCurrency      *string    `json:"salary_currency" validate:"omitempty,len=3"`
	RequiredSkills      *string    `json:"required_skills" validate:"omitempty,max=2000"`
	Category            *string    `json:"category" validate:"omitempty,max=100"`
	ApplicationDeadline *time.Time `json:"application_deadline"`
	MaxApplications     *int       `json:"max_applications" validate:"omitempty,gte=1"`
}

func (req JobRequest) input() service.JobInput {
	return service.JobInput{
		Title:               req.Title,
		Description:         req.Description,
		Requirements:        req.Requirements,
		Responsibilities:    req.Responsibilities,
		JobType:             req.JobType,
		ExperienceLevel:     req.ExperienceLevel,
		Location:            req.Location,
		IsRemote:            req.IsRemote,
		SalaryMin:           req.SalaryMin,
		SalaryMax:           req.SalaryMax,
		SalaryCurrency:      req.SalaryCurrency,
		RequiredSkills:      req.RequiredSkills,
		Category:            req.Category,
		ApplicationDeadline: req.ApplicationDeadline,
		MaxApplications:     req.MaxApplications,
	}
}

// ApplyRequest is the JSON request body for applying to a job.
type ApplyRequest struct {
	ResumeID       *string    `json:"resume_id" validate:"omitempty,uuid"`
	CoverLetter    string     `json:"cover_letter" validate:"max=10000"`
	ExpectedSalary *float64   `json:"expected_salary" validate:"omitempty,gte=0"`
	AvailableFrom  *time.Time `json:"available_from"`
	Notes          string     `json:"notes" validate:"max=2000"`
}

// ApplicationStatusRequest moves an application through the hiring pipeline.
type ApplicationStatusRequest struct {
	Status        string `json:"status" validate:"required"`
	EmployerNotes string `json:"employer_notes" validate:"max=2000"`
}

// SaveJobRequest is the optional JSON body when bookmarking a job.
type SaveJobRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// --- Jobs ---

// List handles GET /api/v1/jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.JobFilter{
		CompanyID:       q.Get("company_id"),
		JobType:         q.Get("job_type"),
		ExperienceLevel: q.Get("experience_level"),
		Search:          q.Get("search"),
	}
	if v := q.Get("is_remote"); v != "" {
		remote, err := strconv.ParseBool(v)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "is_remote must be a boolean"},
			})
			return
		}
		filter.IsRemote = &remote
	}

	params := pagination.FromRequest(r)
	jobs, total, err := h.service.ListJobs(r.Context(), filter, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writePage(w, jobs, total, params)
}

// Get handles GET /api/v1/jobs/{id}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	job, err := h.service.GetJob(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, job)
}

// Create handles POST /api/v1/jobs
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req JobRequest
	if !decode(w, r, &req) {
		return
	}

	job, err := h.service.CreateJob(r.Context(), actor, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, job)
}

// Update handles PUT /api/v1/jobs/{id}
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req JobRequest
	if !decode(w, r, &req) {
		return
	}

	job, err := h.service.UpdateJob(r.Context(), actor, id, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, job)
}

// Deactivate handles DELETE /api/v1/jobs/{id}
func (h *JobHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeactivateJob(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Applications ---

// Apply handles POST /api/v1/jobs/{id}/apply
func (h *JobHandler) Apply(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	jobID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req ApplyRequest
	if !decode(w, r, &req) {
		return
	}

	app, err := h.service.ApplyToJob(r.Context(), actor, jobID, service.ApplyInput{
		ResumeID:       req.ResumeID,
		CoverLetter:    req.CoverLetter,
		ExpectedSalary: req.ExpectedSalary,
		AvailableFrom:  req.AvailableFrom,
		Notes:          req.Notes,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, app)
}

// ListForJob handles GET /api/v1/jobs/{id}/applications
func (h *JobHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	jobID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	apps, total, err := h.service.ListJobApplications(r.Context(), actor, jobID, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writePage(w, apps, total, params)
}

// ListMine handles GET /api/v1/users/me/applications
func (h *JobHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	apps, total, err := h.service.ListMyApplications(r.Context(), actor, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writePage(w, apps, total, params)
}

// Withdraw handles POST /api/v1/applications/{id}/withdraw
func (h *JobHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.WithdrawApplication(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "application withdrawn")
}

// UpdateStatus handles PUT /api/v1/applications/{id}/status
func (h *JobHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req ApplicationStatusRequest
	if !decode(w, r, &req) {
		return
	}

	app, err := h.service.UpdateApplicationStatus(r.Context(), actor, id, req.Status, req.EmployerNotes)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, app)
}

// --- Saved jobs ---

// Save handles POST /api/v1/jobs/{id}/save
func (h *JobHandler) Save(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	jobID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req SaveJobRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	saved, err := h.service.SaveJob(r.Context(), actor, jobID, req.Notes)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, saved)
}

// Unsave handles DELETE /api/v1/jobs/{id}/save
func (h *JobHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	jobID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.UnsaveJob(r.Context(), actor, jobID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSaved handles GET /api/v1/users/me/saved-jobs
func (h *JobHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	params := pagination.FromRequest(r)
	saved, total, err := h.service.ListSavedJobs(r.Context(), actor, params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writePage(w, saved, total, params)
}
