package http

import (
	"log/slog"
	"net/http"

	"github.com/venkatesh-palenso/palenso-api/internal/service"
	"github.com/venkatesh-palenso/palenso-api/pkg/httputil"
)

// UserHandler handles HTTP requests for the caller's own account and resumes.
type UserHandler struct {
	accounts *service.AccountService
	resumes  *service.ResumeService
	logger   *slog.Logger
}

// NewUserHandler creates a new user HTTP handler.
func NewUserHandler(accounts *service.AccountService, resumes *service.ResumeService, logger *slog.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, resumes: resumes, logger: logger}
}

// --- Request DTOs ---

// UpdateProfileRequest is the JSON request body for updating the caller.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
}

// CreateResumeRequest is the JSON request body for adding a resume.
type CreateResumeRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	FileURL     string `json:"file_url" validate:"required,url"`
	Description string `json:"description" validate:"max=2000"`
	IsPrimary   bool   `json:"is_primary"`
}

// UpdateResumeRequest is the JSON request body for editing a resume.
type UpdateResumeRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	FileURL     *string `json:"file_url" validate:"omitempty,url"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// --- Handlers ---

// GetProfile handles GET /api/v1/users/me
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	user, err := h.accounts.GetMe(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/v1/users/me
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.accounts.UpdateMe(r.Context(), actor, service.UpdateMeInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}

// ListResumes handles GET /api/v1/users/me/resumes
func (h *UserHandler) ListResumes(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	resumes, err := h.resumes.ListResumes(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, resumes)
}

// CreateResume handles POST /api/v1/users/me/resumes
func (h *UserHandler) CreateResume(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req CreateResumeRequest
	if !decode(w, r, &req) {
		return
	}

	resume, err := h.resumes.CreateResume(r.Context(), actor, service.ResumeInput{
		Title:       req.Title,
		FileURL:     req.FileURL,
		Description: req.Description,
		IsPrimary:   req.IsPrimary,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, resume)
}

// UpdateResume handles PUT /api/v1/users/me/resumes/{id}
func (h *UserHandler) UpdateResume(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateResumeRequest
	if !decode(w, r, &req) {
		return
	}

	resume, err := h.resumes.UpdateResume(r.Context(), actor, id, service.UpdateResumeInput{
		Title:       req.Title,
		FileURL:     req.FileURL,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, resume)
}

// DeleteResume handles DELETE /api/v1/users/me/resumes/{id}
func (h *UserHandler) DeleteResume(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.resumes.DeleteResume(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPrimaryResume handles POST /api/v1/users/me/resumes/{id}/primary
func (h *UserHandler) SetPrimaryResume(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.resumes.SetPrimaryResume(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "primary resume updated")
}
