package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/internal/service"
	"github.com/venkatesh-palenso/palenso-api/pkg/httputil"
)

// ProfileHandler handles HTTP requests for the caller's profile.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// civilDate reads either a bare date ("2006-01-02") or an RFC 3339 timestamp.
type civilDate struct {
	time.Time
}

func (d *civilDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
}

func (d *civilDate) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// --- Request DTOs ---

// UpdateUserProfileRequest is the JSON request body for saving the profile.
type UpdateUserProfileRequest struct {
	Bio               *string    `json:"bio" validate:"omitempty,max=500"`
	DateOfBirth       *civilDate `json:"date_of_birth"`
	Gender            *string    `json:"gender" validate:"omitempty,oneof=male female other prefer_not_to_say"`
	ProfilePictureURL *string    `json:"profile_picture_url" validate:"omitempty,url"`
	Website           *string    `json:"website" validate:"omitempty,url"`
	LinkedIn          *string    `json:"linkedin" validate:"omitempty,url"`
	GitHub            *string    `json:"github" validate:"omitempty,url"`
	Twitter           *string    `json:"twitter" validate:"omitempty,url"`
	Country           *string    `json:"country" validate:"omitempty,max=100"`
	State             *string    `json:"state" validate:"omitempty,max=100"`
	City              *string    `json:"city" validate:"omitempty,max=100"`
}

type EducationRequest struct {
	Institution  string     `json:"institution" validate:"required,max=200"`
	Degree       string     `json:"degree" validate:"required,max=200"`
	FieldOfStudy string     `json:"field_of_study" validate:"required,max=200"`
	StartDate    civilDate  `json:"start_date" validate:"required"`
	EndDate      *civilDate `json:"end_date"`
	IsCurrent    bool       `json:"is_current"`
	Grade        string     `json:"grade" validate:"max=50"`
	Description  string     `json:"description" validate:"max=5000"`
}

type WorkExperienceRequest struct {
	Company     string     `json:"company" validate:"required,max=200"`
	Position    string     `json:"position" validate:"required,max=200"`
	Location    string     `json:"location" validate:"max=200"`
	StartDate   civilDate  `json:"start_date" validate:"required"`
	EndDate     *civilDate `json:"end_date"`
	IsCurrent   bool       `json:"is_current"`
	Description string     `json:"description" validate:"max=5000"`
}

type SkillRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Proficiency string `json:"proficiency_level" validate:"omitempty,oneof=beginner intermediate advanced expert"`
}

type InterestRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
}

type ProjectRequest struct {
	Title        string     `json:"title" validate:"required,max=200"`
	Description  string     `json:"description" validate:"required,max=10000"`
	Technologies string     `json:"technologies_used" validate:"max=1000"`
	ProjectURL   string     `json:"project_url" validate:"omitempty,url"`
	GitHubURL    string     `json:"github_url" validate:"omitempty,url"`
	ImageURL     string     `json:"image_url" validate:"omitempty,url"`
	StartDate    civilDate  `json:"start_date" validate:"required"`
	EndDate      *civilDate `json:"end_date"`
	IsCurrent    bool       `json:"is_current"`
}

// --- Handlers ---

// Get handles GET /api/v1/users/me/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, profile)
}

// Update handles PUT /api/v1/users/me/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req UpdateUserProfileRequest
	if !decode(w, r, &req) {
		return
	}

	profile, err := h.profiles.UpdateProfile(r.Context(), actor, service.UpdateProfileInput{
		Bio:               req.Bio,
		DateOfBirth:       req.DateOfBirth.ptr(),
		Gender:            req.Gender,
		ProfilePictureURL: req.ProfilePictureURL,
		Website:           req.Website,
		LinkedIn:          req.LinkedIn,
		GitHub:            req.GitHub,
		Twitter:           req.Twitter,
		Country:           req.Country,
		State:             req.State,
		City:              req.City,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, profile)
}

// sectionHandler serves the list, create, read, replace and delete routes of
// one profile section. R is the request body and I the service input it
// converts to.
type sectionHandler[T, R, I any] struct {
	svc     *service.SectionService[T, I]
	input   func(R) I
	deleted string
	logger  *slog.Logger
}

// mountSection registers the routes of a section under path.
func mountSection[T, R, I any](r chi.Router, path string, h *sectionHandler[T, R, I]) {
	r.Route(path, func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *sectionHandler[T, R, I]) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	entries, err := h.svc.List(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, entries)
}

func (h *sectionHandler[T, R, I]) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req R
	if !decode(w, r, &req) {
		return
	}

	entry, err := h.svc.Add(r.Context(), actor, h.input(req))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, entry)
}

func (h *sectionHandler[T, R, I]) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	entry, err := h.svc.Get(r.Context(), actor, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, entry)
}

func (h *sectionHandler[T, R, I]) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req R
	if !decode(w, r, &req) {
		return
	}

	entry, err := h.svc.Update(r.Context(), actor, id, h.input(req))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, entry)
}

func (h *sectionHandler[T, R, I]) delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), actor, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, h.deleted)
}

// mountProfile registers the profile and all of its sections on r.
func mountProfile(r chi.Router, profiles *service.ProfileService, logger *slog.Logger) {
	h := NewProfileHandler(profiles, logger)
	r.Get("/profile", h.Get)
	r.Put("/profile", h.Update)

	mountSection(r, "/profile/education", &sectionHandler[domain.Education, EducationRequest, service.EducationInput]{
		svc: profiles.Education, deleted: "education record deleted", logger: logger,
		input: func(req EducationRequest) service.EducationInput {
			return service.EducationInput{
				Institution:  req.Institution,
				Degree:       req.Degree,
				FieldOfStudy: req.FieldOfStudy,
				StartDate:    req.StartDate.Time,
				EndDate:      req.EndDate.ptr(),
				IsCurrent:    req.IsCurrent,
				Grade:        req.Grade,
				Description:  req.Description,
			}
		},
	})
	mountSection(r, "/profile/work-experience", &sectionHandler[domain.WorkExperience, WorkExperienceRequest, service.WorkExperienceInput]{
		svc: profiles.WorkExperience, deleted: "work experience deleted", logger: logger,
		input: func(req WorkExperienceRequest) service.WorkExperienceInput {
			return service.WorkExperienceInput{
				Company:     req.Company,
				Position:    req.Position,
				Location:    req.Location,
				StartDate:   req.StartDate.Time,
				EndDate:     req.EndDate.ptr(),
				IsCurrent:   req.IsCurrent,
				Description: req.Description,
			}
		},
	})
	mountSection(r, "/profile/skills", &sectionHandler[domain.Skill, SkillRequest, service.SkillInput]{
		svc: profiles.Skills, deleted: "skill deleted", logger: logger,
		input: func(req SkillRequest) service.SkillInput {
			return service.SkillInput{Name: req.Name, Proficiency: req.Proficiency}
		},
	})
	mountSection(r, "/profile/interests", &sectionHandler[domain.Interest, InterestRequest, service.InterestInput]{
		svc: profiles.Interests, deleted: "interest deleted", logger: logger,
		input: func(req InterestRequest) service.InterestInput {
			return service.InterestInput{Name: req.Name, Description: req.Description}
		},
	})
	mountSection(r, "/profile/projects", &sectionHandler[domain.Project, ProjectRequest, service.ProjectInput]{
		svc: profiles.Projects, deleted: "project deleted", logger: logger,
		input: func(req ProjectRequest) service.ProjectInput {
			return service.ProjectInput{
				Title:        req.Title,
				Description:  req.Description,
				Technologies: req.Technologies,
				ProjectURL:   req.ProjectURL,
				GitHubURL:    req.GitHubURL,
				ImageURL:     req.ImageURL,
				StartDate:    req.StartDate.Time,
				EndDate:      req.EndDate.ptr(),
				IsCurrent:    req.IsCurrent,
			}
		},
	})
}
