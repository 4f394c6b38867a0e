package http

import (
	"log/slog"
	"net/http"

	"github.com/venkatesh-palenso/palenso-api/internal/service"
	"github.com/venkatesh-palenso/palenso-api/pkg/httputil"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
)

// CompanyHandler handles HTTP requests for employer company profiles.
type CompanyHandler struct {
	service *service.CompanyService
	logger  *slog.Logger
}

// NewCompanyHandler creates a new company HTTP handler.
func NewCompanyHandler(svc *service.CompanyService, logger *slog.Logger) *CompanyHandler {
	return &CompanyHandler{service: svc, logger: logger}
}

// CompanyRequest is the JSON request body for creating or updating a company.
// Omitted fields are left unchanged on update.
type CompanyRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description    *string `json:"description" validate:"omitempty,max=10000"`
	Industry       *string `json:"industry" validate:"omitempty,max=100"`
	CompanySize    *string `json:"company_size" validate:"omitempty,oneof=1-10 11-50 51-200 201-500 501-1000 1000+"`
	FoundedYear    *int    `json:"founded_year" validate:"omitempty,gte=1800"`
	Website        *string `json:"website" validate:"omitempty,url"`
	Email          *string `json:"email" validate:"omitempty,email"`
	Phone          *string `json:"phone" validate:"omitempty,max=20"`
	Country        *string `json:"country" validate:"omitempty,max=100"`
	State          *string `json:"state" validate:"omitempty,max=100"`
	City           *string `json:"city" validate:"omitempty,max=100"`
	Address        *string `json:"address" validate:"omitempty,max=500"`
	LogoURL        *string `json:"logo_url" validate:"omitempty,url"`
	BannerImageURL *string `json:"banner_image_url" validate:"omitempty,url"`
}

func (req CompanyRequest) input() service.CompanyInput {
	return service.CompanyInput{
		Name:           req.Name,
		Description:    req.Description,
		Industry:       req.Industry,
		CompanySize:    req.CompanySize,
		FoundedYear:    req.FoundedYear,
		Website:        req.Website,
		Email:          req.Email,
		Phone:          req.Phone,
		Country:        req.Country,
		State:          req.State,
		City:           req.City,
		Address:        req.Address,
		LogoURL:        req.LogoURL,
		BannerImageURL: req.BannerImageURL,
	}
}

// List handles GET /api/v1/companies
func (h *CompanyHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	companies, total, err := h.service.ListCompanies(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writePage(w, companies, total, params)
}

// Get handles GET /api/v1/companies/{id}
func (h *CompanyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	company, err := h.service.GetCompany(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, company)
}

// GetMine handles GET /api/v1/companies/me
func (h *CompanyHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	company, err := h.service.GetMyCompany(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, company)
}

// Create handles POST /api/v1/companies
func (h *CompanyHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req CompanyRequest
	if !decode(w, r, &req) {
		return
	}

	company, err := h.service.CreateCompany(r.Context(), actor, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, company)
}

// Update handles PUT /api/v1/companies/{id}
func (h *CompanyHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req CompanyRequest
	if !decode(w, r, &req) {
		return
	}

	company, err := h.service.UpdateCompany(r.Context(), actor, id, req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, company)
}
