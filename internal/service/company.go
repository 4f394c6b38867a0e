package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/internal/repository"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
	"github.com/venkatesh-palenso/palenso-api/pkg/slug"
)

// maxSlugAttempts bounds the -2, -3, ... suffixes tried for a taken slug.
const maxSlugAttempts = 20

// CompanyService manages employer company profiles.
type CompanyService struct {
	companies repository.CompanyRepository
	logger    *slog.Logger
}

func NewCompanyService(companies repository.CompanyRepository, logger *slog.Logger) *CompanyService {
	return &CompanyService{companies: companies, logger: logger}
}

// CompanyInput holds the fields of a company profile. On update, nil fields
// are left unchanged; on create they are empty.
type CompanyInput struct {
	Name           *string
	Description    *string
	Industry       *string
	CompanySize    *string
	FoundedYear    *int
	Website        *string
	Email          *string
	Phone          *string
	Country        *string
	State          *string
	City           *string
	Address        *string
	LogoURL        *string
	BannerImageURL *string
}

func setString(dst *string, src *string, clean func(string) string) {
	if src == nil {
		return
	}
	*dst = clean(*src)
}

func (in CompanyInput) apply(c *domain.Company) {
	setString(&c.Name, in.Name, strings.TrimSpace)
	setString(&c.Description, in.Description, sanitizeRich)
	setString(&c.Industry, in.Industry, sanitizePlain)
	setString(&c.CompanySize, in.CompanySize, strings.TrimSpace)
	setString(&c.Website, in.Website, strings.TrimSpace)
	setString(&c.Email, in.Email, normalizeEmail)
	setString(&c.Phone, in.Phone, strings.TrimSpace)
	setString(&c.Country, in.Country, sanitizePlain)
	setString(&c.State, in.State, sanitizePlain)
	setString(&c.City, in.City, sanitizePlain)
	setString(&c.Address, in.Address, sanitizePlain)
	setString(&c.LogoURL, in.LogoURL, strings.TrimSpace)
	setString(&c.BannerImageURL, in.BannerImageURL, strings.TrimSpace)
	if in.FoundedYear != nil {
		c.FoundedYear = in.FoundedYear
	}
}

func validateCompany(c *domain.Company, now time.Time) error {
	if c.Name == "" {
		return apperrors.InvalidInput("name is required")
	}
	if c.CompanySize != "" && !slices.Contains(domain.CompanySizes, c.CompanySize) {
		return apperrors.InvalidInput("company_size must be one of: " + strings.Join(domain.CompanySizes, " "))
	}
	if c.FoundedYear != nil && (*c.FoundedYear < 1800 || *c.FoundedYear > now.Year()) {
		return apperrors.InvalidInput(fmt.Sprintf("founded_year must be between 1800 and %d", now.Year()))
	}
	return nil
}

// CreateCompany creates the employer's company. An employer owns at most one.
func (s *CompanyService) CreateCompany(ctx context.Context, actor domain.Actor, input CompanyInput) (*domain.Company, error) {
	if !actor.HasRole(domain.RoleEmployer) {
		return nil, apperrors.Forbidden("only employers can create a company")
	}

	now := time.Now().UTC()
	company := &domain.Company{
		ID:         uuid.New().String(),
		EmployerID: actor.UserID,
		IsActive:   true,
		CreatedBy:  actor.StampID(),
		UpdatedBy:  actor.StampID(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	input.apply(company)
	if err := validateCompany(company, now); err != nil {
		return nil, err
	}

	companySlug, err := s.uniqueSlug(ctx, company.Name)
	if err != nil {
		return nil, err
	}
	company.Slug = companySlug

	if err := s.companies.Create(ctx, company); err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}

	s.logger.InfoContext(ctx, "company created",
		slog.String("company_id", company.ID),
		slog.String("employer_id", company.EmployerID),
	)
	return company, nil
}

// uniqueSlug returns the slug of name, suffixed with -2, -3, ... while taken.
func (s *CompanyService) uniqueSlug(ctx context.Context, name string) (string, error) {
	if slug.Generate(name) == "" {
		return "", apperrors.InvalidInput("name must contain at least one letter or digit")
	}
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := slug.WithSuffix(name, n)
		taken, err := s.companies.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return slug.Generate(name) + "-" + uuid.NewString()[:8], nil
}

func (s *CompanyService) GetCompany(ctx context.Context, id string) (*domain.Company, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return company, nil
}

// GetMyCompany returns the company owned by the calling employer.
func (s *CompanyService) GetMyCompany(ctx context.Context, actor domain.Actor) (*domain.Company, error) {
	company, err := s.companies.GetByEmployerID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("get company of employer: %w", err)
	}
	return company, nil
}

// UpdateCompany edits a company. Only its employer or an admin may.
func (s *CompanyService) UpdateCompany(ctx context.Context, actor domain.Actor, id string, input CompanyInput) (*domain.Company, error) {
	company, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get company for update: %w", err)
	}
	if company.EmployerID != actor.UserID && !actor.HasRole(domain.RoleAdmin) {
		return nil, apperrors.Forbidden("you do not own this company")
	}

	input.apply(company)
	if err := validateCompany(company, time.Now().UTC()); err != nil {
		return nil, err
	}

	if err := s.companies.Update(ctx, actor, company); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}

	s.logger.InfoContext(ctx, "company updated", slog.String("company_id", company.ID))
	return company, nil
}

func (s *CompanyService) ListCompanies(ctx context.Context, params pagination.Params) ([]domain.Company, int, error) {
	companies, total, err := s.companies.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}
	return companies, total, nil
}
