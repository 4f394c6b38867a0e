package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/pkg/database"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
)

const (
	constraintCompanyEmployer = "companies_employer_id_key"
	constraintCompanySlug     = "companies_slug_key"
)

const companyColumns = `id, employer_id, name, slug, description, industry, company_size, founded_year,
	website, email, phone, country, state, city, address, logo_url, banner_image_url,
	is_verified, is_active, created_by, updated_by, created_at, updated_at`

// CompanyRepository implements repository.CompanyRepository using PostgreSQL.
type CompanyRepository struct {
	db database.DBTX
}

func NewCompanyRepository(db database.DBTX) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Create(ctx context.Context, c *domain.Company) (err error) {
	query := `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`

	ctx, end := database.TraceQuery(ctx, "CreateCompany", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		c.ID, c.EmployerID, c.Name, c.Slug, c.Description, c.Industry, c.CompanySize, c.FoundedYear,
		c.Website, c.Email, c.Phone, c.Country, c.State, c.City, c.Address, c.LogoURL, c.BannerImageURL,
		c.IsVerified, c.IsActive, c.CreatedBy, c.UpdatedBy, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err, constraintCompanyEmployer):
			return apperrors.AlreadyExists("company", "employer_id", c.EmployerID)
		case database.IsUniqueViolation(err, constraintCompanySlug):
			return apperrors.AlreadyExists("company", "slug", c.Slug)
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	c, err := scanCompany(r.db.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "scan company")
	}
	return c, nil
}

func (r *CompanyRepository) GetByEmployerID(ctx context.Context, employerID string) (*domain.Company, error) {
	c, err := scanCompany(r.db.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE employer_id = $1`, employerID))
	if err != nil {
		return nil, notFoundOr(err, "scan company")
	}
	return c, nil
}

func (r *CompanyRepository) Update(ctx context.Context, actor domain.Actor, c *domain.Company) error {
	query := `
		UPDATE companies
		SET name = $1, description = $2, industry = $3, company_size = $4, founded_year = $5,
		    website = $6, email = $7, phone = $8, country = $9, state = $10, city = $11,
		    address = $12, logo_url = $13, banner_image_url = $14, updated_by = $15, updated_at = NOW()
		WHERE id = $16`

	return exec(ctx, r.db, "UpdateCompany", "company", c.ID, query,
		c.Name, c.Description, c.Industry, c.CompanySize, c.FoundedYear,
		c.Website, c.Email, c.Phone, c.Country, c.State, c.City,
		c.Address, c.LogoURL, c.BannerImageURL, actor.StampID(), c.ID,
	)
}

// List returns active companies ordered by name.
func (r *CompanyRepository) List(ctx context.Context, params pagination.Params) ([]domain.Company, int, error) {
	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM companies WHERE is_active`)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE is_active ORDER BY name LIMIT $1 OFFSET $2`,
		params.PerPage, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []domain.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, total, nil
}

func (r *CompanyRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM companies WHERE slug = $1)`, slug).Scan(&ok); err != nil {
		return false, fmt.Errorf("check company slug: %w", err)
	}
	return ok, nil
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var c domain.Company
	err := row.Scan(
		&c.ID, &c.EmployerID, &c.Name, &c.Slug, &c.Description, &c.Industry, &c.CompanySize, &c.FoundedYear,
		&c.Website, &c.Email, &c.Phone, &c.Country, &c.State, &c.City, &c.Address, &c.LogoURL, &c.BannerImageURL,
		&c.IsVerified, &c.IsActive, &c.CreatedBy, &c.UpdatedBy, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
