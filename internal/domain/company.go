package domain

import "time"

// Company sizes accepted on a company profile.
var CompanySizes = []string{"1-10", "11-50", "51-200", "201-500", "501-1000", "1000+"}

// Company is an employer's public profile. Each employer owns at most one.
type Company struct {
	ID             string    `json:"id"`
	EmployerID     string    `json:"employer_id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	Industry       string    `json:"industry"`
	CompanySize    string    `json:"company_size"`
	FoundedYear    *int      `json:"founded_year,omitempty"`
	Website        string    `json:"website,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	Country        string    `json:"country"`
	State          string    `json:"state"`
	City           string    `json:"city"`
	Address        string    `json:"address,omitempty"`
	LogoURL        string    `json:"logo_url,omitempty"`
	BannerImageURL string    `json:"banner_image_url,omitempty"`
	IsVerified     bool      `json:"is_verified"`
	IsActive       bool      `json:"is_active"`
	CreatedBy      *string   `json:"-"`
	UpdatedBy      *string   `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
