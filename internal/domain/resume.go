package domain

import "time"

// Resume is an uploaded CV. A user has at most one primary resume.
type Resume struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	FileURL     string    `json:"file_url"`
	Description string    `json:"description,omitempty"`
	IsPrimary   bool      `json:"is_primary"`
	CreatedBy   *string   `json:"-"`
	UpdatedBy   *string   `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
