package domain

import (
	"slices"
	"time"
)

// Gender values a profile may carry. Empty means not given.
const (
	GenderMale           = "male"
	GenderFemale         = "female"
	GenderOther          = "other"
	GenderPreferNotToSay = "prefer_not_to_say"
)

// Skill proficiency levels.
const (
	ProficiencyBeginner     = "beginner"
	ProficiencyIntermediate = "intermediate"
	ProficiencyAdvanced     = "advanced"
	ProficiencyExpert       = "expert"
)

// IsGender reports whether g is empty or one of the known gender values.
func IsGender(g string) bool {
	return g == "" || slices.Contains([]string{GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay}, g)
}

func IsProficiency(p string) bool {
	return slices.Contains([]string{ProficiencyBeginner, ProficiencyIntermediate, ProficiencyAdvanced, ProficiencyExpert}, p)
}

// Profile holds the personal details shown next to a user's account. Every
// user has at most one; a user who never saved one reads as an empty profile.
type Profile struct {
	UserID            string     `json:"user_id"`
	Bio               string     `json:"bio"`
	DateOfBirth       *time.Time `json:"date_of_birth,omitempty"`
	Gender            string     `json:"gender,omitempty"`
	ProfilePictureURL string     `json:"profile_picture_url,omitempty"`
	Website           string     `json:"website,omitempty"`
	LinkedIn          string     `json:"linkedin,omitempty"`
	GitHub            string     `json:"github,omitempty"`
	Twitter           string     `json:"twitter,omitempty"`
	Country           string     `json:"country,omitempty"`
	State             string     `json:"state,omitempty"`
	City              string     `json:"city,omitempty"`
	CreatedBy         *string    `json:"-"`
	UpdatedBy         *string    `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// SectionEntry carries the identity and audit fields shared by the
// repeatable profile sections.
type SectionEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedBy *string   `json:"-"`
	UpdatedBy *string   `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Education struct {
	SectionEntry
	Institution  string     `json:"institution"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"field_of_study"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	IsCurrent    bool       `json:"is_current"`
	Grade        string     `json:"grade,omitempty"`
	Description  string     `json:"description,omitempty"`
}

type WorkExperience struct {
	SectionEntry
	Company     string     `json:"company"`
	Position    string     `json:"position"`
	Location    string     `json:"location,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	IsCurrent   bool       `json:"is_current"`
	Description string     `json:"description,omitempty"`
}

// Skill names are unique per user, compared case-insensitively.
type Skill struct {
	SectionEntry
	Name        string `json:"name"`
	Proficiency string `json:"proficiency_level"`
}

// Interest names are unique per user, compared case-insensitively.
type Interest struct {
	SectionEntry
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Project struct {
	SectionEntry
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Technologies string     `json:"technologies_used,omitempty"`
	ProjectURL   string     `json:"project_url,omitempty"`
	GitHubURL    string     `json:"github_url,omitempty"`
	ImageURL     string     `json:"image_url,omitempty"`
	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	IsCurrent    bool       `json:"is_current"`
}
