package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/internal/repository"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
	"github.com/venkatesh-palenso/palenso-api/pkg/validator"
)

// ProfileSections holds the stores of the repeatable profile sections.
type ProfileSections struct {
	Education      repository.SectionRepository[domain.Education]
	WorkExperience repository.SectionRepository[domain.WorkExperience]
	Skills         repository.SectionRepository[domain.Skill]
	Interests      repository.SectionRepository[domain.Interest]
	Projects       repository.SectionRepository[domain.Project]
}

// ProfileService manages the caller's profile and its sections.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *slog.Logger

	Education      *SectionService[domain.Education, EducationInput]
	WorkExperience *SectionService[domain.WorkExperience, WorkExperienceInput]
	Skills         *SectionService[domain.Skill, SkillInput]
	Interests      *SectionService[domain.Interest, InterestInput]
	Projects       *SectionService[domain.Project, ProjectInput]
}

func NewProfileService(profiles repository.ProfileRepository, sections ProfileSections, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		logger:   logger,

		Education: newSectionService(sections.Education, "education",
			func(v *domain.Education) *domain.SectionEntry { return &v.SectionEntry }, applyEducation, logger),
		WorkExperience: newSectionService(sections.WorkExperience, "work_experience",
			func(v *domain.WorkExperience) *domain.SectionEntry { return &v.SectionEntry }, applyWorkExperience, logger),
		Skills: newSectionService(sections.Skills, "skill",
			func(v *domain.Skill) *domain.SectionEntry { return &v.SectionEntry }, applySkill, logger),
		Interests: newSectionService(sections.Interests, "interest",
			func(v *domain.Interest) *domain.SectionEntry { return &v.SectionEntry }, applyInterest, logger),
		Projects: newSectionService(sections.Projects, "project",
			func(v *domain.Project) *domain.SectionEntry { return &v.SectionEntry }, applyProject, logger),
	}
}

// UpdateProfileInput holds the editable profile fields. Nil fields are
// unchanged; an empty string clears a field.
type UpdateProfileInput struct {
	Bio               *string
	DateOfBirth       *time.Time
	Gender            *string
	ProfilePictureURL *string
	Website           *string
	LinkedIn          *string
	GitHub            *string
	Twitter           *string
	Country           *string
	State             *string
	City              *string
}

// GetProfile returns the caller's profile, or an empty one if it was never
// saved.
func (s *ProfileService) GetProfile(ctx context.Context, actor domain.Actor) (*domain.Profile, error) {
	profile, err := s.profiles.Get(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &domain.Profile{UserID: actor.UserID}, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, actor domain.Actor, input UpdateProfileInput) (*domain.Profile, error) {
	profile, err := s.GetProfile(ctx, actor)
	if err != nil {
		return nil, err
	}

	setPlain(&profile.Bio, input.Bio)
	setPlain(&profile.Country, input.Country)
	setPlain(&profile.State, input.State)
	setPlain(&profile.City, input.City)
	if input.Gender != nil {
		profile.Gender = strings.TrimSpace(*input.Gender)
	}
	if input.DateOfBirth != nil {
		dob := input.DateOfBirth.UTC().Truncate(24 * time.Hour)
		profile.DateOfBirth = &dob
	}

	links := []struct {
		field string
		dst   *string
		src   *string
	}{
		{"profile_picture_url", &profile.ProfilePictureURL, input.ProfilePictureURL},
		{"website", &profile.Website, input.Website},
		{"linkedin", &profile.LinkedIn, input.LinkedIn},
		{"github", &profile.GitHub, input.GitHub},
		{"twitter", &profile.Twitter, input.Twitter},
	}
	for _, l := range links {
		if l.src == nil {
			continue
		}
		if err := optionalURL(l.field, *l.src); err != nil {
			return nil, err
		}
		*l.dst = strings.TrimSpace(*l.src)
	}

	if len([]rune(profile.Bio)) > 500 {
		return nil, apperrors.InvalidInput("bio must be at most 500 characters")
	}
	if !domain.IsGender(profile.Gender) {
		return nil, apperrors.InvalidInput("gender must be one of: male female other prefer_not_to_say")
	}
	if profile.DateOfBirth != nil && profile.DateOfBirth.After(time.Now()) {
		return nil, apperrors.InvalidInput("date_of_birth must be in the past")
	}

	if err := s.profiles.Upsert(ctx, actor, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", actor.UserID))
	return profile, nil
}

// SectionService manages one repeatable profile section of the caller. apply
// validates an input and writes it into an entry; PUT replaces every field.
type SectionService[T, I any] struct {
	repo   repository.SectionRepository[T]
	name   string
	entry  func(*T) *domain.SectionEntry
	apply  func(*T, I) error
	logger *slog.Logger
}

func newSectionService[T, I any](
	repo repository.SectionRepository[T],
	name string,
	entry func(*T) *domain.SectionEntry,
	apply func(*T, I) error,
	logger *slog.Logger,
) *SectionService[T, I] {
	return &SectionService[T, I]{repo: repo, name: name, entry: entry, apply: apply, logger: logger}
}

func (s *SectionService[T, I]) Add(ctx context.Context, actor domain.Actor, input I) (*T, error) {
	v := new(T)
	if err := s.apply(v, input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	e := s.entry(v)
	e.ID = uuid.New().String()
	e.UserID = actor.UserID
	e.CreatedBy = actor.StampID()
	e.UpdatedBy = actor.StampID()
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.name, err)
	}
	s.logger.InfoContext(ctx, "profile entry added",
		slog.String("section", s.name),
		slog.String("id", e.ID),
		slog.String("user_id", actor.UserID),
	)
	return v, nil
}

func (s *SectionService[T, I]) List(ctx context.Context, actor domain.Actor) ([]T, error) {
	entries, err := s.repo.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.name, err)
	}
	if entries == nil {
		entries = []T{}
	}
	return entries, nil
}

func (s *SectionService[T, I]) Get(ctx context.Context, actor domain.Actor, id string) (*T, error) {
	v, err := s.repo.Get(ctx, actor.UserID, id)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.name, err)
	}
	return v, nil
}

// Update replaces the fields of one of the caller's entries.
func (s *SectionService[T, I]) Update(ctx context.Context, actor domain.Actor, id string, input I) (*T, error) {
	v, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(v, input); err != nil {
		return nil, err
	}
	e := s.entry(v)
	e.UpdatedBy = actor.StampID()
	e.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, actor, v); err != nil {
		return nil, fmt.Errorf("update %s: %w", s.name, err)
	}
	return v, nil
}

func (s *SectionService[T, I]) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if err := s.repo.Delete(ctx, actor.UserID, id); err != nil {
		return fmt.Errorf("delete %s: %w", s.name, err)
	}
	s.logger.InfoContext(ctx, "profile entry deleted",
		slog.String("section", s.name),
		slog.String("id", id),
	)
	return nil
}

// --- Section inputs ---

type EducationInput struct {
	Institution  string
	Degree       string
	FieldOfStudy string
	StartDate    time.Time
	EndDate      *time.Time
	IsCurrent    bool
	Grade        string
	Description  string
}

type WorkExperienceInput struct {
	Company     string
	Position    string
	Location    string
	StartDate   time.Time
	EndDate     *time.Time
	IsCurrent   bool
	Description string
}

type SkillInput struct {
	Name        string
	Proficiency string
}

type InterestInput struct {
	Name        string
	Description string
}

type ProjectInput struct {
	Title        string
	Description  string
	Technologies string
	ProjectURL   string
	GitHubURL    string
	ImageURL     string
	StartDate    time.Time
	EndDate      *time.Time
	IsCurrent    bool
}

func applyEducation(v *domain.Education, in EducationInput) error {
	v.Institution = sanitizePlain(in.Institution)
	v.Degree = sanitizePlain(in.Degree)
	v.FieldOfStudy = sanitizePlain(in.FieldOfStudy)
	if v.Institution == "" || v.Degree == "" || v.FieldOfStudy == "" {
		return apperrors.InvalidInput("institution, degree and field_of_study are required")
	}
	start, end, err := period(in.StartDate, in.EndDate, in.IsCurrent)
	if err != nil {
		return err
	}
	v.StartDate, v.EndDate, v.IsCurrent = start, end, in.IsCurrent
	v.Grade = sanitizePlain(in.Grade)
	v.Description = sanitizePlain(in.Description)
	return nil
}

func applyWorkExperience(v *domain.WorkExperience, in WorkExperienceInput) error {
	v.Company = sanitizePlain(in.Company)
	v.Position = sanitizePlain(in.Position)
	if v.Company == "" || v.Position == "" {
		return apperrors.InvalidInput("company and position are required")
	}
	start, end, err := period(in.StartDate, in.EndDate, in.IsCurrent)
	if err != nil {
		return err
	}
	v.StartDate, v.EndDate, v.IsCurrent = start, end, in.IsCurrent
	v.Location = sanitizePlain(in.Location)
	v.Description = sanitizePlain(in.Description)
	return nil
}

func applySkill(v *domain.Skill, in SkillInput) error {
	v.Name = sanitizePlain(in.Name)
	if v.Name == "" {
		return apperrors.InvalidInput("name is required")
	}
	v.Proficiency = strings.TrimSpace(in.Proficiency)
	if v.Proficiency == "" {
		v.Proficiency = domain.ProficiencyBeginner
	}
	if !domain.IsProficiency(v.Proficiency) {
		return apperrors.InvalidInput("proficiency_level must be one of: beginner intermediate advanced expert")
	}
	return nil
}

func applyInterest(v *domain.Interest, in InterestInput) error {
	v.Name = sanitizePlain(in.Name)
	if v.Name == "" {
		return apperrors.InvalidInput("name is required")
	}
	v.Description = sanitizePlain(in.Description)
	return nil
}

func applyProject(v *domain.Project, in ProjectInput) error {
	v.Title = sanitizePlain(in.Title)
	v.Description = sanitizeRich(in.Description)
	if v.Title == "" || v.Description == "" {
		return apperrors.InvalidInput("title and description are required")
	}
	for _, u := range []struct{ field, value string }{
		{"project_url", in.ProjectURL},
		{"github_url", in.GitHubURL},
		{"image_url", in.ImageURL},
	} {
		if err := optionalURL(u.field, u.value); err != nil {
			return err
		}
	}
	start, end, err := period(in.StartDate, in.EndDate, in.IsCurrent)
	if err != nil {
		return err
	}
	v.StartDate, v.EndDate, v.IsCurrent = start, end, in.IsCurrent
	v.Technologies = sanitizePlain(in.Technologies)
	v.ProjectURL = strings.TrimSpace(in.ProjectURL)
	v.GitHubURL = strings.TrimSpace(in.GitHubURL)
	v.ImageURL = strings.TrimSpace(in.ImageURL)
	return nil
}

// period checks a start/end date pair. An ongoing entry has no end date.
func period(start time.Time, end *time.Time, current bool) (time.Time, *time.Time, error) {
	if start.IsZero() {
		return time.Time{}, nil, apperrors.InvalidInput("start_date is required")
	}
	if current && end != nil {
		return time.Time{}, nil, apperrors.InvalidInput("end_date must be empty while is_current is set")
	}
	if end != nil && end.Before(start) {
		return time.Time{}, nil, apperrors.InvalidInput("end_date must not be before start_date")
	}
	return start, end, nil
}

func optionalURL(field, value string) error {
	value = strings.TrimSpace(value)
	if value != "" && !validator.IsURL(value) {
		return apperrors.InvalidInput(field + " must be a valid URL")
	}
	return nil
}

func setPlain(dst *string, src *string) {
	if src != nil {
		*dst = sanitizePlain(*src)
	}
}
