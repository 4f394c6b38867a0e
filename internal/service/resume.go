package service

import (
	"context"
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

// ResumeService manages the caller's resumes. Files live in object storage;
// only their URL is kept.
type ResumeService struct {
	resumes repository.ResumeRepository
	logger  *slog.Logger
}

func NewResumeService(resumes repository.ResumeRepository, logger *slog.Logger) *ResumeService {
	return &ResumeService{resumes: resumes, logger: logger}
}

// ResumeInput holds the parameters for adding a resume.
type ResumeInput struct {
	Title       string
	FileURL     string
	Description string
	IsPrimary   bool
}

// CreateResume stores a resume. When IsPrimary is set the new resume replaces
// the current primary one.
func (s *ResumeService) CreateResume(ctx context.Context, actor domain.Actor, input ResumeInput) (*domain.Resume, error) {
	title := sanitizePlain(input.Title)
	if title == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	fileURL := strings.TrimSpace(input.FileURL)
	if !validator.IsURL(fileURL) {
		return nil, apperrors.InvalidInput("file_url must be a valid URL")
	}

	now := time.Now().UTC()
	resume := &domain.Resume{
		ID:          uuid.New().String(),
		UserID:      actor.UserID,
		Title:       title,
		FileURL:     fileURL,
		Description: sanitizePlain(input.Description),
		CreatedBy:   actor.StampID(),
		UpdatedBy:   actor.StampID(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.resumes.Create(ctx, resume); err != nil {
		return nil, fmt.Errorf("create resume: %w", err)
	}

	if input.IsPrimary {
		if err := s.resumes.SetPrimary(ctx, actor, actor.UserID, resume.ID); err != nil {
			return nil, fmt.Errorf("set primary resume: %w", err)
		}
		resume.IsPrimary = true
	}

	s.logger.InfoContext(ctx, "resume added",
		slog.String("resume_id", resume.ID),
		slog.String("user_id", actor.UserID),
	)
	return resume, nil
}

// UpdateResumeInput holds the editable resume fields. Nil fields are
// unchanged; the primary flag moves through SetPrimaryResume.
type UpdateResumeInput struct {
	Title       *string
	FileURL     *string
	Description *string
}

// UpdateResume edits one of the caller's resumes. Someone else's resume is
// reported as not found.
func (s *ResumeService) UpdateResume(ctx context.Context, actor domain.Actor, id string, input UpdateResumeInput) (*domain.Resume, error) {
	resume, err := s.resumes.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get resume: %w", err)
	}
	if resume.UserID != actor.UserID {
		return nil, apperrors.NotFound("resume", id)
	}

	if input.Title != nil {
		resume.Title = sanitizePlain(*input.Title)
		if resume.Title == "" {
			return nil, apperrors.InvalidInput("title is required")
		}
	}
	if input.FileURL != nil {
		fileURL := strings.TrimSpace(*input.FileURL)
		if !validator.IsURL(fileURL) {
			return nil, apperrors.InvalidInput("file_url must be a valid URL")
		}
		resume.FileURL = fileURL
	}
	if input.Description != nil {
		resume.Description = sanitizePlain(*input.Description)
	}
	resume.UpdatedBy = actor.StampID()
	resume.UpdatedAt = time.Now().UTC()

	if err := s.resumes.Update(ctx, actor, resume); err != nil {
		return nil, fmt.Errorf("update resume: %w", err)
	}
	s.logger.InfoContext(ctx, "resume updated", slog.String("resume_id", id))
	return resume, nil
}

func (s *ResumeService) ListResumes(ctx context.Context, actor domain.Actor) ([]domain.Resume, error) {
	resumes, err := s.resumes.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list resumes: %w", err)
	}
	return resumes, nil
}

// DeleteResume removes one of the caller's resumes. Someone else's resume
// is reported as not found.
func (s *ResumeService) DeleteResume(ctx context.Context, actor domain.Actor, id string) error {
	if err := s.resumes.Delete(ctx, actor.UserID, id); err != nil {
		return fmt.Errorf("delete resume: %w", err)
	}
	s.logger.InfoContext(ctx, "resume deleted", slog.String("resume_id", id))
	return nil
}

// SetPrimaryResume makes id the caller's only primary resume.
func (s *ResumeService) SetPrimaryResume(ctx context.Context, actor domain.Actor, id string) error {
	if err := s.resumes.SetPrimary(ctx, actor, actor.UserID, id); err != nil {
		return fmt.Errorf("set primary resume: %w", err)
	}
	s.logger.InfoContext(ctx, "primary resume changed",
		slog.String("resume_id", id),
		slog.String("user_id", actor.UserID),
	)
	return nil
}
