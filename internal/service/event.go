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
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
	"github.com/venkatesh-palenso/palenso-api/pkg/validator"
)

// EventService manages events and registrations.
type EventService struct {
	events    repository.EventRepository
	companies repository.CompanyRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewEventService(events repository.EventRepository, companies repository.CompanyRepository, logger *slog.Logger) *EventService {
	return &EventService{
		events:    events,
		companies: companies,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EventInput holds the parameters for creating an event.
type EventInput struct {
	Title                string
	Description          string
	EventType            string
	StartDate            time.Time
	EndDate              time.Time
	RegistrationDeadline *time.Time
	Location             string
	IsVirtual            bool
	VirtualMeetingURL    string
	MaxParticipants      *int
	RegistrationFee      float64
}

func validateEvent(in EventInput, now time.Time) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return apperrors.InvalidInput("title is required")
	case !domain.IsValidEventType(in.EventType):
		return apperrors.InvalidInput("event_type must be one of: workshop seminar conference hackathon career_fair networking webinar other")
	case in.StartDate.IsZero() || in.EndDate.IsZero():
		return apperrors.InvalidInput("start_date and end_date are required")
	case !in.EndDate.After(in.StartDate):
		return apperrors.InvalidInput("end_date must be after start_date")
	case !in.EndDate.After(now):
		return apperrors.InvalidInput("end_date must be in the future")
	case in.RegistrationDeadline != nil && in.RegistrationDeadline.After(in.EndDate):
		return apperrors.InvalidInput("registration_deadline must not be after end_date")
	case in.MaxParticipants != nil && *in.MaxParticipants <= 0:
		return apperrors.InvalidInput("max_participants must be positive")
	case in.RegistrationFee < 0:
		return apperrors.InvalidInput("registration_fee must not be negative")
	case in.IsVirtual && !validator.IsURL(in.VirtualMeetingURL):
		return apperrors.InvalidInput("virtual_meeting_url must be a valid URL for virtual events")
	case !in.IsVirtual && strings.TrimSpace(in.Location) == "":
		return apperrors.InvalidInput("location is required for in-person events")
	}
	return nil
}

// CreateEvent publishes an event. Employers' events are attached to their
// company when they have one.
func (s *EventService) CreateEvent(ctx context.Context, actor domain.Actor, input EventInput) (*domain.Event, error) {
	if !actor.HasRole(domain.RoleEmployer, domain.RoleAdmin) {
		return nil, apperrors.Forbidden("only employers and admins can create events")
	}
	now := s.now()
	if err := validateEvent(input, now); err != nil {
		return nil, err
	}

	event := &domain.Event{
		ID:                   uuid.New().String(),
		OrganizerID:          actor.UserID,
		Title:                sanitizePlain(input.Title),
		Description:          sanitizeRich(input.Description),
		EventType:            input.EventType,
		StartDate:            input.StartDate.UTC(),
		EndDate:              input.EndDate.UTC(),
		RegistrationDeadline: input.RegistrationDeadline,
		Location:             sanitizePlain(input.Location),
		IsVirtual:            input.IsVirtual,
		VirtualMeetingURL:    strings.TrimSpace(input.VirtualMeetingURL),
		MaxParticipants:      input.MaxParticipants,
		RegistrationFee:      input.RegistrationFee,
		IsActive:             true,
		CreatedBy:            actor.StampID(),
		UpdatedBy:            actor.StampID(),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if actor.HasRole(domain.RoleEmployer) {
		company, err := s.companies.GetByEmployerID(ctx, actor.UserID)
		switch {
		case err == nil:
			event.CompanyID = &company.ID
		case !errors.Is(err, apperrors.ErrNotFound):
			return nil, fmt.Errorf("get company of organizer: %w", err)
		}
	}

	if err := s.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	s.logger.InfoContext(ctx, "event created",
		slog.String("event_id", event.ID),
		slog.String("organizer_id", event.OrganizerID),
	)
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// ListEvents returns active events that have not ended, soonest first.
func (s *EventService) ListEvents(ctx context.Context, params pagination.Params) ([]domain.Event, int, error) {
	events, total, err := s.events.ListUpcoming(ctx, s.now(), params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	return events, total, nil
}

// RegistrationInput holds the optional details of a registration.
type RegistrationInput struct {
	DietaryRestrictions string
	SpecialRequirements string
	Notes               string
}

// RegisterForEvent signs the caller up. Deadline and capacity are checked
// under a row lock on the event.
func (s *EventService) RegisterForEvent(ctx context.Context, actor domain.Actor, eventID string, input RegistrationInput) (*domain.EventRegistration, error) {
	now := s.now()
	reg := &domain.EventRegistration{
		ID:                  uuid.New().String(),
		EventID:             eventID,
		ParticipantID:       actor.UserID,
		Status:              domain.RegistrationRegistered,
		DietaryRestrictions: sanitizePlain(input.DietaryRestrictions),
		SpecialRequirements: sanitizePlain(input.SpecialRequirements),
		Notes:               sanitizePlain(input.Notes),
		RegisteredAt:        now,
	}
	if err := s.events.Register(ctx, reg, now); err != nil {
		return nil, fmt.Errorf("register for event: %w", err)
	}

	s.logger.InfoContext(ctx, "registered for event",
		slog.String("event_id", eventID),
		slog.String("user_id", actor.UserID),
	)
	return reg, nil
}

// CancelRegistration removes the caller's registration.
func (s *EventService) CancelRegistration(ctx context.Context, actor domain.Actor, eventID string) error {
	if err := s.events.CancelRegistration(ctx, eventID, actor.UserID); err != nil {
		return fmt.Errorf("cancel registration: %w", err)
	}
	s.logger.InfoContext(ctx, "event registration cancelled",
		slog.String("event_id", eventID),
		slog.String("user_id", actor.UserID),
	)
	return nil
}
