package domain

import (
	"slices"
	"time"
)

// Event types.
const (
	EventWorkshop   = "workshop"
	EventSeminar    = "seminar"
	EventConference = "conference"
	EventHackathon  = "hackathon"
	EventCareerFair = "career_fair"
	EventNetworking = "networking"
	EventWebinar    = "webinar"
	EventOther      = "other"
)

func IsValidEventType(t string) bool {
	return slices.Contains([]string{
		EventWorkshop, EventSeminar, EventConference, EventHackathon,
		EventCareerFair, EventNetworking, EventWebinar, EventOther,
	}, t)
}

// Event is a workshop, fair or similar gathering users can register for.
type Event struct {
	ID                   string     `json:"id"`
	OrganizerID          string     `json:"organizer_id"`
	CompanyID            *string    `json:"company_id,omitempty"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	EventType            string     `json:"event_type"`
	StartDate            time.Time  `json:"start_date"`
	EndDate              time.Time  `json:"end_date"`
	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	Location             string     `json:"location"`
	IsVirtual            bool       `json:"is_virtual"`
	VirtualMeetingURL    string     `json:"virtual_meeting_url,omitempty"`
	MaxParticipants      *int       `json:"max_participants,omitempty"`
	RegistrationFee      float64    `json:"registration_fee"`
	IsActive             bool       `json:"is_active"`
	RegistrationCount    int        `json:"registration_count"`
	CreatedBy            *string    `json:"-"`
	UpdatedBy            *string    `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// IsRegistrationOpen reports whether now is before the registration deadline.
func (e *Event) IsRegistrationOpen(now time.Time) bool {
	return e.RegistrationDeadline == nil || now.Before(*e.RegistrationDeadline)
}

// IsFull reports whether registered participants reached the cap.
func (e *Event) IsFull(registered int) bool {
	return e.MaxParticipants != nil && registered >= *e.MaxParticipants
}

// Registration statuses.
const (
	RegistrationRegistered = "registered"
	RegistrationConfirmed  = "confirmed"
	RegistrationAttended   = "attended"
)

// EventRegistration records a participant signed up for an event.
type EventRegistration struct {
	ID                  string    `json:"id"`
	EventID             string    `json:"event_id"`
	ParticipantID       string    `json:"participant_id"`
	Status              string    `json:"status"`
	DietaryRestrictions string    `json:"dietary_restrictions,omitempty"`
	SpecialRequirements string    `json:"special_requirements,omitempty"`
	Notes               string    `json:"notes,omitempty"`
	RegisteredAt        time.Time `json:"registered_at"`
}
