package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/venkatesh-palenso/palenso-api/internal/service"
	"github.com/venkatesh-palenso/palenso-api/pkg/httputil"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
)

// EventHandler handles HTTP requests for events and registrations.
type EventHandler struct {
	service *service.EventService
	logger  *slog.Logger
}

// NewEventHandler creates a new event HTTP handler.
func NewEventHandler(svc *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{service: svc, logger: logger}
}

// CreateEventRequest is the JSON request body for creating an event.
type CreateEventRequest struct {
	Title                string     `json:"title" validate:"required,max=200"`
	Description          string     `json:"description" validate:"max=20000"`
	EventType            string     `json:"event_type" validate:"required"`
	StartDate            time.Time  `json:"start_date" validate:"required"`
	EndDate              time.Time  `json:"end_date" validate:"required,gtfield=StartDate"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	Location             string     `json:"location" validate:"max=300"`
	IsVirtual            bool       `json:"is_virtual"`
	VirtualMeetingURL    string     `json:"virtual_meeting_url" validate:"omitempty,url"`
	MaxParticipants      *int       `json:"max_participants" validate:"omitempty,gte=1"`
	RegistrationFee      float64    `json:"registration_fee" validate:"gte=0"`
}

// RegisterEventRequest is the optional JSON body of an event registration.
type RegisterEventRequest struct {
	DietaryRestrictions string `json:"dietary_restrictions" validate:"max=500"`
	SpecialRequirements string `json:"special_requirements" validate:"max=500"`
	Notes               string `json:"notes" validate:"max=2000"`
}

// List handles GET /api/v1/events
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	events, total, err := h.service.ListEvents(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	writePage(w, events, total, params)
}

// Get handles GET /api/v1/events/{id}
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	event, err := h.service.GetEvent(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, event)
}

// Create handles POST /api/v1/events
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req CreateEventRequest
	if !decode(w, r, &req) {
		return
	}

	event, err := h.service.CreateEvent(r.Context(), actor, service.EventInput{
		Title:                req.Title,
		Description:          req.Description,
		EventType:            req.EventType,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationDeadline: req.RegistrationDeadline,
		Location:             req.Location,
		IsVirtual:            req.IsVirtual,
		VirtualMeetingURL:    req.VirtualMeetingURL,
		MaxParticipants:      req.MaxParticipants,
		RegistrationFee:      req.RegistrationFee,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, event)
}

// Register handles POST /api/v1/events/{id}/register
func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req RegisterEventRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}

	reg, err := h.service.RegisterForEvent(r.Context(), actor, eventID, service.RegistrationInput{
		DietaryRestrictions: req.DietaryRestrictions,
		SpecialRequirements: req.SpecialRequirements,
		Notes:               req.Notes,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, reg)
}

// CancelRegistration handles DELETE /api/v1/events/{id}/register
func (h *EventHandler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	eventID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.CancelRegistration(r.Context(), actor, eventID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
