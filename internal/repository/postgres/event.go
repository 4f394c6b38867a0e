package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/pkg/database"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
)

const constraintRegistrationEventParticipant = "event_registrations_event_participant_key"

const eventColumns = `e.id, e.organizer_id, e.company_id, e.title, e.description, e.event_type, e.start_date,
	e.end_date, e.registration_deadline, e.location, e.is_virtual, e.virtual_meeting_url,
	e.max_participants, e.registration_fee, e.is_active,
	(SELECT COUNT(*) FROM event_registrations r WHERE r.event_id = e.id),
	e.created_by, e.updated_by, e.created_at, e.updated_at`

// EventRepository implements repository.EventRepository using PostgreSQL.
type EventRepository struct {
	db database.DBTX
}

func NewEventRepository(db database.DBTX) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Create(ctx context.Context, e *domain.Event) (err error) {
	query := `
		INSERT INTO events (id, organizer_id, company_id, title, description, event_type, start_date,
		                    end_date, registration_deadline, location, is_virtual, virtual_meeting_url,
		                    max_participants, registration_fee, is_active, created_by, updated_by,
		                    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	ctx, end := database.TraceQuery(ctx, "CreateEvent", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		e.ID, e.OrganizerID, e.CompanyID, e.Title, e.Description, e.EventType, e.StartDate,
		e.EndDate, e.RegistrationDeadline, e.Location, e.IsVirtual, e.VirtualMeetingURL,
		e.MaxParticipants, e.RegistrationFee, e.IsActive, e.CreatedBy, e.UpdatedBy,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "scan event")
	}
	return e, nil
}

func (r *EventRepository) ListUpcoming(ctx context.Context, now time.Time, params pagination.Params) ([]domain.Event, int, error) {
	total, err := count(ctx, r.db, `SELECT COUNT(*) FROM events WHERE is_active AND end_date > $1`, now)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.is_active AND e.end_date > $1
		 ORDER BY e.start_date LIMIT $2 OFFSET $3`,
		now, params.PerPage, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate events: %w", err)
	}
	return events, total, nil
}

func (r *EventRepository) Register(ctx context.Context, reg *domain.EventRegistration, now time.Time) (err error) {
	ctx, end := database.TraceQuery(ctx, "RegisterForEvent", "INSERT INTO event_registrations")
	defer func() { end(err) }()

	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		var (
			deadline *time.Time
			capacity *int
			active   bool
		)
		err := tx.QueryRow(ctx,
			`SELECT registration_deadline, max_participants, is_active FROM events WHERE id = $1 FOR UPDATE`,
			reg.EventID).Scan(&deadline, &capacity, &active)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("event", reg.EventID)
			}
			return fmt.Errorf("lock event: %w", err)
		}

		e := domain.Event{RegistrationDeadline: deadline, MaxParticipants: capacity}
		if !active || !e.IsRegistrationOpen(now) {
			return apperrors.PreconditionFailed("registration for this event is closed")
		}

		if capacity != nil {
			n, err := count(ctx, tx, `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`, reg.EventID)
			if err != nil {
				return err
			}
			if e.IsFull(n) {
				return apperrors.PreconditionFailed("event is full")
			}
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO event_registrations (id, event_id, participant_id, status, dietary_restrictions,
			                                 special_requirements, notes, registered_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			reg.ID, reg.EventID, reg.ParticipantID, reg.Status, reg.DietaryRestrictions,
			reg.SpecialRequirements, reg.Notes, reg.RegisteredAt,
		)
		if err != nil {
			if database.IsUniqueViolation(err, constraintRegistrationEventParticipant) {
				return apperrors.AlreadyExists("registration", "event_id", reg.EventID)
			}
			return fmt.Errorf("insert registration: %w", err)
		}
		return nil
	})
}

func (r *EventRepository) CancelRegistration(ctx context.Context, eventID, participantID string) error {
	return exec(ctx, r.db, "CancelRegistration", "registration", eventID,
		`DELETE FROM event_registrations WHERE event_id = $1 AND participant_id = $2`, eventID, participantID)
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.OrganizerID, &e.CompanyID, &e.Title, &e.Description, &e.EventType, &e.StartDate,
		&e.EndDate, &e.RegistrationDeadline, &e.Location, &e.IsVirtual, &e.VirtualMeetingURL,
		&e.MaxParticipants, &e.RegistrationFee, &e.IsActive, &e.RegistrationCount,
		&e.CreatedBy, &e.UpdatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
