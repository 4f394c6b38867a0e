package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
)

func sampleRegistration(now time.Time) *domain.EventRegistration {
	return &domain.EventRegistration{
		ID:            "reg-1",
		EventID:       "ev-1",
		ParticipantID: "u-1",
		Status:        domain.RegistrationRegistered,
		RegisteredAt:  now,
	}
}

func expectEventLock(mock pgxmock.PgxPoolIface, deadline *time.Time, capacity *int, active bool) {
	mock.ExpectQuery("SELECT registration_deadline, max_participants, is_active FROM events WHERE id = \\$1 FOR UPDATE").
		WithArgs("ev-1").
		WillReturnRows(pgxmock.NewRows([]string{"registration_deadline", "max_participants", "is_active"}).
			AddRow(deadline, capacity, active))
}

func TestEventRepository_Register(t *testing.T) {
	mock := newMock(t)
	repo := NewEventRepository(mock)
	now := time.Now().UTC()
	deadline := now.Add(time.Hour)
	capacity := 50

	mock.ExpectBegin()
	expectEventLock(mock, &deadline, &capacity, true)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM event_registrations").
		WithArgs("ev-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(49))
	mock.ExpectExec("INSERT INTO event_registrations").
		WithArgs(anyArgs(8)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Register(context.Background(), sampleRegistration(now), now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Register_Full(t *testing.T) {
	mock := newMock(t)
	repo := NewEventRepository(mock)
	now := time.Now().UTC()
	capacity := 50

	mock.ExpectBegin()
	expectEventLock(mock, nil, &capacity, true)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM event_registrations").
		WithArgs("ev-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(50))
	mock.ExpectRollback()

	err := repo.Register(context.Background(), sampleRegistration(now), now)
	require.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
	assert.Contains(t, err.Error(), "full")
}

func TestEventRepository_Register_DeadlinePassed(t *testing.T) {
	mock := newMock(t)
	repo := NewEventRepository(mock)
	now := time.Now().UTC()
	deadline := now.Add(-time.Minute)

	mock.ExpectBegin()
	expectEventLock(mock, &deadline, nil, true)
	mock.ExpectRollback()

	err := repo.Register(context.Background(), sampleRegistration(now), now)
	require.ErrorIs(t, err, apperrors.ErrPreconditionFailed)
	assert.Contains(t, err.Error(), "closed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_Register_Twice(t *testing.T) {
	mock := newMock(t)
	repo := NewEventRepository(mock)
	now := time.Now().UTC()

	mock.ExpectBegin()
	expectEventLock(mock, nil, nil, true)
	mock.ExpectExec("INSERT INTO event_registrations").
		WithArgs(anyArgs(8)...).
		WillReturnError(uniqueViolation(constraintRegistrationEventParticipant))
	mock.ExpectRollback()

	err := repo.Register(context.Background(), sampleRegistration(now), now)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestEventRepository_CancelRegistration_NotRegistered(t *testing.T) {
	mock := newMock(t)
	repo := NewEventRepository(mock)

	mock.ExpectExec("DELETE FROM event_registrations").
		WithArgs("ev-1", "u-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.CancelRegistration(context.Background(), "ev-1", "u-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEventRepository_ListUpcoming(t *testing.T) {
	mock := newMock(t)
	repo := NewEventRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM events").
		WithArgs(now).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM events e WHERE e.is_active AND e.end_date > \\$1 ORDER BY e.start_date").
		WithArgs(now, 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "organizer_id", "company_id", "title", "description", "event_type", "start_date",
			"end_date", "registration_deadline", "location", "is_virtual", "virtual_meeting_url",
			"max_participants", "registration_fee", "is_active", "registration_count",
			"created_by", "updated_by", "created_at", "updated_at",
		}).AddRow(
			"ev-1", "emp-1", nil, "Career Fair", "Meet employers", domain.EventCareerFair, now.Add(24*time.Hour),
			now.Add(30*time.Hour), nil, "Kathmandu", false, "",
			nil, 0.0, true, 12,
			nil, nil, now, now,
		))

	events, total, err := repo.ListUpcoming(context.Background(), now, pagination.Params{Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, events, 1)
	assert.Equal(t, 12, events[0].RegistrationCount)
	assert.Nil(t, events[0].CompanyID)
}
