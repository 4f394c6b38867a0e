package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
)

func sampleSkill() *domain.Skill {
	now := time.Now().UTC()
	return &domain.Skill{
		SectionEntry: domain.SectionEntry{
			ID: "s-1", UserID: "u-1", CreatedBy: strPtr("u-1"), UpdatedBy: strPtr("u-1"), CreatedAt: now, UpdatedAt: now,
		},
		Name:        "Go",
		Proficiency: domain.ProficiencyAdvanced,
	}
}

func TestSectionRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewSkillRepository(mock)
	s := sampleSkill()

	mock.ExpectExec("INSERT INTO user_skills \\(id, user_id, name, proficiency_level, created_by, updated_by, created_at, updated_at\\) VALUES \\(\\$1, \\$2, \\$3, \\$4, \\$5, \\$6, \\$7, \\$8\\)").
		WithArgs(s.ID, s.UserID, s.Name, s.Proficiency, s.CreatedBy, s.UpdatedBy, s.CreatedAt, s.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepository_Create_DuplicateName(t *testing.T) {
	mock := newMock(t)
	repo := NewSkillRepository(mock)

	mock.ExpectExec("INSERT INTO user_skills").
		WithArgs(anyArgs(8)...).
		WillReturnError(uniqueViolation("user_skills_user_name_key"))

	err := repo.Create(context.Background(), sampleSkill())
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestSectionRepository_Get_ScopedToOwner(t *testing.T) {
	mock := newMock(t)
	repo := NewEducationRepository(mock)

	mock.ExpectQuery("SELECT id, user_id, institution, .+ FROM user_education WHERE id = \\$1 AND user_id = \\$2").
		WithArgs("e-1", "u-2").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), "u-2", "e-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSectionRepository_ListByUser(t *testing.T) {
	mock := newMock(t)
	repo := NewWorkExperienceRepository(mock)
	now := time.Now().UTC()
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, time.June, 30, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .+ FROM user_work_experience WHERE user_id = \\$1 ORDER BY end_date DESC NULLS FIRST, start_date DESC").
		WithArgs("u-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "company", "position", "location", "start_date", "end_date", "is_current", "description",
			"created_by", "updated_by", "created_at", "updated_at",
		}).
			AddRow("w-2", "u-1", "Acme", "Engineer", "", start, nil, true, "", nil, nil, now, now).
			AddRow("w-1", "u-1", "Initech", "Intern", "Pokhara", start, &end, false, "", nil, nil, now, now))

	entries, err := repo.ListByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "w-2", entries[0].ID)
	assert.Nil(t, entries[0].EndDate)
	assert.Equal(t, end, *entries[1].EndDate)
}

func TestSectionRepository_Update(t *testing.T) {
	mock := newMock(t)
	repo := NewInterestRepository(mock)
	actor := domain.UserActor("u-1", domain.RoleStudent)

	mock.ExpectExec("UPDATE user_interests SET name = \\$3, description = \\$4, updated_by = \\$5, updated_at = NOW\\(\\) WHERE id = \\$1 AND user_id = \\$2").
		WithArgs("i-1", "u-1", "Chess", "", strPtr("u-1")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Update(context.Background(), actor, &domain.Interest{
		SectionEntry: domain.SectionEntry{ID: "i-1", UserID: "u-1"},
		Name:         "Chess",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionRepository_Update_NotOwned(t *testing.T) {
	mock := newMock(t)
	repo := NewProjectRepository(mock)

	mock.ExpectExec("UPDATE user_projects SET").
		WithArgs(anyArgs(12)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), domain.UserActor("u-2", domain.RoleStudent), &domain.Project{
		SectionEntry: domain.SectionEntry{ID: "p-1", UserID: "u-2"},
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSectionRepository_Delete(t *testing.T) {
	mock := newMock(t)
	repo := NewSkillRepository(mock)

	mock.ExpectExec("DELETE FROM user_skills WHERE id = \\$1 AND user_id = \\$2").
		WithArgs("s-1", "u-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.Delete(context.Background(), "u-1", "s-1"))
}
