package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/pkg/database"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
)

// sectionTable maps one repeatable profile section onto its table. columns
// lists the section's own columns; id, user_id and the audit columns are
// shared by every section.
type sectionTable[T any] struct {
	op       string
	resource string
	table    string
	columns  []string
	order    string

	entry  func(*T) *domain.SectionEntry
	values func(*T) []any
	dest   func(*T) []any

	// nameKey is the unique index on (user_id, LOWER(name)), if the section
	// has one.
	nameKey string
	name    func(*T) string
}

func (t sectionTable[T]) selectList() string {
	return "id, user_id, " + strings.Join(t.columns, ", ") + ", created_by, updated_by, created_at, updated_at"
}

// SectionRepository implements repository.SectionRepository for one section.
type SectionRepository[T any] struct {
	db database.DBTX
	t  sectionTable[T]
}

func (r *SectionRepository[T]) Create(ctx context.Context, v *T) error {
	e := r.t.entry(v)
	n := len(r.t.columns) + 6
	placeholders := make([]string, n)
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	args := append([]any{e.ID, e.UserID}, r.t.values(v)...)
	args = append(args, e.CreatedBy, e.UpdatedBy, e.CreatedAt, e.UpdatedAt)

	_, err := r.db.Exec(ctx,
		`INSERT INTO `+r.t.table+` (`+r.t.selectList()+`) VALUES (`+strings.Join(placeholders, ", ")+`)`,
		args...)
	if err != nil {
		return r.conflict(v, err, "insert "+r.t.resource)
	}
	return nil
}

// Get returns the entry only when userID owns it.
func (r *SectionRepository[T]) Get(ctx context.Context, userID, id string) (*T, error) {
	v, err := r.scan(r.db.QueryRow(ctx,
		`SELECT `+r.t.selectList()+` FROM `+r.t.table+` WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(r.t.resource, id)
		}
		return nil, fmt.Errorf("scan %s: %w", r.t.resource, err)
	}
	return v, nil
}

func (r *SectionRepository[T]) ListByUser(ctx context.Context, userID string) ([]T, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+r.t.selectList()+` FROM `+r.t.table+` WHERE user_id = $1 ORDER BY `+r.t.order, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.t.resource, err)
	}
	defer rows.Close()

	var entries []T
	for rows.Next() {
		v, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.t.resource, err)
		}
		entries = append(entries, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", r.t.resource, err)
	}
	return entries, nil
}

// Update rewrites the section columns of v. It fails with ErrNotFound unless
// v.UserID owns v.ID.
func (r *SectionRepository[T]) Update(ctx context.Context, actor domain.Actor, v *T) error {
	e := r.t.entry(v)
	set := make([]string, len(r.t.columns))
	for i, col := range r.t.columns {
		set[i] = fmt.Sprintf("%s = $%d", col, i+3)
	}
	stamp := len(r.t.columns) + 3

	args := append([]any{e.ID, e.UserID}, r.t.values(v)...)
	args = append(args, actor.StampID())

	err := exec(ctx, r.db, "Update"+r.t.op, r.t.resource, e.ID,
		fmt.Sprintf(`UPDATE %s SET %s, updated_by = $%d, updated_at = NOW() WHERE id = $1 AND user_id = $2`,
			r.t.table, strings.Join(set, ", "), stamp),
		args...)
	if err != nil {
		return r.conflict(v, err, "update "+r.t.resource)
	}
	return nil
}

func (r *SectionRepository[T]) Delete(ctx context.Context, userID, id string) error {
	return exec(ctx, r.db, "Delete"+r.t.op, r.t.resource, id,
		`DELETE FROM `+r.t.table+` WHERE id = $1 AND user_id = $2`, id, userID)
}

func (r *SectionRepository[T]) conflict(v *T, err error, what string) error {
	if r.t.nameKey != "" && database.IsUniqueViolation(err, r.t.nameKey) {
		return apperrors.AlreadyExists(r.t.resource, "name", r.t.name(v))
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	if database.IsForeignKeyViolation(err) {
		return apperrors.NotFound("user", r.t.entry(v).UserID)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (r *SectionRepository[T]) scan(row pgx.Row) (*T, error) {
	var v T
	e := r.t.entry(&v)
	dest := append([]any{&e.ID, &e.UserID}, r.t.dest(&v)...)
	dest = append(dest, &e.CreatedBy, &e.UpdatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &v, nil
}

// --- Sections ---

func NewEducationRepository(db database.DBTX) *SectionRepository[domain.Education] {
	return &SectionRepository[domain.Education]{db: db, t: sectionTable[domain.Education]{
		op:       "Education",
		resource: "education",
		table:    "user_education",
		columns:  []string{"institution", "degree", "field_of_study", "start_date", "end_date", "is_current", "grade", "description"},
		order:    "end_date DESC NULLS FIRST, start_date DESC",
		entry:    func(v *domain.Education) *domain.SectionEntry { return &v.SectionEntry },
		values: func(v *domain.Education) []any {
			return []any{v.Institution, v.Degree, v.FieldOfStudy, v.StartDate, v.EndDate, v.IsCurrent, v.Grade, v.Description}
		},
		dest: func(v *domain.Education) []any {
			return []any{&v.Institution, &v.Degree, &v.FieldOfStudy, &v.StartDate, &v.EndDate, &v.IsCurrent, &v.Grade, &v.Description}
		},
	}}
}

func NewWorkExperienceRepository(db database.DBTX) *SectionRepository[domain.WorkExperience] {
	return &SectionRepository[domain.WorkExperience]{db: db, t: sectionTable[domain.WorkExperience]{
		op:       "WorkExperience",
		resource: "work_experience",
		table:    "user_work_experience",
		columns:  []string{"company", "position", "location", "start_date", "end_date", "is_current", "description"},
		order:    "end_date DESC NULLS FIRST, start_date DESC",
		entry:    func(v *domain.WorkExperience) *domain.SectionEntry { return &v.SectionEntry },
		values: func(v *domain.WorkExperience) []any {
			return []any{v.Company, v.Position, v.Location, v.StartDate, v.EndDate, v.IsCurrent, v.Description}
		},
		dest: func(v *domain.WorkExperience) []any {
			return []any{&v.Company, &v.Position, &v.Location, &v.StartDate, &v.EndDate, &v.IsCurrent, &v.Description}
		},
	}}
}

func NewSkillRepository(db database.DBTX) *SectionRepository[domain.Skill] {
	return &SectionRepository[domain.Skill]{db: db, t: sectionTable[domain.Skill]{
		op:       "Skill",
		resource: "skill",
		table:    "user_skills",
		columns:  []string{"name", "proficiency_level"},
		order:    "name",
		entry:    func(v *domain.Skill) *domain.SectionEntry { return &v.SectionEntry },
		values:   func(v *domain.Skill) []any { return []any{v.Name, v.Proficiency} },
		dest:     func(v *domain.Skill) []any { return []any{&v.Name, &v.Proficiency} },
		nameKey:  "user_skills_user_name_key",
		name:     func(v *domain.Skill) string { return v.Name },
	}}
}

func NewInterestRepository(db database.DBTX) *SectionRepository[domain.Interest] {
	return &SectionRepository[domain.Interest]{db: db, t: sectionTable[domain.Interest]{
		op:       "Interest",
		resource: "interest",
		table:    "user_interests",
		columns:  []string{"name", "description"},
		order:    "name",
		entry:    func(v *domain.Interest) *domain.SectionEntry { return &v.SectionEntry },
		values:   func(v *domain.Interest) []any { return []any{v.Name, v.Description} },
		dest:     func(v *domain.Interest) []any { return []any{&v.Name, &v.Description} },
		nameKey:  "user_interests_user_name_key",
		name:     func(v *domain.Interest) string { return v.Name },
	}}
}

func NewProjectRepository(db database.DBTX) *SectionRepository[domain.Project] {
	return &SectionRepository[domain.Project]{db: db, t: sectionTable[domain.Project]{
		op:       "Project",
		resource: "project",
		table:    "user_projects",
		columns: []string{
			"title", "description", "technologies_used", "project_url", "github_url", "image_url",
			"start_date", "end_date", "is_current",
		},
		order: "end_date DESC NULLS FIRST, start_date DESC",
		entry: func(v *domain.Project) *domain.SectionEntry { return &v.SectionEntry },
		values: func(v *domain.Project) []any {
			return []any{v.Title, v.Description, v.Technologies, v.ProjectURL, v.GitHubURL, v.ImageURL, v.StartDate, v.EndDate, v.IsCurrent}
		},
		dest: func(v *domain.Project) []any {
			return []any{&v.Title, &v.Description, &v.Technologies, &v.ProjectURL, &v.GitHubURL, &v.ImageURL, &v.StartDate, &v.EndDate, &v.IsCurrent}
		},
	}}
}
