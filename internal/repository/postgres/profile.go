package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/pkg/database"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
)

const profileColumns = `user_id, bio, date_of_birth, gender, profile_picture_url, website, linkedin, github,
	twitter, country, state, city, created_by, updated_by, created_at, updated_at`

// ProfileRepository implements repository.ProfileRepository using PostgreSQL.
type ProfileRepository struct {
	db database.DBTX
}

func NewProfileRepository(db database.DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID).Scan(
		&p.UserID, &p.Bio, &p.DateOfBirth, &p.Gender, &p.ProfilePictureURL, &p.Website, &p.LinkedIn, &p.GitHub,
		&p.Twitter, &p.Country, &p.State, &p.City, &p.CreatedBy, &p.UpdatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("profile", userID)
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return &p, nil
}

// Upsert writes every field of p, creating the row on first save. The
// creation stamps of an existing row are kept.
func (r *ProfileRepository) Upsert(ctx context.Context, actor domain.Actor, p *domain.Profile) (err error) {
	query := `
		INSERT INTO user_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			bio = EXCLUDED.bio,
			date_of_birth = EXCLUDED.date_of_birth,
			gender = EXCLUDED.gender,
			profile_picture_url = EXCLUDED.profile_picture_url,
			website = EXCLUDED.website,
			linkedin = EXCLUDED.linkedin,
			github = EXCLUDED.github,
			twitter = EXCLUDED.twitter,
			country = EXCLUDED.country,
			state = EXCLUDED.state,
			city = EXCLUDED.city,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	ctx, end := database.TraceQuery(ctx, "UpsertProfile", query)
	defer func() { end(err) }()

	err = r.db.QueryRow(ctx, query,
		p.UserID, p.Bio, p.DateOfBirth, p.Gender, p.ProfilePictureURL, p.Website, p.LinkedIn, p.GitHub,
		p.Twitter, p.Country, p.State, p.City, actor.StampID(),
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("user", p.UserID)
		}
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
