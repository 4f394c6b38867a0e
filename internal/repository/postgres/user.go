package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/pkg/database"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
)

const (
	constraintUserEmail    = "users_email_key"
	constraintUserMobile   = "users_mobile_number_key"
	constraintUserUsername = "users_username_key"
)

const userColumns = `id, username, email, mobile_number, password_hash, first_name, last_name, role,
	is_active, is_email_verified, is_mobile_verified, last_active, last_login_time, last_login_ip,
	last_login_medium, last_login_uagent, last_logout_time, last_logout_ip, created_by, updated_by,
	created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	query := `
		INSERT INTO users (id, username, email, mobile_number, first_name, last_name, role,
		                   is_active, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	ctx, end := database.TraceQuery(ctx, "CreateUser", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		u.ID,
		u.Username,
		nullIfEmpty(u.Email),
		nullIfEmpty(u.MobileNumber),
		u.FirstName,
		u.LastName,
		u.Role,
		u.IsActive,
		u.CreatedBy,
		u.UpdatedBy,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err, constraintUserEmail):
			return apperrors.AlreadyExists("user", "email", u.Email)
		case database.IsUniqueViolation(err, constraintUserMobile):
			return apperrors.AlreadyExists("user", "mobile_number", u.MobileNumber)
		case database.IsUniqueViolation(err, constraintUserUsername):
			return apperrors.AlreadyExists("user", "username", u.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(ctx, "GetUserByID", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail matches the address case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, "GetUserByEmail", `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *UserRepository) GetByMobile(ctx context.Context, mobile string) (*domain.User, error) {
	return r.scanUser(ctx, "GetUserByMobile", `SELECT `+userColumns+` FROM users WHERE mobile_number = $1`, mobile)
}

// ExistsByEmail ignores accounts whose signup never verified the email, since
// a new signup on that address resumes them.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE LOWER(email) = LOWER($1)
			  AND (is_active OR is_email_verified OR password_hash IS NOT NULL)
		)`, email)
}

func (r *UserRepository) ExistsByMobile(ctx context.Context, mobile string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE mobile_number = $1)`, mobile)
}

func (r *UserRepository) exists(ctx context.Context, query, arg string) (bool, error) {
	var ok bool
	if err := r.db.QueryRow(ctx, query, arg).Scan(&ok); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return ok, nil
}

// UpdateProfile writes first and last name.
func (r *UserRepository) UpdateProfile(ctx context.Context, actor domain.Actor, u *domain.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, updated_by = $3, updated_at = NOW()
		WHERE id = $4`

	return exec(ctx, r.db, "UpdateUserProfile", "user", u.ID, query, u.FirstName, u.LastName, actor.StampID(), u.ID)
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, actor domain.Actor, userID string) error {
	query := `UPDATE users SET is_email_verified = TRUE, updated_by = $1, updated_at = NOW() WHERE id = $2`
	return exec(ctx, r.db, "MarkEmailVerified", "user", userID, query, actor.StampID(), userID)
}

func (r *UserRepository) MarkMobileVerified(ctx context.Context, actor domain.Actor, userID string) error {
	query := `UPDATE users SET is_mobile_verified = TRUE, updated_by = $1, updated_at = NOW() WHERE id = $2`
	return exec(ctx, r.db, "MarkMobileVerified", "user", userID, query, actor.StampID(), userID)
}

// Activate only matches a pending account whose email, and mobile number when
// one is on file, are verified. Of two concurrent signup completions the
// second matches no row.
func (r *UserRepository) Activate(ctx context.Context, actor domain.Actor, userID, passwordHash string) (err error) {
	query := `
		UPDATE users
		SET password_hash = $1, is_active = TRUE, updated_by = $2, updated_at = NOW()
		WHERE id = $3 AND is_active = FALSE AND is_email_verified
		  AND (mobile_number IS NULL OR is_mobile_verified)`

	ctx, end := database.TraceQuery(ctx, "ActivateUser", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, passwordHash, actor.StampID(), userID)
	if err != nil {
		return fmt.Errorf("activate user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.PreconditionFailed("signup is already complete or not verified")
	}
	return nil
}

// SetChannel replaces the email or mobile number of userID as long as that
// channel is still unverified, and leaves it unverified.
func (r *UserRepository) SetChannel(ctx context.Context, actor domain.Actor, userID string, channel domain.Channel, value string) (err error) {
	column, flag, field := "email", "is_email_verified", "email"
	if channel == domain.ChannelMobile {
		column, flag, field = "mobile_number", "is_mobile_verified", "mobile_number"
	}
	query := `
		UPDATE users
		SET ` + column + ` = $1, ` + flag + ` = FALSE, updated_by = $2, updated_at = NOW()
		WHERE id = $3 AND ` + flag + ` = FALSE`

	ctx, end := database.TraceQuery(ctx, "SetUserChannel", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, value, actor.StampID(), userID)
	if err != nil {
		if database.IsUniqueViolation(err, constraintUserEmail) || database.IsUniqueViolation(err, constraintUserMobile) {
			return apperrors.AlreadyExists("user", field, value)
		}
		return fmt.Errorf("set user %s: %w", column, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.PreconditionFailed(fmt.Sprintf("a verified %s cannot be replaced", channel))
	}
	return nil
}

func (r *UserRepository) SetPassword(ctx context.Context, actor domain.Actor, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_by = $2, updated_at = NOW() WHERE id = $3`
	return exec(ctx, r.db, "SetUserPassword", "user", userID, query, passwordHash, actor.StampID(), userID)
}

func (r *UserRepository) RecordLogin(ctx context.Context, actor domain.Actor, userID string, meta domain.LoginMeta) error {
	query := `
		UPDATE users
		SET last_login_time = NOW(), last_active = NOW(), last_login_ip = $1, last_login_medium = $2,
		    last_login_uagent = $3, updated_by = $4, updated_at = NOW()
		WHERE id = $5`

	return exec(ctx, r.db, "RecordLogin", "user", userID, query,
		nullIfEmpty(meta.IP), nullIfEmpty(meta.Medium), nullIfEmpty(meta.UserAgent), actor.StampID(), userID)
}

func (r *UserRepository) RecordLogout(ctx context.Context, actor domain.Actor, userID, ip string) error {
	query := `
		UPDATE users
		SET last_logout_time = NOW(), last_logout_ip = $1, updated_by = $2, updated_at = NOW()
		WHERE id = $3`

	return exec(ctx, r.db, "RecordLogout", "user", userID, query, nullIfEmpty(ip), actor.StampID(), userID)
}

// TouchLastActive does not bump updated_at; activity is not an edit.
func (r *UserRepository) TouchLastActive(ctx context.Context, userID string) error {
	return exec(ctx, r.db, "TouchLastActive", "user", userID,
		`UPDATE users SET last_active = NOW() WHERE id = $1`, userID)
}

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, op, query string, args ...any) (u *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	var user domain.User
	var email, mobile, hash, loginIP, loginMedium, uagent, logoutIP *string
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Username,
		&email,
		&mobile,
		&hash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.IsActive,
		&user.IsEmailVerified,
		&user.IsMobileVerified,
		&user.LastActive,
		&user.LastLoginTime,
		&loginIP,
		&loginMedium,
		&uagent,
		&user.LastLogoutTime,
		&logoutIP,
		&user.CreatedBy,
		&user.UpdatedBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "scan user")
	}

	user.Email = deref(email)
	user.MobileNumber = deref(mobile)
	user.PasswordHash = deref(hash)
	user.LastLoginIP = deref(loginIP)
	user.LastLoginMedium = deref(loginMedium)
	user.LastLoginUAgent = deref(uagent)
	user.LastLogoutIP = deref(logoutIP)
	return &user, nil
}
