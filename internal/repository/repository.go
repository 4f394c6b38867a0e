package repository

import (
	"context"
	"time"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
)

// UserRepository persists accounts. Every state transition is its own named
// operation taking the actor stamped into updated_by.
type UserRepository interface {
	// Create inserts a new user. A taken email or mobile number yields an
	// AlreadyExists error naming the field.
	Create(ctx context.Context, user *domain.User) error

	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByMobile(ctx context.Context, mobile string) (*domain.User, error)

	// ExistsByEmail does not count a signup whose email was never verified.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByMobile(ctx context.Context, mobile string) (bool, error)

	// UpdateProfile writes the editable profile fields of user.
	UpdateProfile(ctx context.Context, actor domain.Actor, user *domain.User) error

	MarkEmailVerified(ctx context.Context, actor domain.Actor, userID string) error
	MarkMobileVerified(ctx context.Context, actor domain.Actor, userID string) error

	// Activate sets the password and flips is_active in one statement, so an
	// active user always has a credential. It fails with PreconditionFailed
	// unless the account is inactive and its channels are verified.
	Activate(ctx context.Context, actor domain.Actor, userID, passwordHash string) error

	// SetChannel replaces an unverified email or mobile number. A verified
	// channel yields PreconditionFailed, an address held by another account
	// AlreadyExists.
	SetChannel(ctx context.Context, actor domain.Actor, userID string, channel domain.Channel, value string) error

	SetPassword(ctx context.Context, actor domain.Actor, userID, passwordHash string) error
	RecordLogin(ctx context.Context, actor domain.Actor, userID string, meta domain.LoginMeta) error
	RecordLogout(ctx context.Context, actor domain.Actor, userID, ip string) error
	TouchLastActive(ctx context.Context, userID string) error
}

// TokenRepository persists single-use tokens.
type TokenRepository interface {
	// Create inserts token expiring ttl from now, measured on the store's
	// clock, and sets token.CreatedAt and token.ExpiresAt. A value that
	// already exists yields apperrors.ErrDuplicateToken so the caller can
	// retry with a new value.
	Create(ctx context.Context, token *domain.Token, ttl time.Duration) error

	// FindValid returns the unused, unexpired token with value and type, or
	// ErrNotFound.
	FindValid(ctx context.Context, value string, tokenType domain.TokenType) (*domain.Token, error)

	// Consume atomically marks the token used. Of two concurrent calls for the
	// same token at most one succeeds; the other gets ErrInvalidToken.
	Consume(ctx context.Context, value string, tokenType domain.TokenType) (*domain.Token, error)

	// InvalidateOutstanding marks every usable token of userID and tokenType
	// as used and reports how many were affected.
	InvalidateOutstanding(ctx context.Context, userID string, tokenType domain.TokenType) (int64, error)

	// DeleteExpired removes tokens that expired or were used before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// RefreshTokenRepository defines the interface for refresh token persistence operations.
type RefreshTokenRepository interface {
	Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// Revoke revokes the token if it is still active and reports whether it did.
	Revoke(ctx context.Context, tokenHash string) (bool, error)

	RevokeByUserID(ctx context.Context, userID string) error
}

type CompanyRepository interface {
	// Create inserts company. A second company for the same employer yields
	// AlreadyExists.
	Create(ctx context.Context, company *domain.Company) error
	GetByID(ctx context.Context, id string) (*domain.Company, error)
	GetByEmployerID(ctx context.Context, employerID string) (*domain.Company, error)
	Update(ctx context.Context, actor domain.Actor, company *domain.Company) error
	List(ctx context.Context, params pagination.Params) ([]domain.Company, int, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
}

type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	Update(ctx context.Context, actor domain.Actor, job *domain.Job) error
	// List returns active jobs matching filter, newest first.
	List(ctx context.Context, filter domain.JobFilter, params pagination.Params) ([]domain.Job, int, error)
}

type ApplicationRepository interface {
	// Create inserts application while holding a lock on the job row, so the
	// job's application cap cannot be overrun by concurrent applicants.
	Create(ctx context.Context, application *domain.Application, maxApplications *int) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	ListByApplicant(ctx context.Context, applicantID string, params pagination.Params) ([]domain.Application, int, error)
	ListByJob(ctx context.Context, jobID string, params pagination.Params) ([]domain.Application, int, error)
	UpdateStatus(ctx context.Context, actor domain.Actor, id, status, employerNotes string) error
}

type SavedJobRepository interface {
	Save(ctx context.Context, saved *domain.SavedJob) error
	Delete(ctx context.Context, studentID, jobID string) error
	List(ctx context.Context, studentID string, params pagination.Params) ([]domain.SavedJob, int, error)
}

type ResumeRepository interface {
	Create(ctx context.Context, resume *domain.Resume) error
	GetByID(ctx context.Context, id string) (*domain.Resume, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Resume, error)
	// Update writes title, file URL and description. It fails with
	// ErrNotFound unless resume.UserID owns resume.ID.
	Update(ctx context.Context, actor domain.Actor, resume *domain.Resume) error
	Delete(ctx context.Context, userID, id string) error

	// SetPrimary clears the user's other primary resumes and marks id primary
	// in one transaction. It fails with ErrNotFound unless userID owns id.
	SetPrimary(ctx context.Context, actor domain.Actor, userID, id string) error
}

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	// Upsert creates the profile on first save and overwrites it afterwards.
	Upsert(ctx context.Context, actor domain.Actor, profile *domain.Profile) error
}

// SectionRepository stores the entries of one repeatable profile section.
// Every lookup is scoped to the owning user; another user's entry reads as
// not found.
type SectionRepository[T any] interface {
	Create(ctx context.Context, entry *T) error
	Get(ctx context.Context, userID, id string) (*T, error)
	ListByUser(ctx context.Context, userID string) ([]T, error)
	Update(ctx context.Context, actor domain.Actor, entry *T) error
	Delete(ctx context.Context, userID, id string) error
}

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	// ListUpcoming returns active events that have not ended at now.
	ListUpcoming(ctx context.Context, now time.Time, params pagination.Params) ([]domain.Event, int, error)

	// Register locks the event row, re-checks deadline and capacity, then
	// inserts the registration.
	Register(ctx context.Context, registration *domain.EventRegistration, now time.Time) error
	CancelRegistration(ctx context.Context, eventID, participantID string) error
}
