package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/venkatesh-palenso/palenso-api/internal/auth"
	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByMobile(ctx context.Context, mobile string) (*domain.User, error) {
	args := m.Called(ctx, mobile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepository) ExistsByMobile(ctx context.Context, mobile string) (bool, error) {
	args := m.Called(ctx, mobile)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, actor domain.Actor, user *domain.User) error {
	args := m.Called(ctx, actor, user)
	return args.Error(0)
}

func (m *mockUserRepository) MarkEmailVerified(ctx context.Context, actor domain.Actor, userID string) error {
	args := m.Called(ctx, actor, userID)
	return args.Error(0)
}

func (m *mockUserRepository) MarkMobileVerified(ctx context.Context, actor domain.Actor, userID string) error {
	args := m.Called(ctx, actor, userID)
	return args.Error(0)
}

func (m *mockUserRepository) Activate(ctx context.Context, actor domain.Actor, userID, passwordHash string) error {
	args := m.Called(ctx, actor, userID, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepository) SetChannel(ctx context.Context, actor domain.Actor, userID string, channel domain.Channel, value string) error {
	args := m.Called(ctx, actor, userID, channel, value)
	return args.Error(0)
}

func (m *mockUserRepository) SetPassword(ctx context.Context, actor domain.Actor, userID, passwordHash string) error {
	args := m.Called(ctx, actor, userID, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepository) RecordLogin(ctx context.Context, actor domain.Actor, userID string, meta domain.LoginMeta) error {
	args := m.Called(ctx, actor, userID, meta)
	return args.Error(0)
}

func (m *mockUserRepository) RecordLogout(ctx context.Context, actor domain.Actor, userID, ip string) error {
	args := m.Called(ctx, actor, userID, ip)
	return args.Error(0)
}

func (m *mockUserRepository) TouchLastActive(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Mock Token Repository ---

type mockTokenRepository struct {
	mock.Mock
}

func (m *mockTokenRepository) Create(ctx context.Context, token *domain.Token, ttl time.Duration) error {
	args := m.Called(ctx, token, ttl)
	return args.Error(0)
}

func (m *mockTokenRepository) FindValid(ctx context.Context, value string, tokenType domain.TokenType) (*domain.Token, error) {
	args := m.Called(ctx, value, tokenType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Token), args.Error(1)
}

func (m *mockTokenRepository) Consume(ctx context.Context, value string, tokenType domain.TokenType) (*domain.Token, error) {
	args := m.Called(ctx, value, tokenType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Token), args.Error(1)
}

func (m *mockTokenRepository) InvalidateOutstanding(ctx context.Context, userID string, tokenType domain.TokenType) (int64, error) {
	args := m.Called(ctx, userID, tokenType)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock Refresh Token Repository ---

type mockRefreshTokenRepository struct {
	mock.Mock
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *mockRefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	args := m.Called(ctx, tokenHash)
	return args.Bool(0), args.Error(1)
}

func (m *mockRefreshTokenRepository) RevokeByUserID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Mock Company Repository ---

type mockCompanyRepository struct {
	mock.Mock
}

func (m *mockCompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *mockCompanyRepository) GetByID(ctx context.Context, id string) (*domain.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

func (m *mockCompanyRepository) GetByEmployerID(ctx context.Context, employerID string) (*domain.Company, error) {
	args := m.Called(ctx, employerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

func (m *mockCompanyRepository) Update(ctx context.Context, actor domain.Actor, company *domain.Company) error {
	args := m.Called(ctx, actor, company)
	return args.Error(0)
}

func (m *mockCompanyRepository) List(ctx context.Context, params pagination.Params) ([]domain.Company, int, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]domain.Company), args.Int(1), args.Error(2)
}

func (m *mockCompanyRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

// --- Mock Job Repository ---

type mockJobRepository struct {
	mock.Mock
}

func (m *mockJobRepository) Create(ctx context.Context, job *domain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockJobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Job), args.Error(1)
}

func (m *mockJobRepository) Update(ctx context.Context, actor domain.Actor, job *domain.Job) error {
	args := m.Called(ctx, actor, job)
	return args.Error(0)
}

func (m *mockJobRepository) List(ctx context.Context, filter domain.JobFilter, params pagination.Params) ([]domain.Job, int, error) {
	args := m.Called(ctx, filter, params)
	return args.Get(0).([]domain.Job), args.Int(1), args.Error(2)
}

// --- Mock Application Repository ---

type mockApplicationRepository struct {
	mock.Mock
}

func (m *mockApplicationRepository) Create(ctx context.Context, application *domain.Application, maxApplications *int) error {
	args := m.Called(ctx, application, maxApplications)
	return args.Error(0)
}

func (m *mockApplicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *mockApplicationRepository) ListByApplicant(ctx context.Context, applicantID string, params pagination.Params) ([]domain.Application, int, error) {
	args := m.Called(ctx, applicantID, params)
	return args.Get(0).([]domain.Application), args.Int(1), args.Error(2)
}

func (m *mockApplicationRepository) ListByJob(ctx context.Context, jobID string, params pagination.Params) ([]domain.Application, int, error) {
	args := m.Called(ctx, jobID, params)
	return args.Get(0).([]domain.Application), args.Int(1), args.Error(2)
}

func (m *mockApplicationRepository) UpdateStatus(ctx context.Context, actor domain.Actor, id, status, employerNotes string) error {
	args := m.Called(ctx, actor, id, status, employerNotes)
	return args.Error(0)
}

// --- Mock Saved Job Repository ---

type mockSavedJobRepository struct {
	mock.Mock
}

func (m *mockSavedJobRepository) Save(ctx context.Context, saved *domain.SavedJob) error {
	args := m.Called(ctx, saved)
	return args.Error(0)
}

func (m *mockSavedJobRepository) Delete(ctx context.Context, studentID, jobID string) error {
	args := m.Called(ctx, studentID, jobID)
	return args.Error(0)
}

func (m *mockSavedJobRepository) List(ctx context.Context, studentID string, params pagination.Params) ([]domain.SavedJob, int, error) {
	args := m.Called(ctx, studentID, params)
	return args.Get(0).([]domain.SavedJob), args.Int(1), args.Error(2)
}

// --- Mock Resume Repository ---

type mockResumeRepository struct {
	mock.Mock
}

func (m *mockResumeRepository) Create(ctx context.Context, resume *domain.Resume) error {
	args := m.Called(ctx, resume)
	return args.Error(0)
}

func (m *mockResumeRepository) GetByID(ctx context.Context, id string) (*domain.Resume, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Resume), args.Error(1)
}

func (m *mockResumeRepository) ListByUser(ctx context.Context, userID string) ([]domain.Resume, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Resume), args.Error(1)
}

func (m *mockResumeRepository) Update(ctx context.Context, actor domain.Actor, resume *domain.Resume) error {
	args := m.Called(ctx, actor, resume)
	return args.Error(0)
}

func (m *mockResumeRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *mockResumeRepository) SetPrimary(ctx context.Context, actor domain.Actor, userID, id string) error {
	args := m.Called(ctx, actor, userID, id)
	return args.Error(0)
}

// --- Mock Profile Repositories ---

type mockProfileRepository struct {
	mock.Mock
}

func (m *mockProfileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *mockProfileRepository) Upsert(ctx context.Context, actor domain.Actor, profile *domain.Profile) error {
	args := m.Called(ctx, actor, profile)
	return args.Error(0)
}

type mockSectionRepository[T any] struct {
	mock.Mock
}

func (m *mockSectionRepository[T]) Create(ctx context.Context, entry *T) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockSectionRepository[T]) Get(ctx context.Context, userID, id string) (*T, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *mockSectionRepository[T]) ListByUser(ctx context.Context, userID string) ([]T, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *mockSectionRepository[T]) Update(ctx context.Context, actor domain.Actor, entry *T) error {
	args := m.Called(ctx, actor, entry)
	return args.Error(0)
}

func (m *mockSectionRepository[T]) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// --- Mock Event Repository ---

type mockEventRepository struct {
	mock.Mock
}

func (m *mockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *mockEventRepository) ListUpcoming(ctx context.Context, now time.Time, params pagination.Params) ([]domain.Event, int, error) {
	args := m.Called(ctx, now, params)
	return args.Get(0).([]domain.Event), args.Int(1), args.Error(2)
}

func (m *mockEventRepository) Register(ctx context.Context, registration *domain.EventRegistration, now time.Time) error {
	args := m.Called(ctx, registration, now)
	return args.Error(0)
}

func (m *mockEventRepository) CancelRegistration(ctx context.Context, eventID, participantID string) error {
	args := m.Called(ctx, eventID, participantID)
	return args.Error(0)
}

// --- Mock collaborators ---

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendVerification(ctx context.Context, user *domain.User, channel domain.Channel, code string, ttl time.Duration) error {
	args := m.Called(ctx, user, channel, code, ttl)
	return args.Error(0)
}

func (m *mockNotifier) SendPasswordReset(ctx context.Context, user *domain.User, channel domain.Channel, token string, ttl time.Duration) error {
	args := m.Called(ctx, user, channel, token, ttl)
	return args.Error(0)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishUserSignedUp(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishUserActivated(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishChannelVerified(ctx context.Context, userID string, channel domain.Channel) error {
	args := m.Called(ctx, userID, channel)
	return args.Error(0)
}

func (m *mockEventPublisher) PublishPasswordReset(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) Hit(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type stubEmailChecker struct {
	valid bool
}

func (s stubEmailChecker) Valid(string) bool { return s.valid }

// sequenceGenerator hands out predictable values: codes 100001, 100002, ...
// and opaque tokens opaque-1, opaque-2, ...
type sequenceGenerator struct {
	n int
}

func (g *sequenceGenerator) OTP(length int) (string, error) {
	g.n++
	return fmt.Sprintf("%0*d", length, 100000+g.n), nil
}

func (g *sequenceGenerator) Opaque() (string, error) {
	g.n++
	return fmt.Sprintf("opaque-%d", g.n), nil
}

// --- Test Helpers ---

const testPassword = "Secure123"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-key-for-testing", 15*time.Minute, 7*24*time.Hour)
}

var testAuthConfig = AuthConfig{BcryptCost: 4}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

func hashForTest(t *testing.T, password string) string {
	t.Helper()
	h, err := hashPassword(password, 4)
	require.NoError(t, err)
	return h
}

// authFixture bundles the account services over mocks.
type authFixture struct {
	users     *mockUserRepository
	tokens    *mockTokenRepository
	refreshes *mockRefreshTokenRepository
	notifier  *mockNotifier
	events    *mockEventPublisher
	limiter   *mockLimiter
	attempts  *mockLimiter

	store        *TokenStore
	sessions     *SessionService
	verification *VerificationService
	accounts     *AccountService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:     new(mockUserRepository),
		tokens:    new(mockTokenRepository),
		refreshes: new(mockRefreshTokenRepository),
		notifier:  new(mockNotifier),
		events:    new(mockEventPublisher),
		limiter:   new(mockLimiter),
		attempts:  new(mockLimiter),
	}
	logger := newTestLogger()
	f.store = NewTokenStore(f.tokens, &sequenceGenerator{}, 6)
	f.sessions = NewSessionService(newTestJWTManager(), f.refreshes, f.users, logger)
	f.verification = NewVerificationService(
		f.users, f.store, f.sessions, f.notifier, Limits{Requests: f.limiter}, nil, f.events, testAuthConfig, logger,
	)
	f.accounts = NewAccountService(f.users, f.verification, f.sessions, f.events, testAuthConfig, logger)
	return f
}

func (f *authFixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.users.AssertExpectations(t)
	f.tokens.AssertExpectations(t)
	f.refreshes.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.events.AssertExpectations(t)
	f.limiter.AssertExpectations(t)
	f.attempts.AssertExpectations(t)
}

// countAttempts routes confirmation attempts through f.attempts.
func (f *authFixture) countAttempts() {
	f.verification.limits.Attempts = f.attempts
}
