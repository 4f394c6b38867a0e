package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/internal/service"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
	"github.com/venkatesh-palenso/palenso-api/pkg/pagination"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- users ---

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]domain.User)}
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *memUsers) find(match func(u domain.User) bool) (*domain.User, bool) {
	for _, u := range m.users {
		if match(u) {
			cp := u
			return &cp, true
		}
	}
	return nil, false
}

func (m *memUsers) update(id string, fn func(u *domain.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperrors.NotFound("user", id)
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	m.users[id] = u
	return nil
}

func (m *memUsers) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.find(func(u domain.User) bool { return strings.EqualFold(u.Email, user.Email) }); taken {
		return apperrors.AlreadyExists("user", "email", user.Email)
	}
	if user.MobileNumber != "" {
		if _, taken := m.find(func(u domain.User) bool { return u.MobileNumber == user.MobileNumber }); taken {
			return apperrors.AlreadyExists("user", "mobile_number", user.MobileNumber)
		}
	}
	m.users[user.ID] = *user
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, apperrors.NotFound("user", id)
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.find(func(u domain.User) bool { return strings.EqualFold(u.Email, email) }); ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user", email)
}

func (m *memUsers) GetByMobile(_ context.Context, mobile string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.find(func(u domain.User) bool { return u.MobileNumber == mobile }); ok {
		return u, nil
	}
	return nil, apperrors.NotFound("user", mobile)
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := m.GetByEmail(ctx, email)
	return err == nil && !u.PendingSignup(), nil
}

func (m *memUsers) ExistsByMobile(ctx context.Context, mobile string) (bool, error) {
	_, err := m.GetByMobile(ctx, mobile)
	return err == nil, nil
}

func (m *memUsers) UpdateProfile(_ context.Context, _ domain.Actor, user *domain.User) error {
	return m.update(user.ID, func(u *domain.User) {
		u.FirstName, u.LastName = user.FirstName, user.LastName
	})
}

func (m *memUsers) MarkEmailVerified(_ context.Context, _ domain.Actor, userID string) error {
	return m.update(userID, func(u *domain.User) { u.IsEmailVerified = true })
}

func (m *memUsers) MarkMobileVerified(_ context.Context, _ domain.Actor, userID string) error {
	return m.update(userID, func(u *domain.User) { u.IsMobileVerified = true })
}

func (m *memUsers) Activate(_ context.Context, _ domain.Actor, userID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.IsActive || !u.IsEmailVerified || (u.MobileNumber != "" && !u.IsMobileVerified) {
		return apperrors.PreconditionFailed("signup is already complete or not verified")
	}
	u.PasswordHash = passwordHash
	u.IsActive = true
	m.users[userID] = u
	return nil
}

func (m *memUsers) SetChannel(_ context.Context, _ domain.Actor, userID string, channel domain.Channel, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok || u.IsVerified(channel) {
		return apperrors.PreconditionFailed(fmt.Sprintf("a verified %s cannot be replaced", channel))
	}
	if other, taken := m.find(func(o domain.User) bool {
		return o.ID != userID && strings.EqualFold(o.ChannelValue(channel), value)
	}); taken {
		return apperrors.AlreadyExists("user", string(channel), other.ChannelValue(channel))
	}
	if channel == domain.ChannelMobile {
		u.MobileNumber = value
	} else {
		u.Email = value
	}
	m.users[userID] = u
	return nil
}

func (m *memUsers) SetPassword(_ context.Context, _ domain.Actor, userID, passwordHash string) error {
	return m.update(userID, func(u *domain.User) { u.PasswordHash = passwordHash })
}

func (m *memUsers) RecordLogin(_ context.Context, _ domain.Actor, userID string, meta domain.LoginMeta) error {
	return m.update(userID, func(u *domain.User) {
		now := time.Now().UTC()
		u.LastLoginTime = &now
		u.LastLoginIP = meta.IP
		u.LastLoginMedium = meta.Medium
		u.LastLoginUAgent = meta.UserAgent
	})
}

func (m *memUsers) RecordLogout(_ context.Context, _ domain.Actor, userID, ip string) error {
	return m.update(userID, func(u *domain.User) {
		now := time.Now().UTC()
		u.LastLogoutTime = &now
		u.LastLogoutIP = ip
	})
}

func (m *memUsers) TouchLastActive(_ context.Context, userID string) error {
	return m.update(userID, func(u *domain.User) {
		now := time.Now().UTC()
		u.LastActive = &now
	})
}

// --- single-use tokens ---

type memTokens struct {
	mu     sync.Mutex
	tokens []*domain.Token
}

func (m *memTokens) Create(_ context.Context, token *domain.Token, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Value == token.Value {
			return apperrors.ErrDuplicateToken
		}
	}
	token.CreatedAt = time.Now().UTC()
	token.ExpiresAt = token.CreatedAt.Add(ttl)
	cp := *token
	m.tokens = append(m.tokens, &cp)
	return nil
}

func (m *memTokens) usable(value string, tokenType domain.TokenType) *domain.Token {
	now := time.Now().UTC()
	for _, t := range m.tokens {
		if t.Value == value && t.Type == tokenType && t.IsValidAt(now) {
			return t
		}
	}
	return nil
}

func (m *memTokens) FindValid(_ context.Context, value string, tokenType domain.TokenType) (*domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t := m.usable(value, tokenType); t != nil {
		cp := *t
		return &cp, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *memTokens) Consume(_ context.Context, value string, tokenType domain.TokenType) (*domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.usable(value, tokenType)
	if t == nil {
		return nil, apperrors.ErrInvalidToken
	}
	now := time.Now().UTC()
	t.IsUsed, t.UsedAt = true, &now
	cp := *t
	return &cp, nil
}

func (m *memTokens) InvalidateOutstanding(_ context.Context, userID string, tokenType domain.TokenType) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.tokens {
		if t.UserID == userID && t.Type == tokenType && !t.IsUsed {
			t.IsUsed = true
			n++
		}
	}
	return n, nil
}

func (m *memTokens) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tokens[:0]
	var n int64
	for _, t := range m.tokens {
		if t.ExpiresAt.Before(cutoff) || (t.UsedAt != nil && t.UsedAt.Before(cutoff)) {
			n++
			continue
		}
		kept = append(kept, t)
	}
	m.tokens = kept
	return n, nil
}

// --- refresh tokens ---

type memRefreshes struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
}

func newMemRefreshes() *memRefreshes {
	return &memRefreshes{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *memRefreshes) Create(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenHash] = &domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

func (m *memRefreshes) GetByHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[tokenHash]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *memRefreshes) Revoke(_ context.Context, tokenHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenHash]
	if !ok || t.RevokedAt != nil {
		return false, nil
	}
	now := time.Now().UTC()
	t.RevokedAt = &now
	return true, nil
}

func (m *memRefreshes) RevokeByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for _, t := range m.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
		}
	}
	return nil
}

// --- companies ---

type memCompanies struct {
	mu        sync.Mutex
	companies map[string]domain.Company
}

func newMemCompanies() *memCompanies {
	return &memCompanies{companies: make(map[string]domain.Company)}
}

func (m *memCompanies) Create(_ context.Context, company *domain.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.companies {
		if c.EmployerID == company.EmployerID {
			return apperrors.AlreadyExists("company", "employer_id", company.EmployerID)
		}
	}
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	m.companies[company.ID] = *company
	return nil
}

func (m *memCompanies) GetByID(_ context.Context, id string) (*domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.companies[id]; ok {
		return &c, nil
	}
	return nil, apperrors.NotFound("company", id)
}

func (m *memCompanies) GetByEmployerID(_ context.Context, employerID string) (*domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.companies {
		if c.EmployerID == employerID {
			return &c, nil
		}
	}
	return nil, apperrors.NotFound("company", employerID)
}

func (m *memCompanies) Update(_ context.Context, _ domain.Actor, company *domain.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.companies[company.ID]; !ok {
		return apperrors.NotFound("company", company.ID)
	}
	m.companies[company.ID] = *company
	return nil
}

func (m *memCompanies) List(_ context.Context, params pagination.Params) ([]domain.Company, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]domain.Company, 0, len(m.companies))
	for _, c := range m.companies {
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	total := len(all)
	if params.Offset >= total {
		return []domain.Company{}, total, nil
	}
	end := min(params.Offset+params.PerPage, total)
	return all[params.Offset:end], total, nil
}

func (m *memCompanies) SlugExists(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.companies {
		if c.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// --- profiles ---

type memProfiles struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{profiles: make(map[string]domain.Profile)}
}

func (m *memProfiles) Get(_ context.Context, userID string) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, apperrors.NotFound("profile", userID)
	}
	return &p, nil
}

func (m *memProfiles) Upsert(_ context.Context, _ domain.Actor, p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if old, ok := m.profiles[p.UserID]; ok {
		p.CreatedAt = old.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	m.profiles[p.UserID] = *p
	return nil
}

// memSection stores one profile section. name, when set, must be unique per
// user regardless of case.
type memSection[T any] struct {
	mu      sync.Mutex
	entries map[string]T
	entry   func(*T) *domain.SectionEntry
	name    func(*T) string
}

func newMemSection[T any](entry func(*T) *domain.SectionEntry, name func(*T) string) *memSection[T] {
	return &memSection[T]{entries: make(map[string]T), entry: entry, name: name}
}

func (m *memSection[T]) nameTaken(v *T) bool {
	if m.name == nil {
		return false
	}
	e := m.entry(v)
	for _, other := range m.entries {
		oe := m.entry(&other)
		if oe.UserID == e.UserID && oe.ID != e.ID && strings.EqualFold(m.name(&other), m.name(v)) {
			return true
		}
	}
	return false
}

func (m *memSection[T]) Create(_ context.Context, v *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.nameTaken(v) {
		return apperrors.AlreadyExists("entry", "name", m.name(v))
	}
	m.entries[m.entry(v).ID] = *v
	return nil
}

func (m *memSection[T]) Get(_ context.Context, userID, id string) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[id]
	if !ok || m.entry(&v).UserID != userID {
		return nil, apperrors.NotFound("entry", id)
	}
	return &v, nil
}

func (m *memSection[T]) ListByUser(_ context.Context, userID string) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []T
	for _, v := range m.entries {
		if m.entry(&v).UserID == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return m.entry(&out[i]).CreatedAt.Before(m.entry(&out[j]).CreatedAt)
	})
	return out, nil
}

func (m *memSection[T]) Update(_ context.Context, _ domain.Actor, v *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(v)
	old, ok := m.entries[e.ID]
	if !ok || m.entry(&old).UserID != e.UserID {
		return apperrors.NotFound("entry", e.ID)
	}
	if m.nameTaken(v) {
		return apperrors.AlreadyExists("entry", "name", m.name(v))
	}
	m.entries[e.ID] = *v
	return nil
}

func (m *memSection[T]) Delete(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[id]
	if !ok || m.entry(&v).UserID != userID {
		return apperrors.NotFound("entry", id)
	}
	delete(m.entries, id)
	return nil
}

func newMemProfileSections() service.ProfileSections {
	return service.ProfileSections{
		Education:      newMemSection(func(v *domain.Education) *domain.SectionEntry { return &v.SectionEntry }, nil),
		WorkExperience: newMemSection(func(v *domain.WorkExperience) *domain.SectionEntry { return &v.SectionEntry }, nil),
		Skills: newMemSection(func(v *domain.Skill) *domain.SectionEntry { return &v.SectionEntry },
			func(v *domain.Skill) string { return v.Name }),
		Interests: newMemSection(func(v *domain.Interest) *domain.SectionEntry { return &v.SectionEntry },
			func(v *domain.Interest) string { return v.Name }),
		Projects: newMemSection(func(v *domain.Project) *domain.SectionEntry { return &v.SectionEntry }, nil),
	}
}

// --- notifier ---

type sentCode struct {
	userID  string
	channel domain.Channel
	code    string
}

// captureNotifier records every code instead of delivering it.
type captureNotifier struct {
	mu     sync.Mutex
	codes  []sentCode
	resets []sentCode

	// failNext makes that many upcoming verification sends fail.
	failNext int
}

func (n *captureNotifier) SendVerification(_ context.Context, user *domain.User, channel domain.Channel, code string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failNext > 0 {
		n.failNext--
		return fmt.Errorf("gateway unavailable")
	}
	n.codes = append(n.codes, sentCode{userID: user.ID, channel: channel, code: code})
	return nil
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, user *domain.User, channel domain.Channel, token string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, sentCode{userID: user.ID, channel: channel, code: token})
	return nil
}

// lastCode returns the most recent code sent to userID over channel.
func (n *captureNotifier) lastCode(userID string, channel domain.Channel) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.codes) - 1; i >= 0; i-- {
		if n.codes[i].userID == userID && n.codes[i].channel == channel {
			return n.codes[i].code
		}
	}
	return ""
}

func (n *captureNotifier) failSends(count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failNext = count
}

func (n *captureNotifier) resetCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.resets)
}

func (n *captureNotifier) lastReset() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.resets) == 0 {
		return ""
	}
	return n.resets[len(n.resets)-1].code
}
