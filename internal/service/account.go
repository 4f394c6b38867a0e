package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/internal/repository"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
	"github.com/venkatesh-palenso/palenso-api/pkg/validator"
)

// msgInvalidCredentials is shared by every sign-in failure that happens
// before the password matched.
const msgInvalidCredentials = "invalid credentials"

// AccountService runs signup, sign-in, sign-out, password changes and the
// caller's own profile.
type AccountService struct {
	users        repository.UserRepository
	verification *VerificationService
	sessions     *SessionService
	events       EventPublisher
	cfg          AuthConfig
	logger       *slog.Logger
}

func NewAccountService(
	users repository.UserRepository,
	verification *VerificationService,
	sessions *SessionService,
	events EventPublisher,
	cfg AuthConfig,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:        users,
		verification: verification,
		sessions:     sessions,
		events:       events,
		cfg:          cfg.withDefaults(),
		logger:       logger,
	}
}

// --- Input types ---

// SignupInput holds the parameters for starting a signup.
type SignupInput struct {
	Email        string
	MobileNumber string
	FirstName    string
	LastName     string
	Role         string
}

// SignInInput identifies the account by exactly one of email or mobile.
type SignInInput struct {
	Email        string
	MobileNumber string
	Password     string
}

// UpdateMeInput holds the editable profile fields. Nil fields are unchanged.
type UpdateMeInput struct {
	FirstName *string
	LastName  *string
}

// ChannelOf picks the channel from an email-or-mobile pair, rejecting both
// or neither.
func ChannelOf(email, mobile string) (domain.Channel, string, error) {
	email, mobile = strings.TrimSpace(email), strings.TrimSpace(mobile)
	switch {
	case email != "" && mobile != "":
		return "", "", apperrors.InvalidInput("provide either email or mobile_number, not both")
	case email != "":
		return domain.ChannelEmail, email, nil
	case mobile != "":
		return domain.ChannelMobile, mobile, nil
	default:
		return "", "", apperrors.InvalidInput("email or mobile_number is required")
	}
}

// CheckAvailability reports whether the email or mobile number is still free.
func (s *AccountService) CheckAvailability(ctx context.Context, email, mobile string) (bool, error) {
	channel, value, err := ChannelOf(email, mobile)
	if err != nil {
		return false, err
	}

	var taken bool
	if channel == domain.ChannelMobile {
		if !validator.IsMobile(value) {
			return false, apperrors.InvalidInput("mobile_number must be a valid mobile number of at most 15 digits")
		}
		taken, err = s.users.ExistsByMobile(ctx, value)
	} else {
		value = normalizeEmail(value)
		if !validator.IsEmail(value) {
			return false, apperrors.InvalidInput("email must be a valid email address")
		}
		taken, err = s.users.ExistsByEmail(ctx, value)
	}
	if err != nil {
		return false, fmt.Errorf("check %s availability: %w", channel, err)
	}
	return !taken, nil
}

// StartSignup creates an inactive account without a password and sends the
// verification codes. The account becomes usable through CompleteSignup.
//
// An address whose earlier signup never verified its email is not taken: the
// pending account is resumed with fresh codes, so a failed first delivery or a
// lost response does not lock the address out.
func (s *AccountService) StartSignup(ctx context.Context, input SignupInput) (*domain.User, error) {
	email := normalizeEmail(input.Email)
	mobile := strings.TrimSpace(input.MobileNumber)

	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if !validator.IsEmail(email) {
		return nil, apperrors.InvalidInput("email must be a valid email address")
	}
	if mobile != "" && !validator.IsMobile(mobile) {
		return nil, apperrors.InvalidInput("mobile_number must be a valid mobile number of at most 15 digits")
	}

	role := input.Role
	if role == "" {
		role = domain.RoleStudent
	}
	if !domain.IsSignupRole(role) {
		return nil, apperrors.InvalidInput("role must be one of: student employer")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.PendingSignup() {
			return nil, apperrors.AlreadyExists("user", "email", email)
		}
		s.logger.InfoContext(ctx, "resuming pending signup", slog.String("user_id", existing.ID))
		if err := s.sendSignupCodes(ctx, existing, mobile); err != nil {
			return nil, err
		}
		return existing, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("look up signup email: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     strings.ReplaceAll(uuid.NewString(), "-", ""),
		Email:        email,
		MobileNumber: mobile,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "signup started", slog.String("user_id", user.ID))

	if err := s.events.PublishUserSignedUp(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish signed_up event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.sendSignupCodes(ctx, user, mobile); err != nil {
		return nil, err
	}
	return user, nil
}

// sendSignupCodes sends the email code and, when mobile is given and not yet
// verified on user, the SMS code. A mobile number that differs from the one
// on file replaces it.
func (s *AccountService) sendSignupCodes(ctx context.Context, user *domain.User, mobile string) error {
	if err := s.verification.RequestVerification(ctx, domain.ChannelEmail, user.Email, user.ID); err != nil {
		return err
	}
	if mobile == "" || (mobile == user.MobileNumber && user.IsMobileVerified) {
		return nil
	}
	if err := s.verification.RequestVerification(ctx, domain.ChannelMobile, mobile, user.ID); err != nil {
		return err
	}
	user.MobileNumber = mobile
	return nil
}

// SignIn checks the password of an active account and issues a token pair.
// Unknown accounts, wrong passwords and accounts without a password all fail
// with the same message.
func (s *AccountService) SignIn(ctx context.Context, input SignInInput, meta domain.LoginMeta) (*domain.User, *domain.TokenPair, error) {
	channel, value, err := ChannelOf(input.Email, input.MobileNumber)
	if err != nil {
		return nil, nil, err
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	var user *domain.User
	if channel == domain.ChannelMobile {
		user, err = s.users.GetByMobile(ctx, value)
	} else {
		user, err = s.users.GetByEmail(ctx, normalizeEmail(value))
	}
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.Forbidden(msgInvalidCredentials)
		}
		return nil, nil, fmt.Errorf("get user for sign in: %w", err)
	}

	if !passwordMatches(user.PasswordHash, input.Password) {
		return nil, nil, apperrors.Forbidden(msgInvalidCredentials)
	}
	if !user.IsActive {
		return nil, nil, apperrors.Forbidden("account is not active")
	}

	meta.Medium = string(channel)
	if err := s.users.RecordLogin(ctx, domain.UserActor(user.ID, user.Role), user.ID, meta); err != nil {
		s.logger.ErrorContext(ctx, "failed to record login",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	pair, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "user signed in",
		slog.String("user_id", user.ID),
		slog.String("medium", meta.Medium),
	)
	return user, pair, nil
}

// SignOut revokes refreshToken and records the logout.
func (s *AccountService) SignOut(ctx context.Context, actor domain.Actor, refreshToken, ip string) error {
	if refreshToken == "" {
		return apperrors.InvalidInput("refresh_token is required")
	}
	if err := s.sessions.Revoke(ctx, refreshToken); err != nil {
		return err
	}

	if err := s.users.RecordLogout(ctx, actor, actor.UserID, ip); err != nil {
		s.logger.ErrorContext(ctx, "failed to record logout",
			slog.String("user_id", actor.UserID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user signed out", slog.String("user_id", actor.UserID))
	return nil
}

// ChangePassword replaces the caller's password after checking the current
// one, then ends every session.
func (s *AccountService) ChangePassword(ctx context.Context, actor domain.Actor, oldPassword, newPassword, confirmPassword string) error {
	if oldPassword == "" {
		return apperrors.InvalidInput("old_password is required")
	}
	if oldPassword == newPassword {
		return apperrors.InvalidInput("new password must differ from the current password")
	}
	if err := checkNewPassword(newPassword, confirmPassword); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return fmt.Errorf("get user for password change: %w", err)
	}
	if !passwordMatches(user.PasswordHash, oldPassword) {
		return apperrors.Forbidden("current password is incorrect")
	}

	hash, err := hashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}
	if err := s.users.SetPassword(ctx, actor, user.ID, hash); err != nil {
		return fmt.Errorf("set password: %w", err)
	}

	if err := s.sessions.RevokeAll(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke sessions after password change",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", user.ID))
	return nil
}

// GetMe returns the caller's account and records activity.
func (s *AccountService) GetMe(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.users.TouchLastActive(ctx, user.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to record activity",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
	return user, nil
}

// UpdateMe changes the caller's name.
func (s *AccountService) UpdateMe(ctx context.Context, actor domain.Actor, input UpdateMeInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.FirstName != nil {
		name := strings.TrimSpace(*input.FirstName)
		if name == "" {
			return nil, apperrors.InvalidInput("first_name must not be empty")
		}
		user.FirstName = name
	}
	if input.LastName != nil {
		name := strings.TrimSpace(*input.LastName)
		if name == "" {
			return nil, apperrors.InvalidInput("last_name must not be empty")
		}
		user.LastName = name
	}

	if err := s.users.UpdateProfile(ctx, actor, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", user.ID))
	return user, nil
}
