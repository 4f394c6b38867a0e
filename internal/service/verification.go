package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/internal/ratelimit"
	"github.com/venkatesh-palenso/palenso-api/internal/repository"
	apperrors "github.com/venkatesh-palenso/palenso-api/pkg/errors"
	"github.com/venkatesh-palenso/palenso-api/pkg/validator"
)

const (
	defaultVerificationTTL = 10 * time.Minute
	defaultResetTTL        = time.Hour
)

// AuthConfig tunes token lifetimes and password hashing.
type AuthConfig struct {
	VerificationTTL time.Duration
	ResetTTL        time.Duration
	BcryptCost      int
}

func (c AuthConfig) withDefaults() AuthConfig {
	if c.VerificationTTL <= 0 {
		c.VerificationTTL = defaultVerificationTTL
	}
	if c.ResetTTL <= 0 {
		c.ResetTTL = defaultResetTTL
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcryptCost
	}
	return c
}

// Limits throttles the verification workflow. Either limiter may be nil.
type Limits struct {
	// Requests bounds how many codes or reset links one address can ask for.
	Requests RateLimiter
	// Attempts bounds how many codes one address, or reset tokens one client
	// IP, may try. Reaching it spends the address's outstanding codes.
	Attempts RateLimiter
}

// VerificationService drives email and mobile verification, password reset
// and signup completion. Every flow spends a single-use token from the
// TokenStore.
type VerificationService struct {
	users    repository.UserRepository
	tokens   *TokenStore
	sessions *SessionService
	notifier Notifier
	limits   Limits
	emails   EmailChecker
	events   EventPublisher
	cfg      AuthConfig
	logger   *slog.Logger
}

// NewVerificationService wires the workflow. emails may be nil, in which case
// addresses are only checked for syntax.
func NewVerificationService(
	users repository.UserRepository,
	tokens *TokenStore,
	sessions *SessionService,
	notifier Notifier,
	limits Limits,
	emails EmailChecker,
	events EventPublisher,
	cfg AuthConfig,
	logger *slog.Logger,
) *VerificationService {
	return &VerificationService{
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		notifier: notifier,
		limits:   limits,
		emails:   emails,
		events:   events,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

// checkChannelValue rejects a malformed address for channel and returns the
// normalized value.
func (s *VerificationService) checkChannelValue(channel domain.Channel, value string) (string, error) {
	switch channel {
	case domain.ChannelEmail:
		value = normalizeEmail(value)
		if !validator.IsEmail(value) {
			return "", apperrors.InvalidInput("email must be a valid email address")
		}
		if s.emails != nil && !s.emails.Valid(value) {
			return "", apperrors.InvalidInput("email address cannot receive mail")
		}
	case domain.ChannelMobile:
		value = strings.TrimSpace(value)
		if !validator.IsMobile(value) {
			return "", apperrors.InvalidInput("mobile_number must be a valid mobile number of at most 15 digits")
		}
	default:
		return "", apperrors.InvalidInput("channel must be email or mobile")
	}
	return value, nil
}

// throttle spends one hit of id's budget on limiter. A failing limiter lets
// the request through so verification stays usable while Redis is down.
func (s *VerificationService) throttle(ctx context.Context, limiter RateLimiter, kind, id, message string) error {
	if limiter == nil {
		return nil
	}
	err := limiter.Hit(ctx, kind+":"+id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ratelimit.ErrLimited):
		return apperrors.RateLimited(message)
	default:
		s.logger.WarnContext(ctx, "rate limiter unavailable, allowing request",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
		return nil
	}
}

const msgTooManyRequests = "too many requests for this address, try again later"

func (s *VerificationService) userByChannel(ctx context.Context, channel domain.Channel, value string) (*domain.User, error) {
	if channel == domain.ChannelMobile {
		return s.users.GetByMobile(ctx, value)
	}
	return s.users.GetByEmail(ctx, value)
}

// RequestVerification sends a fresh code to value on channel for userID.
// While the channel is unverified, a value different from the one on file
// replaces it; that is how a mobile number is added after signup or a
// mistyped email corrected. Earlier codes of the same kind stop working.
func (s *VerificationService) RequestVerification(ctx context.Context, channel domain.Channel, value, userID string) error {
	value, err := s.checkChannelValue(channel, value)
	if err != nil {
		return err
	}
	if userID == "" {
		return apperrors.InvalidInput("user_id is required")
	}
	if err := s.throttle(ctx, s.limits.Requests, "verify", string(channel)+":"+value, msgTooManyRequests); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user for verification: %w", err)
	}
	sameValue := strings.EqualFold(user.ChannelValue(channel), value)
	if user.IsVerified(channel) {
		if sameValue {
			return apperrors.AlreadyVerified(string(channel))
		}
		return apperrors.PreconditionFailed(fmt.Sprintf("a verified %s cannot be replaced", channel))
	}
	if !sameValue {
		if err := s.users.SetChannel(ctx, domain.UserActor(user.ID, user.Role), user.ID, channel, value); err != nil {
			return fmt.Errorf("set %s: %w", channel, err)
		}
		if channel == domain.ChannelMobile {
			user.MobileNumber = value
		} else {
			user.Email = value
		}
		s.logger.InfoContext(ctx, "unverified address replaced",
			slog.String("user_id", user.ID),
			slog.String("channel", string(channel)),
		)
	}

	tokenType := channel.VerificationTokenType()
	if _, err := s.tokens.InvalidateOutstanding(ctx, user.ID, tokenType); err != nil {
		return err
	}
	token, err := s.tokens.Issue(ctx, user.ID, tokenType, s.cfg.VerificationTTL)
	if err != nil {
		return err
	}

	if err := s.notifier.SendVerification(ctx, user, channel, token.Value, s.cfg.VerificationTTL); err != nil {
		s.revokeUndelivered(ctx, user.ID, tokenType)
		return apperrors.DispatchFailed(string(channel), err)
	}

	s.logger.InfoContext(ctx, "verification code sent",
		slog.String("user_id", user.ID),
		slog.String("channel", string(channel)),
	)
	return nil
}

// revokeUndelivered spends a token whose message never left, so it cannot be
// guessed while the user believes no code exists.
func (s *VerificationService) revokeUndelivered(ctx context.Context, userID string, tokenType domain.TokenType) {
	if _, err := s.tokens.InvalidateOutstanding(ctx, userID, tokenType); err != nil {
		s.logger.ErrorContext(ctx, "failed to invalidate undelivered token",
			slog.String("user_id", userID),
			slog.String("type", string(tokenType)),
			slog.String("error", err.Error()),
		)
	}
}

// ConfirmVerification spends code and marks the channel of the user owning
// value as verified. Unknown addresses, wrong codes, codes of another user
// and spent or expired codes are indistinguishable to the caller. Once the
// address has used up its attempts, its outstanding codes are spent and a new
// one must be requested after the window.
func (s *VerificationService) ConfirmVerification(ctx context.Context, channel domain.Channel, value, code string) error {
	value, err := s.checkChannelValue(channel, value)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return apperrors.InvalidInput("code is required")
	}
	err = s.throttle(ctx, s.limits.Attempts, "confirm", string(channel)+":"+value,
		"too many attempts, request a new code later")
	if err != nil {
		s.spendCodes(ctx, channel, value)
		return err
	}

	user, err := s.userByChannel(ctx, channel, value)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.InvalidOrExpiredToken()
		}
		return fmt.Errorf("get user for confirmation: %w", err)
	}

	tokenType := channel.VerificationTokenType()
	token, err := s.tokens.FindValid(ctx, code, tokenType)
	if err != nil {
		return err
	}
	if token.UserID != user.ID {
		return apperrors.InvalidOrExpiredToken()
	}
	if _, err := s.tokens.Consume(ctx, code, tokenType); err != nil {
		return err
	}

	actor := domain.UserActor(user.ID, user.Role)
	if channel == domain.ChannelMobile {
		err = s.users.MarkMobileVerified(ctx, actor, user.ID)
	} else {
		err = s.users.MarkEmailVerified(ctx, actor, user.ID)
	}
	if err != nil {
		return fmt.Errorf("mark %s verified: %w", channel, err)
	}

	if err := s.events.PublishChannelVerified(ctx, user.ID, channel); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish channel_verified event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "channel verified",
		slog.String("user_id", user.ID),
		slog.String("channel", string(channel)),
	)
	return nil
}

// spendCodes invalidates the outstanding codes of the account owning value
// after it ran out of confirmation attempts.
func (s *VerificationService) spendCodes(ctx context.Context, channel domain.Channel, value string) {
	user, err := s.userByChannel(ctx, channel, value)
	if err != nil {
		return
	}
	n, err := s.tokens.InvalidateOutstanding(ctx, user.ID, channel.VerificationTokenType())
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to spend codes after too many attempts",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if n > 0 {
		s.logger.WarnContext(ctx, "codes spent after too many attempts",
			slog.String("user_id", user.ID),
			slog.String("channel", string(channel)),
		)
	}
}

// RequestPasswordReset sends a reset token to the account owning value. The
// outcome for unknown and inactive accounts is the same nil error, so the
// endpoint cannot be used to discover which addresses are registered.
func (s *VerificationService) RequestPasswordReset(ctx context.Context, channel domain.Channel, value string) error {
	value, err := s.checkChannelValue(channel, value)
	if err != nil {
		return err
	}
	if err := s.throttle(ctx, s.limits.Requests, "reset", string(channel)+":"+value, msgTooManyRequests); err != nil {
		return err
	}

	user, err := s.userByChannel(ctx, channel, value)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown address",
				slog.String("channel", string(channel)),
			)
			return nil
		}
		return fmt.Errorf("get user for password reset: %w", err)
	}
	if !user.IsActive {
		s.logger.InfoContext(ctx, "password reset requested for inactive account",
			slog.String("user_id", user.ID),
		)
		return nil
	}

	if _, err := s.tokens.InvalidateOutstanding(ctx, user.ID, domain.TokenForgotPassword); err != nil {
		return err
	}
	token, err := s.tokens.Issue(ctx, user.ID, domain.TokenForgotPassword, s.cfg.ResetTTL)
	if err != nil {
		return err
	}

	if err := s.notifier.SendPasswordReset(ctx, user, channel, token.Value, s.cfg.ResetTTL); err != nil {
		s.revokeUndelivered(ctx, user.ID, domain.TokenForgotPassword)
		return apperrors.DispatchFailed(string(channel), err)
	}

	s.logger.InfoContext(ctx, "password reset requested", slog.String("user_id", user.ID))
	return nil
}

// ConfirmPasswordReset spends token, sets the new password and signs the
// user out everywhere. Attempts are counted per clientIP when it is known.
func (s *VerificationService) ConfirmPasswordReset(ctx context.Context, token, newPassword, confirmPassword, clientIP string) error {
	if token == "" {
		return apperrors.InvalidInput("token is required")
	}
	if err := checkNewPassword(newPassword, confirmPassword); err != nil {
		return err
	}
	if clientIP != "" {
		err := s.throttle(ctx, s.limits.Attempts, "reset-confirm", clientIP, "too many attempts, try again later")
		if err != nil {
			return err
		}
	}

	hash, err := hashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	spent, err := s.tokens.Consume(ctx, token, domain.TokenForgotPassword)
	if err != nil {
		return err
	}

	actor := domain.UserActor(spent.UserID, "")
	if err := s.users.SetPassword(ctx, actor, spent.UserID, hash); err != nil {
		return fmt.Errorf("set password: %w", err)
	}

	if err := s.sessions.RevokeAll(ctx, spent.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke sessions after password reset",
			slog.String("user_id", spent.UserID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.events.PublishPasswordReset(ctx, spent.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish password_reset event",
			slog.String("user_id", spent.UserID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset completed", slog.String("user_id", spent.UserID))
	return nil
}

// CompleteSignup sets the first password of a verified account, activates it
// and signs the user in. Nothing is written unless the email, and the mobile
// number when one was given, are verified.
func (s *VerificationService) CompleteSignup(ctx context.Context, userID, password, confirmPassword string, meta domain.LoginMeta) (*domain.User, *domain.TokenPair, error) {
	if userID == "" {
		return nil, nil, apperrors.InvalidInput("user_id is required")
	}
	if err := checkNewPassword(password, confirmPassword); err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("get user for signup: %w", err)
	}
	if user.IsActive {
		return nil, nil, apperrors.PreconditionFailed("signup is already complete")
	}
	if !user.IsEmailVerified {
		return nil, nil, apperrors.PreconditionFailed("email must be verified")
	}
	if user.MobileNumber != "" && !user.IsMobileVerified {
		return nil, nil, apperrors.PreconditionFailed("mobile number must be verified")
	}

	hash, err := hashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	// Activate re-checks these conditions in its WHERE clause, so a
	// concurrent completion cannot overwrite the first password.
	actor := domain.UserActor(user.ID, user.Role)
	if err := s.users.Activate(ctx, actor, user.ID, hash); err != nil {
		return nil, nil, fmt.Errorf("activate user: %w", err)
	}
	user.PasswordHash = hash
	user.IsActive = true

	meta.Medium = domain.LoginMediumSignup
	if err := s.users.RecordLogin(ctx, actor, user.ID, meta); err != nil {
		s.logger.ErrorContext(ctx, "failed to record signup login",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	pair, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.events.PublishUserActivated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish activated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "signup completed", slog.String("user_id", user.ID))
	return user, pair, nil
}

// checkNewPassword validates a password and its confirmation.
func checkNewPassword(password, confirm string) error {
	if password != confirm {
		return apperrors.InvalidInput("passwords do not match")
	}
	if problem := validator.PasswordProblem(password); problem != "" {
		return apperrors.InvalidInput("password " + problem)
	}
	return nil
}
