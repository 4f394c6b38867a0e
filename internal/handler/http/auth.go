package http

import (
	"log/slog"
	"net/http"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/internal/service"
	"github.com/venkatesh-palenso/palenso-api/pkg/httputil"
)

// AuthHandler handles HTTP requests for the signup, verification and
// session endpoints.
type AuthHandler struct {
	accounts     *service.AccountService
	verification *service.VerificationService
	sessions     *service.SessionService
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(
	accounts *service.AccountService,
	verification *service.VerificationService,
	sessions *service.SessionService,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts:     accounts,
		verification: verification,
		sessions:     sessions,
		logger:       logger,
	}
}

// --- Request DTOs ---

// ChannelRequest names an account by exactly one of email or mobile number.
type ChannelRequest struct {
	Email        string `json:"email" validate:"omitempty,email"`
	MobileNumber string `json:"mobile_number" validate:"omitempty,mobile"`
}

// SignupRequest is the JSON request body for starting a signup.
type SignupRequest struct {
	Email        string `json:"email" validate:"required,email"`
	MobileNumber string `json:"mobile_number" validate:"omitempty,mobile"`
	FirstName    string `json:"first_name" validate:"max=100"`
	LastName     string `json:"last_name" validate:"max=100"`
	Role         string `json:"role" validate:"omitempty,oneof=student employer"`
}

// SendVerificationRequest asks for a fresh code on one channel of a user.
type SendVerificationRequest struct {
	ChannelRequest
	UserID string `json:"user_id" validate:"required,uuid"`
}

// VerifyEmailRequest is the JSON request body for confirming an email code.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

// VerifyMobileRequest is the JSON request body for confirming an SMS code.
type VerifyMobileRequest struct {
	MobileNumber string `json:"mobile_number" validate:"required,mobile"`
	Code         string `json:"code" validate:"required"`
}

// ResetPasswordRequest is the JSON request body for password reset.
type ResetPasswordRequest struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// CompleteSignupRequest sets the password of a verified, inactive account.
type CompleteSignupRequest struct {
	UserID          string `json:"user_id" validate:"required,uuid"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// SignInRequest is the JSON request body for signing in.
type SignInRequest struct {
	ChannelRequest
	Password string `json:"password" validate:"required"`
}

// RefreshTokenRequest is the JSON request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SignOutRequest carries the refresh credential to revoke. A missing value is
// reported by the service.
type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest is the JSON request body for changing the password.
type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// --- Response types ---

// AvailabilityResponse reports whether an email or mobile is still free.
type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// SignupResponse identifies the pending account.
type SignupResponse struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobile_number,omitempty"`
	Message      string `json:"message"`
}

// AuthResponse wraps user data with tokens.
type AuthResponse struct {
	User   *domain.User      `json:"user"`
	Tokens *domain.TokenPair `json:"tokens"`
}

// --- Handlers ---

// CheckAvailability handles POST /api/v1/auth/check-availability
func (h *AuthHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req ChannelRequest
	if !decode(w, r, &req) {
		return
	}

	available, err := h.accounts.CheckAvailability(r.Context(), req.Email, req.MobileNumber)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, AvailabilityResponse{Available: available})
}

// StartSignup handles POST /api/v1/auth/signup
func (h *AuthHandler) StartSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.accounts.StartSignup(r.Context(), service.SignupInput{
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, SignupResponse{
		UserID:       user.ID,
		Email:        user.Email,
		MobileNumber: user.MobileNumber,
		Message:      "verification code sent",
	})
}

// CompleteSignup handles PUT /api/v1/auth/signup
func (h *AuthHandler) CompleteSignup(w http.ResponseWriter, r *http.Request) {
	var req CompleteSignupRequest
	if !decode(w, r, &req) {
		return
	}

	user, tokens, err := h.verification.CompleteSignup(r.Context(), req.UserID, req.Password, req.ConfirmPassword, loginMeta(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, AuthResponse{User: user, Tokens: tokens})
}

// SendVerification handles POST /api/v1/auth/send-verification
func (h *AuthHandler) SendVerification(w http.ResponseWriter, r *http.Request) {
	var req SendVerificationRequest
	if !decode(w, r, &req) {
		return
	}

	channel, value, err := service.ChannelOf(req.Email, req.MobileNumber)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := h.verification.RequestVerification(r.Context(), channel, value, req.UserID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "verification code sent")
}

// VerifyEmail handles POST /api/v1/auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !decode(w, r, &req) {
		return
	}
	h.confirm(w, r, domain.ChannelEmail, req.Email, req.Code)
}

// VerifyMobile handles POST /api/v1/auth/verify-mobile
func (h *AuthHandler) VerifyMobile(w http.ResponseWriter, r *http.Request) {
	var req VerifyMobileRequest
	if !decode(w, r, &req) {
		return
	}
	h.confirm(w, r, domain.ChannelMobile, req.MobileNumber, req.Code)
}

func (h *AuthHandler) confirm(w http.ResponseWriter, r *http.Request, channel domain.Channel, value, code string) {
	if err := h.verification.ConfirmVerification(r.Context(), channel, value, code); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, string(channel)+" verified")
}

// ForgotPassword handles POST /api/v1/auth/forgot-password
//
// The response is the same whether or not the account exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ChannelRequest
	if !decode(w, r, &req) {
		return
	}

	channel, value, err := service.ChannelOf(req.Email, req.MobileNumber)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := h.verification.RequestPasswordReset(r.Context(), channel, value); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "if an account exists, a password reset link has been sent")
}

// ResetPassword handles POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.verification.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword, req.ConfirmPassword, clientIP(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "password has been reset")
}

// SignIn handles POST /api/v1/auth/sign-in
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decode(w, r, &req) {
		return
	}

	user, tokens, err := h.accounts.SignIn(r.Context(), service.SignInInput{
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		Password:     req.Password,
	}, loginMeta(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, AuthResponse{User: user, Tokens: tokens})
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decode(w, r, &req) {
		return
	}

	tokens, err := h.sessions.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, tokens)
}

// SignOut handles POST /api/v1/auth/sign-out
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req SignOutRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.accounts.SignOut(r.Context(), actor, req.RefreshToken, clientIP(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "signed out")
}

// ChangePassword handles POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), actor, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "password changed")
}
