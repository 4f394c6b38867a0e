package domain

import (
	"strings"
	"time"
)

// User represents a registered account. Email and MobileNumber are empty when
// not provided; PasswordHash is empty until signup is completed.
type User struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email,omitempty"`
	MobileNumber     string     `json:"mobile_number,omitempty"`
	PasswordHash     string     `json:"-"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Role             string     `json:"role"`
	IsActive         bool       `json:"is_active"`
	IsEmailVerified  bool       `json:"is_email_verified"`
	IsMobileVerified bool       `json:"is_mobile_verified"`
	LastActive       *time.Time `json:"last_active,omitempty"`
	LastLoginTime    *time.Time `json:"last_login_time,omitempty"`
	LastLoginIP      string     `json:"-"`
	LastLoginMedium  string     `json:"last_login_medium,omitempty"`
	LastLoginUAgent  string     `json:"-"`
	LastLogoutTime   *time.Time `json:"last_logout_time,omitempty"`
	LastLogoutIP     string     `json:"-"`
	CreatedBy        *string    `json:"-"`
	UpdatedBy        *string    `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// HasPassword reports whether the user has a usable password credential.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// PendingSignup reports whether the account was created by a signup that
// never got past email verification.
func (u *User) PendingSignup() bool {
	return !u.IsActive && !u.HasPassword() && !u.IsEmailVerified
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// ChannelValue returns the address the user registered for channel.
func (u *User) ChannelValue(c Channel) string {
	if c == ChannelMobile {
		return u.MobileNumber
	}
	return u.Email
}

// IsVerified reports whether channel has been verified.
func (u *User) IsVerified(c Channel) bool {
	if c == ChannelMobile {
		return u.IsMobileVerified
	}
	return u.IsEmailVerified
}

// Login mediums recorded on sign-in.
const (
	LoginMediumEmail  = "email"
	LoginMediumMobile = "mobile"
	LoginMediumSignup = "signup"
)

// LoginMeta describes where a sign-in came from.
type LoginMeta struct {
	IP        string
	UserAgent string
	Medium    string
}

// RefreshToken represents a stored refresh token for a user session.
type RefreshToken struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TokenHash string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}
