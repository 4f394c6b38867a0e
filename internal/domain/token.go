package domain

import "time"

// TokenType distinguishes what a single-use token may be spent on.
type TokenType string

const (
	TokenEmailVerification TokenType = "email_verification"
	TokenOTPVerification   TokenType = "otp_verification"
	TokenForgotPassword    TokenType = "forgot_password"
	TokenBearer            TokenType = "bearer"
)

// IsValid reports whether t is a known token type.
func (t TokenType) IsValid() bool {
	switch t {
	case TokenEmailVerification, TokenOTPVerification, TokenForgotPassword, TokenBearer:
		return true
	}
	return false
}

// UsesOTP reports whether tokens of this type carry a short numeric code
// rather than an opaque link value.
func (t TokenType) UsesOTP() bool {
	return t == TokenEmailVerification || t == TokenOTPVerification
}

// Token is a single-use, expiring secret tied to a user.
type Token struct {
	ID        string     `json:"id"`
	Value     string     `json:"-"`
	Type      TokenType  `json:"type"`
	UserID    string     `json:"user_id"`
	IsUsed    bool       `json:"is_used"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsValidAt reports whether the token can still be consumed at now.
func (t *Token) IsValidAt(now time.Time) bool {
	return !t.IsUsed && now.Before(t.ExpiresAt)
}

// Channel is an out-of-band route to a user.
type Channel string

const (
	ChannelEmail  Channel = "email"
	ChannelMobile Channel = "mobile"
)

// IsValid reports whether c is a known channel.
func (c Channel) IsValid() bool {
	return c == ChannelEmail || c == ChannelMobile
}

// VerificationTokenType returns the token type used to verify c.
func (c Channel) VerificationTokenType() TokenType {
	if c == ChannelMobile {
		return TokenOTPVerification
	}
	return TokenEmailVerification
}
