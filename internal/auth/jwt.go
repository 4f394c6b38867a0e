// Package auth mints and validates the HS256 session tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/venkatesh-palenso/palenso-api/pkg/middleware"
)

const issuer = "palenso-api"

// Values of the "use" claim; a refresh token is never accepted as an access
// token or the other way round.
const (
	useAccess  = "access"
	useRefresh = "refresh"
)

// Claims represents the JWT claims for an access token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Use    string `json:"use"`
	jwt.RegisteredClaims
}

// RefreshClaims represents the JWT claims for a refresh token.
type RefreshClaims struct {
	UserID string `json:"user_id"`
	Use    string `json:"use"`
	jwt.RegisteredClaims
}

// JWTManager handles JWT token generation and validation.
type JWTManager struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

// NewJWTManager creates a new JWT manager with the given secret and expiry durations.
func NewJWTManager(secret string, accessExpiry, refreshExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// AccessExpiry is the lifetime of access tokens.
func (m *JWTManager) AccessExpiry() time.Duration { return m.accessExpiry }

// GenerateAccessToken creates a signed access token for userID and role.
func (m *JWTManager) GenerateAccessToken(userID, role string) (string, error) {
	claims := &Claims{
		UserID:           userID,
		Role:             role,
		Use:              useAccess,
		RegisteredClaims: m.registered(userID, m.accessExpiry),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// GenerateRefreshToken creates a signed refresh token and returns its expiry.
// Each token carries a random ID, so two tokens minted in the same second
// still hash differently.
func (m *JWTManager) GenerateRefreshToken(userID string) (string, time.Time, error) {
	claims := &RefreshClaims{
		UserID:           userID,
		Use:              useRefresh,
		RegisteredClaims: m.registered(userID, m.refreshExpiry),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

func (m *JWTManager) registered(subject string, ttl time.Duration) jwt.RegisteredClaims {
	now := m.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// ValidateAccessToken parses and validates an access token, returning the claims.
func (m *JWTManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := m.parse(tokenString, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if claims.UserID == "" || claims.Use != useAccess {
		return nil, errors.New("invalid access token claims")
	}
	return claims, nil
}

// ValidateRefreshToken parses and validates a refresh token, returning the claims.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenString, claims); err != nil {
		return nil, fmt.Errorf("parse refresh token: %w", err)
	}
	if claims.UserID == "" || claims.Use != useRefresh {
		return nil, errors.New("invalid refresh token claims")
	}
	return claims, nil
}

func (m *JWTManager) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("token is not valid")
	}
	return nil
}

// Validator adapts the manager to the HTTP auth middleware.
func (m *JWTManager) Validator() middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		claims, err := m.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{UserID: claims.UserID, Role: claims.Role}, nil
	}
}
