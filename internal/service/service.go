// Package service holds the business rules of accounts, tokens and the job
// board. Handlers call it; it calls repositories, the notifier and Kafka.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/crypto/bcrypt"

	"github.com/venkatesh-palenso/palenso-api/internal/domain"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// Notifier delivers codes and reset tokens out of band.
type Notifier interface {
	SendVerification(ctx context.Context, user *domain.User, channel domain.Channel, code string, ttl time.Duration) error
	SendPasswordReset(ctx context.Context, user *domain.User, channel domain.Channel, token string, ttl time.Duration) error
}

// EventPublisher publishes account lifecycle events.
type EventPublisher interface {
	PublishUserSignedUp(ctx context.Context, user *domain.User) error
	PublishUserActivated(ctx context.Context, user *domain.User) error
	PublishChannelVerified(ctx context.Context, userID string, channel domain.Channel) error
	PublishPasswordReset(ctx context.Context, userID string) error
}

// RateLimiter records one request for key and fails once key's budget is spent.
type RateLimiter interface {
	Hit(ctx context.Context, key string) error
}

// EmailChecker decides whether an email address can receive mail.
type EmailChecker interface {
	Valid(email string) bool
}

// hashToken returns the SHA-256 hex digest of a refresh token. Only digests
// are stored.
func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func hashPassword(password string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func passwordMatches(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// richText keeps basic formatting in job, company and event descriptions;
// plainText strips every tag from short fields like cover letters.
var (
	richText  = bluemonday.UGCPolicy()
	plainText = bluemonday.StrictPolicy()
)

func sanitizeRich(s string) string {
	return strings.TrimSpace(richText.Sanitize(s))
}

func sanitizePlain(s string) string {
	return strings.TrimSpace(plainText.Sanitize(s))
}

// normalizeEmail lower-cases and trims an address so lookups are case blind.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
