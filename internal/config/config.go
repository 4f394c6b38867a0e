package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/venkatesh-palenso/palenso-api/pkg/config"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Mail and SMS drivers.
const (
	MailDriverLog     = "log"
	MailDriverMailgun = "mailgun"
	MailDriverSMTP    = "smtp"

	SMSDriverLog  = "log"
	SMSDriverHTTP = "http"
)

// Config holds all configuration for the palenso API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort          int           `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout    time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`
	PprofAllowedCIDRs []string      `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"palenso"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"palenso_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"palenso"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"30"`
	SlowQueryThresholdMs  int   `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Redis backs the verification rate limiter and the consumer idempotency
	// store. Both degrade when Redis is unreachable at startup.
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka. An empty broker list disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`

	// JWT
	JWTSecret        string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessExpiry  string `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	JWTRefreshExpiry string `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"168h"`

	// Verification tokens
	VerificationTokenTTL    time.Duration `env:"VERIFICATION_TOKEN_TTL" envDefault:"10m"`
	ResetTokenTTL           time.Duration `env:"RESET_TOKEN_TTL" envDefault:"1h"`
	OTPLength               int           `env:"OTP_LENGTH" envDefault:"6"`
	VerificationRateLimit   int           `env:"VERIFICATION_RATE_LIMIT" envDefault:"5"`
	VerificationRateWindow  time.Duration `env:"VERIFICATION_RATE_WINDOW" envDefault:"15m"`
	ConfirmAttemptLimit     int           `env:"CONFIRM_ATTEMPT_LIMIT" envDefault:"5"`
	ConfirmAttemptWindow    time.Duration `env:"CONFIRM_ATTEMPT_WINDOW" envDefault:"15m"`
	TokenSweepInterval      time.Duration `env:"TOKEN_SWEEP_INTERVAL" envDefault:"1h"`
	TokenSweepRetention     time.Duration `env:"TOKEN_SWEEP_RETENTION" envDefault:"24h"`
	EmailValidationType     string        `env:"EMAIL_VALIDATION_TYPE" envDefault:"regex"`
	EmailVerifierAddress    string        `env:"EMAIL_VERIFIER_ADDRESS" envDefault:"verifier@palenso.com"`
	NotificationSendTimeout time.Duration `env:"NOTIFICATION_SEND_TIMEOUT" envDefault:"10s"`

	// Mail
	MailDriver     string `env:"MAIL_DRIVER" envDefault:"log"`
	MailFrom       string `env:"MAIL_FROM" envDefault:"Palenso <no-reply@palenso.com>"`
	MailgunDomain  string `env:"MAILGUN_DOMAIN"`
	MailgunAPIKey  string `env:"MAILGUN_API_KEY"`
	MailgunAPIBase string `env:"MAILGUN_API_BASE"`
	SMTPHost       string `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort       int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser       string `env:"SMTP_USER"`
	SMTPPassword   string `env:"SMTP_PASSWORD"`

	// SMS
	SMSDriver     string `env:"SMS_DRIVER" envDefault:"log"`
	SMSGatewayURL string `env:"SMS_GATEWAY_URL"`
	SMSAPIKey     string `env:"SMS_API_KEY"`

	// Branding for transactional email.
	ProductName      string `env:"PRODUCT_NAME" envDefault:"Palenso"`
	ProductLink      string `env:"PRODUCT_LINK" envDefault:"https://palenso.com"`
	PasswordResetURL string `env:"PASSWORD_RESET_URL"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	CORSAllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"`
}

// Load reads configuration from environment variables, after applying any
// dotenv files given.
func Load(dotenvFiles ...string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, dotenvFiles...); err != nil {
		return nil, fmt.Errorf("load palenso config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.OTPLength < 4 || c.OTPLength > 10 {
		return fmt.Errorf("OTP_LENGTH must be between 4 and 10, got %d", c.OTPLength)
	}
	if c.VerificationTokenTTL <= 0 || c.ResetTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.ConfirmAttemptLimit > 0 && c.ConfirmAttemptWindow < c.VerificationTokenTTL {
		return fmt.Errorf("CONFIRM_ATTEMPT_WINDOW must cover VERIFICATION_TOKEN_TTL")
	}

	switch c.MailDriver {
	case MailDriverLog:
	case MailDriverMailgun:
		if c.MailgunDomain == "" || c.MailgunAPIKey == "" {
			return fmt.Errorf("MAIL_DRIVER=mailgun requires MAILGUN_DOMAIN and MAILGUN_API_KEY")
		}
	case MailDriverSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("MAIL_DRIVER=smtp requires SMTP_HOST")
		}
	default:
		return fmt.Errorf("unsupported MAIL_DRIVER %q", c.MailDriver)
	}

	switch c.SMSDriver {
	case SMSDriverLog:
	case SMSDriverHTTP:
		if c.SMSGatewayURL == "" {
			return fmt.Errorf("SMS_DRIVER=http requires SMS_GATEWAY_URL")
		}
	default:
		return fmt.Errorf("unsupported SMS_DRIVER %q", c.SMSDriver)
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if c.Environment != "development" {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}
	return nil
}

// KafkaEnabled reports whether any brokers are configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
