package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setEnvs sets multiple env vars for the duration of the test.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "development",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "palenso", cfg.PostgresDB)
	assert.Equal(t, 10*time.Minute, cfg.VerificationTokenTTL)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, 6, cfg.OTPLength)
	assert.Equal(t, time.Hour, cfg.TokenSweepInterval)
	assert.Equal(t, 5, cfg.ConfirmAttemptLimit)
	assert.Equal(t, 15*time.Minute, cfg.ConfirmAttemptWindow)
	assert.Equal(t, MailDriverLog, cfg.MailDriver)
	assert.Equal(t, SMSDriverLog, cfg.SMSDriver)
	assert.Equal(t, "regex", cfg.EmailValidationType)
}

func TestLoad_Development_AcceptsDefaultSecret(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "development",
		"JWT_SECRET":  "change-this-to-a-secure-secret",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "change-this-to-a-secure-secret", cfg.JWTSecret)
}

func TestLoad_NonDevelopment_RejectsWeakSecrets(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		secret      string
		wantErr     string
	}{
		{"production default", "production", "change-this-to-a-secure-secret", "JWT_SECRET must be explicitly set"},
		{"staging default", "staging", "change-this-to-a-secure-secret", "JWT_SECRET must be explicitly set"},
		{"production short", "production", "short-but-not-default-secret", "JWT_SECRET must be at least 32 characters"},
		{"31 chars", "production", "abcdefghijklmnopqrstuvwxyz12345", "JWT_SECRET must be at least 32 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnvs(t, map[string]string{
				"ENVIRONMENT": tt.environment,
				"JWT_SECRET":  tt.secret,
			})

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Production_AcceptsExactly32CharSecret(t *testing.T) {
	secret := "abcdefghijklmnopqrstuvwxyz123456"
	require.Len(t, secret, 32)

	setEnvs(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  secret,
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, secret, cfg.JWTSecret)
}

func TestLoad_KafkaBrokers(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":   "development",
		"KAFKA_BROKERS": "kafka-1:9092,kafka-2:9092",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_KafkaDisabledByDefault(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "development",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoad_DriverValidation(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr string
	}{
		{
			name:    "unknown mail driver",
			envs:    map[string]string{"MAIL_DRIVER": "pigeon"},
			wantErr: `unsupported MAIL_DRIVER "pigeon"`,
		},
		{
			name:    "mailgun without key",
			envs:    map[string]string{"MAIL_DRIVER": "mailgun", "MAILGUN_DOMAIN": "mg.palenso.com"},
			wantErr: "MAILGUN_API_KEY",
		},
		{
			name:    "unknown sms driver",
			envs:    map[string]string{"SMS_DRIVER": "fax"},
			wantErr: `unsupported SMS_DRIVER "fax"`,
		},
		{
			name:    "http sms without gateway",
			envs:    map[string]string{"SMS_DRIVER": "http"},
			wantErr: "SMS_GATEWAY_URL",
		},
		{
			name:    "otp too short",
			envs:    map[string]string{"OTP_LENGTH": "3"},
			wantErr: "OTP_LENGTH",
		},
		{
			name:    "attempt window shorter than code lifetime",
			envs:    map[string]string{"CONFIRM_ATTEMPT_WINDOW": "5m"},
			wantErr: "CONFIRM_ATTEMPT_WINDOW",
		},
		{
			name:    "port out of range",
			envs:    map[string]string{"HTTP_PORT": "70000"},
			wantErr: "invalid HTTP port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENVIRONMENT", "development")
			setEnvs(t, tt.envs)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MailgunDriver(t *testing.T) {
	setEnvs(t, map[string]string{
		"ENVIRONMENT":     "development",
		"MAIL_DRIVER":     "mailgun",
		"MAILGUN_DOMAIN":  "mg.palenso.com",
		"MAILGUN_API_KEY": "key-123",
	})

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, MailDriverMailgun, cfg.MailDriver)
	assert.Equal(t, "mg.palenso.com", cfg.MailgunDomain)
}

func TestLoad_DotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OTP_LENGTH=8\nHTTP_PORT=9090\n"), 0o600))

	// Register cleanup for the keys godotenv will set, then clear them so the
	// file is the only source.
	t.Setenv("OTP_LENGTH", "")
	t.Setenv("HTTP_PORT", "")
	require.NoError(t, os.Unsetenv("OTP_LENGTH"))
	require.NoError(t, os.Unsetenv("HTTP_PORT"))
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 8, cfg.OTPLength)
	assert.Equal(t, 9090, cfg.HTTPPort)
}

func TestLoad_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("OTP_LENGTH=8\n"), 0o600))
	setEnvs(t, map[string]string{
		"ENVIRONMENT": "development",
		"OTP_LENGTH":  "5",
	})

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 5, cfg.OTPLength)
}

func TestLoad_MissingDotenvIsSkipped(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.NotNil(t, cfg)
}
