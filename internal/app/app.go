package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/venkatesh-palenso/palenso-api/internal/auth"
	"github.com/venkatesh-palenso/palenso-api/internal/config"
	"github.com/venkatesh-palenso/palenso-api/internal/event"
	handler "github.com/venkatesh-palenso/palenso-api/internal/handler/http"
	"github.com/venkatesh-palenso/palenso-api/internal/notify"
	"github.com/venkatesh-palenso/palenso-api/internal/otp"
	"github.com/venkatesh-palenso/palenso-api/internal/ratelimit"
	"github.com/venkatesh-palenso/palenso-api/internal/repository/postgres"
	"github.com/venkatesh-palenso/palenso-api/internal/service"
	"github.com/venkatesh-palenso/palenso-api/migrations"
	"github.com/venkatesh-palenso/palenso-api/pkg/database"
	"github.com/venkatesh-palenso/palenso-api/pkg/health"
	pkgkafka "github.com/venkatesh-palenso/palenso-api/pkg/kafka"
	"github.com/venkatesh-palenso/palenso-api/pkg/middleware"
	"github.com/venkatesh-palenso/palenso-api/pkg/tracing"
)

const (
	serviceName    = "palenso-api"
	serviceVersion = "0.1.0"

	idempotencyTTL = 24 * time.Hour
)

// App wires together all dependencies and runs the palenso API.
type App struct {
	cfg             *config.Config
	logger          *slog.Logger
	pool            *pgxpool.Pool
	redis           *redis.Client
	producer        *pkgkafka.Producer
	dlq             *pkgkafka.DLQProducer
	welcomeConsumer *pkgkafka.Consumer
	tokens          *service.TokenStore
	httpServer      *http.Server
	tracerShutdown  func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	pool, err := OpenPostgres(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, serviceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Redis is optional: without it verification requests are not throttled
	// and consumed event IDs are remembered in memory only.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", slog.String("error", err.Error()))
	}

	// Parse JWT expiry durations.
	accessExpiry, err := time.ParseDuration(cfg.JWTAccessExpiry)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parse JWT access expiry %q: %w", cfg.JWTAccessExpiry, err)
	}
	refreshExpiry, err := time.ParseDuration(cfg.JWTRefreshExpiry)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parse JWT refresh expiry %q: %w", cfg.JWTRefreshExpiry, err)
	}

	// Notifications.
	emailSender, smsSender, err := newSenders(cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	templates := notify.NewTemplates(notify.Product{
		Name:     cfg.ProductName,
		Link:     cfg.ProductLink,
		ResetURL: cfg.PasswordResetURL,
	})
	dispatcher := notify.NewDispatcher(emailSender, smsSender, templates, cfg.ProductName, cfg.NotificationSendTimeout, logger)

	addresses, err := notify.NewAddressValidator(cfg.EmailVerifierAddress, cfg.EmailValidationType)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("email address validator: %w", err)
	}

	// Kafka. Without brokers the event producer drops events.
	var (
		producer        *pkgkafka.Producer
		dlq             *pkgkafka.DLQProducer
		welcomeConsumer *pkgkafka.Consumer
		eventProducer   *event.Producer
	)
	if cfg.KafkaEnabled() {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		eventProducer = event.NewProducer(producer, logger)
		dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)

		var store pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL)
		if redisClient != nil {
			store = pkgkafka.NewRedisIdempotencyStore(redisClient, event.ConsumerGroupID, idempotencyTTL)
		}
		welcomeConsumer = event.NewWelcomeConsumer(
			cfg.KafkaBrokers,
			event.NewWelcomeHandler(dispatcher, logger),
			store,
			dlq,
			logger,
		)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		eventProducer = event.NewProducer(nil, logger)
		logger.Info("kafka disabled, account events will not be published")
	}

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, accessExpiry, refreshExpiry)
	userRepo := postgres.NewUserRepository(pool)
	tokenRepo := postgres.NewTokenRepository(pool)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(pool)
	companyRepo := postgres.NewCompanyRepository(pool)
	jobRepo := postgres.NewJobRepository(pool)
	applicationRepo := postgres.NewApplicationRepository(pool)
	savedJobRepo := postgres.NewSavedJobRepository(pool)
	resumeRepo := postgres.NewResumeRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	profileRepo := postgres.NewProfileRepository(pool)
	sections := service.ProfileSections{
		Education:      postgres.NewEducationRepository(pool),
		WorkExperience: postgres.NewWorkExperienceRepository(pool),
		Skills:         postgres.NewSkillRepository(pool),
		Interests:      postgres.NewInterestRepository(pool),
		Projects:       postgres.NewProjectRepository(pool),
	}

	authCfg := service.AuthConfig{
		VerificationTTL: cfg.VerificationTokenTTL,
		ResetTTL:        cfg.ResetTokenTTL,
	}
	tokens := service.NewTokenStore(tokenRepo, otp.New(), cfg.OTPLength)
	sessions := service.NewSessionService(jwtManager, refreshTokenRepo, userRepo, logger)

	// A nil *ratelimit.Limiter must not reach the interfaces.
	var limits service.Limits
	if redisClient != nil {
		limits.Requests = ratelimit.New(redisClient, "palenso:verify", cfg.VerificationRateLimit, cfg.VerificationRateWindow)
		limits.Attempts = ratelimit.New(redisClient, "palenso:confirm", cfg.ConfirmAttemptLimit, cfg.ConfirmAttemptWindow)
	}
	verification := service.NewVerificationService(
		userRepo, tokens, sessions, dispatcher, limits, addresses, eventProducer, authCfg, logger,
	)
	accounts := service.NewAccountService(userRepo, verification, sessions, eventProducer, authCfg, logger)

	svcs := handler.Services{
		Accounts:     accounts,
		Verification: verification,
		Sessions:     sessions,
		Resumes:      service.NewResumeService(resumeRepo, logger),
		Profiles:     service.NewProfileService(profileRepo, sections, logger),
		Companies:    service.NewCompanyService(companyRepo, logger),
		Jobs:         service.NewJobService(companyRepo, jobRepo, applicationRepo, savedJobRepo, resumeRepo, logger),
		Events:       service.NewEventService(eventRepo, companyRepo, logger),
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// HTTP router.
	router := handler.NewRouter(svcs, jwtManager, healthHandler, logger, handler.RouterConfig{
		ServiceName: serviceName,
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowCredentials: cfg.CORSAllowCredentials,
			Environment:      cfg.Environment,
		},
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
		RequestTimeout:    cfg.RequestTimeout,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:             cfg,
		logger:          logger,
		pool:            pool,
		redis:           redisClient,
		producer:        producer,
		dlq:             dlq,
		welcomeConsumer: welcomeConsumer,
		tokens:          tokens,
		httpServer:      httpServer,
		tracerShutdown:  tracerShutdown,
	}, nil
}

// OpenPostgres connects the pgx pool described by cfg.
func OpenPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	return pool, nil
}

// Run starts the HTTP server, the welcome consumer and the token sweep, then
// blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.welcomeConsumer != nil {
		go func() {
			if err := a.welcomeConsumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("welcome consumer: %w", err)
			}
		}()
	}

	go a.runTokenSweep(ctx)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// runTokenSweep periodically deletes expired and spent verification tokens.
func (a *App) runTokenSweep(ctx context.Context) {
	if a.cfg.TokenSweepInterval <= 0 {
		return
	}
	ticker := time.NewTicker(a.cfg.TokenSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := SweepTokens(ctx, a.tokens, a.cfg.TokenSweepRetention, a.logger); err != nil {
				a.logger.Error("token sweep error", slog.String("error", err.Error()))
			}
		}
	}
}

// SweepTokens runs one cleanup pass, deleting tokens that expired or were
// spent more than retention ago.
func SweepTokens(ctx context.Context, tokens *service.TokenStore, retention time.Duration, logger *slog.Logger) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)
	n, err := tokens.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("expired tokens swept",
			slog.Int64("deleted", n),
			slog.Time("cutoff", cutoff),
		)
	}
	return n, nil
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka consumer, DLQ and producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Kafka.
	if a.welcomeConsumer != nil {
		if err := a.welcomeConsumer.Close(); err != nil {
			a.logger.Error("welcome consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 4. Redis.
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 5. Close PostgreSQL pool.
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
