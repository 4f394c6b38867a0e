package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/venkatesh-palenso/palenso-api/internal/auth"
	"github.com/venkatesh-palenso/palenso-api/internal/domain"
	"github.com/venkatesh-palenso/palenso-api/internal/service"
	"github.com/venkatesh-palenso/palenso-api/pkg/health"
	"github.com/venkatesh-palenso/palenso-api/pkg/middleware"
)

// Services groups the application services the router exposes.
type Services struct {
	Accounts     *service.AccountService
	Verification *service.VerificationService
	Sessions     *service.SessionService
	Resumes      *service.ResumeService
	Profiles     *service.ProfileService
	Companies    *service.CompanyService
	Jobs         *service.JobService
	Events       *service.EventService
}

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	ServiceName       string
	CORS              middleware.CORSConfig
	PprofAllowedCIDRs []string
	RequestTimeout    time.Duration
}

// NewRouter creates a chi router with all API routes registered.
func NewRouter(
	svcs Services,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "palenso-api"
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())
	middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)

	authenticated := func(r chi.Router) {
		r.Use(middleware.Auth(jwtManager.Validator()))
		r.Use(middleware.RequestLogger(logger))
	}

	authHandler := NewAuthHandler(svcs.Accounts, svcs.Verification, svcs.Sessions, logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.NoStore)

		r.Post("/check-availability", authHandler.CheckAvailability)
		r.Post("/signup", authHandler.StartSignup)
		r.Put("/signup", authHandler.CompleteSignup)
		r.Post("/send-verification", authHandler.SendVerification)
		r.Post("/verify-email", authHandler.VerifyEmail)
		r.Post("/verify-mobile", authHandler.VerifyMobile)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)
		r.Post("/sign-in", authHandler.SignIn)
		r.Post("/refresh", authHandler.RefreshToken)

		r.Group(func(r chi.Router) {
			authenticated(r)
			r.Post("/sign-out", authHandler.SignOut)
			r.Post("/change-password", authHandler.ChangePassword)
		})
	})

	userHandler := NewUserHandler(svcs.Accounts, svcs.Resumes, logger)
	jobHandler := NewJobHandler(svcs.Jobs, logger)
	r.Route("/api/v1/users/me", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.NoStore)
		authenticated(r)

		r.Get("/", userHandler.GetProfile)
		r.Put("/", userHandler.UpdateProfile)

		r.Get("/resumes", userHandler.ListResumes)
		r.Post("/resumes", userHandler.CreateResume)
		r.Put("/resumes/{id}", userHandler.UpdateResume)
		r.Delete("/resumes/{id}", userHandler.DeleteResume)
		r.Post("/resumes/{id}/primary", userHandler.SetPrimaryResume)

		mountProfile(r, svcs.Profiles, logger)

		r.Get("/applications", jobHandler.ListMine)
		r.Get("/saved-jobs", jobHandler.ListSaved)
	})

	companyHandler := NewCompanyHandler(svcs.Companies, logger)
	r.Route("/api/v1/companies", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(middleware.CacheControl(60)).Get("/", companyHandler.List)
		r.Group(func(r chi.Router) {
			authenticated(r)
			r.Get("/me", companyHandler.GetMine)
			r.With(middleware.RequireRole(domain.RoleEmployer)).Post("/", companyHandler.Create)
			r.Put("/{id}", companyHandler.Update)
		})
		r.With(middleware.CacheControl(60)).Get("/{id}", companyHandler.Get)
	})

	r.Route("/api/v1/jobs", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(middleware.CacheControl(30)).Get("/", jobHandler.List)
		r.With(middleware.CacheControl(30)).Get("/{id}", jobHandler.Get)
		r.Group(func(r chi.Router) {
			authenticated(r)
			r.With(middleware.RequireRole(domain.RoleEmployer)).Post("/", jobHandler.Create)
			r.Put("/{id}", jobHandler.Update)
			r.Delete("/{id}", jobHandler.Deactivate)
			r.Get("/{id}/applications", jobHandler.ListForJob)
			r.With(middleware.RequireRole(domain.RoleStudent)).Post("/{id}/apply", jobHandler.Apply)
			r.Post("/{id}/save", jobHandler.Save)
			r.Delete("/{id}/save", jobHandler.Unsave)
		})
	})

	r.Route("/api/v1/applications", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		authenticated(r)

		r.Post("/{id}/withdraw", jobHandler.Withdraw)
		r.Put("/{id}/status", jobHandler.UpdateStatus)
	})

	eventHandler := NewEventHandler(svcs.Events, logger)
	r.Route("/api/v1/events", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(middleware.CacheControl(30)).Get("/", eventHandler.List)
		r.With(middleware.CacheControl(30)).Get("/{id}", eventHandler.Get)
		r.Group(func(r chi.Router) {
			authenticated(r)
			r.With(middleware.RequireRole(domain.RoleEmployer, domain.RoleAdmin)).Post("/", eventHandler.Create)
			r.Post("/{id}/register", eventHandler.Register)
			r.Delete("/{id}/register", eventHandler.CancelRegistration)
		})
	})

	return r
}
