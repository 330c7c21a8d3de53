package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/contacts-api/internal/auth"
	"github.com/redmonkez12/contacts-api/internal/config"
	"github.com/redmonkez12/contacts-api/internal/contact"
	"github.com/redmonkez12/contacts-api/internal/httputil"
	"github.com/redmonkez12/contacts-api/internal/logging"
	"github.com/redmonkez12/contacts-api/internal/profile"
	"github.com/redmonkez12/contacts-api/internal/ratelimit"
)

// Per client IP. Each route keeps its own counter.
var (
	registerRule     = ratelimit.Rule{Purpose: "register", Limit: 10, Window: 15 * time.Minute}
	loginRule        = ratelimit.Rule{Purpose: "login", Limit: 10, Window: 15 * time.Minute}
	resetRequestRule = ratelimit.Rule{Purpose: "password_reset_request", Limit: 10, Window: 15 * time.Minute}
	meRule           = ratelimit.Rule{Purpose: "users_me", Limit: 5, Window: time.Minute}
)

// Handlers groups everything the router mounts
type Handlers struct {
	Auth           *auth.Handler
	AuthMiddleware *auth.Middleware
	Profile        *profile.Handler
	Contacts       *contact.Handler
	// Limiter is optional; without it no route is rate limited
	Limiter *ratelimit.Limiter
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Use(SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled", "path", "/swagger/")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	limit := func(rule ratelimit.Rule) func(http.Handler) http.Handler {
		if h.Limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return h.Limiter.Middleware(rule, ratelimit.ByIP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(NoStore)

		r.Route("/auth", func(r chi.Router) {
			r.With(limit(registerRule)).Post("/register", h.Auth.Register)
			r.With(limit(loginRule)).Post("/login", h.Auth.Login)
			r.Post("/refresh", h.Auth.Refresh)
			r.Post("/logout", h.Auth.Logout)
			r.Get("/confirmed_email/{token}", h.Auth.VerifyEmail)
			r.Post("/verify-email/{token}", h.Auth.VerifyEmail)
		})

		r.Route("/password-reset", func(r chi.Router) {
			r.With(limit(resetRequestRule)).Post("/request", h.Auth.RequestPasswordReset)
			r.Get("/verify/{token}", h.Auth.VerifyResetToken)
			r.Post("/confirm", h.Auth.ConfirmPasswordReset)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware.RequireAuth)

			r.Route("/users", func(r chi.Router) {
				r.With(limit(meRule)).Get("/me", h.Profile.Me)
				r.Patch("/avatar", h.Profile.UpdateAvatar)
			})

			r.Route("/contacts", h.Contacts.Routes)
		})
	})

	return r
}

// handleHealth is a liveness probe. It sits outside /api and is left out of
// the API docs.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
