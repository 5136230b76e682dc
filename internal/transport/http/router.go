package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/skulipro/authcore"
	"github.com/skulipro/authcore/directory"
	"github.com/skulipro/authcore/internal/slogx"
	"github.com/skulipro/authcore/internal/transport/http/handler"
	"github.com/skulipro/authcore/middleware"
)

// Deps holds everything the router needs.
type Deps struct {
	Engine    *authcore.Engine
	Directory directory.Store
	Logger    *slog.Logger
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// Burst fronts every route when set.
	Burst          *middleware.BurstShield
	AllowedOrigins []string
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// NewRouter builds and returns the application router.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	if deps.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(slogx.HTTPMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", slogx.RequestIDHeader},
		ExposedHeaders:   []string{"Retry-After", slogx.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if deps.Burst != nil {
		r.Use(deps.Burst.Limit)
	}
	r.Use(middleware.ClientKey)

	authH := handler.NewAuthHandler(deps.Engine)
	linkH := handler.NewLinkHandler(deps.Engine, deps.Directory)
	healthH := handler.NewHealthHandler(deps.Engine)
	guard := middleware.Guard(deps.Engine)

	r.Get("/healthz", healthH.Health)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/auth", func(r chi.Router) {
		// Login applies the login scope inside the engine.
		r.Post("/login", authH.Login)
		r.Post("/verify-otp", authH.VerifyOTP)
		r.Post("/resend-otp", authH.ResendOTP)
		r.Post("/logout", authH.Logout)
		r.With(guard).Get("/me", authH.Me)
	})

	r.Route("/links", func(r chi.Router) {
		r.With(middleware.RateLimit(deps.Engine, authcore.ScopeActivationRequest)).
			Post("/activate", linkH.Activate)
		r.With(guard, middleware.RateLimit(deps.Engine, authcore.ScopeMailSend)).
			Post("/{role}", linkH.Issue)
	})

	return r
}
