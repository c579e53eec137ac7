package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/SARVESHVARADKAR123/biolink/internal/config"
	"github.com/SARVESHVARADKAR123/biolink/internal/middleware"
	"github.com/SARVESHVARADKAR123/biolink/internal/observability"
	"github.com/SARVESHVARADKAR123/biolink/internal/page"
	"github.com/SARVESHVARADKAR123/biolink/internal/session"
)

// Deps are the services behind the HTTP API. Billing is nil when Stripe is
// not configured, and its routes are then not mounted.
type Deps struct {
	Pages    PageSources
	PageCfg  page.Config
	Clicks   ClickRecorder
	Sessions *session.Store
	Billing  *BillingHandler
	DB       observability.Pinger
}

// NewRouter builds the HTTP router with all biolink routes.
func NewRouter(cfg *config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery())
	r.Use(observability.MetricsMiddleware(cfg.ServiceName))

	auth := middleware.JWT([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience)
	limit := middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow)

	ph := NewPageHandler(d.Pages, d.PageCfg)
	ch := NewClickHandler(d.Clicks)
	sh := NewSessionHandler(d.Sessions)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes. A page load may spend up to three full attempts
		// plus backoff, so it gets no request timeout of its own.
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Get("/pages/{username}", ph.Get)
			r.With(middleware.Timeout(10*time.Second)).Post("/links/{id}/click", ch.Track)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(15 * time.Second))
			r.Use(auth)
			r.Get("/plan/me", sh.Plan)
			r.Post("/session/logout", sh.Logout)
			if d.Billing != nil {
				r.Post("/billing/checkout", d.Billing.CreateCheckout)
			}
		})

		if d.Billing != nil {
			r.With(middleware.Timeout(15*time.Second)).Post("/billing/webhook", d.Billing.HandleWebhook)
		}
	})

	// Health
	r.Get("/health", observability.HealthLiveHandler)
	r.Get("/health/ready", observability.HealthReadyHandler(d.DB))

	return r
}
