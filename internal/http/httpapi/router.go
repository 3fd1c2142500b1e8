package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/infra"
	mw "server/internal/middleware"
)

// NewRouter wires the HTTP surface. The webhook route stays outside the
// auth chain: its only trust boundary is the signature over the raw body.
func NewRouter(app *handlers.App, cfg *infra.Config, logger zerolog.Logger) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logger(logger))
	r.Use(chimw.Recoverer)
	r.Use(mw.CORS(cfg.AllowedOrigins))
	r.Use(mw.Locale)

	r.Get("/api/healthz", app.Health)

	r.Route("/api/auth", func(r chi.Router) {
		limited := r.With(mw.RateLimit(cfg.AuthRateLimit, cfg.AuthRateWindow))
		limited.Post("/register", app.AuthRegister)
		limited.Post("/login", app.AuthLogin)
		r.Post("/verify", app.AuthVerify)
		r.Post("/logout", app.AuthLogout)
		r.With(mw.Authenticate(app.Auth), mw.RequireAuth).Get("/me", app.Me)
	})

	r.Post("/api/donations/checkout", app.DonationsCheckout)
	r.Post("/api/webhooks/stripe", app.StripeWebhook)

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(mw.Authenticate(app.Auth))
		r.Use(mw.RequireAdmin)
		r.Get("/donations", app.AdminDonationsList)
		r.Get("/donations/completed", app.AdminDonationsCompleted)
		r.Get("/donations/export", app.AdminDonationsExport)
	})

	return r
}
