package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"server/internal/auth"
	"server/internal/domain"
	"server/internal/payments"
)

// App bundles the handler dependencies. Everything is injected at
// construction so tests can swap any collaborator for a fake.
type App struct {
	Logger    zerolog.Logger
	Auth      *auth.Service
	Checkout  *payments.CheckoutService
	Webhooks  *payments.WebhookService
	Donations domain.DonationRepository
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, message string) {
	a.json(w, code, map[string]any{
		"error": map[string]string{"code": slug, "message": message},
	})
}
