package handlers

import (
	"errors"
	"io"
	"net/http"

	"server/internal/domain"
)

const webhookBodyLimit = 1 << 20 // Stripe events stay well under 1MiB

// StripeWebhook receives processor callbacks. The raw body is kept byte for
// byte for signature verification; nothing is parsed before the signature
// check passes. 400 tells the processor to stop (permanent rejection), 500
// tells it to retry later.
func (a *App) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read request body")
		return
	}

	sig := r.Header.Get("Stripe-Signature")
	if sig == "" {
		a.error(w, http.StatusBadRequest, "invalid_signature", "missing signature")
		return
	}

	if err := a.Webhooks.Process(r.Context(), payload, sig); err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			a.error(w, http.StatusBadRequest, "invalid_signature", "invalid signature")
			return
		}
		a.Logger.Error().Err(err).Msg("webhook processing failed")
		a.error(w, http.StatusInternalServerError, "internal", "webhook processing error")
		return
	}

	a.json(w, http.StatusOK, map[string]bool{"received": true})
}
