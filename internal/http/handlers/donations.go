package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"server/internal/domain"
	"server/internal/payments"
	"server/pkg/zip"
)

type checkoutRequest struct {
	Amount     int64  `json:"amount"`
	DonorName  string `json:"donorName"`
	DonorEmail string `json:"donorEmail"`
	Message    string `json:"message"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

type donationDTO struct {
	ID              string    `json:"id"`
	PaymentIntentID *string   `json:"stripePaymentIntentId"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency"`
	DonorName       *string   `json:"donorName"`
	DonorEmail      *string   `json:"donorEmail"`
	Message         *string   `json:"message"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toDonationDTO(d domain.Donation) donationDTO {
	return donationDTO{
		ID:              d.ID,
		PaymentIntentID: d.PaymentIntentID,
		Amount:          d.Amount,
		Currency:        d.Currency,
		DonorName:       d.DonorName,
		DonorEmail:      d.DonorEmail,
		Message:         d.Message,
		Status:          string(d.Status),
		CreatedAt:       d.CreatedAt,
	}
}

// DonationsCheckout asks the payment processor for a checkout session and
// hands the redirect URL back to the donor. No ledger write happens here;
// the webhook path owns the ledger.
func (a *App) DonationsCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "http://localhost:3000"
	}
	if req.SuccessURL == "" {
		req.SuccessURL = origin + "/don-reussi"
	}
	if req.CancelURL == "" {
		req.CancelURL = origin + "/faire-un-don"
	}

	checkoutURL, err := a.Checkout.CreateCheckout(r.Context(), payments.CheckoutParams{
		Amount:     req.Amount,
		DonorName:  req.DonorName,
		DonorEmail: req.DonorEmail,
		Message:    req.Message,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrInvalidAmount):
			a.error(w, http.StatusBadRequest, "bad_request", payments.ErrInvalidAmount.Error())
		case errors.Is(err, domain.ErrUpstreamUnavailable):
			a.error(w, http.StatusBadGateway, "upstream_unavailable", "payment provider is unavailable, please retry")
		default:
			a.Logger.Error().Err(err).Msg("checkout creation failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to create checkout")
		}
		return
	}

	a.json(w, http.StatusOK, map[string]string{"checkoutUrl": checkoutURL})
}

// AdminDonationsList returns the full ledger, ordered by creation time.
func (a *App) AdminDonationsList(w http.ResponseWriter, r *http.Request) {
	donations, err := a.Donations.ListAll(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("list donations failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load donations")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": toDonationDTOs(donations)})
}

// AdminDonationsCompleted returns only completed donations.
func (a *App) AdminDonationsCompleted(w http.ResponseWriter, r *http.Request) {
	donations, err := a.Donations.ListCompleted(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("list completed donations failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load donations")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": toDonationDTOs(donations)})
}

// AdminDonationsExport streams the full ledger as a CSV inside a zip, for
// bookkeeping handoffs.
func (a *App) AdminDonationsExport(w http.ResponseWriter, r *http.Request) {
	donations, err := a.Donations.ListAll(r.Context())
	if err != nil {
		a.Logger.Error().Err(err).Msg("export donations failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load donations")
		return
	}

	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"id", "payment_intent_id", "amount", "currency", "donor_name", "donor_email", "status", "created_at"})
	for _, d := range donations {
		_ = cw.Write([]string{
			d.ID,
			deref(d.PaymentIntentID),
			strconv.FormatInt(d.Amount, 10),
			d.Currency,
			deref(d.DonorName),
			deref(d.DonorEmail),
			string(d.Status),
			d.CreatedAt.Format(time.RFC3339),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		a.Logger.Error().Err(err).Msg("export donations failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build export")
		return
	}

	archive, err := zip.Archive([]zip.File{{Name: "donations.csv", Data: buf.Bytes()}})
	if err != nil {
		a.Logger.Error().Err(err).Msg("export donations failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build export")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="donations.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toDonationDTOs(donations []domain.Donation) []donationDTO {
	items := make([]donationDTO, 0, len(donations))
	for _, d := range donations {
		items = append(items, toDonationDTO(d))
	}
	return items
}
