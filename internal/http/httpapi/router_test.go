package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"server/internal/auth"
	"server/internal/domain"
	"server/internal/http/handlers"
	"server/internal/infra"
	"server/internal/payments"
)

const e2eWebhookSecret = "whsec_e2e"

type e2eUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func (m *e2eUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := m.byEmail[user.Email]; ok {
		return nil, domain.ErrDuplicateEmail
	}
	stored := *user
	stored.CreatedAt = time.Now()
	m.byID[stored.ID] = &stored
	m.byEmail[stored.Email] = &stored
	return &stored, nil
}

func (m *e2eUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := m.byEmail[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (m *e2eUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (m *e2eUserRepo) TouchLastSignIn(_ context.Context, _ string) error { return nil }

type e2eLedger struct {
	byIntent map[string]*domain.Donation
	order    []string
}

func (m *e2eLedger) InsertCompleted(_ context.Context, donation *domain.Donation) (bool, error) {
	key := *donation.PaymentIntentID
	if _, ok := m.byIntent[key]; ok {
		return false, nil
	}
	stored := *donation
	stored.CreatedAt = time.Now()
	m.byIntent[key] = &stored
	m.order = append(m.order, key)
	return true, nil
}

func (m *e2eLedger) UpdateStatus(_ context.Context, paymentIntentID string, status domain.DonationStatus) error {
	d, ok := m.byIntent[paymentIntentID]
	if !ok || d.Status == domain.DonationCompleted {
		return nil
	}
	d.Status = status
	return nil
}

func (m *e2eLedger) GetByPaymentIntent(_ context.Context, paymentIntentID string) (*domain.Donation, error) {
	if d, ok := m.byIntent[paymentIntentID]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (m *e2eLedger) ListAll(_ context.Context) ([]domain.Donation, error) {
	var items []domain.Donation
	for _, key := range m.order {
		items = append(items, *m.byIntent[key])
	}
	return items, nil
}

func (m *e2eLedger) ListCompleted(_ context.Context) ([]domain.Donation, error) {
	var items []domain.Donation
	for _, key := range m.order {
		if m.byIntent[key].Status == domain.DonationCompleted {
			items = append(items, *m.byIntent[key])
		}
	}
	return items, nil
}

type e2eSessions struct{}

func (e2eSessions) New(_ *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return &stripe.CheckoutSession{ID: "cs_e2e", URL: "https://checkout.stripe.test/cs_e2e"}, nil
}

func newTestServer(t *testing.T) (http.Handler, *auth.Service) {
	t.Helper()
	users := &e2eUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
	ledger := &e2eLedger{byIntent: map[string]*domain.Donation{}}

	logger := zerolog.Nop()
	tokens := auth.NewTokenService("e2e-secret", time.Hour)
	authSvc := auth.NewService(users, tokens, logger)

	app := &handlers.App{
		Logger:    logger,
		Auth:      authSvc,
		Checkout:  payments.NewCheckoutService(e2eSessions{}, "Don à ASBL Hope Action Jeunesse", "eur", time.Second, logger),
		Webhooks:  payments.NewWebhookService(ledger, e2eWebhookSecret, time.Second, logger),
		Donations: ledger,
	}

	cfg := &infra.Config{
		AllowedOrigins: []string{"https://hopeaj.be"},
		AuthRateLimit:  50,
		AuthRateWindow: 10 * time.Minute,
	}
	return NewRouter(app, cfg, logger), authSvc
}

func do(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func signE2E(payload string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(e2eWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func adminToken(t *testing.T, router http.Handler) string {
	t.Helper()
	rr := do(t, router, "POST", "/api/auth/register", `{"name":"Admin","email":"admin@hopeaj.be","password":"ChangeMe123!","role":"admin"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(t, router, "POST", "/api/auth/login", `{"email":"admin@hopeaj.be","password":"ChangeMe123!"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp.Token
}

// Full donation round trip: checkout, webhook confirmation, admin listing,
// duplicate delivery.
func TestDonationFlowEndToEnd(t *testing.T) {
	router, _ := newTestServer(t)

	// Donor requests a checkout for 25 EUR.
	rr := do(t, router, "POST", "/api/donations/checkout", `{"amount":25,"donorName":"Jeanne"}`, map[string]string{"Origin": "https://hopeaj.be"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Contains(t, rr.Body.String(), "https://checkout.stripe.test/cs_e2e")

	// The processor later reports the completed session: 2500 minor units.
	event := `{
		"id": "evt_e2e",
		"type": "checkout.session.completed",
		"data": {"object": {
			"payment_intent": "pi_1",
			"amount_total": 2500,
			"currency": "eur",
			"metadata": {"donor_name": "Jeanne"}
		}}
	}`
	sig := signE2E(event, time.Now())
	rr = do(t, router, "POST", "/api/webhooks/stripe", event, map[string]string{"Stripe-Signature": sig})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Admin sees exactly one completed 25 EUR donation.
	token := adminToken(t, router)
	rr = do(t, router, "GET", "/api/admin/donations", "", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var payload struct {
		Items []struct {
			PaymentIntentID string `json:"stripePaymentIntentId"`
			Amount          int64  `json:"amount"`
			Currency        string `json:"currency"`
			Status          string `json:"status"`
		} `json:"items"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&payload))
	require.Len(t, payload.Items, 1)
	require.Equal(t, "pi_1", payload.Items[0].PaymentIntentID)
	require.EqualValues(t, 25, payload.Items[0].Amount)
	require.Equal(t, "eur", payload.Items[0].Currency)
	require.Equal(t, "completed", payload.Items[0].Status)

	// Duplicate delivery changes nothing.
	rr = do(t, router, "POST", "/api/webhooks/stripe", event, map[string]string{"Stripe-Signature": signE2E(event, time.Now())})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, "GET", "/api/admin/donations", "", map[string]string{"Authorization": "Bearer " + token})
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&payload))
	require.Len(t, payload.Items, 1)
}

func TestAdminRoutesGated(t *testing.T) {
	router, authSvc := newTestServer(t)

	// Anonymous.
	rr := do(t, router, "GET", "/api/admin/donations", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// Authenticated non-admin.
	_, err := authSvc.Register(context.Background(), "User", "user@hopeaj.be", "hunter2hunter2", domain.UserRoleUser)
	require.NoError(t, err)
	userToken, _, err := authSvc.Login(context.Background(), "user@hopeaj.be", "hunter2hunter2")
	require.NoError(t, err)

	rr = do(t, router, "GET", "/api/admin/donations", "", map[string]string{"Authorization": "Bearer " + userToken})
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestMeRoute(t *testing.T) {
	router, _ := newTestServer(t)
	token := adminToken(t, router)

	rr := do(t, router, "GET", "/api/auth/me", "", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "admin@hopeaj.be")

	rr = do(t, router, "GET", "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHealthz(t *testing.T) {
	router, _ := newTestServer(t)
	rr := do(t, router, "GET", "/api/healthz", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "ok")
}
