package handlers

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"

	"server/internal/auth"
	"server/internal/domain"
	"server/internal/payments"
)

// In-memory doubles for the repository and processor seams. They mirror the
// constraints the SQL layer enforces (unique email, unique payment intent,
// sticky completed status) so handler tests exercise real semantics.

type memUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (m *memUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, ok := m.byEmail[user.Email]; ok {
		return nil, domain.ErrDuplicateEmail
	}
	stored := *user
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.byID[stored.ID] = &stored
	m.byEmail[stored.Email] = &stored
	return &stored, nil
}

func (m *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if u, ok := m.byEmail[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memUserRepo) TouchLastSignIn(_ context.Context, id string) error {
	if u, ok := m.byID[id]; ok {
		now := time.Now()
		u.LastSignedIn = &now
	}
	return nil
}

type memDonationRepo struct {
	byIntent map[string]*domain.Donation
	order    []string
	listErr  error
}

func newMemDonationRepo() *memDonationRepo {
	return &memDonationRepo{byIntent: map[string]*domain.Donation{}}
}

func (m *memDonationRepo) InsertCompleted(_ context.Context, donation *domain.Donation) (bool, error) {
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

func (m *memDonationRepo) UpdateStatus(_ context.Context, paymentIntentID string, status domain.DonationStatus) error {
	d, ok := m.byIntent[paymentIntentID]
	if !ok || d.Status == domain.DonationCompleted {
		return nil
	}
	d.Status = status
	return nil
}

func (m *memDonationRepo) GetByPaymentIntent(_ context.Context, paymentIntentID string) (*domain.Donation, error) {
	if d, ok := m.byIntent[paymentIntentID]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, domain.ErrNotFound
}

func (m *memDonationRepo) ListAll(_ context.Context) ([]domain.Donation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var items []domain.Donation
	for _, key := range m.order {
		items = append(items, *m.byIntent[key])
	}
	return items, nil
}

func (m *memDonationRepo) ListCompleted(_ context.Context) ([]domain.Donation, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var items []domain.Donation
	for _, key := range m.order {
		if m.byIntent[key].Status == domain.DonationCompleted {
			items = append(items, *m.byIntent[key])
		}
	}
	return items, nil
}

type stubSessionCreator struct {
	session *stripe.CheckoutSession
	err     error
	calls   int
}

func (s *stubSessionCreator) New(_ *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

const testHandlerWebhookSecret = "whsec_handlers"

type appOption func(*App, *memUserRepo, *memDonationRepo)

func newTestApp(opts ...appOption) (*App, *memUserRepo, *memDonationRepo) {
	users := newMemUserRepo()
	donations := newMemDonationRepo()

	tokens := auth.NewTokenService("handlers-test-secret", time.Hour)
	authSvc := auth.NewService(users, tokens, zerolog.Nop())
	creator := &stubSessionCreator{session: &stripe.CheckoutSession{
		ID:  "cs_test",
		URL: "https://checkout.stripe.test/cs_test",
	}}
	checkout := payments.NewCheckoutService(creator, "Don à ASBL Hope Action Jeunesse", "eur", time.Second, zerolog.Nop())
	webhooks := payments.NewWebhookService(donations, testHandlerWebhookSecret, time.Second, zerolog.Nop())

	app := &App{
		Logger:    zerolog.Nop(),
		Auth:      authSvc,
		Checkout:  checkout,
		Webhooks:  webhooks,
		Donations: donations,
	}
	for _, opt := range opts {
		opt(app, users, donations)
	}
	return app, users, donations
}

func withSessionCreator(creator payments.SessionCreator) appOption {
	return func(app *App, _ *memUserRepo, _ *memDonationRepo) {
		app.Checkout = payments.NewCheckoutService(creator, "Don à ASBL Hope Action Jeunesse", "eur", time.Second, zerolog.Nop())
	}
}
