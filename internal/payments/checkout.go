package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"

	"server/internal/domain"
)

// ErrInvalidAmount rejects checkout requests below one whole currency unit.
var ErrInvalidAmount = errors.New("donation amount must be at least 1")

const defaultCheckoutDescription = "Soutien à notre action contre le harcèlement"

// SessionCreator creates a checkout session with the payment processor.
// The indirection keeps Stripe's HTTP client out of handler tests.
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// StripeSessionCreator calls the real Stripe API. The API key is the
// package-level stripe.Key set once at startup.
type StripeSessionCreator struct{}

func (StripeSessionCreator) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return session.New(params)
}

// CheckoutParams describes a donor's checkout request. Amount is in whole
// currency units; donor fields are optional annotations carried as session
// metadata, not ledger fields. The ledger write happens later, on the
// webhook path.
type CheckoutParams struct {
	Amount     int64
	DonorName  string
	DonorEmail string
	Message    string
	SuccessURL string
	CancelURL  string
}

// CheckoutService asks the external processor for payment sessions. It never
// writes the donation ledger.
type CheckoutService struct {
	sessions    SessionCreator
	productName string
	currency    string
	timeout     time.Duration
	logger      zerolog.Logger
}

// NewCheckoutService creates a checkout service.
func NewCheckoutService(sessions SessionCreator, productName, currency string, timeout time.Duration, logger zerolog.Logger) *CheckoutService {
	return &CheckoutService{
		sessions:    sessions,
		productName: productName,
		currency:    currency,
		timeout:     timeout,
		logger:      logger,
	}
}

// CreateCheckout validates the request and creates a processor checkout
// session, returning the redirect URL. Processor failures surface as
// domain.ErrUpstreamUnavailable and are not retried here; the donor may
// simply try again.
func (s *CheckoutService) CreateCheckout(ctx context.Context, p CheckoutParams) (string, error) {
	if p.Amount < 1 {
		return "", ErrInvalidAmount
	}

	description := p.Message
	if description == "" {
		description = defaultCheckoutDescription
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(s.currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(s.productName),
					Description: stripe.String(description),
				},
				// Stripe expects minor units.
				UnitAmount: stripe.Int64(p.Amount * 100),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL:          stripe.String(p.SuccessURL),
		CancelURL:           stripe.String(p.CancelURL),
		AllowPromotionCodes: stripe.Bool(true),
	}
	if p.DonorEmail != "" {
		params.CustomerEmail = stripe.String(p.DonorEmail)
	}
	params.AddMetadata("donor_name", p.DonorName)
	params.AddMetadata("donor_email", p.DonorEmail)
	params.AddMetadata("message", p.Message)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	params.Context = ctx

	sess, err := s.sessions.New(params)
	if err != nil {
		s.logger.Error().Err(err).Int64("amount", p.Amount).Msg("checkout session creation failed")
		return "", fmt.Errorf("create checkout session: %w", domain.ErrUpstreamUnavailable)
	}
	if sess.URL == "" {
		s.logger.Error().Str("session_id", sess.ID).Msg("checkout session has no redirect url")
		return "", fmt.Errorf("checkout session missing url: %w", domain.ErrUpstreamUnavailable)
	}

	s.logger.Info().Str("session_id", sess.ID).Int64("amount", p.Amount).Msg("checkout session created")
	return sess.URL, nil
}
