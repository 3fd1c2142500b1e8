package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"server/internal/domain"
)

// eventKind is the closed set of processor events the ledger reacts to.
// Everything else is acknowledged and dropped.
type eventKind int

const (
	eventIgnored eventKind = iota
	eventSessionCompleted
	eventPaymentSucceeded
	eventPaymentFailed
)

// ledgerEvent is the trusted, classified form of a webhook delivery. Only
// sessionCompleted events carry the amount and donor annotations; the
// payment_intent events confirm or fail an existing row.
type ledgerEvent struct {
	kind            eventKind
	paymentIntentID string
	amount          int64 // whole currency units
	currency        string
	donorName       *string
	donorEmail      *string
	message         *string
}

// WebhookService verifies inbound processor deliveries and drives the
// donation ledger state machine: Unknown -> Pending -> {Completed | Failed},
// with Completed sticky. It is the only writer of the ledger.
type WebhookService struct {
	donations domain.DonationRepository
	secret    string
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewWebhookService creates a webhook service using the shared endpoint secret.
func NewWebhookService(donations domain.DonationRepository, secret string, timeout time.Duration, logger zerolog.Logger) *WebhookService {
	return &WebhookService{donations: donations, secret: secret, timeout: timeout, logger: logger}
}

// Process verifies and applies one raw delivery. The signature is checked
// over the raw body before anything is parsed as a trusted event.
//
// Errors split in two classes: domain.ErrInvalidSignature is permanent (the
// caller answers 400 and the processor stops), while any other error is a
// processing failure the processor should retry (500). A nil return,
// including every idempotent no-op, tells the processor to stop retrying.
func (s *WebhookService) Process(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("webhook signature verification failed")
		return domain.ErrInvalidSignature
	}

	// Endpoint verification pings from the dashboard carry synthetic ids.
	if strings.HasPrefix(event.ID, "evt_test_") {
		s.logger.Info().Msg("webhook verification event acknowledged")
		return nil
	}

	lev, err := classifyEvent(&event)
	if err != nil {
		// The payload passed signature verification but does not parse;
		// retrying will not fix it, so acknowledge and log.
		s.logger.Error().Err(err).Str("type", string(event.Type)).Msg("undecodable webhook payload")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	switch lev.kind {
	case eventSessionCompleted:
		return s.applySessionCompleted(ctx, lev)
	case eventPaymentSucceeded:
		return s.applyStatus(ctx, lev, domain.DonationCompleted)
	case eventPaymentFailed:
		return s.applyStatus(ctx, lev, domain.DonationFailed)
	case eventIgnored:
		s.logger.Debug().Str("type", string(event.Type)).Msg("webhook event ignored")
		return nil
	default:
		return fmt.Errorf("unreachable event kind %d", lev.kind)
	}
}

// applySessionCompleted creates the ledger row for a finished checkout. The
// insert is keyed by payment intent id, so at-least-once delivery collapses
// to exactly one row.
func (s *WebhookService) applySessionCompleted(ctx context.Context, lev ledgerEvent) error {
	if lev.paymentIntentID == "" {
		s.logger.Warn().Msg("session completed without payment intent, skipping")
		return nil
	}

	donation := &domain.Donation{
		ID:              uuid.NewString(),
		PaymentIntentID: &lev.paymentIntentID,
		Amount:          lev.amount,
		Currency:        lev.currency,
		DonorName:       lev.donorName,
		DonorEmail:      lev.donorEmail,
		Message:         lev.message,
		Status:          domain.DonationCompleted,
	}
	created, err := s.donations.InsertCompleted(ctx, donation)
	if err != nil {
		return fmt.Errorf("record donation: %w", err)
	}
	if created {
		s.logger.Info().Str("payment_intent", lev.paymentIntentID).Int64("amount", lev.amount).Msg("donation recorded")
	} else {
		s.logger.Info().Str("payment_intent", lev.paymentIntentID).Msg("duplicate delivery, donation already recorded")
	}
	return nil
}

// applyStatus narrows the status of an existing row. Unknown payment intents
// are a no-op: the session completed event is authoritative for creation.
func (s *WebhookService) applyStatus(ctx context.Context, lev ledgerEvent, status domain.DonationStatus) error {
	if lev.paymentIntentID == "" {
		return nil
	}
	if err := s.donations.UpdateStatus(ctx, lev.paymentIntentID, status); err != nil {
		return fmt.Errorf("update donation status: %w", err)
	}
	s.logger.Info().Str("payment_intent", lev.paymentIntentID).Str("status", string(status)).Msg("donation status applied")
	return nil
}

// classifyEvent maps a verified Stripe event onto the closed ledgerEvent set.
func classifyEvent(event *stripe.Event) (ledgerEvent, error) {
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return ledgerEvent{}, fmt.Errorf("decode checkout session: %w", err)
		}
		lev := ledgerEvent{
			kind: eventSessionCompleted,
			// amount_total is in minor units.
			amount:     int64(math.Round(float64(sess.AmountTotal) / 100)),
			currency:   string(sess.Currency),
			donorName:  metadataField(sess.Metadata, "donor_name"),
			donorEmail: donorEmail(&sess),
			message:    metadataField(sess.Metadata, "message"),
		}
		if sess.PaymentIntent != nil {
			lev.paymentIntentID = sess.PaymentIntent.ID
		}
		return lev, nil

	case stripe.EventTypePaymentIntentSucceeded:
		id, err := paymentIntentID(event)
		if err != nil {
			return ledgerEvent{}, err
		}
		return ledgerEvent{kind: eventPaymentSucceeded, paymentIntentID: id}, nil

	case stripe.EventTypePaymentIntentPaymentFailed:
		id, err := paymentIntentID(event)
		if err != nil {
			return ledgerEvent{}, err
		}
		return ledgerEvent{kind: eventPaymentFailed, paymentIntentID: id}, nil

	default:
		return ledgerEvent{kind: eventIgnored}, nil
	}
}

func paymentIntentID(event *stripe.Event) (string, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return "", fmt.Errorf("decode payment intent: %w", err)
	}
	return pi.ID, nil
}

func metadataField(metadata map[string]string, key string) *string {
	if v, ok := metadata[key]; ok && v != "" {
		return &v
	}
	return nil
}

// donorEmail prefers the metadata annotation, falling back to the email the
// donor typed into the checkout page.
func donorEmail(sess *stripe.CheckoutSession) *string {
	if v := metadataField(sess.Metadata, "donor_email"); v != nil {
		return v
	}
	if sess.CustomerEmail != "" {
		email := sess.CustomerEmail
		return &email
	}
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		email := sess.CustomerDetails.Email
		return &email
	}
	return nil
}
