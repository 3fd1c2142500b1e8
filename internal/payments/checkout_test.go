package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"server/internal/domain"
)

type fakeSessionCreator struct {
	lastParams *stripe.CheckoutSessionParams
	session    *stripe.CheckoutSession
	err        error
	calls      int
}

func (f *fakeSessionCreator) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.calls++
	f.lastParams = params
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func newTestCheckoutService(creator *fakeSessionCreator) *CheckoutService {
	return NewCheckoutService(creator, "Don à ASBL Hope Action Jeunesse", "eur", 5*time.Second, zerolog.Nop())
}

func TestCreateCheckoutRejectsNonPositiveAmount(t *testing.T) {
	creator := &fakeSessionCreator{}
	svc := newTestCheckoutService(creator)

	for _, amount := range []int64{0, -1, -25} {
		_, err := svc.CreateCheckout(context.Background(), CheckoutParams{
			Amount:     amount,
			SuccessURL: "https://hopeaj.be/don-reussi",
			CancelURL:  "https://hopeaj.be/faire-un-don",
		})
		require.ErrorIs(t, err, ErrInvalidAmount)
	}
	require.Zero(t, creator.calls, "processor must not be contacted for invalid amounts")
}

func TestCreateCheckoutBuildsSessionParams(t *testing.T) {
	creator := &fakeSessionCreator{session: &stripe.CheckoutSession{
		ID:  "cs_123",
		URL: "https://checkout.stripe.test/cs_123",
	}}
	svc := newTestCheckoutService(creator)

	url, err := svc.CreateCheckout(context.Background(), CheckoutParams{
		Amount:     25,
		DonorName:  "Jeanne",
		DonorEmail: "jeanne@example.org",
		Message:    "Bon courage",
		SuccessURL: "https://hopeaj.be/don-reussi",
		CancelURL:  "https://hopeaj.be/faire-un-don",
	})
	require.NoError(t, err)
	require.Equal(t, "https://checkout.stripe.test/cs_123", url)

	params := creator.lastParams
	require.NotNil(t, params)
	require.Equal(t, string(stripe.CheckoutSessionModePayment), *params.Mode)
	require.Len(t, params.LineItems, 1)
	require.EqualValues(t, 2500, *params.LineItems[0].PriceData.UnitAmount)
	require.Equal(t, "eur", *params.LineItems[0].PriceData.Currency)
	require.Equal(t, "Bon courage", *params.LineItems[0].PriceData.ProductData.Description)
	require.Equal(t, "https://hopeaj.be/don-reussi", *params.SuccessURL)
	require.Equal(t, "https://hopeaj.be/faire-un-don", *params.CancelURL)
	require.Equal(t, "jeanne@example.org", *params.CustomerEmail)
	require.Equal(t, "Jeanne", params.Metadata["donor_name"])
	require.Equal(t, "jeanne@example.org", params.Metadata["donor_email"])
	require.Equal(t, "Bon courage", params.Metadata["message"])
}

func TestCreateCheckoutDefaultsDescription(t *testing.T) {
	creator := &fakeSessionCreator{session: &stripe.CheckoutSession{
		ID:  "cs_124",
		URL: "https://checkout.stripe.test/cs_124",
	}}
	svc := newTestCheckoutService(creator)

	_, err := svc.CreateCheckout(context.Background(), CheckoutParams{
		Amount:     10,
		SuccessURL: "https://hopeaj.be/don-reussi",
		CancelURL:  "https://hopeaj.be/faire-un-don",
	})
	require.NoError(t, err)
	require.Equal(t, defaultCheckoutDescription, *creator.lastParams.LineItems[0].PriceData.ProductData.Description)
	require.Nil(t, creator.lastParams.CustomerEmail)
}

func TestCreateCheckoutUpstreamFailure(t *testing.T) {
	creator := &fakeSessionCreator{err: errors.New("stripe: api unreachable")}
	svc := newTestCheckoutService(creator)

	_, err := svc.CreateCheckout(context.Background(), CheckoutParams{
		Amount:     25,
		SuccessURL: "https://hopeaj.be/don-reussi",
		CancelURL:  "https://hopeaj.be/faire-un-don",
	})
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}

func TestCreateCheckoutMissingRedirectURL(t *testing.T) {
	creator := &fakeSessionCreator{session: &stripe.CheckoutSession{ID: "cs_125"}}
	svc := newTestCheckoutService(creator)

	_, err := svc.CreateCheckout(context.Background(), CheckoutParams{
		Amount:     25,
		SuccessURL: "https://hopeaj.be/don-reussi",
		CancelURL:  "https://hopeaj.be/faire-un-don",
	})
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
