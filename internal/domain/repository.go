package domain

import "context"

// UserRepository defines access methods for user credentials.
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	TouchLastSignIn(ctx context.Context, id string) error
}

// DonationRepository handles donation ledger persistence. The webhook
// pipeline is the only writer; admin endpoints only read.
type DonationRepository interface {
	// InsertCompleted records a completed donation keyed by payment intent.
	// A duplicate payment intent id is a no-op, so at-least-once webhook
	// delivery stays safe. Returns true when a new row was created.
	InsertCompleted(ctx context.Context, donation *Donation) (bool, error)
	// UpdateStatus moves an existing row toward the given status. Completed
	// rows are sticky and never regress. Missing rows are a no-op.
	UpdateStatus(ctx context.Context, paymentIntentID string, status DonationStatus) error
	GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*Donation, error)
	ListAll(ctx context.Context) ([]Donation, error)
	ListCompleted(ctx context.Context) ([]Donation, error)
}
