package domain

import "time"

// DonationStatus enumerates the ledger states of a donation attempt.
type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationCompleted DonationStatus = "completed"
	DonationFailed    DonationStatus = "failed"
)

// Donation is one row of the donation ledger. PaymentIntentID is the
// processor's stable id for the payment attempt and the idempotency key:
// at most one row exists per non-nil id.
type Donation struct {
	ID              string
	PaymentIntentID *string
	Amount          int64 // whole currency units, not cents
	Currency        string
	DonorName       *string
	DonorEmail      *string
	Message         *string
	Status          DonationStatus
	CreatedAt       time.Time
}
