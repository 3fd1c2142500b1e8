package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// DonationRepositoryPG implements domain.DonationRepository using PostgreSQL.
// The unique index on stripe_payment_intent_id is the idempotency guarantee:
// two webhook deliveries racing on the same intent cannot produce two rows.
type DonationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(sql infra.SQLExecutor) *DonationRepositoryPG {
	return &DonationRepositoryPG{sql: sql}
}

// InsertCompleted records a completed donation for a payment intent.
// Reports whether a new row was written; a duplicate delivery hits the
// conflict clause and changes nothing.
func (r *DonationRepositoryPG) InsertCompleted(ctx context.Context, donation *domain.Donation) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QInsertCompletedDonation,
		donation.ID,
		donation.PaymentIntentID,
		donation.Amount,
		donation.Currency,
		donation.DonorName,
		donation.DonorEmail,
		donation.Message,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateStatus moves an existing donation toward the given status. Completed
// rows never regress, and an unknown payment intent is a no-op so the update
// events stay safe to apply in any order.
func (r *DonationRepositoryPG) UpdateStatus(ctx context.Context, paymentIntentID string, status domain.DonationStatus) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateDonationStatus, paymentIntentID, status)
	return err
}

// GetByPaymentIntent fetches a donation by the processor's payment intent id.
func (r *DonationRepositoryPG) GetByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Donation, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectDonationByIntent, paymentIntentID)
	return scanDonation(row)
}

// ListAll returns every donation ordered by creation time.
func (r *DonationRepositoryPG) ListAll(ctx context.Context) ([]domain.Donation, error) {
	return r.list(ctx, sqlinline.QListDonations)
}

// ListCompleted returns completed donations ordered by creation time.
func (r *DonationRepositoryPG) ListCompleted(ctx context.Context) ([]domain.Donation, error) {
	return r.list(ctx, sqlinline.QListCompletedDonations)
}

func (r *DonationRepositoryPG) list(ctx context.Context, query string) ([]domain.Donation, error) {
	rows, err := r.sql.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Donation
	for rows.Next() {
		var d domain.Donation
		if err := rows.Scan(&d.ID, &d.PaymentIntentID, &d.Amount, &d.Currency, &d.DonorName, &d.DonorEmail, &d.Message, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanDonation(row pgx.Row) (*domain.Donation, error) {
	var d domain.Donation
	if err := row.Scan(&d.ID, &d.PaymentIntentID, &d.Amount, &d.Currency, &d.DonorName, &d.DonorEmail, &d.Message, &d.Status, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}
