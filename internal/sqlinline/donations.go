package sqlinline

// The unique index on stripe_payment_intent_id makes the insert an
// idempotent upsert: a duplicate webhook delivery hits the conflict
// clause and writes nothing.
const QInsertCompletedDonation = `--sql a495013e-3b22-496d-afa3-7a23407a429b
insert into donations (id, stripe_payment_intent_id, amount, currency, donor_name, donor_email, message, status)
values ($1, $2, $3, $4, $5, $6, $7, 'completed')
on conflict (stripe_payment_intent_id) where stripe_payment_intent_id is not null do nothing;
`

// Completed rows never regress; an unknown payment intent is a no-op.
const QUpdateDonationStatus = `--sql 1a32d0ba-b1d9-45ad-a47c-e8540209789a
update donations
set status = $2
where stripe_payment_intent_id = $1
  and status <> 'completed';
`

const QSelectDonationByIntent = `--sql b308fa0c-3ab4-4c39-830e-97140dbfba69
select id, stripe_payment_intent_id, amount, currency, donor_name, donor_email, message, status, created_at
from donations
where stripe_payment_intent_id = $1
limit 1;
`

const QListDonations = `--sql ff0434d1-085d-4fe5-aaed-82eb863ba526
select id, stripe_payment_intent_id, amount, currency, donor_name, donor_email, message, status, created_at
from donations
order by created_at;
`

const QListCompletedDonations = `--sql e094e8a5-0059-40f2-9b30-829142b36c1c
select id, stripe_payment_intent_id, amount, currency, donor_name, donor_email, message, status, created_at
from donations
where status = 'completed'
order by created_at;
`
