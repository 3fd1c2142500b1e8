package sqlinline

// Schema holds the DDL applied by cmd/migrate, in order. Every statement
// is idempotent so re-running a migration is harmless.
var Schema = []string{
	SchemaUsers,
	SchemaUsersEmailIndex,
	SchemaDonations,
	SchemaDonationsIntentIndex,
	SchemaDonationsCreatedAtIndex,
}

const SchemaUsers = `--sql 2665096b-3da4-4d67-a194-3000c10b9764
create table if not exists users (
    id             uuid primary key,
    name           text not null,
    email          text not null,
    password_hash  text not null,
    role           text not null default 'user' check (role in ('user', 'admin')),
    created_at     timestamptz not null default now(),
    updated_at     timestamptz not null default now(),
    last_signed_in timestamptz
);
`

// Emails are stored lowercased; the unique index enforces the
// case-insensitive collision.
const SchemaUsersEmailIndex = `--sql beeb44bf-e3e0-488d-b926-ae1b8c423050
create unique index if not exists users_email_key on users (email);
`

const SchemaDonations = `--sql 3a0e255f-0903-4657-b6b7-30e5723c25e5
create table if not exists donations (
    id                       uuid primary key,
    stripe_payment_intent_id text,
    amount                   bigint not null,
    currency                 char(3) not null default 'eur',
    donor_name               text,
    donor_email              text,
    message                  text,
    status                   text not null default 'pending' check (status in ('pending', 'completed', 'failed')),
    created_at               timestamptz not null default now()
);
`

// The payment intent id is the idempotency key: concurrent duplicate
// webhook deliveries collapse onto this constraint. Partial so that
// checkout rows without an intent yet do not collide on NULL.
const SchemaDonationsIntentIndex = `--sql 4f4f3f9c-8a4f-4f6e-8f44-6a86b428b9d0
create unique index if not exists donations_payment_intent_key
    on donations (stripe_payment_intent_id)
    where stripe_payment_intent_id is not null;
`

const SchemaDonationsCreatedAtIndex = `--sql d9c7b1aa-22e5-4ce2-9c54-0f5f6f2a7e31
create index if not exists donations_created_at_idx on donations (created_at);
`
