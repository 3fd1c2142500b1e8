package sqlinline

const QInsertUser = `--sql ce68fb8c-9818-4c5f-9cd5-879f53d57eb2
insert into users (id, name, email, password_hash, role)
values ($1, $2, lower($3), $4, $5)
returning id, name, email, password_hash, role, created_at, updated_at, last_signed_in;
`

const QSelectUserByEmail = `--sql f0deca10-c5db-481d-af25-a04813849102
select id, name, email, password_hash, role, created_at, updated_at, last_signed_in
from users
where email = lower($1)
limit 1;
`

const QSelectUserByID = `--sql dcf04df8-c125-4258-90ea-7c1a65088cfc
select id, name, email, password_hash, role, created_at, updated_at, last_signed_in
from users
where id = $1
limit 1;
`

const QTouchLastSignIn = `--sql f042288f-6915-4c05-a39f-417a658e2a4c
update users
set last_signed_in = now(), updated_at = now()
where id = $1;
`
