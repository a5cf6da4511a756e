package sqlinline

// Schema initialization runs on every process start. CREATE TABLE IF NOT
// EXISTS plus the column introspection below keep it idempotent; columns that
// arrived after the base schema are added additively by the store and must
// never require backfilling existing rows.

const QCreateJobsTable = `--sql 8b6f2b1e-93d4-4c4f-9f2a-6a1f35f3a8c1
create table if not exists jobs (
    id         uuid primary key,
    user_id    uuid not null,
    filename   text not null,
    model      text not null,
    status     text not null,
    result     text not null default '',
    created_at timestamptz not null default now()
);
`

const QCreateUsersTable = `--sql 3d9c7a52-0b7e-4f7d-8c35-92e45b7d10f4
create table if not exists users (
    id         uuid primary key,
    username   text unique not null,
    api_key    text unique not null,
    created_at timestamptz not null default now()
);
`

const QSelectJobsColumns = `--sql f1a8e6d3-5c29-41bb-9e77-04d6c2a91b58
select column_name
from information_schema.columns
where table_name = 'jobs';
`

const QCreateJobsOwnerIndex = `--sql 7c3e9f84-2a61-4d0b-b2c9-58e1a6f4d273
create index if not exists idx_jobs_user_status on jobs (user_id, status);
`
