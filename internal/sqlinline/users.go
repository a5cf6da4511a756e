package sqlinline

const QInsertUser = `--sql 4e7a2c90-6d85-41fb-b3e9-07c5f1d68a24
insert into users (id, username, api_key, created_at)
values ($1, $2, $3, $4);
`

const QSelectUserByAPIKey = `--sql c61d8f35-9b20-4e74-a582-3f04b7e9d1c6
select id, username, api_key, created_at
from users
where api_key = $1;
`
