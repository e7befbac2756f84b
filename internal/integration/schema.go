// internal/integration/schema.go
package integration

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables the public service reads and writes.
// Safe to call repeatedly (idempotent); the admin API ensures the same
// definition tables so either service can start first.
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS buttons (
  id text PRIMARY KEY,
  card_id text,
  label text,
  api_url text NOT NULL,
  api_method text NOT NULL DEFAULT 'GET',
  api_body_template text,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS query_params (
  id text PRIMARY KEY,
  button_id text REFERENCES buttons(id) ON DELETE CASCADE,
  key text NOT NULL,
  value text,
  position int NOT NULL DEFAULT 0,
  created_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS webhooks (
  id text PRIMARY KEY,
  name text,
  url text NOT NULL,
  method text NOT NULL DEFAULT 'POST',
  body_template text,
  created_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS action_invocations (
  id BIGSERIAL PRIMARY KEY,
  action_id text,
  hub_id text,
  method text,
  target_host text,
  status_code int,
  duration_ms int,
  request_id text,
  started_at timestamptz NOT NULL DEFAULT NOW(),
  finished_at timestamptz
);
`)
	return err
}
