package adminapi

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ensureContentSchema creates the card/button content tables. The integration
// service ensures the same button-family tables so either service can start
// first; the DDL is idempotent on both sides.
func ensureContentSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS cards (
  id text PRIMARY KEY,
  title text NOT NULL,
  description text,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
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
ALTER TABLE buttons ADD COLUMN IF NOT EXISTS card_id text;
ALTER TABLE buttons ADD COLUMN IF NOT EXISTS api_body_template text;
`)
	return err
}
