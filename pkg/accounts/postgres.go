// pkg/accounts/postgres.go
package accounts

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgStore implements Store backed by PostgreSQL.
type pgStore struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

func NewPostgresStore(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Store {
	return &pgStore{dbPool: dbPool, log: log}
}

// EnsureSchema creates required tables if they do not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS client (
  id text PRIMARY KEY,
  user_id text,
  hub_id text,
  access_token text,
  refresh_token text,
  expires_at timestamptz,
  hubspot_client_id bytea,
  hubspot_client_secret bytea,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
-- Backfill / ensure new columns exist (for upgrades)
ALTER TABLE client ADD COLUMN IF NOT EXISTS hub_id text;
ALTER TABLE client ADD COLUMN IF NOT EXISTS hubspot_client_id bytea;
ALTER TABLE client ADD COLUMN IF NOT EXISTS hubspot_client_secret bytea;
ALTER TABLE client ADD COLUMN IF NOT EXISTS updated_at timestamptz NOT NULL DEFAULT NOW();
-- One active connection per (user, portal); empty user collapses legacy installs
CREATE UNIQUE INDEX IF NOT EXISTS client_user_hub_idx ON client ((COALESCE(user_id,'')), hub_id) WHERE hub_id IS NOT NULL;
`)
	return err
}

const accountCols = `id, COALESCE(user_id,''), COALESCE(hub_id,''), COALESCE(access_token,''), COALESCE(refresh_token,''), COALESCE(expires_at, 'epoch'::timestamptz), hubspot_client_id, hubspot_client_secret`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.UserID, &a.HubID, &a.AccessToken, &a.RefreshToken, &a.ExpiresAt, &a.AppClientID, &a.AppClientSecret); err != nil {
		if err == pgx.ErrNoRows {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (s *pgStore) GetByID(ctx context.Context, id string) (Account, error) {
	row := s.dbPool.QueryRow(ctx, `SELECT `+accountCols+` FROM client WHERE id=$1`, id)
	return scanAccount(row)
}

func (s *pgStore) GetByHubID(ctx context.Context, hubID string) (Account, error) {
	row := s.dbPool.QueryRow(ctx, `SELECT `+accountCols+` FROM client WHERE hub_id=$1`, hubID)
	return scanAccount(row)
}

func (s *pgStore) UpsertAuthorized(ctx context.Context, a Account) error {
	// A pre-provisioned record (credentials saved before the first install) is
	// matched by internal id first; the (user, hub) arbiter below cannot see it
	// when the callback state carried no user id, and an unguarded insert would
	// then trip the primary key.
	tag, err := s.dbPool.Exec(ctx, `
UPDATE client SET
  user_id=COALESCE(NULLIF($2,''), user_id),
  hub_id=$3,
  access_token=$4,
  refresh_token=$5,
  expires_at=$6,
  hubspot_client_id=COALESCE($7, hubspot_client_id),
  hubspot_client_secret=COALESCE($8, hubspot_client_secret),
  updated_at=NOW()
WHERE id=$1`,
		a.ID, a.UserID, a.HubID, a.AccessToken, a.RefreshToken, a.ExpiresAt, a.AppClientID, a.AppClientSecret)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	_, err = s.dbPool.Exec(ctx, `
INSERT INTO client (id, user_id, hub_id, access_token, refresh_token, expires_at, hubspot_client_id, hubspot_client_secret)
VALUES ($1, NULLIF($2,''), $3, $4, $5, $6, $7, $8)
ON CONFLICT ((COALESCE(user_id,'')), hub_id) WHERE hub_id IS NOT NULL DO UPDATE SET
  access_token=EXCLUDED.access_token,
  refresh_token=EXCLUDED.refresh_token,
  expires_at=EXCLUDED.expires_at,
  hubspot_client_id=COALESCE(EXCLUDED.hubspot_client_id, client.hubspot_client_id),
  hubspot_client_secret=COALESCE(EXCLUDED.hubspot_client_secret, client.hubspot_client_secret),
  updated_at=NOW()`,
		a.ID, a.UserID, a.HubID, a.AccessToken, a.RefreshToken, a.ExpiresAt, a.AppClientID, a.AppClientSecret)
	return err
}

func (s *pgStore) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	tag, err := s.dbPool.Exec(ctx, `UPDATE client SET access_token=$1, refresh_token=$2, expires_at=$3, updated_at=NOW() WHERE id=$4`,
		accessToken, refreshToken, expiresAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) SaveAppCredentials(ctx context.Context, a Account) error {
	_, err := s.dbPool.Exec(ctx, `
INSERT INTO client (id, user_id, hub_id, hubspot_client_id, hubspot_client_secret)
VALUES ($1, NULLIF($2,''), $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
  user_id=EXCLUDED.user_id,
  hub_id=EXCLUDED.hub_id,
  hubspot_client_id=COALESCE(EXCLUDED.hubspot_client_id, client.hubspot_client_id),
  hubspot_client_secret=COALESCE(EXCLUDED.hubspot_client_secret, client.hubspot_client_secret),
  updated_at=NOW()`,
		a.ID, a.UserID, a.HubID, a.AppClientID, a.AppClientSecret)
	return err
}

func (s *pgStore) Delete(ctx context.Context, id string) error {
	_, err := s.dbPool.Exec(ctx, `DELETE FROM client WHERE id=$1`, id)
	return err
}
