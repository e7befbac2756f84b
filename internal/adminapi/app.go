package adminapi

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.uber.org/zap"

	"hsmini/pkg/accounts"
	"hsmini/pkg/secrets"
)

// Config holds admin-api specific configuration.
type Config struct {
	HTTPAddr      string
	OIDCIssuer    string
	OIDCAudience  string
	JWKSURL       string
	RegistryDir   string
	EncryptionKey string
	CORSOrigins   string
}

// App is the admin-api application container.
// Handlers and middleware have methods on this type.
//
// Keep it lean: shared deps and config only.
// Request-scoped work should use context.
type App struct {
	log         *zap.SugaredLogger
	db          *pgxpool.Pool
	store       accounts.Store
	codec       *secrets.Codec
	adminJWKS   jwk.Set
	adminIssuer string
	adminAud    string
}

// New constructs App and performs one-time startup tasks (schema, registry import).
func New(log *zap.SugaredLogger, db *pgxpool.Pool, store accounts.Store, cfg Config) *App {
	app := &App{
		log:         log,
		db:          db,
		store:       store,
		codec:       secrets.NewCodec(cfg.EncryptionKey),
		adminIssuer: cfg.OIDCIssuer,
		adminAud:    cfg.OIDCAudience,
	}
	if cfg.JWKSURL != "" {
		app.adminJWKS = mustJWKS(cfg.JWKSURL)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if app.db != nil {
		if err := ensureContentSchema(ctx, app.db); err != nil {
			log.Fatalf("ensureContentSchema: %v", err)
		}
		if err := accounts.EnsureSchema(ctx, app.db); err != nil {
			log.Fatalf("ensure account schema: %v", err)
		}
		if dir := cfg.RegistryDir; dir != "" {
			if err := importCardsFromDir(ctx, app.db, log, dir); err != nil {
				log.Warnf("registry import failed: %v", err)
			}
		}
	}
	return app
}
