// cmd/admin-api-service/main.go
package main

import (
	"net/http"
	"os"

	"hsmini/internal/adminapi"
	"hsmini/pkg/accounts"
	"hsmini/pkg/config"
	"hsmini/pkg/db"
	"hsmini/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	pool := db.MustConnect(cfg, log)
	if pool == nil {
		log.Fatalw("admin-api requires DATABASE_URL")
	}
	store := accounts.NewPostgresStore(pool, log)

	acfg := adminapi.Config{
		HTTPAddr:      cfg.AdminAddr,
		OIDCIssuer:    os.Getenv("ADMIN_OIDC_ISSUER"),
		OIDCAudience:  os.Getenv("ADMIN_OIDC_AUDIENCE"),
		JWKSURL:       os.Getenv("ADMIN_JWKS_URL"),
		RegistryDir:   os.Getenv("REGISTRY_DIR"),
		EncryptionKey: cfg.EncryptionKey,
		CORSOrigins:   os.Getenv("ADMIN_CORS_ORIGINS"),
	}
	app := adminapi.New(log, pool, store, acfg)

	log.Infow("admin-api listening", "addr", acfg.HTTPAddr)
	if err := http.ListenAndServe(acfg.HTTPAddr, app.Handler(acfg.CORSOrigins)); err != nil {
		log.Fatalw("listen", "err", err)
	}
	pool.Close()
}
