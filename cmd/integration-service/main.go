// cmd/integration-service/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hsmini/internal/action"
	"hsmini/internal/hubspot"
	"hsmini/internal/integration"
	"hsmini/internal/oauth"
	"hsmini/internal/tokens"
	"hsmini/pkg/accounts"
	"hsmini/pkg/config"
	"hsmini/pkg/db"
	"hsmini/pkg/logger"
	"hsmini/pkg/middleware"
	"hsmini/pkg/secrets"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	pool := db.MustConnect(cfg, log)
	rdb := db.MustRedis(cfg, log)

	var store accounts.Store
	var actions action.Store
	if pool != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := accounts.EnsureSchema(ctx, pool); err != nil {
			log.Fatalw("ensure account schema", "err", err)
		}
		if err := integration.EnsureSchema(ctx, pool); err != nil {
			log.Fatalw("ensure content schema", "err", err)
		}
		cancel()
		store = accounts.NewPostgresStore(pool, log)
		actions = action.NewPostgresStore(pool, log)
	} else {
		store = accounts.NewMemoryStore(log)
		actions = action.NewMemoryStore()
	}

	codec := secrets.NewCodec(cfg.EncryptionKey)
	hub := hubspot.NewClient(cfg.HubSpotAuthURL, cfg.HubSpotAPIBase, log)
	creds := tokens.NewCredentialResolver(tokens.AppCredentials{
		ClientID:     cfg.HubSpotClientID,
		ClientSecret: cfg.HubSpotClientSecret,
	}, codec)
	resolver := tokens.NewResolver(store, hub, creds, cfg.RedirectURI, rdb, log)
	ctl := oauth.NewController(store, hub, creds, codec, cfg.HubSpotScopes, cfg.RedirectURI, cfg.ThankYouURL, log)
	engine := action.NewEngine(hub, log)
	dispatcher := action.NewDispatcher(hub.APIHost(), cfg.DispatchTimeout, log)
	handlers := integration.NewHandlers(resolver, actions, engine, dispatcher, hub, pool, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.CORS())
	r.Use(middleware.Tracing("integration-service"))
	r.Handle("/metrics", promhttp.Handler())
	integration.Router(r, ctl, handlers)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infow("integration-service listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("listen", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnw("shutdown", "err", err)
	}
	if pool != nil {
		pool.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
