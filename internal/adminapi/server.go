package adminapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	mw "hsmini/pkg/middleware"
)

// Handler builds the HTTP handler with routes and middleware.
func (a *App) Handler(corsOrigins string) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Logger, chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	allowed := []string{"http://localhost:3001"}
	if v := strings.TrimSpace(corsOrigins); v != "" {
		parts := strings.Split(v, ",")
		tmp := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				tmp = append(tmp, s)
			}
		}
		if len(tmp) > 0 {
			allowed = tmp
		}
	}

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(mw.AllowlistCORS(allowed))
		ar.Use(a.adminAuth)
		ar.Get("/cards", a.listCards)
		ar.Post("/cards", a.createCard)
		ar.Put("/cards/{id}", a.updateCard)
		ar.Delete("/cards/{id}", a.deleteCard)
		ar.Get("/buttons", a.listButtons)
		ar.Get("/buttons/{id}", a.getButton)
		ar.Post("/buttons", a.createButton)
		ar.Put("/buttons/{id}", a.updateButton)
		ar.Delete("/buttons/{id}", a.deleteButton)
		ar.Get("/webhooks", a.listWebhooks)
		ar.Post("/webhooks", a.createWebhook)
		ar.Put("/webhooks/{id}", a.updateWebhook)
		ar.Delete("/webhooks/{id}", a.deleteWebhook)
		ar.Get("/accounts", a.listAccounts)
		ar.Post("/accounts", a.saveAccountCredentials)
		ar.Delete("/accounts/{id}", a.deleteAccount)
		ar.Get("/usage/summary", a.getUsageSummary)
	})

	return r
}
