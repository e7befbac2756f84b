// internal/integration/router.go
package integration

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hsmini/internal/oauth"
)

// Router mounts the public endpoints. CORS, request ids, recovery and tracing
// are applied by the service main; routes here are all unauthenticated — the
// install/callback pair is driven by HubSpot, and execute is called by the
// embedded card UI.
func Router(r chi.Router, ctl *oauth.Controller, h *Handlers) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	r.Get("/install", ctl.Install)
	r.Get("/oauth/callback", ctl.Callback)

	r.Route("/v1", func(vr chi.Router) {
		vr.Post("/actions/execute", h.ExecuteAction)
		vr.Post("/webhooks/invoke", h.InvokeWebhook)
		vr.Get("/buttons", h.ListButtons)
		vr.Get("/contacts", h.ListContacts)
	})
}
