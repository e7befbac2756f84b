// internal/integration/handlers.go
package integration

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"hsmini/internal/action"
	"hsmini/internal/hubspot"
	"hsmini/internal/tokens"
	"hsmini/pkg/apierr"
	"hsmini/pkg/middleware"
)

// Handlers holds the wiring for the public endpoints.
type Handlers struct {
	resolver   *tokens.Resolver
	actions    action.Store
	engine     *action.Engine
	dispatcher *action.Dispatcher
	hub        *hubspot.Client
	pool       *pgxpool.Pool
	log        *zap.SugaredLogger
}

func NewHandlers(resolver *tokens.Resolver, actions action.Store, engine *action.Engine, dispatcher *action.Dispatcher, hub *hubspot.Client, pool *pgxpool.Pool, log *zap.SugaredLogger) *Handlers {
	return &Handlers{
		resolver:   resolver,
		actions:    actions,
		engine:     engine,
		dispatcher: dispatcher,
		hub:        hub,
		pool:       pool,
		log:        log,
	}
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type executeRequest struct {
	ActionID         string `json:"action_id"`
	TargetObjectID   string `json:"target_object_id"`
	TargetObjectType string `json:"target_object_type"`
	TenantID         string `json:"tenant_id"`
	HubID            string `json:"hub_id"` // legacy field name
}

// ExecuteAction runs a stored button definition against its target.
func (h *Handlers) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.Wrap(apierr.BadRequest, "invalid JSON body", err))
		return
	}
	hubID := req.TenantID
	if hubID == "" {
		hubID = req.HubID
	}
	if req.ActionID == "" || hubID == "" {
		apierr.Write(w, apierr.New(apierr.BadRequest, "action_id and tenant_id are required"))
		return
	}

	a, err := h.actions.GetAction(r.Context(), req.ActionID)
	if err != nil {
		if errors.Is(err, action.ErrNotFound) {
			apierr.Write(w, apierr.Newf(apierr.NotFound, "action %s not found", req.ActionID))
		} else {
			apierr.Write(w, apierr.Wrap(apierr.Internal, "action lookup", err))
		}
		return
	}

	accessToken, err := h.resolver.ResolveByHubID(r.Context(), hubID)
	if err != nil {
		apierr.Write(w, err)
		return
	}

	finalURL, body, err := h.engine.Render(r.Context(), a, action.ExecContext{
		ObjectID:     req.TargetObjectID,
		ObjectTypeID: req.TargetObjectType,
		HubID:        hubID,
		ActionID:     a.ID,
		AccessToken:  accessToken,
	})
	if err != nil {
		apierr.Write(w, err)
		return
	}

	start := time.Now()
	resp, err := h.dispatcher.Dispatch(r.Context(), a.Method, finalURL, body, accessToken)
	status := http.StatusOK
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) && ae.DownstreamStatus != 0 {
			status = ae.DownstreamStatus
		} else {
			status = http.StatusBadGateway
		}
		h.logInvocation(r, a.ID, hubID, a.Method, finalURL, status, start)
		apierr.Write(w, err)
		return
	}
	h.logInvocation(r, a.ID, hubID, a.Method, finalURL, status, start)
	writeJSON(w, map[string]any{"message": "Button action executed successfully", "response": resp}, http.StatusOK)
}

type invokeWebhookRequest struct {
	WebhookID   string            `json:"webhook_id"`
	DynamicData map[string]string `json:"dynamic_data"`
}

// InvokeWebhook runs a stored webhook definition. Webhook targets never
// receive a portal token.
func (h *Handlers) InvokeWebhook(w http.ResponseWriter, r *http.Request) {
	var req invokeWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.Write(w, apierr.Wrap(apierr.BadRequest, "invalid JSON body", err))
		return
	}
	if req.WebhookID == "" {
		apierr.Write(w, apierr.New(apierr.BadRequest, "webhook_id is required"))
		return
	}
	wh, err := h.actions.GetWebhook(r.Context(), req.WebhookID)
	if err != nil {
		if errors.Is(err, action.ErrNotFound) {
			apierr.Write(w, apierr.Newf(apierr.NotFound, "webhook %s not found", req.WebhookID))
		} else {
			apierr.Write(w, apierr.Wrap(apierr.Internal, "webhook lookup", err))
		}
		return
	}
	body, unresolved := action.RenderWebhook(wh, req.DynamicData)
	if len(unresolved) > 0 {
		h.log.Warnw("unresolved webhook placeholders", "webhook", wh.ID, "tokens", unresolved)
	}
	resp, err := h.dispatcher.Dispatch(r.Context(), wh.Method, wh.URL, body, "")
	if err != nil {
		apierr.Write(w, err)
		return
	}
	writeJSON(w, map[string]any{"message": "Webhook invoked successfully", "response": resp}, http.StatusOK)
}

// ListButtons serves every button definition with its card title. The embedded
// card UI loads this without credentials, so no auth gate here.
func (h *Handlers) ListButtons(w http.ResponseWriter, r *http.Request) {
	items, err := h.actions.ListActions(r.Context())
	if err != nil {
		apierr.Write(w, apierr.Wrap(apierr.Internal, "failed to fetch buttons", err))
		return
	}
	writeJSON(w, map[string]any{"data": items}, http.StatusOK)
}

// ListContacts proxies the first page of CRM contacts for the admin UI.
func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		apierr.Write(w, apierr.New(apierr.BadRequest, "client_id is required"))
		return
	}
	accessToken, err := h.resolver.ResolveByID(r.Context(), clientID)
	if err != nil {
		apierr.Write(w, err)
		return
	}
	contacts, err := h.hub.ListContacts(r.Context(), accessToken)
	if err != nil {
		apierr.Write(w, apierr.Wrap(apierr.DownstreamCallFailed, "failed to fetch contacts", err))
		return
	}
	writeJSON(w, map[string]any{"data": contacts}, http.StatusOK)
}

func (h *Handlers) logInvocation(r *http.Request, actionID, hubID, method, target string, status int, start time.Time) {
	if h.pool == nil {
		return
	}
	host := ""
	if u, err := url.Parse(target); err == nil {
		host = u.Host
	}
	dur := time.Since(start)
	_, _ = h.pool.Exec(r.Context(), `
		INSERT INTO action_invocations(action_id, hub_id, method, target_host, status_code, duration_ms, request_id, started_at, finished_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, actionID, hubID, method, host, status, int(dur.Milliseconds()), middleware.RequestIDFrom(r.Context()), start.UTC(), time.Now().UTC())
}
