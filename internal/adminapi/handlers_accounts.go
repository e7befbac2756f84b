package adminapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hsmini/pkg/accounts"
)

type AccountBody struct {
	ID                  string `json:"id"`
	UserID              string `json:"user_id"`
	HubID               string `json:"hub_id"`
	HubSpotClientID     string `json:"hubspot_client_id"`
	HubSpotClientSecret string `json:"hubspot_client_secret"`
}

// saveAccountCredentials creates or updates a client account record, encrypting
// any supplied app credentials. Tokens are never writable here; only the OAuth
// callback sets them.
func (a *App) saveAccountCredentials(w http.ResponseWriter, r *http.Request) {
	var b AccountBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", 400)
		return
	}
	if b.ID == "" || b.UserID == "" || b.HubID == "" {
		http.Error(w, "missing required fields: id, user_id, hub_id", 400)
		return
	}

	rec := accounts.Account{ID: b.ID, UserID: b.UserID, HubID: b.HubID}
	if b.HubSpotClientID != "" || b.HubSpotClientSecret != "" {
		if a.codec == nil {
			http.Error(w, "ENCRYPTION_KEY not configured", 500)
			return
		}
		if b.HubSpotClientID != "" {
			enc, err := a.codec.EncryptString(b.HubSpotClientID)
			if err != nil {
				http.Error(w, "encrypt", 500)
				return
			}
			rec.AppClientID = enc
		}
		if b.HubSpotClientSecret != "" {
			enc, err := a.codec.EncryptString(b.HubSpotClientSecret)
			if err != nil {
				http.Error(w, "encrypt", 500)
				return
			}
			rec.AppClientSecret = enc
		}
	}
	if err := a.store.SaveAppCredentials(r.Context(), rec); err != nil {
		http.Error(w, "db error", 500)
		return
	}
	writeJSON(w, map[string]any{"message": "Client credentials saved successfully", "id": b.ID}, 200)
}

// listAccounts returns connection status per account. Secrets and tokens are
// never echoed back.
func (a *App) listAccounts(w http.ResponseWriter, r *http.Request) {
	rows, err := a.db.Query(r.Context(), `
		SELECT id, COALESCE(user_id,''), COALESCE(hub_id,''), COALESCE(expires_at,'epoch'::timestamptz),
		       access_token IS NOT NULL AND access_token <> '',
		       hubspot_client_id IS NOT NULL,
		       created_at
		FROM client ORDER BY created_at DESC`)
	if err != nil {
		http.Error(w, "db error", 500)
		return
	}
	defer rows.Close()
	type Row struct {
		ID             string    `json:"id"`
		UserID         string    `json:"user_id"`
		HubID          string    `json:"hub_id"`
		ExpiresAt      time.Time `json:"expires_at"`
		Connected      bool      `json:"connected"`
		OwnCredentials bool      `json:"own_credentials"`
		CreatedAt      time.Time `json:"created_at"`
	}
	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.UserID, &row.HubID, &row.ExpiresAt, &row.Connected, &row.OwnCredentials, &row.CreatedAt); err != nil {
			http.Error(w, "db error", 500)
			return
		}
		out = append(out, row)
	}
	writeJSON(w, map[string]any{"items": out}, 200)
}

func (a *App) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.store.Delete(r.Context(), id); err != nil {
		http.Error(w, "db error", 500)
		return
	}
	writeJSON(w, map[string]any{"ok": true}, 200)
}
