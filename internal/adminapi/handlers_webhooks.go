package adminapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type WebhookBody struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	Method       string `json:"method"`
	BodyTemplate string `json:"body_template"`
}

func (a *App) listWebhooks(w http.ResponseWriter, r *http.Request) {
	rows, err := a.db.Query(r.Context(), `SELECT id, COALESCE(name,''), url, method, COALESCE(body_template,''), created_at FROM webhooks ORDER BY created_at DESC`)
	if err != nil {
		http.Error(w, "db error", 500)
		return
	}
	defer rows.Close()
	type Row struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		URL          string    `json:"url"`
		Method       string    `json:"method"`
		BodyTemplate string    `json:"body_template"`
		CreatedAt    time.Time `json:"created_at"`
	}
	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.Name, &row.URL, &row.Method, &row.BodyTemplate, &row.CreatedAt); err != nil {
			http.Error(w, "db error", 500)
			return
		}
		out = append(out, row)
	}
	writeJSON(w, map[string]any{"items": out}, 200)
}

func (a *App) createWebhook(w http.ResponseWriter, r *http.Request) {
	var b WebhookBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", 400)
		return
	}
	if b.URL == "" {
		http.Error(w, "missing url", 400)
		return
	}
	if b.Method == "" {
		b.Method = "POST"
	}
	id := uuidNew()
	if _, err := a.db.Exec(r.Context(), `INSERT INTO webhooks(id,name,url,method,body_template) VALUES ($1,$2,$3,$4,$5)`,
		id, nullIfEmpty(b.Name), b.URL, b.Method, nullIfEmpty(b.BodyTemplate)); err != nil {
		http.Error(w, "db error", 500)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id}, 201)
}

func (a *App) updateWebhook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var b WebhookBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", 400)
		return
	}
	_, err := a.db.Exec(r.Context(), `UPDATE webhooks SET name=COALESCE($1,name), url=COALESCE($2,url), method=COALESCE($3,method), body_template=COALESCE($4,body_template) WHERE id=$5`,
		nullIfEmpty(b.Name), nullIfEmpty(b.URL), nullIfEmpty(b.Method), nullIfEmpty(b.BodyTemplate), id)
	if err != nil {
		http.Error(w, "db error", 500)
		return
	}
	writeJSON(w, map[string]any{"ok": true}, 200)
}

func (a *App) deleteWebhook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := a.db.Exec(r.Context(), `DELETE FROM webhooks WHERE id=$1`, id); err != nil {
		http.Error(w, "db error", 500)
		return
	}
	writeJSON(w, map[string]any{"ok": true}, 200)
}
