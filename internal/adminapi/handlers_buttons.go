package adminapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type QueryParamBody struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type ButtonBody struct {
	CardID          string           `json:"card_id"`
	Label           string           `json:"label"`
	APIURL          string           `json:"api_url"`
	APIMethod       string           `json:"api_method"`
	APIBodyTemplate string           `json:"api_body_template"`
	Queries         []QueryParamBody `json:"queries"`
}

func (a *App) listButtons(w http.ResponseWriter, r *http.Request) {
	rows, err := a.db.Query(r.Context(), `
		SELECT b.id, COALESCE(b.card_id,''), COALESCE(b.label,''), b.api_url, b.api_method, COALESCE(b.api_body_template,''), COALESCE(c.title,''), b.created_at
		FROM buttons b LEFT JOIN cards c ON c.id=b.card_id
		ORDER BY b.created_at DESC`)
	if err != nil {
		http.Error(w, "db error", 500)
		return
	}
	defer rows.Close()
	type Row struct {
		ID              string    `json:"id"`
		CardID          string    `json:"card_id"`
		Label           string    `json:"label"`
		APIURL          string    `json:"api_url"`
		APIMethod       string    `json:"api_method"`
		APIBodyTemplate string    `json:"api_body_template"`
		CardTitle       string    `json:"card_title"`
		CreatedAt       time.Time `json:"created_at"`
	}
	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.CardID, &row.Label, &row.APIURL, &row.APIMethod, &row.APIBodyTemplate, &row.CardTitle, &row.CreatedAt); err != nil {
			http.Error(w, "db error", 500)
			return
		}
		out = append(out, row)
	}
	writeJSON(w, map[string]any{"items": out}, 200)
}

func (a *App) getButton(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var b ButtonBody
	var created time.Time
	err := a.db.QueryRow(r.Context(), `SELECT COALESCE(card_id,''), COALESCE(label,''), api_url, api_method, COALESCE(api_body_template,''), created_at FROM buttons WHERE id=$1`, id).
		Scan(&b.CardID, &b.Label, &b.APIURL, &b.APIMethod, &b.APIBodyTemplate, &created)
	if err != nil {
		http.Error(w, "not found", 404)
		return
	}
	rows, err := a.db.Query(r.Context(), `SELECT key, COALESCE(value,'') FROM query_params WHERE button_id=$1 ORDER BY position, created_at`, id)
	if err != nil {
		http.Error(w, "db error", 500)
		return
	}
	defer rows.Close()
	for rows.Next() {
		var q QueryParamBody
		if err := rows.Scan(&q.Key, &q.Value); err != nil {
			http.Error(w, "db error", 500)
			return
		}
		b.Queries = append(b.Queries, q)
	}
	writeJSON(w, map[string]any{"id": id, "button": b, "created_at": created}, 200)
}

func (a *App) createButton(w http.ResponseWriter, r *http.Request) {
	var b ButtonBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", 400)
		return
	}
	if b.APIURL == "" || b.APIMethod == "" {
		http.Error(w, "missing api_url or api_method", 400)
		return
	}
	id := uuidNew()
	if _, err := a.db.Exec(r.Context(), `INSERT INTO buttons(id,card_id,label,api_url,api_method,api_body_template) VALUES ($1,$2,$3,$4,$5,$6)`,
		id, nullIfEmpty(b.CardID), nullIfEmpty(b.Label), b.APIURL, b.APIMethod, nullIfEmpty(b.APIBodyTemplate)); err != nil {
		http.Error(w, "db error", 500)
		return
	}
	if err := a.replaceQueryParams(r, id, b.Queries); err != nil {
		http.Error(w, "db error", 500)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id}, 201)
}

func (a *App) updateButton(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var b ButtonBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", 400)
		return
	}
	_, err := a.db.Exec(r.Context(), `UPDATE buttons SET card_id=COALESCE($1,card_id), label=COALESCE($2,label), api_url=COALESCE($3,api_url), api_method=COALESCE($4,api_method), api_body_template=COALESCE($5,api_body_template), updated_at=NOW() WHERE id=$6`,
		nullIfEmpty(b.CardID), nullIfEmpty(b.Label), nullIfEmpty(b.APIURL), nullIfEmpty(b.APIMethod), nullIfEmpty(b.APIBodyTemplate), id)
	if err != nil {
		http.Error(w, "db error", 500)
		return
	}
	if b.Queries != nil {
		if err := a.replaceQueryParams(r, id, b.Queries); err != nil {
			http.Error(w, "db error", 500)
			return
		}
	}
	writeJSON(w, map[string]any{"ok": true}, 200)
}

func (a *App) deleteButton(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := a.db.Exec(r.Context(), `DELETE FROM buttons WHERE id=$1`, id); err != nil {
		http.Error(w, "db error", 500)
		return
	}
	writeJSON(w, map[string]any{"ok": true}, 200)
}

func (a *App) replaceQueryParams(r *http.Request, buttonID string, queries []QueryParamBody) error {
	if _, err := a.db.Exec(r.Context(), `DELETE FROM query_params WHERE button_id=$1`, buttonID); err != nil {
		return err
	}
	for i, q := range queries {
		if q.Key == "" {
			continue
		}
		if _, err := a.db.Exec(r.Context(), `INSERT INTO query_params(id,button_id,key,value,position) VALUES ($1,$2,$3,$4,$5)`,
			uuidNew(), buttonID, q.Key, q.Value, i); err != nil {
			return err
		}
	}
	return nil
}
