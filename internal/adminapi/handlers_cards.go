package adminapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type CardBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (a *App) listCards(w http.ResponseWriter, r *http.Request) {
	rows, err := a.db.Query(r.Context(), `SELECT id, title, COALESCE(description,''), created_at FROM cards ORDER BY created_at DESC`)
	if err != nil {
		http.Error(w, "db error", 500)
		return
	}
	defer rows.Close()
	type Row struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		CreatedAt   time.Time `json:"created_at"`
	}
	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ID, &row.Title, &row.Description, &row.CreatedAt); err != nil {
			http.Error(w, "db error", 500)
			return
		}
		out = append(out, row)
	}
	writeJSON(w, map[string]any{"items": out}, 200)
}

func (a *App) createCard(w http.ResponseWriter, r *http.Request) {
	var b CardBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", 400)
		return
	}
	if b.Title == "" {
		http.Error(w, "missing title", 400)
		return
	}
	id := uuidNew()
	if _, err := a.db.Exec(r.Context(), `INSERT INTO cards(id,title,description) VALUES ($1,$2,$3)`, id, b.Title, nullIfEmpty(b.Description)); err != nil {
		http.Error(w, "db error", 500)
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id}, 201)
}

func (a *App) updateCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var b CardBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, "bad json", 400)
		return
	}
	_, err := a.db.Exec(r.Context(), `UPDATE cards SET title=COALESCE($1,title), description=COALESCE($2,description), updated_at=NOW() WHERE id=$3`,
		nullIfEmpty(b.Title), nullIfEmpty(b.Description), id)
	if err != nil {
		http.Error(w, "db error", 500)
		return
	}
	writeJSON(w, map[string]any{"ok": true}, 200)
}

func (a *App) deleteCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := a.db.Exec(r.Context(), `DELETE FROM cards WHERE id=$1`, id); err != nil {
		http.Error(w, "db error", 500)
		return
	}
	writeJSON(w, map[string]any{"ok": true}, 200)
}
