package adminapi

import (
	"net/http"
	"strconv"
	"time"
)

// getUsageSummary aggregates recent action invocations for the dashboard.
// Query param days (default 7) bounds the window.
func (a *App) getUsageSummary(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 90 {
			days = n
		}
	}
	since := time.Now().AddDate(0, 0, -days)
	rows, err := a.db.Query(r.Context(), `
		SELECT COALESCE(action_id,''), COALESCE(hub_id,''), COUNT(*),
		       COUNT(*) FILTER (WHERE status_code >= 200 AND status_code < 300),
		       COALESCE(AVG(duration_ms),0)::int
		FROM action_invocations
		WHERE started_at >= $1
		GROUP BY action_id, hub_id
		ORDER BY COUNT(*) DESC`, since)
	if err != nil {
		http.Error(w, "db error", 500)
		return
	}
	defer rows.Close()
	type Row struct {
		ActionID      string `json:"action_id"`
		HubID         string `json:"hub_id"`
		Invocations   int    `json:"invocations"`
		Successes     int    `json:"successes"`
		AvgDurationMS int    `json:"avg_duration_ms"`
	}
	var out []Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.ActionID, &row.HubID, &row.Invocations, &row.Successes, &row.AvgDurationMS); err != nil {
			http.Error(w, "db error", 500)
			return
		}
		out = append(out, row)
	}
	writeJSON(w, map[string]any{"days": days, "items": out}, 200)
}
