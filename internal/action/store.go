// internal/action/store.go
package action

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgStore reads button and webhook definitions written by the admin API.
type pgStore struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

func NewPostgresStore(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Store {
	return &pgStore{dbPool: dbPool, log: log}
}

func (s *pgStore) GetAction(ctx context.Context, id string) (Action, error) {
	row := s.dbPool.QueryRow(ctx, `SELECT id, COALESCE(label,''), api_url, COALESCE(api_method,'GET'), COALESCE(api_body_template,'') FROM buttons WHERE id=$1`, id)
	var a Action
	if err := row.Scan(&a.ID, &a.Label, &a.TargetURL, &a.Method, &a.BodyTemplate); err != nil {
		if err == pgx.ErrNoRows {
			return Action{}, ErrNotFound
		}
		return Action{}, err
	}
	rows, err := s.dbPool.Query(ctx, `SELECT key, value FROM query_params WHERE button_id=$1 ORDER BY position, created_at`, id)
	if err != nil {
		return Action{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var p QueryParam
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return Action{}, err
		}
		a.QueryParams = append(a.QueryParams, p)
	}
	return a, rows.Err()
}

func (s *pgStore) ListActions(ctx context.Context) ([]Summary, error) {
	rows, err := s.dbPool.Query(ctx, `
		SELECT b.id, COALESCE(b.card_id,''), COALESCE(c.title,''), COALESCE(b.label,''), b.api_url, COALESCE(b.api_method,'GET'), COALESCE(b.api_body_template,''), b.created_at
		FROM buttons b LEFT JOIN cards c ON c.id=b.card_id
		ORDER BY b.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.CardID, &sum.CardTitle, &sum.Label, &sum.TargetURL, &sum.Method, &sum.BodyTemplate, &sum.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *pgStore) GetWebhook(ctx context.Context, id string) (Webhook, error) {
	row := s.dbPool.QueryRow(ctx, `SELECT id, COALESCE(name,''), url, COALESCE(method,'POST'), COALESCE(body_template,'') FROM webhooks WHERE id=$1`, id)
	var wh Webhook
	if err := row.Scan(&wh.ID, &wh.Name, &wh.URL, &wh.Method, &wh.BodyTemplate); err != nil {
		if err == pgx.ErrNoRows {
			return Webhook{}, ErrNotFound
		}
		return Webhook{}, err
	}
	return wh, nil
}

// memStore backs dev mode and tests.
type memStore struct {
	mu       sync.Mutex
	actions  map[string]Action
	webhooks map[string]Webhook
	order    []string // action insertion order, oldest first
}

func NewMemoryStore() *memStore {
	return &memStore{actions: map[string]Action{}, webhooks: map[string]Webhook{}}
}

func (m *memStore) PutAction(a Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.actions[a.ID]; !ok {
		m.order = append(m.order, a.ID)
	}
	m.actions[a.ID] = a
}

func (m *memStore) PutWebhook(w Webhook) { m.mu.Lock(); m.webhooks[w.ID] = w; m.mu.Unlock() }

func (m *memStore) GetAction(ctx context.Context, id string) (Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.actions[id]; ok {
		return a, nil
	}
	return Action{}, ErrNotFound
}

func (m *memStore) ListActions(ctx context.Context) ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Summary, 0, len(m.order))
	for i := len(m.order) - 1; i >= 0; i-- {
		a := m.actions[m.order[i]]
		out = append(out, Summary{
			ID:           a.ID,
			Label:        a.Label,
			TargetURL:    a.TargetURL,
			Method:       a.Method,
			BodyTemplate: a.BodyTemplate,
		})
	}
	return out, nil
}

func (m *memStore) GetWebhook(ctx context.Context, id string) (Webhook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.webhooks[id]; ok {
		return w, nil
	}
	return Webhook{}, ErrNotFound
}
