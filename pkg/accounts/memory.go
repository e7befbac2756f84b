// pkg/accounts/memory.go
package accounts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// memStore is the dev/test Store. Upsert semantics mirror the postgres
// implementation, including the (user_id, hub_id) conflict key.
type memStore struct {
	log  *zap.SugaredLogger
	mu   sync.Mutex
	byID map[string]Account
}

func NewMemoryStore(log *zap.SugaredLogger) Store {
	return &memStore{log: log, byID: map[string]Account{}}
}

func (m *memStore) GetByID(ctx context.Context, id string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		return a, nil
	}
	return Account{}, ErrNotFound
}

func (m *memStore) GetByHubID(ctx context.Context, hubID string) (Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.HubID == hubID {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (m *memStore) UpsertAuthorized(ctx context.Context, a Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Internal id wins: a pre-provisioned record keeps its user id even when
	// the authorization carried none.
	if existing, ok := m.byID[a.ID]; ok {
		if a.UserID != "" {
			existing.UserID = a.UserID
		}
		existing.HubID = a.HubID
		existing.AccessToken = a.AccessToken
		existing.RefreshToken = a.RefreshToken
		existing.ExpiresAt = a.ExpiresAt
		if a.AppClientID != nil {
			existing.AppClientID = a.AppClientID
		}
		if a.AppClientSecret != nil {
			existing.AppClientSecret = a.AppClientSecret
		}
		m.byID[a.ID] = existing
		return nil
	}
	for id, existing := range m.byID {
		if existing.UserID == a.UserID && existing.HubID == a.HubID && a.HubID != "" {
			existing.AccessToken = a.AccessToken
			existing.RefreshToken = a.RefreshToken
			existing.ExpiresAt = a.ExpiresAt
			if a.AppClientID != nil {
				existing.AppClientID = a.AppClientID
			}
			if a.AppClientSecret != nil {
				existing.AppClientSecret = a.AppClientSecret
			}
			m.byID[id] = existing
			return nil
		}
	}
	m.byID[a.ID] = a
	return nil
}

func (m *memStore) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	a.AccessToken = accessToken
	a.RefreshToken = refreshToken
	a.ExpiresAt = expiresAt
	m.byID[id] = a
	return nil
}

func (m *memStore) SaveAppCredentials(ctx context.Context, a Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.byID[a.ID]
	if !ok {
		m.byID[a.ID] = a
		return nil
	}
	existing.UserID = a.UserID
	existing.HubID = a.HubID
	if a.AppClientID != nil {
		existing.AppClientID = a.AppClientID
	}
	if a.AppClientSecret != nil {
		existing.AppClientSecret = a.AppClientSecret
	}
	m.byID[a.ID] = existing
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}
