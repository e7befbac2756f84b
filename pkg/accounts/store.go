package accounts

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is the dominant legitimate failure: the integration has not been
// installed (or linked) for the given lookup key.
var ErrNotFound = errors.New("account not found")

type Store interface {
	GetByID(ctx context.Context, id string) (Account, error)
	GetByHubID(ctx context.Context, hubID string) (Account, error)
	// UpsertAuthorized persists the outcome of a successful OAuth exchange.
	// An existing record with the same internal id is updated in place (its
	// user id retained when the exchange carried none); otherwise the conflict
	// key is (user_id, hub_id), so re-authorizing the same portal updates
	// tokens in place and retains the existing internal id.
	UpsertAuthorized(ctx context.Context, a Account) error
	// UpdateTokens persists a refresh outcome for the record identified by id.
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt time.Time) error
	// SaveAppCredentials upserts a manually managed record keyed by id,
	// writing only identity and (already encrypted) app credential columns.
	SaveAppCredentials(ctx context.Context, a Account) error
	Delete(ctx context.Context, id string) error
}
