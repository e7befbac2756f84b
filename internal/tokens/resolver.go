// internal/tokens/resolver.go
package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hsmini/internal/hubspot"
	"hsmini/pkg/accounts"
	"hsmini/pkg/apierr"
)

// refreshLockTTL bounds the advisory lock taken around a token refresh. It is
// best-effort: with no Redis configured, concurrent refreshes race and the
// provider's tolerance for reused refresh tokens decides the outcome.
const refreshLockTTL = 10 * time.Second

// Resolver returns a currently valid access token for an account, refreshing
// and persisting new tokens when the stored one has expired. There is no
// in-process cache: every call re-reads the store.
type Resolver struct {
	store       accounts.Store
	hub         *hubspot.Client
	creds       *CredentialResolver
	redirectURI string
	locks       *redis.Client
	log         *zap.SugaredLogger
	now         func() time.Time
}

func NewResolver(store accounts.Store, hub *hubspot.Client, creds *CredentialResolver, redirectURI string, locks *redis.Client, log *zap.SugaredLogger) *Resolver {
	return &Resolver{
		store:       store,
		hub:         hub,
		creds:       creds,
		redirectURI: redirectURI,
		locks:       locks,
		log:         log,
		now:         time.Now,
	}
}

// ResolveByID resolves a token for the account with the given internal id.
func (r *Resolver) ResolveByID(ctx context.Context, id string) (string, error) {
	a, err := r.store.GetByID(ctx, id)
	if err != nil {
		return "", mapStoreErr(err, "client_id "+id)
	}
	return r.freshToken(ctx, a)
}

// ResolveByHubID resolves a token for the account connected to the given portal.
func (r *Resolver) ResolveByHubID(ctx context.Context, hubID string) (string, error) {
	a, err := r.store.GetByHubID(ctx, hubID)
	if err != nil {
		return "", mapStoreErr(err, "hub_id "+hubID)
	}
	return r.freshToken(ctx, a)
}

func mapStoreErr(err error, lookup string) error {
	if errors.Is(err, accounts.ErrNotFound) {
		return apierr.Newf(apierr.NotFound, "HubSpot integration not found for %s; please connect your account", lookup)
	}
	return apierr.Wrap(apierr.Internal, "account lookup", err)
}

func (r *Resolver) freshToken(ctx context.Context, a accounts.Account) (string, error) {
	if a.TokenValid(r.now()) {
		return a.AccessToken, nil
	}
	return r.refresh(ctx, a)
}

func (r *Resolver) refresh(ctx context.Context, a accounts.Account) (string, error) {
	if unlock := r.tryLock(ctx, a.ID); unlock != nil {
		defer unlock()
	} else {
		// Another invocation holds the lock; re-read once in case it already
		// refreshed. If the record is still stale, refresh anyway.
		if cur, err := r.store.GetByID(ctx, a.ID); err == nil {
			if cur.TokenValid(r.now()) {
				return cur.AccessToken, nil
			}
			a = cur
		}
	}

	creds, err := r.creds.Resolve(a)
	if err != nil {
		return "", err
	}
	r.log.Infow("access token expired, refreshing", "account", a.ID)
	tr, err := r.hub.RefreshToken(ctx, creds.ClientID, creds.ClientSecret, r.redirectURI, a.RefreshToken)
	if err != nil {
		return "", apierr.Wrap(apierr.RefreshFailed, "failed to refresh access token; please reconnect your account", err)
	}
	refreshToken := tr.RefreshToken
	if refreshToken == "" {
		// HubSpot does not always rotate refresh tokens.
		refreshToken = a.RefreshToken
	}
	expiresAt := r.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	if err := r.store.UpdateTokens(ctx, a.ID, tr.AccessToken, refreshToken, expiresAt); err != nil {
		return "", apierr.Wrap(apierr.Internal, "failed to persist refreshed tokens", err)
	}
	return tr.AccessToken, nil
}

// tryLock takes the per-account advisory lock, returning a release func or nil
// when the lock is held elsewhere. No Redis means no coordination.
func (r *Resolver) tryLock(ctx context.Context, accountID string) func() {
	if r.locks == nil {
		return func() {}
	}
	key := "hsmini:refresh:" + accountID
	ok, err := r.locks.SetNX(ctx, key, "1", refreshLockTTL).Result()
	if err != nil {
		r.log.Warnw("refresh lock unavailable", "err", err)
		return func() {}
	}
	if !ok {
		return nil
	}
	return func() { r.locks.Del(context.Background(), key) }
}
