// internal/oauth/controller.go
package oauth

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"hsmini/internal/hubspot"
	"hsmini/internal/tokens"
	"hsmini/pkg/accounts"
	"hsmini/pkg/apierr"
	"hsmini/pkg/secrets"
)

// Controller implements the two-step install flow: the install redirect and
// the code-exchange callback. No state is persisted between the steps.
type Controller struct {
	store       accounts.Store
	hub         *hubspot.Client
	creds       *tokens.CredentialResolver
	codec       *secrets.Codec
	scopes      string
	redirectURI string
	thankYouURL string
	log         *zap.SugaredLogger
	now         func() time.Time
}

func NewController(store accounts.Store, hub *hubspot.Client, creds *tokens.CredentialResolver, codec *secrets.Codec, scopes, redirectURI, thankYouURL string, log *zap.SugaredLogger) *Controller {
	return &Controller{
		store:       store,
		hub:         hub,
		creds:       creds,
		codec:       codec,
		scopes:      scopes,
		redirectURI: redirectURI,
		thankYouURL: thankYouURL,
		log:         log,
		now:         time.Now,
	}
}

// Install answers GET /install with a 302 to HubSpot's authorize endpoint.
func (c *Controller) Install(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clientID := q.Get("client_id")
	if clientID == "" {
		apierr.Write(w, apierr.New(apierr.BadRequest, "client_id is required"))
		return
	}

	// An existing record may carry account-specific app credentials.
	acct, err := c.store.GetByID(r.Context(), clientID)
	if err != nil && !errors.Is(err, accounts.ErrNotFound) {
		apierr.Write(w, apierr.Wrap(apierr.Internal, "account lookup", err))
		return
	}
	appClientID, err := c.creds.ResolveClientID(acct)
	if err != nil {
		apierr.Write(w, err)
		return
	}

	// Caller-supplied state passes through verbatim; otherwise construct the
	// minimal payload the callback needs.
	state := q.Get("state")
	if state == "" {
		state = State{ClientID: clientID}.Encode()
	}

	authURL := c.hub.AuthorizeURL(appClientID, c.scopes, c.redirectURI, state)
	c.log.Infow("install redirect", "client_id", clientID)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback answers GET /oauth/callback: exchanges the code, discovers the
// portal id, and upserts the credential record. Failures return JSON errors,
// never the thank-you redirect.
func (c *Controller) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	if code == "" || q.Get("state") == "" {
		apierr.Write(w, apierr.New(apierr.BadRequest, "authorization code or state parameter missing"))
		return
	}
	st, err := DecodeState(q.Get("state"))
	if err != nil {
		apierr.Write(w, err)
		return
	}

	acct, err := c.store.GetByID(r.Context(), st.ClientID)
	if err != nil && !errors.Is(err, accounts.ErrNotFound) {
		apierr.Write(w, apierr.Wrap(apierr.Internal, "account lookup", err))
		return
	}
	creds, err := c.creds.Resolve(acct)
	if err != nil {
		apierr.Write(w, err)
		return
	}

	tr, err := c.hub.ExchangeCode(r.Context(), creds.ClientID, creds.ClientSecret, c.redirectURI, code)
	if err != nil {
		apierr.Write(w, apierr.Wrap(apierr.TokenExchangeFailed, "failed to exchange code for tokens", err))
		return
	}

	// The portal id must be confirmed before anything is persisted.
	info, err := c.hub.IntrospectToken(r.Context(), tr.AccessToken)
	if err != nil {
		apierr.Write(w, apierr.Wrap(apierr.TenantDiscoveryFailed, "failed to resolve portal for new tokens", err))
		return
	}

	rec := accounts.Account{
		ID:           st.ClientID,
		UserID:       st.UserID,
		HubID:        hubspot.HubIDString(info.HubID),
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    c.now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}
	// Persist the credentials actually used so later refreshes keep working
	// even if the process defaults change.
	if c.codec != nil {
		if enc, err := c.codec.EncryptString(creds.ClientID); err != nil {
			c.log.Warnw("encrypt app client id, refreshes will use process defaults", "client_id", st.ClientID, "err", err)
		} else {
			rec.AppClientID = enc
		}
		if enc, err := c.codec.EncryptString(creds.ClientSecret); err != nil {
			c.log.Warnw("encrypt app client secret, refreshes will use process defaults", "client_id", st.ClientID, "err", err)
		} else {
			rec.AppClientSecret = enc
		}
	}
	if err := c.store.UpsertAuthorized(r.Context(), rec); err != nil {
		apierr.Write(w, apierr.Wrap(apierr.Internal, "failed to save tokens", err))
		return
	}

	c.log.Infow("portal connected", "client_id", st.ClientID, "hub_id", rec.HubID)
	http.Redirect(w, r, c.thankYouURL, http.StatusFound)
}
