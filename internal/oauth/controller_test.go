package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hsmini/internal/hubspot"
	"hsmini/internal/tokens"
	"hsmini/pkg/accounts"
	"hsmini/pkg/secrets"
)

const (
	testAuthURL  = "https://app.example-hub.test/oauth/authorize"
	testRedirect = "https://bridge.test/oauth/callback"
	testThankYou = "https://ui.test/thank-you"
)

// fakePortal mocks the OAuth token + introspection endpoints. tokenGrants
// counts exchanges so tests can assert exactly-once behavior.
type fakePortal struct {
	srv         *httptest.Server
	tokenGrants int
	lastForm    url.Values
	hubID       int64
	failToken   bool
}

func newFakePortal(t *testing.T) *fakePortal {
	f := &fakePortal{hubID: 424242}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.lastForm = r.PostForm
		if f.failToken {
			http.Error(w, `{"status":"error"}`, http.StatusBadRequest)
			return
		}
		f.tokenGrants++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  fmt.Sprintf("access-%d", f.tokenGrants),
			"refresh_token": fmt.Sprintf("refresh-%d", f.tokenGrants),
			"expires_in":    1800,
		})
	})
	mux.HandleFunc("/oauth/v1/access-tokens/", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"hub_id": f.hubID, "user_id": 7})
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func newTestController(t *testing.T, portal *fakePortal) (*Controller, accounts.Store, *secrets.Codec) {
	log := zap.NewNop().Sugar()
	store := accounts.NewMemoryStore(log)
	codec := secrets.NewCodec("unit-test-key")
	hub := hubspot.NewClient(testAuthURL, portal.srv.URL, log)
	creds := tokens.NewCredentialResolver(tokens.AppCredentials{ClientID: "app-cid", ClientSecret: "app-sec"}, codec)
	ctl := NewController(store, hub, creds, codec, "crm.objects.contacts.read", testRedirect, testThankYou, log)
	return ctl, store, codec
}

func TestInstallRedirect(t *testing.T) {
	ctl, _, _ := newTestController(t, newFakePortal(t))

	req := httptest.NewRequest(http.MethodGet, "/install?client_id=acct-1", nil)
	rec := httptest.NewRecorder()
	ctl.Install(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, testAuthURL+"?"), loc)

	u, err := url.Parse(loc)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "app-cid", q.Get("client_id"))
	assert.Equal(t, "crm.objects.contacts.read", q.Get("scope"))
	assert.Equal(t, testRedirect, q.Get("redirect_uri"))

	st, err := DecodeState(q.Get("state"))
	require.NoError(t, err)
	assert.Equal(t, "acct-1", st.ClientID)
}

func TestInstallRequiresClientID(t *testing.T) {
	ctl, _, _ := newTestController(t, newFakePortal(t))

	rec := httptest.NewRecorder()
	ctl.Install(rec, httptest.NewRequest(http.MethodGet, "/install", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func callbackRequest(state string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/oauth/callback?code=the-code&state="+url.QueryEscape(state), nil)
}

func TestCallbackPersistsAndRedirects(t *testing.T) {
	portal := newFakePortal(t)
	ctl, store, codec := newTestController(t, portal)

	state := `{"client_id":"acct-1","user_id":"u1"}`
	rec := httptest.NewRecorder()
	ctl.Callback(rec, callbackRequest(state))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, testThankYou, rec.Header().Get("Location"))

	assert.Equal(t, "authorization_code", portal.lastForm.Get("grant_type"))
	assert.Equal(t, "app-cid", portal.lastForm.Get("client_id"))
	assert.Equal(t, testRedirect, portal.lastForm.Get("redirect_uri"))
	assert.Equal(t, "the-code", portal.lastForm.Get("code"))

	got, err := store.GetByHubID(context.Background(), "424242")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", got.ID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "access-1", got.AccessToken)
	assert.Equal(t, "refresh-1", got.RefreshToken)

	// The credentials actually used are persisted encrypted.
	cid, err := codec.DecryptString(got.AppClientID)
	require.NoError(t, err)
	assert.Equal(t, "app-cid", cid)
}

func TestCallbackReauthorizeKeepsSingleRecord(t *testing.T) {
	portal := newFakePortal(t)
	ctl, store, _ := newTestController(t, portal)

	state := `{"client_id":"acct-1","user_id":"u1"}`
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		ctl.Callback(rec, callbackRequest(state))
		require.Equal(t, http.StatusFound, rec.Code)
	}

	got, err := store.GetByID(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "access-2", got.AccessToken)
	assert.Equal(t, 2, portal.tokenGrants)
}

func TestCallbackAfterSavedCredentialsKeepsSingleRecord(t *testing.T) {
	portal := newFakePortal(t)
	ctl, store, codec := newTestController(t, portal)

	// Admin pre-provisions account credentials, then the user connects with
	// the default state, which carries no user id.
	encID, err := codec.EncryptString("acct-cid")
	require.NoError(t, err)
	encSec, err := codec.EncryptString("acct-sec")
	require.NoError(t, err)
	require.NoError(t, store.SaveAppCredentials(context.Background(), accounts.Account{
		ID: "acct-1", UserID: "u1", HubID: "424242",
		AppClientID: encID, AppClientSecret: encSec,
	}))

	rec := httptest.NewRecorder()
	ctl.Callback(rec, callbackRequest(`{"client_id":"acct-1"}`))
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())

	// The account's own credentials drove the exchange.
	assert.Equal(t, "acct-cid", portal.lastForm.Get("client_id"))

	got, err := store.GetByID(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "access-1", got.AccessToken)

	byHub, err := store.GetByHubID(context.Background(), "424242")
	require.NoError(t, err)
	assert.Equal(t, "acct-1", byHub.ID)
}

func TestCallbackWithoutCodecSkipsCredentialPersist(t *testing.T) {
	portal := newFakePortal(t)
	log := zap.NewNop().Sugar()
	store := accounts.NewMemoryStore(log)
	hub := hubspot.NewClient(testAuthURL, portal.srv.URL, log)
	creds := tokens.NewCredentialResolver(tokens.AppCredentials{ClientID: "app-cid", ClientSecret: "app-sec"}, nil)
	ctl := NewController(store, hub, creds, nil, "crm.objects.contacts.read", testRedirect, testThankYou, log)

	rec := httptest.NewRecorder()
	ctl.Callback(rec, callbackRequest(`{"client_id":"acct-1"}`))
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())

	got, err := store.GetByID(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "access-1", got.AccessToken)
	assert.Nil(t, got.AppClientID)
	assert.Nil(t, got.AppClientSecret)
}

func TestCallbackBadStateWritesNothing(t *testing.T) {
	portal := newFakePortal(t)
	ctl, store, _ := newTestController(t, portal)

	rec := httptest.NewRecorder()
	ctl.Callback(rec, callbackRequest("not-json"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, portal.tokenGrants)
	_, err := store.GetByHubID(context.Background(), "424242")
	assert.ErrorIs(t, err, accounts.ErrNotFound)
}

func TestCallbackMissingParams(t *testing.T) {
	ctl, _, _ := newTestController(t, newFakePortal(t))

	rec := httptest.NewRecorder()
	ctl.Callback(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback?state=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	ctl.Callback(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback?code=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackExchangeFailure(t *testing.T) {
	portal := newFakePortal(t)
	portal.failToken = true
	ctl, store, _ := newTestController(t, portal)

	rec := httptest.NewRecorder()
	ctl.Callback(rec, callbackRequest(`{"client_id":"acct-1"}`))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	_, err := store.GetByID(context.Background(), "acct-1")
	assert.ErrorIs(t, err, accounts.ErrNotFound)
}
