// internal/hubspot/client.go
package hubspot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client wraps the HubSpot OAuth and CRM endpoints used by the bridge.
// Every call is a single round-trip: no retries, context as the only bound.
type Client struct {
	authURL string
	apiBase string
	http    *http.Client
	log     *zap.SugaredLogger
}

func NewClient(authURL, apiBase string, log *zap.SugaredLogger) *Client {
	return &Client{
		authURL: strings.TrimRight(authURL, "/"),
		apiBase: strings.TrimRight(apiBase, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

// APIHost returns the host of the CRM API base URL. The dispatcher uses it to
// decide whether an outbound call may carry the portal's bearer token.
func (c *Client) APIHost() string {
	u, err := url.Parse(c.apiBase)
	if err != nil {
		return ""
	}
	return u.Host
}

// TokenResponse is the shape returned by the OAuth token endpoint for both the
// authorization_code and refresh_token grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// TokenInfo is the introspection result for an access token. HubSpot reports
// portal and user identity here; it is the only authority for hub ids.
type TokenInfo struct {
	HubID  int64  `json:"hub_id"`
	UserID int64  `json:"user_id"`
	User   string `json:"user"`
	AppID  int64  `json:"app_id"`
}

// AuthorizeURL builds the redirect target for the install step. The state blob
// is passed through verbatim; callers encode it before handing it over.
func (c *Client) AuthorizeURL(clientID, scopes, redirectURI, state string) string {
	return c.authURL +
		"?client_id=" + url.QueryEscape(clientID) +
		"&scope=" + url.QueryEscape(scopes) +
		"&redirect_uri=" + url.QueryEscape(redirectURI) +
		"&state=" + state
}

func (c *Client) tokenGrant(ctx context.Context, form url.Values) (TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/oauth/v1/token", strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return TokenResponse{}, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TokenResponse{}, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return TokenResponse{}, fmt.Errorf("token endpoint returned malformed JSON: %w", err)
	}
	if tr.AccessToken == "" {
		return TokenResponse{}, fmt.Errorf("token endpoint returned no access_token")
	}
	return tr, nil
}

// ExchangeCode performs the authorization_code grant. The redirect URI must
// exactly match the value registered at install time.
func (c *Client) ExchangeCode(ctx context.Context, clientID, clientSecret, redirectURI, code string) (TokenResponse, error) {
	return c.tokenGrant(ctx, url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"redirect_uri":  {redirectURI},
		"code":          {code},
	})
}

// RefreshToken performs the refresh_token grant. HubSpot requires redirect_uri
// here too, even though no redirection happens.
func (c *Client) RefreshToken(ctx context.Context, clientID, clientSecret, redirectURI, refreshToken string) (TokenResponse, error) {
	return c.tokenGrant(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"redirect_uri":  {redirectURI},
		"refresh_token": {refreshToken},
	})
}

// IntrospectToken resolves the portal (hub) a freshly issued token belongs to.
func (c *Client) IntrospectToken(ctx context.Context, accessToken string) (TokenInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+"/oauth/v1/access-tokens/"+url.PathEscape(accessToken), nil)
	if err != nil {
		return TokenInfo{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return TokenInfo{}, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return TokenInfo{}, fmt.Errorf("token introspection returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var info TokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return TokenInfo{}, fmt.Errorf("token introspection returned malformed JSON: %w", err)
	}
	if info.HubID == 0 {
		return TokenInfo{}, fmt.Errorf("token introspection returned no hub_id")
	}
	return info, nil
}

// FetchObject loads one CRM object (contacts/companies/deals/tickets) as raw JSON.
func (c *Client) FetchObject(ctx context.Context, accessToken, objectType, objectID string) (map[string]any, error) {
	u := fmt.Sprintf("%s/crm/v3/objects/%s/%s", c.apiBase, url.PathEscape(objectType), url.PathEscape(objectID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s/%s returned %d: %s", objectType, objectID, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("fetch %s/%s returned malformed JSON: %w", objectType, objectID, err)
	}
	return obj, nil
}

// Contact is the trimmed row shape served to the admin UI.
type Contact struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Company   string `json:"company,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListContacts pages are not followed: the admin UI only needs the first page.
func (c *Client) ListContacts(ctx context.Context, accessToken string) ([]Contact, error) {
	u := c.apiBase + "/crm/v3/objects/contacts?properties=firstname,lastname,email,company"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("list contacts returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var page struct {
		Results []struct {
			ID         string            `json:"id"`
			Properties map[string]string `json:"properties"`
			CreatedAt  string            `json:"createdAt"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("list contacts returned malformed JSON: %w", err)
	}
	out := make([]Contact, 0, len(page.Results))
	for _, r := range page.Results {
		name := strings.TrimSpace(r.Properties["firstname"] + " " + r.Properties["lastname"])
		out = append(out, Contact{
			ID:        r.ID,
			Name:      name,
			Email:     r.Properties["email"],
			Company:   r.Properties["company"],
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// HubIDString formats a numeric hub id the way the store keys it.
func HubIDString(id int64) string { return strconv.FormatInt(id, 10) }
