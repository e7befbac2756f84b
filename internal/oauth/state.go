// internal/oauth/state.go
package oauth

import (
	"encoding/json"
	"net/url"

	"hsmini/pkg/apierr"
)

// State is the blob round-tripped through HubSpot's authorize redirect. The
// authorization server is the only holder of in-flight install state, so
// everything the callback needs must ride in here.
type State struct {
	ClientID string `json:"client_id"`
	UserID   string `json:"user_id,omitempty"`
	HubID    string `json:"hub_id,omitempty"`
}

// Encode returns the URL-escaped JSON form used as the state query value.
func (s State) Encode() string {
	b, _ := json.Marshal(s)
	return url.QueryEscape(string(b))
}

// DecodeState parses an echoed state value. The value arrives already
// transport-decoded by the query parser; a second unescape pass is attempted
// for callers that double-encoded. Malformed state is never repaired.
func DecodeState(raw string) (State, error) {
	if raw == "" {
		return State{}, apierr.New(apierr.BadRequest, "state parameter missing")
	}
	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		unescaped, uerr := url.QueryUnescape(raw)
		if uerr != nil || json.Unmarshal([]byte(unescaped), &s) != nil {
			return State{}, apierr.Wrap(apierr.BadRequest, "invalid state parameter format", err)
		}
	}
	if s.ClientID == "" {
		return State{}, apierr.New(apierr.BadRequest, "client_id missing from state parameter")
	}
	return s, nil
}
