package accounts

import "time"

// Account is one connected HubSpot portal: the credential record created by a
// completed OAuth exchange, or pre-created manually with app credentials.
type Account struct {
	ID           string // caller-chosen internal id, stable across re-authorization
	UserID       string // administrating user; empty only for legacy installs
	HubID        string // portal id assigned by HubSpot, discovered during the exchange
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time

	// Optional per-account HubSpot app credentials, encrypted at rest.
	// When absent the process-wide defaults apply.
	AppClientID     []byte
	AppClientSecret []byte
}

// TokenValid reports whether the stored access token is still usable at now.
func (a Account) TokenValid(now time.Time) bool {
	return now.Before(a.ExpiresAt)
}
