// internal/tokens/credentials.go
package tokens

import (
	"hsmini/pkg/accounts"
	"hsmini/pkg/apierr"
	"hsmini/pkg/secrets"
)

// AppCredentials is one HubSpot app client id/secret pair.
type AppCredentials struct {
	ClientID     string
	ClientSecret string
}

// CredentialResolver picks the app credentials for an account: the account's
// own encrypted pair when present, else the process-wide defaults.
type CredentialResolver struct {
	defaults AppCredentials
	codec    *secrets.Codec
}

func NewCredentialResolver(defaults AppCredentials, codec *secrets.Codec) *CredentialResolver {
	return &CredentialResolver{defaults: defaults, codec: codec}
}

// Resolve returns the credentials to present for the given account. A zero
// Account selects the defaults outright (install step before any record exists).
func (r *CredentialResolver) Resolve(a accounts.Account) (AppCredentials, error) {
	if len(a.AppClientID) > 0 && len(a.AppClientSecret) > 0 {
		if r.codec == nil {
			return AppCredentials{}, apierr.New(apierr.ConfigMissing, "account has app credentials but no ENCRYPTION_KEY is configured")
		}
		id, err := r.codec.DecryptString(a.AppClientID)
		if err != nil {
			return AppCredentials{}, apierr.Wrap(apierr.ConfigMissing, "decrypt app client id", err)
		}
		secret, err := r.codec.DecryptString(a.AppClientSecret)
		if err != nil {
			return AppCredentials{}, apierr.Wrap(apierr.ConfigMissing, "decrypt app client secret", err)
		}
		return AppCredentials{ClientID: id, ClientSecret: secret}, nil
	}
	if r.defaults.ClientID == "" || r.defaults.ClientSecret == "" {
		return AppCredentials{}, apierr.New(apierr.ConfigMissing, "no HubSpot app credentials available (account-specific or default)")
	}
	return r.defaults, nil
}

// ResolveClientID is the install-step variant: only the client id is needed to
// build the authorization URL, so a missing secret is not an error yet.
func (r *CredentialResolver) ResolveClientID(a accounts.Account) (string, error) {
	if len(a.AppClientID) > 0 {
		if r.codec == nil {
			return "", apierr.New(apierr.ConfigMissing, "account has app credentials but no ENCRYPTION_KEY is configured")
		}
		id, err := r.codec.DecryptString(a.AppClientID)
		if err != nil {
			return "", apierr.Wrap(apierr.ConfigMissing, "decrypt app client id", err)
		}
		return id, nil
	}
	if r.defaults.ClientID == "" {
		return "", apierr.New(apierr.ConfigMissing, "HUBSPOT_CLIENT_ID not configured")
	}
	return r.defaults.ClientID, nil
}
